package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/sonakanda/backend/internal/models"
	"github.com/sonakanda/backend/internal/store"
)

// In-memory repositories back the dev storage mode and the test suite.
// They build on store.Collection, which serializes mutations per
// document id the same way the Mongo implementations rely on
// single-document atomic updates.

func clonePost(p models.Post) models.Post {
	out := p
	out.Images = append([]string{}, p.Images...)
	out.Likes = append([]string{}, p.Likes...)
	out.Comments = append([]models.Comment{}, p.Comments...)
	return out
}

// MemoryPostRepository implements PostRepository on an in-memory
// collection.
type MemoryPostRepository struct {
	posts *store.Collection[models.Post]
}

// NewMemoryPostRepository creates an empty in-memory post repository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: store.NewCollection(
			func(p *models.Post) string { return p.ID.Hex() },
			func(p *models.Post) time.Time { return p.CreatedAt },
			clonePost,
		),
	}
}

func (r *MemoryPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.posts.Insert(*post)
}

func (r *MemoryPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.posts.Get(id)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *MemoryPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return r.posts.All(), nil
}

func (r *MemoryPostRepository) ToggleLike(ctx context.Context, postID, userID string, now time.Time) (*models.Post, error) {
	post, err := r.posts.Update(postID, func(p *models.Post) error {
		p.ToggleLike(userID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *MemoryPostRepository) AddComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error) {
	post, err := r.posts.Update(postID, func(p *models.Post) error {
		p.AppendComment(comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// MemoryStoryRepository implements StoryRepository on an in-memory
// collection with a TTL policy.
type MemoryStoryRepository struct {
	stories *store.Collection[models.Story]
}

// NewMemoryStoryRepository creates an empty in-memory story repository.
func NewMemoryStoryRepository() *MemoryStoryRepository {
	return &MemoryStoryRepository{
		stories: store.NewCollection(
			func(s *models.Story) string { return s.ID.Hex() },
			func(s *models.Story) time.Time { return s.CreatedAt },
			func(s models.Story) models.Story { return s },
		).WithTTL(func(s *models.Story) time.Time { return s.ExpiresAt }),
	}
}

func (r *MemoryStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	return r.stories.Insert(*story)
}

func (r *MemoryStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	story, err := r.stories.Get(id)
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *MemoryStoryRepository) GetActiveStories(ctx context.Context, now time.Time) ([]models.Story, error) {
	return r.stories.ActiveAt(now), nil
}

func (r *MemoryStoryRepository) DeleteExpiredStories(ctx context.Context, now time.Time) (int64, error) {
	return int64(r.stories.ExpireOlderThan(now)), nil
}

// MemoryUserRepository implements the user directory on a plain map,
// for the dev storage mode and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserRepository creates an empty in-memory user directory.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = *user
	return nil
}

func (r *MemoryUserRepository) GetUserByUserID(userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
