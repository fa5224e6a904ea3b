package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/sonakanda/backend/internal/models"
	"github.com/sonakanda/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedService composes the post and story stores into the feed
// operations a caller performs. It is transport-agnostic: handlers bind
// requests and map the error taxonomy to status codes, nothing more.
type FeedService struct {
	postRepository  repositories.PostRepository
	storyRepository repositories.StoryRepository
	userRepository  repositories.UserRepository
	now             func() time.Time
}

// NewFeedService creates a new FeedService.
func NewFeedService(postRepo repositories.PostRepository, storyRepo repositories.StoryRepository, userRepo repositories.UserRepository) *FeedService {
	return &FeedService{
		postRepository:  postRepo,
		storyRepository: storyRepo,
		userRepository:  userRepo,
		now:             time.Now,
	}
}

// WithClock replaces the service clock. Tests use it to drive story
// expiry deterministically.
func (s *FeedService) WithClock(now func() time.Time) *FeedService {
	s.now = now
	return s
}

// PublishPost validates the content/image invariant and creates a post
// with empty likes and comments. Image references must already be
// resolved by the blob store; a failed upload never reaches this point.
func (s *FeedService) PublishPost(ctx context.Context, authorID, content string, images []string) (*models.PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(images) == 0 {
		return nil, validationf("post needs text or at least one image")
	}
	if utf8.RuneCountInString(content) > models.MaxPostContentLength {
		return nil, validationf("post content exceeds %d characters", models.MaxPostContentLength)
	}
	if len(images) > models.MaxPostImages {
		return nil, validationf("post carries more than %d images", models.MaxPostImages)
	}

	now := s.now()
	post := &models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    authorID,
		Content:   content,
		Images:    append([]string{}, images...),
		Likes:     []string{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepository.CreatePost(ctx, post); err != nil {
		return nil, &DependencyError{Op: "create post", Err: err}
	}
	return s.resolvePost(post)
}

// ToggleLike flips userID's membership in the post's like set. The flip
// is idempotent per (post, user) pair and serialized per post by the
// repository, so concurrent toggles never lose updates.
func (s *FeedService) ToggleLike(ctx context.Context, postID, userID string) (*models.PostView, error) {
	post, err := s.postRepository.ToggleLike(ctx, postID, userID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, &DependencyError{Op: "toggle like", Err: err}
	}
	return s.resolvePost(post)
}

// AddComment appends a comment to the post in arrival order.
func (s *FeedService) AddComment(ctx context.Context, postID, userID, text string) (*models.PostView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationf("comment text is empty")
	}

	now := s.now()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	post, err := s.postRepository.AddComment(ctx, postID, comment)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, &DependencyError{Op: "add comment", Err: err}
	}
	return s.resolvePost(post)
}

// ListPosts returns every post, most recent first, with authors and
// comment authors resolved to their current summaries.
func (s *FeedService) ListPosts(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.postRepository.GetAllPosts(ctx)
	if err != nil {
		return nil, &DependencyError{Op: "list posts", Err: err}
	}

	views := make([]models.PostView, 0, len(posts))
	summaries := map[string]models.UserSummary{}
	for i := range posts {
		view, err := s.resolvePostCached(&posts[i], summaries)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// PublishStory creates a story that stays visible for models.StoryTTL.
func (s *FeedService) PublishStory(ctx context.Context, authorID, image string) (*models.StoryView, error) {
	if strings.TrimSpace(image) == "" {
		return nil, validationf("story needs an image")
	}

	now := s.now()
	story := &models.Story{
		ID:        primitive.NewObjectID(),
		UserID:    authorID,
		Image:     image,
		CreatedAt: now,
		ExpiresAt: now.Add(models.StoryTTL),
	}
	if err := s.storyRepository.CreateStory(ctx, story); err != nil {
		return nil, &DependencyError{Op: "create story", Err: err}
	}

	author, err := s.summary(story.UserID)
	if err != nil {
		return nil, err
	}
	return &models.StoryView{Story: *story, Author: author}, nil
}

// GetStory returns a single story by id with its author resolved. The
// lookup is by direct reference and ignores expiry; only the active
// listing filters.
func (s *FeedService) GetStory(ctx context.Context, storyID string) (*models.StoryView, error) {
	story, err := s.storyRepository.GetStoryByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, &DependencyError{Op: "get story", Err: err}
	}

	author, err := s.summary(story.UserID)
	if err != nil {
		return nil, err
	}
	return &models.StoryView{Story: *story, Author: author}, nil
}

// ListActiveStories returns the unexpired stories, most recent first.
// All stories in one response are judged against the same instant.
func (s *FeedService) ListActiveStories(ctx context.Context) ([]models.StoryView, error) {
	stories, err := s.storyRepository.GetActiveStories(ctx, s.now())
	if err != nil {
		return nil, &DependencyError{Op: "list stories", Err: err}
	}

	views := make([]models.StoryView, 0, len(stories))
	summaries := map[string]models.UserSummary{}
	for i := range stories {
		author, err := s.summaryCached(stories[i].UserID, summaries)
		if err != nil {
			return nil, err
		}
		views = append(views, models.StoryView{Story: stories[i], Author: author})
	}
	return views, nil
}

// PurgeExpiredStories removes stories whose expiry has passed. The read
// filter keeps listings correct either way; this only reclaims space.
func (s *FeedService) PurgeExpiredStories(ctx context.Context) (int64, error) {
	return s.storyRepository.DeleteExpiredStories(ctx, s.now())
}

// RunStoryReaper purges expired stories on a fixed interval until ctx is
// canceled.
func (s *FeedService) RunStoryReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.PurgeExpiredStories(ctx)
			if err != nil {
				logrus.WithError(err).Warn("story reaper sweep failed")
				continue
			}
			if removed > 0 {
				logrus.WithField("removed", removed).Info("purged expired stories")
			}
		}
	}
}

// resolvePost attaches current directory summaries to the post's author
// and comment authors. Summaries are read through on every call, never
// cached on the entity, so displayed names track the live profile.
func (s *FeedService) resolvePost(post *models.Post) (*models.PostView, error) {
	return s.resolvePostCached(post, map[string]models.UserSummary{})
}

func (s *FeedService) resolvePostCached(post *models.Post, summaries map[string]models.UserSummary) (*models.PostView, error) {
	author, err := s.summaryCached(post.UserID, summaries)
	if err != nil {
		return nil, err
	}

	comments := make([]models.CommentView, 0, len(post.Comments))
	for _, c := range post.Comments {
		commenter, err := s.summaryCached(c.UserID, summaries)
		if err != nil {
			return nil, err
		}
		comments = append(comments, models.CommentView{Comment: c, Author: commenter})
	}

	return &models.PostView{Post: *post, Author: author, Comments: comments}, nil
}

// summary resolves one user id. A missing directory entry yields a bare
// summary carrying only the id; a directory failure is a dependency
// error, not a silent blank.
func (s *FeedService) summary(userID string) (models.UserSummary, error) {
	user, err := s.userRepository.GetUserByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.UserSummary{UserID: userID}, nil
		}
		return models.UserSummary{}, &DependencyError{Op: "resolve user", Err: err}
	}
	return user.ToSummary(), nil
}

func (s *FeedService) summaryCached(userID string, summaries map[string]models.UserSummary) (models.UserSummary, error) {
	if cached, ok := summaries[userID]; ok {
		return cached, nil
	}
	summary, err := s.summary(userID)
	if err != nil {
		return models.UserSummary{}, err
	}
	summaries[userID] = summary
	return summary, nil
}
