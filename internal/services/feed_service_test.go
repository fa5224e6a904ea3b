package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sonakanda/backend/internal/models"
	"github.com/sonakanda/backend/internal/repositories"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T) (*FeedService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewFeedService(
		repositories.NewMemoryPostRepository(),
		repositories.NewMemoryStoryRepository(),
		repositories.NewMemoryUserRepository(),
	).WithClock(clock.Now)
	return svc, clock
}

func registerUser(t *testing.T, svc *FeedService, id, nameBn string) {
	t.Helper()
	err := svc.userRepository.CreateUser(&models.User{UserID: id, NameBn: nameBn})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", id, err)
	}
}

func TestPublishPostContentInvariant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
		images  []string
		wantErr bool
	}{
		{"text only", "hello", nil, false},
		{"images only", "", []string{"/uploads/a.jpg"}, false},
		{"whitespace with image", "   ", []string{"/uploads/a.jpg"}, false},
		{"both empty", "   ", nil, true},
		{"too many images", "x", []string{"1", "2", "3", "4", "5", "6", "7"}, true},
		{"content too long", strings.Repeat("a", models.MaxPostContentLength+1), nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PublishPost(ctx, "u1", tc.content, tc.images)
			var ve *ValidationError
			if tc.wantErr {
				if !errors.As(err, &ve) {
					t.Errorf("PublishPost() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Errorf("PublishPost() error = %v", err)
			}
		})
	}
}

func TestPublishPostTrimsContentAndStartsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	post, err := svc.PublishPost(context.Background(), "u1", "  হ্যালো  ", nil)
	if err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	if post.Content != "হ্যালো" {
		t.Errorf("content = %q, want trimmed হ্যালো", post.Content)
	}
	if len(post.Likes) != 0 || len(post.Comments) != 0 {
		t.Errorf("new post must start with empty likes/comments, got %d/%d", len(post.Likes), len(post.Comments))
	}
	if post.UserID != "u1" {
		t.Errorf("author = %q, want u1", post.UserID)
	}
}

func TestPublishPostLengthCountsCharactersNotBytes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// A full-length Bengali post is roughly three bytes per character
	// and must still pass the 1000-character bound.
	content := strings.Repeat("হ", models.MaxPostContentLength)
	post, err := svc.PublishPost(ctx, "u1", content, nil)
	if err != nil {
		t.Fatalf("PublishPost(%d multibyte chars) error = %v", models.MaxPostContentLength, err)
	}
	if post.Content != content {
		t.Errorf("content altered on publish")
	}

	_, err = svc.PublishPost(ctx, "u1", strings.Repeat("হ", models.MaxPostContentLength+1), nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("PublishPost(%d chars) error = %v, want ValidationError", models.MaxPostContentLength+1, err)
	}
}

func TestToggleLikeFlipsAndIsIdempotentOverTwoCalls(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	post, err := svc.PublishPost(ctx, "u1", "হ্যালো", nil)
	if err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	id := post.ID.Hex()

	liked, err := svc.ToggleLike(ctx, id, "u2")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(liked.Likes) != 1 || !liked.HasLike("u2") {
		t.Fatalf("likes after first toggle = %v, want [u2]", liked.Likes)
	}

	unliked, err := svc.ToggleLike(ctx, id, "u2")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(unliked.Likes) != 0 || unliked.HasLike("u2") {
		t.Errorf("likes after double toggle = %v, want empty", unliked.Likes)
	}
}

func TestToggleLikeNeverDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	post, _ := svc.PublishPost(ctx, "u1", "x", nil)
	id := post.ID.Hex()

	// Odd number of toggles leaves exactly one membership.
	var last *models.PostView
	for i := 0; i < 5; i++ {
		var err error
		last, err = svc.ToggleLike(ctx, id, "u2")
		if err != nil {
			t.Fatalf("ToggleLike() error = %v", err)
		}
	}
	if len(last.Likes) != 1 {
		t.Errorf("likes after 5 toggles = %v, want exactly one u2", last.Likes)
	}
}

func TestToggleLikeUnknownPost(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ToggleLike(context.Background(), "646464646464646464646464", "u2")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("ToggleLike(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentTogglesDistinctUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	post, _ := svc.PublishPost(ctx, "u1", "x", nil)
	id := post.ID.Hex()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.ToggleLike(ctx, id, fmt.Sprintf("user-%d", i)); err != nil {
				t.Errorf("ToggleLike() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	views, err := svc.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(views[0].Likes) != n {
		t.Errorf("final like set has %d members, want %d (lost update)", len(views[0].Likes), n)
	}
}

func TestAddCommentOrderingAndValidation(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	post, _ := svc.PublishPost(ctx, "u1", "x", nil)
	id := post.ID.Hex()

	if _, err := svc.AddComment(ctx, id, "u2", "   "); err == nil {
		t.Error("AddComment(empty) error = nil, want ValidationError")
	}
	if _, err := svc.AddComment(ctx, "646464646464646464646464", "u2", "hi"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("AddComment(unknown post) error = %v, want ErrNotFound", err)
	}

	const n = 10
	for i := 0; i < n; i++ {
		clock.Advance(time.Second)
		if _, err := svc.AddComment(ctx, id, "u3", fmt.Sprintf("comment %d", i)); err != nil {
			t.Fatalf("AddComment(%d) error = %v", i, err)
		}
	}

	views, _ := svc.ListPosts(ctx)
	comments := views[0].Comments
	if len(comments) != n {
		t.Fatalf("got %d comments, want %d", len(comments), n)
	}
	for i := range comments {
		if want := fmt.Sprintf("comment %d", i); comments[i].Text != want {
			t.Errorf("comments[%d] = %q, want %q (arrival order broken)", i, comments[i].Text, want)
		}
	}
}

func TestCommentRefreshesUpdatedAtOnly(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	post, _ := svc.PublishPost(ctx, "u1", "x", nil)
	created := post.CreatedAt

	clock.Advance(time.Hour)
	updated, err := svc.AddComment(ctx, post.ID.Hex(), "u2", "hello")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on mutation: %v != %v", updated.CreatedAt, created)
	}
	if !updated.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt not refreshed: %v", updated.UpdatedAt)
	}
}

func TestListPostsRecencyOrder(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for _, content := range []string{"t1", "t2", "t3"} {
		if _, err := svc.PublishPost(ctx, "u1", content, nil); err != nil {
			t.Fatalf("PublishPost(%s) error = %v", content, err)
		}
		clock.Advance(time.Minute)
	}

	views, err := svc.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	want := []string{"t3", "t2", "t1"}
	for i := range want {
		if views[i].Content != want[i] {
			t.Errorf("ListPosts()[%d] = %q, want %q", i, views[i].Content, want[i])
		}
	}
}

func TestPublishStoryValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PublishStory(context.Background(), "u1", "  ")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("PublishStory(no image) error = %v, want ValidationError", err)
	}
}

func TestStoryVisibilityWindow(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	story, err := svc.PublishStory(ctx, "u1", "/uploads/s.jpg")
	if err != nil {
		t.Fatalf("PublishStory() error = %v", err)
	}
	if want := clock.Now().Add(models.StoryTTL); !story.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", story.ExpiresAt, want)
	}

	checks := []struct {
		advance time.Duration
		visible bool
	}{
		{time.Hour, true},
		{22 * time.Hour, true},              // 23h after creation
		{time.Hour - time.Nanosecond, true}, // just inside the window
		{time.Nanosecond, false},            // exactly 24h
		{time.Hour, false},                  // well past
	}
	for _, check := range checks {
		clock.Advance(check.advance)
		stories, err := svc.ListActiveStories(ctx)
		if err != nil {
			t.Fatalf("ListActiveStories() error = %v", err)
		}
		if got := len(stories) == 1; got != check.visible {
			t.Errorf("at %v after creation visible = %v, want %v",
				clock.Now().Sub(story.CreatedAt), got, check.visible)
		}
	}
}

func TestGetStoryByID(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "u1", "লেখক")
	story, err := svc.PublishStory(ctx, "u1", "/uploads/s.jpg")
	if err != nil {
		t.Fatalf("PublishStory() error = %v", err)
	}

	got, err := svc.GetStory(ctx, story.ID.Hex())
	if err != nil {
		t.Fatalf("GetStory() error = %v", err)
	}
	if got.Image != "/uploads/s.jpg" || got.Author.NameBn != "লেখক" {
		t.Errorf("story = %+v, want image and resolved author", got)
	}

	// Direct lookup ignores expiry; only the active listing filters.
	clock.Advance(25 * time.Hour)
	if _, err := svc.GetStory(ctx, story.ID.Hex()); err != nil {
		t.Errorf("GetStory(expired) error = %v, want success", err)
	}

	if _, err := svc.GetStory(ctx, "646464646464646464646464"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("GetStory(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestListActiveStoriesRecencyOrder(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for _, img := range []string{"/uploads/1.jpg", "/uploads/2.jpg", "/uploads/3.jpg"} {
		if _, err := svc.PublishStory(ctx, "u1", img); err != nil {
			t.Fatalf("PublishStory(%s) error = %v", img, err)
		}
		clock.Advance(time.Minute)
	}

	stories, _ := svc.ListActiveStories(ctx)
	want := []string{"/uploads/3.jpg", "/uploads/2.jpg", "/uploads/1.jpg"}
	if len(stories) != len(want) {
		t.Fatalf("got %d stories, want %d", len(stories), len(want))
	}
	for i := range want {
		if stories[i].Image != want[i] {
			t.Errorf("stories[%d] = %q, want %q", i, stories[i].Image, want[i])
		}
	}
}

func TestPurgeExpiredStories(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	if _, err := svc.PublishStory(ctx, "u1", "/uploads/old.jpg"); err != nil {
		t.Fatalf("PublishStory() error = %v", err)
	}
	clock.Advance(25 * time.Hour)

	removed, err := svc.PurgeExpiredStories(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredStories() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("purged %d stories, want 1", removed)
	}
}

func TestViewsResolveCurrentUserSummaries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "u1", "লেখক")
	registerUser(t, svc, "u3", "মন্তব্যকারী")

	post, err := svc.PublishPost(ctx, "u1", "হ্যালো", nil)
	if err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	if post.Author.NameBn != "লেখক" {
		t.Errorf("author summary = %+v, want resolved name", post.Author)
	}

	commented, err := svc.AddComment(ctx, post.ID.Hex(), "u3", "সুন্দর")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if commented.Comments[0].Author.NameBn != "মন্তব্যকারী" {
		t.Errorf("comment author = %+v, want resolved name", commented.Comments[0].Author)
	}

	// The summary is a read-through join: a profile change shows up on
	// the very next read without touching the post.
	registerUser(t, svc, "u1", "নতুন নাম")
	views, _ := svc.ListPosts(ctx)
	if views[0].Author.NameBn != "নতুন নাম" {
		t.Errorf("author after rename = %+v, want fresh summary", views[0].Author)
	}
}

func TestUnknownAuthorYieldsBareSummary(t *testing.T) {
	svc, _ := newTestService(t)

	post, err := svc.PublishPost(context.Background(), "ghost", "x", nil)
	if err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	if post.Author.UserID != "ghost" || post.Author.NameBn != "" {
		t.Errorf("author = %+v, want bare summary with id only", post.Author)
	}
}

type failingDirectory struct{}

func (failingDirectory) CreateUser(*models.User) error { return errors.New("directory down") }
func (failingDirectory) GetUserByUserID(string) (*models.User, error) {
	return nil, errors.New("directory down")
}

func TestDirectoryFailureIsDependencyError(t *testing.T) {
	svc := NewFeedService(
		repositories.NewMemoryPostRepository(),
		repositories.NewMemoryStoryRepository(),
		failingDirectory{},
	)

	_, err := svc.PublishPost(context.Background(), "u1", "x", nil)
	var de *DependencyError
	if !errors.As(err, &de) {
		t.Errorf("PublishPost() error = %v, want DependencyError", err)
	}
}

func TestFeedScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	post, err := svc.PublishPost(ctx, "u1", "হ্যালো", nil)
	if err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	if post.Content != "হ্যালো" || len(post.Likes) != 0 || len(post.Comments) != 0 {
		t.Fatalf("unexpected fresh post: %+v", post)
	}
	id := post.ID.Hex()

	liked, _ := svc.ToggleLike(ctx, id, "u2")
	if len(liked.Likes) != 1 || liked.Likes[0] != "u2" {
		t.Fatalf("likes = %v, want [u2]", liked.Likes)
	}

	unliked, _ := svc.ToggleLike(ctx, id, "u2")
	if len(unliked.Likes) != 0 {
		t.Fatalf("likes = %v, want []", unliked.Likes)
	}

	commented, err := svc.AddComment(ctx, id, "u3", "সুন্দর")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if len(commented.Comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(commented.Comments))
	}
	c := commented.Comments[0]
	if c.UserID != "u3" || c.Text != "সুন্দর" {
		t.Errorf("comment = %+v, want author u3 text সুন্দর", c)
	}
}
