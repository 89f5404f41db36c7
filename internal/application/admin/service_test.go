package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gupshup-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) ScanAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}
func (m *mockUserStore) BatchGet(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).(map[string]*domain.User)
	return users, args.Error(1)
}

type mockPostStore struct{ mock.Mock }

func (m *mockPostStore) Get(ctx context.Context, postID string) (*domain.Post, error) {
	args := m.Called(ctx, postID)
	if p, _ := args.Get(0).(*domain.Post); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPostStore) ListFeed(ctx context.Context) ([]domain.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]domain.Post)
	return posts, args.Error(1)
}
func (m *mockPostStore) Delete(ctx context.Context, p *domain.Post) error {
	return m.Called(ctx, p).Error(0)
}

type mockMedia struct{ mock.Mock }

func (m *mockMedia) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fixture struct {
	users *mockUserStore
	posts *mockPostStore
	media *mockMedia
	cache *mockCache
	svc   Service
}

func newFixture() *fixture {
	f := &fixture{users: &mockUserStore{}, posts: &mockPostStore{}, media: &mockMedia{}, cache: &mockCache{}}
	f.svc = NewService(ServiceDeps{UserRepo: f.users, PostRepo: f.posts, MediaStore: f.media, FeedCache: f.cache})
	return f
}

func TestListUsers_NewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.users.On("ScanAll", ctx).Return([]domain.User{
		{UserID: "old", CreatedAt: base},
		{UserID: "new", CreatedAt: base.Add(48 * time.Hour)},
		{UserID: "mid", CreatedAt: base.Add(24 * time.Hour)},
	}, nil)

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "new", users[0].UserID)
	assert.Equal(t, "mid", users[1].UserID)
	assert.Equal(t, "old", users[2].UserID)
}

func TestListUsers_EmptyIsNotNil(t *testing.T) {
	f := newFixture()
	f.users.On("ScanAll", mock.Anything).Return(nil, nil)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
}

func TestListPosts_Shapes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.posts.On("ListFeed", ctx).Return([]domain.Post{{PostID: "p1", UserID: "a", Caption: "hi"}}, nil)
	f.users.On("BatchGet", ctx, mock.Anything).Return(map[string]*domain.User{
		"a": {UserID: "a", Username: "alice"},
	}, nil)

	views, err := f.svc.ListPosts(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "alice", views[0].User.Username)
	assert.Equal(t, "hi", views[0].Content.Text)
}

func TestDeletePost_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.posts.On("Get", ctx, "nope").Return(nil, domain.NotFound("Post not found"))

	err := f.svc.DeletePost(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	f.posts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeletePost_RemovesPostMediaAndCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := &domain.Post{PostID: "p1", Media: domain.Media{PublicID: "posts/p1"}}
	f.posts.On("Get", ctx, "p1").Return(p, nil)
	f.posts.On("Delete", ctx, p).Return(nil)
	f.media.On("Delete", ctx, "posts/p1").Return(errors.New("cdn down"))
	f.cache.On("Invalidate", ctx).Return(nil)

	require.NoError(t, f.svc.DeletePost(ctx, "p1"))
	f.media.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestDeletePost_StoreFailureKeepsMedia(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := &domain.Post{PostID: "p1", Media: domain.Media{PublicID: "posts/p1"}}
	f.posts.On("Get", ctx, "p1").Return(p, nil)
	f.posts.On("Delete", ctx, p).Return(domain.Conflict("Post was modified concurrently, please retry"))

	err := f.svc.DeletePost(ctx, "p1")
	assert.True(t, errors.Is(err, domain.ErrConflict))
	f.media.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
