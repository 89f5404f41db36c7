package admin

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/gupshup-api/internal/application/post"
	"github.com/gupshup-api/internal/domain"
)

type Service interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListPosts(ctx context.Context, viewerID string) ([]post.View, error)
	DeletePost(ctx context.Context, postID string) error
}

type userStore interface {
	ScanAll(ctx context.Context) ([]domain.User, error)
	BatchGet(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

type postStore interface {
	Get(ctx context.Context, postID string) (*domain.Post, error)
	ListFeed(ctx context.Context) ([]domain.Post, error)
	Delete(ctx context.Context, p *domain.Post) error
}

type mediaStore interface {
	Delete(ctx context.Context, publicID string) error
}

type feedInvalidator interface {
	Invalidate(ctx context.Context) error
}

type service struct {
	users  userStore
	posts  postStore
	media  mediaStore
	cache  feedInvalidator
	shaper *post.Shaper
}

// ServiceDeps wires the admin service. FeedCache is optional.
type ServiceDeps struct {
	UserRepo   userStore
	PostRepo   postStore
	MediaStore mediaStore
	FeedCache  feedInvalidator
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:  deps.UserRepo,
		posts:  deps.PostRepo,
		media:  deps.MediaStore,
		cache:  deps.FeedCache,
		shaper: post.NewShaper(deps.UserRepo),
	}
}

// ListUsers returns every user, newest first.
func (s *service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *service) ListPosts(ctx context.Context, viewerID string) ([]post.View, error) {
	posts, err := s.posts.ListFeed(ctx)
	if err != nil {
		return nil, err
	}
	return s.shaper.Shape(ctx, viewerID, posts)
}

// DeletePost removes the post and every reference to it. The stored image is
// deleted afterwards; a failure there is only logged.
func (s *service) DeletePost(ctx context.Context, postID string) error {
	if strings.TrimSpace(postID) == "" {
		return domain.BadRequest("Post ID is required")
	}
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, p); err != nil {
		return err
	}
	if p.Media.PublicID != "" && s.media != nil {
		if err := s.media.Delete(ctx, p.Media.PublicID); err != nil {
			slog.Warn("failed to delete post image", "post_id", postID, "public_id", p.Media.PublicID, "err", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Warn("feed cache invalidation failed", "err", err)
		}
	}
	return nil
}
