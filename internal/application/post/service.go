package post

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gupshup-api/internal/domain"
	natsinfra "github.com/gupshup-api/internal/infrastructure/nats"
	"github.com/gupshup-api/internal/pkg/id"
	"github.com/gupshup-api/internal/pkg/imageproc"
	"github.com/gupshup-api/internal/pkg/validate"
)

const (
	postFolder        = "posts"
	maxImageWidth     = 1080
	maxToggleAttempts = 3
)

// ToggleResult is the outcome of a like or save toggle.
type ToggleResult struct {
	Active bool // liked / saved after the toggle
	Count  int  // likes on the post after the toggle
	Post   *View
}

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreatePostRequest, image io.Reader) (*View, error)
	Feed(ctx context.Context, viewerID string) ([]View, error)
	ByUsername(ctx context.Context, viewerID, username string) ([]View, error)
	Liked(ctx context.Context, viewerID string) ([]View, error)
	Saved(ctx context.Context, viewerID string) ([]View, error)
	ToggleLike(ctx context.Context, viewerID, postID string) (*ToggleResult, error)
	ToggleSave(ctx context.Context, viewerID, postID string) (*ToggleResult, error)
}

type postStore interface {
	Create(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	BatchGet(ctx context.Context, ids []string) ([]domain.Post, error)
	ListFeed(ctx context.Context) ([]domain.Post, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	SetLike(ctx context.Context, postID, userID string, liked bool) error
	SetSave(ctx context.Context, postID, userID string, saved bool) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	BatchGet(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

type mediaStore interface {
	Upload(ctx context.Context, folder, name string, r io.Reader, contentType string) (*domain.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// FeedCache holds the raw global feed between writes.
type FeedCache interface {
	Get(ctx context.Context) ([]domain.Post, bool, error)
	Set(ctx context.Context, posts []domain.Post) error
	Invalidate(ctx context.Context) error
}

// EventPublisher emits post events, best effort.
type EventPublisher interface {
	Publish(subject string, ev natsinfra.PostEvent)
}

type service struct {
	posts  postStore
	users  userStore
	media  mediaStore
	cache  FeedCache
	events EventPublisher
	shaper *Shaper
	now    func() time.Time
}

// ServiceDeps wires the post service. FeedCache and Events are optional.
type ServiceDeps struct {
	PostRepo   postStore
	UserRepo   userStore
	MediaStore mediaStore
	FeedCache  FeedCache
	Events     EventPublisher
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		posts:  deps.PostRepo,
		users:  deps.UserRepo,
		media:  deps.MediaStore,
		cache:  deps.FeedCache,
		events: deps.Events,
		shaper: NewShaper(deps.UserRepo),
		now:    now,
	}
}

// ParseHashtags accepts a JSON array string or a comma separated list.
func ParseHashtags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, domain.BadRequest("Invalid hashtags format")
		}
	} else {
		tags = strings.Split(raw, ",")
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreatePostRequest, image io.Reader) (*View, error) {
	req.Caption = strings.TrimSpace(req.Caption)
	req.Location = strings.TrimSpace(req.Location)
	if err := validate.Struct(req); err != nil {
		return nil, domain.BadRequest(err.Error())
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	img, err := imageproc.FitWidth(image, maxImageWidth)
	if err != nil {
		return nil, domain.BadRequest("Please provide a valid image for the post")
	}

	postID := id.New()
	asset, err := s.media.Upload(ctx, postFolder, postID, img, imageproc.ContentType)
	if err != nil {
		return nil, domain.Failure("Post creation failed", err)
	}
	now := s.now().UTC()
	p := &domain.Post{
		PostID:    postID,
		UserID:    userID,
		Caption:   req.Caption,
		Media:     domain.Media{ImageURL: asset.URL, PublicID: asset.PublicID},
		Location:  req.Location,
		Hashtags:  req.Hashtags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		if derr := s.media.Delete(ctx, asset.PublicID); derr != nil {
			slog.Warn("failed to remove orphaned post image", "public_id", asset.PublicID, "err", derr)
		}
		return nil, err
	}
	s.invalidateFeed(ctx)
	s.publish(natsinfra.SubjectPostCreated, natsinfra.PostEvent{PostID: p.PostID, UserID: userID, Active: true, At: now})

	views, err := s.shaper.Shape(ctx, userID, []domain.Post{*p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) Feed(ctx context.Context, viewerID string) ([]View, error) {
	posts, err := s.feed(ctx)
	if err != nil {
		return nil, err
	}
	return s.shaper.Shape(ctx, viewerID, posts)
}

// feed returns the raw global feed, served from the cache when possible.
func (s *service) feed(ctx context.Context) ([]domain.Post, error) {
	if s.cache != nil {
		posts, ok, err := s.cache.Get(ctx)
		if err != nil {
			slog.Warn("feed cache read failed", "err", err)
		} else if ok {
			return posts, nil
		}
	}
	posts, err := s.posts.ListFeed(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, posts); err != nil {
			slog.Warn("feed cache write failed", "err", err)
		}
	}
	return posts, nil
}

func (s *service) ByUsername(ctx context.Context, viewerID, username string) ([]View, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByUser(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	return s.shaper.Shape(ctx, viewerID, posts)
}

func (s *service) Liked(ctx context.Context, viewerID string) ([]View, error) {
	u, err := s.users.Get(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.byIDs(ctx, viewerID, u.LikedPosts)
}

func (s *service) Saved(ctx context.Context, viewerID string) ([]View, error) {
	u, err := s.users.Get(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.byIDs(ctx, viewerID, u.SavedPosts)
}

func (s *service) byIDs(ctx context.Context, viewerID string, ids []string) ([]View, error) {
	if len(ids) == 0 {
		return []View{}, nil
	}
	posts, err := s.posts.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.shaper.Shape(ctx, viewerID, posts)
}

func (s *service) ToggleLike(ctx context.Context, viewerID, postID string) (*ToggleResult, error) {
	return s.toggle(ctx, viewerID, postID, (*domain.Post).LikedBy, s.posts.SetLike, natsinfra.SubjectPostLiked)
}

func (s *service) ToggleSave(ctx context.Context, viewerID, postID string) (*ToggleResult, error) {
	return s.toggle(ctx, viewerID, postID, (*domain.Post).SavedByUser, s.posts.SetSave, natsinfra.SubjectPostSaved)
}

// toggle flips the viewer's membership in one post set. A conflicting
// concurrent toggle fails the transaction condition; the post is then re-read
// and the toggle retried.
func (s *service) toggle(
	ctx context.Context,
	viewerID, postID string,
	isMember func(*domain.Post, string) bool,
	set func(ctx context.Context, postID, userID string, member bool) error,
	subject string,
) (*ToggleResult, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, domain.BadRequest("Post ID is required")
	}
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		p, err := s.posts.Get(ctx, postID)
		if err != nil {
			return nil, err
		}
		active := !isMember(p, viewerID)
		err = set(ctx, postID, viewerID, active)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		updated, err := s.posts.Get(ctx, postID)
		if err != nil {
			return nil, err
		}
		s.invalidateFeed(ctx)
		s.publish(subject, natsinfra.PostEvent{PostID: postID, UserID: viewerID, Active: active, At: s.now().UTC()})

		views, err := s.shaper.Shape(ctx, viewerID, []domain.Post{*updated})
		if err != nil {
			return nil, err
		}
		return &ToggleResult{Active: active, Count: len(updated.Likes), Post: &views[0]}, nil
	}
	return nil, domain.Conflict("Post was modified concurrently, please retry")
}

func (s *service) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("feed cache invalidation failed", "err", err)
	}
}

func (s *service) publish(subject string, ev natsinfra.PostEvent) {
	if s.events != nil {
		s.events.Publish(subject, ev)
	}
}
