package user

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gupshup-api/internal/domain"
	"github.com/gupshup-api/internal/pkg/id"
	"github.com/gupshup-api/internal/pkg/imageproc"
	"github.com/gupshup-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFullName          = "full_name"
	fieldBio               = "bio"
	fieldPhoneNumber       = "phone_number"
	fieldGender            = "gender"
	fieldProfilePictureURL = "profile_picture_url"
	fieldProfilePictureID  = "profile_picture_id"
)

const (
	profileFolder = "user_profiles"
	avatarSize    = 400
	searchLimit   = 20
)

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	FullName          string    `json:"fullName"`
	Bio               string    `json:"bio"`
	ProfilePictureURL string    `json:"profilePictureUrl,omitempty"`
	IsVerified        bool      `json:"isVerified"`
	Followers         []string  `json:"followers"`
	Following         []string  `json:"following"`
	Posts             []string  `json:"posts"`
	PostCount         int       `json:"postCount"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Service interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	PublicProfile(ctx context.Context, username string) (*PublicProfile, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	UploadProfileImage(ctx context.Context, userID string, r io.Reader) (string, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}, remove ...string) error
	Search(ctx context.Context, q string, limit int) ([]domain.User, error)
}

type mediaStore interface {
	Upload(ctx context.Context, folder, name string, r io.Reader, contentType string) (*domain.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

type service struct {
	repo  userStore
	media mediaStore
}

type ServiceDeps struct {
	UserRepo   userStore
	MediaStore mediaStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, media: deps.MediaStore}
}

func (s *service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) PublicProfile(ctx context.Context, username string) (*PublicProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.BadRequest("Username is required")
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		ID:                u.UserID,
		Username:          u.Username,
		FullName:          u.FullName,
		Bio:               u.Bio,
		ProfilePictureURL: u.ProfilePictureURL,
		IsVerified:        u.IsVerified,
		Followers:         nonNil(u.Followers),
		Following:         nonNil(u.Following),
		Posts:             nonNil(u.Posts),
		PostCount:         len(u.Posts),
		CreatedAt:         u.CreatedAt,
	}, nil
}

// Update applies the non-empty fields of req. Empty strings count as not provided.
func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	for field, v := range map[string]*string{
		fieldFullName:    req.FullName,
		fieldBio:         req.Bio,
		fieldPhoneNumber: req.PhoneNumber,
		fieldGender:      req.Gender,
	} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v != "" {
			updates[field] = *v
		}
	}
	if len(updates) == 0 {
		return nil, domain.BadRequest("No update data provided")
	}
	if err := validate.Struct(req); err != nil {
		return nil, domain.BadRequest(err.Error())
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// UploadProfileImage crops the image to a square avatar, stores it and points
// the profile at it. The previous avatar is removed best effort.
func (s *service) UploadProfileImage(ctx context.Context, userID string, r io.Reader) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	img, err := imageproc.Square(r, avatarSize)
	if err != nil {
		return "", domain.BadRequest("Please provide a valid image file")
	}
	asset, err := s.media.Upload(ctx, profileFolder, userID+"_"+id.New(), img, imageproc.ContentType)
	if err != nil {
		return "", domain.Failure("Image upload failed", err)
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{
		fieldProfilePictureURL: asset.URL,
		fieldProfilePictureID:  asset.PublicID,
	}); err != nil {
		if derr := s.media.Delete(ctx, asset.PublicID); derr != nil {
			slog.Warn("failed to remove orphaned avatar", "public_id", asset.PublicID, "err", derr)
		}
		return "", err
	}
	if u.ProfilePictureID != "" {
		if err := s.media.Delete(ctx, u.ProfilePictureID); err != nil {
			slog.Warn("failed to delete previous avatar", "user_id", userID, "public_id", u.ProfilePictureID, "err", err)
		}
	}
	return asset.URL, nil
}

func (s *service) Search(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.BadRequest("Search query is required")
	}
	users, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
