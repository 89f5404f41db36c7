package user

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/gupshup-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}, remove ...string) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	args := m.Called(ctx, q, limit)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

type mockMediaStore struct{ mock.Mock }

func (m *mockMediaStore) Upload(ctx context.Context, folder, name string, r io.Reader, contentType string) (*domain.Asset, error) {
	args := m.Called(ctx, folder, name, r, contentType)
	if a, _ := args.Get(0).(*domain.Asset); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMediaStore) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

func newService(us *mockUserStore, ms *mockMediaStore) Service {
	return NewService(ServiceDeps{UserRepo: us, MediaStore: ms})
}

func strPtr(s string) *string { return &s }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// --- Update ---

func TestUpdate_NoFields(t *testing.T) {
	svc := newService(&mockUserStore{}, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{FullName: strPtr("  ")})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Equal(t, "No update data provided", domain.MessageOf(err, ""))
}

func TestUpdate_InvalidGender(t *testing.T) {
	svc := newService(&mockUserStore{}, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Gender: strPtr("robot")})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_AppliesProvidedFields(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		"bio":    "hello there",
		"gender": "female",
	}).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Bio: "hello there"}, nil)

	u, err := newService(us, nil).Update(context.Background(), "u1", domain.UpdateUserRequest{
		Bio:    strPtr(" hello there "),
		Gender: strPtr("female"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", u.Bio)
	us.AssertExpectations(t)
}

// --- PublicProfile ---

func TestPublicProfile_CountsPosts(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u1", Username: "alice", Posts: []string{"p1", "p2"}}, nil)

	p, err := newService(us, nil).PublicProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, p.PostCount)
	assert.Equal(t, []string{}, p.Followers)
}

func TestPublicProfile_NotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.NotFound("User not found"))

	_, err := newService(us, nil).PublicProfile(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- UploadProfileImage ---

func TestUploadProfileImage_ReplacesPrevious(t *testing.T) {
	us := &mockUserStore{}
	ms := &mockMediaStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", ProfilePictureID: "user_profiles/old"}, nil)
	ms.On("Upload", mock.Anything, "user_profiles", mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "u1_")
	}), mock.Anything, "image/jpeg").Return(&domain.Asset{URL: "https://img/new.jpg", PublicID: "user_profiles/new"}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		"profile_picture_url": "https://img/new.jpg",
		"profile_picture_id":  "user_profiles/new",
	}).Return(nil)
	ms.On("Delete", mock.Anything, "user_profiles/old").Return(nil)

	url, err := newService(us, ms).UploadProfileImage(context.Background(), "u1", bytes.NewReader(pngBytes(t, 600, 300)))
	require.NoError(t, err)
	assert.Equal(t, "https://img/new.jpg", url)
	ms.AssertExpectations(t)
	us.AssertExpectations(t)
}

func TestUploadProfileImage_NotAnImage(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := newService(us, &mockMediaStore{}).UploadProfileImage(context.Background(), "u1", strings.NewReader("plain text"))
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUploadProfileImage_StoreFailure(t *testing.T) {
	us := &mockUserStore{}
	ms := &mockMediaStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	ms.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("breaker open"))

	_, err := newService(us, ms).UploadProfileImage(context.Background(), "u1", bytes.NewReader(pngBytes(t, 50, 50)))
	assert.Equal(t, "Image upload failed", domain.MessageOf(err, ""))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- Search ---

func TestSearch_RequiresQuery(t *testing.T) {
	_, err := newService(&mockUserStore{}, nil).Search(context.Background(), "  ")
	assert.Equal(t, "Search query is required", domain.MessageOf(err, ""))
}

func TestSearch_LimitsToTwenty(t *testing.T) {
	us := &mockUserStore{}
	us.On("Search", mock.Anything, "ali", 20).Return(nil, nil)

	users, err := newService(us, nil).Search(context.Background(), "ali")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
