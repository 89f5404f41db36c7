package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gupshup-api/internal/application/auth"
	"github.com/gupshup-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req domain.CreateUserRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthSvc) VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) (*auth.Tokens, error) {
	args := m.Called(ctx, req)
	if t, _ := args.Get(0).(*auth.Tokens); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) ResendOTP(ctx context.Context, req auth.ResendOTPRequest) (domain.OTPPurpose, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.OTPPurpose), args.Error(1)
}
func (m *mockAuthSvc) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) Refresh(ctx context.Context, token string) (*auth.Tokens, error) {
	args := m.Called(ctx, token)
	if t, _ := args.Get(0).(*auth.Tokens); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func newAuthHandler(svc *mockAuthSvc) *AuthHandler {
	return NewAuthHandler(svc, true, 7*24*time.Hour)
}

func tokensFor(u *domain.User) *auth.Tokens {
	return &auth.Tokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Session:      &domain.Session{SessionID: "s1", UserID: u.UserID, User: u},
	}
}

func refreshCookieOf(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == refreshCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", refreshCookie)
	return nil
}

func TestCreate_InvalidBody(t *testing.T) {
	h := newAuthHandler(&mockAuthSvc{})
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/user/create", bytes.NewBufferString("not-json")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreate_Conflict(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(domain.Conflict("Email already registered"))
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/user/create", jsonBody(t, domain.CreateUserRequest{Email: "a@b.co"})))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Email already registered", errorMessage(t, rr))
}

func TestCreate_Created(t *testing.T) {
	svc := &mockAuthSvc{}
	req := domain.CreateUserRequest{FullName: "Al", Username: "alice", Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret1"}
	svc.On("Register", mock.Anything, req).Return(nil)
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/user/create", jsonBody(t, req)))
	assert.Equal(t, http.StatusCreated, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "verifyEmail", body["otpPurpose"])
	svc.AssertExpectations(t)
}

func TestVerifyOTP_SetsCookieAndToken(t *testing.T) {
	svc := &mockAuthSvc{}
	u := &domain.User{UserID: "u1", Username: "alice", PasswordHash: "secret-hash", OTP: "123456"}
	svc.On("VerifyOTP", mock.Anything, auth.VerifyOTPRequest{Email: "a@b.co", OTP: "123456", OTPPurpose: "verifyEmail"}).
		Return(tokensFor(u), nil)
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.VerifyOTP(rr, httptest.NewRequest(http.MethodPost, "/user/verify-otp",
		jsonBody(t, map[string]string{"email": "a@b.co", "otp": "123456", "otpPurpose": "verifyEmail"})))

	require.Equal(t, http.StatusOK, rr.Code)
	c := refreshCookieOf(t, rr)
	assert.Equal(t, "refresh", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	assert.NotContains(t, rr.Body.String(), "secret-hash")
	assert.NotContains(t, rr.Body.String(), "123456")
	body := decode(t, rr)
	assert.Equal(t, "User Login Successfully", body["message"])
	assert.Equal(t, "access", body["accessToken"])
}

func TestVerifyOTP_NotImplementedPurpose(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, mock.Anything).Return(nil, domain.NotImplemented("Password reset via OTP is not implemented"))
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.VerifyOTP(rr, httptest.NewRequest(http.MethodPost, "/user/verify-otp", jsonBody(t, map[string]string{"otpPurpose": "forgotPassword"})))
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestResendOTP_Message(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("ResendOTP", mock.Anything, auth.ResendOTPRequest{Email: "a@b.co", OTPPurpose: "verifyDevice"}).
		Return(domain.PurposeVerifyDevice, nil)
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.ResendOTP(rr, httptest.NewRequest(http.MethodPost, "/user/resend-otp",
		jsonBody(t, map[string]string{"email": "a@b.co", "otpPurpose": "verifyDevice"})))
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "New OTP for verifyDevice sent successfully", body["message"])
	assert.Equal(t, "verifyDevice", body["otpPurpose"])
}

func TestResendOTP_Throttled(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("ResendOTP", mock.Anything, mock.Anything).Return(domain.OTPPurpose(""), domain.TooManyRequests("Too many OTP requests"))
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.ResendOTP(rr, httptest.NewRequest(http.MethodPost, "/user/resend-otp", jsonBody(t, map[string]string{})))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestLogin_UntrustedDeviceChallenge(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(&auth.LoginResult{
		Email:      "a@b.co",
		OTPPurpose: domain.PurposeVerifyDevice,
	}, nil)
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/user/login", jsonBody(t, map[string]string{"username": "alice", "password": "x"})))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
	body := decode(t, rr)
	assert.Equal(t, "verifyDevice", body["otpPurpose"])
	assert.Equal(t, "a@b.co", body["email"])
	_, hasToken := body["accessToken"]
	assert.False(t, hasToken)
}

func TestLogin_TrustedDevice(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(&auth.LoginResult{Tokens: tokensFor(&domain.User{UserID: "u1"})}, nil)
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/user/login", jsonBody(t, map[string]string{"username": "alice"})))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "refresh", refreshCookieOf(t, rr).Value)
	assert.Equal(t, "access", decode(t, rr)["accessToken"])
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, domain.Unauthorized("Invalid credentials"))
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/user/login", jsonBody(t, map[string]string{})))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid credentials", errorMessage(t, rr))
}

func TestRefresh_MissingCookie(t *testing.T) {
	svc := &mockAuthSvc{}
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodGet, "/user/refresh-token", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Refresh token missing", errorMessage(t, rr))
	svc.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestRefresh_RotatesCookie(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Refresh", mock.Anything, "old").Return(&auth.Tokens{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil)
	h := newAuthHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/user/refresh-token", nil)
	r.AddCookie(&http.Cookie{Name: refreshCookie, Value: "old"})
	rr := httptest.NewRecorder()
	h.Refresh(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "new-refresh", refreshCookieOf(t, rr).Value)
	body := decode(t, rr)
	assert.Equal(t, "new-access", body["accessToken"])
	assert.Equal(t, "Access token refreshed", body["message"])
}

func TestLogout_ClearsCookieEvenOnFailure(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Logout", mock.Anything, "rt").Return(domain.Internal("dynamo down", nil))
	h := newAuthHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	r.AddCookie(&http.Cookie{Name: refreshCookie, Value: "rt"})
	rr := httptest.NewRecorder()
	h.Logout(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	c := refreshCookieOf(t, rr)
	assert.Empty(t, c.Value)
	assert.True(t, c.MaxAge < 0)
	svc.AssertExpectations(t)
}

func TestLogout_WithoutCookie(t *testing.T) {
	svc := &mockAuthSvc{}
	h := newAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodGet, "/user/logout", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

func TestLogin_OversizedBodyRejected(t *testing.T) {
	svc := &mockAuthSvc{}
	h := newAuthHandler(svc)
	body := `{"username":"alice","password":"` + strings.Repeat("x", maxJSONBody) + `"}`

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "Request body too large", errorMessage(t, rr))
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}
