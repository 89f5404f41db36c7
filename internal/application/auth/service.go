package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gupshup-api/internal/domain"
	"github.com/gupshup-api/internal/pkg/id"
	"github.com/gupshup-api/internal/pkg/otp"
	pkgtoken "github.com/gupshup-api/internal/pkg/token"
	"github.com/gupshup-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldIsVerified     = "is_verified"
	fieldTrustedDevices = "trusted_devices"
	fieldOTP            = "otp"
	fieldOTPExpires     = "otp_expires"
	fieldOTPPurpose     = "otp_purpose"
)

const (
	msgSendFailed     = "Failed to send verification email. Please try again."
	msgInvalidOTP     = "Invalid or expired OTP"
	msgDeviceRequired = "Device information is required"
	msgNeedsVerified  = "Email must be verified before adding device"
	msgBadCredentials = "Invalid credentials"
)

type VerifyOTPRequest struct {
	Email      string             `json:"email"`
	OTP        string             `json:"otp"`
	OTPPurpose string             `json:"otpPurpose"`
	DeviceInfo *domain.DeviceInfo `json:"deviceInfo"`
}

type ResendOTPRequest struct {
	Email      string `json:"email"`
	OTPPurpose string `json:"otpPurpose"`
}

type LoginRequest struct {
	Username   string             `json:"username"`
	Password   string             `json:"password"`
	DeviceInfo *domain.DeviceInfo `json:"deviceInfo"`
}

// Tokens is an issued access/refresh pair. Session.User is populated.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Session      *domain.Session
}

// LoginResult carries Tokens for a trusted device, or the OTP challenge
// (Email, OTPPurpose) when the device still has to be verified.
type LoginResult struct {
	Tokens     *Tokens
	Email      string
	OTPPurpose domain.OTPPurpose
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*Tokens, error)
	ResendOTP(ctx context.Context, req ResendOTPRequest) (domain.OTPPurpose, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}, remove ...string) error
	DeleteUnverified(ctx context.Context, userID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Disable(ctx context.Context, sessionID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID, deviceID, role, sessionID string) (string, error)
}

type throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type service struct {
	users           userStore
	sessions        sessionStore
	mailer          mailer
	sms             smsSender
	jwt             jwtSigner
	throttle        throttle
	refreshTokenDur time.Duration
	now             func() time.Time
}

// ServiceDeps wires the auth service. SMSSender and Throttle are optional.
type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	Mailer          mailer
	SMSSender       smsSender
	JWTProvider     jwtSigner
	Throttle        throttle
	RefreshTokenDur time.Duration
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:           deps.UserRepo,
		sessions:        deps.SessionRepo,
		mailer:          deps.Mailer,
		sms:             deps.SMSSender,
		jwt:             deps.JWTProvider,
		throttle:        deps.Throttle,
		refreshTokenDur: deps.RefreshTokenDur,
		now:             now,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = domain.NormalizeEmail(req.Email)
	if blank(req.FullName, req.Username, req.Email, req.Password, req.ConfirmPassword) {
		return domain.BadRequest("All fields are required")
	}
	if req.Password != req.ConfirmPassword {
		return domain.BadRequest("Passwords do not match")
	}
	if err := validate.Struct(req); err != nil {
		return domain.BadRequest(err.Error())
	}
	now := s.now().UTC()

	cleared := ""
	existing, err := lookup(s.users.GetByEmail(ctx, req.Email))
	if err != nil {
		return err
	}
	if existing != nil {
		if err := s.clearStale(ctx, existing, now, "Email already registered"); err != nil {
			return err
		}
		cleared = existing.UserID
	}
	existing, err = lookup(s.users.GetByUsername(ctx, req.Username))
	if err != nil {
		return err
	}
	if existing != nil && existing.UserID != cleared {
		if err := s.clearStale(ctx, existing, now, "Username already taken"); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Internal("hash password", err)
	}
	code, err := otp.New()
	if err != nil {
		return domain.Internal("generate otp", err)
	}
	u := &domain.User{
		UserID:         id.New(),
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   string(hash),
		FullName:       req.FullName,
		Gender:         domain.GenderUnspecified,
		IsVerified:     false,
		OTP:            code,
		OTPExpires:     now.Add(domain.RegistrationOTPTTL).Unix(),
		OTPPurpose:     domain.PurposeVerifyEmail,
		Role:           domain.RoleUser,
		TrustedDevices: []domain.TrustedDevice{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return err
	}

	subject, body := registrationEmail(code)
	if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
		if derr := s.users.DeleteUnverified(ctx, u.UserID); derr != nil {
			slog.Warn("failed to roll back unverified user", "user_id", u.UserID, "err", derr)
		}
		return domain.Failure(msgSendFailed, err)
	}
	return nil
}

// clearStale resolves a registration collision with an existing account: a
// verified account is a conflict, an unverified one with a live OTP must finish
// its own flow, and an unverified one whose OTP expired is deleted.
func (s *service) clearStale(ctx context.Context, existing *domain.User, now time.Time, conflictMsg string) error {
	if existing.IsVerified {
		return domain.Conflict(conflictMsg)
	}
	if existing.OTPExpires > now.Unix() {
		return domain.Forbidden("Please verify the OTP sent to your email. You can request a new OTP if needed.")
	}
	if err := s.users.DeleteUnverified(ctx, existing.UserID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Conflict(conflictMsg)
		}
		return err
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*Tokens, error) {
	if blank(req.Email, req.OTP) {
		return nil, domain.BadRequest("Email and OTP are required")
	}
	purpose, err := domain.ParseOTPPurpose(req.OTPPurpose)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !u.CheckOTP(strings.TrimSpace(req.OTP), now) {
		return nil, domain.BadRequest(msgInvalidOTP)
	}

	hasDevice := req.DeviceInfo != nil && req.DeviceInfo.DeviceID != ""
	updates := map[string]interface{}{}
	switch purpose {
	case domain.PurposeVerifyEmail:
		u.IsVerified = true
		updates[fieldIsVerified] = true
		if hasDevice {
			u.TrustDevice(*req.DeviceInfo, now)
			updates[fieldTrustedDevices] = u.TrustedDevices
		}
	case domain.PurposeVerifyDevice:
		if !u.IsVerified {
			return nil, domain.BadRequest(msgNeedsVerified)
		}
		if !hasDevice {
			return nil, domain.BadRequest(msgDeviceRequired)
		}
		u.TrustDevice(*req.DeviceInfo, now)
		updates[fieldTrustedDevices] = u.TrustedDevices
	case domain.PurposeForgotPassword, domain.PurposeResetPassword:
		return nil, domain.NotImplemented("This functionality is not implemented yet")
	}

	if err := s.users.Update(ctx, u.UserID, updates, fieldOTP, fieldOTPExpires, fieldOTPPurpose); err != nil {
		return nil, err
	}
	u.OTP, u.OTPExpires, u.OTPPurpose = "", 0, ""

	deviceID := ""
	if hasDevice {
		deviceID = req.DeviceInfo.DeviceID
	}
	return s.issue(ctx, u, deviceID)
}

func (s *service) ResendOTP(ctx context.Context, req ResendOTPRequest) (domain.OTPPurpose, error) {
	if blank(req.Email) {
		return "", domain.BadRequest("Email is required")
	}
	purpose, err := domain.ParseOTPPurpose(req.OTPPurpose)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	switch purpose {
	case domain.PurposeVerifyEmail:
		if u.IsVerified {
			return "", domain.BadRequest("Email is already verified")
		}
	case domain.PurposeVerifyDevice:
		if !u.IsVerified {
			return "", domain.BadRequest(msgNeedsVerified)
		}
	case domain.PurposeForgotPassword, domain.PurposeResetPassword:
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, u.Email)
		if err != nil {
			slog.Warn("otp resend throttle unavailable", "err", err)
		} else if !ok {
			return "", domain.TooManyRequests("Too many OTP requests. Please try again later.")
		}
	}

	code, err := otp.New()
	if err != nil {
		return "", domain.Internal("generate otp", err)
	}
	now := s.now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldOTP:        code,
		fieldOTPExpires: now.Add(domain.ResendOTPTTL).Unix(),
		fieldOTPPurpose: purpose,
	}); err != nil {
		return "", err
	}
	subject, body := resendEmail(code, purpose)
	if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
		return "", domain.Failure(msgSendFailed, err)
	}
	return purpose, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if blank(req.Username, req.Password) {
		return nil, domain.BadRequest("Username and password are required")
	}
	if !req.DeviceInfo.Complete() {
		return nil, domain.BadRequest(msgDeviceRequired)
	}
	if err := validate.Struct(req.DeviceInfo); err != nil {
		return nil, domain.BadRequest(err.Error())
	}

	u, err := s.findByLogin(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, domain.Unauthorized(msgBadCredentials)
	}
	if !u.IsVerified {
		return nil, domain.Forbidden("Your email is not verified. Please verify your email before logging in.")
	}

	now := s.now().UTC()
	info := *req.DeviceInfo
	if u.IsDeviceTrusted(info.DeviceID) {
		u.TrustDevice(info, now)
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{fieldTrustedDevices: u.TrustedDevices}); err != nil {
			return nil, err
		}
		tokens, err := s.issue(ctx, u, info.DeviceID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Tokens: tokens}, nil
	}

	code, err := otp.New()
	if err != nil {
		return nil, domain.Internal("generate otp", err)
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldOTP:        code,
		fieldOTPExpires: now.Add(domain.DeviceOTPTTL).Unix(),
		fieldOTPPurpose: domain.PurposeVerifyDevice,
	}); err != nil {
		return nil, err
	}
	subject, body := deviceEmail(code)
	if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
		return nil, domain.Failure(msgSendFailed, err)
	}
	if s.sms != nil && u.PhoneNumber != "" {
		if err := s.sms.SendSMS(ctx, u.PhoneNumber, "Your GupShup device verification code is "+code); err != nil {
			slog.Warn("failed to send device otp sms", "user_id", u.UserID, "err", err)
		}
	}
	return &LoginResult{Email: u.Email, OTPPurpose: domain.PurposeVerifyDevice}, nil
}

// findByLogin resolves the login identifier as an email first, then as a username.
func (s *service) findByLogin(ctx context.Context, login string) (*domain.User, error) {
	u, err := lookup(s.users.GetByEmail(ctx, domain.NormalizeEmail(login)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		u, err = lookup(s.users.GetByUsername(ctx, login))
		if err != nil {
			return nil, err
		}
	}
	if u == nil {
		return nil, domain.Unauthorized(msgBadCredentials)
	}
	return u, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, domain.Unauthorized("Refresh token missing")
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if sess.RefreshExpiresAt < now.Unix() {
		return nil, domain.Unauthorized("Refresh token expired")
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, err
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, domain.Internal("generate refresh token", err)
	}
	expiry := now.Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, expiry); err != nil {
		return nil, err
	}
	bearer, err := s.jwt.Sign(u.UserID, sess.DeviceID, u.Role, sess.SessionID)
	if err != nil {
		return nil, domain.Internal("sign access token", err)
	}
	sess.RefreshToken, sess.RefreshExpiresAt, sess.User = newToken, expiry, u
	return &Tokens{AccessToken: bearer, RefreshToken: newToken, Session: sess}, nil
}

// Logout disables the session behind refreshToken. Unknown or already
// disabled tokens are not an error.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.sessions.Disable(ctx, sess.SessionID)
}

func (s *service) issue(ctx context.Context, u *domain.User, deviceID string) (*Tokens, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, domain.Internal("generate refresh token", err)
	}
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		DeviceID:         deviceID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwt.Sign(u.UserID, deviceID, u.Role, sess.SessionID)
	if err != nil {
		return nil, domain.Internal("sign access token", err)
	}
	sess.User = u
	return &Tokens{AccessToken: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

// lookup turns a not-found result into (nil, nil).
func lookup(u *domain.User, err error) (*domain.User, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
