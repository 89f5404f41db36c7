package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gupshup-api/internal/application/auth"
	"github.com/gupshup-api/internal/domain"
)

const (
	refreshCookie = "refreshtoken"

	msgCreated       = "User created successfully. Please check your email for the verification OTP."
	msgLoggedIn      = "User Login Successfully"
	msgDeviceOTP     = "We noticed a login attempt from a new device. Please verify with the OTP sent to your email."
	msgRefreshed     = "Access token refreshed"
	msgLoggedOut     = "Logged out successfully"
	msgRefreshAbsent = "Refresh token missing"
)

// AuthHandler serves registration, OTP, login and token endpoints.
type AuthHandler struct {
	svc          auth.Service
	cookieSecure bool
	refreshTTL   time.Duration
}

func NewAuthHandler(svc auth.Service, cookieSecure bool, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure, refreshTTL: refreshTTL}
}

func (h *AuthHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Register(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, OTPEnvelope{
		Success:    true,
		Message:    msgCreated,
		OTPPurpose: domain.PurposeVerifyEmail,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tokens, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.sendToken(w, tokens)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.ResendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	purpose, err := h.svc.ResendOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OTPEnvelope{
		Success:    true,
		Message:    fmt.Sprintf("New OTP for %s sent successfully", purpose),
		OTPPurpose: purpose,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if res.Tokens == nil {
		writeJSON(w, http.StatusOK, OTPEnvelope{
			Success:    true,
			Message:    msgDeviceOTP,
			Email:      res.Email,
			OTPPurpose: res.OTPPurpose,
		})
		return
	}
	h.sendToken(w, res.Tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, msgRefreshAbsent)
		return
	}
	tokens, err := h.svc.Refresh(r.Context(), c.Value)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.setRefreshCookie(w, tokens.RefreshToken, h.refreshTTL)
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, Message: msgRefreshed, AccessToken: tokens.AccessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		if err := h.svc.Logout(r.Context(), c.Value); err != nil {
			slog.WarnContext(r.Context(), "logout: could not disable session", "err", err)
		}
	}
	h.setRefreshCookie(w, "", -1)
	writeOK(w, http.StatusOK, msgLoggedOut, nil)
}

func (h *AuthHandler) sendToken(w http.ResponseWriter, t *auth.Tokens) {
	h.setRefreshCookie(w, t.RefreshToken, h.refreshTTL)
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Success:     true,
		Message:     msgLoggedIn,
		Data:        t.Session.User,
		AccessToken: t.AccessToken,
	})
}

// setRefreshCookie writes the refresh cookie; a negative ttl deletes it.
func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteNoneMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
