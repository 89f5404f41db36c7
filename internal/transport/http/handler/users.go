package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gupshup-api/internal/application/user"
	"github.com/gupshup-api/internal/domain"
	"github.com/gupshup-api/internal/transport/http/middleware"
)

// UserHandler serves profile and search endpoints.
type UserHandler struct {
	svc            user.Service
	maxUploadBytes int64
}

func NewUserHandler(svc user.Service, maxUploadBytes int64) *UserHandler {
	return &UserHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, err := h.svc.Profile(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", u)
}

func (h *UserHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.PublicProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", p)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Update(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Profile updated successfully", u)
}

func (h *UserHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	f, ok := formFile(w, r, "profileImage", h.maxUploadBytes, "Please upload an image")
	if !ok {
		return
	}
	defer f.Close()

	url, err := h.svc.UploadProfileImage(r.Context(), claims.UserID, f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success           bool   `json:"success"`
		Message           string `json:"message"`
		ProfilePictureURL string `json:"profilePictureUrl"`
	}{true, "Image uploaded successfully!", url})
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", users)
}
