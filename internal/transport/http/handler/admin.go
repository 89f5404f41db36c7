package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gupshup-api/internal/application/admin"
	"github.com/gupshup-api/internal/transport/http/middleware"
)

// AdminHandler serves the role-gated dashboard endpoints.
type AdminHandler struct {
	svc admin.Service
}

func NewAdminHandler(svc admin.Service) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Users fetched successfully", users)
}

func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	views, err := h.svc.ListPosts(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Posts fetched successfully", views)
}

func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), chi.URLParam(r, "postId")); err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Post deleted successfully", nil)
}
