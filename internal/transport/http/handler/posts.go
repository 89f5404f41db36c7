package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gupshup-api/internal/application/post"
	"github.com/gupshup-api/internal/domain"
	"github.com/gupshup-api/internal/transport/http/middleware"
)

// PostHandler serves post creation, listing and toggle endpoints.
type PostHandler struct {
	svc            post.Service
	maxUploadBytes int64
}

func NewPostHandler(svc post.Service, maxUploadBytes int64) *PostHandler {
	return &PostHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

type likeEnvelope struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	IsLiked    bool       `json:"isLiked"`
	LikesCount int        `json:"likesCount"`
	Data       *post.View `json:"data"`
}

type saveEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	IsSaved bool       `json:"isSaved"`
	Data    *post.View `json:"data"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	f, ok := formFile(w, r, "postImage", h.maxUploadBytes, "Please provide an image for the post")
	if !ok {
		return
	}
	defer f.Close()

	tags, err := post.ParseHashtags(r.FormValue("hashtags"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	view, err := h.svc.Create(r.Context(), claims.UserID, domain.CreatePostRequest{
		Caption:  r.FormValue("caption"),
		Location: r.FormValue("location"),
		Hashtags: tags,
	}, f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Post created successfully", map[string]*post.View{"post": view})
}

func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Posts Fetched Successfully", "Posts Fetched Successfully", h.svc.Feed)
}

func (h *PostHandler) ByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	h.list(w, r, "User posts fetched successfully", "No posts found",
		func(ctx context.Context, viewerID string) ([]post.View, error) {
			return h.svc.ByUsername(ctx, viewerID, username)
		})
}

func (h *PostHandler) Liked(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Liked posts fetched successfully", "No liked posts found", h.svc.Liked)
}

func (h *PostHandler) Saved(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Saved posts fetched successfully", "No saved posts found", h.svc.Saved)
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request, msg, emptyMsg string, fetch func(context.Context, string) ([]post.View, error)) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	views, err := fetch(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if len(views) == 0 {
		msg = emptyMsg
	}
	writeOK(w, http.StatusOK, msg, views)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	res, err := h.svc.ToggleLike(r.Context(), claims.UserID, chi.URLParam(r, "postId"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	msg := "Post unliked successfully"
	if res.Active {
		msg = "Post liked successfully"
	}
	writeJSON(w, http.StatusOK, likeEnvelope{
		Success:    true,
		Message:    msg,
		IsLiked:    res.Active,
		LikesCount: res.Count,
		Data:       res.Post,
	})
}

func (h *PostHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	res, err := h.svc.ToggleSave(r.Context(), claims.UserID, chi.URLParam(r, "postId"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	msg := "Post unsaved successfully"
	if res.Active {
		msg = "Post saved successfully"
	}
	writeJSON(w, http.StatusOK, saveEnvelope{Success: true, Message: msg, IsSaved: res.Active, Data: res.Post})
}
