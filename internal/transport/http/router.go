package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gupshup-api/internal/application/admin"
	"github.com/gupshup-api/internal/application/auth"
	"github.com/gupshup-api/internal/application/post"
	"github.com/gupshup-api/internal/application/user"
	"github.com/gupshup-api/internal/config"
	"github.com/gupshup-api/internal/domain"
	"github.com/gupshup-api/internal/transport/http/handler"
	appmiddleware "github.com/gupshup-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds background
// work owned by the router, such as rate limiter cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, on the unauthenticated credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		Mailer:          deps.Mailer,
		SMSSender:       deps.SMSSender,
		JWTProvider:     deps.JWTProvider,
		Throttle:        deps.OTPThrottle,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:   deps.UserRepo,
		MediaStore: deps.MediaStore,
	})
	postSvc := post.NewService(post.ServiceDeps{
		PostRepo:   deps.PostRepo,
		UserRepo:   deps.UserRepo,
		MediaStore: deps.MediaStore,
		FeedCache:  deps.FeedCache,
		Events:     deps.Events,
	})
	adminSvc := admin.NewService(admin.ServiceDeps{
		UserRepo:   deps.UserRepo,
		PostRepo:   deps.PostRepo,
		MediaStore: deps.MediaStore,
		FeedCache:  deps.FeedCache,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cfg.CookieSecure, cfg.RefreshTokenExpiry)
	userH := handler.NewUserHandler(userSvc, cfg.MaxUploadBytes)
	postH := handler.NewPostHandler(postSvc, cfg.MaxUploadBytes)
	adminH := handler.NewAdminHandler(adminSvc)

	r.Get("/health", healthH.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			// ── Public routes (no auth) ──────────────────────────────────────
			r.With(sensitiveRL.Limit).Post("/create", authH.Create)
			r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)
			r.With(sensitiveRL.Limit).Post("/resend-otp", authH.ResendOTP)
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)
			r.Get("/refresh-token", authH.Refresh)
			r.Get("/logout", authH.Logout)

			// ── Authenticated routes ─────────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Get("/profile", userH.Profile)
				r.Get("/profile/{username}", userH.PublicProfile)
				r.Put("/updateuser", userH.Update)
				r.Post("/profile-image", userH.UploadProfileImage)
				r.Get("/search-users", userH.Search)
			})
		})

		r.Route("/post", func(r chi.Router) {
			r.Use(authMw)
			r.Post("/create-post", postH.Create)
			r.Get("/", postH.Feed)
			r.Post("/savedpost/{postId}", postH.ToggleSave)
			r.Post("/likepost/{postId}", postH.ToggleLike)
			r.Get("/getuserpost/{username}", postH.ByUsername)
			r.Get("/savedpost", postH.Saved)
			r.Get("/likedpost", postH.Liked)
		})

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
			r.Get("/alluser", adminH.ListUsers)
			r.Get("/allposts", adminH.ListPosts)
			r.Delete("/delete/{postId}", adminH.DeletePost)
		})
	})

	return r
}
