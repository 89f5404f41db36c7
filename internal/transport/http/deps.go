package http

import (
	"context"
	"io"

	"github.com/gupshup-api/internal/domain"
	"github.com/gupshup-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/gupshup-api/internal/infrastructure/jwt"
	natsinfra "github.com/gupshup-api/internal/infrastructure/nats"
	redisinfra "github.com/gupshup-api/internal/infrastructure/redis"
	"github.com/gupshup-api/internal/infrastructure/smtp"
	"github.com/gupshup-api/internal/infrastructure/sns"
)

// MediaStore is the minimal interface the router requires from an image backend.
type MediaStore interface {
	Upload(ctx context.Context, folder, name string, r io.Reader, contentType string) (*domain.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// Deps holds all infrastructure dependencies for the router. SMSSender may be
// nil; FeedCache, OTPThrottle and Events may be nil pointers, which disable them.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	PostRepo    *dynamo.PostRepo
	SessionRepo *dynamo.SessionRepo
	MediaStore  MediaStore
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
	FeedCache   *redisinfra.FeedCache
	OTPThrottle *redisinfra.Throttle
	Events      *natsinfra.Publisher
}
