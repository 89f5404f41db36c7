package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gupshup-api/internal/config"
	"github.com/gupshup-api/internal/infrastructure/awscfg"
	"github.com/gupshup-api/internal/infrastructure/breaker"
	cloudinaryinfra "github.com/gupshup-api/internal/infrastructure/cloudinary"
	"github.com/gupshup-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/gupshup-api/internal/infrastructure/jwt"
	natsinfra "github.com/gupshup-api/internal/infrastructure/nats"
	redisinfra "github.com/gupshup-api/internal/infrastructure/redis"
	s3infra "github.com/gupshup-api/internal/infrastructure/s3"
	"github.com/gupshup-api/internal/infrastructure/smtp"
	"github.com/gupshup-api/internal/infrastructure/sns"
	transporthttp "github.com/gupshup-api/internal/transport/http"
	"github.com/joho/godotenv"
)

const (
	otpResendLimit  = 5
	otpResendWindow = 15 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		fatal("aws config", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	media, err := newMediaStore(awsCfg, cfg)
	if err != nil {
		fatal("media store", err)
	}

	var smsSender sns.SMSSender
	if cfg.SNSEnabled {
		smsSender = sns.NewSender(awsCfg, cfg.SNSRegion)
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		PostRepo:    dynamo.NewPostRepo(dynamoClient, cfg.DynamoTables.Posts, cfg.DynamoTables.Users),
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		MediaStore:  breaker.NewMediaStore(cfg.MediaBackend, media),
		Mailer:      breaker.NewMailer(smtp.NewMailer(cfg)),
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
	}

	if cfg.RedisURL != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, feed cache and OTP throttle disabled", "err", err)
		} else {
			defer rdb.Close()
			deps.FeedCache = redisinfra.NewFeedCache(rdb, cfg.FeedCacheTTL)
			deps.OTPThrottle = redisinfra.NewThrottle(rdb, "otp-resend", otpResendLimit, otpResendWindow)
		}
	}

	if cfg.NATSURL != "" {
		pub, err := natsinfra.NewPublisher(cfg.NATSURL)
		if err != nil {
			slog.Warn("nats unavailable, post events disabled", "err", err)
		} else {
			defer pub.Close()
			deps.Events = pub
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "media", cfg.MediaBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		return
	}
	slog.Info("server stopped")
}

func newMediaStore(awsCfg aws.Config, cfg *config.Config) (transporthttp.MediaStore, error) {
	switch cfg.MediaBackend {
	case "s3":
		client := s3infra.NewClient(awsCfg, cfg)
		return s3infra.NewStore(client, cfg.S3BucketName, cfg.AWSRegion, cfg.S3PublicBaseURL), nil
	default:
		store, err := cloudinaryinfra.NewStore(cfg.CloudinaryURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// newLogger uses JSON in production and text elsewhere, at LOG_LEVEL.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
