package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `mapstructure:"app_port"`
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	AWSRegion      string       `mapstructure:"aws_region"`
	AWSEndpointURL string       `mapstructure:"aws_endpoint_url"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string       `mapstructure:"aws_access_key_id"`
	AWSSecretKey   string       `mapstructure:"aws_secret_access_key"`
	DynamoTables   DynamoTables `mapstructure:"dynamo_table"`

	JWTPrivateKeyPath  string        `mapstructure:"jwt_private_key_path"`
	JWTPublicKeyPath   string        `mapstructure:"jwt_public_key_path"`
	JWTExpiry          time.Duration `mapstructure:"jwt_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
	CookieSecure       bool          `mapstructure:"cookie_secure"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPFrom     string `mapstructure:"smtp_from"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`

	SNSEnabled bool   `mapstructure:"sns_enabled"`
	SNSRegion  string `mapstructure:"sns_region"`

	MediaBackend    string `mapstructure:"media_backend"` // "cloudinary" | "s3"
	CloudinaryURL   string `mapstructure:"cloudinary_url"`
	S3BucketName    string `mapstructure:"s3_bucket_name"`
	S3PublicBaseURL string `mapstructure:"s3_public_base_url"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`

	RedisURL     string        `mapstructure:"redis_url"` // empty disables the feed cache and OTP throttle
	FeedCacheTTL time.Duration `mapstructure:"feed_cache_ttl"`
	NATSURL      string        `mapstructure:"nats_url"` // empty disables event publishing

	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string `mapstructure:"users"`
	Posts    string `mapstructure:"posts"`
	Sessions string `mapstructure:"sessions"`
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

var defaults = map[string]interface{}{
	"app_port":  "3000",
	"app_env":   "development",
	"log_level": "info",

	"aws_region":            "us-east-1",
	"aws_endpoint_url":      "",
	"aws_access_key_id":     "",
	"aws_secret_access_key": "",
	"dynamo_table.users":    "users",
	"dynamo_table.posts":    "posts",
	"dynamo_table.sessions": "sessions",

	"jwt_private_key_path": "./private_key.pem",
	"jwt_public_key_path":  "./public_key.pem",
	"jwt_expiry":           "15m",
	"refresh_token_expiry": "168h",
	"cookie_secure":        true,

	"smtp_host":     "localhost",
	"smtp_port":     "1025",
	"smtp_from":     "noreply@gupshup.app",
	"smtp_username": "",
	"smtp_password": "",

	"sns_enabled": false,
	"sns_region":  "us-east-1",

	"media_backend":      "cloudinary",
	"cloudinary_url":     "",
	"s3_bucket_name":     "gupshup-media",
	"s3_public_base_url": "",
	"max_upload_bytes":   10 << 20,

	"redis_url":      "",
	"feed_cache_ttl": "5m",
	"nats_url":       "",

	"allowed_origins": "http://localhost:5173",
}

// Load reads all configuration from environment variables.
// Nested keys map to underscored names, e.g. dynamo_table.users <- DYNAMO_TABLE_USERS.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(o)
	}
	switch cfg.MediaBackend {
	case "cloudinary", "s3":
	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}
	return &cfg, nil
}
