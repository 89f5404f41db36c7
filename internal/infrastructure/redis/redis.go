package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gupshup-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const feedKey = "feed:recent"

// NewClient connects to url (redis://[:password@]host:port/db) and pings it.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	cli := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return cli, nil
}

// FeedCache holds the raw global feed. A nil *FeedCache is a permanent miss.
type FeedCache struct {
	cli *redis.Client
	ttl time.Duration
}

func NewFeedCache(cli *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{cli: cli, ttl: ttl}
}

// Get returns the cached feed and whether it was present.
func (c *FeedCache) Get(ctx context.Context) ([]domain.Post, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	b, err := c.cli.Get(ctx, feedKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var posts []domain.Post
	if err := json.Unmarshal(b, &posts); err != nil {
		return nil, false, fmt.Errorf("decode cached feed: %w", err)
	}
	return posts, true, nil
}

func (c *FeedCache) Set(ctx context.Context, posts []domain.Post) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, feedKey, b, c.ttl).Err()
}

func (c *FeedCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.cli.Del(ctx, feedKey).Err()
}

// Throttle is a fixed-window counter: at most limit hits per key per window.
// A nil *Throttle allows everything.
type Throttle struct {
	cli    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewThrottle(cli *redis.Client, prefix string, limit int, window time.Duration) *Throttle {
	return &Throttle{cli: cli, prefix: prefix, limit: int64(limit), window: window}
}

// Allow records a hit for key and reports whether it is within the limit. The
// counter and its TTL are set in one MULTI so a key can never outlive the window.
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	if t == nil {
		return true, nil
	}
	redisKey := t.prefix + ":" + key
	var hits *redis.IntCmd
	_, err := t.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, t.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return hits.Val() <= t.limit, nil
}
