package fairscore

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "faircircle/pkg/domain"
)

const (
	// Redis key prefix for cached scores
	scoreKeyPrefix = "fairscore:principal:"

	// DefaultCacheTTL bounds how stale a cached score may be.
	DefaultCacheTTL = 5 * time.Minute
)

// Cached decorates an Oracle with a Redis read-through cache for the numeric
// score. Full reports always hit the upstream service since badges change
// independently of the score.
type Cached struct {
	next   Oracle
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// CachedOption configures a Cached oracle.
type CachedOption func(*Cached)

// WithCacheTTL overrides the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) { c.ttl = ttl }
}

// WithCacheLogger sets the logger for cache failures.
func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(c *Cached) { c.logger = logger }
}

// NewCached wraps an oracle with a Redis cache.
func NewCached(next Oracle, client *redis.Client, opts ...CachedOption) *Cached {
	c := &Cached{
		next:   next,
		client: client,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Lookup serves from the cache when possible. Cache failures degrade to a
// direct lookup rather than failing the request.
func (c *Cached) Lookup(ctx context.Context, principal id.Principal) (uint8, error) {
	key := scoreKeyPrefix + principal.String()

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if score, parseErr := strconv.ParseUint(raw, 10, 8); parseErr == nil {
			return uint8(score), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "score cache read failed", "error", err)
	}

	score, err := c.next.Lookup(ctx, principal)
	if err != nil {
		return 0, err
	}

	if err := c.client.Set(ctx, key, strconv.FormatUint(uint64(score), 10), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "score cache write failed", "error", err)
	}
	return score, nil
}

func (c *Cached) Report(ctx context.Context, principal id.Principal) (*Score, error) {
	return c.next.Report(ctx, principal)
}

// Invalidate drops a principal's cached score.
func (c *Cached) Invalidate(ctx context.Context, principal id.Principal) error {
	return c.client.Del(ctx, scoreKeyPrefix+principal.String()).Err()
}
