package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sungwon/erasure-bridge/internal/logger"
)

const (
	keyPrefix     = "erasure:catalog"
	generationKey = keyPrefix + ":gen"
)

// RedisClient is the subset of go-redis commands used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// CachedCatalog serves rule reads from Redis and falls back to the wrapped
// Catalog on a miss. Settings and games carry credentials and are always read
// from the wrapped Catalog. Cache keys carry a generation number so that
// Invalidate drops every cached entry with a single increment. Redis errors
// are logged and never fail a read.
type CachedCatalog struct {
	next   Catalog
	client RedisClient
	ttl    time.Duration
}

// NewCachedCatalog wraps next with a Redis cache. A nil client disables
// caching.
func NewCachedCatalog(next Catalog, client RedisClient, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, client: client, ttl: ttl}
}

func (c *CachedCatalog) Settings(ctx context.Context) (Settings, error) {
	return c.next.Settings(ctx)
}

func (c *CachedCatalog) Games(ctx context.Context) ([]Game, error) {
	return c.next.Games(ctx)
}

func (c *CachedCatalog) Rules(ctx context.Context, gameID uuid.UUID) ([]Rule, error) {
	return cached(ctx, c, "rules:"+gameID.String(), func() ([]Rule, error) { return c.next.Rules(ctx, gameID) })
}

// Invalidate discards every cached entry.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// cached returns the entry for name on a hit. On a miss it calls load and
// stores the result.
func cached[T any](ctx context.Context, c *CachedCatalog, name string, load func() (T, error)) (T, error) {
	if c.client == nil {
		return load()
	}
	log := logger.FromContext(ctx)

	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Msg("catalog cache unavailable")
		return load()
	}
	key := fmt.Sprintf("%s:%d:%s", keyPrefix, gen, name)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hit T
		if jerr := json.Unmarshal(raw, &hit); jerr == nil {
			return hit, nil
		}
		log.Warn().Str("key", key).Msg("discarding unreadable catalog cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return v, nil
}
