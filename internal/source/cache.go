package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache memoizes successful collector payloads in Redis so repeated research
// runs within the TTL window skip the external call. A nil *Cache is a no-op.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache connects to Redis at addr. Payloads expire after ttl.
func NewCache(addr string, ttl time.Duration) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// NewCacheFromClient wraps an existing Redis client (used in tests).
func NewCacheFromClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(sourceName, identityID string) string {
	return "prospector:src:" + sourceName + ":" + identityID
}

// Get returns the cached payload for a source and identity, if present.
// Redis errors count as misses.
func (c *Cache) Get(ctx context.Context, sourceName, identityID string) (map[string]string, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(sourceName, identityID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Debug("source: cache read failed",
				zap.String("source", sourceName), zap.Error(err))
		}
		return nil, false
	}
	var payload map[string]string
	if err := json.Unmarshal(raw, &payload); err != nil {
		zap.L().Debug("source: cache entry corrupt, ignoring",
			zap.String("source", sourceName), zap.Error(err))
		return nil, false
	}
	return payload, true
}

// Set stores a payload. Failures are logged and otherwise ignored; the cache
// is an optimization, never a source of truth.
func (c *Cache) Set(ctx context.Context, sourceName, identityID string, payload map[string]string) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(sourceName, identityID), raw, c.ttl).Err(); err != nil {
		zap.L().Debug("source: cache write failed",
			zap.String("source", sourceName), zap.Error(err))
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
