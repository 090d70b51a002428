// Package cache provides an optional Redis-backed cache for read-heavy
// store queries such as restaurant menus. When no Redis address is
// configured the cache degrades to a no-op and every read goes to the
// database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesero-ai/mesero/internal/profile"
)

// Redis wraps a go-redis client with JSON helpers.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// New returns a Redis cache built from the instance profile, or nil
// when no Redis address is configured. Callers must tolerate a nil
// receiver; all methods treat it as a cache miss.
func New(profile *profile.Profile) *Redis {
	if profile.RedisAddr == "" {
		return nil
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     profile.RedisAddr,
			Password: profile.RedisPassword,
			DB:       profile.RedisDB,
		}),
		logger: slog.Default().With("component", "cache"),
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// SetJSON caches a value as JSON with the provided TTL. Failures are
// logged and swallowed so a cache outage never breaks a request.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if r == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("failed to marshal cache value", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Warn("failed to set cache key", "key", key, "error", err)
	}
}

// GetJSON retrieves a JSON value and unmarshals it into dest. It
// returns false on a miss or any cache failure.
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) bool {
	if r == nil {
		return false
	}
	res, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("failed to get cache key", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(res), dest); err != nil {
		r.logger.Warn("failed to unmarshal cache value", "key", key, "error", err)
		return false
	}
	return true
}

// Invalidate removes the given keys.
func (r *Redis) Invalidate(ctx context.Context, keys ...string) {
	if r == nil || len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("failed to invalidate cache keys", "keys", keys, "error", err)
	}
}

// Close releases Redis resources.
func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}
