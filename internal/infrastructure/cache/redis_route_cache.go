package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cradle-gate/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used by RedisRouteCache.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisRouteCache shares cached upstream responses across gate replicas.
// Read and write failures are logged and treated as misses.
// Implements domain.RouteCache.
type RedisRouteCache struct {
	client RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisRouteCache creates a route cache on top of client.
func NewRedisRouteCache(client RedisClient, ttl time.Duration, logger *slog.Logger) *RedisRouteCache {
	return &RedisRouteCache{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisRouteCache) Get(ctx context.Context, identityID, path string) (*domain.CachedRoute, bool) {
	raw, err := c.client.Get(ctx, routeKey(identityID, path)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "route cache read failed", "user_id", identityID, "path", path, "error", err)
		}
		return nil, false
	}

	var route domain.CachedRoute
	if err := json.Unmarshal(raw, &route); err != nil {
		c.logger.WarnContext(ctx, "route cache entry corrupt", "user_id", identityID, "path", path, "error", err)
		return nil, false
	}
	return &route, true
}

func (c *RedisRouteCache) Set(ctx context.Context, identityID, path string, route domain.CachedRoute) {
	raw, err := json.Marshal(route)
	if err != nil {
		c.logger.WarnContext(ctx, "route cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, routeKey(identityID, path), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "route cache write failed", "user_id", identityID, "path", path, "error", err)
	}
}

// Invalidate deletes the given paths for identityID, or every cached path of
// the identity when none are given.
func (c *RedisRouteCache) Invalidate(ctx context.Context, identityID string, paths ...string) error {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, routeKey(identityID, p))
	}

	if len(keys) == 0 {
		var cursor uint64
		for {
			batch, next, err := c.client.Scan(ctx, cursor, routeKey(identityID, "")+"*", 100).Result()
			if err != nil {
				return fmt.Errorf("scan route cache: %w", err)
			}
			keys = append(keys, batch...)
			if next == 0 {
				break
			}
			cursor = next
		}
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete route cache keys: %w", err)
	}
	return nil
}
