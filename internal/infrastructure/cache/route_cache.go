package cache

import (
	"context"
	"strings"
	"time"

	"cradle-gate/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultRouteCacheSize bounds the in-memory route cache.
const DefaultRouteCacheSize = 4096

// MemoryRouteCache keeps upstream responses per identity and path in process.
// Implements domain.RouteCache.
type MemoryRouteCache struct {
	entries *expirable.LRU[string, domain.CachedRoute]
}

// NewMemoryRouteCache creates an in-memory route cache.
func NewMemoryRouteCache(size int, ttl time.Duration) *MemoryRouteCache {
	if size <= 0 {
		size = DefaultRouteCacheSize
	}
	return &MemoryRouteCache{entries: expirable.NewLRU[string, domain.CachedRoute](size, nil, ttl)}
}

func (c *MemoryRouteCache) Get(_ context.Context, identityID, path string) (*domain.CachedRoute, bool) {
	route, found := c.entries.Get(routeKey(identityID, path))
	if !found {
		return nil, false
	}
	return &route, true
}

func (c *MemoryRouteCache) Set(_ context.Context, identityID, path string, route domain.CachedRoute) {
	c.entries.Add(routeKey(identityID, path), route)
}

// Invalidate drops the given paths for identityID, or every cached path of
// the identity when none are given.
func (c *MemoryRouteCache) Invalidate(_ context.Context, identityID string, paths ...string) error {
	if len(paths) > 0 {
		for _, p := range paths {
			c.entries.Remove(routeKey(identityID, p))
		}
		return nil
	}

	prefix := routeKey(identityID, "")
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
	return nil
}

// routeKey builds "cradle:route:{identity}:{path}". An empty path yields the
// identity prefix.
func routeKey(identityID, path string) string {
	prefix := routeKeyPrefix + identityID + ":"
	if path == "" {
		return prefix
	}
	return prefix + domain.NormalizePath(path)
}

const routeKeyPrefix = "cradle:route:"
