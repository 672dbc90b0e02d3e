package cache

import (
	"time"

	"cradle-gate/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSessionCacheSize bounds the number of cached sessions.
const DefaultSessionCacheSize = 10_000

// SessionCache provides thread-safe in-memory session caching with TTL.
// Implements domain.SessionCache.
type SessionCache struct {
	entries *expirable.LRU[string, domain.CachedSession]
}

// NewSessionCache creates a new session cache with the specified TTL.
func NewSessionCache(ttl time.Duration) *SessionCache {
	return NewSessionCacheWithSize(DefaultSessionCacheSize, ttl)
}

// NewSessionCacheWithSize creates a session cache holding at most size entries.
func NewSessionCacheWithSize(size int, ttl time.Duration) *SessionCache {
	return &SessionCache{entries: expirable.NewLRU[string, domain.CachedSession](size, nil, ttl)}
}

// Get retrieves a cached session by session ID.
func (c *SessionCache) Get(sessionID string) (*domain.CachedSession, bool) {
	session, found := c.entries.Get(sessionID)
	if !found {
		return nil, false
	}
	return &session, true
}

// Set stores session data in the cache.
func (c *SessionCache) Set(sessionID string, session domain.CachedSession) {
	c.entries.Add(sessionID, session)
}

// Len returns the number of live entries.
func (c *SessionCache) Len() int {
	return c.entries.Len()
}
