package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"cradle-gate/internal/domain"
	"cradle-gate/metrics"
)

// SessionCookieName is the Kratos session cookie.
const SessionCookieName = "ory_kratos_session"

// ValidateSession resolves a session cookie to an identity, asking Kratos
// only when the session cache has no live entry.
type ValidateSession struct {
	validator domain.SessionValidator
	cache     domain.SessionCache
	logger    *slog.Logger
}

func NewValidateSession(v domain.SessionValidator, c domain.SessionCache, l *slog.Logger) *ValidateSession {
	return &ValidateSession{validator: v, cache: c, logger: l}
}

// Execute validates cookieValue. The returned identity carries the cookie
// value as SessionID.
func (uc *ValidateSession) Execute(ctx context.Context, cookieValue string) (*domain.Identity, error) {
	if cookieValue == "" {
		return nil, domain.ErrSessionNotFound
	}
	key := sessionKey(cookieValue)

	cached, hit := uc.cache.Get(key)
	metrics.RecordSessionCache(hit)
	if hit {
		return &domain.Identity{
			UserID:    cached.UserID,
			Email:     cached.Email,
			SessionID: cookieValue,
			CreatedAt: cached.CreatedAt,
		}, nil
	}

	identity, err := uc.validator.ValidateSession(ctx, SessionCookieName+"="+cookieValue)
	if err != nil {
		uc.logger.DebugContext(ctx, "session rejected", "error", err)
		return nil, err
	}

	uc.cache.Set(key, domain.CachedSession{
		UserID:    identity.UserID,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
	})
	identity.SessionID = cookieValue
	return identity, nil
}

// sessionKey keeps raw session credentials out of the cache.
func sessionKey(cookieValue string) string {
	sum := sha256.Sum256([]byte(cookieValue))
	return hex.EncodeToString(sum[:])
}
