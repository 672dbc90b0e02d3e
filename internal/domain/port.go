package domain

import (
	"context"
	"time"
)

// SessionValidator validates a session cookie against the identity provider.
type SessionValidator interface {
	ValidateSession(ctx context.Context, cookie string) (*Identity, error)
}

// SessionCache provides read/write access to cached session data.
type SessionCache interface {
	Get(sessionID string) (*CachedSession, bool)
	Set(sessionID string, session CachedSession)
}

// ClaimsIssuer signs session claims for an identity.
type ClaimsIssuer interface {
	IssueClaims(identity *Identity, role Role) (token string, expiresAt time.Time, err error)
}

// ClaimsReader verifies a session token and extracts its claims.
type ClaimsReader interface {
	ReadClaims(token string) (*SessionClaims, error)
}

// RoleStore is the persisted per-identity role field.
type RoleStore interface {
	// GetRole returns RoleNone when the identity has no role yet.
	GetRole(ctx context.Context, identityID string) (Role, error)
	// SetRoleIfAbsent writes role only when none is stored, atomically.
	// It returns ErrRoleAlreadySet otherwise.
	SetRoleIfAbsent(ctx context.Context, identityID string, role Role) error
}

// RouteCache holds upstream responses for role-dependent paths.
type RouteCache interface {
	Get(ctx context.Context, identityID, path string) (*CachedRoute, bool)
	Set(ctx context.Context, identityID, path string, route CachedRoute)
	Invalidate(ctx context.Context, identityID string, paths ...string) error
}

// CSRFTokenGenerator generates and verifies CSRF tokens from session identifiers.
type CSRFTokenGenerator interface {
	Generate(sessionID string) (string, error)
	Verify(sessionID, token string) error
}
