package usecase

import (
	"context"
	"log/slog"
	"time"

	"cradle-gate/internal/domain"
	"cradle-gate/metrics"

	"golang.org/x/sync/singleflight"
)

// DefaultRoleLookupTimeout bounds a role store read when none is configured.
const DefaultRoleLookupTimeout = 2 * time.Second

// RoleResolver resolves the role of an identity from session claims with a
// role store fallback.
type RoleResolver struct {
	store   domain.RoleStore
	timeout time.Duration
	group   singleflight.Group
	logger  *slog.Logger
}

// NewRoleResolver creates a new RoleResolver.
func NewRoleResolver(store domain.RoleStore, timeout time.Duration, l *slog.Logger) *RoleResolver {
	if timeout <= 0 {
		timeout = DefaultRoleLookupTimeout
	}
	return &RoleResolver{store: store, timeout: timeout, logger: l}
}

// Resolve returns claimsRole when it is valid, otherwise the stored role.
// A failed store read is treated as "no role" and never aborts the caller.
func (r *RoleResolver) Resolve(ctx context.Context, identityID string, claimsRole domain.Role) domain.Role {
	if claimsRole.Valid() {
		return claimsRole
	}

	role, err := r.Lookup(ctx, identityID)
	if err != nil {
		r.logger.WarnContext(ctx, "role store fallback failed, treating as no role",
			"user_id", identityID,
			"error", err)
		return domain.RoleNone
	}
	return role
}

// Lookup reads the stored role directly, bypassing session claims.
// Concurrent lookups for one identity share a single store read.
func (r *RoleResolver) Lookup(ctx context.Context, identityID string) (domain.Role, error) {
	v, err, _ := r.group.Do(identityID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.store.GetRole(lookupCtx, identityID)
	})
	if err != nil {
		metrics.RecordRoleLookup("error")
		return domain.RoleNone, err
	}

	role := v.(domain.Role)
	if role.Valid() {
		metrics.RecordRoleLookup("found")
	} else {
		metrics.RecordRoleLookup("empty")
	}
	return role, nil
}

// sessionRole extracts the role from a claims token issued to identity.
// Missing, invalid or foreign tokens yield RoleNone.
func sessionRole(ctx context.Context, reader domain.ClaimsReader, token string, identity *domain.Identity, l *slog.Logger) domain.Role {
	if token == "" || reader == nil || identity == nil {
		return domain.RoleNone
	}

	claims, err := reader.ReadClaims(token)
	if err != nil {
		l.DebugContext(ctx, "ignoring session claims", "error", err)
		return domain.RoleNone
	}

	if claims.Subject != identity.UserID {
		l.WarnContext(ctx, "session claims subject mismatch",
			"user_id", identity.UserID,
			"claims_subject", claims.Subject)
		return domain.RoleNone
	}
	return claims.Role
}
