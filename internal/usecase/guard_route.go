package usecase

import (
	"context"
	"log/slog"

	"cradle-gate/internal/domain"
	"cradle-gate/metrics"
)

// GuardRoute re-checks the role required by a page directly against the
// role store. Unlike the gate it fails closed.
type GuardRoute struct {
	resolver *RoleResolver
	logger   *slog.Logger
}

// NewGuardRoute creates a new GuardRoute usecase.
func NewGuardRoute(r *RoleResolver, l *slog.Logger) *GuardRoute {
	return &GuardRoute{resolver: r, logger: l}
}

// Check reports whether identity holds one of allowed.
func (uc *GuardRoute) Check(ctx context.Context, identity *domain.Identity, allowed []domain.Role) bool {
	if identity == nil || identity.UserID == "" {
		metrics.RecordGuardDenial("unauthenticated")
		return false
	}

	role, err := uc.resolver.Lookup(ctx, identity.UserID)
	if err != nil {
		uc.logger.WarnContext(ctx, "guard role lookup failed, denying",
			"user_id", identity.UserID,
			"error", err)
		metrics.RecordGuardDenial("lookup_failed")
		return false
	}

	if !domain.ContainsRole(allowed, role) {
		metrics.RecordGuardDenial("role_not_allowed")
		return false
	}
	return true
}
