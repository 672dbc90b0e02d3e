package usecase

import (
	"context"
	"errors"
	"log/slog"

	"cradle-gate/internal/domain"
	"cradle-gate/metrics"
)

// AssignRole is the one-time role write performed from the role-selection page.
type AssignRole struct {
	store  domain.RoleStore
	cache  domain.RouteCache
	routes *domain.RouteTable
	logger *slog.Logger
}

// NewAssignRole creates a new AssignRole usecase.
func NewAssignRole(s domain.RoleStore, c domain.RouteCache, routes *domain.RouteTable, l *slog.Logger) *AssignRole {
	return &AssignRole{store: s, cache: c, routes: routes, logger: l}
}

// Execute sets requested as the role of identity when it has none.
// The caller's session token is not refreshed here.
func (uc *AssignRole) Execute(ctx context.Context, identity *domain.Identity, requested string) (domain.Role, error) {
	if identity == nil || identity.UserID == "" {
		metrics.RecordRoleAssignment("no_session")
		return domain.RoleNone, domain.ErrNoSession
	}

	role, err := domain.ParseRole(requested)
	if err != nil {
		metrics.RecordRoleAssignment("invalid_role")
		return domain.RoleNone, err
	}

	if err := uc.store.SetRoleIfAbsent(ctx, identity.UserID, role); err != nil {
		if errors.Is(err, domain.ErrRoleAlreadySet) {
			uc.logger.InfoContext(ctx, "role assignment rejected, role already set",
				"user_id", identity.UserID,
				"requested_role", role.String())
			metrics.RecordRoleAssignment("already_set")
			return domain.RoleNone, err
		}
		uc.logger.ErrorContext(ctx, "role assignment failed",
			"user_id", identity.UserID,
			"requested_role", role.String(),
			"error", err)
		metrics.RecordRoleAssignment("error")
		return domain.RoleNone, err
	}

	uc.invalidateRoutes(ctx, identity.UserID)

	uc.logger.InfoContext(ctx, "role assigned",
		"user_id", identity.UserID,
		"role", role.String())
	metrics.RecordRoleAssignment("success")
	return role, nil
}

// invalidateRoutes drops cached data of every path whose content depends on
// the role. Failure is logged; the role is already written.
func (uc *AssignRole) invalidateRoutes(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	paths := []string{"/", uc.routes.Targets.RoleSelection, uc.routes.Targets.Landing}
	if err := uc.cache.Invalidate(ctx, userID, paths...); err != nil {
		uc.logger.WarnContext(ctx, "route cache invalidation failed",
			"user_id", userID,
			"error", err)
	}
}
