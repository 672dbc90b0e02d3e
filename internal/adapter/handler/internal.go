package handler

import (
	"log/slog"
	"net/http"

	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// InternalHandler serves support tooling behind the shared secret.
type InternalHandler struct {
	resolver *usecase.RoleResolver
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(r *usecase.RoleResolver) *InternalHandler {
	return &InternalHandler{resolver: r}
}

type identityRoleResponse struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
}

// HandleIdentityRole handles GET /internal/identities/:id/role. An identity
// without a role reports an empty role.
func (h *InternalHandler) HandleIdentityRole(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	role, err := h.resolver.Lookup(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read identity role", "user_id", id, "error", err, "remote_addr", c.RealIP())
		return mapDomainError(err)
	}

	slog.InfoContext(ctx, "identity role read", "user_id", id, "remote_addr", c.RealIP())
	return c.JSON(http.StatusOK, identityRoleResponse{IdentityID: id, Role: role.String()})
}
