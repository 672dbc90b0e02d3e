package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CSRFHeader carries the token issued by POST /csrf.
const CSRFHeader = "X-CSRF-Token"

// RoleHandler serves the role assignment action.
type RoleHandler struct {
	sessions    *usecase.ValidateSession
	assign      *usecase.AssignRole
	csrf        *usecase.GenerateCSRF
	requireCSRF bool
}

// NewRoleHandler creates a new role handler. When requireCSRF is set the
// request must carry a token for the caller's session in X-CSRF-Token.
func NewRoleHandler(s *usecase.ValidateSession, a *usecase.AssignRole, csrf *usecase.GenerateCSRF, requireCSRF bool) *RoleHandler {
	return &RoleHandler{sessions: s, assign: a, csrf: csrf, requireCSRF: requireCSRF}
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type assignRoleResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
}

// Assign handles POST /api/role.
func (h *RoleHandler) Assign(c echo.Context) error {
	ctx := c.Request().Context()

	cookie := sessionCookie(c)
	if cookie == "" {
		return mapDomainError(domain.ErrNoSession)
	}
	identity, err := h.sessions.Execute(ctx, cookie)
	if err != nil {
		return mapDomainError(err)
	}

	if h.requireCSRF {
		if err := h.csrf.Verify(cookie, c.Request().Header.Get(CSRFHeader)); err != nil {
			slog.WarnContext(ctx, "role assignment rejected, CSRF check failed", "user_id", identity.UserID)
			return mapDomainError(err)
		}
	}

	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return mapDomainError(fmt.Errorf("%w: malformed body", domain.ErrInvalidRole))
	}
	if err := c.Validate(&req); err != nil {
		return mapDomainError(fmt.Errorf("%w: %w", domain.ErrInvalidRole, err))
	}

	role, err := h.assign.Execute(ctx, identity, req.Role)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, assignRoleResponse{Success: true, Role: role.String()})
}
