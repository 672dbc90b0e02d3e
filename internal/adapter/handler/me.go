package handler

import (
	"net/http"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// MeHandler reports the caller's stored role next to the role in their
// session claims.
type MeHandler struct {
	sessions *usecase.ValidateSession
	profile  *usecase.GetProfile
}

// NewMeHandler creates a new profile handler.
func NewMeHandler(s *usecase.ValidateSession, p *usecase.GetProfile) *MeHandler {
	return &MeHandler{sessions: s, profile: p}
}

type meResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	SessionRole string `json:"session_role,omitempty"`
}

// Handle handles GET /api/me.
func (h *MeHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	cookie := sessionCookie(c)
	if cookie == "" {
		return mapDomainError(domain.ErrNoSession)
	}
	identity, err := h.sessions.Execute(ctx, cookie)
	if err != nil {
		return mapDomainError(err)
	}

	p, err := h.profile.Execute(ctx, identity, claimsCookie(c))
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, meResponse{
		ID:          p.UserID,
		Email:       p.Email,
		Role:        p.Role.String(),
		SessionRole: p.SessionRole.String(),
	})
}
