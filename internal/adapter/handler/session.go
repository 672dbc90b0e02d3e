package handler

import (
	"net/http"
	"time"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler returns session JSON for the frontend and refreshes the
// claims cookie.
type SessionHandler struct {
	uc           *usecase.GetSession
	secureCookie bool
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(uc *usecase.GetSession, secureCookie bool) *SessionHandler {
	return &SessionHandler{uc: uc, secureCookie: secureCookie}
}

type sessionUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type sessionInfo struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type sessionResponse struct {
	OK      bool        `json:"ok"`
	User    sessionUser `json:"user"`
	Session sessionInfo `json:"session"`
}

type refreshResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Handle handles GET /session. The claims cookie is refreshed on the way.
func (h *SessionHandler) Handle(c echo.Context) error {
	result, err := h.refresh(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sessionResponse{
		OK: true,
		User: sessionUser{
			ID:        result.UserID,
			Email:     result.Email,
			Role:      result.Role.String(),
			CreatedAt: result.CreatedAt,
		},
		Session: sessionInfo{
			// The Kratos cookie value is a credential and is never echoed.
			ID:     result.UserID,
			Active: true,
		},
	})
}

// Refresh handles POST /api/session/refresh, forcing new claims that carry
// the role currently in the role store.
func (h *SessionHandler) Refresh(c echo.Context) error {
	result, err := h.refresh(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refreshResponse{
		Token:     result.Token,
		Role:      result.Role.String(),
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *SessionHandler) refresh(c echo.Context) (*usecase.SessionResult, error) {
	cookie := sessionCookie(c)
	if cookie == "" {
		return nil, mapDomainError(domain.ErrNoSession)
	}

	result, err := h.uc.Execute(c.Request().Context(), cookie)
	if err != nil {
		return nil, mapDomainError(err)
	}

	c.SetCookie(newClaimsCookie(result.Token, result.ExpiresAt, h.secureCookie))
	return result, nil
}
