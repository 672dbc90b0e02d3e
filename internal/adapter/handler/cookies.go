package handler

import (
	"net/http"
	"time"

	"cradle-gate/internal/infrastructure/token"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func sessionCookie(c echo.Context) string {
	return cookieValue(c, usecase.SessionCookieName)
}

func claimsCookie(c echo.Context) string {
	return cookieValue(c, token.ClaimsCookieName)
}

// newClaimsCookie carries signed claims. It is readable by the gate only.
func newClaimsCookie(value string, expiresAt time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     token.ClaimsCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   max(int(time.Until(expiresAt).Seconds()), 1),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
