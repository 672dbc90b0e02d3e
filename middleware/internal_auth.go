package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// InternalAuthHeader carries the shared secret on /internal requests.
const InternalAuthHeader = "X-Internal-Auth"

// InternalAuth admits requests whose InternalAuthHeader matches
// sharedSecret. Digests are compared so the check takes the same time for
// any header length. With no secret configured every request gets 503.
func InternalAuth(sharedSecret string) echo.MiddlewareFunc {
	if sharedSecret == "" {
		return func(echo.HandlerFunc) echo.HandlerFunc {
			return func(echo.Context) error {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "internal endpoints disabled")
			}
		}
	}

	want := sha256.Sum256([]byte(sharedSecret))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(InternalAuthHeader)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing internal auth header")
			}
			got := sha256.Sum256([]byte(header))
			if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid internal auth")
			}
			return next(c)
		}
	}
}
