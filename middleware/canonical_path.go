package middleware

import (
	"net/http"

	"cradle-gate/internal/domain"

	"github.com/labstack/echo/v4"
)

// CanonicalizeRequest rewrites r.URL.Path to its canonical form and reports
// whether it changed. RawPath is cleared on a rewrite so the encoded form
// cannot reintroduce the original segments.
func CanonicalizeRequest(r *http.Request) bool {
	canon := domain.CanonicalPath(r.URL.Path)
	if canon == r.URL.Path {
		return false
	}
	r.URL.Path = canon
	r.URL.RawPath = ""
	return true
}

// CanonicalPath canonicalizes the request path before routing, so skippers,
// the gate, the guard and the proxy see one path. Register it with e.Pre.
func CanonicalPath() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			CanonicalizeRequest(c.Request())
			return next(c)
		}
	}
}
