package middleware

import "github.com/labstack/echo/v4"

// APIContentSecurityPolicy is used on JSON endpoints, which never render.
const APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeadersConfig selects the headers that differ between the JSON API
// and proxied pages.
type SecurityHeadersConfig struct {
	// HSTS sends Strict-Transport-Security. Off for plain-HTTP local runs.
	HSTS bool
	// ContentSecurityPolicy is omitted when empty so the upstream's own
	// policy reaches the browser.
	ContentSecurityPolicy string
	// NoStore marks responses as uncacheable.
	NoStore bool
}

// SecurityHeaders adds security-related HTTP headers to all responses.
func SecurityHeaders(cfg SecurityHeadersConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if cfg.NoStore {
				h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			}
			return next(c)
		}
	}
}
