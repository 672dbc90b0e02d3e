package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Identity headers forwarded to the upstream app.
const (
	HeaderUserID = "X-Cradle-User-Id"
	HeaderRole   = "X-Cradle-Role"
)

// ForwardIdentity replaces client-supplied identity headers with the
// gate's view of the caller.
func ForwardIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			h.Del(HeaderUserID)
			h.Del(HeaderRole)
			if res, ok := GateResultFrom(c); ok && res.Identity != nil {
				h.Set(HeaderUserID, res.Identity.UserID)
				if res.Role.Valid() {
					h.Set(HeaderRole, res.Role.String())
				}
			}
			return next(c)
		}
	}
}

// NewUpstreamHandler reverse-proxies to upstream. An empty upstream serves
// a JSON placeholder describing the request instead.
func NewUpstreamHandler(upstream string) (echo.HandlerFunc, error) {
	if upstream == "" {
		return placeholderPage, nil
	}

	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", upstream)
	}

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}}),
	})
	return proxy(func(echo.Context) error { return nil }), nil
}

type placeholderResponse struct {
	Path   string `json:"path"`
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

func placeholderPage(c echo.Context) error {
	return c.JSON(http.StatusOK, placeholderResponse{
		Path:   c.Request().URL.Path,
		UserID: c.Request().Header.Get(HeaderUserID),
		Role:   c.Request().Header.Get(HeaderRole),
	})
}
