package handler

import (
	"net/http"

	"cradle-gate/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouteCacheHeader reports whether a page came from the route cache.
const RouteCacheHeader = "X-Cradle-Cache"

// RouteCacheMiddleware serves role-dependent pages from cache per identity
// and stores successful upstream responses. It must run after the gate.
func RouteCacheMiddleware(cache domain.RouteCache, routes *domain.RouteTable) echo.MiddlewareFunc {
	cacheKey := func(c echo.Context) (identityID, path string, ok bool) {
		req := c.Request()
		if req.Method != http.MethodGet || req.URL.RawQuery != "" {
			return "", "", false
		}
		res, found := GateResultFrom(c)
		if !found || res.Identity == nil {
			return "", "", false
		}
		path = domain.NormalizePath(req.URL.Path)
		if !routes.RoleDependent(path) {
			return "", "", false
		}
		return res.Identity.UserID, path, true
	}

	store := middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			_, _, ok := cacheKey(c)
			return !ok
		},
		Handler: func(c echo.Context, _, body []byte) {
			resp := c.Response()
			if resp.Status != http.StatusOK || resp.Header().Get(echo.HeaderContentEncoding) != "" {
				return
			}
			identityID, path, _ := cacheKey(c)
			cache.Set(c.Request().Context(), identityID, path, domain.CachedRoute{
				Status:      resp.Status,
				ContentType: resp.Header().Get(echo.HeaderContentType),
				Body:        body,
			})
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		storeNext := store(next)
		return func(c echo.Context) error {
			identityID, path, ok := cacheKey(c)
			if !ok {
				return next(c)
			}
			if cached, hit := cache.Get(c.Request().Context(), identityID, path); hit {
				c.Response().Header().Set(RouteCacheHeader, "hit")
				return c.Blob(cached.Status, cached.ContentType, cached.Body)
			}
			c.Response().Header().Set(RouteCacheHeader, "miss")
			return storeNext(c)
		}
	}
}
