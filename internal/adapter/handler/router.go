package handler

import (
	"cradle-gate/internal/domain"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// PageConfig wires the gated page routes.
type PageConfig struct {
	Gate   *usecase.AuthorizeRequest
	Guard  *usecase.GuardRoute
	Routes *domain.RouteTable
	// Cache is optional; nil disables route caching.
	Cache    domain.RouteCache
	Upstream echo.HandlerFunc
}

// RegisterPages mounts the catch-all page route: gate, guard, route cache,
// identity forwarding, then the upstream. Routes registered on e with a
// more specific path take precedence and bypass the gate.
func RegisterPages(e *echo.Echo, cfg PageConfig, extra ...echo.MiddlewareFunc) {
	mws := append([]echo.MiddlewareFunc{}, extra...)
	mws = append(mws,
		GateMiddleware(cfg.Gate, GateConfig{}),
		GuardMiddleware(cfg.Guard, cfg.Routes),
	)
	if cfg.Cache != nil {
		mws = append(mws, RouteCacheMiddleware(cfg.Cache, cfg.Routes))
	}
	mws = append(mws, ForwardIdentity())

	e.Any("/", cfg.Upstream, mws...)
	e.Any("/*", cfg.Upstream, mws...)
}
