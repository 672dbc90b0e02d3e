package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"cradle-gate/internal/usecase"
	appmiddleware "cradle-gate/middleware"
	"cradle-gate/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const gateResultKey = "cradle.gate.result"

// GateConfig configures GateMiddleware.
type GateConfig struct {
	// Skipper bypasses the gate. Defaults to DefaultGateSkipper.
	Skipper middleware.Skipper
}

// DefaultGateSkipper skips the gate's own API and operational endpoints,
// which authenticate on their own.
func DefaultGateSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	switch path {
	case "/session", "/csrf", "/health", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/internal/")
}

// GateMiddleware runs the authorization gate in front of every page request
// and answers redirect decisions with 307. The request path is canonicalized
// first and the rewritten request is what later handlers and the upstream see.
func GateMiddleware(gate *usecase.AuthorizeRequest, cfg GateConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = DefaultGateSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			appmiddleware.CanonicalizeRequest(c.Request())
			if cfg.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			ctx := logger.WithPath(req.Context(), req.URL.Path)

			res := gate.Authorize(ctx, usecase.GateRequest{
				Path:          req.URL.Path,
				SessionCookie: sessionCookie(c),
				ClaimsToken:   claimsCookie(c),
			})

			outcome := res.Decision.Outcome.String()
			ctx = logger.WithDecision(ctx, outcome)
			if res.Identity != nil {
				ctx = logger.WithUserID(ctx, res.Identity.UserID)
				ctx = logger.WithRole(ctx, res.Role.String())
			}
			c.SetRequest(req.WithContext(ctx))
			c.Set(gateResultKey, res)
			c.Set(appmiddleware.GateOutcomeKey, outcome)

			if res.Decision.IsRedirect() {
				slog.DebugContext(ctx, "gate redirect",
					"location", res.Decision.Location,
					"reason", res.Decision.Reason)
				return c.Redirect(http.StatusTemporaryRedirect, res.Decision.Location)
			}
			return next(c)
		}
	}
}

// GateResultFrom returns the gate result stored by GateMiddleware.
func GateResultFrom(c echo.Context) (usecase.GateResult, bool) {
	res, ok := c.Get(gateResultKey).(usecase.GateResult)
	return res, ok
}
