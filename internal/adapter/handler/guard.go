package handler

import (
	"log/slog"
	"net/http"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// GuardMiddleware applies the route table's guards after the gate. The role
// is re-read from the role store; any doubt sends the caller to the guard's
// fallback.
func GuardMiddleware(guard *usecase.GuardRoute, routes *domain.RouteTable) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rule, ok := routes.GuardFor(c.Request().URL.Path)
			if !ok {
				return next(c)
			}

			var identity *domain.Identity
			if res, found := GateResultFrom(c); found {
				identity = res.Identity
			}

			ctx := c.Request().Context()
			if !guard.Check(ctx, identity, rule.Allowed) {
				slog.InfoContext(ctx, "route guard denied access",
					"guard", rule.Pattern,
					"fallback", rule.Fallback)
				return c.Redirect(http.StatusTemporaryRedirect, rule.Fallback)
			}
			return next(c)
		}
	}
}
