package middleware

import (
	"cradle-gate/utils/logger"

	"github.com/labstack/echo/v4"
)

// RequestContext copies the request ID assigned by echo's RequestID
// middleware into the logging context. It must run after RequestID.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
			}
			return next(c)
		}
	}
}
