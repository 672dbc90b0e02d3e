package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handle handles GET /health. Any failing check reports 503.
func (h *HealthHandler) Handle(c echo.Context) error {
	if len(h.checks) == 0 {
		return c.JSON(http.StatusOK, healthResponse{Status: "healthy"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	results := make([]error, len(h.checks))
	var g errgroup.Group
	for i, check := range h.checks {
		g.Go(func() error {
			results[i] = check.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := healthResponse{Status: "healthy", Checks: make(map[string]string, len(h.checks))}
	for i, check := range h.checks {
		if err := results[i]; err != nil {
			slog.WarnContext(ctx, "health check failed", "check", check.Name, "error", err)
			resp.Status = "unhealthy"
			resp.Checks[check.Name] = "fail"
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	if resp.Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
