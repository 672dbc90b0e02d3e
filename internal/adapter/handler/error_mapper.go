package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cradle-gate/internal/domain"

	"github.com/labstack/echo/v4"
)

type errorStatus struct {
	code    int
	message string
	errs    []error
}

// errorStatuses is checked in order; the first entry with a matching
// sentinel wins.
var errorStatuses = []errorStatus{
	{http.StatusUnauthorized, "authentication required", []error{
		domain.ErrNoSession, domain.ErrSessionNotFound, domain.ErrAuthFailed,
		domain.ErrSessionExpired, domain.ErrSessionInactive, domain.ErrMissingIdentity,
	}},
	{http.StatusBadRequest, "invalid role", []error{domain.ErrInvalidRole}},
	{http.StatusConflict, "role already set", []error{domain.ErrRoleAlreadySet}},
	{http.StatusForbidden, "invalid CSRF token", []error{domain.ErrCSRFMismatch}},
	{http.StatusNotFound, "identity not found", []error{domain.ErrIdentityNotFound}},
	{http.StatusBadGateway, "identity provider unavailable", []error{domain.ErrKratosUnavailable}},
	{http.StatusBadGateway, "role store unavailable", []error{domain.ErrRoleStoreUnavailable}},
	{http.StatusInternalServerError, "internal configuration error", []error{domain.ErrAdminNotConfigured}},
	{http.StatusInternalServerError, "token generation error", []error{domain.ErrTokenGeneration, domain.ErrCSRFSecretMissing}},
	{http.StatusTooManyRequests, "rate limit exceeded", []error{domain.ErrRateLimited}},
}

// mapDomainError picks the HTTP status for err. Unknown errors are 500.
func mapDomainError(err error) *echo.HTTPError {
	for _, st := range errorStatuses {
		for _, target := range st.errs {
			if errors.Is(err, target) {
				return echo.NewHTTPError(st.code, st.message)
			}
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

type errorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler renders every error as {"error": "..."}. Errors that are not
// echo.HTTPError go through mapDomainError.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = mapDomainError(err)
	}

	ctx := c.Request().Context()
	if he.Code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "status", he.Code, "error", err)
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(he.Code)
	} else {
		respErr = c.JSON(he.Code, errorResponse{Error: fmt.Sprint(he.Message)})
	}
	if respErr != nil {
		slog.WarnContext(ctx, "failed to write error response", "error", respErr)
	}
}
