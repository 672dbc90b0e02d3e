package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// GateOutcomeKey is the echo context key under which the gate stores its
// outcome for the span.
const GateOutcomeKey = "cradle.gate.outcome"

// RedirectTargetKey holds the Location of a 3xx response.
const RedirectTargetKey = attribute.Key("cradle.gate.redirect_to")

// OTelStatusMiddleware annotates the span created by otelecho with the
// response status, the gate outcome and any redirect target. Only 5xx marks
// the span as an error. It must run after otelecho.Middleware.
func OTelStatusMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			span := trace.SpanFromContext(c.Request().Context())
			if !span.SpanContext().IsValid() {
				return err
			}

			status := c.Response().Status
			attrs := []attribute.KeyValue{semconv.HTTPResponseStatusCode(status)}
			if outcome, ok := c.Get(GateOutcomeKey).(string); ok {
				attrs = append(attrs, attribute.String(GateOutcomeKey, outcome))
			}
			if loc := c.Response().Header().Get(echo.HeaderLocation); loc != "" && status >= 300 && status < 400 {
				attrs = append(attrs, RedirectTargetKey.String(loc))
			}
			span.SetAttributes(attrs...)

			if status < http.StatusInternalServerError {
				return err
			}
			span.SetStatus(codes.Error, http.StatusText(status))
			if err != nil {
				span.RecordError(err)
			}
			return err
		}
	}
}
