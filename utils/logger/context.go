package logger

import (
	"context"
	"log/slog"
)

// ContextKey is the type of the request-scoped logging keys.
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	RoleKey      ContextKey = "cradle.role"
	PathKey      ContextKey = "http.path"
	DecisionKey  ContextKey = "cradle.gate.outcome"
)

var contextKeys = []ContextKey{RequestIDKey, UserIDKey, RoleKey, PathKey, DecisionKey}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithRole records the resolved role. An empty role is logged as "none".
func WithRole(ctx context.Context, role string) context.Context {
	if role == "" {
		role = "none"
	}
	return context.WithValue(ctx, RoleKey, role)
}

func WithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, PathKey, path)
}

func WithDecision(ctx context.Context, outcome string) context.Context {
	return context.WithValue(ctx, DecisionKey, outcome)
}

func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
