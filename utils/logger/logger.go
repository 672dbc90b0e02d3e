// Package logger builds the process slog logger: JSON on stdout, request
// scoped attributes from the context, and an optional OTel log bridge.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init builds the logger from LOG_LEVEL and installs it as slog's default.
func Init(enableOTel bool) *slog.Logger {
	return InitWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"), enableOTel)
}

// InitWithWriter is Init with an explicit sink and level.
func InitWithWriter(w io.Writer, level string, enableOTel bool) *slog.Logger {
	lvl := ParseLevel(level)

	var h slog.Handler = NewContextHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	if enableOTel {
		h = tee{h, newBridge("cradle-gate", lvl)}
	}

	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

// ParseLevel accepts debug, info, warn(ing) and error in any case.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// tee hands each record to every member that accepts its level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
