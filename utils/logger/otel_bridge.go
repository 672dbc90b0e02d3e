package logger

import (
	"context"
	"log/slog"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// bridge emits slog records through the global OTel logger provider.
// Attributes added with WithAttrs are converted once, when they are added.
type bridge struct {
	emitter otellog.Logger
	level   slog.Level
	prefix  string
	fixed   []otellog.KeyValue
}

func newBridge(scope string, level slog.Level) *bridge {
	return &bridge{
		emitter: global.GetLoggerProvider().Logger(scope),
		level:   level,
	}
}

func (b *bridge) Enabled(_ context.Context, level slog.Level) bool {
	return level >= b.level
}

func (b *bridge) Handle(ctx context.Context, r slog.Record) error {
	var rec otellog.Record
	rec.SetTimestamp(r.Time)
	rec.SetBody(otellog.StringValue(r.Message))
	rec.SetSeverity(severityOf(r.Level))
	rec.SetSeverityText(r.Level.String())

	for _, a := range contextAttrs(ctx) {
		rec.AddAttributes(otellog.String(a.Key, a.Value.String()))
	}
	rec.AddAttributes(b.fixed...)
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttributes(flatten(b.prefix, a)...)
		return true
	})

	b.emitter.Emit(ctx, rec)
	return nil
}

func (b *bridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *b
	next.fixed = append([]otellog.KeyValue(nil), b.fixed...)
	for _, a := range attrs {
		next.fixed = append(next.fixed, flatten(b.prefix, a)...)
	}
	return &next
}

func (b *bridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	next := *b
	next.prefix = b.prefix + name + "."
	return &next
}

// flatten turns one slog attribute into OTel key-values, expanding groups
// into dotted keys.
func flatten(prefix string, a slog.Attr) []otellog.KeyValue {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		var out []otellog.KeyValue
		for _, ga := range v.Group() {
			out = append(out, flatten(inner, ga)...)
		}
		return out
	}
	if a.Key == "" {
		return nil
	}

	key := prefix + a.Key
	switch v.Kind() {
	case slog.KindInt64:
		return []otellog.KeyValue{otellog.Int64(key, v.Int64())}
	case slog.KindUint64:
		return []otellog.KeyValue{otellog.Int64(key, int64(v.Uint64()))}
	case slog.KindFloat64:
		return []otellog.KeyValue{otellog.Float64(key, v.Float64())}
	case slog.KindBool:
		return []otellog.KeyValue{otellog.Bool(key, v.Bool())}
	case slog.KindDuration:
		return []otellog.KeyValue{otellog.Int64(key+"_ms", v.Duration().Milliseconds())}
	default:
		return []otellog.KeyValue{otellog.String(key, v.String())}
	}
}

func severityOf(level slog.Level) otellog.Severity {
	switch {
	case level >= slog.LevelError:
		return otellog.SeverityError
	case level >= slog.LevelWarn:
		return otellog.SeverityWarn
	case level >= slog.LevelInfo:
		return otellog.SeverityInfo
	}
	return otellog.SeverityDebug
}
