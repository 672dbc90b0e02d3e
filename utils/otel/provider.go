// Package otel installs the OTLP/HTTP trace and log pipelines.
package otel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const exportInterval = 5 * time.Second

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // base URL; /v1/traces and /v1/logs are appended
	Enabled        bool
	SampleRatio    float64
}

// ConfigFromEnv reads the OTEL_* variables. Telemetry stays off unless
// OTEL_ENABLED=true; a sample ratio outside [0,1] is ignored.
func ConfigFromEnv() Config {
	cfg := Config{
		ServiceName:    envOr("OTEL_SERVICE_NAME", "cradle-gate"),
		ServiceVersion: envOr("SERVICE_VERSION", "0.0.0"),
		Environment:    envOr("DEPLOYMENT_ENV", "development"),
		OTLPEndpoint:   strings.TrimRight(envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"), "/"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
		SampleRatio:    1,
	}
	if f, err := strconv.ParseFloat(os.Getenv("OTEL_TRACE_SAMPLE_RATIO"), 64); err == nil && f >= 0 && f <= 1 {
		cfg.SampleRatio = f
	}
	return cfg
}

// insecure reports whether the collector is reached over plain http.
func (c Config) insecure() bool {
	return strings.HasPrefix(c.OTLPEndpoint, "http://")
}

type ShutdownFunc func(context.Context) error

// InitProvider sets the global tracer provider, propagator and logger
// provider. The returned func flushes both pipelines.
func InitProvider(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	var stops []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(stops) - 1; i >= 0; i-- {
			errs = append(errs, stops[i](ctx))
		}
		return errors.Join(errs...)
	}

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	stops = append(stops, tp.Shutdown)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	lp, err := newLoggerProvider(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	stops = append(stops, lp.Shutdown)
	global.SetLoggerProvider(lp)

	return shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint + "/v1/traces")}
	if cfg.insecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otel trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(exportInterval)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(cfg.OTLPEndpoint + "/v1/logs")}
	if cfg.insecure() {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	exp, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otel log exporter: %w", err)
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, sdklog.WithExportInterval(exportInterval))),
	), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
