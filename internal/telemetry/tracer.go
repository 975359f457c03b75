package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerProviderOption configures NewTracerProvider
type TracerProviderOption func(*tracerProviderConfig)

type tracerProviderConfig struct {
	resource      *resource.Resource
	tracingConfig *TracingConfig
	exporter      ExporterSettings
}

// WithTracerResource sets the resource attached to every span
func WithTracerResource(res *resource.Resource) TracerProviderOption {
	return func(cfg *tracerProviderConfig) {
		cfg.resource = res
	}
}

// WithTracingConfig sets the tracing configuration
func WithTracingConfig(tc *TracingConfig) TracerProviderOption {
	return func(cfg *tracerProviderConfig) {
		cfg.tracingConfig = tc
	}
}

// WithTracerExporter sets the collector the spans are exported to
func WithTracerExporter(settings ExporterSettings) TracerProviderOption {
	return func(cfg *tracerProviderConfig) {
		cfg.exporter = settings
	}
}

// NewTracerProvider returns an SDK tracer provider exporting over OTLP/HTTP,
// registered as the global provider together with the W3C propagators.
// It returns a no-op provider when tracing is not enabled.
// The caller owns the SDK provider and must shut it down.
func NewTracerProvider(ctx context.Context, opts ...TracerProviderOption) (trace.TracerProvider, error) {
	cfg := &tracerProviderConfig{
		exporter: ExporterSettings{Endpoint: DefaultEndpoint},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.tracingConfig == nil || !cfg.tracingConfig.Enabled {
		slog.Info("Tracing disabled, using no-op tracer provider")
		return noop.NewTracerProvider(), nil
	}

	res := cfg.resource
	if res == nil {
		var err error
		if res, err = NewResource(ctx, nil); err != nil {
			return nil, err
		}
	}

	exporter, err := newTraceExporter(ctx, cfg.exporter)
	if err != nil {
		return nil, err
	}

	sampling := cfg.tracingConfig.GetSampling()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.exporter.Insecure {
		slog.Warn("Traces are exported over unencrypted HTTP", "endpoint", cfg.exporter.Endpoint)
	}
	slog.Info("Tracing initialized",
		"endpoint", cfg.exporter.Endpoint,
		"sampling_ratio", sampling,
	)

	return tp, nil
}

func newTraceExporter(ctx context.Context, settings ExporterSettings) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(settings.Endpoint)}
	if settings.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(settings.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(settings.Headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}
