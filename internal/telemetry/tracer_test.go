package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewTracerProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []TracerProviderOption
		expectNoOp bool
	}{
		{name: "no config", expectNoOp: true},
		{
			name:       "tracing disabled",
			opts:       []TracerProviderOption{WithTracingConfig(&TracingConfig{Enabled: false})},
			expectNoOp: true,
		},
		{
			name: "tracing enabled",
			opts: []TracerProviderOption{
				WithTracingConfig(&TracingConfig{Enabled: true, Sampling: 1.0}),
				WithTracerExporter(ExporterSettings{Endpoint: DefaultEndpoint, Insecure: true}),
			},
		},
		{
			name: "collector headers",
			opts: []TracerProviderOption{
				WithTracingConfig(&TracingConfig{Enabled: true}),
				WithTracerExporter(ExporterSettings{
					Endpoint: "collector:4318",
					Headers:  map[string]string{"Authorization": "Bearer token"},
				}),
				WithTracerResource(resource.Empty()),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			tp, err := NewTracerProvider(ctx, tt.opts...)
			require.NoError(t, err)

			if tt.expectNoOp {
				_, ok := tp.(noop.TracerProvider)
				assert.True(t, ok, "expected no-op tracer provider")
				return
			}

			sdkTP, ok := tp.(*sdktrace.TracerProvider)
			require.True(t, ok, "expected SDK tracer provider")
			// No collector is running; flushing on shutdown may fail
			_ = sdkTP.Shutdown(ctx)
		})
	}
}

func TestTracerProviderOptions(t *testing.T) {
	t.Parallel()

	cfg := &tracerProviderConfig{}
	tracing := &TracingConfig{Enabled: true}
	res := resource.Empty()
	settings := ExporterSettings{Endpoint: "collector:4318", Insecure: true}
	for _, opt := range []TracerProviderOption{
		WithTracerResource(res),
		WithTracingConfig(tracing),
		WithTracerExporter(settings),
	} {
		opt(cfg)
	}

	assert.Same(t, res, cfg.resource)
	assert.Same(t, tracing, cfg.tracingConfig)
	assert.Equal(t, settings, cfg.exporter)
}
