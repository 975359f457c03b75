package telemetry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// NewResource describes this process to the collector: service name and
// version, host, SDK, plus the configured resource attributes. A nil config
// yields the defaults.
//
// resource.New is used instead of merging with resource.Default to avoid
// schema URL conflicts.
func NewResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(cfg.GetServiceVersion()),
	}
	for _, key := range slices.Sorted(maps.Keys(cfg.ResourceAttributes)) {
		attrs = append(attrs, attribute.String(key, cfg.ResourceAttributes[key]))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
