package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// MeterProviderOption configures NewMeterProvider
type MeterProviderOption func(*meterProviderConfig)

type meterProviderConfig struct {
	resource      *resource.Resource
	metricsConfig *MetricsConfig
	exporter      ExporterSettings
	registerer    prometheus.Registerer
}

// WithMeterResource sets the resource attached to every metric
func WithMeterResource(res *resource.Resource) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.resource = res
	}
}

// WithMetricsConfig sets the metrics configuration
func WithMetricsConfig(mc *MetricsConfig) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.metricsConfig = mc
	}
}

// WithMeterExporter sets the collector the OTLP reader pushes to
func WithMeterExporter(settings ExporterSettings) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.exporter = settings
	}
}

// WithPrometheusRegisterer sets the registry the Prometheus exporter registers
// with when MetricsConfig.Prometheus is set
func WithPrometheusRegisterer(reg prometheus.Registerer) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.registerer = reg
	}
}

// NewMeterProvider returns an SDK meter provider with the readers selected by
// the metrics configuration, registered as the global provider. It returns a
// no-op provider when metrics are not enabled.
// The caller owns the SDK provider and must shut it down.
func NewMeterProvider(ctx context.Context, opts ...MeterProviderOption) (metric.MeterProvider, error) {
	cfg := &meterProviderConfig{
		exporter: ExporterSettings{Endpoint: DefaultEndpoint},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.metricsConfig == nil || !cfg.metricsConfig.Enabled {
		slog.Info("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res := cfg.resource
	if res == nil {
		var err error
		if res, err = NewResource(ctx, nil); err != nil {
			return nil, err
		}
	}

	readers, err := metricReaders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"endpoint", cfg.exporter.Endpoint,
		"otlp", !cfg.metricsConfig.DisableOTLP,
		"prometheus", cfg.metricsConfig.Prometheus,
	)

	return mp, nil
}

// metricReaders builds the push and pull readers selected by the metrics configuration
func metricReaders(ctx context.Context, cfg *meterProviderConfig) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if !cfg.metricsConfig.DisableOTLP {
		exporter, err := newMetricExporter(ctx, cfg.exporter)
		if err != nil {
			return nil, err
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(cfg.metricsConfig.GetInterval()),
		))
	}

	if cfg.metricsConfig.Prometheus {
		registerer := cfg.registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		exporter, err := otelprom.New(otelprom.WithRegisterer(registerer))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, exporter)
	}

	return readers, nil
}

func newMetricExporter(ctx context.Context, settings ExporterSettings) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(settings.Endpoint),
		otlpmetrichttp.WithTimeout(10 * time.Second),
	}
	if settings.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(settings.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(settings.Headers))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}
	return exporter, nil
}
