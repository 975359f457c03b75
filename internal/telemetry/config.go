// Package telemetry provides OpenTelemetry instrumentation for the catalog server.
// Traces are exported over OTLP; metrics are exported over OTLP, scraped from a
// Prometheus endpoint, or both.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	// DefaultServiceName is the service.name resource attribute unless configured
	DefaultServiceName = "thv-catalog"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace sampling ratio for root spans
	DefaultSampling = 0.05

	// DefaultMetricsInterval is how often metrics are pushed over OTLP
	DefaultMetricsInterval = 60 * time.Second

	unknownVersion = "unknown"
)

// Config is the telemetry section of the catalog configuration
type Config struct {
	// Enabled turns on the OpenTelemetry SDK. Tracing and Metrics are
	// ignored when it is false.
	Enabled bool `yaml:"enabled"`

	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the collector address as host:port. The exporters add the
	// /v1/traces and /v1/metrics paths.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure exports over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are sent with every export request, e.g. collector credentials
	Headers map[string]string `yaml:"headers,omitempty"`

	// ResourceAttributes are added to the resource of every span and metric
	ResourceAttributes map[string]string `yaml:"resourceAttributes,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of root spans recorded, between 0 and 1.
	// Zero selects DefaultSampling. Child spans follow their parent.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig configures metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prometheus serves the metrics on the API's /metrics endpoint
	Prometheus bool `yaml:"prometheus,omitempty"`

	// DisableOTLP turns off the OTLP push exporter, e.g. for scrape-only setups
	DisableOTLP bool `yaml:"disableOtlp,omitempty"`

	// Interval between OTLP pushes as a Go duration, e.g. "30s"
	Interval string `yaml:"interval,omitempty"`
}

// ExporterSettings are the collector settings shared by the OTLP exporters
type ExporterSettings struct {
	Endpoint string
	Insecure bool
	Headers  map[string]string
}

// GetServiceName returns the service name, or DefaultServiceName
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, or "unknown"
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return unknownVersion
	}
	return c.ServiceVersion
}

// GetEndpoint returns the collector endpoint, or DefaultEndpoint
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// Exporter returns the settings for the OTLP exporters
func (c *Config) Exporter() ExporterSettings {
	return ExporterSettings{
		Endpoint: c.GetEndpoint(),
		Insecure: c.Insecure,
		Headers:  c.Headers,
	}
}

// GetSampling returns the sampling ratio. An unset ratio (0) cannot be told
// apart from an explicit 0 in YAML and selects DefaultSampling.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetInterval returns the OTLP push interval, or DefaultMetricsInterval.
// Call Validate first; an unparsable interval also yields the default.
func (c *MetricsConfig) GetInterval() time.Duration {
	if c == nil || c.Interval == "" {
		return DefaultMetricsInterval
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return DefaultMetricsInterval
	}
	return d
}

// Validate validates the telemetry configuration. A nil or disabled
// configuration is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.Endpoint != "" {
		if strings.Contains(c.Endpoint, "://") {
			errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
		} else if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("endpoint must be host:port: %w", err))
		}
	}

	for name := range c.Headers {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("header names cannot be empty"))
			break
		}
	}

	for key := range c.ResourceAttributes {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, errors.New("resource attribute keys cannot be empty"))
			break
		}
	}

	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}

	return errors.Join(errs...)
}

// Validate validates the tracing configuration
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.Sampling < 0 || c.Sampling > 1.0 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}

	return nil
}

// Validate validates the metrics configuration
func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.DisableOTLP && !c.Prometheus {
		errs = append(errs, errors.New("at least one exporter is required: enable prometheus or keep OTLP"))
	}

	if c.Interval != "" {
		if d, err := time.ParseDuration(c.Interval); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("interval must be a positive duration, got %q", c.Interval))
		}
	}

	return errors.Join(errs...)
}
