package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CatalogMetricsMeterName is the name used for the catalog cache metrics meter
	CatalogMetricsMeterName = "github.com/stacklok/toolhive-catalog-server/catalog"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/toolhive-catalog-server/sync"
)

// Cache lookup results
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

// CatalogMetrics holds the OpenTelemetry instruments for the repository cache
type CatalogMetrics struct {
	cacheLookups  metric.Int64Counter
	fetchDuration metric.Float64Histogram
	itemsTotal    metric.Int64Gauge
	dirsRemoved   metric.Int64Counter
}

// NewCatalogMetrics creates a new CatalogMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCatalogMetrics(provider metric.MeterProvider) (*CatalogMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CatalogMetricsMeterName)

	cacheLookups, err := meter.Int64Counter(
		"thv_catalog_cache_lookups_total",
		metric.WithDescription("Number of repository cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"thv_catalog_fetch_duration_seconds",
		metric.WithDescription("Duration of repository fetches in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	itemsTotal, err := meter.Int64Gauge(
		"thv_catalog_items_total",
		metric.WithDescription("Number of items in the last aggregated catalog"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	dirsRemoved, err := meter.Int64Counter(
		"thv_catalog_cache_dirs_removed_total",
		metric.WithDescription("Number of stale checkout directories removed"),
		metric.WithUnit("{directory}"),
	)
	if err != nil {
		return nil, err
	}

	return &CatalogMetrics{
		cacheLookups:  cacheLookups,
		fetchDuration: fetchDuration,
		itemsTotal:    itemsTotal,
		dirsRemoved:   dirsRemoved,
	}, nil
}

// RecordCacheLookup records a cache lookup with its result (LookupHit or LookupMiss)
func (m *CatalogMetrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}

	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordFetchDuration records the duration of a repository fetch
func (m *CatalogMetrics) RecordFetchDuration(ctx context.Context, url string, duration time.Duration, success bool) {
	if m == nil || m.fetchDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", url),
		attribute.Bool("success", success),
	}

	m.fetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordItemsTotal records the size of the last aggregated catalog
func (m *CatalogMetrics) RecordItemsTotal(ctx context.Context, count int64) {
	if m == nil || m.itemsTotal == nil {
		return
	}

	m.itemsTotal.Record(ctx, count)
}

// RecordDirsRemoved records checkout directories removed by a cleanup
func (m *CatalogMetrics) RecordDirsRemoved(ctx context.Context, count int64) {
	if m == nil || m.dirsRemoved == nil || count == 0 {
		return
	}

	m.dirsRemoved.Add(ctx, count)
}

// SyncMetrics holds the OpenTelemetry instruments for background sync passes
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"thv_catalog_sync_duration_seconds",
		metric.WithDescription("Duration of sync passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
	}, nil
}

// RecordSyncDuration records the duration of a sync pass over all sources
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, sources int, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int("sources", sources),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
