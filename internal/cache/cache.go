package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/otel"
	"github.com/stacklok/toolhive-catalog-server/internal/sources"
	"github.com/stacklok/toolhive-catalog-server/internal/telemetry"
	"github.com/stacklok/toolhive-catalog-server/internal/versions"
)

const (
	// DefaultTTL is how long a fetched repository is served from memory
	DefaultTTL = time.Hour

	// DefaultFetchTimeout bounds a whole repository fetch
	DefaultFetchTimeout = 30 * time.Second

	// UnknownRepositoryName is the name of the placeholder returned for a failed fetch
	UnknownRepositoryName = "Unknown Repository"

	// CacheTracerName is the name of the tracer used for fetch spans
	CacheTracerName = "github.com/stacklok/toolhive-catalog-server/cache"
)

// ItemsResult is the aggregated catalog of a set of sources. Errors is nil
// when every source was fetched successfully.
type ItemsResult struct {
	Items  []catalog.Item `json:"items"`
	Errors []string       `json:"errors,omitempty"`
}

// Option configures a Cache
type Option func(*Cache)

// WithClock sets the clock used for expiry and fetch timeouts
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		c.clock = clk
	}
}

// WithTTL sets how long fetched repositories stay fresh
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithFetchTimeout bounds a single repository fetch
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = timeout
	}
}

// WithMetrics sets the metrics recorder. A nil recorder disables metrics.
func WithMetrics(metrics *telemetry.CatalogMetrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// WithTracer sets the tracer used for fetch spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Cache) {
		c.tracer = tracer
	}
}

// Cache holds fetched repositories in memory and serializes all work on the
// checkout directory.
//
// Two independent mechanisms guard fetches. The scan semaphore lets one
// fetch or cleanup touch the filesystem at a time, serving waiters in
// arrival order. The locked set marks sources a GetItems pass is working on
// so that a concurrent pass skips them instead of queueing duplicate work.
type Cache struct {
	fetcher      sources.Fetcher
	fs           billy.Filesystem
	clock        clock.Clock
	ttl          time.Duration
	fetchTimeout time.Duration
	metrics      *telemetry.CatalogMetrics
	tracer       trace.Tracer

	scan *semaphore.Weighted

	entriesMu sync.RWMutex
	entries   map[string]*catalog.CacheEntry

	lockedMu sync.Mutex
	locked   map[string]struct{}

	itemsMu sync.RWMutex
	items   []catalog.Item
}

// New creates a Cache fetching through fetcher. filesystem must be the one
// holding the fetcher's cache root.
func New(fetcher sources.Fetcher, filesystem billy.Filesystem, opts ...Option) *Cache {
	c := &Cache{
		fetcher:      fetcher,
		fs:           filesystem,
		clock:        clock.RealClock{},
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
		scan:         semaphore.NewWeighted(1),
		entries:      make(map[string]*catalog.CacheEntry),
		locked:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetItems aggregates the items of every enabled source, in list order.
// A source another pass is already working on contributes its last cached
// entry whatever its age, or is skipped silently when it has none. A failing
// source contributes a "Source {url}: {message}" entry to Errors and does not
// stop the others.
func (c *Cache) GetItems(ctx context.Context, srcs []catalog.Source) *ItemsResult {
	scanID := uuid.NewString()
	enabled := catalog.EnabledSources(srcs)
	slog.Debug("Starting scan", "scan_id", scanID, "sources", len(enabled))

	result := &ItemsResult{Items: []catalog.Item{}}
	for _, src := range enabled {
		var repo *catalog.Repository
		if c.tryLock(src.URL) {
			var err error
			repo, err = c.scanSource(ctx, src)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Source %s: %s", src.URL, err.Error()))
				continue
			}
		} else {
			entry, ok := c.Entry(src.URL)
			if !ok {
				slog.Debug("Source already being scanned, skipping", "scan_id", scanID, "url", src.URL)
				continue
			}
			slog.Debug("Source already being scanned, using cached entry", "scan_id", scanID, "url", src.URL)
			repo = entry.Data
		}

		for _, item := range repo.Items {
			item.SourceName = src.Name
			result.Items = append(result.Items, item)
		}
	}

	c.itemsMu.Lock()
	c.items = result.Items
	c.itemsMu.Unlock()

	c.metrics.RecordItemsTotal(ctx, int64(len(result.Items)))
	slog.Info("Scan completed",
		"scan_id", scanID,
		"sources", len(enabled),
		"items", len(result.Items),
		"errors", len(result.Errors))

	return result
}

func (c *Cache) scanSource(ctx context.Context, src catalog.Source) (*catalog.Repository, error) {
	defer c.unlock(src.URL)
	return c.GetRepositoryData(ctx, src.URL, false, src.Name)
}

// GetRepositoryData returns the repository of url. A cached entry younger
// than the TTL is returned as is unless forceRefresh is set. Otherwise the
// repository is fetched, bounded by the fetch timeout; a successful fetch
// replaces the cache entry. On failure the returned repository is a
// placeholder named UnknownRepositoryName, the cache is left untouched and
// the error is returned alongside.
func (c *Cache) GetRepositoryData(
	ctx context.Context, url string, forceRefresh bool, sourceName string,
) (*catalog.Repository, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "cache.GetRepositoryData", trace.WithAttributes(
		otel.AttrSourceURL.String(url),
		otel.AttrForceRefresh.Bool(forceRefresh),
	))
	defer span.End()

	if !forceRefresh {
		if entry, ok := c.freshEntry(url); ok {
			span.SetAttributes(otel.AttrCacheHit.Bool(true))
			c.metrics.RecordCacheLookup(ctx, telemetry.LookupHit)
			return entry.Data, nil
		}
	}
	span.SetAttributes(otel.AttrCacheHit.Bool(false))
	c.metrics.RecordCacheLookup(ctx, telemetry.LookupMiss)

	repo, err := c.fetch(ctx, url, forceRefresh, sourceName)
	if err != nil {
		otel.RecordError(span, err)
		slog.Warn("Repository unavailable", "url", url, "error", err)
		return placeholder(url, err), err
	}

	c.entriesMu.Lock()
	previous := c.entries[url]
	c.entries[url] = &catalog.CacheEntry{Data: repo, Timestamp: c.clock.Now()}
	c.entriesMu.Unlock()

	if previous != nil {
		if updated := versions.NewerItems(previous.Data.Items, repo.Items); len(updated) > 0 {
			slog.Info("Repository items updated", "url", url, "items", updated)
		}
	}

	return repo, nil
}

// fetch runs one fetch through the scan semaphore and the timeout race
func (c *Cache) fetch(ctx context.Context, url string, forceRefresh bool, sourceName string) (*catalog.Repository, error) {
	if err := c.scan.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for scan: %w", err)
	}
	defer c.scan.Release(1)

	start := c.clock.Now()
	repo, err := sources.RunWithTimeout(ctx, c.clock, c.fetchTimeout,
		func(ctx context.Context) (*catalog.Repository, error) {
			return c.fetcher.FetchRepository(ctx, url, forceRefresh, sourceName)
		})
	c.metrics.RecordFetchDuration(ctx, url, c.clock.Since(start), err == nil)

	return repo, err
}

// RefreshRepository fetches url bypassing the cache. On failure the returned
// placeholder also carries the error message in its Error field.
func (c *Cache) RefreshRepository(ctx context.Context, url, sourceName string) *catalog.Repository {
	repo, err := c.GetRepositoryData(ctx, url, true, sourceName)
	if err != nil {
		repo.Error = err.Error()
	}
	return repo
}

// CleanupCacheDirectories removes every checkout directory that does not
// belong to a source of current, enabled or not, and returns the removed names. A
// missing cache root is not an error and a failed removal does not stop the
// others.
func (c *Cache) CleanupCacheDirectories(ctx context.Context, current []catalog.Source) []string {
	if err := c.scan.Acquire(ctx, 1); err != nil {
		slog.Warn("Cache cleanup cancelled", "error", err)
		return nil
	}
	defer c.scan.Release(1)

	root := c.fetcher.CacheRoot()
	entries, err := c.fs.ReadDir(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to list cache directory", "path", root, "error", err)
		}
		return nil
	}

	keep := make(map[string]struct{})
	for _, src := range current {
		keep[sources.SafeDirName(src.URL)] = struct{}{}
	}

	var removed []string
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}

		dir := c.fs.Join(root, entry.Name())
		if err := util.RemoveAll(c.fs, dir); err != nil {
			slog.Warn("Failed to remove stale checkout", "path", dir, "error", err)
			continue
		}
		slog.Info("Removed stale checkout", "path", dir)
		removed = append(removed, entry.Name())
	}

	c.metrics.RecordDirsRemoved(ctx, int64(len(removed)))
	return removed
}

// ClearCache drops every in-memory entry
func (c *Cache) ClearCache() {
	c.entriesMu.Lock()
	c.entries = make(map[string]*catalog.CacheEntry)
	c.entriesMu.Unlock()
}

// Cleanup drops every in-memory entry and removes the checkout directories
// of sources that were not cached
func (c *Cache) Cleanup(ctx context.Context) []string {
	c.entriesMu.Lock()
	urls := slices.Sorted(maps.Keys(c.entries))
	c.entries = make(map[string]*catalog.CacheEntry)
	c.entriesMu.Unlock()

	current := make([]catalog.Source, 0, len(urls))
	for _, url := range urls {
		current = append(current, catalog.Source{URL: url, Enabled: true})
	}
	return c.CleanupCacheDirectories(ctx, current)
}

// Items returns the result of the most recent GetItems pass
func (c *Cache) Items() []catalog.Item {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	return c.items
}

// Entry returns the cache entry of url regardless of its age
func (c *Cache) Entry(url string) (*catalog.CacheEntry, bool) {
	c.entriesMu.RLock()
	defer c.entriesMu.RUnlock()
	entry, ok := c.entries[url]
	return entry, ok
}

func (c *Cache) freshEntry(url string) (*catalog.CacheEntry, bool) {
	entry, ok := c.Entry(url)
	if !ok || c.clock.Since(entry.Timestamp) >= c.ttl {
		return nil, false
	}
	return entry, true
}

func (c *Cache) tryLock(url string) bool {
	c.lockedMu.Lock()
	defer c.lockedMu.Unlock()
	if _, busy := c.locked[url]; busy {
		return false
	}
	c.locked[url] = struct{}{}
	return true
}

func (c *Cache) unlock(url string) {
	c.lockedMu.Lock()
	defer c.lockedMu.Unlock()
	delete(c.locked, url)
}

func placeholder(url string, err error) *catalog.Repository {
	return &catalog.Repository{
		Metadata: catalog.RepositoryMetadata{
			Name:        UnknownRepositoryName,
			Description: err.Error(),
		},
		Items: []catalog.Item{},
		URL:   url,
	}
}
