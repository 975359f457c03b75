// Package service provides the host-facing operations of the catalog server
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"k8s.io/utils/clock"

	"github.com/stacklok/toolhive-catalog-server/internal/cache"
	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/config"
	"github.com/stacklok/toolhive-catalog-server/internal/filtering"
	"github.com/stacklok/toolhive-catalog-server/internal/otel"
	"github.com/stacklok/toolhive-catalog-server/internal/search"
	"github.com/stacklok/toolhive-catalog-server/internal/status"
	"github.com/stacklok/toolhive-catalog-server/internal/validators"
)

var (
	// ErrNotReady is returned while no scan pass has completed yet
	ErrNotReady = errors.New("catalog not loaded yet")
	// ErrInvalidArgument is returned for malformed request parameters
	ErrInvalidArgument = errors.New("invalid argument")
)

// ServiceTracerName is the name of the tracer used by the catalog service
const ServiceTracerName = "github.com/stacklok/toolhive-catalog-server/service"

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go CatalogService

// CatalogService defines the operations a host performs on the catalog
type CatalogService interface {
	// CheckReadiness reports whether a scan pass has completed
	CheckReadiness(ctx context.Context) error

	// ListItems aggregates the configured sources and returns the items
	// selected by the given options, annotated with why they matched
	ListItems(ctx context.Context, opts ...Option) (*ItemsResult, error)

	// RefreshRepository fetches url bypassing the cache
	RefreshRepository(ctx context.Context, url, name string) (*catalog.Repository, error)

	// ValidateSource checks a candidate source against the existing list
	ValidateSource(source catalog.Source, existing []catalog.Source) []validators.ValidationError

	// ValidateSources checks a complete source list
	ValidateSources(sources []catalog.Source) []validators.ValidationError

	// CleanupCache drops the in-memory cache and removes checkouts of
	// sources that are no longer configured. Returns the removed directories.
	CleanupCache(ctx context.Context) []string

	// ClearCache drops the in-memory cache
	ClearCache()

	// Sources returns the configured sources
	Sources() []catalog.Source

	// Sync runs one scan pass over the configured sources followed by a
	// cleanup of stale checkouts, and records its outcome
	Sync(ctx context.Context) (*SyncResult, error)

	// SyncStatus returns the outcome of the most recent sync passes
	SyncStatus(ctx context.Context) (*status.SyncStatus, error)
}

// ItemsResult is a filtered and sorted view of the catalog
type ItemsResult struct {
	Items  []catalog.Item `json:"items"`
	Errors []string       `json:"errors,omitempty"`
}

// SyncResult summarizes one scan pass
type SyncResult struct {
	Sources int      `json:"sources"`
	Items   int      `json:"items"`
	Errors  []string `json:"errors,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// ConfigProvider supplies the active configuration. config.Manager
// satisfies it.
type ConfigProvider interface {
	GetConfig() *config.Config
}

type staticConfig struct {
	cfg *config.Config
}

func (s staticConfig) GetConfig() *config.Config {
	return s.cfg
}

// StaticConfig returns a ConfigProvider always returning cfg
func StaticConfig(cfg *config.Config) ConfigProvider {
	return staticConfig{cfg: cfg}
}

type catalogSvc struct {
	cache   *cache.Cache
	configs ConfigProvider
	filter  filtering.FilterService
	tracer  trace.Tracer
	clock   clock.PassiveClock

	// statusMu serializes the read-modify-write of the sync status
	statusMu sync.Mutex
	status   status.StatusPersistence
}

var _ CatalogService = (*catalogSvc)(nil)

// ServiceOption configures the catalog service
type ServiceOption func(*catalogSvc)

// WithFilterService replaces the default name and tag policy filter
func WithFilterService(filter filtering.FilterService) ServiceOption {
	return func(s *catalogSvc) {
		s.filter = filter
	}
}

// WithTracer sets the tracer used for service spans
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *catalogSvc) {
		s.tracer = tracer
	}
}

// WithStatusPersistence sets where sync passes record their outcome.
// Defaults to memory.
func WithStatusPersistence(p status.StatusPersistence) ServiceOption {
	return func(s *catalogSvc) {
		s.status = p
	}
}

// WithClock sets the clock used for sync status timestamps
func WithClock(clk clock.PassiveClock) ServiceOption {
	return func(s *catalogSvc) {
		s.clock = clk
	}
}

// New creates a catalog service backed by c, reading its sources and policy
// from configs on every call
func New(c *cache.Cache, configs ConfigProvider, opts ...ServiceOption) (CatalogService, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config provider is required")
	}

	s := &catalogSvc{
		cache:   c,
		configs: configs,
		filter:  filtering.NewDefaultFilterService(),
		clock:   clock.RealClock{},
		status:  status.NewMemoryStatusPersistence(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *catalogSvc) CheckReadiness(_ context.Context) error {
	if s.cache.Items() == nil {
		return ErrNotReady
	}
	return nil
}

func (s *catalogSvc) ListItems(ctx context.Context, opts ...Option) (*ItemsResult, error) {
	options := ListItemsOptions{
		SortBy:    search.SortByName,
		SortOrder: search.Ascending,
	}
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.ListItems", trace.WithAttributes(
		otel.AttrItemType.String(string(options.Filters.Type)),
	))
	defer span.End()

	cfg := s.configs.GetConfig()
	aggregated := s.cache.GetItems(ctx, cfg.CatalogSources())
	allowed := s.filter.ApplyFilters(ctx, aggregated.Items, cfg.Filter)

	items := search.SortItemsForLocale(
		search.FilterItems(allowed, options.Filters),
		options.SortBy,
		options.SortOrder,
		options.SortSubcomponents,
		collationLocale(cfg.GetLocale()),
	)

	span.SetAttributes(
		otel.AttrResultCount.Int(len(items)),
		otel.AttrErrorCount.Int(len(aggregated.Errors)),
	)
	return &ItemsResult{Items: items, Errors: aggregated.Errors}, nil
}

func (s *catalogSvc) RefreshRepository(ctx context.Context, url, name string) (*catalog.Repository, error) {
	if errs := validators.ValidateURL(url); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, errs[0].Message)
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.RefreshRepository", trace.WithAttributes(
		otel.AttrSourceURL.String(url),
		otel.AttrSourceName.String(name),
	))
	defer span.End()

	repo := s.cache.RefreshRepository(ctx, url, name)
	if repo.Error != "" {
		slog.WarnContext(ctx, "Repository refresh failed", "url", url, "error", repo.Error)
	}
	return repo, nil
}

func (*catalogSvc) ValidateSource(source catalog.Source, existing []catalog.Source) []validators.ValidationError {
	return validators.ValidateSource(source, existing)
}

func (*catalogSvc) ValidateSources(sources []catalog.Source) []validators.ValidationError {
	return validators.ValidateSources(sources)
}

func (s *catalogSvc) CleanupCache(ctx context.Context) []string {
	s.cache.ClearCache()
	return s.cache.CleanupCacheDirectories(ctx, s.Sources())
}

func (s *catalogSvc) ClearCache() {
	s.cache.ClearCache()
}

func (s *catalogSvc) Sources() []catalog.Source {
	return s.configs.GetConfig().CatalogSources()
}

func (s *catalogSvc) Sync(ctx context.Context) (*SyncResult, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.Sync")
	defer span.End()

	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	current := s.loadStatus(ctx)
	current.Start(s.clock.Now())
	s.saveStatus(ctx, current)

	srcs := s.Sources()
	aggregated := s.cache.GetItems(ctx, srcs)
	if err := ctx.Err(); err != nil {
		otel.RecordError(span, err)
		// The pass is abandoned; record it with a fresh context
		current.Fail(s.clock.Now(), err)
		s.saveStatus(context.WithoutCancel(ctx), current)
		return nil, err
	}

	// Cleanup runs only after the scan pass so it never races a checkout
	removed := s.cache.CleanupCacheDirectories(ctx, srcs)

	result := &SyncResult{
		Sources: len(catalog.EnabledSources(srcs)),
		Items:   len(aggregated.Items),
		Errors:  aggregated.Errors,
		Removed: removed,
	}
	current.Finish(s.clock.Now(), result.Sources, result.Items, result.Errors, result.Removed)
	s.saveStatus(ctx, current)

	span.SetAttributes(
		otel.AttrResultCount.Int(result.Items),
		otel.AttrErrorCount.Int(len(result.Errors)),
	)
	return result, nil
}

func (s *catalogSvc) SyncStatus(ctx context.Context) (*status.SyncStatus, error) {
	current, err := s.status.LoadStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync status: %w", err)
	}
	return current, nil
}

// loadStatus returns the persisted status, or a pending one when it cannot
// be read
func (s *catalogSvc) loadStatus(ctx context.Context) *status.SyncStatus {
	current, err := s.status.LoadStatus(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load sync status, starting over", "error", err)
		return &status.SyncStatus{Phase: status.SyncPhasePending}
	}
	return current
}

func (s *catalogSvc) saveStatus(ctx context.Context, current *status.SyncStatus) {
	if err := s.status.SaveStatus(ctx, current); err != nil {
		slog.WarnContext(ctx, "Failed to save sync status", "phase", current.Phase, "error", err)
	}
}

// collationLocale parses the configured metadata locale, falling back to
// English for unknown tags
func collationLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}
