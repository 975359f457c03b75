package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-catalog-server/internal/api"
	"github.com/stacklok/toolhive-catalog-server/internal/cache"
	"github.com/stacklok/toolhive-catalog-server/internal/config"
	"github.com/stacklok/toolhive-catalog-server/internal/git"
	"github.com/stacklok/toolhive-catalog-server/internal/service"
	"github.com/stacklok/toolhive-catalog-server/internal/sources"
	"github.com/stacklok/toolhive-catalog-server/internal/status"
	"github.com/stacklok/toolhive-catalog-server/internal/sync/coordinator"
	"github.com/stacklok/toolhive-catalog-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	// Longer than the request timeout so the middleware can answer first
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// CatalogAppOptions is a function that configures the catalog app builder
type CatalogAppOptions func(*catalogAppConfig) error

// catalogAppConfig collects the components and settings of a CatalogApp.
// Components left nil are built from the configuration.
type catalogAppConfig struct {
	configManager config.Manager

	// Optional component overrides (primarily for testing)
	filesystem  billy.Filesystem
	fetcher     sources.Fetcher
	coordinator coordinator.Coordinator

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Data directory override; defaults to the configured dataDir
	dataDir string

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...CatalogAppOptions) (*catalogAppConfig, error) {
	cfg := &catalogAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.configManager == nil {
		return nil, fmt.Errorf("config manager is required")
	}

	return cfg, nil
}

// NewCatalogApp builds a CatalogApp from the given options
func NewCatalogApp(
	ctx context.Context,
	opts ...CatalogAppOptions,
) (*CatalogApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	current := cfg.configManager.GetConfig()
	if cfg.dataDir == "" {
		cfg.dataDir = current.GetDataDir()
	}

	var lock *dataDirLock
	if cfg.filesystem == nil {
		lock, err = acquireDataDirLock(cfg.dataDir)
		if err != nil {
			return nil, err
		}
		cfg.filesystem = osfs.New(cfg.dataDir)
	}

	// Release the lock unless the app takes ownership of it
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			_ = lock.Release()
		}
	}()

	catalogCache, err := buildCache(cfg, current)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}

	svc, err := buildServiceComponents(ctx, cfg, catalogCache)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	syncCoordinator, err := buildSyncComponents(ctx, cfg, svc, current)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	return &CatalogApp{
		components: &AppComponents{
			ConfigManager:   cfg.configManager,
			Cache:           catalogCache,
			CatalogService:  svc,
			SyncCoordinator: syncCoordinator,
		},
		httpServer: httpServer,
		lock:       lock,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfigManager sets the configuration source
func WithConfigManager(m config.Manager) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.configManager = m
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithDataDirectory overrides the configured data directory
func WithDataDirectory(dir string) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		if dir == "" {
			return fmt.Errorf("data directory cannot be empty")
		}
		cfg.dataDir = dir
		return nil
	}
}

// WithFilesystem sets the filesystem holding the checkouts (for testing).
// No data directory lock is taken.
func WithFilesystem(fs billy.Filesystem) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.filesystem = fs
		return nil
	}
}

// WithFetcher allows injecting a custom repository fetcher (for testing)
func WithFetcher(f sources.Fetcher) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.fetcher = f
		return nil
	}
}

// WithCoordinator allows injecting a custom sync coordinator (for testing)
func WithCoordinator(c coordinator.Coordinator) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.coordinator = c
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for metrics
func WithMeterProvider(mp metric.MeterProvider) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildCache builds the repository fetcher and the cache in front of it
func buildCache(b *catalogAppConfig, current *config.Config) (*cache.Cache, error) {
	slog.Info("Initializing repository cache", "data_dir", b.dataDir)

	if b.fetcher == nil {
		b.fetcher = sources.NewFetcher(b.filesystem, git.NewDefaultClient(b.filesystem),
			sources.WithLocale(current.GetLocale(), current.GetDefaultLocale()),
			sources.WithCloneTimeout(current.Cache.GetCloneTimeout()),
			sources.WithPullTimeout(current.Cache.GetPullTimeout()),
		)
	}

	cacheOpts := []cache.Option{
		cache.WithTTL(current.Cache.GetTTL()),
		cache.WithFetchTimeout(current.Cache.GetFetchTimeout()),
	}

	if b.meterProvider != nil {
		metrics, err := telemetry.NewCatalogMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog metrics: %w", err)
		}
		cacheOpts = append(cacheOpts, cache.WithMetrics(metrics))
	}
	if b.tracerProvider != nil {
		cacheOpts = append(cacheOpts, cache.WithTracer(b.tracerProvider.Tracer(cache.CacheTracerName)))
	}

	return cache.New(b.fetcher, b.filesystem, cacheOpts...), nil
}

// buildServiceComponents builds the catalog service
func buildServiceComponents(
	_ context.Context,
	b *catalogAppConfig,
	c *cache.Cache,
) (service.CatalogService, error) {
	slog.Info("Initializing service components")

	svcOpts := []service.ServiceOption{
		service.WithStatusPersistence(status.NewFileStatusPersistence(b.filesystem, status.StatusFileName)),
	}
	if b.tracerProvider != nil {
		svcOpts = append(svcOpts, service.WithTracer(b.tracerProvider.Tracer(service.ServiceTracerName)))
	}

	svc, err := service.New(c, b.configManager, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildSyncComponents builds the background sync coordinator
func buildSyncComponents(
	_ context.Context,
	b *catalogAppConfig,
	svc service.CatalogService,
	current *config.Config,
) (coordinator.Coordinator, error) {
	if b.coordinator != nil {
		return b.coordinator, nil
	}

	slog.Info("Initializing sync components")

	coordOpts := []coordinator.Option{
		coordinator.WithInterval(current.Sync.GetInterval()),
		coordinator.WithConfigUpdates(b.configManager.Subscribe()),
	}

	if b.meterProvider != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if syncMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
			slog.Info("Sync metrics enabled")
		}
	}

	syncCoordinator := coordinator.New(svc, coordOpts...)
	slog.Info("Sync components initialized successfully")

	return syncCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *catalogAppConfig,
	svc service.CatalogService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing come first so they see every request
	var observability []func(http.Handler) http.Handler
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			observability = append(observability, metricsMiddleware)
			slog.Info("HTTP metrics middleware enabled")
		}
	}
	if b.tracerProvider != nil {
		observability = append(observability, telemetry.TracingMiddleware(b.tracerProvider))
	}
	middlewares := append(observability, b.middlewares...)

	router := api.NewServer(svc,
		api.WithMiddlewares(middlewares...),
		api.WithMetricsHandler(b.metricsHandler),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
