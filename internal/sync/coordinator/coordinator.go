package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"k8s.io/utils/clock"

	"github.com/stacklok/toolhive-catalog-server/internal/config"
	"github.com/stacklok/toolhive-catalog-server/internal/service"
	"github.com/stacklok/toolhive-catalog-server/internal/telemetry"
)

// ErrAlreadyStarted is returned by Start on a coordinator that was started before
var ErrAlreadyStarted = errors.New("sync coordinator already started")

const (
	// DefaultInitialRetryDelay is the first delay after a pass with errors
	DefaultInitialRetryDelay = 30 * time.Second

	// jitterDivisor bounds the jitter to interval/jitterDivisor either way
	jitterDivisor = 10
)

// Coordinator manages background sync passes over the configured sources
type Coordinator interface {
	// Start runs sync passes until the context is cancelled or Stop is
	// called. It blocks for the lifetime of the coordinator. A coordinator
	// runs once; later calls return ErrAlreadyStarted.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for the running pass
	Stop() error
}

// Syncer runs one sync pass. service.CatalogService satisfies it.
type Syncer interface {
	Sync(ctx context.Context) (*service.SyncResult, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	syncer   Syncer
	interval time.Duration
	clock    clock.Clock
	updates  <-chan *config.Config
	retry    *backoff.ExponentialBackOff

	// Lifecycle management
	mu         sync.Mutex
	started    bool
	cancelFunc context.CancelFunc
	done       chan struct{}

	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInterval sets the delay between two clean passes
func WithInterval(interval time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.interval = interval
	}
}

// WithInitialRetryDelay sets the first backoff delay after a failed pass
func WithInitialRetryDelay(delay time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.retry.InitialInterval = delay
	}
}

// WithConfigUpdates triggers a pass whenever a configuration is received
func WithConfigUpdates(updates <-chan *config.Config) Option {
	return func(c *defaultCoordinator) {
		c.updates = updates
	}
}

// WithClock sets the clock used for scheduling
func WithClock(clk clock.Clock) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// New creates a new coordinator running passes through syncer
func New(syncer Syncer, opts ...Option) Coordinator {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = DefaultInitialRetryDelay
	retry.Multiplier = 2
	retry.RandomizationFactor = 0.2

	c := &defaultCoordinator{
		syncer:   syncer,
		interval: config.DefaultSyncInterval,
		clock:    clock.RealClock{},
		retry:    retry,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.retry.MaxInterval = c.interval
	c.retry.Reset()

	return c
}

// jitter returns interval shifted by a random offset of at most a tenth of
// the interval either way, so that several instances do not fetch in step
func jitter(interval time.Duration) time.Duration {
	bound := int64(interval / jitterDivisor)
	if bound <= 0 {
		return interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for scheduling jitter
	return interval + time.Duration(rand.Int64N(2*bound+1)-bound)
}

// Start runs the coordinator loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.mu.Unlock()

	slog.Info("Starting background sync coordinator", "interval", c.interval)
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	timer := c.clock.NewTimer(c.runPass(coordCtx))
	defer timer.Stop()

	updates := c.updates
	for {
		select {
		case <-timer.C():
			timer.Reset(c.runPass(coordCtx))

		case cfg, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			slog.Info("Configuration changed, running sync pass", "sources", len(cfg.Sources))
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			timer.Reset(c.runPass(coordCtx))

		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// runPass performs one sync pass and returns the delay until the next one
func (c *defaultCoordinator) runPass(ctx context.Context) time.Duration {
	start := c.clock.Now()
	result, err := c.syncer.Sync(ctx)
	duration := c.clock.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return c.interval
		}
		slog.Error("Sync pass failed", "error", err, "duration", duration)
		c.syncMetrics.RecordSyncDuration(ctx, 0, duration, false)
		return c.retryDelay()
	}

	success := len(result.Errors) == 0
	c.syncMetrics.RecordSyncDuration(ctx, result.Sources, duration, success)

	if !success {
		delay := c.retryDelay()
		slog.Warn("Sync pass completed with errors",
			"items", result.Items,
			"errors", result.Errors,
			"removed", len(result.Removed),
			"retry_in", delay)
		return delay
	}

	c.retry.Reset()
	slog.Info("Sync pass completed",
		"sources", result.Sources,
		"items", result.Items,
		"removed", len(result.Removed),
		"duration", duration)
	return jitter(c.interval)
}

func (c *defaultCoordinator) retryDelay() time.Duration {
	return min(c.retry.NextBackOff(), c.interval)
}
