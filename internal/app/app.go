// Package app provides application lifecycle management for the catalog server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// CatalogApp encapsulates all components needed to run the catalog API server.
// It provides lifecycle management and graceful shutdown capabilities.
type CatalogApp struct {
	components *AppComponents
	httpServer *http.Server
	lock       *dataDirLock

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the background sync, the config watcher and the HTTP server.
// This method blocks until the HTTP server stops or encounters an error.
func (app *CatalogApp) Start() error {
	go func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	go func() {
		err := app.components.ConfigManager.WatchConfig(app.ctx)
		if err != nil && app.ctx.Err() == nil {
			slog.Error("Config watcher failed", "error", err)
		}
	}()

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// It stops the sync coordinator, shuts down the HTTP server, and releases
// the data directory.
func (app *CatalogApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	var errs []error

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop sync coordinator: %w", err))
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if err := app.components.ConfigManager.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := app.lock.Release(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetComponents returns the application components
func (app *CatalogApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *CatalogApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
