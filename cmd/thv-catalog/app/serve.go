package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	catalogapp "github.com/stacklok/toolhive-catalog-server/internal/app"
	"github.com/stacklok/toolhive-catalog-server/internal/telemetry"
)

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	telemetryFlushTimeout  = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog API server",
		Long: `Start the catalog API server.

The configuration file (--config) lists the source repositories and the cache,
sync, filter and telemetry settings. Changes to the file are picked up without
a restart.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("data-dir", "", "Directory holding the repository checkouts (overrides dataDir)")
	for _, name := range []string{"address", "data-dir"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager, err := loadConfigManager()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := manager.GetConfig()

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	opts := []catalogapp.CatalogAppOptions{
		catalogapp.WithConfigManager(manager),
		catalogapp.WithAddress(viper.GetString("address")),
		catalogapp.WithMeterProvider(tel.MeterProvider()),
		catalogapp.WithTracerProvider(tel.TracerProvider()),
		catalogapp.WithMetricsHandler(tel.MetricsHandler()),
	}
	if dir := viper.GetString("data-dir"); dir != "" {
		opts = append(opts, catalogapp.WithDataDirectory(dir))
	}

	slog.Info("Starting catalog API server",
		"address", viper.GetString("address"),
		"sources", len(cfg.Sources))

	catalogApp, err := catalogapp.NewCatalogApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- catalogApp.Start()
	}()

	select {
	case startErr := <-errCh:
		return errors.Join(startErr, catalogApp.Stop(defaultGracefulTimeout))
	case <-ctx.Done():
	}

	return catalogApp.Stop(defaultGracefulTimeout)
}
