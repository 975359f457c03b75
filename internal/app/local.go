package app

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/stacklok/toolhive-catalog-server/internal/service"
)

// NewLocalService builds the catalog service over the data directory for
// one-shot commands, without the HTTP server or background sync. The
// returned release function unlocks the data directory.
func NewLocalService(ctx context.Context, opts ...CatalogAppOptions) (service.CatalogService, func() error, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	current := cfg.configManager.GetConfig()
	if cfg.dataDir == "" {
		cfg.dataDir = current.GetDataDir()
	}

	var lock *dataDirLock
	if cfg.filesystem == nil {
		lock, err = acquireDataDirLock(cfg.dataDir)
		if err != nil {
			return nil, nil, err
		}
		cfg.filesystem = osfs.New(cfg.dataDir)
	}

	catalogCache, err := buildCache(cfg, current)
	if err != nil {
		_ = lock.Release()
		return nil, nil, fmt.Errorf("failed to build cache: %w", err)
	}

	svc, err := buildServiceComponents(ctx, cfg, catalogCache)
	if err != nil {
		_ = lock.Release()
		return nil, nil, fmt.Errorf("failed to build service components: %w", err)
	}

	return svc, lock.Release, nil
}
