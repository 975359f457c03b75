package app

import (
	"github.com/stacklok/toolhive-catalog-server/internal/cache"
	"github.com/stacklok/toolhive-catalog-server/internal/config"
	"github.com/stacklok/toolhive-catalog-server/internal/service"
	"github.com/stacklok/toolhive-catalog-server/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// ConfigManager holds the active configuration and watches the file
	ConfigManager config.Manager

	// Cache holds fetched repositories
	Cache *cache.Cache

	// CatalogService provides catalog business logic
	CatalogService service.CatalogService

	// SyncCoordinator manages background synchronization
	SyncCoordinator coordinator.Coordinator
}
