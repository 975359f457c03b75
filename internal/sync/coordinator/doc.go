// Package coordinator keeps the catalog cache warm in the background.
//
// The coordinator runs a sync pass on start, then one per configured
// interval with a random jitter of up to a tenth of the interval. A pass
// fetches every enabled source through the cache and afterwards removes the
// checkouts of sources that are no longer configured, so the cleanup never
// races a fetch.
//
// When a pass reports source errors the next pass is scheduled with an
// exponential backoff, capped at the interval, instead of waiting for the
// full interval. A clean pass resets the backoff. A configuration update
// received from the config manager triggers an immediate pass.
//
// # Usage
//
//	coord := coordinator.New(catalogService,
//	    coordinator.WithInterval(cfg.Sync.GetInterval()),
//	    coordinator.WithConfigUpdates(configManager.Subscribe()),
//	    coordinator.WithSyncMetrics(syncMetrics),
//	)
//	go func() {
//	    if err := coord.Start(ctx); err != nil {
//	        slog.Error("Coordinator failed", "error", err)
//	    }
//	}()
//	defer coord.Stop()
package coordinator
