// Package cache keeps fetched catalog repositories in memory and aggregates
// them into a single item list.
//
// Entries expire after a TTL (one hour by default). Only successful fetches
// are stored, so a failed source is retried by the next call instead of
// being served a cached failure. Every fetch is bounded by a timeout; when it
// elapses the fetch context is cancelled and the caller receives a
// placeholder repository.
//
// Checkout directories belonging to sources that are no longer configured are
// removed by CleanupCacheDirectories. Callers run it after a completed scan
// pass; it waits for the scan semaphore so it never overlaps a fetch.
package cache
