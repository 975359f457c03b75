package status

import (
	"fmt"
	"time"
)

// SyncPhase represents the current phase of a synchronization operation
type SyncPhase string

const (
	// SyncPhasePending means no sync pass has run yet
	SyncPhasePending SyncPhase = "Pending"

	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last pass fetched every source
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last pass was aborted or a source failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the state of catalog synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of failed attempts since the last clean pass
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last clean pass
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// Sources is the number of enabled sources of the last pass
	Sources int `json:"sources"`

	// ItemCount is the number of items aggregated by the last pass
	ItemCount int `json:"itemCount"`

	// Errors are the per-source errors of the last pass
	Errors []string `json:"errors,omitempty"`

	// Removed are the stale checkouts removed by the last pass
	Removed []string `json:"removed,omitempty"`
}

// Start marks a pass started at now
func (s *SyncStatus) Start(now time.Time) {
	s.Phase = SyncPhaseSyncing
	s.Message = "Sync in progress"
	s.LastAttempt = &now
}

// Finish records the outcome of a pass that ran to completion. A pass with
// source errors counts as a failed attempt.
func (s *SyncStatus) Finish(now time.Time, sources, items int, errs, removed []string) {
	s.LastAttempt = &now
	s.Sources = sources
	s.ItemCount = items
	s.Errors = errs
	s.Removed = removed

	if len(errs) > 0 {
		s.Phase = SyncPhaseFailed
		s.AttemptCount++
		s.Message = fmt.Sprintf("%d of %d sources failed", len(errs), sources)
		return
	}

	s.Phase = SyncPhaseComplete
	s.AttemptCount = 0
	s.LastSyncTime = &now
	s.Message = fmt.Sprintf("Synced %d items from %d sources", items, sources)
}

// Fail records a pass aborted by err
func (s *SyncStatus) Fail(now time.Time, err error) {
	s.Phase = SyncPhaseFailed
	s.LastAttempt = &now
	s.AttemptCount++
	s.Message = err.Error()
}
