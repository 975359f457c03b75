// Package status provides sync status tracking and persistence for the catalog.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status to persistent storage
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus loads the sync status from persistent storage.
	// Returns a pending SyncStatus if nothing was saved yet (first run).
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// fileStatusPersistence implements StatusPersistence as a JSON file
type fileStatusPersistence struct {
	fs   billy.Filesystem
	path string
}

// NewFileStatusPersistence creates a file-based status persistence storing
// the status at filePath within filesystem
func NewFileStatusPersistence(filesystem billy.Filesystem, filePath string) StatusPersistence {
	return &fileStatusPersistence{
		fs:   filesystem,
		path: filePath,
	}
}

// SaveStatus writes the status as JSON, replacing the previous file atomically
func (f *fileStatusPersistence) SaveStatus(_ context.Context, status *SyncStatus) error {
	if dir := path.Dir(f.path); dir != "." {
		if err := f.fs.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create status directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	// Write to temporary file first for atomic operation
	tempPath := f.path + ".tmp"
	if err := util.WriteFile(f.fs, tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	if err := f.fs.Rename(tempPath, f.path); err != nil {
		_ = f.fs.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

// LoadStatus reads the status file
func (f *fileStatusPersistence) LoadStatus(_ context.Context) (*SyncStatus, error) {
	data, err := util.ReadFile(f.fs, f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &SyncStatus{Phase: SyncPhasePending}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}

	return &status, nil
}

// memoryStatusPersistence keeps the status in memory only
type memoryStatusPersistence struct {
	mu     sync.RWMutex
	status *SyncStatus
}

// NewMemoryStatusPersistence creates a status persistence that does not
// survive a restart
func NewMemoryStatusPersistence() StatusPersistence {
	return &memoryStatusPersistence{}
}

func (m *memoryStatusPersistence) SaveStatus(_ context.Context, status *SyncStatus) error {
	saved := *status
	m.mu.Lock()
	m.status = &saved
	m.mu.Unlock()
	return nil
}

func (m *memoryStatusPersistence) LoadStatus(_ context.Context) (*SyncStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status == nil {
		return &SyncStatus{Phase: SyncPhasePending}, nil
	}
	loaded := *m.status
	return &loaded, nil
}
