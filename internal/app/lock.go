package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName is created in the data directory while a process owns it
const lockFileName = ".thv-catalog.lock"

// dataDirLock guards a data directory against a second server process
// sharing its checkouts
type dataDirLock struct {
	lock *flock.Flock
}

// acquireDataDirLock creates dir if needed and takes an exclusive lock on it
// without blocking
func acquireDataDirLock(dir string) (*dataDirLock, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock data directory %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("data directory %s is in use by another process", dir)
	}
	return &dataDirLock{lock: lock}, nil
}

// Release unlocks the data directory. It is safe to call more than once.
func (l *dataDirLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock data directory: %w", err)
	}
	return nil
}
