package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Manager provides thread-safe, read-only configuration management.
// Configuration files are never modified by the application; updates come
// from outside (volume mounts, ConfigMaps, configuration management tools).
// An invalid update is rejected and the last valid configuration stays active.
type Manager interface {
	// GetConfig safely retrieves the current configuration
	GetConfig() *Config

	// ReloadConfig reads the configuration file and applies it if valid
	ReloadConfig() error

	// WatchConfig reloads the configuration whenever the file changes.
	// Blocks until ctx is cancelled.
	WatchConfig(ctx context.Context) error

	// Subscribe returns a channel receiving each applied configuration.
	// Slow subscribers only see the latest one.
	Subscribe() <-chan *Config

	// Close releases the file watcher resources
	Close() error
}

// Loader reads a configuration file
type Loader interface {
	LoadConfig(path string) (*Config, error)
}

// Validator checks a configuration before it is applied
type Validator interface {
	Validate(config *Config) error
}

type fileLoader struct{}

func (fileLoader) LoadConfig(path string) (*Config, error) {
	return LoadConfig(WithConfigPath(path))
}

type defaultValidator struct{}

func (defaultValidator) Validate(config *Config) error {
	return config.Validate()
}

type manager struct {
	mu          sync.RWMutex
	config      *Config
	configPath  string
	loader      Loader
	validator   Validator
	subscribers []chan *Config
	watcher     *fsnotify.Watcher
	watcherMu   sync.Mutex
}

// ManagerOption allows customizing Manager behavior
type ManagerOption func(*manager)

// WithValidator sets a custom validator
func WithValidator(validator Validator) ManagerOption {
	return func(m *manager) {
		m.validator = validator
	}
}

// WithLoader sets a custom config loader
func WithLoader(loader Loader) ManagerOption {
	return func(m *manager) {
		m.loader = loader
	}
}

// NewManager loads and validates the configuration at configPath
func NewManager(configPath string, opts ...ManagerOption) (Manager, error) {
	m := &manager{
		configPath: configPath,
		loader:     fileLoader{},
		validator:  defaultValidator{},
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.ReloadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	return m, nil
}

// GetConfig returns a shallow copy of the active configuration
func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

func (m *manager) ReloadConfig() error {
	newConfig, err := m.loader.LoadConfig(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := m.validator.Validate(newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.mu.Lock()
	m.config = newConfig
	subscribers := m.subscribers
	m.mu.Unlock()

	for _, ch := range subscribers {
		notify(ch, newConfig)
	}

	slog.Info("Configuration reloaded", "path", m.configPath, "sources", len(newConfig.Sources))
	return nil
}

// notify replaces any undelivered configuration in ch with cfg
func notify(ch chan *Config, cfg *Config) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- cfg:
	default:
	}
}

func (m *manager) Subscribe() <-chan *Config {
	ch := make(chan *Config, 1)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

func (m *manager) WatchConfig(ctx context.Context) error {
	m.watcherMu.Lock()
	if m.watcher != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("config watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	m.watcher = watcher
	m.watcherMu.Unlock()

	if err := watcher.Add(m.configPath); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", m.configPath, err)
	}

	slog.Info("Started watching configuration file", "path", m.configPath)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping config file watcher")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				slog.Info("External config update detected, reloading", "path", event.Name)
				if err := m.ReloadConfig(); err != nil {
					slog.Error("Failed to reload config, keeping previous configuration", "error", err)
				}
			}

			// Atomic replacements remove the watched inode
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				slog.Debug("Config file replaced, re-watching", "path", event.Name)
				if err := watcher.Add(m.configPath); err == nil {
					if err := m.ReloadConfig(); err != nil {
						slog.Error("Failed to reload config, keeping previous configuration", "error", err)
					}
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (m *manager) Close() error {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		m.watcher = nil
		slog.Info("Config watcher closed")
	}

	return nil
}
