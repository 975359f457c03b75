package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourcesYAML(names ...string) string {
	out := "sources:\n"
	for _, name := range names {
		out += fmt.Sprintf("  - url: https://github.com/org/%s\n    name: %s\n", name, name)
	}
	return out
}

type loaderFunc func(path string) (*Config, error)

func (f loaderFunc) LoadConfig(path string) (*Config, error) {
	return f(path)
}

type validatorFunc func(config *Config) error

func (f validatorFunc) Validate(config *Config) error {
	return f(config)
}

func TestNewManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr string
	}{
		{
			name: "valid_config",
			setup: func(t *testing.T) string {
				return writeConfig(t, sourcesYAML("alpha"))
			},
		},
		{
			name: "invalid_config",
			setup: func(t *testing.T) string {
				return writeConfig(t, "sources:\n  - url: not a url\n")
			},
			wantErr: "invalid configuration",
		},
		{
			name: "nonexistent_config",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nonexistent.yaml")
			},
			wantErr: "failed to load initial configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := NewManager(tt.setup(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, m.GetConfig().Sources, 1)
		})
	}
}

func TestManager_GetConfigReturnsCopy(t *testing.T) {
	t.Parallel()

	m, err := NewManager(writeConfig(t, sourcesYAML("alpha")))
	require.NoError(t, err)

	cfg := m.GetConfig()
	cfg.DataDir = "/elsewhere"
	assert.Empty(t, m.GetConfig().DataDir)
}

func TestManager_ReloadConfig(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, sourcesYAML("alpha"))
	m, err := NewManager(configPath)
	require.NoError(t, err)

	updates := m.Subscribe()

	require.NoError(t, os.WriteFile(configPath, []byte(sourcesYAML("alpha", "beta")), 0600))
	require.NoError(t, m.ReloadConfig())
	assert.Len(t, m.GetConfig().Sources, 2)

	select {
	case cfg := <-updates:
		assert.Len(t, cfg.Sources, 2)
	default:
		t.Fatal("subscriber was not notified")
	}

	// Invalid updates keep the previous configuration
	require.NoError(t, os.WriteFile(configPath, []byte("sources: [oops"), 0600))
	require.Error(t, m.ReloadConfig())
	assert.Len(t, m.GetConfig().Sources, 2)
	assert.Empty(t, updates)
}

func TestManager_SubscribersSeeLatestOnly(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, sourcesYAML("alpha"))
	m, err := NewManager(configPath)
	require.NoError(t, err)

	updates := m.Subscribe()
	require.NoError(t, m.ReloadConfig())
	require.NoError(t, os.WriteFile(configPath, []byte(sourcesYAML("alpha", "beta", "gamma")), 0600))
	require.NoError(t, m.ReloadConfig())

	require.Len(t, updates, 1)
	assert.Len(t, (<-updates).Sources, 3)
}

func TestManager_ConcurrentReads(t *testing.T) {
	t.Parallel()

	m, err := NewManager(writeConfig(t, sourcesYAML("alpha")))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NotNil(t, m.GetConfig())
			}
		}()
	}
	for range 5 {
		require.NoError(t, m.ReloadConfig())
	}
	wg.Wait()
}

func TestManager_CustomLoaderAndValidator(t *testing.T) {
	t.Parallel()

	loaded := &Config{DataDir: "/custom"}
	m, err := NewManager("ignored.yaml", WithLoader(loaderFunc(func(path string) (*Config, error) {
		assert.Equal(t, "ignored.yaml", path)
		return loaded, nil
	})))
	require.NoError(t, err)
	assert.Equal(t, "/custom", m.GetConfig().DataDir)

	_, err = NewManager(writeConfig(t, sourcesYAML("alpha")), WithValidator(validatorFunc(func(*Config) error {
		return errors.New("custom validation error")
	})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom validation error")
}

func TestManager_WatchConfig(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, sourcesYAML("alpha"))
	m, err := NewManager(configPath)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, m.Close())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- m.WatchConfig(ctx)
	}()

	// Rewrite until the watcher has been registered and picked the change up
	require.Eventually(t, func() bool {
		_ = os.WriteFile(configPath, []byte(sourcesYAML("alpha", "beta")), 0600)
		return len(m.GetConfig().Sources) == 2
	}, 5*time.Second, 50*time.Millisecond)

	// Invalid content does not replace the active configuration
	require.NoError(t, os.WriteFile(configPath, []byte("sources: [oops"), 0600))
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, m.GetConfig().Sources, 2)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(configPath, []byte(sourcesYAML("gamma")), 0600)
		cfg := m.GetConfig()
		return len(cfg.Sources) == 1 && cfg.Sources[0].Name == "gamma"
	}, 5*time.Second, 50*time.Millisecond)

	err = m.WatchConfig(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	cancel()
	select {
	case err := <-watchErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchConfig did not stop after context cancellation")
	}
}
