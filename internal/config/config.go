// Package config provides configuration loading and management for the catalog server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/telemetry"
	"github.com/stacklok/toolhive-catalog-server/internal/validators"
)

// EnvPrefix is the prefix of the environment variables read by the CLI
const EnvPrefix = "THV_CATALOG"

// DefaultDataDir holds the repository checkouts when dataDir is not set:
// $XDG_DATA_HOME/thv-catalog, or the platform equivalent
var DefaultDataDir = filepath.Join(xdg.DataHome, "thv-catalog")

const (
	// DefaultLocale is the metadata locale used when none is configured
	DefaultLocale = "en"

	// DefaultCacheTTL is how long a fetched repository is served from memory
	DefaultCacheTTL = time.Hour

	// DefaultFetchTimeout bounds a whole repository fetch
	DefaultFetchTimeout = 30 * time.Second

	// DefaultCloneTimeout bounds a single clone
	DefaultCloneTimeout = 30 * time.Second

	// DefaultPullTimeout bounds a single pull
	DefaultPullTimeout = 20 * time.Second

	// DefaultSyncInterval is the delay between two background sync passes
	DefaultSyncInterval = 30 * time.Minute
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DataDir is the directory holding the repository checkouts
	// Defaults to DefaultDataDir
	DataDir string `yaml:"dataDir,omitempty"`

	// Locale selects metadata.<locale>.yml files when present
	Locale string `yaml:"locale,omitempty"`

	// DefaultLocale is tried when no file exists for Locale
	DefaultLocale string `yaml:"defaultLocale,omitempty"`

	// Sources are the repositories making up the catalog
	Sources []SourceConfig `yaml:"sources"`

	Cache     *CacheConfig      `yaml:"cache,omitempty"`
	Sync      *SyncConfig       `yaml:"sync,omitempty"`
	Filter    *FilterConfig     `yaml:"filter,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// SourceConfig is a configured repository source
type SourceConfig struct {
	// URL is the git repository URL (HTTPS, SSH or git protocol)
	URL string `yaml:"url"`

	// Name is an optional display name of at most 20 characters
	Name string `yaml:"name,omitempty"`

	// Enabled defaults to true when omitted
	Enabled *bool `yaml:"enabled,omitempty"`
}

// CacheConfig defines the repository cache settings. Durations use Go
// duration syntax, e.g. "30s" or "1h".
type CacheConfig struct {
	TTL          string `yaml:"ttl,omitempty"`
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`
	CloneTimeout string `yaml:"cloneTimeout,omitempty"`
	PullTimeout  string `yaml:"pullTimeout,omitempty"`
}

// SyncConfig defines the background sync settings
type SyncConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// FilterConfig defines filtering rules for catalog items
type FilterConfig struct {
	Names *NameFilterConfig `yaml:"names,omitempty"`
	Tags  *TagFilterConfig  `yaml:"tags,omitempty"`
}

// NameFilterConfig defines name-based filtering
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// TagFilterConfig defines tag-based filtering
type TagFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// LoadConfig loads, parses and validates configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	data, err := readConfigFile(opts...)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadUnvalidatedConfig loads and parses configuration without validating
// it, for callers reporting validation problems themselves
func LoadUnvalidatedConfig(opts ...Option) (*Config, error) {
	data, err := readConfigFile(opts...)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func readConfigFile(opts ...Option) ([]byte, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Parse decodes and validates a YAML configuration document
func Parse(data []byte) (*Config, error) {
	config, err := decode(data)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func decode(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return &config, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	for _, verr := range validators.ValidateSources(c.CatalogSources()) {
		errs = append(errs, verr)
	}

	if c.Cache != nil {
		durations := []struct{ field, value string }{
			{"cache.ttl", c.Cache.TTL},
			{"cache.fetchTimeout", c.Cache.FetchTimeout},
			{"cache.cloneTimeout", c.Cache.CloneTimeout},
			{"cache.pullTimeout", c.Cache.PullTimeout},
		}
		for _, d := range durations {
			if err := validateDuration(d.field, d.value); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if c.Sync != nil {
		if err := validateDuration("sync.interval", c.Sync.Interval); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '1h'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}

// CatalogSources returns the configured sources in file order
func (c *Config) CatalogSources() []catalog.Source {
	out := make([]catalog.Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		enabled := true
		if src.Enabled != nil {
			enabled = *src.Enabled
		}
		out = append(out, catalog.Source{
			URL:     strings.TrimSpace(src.URL),
			Name:    strings.TrimSpace(src.Name),
			Enabled: enabled,
		})
	}
	return out
}

// GetDataDir returns the data directory, using DefaultDataDir if not specified
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir
	}
	return c.DataDir
}

// GetLocale returns the metadata locale
func (c *Config) GetLocale() string {
	if c.Locale == "" {
		return c.GetDefaultLocale()
	}
	return c.Locale
}

// GetDefaultLocale returns the fallback metadata locale
func (c *Config) GetDefaultLocale() string {
	if c.DefaultLocale == "" {
		return DefaultLocale
	}
	return c.DefaultLocale
}

// GetTTL returns the cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	if c == nil {
		return DefaultCacheTTL
	}
	return durationOr(c.TTL, DefaultCacheTTL)
}

// GetFetchTimeout returns the timeout of a whole repository fetch
func (c *CacheConfig) GetFetchTimeout() time.Duration {
	if c == nil {
		return DefaultFetchTimeout
	}
	return durationOr(c.FetchTimeout, DefaultFetchTimeout)
}

// GetCloneTimeout returns the timeout of a single clone
func (c *CacheConfig) GetCloneTimeout() time.Duration {
	if c == nil {
		return DefaultCloneTimeout
	}
	return durationOr(c.CloneTimeout, DefaultCloneTimeout)
}

// GetPullTimeout returns the timeout of a single pull
func (c *CacheConfig) GetPullTimeout() time.Duration {
	if c == nil {
		return DefaultPullTimeout
	}
	return durationOr(c.PullTimeout, DefaultPullTimeout)
}

// GetInterval returns the background sync interval
func (c *SyncConfig) GetInterval() time.Duration {
	if c == nil {
		return DefaultSyncInterval
	}
	return durationOr(c.Interval, DefaultSyncInterval)
}

// durationOr parses value, returning fallback when it is empty or invalid.
// Validate rejects invalid values before they reach the getters.
func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
