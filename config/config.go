// ABOUTME: Runtime configuration for the kinship store, cascade engine, and logging
// ABOUTME: Loaded from an optional YAML file and KINSHIP_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Cascade CascadeConfig `yaml:"cascade"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects the document store backend. An empty Path means the
// XDG data directory.
type StoreConfig struct {
	Backend string `yaml:"backend" env:"KINSHIP_STORE_BACKEND" env-default:"badger"`
	Path    string `yaml:"path"    env:"KINSHIP_STORE_PATH"`
}

// CascadeConfig bounds a single cascading delete.
type CascadeConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"KINSHIP_CASCADE_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"KINSHIP_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"KINSHIP_LOG_FORMAT" env-default:"text"`
}

// MetricsConfig holds the prometheus namespace.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" env:"KINSHIP_METRICS_NAMESPACE" env-default:"kinship"`
}

// Load reads configuration. Priority: ENV > YAML > defaults.
// A .env file in the working directory is loaded first when present. The YAML
// path comes from KINSHIP_CONFIG; without it only ENV and defaults apply.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFile(os.Getenv("KINSHIP_CONFIG"))
}

// LoadFile reads configuration from path (if non-empty) and the environment.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath(cfg.Store.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// DefaultStorePath is the XDG location for a backend's data.
func DefaultStorePath(backend string) string {
	switch backend {
	case BackendSQLite:
		return filepath.Join(xdg.DataHome, "kinship", "kinship.db")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(xdg.DataHome, "kinship", "badger")
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendBadger, BackendSQLite, BackendMemory}, c.Store.Backend) {
		return fmt.Errorf("store.backend must be one of badger, sqlite, memory; got %q", c.Store.Backend)
	}
	if c.Cascade.Timeout <= 0 {
		return fmt.Errorf("cascade.timeout must be positive; got %s", c.Cascade.Timeout)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	if !slices.Contains([]string{"text", "json", "logfmt"}, c.Log.Format) {
		return fmt.Errorf("log.format must be one of text, json, logfmt; got %q", c.Log.Format)
	}
	return nil
}
