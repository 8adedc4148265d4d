// Package config loads treectl settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvDatabase    = "TREEDECIDE_DB"
	EnvTreeService = "TREEDECIDE_TREE_SERVICE"
	EnvLogLevel    = "TREEDECIDE_LOG_LEVEL"
)

var validate = validator.New()

// #region types
// Config holds all treectl settings.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	TreeService TreeServiceConfig `yaml:"tree_service"`
	Logging     LoggingConfig     `yaml:"logging"`
	Replay      ReplayConfig      `yaml:"replay"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// DatabaseConfig locates the SQLite tree store.
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// TreeServiceConfig configures the gRPC tree source.
type TreeServiceConfig struct {
	Address string        `yaml:"address" validate:"omitempty,hostname_port"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	// Listen is the address `treectl tree serve` binds to.
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// ReplayConfig bounds the replay harness.
type ReplayConfig struct {
	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=256"`
}

// MetricsConfig enables the Prometheus textfile. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// #endregion types

// #region defaults
// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "treedecide.db"},
		TreeService: TreeServiceConfig{
			Address: "localhost:50061",
			Timeout: 10 * time.Second,
			Listen:  "localhost:50061",
		},
		Logging: LoggingConfig{Level: "info"},
		Replay:  ReplayConfig{Concurrency: 8},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults, applies environment overrides and validates the
// result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvTreeService); v != "" {
		c.TreeService.Address = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// #endregion load

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
