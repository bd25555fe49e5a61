// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidConfig is returned when a configuration fails validation or cannot be loaded.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings of the graphsearch command.
type Config struct {
	// DBPath is the directory of the embedded graph store.
	// A leading "~/" is expanded to the user's home directory.
	DBPath string `toml:"db"`

	// Limit is the default maximum number of results shown.
	// Default: 20
	Limit int `toml:"limit"`

	// Format is the output format, "text" or "json".
	Format string `toml:"format"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`

	// PoolSize is the number of pages imported concurrently.
	// Zero selects a size from the number of CPUs.
	PoolSize int `toml:"pool_size"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDBPath sets the store directory.
func WithDBPath(path string) ConfigOption {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithLimit sets the default result limit.
func WithLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.Limit = limit
	}
}

// WithFormat sets the output format.
func WithFormat(format string) ConfigOption {
	return func(c *Config) {
		c.Format = format
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithPoolSize sets the import worker pool size.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// DefaultDir is the directory holding the default store and config file.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".graphsearch"
	}
	return filepath.Join(home, ".graphsearch")
}

// DefaultConfigPath is the config file read when none is given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:   filepath.Join(DefaultDir(), "db"),
		Limit:    20,
		Format:   FormatText,
		LogLevel: "warn",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithDBPath("/var/lib/graphsearch"),
//	    WithFormat(FormatJSON),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, strict.String())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Normalize ensures the configuration is in a canonical form.
func (c *Config) Normalize() {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if rest, ok := strings.CutPrefix(c.DBPath, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			c.DBPath = filepath.Join(home, rest)
		}
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is required", ErrInvalidConfig)
	}
	if c.Limit < 1 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("%w: format must be %q or %q", ErrInvalidConfig, FormatText, FormatJSON)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("%w: pool size cannot be negative", ErrInvalidConfig)
	}
	return nil
}
