package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 0, cfg.PoolSize)
	assert.Equal(t, filepath.Join(DefaultDir(), "db"), cfg.DBPath)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithDBPath("/tmp/graph"),
		WithLimit(5),
		WithFormat(FormatJSON),
		WithLogLevel("debug"),
		WithPoolSize(3),
	)

	assert.Equal(t, &Config{
		DBPath:   "/tmp/graph",
		Limit:    5,
		Format:   FormatJSON,
		LogLevel: "debug",
		PoolSize: 3,
	}, cfg)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
db = "/data/graph"
limit = 50
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/graph", cfg.DBPath)
	assert.Equal(t, 50, cfg.Limit)
	assert.Equal(t, FormatJSON, cfg.Format)
	// Absent keys keep their defaults
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, `colour = "blue"`))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := Load(writeConfig(t, `limit = "many"`))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Load(writeConfig(t, `limit = `))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr bool
	}{
		{name: "defaults", wantErr: false},
		{name: "upper-case values are normalized", opts: []ConfigOption{WithFormat(" JSON "), WithLogLevel("DEBUG")}, wantErr: false},
		{name: "empty db path", opts: []ConfigOption{WithDBPath("")}, wantErr: true},
		{name: "zero limit", opts: []ConfigOption{WithLimit(0)}, wantErr: true},
		{name: "unknown format", opts: []ConfigOption{WithFormat("xml")}, wantErr: true},
		{name: "unknown log level", opts: []ConfigOption{WithLogLevel("trace")}, wantErr: true},
		{name: "negative pool size", opts: []ConfigOption{WithPoolSize(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalize_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := NewConfig(WithDBPath("~/graphs/work"))
	cfg.Normalize()
	assert.Equal(t, filepath.Join(home, "graphs", "work"), cfg.DBPath)
}
