package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Catalog.IncludeBuiltin)
	assert.Equal(t, 24*time.Hour, cfg.Resolver.OffsetUnit)
	assert.Equal(t, "default", cfg.TUI.Theme)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `catalog:
  dirs: [/srv/queries]
  include_builtin: false
resolver:
  offset_unit: 1h
logging:
  level: debug
  format: json
server:
  port: 6000
tui:
  theme: high-contrast
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewLoader()
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, loader.ConfigFileUsed())
	assert.Equal(t, []string{"/srv/queries"}, cfg.Catalog.Dirs)
	assert.False(t, cfg.Catalog.IncludeBuiltin)
	assert.Equal(t, time.Hour, cfg.Resolver.OffsetUnit)
	assert.Equal(t, "2006-01-02T15:04:05.000000Z", cfg.Resolver.TimeFormat)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "high-contrast", cfg.TUI.Theme)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	t.Setenv("QUERYCAT_LOGGING_LEVEL", "error")
	t.Setenv("QUERYCAT_SERVER_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("QUERYCAT_TUI_THEME", "high-contrast")

	loader := NewLoader()
	loader.Viper().Set("tui.theme", "default")

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.TUI.Theme)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero offset unit", func(c *Config) { c.Resolver.OffsetUnit = 0 }},
		{"empty time format", func(c *Config) { c.Resolver.TimeFormat = " " }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"history without path", func(c *Config) { c.History.Enabled = true; c.History.Path = "" }},
		{"negative retention", func(c *Config) { c.History.Retention = -time.Hour }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero rate", func(c *Config) { c.Server.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.Server.BurstSize = 0 }},
		{"unknown theme", func(c *Config) { c.TUI.Theme = "neon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  burst_size: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "burst_size")
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", "querycat"), DefaultConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "querycat"), DefaultConfigDir())
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteTemplate(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.Equal(t, 30*24*time.Hour, cfg.History.Retention)

	err = WriteTemplate(path, false)
	assert.True(t, errors.Is(err, ErrConfigExists))

	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, WriteTemplate(path, true))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# querycat Configuration File")
}
