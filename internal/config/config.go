// Package config loads querycat configuration from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. QUERYCAT_LOGGING_LEVEL.
const EnvPrefix = "QUERYCAT"

// Config is the full querycat configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	History  HistoryConfig  `mapstructure:"history"`
	Server   ServerConfig   `mapstructure:"server"`
	TUI      TUIConfig      `mapstructure:"tui"`
}

// CatalogConfig selects the query files that make up the catalog.
type CatalogConfig struct {
	Dirs            []string `mapstructure:"dirs"`
	Files           []string `mapstructure:"files"`
	ProjectDir      string   `mapstructure:"project_dir"`
	IncludeBuiltin  bool     `mapstructure:"include_builtin"`
	SkipSearchPaths bool     `mapstructure:"skip_search_paths"`
}

// ResolverConfig controls datetime handling during resolution.
type ResolverConfig struct {
	OffsetUnit time.Duration `mapstructure:"offset_unit"`
	TimeFormat string        `mapstructure:"time_format"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HistoryConfig controls recording of resolved queries.
type HistoryConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

// ServerConfig controls the catalog gRPC service.
type ServerConfig struct {
	Host              string  `mapstructure:"host"`
	Port              int     `mapstructure:"port"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// TUIConfig controls the catalog browser.
type TUIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			IncludeBuiltin: true,
		},
		Resolver: ResolverConfig{
			OffsetUnit: 24 * time.Hour,
			TimeFormat: "2006-01-02T15:04:05.000000Z",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		History: HistoryConfig{
			Enabled:   false,
			Path:      filepath.Join(DefaultDataDir(), "history.db"),
			Retention: 30 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              50061,
			RequestsPerSecond: 50,
			BurstSize:         100,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/querycat or ~/.config/querycat.
func DefaultConfigDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "querycat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".querycat")
	}
	return filepath.Join(home, ".config", "querycat")
}

// DefaultDataDir returns $XDG_DATA_HOME/querycat or ~/.local/share/querycat.
func DefaultDataDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "querycat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".querycat")
	}
	return filepath.Join(home, ".local", "share", "querycat")
}

// Loader layers defaults, a config file, QUERYCAT_* environment variables and bound
// flags, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults registered.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Viper exposes the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads the config file at path, or config.yaml in DefaultConfigDir when path is
// empty. A missing default file is not an error; a missing explicit file is.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.AddConfigPath(DefaultConfigDir())
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load is a convenience wrapper for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Resolver.OffsetUnit <= 0 {
		errs = append(errs, fmt.Errorf("resolver.offset_unit must be positive, got %s", c.Resolver.OffsetUnit))
	}
	if strings.TrimSpace(c.Resolver.TimeFormat) == "" {
		errs = append(errs, errors.New("resolver.time_format is required"))
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		errs = append(errs, errors.New("history.path is required when history is enabled"))
	}
	if c.History.Retention < 0 {
		errs = append(errs, errors.New("history.retention must not be negative"))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("server.requests_per_second must be positive"))
	}
	if c.Server.BurstSize <= 0 {
		errs = append(errs, errors.New("server.burst_size must be positive"))
	}

	switch c.TUI.Theme {
	case "", "default", "high-contrast":
	default:
		errs = append(errs, fmt.Errorf("tui.theme %q is unknown", c.TUI.Theme))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("catalog.dirs", cfg.Catalog.Dirs)
	v.SetDefault("catalog.files", cfg.Catalog.Files)
	v.SetDefault("catalog.project_dir", cfg.Catalog.ProjectDir)
	v.SetDefault("catalog.include_builtin", cfg.Catalog.IncludeBuiltin)
	v.SetDefault("catalog.skip_search_paths", cfg.Catalog.SkipSearchPaths)

	v.SetDefault("resolver.offset_unit", cfg.Resolver.OffsetUnit)
	v.SetDefault("resolver.time_format", cfg.Resolver.TimeFormat)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.retention", cfg.History.Retention)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.requests_per_second", cfg.Server.RequestsPerSecond)
	v.SetDefault("server.burst_size", cfg.Server.BurstSize)

	v.SetDefault("tui.theme", cfg.TUI.Theme)
}
