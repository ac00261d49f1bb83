// Package cli implements the querycat command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/opencode-ai/querycat/internal/config"
	"github.com/opencode-ai/querycat/internal/db"
	"github.com/opencode-ai/querycat/internal/logging"
	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile      string
	jsonOutput   bool
	jsonlOutput  bool
	logLevel     string
	projectDir   string
	catalogDirs  []string
	catalogFiles []string
	noBuiltin    bool
	noSearchPath bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "querycat",
	Short:         "Catalog and resolve parameterized security alert queries",
	Long:          "querycat loads query templates from YAML query files and resolves them into runnable queries.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig()
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/querycat/config.yaml)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&projectDir, "project-dir", "", "project directory whose .querycat/queries takes precedence")
	flags.StringArrayVar(&catalogDirs, "catalog-dir", nil, "additional query file directory (repeatable)")
	flags.StringArrayVar(&catalogFiles, "query-file", nil, "additional query file (repeatable)")
	flags.BoolVar(&noBuiltin, "no-builtin", false, "do not load the builtin query files")
	flags.BoolVar(&noSearchPath, "no-search-paths", false, "do not search the default query directories")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initConfig() error {
	loader := config.NewLoader()
	v := loader.Viper()
	flags := rootCmd.PersistentFlags()
	if err := v.BindPFlag("logging.level", flags.Lookup("log-level")); err != nil {
		return err
	}
	if err := v.BindPFlag("catalog.project_dir", flags.Lookup("project-dir")); err != nil {
		return err
	}

	cfg, err := loader.Load(cfgFile)
	if err != nil {
		return err
	}

	cfg.Catalog.Files = append(append([]string{}, catalogFiles...), cfg.Catalog.Files...)
	cfg.Catalog.Dirs = append(append([]string{}, catalogDirs...), cfg.Catalog.Dirs...)
	if noBuiltin {
		cfg.Catalog.IncludeBuiltin = false
	}
	if noSearchPath {
		cfg.Catalog.SkipSearchPaths = true
	}

	logger := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug().Str("path", used).Msg("loaded config file")
	}

	appConfig = cfg
	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

func loadCatalog() (*queries.Catalog, error) {
	cfg := GetConfig()
	catalog, err := queries.LoadCatalog(queries.LoadOptions{
		ProjectDir:      cfg.Catalog.ProjectDir,
		Dirs:            cfg.Catalog.Dirs,
		Files:           cfg.Catalog.Files,
		SkipSearchPaths: cfg.Catalog.SkipSearchPaths,
		SkipBuiltin:     !cfg.Catalog.IncludeBuiltin,
	})
	if err != nil {
		return nil, err
	}

	logger := logging.Component("catalog")
	logger.Debug().Int("templates", catalog.Len()).Int("files", len(catalog.Files())).Msg("catalog loaded")
	for _, tmpl := range catalog.Shadowed() {
		logger.Debug().Str("template", tmpl.Name).Str("source", tmpl.Source).Msg("template shadowed")
	}
	return catalog, nil
}

func newResolver() (*queries.Resolver, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	cfg := GetConfig()
	return queries.NewResolver(catalog,
		queries.WithOffsetUnit(cfg.Resolver.OffsetUnit),
		queries.WithTimeFormat(cfg.Resolver.TimeFormat),
		queries.WithLogger(logging.Component("resolver")),
	), nil
}

func openDatabase(ctx context.Context) (*db.DB, error) {
	cfg := GetConfig()
	database, err := db.Open(cfg.History.Path)
	if err != nil {
		return nil, err
	}
	applied, err := database.MigrateUp(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	if applied > 0 {
		logger := logging.Component("db")
		logger.Debug().Int("applied", applied).Str("path", database.Path()).Msg("history migrations applied")
	}
	return database, nil
}

func cliLogger() zerolog.Logger {
	return logging.Component("cli")
}
