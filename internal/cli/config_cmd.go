package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/opencode-ai/querycat/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configInitForce bool

	configDirFunc = config.DefaultConfigDir
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage querycat configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config file",
	Args:  cobra.NoArgs,
	// The file may not exist yet, so it is not loaded.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = filepath.Join(configDirFunc(), "config.yaml")
		}

		out := cmd.OutOrStdout()
		if err := config.WriteTemplate(path, configInitForce); err != nil {
			if errors.Is(err, config.ErrConfigExists) {
				fmt.Fprintf(out, "Config already exists at %s (use --force to overwrite).\n", path)
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		if structuredOutput() {
			return WriteOutput(out, effectiveConfig(cfg))
		}

		data, err := yaml.Marshal(effectiveConfig(cfg))
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = out.Write(data)
		return err
	},
}

// effectiveConfig renders durations as strings so the output can be read back.
func effectiveConfig(cfg *config.Config) map[string]any {
	return map[string]any{
		"catalog": map[string]any{
			"dirs":              cfg.Catalog.Dirs,
			"files":             cfg.Catalog.Files,
			"project_dir":       cfg.Catalog.ProjectDir,
			"include_builtin":   cfg.Catalog.IncludeBuiltin,
			"skip_search_paths": cfg.Catalog.SkipSearchPaths,
		},
		"resolver": map[string]any{
			"offset_unit": cfg.Resolver.OffsetUnit.String(),
			"time_format": cfg.Resolver.TimeFormat,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
		"history": map[string]any{
			"enabled":   cfg.History.Enabled,
			"path":      cfg.History.Path,
			"retention": cfg.History.Retention.String(),
		},
		"server": map[string]any{
			"host":                cfg.Server.Host,
			"port":                cfg.Server.Port,
			"requests_per_second": cfg.Server.RequestsPerSecond,
			"burst_size":          cfg.Server.BurstSize,
		},
		"tui": map[string]any{
			"theme": cfg.TUI.Theme,
		},
	}
}
