package cli

import (
	"errors"
	"os"

	"github.com/opencode-ai/querycat/internal/db"
	"github.com/opencode-ai/querycat/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(browseCmd)
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Long:  "Launch the terminal catalog browser.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !hasTTY() {
			return errors.New("browse requires an interactive terminal; use list, show or resolve instead")
		}

		cfg := GetConfig()
		resolver, err := newResolver()
		if err != nil {
			return err
		}

		tuiConfig := tui.Config{
			Resolver: resolver,
			Theme:    cfg.TUI.Theme,
		}
		if cfg.History.Enabled {
			database, err := openDatabase(commandContext(cmd))
			if err != nil {
				return err
			}
			defer database.Close()
			tuiConfig.History = db.NewResolutionRepository(database)
		}

		return tui.Run(tuiConfig)
	},
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
