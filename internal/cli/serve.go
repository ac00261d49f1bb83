package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/opencode-ai/querycat/internal/catalogd"
	"github.com/opencode-ai/querycat/internal/db"
	"github.com/opencode-ai/querycat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (default: server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default: server.port)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog gRPC service",
	Long: `Serve the catalog over gRPC (querycat.v1.CatalogService).

Clients can list and describe templates and resolve them remotely. With history.enabled,
Resolve requests that set "record" are stored in the history database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := GetConfig()
		resolver, err := newResolver()
		if err != nil {
			return err
		}

		opts := catalogd.Options{
			Hostname: serveHost,
			Port:     servePort,
			Version:  Version,
		}
		if cfg.History.Enabled {
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()
			opts.History = db.NewResolutionRepository(database)
		}

		daemon, err := catalogd.New(cfg, resolver, logging.Component("catalogd"), opts)
		if err != nil {
			return err
		}

		logger := cliLogger()
		logger.Debug().Bool("history", cfg.History.Enabled).Msg("starting catalog service")
		return daemon.Run(ctx)
	},
}
