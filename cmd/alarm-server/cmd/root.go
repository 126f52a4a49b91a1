package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/server"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath to the configuration file.
	configPath string
	// stateFile overrides where alarm state is persisted.
	stateFile string
	// stateBackend overrides the persistence backend.
	stateBackend string
	// logLevel is the minimum level written to the console.
	logLevel string
	// watch reloads the JSON state file when it is edited.
	watch bool

	// rootCmd represents the base command for running the HTTP server.
	rootCmd = &cobra.Command{
		Use:   "alarm-server [listen-address]",
		Short: "Run the alarm server holding the canonical alarm state.",
		Long: `Starts the HTTP alarm server that stores the alarm time and its enabled flag.

Clients pull and push the state with POST /get and POST /store, the checker
follows changes on the /events websocket. Only the port from server_addr is used
for listening (e.g., :6000); a listen address argument overrides it.
The state is kept in a JSON file or, with --state-backend=sqlite, in a SQLite database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:     configPath,
				ListenAddress:  listenAddress,
				StateFile:      stateFile,
				StateBackend:   stateBackend,
				WatchStateFile: watch,
				LogLevel:       logLevel,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist alarm state (overrides state_file)")
	rootCmd.Flags().StringVar(&stateBackend, "state-backend", "", "state backend: file or sqlite (overrides state_backend)")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", true, "reload the JSON state file when it changes on disk")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error (overrides log_level)")
}
