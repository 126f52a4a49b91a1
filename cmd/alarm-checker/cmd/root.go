package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/checker"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath stores the path to the configuration file.
	configPath string
	// timeout overrides the handshake timeout.
	timeout time.Duration
	// logLevel is the minimum level written to the console.
	logLevel string
	// debug controls whether to skip the ring command.
	debug bool

	// rootCmd represents the base command for watching the alarm.
	rootCmd = &cobra.Command{
		Use:   "alarm-checker [server-address]",
		Short: "Ring when the alarm goes off.",
		Long: `Background service that follows the alarm state and rings at the wakeup moment.

Subscribes to the server's /events websocket and reconnects with exponential
backoff when the connection drops. When an enabled alarm reaches its wakeup
moment, ring_command from the configuration file is run once for that moment.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			checkerOptions := &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Timeout:       timeout,
				LogLevel:      logLevel,
				Debug:         debug,
			}

			return checker.Run(ctx, checkerOptions)
		},
	}
)

// Execute runs the alarm-checker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "handshake timeout (overrides timeout)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error (overrides log_level)")

	// Hidden debug flag to only log alarms.
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "log alarms instead of running ring_command")

	err := rootCmd.Flags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
