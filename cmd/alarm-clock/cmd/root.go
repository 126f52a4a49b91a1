package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/clock"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath stores the path to the configuration file.
	configPath string
	// logFile overrides where the screen writes its logs.
	logFile string
	// logLevel is the minimum level written to the log file.
	logLevel string
	// timeout overrides the per-request timeout.
	timeout time.Duration

	// rootCmd represents the alarm screen.
	rootCmd = &cobra.Command{
		Use:   "alarm-clock [server-address]",
		Short: "Set the alarm from the terminal.",
		Long: `Full-screen alarm clock kept in sync with the alarm server.

The screen pulls the alarm from the server when it opens or regains focus and
pushes local edits shortly after you stop typing. Toggling the alarm is pushed
right away. While the server cannot be reached the label says so; edits are
kept and sent once it is back.

Keys: ←/→ select hour or minute, ↑/↓ change it, space toggles the alarm,
s syncs now, q quits. Logs are written to log_file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return clock.Run(ctx, &clock.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				LogFile:       logFile,
				LogLevel:      logLevel,
				Timeout:       timeout,
			})
		},
	}
)

// Execute runs the alarm-clock CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "log file (overrides log_file)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error (overrides log_level)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "request timeout (overrides timeout)")
}
