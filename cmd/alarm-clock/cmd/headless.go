package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/client"
)

// serverAddress overrides server_address for the headless commands.
var serverAddress string

var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the alarm held by the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return client.Status(ctx, headlessOptions(cmd))
		},
	}

	onCmd = &cobra.Command{
		Use:   "on [HH:MM]",
		Short: "Arm the alarm, optionally moving it to HH:MM.",
		Long: `Arm the alarm on the server.

Without an argument the alarm time already stored on the server is kept.
The command retries until the server confirms the change or it is interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := headlessOptions(cmd)

			enabled := true
			opts.Enabled = &enabled

			if len(args) > 0 {
				t, err := alarm.ParseTime(args[0])
				if err != nil {
					return err
				}

				opts.Time = &t
			}

			return set(cmd.Context(), opts)
		},
	}

	offCmd = &cobra.Command{
		Use:   "off",
		Short: "Disarm the alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := headlessOptions(cmd)

			enabled := false
			opts.Enabled = &enabled

			return set(cmd.Context(), opts)
		},
	}
)

func set(ctx context.Context, opts *client.Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return client.Set(ctx, opts)
}

func headlessOptions(cmd *cobra.Command) *client.Options {
	return &client.Options{
		Output:        cmd.OutOrStdout(),
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	for _, c := range []*cobra.Command{statusCmd, onCmd, offCmd} {
		c.Flags().StringVarP(&serverAddress, "server", "s", "", "server address (overrides server_address)")
		rootCmd.AddCommand(c)
	}
}
