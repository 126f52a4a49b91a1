package checker

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
)

// Options controls the checker behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings file.
	ConfigPath string
	// ServerAddress provides an optional server address override.
	ServerAddress string
	// Timeout overrides the handshake timeout from settings.
	Timeout time.Duration
	// Debug only logs when the alarm is due instead of running the ring command.
	Debug bool
	// LogLevel overrides log_level from settings.
	LogLevel string
}

// Run follows the alarm state and rings when it is due.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-checker")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = logger.ApplyLevel(cmp.Or(opts.LogLevel, cfg.LogLevel)); err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	timeout := cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	clientOpts := []common.Option{common.WithCallTimeout(timeout)}

	// Identity is informational only.
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		clientOpts = append(clientOpts, common.WithActor(actor))
	} else {
		logger.WarnKV(ctx, "Failed to detect actor", "error", actorErr)
	}

	client, err := common.Dial(ctx, serverAddress, clientOpts...)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	var ringer Ringer

	switch {
	case opts.Debug:
		logger.Info(ctx, "Debug mode, the ring command is not run")
	case len(cfg.RingCommand) > 0:
		if ringer, err = NewCommandRinger(cfg.RingCommand); err != nil {
			return fmt.Errorf("ring command: %w", err)
		}
	default:
		logger.Warn(ctx, "No ring_command configured, alarms are only logged")
	}

	logger.InfoKV(ctx, "Watching alarm state", "server_address", serverAddress)

	return New(client, ringer, cfg.Secret).Run(ctx)
}
