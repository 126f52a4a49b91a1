package clock

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/session"
)

// Options controls the alarm-clock process.
type Options struct {
	// ConfigPath specifies the path to the settings file.
	ConfigPath string
	// ServerAddress provides an optional server address override.
	ServerAddress string
	// LogFile overrides the log destination from settings.
	LogFile string
	// Timeout overrides the per-request timeout from settings.
	Timeout time.Duration
	// LogLevel overrides log_level from settings.
	LogLevel string
}

// Run shows the alarm screen until the user quits or ctx is canceled.
// Logs go to a file since the terminal is taken by the screen.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = logger.ApplyLevel(cmp.Or(opts.LogLevel, cfg.LogLevel)); err != nil {
		return err
	}

	if opts.ServerAddress != "" {
		cfg.ServerAddress = opts.ServerAddress
	}

	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}

	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = config.DefaultLogFilename
	}

	fileLogger, closeLog, err := logger.NewFile(logFile, logger.Level())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	defer func() {
		_ = closeLog()
	}()

	previous := logger.Logger()
	logger.SetLogger(fileLogger)

	defer logger.SetLogger(previous)
	ctx = logger.WithName(logger.ToContext(ctx, fileLogger), "alarm-clock")

	clientOpts := []common.Option{common.WithCallTimeout(cfg.Timeout)}
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		clientOpts = append(clientOpts, common.WithActor(actor))
	}

	client, err := common.Dial(ctx, cfg.ServerAddress, clientOpts...)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	model := NewModel()
	sess := session.New(ctx, client, model, model.Dispatcher(),
		session.WithSecret(cfg.Secret),
		session.WithRenderer(model),
	)
	model.Bind(sess)

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	model.Dispatcher().Attach(dispatchCtx, program)

	logger.InfoKV(ctx, "Alarm screen started", "server_address", cfg.ServerAddress)

	_, err = program.Run()

	// The event loop is gone; nothing else touches the session now.
	sess.Pause()

	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("run screen: %w", err)
	}

	logger.Info(ctx, "Alarm screen closed")

	return nil
}
