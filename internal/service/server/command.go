package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/oshokin/alarm-clock/internal/api/http/alarm"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	repository "github.com/oshokin/alarm-clock/internal/repository/state"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options controls the alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP server.
	ListenAddress string
	// StateFile overrides the state location from settings.
	StateFile string
	// StateBackend overrides the state backend from settings.
	StateBackend string
	// WatchStateFile reloads the state when the JSON state file changes on disk.
	WatchStateFile bool
	// LogLevel overrides log_level from settings.
	LogLevel string
}

// ServeOptions configures Serve.
type ServeOptions struct {
	// Repository persists the alarm state.
	Repository repository.Repository
	// WatchPath, when set, is watched for external edits of the state.
	WatchPath string
	// Secret is the shared value every request must carry.
	Secret int64
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the HTTP server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.ApplyLevel(cmp.Or(opts.LogLevel, settings.LogLevel)); err != nil {
		return err
	}

	if opts.StateBackend != "" && opts.StateBackend != settings.StateBackend {
		// The configured location belongs to the other backend.
		settings.StateBackend = opts.StateBackend
		settings.StateFile = ""
	}

	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}

	if err = config.Validate(settings); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	repo, closeRepo, err := repository.Open(ctx, settings.StateBackend, settings.StateFile)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}

	defer func() {
		if closeErr := closeRepo(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close state", "error", closeErr)
		}
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	logger.InfoKV(ctx, "Alarm server listening",
		"listen_address", lis.Addr().String(),
		"state_backend", settings.StateBackend,
		"state_file", settings.StateFile,
	)

	serveOpts := &ServeOptions{
		Repository: repo,
		Secret:     settings.Secret,
	}

	if opts.WatchStateFile && settings.StateBackend == config.BackendFile {
		serveOpts.WatchPath = settings.StateFile
	}

	return Serve(ctx, lis, serveOpts)
}

// Serve runs the HTTP API on lis until ctx is canceled. It owns lis.
func Serve(ctx context.Context, lis net.Listener, opts *ServeOptions) error {
	hub := api.NewHub()

	svc, err := newService(ctx, opts.Repository, hub.Publish)
	if err != nil {
		_ = lis.Close()
		return fmt.Errorf("initialise service: %w", err)
	}

	httpServer := &http.Server{
		Handler:           api.NewServer(svc, hub, opts.Secret).Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info(ctx, "Shutting down HTTP server")

		// Hijacked websocket connections are not tracked by Shutdown.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}

		return nil
	})

	if opts.WatchPath != "" {
		g.Go(func() error {
			return repository.Watch(gctx, opts.WatchPath, repository.DefaultWatchDebounce, func() {
				if err := svc.Reload(gctx); err != nil {
					logger.WarnKV(gctx, "Failed to reload state", "error", err)
				}
			})
		})
	}

	err = g.Wait()

	logger.Info(ctx, "HTTP server stopped")

	return err
}

// resolveListenAddress determines the listen address for the HTTP server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
