package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/session"
)

// defaultPushInterval is the delay between attempts to push the desired state.
const defaultPushInterval = 1 * time.Second

// Options configures a headless command.
type Options struct {
	// Output receives the human-readable result.
	Output io.Writer
	// Enabled is the desired armed state; nil keeps the server's value.
	Enabled *bool
	// Time is the desired alarm time; nil keeps the server's value.
	Time *alarm.Time
	// Now is the time source, time.Now when nil.
	Now func() time.Time
	// ConfigPath to the settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// PushInterval overrides defaultPushInterval.
	PushInterval time.Duration
}

// serverState is a decoded get response.
type serverState struct {
	WakeupAt time.Time
	Enabled  bool
}

var errNotConfirmed = errors.New("server did not confirm the change")

// Status prints the alarm state held by the server.
func Status(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-clock")

	client, secret, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	state, err := pull(ctx, client, secret)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(opts.Output, describe(state, now(opts)))

	return err
}

// Set pushes the desired state, retrying until the server confirms it.
func Set(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-clock")

	client, secret, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	interval := opts.PushInterval
	if interval <= 0 {
		interval = defaultPushInterval
	}

	var result *serverState

	err = retry.Do(ctx, retry.NewConstant(interval), func(ctx context.Context) error {
		state, err := push(ctx, client, secret, opts)
		if err != nil {
			logger.ErrorKV(ctx, "Push failed", "error", err)
			return retry.RetryableError(err)
		}

		result = state

		return nil
	})
	if err != nil {
		return fmt.Errorf("set alarm: %w", err)
	}

	logger.Infof(ctx, "Alarm updated: %s", describe(result, now(opts)))

	_, err = fmt.Fprintln(opts.Output, describe(result, now(opts)))

	return err
}

func connect(ctx context.Context, opts *Options) (*common.Client, int64, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, 0, fmt.Errorf("load configuration: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOpts := []common.Option{common.WithCallTimeout(cfg.Timeout)}
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		clientOpts = append(clientOpts, common.WithActor(actor))
	}

	client, err := common.Dial(ctx, serverAddress, clientOpts...)
	if err != nil {
		return nil, 0, fmt.Errorf("dial server: %w", err)
	}

	return client, cfg.Secret, nil
}

// push merges the desired values into the current server state, stores it
// and pulls it again to confirm.
func push(ctx context.Context, client session.Transport, secret int64, opts *Options) (*serverState, error) {
	current, err := pull(ctx, client, secret)
	if err != nil {
		return nil, err
	}

	n := now(opts)

	enabled := current.Enabled
	if opts.Enabled != nil {
		enabled = *opts.Enabled
	}

	wakeupAt := current.WakeupAt
	if opts.Time != nil {
		wakeupAt = opts.Time.Next(n)
	} else if wakeupAt.Before(n) {
		// Keep the time of day, move it to the next occurrence.
		wakeupAt = alarm.TimeOf(wakeupAt.In(n.Location())).Next(n)
	}

	body, err := json.Marshal(session.Request{
		Enabled: &enabled,
		Time:    alarm.FormatWire(wakeupAt),
		Secret:  secret,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrSerialization, err)
	}

	response, err := client.Post(ctx, session.EndpointStore, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrTransport, err)
	}

	if _, err = decode(response); err != nil {
		return nil, err
	}

	// Read it back; the store echo alone does not prove the server kept it.
	confirmed, err := pull(ctx, client, secret)
	if err != nil {
		return nil, err
	}

	if confirmed.Enabled != enabled || !confirmed.WakeupAt.Equal(wakeupAt.UTC().Truncate(time.Millisecond)) {
		return nil, errNotConfirmed
	}

	return confirmed, nil
}

func pull(ctx context.Context, client session.Transport, secret int64) (*serverState, error) {
	body, err := json.Marshal(session.Request{Secret: secret})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrSerialization, err)
	}

	response, err := client.Post(ctx, session.EndpointGet, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrTransport, err)
	}

	return decode(response)
}

func decode(body []byte) (*serverState, error) {
	var response session.Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrProtocol, err)
	}

	if response.Enabled == nil || response.Time == nil {
		return nil, fmt.Errorf("%w: missing enabled or time", session.ErrProtocol)
	}

	wakeupAt, err := alarm.ParseWire(*response.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrProtocol, err)
	}

	return &serverState{WakeupAt: wakeupAt, Enabled: *response.Enabled}, nil
}

// describe renders the state the way the screen label does.
func describe(state *serverState, now time.Time) string {
	local := state.WakeupAt.In(now.Location())
	at := alarm.TimeOf(local)

	if !state.Enabled {
		return fmt.Sprintf("Alarm %s is off", at)
	}

	return fmt.Sprintf("Alarm %s is on, waking up in %s", at, alarm.FormatUntil(at.Next(now).Sub(now)))
}

func now(opts *Options) time.Time {
	if opts.Now != nil {
		return opts.Now()
	}

	return time.Now()
}
