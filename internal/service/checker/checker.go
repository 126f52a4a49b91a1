package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	api "github.com/oshokin/alarm-clock/internal/api/http/alarm"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

const (
	// DefaultMinBackoff is the first reconnect delay.
	DefaultMinBackoff = 500 * time.Millisecond
	// DefaultMaxBackoff caps the reconnect delay.
	DefaultMaxBackoff = 30 * time.Second
	// DefaultMissedWindow is how late an alarm may still ring, e.g. after a restart.
	DefaultMissedWindow = 5 * time.Minute
)

// Subscriber opens the server event stream.
type Subscriber interface {
	Subscribe(ctx context.Context, secret int64) (*websocket.Conn, error)
}

// Checker follows the event stream and rings at most once per wakeup moment.
type Checker struct {
	subscriber Subscriber
	ringer     Ringer
	now        func() time.Time

	// current is the latest state received from the server.
	current *domain.State
	// lastRung is the wakeup moment that was handled last.
	lastRung time.Time

	secret       int64
	minBackoff   time.Duration
	maxBackoff   time.Duration
	missedWindow time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithBackoff sets the reconnect delay bounds.
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(c *Checker) {
		if minDelay > 0 {
			c.minBackoff = minDelay
		}

		if maxDelay >= c.minBackoff {
			c.maxBackoff = maxDelay
		}
	}
}

// WithMissedWindow sets how late an alarm may ring.
func WithMissedWindow(window time.Duration) Option {
	return func(c *Checker) {
		c.missedWindow = window
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// New creates a checker. A nil ringer only logs.
func New(subscriber Subscriber, ringer Ringer, secret int64, opts ...Option) *Checker {
	if ringer == nil {
		ringer = logRinger{}
	}

	c := &Checker{
		subscriber:   subscriber,
		ringer:       ringer,
		now:          time.Now,
		secret:       secret,
		minBackoff:   DefaultMinBackoff,
		maxBackoff:   DefaultMaxBackoff,
		missedWindow: DefaultMissedWindow,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run keeps a subscription open until ctx is canceled, reconnecting with
// capped exponential backoff. The backoff restarts after every successful connect.
func (c *Checker) Run(ctx context.Context) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		logger.Info(ctx, "Subscribed to alarm events")

		if err = c.follow(ctx, conn); err != nil {
			logger.WarnKV(ctx, "Event stream interrupted", "error", err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Checker) connect(ctx context.Context) (*websocket.Conn, error) {
	backoff := retry.WithCappedDuration(c.maxBackoff, retry.NewExponential(c.minBackoff))

	var conn *websocket.Conn

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error

		conn, err = c.subscriber.Subscribe(ctx, c.secret)
		if err != nil {
			logger.DebugKV(ctx, "Subscribe failed", "error", err)
			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return conn, nil
}

var errStreamClosed = errors.New("event stream closed")

// follow consumes events from conn until it fails or ctx is done.
func (c *Checker) follow(ctx context.Context, conn *websocket.Conn) error {
	defer func() {
		_ = conn.Close()
	}()

	events := make(chan *domain.State)
	errc := make(chan error, 1)

	go func() {
		for {
			var ev api.Event
			if err := conn.ReadJSON(&ev); err != nil {
				errc <- err
				return
			}

			state, err := decodeEvent(ev)
			if err != nil {
				errc <- err
				return
			}

			select {
			case events <- state:
			case <-ctx.Done():
				errc <- errStreamClosed
				return
			}
		}
	}()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	rearm := func(wait time.Duration) {
		if timer != nil {
			timer.Stop()
		}

		timerC = nil

		if wait > 0 {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}
	}

	defer rearm(0)

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))

			return nil
		case err := <-errc:
			return err
		case state := <-events:
			rearm(c.observe(ctx, state))
		case <-timerC:
			rearm(c.schedule(ctx))
		}
	}
}

// observe records a new state and schedules it.
func (c *Checker) observe(ctx context.Context, state *domain.State) time.Duration {
	c.current = state

	logger.InfoKV(ctx, "Alarm state received",
		"enabled", state.Enabled,
		"time", domain.FormatWire(state.WakeupAt),
		"revision", state.Revision,
	)

	return c.schedule(ctx)
}

// schedule rings if the current alarm is already due and returns how long
// to wait for the next check, or 0 when nothing is pending.
func (c *Checker) schedule(ctx context.Context) time.Duration {
	state := c.current
	if state == nil || !state.Enabled || state.WakeupAt.Equal(c.lastRung) {
		return 0
	}

	if wait := state.WakeupAt.Sub(c.now()); wait > 0 {
		return wait
	}

	c.check(ctx)

	return 0
}

// check rings when the current alarm is due and was not handled yet.
func (c *Checker) check(ctx context.Context) {
	now := c.now()
	state := c.current

	if state == nil || !state.Due(now) || state.WakeupAt.Equal(c.lastRung) {
		return
	}

	c.lastRung = state.WakeupAt

	if late := now.Sub(state.WakeupAt); c.missedWindow > 0 && late > c.missedWindow {
		logger.WarnKV(ctx, "Skipping missed alarm", "time", domain.FormatWire(state.WakeupAt), "late", late.String())
		return
	}

	logger.InfoKV(ctx, "Ringing", "time", domain.FormatWire(state.WakeupAt))

	if err := c.ringer.Ring(ctx, state); err != nil {
		logger.ErrorKV(ctx, "Ring failed", "error", err)
	}
}

func decodeEvent(ev api.Event) (*domain.State, error) {
	wakeupAt, err := domain.ParseWire(ev.Time)
	if err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	return &domain.State{
		WakeupAt:  wakeupAt,
		UpdatedAt: ev.UpdatedAt,
		Revision:  ev.Revision,
		Enabled:   ev.Enabled,
	}, nil
}
