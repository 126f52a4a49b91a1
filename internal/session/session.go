package session

import (
	"context"
	"time"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/reactive"
)

// SyncState gates the number of in-flight sync requests to one.
type SyncState int

const (
	// NotSyncing means a new sync may start.
	NotSyncing SyncState = iota
	// Syncing means a request is in flight.
	Syncing
)

// String returns a readable name for logs.
func (s SyncState) String() string {
	if s == Syncing {
		return "syncing"
	}

	return "not-syncing"
}

// Target names a text slot on the screen.
type Target int

const (
	// TargetLabel is the "time until wakeup" label.
	TargetLabel Target = iota
	// TargetClock is the raw current time display.
	TargetClock
	// TargetButton is the enable/disable button caption.
	TargetButton
)

// Transport sends a JSON body to a server endpoint and returns the response body.
// Any non-2xx status must be reported as an error.
type Transport interface {
	Post(ctx context.Context, endpoint string, body []byte) ([]byte, error)
}

// TimePicker is the widget holding the alarm hour and minute.
type TimePicker interface {
	HourMinute() (hour, minute int)
	SetHourMinute(hour, minute int)
}

// Renderer receives derived screen state. It is driven by observable
// listeners only.
type Renderer interface {
	SetText(target Target, text string)
	SetAnimatedState(enabled bool)
	SetBusy(busy bool)
}

// Dispatcher runs closures on the session's execution context.
type Dispatcher interface {
	Post(fn func())
}

// Clock is the time source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// Session is the state of one active alarm screen.
type Session struct {
	ctx        context.Context
	transport  Transport
	picker     TimePicker
	renderer   Renderer
	dispatcher Dispatcher
	clock      Clock
	secret     int64
	poller     *Poller

	enabled             *reactive.Observable[bool]
	lastSyncFailed      *reactive.Observable[bool]
	hasPerformedGetSync *reactive.Observable[bool]
	syncState           *reactive.Observable[SyncState]

	// dirtyVersion increases on every local edit.
	dirtyVersion int
	// lastSyncedVersion is the newest version the server is known to hold, -1 for none.
	lastSyncedVersion int
	// dirtyingTime is the time of the last local edit.
	dirtyingTime time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSecret sets the shared secret sent with every request.
func WithSecret(secret int64) Option {
	return func(s *Session) {
		s.secret = secret
	}
}

// WithRenderer attaches the screen that displays derived state.
func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

// New builds a session and wires its reactions. Nothing runs until Resume.
func New(ctx context.Context, transport Transport, picker TimePicker, dispatcher Dispatcher, opts ...Option) *Session {
	s := &Session{
		ctx:                 logger.WithName(ctx, "session"),
		transport:           transport,
		picker:              picker,
		renderer:            nopRenderer{},
		dispatcher:          dispatcher,
		clock:               ClockFunc(time.Now),
		secret:              config.DefaultSecret,
		enabled:             reactive.New(false),
		lastSyncFailed:      reactive.New(false),
		hasPerformedGetSync: reactive.New(false),
		syncState:           reactive.New(NotSyncing),
		lastSyncedVersion:   -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.dirtyingTime = s.clock.Now()
	s.poller = NewPoller(dispatcher, TickInterval, s.Refresh)
	s.wire()

	return s
}

// wire registers the reactions between observables and the screen.
func (s *Session) wire() {
	reactive.React(s.refreshLabel, s.enabled, s.lastSyncFailed)

	reactive.ReactChange(func(_, enabled bool) {
		caption := "Start Alarm"
		if enabled {
			caption = "Stop Alarm"
		}

		s.renderer.SetText(TargetButton, caption)
		s.renderer.SetAnimatedState(enabled)
	}, s.enabled)

	reactive.ReactChange(func(_, state SyncState) {
		s.renderer.SetBusy(state == Syncing)
	}, s.syncState)

	// Toggling the alarm is pushed right away instead of waiting for the debounce.
	reactive.React(func() {
		s.Dirty(false)
		s.Sync()
	}, s.enabled)
}

// Snapshot is a read-only copy of the sync bookkeeping.
type Snapshot struct {
	DirtyingTime        time.Time
	DirtyVersion        int
	LastSyncedVersion   int
	SyncState           SyncState
	Enabled             bool
	LastSyncFailed      bool
	HasPerformedGetSync bool
}

// Snapshot returns the current bookkeeping values.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		DirtyingTime:        s.dirtyingTime,
		DirtyVersion:        s.dirtyVersion,
		LastSyncedVersion:   s.lastSyncedVersion,
		SyncState:           s.syncState.Value(),
		Enabled:             s.enabled.Value(),
		LastSyncFailed:      s.lastSyncFailed.Value(),
		HasPerformedGetSync: s.hasPerformedGetSync.Value(),
	}
}

// Enabled reports whether the alarm is armed locally.
func (s *Session) Enabled() bool {
	return s.enabled.Value()
}

// Resume activates the screen: the next sync is a pull, every observable is
// re-primed and the poller starts with an immediate tick.
func (s *Session) Resume() {
	logger.Debug(s.ctx, "Session resumed")

	s.hasPerformedGetSync.Set(false)
	s.syncState.Set(NotSyncing)

	s.lastSyncFailed.Init()
	s.hasPerformedGetSync.Init()
	s.enabled.Init()
	s.syncState.Init()

	s.poller.Start(s.ctx)
	s.Refresh()
}

// Pause stops the poller. A request already in flight still completes.
func (s *Session) Pause() {
	logger.Debug(s.ctx, "Session paused")

	s.poller.Stop()
}

type nopRenderer struct{}

func (nopRenderer) SetText(Target, string) {}
func (nopRenderer) SetAnimatedState(bool)  {}
func (nopRenderer) SetBusy(bool)           {}
