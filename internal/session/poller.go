package session

import (
	"context"
	"time"

	"github.com/oshokin/alarm-clock/internal/logger"
)

const (
	// TickInterval is the period of the screen refresh and sync check.
	TickInterval = 500 * time.Millisecond
	// DebounceWindow is the quiet period after an edit before a sync may start.
	DebounceWindow = 800 * time.Millisecond
)

// Refresh recomputes the screen and starts a sync when one is due.
// It runs on every poller tick and after every edit.
func (s *Session) Refresh() {
	now := s.clock.Now()

	s.render(now)

	if s.syncDue(now) {
		s.Sync()
	}
}

// render redraws the label and the wall clock.
func (s *Session) render(now time.Time) {
	s.refreshLabel()
	s.renderer.SetText(TargetClock, now.Format(clockLayout))
}

// syncDue reports whether something is unsynced, nothing is in flight and
// the last edit is older than the debounce window.
func (s *Session) syncDue(now time.Time) bool {
	unsynced := s.lastSyncedVersion < s.dirtyVersion || !s.hasPerformedGetSync.Value()

	return unsynced &&
		s.syncState.Value() != Syncing &&
		now.Sub(s.dirtyingTime) > DebounceWindow
}

// Poller posts a tick to a dispatcher at a fixed interval.
// Start and Stop must be called on the dispatcher's execution context.
type Poller struct {
	dispatcher Dispatcher
	tick       func()
	interval   time.Duration

	// generation invalidates ticks posted by a stopped run.
	generation int
	cancel     context.CancelFunc
}

// NewPoller creates a stopped poller.
func NewPoller(dispatcher Dispatcher, interval time.Duration, tick func()) *Poller {
	return &Poller{
		dispatcher: dispatcher,
		tick:       tick,
		interval:   interval,
	}
}

// Start (re)starts the poller with an immediate tick.
func (p *Poller) Start(ctx context.Context) {
	p.Stop()

	ctx, p.cancel = context.WithCancel(ctx)
	generation := p.generation

	logger.DebugKV(ctx, "Poller started", "interval", p.interval.String())

	go p.run(ctx, generation)
}

// Stop halts the poller. Ticks already queued are discarded.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}

	p.cancel()
	p.cancel = nil
	p.generation++
}

// Running reports whether the poller is started.
func (p *Poller) Running() bool {
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, generation int) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	fire := func() {
		p.dispatcher.Post(func() {
			if p.generation == generation {
				p.tick()
			}
		})
	}

	fire()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire()
		}
	}
}
