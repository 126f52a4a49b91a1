package session

import (
	"time"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// immediateAge is how far in the past an immediate edit is stamped, so the
// debounce window is already over.
const immediateAge = 1000 * 24 * time.Hour

// Dirty records a local edit and refreshes the screen. An immediate edit
// skips the debounce window. It never starts a sync; the next poller tick does.
func (s *Session) Dirty(immediate bool) {
	s.dirtyVersion++

	now := s.clock.Now()
	if immediate {
		s.dirtyingTime = now.Add(-immediateAge)
	} else {
		s.dirtyingTime = now
	}

	logger.DebugKV(s.ctx, "Dirtying", "version", s.dirtyVersion, "immediate", immediate)

	s.render(now)
}

// SetAlarmTime applies a user edit of the alarm time.
func (s *Session) SetAlarmTime(t alarm.Time) {
	s.picker.SetHourMinute(t.Hour, t.Minute)
	s.TimeChanged()
}

// TimeChanged must be called after the picker was edited by the user.
func (s *Session) TimeChanged() {
	s.Dirty(false)
}

// SetEnabled arms or disarms the alarm locally.
func (s *Session) SetEnabled(enabled bool) {
	s.enabled.Set(enabled)
}

// ToggleEnabled flips the armed state.
func (s *Session) ToggleEnabled() {
	s.enabled.Set(!s.enabled.Value())
}

// ForceSync marks the state dirty so the next check syncs without waiting.
func (s *Session) ForceSync() {
	s.Dirty(true)
}
