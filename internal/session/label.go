package session

import (
	"time"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

const (
	// ConnectivityErrorText replaces the label while the server is unreachable.
	ConnectivityErrorText = "Cannot connect to alarm!"

	labelPrefix = "Waking up in "
	clockLayout = "15:04"
)

// AlarmTime returns the time currently held by the picker.
func (s *Session) AlarmTime() alarm.Time {
	hour, minute := s.picker.HourMinute()

	return alarm.Time{Hour: hour, Minute: minute}
}

// WakeupMoment returns the next occurrence of the picked time after now.
func (s *Session) WakeupMoment(now time.Time) time.Time {
	return s.AlarmTime().Next(now)
}

// LabelText renders the label for the given instant.
func (s *Session) LabelText(now time.Time) string {
	if s.lastSyncFailed.Value() {
		return ConnectivityErrorText
	}

	return labelPrefix + alarm.FormatUntil(s.WakeupMoment(now).Sub(now))
}

func (s *Session) refreshLabel() {
	s.renderer.SetText(TargetLabel, s.LabelText(s.clock.Now()))
}
