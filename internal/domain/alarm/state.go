package alarm

import "time"

// State is the canonical alarm record held by the server.
type State struct {
	// WakeupAt is the absolute wakeup moment in UTC.
	WakeupAt time.Time
	// UpdatedAt is when the state was last stored.
	UpdatedAt time.Time
	// UpdatedBy identifies who stored the state, "username@hostname" when known.
	UpdatedBy string
	// Revision increases on every accepted store.
	Revision int64
	// Enabled indicates whether the alarm is armed.
	Enabled bool
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// Due reports whether an enabled alarm has reached its wakeup moment.
func (s *State) Due(now time.Time) bool {
	return s != nil && s.Enabled && !s.WakeupAt.IsZero() && !now.Before(s.WakeupAt)
}
