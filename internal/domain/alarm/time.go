package alarm

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime is returned for an hour or minute out of range, or an
// unparsable wire datetime.
var ErrInvalidTime = errors.New("invalid alarm time")

// Time is the wall-clock hour and minute the alarm is set to.
type Time struct {
	Hour   int
	Minute int
}

// NewTime validates the components and returns a Time.
func NewTime(hour, minute int) (Time, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Time{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}

	return Time{Hour: hour, Minute: minute}, nil
}

// ParseTime parses "H:MM" or "HH:MM".
func ParseTime(s string) (Time, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	return TimeOf(parsed), nil
}

// TimeOf returns the hour and minute of t in its own location.
func TimeOf(t time.Time) Time {
	return Time{Hour: t.Hour(), Minute: t.Minute()}
}

// String renders the time as HH:MM.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Add shifts the time by the given number of minutes, wrapping around midnight.
func (t Time) Add(minutes int) Time {
	const day = 24 * 60

	total := ((t.Hour*60+t.Minute+minutes)%day + day) % day

	return Time{Hour: total / 60, Minute: total % 60}
}

// Next returns the next occurrence of t relative to now, in now's location.
// Seconds and sub-seconds of now are kept, so the distance is whole minutes.
// A moment equal to now is not rolled over.
func (t Time) Next(now time.Time) time.Time {
	moment := time.Date(
		now.Year(), now.Month(), now.Day(),
		t.Hour, t.Minute, now.Second(), now.Nanosecond(),
		now.Location(),
	)

	if moment.Before(now) {
		return moment.AddDate(0, 0, 1)
	}

	return moment
}
