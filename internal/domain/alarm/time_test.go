package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewTime validates hour and minute bounds.
func TestNewTime(t *testing.T) {
	t.Parallel()

	got, err := NewTime(23, 59)
	require.NoError(t, err)
	require.Equal(t, "23:59", got.String())

	for _, bad := range [][2]int{{24, 0}, {-1, 0}, {0, 60}, {0, -1}} {
		_, err := NewTime(bad[0], bad[1])
		require.ErrorIs(t, err, ErrInvalidTime)
	}
}

// TestTime_Add wraps around midnight in both directions.
func TestTime_Add(t *testing.T) {
	t.Parallel()

	require.Equal(t, Time{Hour: 0, Minute: 5}, Time{Hour: 23, Minute: 55}.Add(10))
	require.Equal(t, Time{Hour: 23, Minute: 59}, Time{Hour: 0, Minute: 0}.Add(-1))
	require.Equal(t, Time{Hour: 8, Minute: 0}, Time{Hour: 7, Minute: 0}.Add(60))
}

// TestTime_Next checks same-day and next-day rollover.
func TestTime_Next(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 16, 22, 30, 15, 500, time.UTC)

	later := Time{Hour: 23, Minute: 0}.Next(now)
	require.Equal(t, time.Date(2026, 10, 16, 23, 0, 15, 500, time.UTC), later)

	earlier := Time{Hour: 6, Minute: 45}.Next(now)
	require.Equal(t, time.Date(2026, 10, 17, 6, 45, 15, 500, time.UTC), earlier)

	same := Time{Hour: 22, Minute: 30}.Next(now)
	require.Equal(t, now, same)
}

// TestFormatUntil covers the hour clause variants.
func TestFormatUntil(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		5 * time.Minute:                 "5 minutes",
		time.Hour:                       "1 hour and 0 minutes",
		2*time.Hour + 30*time.Minute:    "2 hours and 30 minutes",
		0:                               "0 minutes",
		-time.Minute:                    "0 minutes",
		23*time.Hour + 59*time.Minute:   "23 hours and 59 minutes",
		90*time.Second + 10*time.Minute: "11 minutes",
	}
	for d, want := range cases {
		require.Equal(t, want, FormatUntil(d), d.String())
	}
}

// TestWireFormat checks the wire layout and the accepted parse variants.
func TestWireFormat(t *testing.T) {
	t.Parallel()

	moscow := time.FixedZone("MSK", 3*60*60)
	moment := time.Date(2026, 10, 17, 9, 30, 0, 250_000_000, moscow)

	require.Equal(t, "2026-10-17T06:30:00.250", FormatWire(moment))

	parsed, err := ParseWire("2026-10-17T06:30:00.250")
	require.NoError(t, err)
	require.True(t, moment.Equal(parsed))
	require.Equal(t, time.UTC, parsed.Location())

	parsed, err = ParseWire("2026-10-17T09:30:00+03:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 10, 17, 6, 30, 0, 0, time.UTC), parsed)

	_, err = ParseWire("tomorrow")
	require.ErrorIs(t, err, ErrInvalidTime)
}

// TestStateClone verifies that Clone copies all fields into a new value.
func TestStateClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*State)(nil).Clone())

	s := &State{
		WakeupAt:  time.Date(2026, 10, 17, 6, 30, 0, 0, time.UTC),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedBy: "o.shokin@alarm-box",
		Revision:  3,
		Enabled:   true,
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s, c)
}

// TestStateDue fires only for enabled alarms at or past their moment.
func TestStateDue(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 10, 17, 6, 30, 0, 0, time.UTC)
	s := &State{WakeupAt: at, Enabled: true}

	require.False(t, s.Due(at.Add(-time.Second)))
	require.True(t, s.Due(at))
	require.True(t, s.Due(at.Add(time.Minute)))

	s.Enabled = false
	require.False(t, s.Due(at))
	require.False(t, (*State)(nil).Due(at))
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	got, err := ParseTime("07:05")
	require.NoError(t, err)
	require.Equal(t, Time{Hour: 7, Minute: 5}, got)

	got, err = ParseTime("23:59")
	require.NoError(t, err)
	require.Equal(t, "23:59", got.String())

	for _, bad := range []string{"", "24:00", "7:5", "07:60", "noon"} {
		_, err = ParseTime(bad)
		require.ErrorIs(t, err, ErrInvalidTime, bad)
	}
}
