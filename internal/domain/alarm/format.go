package alarm

import (
	"fmt"
	"strings"
	"time"
)

// WireLayout is the datetime layout exchanged with the server: UTC with
// millisecond fraction and no zone designator.
const WireLayout = "2006-01-02T15:04:05.000"

// wireParseLayouts are accepted when reading a datetime from the wire.
// Values without a zone designator are taken as UTC.
//
//nolint:gochecknoglobals // Read-only lookup table.
var wireParseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// FormatWire renders t in UTC using WireLayout.
func FormatWire(t time.Time) string {
	return t.UTC().Format(WireLayout)
}

// ParseWire parses a wire datetime and returns it in UTC.
func ParseWire(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range wireParseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// FormatUntil renders a distance as "H hour(s) and M minutes".
// The hour clause is omitted when there are no whole hours; only the hours
// within a day are shown.
func FormatUntil(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d/time.Hour) % 24
	minutes := int(d%time.Hour) / int(time.Minute)

	var b strings.Builder

	switch {
	case hours > 1:
		fmt.Fprintf(&b, "%d hours and ", hours)
	case hours == 1:
		b.WriteString("1 hour and ")
	}

	fmt.Fprintf(&b, "%d minutes", minutes)

	return b.String()
}
