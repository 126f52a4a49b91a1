// Package alarm contains core domain types for the alarm clock.
//
// Time is the wall-clock hour and minute picked by the user, Next turns it
// into the absolute wakeup moment, and State is the canonical record kept by
// the server. The package also owns the wire datetime format and the
// human-readable "time until wakeup" text.
package alarm
