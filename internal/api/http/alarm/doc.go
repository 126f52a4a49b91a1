// Package alarm exposes the alarm service over HTTP.
//
// It serves the JSON sync endpoints used by the clock client, a websocket
// stream of state changes consumed by the checker and a health probe.
package alarm
