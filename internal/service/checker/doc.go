// Package checker implements alarm-checker: it follows the server's event
// stream and rings once the wakeup moment of an enabled alarm arrives.
package checker
