// Package client implements the headless alarm-clock commands: status prints
// the server state, on and off change it without opening the screen.
//
// Changes are pushed with the same endpoints the screen uses and retried
// until the server confirms them or the context is canceled.
package client
