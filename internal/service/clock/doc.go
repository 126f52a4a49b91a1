// Package clock implements the alarm-clock terminal screen.
//
// Model is a bubbletea model that plays three roles for the sync session:
// it is the time picker, the renderer of derived state and, through
// Dispatcher, the session's single execution context. All session calls
// happen inside Update.
package clock
