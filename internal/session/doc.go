// Package session implements the client side of the alarm clock: the
// observable screen state, dirty tracking, the pull/push sync state machine,
// the "time until wakeup" label and the polling loop that drives them.
//
// All state is owned by a single execution context. The session never
// mutates itself from another goroutine: the poller and every transport
// completion post closures through a Dispatcher, either a Loop or the
// terminal program's own event loop.
package session
