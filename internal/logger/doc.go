// Package logger wraps zap with a process-wide sugared logger and
// context helpers (ToContext, FromContext, WithName, WithKV).
//
// Services receive a context and log through it, so names and key-value
// pairs attached upstream follow the call chain. Console output is colored
// only when stdout is a terminal; the terminal client redirects its logs to
// a file with NewFile because the screen owns stdout.
package logger
