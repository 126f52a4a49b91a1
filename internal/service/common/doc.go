// Package common holds helpers shared by several services.
//
// It provides the HTTP client used to reach the alarm server, with per-call
// timeouts, and a helper to detect the current system actor
// (username@hostname) that is reported to the server for audit logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
