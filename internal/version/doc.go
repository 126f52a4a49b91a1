// Package version exposes build metadata for the binaries.
//
// Version, Commit and BuildTime are injected with ldflags. Commit and
// BuildTime fall back to the VCS stamp recorded by the Go toolchain.
package version
