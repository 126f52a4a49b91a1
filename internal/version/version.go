package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// commitLength is how many characters of vcs.revision are shown.
const commitLength = 7

//nolint:gochecknoinits // Fills build metadata the toolchain recorded when ldflags did not.
func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fillFromBuildInfo(info)
}

// fillFromBuildInfo takes the commit and time from VCS stamping unless they were injected.
func fillFromBuildInfo(info *debug.BuildInfo) {
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" && setting.Value != "" {
				Commit = setting.Value[:min(commitLength, len(setting.Value))]
			}
		case "vcs.time":
			if BuildTime == "unknown" && setting.Value != "" {
				BuildTime = setting.Value
			}
		}
	}
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("alarm-clock %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
