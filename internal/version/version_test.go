package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
}

// TestFillFromBuildInfo keeps injected values and fills the rest from VCS stamping.
func TestFillFromBuildInfo(t *testing.T) {
	commit, buildTime := Commit, BuildTime

	defer func() {
		Commit, BuildTime = commit, buildTime
	}()

	Commit, BuildTime = "none", "unknown"

	fillFromBuildInfo(&debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-03-01T07:30:00Z"},
	}})

	require.Equal(t, "0123456", Commit)
	require.Equal(t, "2024-03-01T07:30:00Z", BuildTime)

	Commit = "abc"
	fillFromBuildInfo(&debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}}})
	require.Equal(t, "abc", Commit)
}
