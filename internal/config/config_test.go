package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Unknown backend.
	require.Error(t, Validate(&Config{ServerAddress: "127.0.0.1:6000", StateBackend: "redis"}))

	// Defaults are filled in.
	settings := &Config{ServerAddress: "127.0.0.1:6000"}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultSecret, settings.Secret)
	require.Equal(t, BackendFile, settings.StateBackend)
	require.Equal(t, DefaultStateFilename, settings.StateFile)

	// The sqlite backend gets its own default file.
	settings = &Config{ServerAddress: "127.0.0.1:6000", StateBackend: BackendSQLite}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultDatabaseFilename, settings.StateFile)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back in both formats.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"settings.yaml", "settings.toml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)

			settings := &Config{
				ServerAddress: "127.0.0.1:6000",
				Secret:        42,
				Timeout:       3 * time.Second,
				StateBackend:  BackendSQLite,
				StateFile:     "state.db",
				RingCommand:   []string{"paplay", "alarm.wav"},
			}

			require.NoError(t, Save(path, settings))

			loaded, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, settings, loaded)

			_, err = os.Stat(path)
			require.NoError(t, err)
		})
	}
}

// TestLoad_TOML parses a hand-written TOML document.
func TestLoad_TOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	contents := `server_addr = "127.0.0.1:6000"
secret = 7
ring_command = ["echo", "wake up"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(7), cfg.Secret)
	require.Equal(t, []string{"echo", "wake up"}, cfg.RingCommand)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestLoad_Missing reports a read error for an absent file.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
