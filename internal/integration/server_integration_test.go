package integration

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/session"
)

// TestServer_Roundtrip stores and pulls the alarm over HTTP and checks it survives a restart.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		backend string
		file    string
	}{
		{"file", "state.json"},
		{"sqlite", "state.db"},
	} {
		t.Run(tc.backend, func(t *testing.T) {
			t.Parallel()

			addr := reservePort(t)
			statePath := filepath.Join(t.TempDir(), tc.file)

			stop := startServer(t, addr, tc.backend, statePath)
			defer func() { stop() }()

			c := dial(t, addr)

			// A fresh server answers with a disabled alarm.
			require.False(t, *getState(t, c).Enabled)

			storeState(t, c, true, "2024-03-01T07:30:00.000")

			got := getState(t, c)
			require.True(t, *got.Enabled)
			require.Equal(t, "2024-03-01T07:30:00.000", *got.Time)

			_, err := os.Stat(statePath)
			require.NoError(t, err)

			stop()

			stop = startServer(t, addr, tc.backend, statePath)

			got = getState(t, c)
			require.True(t, *got.Enabled)
			require.Equal(t, "2024-03-01T07:30:00.000", *got.Time)
		})
	}
}

// TestServer_RejectsWrongSecret maps a bad secret to an HTTP error.
func TestServer_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)

	stop := startServer(t, addr, "file", filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	c := dial(t, addr)

	_, err := c.Post(context.Background(), session.EndpointGet, mustJSON(t, session.Request{Secret: testSecret + 1}))
	require.ErrorIs(t, err, common.ErrUnexpectedStatus)
	require.Contains(t, err.Error(), "403")

	response, err := http.Get("http://" + addr + "/healthz") //nolint:noctx // Plain probe in a test.
	require.NoError(t, err)

	_ = response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)
}

// TestServer_ReloadsEditedStateFile picks up a hand edit of the JSON state file.
func TestServer_ReloadsEditedStateFile(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	statePath := filepath.Join(t.TempDir(), "state.json")

	stop := startServer(t, addr, "file", statePath)
	defer stop()

	c := dial(t, addr)
	storeState(t, c, false, "2024-03-01T07:30:00.000")

	edited := `{"updated_at":"2024-03-01T00:00:00Z","time":"2024-03-02T06:45:00.000","revision":1,"enabled":true}`
	require.NoError(t, os.WriteFile(statePath, []byte(edited), 0o600))

	require.Eventually(t, func() bool {
		got := getState(t, c)
		return *got.Enabled && *got.Time == "2024-03-02T06:45:00.000"
	}, 5*time.Second, 50*time.Millisecond)
}

// TestServer_EventsStream delivers the current state and later stores.
func TestServer_EventsStream(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)

	stop := startServer(t, addr, "file", filepath.Join(t.TempDir(), "state.json"))
	defer stop()

	c := dial(t, addr)

	conn, err := c.Subscribe(context.Background(), testSecret)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first map[string]any
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, false, first["enabled"])

	storeState(t, c, true, "2024-03-01T07:30:00.000")

	var second map[string]any
	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, true, second["enabled"])
	require.Equal(t, "2024-03-01T07:30:00.000", second["time"])
	require.Greater(t, second["revision"], first["revision"])

	_, err = domain.ParseWire(second["time"].(string))
	require.NoError(t, err)
}
