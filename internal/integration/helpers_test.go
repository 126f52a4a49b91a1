package integration

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/service/server"
	"github.com/oshokin/alarm-clock/internal/session"
)

const testSecret int64 = 1234

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs alarm-server with a temporary config file and waits until it answers.
// Returns a stop function that blocks until the server has exited.
func startServer(t *testing.T, addr, backend, statePath string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: addr,
		Secret:        testSecret,
		Timeout:       3 * time.Second,
		StateBackend:  backend,
		StateFile:     statePath,
	}))

	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:     cfgPath,
			ListenAddress:  addr,
			WatchStateFile: true,
		})
	}()

	c := dial(t, addr)

	require.Eventually(t, func() bool {
		_, err := c.Post(ctx, session.EndpointGet, mustJSON(t, session.Request{Secret: testSecret}))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	var once sync.Once

	return func() {
		once.Do(func() {
			cancel()
			require.NoError(t, <-done)
		})
	}
}

func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor("tester@integration"),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return data
}

// getState pulls the server state through the sync endpoint.
func getState(t *testing.T, c *common.Client) session.Response {
	t.Helper()

	body, err := c.Post(context.Background(), session.EndpointGet, mustJSON(t, session.Request{Secret: testSecret}))
	require.NoError(t, err)

	var response session.Response
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotNil(t, response.Enabled)
	require.NotNil(t, response.Time)

	return response
}

// storeState pushes a state through the sync endpoint.
func storeState(t *testing.T, c *common.Client, enabled bool, wakeupAt string) {
	t.Helper()

	_, err := c.Post(context.Background(), session.EndpointStore, mustJSON(t, session.Request{
		Enabled: &enabled,
		Time:    wakeupAt,
		Secret:  testSecret,
	}))
	require.NoError(t, err)
}
