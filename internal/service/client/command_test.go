package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/session"
)

// fakeServer is an in-memory alarm server whose first stores fail.
// The first dropStores stores are echoed back but not kept.
type fakeServer struct {
	time       string
	failStores int
	dropStores int
	stores     int
	gets       int
	enabled    bool
	mu         sync.Mutex
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req session.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Secret != config.DefaultSecret {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if r.URL.Path != "/store" {
		f.gets++
	} else {
		f.stores++
		if f.stores <= f.failStores {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if f.stores <= f.failStores+f.dropStores {
			_ = json.NewEncoder(w).Encode(map[string]any{"enabled": *req.Enabled, "time": req.Time})
			return
		}

		f.enabled = *req.Enabled
		f.time = req.Time
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"enabled": f.enabled, "time": f.time})
}

func newOptions(t *testing.T, srv *httptest.Server, out *bytes.Buffer) *Options {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: srv.Listener.Addr().String(),
		Timeout:       time.Second,
	}))

	now := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	return &Options{
		Output:       out,
		ConfigPath:   cfgPath,
		PushInterval: 10 * time.Millisecond,
		Now:          func() time.Time { return now },
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{time: "2024-03-01T07:30:00.000", enabled: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var out bytes.Buffer

	require.NoError(t, Status(context.Background(), newOptions(t, srv, &out)))
	require.Equal(t, "Alarm 07:30 is on, waking up in 1 hour and 30 minutes\n", out.String())

	fake.mu.Lock()
	fake.enabled = false
	fake.mu.Unlock()

	out.Reset()
	require.NoError(t, Status(context.Background(), newOptions(t, srv, &out)))
	require.Equal(t, "Alarm 07:30 is off\n", out.String())
}

func TestSet_RetriesUntilStored(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{time: "2024-02-28T07:30:00.000", failStores: 2}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var out bytes.Buffer

	enabled := true
	at := alarm.Time{Hour: 6, Minute: 45}

	opts := newOptions(t, srv, &out)
	opts.Enabled = &enabled
	opts.Time = &at

	require.NoError(t, Set(context.Background(), opts))
	require.Equal(t, "Alarm 06:45 is on, waking up in 45 minutes\n", out.String())

	fake.mu.Lock()
	defer fake.mu.Unlock()

	require.Equal(t, 3, fake.stores)
	require.True(t, fake.enabled)
	require.Equal(t, "2024-03-01T06:45:00.000", fake.time)
}

func TestSet_ConfirmsWithGet(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{time: "2024-03-01T07:30:00.000", dropStores: 1}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var out bytes.Buffer

	enabled := true
	opts := newOptions(t, srv, &out)
	opts.Enabled = &enabled

	require.NoError(t, Set(context.Background(), opts))
	require.Equal(t, "Alarm 07:30 is on, waking up in 1 hour and 30 minutes\n", out.String())

	fake.mu.Lock()
	defer fake.mu.Unlock()

	// The lost store is noticed by the read back and pushed again.
	require.Equal(t, 2, fake.stores)
	require.Equal(t, 4, fake.gets)
	require.True(t, fake.enabled)
}

func TestSet_KeepsTimeOfDay(t *testing.T) {
	t.Parallel()

	// The stored moment is in the past; "off" keeps 07:30 and moves it forward.
	fake := &fakeServer{time: "2024-02-28T07:30:00.000", enabled: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var out bytes.Buffer

	enabled := false
	opts := newOptions(t, srv, &out)
	opts.Enabled = &enabled

	require.NoError(t, Set(context.Background(), opts))
	require.Equal(t, "Alarm 07:30 is off\n", out.String())

	fake.mu.Lock()
	defer fake.mu.Unlock()

	require.False(t, fake.enabled)
	require.Equal(t, "2024-03-01T07:30:00.000", fake.time)
}

func TestSet_StopsOnCancel(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{time: "2024-03-01T07:30:00.000", failStores: 1 << 30}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	enabled := true
	opts := newOptions(t, srv, new(bytes.Buffer))
	opts.Enabled = &enabled

	require.ErrorIs(t, Set(ctx, opts), context.DeadlineExceeded)
}
