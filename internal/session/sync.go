package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

const (
	// EndpointGet pulls the server state.
	EndpointGet = "get"
	// EndpointStore pushes the local state.
	EndpointStore = "store"
)

var (
	// ErrSerialization means the request payload could not be built.
	ErrSerialization = errors.New("serialize sync request")
	// ErrTransport means the request did not get a successful response.
	ErrTransport = errors.New("sync transport failed")
	// ErrProtocol means a successful response carried an unusable body.
	ErrProtocol = errors.New("malformed sync response")
)

// Request is the body sent to both endpoints.
type Request struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Time    string `json:"time,omitempty"`
	Secret  int64  `json:"secret"`
}

// Response is the body returned by the get endpoint.
type Response struct {
	Enabled *bool   `json:"enabled"`
	Time    *string `json:"time"`
}

// Sync starts a sync unless one is already in flight. The first sync after
// Resume pulls, later ones push.
func (s *Session) Sync() {
	if s.syncState.Value() == Syncing {
		return
	}

	s.sync(s.hasPerformedGetSync.Value())
}

func (s *Session) sync(upload bool) {
	endpoint := EndpointGet
	if upload {
		endpoint = EndpointStore
	}

	payload, err := s.buildRequest(upload)
	if err != nil {
		logger.ErrorKV(s.ctx, "Failed to serialize", "endpoint", endpoint, "error", err)
		return
	}

	s.syncState.Set(Syncing)

	version := s.dirtyVersion
	ctx := logger.WithFields(s.ctx, "endpoint", endpoint, "version", version)

	logger.Debug(ctx, "Starting sync")

	go func() {
		body, err := s.transport.Post(ctx, endpoint, payload)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}

		s.dispatcher.Post(func() {
			s.complete(upload, version, body, err)
		})
	}()
}

// buildRequest encodes the payload for a pull or a push.
func (s *Session) buildRequest(upload bool) ([]byte, error) {
	request := Request{Secret: s.secret}

	if upload {
		hour, minute := s.picker.HourMinute()

		t, err := alarm.NewTime(hour, minute)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
		}

		enabled := s.enabled.Value()
		request.Enabled = &enabled
		request.Time = alarm.FormatWire(t.Next(s.clock.Now()))
	}

	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return data, nil
}

// complete applies the outcome of a request on the execution context.
func (s *Session) complete(upload bool, version int, body []byte, err error) {
	if err == nil && !upload {
		err = s.applyPull(body)
	}

	if err != nil {
		logger.ErrorKV(s.ctx, "Sync failed", "version", version, "upload", upload, "error", err)

		s.syncState.Set(NotSyncing)
		s.lastSyncFailed.Set(true)

		return
	}

	if upload {
		// Edits made while the request was in flight stay dirty.
		s.lastSyncedVersion = version
	}

	logger.DebugKV(s.ctx, "Sync complete", "upload", upload, "synced_version", s.lastSyncedVersion)

	s.syncState.Set(NotSyncing)
	s.lastSyncFailed.Set(false)
	s.dispatcher.Post(s.Refresh)
}

// applyPull validates a get response and adopts it as the new baseline.
// Nothing is modified unless the whole response is usable.
func (s *Session) applyPull(body []byte) error {
	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	if response.Enabled == nil || response.Time == nil {
		return fmt.Errorf("%w: missing enabled or time", ErrProtocol)
	}

	wakeup, err := alarm.ParseWire(*response.Time)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	s.hasPerformedGetSync.Set(true)
	s.enabled.Set(*response.Enabled)

	local := wakeup.In(s.clock.Now().Location())
	s.picker.SetHourMinute(local.Hour(), local.Minute())

	// The screen now mirrors the server, whatever was edited meanwhile.
	s.lastSyncedVersion = s.dirtyVersion

	logger.DebugKV(s.ctx, "Applied server state", "enabled", *response.Enabled, "time", alarm.TimeOf(local))

	return nil
}
