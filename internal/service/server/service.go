package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	repo "github.com/oshokin/alarm-clock/internal/repository/state"
)

// service encapsulates the alarm business logic and persistence orchestration.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// repo handles persistent storage of alarm state.
	repo repo.Repository
	// publish receives every accepted change, outside of the lock.
	publish func(*domain.State)
	// now is the clock used for UpdatedAt and the default state.
	now func() time.Time
	// state is the current in-memory alarm state.
	state *domain.State
	// mu protects concurrent access to the alarm state.
	mu sync.RWMutex
}

// newService creates a service backed by the provided repository.
// Without a stored state the alarm starts disabled at the current minute.
func newService(ctx context.Context, repository repo.Repository, publish func(*domain.State)) (*service, error) {
	if publish == nil {
		publish = func(*domain.State) {}
	}

	s := &service{
		repo:    repository,
		publish: publish,
		now:     time.Now,
	}

	now := s.now().UTC()
	s.state = &domain.State{
		WakeupAt:  now.Truncate(time.Minute),
		UpdatedAt: now,
	}

	if repository == nil {
		return s, nil
	}

	state, err := repository.Load(ctx)
	switch {
	case err == nil:
		if state != nil {
			s.state = state
		}
	case errors.Is(err, repo.ErrNotFound):
		// Keep default state.
	default:
		return nil, fmt.Errorf("load state: %w", err)
	}

	return s, nil
}

// Store replaces the alarm state, persists it and publishes the change.
// On a persistence failure the previous state is kept.
func (s *service) Store(ctx context.Context, actor string, enabled bool, wakeupAt time.Time) (*domain.State, error) {
	s.mu.Lock()

	next := &domain.State{
		WakeupAt:  wakeupAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: s.now().UTC(),
		UpdatedBy: actor,
		Revision:  s.state.Revision + 1,
		Enabled:   enabled,
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, next); err != nil {
			s.mu.Unlock()

			return nil, fmt.Errorf("persist state: %w", err)
		}
	}

	s.state = next
	result := next.Clone()

	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm state updated",
		"enabled", result.Enabled,
		"time", domain.FormatWire(result.WakeupAt),
		"revision", result.Revision,
		"actor", result.UpdatedBy,
	)

	s.publish(result)

	return result, nil
}

// Get returns the current alarm state.
func (s *service) Get(ctx context.Context) *domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logger.DebugKV(ctx, "Alarm state requested", "enabled", s.state.Enabled, "revision", s.state.Revision)

	return s.state.Clone()
}

// Reload adopts the stored state when it differs from the in-memory one,
// e.g. after the state file was edited by hand. The revision never goes back.
// The lock is held across the load so a concurrent Store cannot be reverted
// by the content it is replacing.
func (s *service) Reload(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	s.mu.Lock()

	loaded, err := s.repo.Load(ctx)
	if err != nil {
		s.mu.Unlock()

		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("reload state: %w", err)
	}

	if sameState(loaded, s.state) {
		s.mu.Unlock()
		return nil
	}

	loaded.Revision = max(loaded.Revision, s.state.Revision+1)
	s.state = loaded
	result := loaded.Clone()

	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm state reloaded",
		"enabled", result.Enabled,
		"time", domain.FormatWire(result.WakeupAt),
		"revision", result.Revision,
	)

	s.publish(result)

	return nil
}

func sameState(a, b *domain.State) bool {
	return a.Enabled == b.Enabled &&
		a.Revision == b.Revision &&
		a.UpdatedBy == b.UpdatedBy &&
		a.WakeupAt.Equal(b.WakeupAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
