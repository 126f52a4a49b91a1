package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Repository defines persistence operations for the alarm state.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

var (
	// ErrNotFound is returned when no state has been stored yet.
	ErrNotFound = errors.New("state not found")

	// errUnknownBackend is returned by Open for an unsupported backend name.
	errUnknownBackend = errors.New("unknown state backend")
)

// Open returns the repository for the configured backend and a close function.
func Open(ctx context.Context, backend, path string) (Repository, func() error, error) {
	switch backend {
	case config.BackendFile, "":
		return NewFileRepository(path), func() error { return nil }, nil
	case config.BackendSQLite:
		repo, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}

		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", errUnknownBackend, backend)
	}
}
