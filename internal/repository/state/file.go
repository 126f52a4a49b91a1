package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// FileRepository persists the alarm state to a JSON file on disk.
// The wakeup moment uses the same datetime format as the wire protocol.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// fileRecord is the on-disk JSON document.
type fileRecord struct {
	UpdatedAt time.Time `json:"updated_at"`
	Time      string    `json:"time"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	Revision  int64     `json:"revision"`
	Enabled   bool      `json:"enabled"`
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var record fileRecord
	if err = json.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	wakeupAt, err := domain.ParseWire(record.Time)
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return &domain.State{
		WakeupAt:  wakeupAt,
		UpdatedAt: record.UpdatedAt,
		UpdatedBy: record.UpdatedBy,
		Revision:  record.Revision,
		Enabled:   record.Enabled,
	}, nil
}

// Save writes the state to disk using JSON representation.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := fileRecord{
		UpdatedAt: state.UpdatedAt.UTC(),
		Time:      domain.FormatWire(state.WakeupAt),
		UpdatedBy: state.UpdatedBy,
		Revision:  state.Revision,
		Enabled:   state.Enabled,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
