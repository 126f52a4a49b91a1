package state

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	sqlLoadState = `SELECT enabled, wakeup_at, updated_at, updated_by, revision
		FROM alarm_state WHERE id = 1`

	sqlUpsertState = `INSERT INTO alarm_state (id, enabled, wakeup_at, updated_at, updated_by, revision)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 enabled = excluded.enabled,
		 wakeup_at = excluded.wakeup_at,
		 updated_at = excluded.updated_at,
		 updated_by = excluded.updated_by,
		 revision = excluded.revision`
)

// SQLiteRepository persists the alarm state in a single-row SQLite table.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)",
		filepath.Clean(path),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.DebugKV(ctx, "State database ready", "path", path)

	return &SQLiteRepository{db: db}, nil
}

// migrate applies all pending schema migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, r := range results {
		logger.InfoKV(ctx, "Applied migration", "source", r.Source.Path, "duration", r.Duration.String())
	}

	return nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Load reads the stored state.
func (r *SQLiteRepository) Load(ctx context.Context) (*domain.State, error) {
	var (
		state              domain.State
		wakeupAt, updateAt string
	)

	err := r.db.QueryRowContext(ctx, sqlLoadState).
		Scan(&state.Enabled, &wakeupAt, &updateAt, &state.UpdatedBy, &state.Revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("load state: %w", err)
	}

	if state.WakeupAt, err = time.Parse(time.RFC3339Nano, wakeupAt); err != nil {
		return nil, fmt.Errorf("decode wakeup_at: %w", err)
	}

	if state.UpdatedAt, err = time.Parse(time.RFC3339Nano, updateAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}

	return &state, nil
}

// Save replaces the stored state.
func (r *SQLiteRepository) Save(ctx context.Context, state *domain.State) error {
	_, err := r.db.ExecContext(ctx, sqlUpsertState,
		state.Enabled,
		state.WakeupAt.UTC().Format(time.RFC3339Nano),
		state.UpdatedAt.UTC().Format(time.RFC3339Nano),
		state.UpdatedBy,
		state.Revision,
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}
