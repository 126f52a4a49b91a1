package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

func sampleState() *domain.State {
	return &domain.State{
		WakeupAt:  time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 2, 29, 22, 15, 3, 0, time.UTC),
		UpdatedBy: "o.shokin@alarm-box",
		Revision:  4,
		Enabled:   true,
	}
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileRepository(path)

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"time": "2024-03-01T07:30:00.000"`)
}

func TestFileRepository_Corrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileRepository(path).Load(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(path, []byte(`{"time":"tomorrow"}`), 0o600))

	_, err = NewFileRepository(path).Load(ctx)
	require.ErrorIs(t, err, domain.ErrInvalidTime)
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	want.Revision++
	want.Enabled = false
	require.NoError(t, repo.Save(ctx, want))
	require.NoError(t, repo.Close())

	// Reopening must not re-run migrations or lose data.
	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, closeFn, err := Open(ctx, "file", filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	require.IsType(t, &FileRepository{}, repo)
	require.NoError(t, closeFn())

	repo, closeFn, err = Open(ctx, "sqlite", filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteRepository{}, repo)
	require.NoError(t, closeFn())

	_, _, err = Open(ctx, "postgres", "")
	require.ErrorIs(t, err, errUnknownBackend)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	changed := make(chan struct{}, 8)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// Other files in the directory are ignored.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600)
		_ = os.WriteFile(path, []byte("{}"), 0o600)

		select {
		case <-changed:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
