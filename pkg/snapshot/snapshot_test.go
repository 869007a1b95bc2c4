package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
)

func TestFileRepository_LoadMissing(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "nested"))

	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
}

func TestFileRepository_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := New(uuid.New(), lifecycle.StateInfo{
		Name:      "api",
		State:     lifecycle.StateDegraded,
		Reason:    "OK: 1/2, DEGRADED: 1/2, Worst: cache - cold",
		UpdatedOn: at,
		Components: []lifecycle.StateInfo{
			{Name: "cache", State: lifecycle.StateDegraded, Reason: "cold", UpdatedOn: at},
		},
	}, at)

	require.NoError(t, repo.Save(context.Background(), want))
	assert.Equal(t, filepath.Join(dir, "status.json"), repo.Path())
	_, err := os.Stat(repo.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.Ready)
	assert.Equal(t, time.Hour, got.Age(at.Add(time.Hour)))
}

func TestFileRepository_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status.json"), []byte("{"), 0o600))

	_, err := NewFileRepository(dir).Load(context.Background())
	assert.Error(t, err)
}

type failingRepo struct{ err error }

func (f failingRepo) Load(context.Context) (Snapshot, error) { return Snapshot{}, nil }
func (f failingRepo) Save(context.Context, Snapshot) error   { return f.err }

func TestRecorder_SavesEveryPublication(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	rec := NewRecorder(repo, nil)
	c := lifecycle.New("api")

	sub := rec.Watch(c)
	defer sub.Unsubscribe()
	require.NoError(t, c.Initialize(context.Background()))

	assert.Equal(t, 3, rec.Saves())
	assert.NoError(t, rec.Err())

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec.RunID(), got.RunID)
	assert.Equal(t, lifecycle.StateOK, got.Root.State)
	assert.True(t, got.Ready)
}

func TestRecorder_SaveErrorIsKept(t *testing.T) {
	boom := errors.New("disk full")
	rec := NewRecorder(failingRepo{err: boom}, nil)
	c := lifecycle.New("api")

	rec.Watch(c)
	require.NoError(t, c.Initialize(context.Background()))

	assert.Equal(t, 0, rec.Saves())
	assert.ErrorIs(t, rec.Err(), boom)
	assert.Equal(t, lifecycle.StateOK, c.State().State)
}
