// store_test.go - Tests fuer die Run-Historie
package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := &Store{DBPath: filepath.Join(t.TempDir(), "runs.sqlite")}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBeginAndFinishRun(t *testing.T) {
	s := newTestStore(t)

	run, err := s.BeginRun("train", "out")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "train", run.Mode)
	assert.True(t, run.FinishedAt.IsZero())

	require.NoError(t, s.FinishRun(run.ID, 42))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 42, runs[0].Batches)
	assert.False(t, runs[0].FinishedAt.IsZero())
}

func TestRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	first, err := s.BeginRun("train", "out")
	require.NoError(t, err)
	second, err := s.BeginRun("encode", "out")
	require.NoError(t, err)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// neueste zuerst
	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.False(t, runs[0].StartedAt.Before(runs[1].StartedAt))
}

func TestUnfinishedRunHasNoFinishedAt(t *testing.T) {
	s := newTestStore(t)

	_, err := s.BeginRun("sample", "out")
	require.NoError(t, err)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].FinishedAt.IsZero())
	assert.Zero(t, runs[0].Batches)
}
