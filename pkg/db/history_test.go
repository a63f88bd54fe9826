package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "reconcile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRecordRunAndStats(t *testing.T) {
	history := NewHistory(openTestDB(t))

	stats, err := history.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRuns)
	assert.False(t, stats.LastRun.Valid)

	require.NoError(t, history.RecordRun(RunRecord{
		RunID:      "run-1",
		StartedAt:  "2026-10-18 09:00:00",
		FinishedAt: "2026-10-18 09:00:01",
		Updated:    2,
		Errors:     1,
		Changes: []StatusChange{
			{Reference: "INV-1", OldStatus: "Under Process", NewStatus: "Paid", Company: "SALAM", FoundIn: "BS"},
			{Reference: "INV-2", OldStatus: "Under Process", NewStatus: "CNP", Company: "MVNO", FoundIn: "CNP"},
		},
	}))
	require.NoError(t, history.RecordRun(RunRecord{
		RunID:      "run-2",
		StartedAt:  "2026-10-18 10:00:00",
		FinishedAt: "2026-10-18 10:00:01",
		Errors:     1,
		FatalError: "store I/O failure",
	}))

	stats, err = history.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailedRuns)
	assert.Equal(t, 2, stats.TotalUpdates)
	assert.Equal(t, 2, stats.TotalErrors)
	assert.Equal(t, "2026-10-18 10:00:01", stats.LastRun.String)

	changes, err := history.GetChanges("INV-2")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "CNP", changes[0].NewStatus)
	assert.Equal(t, "MVNO", changes[0].Company)
	assert.NotEmpty(t, changes[0].ChangedAt)
}

func TestRecordRunDuplicateRollsBack(t *testing.T) {
	history := NewHistory(openTestDB(t))

	run := RunRecord{RunID: "dup", StartedAt: "a", FinishedAt: "b"}
	require.NoError(t, history.RecordRun(run))

	run.Changes = []StatusChange{{Reference: "INV-9", OldStatus: "x", NewStatus: "Paid", Company: "SALAM", FoundIn: "BS"}}
	require.Error(t, history.RecordRun(run))

	changes, err := history.GetChanges("INV-9")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestMetadata(t *testing.T) {
	history := NewHistory(openTestDB(t))

	value, err := history.GetMetadata("last_run_id")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, history.SetMetadata("last_run_id", "run-1"))
	require.NoError(t, history.SetMetadata("last_run_id", "run-2"))

	value, err = history.GetMetadata("last_run_id")
	require.NoError(t, err)
	assert.Equal(t, "run-2", value)
}

func TestOpenRequiresParentDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "reconcile.db"))
	assert.Error(t, err)
}
