package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndelcourt/optidispatch/core/model"
)

func sampleRecord(runID string, ts time.Time) Record {
	return Record{
		RunID:      runID,
		StartedAt:  ts,
		Dispatches: 2,
		Assigned:   1,
		Unassigned: 1,
		TotalScore: 0.8,
		Assignments: []model.Assignment{
			{DispatchID: "d1", TechnicianID: "t1", Score: 0.8},
			{DispatchID: "d2", Unassigned: true, Reason: model.ReasonNoTechnicianAvailableOnDate},
		},
	}
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Append(context.Background(), sampleRecord("r1", now)))
	require.NoError(t, store.Append(context.Background(), sampleRecord("r2", now.Add(time.Hour))))

	all, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	one, err := store.Query(context.Background(), Query{RunID: "r2"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, "r2", one[0].RunID)

	windowed, err := store.Query(context.Background(), Query{End: now.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	require.Equal(t, "r1", windowed[0].RunID)
}

func TestSQLiteStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Append(context.Background(), sampleRecord("r1", now)))
	require.NoError(t, store.Append(context.Background(), sampleRecord("r2", now.Add(time.Hour))))

	all, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "r1", all[0].RunID)

	one, err := store.Query(context.Background(), Query{RunID: "r2"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, 2, one[0].Dispatches)
	require.Len(t, one[0].Assignments, 2)
}
