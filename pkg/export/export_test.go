package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/suggest"
)

func sampleAssignments() []model.Assignment {
	return []model.Assignment{
		{
			DispatchID:         "D-001",
			TechnicianID:       "T-001",
			SuccessProbability: 0.82,
			EstimatedDuration:  55,
			DistanceKm:         12.5,
			SkillMatch:         true,
			Score:              0.74,
			Provenance:         model.Provenance{Kind: model.ProvenanceFallback, FallbackLevel: 2},
		},
		{
			DispatchID: "D-002",
			Unassigned: true,
			Reason:     model.ReasonNoFeasibleCandidate,
		},
	}
}

func TestWriteAssignmentsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAssignmentsCSV(&buf, sampleAssignments()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "dispatch_id", records[0][0])
	require.Equal(t, "fallback", records[1][7])
	require.Equal(t, "2", records[1][8])
	require.Equal(t, "true", records[2][9])
	require.Equal(t, "NoFeasibleCandidate", records[2][10])
}

func TestWriteAssignmentsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAssignmentsJSON(&buf, sampleAssignments()))
	require.Contains(t, buf.String(), "D-001")
	require.Contains(t, buf.String(), "NoFeasibleCandidate")
}

func TestWriteWarningsCSV(t *testing.T) {
	var buf bytes.Buffer
	warnings := []model.Warning{
		{DispatchID: "D-001", TechnicianID: "T-001", Tag: model.WarnOverlapException, Message: "overlap admitted"},
	}
	require.NoError(t, WriteWarningsCSV(&buf, warnings))
	require.Contains(t, buf.String(), "OVERLAP EXCEPTION")
}

func TestWriteSuggestionsCSV(t *testing.T) {
	var buf bytes.Buffer
	options := []suggest.Option{
		{DispatchID: "D-001", Rank: 1, TechnicianID: "T-001", TechnicianName: "Alice", Rating: 120.5},
		{DispatchID: "D-001", Rank: 2, TechnicianID: "T-002", TechnicianName: "Bob", Rating: 88},
	}
	require.NoError(t, WriteSuggestionsCSV(&buf, options))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "Alice")
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleAssignments())
	require.Equal(t, 1, s.Assigned)
	require.Equal(t, 1, s.Unassigned)
	require.Equal(t, 1, s.FallbackCount)
	require.InDelta(t, 0.74, s.MeanScore, 1e-9)
	require.InDelta(t, 12.5, s.MaxDistanceKm, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))
	require.Contains(t, buf.String(), "assigned: 1")
}
