package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/ndelcourt/optidispatch/core/metrics"
)

func TestPromSink_RecordAssignments(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	recs := []coremetrics.AssignmentRecord{
		{DispatchID: "d1", Priority: "Critical", TechnicianID: "t1", Provenance: "fallback", FallbackLevel: 2, Score: 0.7, DistanceKm: 12},
		{DispatchID: "d2", Priority: "Normal", TechnicianID: "t2", Provenance: "normal", Score: 0.9, DistanceKm: 3},
		{DispatchID: "d3", Priority: "Low", Unassigned: true, Reason: "NoTechnicianAvailableOnDate"},
	}
	require.NoError(t, sink.RecordAssignments(recs))

	ps := sink.(*PromSink)
	require.Equal(t, 1.0, testutil.ToFloat64(ps.assignments.WithLabelValues("Critical", "fallback")))
	require.Equal(t, 1.0, testutil.ToFloat64(ps.assignments.WithLabelValues("Normal", "normal")))
	require.Equal(t, 1.0, testutil.ToFloat64(ps.fallbacks.WithLabelValues("L2")))
	require.Equal(t, 1.0, testutil.ToFloat64(ps.unassigned.WithLabelValues("NoTechnicianAvailableOnDate")))
}

func TestPromSink_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
}

func TestPromSink_RunSummarySetsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordRunSummary(coremetrics.RunSummary{Phase2Score: 4.2}))
	require.Equal(t, 4.2, testutil.ToFloat64(sink.(*PromSink).runScore))
}
