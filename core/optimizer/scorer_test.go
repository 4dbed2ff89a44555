package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testScorer() Scorer {
	var cfg Config
	cfg.SetDefaults()
	return NewScorer(cfg)
}

func TestWorkloadBalance_PeaksAtTarget(t *testing.T) {
	s := testScorer()
	require.InDelta(t, 1.0, s.workloadBalance(0.8), 1e-9)
	require.Greater(t, s.workloadBalance(0.8), s.workloadBalance(0.5))
	require.Greater(t, s.workloadBalance(0.8), s.workloadBalance(0.95))
}

func TestWorkloadBalance_OverloadPenalty(t *testing.T) {
	s := testScorer()
	// 1 - |1.2-0.8|/0.8 = 0.5, minus 1.5 * 0.2 overload.
	require.InDelta(t, 0.2, s.workloadBalance(1.2), 1e-9)
	// Deep overload clamps to zero rather than going negative.
	require.Zero(t, s.workloadBalance(2.0))
}

func TestDistanceScore_Normalization(t *testing.T) {
	s := testScorer()
	require.InDelta(t, 1.0, s.distanceScore(0, 100), 1e-9)
	require.InDelta(t, 0.5, s.distanceScore(50, 100), 1e-9)
	require.InDelta(t, 0.0, s.distanceScore(100, 100), 1e-9)
	// Degenerate pool where every candidate is at the same spot.
	require.InDelta(t, 1.0, s.distanceScore(0, 0), 1e-9)
}

func TestOverrunScore(t *testing.T) {
	s := testScorer()
	require.InDelta(t, 1.0, s.overrunScore(50, 60), 1e-9)
	require.InDelta(t, 1.0, s.overrunScore(60, 60), 1e-9)
	require.InDelta(t, 0.5, s.overrunScore(90, 60), 1e-9)
	require.InDelta(t, 0.0, s.overrunScore(120, 60), 1e-9)
}

func TestScore_PerfectCandidate(t *testing.T) {
	s := testScorer()
	got := s.Score(1.0, 0.8, 0, 100, 60, 60)
	require.InDelta(t, 1.0, got, 1e-9)
}

func TestScore_ProbabilityDominates(t *testing.T) {
	s := testScorer()
	strong := s.Score(0.9, 0.5, 10, 100, 60, 60)
	weak := s.Score(0.4, 0.5, 10, 100, 60, 60)
	require.Greater(t, strong, weak)
}
