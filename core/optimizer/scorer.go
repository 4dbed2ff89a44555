package optimizer

// Scorer combines the oracle estimate with workload, distance and overrun
// signals into one comparable score. Every term is normalized to [0,1]
// before weighting so no raw unit dominates by accident.
type Scorer struct {
	cfg Config
}

// NewScorer returns a scorer for the given configuration.
func NewScorer(cfg Config) Scorer { return Scorer{cfg: cfg} }

// workloadBalance peaks at the target utilization and penalizes both idle
// capacity and overload. Ratios above 100% incur an extra penalty
// proportional to the excess, which is what makes beyond-cap High/Critical
// placements expensive.
func (s Scorer) workloadBalance(ratio float64) float64 {
	target := s.cfg.TargetUtilization
	b := 1 - abs(ratio-target)/target
	if ratio > 1 {
		b -= s.cfg.OverloadPenalty * (ratio - 1)
	}
	return clamp01(b)
}

// distanceScore decreases monotonically with distance, normalized against
// the maximum distance observed in the candidate pool.
func (s Scorer) distanceScore(distanceKm, maxKm float64) float64 {
	if maxKm <= 0 {
		return 1
	}
	return clamp01(1 - distanceKm/maxKm)
}

// overrunScore penalizes estimates exceeding the expected duration and
// saturates at a full expected duration of overrun.
func (s Scorer) overrunScore(estimated, expected float64) float64 {
	if expected <= 0 {
		return 1
	}
	overrun := estimated - expected
	if overrun <= 0 {
		return 1
	}
	return clamp01(1 - overrun/expected)
}

// Score is a pure function of the candidate signals. maxKm is the largest
// distance in the dispatch's candidate pool.
func (s Scorer) Score(successProb, workloadRatio, distanceKm, maxKm, estimated, expected float64) float64 {
	w := s.cfg.Weights
	return w.SuccessProbability*clamp01(successProb) +
		w.WorkloadBalance*s.workloadBalance(workloadRatio) +
		w.Distance*s.distanceScore(distanceKm, maxKm) +
		w.Overrun*s.overrunScore(estimated, expected)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
