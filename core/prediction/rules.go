package prediction

import (
	"fmt"
	"strings"

	"github.com/ndelcourt/optidispatch/core/model"
)

// RuleEstimator derives success probabilities from observed historical
// patterns: skill match 92% success, distance < 10 km 88%, workload < 80%
// 85%, all three aligned 95%+. The adjustments below reproduce those rates
// from the 55% baseline.
type RuleEstimator struct {
	BaseRate            float64
	SkillMatchBoost     float64
	SkillMismatchMalus  float64
	WorkloadAdjust      map[string]float64
	DistanceAdjust      map[string]float64
	PriorityAdjust      map[model.Priority]float64
	TicketTypeAdjust    map[string]float64
	MismatchDurationPct float64 // duration inflation when skills differ
	FarDurationPct      float64 // duration inflation beyond FarKm
	FarKm               float64
}

// NewRuleEstimator returns the estimator with the calibrated defaults.
func NewRuleEstimator() *RuleEstimator {
	return &RuleEstimator{
		BaseRate:           0.55,
		SkillMatchBoost:    0.37,
		SkillMismatchMalus: -0.10,
		WorkloadAdjust: map[string]float64{
			"low":        0.32,
			"medium":     0.30,
			"high":       -0.10,
			"overloaded": -0.30,
		},
		DistanceAdjust: map[string]float64{
			"very_close": 0.33,
			"close":      0.05,
			"medium":     0.00,
			"far":        -0.12,
			"very_far":   -0.30,
		},
		PriorityAdjust: map[model.Priority]float64{
			model.PriorityLow:      0.02,
			model.PriorityNormal:   0.00,
			model.PriorityHigh:     -0.02,
			model.PriorityCritical: -0.05,
		},
		TicketTypeAdjust: map[string]float64{
			"Order":   0.02,
			"Trouble": -0.03,
		},
		MismatchDurationPct: 0.25,
		FarDurationPct:      0.10,
		FarKm:               100,
	}
}

func workloadCategory(ratio float64) string {
	switch {
	case ratio < 0.5:
		return "low"
	case ratio < 0.8:
		return "medium"
	case ratio < 1.0:
		return "high"
	default:
		return "overloaded"
	}
}

func distanceCategory(km float64) string {
	switch {
	case km < 10:
		return "very_close"
	case km < 50:
		return "close"
	case km < 100:
		return "medium"
	case km < 500:
		return "far"
	default:
		return "very_far"
	}
}

// Estimate implements Estimator.
func (r *RuleEstimator) Estimate(f Features) Prediction {
	prob := r.BaseRate
	if f.SkillMatch {
		prob += r.SkillMatchBoost
	} else {
		prob += r.SkillMismatchMalus
	}
	prob += r.WorkloadAdjust[workloadCategory(f.WorkloadRatio)]
	prob += r.DistanceAdjust[distanceCategory(f.DistanceKm)]
	prob += r.PriorityAdjust[f.Priority]
	prob += r.TicketTypeAdjust[f.TicketType]
	prob = clamp01(prob)

	dur := f.ExpectedDuration
	if !f.SkillMatch {
		dur *= 1 + r.MismatchDurationPct
	}
	if f.DistanceKm >= r.FarKm {
		dur *= 1 + r.FarDurationPct
	}
	if dur < 0 {
		dur = 0
	}
	return Prediction{SuccessProbability: prob, EstimatedDuration: dur}
}

// Explain renders the factor breakdown for one pairing.
func (r *RuleEstimator) Explain(f Features) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Base rate: %.0f%%", r.BaseRate*100))
	if f.SkillMatch {
		parts = append(parts, fmt.Sprintf("Skill match: +%.0f%%", r.SkillMatchBoost*100))
	} else {
		parts = append(parts, fmt.Sprintf("Skill mismatch: %.0f%%", r.SkillMismatchMalus*100))
	}
	wc := workloadCategory(f.WorkloadRatio)
	parts = append(parts, fmt.Sprintf("Workload (%s, %.2f): %+.0f%%", wc, f.WorkloadRatio, r.WorkloadAdjust[wc]*100))
	dc := distanceCategory(f.DistanceKm)
	parts = append(parts, fmt.Sprintf("Distance (%s, %.1fkm): %+.0f%%", dc, f.DistanceKm, r.DistanceAdjust[dc]*100))
	if adj := r.PriorityAdjust[f.Priority]; adj != 0 {
		parts = append(parts, fmt.Sprintf("Priority (%s): %+.0f%%", f.Priority, adj*100))
	}
	if adj := r.TicketTypeAdjust[f.TicketType]; adj != 0 {
		parts = append(parts, fmt.Sprintf("Type (%s): %+.0f%%", f.TicketType, adj*100))
	}
	p := r.Estimate(f)
	parts = append(parts, fmt.Sprintf("=> Final: %.0f%%", p.SuccessProbability*100))
	return strings.Join(parts, " | ")
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
