package prediction

import (
	"math"
	"testing"

	"github.com/ndelcourt/optidispatch/core/model"
)

func TestRuleEstimator_IdealPairing(t *testing.T) {
	r := NewRuleEstimator()
	p := r.Estimate(Features{
		SkillMatch:       true,
		WorkloadRatio:    0.4,
		DistanceKm:       5,
		Priority:         model.PriorityNormal,
		TicketType:       "Order",
		ExpectedDuration: 60,
	})
	// 0.55 + 0.37 + 0.32 + 0.33 + 0.02 clamps to 1.
	if p.SuccessProbability != 1 {
		t.Fatalf("expected clamped probability 1, got %f", p.SuccessProbability)
	}
	if p.EstimatedDuration != 60 {
		t.Fatalf("ideal pairing should keep expected duration, got %f", p.EstimatedDuration)
	}
}

func TestRuleEstimator_ChallengingPairing(t *testing.T) {
	r := NewRuleEstimator()
	p := r.Estimate(Features{
		SkillMatch:       false,
		WorkloadRatio:    1.2,
		DistanceKm:       150,
		Priority:         model.PriorityCritical,
		TicketType:       "Trouble",
		ExpectedDuration: 60,
	})
	// 0.55 - 0.10 - 0.30 - 0.12 - 0.05 - 0.03 = -0.05 clamps to 0.
	if p.SuccessProbability != 0 {
		t.Fatalf("expected clamped probability 0, got %f", p.SuccessProbability)
	}
	// Mismatch and far-distance inflation: 60 * 1.25 * 1.10.
	want := 60 * 1.25 * 1.10
	if math.Abs(p.EstimatedDuration-want) > 1e-9 {
		t.Fatalf("expected duration %f, got %f", want, p.EstimatedDuration)
	}
}

func TestRuleEstimator_WorkloadBands(t *testing.T) {
	r := NewRuleEstimator()
	base := Features{SkillMatch: true, DistanceKm: 60, Priority: model.PriorityNormal, TicketType: "Order", ExpectedDuration: 30}

	light := base
	light.WorkloadRatio = 0.6
	heavy := base
	heavy.WorkloadRatio = 1.1
	if r.Estimate(light).SuccessProbability <= r.Estimate(heavy).SuccessProbability {
		t.Fatal("overloaded technician should score below normally loaded one")
	}
}

func TestRuleEstimator_Deterministic(t *testing.T) {
	r := NewRuleEstimator()
	f := Features{SkillMatch: true, WorkloadRatio: 0.7, DistanceKm: 42, Priority: model.PriorityHigh, TicketType: "Trouble", ExpectedDuration: 45}
	if r.Estimate(f) != r.Estimate(f) {
		t.Fatal("estimator must be deterministic")
	}
}

func TestRuleEstimator_Explain(t *testing.T) {
	r := NewRuleEstimator()
	s := r.Explain(Features{SkillMatch: true, WorkloadRatio: 0.6, DistanceKm: 60, Priority: model.PriorityNormal, TicketType: "Order"})
	if s == "" {
		t.Fatal("explanation should not be empty")
	}
}

func TestBlendEstimator_Weights(t *testing.T) {
	hi := StaticEstimator{Default: Prediction{SuccessProbability: 1.0, EstimatedDuration: 100}}
	lo := StaticEstimator{Default: Prediction{SuccessProbability: 0.0, EstimatedDuration: 50}}
	b := &BlendEstimator{Primary: hi, Secondary: lo, PrimaryWeight: 0.7}
	p := b.Estimate(Features{ExpectedDuration: 10})
	if math.Abs(p.SuccessProbability-0.7) > 1e-9 {
		t.Fatalf("expected 0.7, got %f", p.SuccessProbability)
	}
	if math.Abs(p.EstimatedDuration-85) > 1e-9 {
		t.Fatalf("expected 85 minutes, got %f", p.EstimatedDuration)
	}
}

func TestStaticEstimator_PerTechnician(t *testing.T) {
	s := StaticEstimator{
		ByTechnician: map[string]Prediction{"t1": {SuccessProbability: 0.9, EstimatedDuration: 40}},
		Default:      Prediction{SuccessProbability: 0.5},
	}
	if got := s.Estimate(Features{TechnicianID: "t1"}); got.SuccessProbability != 0.9 {
		t.Fatalf("expected 0.9, got %f", got.SuccessProbability)
	}
	// Default with zero duration inherits the expected duration.
	if got := s.Estimate(Features{TechnicianID: "t2", ExpectedDuration: 33}); got.EstimatedDuration != 33 {
		t.Fatalf("expected inherited duration 33, got %f", got.EstimatedDuration)
	}
}
