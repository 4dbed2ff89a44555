package prediction

import (
	"github.com/ndelcourt/optidispatch/core/model"
)

// Features describes one candidate dispatch/technician pairing. All values
// are computed by the caller before estimation; the oracle performs no I/O.
type Features struct {
	TechnicianID     string
	TicketType       string
	OrderType        string
	Priority         model.Priority
	RequiredSkill    string
	TechnicianSkill  string
	DistanceKm       float64
	ExpectedDuration float64 // minutes
	WorkloadRatio    float64 // committed minutes / capacity, including the candidate
	SkillMatch       bool
}

// Prediction is the oracle output for one candidate pairing.
type Prediction struct {
	SuccessProbability float64 // in [0,1]
	EstimatedDuration  float64 // minutes, >= 0
}

// Estimator is the scoring oracle. Implementations must be deterministic and
// side-effect-free: the optimizer calls Estimate concurrently across the
// candidate set for one dispatch.
type Estimator interface {
	Estimate(f Features) Prediction
}

// StaticEstimator returns fixed predictions per technician, falling back to
// a default. Intended for tests and dry runs.
type StaticEstimator struct {
	ByTechnician map[string]Prediction
	Default      Prediction
}

// Estimate returns the configured prediction for the technician or the
// default. A zero-duration prediction inherits the expected duration.
func (s StaticEstimator) Estimate(f Features) Prediction {
	p := s.Default
	if s.ByTechnician != nil {
		if tp, ok := s.ByTechnician[f.TechnicianID]; ok {
			p = tp
		}
	}
	if p.EstimatedDuration == 0 {
		p.EstimatedDuration = f.ExpectedDuration
	}
	return p
}
