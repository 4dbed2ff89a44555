package model

// ProvenanceKind identifies the mechanism that produced an assignment.
type ProvenanceKind int

const (
	ProvenanceNormal ProvenanceKind = iota
	ProvenanceFallback
	ProvenanceSwap
	ProvenanceReassignment
)

// String returns a human-readable provenance name.
func (k ProvenanceKind) String() string {
	switch k {
	case ProvenanceFallback:
		return "fallback"
	case ProvenanceSwap:
		return "swap"
	case ProvenanceReassignment:
		return "reassignment"
	default:
		return "normal"
	}
}

// Provenance records how an assignment was produced. FallbackLevel is only
// meaningful for ProvenanceFallback.
type Provenance struct {
	Kind          ProvenanceKind
	FallbackLevel int
}

// UnassignedReason explains why a dispatch could not be assigned.
type UnassignedReason string

const (
	// ReasonNone marks an assigned dispatch.
	ReasonNone UnassignedReason = ""
	// ReasonNoTechnicianAvailableOnDate means no Available=true calendar
	// entry exists anywhere for the dispatch date.
	ReasonNoTechnicianAvailableOnDate UnassignedReason = "NoTechnicianAvailableOnDate"
	// ReasonNoFeasibleCandidate means entries exist but every relaxation
	// level was exhausted without an admissible candidate.
	ReasonNoFeasibleCandidate UnassignedReason = "NoFeasibleCandidate"
)

// Assignment pairs a dispatch with a technician, or marks it unassigned.
// Exactly one Assignment exists per dispatch at all times; phase 2 may
// overwrite the technician, score and provenance.
type Assignment struct {
	DispatchID         string
	TechnicianID       string
	SuccessProbability float64
	EstimatedDuration  float64 // minutes
	DistanceKm         float64
	SkillMatch         bool
	Score              float64
	Provenance         Provenance
	Warnings           []Warning
	Unassigned         bool
	Reason             UnassignedReason
}

// Warning tags (severity-implying, rendered verbatim in reports).
const (
	WarnHardConstraint   = "HARD CONSTRAINT"
	WarnFallback         = "FALLBACK"
	WarnOverlapException = "OVERLAP EXCEPTION"
	WarnOvertime         = "OVERTIME EXCEPTION"
	WarnOverload         = "WORKLOAD OVERLOAD"
	WarnInvalidCoords    = "INVALID COORDINATES"
)

// Warning records a soft-constraint relaxation or anomaly observed while
// assigning a dispatch. The engine-wide list is append-only.
type Warning struct {
	DispatchID   string
	TechnicianID string
	Tag          string
	Message      string
}
