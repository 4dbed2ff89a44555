package events

import "github.com/ndelcourt/optidispatch/core/model"

// AssignmentEvent is published when a dispatch is committed to a technician,
// in phase 1 or after a phase 2 move.
type AssignmentEvent struct {
	DispatchID   string
	TechnicianID string
	Provenance   model.Provenance
	Score        float64
}

// FallbackEvent is published when the greedy assigner escalates through the
// relaxation ladder for a dispatch.
type FallbackEvent struct {
	DispatchID string
	Level      int
}

// UnassignedEvent is published when every relaxation level is exhausted.
type UnassignedEvent struct {
	DispatchID string
	Reason     model.UnassignedReason
}

// PassEvent summarizes one post-optimization pass.
type PassEvent struct {
	Pass          int
	Swaps         int
	Reassignments int
}
