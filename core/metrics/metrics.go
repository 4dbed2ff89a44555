package metrics

import "time"

// AssignmentRecord is the per-dispatch observation recorded after a run.
type AssignmentRecord struct {
	DispatchID         string
	TechnicianID       string
	Priority           string
	Provenance         string
	FallbackLevel      int
	Score              float64
	SuccessProbability float64
	DistanceKm         float64
	SkillMatch         bool
	Unassigned         bool
	Reason             string
}

// RunSummary aggregates one optimization run.
type RunSummary struct {
	RunID         string
	StartedAt     time.Time
	Duration      time.Duration
	Dispatches    int
	Assigned      int
	Unassigned    int
	Warnings      int
	Passes        int
	Phase1Score   float64
	Phase2Score   float64
}

// Sink records optimization results for observability purposes.
type Sink interface {
	RecordAssignments(records []AssignmentRecord) error
	RecordRunSummary(s RunSummary) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordAssignments([]AssignmentRecord) error { return nil }
func (NopSink) RecordRunSummary(RunSummary) error          { return nil }
