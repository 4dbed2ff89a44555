package optimizer

import (
	"time"

	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/schedule"
)

// violation identifies one failed soft check.
type violation uint8

const (
	vBuffer violation = 1 << iota
	vConcurrency
	vShift
	vWorkload
)

// violationSet is a bitmask of failed soft checks.
type violationSet uint8

func (s violationSet) has(v violation) bool  { return s&violationSet(v) != 0 }
func (s violationSet) only(v violation) bool { return s == violationSet(v) }
func (s violationSet) empty() bool           { return s == 0 }

// Evaluator decides hard and soft feasibility of a dispatch/technician
// pairing against the current schedule state. The hard calendar check is
// applied when candidates are built; Evaluate covers the soft checks gated
// by the relaxation stage.
type Evaluator struct {
	cfg   Config
	cal   *model.Calendar
	state *schedule.State
}

// NewEvaluator returns an evaluator bound to one run's calendar and state.
func NewEvaluator(cfg Config, cal *model.Calendar, state *schedule.State) *Evaluator {
	return &Evaluator{cfg: cfg, cal: cal, state: state}
}

// HasEntry is the hard constraint: an Available=true calendar entry for the
// dispatch date. It is checked identically in every code path and never
// relaxed, including at the last ladder stage.
func (e *Evaluator) HasEntry(technicianID, date string) (model.CalendarEntry, bool) {
	return e.cal.Entry(technicianID, date)
}

// capRelaxable reports whether the priority's workload cap may exceed 100%.
// Low/Normal are hard-blocked at the base cap with no fallback override.
func capRelaxable(p model.Priority) bool {
	return p == model.PriorityHigh || p == model.PriorityCritical
}

// Evaluate records the soft-check violations of the candidate at the given
// relaxation stage, reading (never mutating) the schedule state. It also
// fills the shift geometry fields used by the exception rules.
func (e *Evaluator) Evaluate(d model.Dispatch, c *candidate, rl Relaxation) violationSet {
	start := d.AppointmentStart
	end := d.AppointmentEnd()
	date := d.Date()

	c.startsInShift = !start.Before(c.entry.ShiftStart)
	c.overtime = end.Sub(c.entry.ShiftEnd)

	var set violationSet

	// The Low/Normal workload block survives every stage, IgnoreSoft
	// included.
	overCap := c.ratio > e.workloadCap(d.Priority, rl)+1e-9
	if overCap && !capRelaxable(d.Priority) {
		set |= violationSet(vWorkload)
	}

	if rl.IgnoreSoft {
		return set
	}

	if overCap {
		set |= violationSet(vWorkload)
	}
	// A zero-minute stage disables the buffer check entirely; pure overlap
	// is then governed by the concurrency cap.
	buffer := time.Duration(rl.BufferMinutes) * time.Minute
	if buffer > 0 && e.state.StartsWithinBuffer(c.tech.ID, date, start, buffer) {
		set |= violationSet(vBuffer)
	}
	if e.state.CountOverlapping(c.tech.ID, date, start, end) >= rl.MaxConcurrent {
		set |= violationSet(vConcurrency)
	}
	overtimeAllowance := time.Duration(rl.OvertimeMinutes) * time.Minute
	if !c.startsInShift || c.overtime > overtimeAllowance {
		set |= violationSet(vShift)
	}
	return set
}

func (e *Evaluator) workloadCap(p model.Priority, rl Relaxation) float64 {
	if !capRelaxable(p) {
		return e.cfg.WorkloadCap
	}
	cap := e.cfg.PriorityWorkloadCap
	if rl.WorkloadCap > cap {
		cap = rl.WorkloadCap
	}
	return cap
}
