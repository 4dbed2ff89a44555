package optimizer

import (
	"fmt"
	"sort"

	"github.com/ndelcourt/optidispatch/core/events"
	"github.com/ndelcourt/optidispatch/core/geo"
	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/schedule"
)

// orderDispatches returns the phase-1 processing order: priority rank, then
// appointment start, then dispatch ID. The ID tiebreak keeps runs with
// identical inputs byte-identical.
func orderDispatches(ds []model.Dispatch) []model.Dispatch {
	out := make([]model.Dispatch, len(ds))
	copy(out, ds)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if !a.AppointmentStart.Equal(b.AppointmentStart) {
			return a.AppointmentStart.Before(b.AppointmentStart)
		}
		return a.ID < b.ID
	})
	return out
}

// assignAll runs phase 1 over every dispatch. Failures are local: the loop
// always completes and reports partial results.
func (r *run) assignAll(ds []model.Dispatch) {
	for _, d := range orderDispatches(ds) {
		r.assignOne(d)
	}
}

// assignOne picks the best admissible technician for the dispatch, escalating
// through the relaxation ladder only when a stage yields zero candidates.
func (r *run) assignOne(d model.Dispatch) {
	if !geo.Valid(d.CustomerLat, d.CustomerLon) {
		r.warn(model.Warning{
			DispatchID: d.ID,
			Tag:        model.WarnInvalidCoords,
			Message:    fmt.Sprintf("dispatch %s has invalid customer coordinates", d.ID),
		})
		r.unassign(d, model.ReasonNoFeasibleCandidate)
		return
	}

	pool := r.buildPool(d)
	for _, rl := range r.ladder {
		best := r.selectCandidate(d, pool, rl)
		if best == nil {
			continue
		}
		prov := model.Provenance{Kind: model.ProvenanceNormal}
		var warns []model.Warning
		if rl.Level > 0 {
			prov = model.Provenance{Kind: model.ProvenanceFallback, FallbackLevel: rl.Level}
			warns = append(warns, model.Warning{
				DispatchID:   d.ID,
				TechnicianID: best.tech.ID,
				Tag:          model.WarnFallback,
				Message:      fmt.Sprintf("FALLBACK: level %d", rl.Level),
			})
			r.publish(events.FallbackEvent{DispatchID: d.ID, Level: rl.Level})
		}
		warns = append(warns, r.exceptionWarnings(d, best)...)
		if err := r.commit(d, best, prov, warns); err != nil {
			// Invariant breach: surface loudly, abort this assignment and
			// keep going with the batch.
			r.log.Errorf("dispatch %s: %v", d.ID, err)
			r.warn(model.Warning{
				DispatchID:   d.ID,
				TechnicianID: best.tech.ID,
				Tag:          model.WarnHardConstraint,
				Message:      err.Error(),
			})
			r.unassign(d, model.ReasonNoFeasibleCandidate)
		}
		return
	}

	reason := model.ReasonNoFeasibleCandidate
	if !r.cal.AnyAvailable(d.Date()) {
		reason = model.ReasonNoTechnicianAvailableOnDate
	}
	r.unassign(d, reason)
}

// selectCandidate evaluates the pool at one relaxation stage and returns the
// max-score admissible candidate, or nil. Admissible means no violations, or
// only the violation a priority-based exception rule covers.
func (r *run) selectCandidate(d model.Dispatch, pool []*candidate, rl Relaxation) *candidate {
	for _, c := range pool {
		c.violations = r.eval.Evaluate(d, c, rl)
		c.admittedVia = ""
	}

	// Baseline for exceptions: the best success probability among candidates
	// passing all checks. With no clean alternative the baseline is zero, so
	// a lone violating candidate qualifies on its own probability.
	baseline := 0.0
	for _, c := range pool {
		if c.violations.empty() && c.pred.SuccessProbability > baseline {
			baseline = c.pred.SuccessProbability
		}
	}

	overlapPts := 0.0
	switch d.Priority {
	case model.PriorityCritical:
		overlapPts = r.cfg.OverlapPointsCritical
	case model.PriorityHigh:
		overlapPts = r.cfg.OverlapPointsHigh
	}

	var best *candidate
	for _, c := range pool {
		switch {
		case c.violations.empty():
		case overlapPts > 0 && c.violations.only(vBuffer):
			if (c.pred.SuccessProbability-baseline)*100 < overlapPts-1e-9 {
				continue
			}
			c.admittedVia = "overlap"
		case d.Priority == model.PriorityCritical && c.violations.only(vShift) && c.startsInShift && c.overtime > 0:
			if (c.pred.SuccessProbability-baseline)*100 < r.cfg.OvertimePointsCritical-1e-9 {
				continue
			}
			c.admittedVia = "overtime"
		default:
			continue
		}
		if best == nil || c.score > best.score {
			best = c
		}
		// Ties fall to the earlier candidate; the pool is in ascending
		// technician-ID order.
	}
	return best
}

// exceptionWarnings builds the warnings implied by the winning candidate's
// admission path and workload band.
func (r *run) exceptionWarnings(d model.Dispatch, c *candidate) []model.Warning {
	var warns []model.Warning
	switch c.admittedVia {
	case "overlap":
		warns = append(warns, model.Warning{
			DispatchID:   d.ID,
			TechnicianID: c.tech.ID,
			Tag:          model.WarnOverlapException,
			Message:      fmt.Sprintf("overlap allowed: success probability %.0f%% clears the exception threshold", c.pred.SuccessProbability*100),
		})
	case "overtime":
		warns = append(warns, model.Warning{
			DispatchID:   d.ID,
			TechnicianID: c.tech.ID,
			Tag:          model.WarnOvertime,
			Message:      fmt.Sprintf("appointment extends %s past shift end", c.overtime),
		})
	}
	if c.ratio > 1.0+1e-9 && capRelaxable(d.Priority) {
		warns = append(warns, model.Warning{
			DispatchID:   d.ID,
			TechnicianID: c.tech.ID,
			Tag:          model.WarnOverload,
			Message:      fmt.Sprintf("daily workload at %.0f%% of capacity", c.ratio*100),
		})
	}
	return warns
}

// commit updates the schedule state and assignment set for the winning
// candidate. The hard calendar check is re-verified here so no code path can
// slip an assignment past it.
func (r *run) commit(d model.Dispatch, c *candidate, prov model.Provenance, warns []model.Warning) error {
	if _, ok := r.eval.HasEntry(c.tech.ID, d.Date()); !ok {
		return fmt.Errorf("%w: technician %s has no availability on %s", ErrConstraintViolation, c.tech.ID, d.Date())
	}
	r.state.Commit(c.tech.ID, d.Date(), schedule.Appointment{
		DispatchID: d.ID,
		Start:      d.AppointmentStart,
		End:        d.AppointmentEnd(),
	}, c.pred.EstimatedDuration)

	asn := &model.Assignment{
		DispatchID:         d.ID,
		TechnicianID:       c.tech.ID,
		SuccessProbability: c.pred.SuccessProbability,
		EstimatedDuration:  c.pred.EstimatedDuration,
		DistanceKm:         c.distanceKm,
		SkillMatch:         c.skillMatch,
		Score:              c.score,
		Provenance:         prov,
		Warnings:           warns,
	}
	r.assignments[d.ID] = asn
	for _, w := range warns {
		r.warn(w)
	}
	r.publish(events.AssignmentEvent{DispatchID: d.ID, TechnicianID: c.tech.ID, Provenance: prov, Score: c.score})
	return nil
}

func (r *run) unassign(d model.Dispatch, reason model.UnassignedReason) {
	r.assignments[d.ID] = &model.Assignment{
		DispatchID: d.ID,
		Unassigned: true,
		Reason:     reason,
	}
	r.log.Warnf("dispatch %s left unassigned: %s", d.ID, reason)
	r.publish(events.UnassignedEvent{DispatchID: d.ID, Reason: reason})
}
