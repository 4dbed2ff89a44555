package optimizer

import (
	"fmt"
	"sort"

	"github.com/ndelcourt/optidispatch/core/events"
	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/schedule"
)

// PassStat reports the accepted moves of one post-optimization pass.
type PassStat struct {
	Pass          int
	Swaps         int
	Reassignments int
}

// optimize runs bounded passes of pairwise swaps then single reassignments
// over the phase-1 result. A pass with zero accepted moves stops the search
// early; running another pass after convergence is a no-op.
func (r *run) optimize() []PassStat {
	var stats []PassStat
	for pass := 1; pass <= r.cfg.Passes; pass++ {
		swaps := r.swapPass()
		moves := r.reassignPass()
		stats = append(stats, PassStat{Pass: pass, Swaps: swaps, Reassignments: moves})
		r.publish(events.PassEvent{Pass: pass, Swaps: swaps, Reassignments: moves})
		if swaps+moves == 0 {
			break
		}
	}
	return stats
}

// sortedByUrgency returns the assignments matching keep, ordered by dispatch
// priority descending then dispatch ID.
func (r *run) sortedByUrgency(keep func(*model.Assignment) bool) []*model.Assignment {
	var out []*model.Assignment
	for _, a := range r.assignments {
		if !a.Unassigned && keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := r.dispatches[out[i].DispatchID]
		dj := r.dispatches[out[j].DispatchID]
		if di.Priority.Rank() != dj.Priority.Rank() {
			return di.Priority.Rank() > dj.Priority.Rank()
		}
		return di.ID < dj.ID
	})
	return out
}

// swapPass tries exchanging technicians between Critical/High or warned
// assignments and their same-skill peers. A swap is accepted only when both
// sides stay feasible at normal strictness and the summed score strictly
// increases.
func (r *run) swapPass() int {
	focus := r.sortedByUrgency(func(a *model.Assignment) bool {
		p := r.dispatches[a.DispatchID].Priority
		return p == model.PriorityCritical || p == model.PriorityHigh || len(a.Warnings) > 0
	})
	peers := r.sortedByUrgency(func(a *model.Assignment) bool { return true })

	accepted := 0
	for _, a := range focus {
		if a.Unassigned {
			continue
		}
		for _, b := range peers {
			if b.Unassigned || a.DispatchID == b.DispatchID || a.TechnicianID == b.TechnicianID {
				continue
			}
			if r.dispatches[a.DispatchID].RequiredSkill != r.dispatches[b.DispatchID].RequiredSkill {
				continue
			}
			if r.trySwap(a, b) {
				accepted++
			}
		}
	}
	return accepted
}

// trySwap releases both assignments, evaluates the crossed pairings and
// either commits the swap or restores the originals. State and both
// assignment records change together or not at all.
func (r *run) trySwap(a, b *model.Assignment) bool {
	dA := r.dispatches[a.DispatchID]
	dB := r.dispatches[b.DispatchID]
	r.release(dA, a)
	r.release(dB, b)

	level0 := r.ladder[0]
	cA := r.pairCandidate(dA, r.techByID[b.TechnicianID], level0)
	cB := r.pairCandidate(dB, r.techByID[a.TechnicianID], level0)
	if cA == nil || cB == nil || cA.score+cB.score <= a.Score+b.Score+1e-9 {
		r.restore(dA, a)
		r.restore(dB, b)
		return false
	}

	r.apply(dA, a, cA, model.Provenance{Kind: model.ProvenanceSwap})
	r.apply(dB, b, cB, model.Provenance{Kind: model.ProvenanceSwap})
	return true
}

// reassignPass moves warned or low-score assignments to a strictly
// higher-scoring feasible technician when one exists.
func (r *run) reassignPass() int {
	targets := r.sortedByUrgency(func(a *model.Assignment) bool {
		return len(a.Warnings) > 0 || a.Score < r.cfg.ReassignThreshold
	})

	accepted := 0
	level0 := r.ladder[0]
	for _, a := range targets {
		if a.Unassigned {
			continue
		}
		d := r.dispatches[a.DispatchID]
		r.release(d, a)

		var best *candidate
		for _, t := range r.techs {
			if t.ID == a.TechnicianID {
				continue
			}
			c := r.pairCandidate(d, t, level0)
			if c == nil {
				continue
			}
			if best == nil || c.score > best.score+1e-12 {
				best = c
			}
		}
		if best == nil || best.score <= a.Score+1e-9 {
			r.restore(d, a)
			continue
		}
		r.apply(d, a, best, model.Provenance{Kind: model.ProvenanceReassignment})
		accepted++
	}
	return accepted
}

// release removes the assignment's committed slot from the schedule state.
func (r *run) release(d model.Dispatch, a *model.Assignment) {
	r.state.Release(a.TechnicianID, d.Date(), d.ID, a.EstimatedDuration)
}

// restore recommits the assignment exactly as it was.
func (r *run) restore(d model.Dispatch, a *model.Assignment) {
	r.state.Commit(a.TechnicianID, d.Date(), schedule.Appointment{
		DispatchID: d.ID,
		Start:      d.AppointmentStart,
		End:        d.AppointmentEnd(),
	}, a.EstimatedDuration)
}

// apply commits the candidate and overwrites the assignment record. Phase-2
// moves drop phase-1 warnings: the new placement passed every check at
// normal strictness. An overload note is kept when the new technician lands
// beyond 100% (only possible for High/Critical).
func (r *run) apply(d model.Dispatch, a *model.Assignment, c *candidate, prov model.Provenance) {
	r.state.Commit(c.tech.ID, d.Date(), schedule.Appointment{
		DispatchID: d.ID,
		Start:      d.AppointmentStart,
		End:        d.AppointmentEnd(),
	}, c.pred.EstimatedDuration)

	var warns []model.Warning
	if c.ratio > 1.0+1e-9 && capRelaxable(d.Priority) {
		w := model.Warning{
			DispatchID:   d.ID,
			TechnicianID: c.tech.ID,
			Tag:          model.WarnOverload,
			Message:      fmt.Sprintf("daily workload at %.0f%% of capacity", c.ratio*100),
		}
		warns = append(warns, w)
		r.warn(w)
	}

	a.TechnicianID = c.tech.ID
	a.SuccessProbability = c.pred.SuccessProbability
	a.EstimatedDuration = c.pred.EstimatedDuration
	a.DistanceKm = c.distanceKm
	a.SkillMatch = c.skillMatch
	a.Score = c.score
	a.Provenance = prov
	a.Warnings = warns
	r.publish(events.AssignmentEvent{DispatchID: d.ID, TechnicianID: c.tech.ID, Provenance: prov, Score: c.score})
}
