package optimizer

import (
	"sync"
	"time"

	"github.com/ndelcourt/optidispatch/core/geo"
	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/prediction"
)

// candidate is one technician considered for a dispatch, with the oracle
// estimate and derived signals computed against the current schedule state.
type candidate struct {
	tech       model.Technician
	entry      model.CalendarEntry
	distanceKm float64
	skillMatch bool
	pred       prediction.Prediction
	ratio      float64 // projected workload ratio including this candidate
	score      float64

	startsInShift bool
	overtime      time.Duration
	violations    violationSet
	admittedVia   string // "", "overlap" or "overtime"
}

// newCandidate computes the estimate and projected workload for one pairing.
// It is called concurrently across the candidate set; it only reads the
// schedule state.
func (r *run) newCandidate(d model.Dispatch, t model.Technician, entry model.CalendarEntry) *candidate {
	if !geo.Valid(t.Lat, t.Lon) {
		r.log.Debugf("excluding technician %s: invalid coordinates", t.ID)
		return nil
	}
	dist := geo.Distance(d.CustomerLat, d.CustomerLon, t.Lat, t.Lon)
	match := d.RequiredSkill == t.Skill

	capacity := float64(entry.CapacityMinutes)
	if capacity <= 0 {
		capacity = float64(entry.ShiftMinutes())
	}
	committed := r.state.Minutes(t.ID, d.Date())

	feat := prediction.Features{
		TechnicianID:     t.ID,
		TicketType:       d.TicketType,
		OrderType:        d.OrderType,
		Priority:         d.Priority,
		RequiredSkill:    d.RequiredSkill,
		TechnicianSkill:  t.Skill,
		DistanceKm:       dist,
		ExpectedDuration: float64(d.ExpectedDuration),
		SkillMatch:       match,
	}
	if capacity > 0 {
		feat.WorkloadRatio = (committed + float64(d.ExpectedDuration)) / capacity
	}
	pred := r.est.Estimate(feat)
	if pred.EstimatedDuration < 0 {
		pred.EstimatedDuration = 0
	}

	ratio := 0.0
	if capacity > 0 {
		ratio = (committed + pred.EstimatedDuration) / capacity
	}
	return &candidate{
		tech:       t,
		entry:      entry,
		distanceKm: dist,
		skillMatch: match,
		pred:       pred,
		ratio:      ratio,
	}
}

// buildPool evaluates every technician with an Available=true calendar entry
// for the dispatch date. Estimation is fanned out across the candidate set
// with a barrier before selection so commits never race with scoring. The
// pool keeps technician-ID order for deterministic tie-breaking.
func (r *run) buildPool(d model.Dispatch) []*candidate {
	date := d.Date()
	slots := make([]*candidate, len(r.techs))
	var wg sync.WaitGroup
	for i, t := range r.techs {
		entry, ok := r.eval.HasEntry(t.ID, date)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, t model.Technician, entry model.CalendarEntry) {
			defer wg.Done()
			slots[i] = r.newCandidate(d, t, entry)
		}(i, t, entry)
	}
	wg.Wait()

	pool := make([]*candidate, 0, len(slots))
	maxKm := 0.0
	for _, c := range slots {
		if c == nil {
			continue
		}
		pool = append(pool, c)
		if c.distanceKm > maxKm {
			maxKm = c.distanceKm
		}
	}
	r.maxKm[d.ID] = maxKm
	for _, c := range pool {
		c.score = r.scorer.Score(c.pred.SuccessProbability, c.ratio, c.distanceKm, maxKm,
			c.pred.EstimatedDuration, float64(d.ExpectedDuration))
	}
	return pool
}

// pairCandidate evaluates a single dispatch/technician pairing against the
// current state at the given relaxation, with no exception rules. Used by
// phase 2, which never relaxes. Returns nil when infeasible.
func (r *run) pairCandidate(d model.Dispatch, t model.Technician, rl Relaxation) *candidate {
	entry, ok := r.eval.HasEntry(t.ID, d.Date())
	if !ok {
		return nil
	}
	if !geo.Valid(d.CustomerLat, d.CustomerLon) {
		return nil
	}
	c := r.newCandidate(d, t, entry)
	if c == nil {
		return nil
	}
	c.score = r.scorer.Score(c.pred.SuccessProbability, c.ratio, c.distanceKm, r.maxKm[d.ID],
		c.pred.EstimatedDuration, float64(d.ExpectedDuration))
	if !r.eval.Evaluate(d, c, rl).empty() {
		return nil
	}
	return c
}
