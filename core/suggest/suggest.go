// Package suggest ranks candidate technicians per dispatch without mutating
// any schedule state. It backs the advisory report, not the optimizer.
package suggest

import (
	"sort"

	"github.com/ndelcourt/optidispatch/core/geo"
	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/prediction"
)

// Option is one ranked technician choice for a dispatch.
type Option struct {
	DispatchID         string
	Rank               int
	TechnicianID       string
	TechnicianName     string
	TechnicianSkill    string
	DistanceKm         float64
	SkillMatch         bool
	SuccessProbability float64
	EstimatedDuration  float64
	Rating             float64
}

// Params controls the report shape.
type Params struct {
	TopN           int
	OnlyUnassigned bool
}

// SetDefaults fills optional fields.
func (p *Params) SetDefaults() {
	if p.TopN <= 0 {
		p.TopN = 5
	}
}

// Rank evaluates every technician with an availability entry on the dispatch
// date and returns the top options per dispatch. The rating favors success
// probability, then skill match, then proximity and remaining capacity.
func Rank(dispatches []model.Dispatch, technicians []model.Technician, cal *model.Calendar, est prediction.Estimator, p Params) []Option {
	p.SetDefaults()

	techs := append([]model.Technician(nil), technicians...)
	sort.Slice(techs, func(i, j int) bool { return techs[i].ID < techs[j].ID })

	maxCapacity := 0
	for _, t := range techs {
		for _, d := range dispatches {
			if e, ok := cal.Entry(t.ID, d.Date()); ok {
				c := e.CapacityMinutes
				if c <= 0 {
					c = e.ShiftMinutes()
				}
				if c > maxCapacity {
					maxCapacity = c
				}
			}
		}
	}

	var out []Option
	for _, d := range dispatches {
		if p.OnlyUnassigned && d.AssignedTechnician != "" {
			continue
		}
		if !geo.Valid(d.CustomerLat, d.CustomerLon) {
			continue
		}
		options := rankOne(d, techs, cal, est, maxCapacity)
		if len(options) > p.TopN {
			options = options[:p.TopN]
		}
		for i := range options {
			options[i].Rank = i + 1
		}
		out = append(out, options...)
	}
	return out
}

func rankOne(d model.Dispatch, techs []model.Technician, cal *model.Calendar, est prediction.Estimator, maxCapacity int) []Option {
	var options []Option
	maxKm := 0.0
	for _, t := range techs {
		entry, ok := cal.Entry(t.ID, d.Date())
		if !ok || !geo.Valid(t.Lat, t.Lon) {
			continue
		}
		dist := geo.Distance(t.Lat, t.Lon, d.CustomerLat, d.CustomerLon)
		if dist > maxKm {
			maxKm = dist
		}
		match := t.Skill == d.RequiredSkill
		pred := est.Estimate(prediction.Features{
			TechnicianID:     t.ID,
			TicketType:       d.TicketType,
			OrderType:        d.OrderType,
			Priority:         d.Priority,
			RequiredSkill:    d.RequiredSkill,
			TechnicianSkill:  t.Skill,
			DistanceKm:       dist,
			ExpectedDuration: float64(d.ExpectedDuration),
			SkillMatch:       match,
		})
		capacity := entry.CapacityMinutes
		if capacity <= 0 {
			capacity = entry.ShiftMinutes()
		}
		opt := Option{
			DispatchID:         d.ID,
			TechnicianID:       t.ID,
			TechnicianName:     t.Name,
			TechnicianSkill:    t.Skill,
			DistanceKm:         dist,
			SkillMatch:         match,
			SuccessProbability: pred.SuccessProbability,
			EstimatedDuration:  pred.EstimatedDuration,
		}
		opt.Rating = rating(opt, capacity, maxCapacity)
		options = append(options, opt)
	}
	// maxKm is only known after the sweep, so proximity joins the rating here.
	for i := range options {
		if maxKm > 0 {
			options[i].Rating += (1 - options[i].DistanceKm/maxKm) * 20
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Rating != options[j].Rating {
			return options[i].Rating > options[j].Rating
		}
		return options[i].TechnicianID < options[j].TechnicianID
	})
	return options
}

func rating(o Option, capacity, maxCapacity int) float64 {
	r := o.SuccessProbability * 100
	if o.SkillMatch {
		r += 30
	}
	if maxCapacity > 0 {
		r += float64(capacity) / float64(maxCapacity) * 10
	}
	return r
}
