// Package schedule tracks the mutable per-technician, per-day record of
// committed appointments and accumulated workload. The state is derivable
// from the assignment set; it is kept materialized so feasibility checks stay
// O(appointments per day).
package schedule

import (
	"sort"
	"time"
)

// Appointment is one committed interval on a technician's day.
type Appointment struct {
	DispatchID string
	Start      time.Time
	End        time.Time
}

type day struct {
	appointments []Appointment
	minutes      float64
}

// State holds committed appointments keyed by technician and date. It is not
// safe for concurrent mutation; commits must be serialized by the caller.
// Concurrent reads are safe while no commit is in flight.
type State struct {
	days map[string]map[string]*day
}

// NewState returns an empty schedule state for one optimization run.
func NewState() *State {
	return &State{days: make(map[string]map[string]*day)}
}

func (s *State) day(technicianID, date string) *day {
	d, ok := s.days[technicianID][date]
	if !ok {
		return nil
	}
	return d
}

func (s *State) ensureDay(technicianID, date string) *day {
	byDate, ok := s.days[technicianID]
	if !ok {
		byDate = make(map[string]*day)
		s.days[technicianID] = byDate
	}
	d, ok := byDate[date]
	if !ok {
		d = &day{}
		byDate[date] = d
	}
	return d
}

// Commit adds an appointment and its workload minutes, keeping the day's
// appointments ordered by start time then dispatch ID.
func (s *State) Commit(technicianID, date string, appt Appointment, minutes float64) {
	d := s.ensureDay(technicianID, date)
	d.appointments = append(d.appointments, appt)
	sort.Slice(d.appointments, func(i, j int) bool {
		a, b := d.appointments[i], d.appointments[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.DispatchID < b.DispatchID
	})
	d.minutes += minutes
}

// Release removes the appointment for the dispatch and subtracts its minutes.
// It reports whether the appointment was present.
func (s *State) Release(technicianID, date, dispatchID string, minutes float64) bool {
	d := s.day(technicianID, date)
	if d == nil {
		return false
	}
	for i, a := range d.appointments {
		if a.DispatchID == dispatchID {
			d.appointments = append(d.appointments[:i], d.appointments[i+1:]...)
			d.minutes -= minutes
			if d.minutes < 0 {
				d.minutes = 0
			}
			return true
		}
	}
	return false
}

// Minutes returns the cumulative scheduled minutes for the technician's day.
func (s *State) Minutes(technicianID, date string) float64 {
	d := s.day(technicianID, date)
	if d == nil {
		return 0
	}
	return d.minutes
}

// Appointments returns a copy of the day's committed appointments in order.
func (s *State) Appointments(technicianID, date string) []Appointment {
	d := s.day(technicianID, date)
	if d == nil {
		return nil
	}
	out := make([]Appointment, len(d.appointments))
	copy(out, d.appointments)
	return out
}

// CountOverlapping returns how many committed appointments overlap the
// candidate interval [start, end).
func (s *State) CountOverlapping(technicianID, date string, start, end time.Time) int {
	d := s.day(technicianID, date)
	if d == nil {
		return 0
	}
	n := 0
	for _, a := range d.appointments {
		if start.Before(a.End) && a.Start.Before(end) {
			n++
		}
	}
	return n
}

// StartsWithinBuffer reports whether the candidate start time falls within
// buffer minutes of an existing committed appointment, i.e. inside
// [appt.Start-buffer, appt.End+buffer).
func (s *State) StartsWithinBuffer(technicianID, date string, start time.Time, buffer time.Duration) bool {
	d := s.day(technicianID, date)
	if d == nil {
		return false
	}
	for _, a := range d.appointments {
		if !start.Before(a.Start.Add(-buffer)) && start.Before(a.End.Add(buffer)) {
			return true
		}
	}
	return false
}
