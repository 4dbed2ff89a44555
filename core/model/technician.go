package model

import (
	"fmt"
	"time"
)

// Technician holds the immutable attributes of a field technician. The
// per-day schedule is tracked separately as mutable state.
type Technician struct {
	ID    string
	Name  string
	Skill string
	Lat   float64
	Lon   float64
}

// CalendarEntry declares a technician's availability for one calendar day.
// Only Available=true entries are loaded into the working set; a technician
// with no entry for a date is unavailable that date by construction.
type CalendarEntry struct {
	TechnicianID    string
	Date            string // "2006-01-02"
	Available       bool
	ShiftStart      time.Time
	ShiftEnd        time.Time
	CapacityMinutes int
}

// ShiftMinutes returns the length of the declared shift window.
func (e CalendarEntry) ShiftMinutes() int {
	return int(e.ShiftEnd.Sub(e.ShiftStart) / time.Minute)
}

// Validate checks the entry is internally consistent.
func (e CalendarEntry) Validate() error {
	if e.TechnicianID == "" {
		return fmt.Errorf("calendar entry: technician id is required")
	}
	if !e.ShiftEnd.After(e.ShiftStart) {
		return fmt.Errorf("calendar entry %s/%s: shift end must follow start", e.TechnicianID, e.Date)
	}
	return nil
}

// Calendar indexes Available=true entries by technician and date.
type Calendar struct {
	entries map[string]map[string]CalendarEntry
}

// NewCalendar builds a calendar from loaded entries, dropping any marked
// unavailable so that absence and unavailability are indistinguishable.
func NewCalendar(entries []CalendarEntry) *Calendar {
	c := &Calendar{entries: make(map[string]map[string]CalendarEntry)}
	for _, e := range entries {
		if !e.Available {
			continue
		}
		days, ok := c.entries[e.TechnicianID]
		if !ok {
			days = make(map[string]CalendarEntry)
			c.entries[e.TechnicianID] = days
		}
		days[e.Date] = e
	}
	return c
}

// Entry returns the availability entry for a technician on a date.
func (c *Calendar) Entry(technicianID, date string) (CalendarEntry, bool) {
	e, ok := c.entries[technicianID][date]
	return e, ok
}

// AnyAvailable reports whether at least one technician has an entry for the
// date. Used to distinguish NoTechnicianAvailableOnDate from other failures.
func (c *Calendar) AnyAvailable(date string) bool {
	for _, days := range c.entries {
		if _, ok := days[date]; ok {
			return true
		}
	}
	return false
}
