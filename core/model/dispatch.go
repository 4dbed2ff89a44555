package model

import (
	"fmt"
	"time"
)

// Priority ranks a dispatch by operational urgency.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// ParsePriority converts the textual priority used in dispatch records.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "Low":
		return PriorityLow, nil
	case "Normal":
		return PriorityNormal, nil
	case "High":
		return PriorityHigh, nil
	case "Critical":
		return PriorityCritical, nil
	}
	return PriorityNormal, fmt.Errorf("unknown priority %q", s)
}

// String returns the canonical textual form of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return "Normal"
	}
}

// Rank orders priorities for processing: Critical > High > Normal > Low.
func (p Priority) Rank() int { return int(p) }

// Dispatch is a service request to be assigned to a technician. Records are
// immutable once loaded; the optimizer reads them throughout both phases.
type Dispatch struct {
	ID                 string
	TicketType         string // "Order" or "Trouble"
	OrderType          string
	Priority           Priority
	RequiredSkill      string
	CustomerLat        float64
	CustomerLon        float64
	AppointmentStart   time.Time
	ExpectedDuration   int    // minutes
	AssignedTechnician string // pre-existing assignment, empty if none
}

// Date returns the calendar day key of the appointment.
func (d Dispatch) Date() string {
	return d.AppointmentStart.Format("2006-01-02")
}

// AppointmentEnd returns the expected end of the appointment.
func (d Dispatch) AppointmentEnd() time.Time {
	return d.AppointmentStart.Add(time.Duration(d.ExpectedDuration) * time.Minute)
}

// Validate checks that the dispatch record is usable by the optimizer.
func (d Dispatch) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("dispatch id is required")
	}
	if d.ExpectedDuration <= 0 {
		return fmt.Errorf("dispatch %s: expected duration must be positive", d.ID)
	}
	if d.AppointmentStart.IsZero() {
		return fmt.Errorf("dispatch %s: appointment start is required", d.ID)
	}
	return nil
}
