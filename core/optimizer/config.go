package optimizer

import "fmt"

// Weights are the objective term weights. They should sum to roughly 1 so
// scores stay comparable across runs.
type Weights struct {
	SuccessProbability float64 `json:"success_probability"`
	WorkloadBalance    float64 `json:"workload_balance"`
	Distance           float64 `json:"distance"`
	Overrun            float64 `json:"overrun"`
}

// Config defines the engine's constraint thresholds, objective weights and
// search bounds.
type Config struct {
	// BufferMinutes is the minimum distance between a new appointment start
	// and any committed appointment at normal strictness.
	BufferMinutes int `json:"buffer_minutes"`
	// RelaxedBufferMinutes is the buffer applied at fallback level 1.
	RelaxedBufferMinutes int `json:"relaxed_buffer_minutes"`
	// MaxConcurrent bounds overlapping committed appointments per
	// technician per date; RelaxedMaxConcurrent applies from level 3.
	MaxConcurrent        int `json:"max_concurrent"`
	RelaxedMaxConcurrent int `json:"relaxed_max_concurrent"`
	// OvertimeMinutes is granted to every priority at fallback level 4.
	OvertimeMinutes int `json:"overtime_minutes"`
	// WorkloadCap blocks Low/Normal dispatches at this ratio of daily
	// capacity. It is never relaxed for those priorities.
	WorkloadCap float64 `json:"workload_cap"`
	// PriorityWorkloadCap is the penalized allowance for High/Critical.
	PriorityWorkloadCap float64 `json:"priority_workload_cap"`
	// RelaxedWorkloadCap applies from fallback level 5 to priorities whose
	// cap is relaxable.
	RelaxedWorkloadCap float64 `json:"relaxed_workload_cap"`
	// Overlap exception thresholds in success-probability points.
	OverlapPointsCritical  float64 `json:"overlap_points_critical"`
	OverlapPointsHigh      float64 `json:"overlap_points_high"`
	OvertimePointsCritical float64 `json:"overtime_points_critical"`
	// TargetUtilization is the workload ratio at which the balance term
	// peaks. OverloadPenalty is the slope applied beyond 100%.
	TargetUtilization float64 `json:"target_utilization"`
	OverloadPenalty   float64 `json:"overload_penalty"`
	Weights           Weights `json:"weights"`
	// Passes bounds phase 2; a negative value disables it entirely.
	// ReassignThreshold selects low-score assignments for the
	// reassignment sweep.
	Passes            int     `json:"passes"`
	ReassignThreshold float64 `json:"reassign_threshold"`
}

// SetDefaults applies the standard operating thresholds.
func (c *Config) SetDefaults() {
	if c.BufferMinutes == 0 {
		c.BufferMinutes = 30
	}
	if c.RelaxedBufferMinutes == 0 {
		c.RelaxedBufferMinutes = 15
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 2
	}
	if c.RelaxedMaxConcurrent == 0 {
		c.RelaxedMaxConcurrent = 3
	}
	if c.OvertimeMinutes == 0 {
		c.OvertimeMinutes = 60
	}
	if c.WorkloadCap == 0 {
		c.WorkloadCap = 1.0
	}
	if c.PriorityWorkloadCap == 0 {
		c.PriorityWorkloadCap = 1.2
	}
	if c.RelaxedWorkloadCap == 0 {
		c.RelaxedWorkloadCap = 1.1
	}
	if c.OverlapPointsCritical == 0 {
		c.OverlapPointsCritical = 20
	}
	if c.OverlapPointsHigh == 0 {
		c.OverlapPointsHigh = 25
	}
	if c.OvertimePointsCritical == 0 {
		c.OvertimePointsCritical = 50
	}
	if c.TargetUtilization == 0 {
		c.TargetUtilization = 0.8
	}
	if c.OverloadPenalty == 0 {
		c.OverloadPenalty = 1.5
	}
	if c.Weights == (Weights{}) {
		c.Weights = Weights{SuccessProbability: 0.50, WorkloadBalance: 0.35, Distance: 0.10, Overrun: 0.05}
	}
	if c.Passes == 0 {
		c.Passes = 3
	}
	if c.ReassignThreshold == 0 {
		c.ReassignThreshold = 0.5
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.BufferMinutes < 0 || c.RelaxedBufferMinutes < 0 {
		return fmt.Errorf("buffer minutes must be non-negative")
	}
	if c.MaxConcurrent <= 0 || c.RelaxedMaxConcurrent < c.MaxConcurrent {
		return fmt.Errorf("concurrency caps must be positive and non-decreasing")
	}
	if c.WorkloadCap <= 0 || c.PriorityWorkloadCap < c.WorkloadCap {
		return fmt.Errorf("workload caps must be positive and non-decreasing")
	}
	if c.TargetUtilization <= 0 || c.TargetUtilization > 1 {
		return fmt.Errorf("target utilization must be in (0,1]")
	}
	return nil
}

// Relaxation is one stage of the fallback ladder. Stages are cumulative:
// each level keeps every relaxation granted by the previous ones.
type Relaxation struct {
	Level           int
	BufferMinutes   int
	MaxConcurrent   int
	OvertimeMinutes int
	// WorkloadCap applies to priorities whose cap is relaxable; the
	// Low/Normal 100% block is never overridden.
	WorkloadCap float64
	// IgnoreSoft disables every remaining soft check. The calendar
	// availability check still applies.
	IgnoreSoft bool
}

// Ladder returns the ordered relaxation stages L0..L6. Adding or removing a
// stage is a data change; the evaluator applies whichever stage it is given.
func (c Config) Ladder() []Relaxation {
	l0 := Relaxation{Level: 0, BufferMinutes: c.BufferMinutes, MaxConcurrent: c.MaxConcurrent, WorkloadCap: c.WorkloadCap}
	l1 := l0
	l1.Level, l1.BufferMinutes = 1, c.RelaxedBufferMinutes
	l2 := l1
	l2.Level, l2.BufferMinutes = 2, 0
	l3 := l2
	l3.Level, l3.MaxConcurrent = 3, c.RelaxedMaxConcurrent
	l4 := l3
	l4.Level, l4.OvertimeMinutes = 4, c.OvertimeMinutes
	l5 := l4
	l5.Level, l5.WorkloadCap = 5, c.RelaxedWorkloadCap
	l6 := l5
	l6.Level, l6.IgnoreSoft = 6, true
	return []Relaxation{l0, l1, l2, l3, l4, l5, l6}
}
