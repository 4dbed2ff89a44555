package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/schedule"
)

func at(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

const testDate = "2025-06-02"

func shiftEntry(techID string) model.CalendarEntry {
	return model.CalendarEntry{
		TechnicianID:    techID,
		Date:            testDate,
		Available:       true,
		ShiftStart:      at(8, 0),
		ShiftEnd:        at(17, 0),
		CapacityMinutes: 480,
	}
}

func testEvaluator(state *schedule.State, entries ...model.CalendarEntry) *Evaluator {
	var cfg Config
	cfg.SetDefaults()
	return NewEvaluator(cfg, model.NewCalendar(entries), state)
}

func testDispatch(priority model.Priority, start time.Time, duration int) model.Dispatch {
	return model.Dispatch{
		ID:               "D-001",
		Priority:         priority,
		RequiredSkill:    "fiber",
		AppointmentStart: start,
		ExpectedDuration: duration,
	}
}

func candidateFor(entry model.CalendarEntry, ratio float64) *candidate {
	return &candidate{
		tech:  model.Technician{ID: entry.TechnicianID, Skill: "fiber"},
		entry: entry,
		ratio: ratio,
	}
}

func TestLadder_CumulativeStages(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	ladder := cfg.Ladder()
	require.Len(t, ladder, 7)

	require.Equal(t, 30, ladder[0].BufferMinutes)
	require.Equal(t, 15, ladder[1].BufferMinutes)
	require.Equal(t, 0, ladder[2].BufferMinutes)
	require.Equal(t, 3, ladder[3].MaxConcurrent)
	require.Equal(t, 60, ladder[4].OvertimeMinutes)
	require.InDelta(t, 1.1, ladder[5].WorkloadCap, 1e-9)
	require.True(t, ladder[6].IgnoreSoft)

	// Each stage keeps every earlier relaxation.
	require.Equal(t, 0, ladder[4].BufferMinutes)
	require.Equal(t, 3, ladder[5].MaxConcurrent)
	require.Equal(t, 60, ladder[6].OvertimeMinutes)
}

func TestEvaluate_CleanCandidate(t *testing.T) {
	state := schedule.NewState()
	entry := shiftEntry("T-001")
	eval := testEvaluator(state, entry)
	d := testDispatch(model.PriorityNormal, at(9, 0), 60)
	c := candidateFor(entry, 0.5)

	set := eval.Evaluate(d, c, eval.cfg.Ladder()[0])
	require.True(t, set.empty())
	require.True(t, c.startsInShift)
}

func TestEvaluate_BufferViolationClearsWithLadder(t *testing.T) {
	state := schedule.NewState()
	entry := shiftEntry("T-001")
	eval := testEvaluator(state, entry)
	state.Commit("T-001", testDate, schedule.Appointment{DispatchID: "D-000", Start: at(9, 0), End: at(10, 0)}, 60)

	// 10:15 start is 15 minutes after the committed end.
	d := testDispatch(model.PriorityNormal, at(10, 15), 60)
	c := candidateFor(entry, 0.5)
	ladder := eval.cfg.Ladder()

	require.True(t, eval.Evaluate(d, c, ladder[0]).only(vBuffer))
	require.True(t, eval.Evaluate(d, c, ladder[1]).empty())
}

func TestEvaluate_ConcurrencyCap(t *testing.T) {
	state := schedule.NewState()
	entry := shiftEntry("T-001")
	eval := testEvaluator(state, entry)
	state.Commit("T-001", testDate, schedule.Appointment{DispatchID: "D-000", Start: at(9, 0), End: at(10, 0)}, 60)
	state.Commit("T-001", testDate, schedule.Appointment{DispatchID: "D-001", Start: at(9, 0), End: at(10, 0)}, 60)

	d := testDispatch(model.PriorityNormal, at(9, 30), 30)
	d.ID = "D-002"
	c := candidateFor(entry, 0.5)
	ladder := eval.cfg.Ladder()

	require.True(t, eval.Evaluate(d, c, ladder[2]).has(vConcurrency))
	// Level 3 raises the cap to three overlapping appointments.
	require.False(t, eval.Evaluate(d, c, ladder[3]).has(vConcurrency))
}

func TestEvaluate_ShiftContainmentAndOvertime(t *testing.T) {
	state := schedule.NewState()
	entry := shiftEntry("T-001")
	eval := testEvaluator(state, entry)
	ladder := eval.cfg.Ladder()

	// Ends 45 minutes past the 17:00 shift end.
	d := testDispatch(model.PriorityCritical, at(16, 45), 60)
	c := candidateFor(entry, 0.5)
	require.True(t, eval.Evaluate(d, c, ladder[0]).only(vShift))
	require.True(t, c.startsInShift)
	require.Equal(t, 45*time.Minute, c.overtime)

	// Level 4 grants up to 60 minutes of overtime.
	require.True(t, eval.Evaluate(d, c, ladder[4]).empty())

	// Starting before the shift is never overtime-admissible.
	early := testDispatch(model.PriorityCritical, at(7, 0), 60)
	ec := candidateFor(entry, 0.5)
	require.True(t, eval.Evaluate(early, ec, ladder[0]).only(vShift))
	require.False(t, ec.startsInShift)
	require.True(t, eval.Evaluate(early, ec, ladder[4]).has(vShift))
}

func TestEvaluate_LowNormalCapIsHardEverywhere(t *testing.T) {
	state := schedule.NewState()
	entry := shiftEntry("T-001")
	eval := testEvaluator(state, entry)
	ladder := eval.cfg.Ladder()

	d := testDispatch(model.PriorityNormal, at(9, 0), 60)
	c := candidateFor(entry, 1.05)
	for _, rl := range ladder {
		require.True(t, eval.Evaluate(d, c, rl).has(vWorkload), "level %d must keep the cap", rl.Level)
	}
}

func TestEvaluate_HighPriorityCapAllowance(t *testing.T) {
	state := schedule.NewState()
	entry := shiftEntry("T-001")
	eval := testEvaluator(state, entry)
	ladder := eval.cfg.Ladder()

	d := testDispatch(model.PriorityHigh, at(9, 0), 60)
	within := candidateFor(entry, 1.15)
	require.True(t, eval.Evaluate(d, within, ladder[0]).empty(), "within the 120%% allowance")

	beyond := candidateFor(entry, 1.3)
	require.True(t, eval.Evaluate(d, beyond, ladder[0]).has(vWorkload))
	// IgnoreSoft waives the cap for relaxable priorities only.
	require.True(t, eval.Evaluate(d, beyond, ladder[6]).empty())
}
