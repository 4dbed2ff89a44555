package schedule

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestState_CommitReleaseMinutes(t *testing.T) {
	s := NewState()
	s.Commit("t1", "2026-03-10", Appointment{DispatchID: "d1", Start: at(9, 0), End: at(10, 0)}, 60)
	s.Commit("t1", "2026-03-10", Appointment{DispatchID: "d2", Start: at(8, 0), End: at(8, 45)}, 45)

	if got := s.Minutes("t1", "2026-03-10"); got != 105 {
		t.Fatalf("expected 105 minutes, got %f", got)
	}
	appts := s.Appointments("t1", "2026-03-10")
	if len(appts) != 2 || appts[0].DispatchID != "d2" {
		t.Fatalf("appointments not ordered by start: %+v", appts)
	}

	if !s.Release("t1", "2026-03-10", "d1", 60) {
		t.Fatal("release should find d1")
	}
	if s.Release("t1", "2026-03-10", "d1", 60) {
		t.Fatal("double release should report absence")
	}
	if got := s.Minutes("t1", "2026-03-10"); got != 45 {
		t.Fatalf("expected 45 minutes after release, got %f", got)
	}
}

func TestState_CountOverlapping(t *testing.T) {
	s := NewState()
	s.Commit("t1", "2026-03-10", Appointment{DispatchID: "d1", Start: at(9, 0), End: at(10, 0)}, 60)
	s.Commit("t1", "2026-03-10", Appointment{DispatchID: "d2", Start: at(9, 30), End: at(10, 30)}, 60)

	if n := s.CountOverlapping("t1", "2026-03-10", at(9, 45), at(10, 15)); n != 2 {
		t.Fatalf("expected 2 overlaps, got %d", n)
	}
	// Touching intervals do not overlap.
	if n := s.CountOverlapping("t1", "2026-03-10", at(10, 30), at(11, 0)); n != 0 {
		t.Fatalf("expected 0 overlaps, got %d", n)
	}
}

func TestState_StartsWithinBuffer(t *testing.T) {
	s := NewState()
	s.Commit("t1", "2026-03-10", Appointment{DispatchID: "d1", Start: at(9, 0), End: at(10, 0)}, 60)

	if !s.StartsWithinBuffer("t1", "2026-03-10", at(10, 15), 30*time.Minute) {
		t.Fatal("start 15 minutes after end should violate a 30 minute buffer")
	}
	if s.StartsWithinBuffer("t1", "2026-03-10", at(10, 30), 30*time.Minute) {
		t.Fatal("start exactly at buffer distance should pass")
	}
	if s.StartsWithinBuffer("t1", "2026-03-10", at(10, 0), 0) {
		t.Fatal("zero buffer allows a start at the previous end")
	}
	if !s.StartsWithinBuffer("t1", "2026-03-10", at(9, 30), 0) {
		t.Fatal("zero buffer still rejects a start inside the interval")
	}
}

func TestState_DaysAreIndependent(t *testing.T) {
	s := NewState()
	s.Commit("t1", "2026-03-10", Appointment{DispatchID: "d1", Start: at(9, 0), End: at(10, 0)}, 60)
	if s.Minutes("t1", "2026-03-11") != 0 {
		t.Fatal("minutes must be tracked per date")
	}
	if s.Minutes("t2", "2026-03-10") != 0 {
		t.Fatal("minutes must be tracked per technician")
	}
}
