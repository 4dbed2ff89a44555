package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndelcourt/optidispatch/core/model"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "dispatches.csv",
		"dispatch_id,ticket_type,order_type,priority,required_skill,customer_latitude,customer_longitude,appointment_start,duration_min,assigned_technician_id\n"+
			"D-001,Trouble,Repair,Critical,fiber,48.85,2.35,2025-06-02T09:00:00Z,60,\n"+
			"D-002,Order,Install,Normal,copper,48.86,2.36,2025-06-02 10:30:00,45,T-002\n")
	writeFixture(t, dir, "technicians.csv",
		"technician_id,name,primary_skill,latitude,longitude\n"+
			"T-001,Alice,fiber,48.80,2.30\n"+
			"T-002,Bob,copper,48.90,2.40\n")
	writeFixture(t, dir, "calendar.csv",
		"technician_id,date,available,shift_start,shift_end,capacity_minutes\n"+
			"T-001,2025-06-02,true,2025-06-02T08:00:00Z,2025-06-02T17:00:00Z,480\n"+
			"T-002,2025-06-02,false,,,\n")
	return dir
}

func TestCSVSource_LoadDispatches(t *testing.T) {
	src, err := NewCSVSource(fixtureDir(t))
	require.NoError(t, err)

	ds, err := src.LoadDispatches(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 2)

	require.Equal(t, "D-001", ds[0].ID)
	require.Equal(t, model.PriorityCritical, ds[0].Priority)
	require.Equal(t, 60, ds[0].ExpectedDuration)
	require.Equal(t, "T-002", ds[1].AssignedTechnician)
	require.Equal(t, 30, ds[1].AppointmentStart.Minute())
}

func TestCSVSource_LoadTechnicians(t *testing.T) {
	src, err := NewCSVSource(fixtureDir(t))
	require.NoError(t, err)

	ts, err := src.LoadTechnicians(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 2)
	require.Equal(t, "fiber", ts[0].Skill)
	require.Equal(t, "Bob", ts[1].Name)
}

func TestCSVSource_LoadCalendarDropsUnavailable(t *testing.T) {
	src, err := NewCSVSource(fixtureDir(t))
	require.NoError(t, err)

	cal, err := src.LoadCalendar(context.Background())
	require.NoError(t, err)

	_, ok := cal.Entry("T-001", "2025-06-02")
	require.True(t, ok)
	_, ok = cal.Entry("T-002", "2025-06-02")
	require.False(t, ok, "unavailable entries must not be loaded")
}

func TestCSVSource_BadPriority(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "dispatches.csv",
		"dispatch_id,ticket_type,order_type,priority,required_skill,customer_latitude,customer_longitude,appointment_start,duration_min\n"+
			"D-001,Trouble,Repair,Urgent,fiber,48.85,2.35,2025-06-02T09:00:00Z,60\n")
	src, err := NewCSVSource(dir)
	require.NoError(t, err)
	_, err = src.LoadDispatches(context.Background())
	require.Error(t, err)
}

func TestCSVSource_MissingDirectory(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
