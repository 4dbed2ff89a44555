package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ndelcourt/optidispatch/core/model"
	coresource "github.com/ndelcourt/optidispatch/core/source"
)

// CSVSource reads the input collections from a directory of CSV files:
// dispatches.csv, technicians.csv and calendar.csv. Intended for local runs
// and fixtures.
type CSVSource struct {
	dir string
}

var _ coresource.Source = (*CSVSource)(nil)

// NewCSVSource validates that the directory exists.
func NewCSVSource(dir string) (*CSVSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("csv source: %s is not a directory", dir)
	}
	return &CSVSource{dir: dir}, nil
}

// LoadDispatches reads dispatches.csv. Expected header:
// dispatch_id,ticket_type,order_type,priority,required_skill,
// customer_latitude,customer_longitude,appointment_start,duration_min[,assigned_technician_id]
func (s *CSVSource) LoadDispatches(ctx context.Context) ([]model.Dispatch, error) {
	rows, header, err := s.read("dispatches.csv")
	if err != nil {
		return nil, err
	}
	var out []model.Dispatch
	for i, row := range rows {
		get := fieldGetter(header, row)
		priority, err := model.ParsePriority(get("priority"))
		if err != nil {
			return nil, fmt.Errorf("dispatches.csv row %d: %w", i+2, err)
		}
		lat, err := parseFloat(get("customer_latitude"))
		if err != nil {
			return nil, fmt.Errorf("dispatches.csv row %d: latitude: %w", i+2, err)
		}
		lon, err := parseFloat(get("customer_longitude"))
		if err != nil {
			return nil, fmt.Errorf("dispatches.csv row %d: longitude: %w", i+2, err)
		}
		start, err := parseTime(get("appointment_start"))
		if err != nil {
			return nil, fmt.Errorf("dispatches.csv row %d: appointment_start: %w", i+2, err)
		}
		dur, err := strconv.Atoi(get("duration_min"))
		if err != nil {
			return nil, fmt.Errorf("dispatches.csv row %d: duration_min: %w", i+2, err)
		}
		out = append(out, model.Dispatch{
			ID:                 get("dispatch_id"),
			TicketType:         get("ticket_type"),
			OrderType:          get("order_type"),
			Priority:           priority,
			RequiredSkill:      get("required_skill"),
			CustomerLat:        lat,
			CustomerLon:        lon,
			AppointmentStart:   start,
			ExpectedDuration:   dur,
			AssignedTechnician: get("assigned_technician_id"),
		})
	}
	return out, nil
}

// LoadTechnicians reads technicians.csv. Expected header:
// technician_id,name,primary_skill,latitude,longitude
func (s *CSVSource) LoadTechnicians(ctx context.Context) ([]model.Technician, error) {
	rows, header, err := s.read("technicians.csv")
	if err != nil {
		return nil, err
	}
	var out []model.Technician
	for i, row := range rows {
		get := fieldGetter(header, row)
		lat, err := parseFloat(get("latitude"))
		if err != nil {
			return nil, fmt.Errorf("technicians.csv row %d: latitude: %w", i+2, err)
		}
		lon, err := parseFloat(get("longitude"))
		if err != nil {
			return nil, fmt.Errorf("technicians.csv row %d: longitude: %w", i+2, err)
		}
		out = append(out, model.Technician{
			ID:    get("technician_id"),
			Name:  get("name"),
			Skill: get("primary_skill"),
			Lat:   lat,
			Lon:   lon,
		})
	}
	return out, nil
}

// LoadCalendar reads calendar.csv. Expected header:
// technician_id,date,available,shift_start,shift_end,capacity_minutes
func (s *CSVSource) LoadCalendar(ctx context.Context) (*model.Calendar, error) {
	rows, header, err := s.read("calendar.csv")
	if err != nil {
		return nil, err
	}
	var entries []model.CalendarEntry
	for i, row := range rows {
		get := fieldGetter(header, row)
		available, err := strconv.ParseBool(get("available"))
		if err != nil {
			return nil, fmt.Errorf("calendar.csv row %d: available: %w", i+2, err)
		}
		e := model.CalendarEntry{
			TechnicianID: get("technician_id"),
			Date:         get("date"),
			Available:    available,
		}
		if available {
			if e.ShiftStart, err = parseTime(get("shift_start")); err != nil {
				return nil, fmt.Errorf("calendar.csv row %d: shift_start: %w", i+2, err)
			}
			if e.ShiftEnd, err = parseTime(get("shift_end")); err != nil {
				return nil, fmt.Errorf("calendar.csv row %d: shift_end: %w", i+2, err)
			}
			if cap := get("capacity_minutes"); cap != "" {
				if e.CapacityMinutes, err = strconv.Atoi(cap); err != nil {
					return nil, fmt.Errorf("calendar.csv row %d: capacity_minutes: %w", i+2, err)
				}
			}
			if err := e.Validate(); err != nil {
				return nil, fmt.Errorf("calendar.csv row %d: %w", i+2, err)
			}
		}
		entries = append(entries, e)
	}
	return model.NewCalendar(entries), nil
}

// Close is a no-op; files are opened per load.
func (s *CSVSource) Close() error { return nil }

func (s *CSVSource) read(name string) ([][]string, map[string]int, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("csv source: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	headerRow, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	header := make(map[string]int, len(headerRow))
	for i, h := range headerRow {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func fieldGetter(header map[string]int, row []string) func(string) string {
	return func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// parseTime accepts RFC3339 and the common "2006-01-02 15:04:05" form.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
