// Package source provides the Postgres and CSV loaders backing the core
// source interface.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ndelcourt/optidispatch/core/model"
	coresource "github.com/ndelcourt/optidispatch/core/source"
)

// PostgresConfig carries the connection settings for the dispatch database.
type PostgresConfig struct {
	DSN            string `json:"dsn"`
	Schema         string `json:"schema"`
	OnlyUnassigned bool   `json:"only_unassigned"`
}

// SetDefaults fills optional fields.
func (c *PostgresConfig) SetDefaults() {
	if c.Schema == "" {
		c.Schema = "public"
	}
}

// PostgresSource loads dispatches, technicians and the availability calendar
// from a Postgres database using the pgx stdlib driver.
type PostgresSource struct {
	db     *sql.DB
	schema string
	cfg    PostgresConfig
}

var _ coresource.Source = (*PostgresSource)(nil)

// NewPostgresSource opens the database and verifies connectivity.
func NewPostgresSource(cfg PostgresConfig) (*PostgresSource, error) {
	cfg.SetDefaults()
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (ping err: %w)", cerr, err)
		}
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{db: db, schema: cfg.Schema, cfg: cfg}, nil
}

// LoadDispatches reads the open dispatches awaiting assignment.
func (s *PostgresSource) LoadDispatches(ctx context.Context) ([]model.Dispatch, error) {
	q := fmt.Sprintf(`SELECT
        "Dispatch_id", "Ticket_type", "Order_type", "Priority", "Required_skill",
        "Customer_latitude", "Customer_longitude",
        "Appointment_start_datetime", "Duration_min",
        COALESCE("Assigned_technician_id", '')
    FROM %s.current_dispatches
    WHERE "Customer_latitude" IS NOT NULL
      AND "Customer_longitude" IS NOT NULL
      AND "Appointment_start_datetime" IS NOT NULL`, s.schema)
	if s.cfg.OnlyUnassigned {
		q += ` AND ("Assigned_technician_id" IS NULL OR "Assigned_technician_id" = '')`
	}
	q += ` ORDER BY "Dispatch_id"`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Dispatch
	for rows.Next() {
		var d model.Dispatch
		var priority string
		var start time.Time
		if err := rows.Scan(&d.ID, &d.TicketType, &d.OrderType, &priority, &d.RequiredSkill,
			&d.CustomerLat, &d.CustomerLon, &start, &d.ExpectedDuration, &d.AssignedTechnician); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		p, err := model.ParsePriority(priority)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s: %w", d.ID, err)
		}
		d.Priority = p
		d.AppointmentStart = start
		out = append(out, d)
	}
	return out, rows.Err()
}

// LoadTechnicians reads the technician roster.
func (s *PostgresSource) LoadTechnicians(ctx context.Context) ([]model.Technician, error) {
	q := fmt.Sprintf(`SELECT
        "Technician_id", COALESCE("Name", ''), "Primary_skill", "Latitude", "Longitude"
    FROM %s.technicians
    WHERE "Latitude" IS NOT NULL AND "Longitude" IS NOT NULL
    ORDER BY "Technician_id"`, s.schema)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query technicians: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Technician
	for rows.Next() {
		var t model.Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Skill, &t.Lat, &t.Lon); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadCalendar reads the per-day availability entries.
func (s *PostgresSource) LoadCalendar(ctx context.Context) (*model.Calendar, error) {
	q := fmt.Sprintf(`SELECT
        "Technician_id", "Date"::text, "Available",
        "Shift_start", "Shift_end", COALESCE("Capacity_minutes", 0)
    FROM %s.technician_calendar
    ORDER BY "Technician_id", "Date"`, s.schema)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.CalendarEntry
	for rows.Next() {
		var e model.CalendarEntry
		if err := rows.Scan(&e.TechnicianID, &e.Date, &e.Available,
			&e.ShiftStart, &e.ShiftEnd, &e.CapacityMinutes); err != nil {
			return nil, fmt.Errorf("scan calendar entry: %w", err)
		}
		if e.Available {
			if err := e.Validate(); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return model.NewCalendar(entries), nil
}

// Close releases the database handle.
func (s *PostgresSource) Close() error { return s.db.Close() }
