// Package runlog persists optimization run records so past assignment
// decisions can be audited and compared across configuration changes.
package runlog

import (
	"context"
	"time"

	"github.com/ndelcourt/optidispatch/core/model"
)

// Record captures one optimization run and its outcome.
type Record struct {
	RunID       string             `json:"run_id"`
	StartedAt   time.Time          `json:"started_at"`
	Elapsed     time.Duration      `json:"elapsed"`
	Dispatches  int                `json:"dispatches"`
	Assigned    int                `json:"assigned"`
	Unassigned  int                `json:"unassigned"`
	Phase1Score float64            `json:"phase1_score"`
	TotalScore  float64            `json:"total_score"`
	Assignments []model.Assignment `json:"assignments"`
	Warnings    []model.Warning    `json:"warnings"`
}

// Query filters stored records.
type Query struct {
	Start time.Time
	End   time.Time
	RunID string
}

// Store persists run records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// matches applies the query filters to one record.
func (q Query) matches(rec Record) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if !q.Start.IsZero() && rec.StartedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.StartedAt.After(q.End) {
		return false
	}
	return true
}
