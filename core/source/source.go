// Package source defines where the optimizer reads its input collections
// from. Implementations live under infra/source.
package source

import (
	"context"

	"github.com/ndelcourt/optidispatch/core/model"
)

// Source supplies the three read-only collections consumed by a run.
type Source interface {
	LoadDispatches(ctx context.Context) ([]model.Dispatch, error)
	LoadTechnicians(ctx context.Context) ([]model.Technician, error)
	LoadCalendar(ctx context.Context) (*model.Calendar, error)
	Close() error
}
