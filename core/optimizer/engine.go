package optimizer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ndelcourt/optidispatch/core/logger"
	"github.com/ndelcourt/optidispatch/core/metrics"
	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/prediction"
	"github.com/ndelcourt/optidispatch/core/schedule"
	"github.com/ndelcourt/optidispatch/internal/eventbus"
)

// Result is the engine output: one assignment (or unassigned marker) per
// dispatch plus the append-only warning list. Assignments are ordered by
// dispatch ID.
type Result struct {
	RunID       string
	Assignments []model.Assignment
	Warnings    []model.Warning
	Phase1Score float64
	TotalScore  float64
	PassStats   []PassStat
	Elapsed     time.Duration
}

// Engine runs the two-phase dispatch optimization. It holds no per-run
// state, so independent runs can execute concurrently each with their own
// schedule state.
type Engine struct {
	cfg  Config
	est  prediction.Estimator
	log  logger.Logger
	sink metrics.Sink
	bus  eventbus.EventBus
}

// New creates an engine. The estimator is the external scoring oracle; the
// engine never inspects which implementation is active.
func New(cfg Config, est prediction.Estimator, log logger.Logger) (*Engine, error) {
	if est == nil {
		return nil, fmt.Errorf("optimizer: nil estimator provided to New")
	}
	if log == nil {
		return nil, fmt.Errorf("optimizer: nil logger provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer config: %w", err)
	}
	return &Engine{cfg: cfg, est: est, log: log, sink: metrics.NopSink{}}, nil
}

// SetMetricsSink configures the sink receiving run observations.
func (e *Engine) SetMetricsSink(sink metrics.Sink) {
	if sink != nil {
		e.sink = sink
	}
}

// SetEventBus configures the bus receiving optimizer progress events.
func (e *Engine) SetEventBus(bus eventbus.EventBus) { e.bus = bus }

// run carries the mutable state of a single optimization.
type run struct {
	cfg         Config
	est         prediction.Estimator
	scorer      Scorer
	eval        *Evaluator
	cal         *model.Calendar
	state       *schedule.State
	log         logger.Logger
	bus         eventbus.EventBus
	ladder      []Relaxation
	techs       []model.Technician
	techByID    map[string]model.Technician
	dispatches  map[string]model.Dispatch
	assignments map[string]*model.Assignment
	warnings    []model.Warning
	maxKm       map[string]float64
}

func (r *run) warn(w model.Warning) { r.warnings = append(r.warnings, w) }

func (r *run) publish(ev eventbus.Event) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

// Run executes phase 1 and phase 2 over the loaded collections and returns
// the full assignment and warning sets. No dispatch failure aborts the
// batch.
func (e *Engine) Run(ctx context.Context, dispatches []model.Dispatch, technicians []model.Technician, cal *model.Calendar) (*Result, error) {
	if cal == nil {
		return nil, fmt.Errorf("optimizer: nil calendar")
	}
	started := time.Now()

	techs := make([]model.Technician, 0, len(technicians))
	for _, t := range technicians {
		techs = append(techs, t)
	}
	sort.Slice(techs, func(i, j int) bool { return techs[i].ID < techs[j].ID })
	byID := make(map[string]model.Technician, len(techs))
	for _, t := range techs {
		byID[t.ID] = t
	}

	state := schedule.NewState()
	r := &run{
		cfg:         e.cfg,
		est:         e.est,
		scorer:      NewScorer(e.cfg),
		eval:        NewEvaluator(e.cfg, cal, state),
		cal:         cal,
		state:       state,
		log:         e.log,
		bus:         e.bus,
		ladder:      e.cfg.Ladder(),
		techs:       techs,
		techByID:    byID,
		dispatches:  make(map[string]model.Dispatch, len(dispatches)),
		assignments: make(map[string]*model.Assignment, len(dispatches)),
		maxKm:       make(map[string]float64, len(dispatches)),
	}
	for _, d := range dispatches {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		r.dispatches[d.ID] = d
	}

	e.log.Infof("optimizing %d dispatches across %d technicians", len(dispatches), len(techs))
	r.assignAll(dispatches)
	phase1 := r.totalScore()

	var stats []PassStat
	if e.cfg.Passes > 0 {
		stats = r.optimize()
	}
	total := r.totalScore()

	res := &Result{
		RunID:       uuid.NewString(),
		Assignments: r.sortedAssignments(),
		Warnings:    r.warnings,
		Phase1Score: phase1,
		TotalScore:  total,
		PassStats:   stats,
		Elapsed:     time.Since(started),
	}
	e.record(ctx, res, r.dispatches, started)
	e.log.Infof("assigned %d/%d dispatches, score %.2f -> %.2f in %s",
		res.AssignedCount(), len(res.Assignments), phase1, total, res.Elapsed)
	return res, nil
}

func (r *run) totalScore() float64 {
	total := 0.0
	for _, a := range r.assignments {
		if !a.Unassigned {
			total += a.Score
		}
	}
	return total
}

func (r *run) sortedAssignments() []model.Assignment {
	out := make([]model.Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DispatchID < out[j].DispatchID })
	return out
}

// AssignedCount returns the number of committed assignments.
func (res *Result) AssignedCount() int {
	n := 0
	for _, a := range res.Assignments {
		if !a.Unassigned {
			n++
		}
	}
	return n
}

// record forwards the run to the metrics sink. Sink errors are logged, never
// propagated: observability must not fail a completed run.
func (e *Engine) record(ctx context.Context, res *Result, dispatches map[string]model.Dispatch, started time.Time) {
	_ = ctx
	records := make([]metrics.AssignmentRecord, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		d := metrics.AssignmentRecord{
			DispatchID:         a.DispatchID,
			Priority:           dispatches[a.DispatchID].Priority.String(),
			TechnicianID:       a.TechnicianID,
			Provenance:         a.Provenance.Kind.String(),
			FallbackLevel:      a.Provenance.FallbackLevel,
			Score:              a.Score,
			SuccessProbability: a.SuccessProbability,
			DistanceKm:         a.DistanceKm,
			SkillMatch:         a.SkillMatch,
			Unassigned:         a.Unassigned,
			Reason:             string(a.Reason),
		}
		records = append(records, d)
	}
	if err := e.sink.RecordAssignments(records); err != nil {
		e.log.Errorf("metrics: record assignments: %v", err)
	}
	summary := metrics.RunSummary{
		RunID:       res.RunID,
		StartedAt:   started,
		Duration:    res.Elapsed,
		Dispatches:  len(res.Assignments),
		Assigned:    res.AssignedCount(),
		Unassigned:  len(res.Assignments) - res.AssignedCount(),
		Warnings:    len(res.Warnings),
		Passes:      len(res.PassStats),
		Phase1Score: res.Phase1Score,
		Phase2Score: res.TotalScore,
	}
	if err := e.sink.RecordRunSummary(summary); err != nil {
		e.log.Errorf("metrics: record summary: %v", err)
	}
}
