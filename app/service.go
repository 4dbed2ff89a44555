// Package app wires the configuration into a runnable optimization service.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ndelcourt/optidispatch/config"
	coremetrics "github.com/ndelcourt/optidispatch/core/metrics"
	"github.com/ndelcourt/optidispatch/core/model"
	"github.com/ndelcourt/optidispatch/core/optimizer"
	"github.com/ndelcourt/optidispatch/core/optimizer/runlog"
	"github.com/ndelcourt/optidispatch/core/prediction"
	coresource "github.com/ndelcourt/optidispatch/core/source"
	"github.com/ndelcourt/optidispatch/core/suggest"
	"github.com/ndelcourt/optidispatch/infra/logger"
	"github.com/ndelcourt/optidispatch/infra/metrics"
	infrasource "github.com/ndelcourt/optidispatch/infra/source"
	"github.com/ndelcourt/optidispatch/internal/eventbus"
	"github.com/ndelcourt/optidispatch/pkg/export"
)

// Service orchestrates one optimization run: load, optimize, export, log.
type Service struct {
	engine      *optimizer.Engine
	source      coresource.Source
	store       runlog.Store
	estimator   prediction.Estimator
	exportCfg   config.ExportConfig
	bus         *eventbus.Bus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	est, err := buildEstimator(cfg.Prediction)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}

	engine, err := optimizer.New(cfg.Optimizer, est, logger.New("optimizer"))
	if err != nil {
		return nil, err
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL,
			cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	if len(sinks) == 1 {
		engine.SetMetricsSink(sinks[0])
	} else if len(sinks) > 1 {
		engine.SetMetricsSink(metrics.NewMultiSink(sinks...))
	}

	bus := eventbus.New()
	engine.SetEventBus(bus)

	src, err := buildSource(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	store, err := buildRunLog(cfg.RunLog)
	if err != nil {
		if cerr := src.Close(); cerr != nil {
			logg.Errorf("close source: %v", cerr)
		}
		return nil, fmt.Errorf("runlog: %w", err)
	}

	return &Service{
		engine:      engine,
		source:      src,
		store:       store,
		estimator:   est,
		exportCfg:   cfg.Export,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    ":" + cfg.Metrics.PrometheusPort,
	}, nil
}

// Run loads the collections, executes the optimization and writes the
// configured outputs.
func (s *Service) Run(ctx context.Context) (*optimizer.Result, error) {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	dispatches, technicians, cal, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Run(ctx, dispatches, technicians, cal)
	if err != nil {
		return nil, err
	}

	if err := s.export(res); err != nil {
		s.log.Errorf("export: %v", err)
	}
	if s.store != nil {
		rec := runlog.Record{
			RunID:       res.RunID,
			StartedAt:   time.Now().Add(-res.Elapsed),
			Elapsed:     res.Elapsed,
			Dispatches:  len(res.Assignments),
			Assigned:    res.AssignedCount(),
			Unassigned:  len(res.Assignments) - res.AssignedCount(),
			Phase1Score: res.Phase1Score,
			TotalScore:  res.TotalScore,
			Assignments: res.Assignments,
			Warnings:    res.Warnings,
		}
		if err := s.store.Append(ctx, rec); err != nil {
			s.log.Errorf("runlog append: %v", err)
		}
	}
	return res, nil
}

// Suggest produces the advisory top-N report without touching any schedule.
func (s *Service) Suggest(ctx context.Context, p suggest.Params) ([]suggest.Option, error) {
	dispatches, technicians, cal, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return suggest.Rank(dispatches, technicians, cal, s.estimator, p), nil
}

// Events exposes the progress bus for subscribers.
func (s *Service) Events() *eventbus.Bus { return s.bus }

// Close releases the source, store and bus.
func (s *Service) Close() error {
	s.bus.Close()
	var firstErr error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.source.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Service) load(ctx context.Context) ([]model.Dispatch, []model.Technician, *model.Calendar, error) {
	dispatches, err := s.source.LoadDispatches(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load dispatches: %w", err)
	}
	technicians, err := s.source.LoadTechnicians(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load technicians: %w", err)
	}
	cal, err := s.source.LoadCalendar(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load calendar: %w", err)
	}
	s.log.Infof("loaded %d dispatches, %d technicians", len(dispatches), len(technicians))
	return dispatches, technicians, cal, nil
}

func (s *Service) export(res *optimizer.Result) error {
	if path := s.exportCfg.AssignmentsCSV; path != "" {
		if err := writeFile(path, func(f *os.File) error {
			return export.WriteAssignmentsCSV(f, res.Assignments)
		}); err != nil {
			return err
		}
	}
	if path := s.exportCfg.AssignmentsJSON; path != "" {
		if err := writeFile(path, func(f *os.File) error {
			return export.WriteAssignmentsJSON(f, res.Assignments)
		}); err != nil {
			return err
		}
	}
	if path := s.exportCfg.WarningsCSV; path != "" {
		if err := writeFile(path, func(f *os.File) error {
			return export.WriteWarningsCSV(f, res.Warnings)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func buildEstimator(cfg config.PredictionConfig) (prediction.Estimator, error) {
	rules := prediction.NewRuleEstimator()
	if cfg.Mode == "rules" {
		return rules, nil
	}
	static, err := loadStaticTable(cfg.StaticPath)
	if err != nil {
		return nil, err
	}
	blend := prediction.NewBlendEstimator(rules, static)
	blend.PrimaryWeight = cfg.RuleWeight
	return blend, nil
}

// loadStaticTable reads a JSON map of technician ID to success probability.
func loadStaticTable(path string) (*prediction.StaticEstimator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table map[string]prediction.Prediction
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("static table %s: %w", path, err)
	}
	return &prediction.StaticEstimator{ByTechnician: table}, nil
}

func buildSource(cfg config.SourceConfig) (coresource.Source, error) {
	switch cfg.Kind {
	case "postgres":
		return infrasource.NewPostgresSource(cfg.Postgres)
	default:
		return infrasource.NewCSVSource(cfg.CSVDir)
	}
}

func buildRunLog(cfg config.RunLogConfig) (runlog.Store, error) {
	switch cfg.Kind {
	case "jsonl":
		return runlog.NewJSONLStore(cfg.Path)
	case "sqlite":
		return runlog.NewSQLiteStore(cfg.Path)
	default:
		return nil, nil
	}
}
