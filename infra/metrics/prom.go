// Package metrics provides the Prometheus and InfluxDB implementations of the
// core metrics sink.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/ndelcourt/optidispatch/core/metrics"
)

// PromSink records optimization outcomes in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	unassigned  *prometheus.CounterVec
	score       prometheus.Histogram
	distance    prometheus.Histogram
	runScore    prometheus.Gauge
}

// NewPromSink registers the optimizer metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Total number of committed dispatch assignments",
	}, []string{"priority", "provenance"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_fallback_levels_total",
		Help: "Assignments admitted per constraint relaxation level",
	}, []string{"level"})
	unassigned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_unassigned_total",
		Help: "Dispatches left unassigned per reason",
	}, []string{"reason"})
	score := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_assignment_score",
		Help:    "Composite score of committed assignments",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
	distance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_travel_distance_km",
		Help:    "Great-circle distance between technician and customer",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
	})
	runScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_run_total_score",
		Help: "Total score of the most recent optimization run",
	})

	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fallbacks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fallbacks = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(unassigned); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			unassigned = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(score); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			score = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(distance); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distance = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runScore); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runScore = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		assignments: assignments,
		fallbacks:   fallbacks,
		unassigned:  unassigned,
		score:       score,
		distance:    distance,
		runScore:    runScore,
	}, nil
}

// RecordAssignments increments the counters and histograms for each record.
func (s *PromSink) RecordAssignments(recs []coremetrics.AssignmentRecord) error {
	for _, r := range recs {
		if r.Unassigned {
			s.unassigned.WithLabelValues(r.Reason).Inc()
			continue
		}
		s.assignments.WithLabelValues(r.Priority, r.Provenance).Inc()
		if r.FallbackLevel > 0 {
			s.fallbacks.WithLabelValues(levelLabel(r.FallbackLevel)).Inc()
		}
		s.score.Observe(r.Score)
		s.distance.Observe(r.DistanceKm)
	}
	return nil
}

// RecordRunSummary sets the run-level gauge.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	if s.runScore != nil {
		s.runScore.Set(sum.Phase2Score)
	}
	return nil
}

func levelLabel(level int) string {
	return "L" + strconv.Itoa(level)
}
