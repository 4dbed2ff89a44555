package export

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"github.com/ndelcourt/optidispatch/core/model"
)

// SummaryStats aggregates the score and distance distributions of one run.
type SummaryStats struct {
	Assigned       int
	Unassigned     int
	MeanScore      float64
	StdDevScore    float64
	MeanDistanceKm float64
	MaxDistanceKm  float64
	FallbackCount  int
}

// Summarize computes distribution statistics over committed assignments.
func Summarize(assignments []model.Assignment) SummaryStats {
	var s SummaryStats
	var scores, distances []float64
	for _, a := range assignments {
		if a.Unassigned {
			s.Unassigned++
			continue
		}
		s.Assigned++
		scores = append(scores, a.Score)
		distances = append(distances, a.DistanceKm)
		if a.DistanceKm > s.MaxDistanceKm {
			s.MaxDistanceKm = a.DistanceKm
		}
		if a.Provenance.Kind == model.ProvenanceFallback {
			s.FallbackCount++
		}
	}
	if len(scores) > 0 {
		s.MeanScore = stat.Mean(scores, nil)
		s.MeanDistanceKm = stat.Mean(distances, nil)
	}
	if len(scores) > 1 {
		s.StdDevScore = stat.StdDev(scores, nil)
	}
	return s
}

// WriteSummary renders the statistics as a short human-readable report.
func WriteSummary(w io.Writer, s SummaryStats) error {
	_, err := fmt.Fprintf(w,
		"assigned: %d\nunassigned: %d\nfallbacks: %d\nmean score: %.3f\nscore stddev: %.3f\nmean distance: %.1f km\nmax distance: %.1f km\n",
		s.Assigned, s.Unassigned, s.FallbackCount, s.MeanScore, s.StdDevScore, s.MeanDistanceKm, s.MaxDistanceKm)
	return err
}
