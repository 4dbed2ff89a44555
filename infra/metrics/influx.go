package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/ndelcourt/optidispatch/core/metrics"
	"github.com/ndelcourt/optidispatch/infra/logger"
)

// InfluxSink writes optimization outcomes to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignments writes one point per assignment outcome.
func (s *InfluxSink) RecordAssignments(recs []coremetrics.AssignmentRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("dispatch_assignment").
			AddTag("dispatch_id", r.DispatchID).
			AddTag("priority", r.Priority).
			AddTag("component", "optimizer")
		if r.Unassigned {
			p.AddTag("unassigned", "true").
				AddTag("reason", r.Reason)
		} else {
			p.AddTag("technician_id", r.TechnicianID).
				AddTag("provenance", r.Provenance).
				AddTag("fallback_level", strconv.Itoa(r.FallbackLevel)).
				AddField("score", round3(r.Score)).
				AddField("success_probability", round3(r.SuccessProbability)).
				AddField("distance_km", round3(r.DistanceKm)).
				AddField("skill_match", r.SkillMatch)
		}
		p.AddField("count", 1).SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary writes a single point describing the run.
func (s *InfluxSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_run").
		AddTag("run_id", sum.RunID).
		AddTag("component", "optimizer").
		AddField("dispatches", sum.Dispatches).
		AddField("assigned", sum.Assigned).
		AddField("unassigned", sum.Unassigned).
		AddField("warnings", sum.Warnings).
		AddField("passes", sum.Passes).
		AddField("phase1_score", round3(sum.Phase1Score)).
		AddField("phase2_score", round3(sum.Phase2Score)).
		AddField("duration_ms", sum.Duration.Milliseconds()).
		SetTime(sum.StartedAt)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
