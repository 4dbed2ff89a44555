// Package metrics defines the observability records produced by an
// optimization run and the sink interface implementations must satisfy.
// Concrete sinks (Prometheus, InfluxDB, multi, nop) live in infra/metrics.
package metrics
