// Package metrics exposes Prometheus counters and gauges for the worker
// and job pipeline, served over /metrics by the HTTP boundary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the counters/gauges/histogram the worker and processor
// update as jobs move through the pipeline.
type Metrics struct {
	JobsClaimed    prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsFailed     prometheus.Counter
	JobsRetried    prometheus.Counter
	JobsInFlight   prometheus.Gauge
	ProcessSeconds prometheus.Histogram
}

// New registers and returns a Metrics set against the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests should pass a
// fresh prometheus.NewRegistry() to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsClaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingestion_jobs_claimed_total",
			Help: "Total number of ingestion jobs claimed by this worker.",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingestion_jobs_completed_total",
			Help: "Total number of ingestion jobs that reached status=completed.",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingestion_jobs_failed_total",
			Help: "Total number of ingestion jobs that reached status=failed (attempts exhausted).",
		}),
		JobsRetried: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingestion_jobs_retried_total",
			Help: "Total number of ingestion jobs rescheduled for retry.",
		}),
		JobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ingestion_jobs_in_flight",
			Help: "Number of jobs currently being processed by this worker (0 or 1).",
		}),
		ProcessSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingestion_job_process_seconds",
			Help:    "Time spent processing one claimed job, end to end.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
