// Package metrics defines the Prometheus instruments exported by the
// daemon's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviola_jobs_submitted_total",
			Help: "Total number of jobs submitted",
		},
		[]string{"kind", "lane"},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviola_jobs_completed_total",
			Help: "Total number of jobs finished successfully",
		},
		[]string{"kind", "lane"},
	)

	JobsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviola_jobs_failed_total",
			Help: "Total number of jobs finished with an error",
		},
		[]string{"kind", "lane"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviola_job_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"kind", "lane"},
	)

	JobsRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moviola_jobs_running",
			Help: "Number of jobs currently executing per lane",
		},
		[]string{"lane"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviola_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviola_http_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
