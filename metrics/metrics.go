package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appshell_phase_duration_seconds",
			Help:    "Time spent in each lifecycle phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	PhaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appshell_phase_failures_total",
			Help: "Total number of lifecycle phases that returned an error",
		},
		[]string{"phase"},
	)

	LapsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appshell_laps_recorded_total",
			Help: "Total number of laps reported at shutdown",
		},
	)

	ErrorsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appshell_errors_handled_total",
			Help: "Total number of errors captured by the error handling service",
		},
		[]string{"source"},
	)

	ReportPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appshell_report_publish_failures_total",
			Help: "Total number of timing reports that could not be stored",
		},
		[]string{"sink"},
	)

	RequestsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appshell_requests_rejected_total",
			Help: "Total number of server requests rejected before a lifecycle started",
		},
		[]string{"reason"},
	)
)
