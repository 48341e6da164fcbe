// Package metrics provides Prometheus metrics for the search engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "domainwizard"

var (
	// JobsTotal counts finished jobs by terminal status and error code.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of finished search jobs",
		},
		[]string{"status", "code"},
	)

	// ActiveJobs is 1 while a job is running.
	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Number of non-terminal search jobs",
		},
	)

	LoopsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loops_total",
			Help:      "Total number of completed optimizer loops",
		},
	)

	// LoopReward observes the optimizer reward of each loop.
	LoopReward = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_reward",
			Help:      "Distribution of loop rewards",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	LoopDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_duration_seconds",
			Help:      "Duration of optimizer loops in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// AvailabilityChecks counts resolved domains by path and outcome.
	AvailabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_checks_total",
			Help:      "Total number of availability resolutions",
		},
		[]string{"path", "result"},
	)

	BackendDisabled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_disabled_total",
			Help:      "Times the availability backend was disabled for a job",
		},
	)

	// CollaboratorErrors counts recovered failures of external services.
	CollaboratorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Total number of recovered collaborator errors",
		},
		[]string{"collaborator"},
	)

	CandidatesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_generated_total",
			Help:      "Total number of generated candidates",
		},
		[]string{"source"},
	)
)

// RecordLoop records a completed loop.
func RecordLoop(reward, seconds float64) {
	LoopsTotal.Inc()
	LoopReward.Observe(reward)
	LoopDuration.Observe(seconds)
}

// RecordAvailability records one resolved domain.
func RecordAvailability(path string, available, definitive bool) {
	result := "taken"
	switch {
	case !definitive:
		result = "unknown"
	case available:
		result = "available"
	}
	AvailabilityChecks.WithLabelValues(path, result).Inc()
}
