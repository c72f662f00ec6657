// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RenewalJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renewal_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	RenewalJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renewal_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	RenewalJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "renewal_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	RenewalJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "renewal_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	QuotesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renewal_quotes_generated_total",
			Help: "Total number of quotes generated, by priority band",
		},
		[]string{"priority"},
	)

	NegotiationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renewal_negotiation_actions_total",
			Help: "Total number of negotiation actions proposed",
		},
		[]string{"action"},
	)

	LLMFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renewal_llm_fallbacks_total",
			Help: "Times a worker fell back to rule-based output because the model was unavailable",
		},
		[]string{"task_type"},
	)
)
