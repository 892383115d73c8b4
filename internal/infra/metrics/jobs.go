package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		jobRunsTotal,
		jobDurationSeconds,
	)
}

var (
	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_job_runs_total",
			Help: "Scheduled batch job executions by job name and result.",
		},
		[]string{"job", "result"},
	)

	jobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_job_duration_seconds",
			Help:    "Scheduled batch job duration distribution.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"job"},
	)
)

func IncJobRun(job, result string) {
	jobRunsTotal.WithLabelValues(norm(job), norm(result)).Inc()
}

func ObserveJobDuration(job string, seconds float64) {
	jobDurationSeconds.WithLabelValues(norm(job)).Observe(seconds)
}
