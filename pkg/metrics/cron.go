package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// CronJobMetrics tracks housekeeping runs (reservation expiry, quotation
// expiry, outbox pruning) by job name and outcome.
type CronJobMetrics struct {
	runs    *prometheus.CounterVec
	seconds *prometheus.HistogramVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "partsbridge",
		Subsystem: "cron",
		Name:      "runs_total",
		Help:      "Housekeeping job runs by outcome.",
	}, []string{"job", "outcome"})
	seconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "partsbridge",
		Subsystem: "cron",
		Name:      "run_seconds",
		Help:      "Wall time of housekeeping job runs.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"job"})
	reg.MustRegister(runs, seconds)
	return &CronJobMetrics{runs: runs, seconds: seconds}
}

// ObserveRun records one run of job. A nil err counts as ok.
func (c *CronJobMetrics) ObserveRun(job string, took time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	c.runs.WithLabelValues(job, outcome).Inc()
	c.seconds.WithLabelValues(job).Observe(took.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
