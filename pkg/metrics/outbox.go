package metrics

import "github.com/prometheus/client_golang/prometheus"

// Relay outcomes of one outbox row.
const (
	OutboxPublished = "published"
	OutboxRetry     = "retry"
	OutboxDropped   = "dropped"
)

// OutboxMetrics counts what the publisher did with each domain event
// (order_created, quotation_accepted, ...).
type OutboxMetrics struct {
	relayed *prometheus.CounterVec
	batch   prometheus.Histogram
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "partsbridge",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "partsbridge",
		Subsystem: "outbox",
		Name:      "batch_rows",
		Help:      "Rows claimed per publisher batch.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
	reg.MustRegister(relayed, batch)
	return &OutboxMetrics{relayed: relayed, batch: batch}
}

func (m *OutboxMetrics) Record(eventType, outcome string) {
	if m == nil || m.relayed == nil {
		return
	}
	m.relayed.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

func (m *OutboxMetrics) ObserveBatch(rows int) {
	if m == nil || m.batch == nil {
		return
	}
	m.batch.Observe(float64(rows))
}
