package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.Record("order_created", OutboxPublished)
	m.Record("order_created", OutboxPublished)
	m.Record("quotation_accepted", OutboxRetry)
	m.Record("", OutboxDropped)
	m.ObserveBatch(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.relayed.WithLabelValues("order_created", OutboxPublished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayed.WithLabelValues("unknown", OutboxDropped)))

	n, err := testutil.GatherAndCount(reg, "partsbridge_outbox_events_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var nilMetrics *OutboxMetrics
	nilMetrics.Record("x", OutboxRetry)
	nilMetrics.ObserveBatch(1)
}
