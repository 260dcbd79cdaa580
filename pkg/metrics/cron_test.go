package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsSplitsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("expire_reservations", 120*time.Millisecond, nil)
	m.ObserveRun("expire_reservations", 80*time.Millisecond, nil)
	m.ObserveRun("expire_quotations", time.Second, errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("expire_reservations", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("expire_quotations", "error")))

	n, err := testutil.GatherAndCount(reg, "partsbridge_cron_run_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("x", time.Second, nil)
	NewCronJobMetrics(nil).ObserveRun("", 0, errors.New("x"))
}
