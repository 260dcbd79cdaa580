package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/metrics"
	"github.com/partsbridge/marketplace/pkg/outbox"
)

var errRedisDown = errors.New("redis down")

func TestProcessBatchOutcomes(t *testing.T) {
	broken := outboxRow(t, enums.EventOrderCreated, 0)
	broken.Payload = json.RawMessage(`not-json`)

	cases := map[string]struct {
		rows        []models.OutboxEvent
		publishErrs []error
		maxAttempts int
		want        ledger
		wantBusy    bool
	}{
		"empty batch idles": {},
		"failure does not stop the batch": {
			rows:        []models.OutboxEvent{outboxRow(t, enums.EventOrderCreated, 0), outboxRow(t, enums.EventQuotationAccepted, 0)},
			publishErrs: []error{errRedisDown, nil},
			want:        ledger{failed: []int{0}, published: []int{1}},
			wantBusy:    true,
		},
		"undecodable payload is dropped": {
			rows:     []models.OutboxEvent{broken},
			want:     ledger{terminal: []int{0}},
			wantBusy: true,
		},
		"last attempt is dropped": {
			rows:        []models.OutboxEvent{outboxRow(t, enums.EventOrderCreated, 1)},
			publishErrs: []error{errRedisDown},
			maxAttempts: 2,
			want:        ledger{terminal: []int{0}},
			wantBusy:    true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &memRepo{rows: tc.rows}
			svc := testService(t, repo, &memPublisher{errs: tc.publishErrs}, tc.maxAttempts)

			busy, err := svc.processBatch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.wantBusy, busy)
			assert.Equal(t, tc.want.ids(tc.rows), repo.marks)
		})
	}
}

func TestDroppedRowsRecordConfiguredAttempts(t *testing.T) {
	row := outboxRow(t, enums.EventOrderCreated, 0)
	row.Payload = json.RawMessage(`{`)
	repo := &memRepo{rows: []models.OutboxEvent{row}}
	svc := testService(t, repo, &memPublisher{}, 7)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, repo.terminalAttempts)
}

func TestRelayUsesPrefixedChannelAndRawPayload(t *testing.T) {
	row := outboxRow(t, enums.EventQuotationAccepted, 0)
	pub := &memPublisher{}
	svc := testService(t, &memRepo{rows: []models.OutboxEvent{row}}, pub, 0)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"partsbridge.quotation_accepted"}, pub.channels)
	assert.JSONEq(t, string(row.Payload), string(pub.payloads[0]))
}

func TestRelayOutcomesAreCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	rows := []models.OutboxEvent{outboxRow(t, enums.EventOrderCreated, 0), outboxRow(t, enums.EventOrderCreated, 0)}
	svc := testService(t, &memRepo{rows: rows}, &memPublisher{errs: []error{nil, errRedisDown}}, 0)
	svc.metrics = metrics.NewOutboxMetrics(reg)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	series, err := testutil.GatherAndCount(reg, "partsbridge_outbox_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "published and retry series")
}

func TestNextBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, time.Second, nextBackoff(base, base, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, base, maxBackoff))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func testService(t *testing.T, repo outboxRepository, pub channelPublisher, maxAttempts int) *Service {
	t.Helper()
	cfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5, ChannelPrefix: "partsbridge"}
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: cfg},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         inlineDB{},
		Publisher:  pub,
		Repository: repo,
	})
	require.NoError(t, err)
	return svc
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  string(eventType),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

// ledger names expected marks by row index.
type ledger struct {
	published, failed, terminal []int
}

func (l ledger) ids(rows []models.OutboxEvent) map[string][]uuid.UUID {
	var out map[string][]uuid.UUID
	for kind, idx := range map[string][]int{"published": l.published, "failed": l.failed, "terminal": l.terminal} {
		for _, i := range idx {
			if out == nil {
				out = map[string][]uuid.UUID{}
			}
			out[kind] = append(out[kind], rows[i].ID)
		}
	}
	return out
}

type memRepo struct {
	rows             []models.OutboxEvent
	marks            map[string][]uuid.UUID
	terminalAttempts int
}

func (m *memRepo) mark(kind string, id uuid.UUID) {
	if m.marks == nil {
		m.marks = map[string][]uuid.UUID{}
	}
	m.marks[kind] = append(m.marks[kind], id)
}

func (m *memRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return m.rows, nil
}

func (m *memRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	m.mark("published", id)
	return nil
}

func (m *memRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	m.mark("failed", id)
	return nil
}

func (m *memRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, attempts int) error {
	m.mark("terminal", id)
	m.terminalAttempts = attempts
	return nil
}

type inlineDB struct{}

func (inlineDB) Ping(context.Context) error { return nil }

func (inlineDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type memPublisher struct {
	errs     []error
	channels []string
	payloads [][]byte
}

func (m *memPublisher) Ping(context.Context) error { return nil }

func (m *memPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	var err error
	if len(m.errs) > 0 {
		err, m.errs = m.errs[0], m.errs[1:]
	}
	if err == nil {
		m.channels = append(m.channels, channel)
		m.payloads = append(m.payloads, payload)
	}
	return err
}
