package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:outbox_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}))
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	orderID := uuid.New()
	actorID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{ID: actorID, Role: "customer"},
			Data:          map[string]any{"total": "450.00"},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventOrderCreated, row.EventType)
	assert.Equal(t, orderID, row.AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, "order_created", envelope.EventType)
	assert.Equal(t, actorID, envelope.Actor.ID)
	assert.JSONEq(t, `{"total":"450.00"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder})
	require.Error(t, err)
}

func TestEmitRolledBackWithCaller(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventQuotationAccepted,
			AggregateType: enums.AggregateQuotationResponse,
			AggregateID:   uuid.New(),
		}))
		return fmt.Errorf("order creation failed")
	})

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(ctx, tx, DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
			})
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublishedTx(db, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, fmt.Errorf("redis down")))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, fmt.Errorf("redis down")))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, fmt.Errorf("redis down")))

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1, "published and exhausted rows are skipped")

	deleted, err := repo.DeletePublishedBefore(ctx, nil, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "partsbridge.order_created", Channel("partsbridge", enums.EventOrderCreated))
	assert.Equal(t, "pb.quotation_accepted", Channel(" pb. ", enums.EventQuotationAccepted))
	assert.Equal(t, "order_canceled", Channel("", enums.EventOrderCanceled))
}

func TestNewEnvelopeDefaults(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	env, err := newEnvelope(DomainEvent{
		EventType:     enums.EventOrderCanceled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	}, func() time.Time { return fixed })
	require.NoError(t, err)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, fixed.UTC(), env.OccurredAt)
	assert.NotEmpty(t, env.EventID)
	assert.JSONEq(t, `null`, string(env.Data))

	_, err = newEnvelope(DomainEvent{EventType: "shipped", AggregateType: enums.AggregateOrder}, time.Now)
	assert.ErrorIs(t, err, errUnknownEvent)
}

func TestMarkFailedTruncatesErrorAndRejectsUnknownRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return NewService(repo, nil).Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
		})
	}))
	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)

	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New(strings.Repeat("x", 5000))))
	require.NoError(t, db.First(&row, "id = ?", row.ID).Error)
	require.NotNil(t, row.LastError)
	assert.Len(t, *row.LastError, maxErrorLen)
	assert.Equal(t, 1, row.AttemptCount)

	assert.Error(t, repo.MarkPublishedTx(db, uuid.New()))
}
