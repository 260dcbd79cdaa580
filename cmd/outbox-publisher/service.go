package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/metrics"
	"github.com/partsbridge/marketplace/pkg/outbox"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 5 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type channelPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Publisher  channelPublisher
	Repository outboxRepository
	Metrics    *metrics.OutboxMetrics
}

// Service relays committed outbox rows (order_created, quotation_accepted,
// ...) to Redis pub/sub channels named <prefix>.<event_type>.
type Service struct {
	logg        *logger.Logger
	db          dbClient
	repo        outboxRepository
	publisher   channelPublisher
	metrics     *metrics.OutboxMetrics
	prefix      string
	batchSize   int
	maxAttempts int
	interval    time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	var missing []string
	for name, ok := range map[string]bool{
		"config":     params.Config != nil,
		"logger":     params.Logger != nil,
		"db":         params.DB != nil,
		"publisher":  params.Publisher != nil,
		"repository": params.Repository != nil,
	} {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("outbox publisher missing dependencies: %v", missing)
	}

	cfg := params.Config.Outbox
	return &Service{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		publisher:   params.Publisher,
		metrics:     params.Metrics,
		prefix:      cfg.ChannelPrefix,
		batchSize:   positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts: positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		interval:    time.Duration(positiveOr(cfg.PollIntervalMS, int(defaultPollInterval/time.Millisecond))) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx ends. A full batch is followed immediately by the next
// one; an idle poll sleeps one interval; a failing batch backs off.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := s.publisher.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	wait := s.interval
	for ctx.Err() == nil {
		busy, err := s.processBatch(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			wait = nextBackoff(wait, s.interval, maxBackoff)
		case busy:
			wait = s.interval
			continue
		default:
			wait = s.interval
		}
		if err := sleepCtx(ctx, jitter(wait)); err != nil {
			break
		}
	}
	s.logg.Info(ctx, "outbox publisher stopping")
	return ctx.Err()
}

// relayResult is what happened to a single row inside a batch.
type relayResult struct {
	outcome string
	err     error
}

// processBatch claims up to batchSize rows and relays them in one
// transaction. A failed publish is recorded on its row and the batch moves
// on; only bookkeeping errors roll the batch back.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	var claimed int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		claimed = len(events)

		var publishErrs error
		for _, event := range events {
			res, err := s.relay(ctx, tx, event)
			if err != nil {
				return err
			}
			s.metrics.Record(string(event.EventType), res.outcome)
			publishErrs = multierr.Append(publishErrs, res.err)
		}
		if n := len(multierr.Errors(publishErrs)); n > 0 {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"failed": n,
				"batch":  claimed,
				"errors": publishErrs.Error(),
			}), "outbox batch had publish failures")
		}
		return nil
	})
	if claimed > 0 {
		s.metrics.ObserveBatch(claimed)
	}
	return claimed > 0, err
}

func (s *Service) relay(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (relayResult, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return s.drop(ctx, tx, event, envelope, "", fmt.Errorf("decode envelope: %w", err))
	}

	channel := outbox.Channel(s.prefix, event.EventType)
	pubCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	pubErr := s.publisher.Publish(pubCtx, channel, event.Payload)
	cancel()

	if pubErr == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return relayResult{}, fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		s.logg.Info(s.logg.WithFields(ctx, s.fields(event, envelope, channel)), "outbox event published")
		return relayResult{outcome: metrics.OutboxPublished}, nil
	}

	pubErr = fmt.Errorf("%s: %w", event.ID, pubErr)
	if event.AttemptCount+1 >= s.maxAttempts {
		res, err := s.drop(ctx, tx, event, envelope, channel, fmt.Errorf("attempts exhausted: %w", pubErr))
		res.err = pubErr
		return res, err
	}
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return relayResult{}, fmt.Errorf("mark %s failed: %w", event.ID, err)
	}
	fields := s.fields(event, envelope, channel)
	fields["attempt_count"] = event.AttemptCount + 1
	fields["error"] = pubErr.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox publish failed; will retry")
	return relayResult{outcome: metrics.OutboxRetry, err: pubErr}, nil
}

// drop parks a row that will never be published.
func (s *Service) drop(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, envelope outbox.PayloadEnvelope, channel string, reason error) (relayResult, error) {
	if err := s.repo.MarkTerminalTx(tx, event.ID, reason, s.maxAttempts); err != nil {
		return relayResult{}, fmt.Errorf("mark %s terminal: %w", event.ID, err)
	}
	fields := s.fields(event, envelope, channel)
	fields["error"] = reason.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event dropped")
	return relayResult{outcome: metrics.OutboxDropped}, nil
}

func (s *Service) fields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, channel string) map[string]any {
	f := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		f["event_id"] = envelope.EventID
		f["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if channel != "" {
		f["channel"] = channel
	}
	return f
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// nextBackoff doubles current up to limit, restarting from base when unset.
func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, limit)
}

func jitter(d time.Duration) time.Duration {
	return d + rand.N(jitterWindow)
}
