package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 14
	defaultCartIdleDays        = 30
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type idleCartRepo interface {
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// sweepJob deletes rows older than a window of whole days.
type sweepJob struct {
	name   string
	days   int
	logg   *logger.Logger
	delete func(ctx context.Context, cutoff time.Time) (int64, error)
	now    func() time.Time
}

func (j *sweepJob) Name() string { return j.name }

func (j *sweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	removed, err := j.delete(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff.Format(time.RFC3339),
		"window_days":  j.days,
		"rows_deleted": removed,
	}), "sweep complete")
	return nil
}

func newSweepJob(name string, logg *logger.Logger, days, fallback int, del func(context.Context, time.Time) (int64, error)) (Job, error) {
	if logg == nil {
		return nil, errors.New(name + ": logger required")
	}
	if days <= 0 {
		days = fallback
	}
	return &sweepJob{name: name, days: days, logg: logg, delete: del, now: time.Now}, nil
}

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxRetentionRepo
	RetentionDays int
}

// NewOutboxRetentionJob removes relayed outbox rows past the retention
// window. Rows still waiting to be published are kept.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.DB == nil || params.Repository == nil {
		return nil, errors.New("outbox-retention: db and repository required")
	}
	return newSweepJob("outbox-retention", params.Logger, params.RetentionDays, defaultOutboxRetentionDays,
		func(ctx context.Context, cutoff time.Time) (n int64, err error) {
			err = params.DB.WithTx(ctx, func(tx *gorm.DB) error {
				n, err = params.Repository.DeletePublishedBefore(ctx, tx, cutoff)
				return err
			})
			return n, err
		})
}

type CartCleanupJobParams struct {
	Logger     *logger.Logger
	Repository idleCartRepo
	IdleDays   int
}

// NewCartCleanupJob removes carts untouched for IdleDays.
func NewCartCleanupJob(params CartCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, errors.New("abandoned-cart-cleanup: repository required")
	}
	return newSweepJob("abandoned-cart-cleanup", params.Logger, params.IdleDays, defaultCartIdleDays,
		params.Repository.DeleteIdleBefore)
}
