package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/logger"
)

type recordingRetentionRepo struct {
	cutoffs []time.Time
	err     error
}

func (r *recordingRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return 7, r.err
}

type inlineTx struct{ calls int }

func (i *inlineTx) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	i.calls++
	return fn(nil)
}

func TestOutboxRetentionJobCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC)
	cases := map[string]struct {
		days int
		want time.Time
	}{
		"default window":    {0, time.Date(2026, 1, 27, 15, 30, 0, 0, time.UTC)},
		"configured window": {3, time.Date(2026, 2, 7, 15, 30, 0, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &recordingRetentionRepo{}
			tx := &inlineTx{}
			job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
				Logger:        logger.New(logger.Options{ServiceName: "test"}),
				DB:            tx,
				Repository:    repo,
				RetentionDays: tc.days,
			})
			require.NoError(t, err)
			job.(*sweepJob).now = func() time.Time { return now }

			require.NoError(t, job.Run(context.Background()))
			assert.Equal(t, []time.Time{tc.want}, repo.cutoffs)
			assert.Equal(t, 1, tx.calls)
		})
	}
}

func TestOutboxRetentionJobWrapsRepositoryError(t *testing.T) {
	boom := errors.New("boom")
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         &inlineTx{},
		Repository: &recordingRetentionRepo{err: boom},
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "outbox-retention")
}

func TestSweepJobsRequireDependencies(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})

	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logg})
	assert.Error(t, err)
	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{DB: &inlineTx{}, Repository: &recordingRetentionRepo{}})
	assert.Error(t, err)
	_, err = NewCartCleanupJob(CartCleanupJobParams{Logger: logg})
	assert.Error(t, err)
}
