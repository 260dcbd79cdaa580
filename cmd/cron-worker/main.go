package main

import (
	"context"
	"flag"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/partsbridge/marketplace/internal/boot"
	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/internal/cron"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/instance"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/metrics"
	"github.com/partsbridge/marketplace/pkg/outbox"
)

func main() {
	once := flag.String("job", "", "run a single job by name and exit")
	flag.Parse()

	ctx, stop, cfg, logg := boot.Start("cron-worker", config.Load)
	defer stop()

	if err := run(ctx, cfg, logg, *once); !boot.Done(err) {
		boot.Exit(ctx, logg, "cron worker failed", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once string) error {
	backends, err := boot.Connect(ctx, cfg, logg, boot.Needs{DB: true, Redis: true})
	if err != nil {
		return err
	}
	defer backends.Close()

	lock, err := cron.NewRedisLock(backends.Redis, backends.Redis.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg, logg, backends.DB)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	if once != "" {
		return service.RunOnce(ctx, once)
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"instance": instance.ID(),
		"jobs":     registry.Names(),
	})
	logg.Info(ctx, "cron worker starting")
	return service.Run(ctx)
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Outbox.RetentionDays,
	})
	if err != nil {
		return nil, err
	}
	carts, err := cron.NewCartCleanupJob(cron.CartCleanupJobParams{
		Logger:     logg,
		Repository: cart.NewRepository(dbClient.DB()),
		IdleDays:   cfg.Cron.CartIdleDays,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(retention, carts), nil
}

// lockName scopes the lease to one environment.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
