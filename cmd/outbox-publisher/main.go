package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/partsbridge/marketplace/internal/boot"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/instance"
	"github.com/partsbridge/marketplace/pkg/metrics"
	"github.com/partsbridge/marketplace/pkg/outbox"
)

const serviceName = "outbox-publisher"

func main() {
	ctx, stop, cfg, logg := boot.Start(serviceName, config.Load)
	defer stop()

	backends, err := boot.Connect(ctx, cfg, logg, boot.Needs{DB: true, Redis: true, Migrate: true})
	if err != nil {
		boot.Exit(ctx, logg, "connect backends", err)
	}
	defer backends.Close()

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         backends.DB,
		Publisher:  backends.Redis,
		Repository: outbox.NewRepository(backends.DB.DB()),
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		boot.Exit(ctx, logg, "create outbox publisher", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"instance": instance.ID(),
		"prefix":   cfg.Outbox.ChannelPrefix,
	})
	logg.Info(ctx, "outbox publisher starting")
	if err := service.Run(ctx); !boot.Done(err) {
		backends.Close()
		boot.Exit(ctx, logg, "outbox publisher stopped unexpectedly", err)
	}
}
