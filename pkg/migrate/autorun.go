package migrate

import (
	"context"
	"fmt"

	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// MaybeRunNonProd applies the embedded migrations on boot, only in an
// environment marked non-production and with PARTSBRIDGE_AUTO_MIGRATE set.
func MaybeRunNonProd(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsNonProduction() || !cfg.DB.AutoMigrate {
		return nil
	}
	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	p, err := provider(pool, "")
	if err != nil {
		return err
	}
	applied, err := p.Up(ctx)
	if err = wrap("up", err); err != nil {
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"applied": len(applied),
	}), "embedded migrations applied")
	return nil
}
