// Package boot holds the startup steps every PartsBridge binary shares:
// environment, configuration, logging and backend connections.
package boot

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/migrate"
	"github.com/partsbridge/marketplace/pkg/redis"
)

// Loader reads configuration from the process environment.
type Loader func() (*config.Config, error)

// Start loads .env, then config via load, and returns a logger tuned by it
// plus a context canceled on SIGINT or SIGTERM. A config failure exits.
func Start(service string, load Loader) (context.Context, context.CancelFunc, *config.Config, *logger.Logger) {
	logg := logger.New(logger.Options{ServiceName: service})
	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), "no .env file; using process environment")
	}

	cfg, err := load()
	if err != nil {
		Exit(context.Background(), logg, "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return logg.WithField(ctx, "env", cfg.App.Env), stop, cfg, logg
}

// Exit logs err and terminates the process with status 1.
func Exit(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

// Backends are the shared Postgres and Redis connections.
type Backends struct {
	DB    *db.Client
	Redis *redis.Client
}

type Needs struct {
	DB      bool
	Redis   bool
	Migrate bool
}

// Connect dials what needs asks for in parallel. On any failure the
// connections that did open are closed again. Migrate runs the embedded
// migrations through migrate.MaybeRunNonProd once the database is up.
func Connect(ctx context.Context, cfg *config.Config, logg *logger.Logger, needs Needs) (*Backends, error) {
	b := &Backends{}
	g, gctx := errgroup.WithContext(ctx)
	if needs.DB {
		g.Go(func() (err error) {
			b.DB, err = db.NewWithRetry(gctx, cfg.DB, logg)
			return err
		})
	}
	if needs.Redis {
		g.Go(func() (err error) {
			b.Redis, err = redis.New(gctx, cfg.Redis, logg)
			return err
		})
	}
	err := g.Wait()
	if err == nil && needs.DB && needs.Migrate {
		err = migrate.MaybeRunNonProd(ctx, cfg, logg, b.DB)
	}
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	return b, nil
}

// Close releases whatever is open. Safe on a partially filled value.
func (b *Backends) Close() error {
	var err error
	if b.Redis != nil {
		err = multierr.Append(err, b.Redis.Close())
	}
	if b.DB != nil {
		err = multierr.Append(err, b.DB.Close())
	}
	return err
}

// Done reports whether err is just the shutdown signal.
func Done(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
