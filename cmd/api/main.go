package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/api/routes"
	"github.com/partsbridge/marketplace/internal/admin"
	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/internal/boot"
	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/internal/quotations"
	"github.com/partsbridge/marketplace/internal/users"
	"github.com/partsbridge/marketplace/pkg/auth/session"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/metrics"
	"github.com/partsbridge/marketplace/pkg/outbox"
	"github.com/partsbridge/marketplace/pkg/server"
)

func main() {
	ctx, stop, cfg, logg := boot.Start("api", config.Load)
	defer stop()

	if err := run(ctx, cfg, logg); !boot.Done(err) {
		boot.Exit(ctx, logg, "api server stopped unexpectedly", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	backends, err := boot.Connect(ctx, cfg, logg, boot.Needs{DB: true, Redis: true, Migrate: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logg.Error(context.Background(), "close backends", err)
		}
	}()
	dbClient, redisClient := backends.DB, backends.Redis

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	deps, err := buildDeps(cfg, logg, dbClient, sessionManager)
	if err != nil {
		return err
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Gatherer = prometheus.DefaultGatherer
	deps.Metrics = metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	credentials, err := middleware.NewCredentialResolver(cfg, sessionManager)
	if err != nil {
		return err
	}
	deps.Credentials = credentials

	ln, err := server.Listen(ctx, "", cfg.App.Port, cfg.App.PortRetries, logg)
	if err != nil {
		return err
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"addr":      ln.Addr().String(),
		"auth_mode": cfg.Auth.Mode,
	})
	logg.Info(logCtx, "starting api server")

	srv := &http.Server{
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.Serve(ctx, srv, ln, logg)
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager) (routes.Deps, error) {
	conn := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: &cfg.Password,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	catalogRepo := catalog.NewRepository(conn)
	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), catalogRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	catalogService, err := catalog.NewService(catalogRepo, inventoryService)
	if err != nil {
		return routes.Deps{}, err
	}

	events := outbox.NewService(outbox.NewRepository(conn), logg)
	ordersService, err := orders.NewService(orders.NewRepository(conn), dbClient, events, inventoryService)
	if err != nil {
		return routes.Deps{}, err
	}
	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, inventoryService, ordersService)
	if err != nil {
		return routes.Deps{}, err
	}

	itemPolicy, err := config.ParseItemPolicy(cfg.Quotation.ItemPolicy)
	if err != nil {
		return routes.Deps{}, err
	}
	quotationService, err := quotations.NewService(
		quotations.NewRepository(conn),
		dbClient,
		events,
		catalogRepo,
		ordersService,
		quotations.Options{
			ItemPolicy:        itemPolicy,
			DefaultRequiredBy: time.Duration(cfg.Quotation.DefaultRequiredBy) * 24 * time.Hour,
		},
	)
	if err != nil {
		return routes.Deps{}, err
	}

	adminService, err := admin.NewService(conn)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Auth:       authService,
		Register:   registerService,
		Catalog:    catalogService,
		Inventory:  inventoryService,
		Cart:       cartService,
		Orders:     ordersService,
		Quotations: quotationService,
		Admin:      adminService,
	}, nil
}
