package main

import (
	"context"
	"net/http"
	"time"

	"github.com/partsbridge/marketplace/internal/boot"
	"github.com/partsbridge/marketplace/internal/web"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/server"
)

func main() {
	ctx, stop, cfg, logg := boot.Start("web", config.LoadWeb)
	defer stop()

	if err := run(ctx, cfg, logg); !boot.Done(err) {
		boot.Exit(ctx, logg, "web server stopped unexpectedly", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	backends, err := boot.Connect(ctx, cfg, logg, boot.Needs{Redis: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logg.Error(context.Background(), "close redis", err)
		}
	}()
	redisClient := backends.Redis

	sessions, err := web.NewSessionManager(redisClient, cfg.Web.SessionCookie, cfg.Web.SessionTTL, cfg.Web.CookieSecure)
	if err != nil {
		return err
	}
	api, err := web.NewAPIClient(cfg.Web.APIBaseURL, cfg.Web.APITimeout, nil)
	if err != nil {
		return err
	}
	views, err := web.NewEngine()
	if err != nil {
		return err
	}
	site, err := web.NewServer(api, sessions, views, cfg.Web.SessionSecret, logg)
	if err != nil {
		return err
	}

	ln, err := server.Listen(ctx, "", cfg.Web.Port, cfg.App.PortRetries, logg)
	if err != nil {
		return err
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"addr": ln.Addr().String(),
		"api":  cfg.Web.APIBaseURL,
	})
	logg.Info(logCtx, "starting web server")

	srv := &http.Server{
		Handler:           site.Routes(cfg.App.IsDev()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.Serve(ctx, srv, ln, logg)
}
