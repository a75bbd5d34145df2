package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"

	"toolroom-console/config"
	"toolroom-console/internal/api"
	"toolroom-console/internal/apiclient"
	"toolroom-console/internal/db"
	"toolroom-console/internal/live"
	"toolroom-console/internal/model"
	"toolroom-console/internal/notification"
	"toolroom-console/internal/poller"
	"toolroom-console/internal/shell"
	"toolroom-console/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	client := apiclient.New(cfg.API, log)
	hub := live.NewHub(log)

	console := shell.New(client, appStore, cfg, hub, log)
	if err := console.Start(ctx); err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer console.Stop()

	deps := api.Deps{
		Console:   console,
		Live:      hub,
		Server:    cfg.Server,
		Reference: cfg.Console.QuickReference,
		Logger:    log,
	}

	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			return errors.New("push is enabled but the VAPID keys are not configured")
		}
		webpushOptions := &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		deps.Store = appStore
		deps.Webpush = webpushOptions

		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, log)
		pool.Start(ctx)

		alerts := poller.New("push.alerts", func(ctx context.Context) ([]model.Alert, error) {
			return client.Alerts(ctx, model.AlertOpen, cfg.API.AlertsLimit)
		}, config.Every(cfg.Polling.PushAlertsMs), log)
		notification.NewWatcher(pool, log).Watch(alerts)
		alerts.Start(ctx)
		defer alerts.Stop()
		log.Infof("critical alert push enabled with %d workers", cfg.WorkerPool.Size)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(deps),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping services...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	log.Info("server gracefully stopped")
	return nil
}
