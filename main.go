package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := newAPIConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg.logger.Debug("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, closeStore, err := cfg.connectStore(connectCtx)
	cancel()
	if err != nil {
		cfg.logger.Error("store startup failed", "backend", cfg.storeBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	cfg.controller = cfg.newController(store)
	defer cfg.controller.Close()
	cfg.controller.Initialize(ctx)

	if cfg.refreshInterval > 0 {
		scheduler := NewScheduler(cfg.controller, cfg.logger, cfg.refreshInterval)
		cfg.logger.Info("starting scheduler", "refresh", cfg.refreshInterval.String())
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           cfg.newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			cfg.logger.Warn("server shutdown failed", "error", err)
		}
	}()

	cfg.logger.Info("starting server", "port", cfg.port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cfg.logger.Error("server startup failed", "error", err)
		os.Exit(1)
	}
	cfg.logger.Info("server stopped")
}
