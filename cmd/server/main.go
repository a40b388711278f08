package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/cocoiru/internal/app"
	"github.com/Skotchmaster/cocoiru/internal/config"
	"github.com/Skotchmaster/cocoiru/internal/httpserver"
	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	a, err := app.Build(initCtx, cfg, logger)
	if err == nil {
		err = a.SeedAdmin(initCtx)
	}
	cancel()
	if err != nil {
		logger.Error("init_failed", "error", err)
		os.Exit(1)
	}

	e := httpserver.New(&httpserver.Deps{
		Svc:          a.Svc,
		DB:           a.DB,
		Logger:       logger,
		SecureCookie: cfg.CookieSecure,
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx, a.Svc, cfg.SweepInterval, logger.With("component", "sweeper"))
	}()

	go func() {
		logger.Info("http_listen", "addr", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	<-sweepDone

	if err := a.Close(); err != nil {
		logger.Error("close_error", "error", err)
	}
	logger.Info("shutdown_complete")
}
