package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/app"
	"github.com/riskibarqy/esports-fantasy/internal/config"
	"github.com/riskibarqy/esports-fantasy/internal/observability"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Start(cfg, logger, observability.Options{Profiling: true})
	if err != nil {
		logger.Error("start telemetry", "error", err)
		os.Exit(1)
	}

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	var scheduler *app.Scheduler
	if cfg.PollerEnabled {
		scheduler, err = container.StartScheduler(ctx)
		if err != nil {
			logger.Error("start scheduler", "error", err)
			_ = container.Close()
			os.Exit(1)
		}
	} else {
		logger.Info("poller disabled, matches are processed only on request")
	}

	srv, err := container.NewHTTPServer()
	if err != nil {
		logger.Error("build http server", "error", err)
		_ = container.Close()
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			logger.Error("http server failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		exitCode = 1
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("stop scheduler", "error", err)
			exitCode = 1
		}
	}
	if err := container.Close(); err != nil {
		logger.Error("close app", "error", err)
		exitCode = 1
	}
	_ = telemetry.Shutdown(shutdownCtx)

	logger.Info("http server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
