package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/config"
	"github.com/ErlanBelekov/http-run-scheduler/internal/coordinator"
	"github.com/ErlanBelekov/http-run-scheduler/internal/executor"
	"github.com/ErlanBelekov/http-run-scheduler/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/http-run-scheduler/internal/log"
	"github.com/ErlanBelekov/http-run-scheduler/internal/metrics"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	metrics.ProcessStartTime.Set(float64(time.Now().Unix()))

	location, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		logger.Warn("unknown scheduler timezone, defaulting to UTC", "timezone", cfg.SchedulerTimezone, "error", err)
		location = time.UTC
	}

	targetRepo := postgres.NewTargetRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)
	runRepo := postgres.NewRunRepository(pool)
	attemptRepo := postgres.NewAttemptRepository(pool)

	exec := executor.New(
		logger,
		runRepo,
		attemptRepo,
		cfg.MaxRetries,
		time.Duration(cfg.RetryDelaySeconds*float64(time.Second)),
		cfg.VerifySSL,
	)

	coord := coordinator.New(scheduleRepo, targetRepo, runRepo, exec, location, logger)

	if err := coord.Recover(ctx); err != nil {
		logger.Error("startup recovery failed", "error", err)
	}

	sweeper := coordinator.NewSweeper(coord, time.Duration(cfg.WindowSweepSeconds)*time.Second)
	go sweeper.Start(ctx)

	reconciler := coordinator.NewReconciler(coord, time.Duration(cfg.ReconcileSeconds)*time.Second)
	go reconciler.Start(ctx)

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	coord.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	metrics.ProcessShutdownsTotal.Inc()
	logger.Info("scheduler shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
