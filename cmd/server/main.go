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
	"github.com/ErlanBelekov/http-run-scheduler/internal/health"
	"github.com/ErlanBelekov/http-run-scheduler/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/http-run-scheduler/internal/log"
	"github.com/ErlanBelekov/http-run-scheduler/internal/metrics"
	httptransport "github.com/ErlanBelekov/http-run-scheduler/internal/transport/http"
	"github.com/ErlanBelekov/http-run-scheduler/internal/transport/http/handler"
	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	location, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		logger.Warn("unknown scheduler timezone, defaulting to UTC", "timezone", cfg.SchedulerTimezone, "error", err)
		location = time.UTC
	}

	targetRepo := postgres.NewTargetRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)
	runRepo := postgres.NewRunRepository(pool)

	// The control plane never fires a Run itself — it only validates
	// schedules and persists lifecycle transitions. Live registration
	// with an Engine is owned by cmd/scheduler's Reconciler, polling
	// the same database.
	coord := coordinator.NewControlPlane(scheduleRepo, targetRepo, location, logger)

	targetUsecase := usecase.NewTargetUsecase(targetRepo, cfg.DefaultTimeoutSeconds, cfg.MaxTimeoutSeconds)
	scheduleUsecase := usecase.NewScheduleUsecase(scheduleRepo, targetRepo, coord)
	runUsecase := usecase.NewRunUsecase(runRepo)
	metricsUsecase := usecase.NewMetricsUsecase(targetRepo, scheduleRepo, runRepo)

	targetHandler := handler.NewTargetHandler(targetUsecase, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, logger)
	runHandler := handler.NewRunHandler(runUsecase, logger)
	metricsHandler := handler.NewMetricsHandler(metricsUsecase, logger)

	metrics.Register()
	metrics.ProcessStartTime.Set(float64(time.Now().Unix()))
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)
	healthHandler := handler.NewHealthHandler(checker)

	apiRegistry := prometheus.NewRegistry()
	apiRegistry.MustRegister(metrics.NewAPICollector(logger, func(ctx context.Context) (*metrics.Snapshot, error) {
		agg, err := metricsUsecase.Aggregate(ctx)
		if err != nil {
			return nil, err
		}
		return toSnapshot(agg), nil
	}))
	apiPrometheusHandler := promhttp.HandlerFor(apiRegistry, promhttp.HandlerOpts{})

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(
			logger,
			cfg.APIPrefix,
			targetHandler,
			scheduleHandler,
			runHandler,
			metricsHandler,
			healthHandler,
			apiPrometheusHandler,
		),
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

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
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	metrics.ProcessShutdownsTotal.Inc()
}

func toSnapshot(agg *usecase.Aggregate) *metrics.Snapshot {
	schedulesByStatus := make(map[string]int, len(agg.SchedulesByStatus))
	for status, n := range agg.SchedulesByStatus {
		schedulesByStatus[string(status)] = n
	}
	runsByStatus := make(map[string]int, len(agg.RunsByStatus))
	for status, n := range agg.RunsByStatus {
		runsByStatus[string(status)] = n
	}
	runsLastHour := make(map[string]int, len(agg.RunsLastHourByStatus))
	for status, n := range agg.RunsLastHourByStatus {
		runsLastHour[string(status)] = n
	}
	errorsByKind := make(map[string]int, len(agg.ErrorsByKind24h))
	for kind, n := range agg.ErrorsByKind24h {
		errorsByKind[string(kind)] = n
	}
	return &metrics.Snapshot{
		TargetsTotal:         agg.TargetsTotal,
		SchedulesByStatus:    schedulesByStatus,
		RunsByStatus:         runsByStatus,
		RunsLastHourByStatus: runsLastHour,
		AverageLatencyMS24h:  agg.AverageLatencyMS24h,
		ErrorsByKind24h:      errorsByKind,
	}
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
