package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/http-run-scheduler/internal/transport/http/handler"
	"github.com/ErlanBelekov/http-run-scheduler/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

// NewRouter builds the control API. apiPrometheusHandler serves the
// dynamic api_scheduler_* collector on its own registry, kept
// separate from the ambient process registry exposed on METRICS_PORT.
func NewRouter(
	logger *slog.Logger,
	apiPrefix string,
	targets *handler.TargetHandler,
	schedules *handler.ScheduleHandler,
	runs *handler.RunHandler,
	metricsHandler *handler.MetricsHandler,
	healthHandler *handler.HealthHandler,
	apiPrometheusHandler http.Handler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/health", healthHandler.Liveness)
	r.GET("/health/ready", healthHandler.Readiness)

	api := r.Group(apiPrefix)

	t := api.Group("/targets")
	t.POST("", targets.Create)
	t.GET("", targets.List)
	t.GET("/:id", targets.GetByID)
	t.PATCH("/:id", targets.Update)
	t.DELETE("/:id", targets.Delete)

	s := api.Group("/schedules")
	s.POST("", schedules.Create)
	s.GET("", schedules.List)
	s.GET("/:id", schedules.GetByID)
	s.POST("/:id/pause", schedules.Pause)
	s.POST("/:id/resume", schedules.Resume)
	s.DELETE("/:id", schedules.Delete)

	rn := api.Group("/runs")
	rn.GET("", runs.List)
	rn.GET("/count", runs.Count)
	rn.GET("/:id", runs.GetByID)
	rn.GET("/:id/attempts", runs.ListAttempts)

	api.GET("/metrics", metricsHandler.JSON)
	api.GET("/metrics/prometheus", gin.WrapH(apiPrometheusHandler))

	return r
}
