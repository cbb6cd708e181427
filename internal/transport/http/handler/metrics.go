package handler

import (
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	uc     *usecase.MetricsUsecase
	logger *slog.Logger
}

func NewMetricsHandler(uc *usecase.MetricsUsecase, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{uc: uc, logger: logger.With("component", "metrics_handler")}
}

// JSON serves the aggregate operational snapshot.
func (h *MetricsHandler) JSON(ctx *gin.Context) {
	agg, err := h.uc.Aggregate(ctx.Request.Context())
	if err != nil {
		h.logger.Error("aggregate metrics", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusOK, agg)
}
