package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

type RunHandler struct {
	uc     *usecase.RunUsecase
	logger *slog.Logger
}

func NewRunHandler(uc *usecase.RunUsecase, logger *slog.Logger) *RunHandler {
	return &RunHandler{uc: uc, logger: logger.With("component", "run_handler")}
}

func parseListRunsQuery(ctx *gin.Context) usecase.ListRunsInput {
	var in usecase.ListRunsInput

	if v := ctx.Query("schedule_id"); v != "" {
		in.ScheduleID = &v
	}
	if v := ctx.Query("status"); v != "" {
		s := domain.RunStatus(v)
		in.Status = &s
	}
	if v := ctx.Query("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			in.StartTime = &t
		}
	}
	if v := ctx.Query("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			in.EndTime = &t
		}
	}
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil {
		in.Limit = v
	}
	if v, err := strconv.Atoi(ctx.Query("offset")); err == nil {
		in.Offset = v
	}
	return in
}

func (h *RunHandler) List(ctx *gin.Context) {
	in := parseListRunsQuery(ctx)

	runs, err := h.uc.ListRuns(ctx.Request.Context(), in)
	if err != nil {
		h.logger.Error("list runs", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Count reports the total number of Runs matching the same filters as
// List, without the limit/offset pagination applied.
func (h *RunHandler) Count(ctx *gin.Context) {
	in := parseListRunsQuery(ctx)

	n, err := h.uc.CountRuns(ctx.Request.Context(), in)
	if err != nil {
		h.logger.Error("count runs", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *RunHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	run, err := h.uc.GetRun(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errRunNotFound})
			return
		}
		h.logger.Error("get run", "run_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, run)
}

// ListAttempts returns the Attempt history for a single Run, ordered
// by attempt number.
func (h *RunHandler) ListAttempts(ctx *gin.Context) {
	id := ctx.Param("id")

	attempts, err := h.uc.ListAttempts(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errRunNotFound})
			return
		}
		h.logger.Error("list attempts", "run_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
