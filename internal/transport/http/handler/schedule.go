package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	uc     *usecase.ScheduleUsecase
	logger *slog.Logger
}

func NewScheduleHandler(uc *usecase.ScheduleUsecase, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{uc: uc, logger: logger.With("component", "schedule_handler")}
}

type createScheduleRequest struct {
	Name            string  `json:"name"             binding:"required,max=256"`
	TargetID        string  `json:"target_id"        binding:"required"`
	Kind            string  `json:"kind"             binding:"required,oneof=INTERVAL CRON"`
	IntervalSeconds *int    `json:"interval_seconds" binding:"omitempty,min=1"`
	CronExpr        *string `json:"cron_expr"`
	DurationSeconds *int    `json:"duration_seconds" binding:"omitempty,min=1"`
	MaxRuns         *int    `json:"max_runs"         binding:"omitempty,min=1"`
}

func (h *ScheduleHandler) Create(ctx *gin.Context) {
	var req createScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.CreateSchedule(ctx.Request.Context(), usecase.CreateScheduleInput{
		Name:            req.Name,
		TargetID:        req.TargetID,
		Kind:            domain.ScheduleKind(req.Kind),
		IntervalSeconds: req.IntervalSeconds,
		CronExpr:        req.CronExpr,
		DurationSeconds: req.DurationSeconds,
		MaxRuns:         req.MaxRuns,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidScheduleKind), errors.Is(err, domain.ErrInvalidCronExpr):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrTargetNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
		default:
			h.logger.Error("create schedule", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusCreated, s)
}

func (h *ScheduleHandler) List(ctx *gin.Context) {
	var status *domain.ScheduleStatus
	if raw := ctx.Query("status"); raw != "" {
		s := domain.ScheduleStatus(raw)
		status = &s
	}

	schedules, err := h.uc.ListSchedules(ctx.Request.Context(), usecase.ListSchedulesInput{Status: status})
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (h *ScheduleHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	s, err := h.uc.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("get schedule", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, s)
}

func (h *ScheduleHandler) Pause(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.uc.PauseSchedule(ctx.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleNotActive):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errScheduleNotActive})
		default:
			h.logger.Error("pause schedule", "schedule_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Resume(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.uc.ResumeSchedule(ctx.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleNotPaused):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errScheduleNotPaused})
		default:
			h.logger.Error("resume schedule", "schedule_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.uc.DeleteSchedule(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("delete schedule", "schedule_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}
