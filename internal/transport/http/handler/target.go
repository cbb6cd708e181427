package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

type TargetHandler struct {
	uc     *usecase.TargetUsecase
	logger *slog.Logger
}

func NewTargetHandler(uc *usecase.TargetUsecase, logger *slog.Logger) *TargetHandler {
	return &TargetHandler{uc: uc, logger: logger.With("component", "target_handler")}
}

type createTargetRequest struct {
	Name           string            `json:"name"            binding:"required,max=256"`
	URL            string            `json:"url"              binding:"required,url,max=2048"`
	Method         string            `json:"method"           binding:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	Headers        map[string]string `json:"headers"`
	Body           *string           `json:"body"`
	TimeoutSeconds float64           `json:"timeout_seconds" binding:"omitempty,min=0"`
}

type updateTargetRequest struct {
	Name           *string           `json:"name"             binding:"omitempty,max=256"`
	URL            *string           `json:"url"              binding:"omitempty,url,max=2048"`
	Method         *string           `json:"method"           binding:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	Headers        map[string]string `json:"headers"`
	Body           *string           `json:"body"`
	TimeoutSeconds *float64          `json:"timeout_seconds" binding:"omitempty,min=0"`
}

func (h *TargetHandler) Create(ctx *gin.Context) {
	var req createTargetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method := domain.HTTPMethod(req.Method)
	if method == "" {
		method = domain.MethodGET
	}

	t, err := h.uc.CreateTarget(ctx.Request.Context(), usecase.CreateTargetInput{
		Name:           req.Name,
		URL:            req.URL,
		Method:         method,
		Headers:        req.Headers,
		Body:           req.Body,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTargetURL):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errInvalidTargetURL})
		case errors.Is(err, domain.ErrInvalidTimeout):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errInvalidTimeout})
		default:
			h.logger.Error("create target", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TargetHandler) List(ctx *gin.Context) {
	targets, err := h.uc.ListTargets(ctx.Request.Context())
	if err != nil {
		h.logger.Error("list targets", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"targets": targets})
}

func (h *TargetHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	t, err := h.uc.GetTarget(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTargetNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
			return
		}
		h.logger.Error("get target", "target_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TargetHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req updateTargetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := usecase.UpdateTargetInput{
		Name:           req.Name,
		URL:            req.URL,
		Headers:        req.Headers,
		Body:           req.Body,
		TimeoutSeconds: req.TimeoutSeconds,
	}
	if req.Method != nil {
		m := domain.HTTPMethod(*req.Method)
		in.Method = &m
	}

	t, err := h.uc.UpdateTarget(ctx.Request.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTargetNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
		case errors.Is(err, domain.ErrInvalidTargetURL):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errInvalidTargetURL})
		case errors.Is(err, domain.ErrInvalidTimeout):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errInvalidTimeout})
		default:
			h.logger.Error("update target", "target_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TargetHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.uc.DeleteTarget(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTargetNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
			return
		}
		h.logger.Error("delete target", "target_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}
