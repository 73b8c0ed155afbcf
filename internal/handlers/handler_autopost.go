package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type autoPostHandler struct {
	autoPostService portssvc.AutoPostSvc
}

// RegisterAutoPostRoutes exposes the auto-posting gateway to remote domain writers.
func RegisterAutoPostRoutes(r *gin.RouterGroup, aps portssvc.AutoPostSvc) {
	h := &autoPostHandler{autoPostService: aps}
	r.POST("/autopost", h.autoPost)
}

// autoPost godoc
// @Summary Auto-post a business event
// @Description Validates, resolves account codes, gates the date and posts in one transaction.
// @Description Failures report the stage so the caller can compensate.
// @Tags autopost
// @Accept  json
// @Produce  json
// @Param   request body dto.AutoPostRequest true "Event lines"
// @Success 201 {object} dto.AutoPostResponse
// @Failure 400 {object} dto.AutoPostFailureResponse
// @Failure 404 {object} dto.AutoPostFailureResponse
// @Failure 422 {object} dto.AutoPostFailureResponse
// @Failure 423 {object} dto.AutoPostFailureResponse
// @Security BearerAuth
// @Router /autopost [post]
func (h *autoPostHandler) autoPost(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.AutoPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AutoPost", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.autoPostService.AutoPost(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, logger.With(slog.String("reference_type", req.ReferenceType), slog.String("reference_id", req.ReferenceID)), err)
		return
	}
	logger.Info("Auto-post succeeded",
		slog.String("reference_type", req.ReferenceType),
		slog.String("reference_id", req.ReferenceID),
		slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.AutoPostResponse{EntryID: entry.EntryID, EntryNumber: entry.EntryNumber})
}
