package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

// RegisterPeriodRoutes registers accounting period routes.
func RegisterPeriodRoutes(r *gin.RouterGroup, ps portssvc.PeriodSvcFacade) {
	h := &periodHandler{periodService: ps}

	periods := r.Group("/periods")
	{
		periods.GET("", h.listPeriods)
		periods.POST("/check", h.checkMutable)
		periods.POST("/:periodKey/close", h.closePeriod)
		periods.POST("/:periodKey/reopen", h.reopenPeriod)
	}
}

// listPeriods godoc
// @Summary List accounting periods of a year
// @Tags periods
// @Produce  json
// @Param   year query int true "Calendar year"
// @Success 200 {array} domain.AccountingPeriod
// @Failure 400 {object} map[string]string "Invalid year"
// @Security BearerAuth
// @Router /periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year is required"})
		return
	}

	periods, err := h.periodService.ListPeriods(c.Request.Context(), year)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, periods)
}

// checkMutable godoc
// @Summary Check whether a date may be mutated
// @Description Applies the period, fiscal year and override rules. Missing periods are created open unless strict.
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   request body dto.CheckMutableRequest true "Date and action"
// @Success 200 {object} domain.GateDecision
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /periods/check [post]
func (h *periodHandler) checkMutable(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.CheckMutableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CheckMutable", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Action == "" {
		req.Action = domain.ActionCreate
	}

	decision, err := h.periodService.CheckMutable(c.Request.Context(), req.Date, domain.GateRequest{
		Action: req.Action,
		Branch: req.Branch,
		Strict: req.Strict,
	}, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// closePeriod godoc
// @Summary Close an accounting period
// @Tags periods
// @Produce  json
// @Param   periodKey path string true "Period key YYYY-MM"
// @Success 200 {object} domain.AccountingPeriod
// @Failure 409 {object} map[string]string "Already closed"
// @Security BearerAuth
// @Router /periods/{periodKey}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	period, err := h.periodService.ClosePeriod(c.Request.Context(), c.Param("periodKey"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Period closed", slog.String("period_key", period.PeriodKey))
	c.JSON(http.StatusOK, period)
}

// reopenPeriod godoc
// @Summary Reopen an accounting period
// @Tags periods
// @Produce  json
// @Param   periodKey path string true "Period key YYYY-MM"
// @Success 200 {object} domain.AccountingPeriod
// @Failure 403 {object} map[string]string "Missing reopen capability"
// @Security BearerAuth
// @Router /periods/{periodKey}/reopen [post]
func (h *periodHandler) reopenPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	period, err := h.periodService.ReopenPeriod(c.Request.Context(), c.Param("periodKey"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Period reopened", slog.String("period_key", period.PeriodKey))
	c.JSON(http.StatusOK, period)
}
