package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type fiscalYearHandler struct {
	periodService   portssvc.FiscalYearSvc
	rolloverService portssvc.RolloverSvc
}

// RegisterFiscalYearRoutes registers fiscal year routes, rollover included.
func RegisterFiscalYearRoutes(r *gin.RouterGroup, fs portssvc.FiscalYearSvc, rs portssvc.RolloverSvc) {
	h := &fiscalYearHandler{periodService: fs, rolloverService: rs}

	years := r.Group("/fiscal-years")
	{
		years.GET("", h.listFiscalYears)
		years.POST("", h.openFiscalYear)
		years.GET("/current", h.currentFiscalYear)
		years.GET("/:fiscalYearID", h.getFiscalYear)
		years.POST("/:fiscalYearID/close", h.closeFiscalYear)
		years.POST("/:fiscalYearID/temporary-open", h.temporaryOpen)
		years.POST("/:fiscalYearID/temporary-close", h.temporaryClose)
		years.POST("/:fiscalYearID/rollover", h.rollover)
		years.GET("/:fiscalYearID/activities", h.listActivities)
	}
}

// listFiscalYears godoc
// @Summary List fiscal years
// @Tags fiscal-years
// @Produce  json
// @Success 200 {array} domain.FiscalYear
// @Security BearerAuth
// @Router /fiscal-years [get]
func (h *fiscalYearHandler) listFiscalYears(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	years, err := h.periodService.ListFiscalYears(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, years)
}

// openFiscalYear godoc
// @Summary Open a fiscal year
// @Tags fiscal-years
// @Accept  json
// @Produce  json
// @Param   request body dto.OpenFiscalYearRequest true "Year"
// @Success 201 {object} domain.FiscalYear
// @Failure 409 {object} map[string]string "Year exists"
// @Security BearerAuth
// @Router /fiscal-years [post]
func (h *fiscalYearHandler) openFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.OpenFiscalYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for OpenFiscalYear", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	fy, err := h.periodService.OpenFiscalYear(c.Request.Context(), req.Year, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Fiscal year opened", slog.Int("year", fy.Year))
	c.JSON(http.StatusCreated, fy)
}

// currentFiscalYear godoc
// @Summary Fiscal year containing today
// @Tags fiscal-years
// @Produce  json
// @Success 200 {object} domain.FiscalYear
// @Failure 404 {object} map[string]string "No fiscal year"
// @Security BearerAuth
// @Router /fiscal-years/current [get]
func (h *fiscalYearHandler) currentFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	fy, err := h.periodService.CurrentFiscalYear(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, fy)
}

// getFiscalYear godoc
// @Summary Get a fiscal year
// @Tags fiscal-years
// @Produce  json
// @Param   fiscalYearID path string true "Fiscal year ID"
// @Success 200 {object} domain.FiscalYear
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /fiscal-years/{fiscalYearID} [get]
func (h *fiscalYearHandler) getFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	fy, err := h.periodService.GetFiscalYear(c.Request.Context(), c.Param("fiscalYearID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, fy)
}

// closeFiscalYear godoc
// @Summary Close a fiscal year without rollover
// @Tags fiscal-years
// @Produce  json
// @Param   fiscalYearID path string true "Fiscal year ID"
// @Success 200 {object} domain.FiscalYear
// @Failure 409 {object} map[string]string "Not open"
// @Security BearerAuth
// @Router /fiscal-years/{fiscalYearID}/close [post]
func (h *fiscalYearHandler) closeFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	fy, err := h.periodService.CloseFiscalYear(c.Request.Context(), c.Param("fiscalYearID"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, fy)
}

// temporaryOpen godoc
// @Summary Temporarily reopen a closed fiscal year
// @Tags fiscal-years
// @Accept  json
// @Produce  json
// @Param   fiscalYearID path string true "Fiscal year ID"
// @Param   request body dto.TemporaryOpenRequest true "Reason"
// @Success 200 {object} domain.FiscalYear
// @Failure 403 {object} map[string]string "Missing temporary_open capability"
// @Failure 409 {object} map[string]string "Not closed"
// @Security BearerAuth
// @Router /fiscal-years/{fiscalYearID}/temporary-open [post]
func (h *fiscalYearHandler) temporaryOpen(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.TemporaryOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for TemporaryOpen", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	fy, err := h.periodService.TemporaryOpen(c.Request.Context(), c.Param("fiscalYearID"), req.Reason, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Fiscal year temporarily opened", slog.Int("year", fy.Year))
	c.JSON(http.StatusOK, fy)
}

// temporaryClose godoc
// @Summary End a temporary reopening
// @Tags fiscal-years
// @Produce  json
// @Param   fiscalYearID path string true "Fiscal year ID"
// @Success 200 {object} domain.FiscalYear
// @Failure 409 {object} map[string]string "Not temporarily open"
// @Security BearerAuth
// @Router /fiscal-years/{fiscalYearID}/temporary-close [post]
func (h *fiscalYearHandler) temporaryClose(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	fy, err := h.periodService.TemporaryClose(c.Request.Context(), c.Param("fiscalYearID"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, fy)
}

// rollover godoc
// @Summary Roll a fiscal year over
// @Description Closes the year and posts its ending balances into the target year as one carry-forward entry
// @Tags fiscal-years
// @Accept  json
// @Produce  json
// @Param   fiscalYearID path string true "Source fiscal year ID"
// @Param   request body dto.RolloverRequest false "Target year"
// @Success 200 {object} domain.RolloverResult
// @Failure 409 {object} map[string]string "Source not open"
// @Failure 422 {object} map[string]string "Source trial balance unbalanced"
// @Security BearerAuth
// @Router /fiscal-years/{fiscalYearID}/rollover [post]
func (h *fiscalYearHandler) rollover(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	// The body is optional.
	var req dto.RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for Rollover", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.rolloverService.Rollover(c.Request.Context(), c.Param("fiscalYearID"), req.TargetYear, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Fiscal year rolled over", slog.String("fiscal_year_id", c.Param("fiscalYearID")))
	c.JSON(http.StatusOK, result)
}

// listActivities godoc
// @Summary Fiscal year activity log
// @Tags fiscal-years
// @Produce  json
// @Param   fiscalYearID path string true "Fiscal year ID"
// @Success 200 {array} domain.FiscalYearActivity
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /fiscal-years/{fiscalYearID}/activities [get]
func (h *fiscalYearHandler) listActivities(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	activities, err := h.periodService.ListActivities(c.Request.Context(), c.Param("fiscalYearID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}
