package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests related to financial reports
type reportingHandler struct {
	balanceService portssvc.BalanceSvc
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(bs portssvc.BalanceSvc) *reportingHandler {
	return &reportingHandler{
		balanceService: bs,
	}
}

// RegisterReportingRoutes registers routes related to financial reports
func RegisterReportingRoutes(rg *gin.RouterGroup, bs portssvc.BalanceSvc) {
	h := newReportingHandler(bs)

	reportingGroup := rg.Group("/reports")
	{
		reportingGroup.GET("/trial-balance", h.getTrialBalance)
		reportingGroup.GET("/fiscal-year-comparison", h.getFiscalYearComparison)
	}
}

// getTrialBalance godoc
// @Summary Generate trial balance report
// @Description Beginning, period and ending balances per account over [from, to]
// @Tags reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD), open ended when omitted"
// @Param to query string false "End date (YYYY-MM-DD)" default(current date)
// @Success 200 {object} domain.TrialBalance
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to generate report"
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, err := parseDateQuery(c, "from")
	if err != nil {
		logger.Warn("Invalid from date format", slog.String("from", c.Query("from")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date format, expected YYYY-MM-DD"})
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		logger.Warn("Invalid to date format", slog.String("to", c.Query("to")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date format, expected YYYY-MM-DD"})
		return
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if to != nil {
		end = *to
	}

	report, err := h.balanceService.TrialBalance(c.Request.Context(), from, end)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	logger.Debug("Trial balance generated", slog.Int("rows", len(report.Rows)), slog.Bool("balanced", report.Balanced))
	c.JSON(http.StatusOK, report)
}

// getFiscalYearComparison godoc
// @Summary Compare two fiscal years
// @Description Ending balances of two fiscal years side by side
// @Tags reports
// @Produce json
// @Param a query int true "First year"
// @Param b query int true "Second year"
// @Success 200 {object} domain.FiscalYearComparison
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /reports/fiscal-year-comparison [get]
func (h *reportingHandler) getFiscalYearComparison(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	yearA, errA := strconv.Atoi(c.Query("a"))
	yearB, errB := strconv.Atoi(c.Query("b"))
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameters a and b must be years"})
		return
	}

	report, err := h.balanceService.CompareFiscalYears(c.Request.Context(), yearA, yearB)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
