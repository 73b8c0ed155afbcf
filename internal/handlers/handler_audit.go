package handlers

import (
	"net/http"
	"strconv"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type auditHandler struct {
	auditService portssvc.AuditSvc
}

// RegisterAuditRoutes exposes the audit trail to reviewers.
func RegisterAuditRoutes(r *gin.RouterGroup, as portssvc.AuditSvc) {
	h := &auditHandler{auditService: as}
	r.GET("/audit", h.listAudit)
}

// listAudit godoc
// @Summary List audit records
// @Description Newest first. Gate denials and failed privileged actions appear here too.
// @Tags audit
// @Produce json
// @Param entityType query string false "journal_entry, accounting_period, fiscal_year or account"
// @Param entityID query string false "Entity id"
// @Param limit query int false "Max records (default 100, max 1000)"
// @Success 200 {array} domain.AuditRecord
// @Failure 400 {object} map[string]string "Invalid limit"
// @Security BearerAuth
// @Router /audit [get]
func (h *auditHandler) listAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	filter := domain.AuditFilter{
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityID"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	records, err := h.auditService.ListAudit(c.Request.Context(), filter)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
