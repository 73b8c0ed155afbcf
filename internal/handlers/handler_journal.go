package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles the journal entry lifecycle.
type journalHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newJournalHandler(ls portssvc.LedgerSvcFacade) *journalHandler {
	return &journalHandler{ledgerService: ls}
}

// RegisterJournalRoutes registers journal entry routes.
func RegisterJournalRoutes(r *gin.RouterGroup, ls portssvc.LedgerSvcFacade) {
	h := newJournalHandler(ls)

	journals := r.Group("/journals")
	{
		journals.POST("", h.createEntry)
		journals.GET("", h.listEntries)
		journals.POST("/import", h.importEntries)
		journals.GET("/:entryID", h.getEntry)
		journals.PUT("/:entryID", h.updateDraft)
		journals.DELETE("/:entryID", h.removeEntry)
		journals.POST("/:entryID/post", h.postEntry)
		journals.POST("/:entryID/reverse", h.reverseEntry)
		journals.POST("/:entryID/return-to-draft", h.returnToDraft)
	}
}

// createEntry godoc
// @Summary Create a draft journal entry
// @Description Stores a manual entry as draft. Lines reference accounts by id or code.
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry and lines"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /journals [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.ledgerService.CreateEntry(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Draft entry created", slog.String("entry_id", entry.EntryID), slog.Int64("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Lists entries newest first with token pagination
// @Tags journals
// @Produce  json
// @Param   status query string false "draft, posted or reversed"
// @Param   branch query string false "Branch"
// @Param   from query string false "Start date YYYY-MM-DD"
// @Param   to query string false "End date YYYY-MM-DD"
// @Param   referenceType query string false "Reference type"
// @Param   referenceID query string false "Reference id"
// @Param   limit query int false "Page size (max 100)"
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /journals [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getEntry godoc
// @Summary Get a journal entry
// @Tags journals
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /journals/{entryID} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	entry, err := h.ledgerService.GetEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// updateDraft godoc
// @Summary Update a draft entry
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   entry body dto.UpdateDraftRequest true "Header and lines"
// @Success 200 {object} dto.EntryResponse
// @Failure 409 {object} map[string]string "Entry is not a draft"
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /journals/{entryID} [put]
func (h *journalHandler) updateDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.ledgerService.UpdateDraft(c.Request.Context(), c.Param("entryID"), req, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// postEntry godoc
// @Summary Post a draft entry
// @Tags journals
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 409 {object} map[string]string "Already posted"
// @Failure 422 {object} map[string]string "Unbalanced entry"
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /journals/{entryID}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), c.Param("entryID"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Entry posted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Marks the entry reversed and posts a mirror dated today
// @Tags journals
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.ReverseEntryResponse
// @Failure 409 {object} map[string]string "Not posted"
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /journals/{entryID}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	original, mirror, err := h.ledgerService.ReverseEntry(c.Request.Context(), c.Param("entryID"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Entry reversed", slog.String("entry_id", original.EntryID), slog.String("mirror_id", mirror.EntryID))
	c.JSON(http.StatusOK, dto.ReverseEntryResponse{
		Original: dto.ToEntryResponse(original),
		Mirror:   dto.ToEntryResponse(mirror),
	})
}

// returnToDraft godoc
// @Summary Return a posted entry to draft
// @Tags journals
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 409 {object} map[string]string "Not posted"
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /journals/{entryID}/return-to-draft [post]
func (h *journalHandler) returnToDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.ReturnToDraft(c.Request.Context(), c.Param("entryID"), actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// removeEntry godoc
// @Summary Remove an entry
// @Description Deletes a draft, or a posted entry when the caller may remove posted entries
// @Tags journals
// @Param   entryID path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 423 {object} map[string]string "Period or fiscal year closed"
// @Security BearerAuth
// @Router /journals/{entryID} [delete]
func (h *journalHandler) removeEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	entryID := c.Param("entryID")

	if err := h.ledgerService.RemoveEntry(c.Request.Context(), entryID, actor); err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Entry removed", slog.String("entry_id", entryID))
	c.Status(http.StatusNoContent)
}

// importEntries godoc
// @Summary Import entries
// @Description Creates and posts every entry in one transaction, all or nothing
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   entries body dto.ImportEntriesRequest true "Entries"
// @Success 201 {array} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 422 {object} map[string]string "Unbalanced entry"
// @Security BearerAuth
// @Router /journals/import [post]
func (h *journalHandler) importEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req dto.ImportEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ImportEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entries, err := h.ledgerService.ImportEntries(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Entries imported", slog.Int("count", len(entries)))
	c.JSON(http.StatusCreated, dto.ToEntryResponses(entries))
}
