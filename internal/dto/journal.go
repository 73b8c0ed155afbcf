package dto

import (
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PostingLineRequest is one line of a manual entry. Account takes an id or a code.
type PostingLineRequest struct {
	Account string          `json:"account" binding:"required"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Memo    string          `json:"memo"`
}

// CreateEntryRequest defines the data needed to create a journal entry.
type CreateEntryRequest struct {
	Date          time.Time            `json:"date"`
	Description   string               `json:"description" binding:"max=500"`
	Branch        string               `json:"branch"`
	ReferenceType string               `json:"referenceType"`
	ReferenceID   string               `json:"referenceID"`
	Lines         []PostingLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateDraftRequest replaces header fields and lines of a draft entry.
type UpdateDraftRequest struct {
	Date        time.Time            `json:"date"`
	Description string               `json:"description" binding:"max=500"`
	Lines       []PostingLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ImportEntriesRequest posts many entries at once, all or nothing.
type ImportEntriesRequest struct {
	Entries []CreateEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// ListEntriesParams defines the query parameters for listing entries.
type ListEntriesParams struct {
	Status        domain.EntryStatus `form:"status" binding:"omitempty,oneof=draft posted reversed"`
	Branch        string             `form:"branch"`
	From          *time.Time         `form:"from" time_format:"2006-01-02"`
	To            *time.Time         `form:"to" time_format:"2006-01-02"`
	ReferenceType string             `form:"referenceType"`
	ReferenceID   string             `form:"referenceID"`
	Limit         int                `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken     *string            `form:"nextToken"`
}

// EntryResponse is an entry with its postings and totals.
type EntryResponse struct {
	domain.JournalEntry
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Balanced    bool            `json:"balanced"`
}

// ToEntryResponse attaches totals to an entry.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	debit, credit := e.Totals()
	return EntryResponse{
		JournalEntry: *e,
		TotalDebit:   debit,
		TotalCredit:  credit,
		Balanced:     domain.IsBalanced(debit, credit),
	}
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.JournalEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out
}

// ListEntriesResponse is a page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ReverseEntryResponse returns both sides of a reversal.
type ReverseEntryResponse struct {
	Original EntryResponse `json:"original"`
	Mirror   EntryResponse `json:"mirror"`
}
