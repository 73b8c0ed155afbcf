package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AutoPostLine is one line of an auto-posted entry, addressed by account code.
type AutoPostLine struct {
	AccountCode string          `json:"accountCode" binding:"required,numeric" validate:"required,numeric"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
}

// AutoPostRequest is what an expense, payroll or invoice writer sends to post its record.
type AutoPostRequest struct {
	ReferenceType string         `json:"referenceType" binding:"required" validate:"required,max=50"`
	ReferenceID   string         `json:"referenceID" binding:"required" validate:"required,max=100"`
	Date          time.Time      `json:"date"`
	Description   string         `json:"description" validate:"max=500"`
	Branch        string         `json:"branch" binding:"required" validate:"required"`
	Lines         []AutoPostLine `json:"lines" binding:"required,min=1,dive" validate:"required,min=1,dive"`
}

// AutoPostResponse reports the posted entry.
type AutoPostResponse struct {
	EntryID     string `json:"entryID"`
	EntryNumber int64  `json:"entryNumber"`
}

// AutoPostFailureResponse carries the failing stage so the writer can compensate.
type AutoPostFailureResponse struct {
	Error  string `json:"error"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
