package dto

import (
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// CheckMutableRequest asks the period gate whether a date can be mutated.
type CheckMutableRequest struct {
	Date   time.Time         `json:"date"`
	Action domain.GateAction `json:"action" binding:"omitempty,oneof=create update post reverse return_to_draft remove import auto_post"`
	Branch string            `json:"branch"`
	Strict bool              `json:"strict"`
}

// OpenFiscalYearRequest creates a fiscal year spanning the calendar year.
type OpenFiscalYearRequest struct {
	Year int `json:"year" binding:"required,min=1900,max=9999"`
}

// TemporaryOpenRequest reopens a closed fiscal year for a stated reason.
type TemporaryOpenRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RolloverRequest optionally names the target year, which must be the source year + 1.
type RolloverRequest struct {
	TargetYear *int `json:"targetYear" binding:"omitempty,min=1900,max=9999"`
}
