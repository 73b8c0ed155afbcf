package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry represents a row of the journal_entries table.
type JournalEntry struct {
	EntryID       string     `db:"entry_id"`
	EntryNumber   int64      `db:"entry_number"`
	EntryDate     time.Time  `db:"entry_date"`
	Description   string     `db:"description"`
	Status        string     `db:"status"`
	ReferenceType *string    `db:"reference_type"`
	ReferenceID   *string    `db:"reference_id"`
	Branch        string     `db:"branch"`
	FiscalYearID  *string    `db:"fiscal_year_id"`
	ReversalOfID  *string    `db:"reversal_of_id"`
	ReversedByID  *string    `db:"reversed_by_id"`
	PostedAt      *time.Time `db:"posted_at"`
	PostedBy      *string    `db:"posted_by"`
	AuditFields
}

// JournalPosting represents a row of the journal_postings table.
type JournalPosting struct {
	PostingID string          `db:"posting_id"`
	EntryID   string          `db:"entry_id"`
	AccountID string          `db:"account_id"`
	LineNo    int             `db:"line_no"`
	Debit     decimal.Decimal `db:"debit"`
	Credit    decimal.Decimal `db:"credit"`
	Memo      string          `db:"memo"`
}
