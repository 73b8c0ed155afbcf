package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	EntryDraft    EntryStatus = "draft"
	EntryPosted   EntryStatus = "posted"
	EntryReversed EntryStatus = "reversed"
)

// JournalEntry is the header of a double-entry record.
type JournalEntry struct {
	EntryID       string      `json:"entryID"`
	EntryNumber   int64       `json:"entryNumber"`
	EntryDate     time.Time   `json:"entryDate"`
	Description   string      `json:"description"`
	Status        EntryStatus `json:"status"`
	ReferenceType string      `json:"referenceType,omitempty"` // weak back-reference, never dereferenced here
	ReferenceID   string      `json:"referenceID,omitempty"`
	Branch        string      `json:"branch"`
	FiscalYearID  string      `json:"fiscalYearID,omitempty"`
	ReversalOfID  string      `json:"reversalOfID,omitempty"` // set on mirror entries
	ReversedByID  string      `json:"reversedByID,omitempty"` // set on the reversed original
	PostedAt      *time.Time  `json:"postedAt,omitempty"`
	PostedBy      string      `json:"postedBy,omitempty"`
	AuditFields
	Postings []Posting `json:"postings,omitempty"`
}

// IsMirror reports whether e was generated by reversing another entry.
func (e JournalEntry) IsMirror() bool {
	return e.ReversalOfID != ""
}

// Totals sums the debit and credit sides of the entry's postings.
func (e JournalEntry) Totals() (decimal.Decimal, decimal.Decimal) {
	return SumPostings(e.Postings)
}

// Posting is one debit-or-credit line of a journal entry.
type Posting struct {
	PostingID string          `json:"postingID"`
	EntryID   string          `json:"entryID"`
	AccountID string          `json:"accountID"`
	LineNo    int             `json:"lineNo"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
}

// SumPostings returns total debit and total credit.
func SumPostings(postings []Posting) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, p := range postings {
		debit = debit.Add(p.Debit)
		credit = credit.Add(p.Credit)
	}
	return debit, credit
}

// MirrorPostings swaps debit and credit of every line, re-homing them under entryID.
func MirrorPostings(postings []Posting, entryID string, newID func() string) []Posting {
	out := make([]Posting, len(postings))
	for i, p := range postings {
		out[i] = Posting{
			PostingID: newID(),
			EntryID:   entryID,
			AccountID: p.AccountID,
			LineNo:    p.LineNo,
			Debit:     p.Credit,
			Credit:    p.Debit,
			Memo:      p.Memo,
		}
	}
	return out
}

// EntryFilter narrows entry listings. Zero values mean "any".
type EntryFilter struct {
	Status        EntryStatus
	Branch        string
	From          *time.Time
	To            *time.Time
	ReferenceType string
	ReferenceID   string
}

// Matches applies the filter to a single entry.
func (f EntryFilter) Matches(e JournalEntry) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Branch != "" && e.Branch != f.Branch {
		return false
	}
	if f.From != nil && e.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryDate.After(*f.To) {
		return false
	}
	if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
		return false
	}
	if f.ReferenceID != "" && e.ReferenceID != f.ReferenceID {
		return false
	}
	return true
}
