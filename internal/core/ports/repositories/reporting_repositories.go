package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// BalanceReader aggregates posted postings. Every method applies the posted-only
// rule: drafts, reversed originals and reversal mirrors never contribute.
type BalanceReader interface {
	// SumPostings returns per-account totals for the filter, keyed by account id.
	// Accounts with no matching postings are absent.
	SumPostings(ctx context.Context, filter domain.PostingSumFilter) (map[string]domain.AccountTotals, error)

	// LatestCarryForwardDate returns the date of the most recent rollover opening
	// entry dated on or before onOrBefore, or nil when there is none.
	LatestCarryForwardDate(ctx context.Context, onOrBefore time.Time) (*time.Time, error)

	// ListPostingLines returns the account's posted non-carry-forward lines in [from, to],
	// ordered by date then entry number.
	ListPostingLines(ctx context.Context, accountID string, from, to time.Time) ([]domain.PostingLine, error)
}
