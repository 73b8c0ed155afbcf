package services

import (
	"context"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceSvc aggregates posted postings into balances
type BalanceSvc interface {
	// TrialBalance covers [from, to]. A nil from starts at time zero.
	TrialBalance(ctx context.Context, from *time.Time, to time.Time) (*domain.TrialBalance, error)

	// AccountBalance is debit minus credit through asOf inclusive.
	AccountBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)

	AccountStatement(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountStatement, error)

	// CompareFiscalYears puts the ending balances of two years side by side.
	CompareFiscalYears(ctx context.Context, yearA, yearB int) (*domain.FiscalYearComparison, error)

	// InvalidateAccounts drops cached balances of the given accounts, or of every account when none are given.
	InvalidateAccounts(accountIDs ...string)
}

// RolloverSvc closes a fiscal year into the next one
type RolloverSvc interface {
	Rollover(ctx context.Context, sourceFiscalYearID string, targetYear *int, actor domain.Actor) (*domain.RolloverResult, error)
}
