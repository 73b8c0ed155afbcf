package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/utils/accounting"
	"github.com/SscSPs/backoffice_ledger/internal/utils/cache"
	"github.com/shopspring/decimal"
)

const balanceKeyDate = "2006-01-02"

type balanceService struct {
	BaseService
	balances portsrepo.BalanceReader
	accounts portsrepo.AccountReader
	years    portsrepo.FiscalYearRepository
	// account balances keyed "accountID|YYYY-MM-DD"
	cache *cache.TTLCache[string, decimal.Decimal]
}

// NewBalanceService creates the balance engine.
func NewBalanceService(balances portsrepo.BalanceReader, accounts portsrepo.AccountReader, years portsrepo.FiscalYearRepository, cacheSize int, cacheTTL time.Duration, opts ...ServiceOption) portssvc.BalanceSvc {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &balanceService{
		BaseService: newBaseService(opts),
		balances:    balances,
		accounts:    accounts,
		years:       years,
		cache:       cache.NewTTLCache[string, decimal.Decimal](cacheSize, cacheTTL),
	}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

// beginningTotals sums everything that happened strictly before day.
//
// When a rollover opening entry exists on or before day-1, the opening entry
// replaces all history before it: only that carry-forward plus the regular
// postings from its date onward are counted.
func (s *balanceService) beginningTotals(ctx context.Context, day time.Time, accountIDs []string) (map[string]domain.AccountTotals, error) {
	through := day.AddDate(0, 0, -1)
	cutoff, err := s.balances.LatestCarryForwardDate(ctx, through)
	if err != nil {
		return nil, err
	}

	if cutoff == nil {
		return s.balances.SumPostings(ctx, domain.PostingSumFilter{
			AccountIDs:   accountIDs,
			To:           &through,
			CarryForward: domain.CarryForwardExclude,
		})
	}

	opening, err := s.balances.SumPostings(ctx, domain.PostingSumFilter{
		AccountIDs:   accountIDs,
		From:         cutoff,
		To:           cutoff,
		CarryForward: domain.CarryForwardOnly,
	})
	if err != nil {
		return nil, err
	}
	regular, err := s.balances.SumPostings(ctx, domain.PostingSumFilter{
		AccountIDs:   accountIDs,
		From:         cutoff,
		To:           &through,
		CarryForward: domain.CarryForwardExclude,
	})
	if err != nil {
		return nil, err
	}
	return mergeTotals(opening, regular), nil
}

func mergeTotals(a, b map[string]domain.AccountTotals) map[string]domain.AccountTotals {
	out := make(map[string]domain.AccountTotals, len(a)+len(b))
	for id, t := range a {
		out[id] = t
	}
	for id, t := range b {
		cur, ok := out[id]
		if !ok {
			out[id] = t
			continue
		}
		cur.Debit = cur.Debit.Add(t.Debit)
		cur.Credit = cur.Credit.Add(t.Credit)
		out[id] = cur
	}
	return out
}

func (s *balanceService) TrialBalance(ctx context.Context, from *time.Time, to time.Time) (*domain.TrialBalance, error) {
	if to.IsZero() {
		return nil, fmt.Errorf("%w: to date is required", apperrors.ErrValidation)
	}
	end := domain.DateOnly(to)

	var start *time.Time
	beginning := map[string]domain.AccountTotals{}
	if from != nil && !from.IsZero() {
		d := domain.DateOnly(*from)
		if d.After(end) {
			return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
		}
		start = &d
		var err error
		if beginning, err = s.beginningTotals(ctx, d, nil); err != nil {
			return nil, err
		}
	}

	period, err := s.balances.SumPostings(ctx, domain.PostingSumFilter{
		From:         start,
		To:           &end,
		CarryForward: domain.CarryForwardExclude,
	})
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	tb := &domain.TrialBalance{
		From:        start,
		To:          end,
		Rows:        make([]domain.TrialBalanceRow, 0),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, acc := range accounts {
		begin, hasBegin := beginning[acc.AccountID]
		move, hasMove := period[acc.AccountID]
		if !hasBegin {
			begin = domain.AccountTotals{AccountID: acc.AccountID, Debit: decimal.Zero, Credit: decimal.Zero}
		}
		if !hasMove {
			move = domain.AccountTotals{AccountID: acc.AccountID, Debit: decimal.Zero, Credit: decimal.Zero}
		}
		if begin.Debit.IsZero() && begin.Credit.IsZero() && move.Debit.IsZero() && move.Credit.IsZero() {
			continue
		}

		ending := begin.Net().Add(move.Debit).Sub(move.Credit)
		tb.Rows = append(tb.Rows, domain.TrialBalanceRow{
			AccountID:      acc.AccountID,
			AccountCode:    acc.Code,
			AccountName:    acc.DisplayName(),
			AccountType:    acc.AccountType,
			Nature:         acc.Nature,
			Beginning:      begin.Net(),
			Debit:          move.Debit,
			Credit:         move.Credit,
			Ending:         ending,
			NaturalEnding:  accounting.NaturalBalance(ending, acc.Nature),
			NatureMismatch: !acc.NatureMatches(ending),
		})
		tb.TotalDebit = tb.TotalDebit.Add(begin.Debit).Add(move.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(begin.Credit).Add(move.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool {
		return tb.Rows[i].AccountCode < tb.Rows[j].AccountCode
	})
	tb.Balanced = domain.IsBalanced(tb.TotalDebit, tb.TotalCredit)
	return tb, nil
}

func (s *balanceService) AccountBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	if asOf.IsZero() {
		asOf = s.Today()
	}
	day := domain.DateOnly(asOf)
	key := accountID + "|" + day.Format(balanceKeyDate)
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	if _, err := s.accounts.FindAccountByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	totals, err := s.beginningTotals(ctx, day.AddDate(0, 0, 1), []string{accountID})
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	if t, ok := totals[accountID]; ok {
		balance = t.Net()
	}
	s.cache.Set(key, balance)
	return balance, nil
}

func (s *balanceService) AccountStatement(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountStatement, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: from and to are required", apperrors.ErrValidation)
	}
	start, end := domain.DateOnly(from), domain.DateOnly(to)
	if start.After(end) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	if _, err := s.accounts.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	totals, err := s.beginningTotals(ctx, start, []string{accountID})
	if err != nil {
		return nil, err
	}
	opening := decimal.Zero
	if t, ok := totals[accountID]; ok {
		opening = t.Net()
	}

	lines, err := s.balances.ListPostingLines(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}
	stmt := &domain.AccountStatement{
		AccountID: accountID,
		From:      start,
		To:        end,
		Opening:   opening,
		Lines:     make([]domain.StatementLine, 0, len(lines)),
	}
	running := opening
	for _, l := range lines {
		running = running.Add(l.Debit).Sub(l.Credit)
		stmt.Lines = append(stmt.Lines, domain.StatementLine{PostingLine: l, RunningBalance: running})
	}
	stmt.Closing = running
	return stmt, nil
}

func (s *balanceService) CompareFiscalYears(ctx context.Context, yearA, yearB int) (*domain.FiscalYearComparison, error) {
	endA, err := s.yearEnd(ctx, yearA)
	if err != nil {
		return nil, err
	}
	endB, err := s.yearEnd(ctx, yearB)
	if err != nil {
		return nil, err
	}

	closingA, err := s.beginningTotals(ctx, endA.AddDate(0, 0, 1), nil)
	if err != nil {
		return nil, err
	}
	closingB, err := s.beginningTotals(ctx, endB.AddDate(0, 0, 1), nil)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	cmp := &domain.FiscalYearComparison{YearA: yearA, YearB: yearB, Rows: make([]domain.FiscalYearComparisonRow, 0)}
	for _, acc := range accounts {
		a, okA := closingA[acc.AccountID]
		b, okB := closingB[acc.AccountID]
		if !okA && !okB {
			continue
		}
		netA, netB := decimal.Zero, decimal.Zero
		if okA {
			netA = a.Net()
		}
		if okB {
			netB = b.Net()
		}
		cmp.Rows = append(cmp.Rows, domain.FiscalYearComparisonRow{
			AccountID:   acc.AccountID,
			AccountCode: acc.Code,
			AccountName: acc.DisplayName(),
			EndingA:     netA,
			EndingB:     netB,
			Difference:  netB.Sub(netA),
		})
	}
	sort.Slice(cmp.Rows, func(i, j int) bool {
		return cmp.Rows[i].AccountCode < cmp.Rows[j].AccountCode
	})
	return cmp, nil
}

// yearEnd uses the stored fiscal year when there is one, else Dec 31.
func (s *balanceService) yearEnd(ctx context.Context, year int) (time.Time, error) {
	if year < minFiscalYear || year > maxFiscalYear {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", apperrors.ErrValidation, year)
	}
	fy, err := s.years.FindFiscalYearByYear(ctx, year)
	switch {
	case err == nil:
		return domain.DateOnly(fy.EndDate), nil
	case errors.Is(err, apperrors.ErrNotFound):
		_, end := domain.CalendarYearSpan(year)
		return end, nil
	default:
		return time.Time{}, err
	}
}

func (s *balanceService) InvalidateAccounts(accountIDs ...string) {
	if len(accountIDs) == 0 {
		s.cache.Purge()
		return
	}
	ids := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		ids[id] = struct{}{}
	}
	s.cache.DeleteFunc(func(key string) bool {
		id, _, _ := strings.Cut(key, "|")
		_, hit := ids[id]
		return hit
	})
}
