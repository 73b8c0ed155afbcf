package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

// BalanceRepository aggregates posted postings held in a Store.
type BalanceRepository struct {
	*Store
}

var _ portsrepo.BalanceReader = (*BalanceRepository)(nil)

// counts reports whether e contributes to balances at all.
func counts(e domain.JournalEntry) bool {
	return e.Status == domain.EntryPosted && e.ReversalOfID == ""
}

func isCarryForward(e domain.JournalEntry) bool {
	return e.ReferenceType == domain.RolloverReferenceType
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func (r *BalanceRepository) SumPostings(ctx context.Context, filter domain.PostingSumFilter) (map[string]domain.AccountTotals, error) {
	var wanted map[string]bool
	if len(filter.AccountIDs) > 0 {
		wanted = make(map[string]bool, len(filter.AccountIDs))
		for _, id := range filter.AccountIDs {
			wanted[id] = true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.AccountTotals)
	for entryID, e := range r.entries {
		if !counts(e) || !inRange(e.EntryDate, filter.From, filter.To) {
			continue
		}
		if isCarryForward(e) != (filter.CarryForward == domain.CarryForwardOnly) {
			continue
		}
		if filter.Branch != "" && e.Branch != filter.Branch {
			continue
		}
		for _, p := range r.postings[entryID] {
			if wanted != nil && !wanted[p.AccountID] {
				continue
			}
			t := out[p.AccountID]
			t.AccountID = p.AccountID
			t.Debit = t.Debit.Add(p.Debit)
			t.Credit = t.Credit.Add(p.Credit)
			out[p.AccountID] = t
		}
	}
	return out, nil
}

func (r *BalanceRepository) LatestCarryForwardDate(ctx context.Context, onOrBefore time.Time) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, e := range r.entries {
		if !counts(e) || !isCarryForward(e) || e.EntryDate.After(onOrBefore) {
			continue
		}
		if latest == nil || e.EntryDate.After(*latest) {
			d := e.EntryDate
			latest = &d
		}
	}
	return latest, nil
}

func (r *BalanceRepository) ListPostingLines(ctx context.Context, accountID string, from, to time.Time) ([]domain.PostingLine, error) {
	type keyed struct {
		line   domain.PostingLine
		lineNo int
	}

	r.mu.RLock()
	rows := make([]keyed, 0)
	for entryID, e := range r.entries {
		if !counts(e) || isCarryForward(e) || !inRange(e.EntryDate, &from, &to) {
			continue
		}
		for _, p := range r.postings[entryID] {
			if p.AccountID != accountID {
				continue
			}
			rows = append(rows, keyed{
				line: domain.PostingLine{
					EntryID:     e.EntryID,
					EntryNumber: e.EntryNumber,
					EntryDate:   e.EntryDate,
					Description: e.Description,
					AccountID:   p.AccountID,
					Debit:       p.Debit,
					Credit:      p.Credit,
				},
				lineNo: p.LineNo,
			})
		}
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.line.EntryDate.Equal(b.line.EntryDate) {
			return a.line.EntryDate.Before(b.line.EntryDate)
		}
		if a.line.EntryNumber != b.line.EntryNumber {
			return a.line.EntryNumber < b.line.EntryNumber
		}
		return a.lineNo < b.lineNo
	})

	out := make([]domain.PostingLine, len(rows))
	for i, row := range rows {
		out[i] = row.line
	}
	return out, nil
}
