package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/utils/pagination"
)

// JournalRepository implements entry and posting storage over a Store.
type JournalRepository struct {
	*Store
}

var _ portsrepo.JournalRepositoryFacade = (*JournalRepository)(nil)

func (r *JournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[entryID]
	if !ok {
		return nil, apperrors.NewNotFoundError("journal entry", entryID)
	}
	return &e, nil
}

// FindEntryByIDForUpdate is a plain read; WithinTx already serializes writers.
func (r *JournalRepository) FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.FindEntryByID(ctx, entryID)
}

func (r *JournalRepository) FindEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.JournalEntry, 0)
	for _, e := range r.entries {
		if e.ReferenceType == referenceType && e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryNumber < out[j].EntryNumber })
	return out, nil
}

func (r *JournalRepository) ListEntries(ctx context.Context, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var (
		cursorDate   time.Time
		cursorNumber int64
		hasCursor    bool
	)
	if nextToken != nil && *nextToken != "" {
		d, n, err := pagination.DecodeEntryToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, err.Error(), apperrors.ErrValidation)
		}
		cursorDate, cursorNumber, hasCursor = d, n, true
	}

	r.mu.RLock()
	matched := make([]domain.JournalEntry, 0)
	for _, e := range r.entries {
		if !filter.Matches(e) {
			continue
		}
		if hasCursor && !pagination.After(e.EntryDate, e.EntryNumber, cursorDate, cursorNumber) {
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].EntryDate.Equal(matched[j].EntryDate) {
			return matched[i].EntryNumber > matched[j].EntryNumber
		}
		return matched[i].EntryDate.After(matched[j].EntryDate)
	})

	if limit <= 0 || len(matched) <= limit {
		return matched, nil, nil
	}
	page := matched[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeEntryToken(last.EntryDate, last.EntryNumber)
	return page, &token, nil
}

func (r *JournalRepository) FindEntryIDsByAccount(ctx context.Context, accountID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0)
	for entryID, lines := range r.postings {
		for _, p := range lines {
			if p.AccountID == accountID {
				ids = append(ids, entryID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *JournalRepository) FindPostingsByEntryID(ctx context.Context, entryID string) ([]domain.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyPostings(r.postings[entryID]), nil
}

func (r *JournalRepository) FindPostingsByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]domain.Posting, len(entryIDs))
	for _, id := range entryIDs {
		if lines, ok := r.postings[id]; ok {
			out[id] = copyPostings(lines)
		}
	}
	return out, nil
}

func (r *JournalRepository) NextEntryNumber(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entrySeq++
	return r.entrySeq, nil
}

func (r *JournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.EntryID]; ok {
		return apperrors.NewAppError(409, "journal entry already exists: "+entry.EntryID, apperrors.ErrDuplicate)
	}
	entry.Postings = nil
	r.entries[entry.EntryID] = entry
	r.postings[entry.EntryID] = copyPostings(postings)
	return nil
}

func (r *JournalRepository) UpdateDraft(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.EntryID]
	if !ok {
		return apperrors.NewNotFoundError("journal entry", entry.EntryID)
	}
	if existing.Status != domain.EntryDraft {
		return apperrors.NewAppError(409, "only draft entries can be edited", apperrors.ErrConflict)
	}
	existing.EntryDate = entry.EntryDate
	existing.Description = entry.Description
	existing.FiscalYearID = entry.FiscalYearID
	existing.LastUpdatedAt = entry.LastUpdatedAt
	existing.LastUpdatedBy = entry.LastUpdatedBy
	r.entries[entry.EntryID] = existing
	r.postings[entry.EntryID] = copyPostings(postings)
	return nil
}

func (r *JournalRepository) UpdateEntryStatus(ctx context.Context, entryID string, from, to domain.EntryStatus, reversedByID string, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryID]
	if !ok {
		return apperrors.NewNotFoundError("journal entry", entryID)
	}
	if e.Status != from {
		return apperrors.NewAppError(409, "journal entry is no longer "+string(from), apperrors.ErrConflict)
	}
	e.Status = to
	switch to {
	case domain.EntryPosted:
		posted := at
		e.PostedAt = &posted
		e.PostedBy = userID
	case domain.EntryDraft:
		e.PostedAt = nil
		e.PostedBy = ""
	}
	if reversedByID != "" {
		e.ReversedByID = reversedByID
	}
	e.LastUpdatedAt = at
	e.LastUpdatedBy = userID
	r.entries[entryID] = e
	return nil
}

func (r *JournalRepository) DeleteEntry(ctx context.Context, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entryID]; !ok {
		return apperrors.NewNotFoundError("journal entry", entryID)
	}
	delete(r.postings, entryID)
	delete(r.entries, entryID)
	return nil
}

func (r *JournalRepository) DeletePostingsByAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for entryID, lines := range r.postings {
		kept := lines[:0:0]
		for _, p := range lines {
			if p.AccountID != accountID {
				kept = append(kept, p)
			}
		}
		r.postings[entryID] = kept
	}
	return nil
}

func (r *JournalRepository) DeleteAllEntries(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]domain.JournalEntry)
	r.postings = make(map[string][]domain.Posting)
	return nil
}

func copyPostings(lines []domain.Posting) []domain.Posting {
	out := make([]domain.Posting, len(lines))
	copy(out, lines)
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out
}
