package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/platform/metrics"
	"github.com/SscSPs/backoffice_ledger/internal/utils/accounting"
)

const (
	defaultEntryPageSize = 20
	maxEntryPageSize     = 100
)

type ledgerService struct {
	BaseService
	repo     portsrepo.JournalRepositoryFacade
	accounts portssvc.AccountReaderSvc
	gate     portssvc.PeriodGateSvc
	balances portssvc.BalanceSvc
	audit    portssvc.AuditSvc
	tx       portsrepo.TransactionManager
}

// NewLedgerService creates the ledger store, the only writer of postings.
func NewLedgerService(
	repo portsrepo.JournalRepositoryFacade,
	accounts portssvc.AccountReaderSvc,
	gate portssvc.PeriodGateSvc,
	balances portssvc.BalanceSvc,
	audit portssvc.AuditSvc,
	tx portsrepo.TransactionManager,
	opts ...ServiceOption,
) portssvc.LedgerSvcFacade {
	return &ledgerService{
		BaseService: newBaseService(opts),
		repo:        repo,
		accounts:    accounts,
		gate:        gate,
		balances:    balances,
		audit:       audit,
		tx:          tx,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func branchOf(requested string, actor domain.Actor) string {
	if requested != "" {
		return requested
	}
	return actor.Branch
}

// buildPostings resolves each line's account and validates the amounts.
// Manual entries may only touch accounts that allow manual entry.
func (s *ledgerService) buildPostings(ctx context.Context, entryID string, lines []dto.PostingLineRequest, manual bool) ([]domain.Posting, error) {
	resolved := make(map[string]*domain.Account, len(lines))
	postings := make([]domain.Posting, 0, len(lines))
	for i, line := range lines {
		ref := strings.TrimSpace(line.Account)
		acc, ok := resolved[ref]
		if !ok {
			var err error
			acc, err = s.accounts.Resolve(ctx, ref)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
					return nil, fmt.Errorf("%w: line %d: account %q cannot be resolved", apperrors.ErrValidation, i+1, ref)
				}
				return nil, err
			}
			resolved[ref] = acc
		}
		if manual && !acc.AllowManualEntry {
			return nil, fmt.Errorf("%w: line %d: account %s does not allow manual entries", apperrors.ErrValidation, i+1, acc.Code)
		}
		postings = append(postings, domain.Posting{
			PostingID: s.NewID(),
			EntryID:   entryID,
			AccountID: acc.AccountID,
			LineNo:    i + 1,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      line.Memo,
		})
	}
	if err := accounting.ValidatePostingLines(postings); err != nil {
		return nil, err
	}
	return postings, nil
}

func postingAccounts(postings []domain.Posting) []string {
	seen := make(map[string]struct{}, len(postings))
	out := make([]string, 0, len(postings))
	for _, p := range postings {
		if _, ok := seen[p.AccountID]; ok {
			continue
		}
		seen[p.AccountID] = struct{}{}
		out = append(out, p.AccountID)
	}
	return out
}

// afterPost bumps the posting counter and drops cached balances once the transaction commits.
func (s *ledgerService) afterPost(ctx context.Context, source string, postings []domain.Posting) {
	accounts := postingAccounts(postings)
	s.tx.AfterCommit(ctx, func() {
		metrics.EntriesPosted.WithLabelValues(source).Inc()
		s.balances.InvalidateAccounts(accounts...)
	})
}

func (s *ledgerService) record(ctx context.Context, entry *domain.JournalEntry, action string, actor domain.Actor, detail map[string]any) error {
	if detail == nil {
		detail = map[string]any{}
	}
	detail["entry_number"] = entry.EntryNumber
	detail["status"] = string(entry.Status)
	return s.audit.Record(ctx, s.auditRecord(domain.AuditEntityEntry, entry.EntryID, action, domain.OutcomeSuccess, actor, detail))
}

func (s *ledgerService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: entry date is required", apperrors.ErrValidation)
	}
	branch := branchOf(req.Branch, actor)

	var entry *domain.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		entryID := s.NewID()
		postings, err := s.buildPostings(txCtx, entryID, req.Lines, true)
		if err != nil {
			return err
		}
		decision, err := s.gate.CheckMutable(txCtx, req.Date, domain.GateRequest{Action: domain.ActionCreate, Branch: branch}, actor)
		if err != nil {
			return err
		}
		number, err := s.repo.NextEntryNumber(txCtx)
		if err != nil {
			return err
		}
		e := domain.JournalEntry{
			EntryID:       entryID,
			EntryNumber:   number,
			EntryDate:     domain.DateOnly(req.Date),
			Description:   req.Description,
			Status:        domain.EntryDraft,
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
			Branch:        branch,
			FiscalYearID:  decision.FiscalYearID,
			AuditFields:   domain.NewAuditFields(actor.UserID, s.Now()),
		}
		if err := s.repo.SaveEntry(txCtx, e, postings); err != nil {
			return err
		}
		e.Postings = postings
		entry = &e
		return s.record(txCtx, entry, "create", actor, nil)
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry created", slog.String("entry_id", entry.EntryID), slog.Int64("entry_number", entry.EntryNumber))
	return entry, nil
}

func (s *ledgerService) UpdateDraft(ctx context.Context, entryID string, req dto.UpdateDraftRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.FindEntryByIDForUpdate(txCtx, entryID)
		if err != nil {
			return err
		}
		if e.Status != domain.EntryDraft {
			return fmt.Errorf("%w: only draft entries can be edited, entry #%d is %s", apperrors.ErrConflict, e.EntryNumber, e.Status)
		}
		postings, err := s.buildPostings(txCtx, e.EntryID, req.Lines, true)
		if err != nil {
			return err
		}

		gate := domain.GateRequest{Action: domain.ActionUpdate, Branch: e.Branch}
		decision, err := s.gate.CheckMutable(txCtx, e.EntryDate, gate, actor)
		if err != nil {
			return err
		}
		if !req.Date.IsZero() && !domain.DateOnly(req.Date).Equal(e.EntryDate) {
			if decision, err = s.gate.CheckMutable(txCtx, req.Date, gate, actor); err != nil {
				return err
			}
			e.EntryDate = domain.DateOnly(req.Date)
		}

		e.Description = req.Description
		e.FiscalYearID = decision.FiscalYearID
		e.LastUpdatedAt = s.Now()
		e.LastUpdatedBy = actor.UserID
		if err := s.repo.UpdateDraft(txCtx, *e, postings); err != nil {
			return err
		}
		e.Postings = postings
		entry = e
		return s.record(txCtx, entry, "update", actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) PostEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.FindEntryByIDForUpdate(txCtx, entryID)
		if err != nil {
			return err
		}
		if e.Status != domain.EntryDraft {
			return fmt.Errorf("%w: entry #%d is %s", apperrors.ErrAlreadyPosted, e.EntryNumber, e.Status)
		}
		postings, err := s.repo.FindPostingsByEntryID(txCtx, entryID)
		if err != nil {
			return err
		}
		if err := accounting.ValidatePostingLines(postings); err != nil {
			return err
		}
		if err := accounting.ValidateEntryBalance(postings); err != nil {
			return err
		}
		if _, err := s.gate.CheckMutable(txCtx, e.EntryDate, domain.GateRequest{Action: domain.ActionPost, Branch: e.Branch}, actor); err != nil {
			return err
		}

		now := s.Now()
		if err := s.repo.UpdateEntryStatus(txCtx, entryID, domain.EntryDraft, domain.EntryPosted, "", actor.UserID, now); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w: entry #%d was posted concurrently", apperrors.ErrAlreadyPosted, e.EntryNumber)
			}
			return err
		}
		e.Status = domain.EntryPosted
		e.PostedAt = &now
		e.PostedBy = actor.UserID
		e.LastUpdatedAt = now
		e.LastUpdatedBy = actor.UserID
		e.Postings = postings
		entry = e
		s.afterPost(txCtx, "manual", postings)
		return s.record(txCtx, entry, "post", actor, nil)
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry posted", slog.String("entry_id", entryID), slog.Int64("entry_number", entry.EntryNumber))
	return entry, nil
}

func (s *ledgerService) CreateAndPost(ctx context.Context, req dto.CreateEntryRequest, action domain.GateAction, actor domain.Actor) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		entry, err = s.createPosted(txCtx, req, action, actor, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// createPosted must run inside a transaction.
func (s *ledgerService) createPosted(ctx context.Context, req dto.CreateEntryRequest, action domain.GateAction, actor domain.Actor, manual bool) (*domain.JournalEntry, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: entry date is required", apperrors.ErrValidation)
	}
	if action == "" {
		action = domain.ActionCreate
	}
	branch := branchOf(req.Branch, actor)
	entryID := s.NewID()

	postings, err := s.buildPostings(ctx, entryID, req.Lines, manual)
	if err != nil {
		return nil, err
	}
	if err := accounting.ValidateEntryBalance(postings); err != nil {
		return nil, err
	}
	decision, err := s.gate.CheckMutable(ctx, req.Date, domain.GateRequest{Action: action, Branch: branch}, actor)
	if err != nil {
		return nil, err
	}
	number, err := s.repo.NextEntryNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	entry := domain.JournalEntry{
		EntryID:       entryID,
		EntryNumber:   number,
		EntryDate:     domain.DateOnly(req.Date),
		Description:   req.Description,
		Status:        domain.EntryPosted,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Branch:        branch,
		FiscalYearID:  decision.FiscalYearID,
		PostedAt:      &now,
		PostedBy:      actor.UserID,
		AuditFields:   domain.NewAuditFields(actor.UserID, now),
	}
	if err := s.repo.SaveEntry(ctx, entry, postings); err != nil {
		return nil, err
	}
	entry.Postings = postings
	s.afterPost(ctx, string(action), postings)
	if err := s.record(ctx, &entry, "create_and_post", actor, map[string]any{"source": string(action)}); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *ledgerService) ReverseEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, *domain.JournalEntry, error) {
	var original, mirror *domain.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.FindEntryByIDForUpdate(txCtx, entryID)
		if err != nil {
			return err
		}
		if e.IsMirror() {
			return fmt.Errorf("%w: entry #%d is itself a reversal", apperrors.ErrConflict, e.EntryNumber)
		}
		if e.Status != domain.EntryPosted {
			return fmt.Errorf("%w: entry #%d is %s", apperrors.ErrNotPosted, e.EntryNumber, e.Status)
		}

		gate := domain.GateRequest{Action: domain.ActionReverse, Branch: e.Branch}
		if _, err := s.gate.CheckMutable(txCtx, e.EntryDate, gate, actor); err != nil {
			return err
		}
		today := s.Today()
		decision, err := s.gate.CheckMutable(txCtx, today, gate, actor)
		if err != nil {
			return err
		}

		postings, err := s.repo.FindPostingsByEntryID(txCtx, entryID)
		if err != nil {
			return err
		}
		number, err := s.repo.NextEntryNumber(txCtx)
		if err != nil {
			return err
		}
		now := s.Now()
		m := domain.JournalEntry{
			EntryID:       s.NewID(),
			EntryNumber:   number,
			EntryDate:     today,
			Description:   fmt.Sprintf("Reversal of entry #%d: %s", e.EntryNumber, e.Description),
			Status:        domain.EntryPosted,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			Branch:        e.Branch,
			FiscalYearID:  decision.FiscalYearID,
			ReversalOfID:  e.EntryID,
			PostedAt:      &now,
			PostedBy:      actor.UserID,
			AuditFields:   domain.NewAuditFields(actor.UserID, now),
		}
		mirrored := domain.MirrorPostings(postings, m.EntryID, s.NewID)
		if err := s.repo.SaveEntry(txCtx, m, mirrored); err != nil {
			return err
		}
		if err := s.repo.UpdateEntryStatus(txCtx, e.EntryID, domain.EntryPosted, domain.EntryReversed, m.EntryID, actor.UserID, now); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w: entry #%d changed concurrently", apperrors.ErrNotPosted, e.EntryNumber)
			}
			return err
		}
		m.Postings = mirrored
		e.Status = domain.EntryReversed
		e.ReversedByID = m.EntryID
		e.LastUpdatedAt = now
		e.LastUpdatedBy = actor.UserID
		e.Postings = postings
		original, mirror = e, &m

		s.afterPost(txCtx, "reversal", postings)
		return s.record(txCtx, original, "reverse", actor, map[string]any{
			"mirror_entry_id":     m.EntryID,
			"mirror_entry_number": m.EntryNumber,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	s.LogInfo(ctx, "Journal entry reversed", slog.String("entry_id", entryID), slog.String("mirror_entry_id", mirror.EntryID))
	return original, mirror, nil
}

func (s *ledgerService) ReturnToDraft(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.FindEntryByIDForUpdate(txCtx, entryID)
		if err != nil {
			return err
		}
		if e.IsMirror() {
			return fmt.Errorf("%w: reversal entry #%d cannot return to draft", apperrors.ErrConflict, e.EntryNumber)
		}
		if e.Status != domain.EntryPosted {
			return fmt.Errorf("%w: entry #%d is %s", apperrors.ErrNotPosted, e.EntryNumber, e.Status)
		}
		if _, err := s.gate.CheckMutable(txCtx, e.EntryDate, domain.GateRequest{Action: domain.ActionReturnToDraft, Branch: e.Branch}, actor); err != nil {
			return err
		}
		now := s.Now()
		if err := s.repo.UpdateEntryStatus(txCtx, entryID, domain.EntryPosted, domain.EntryDraft, "", actor.UserID, now); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w: entry #%d changed concurrently", apperrors.ErrNotPosted, e.EntryNumber)
			}
			return err
		}
		postings, err := s.repo.FindPostingsByEntryID(txCtx, entryID)
		if err != nil {
			return err
		}
		e.Status = domain.EntryDraft
		e.PostedAt = nil
		e.PostedBy = ""
		e.LastUpdatedAt = now
		e.LastUpdatedBy = actor.UserID
		e.Postings = postings
		entry = e

		accounts := postingAccounts(postings)
		s.tx.AfterCommit(txCtx, func() { s.balances.InvalidateAccounts(accounts...) })
		return s.record(txCtx, entry, "return_to_draft", actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) RemoveEntry(ctx context.Context, entryID string, actor domain.Actor) error {
	return s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.FindEntryByIDForUpdate(txCtx, entryID)
		if err != nil {
			return err
		}
		if e.IsMirror() || e.Status == domain.EntryReversed {
			return fmt.Errorf("%w: entry #%d is part of a reversal pair and cannot be removed", apperrors.ErrConflict, e.EntryNumber)
		}
		if e.Status == domain.EntryPosted && !actor.Can(domain.ScreenJournal, e.Branch, domain.CapRemovePosted) {
			record := s.auditRecord(domain.AuditEntityEntry, e.EntryID, "remove", domain.OutcomeDenied, actor, map[string]any{
				"entry_number": e.EntryNumber,
				"reason":       apperrors.ReasonCode(apperrors.ErrForbidden),
			})
			if aerr := s.audit.RecordDetached(txCtx, record); aerr != nil {
				s.LogError(txCtx, aerr, "Failed to audit denied removal", slog.String("entry_id", e.EntryID))
			}
			return fmt.Errorf("%w: removing posted entries requires %s:%s:%s", apperrors.ErrForbidden,
				domain.ScreenJournal, e.Branch, domain.CapRemovePosted)
		}
		if _, err := s.gate.CheckMutable(txCtx, e.EntryDate, domain.GateRequest{Action: domain.ActionRemove, Branch: e.Branch}, actor); err != nil {
			return err
		}

		postings, err := s.repo.FindPostingsByEntryID(txCtx, entryID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteEntry(txCtx, entryID); err != nil {
			return err
		}
		if e.Status == domain.EntryPosted {
			accounts := postingAccounts(postings)
			s.tx.AfterCommit(txCtx, func() { s.balances.InvalidateAccounts(accounts...) })
		}
		return s.record(txCtx, e, "remove", actor, map[string]any{"lines": len(postings)})
	})
}

func (s *ledgerService) ImportEntries(ctx context.Context, req dto.ImportEntriesRequest, actor domain.Actor) ([]domain.JournalEntry, error) {
	if len(req.Entries) == 0 {
		return nil, fmt.Errorf("%w: nothing to import", apperrors.ErrValidation)
	}
	imported := make([]domain.JournalEntry, 0, len(req.Entries))
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		for i, item := range req.Entries {
			entry, err := s.createPosted(txCtx, item, domain.ActionImport, actor, true)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i+1, err)
			}
			imported = append(imported, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Journal entries imported", slog.Int("count", len(imported)))
	return imported, nil
}

func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	e, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	postings, err := s.repo.FindPostingsByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	e.Postings = postings
	return e, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultEntryPageSize
	}
	if limit > maxEntryPageSize {
		limit = maxEntryPageSize
	}
	filter := domain.EntryFilter{
		Status:        params.Status,
		Branch:        params.Branch,
		From:          dayPtr(params.From),
		To:            dayPtr(params.To),
		ReferenceType: params.ReferenceType,
		ReferenceID:   params.ReferenceID,
	}
	entries, next, err := s.repo.ListEntries(ctx, filter, limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	if err := s.attachPostings(ctx, entries); err != nil {
		return nil, err
	}
	return &dto.ListEntriesResponse{Entries: dto.ToEntryResponses(entries), NextToken: next}, nil
}

func (s *ledgerService) FindByReference(ctx context.Context, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	if referenceType == "" || referenceID == "" {
		return nil, fmt.Errorf("%w: reference type and id are required", apperrors.ErrValidation)
	}
	entries, err := s.repo.FindEntriesByReference(ctx, referenceType, referenceID)
	if err != nil {
		return nil, err
	}
	if err := s.attachPostings(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *ledgerService) attachPostings(ctx context.Context, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].EntryID
	}
	byEntry, err := s.repo.FindPostingsByEntryIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].Postings = byEntry[entries[i].EntryID]
	}
	return nil
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOnly(*t)
	return &d
}
