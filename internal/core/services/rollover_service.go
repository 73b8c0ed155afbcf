package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/platform/metrics"
	"github.com/SscSPs/backoffice_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type rolloverService struct {
	BaseService
	years    portsrepo.FiscalYearRepository
	periods  portssvc.FiscalYearSvc
	balances portssvc.BalanceSvc
	ledger   portssvc.LedgerWriterSvc
	audit    portssvc.AuditSvc
	tx       portsrepo.TransactionManager
}

// NewRolloverService creates the fiscal year rollover coordinator.
func NewRolloverService(
	years portsrepo.FiscalYearRepository,
	periods portssvc.FiscalYearSvc,
	balances portssvc.BalanceSvc,
	ledger portssvc.LedgerWriterSvc,
	audit portssvc.AuditSvc,
	tx portsrepo.TransactionManager,
	opts ...ServiceOption,
) portssvc.RolloverSvc {
	return &rolloverService{
		BaseService: newBaseService(opts),
		years:       years,
		periods:     periods,
		balances:    balances,
		ledger:      ledger,
		audit:       audit,
		tx:          tx,
	}
}

var _ portssvc.RolloverSvc = (*rolloverService)(nil)

func (s *rolloverService) Rollover(ctx context.Context, sourceFiscalYearID string, targetYear *int, actor domain.Actor) (*domain.RolloverResult, error) {
	var result *domain.RolloverResult
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = s.rollover(txCtx, sourceFiscalYearID, targetYear, actor)
		return err
	})

	s.periods.InvalidateFiscalYearCache()
	if err != nil {
		metrics.Rollovers.WithLabelValues("failed").Inc()
		s.LogError(ctx, err, "Fiscal year rollover failed",
			slog.String("fiscal_year_id", sourceFiscalYearID),
			slog.String("reason", apperrors.ReasonCode(err)))
		return nil, err
	}
	metrics.Rollovers.WithLabelValues("success").Inc()
	s.LogInfo(ctx, "Fiscal year rolled over",
		slog.String("fiscal_year_id", sourceFiscalYearID),
		slog.Int("target_year", result.TargetYear),
		slog.Int("accounts", result.AccountsRolledOver))
	return result, nil
}

func (s *rolloverService) rollover(ctx context.Context, sourceID string, targetYear *int, actor domain.Actor) (*domain.RolloverResult, error) {
	src, err := s.years.FindFiscalYearByIDForUpdate(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src.Status != domain.FiscalYearOpen {
		return nil, fmt.Errorf("%w: fiscal year %d is %s", apperrors.ErrConflict, src.Year, src.Status)
	}

	// The carry-forward hides everything dated before it, so no year may be
	// skipped and no earlier year may still take entries.
	target := src.Year + 1
	if targetYear != nil && *targetYear != target {
		return nil, fmt.Errorf("%w: fiscal year %d can only roll over into %d, not %d", apperrors.ErrValidation, src.Year, target, *targetYear)
	}
	years, err := s.years.ListFiscalYears(ctx)
	if err != nil {
		return nil, err
	}
	for _, y := range years {
		if y.Year >= src.Year {
			continue
		}
		if y.CanCreateEntries() || y.Status == domain.FiscalYearRollover {
			return nil, fmt.Errorf("%w: earlier fiscal year %d still accepts entries", apperrors.ErrConflict, y.Year)
		}
	}

	if err := s.years.TransitionFiscalYearStatus(ctx, src.FiscalYearID, domain.FiscalYearOpen, domain.FiscalYearRollover, actor.UserID, s.Now()); err != nil {
		return nil, err
	}

	dst, created, err := s.periods.EnsureFiscalYear(ctx, target, actor)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.years.SaveActivity(ctx, domain.FiscalYearActivity{
			ActivityID:   s.NewID(),
			FiscalYearID: dst.FiscalYearID,
			Action:       domain.ActivityRolloverTarget,
			Description:  fmt.Sprintf("created as rollover target of %d", src.Year),
			Details:      map[string]any{"source_fiscal_year_id": src.FiscalYearID, "source_year": src.Year},
			UserID:       actor.UserID,
			CreatedAt:    s.Now(),
		}); err != nil {
			return nil, err
		}
	}
	if !dst.CanCreateEntries() {
		return nil, fmt.Errorf("%w: target fiscal year %d is %s", apperrors.ErrFiscalYearClosed, dst.Year, dst.Status)
	}

	from := src.StartDate
	tb, err := s.balances.TrialBalance(ctx, &from, src.EndDate)
	if err != nil {
		return nil, err
	}
	if !tb.Balanced {
		return nil, fmt.Errorf("%w: debits %s, credits %s", apperrors.ErrSourceUnbalanced,
			tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
	}

	lines := make([]dto.PostingLineRequest, 0, len(tb.Rows))
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, row := range tb.Rows {
		if row.Ending.IsZero() {
			continue
		}
		debit, credit := accounting.SplitBalance(row.Ending)
		lines = append(lines, dto.PostingLineRequest{
			Account: row.AccountID,
			Debit:   debit,
			Credit:  credit,
		})
		totalDebit = totalDebit.Add(debit)
		totalCredit = totalCredit.Add(credit)
	}

	result := &domain.RolloverResult{
		SourceFiscalYearID: src.FiscalYearID,
		TargetFiscalYearID: dst.FiscalYearID,
		TargetYear:         dst.Year,
		AccountsRolledOver: len(lines),
		TotalDebit:         totalDebit,
		TotalCredit:        totalCredit,
	}
	if len(lines) > 0 {
		opening, err := s.ledger.CreateAndPost(ctx, dto.CreateEntryRequest{
			Date:          dst.StartDate,
			Description:   domain.RolloverDescription,
			Branch:        actor.Branch,
			ReferenceType: domain.RolloverReferenceType,
			ReferenceID:   src.FiscalYearID,
			Lines:         lines,
		}, domain.ActionRollover, actor)
		if err != nil {
			return nil, err
		}
		result.EntryID = opening.EntryID
	}

	now := s.Now()
	if err := s.years.TransitionFiscalYearStatus(ctx, src.FiscalYearID, domain.FiscalYearRollover, domain.FiscalYearClosed, actor.UserID, now); err != nil {
		return nil, err
	}
	src.Status = domain.FiscalYearClosed
	src.ClosedAt = &now
	src.ClosedBy = actor.UserID
	src.LastUpdatedAt = now
	src.LastUpdatedBy = actor.UserID
	if err := s.years.UpdateFiscalYear(ctx, *src); err != nil {
		return nil, err
	}

	details := map[string]any{
		"accounts_rolled_over": result.AccountsRolledOver,
		"total_debit":          totalDebit.StringFixed(2),
		"total_credit":         totalCredit.StringFixed(2),
		"target_year":          dst.Year,
		"entry_id":             result.EntryID,
	}
	if err := s.years.SaveActivity(ctx, domain.FiscalYearActivity{
		ActivityID:   s.NewID(),
		FiscalYearID: src.FiscalYearID,
		Action:       domain.ActivityRollover,
		Description:  fmt.Sprintf("rolled over into %d", dst.Year),
		Details:      details,
		UserID:       actor.UserID,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, s.auditRecord(domain.AuditEntityFiscalYear, src.FiscalYearID, domain.ActivityRollover, domain.OutcomeSuccess, actor, details)); err != nil {
		return nil, err
	}
	s.tx.AfterCommit(ctx, func() { s.balances.InvalidateAccounts() })
	return result, nil
}
