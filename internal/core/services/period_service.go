package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/platform/metrics"
	"github.com/SscSPs/backoffice_ledger/internal/utils/cache"
)

const (
	minFiscalYear = 1900
	maxFiscalYear = 9999
)

var carryForwardHorizon = time.Date(maxFiscalYear, time.December, 31, 0, 0, 0, 0, time.UTC)

type periodService struct {
	BaseService
	repo   portsrepo.PeriodRepositoryFacade
	carry  portsrepo.BalanceReader
	tx     portsrepo.TransactionManager
	audit  portssvc.AuditSvc
	strict bool
	// fiscal years by calendar year, read outside transactions only
	current *cache.TTLCache[int, domain.FiscalYear]
}

// PeriodServiceOptions tunes the period gate.
type PeriodServiceOptions struct {
	// Strict refuses dates whose period or fiscal year does not exist yet.
	Strict    bool
	CacheSize int
	CacheTTL  time.Duration
}

// NewPeriodService creates the period gate together with period and fiscal year management.
// carry locates rollover opening entries, before which no date may change.
func NewPeriodService(repo portsrepo.PeriodRepositoryFacade, carry portsrepo.BalanceReader, tx portsrepo.TransactionManager, audit portssvc.AuditSvc, popts PeriodServiceOptions, opts ...ServiceOption) portssvc.PeriodSvcFacade {
	if popts.CacheTTL <= 0 {
		popts.CacheTTL = time.Minute
	}
	return &periodService{
		BaseService: newBaseService(opts),
		repo:        repo,
		carry:       carry,
		tx:          tx,
		audit:       audit,
		strict:      popts.Strict,
		current:     cache.NewTTLCache[int, domain.FiscalYear](popts.CacheSize, popts.CacheTTL),
	}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) CheckMutable(ctx context.Context, date time.Time, req domain.GateRequest, actor domain.Actor) (*domain.GateDecision, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	day := domain.DateOnly(date)
	branch := req.Branch
	if branch == "" {
		branch = actor.Branch
	}
	strict := req.Strict || s.strict
	key := domain.PeriodKeyFor(day)

	period, err := s.periodFor(ctx, day, strict, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrPeriodNotDefined) {
			return nil, s.deny(ctx, key, req.Action, branch, actor, err)
		}
		return nil, err
	}

	fy, err := s.fiscalYearFor(ctx, day.Year(), strict, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrPeriodNotDefined) {
			return nil, s.deny(ctx, key, req.Action, branch, actor, err)
		}
		return nil, err
	}
	if !fy.CanCreateEntries() {
		return nil, s.deny(ctx, key, req.Action, branch, actor,
			fmt.Errorf("%w: fiscal year %d is %s", apperrors.ErrFiscalYearClosed, fy.Year, fy.Status))
	}
	if !fy.TemporaryOpen {
		carried, err := s.carry.LatestCarryForwardDate(ctx, carryForwardHorizon)
		if err != nil {
			return nil, err
		}
		if carried != nil && day.Before(*carried) {
			return nil, s.deny(ctx, key, req.Action, branch, actor,
				fmt.Errorf("%w: %s precedes the balances carried forward on %s", apperrors.ErrFiscalYearClosed,
					day.Format(time.DateOnly), carried.Format(time.DateOnly)))
		}
	}

	decision := &domain.GateDecision{PeriodKey: period.PeriodKey, FiscalYearID: fy.FiscalYearID}
	if period.Status != domain.PeriodClosed {
		return decision, nil
	}

	if req.Action.IsSensitive() && actor.Can(domain.ScreenJournal, branch, domain.CapOverrideClosedPeriod) {
		decision.Overridden = true
		metrics.GateOverrides.Inc()
		s.recordDetached(ctx, domain.AuditEntityPeriod, period.PeriodKey, "override_closed_period", domain.OutcomeSuccess, actor, map[string]any{
			"action": string(req.Action),
			"branch": branch,
		})
		s.LogInfo(ctx, "Closed period overridden",
			slog.String("period", period.PeriodKey),
			slog.String("action", string(req.Action)),
			slog.String("user_id", actor.UserID))
		return decision, nil
	}
	return nil, s.deny(ctx, key, req.Action, branch, actor,
		fmt.Errorf("%w: period %s is closed", apperrors.ErrPeriodClosed, period.PeriodKey))
}

// periodFor gets or creates the open period containing day.
func (s *periodService) periodFor(ctx context.Context, day time.Time, strict bool, actor domain.Actor) (*domain.AccountingPeriod, error) {
	key := domain.PeriodKeyFor(day)
	period, err := s.repo.FindPeriod(ctx, key)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if strict {
		return nil, fmt.Errorf("%w: period %s does not exist", apperrors.ErrPeriodNotDefined, key)
	}

	created := domain.NewAccountingPeriod(day, actor.UserID, s.Now())
	if err := s.repo.SavePeriod(ctx, created); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// created concurrently
			return s.repo.FindPeriod(ctx, key)
		}
		return nil, err
	}
	if err := s.audit.Record(ctx, s.auditRecord(domain.AuditEntityPeriod, key, "open", domain.OutcomeSuccess, actor,
		map[string]any{"auto_created": true})); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Accounting period auto-created", slog.String("period", key))
	return &created, nil
}

// fiscalYearFor returns the fiscal year of the given calendar year, creating it when allowed.
func (s *periodService) fiscalYearFor(ctx context.Context, year int, strict bool, actor domain.Actor) (*domain.FiscalYear, error) {
	fy, err := s.repo.FindFiscalYearByYear(ctx, year)
	if err == nil {
		return fy, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if strict {
		return nil, fmt.Errorf("%w: fiscal year %d does not exist", apperrors.ErrPeriodNotDefined, year)
	}
	fy, _, err = s.EnsureFiscalYear(ctx, year, actor)
	return fy, err
}

func (s *periodService) deny(ctx context.Context, periodKey string, action domain.GateAction, branch string, actor domain.Actor, cause error) error {
	reason := apperrors.ReasonCode(cause)
	metrics.GateRejections.WithLabelValues(reason).Inc()
	s.recordDetached(ctx, domain.AuditEntityPeriod, periodKey, "check_mutable", domain.OutcomeDenied, actor, map[string]any{
		"action": string(action),
		"branch": branch,
		"reason": reason,
	})
	s.LogDebug(ctx, "Period gate rejected mutation",
		slog.String("period", periodKey),
		slog.String("action", string(action)),
		slog.String("reason", reason))
	return cause
}

// recordDetached writes an audit row that survives a rollback. Failures are logged only.
func (s *periodService) recordDetached(ctx context.Context, entityType, entityID, action, outcome string, actor domain.Actor, detail map[string]any) {
	record := s.auditRecord(entityType, entityID, action, outcome, actor, detail)
	if err := s.audit.RecordDetached(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to write detached audit record", slog.String("action", action))
	}
}

func (s *periodService) ClosePeriod(ctx context.Context, periodKey string, actor domain.Actor) (*domain.AccountingPeriod, error) {
	first, err := domain.ParsePeriodKey(periodKey)
	if err != nil {
		return nil, fmt.Errorf("%w: period key must be YYYY-MM", apperrors.ErrValidation)
	}

	var closed *domain.AccountingPeriod
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		period, err := s.periodFor(txCtx, first, false, actor)
		if err != nil {
			return err
		}
		if period.Status == domain.PeriodClosed {
			return fmt.Errorf("%w: period %s is already closed", apperrors.ErrConflict, periodKey)
		}
		now := s.Now()
		if err := s.repo.UpdatePeriodStatus(txCtx, period.PeriodKey, domain.PeriodClosed, actor.UserID, now); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, s.auditRecord(domain.AuditEntityPeriod, period.PeriodKey, "close", domain.OutcomeSuccess, actor, nil)); err != nil {
			return err
		}
		period.Status = domain.PeriodClosed
		period.ClosedAt = &now
		period.ClosedBy = actor.UserID
		closed = period
		return nil
	})
	if err != nil {
		s.recordDetached(ctx, domain.AuditEntityPeriod, periodKey, "close", domain.OutcomeFailure, actor,
			map[string]any{"reason": apperrors.ReasonCode(err)})
		return nil, err
	}
	s.LogInfo(ctx, "Accounting period closed", slog.String("period", periodKey), slog.String("user_id", actor.UserID))
	return closed, nil
}

func (s *periodService) ReopenPeriod(ctx context.Context, periodKey string, actor domain.Actor) (*domain.AccountingPeriod, error) {
	if _, err := domain.ParsePeriodKey(periodKey); err != nil {
		return nil, fmt.Errorf("%w: period key must be YYYY-MM", apperrors.ErrValidation)
	}
	if !actor.Can(domain.ScreenPeriods, actor.Branch, domain.CapReopenPeriod) {
		s.recordDetached(ctx, domain.AuditEntityPeriod, periodKey, "reopen", domain.OutcomeDenied, actor,
			map[string]any{"reason": apperrors.ReasonCode(apperrors.ErrForbidden)})
		return nil, fmt.Errorf("%w: reopening periods requires %s:%s:%s", apperrors.ErrForbidden,
			domain.ScreenPeriods, actor.Branch, domain.CapReopenPeriod)
	}

	var reopened *domain.AccountingPeriod
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		period, err := s.repo.FindPeriod(txCtx, periodKey)
		if err != nil {
			return err
		}
		if period.Status == domain.PeriodOpen {
			return fmt.Errorf("%w: period %s is already open", apperrors.ErrConflict, periodKey)
		}
		now := s.Now()
		if err := s.repo.UpdatePeriodStatus(txCtx, periodKey, domain.PeriodOpen, actor.UserID, now); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, s.auditRecord(domain.AuditEntityPeriod, periodKey, "reopen", domain.OutcomeSuccess, actor, nil)); err != nil {
			return err
		}
		period.Status = domain.PeriodOpen
		period.OpenedAt = now
		period.OpenedBy = actor.UserID
		period.ClosedAt = nil
		period.ClosedBy = ""
		reopened = period
		return nil
	})
	if err != nil {
		s.recordDetached(ctx, domain.AuditEntityPeriod, periodKey, "reopen", domain.OutcomeFailure, actor,
			map[string]any{"reason": apperrors.ReasonCode(err)})
		return nil, err
	}
	return reopened, nil
}

func (s *periodService) ListPeriods(ctx context.Context, year int) ([]domain.AccountingPeriod, error) {
	return s.repo.ListPeriods(ctx, year)
}

func (s *periodService) OpenFiscalYear(ctx context.Context, year int, actor domain.Actor) (*domain.FiscalYear, error) {
	if year < minFiscalYear || year > maxFiscalYear {
		return nil, fmt.Errorf("%w: year %d out of range", apperrors.ErrValidation, year)
	}
	var fy *domain.FiscalYear
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		fy, err = s.createFiscalYear(txCtx, year, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fy, nil
}

func (s *periodService) EnsureFiscalYear(ctx context.Context, year int, actor domain.Actor) (*domain.FiscalYear, bool, error) {
	if year < minFiscalYear || year > maxFiscalYear {
		return nil, false, fmt.Errorf("%w: year %d out of range", apperrors.ErrValidation, year)
	}
	if fy, err := s.repo.FindFiscalYearByYear(ctx, year); err == nil {
		return fy, false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	fy, err := s.createFiscalYear(ctx, year, actor)
	if errors.Is(err, apperrors.ErrDuplicate) {
		fy, err = s.repo.FindFiscalYearByYear(ctx, year)
		return fy, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return fy, true, nil
}

func (s *periodService) createFiscalYear(ctx context.Context, year int, actor domain.Actor) (*domain.FiscalYear, error) {
	start, end := domain.CalendarYearSpan(year)
	now := s.Now()
	fy := domain.FiscalYear{
		FiscalYearID: s.NewID(),
		Year:         year,
		Status:       domain.FiscalYearOpen,
		StartDate:    start,
		EndDate:      end,
		AuditFields:  domain.NewAuditFields(actor.UserID, now),
	}
	if err := s.repo.SaveFiscalYear(ctx, fy); err != nil {
		return nil, err
	}
	if err := s.logActivity(ctx, &fy, domain.ActivityOpen, "fiscal year opened", nil, actor); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Fiscal year opened", slog.Int("year", year), slog.String("fiscal_year_id", fy.FiscalYearID))
	return &fy, nil
}

// logActivity appends the activity row and the matching audit record, then drops cached years.
func (s *periodService) logActivity(ctx context.Context, fy *domain.FiscalYear, action, description string, details map[string]any, actor domain.Actor) error {
	activity := domain.FiscalYearActivity{
		ActivityID:   s.NewID(),
		FiscalYearID: fy.FiscalYearID,
		Action:       action,
		Description:  description,
		Details:      details,
		UserID:       actor.UserID,
		CreatedAt:    s.Now(),
	}
	if err := s.repo.SaveActivity(ctx, activity); err != nil {
		return err
	}
	detail := map[string]any{"year": fy.Year}
	for k, v := range details {
		detail[k] = v
	}
	if err := s.audit.Record(ctx, s.auditRecord(domain.AuditEntityFiscalYear, fy.FiscalYearID, action, domain.OutcomeSuccess, actor, detail)); err != nil {
		return err
	}
	s.tx.AfterCommit(ctx, s.InvalidateFiscalYearCache)
	return nil
}

func (s *periodService) CloseFiscalYear(ctx context.Context, fiscalYearID string, actor domain.Actor) (*domain.FiscalYear, error) {
	var fy *domain.FiscalYear
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		fy, err = s.repo.FindFiscalYearByIDForUpdate(txCtx, fiscalYearID)
		if err != nil {
			return err
		}
		if fy.Status != domain.FiscalYearOpen {
			return fmt.Errorf("%w: fiscal year %d is %s", apperrors.ErrConflict, fy.Year, fy.Status)
		}
		now := s.Now()
		fy.Status = domain.FiscalYearClosed
		fy.ClosedAt = &now
		fy.ClosedBy = actor.UserID
		clearTemporaryOpen(fy)
		fy.LastUpdatedAt = now
		fy.LastUpdatedBy = actor.UserID
		if err := s.repo.UpdateFiscalYear(txCtx, *fy); err != nil {
			return err
		}
		return s.logActivity(txCtx, fy, domain.ActivityClose, "fiscal year closed", nil, actor)
	})
	if err != nil {
		return nil, err
	}
	return fy, nil
}

func (s *periodService) TemporaryOpen(ctx context.Context, fiscalYearID string, reason string, actor domain.Actor) (*domain.FiscalYear, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to temporarily open a fiscal year", apperrors.ErrValidation)
	}
	if err := s.requireTemporaryOpen(ctx, fiscalYearID, "temporary_open", actor); err != nil {
		return nil, err
	}

	var fy *domain.FiscalYear
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		fy, err = s.repo.FindFiscalYearByIDForUpdate(txCtx, fiscalYearID)
		if err != nil {
			return err
		}
		if fy.Status != domain.FiscalYearClosed {
			return fmt.Errorf("%w: only a closed fiscal year can be temporarily opened, %d is %s", apperrors.ErrConflict, fy.Year, fy.Status)
		}
		if fy.TemporaryOpen {
			return fmt.Errorf("%w: fiscal year %d is already temporarily open", apperrors.ErrConflict, fy.Year)
		}
		now := s.Now()
		fy.TemporaryOpen = true
		fy.TemporaryOpenAt = &now
		fy.TemporaryOpenBy = actor.UserID
		fy.TemporaryOpenReason = reason
		fy.LastUpdatedAt = now
		fy.LastUpdatedBy = actor.UserID
		if err := s.repo.UpdateFiscalYear(txCtx, *fy); err != nil {
			return err
		}
		return s.logActivity(txCtx, fy, domain.ActivityTemporaryOpen, "fiscal year temporarily opened",
			map[string]any{"reason": reason}, actor)
	})
	if err != nil {
		return nil, err
	}
	return fy, nil
}

func (s *periodService) TemporaryClose(ctx context.Context, fiscalYearID string, actor domain.Actor) (*domain.FiscalYear, error) {
	if err := s.requireTemporaryOpen(ctx, fiscalYearID, "temporary_close", actor); err != nil {
		return nil, err
	}

	var fy *domain.FiscalYear
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		fy, err = s.repo.FindFiscalYearByIDForUpdate(txCtx, fiscalYearID)
		if err != nil {
			return err
		}
		if !fy.TemporaryOpen {
			return fmt.Errorf("%w: fiscal year %d is not temporarily open", apperrors.ErrConflict, fy.Year)
		}
		now := s.Now()
		clearTemporaryOpen(fy)
		fy.LastUpdatedAt = now
		fy.LastUpdatedBy = actor.UserID
		if err := s.repo.UpdateFiscalYear(txCtx, *fy); err != nil {
			return err
		}
		return s.logActivity(txCtx, fy, domain.ActivityTemporaryClose, "fiscal year temporary opening ended", nil, actor)
	})
	if err != nil {
		return nil, err
	}
	return fy, nil
}

func (s *periodService) requireTemporaryOpen(ctx context.Context, fiscalYearID, action string, actor domain.Actor) error {
	if actor.Can(domain.ScreenFiscalYears, actor.Branch, domain.CapTemporaryOpen) {
		return nil
	}
	s.recordDetached(ctx, domain.AuditEntityFiscalYear, fiscalYearID, action, domain.OutcomeDenied, actor,
		map[string]any{"reason": apperrors.ReasonCode(apperrors.ErrForbidden)})
	return fmt.Errorf("%w: requires %s:%s:%s", apperrors.ErrForbidden,
		domain.ScreenFiscalYears, actor.Branch, domain.CapTemporaryOpen)
}

func clearTemporaryOpen(fy *domain.FiscalYear) {
	fy.TemporaryOpen = false
	fy.TemporaryOpenAt = nil
	fy.TemporaryOpenBy = ""
	fy.TemporaryOpenReason = ""
}

func (s *periodService) GetFiscalYear(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error) {
	return s.repo.FindFiscalYearByID(ctx, fiscalYearID)
}

func (s *periodService) ListFiscalYears(ctx context.Context) ([]domain.FiscalYear, error) {
	return s.repo.ListFiscalYears(ctx)
}

func (s *periodService) ListActivities(ctx context.Context, fiscalYearID string) ([]domain.FiscalYearActivity, error) {
	if _, err := s.repo.FindFiscalYearByID(ctx, fiscalYearID); err != nil {
		return nil, err
	}
	return s.repo.ListActivities(ctx, fiscalYearID)
}

func (s *periodService) CurrentFiscalYear(ctx context.Context) (*domain.FiscalYear, error) {
	year := s.Today().Year()
	if fy, ok := s.current.Get(year); ok {
		return &fy, nil
	}
	fy, err := s.repo.FindFiscalYearByYear(ctx, year)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("fiscal year", strconv.Itoa(year))
		}
		return nil, err
	}
	s.current.Set(year, *fy)
	return fy, nil
}

func (s *periodService) InvalidateFiscalYearCache() {
	s.current.Purge()
}
