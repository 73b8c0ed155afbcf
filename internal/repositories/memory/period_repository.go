package memory

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

// PeriodRepository stores periods, fiscal years and fiscal year activity.
type PeriodRepository struct {
	*Store
}

var _ portsrepo.PeriodRepositoryFacade = (*PeriodRepository)(nil)

func (r *PeriodRepository) FindPeriod(ctx context.Context, periodKey string) (*domain.AccountingPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.periods[periodKey]
	if !ok {
		return nil, apperrors.NewNotFoundError("accounting period", periodKey)
	}
	return &p, nil
}

func (r *PeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.periods[period.PeriodKey]; ok {
		return apperrors.NewAppError(409, "accounting period already exists: "+period.PeriodKey, apperrors.ErrDuplicate)
	}
	r.periods[period.PeriodKey] = period
	return nil
}

func (r *PeriodRepository) UpdatePeriodStatus(ctx context.Context, periodKey string, status domain.PeriodStatus, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.periods[periodKey]
	if !ok {
		return apperrors.NewNotFoundError("accounting period", periodKey)
	}
	p.Status = status
	if status == domain.PeriodClosed {
		closed := at
		p.ClosedAt = &closed
		p.ClosedBy = userID
	} else {
		p.ClosedAt = nil
		p.ClosedBy = ""
	}
	r.periods[periodKey] = p
	return nil
}

func (r *PeriodRepository) ListPeriods(ctx context.Context, year int) ([]domain.AccountingPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AccountingPeriod, 0)
	for _, p := range r.periods {
		if year == 0 || p.Year == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodKey < out[j].PeriodKey })
	return out, nil
}

func (r *PeriodRepository) FindFiscalYearByID(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fy, ok := r.fiscalYears[fiscalYearID]
	if !ok {
		return nil, apperrors.NewNotFoundError("fiscal year", fiscalYearID)
	}
	return &fy, nil
}

func (r *PeriodRepository) FindFiscalYearByYear(ctx context.Context, year int) (*domain.FiscalYear, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.yearIndex[year]
	if !ok {
		return nil, apperrors.NewNotFoundError("fiscal year", strconv.Itoa(year))
	}
	fy := r.fiscalYears[id]
	return &fy, nil
}

func (r *PeriodRepository) FindFiscalYearByIDForUpdate(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error) {
	return r.FindFiscalYearByID(ctx, fiscalYearID)
}

func (r *PeriodRepository) ListFiscalYears(ctx context.Context) ([]domain.FiscalYear, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FiscalYear, 0, len(r.fiscalYears))
	for _, fy := range r.fiscalYears {
		out = append(out, fy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func (r *PeriodRepository) SaveFiscalYear(ctx context.Context, fy domain.FiscalYear) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.yearIndex[fy.Year]; ok {
		return apperrors.NewAppError(409, "fiscal year already exists: "+strconv.Itoa(fy.Year), apperrors.ErrDuplicate)
	}
	r.fiscalYears[fy.FiscalYearID] = fy
	r.yearIndex[fy.Year] = fy.FiscalYearID
	return nil
}

func (r *PeriodRepository) UpdateFiscalYear(ctx context.Context, fy domain.FiscalYear) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.fiscalYears[fy.FiscalYearID]
	if !ok {
		return apperrors.NewNotFoundError("fiscal year", fy.FiscalYearID)
	}
	existing.Status = fy.Status
	existing.TemporaryOpen = fy.TemporaryOpen
	existing.TemporaryOpenBy = fy.TemporaryOpenBy
	existing.TemporaryOpenAt = fy.TemporaryOpenAt
	existing.TemporaryOpenReason = fy.TemporaryOpenReason
	existing.ClosedBy = fy.ClosedBy
	existing.ClosedAt = fy.ClosedAt
	existing.LastUpdatedAt = fy.LastUpdatedAt
	existing.LastUpdatedBy = fy.LastUpdatedBy
	r.fiscalYears[fy.FiscalYearID] = existing
	return nil
}

func (r *PeriodRepository) TransitionFiscalYearStatus(ctx context.Context, fiscalYearID string, from, to domain.FiscalYearStatus, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fy, ok := r.fiscalYears[fiscalYearID]
	if !ok {
		return apperrors.NewNotFoundError("fiscal year", fiscalYearID)
	}
	if fy.Status != from {
		return apperrors.NewAppError(409, "fiscal year is no longer "+string(from), apperrors.ErrConflict)
	}
	fy.Status = to
	fy.LastUpdatedAt = at
	fy.LastUpdatedBy = userID
	r.fiscalYears[fiscalYearID] = fy
	return nil
}

func (r *PeriodRepository) SaveActivity(ctx context.Context, activity domain.FiscalYearActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, activity)
	return nil
}

func (r *PeriodRepository) ListActivities(ctx context.Context, fiscalYearID string) ([]domain.FiscalYearActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FiscalYearActivity, 0)
	for _, a := range r.activities {
		if a.FiscalYearID == fiscalYearID {
			out = append(out, a)
		}
	}
	return out, nil
}
