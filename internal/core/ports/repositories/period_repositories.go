package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// PeriodRepository persists accounting periods
type PeriodRepository interface {
	FindPeriod(ctx context.Context, periodKey string) (*domain.AccountingPeriod, error)
	// SavePeriod inserts a period, ErrDuplicate if the key exists.
	SavePeriod(ctx context.Context, period domain.AccountingPeriod) error
	UpdatePeriodStatus(ctx context.Context, periodKey string, status domain.PeriodStatus, userID string, at time.Time) error
	ListPeriods(ctx context.Context, year int) ([]domain.AccountingPeriod, error)
}

// FiscalYearRepository persists fiscal years and their activity log
type FiscalYearRepository interface {
	FindFiscalYearByID(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error)
	FindFiscalYearByYear(ctx context.Context, year int) (*domain.FiscalYear, error)
	// FindFiscalYearByIDForUpdate locks the row for the rest of the transaction.
	FindFiscalYearByIDForUpdate(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error)
	ListFiscalYears(ctx context.Context) ([]domain.FiscalYear, error)
	// SaveFiscalYear inserts a year, ErrDuplicate if the year number exists.
	SaveFiscalYear(ctx context.Context, fy domain.FiscalYear) error
	// UpdateFiscalYear overwrites status, temporary-open and closing fields.
	UpdateFiscalYear(ctx context.Context, fy domain.FiscalYear) error
	// TransitionFiscalYearStatus flips status only if the stored status equals from, else ErrConflict.
	TransitionFiscalYearStatus(ctx context.Context, fiscalYearID string, from, to domain.FiscalYearStatus, userID string, at time.Time) error

	SaveActivity(ctx context.Context, activity domain.FiscalYearActivity) error
	ListActivities(ctx context.Context, fiscalYearID string) ([]domain.FiscalYearActivity, error)
}

// PeriodRepositoryFacade combines period and fiscal year persistence
type PeriodRepositoryFacade interface {
	PeriodRepository
	FiscalYearRepository
}

// AuditRepository is the append-only audit log
type AuditRepository interface {
	AppendAudit(ctx context.Context, record domain.AuditRecord) error
	ListAudit(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error)
}
