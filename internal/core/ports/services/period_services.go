package services

import (
	"context"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// PeriodGateSvc answers whether a date may be mutated.
type PeriodGateSvc interface {
	// CheckMutable gets or creates the period for date and applies the period,
	// fiscal year and override rules. Rejections are audited.
	CheckMutable(ctx context.Context, date time.Time, req domain.GateRequest, actor domain.Actor) (*domain.GateDecision, error)
}

// PeriodManagerSvc opens and closes calendar periods
type PeriodManagerSvc interface {
	ClosePeriod(ctx context.Context, periodKey string, actor domain.Actor) (*domain.AccountingPeriod, error)
	ReopenPeriod(ctx context.Context, periodKey string, actor domain.Actor) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context, year int) ([]domain.AccountingPeriod, error)
}

// FiscalYearSvc manages fiscal years
type FiscalYearSvc interface {
	OpenFiscalYear(ctx context.Context, year int, actor domain.Actor) (*domain.FiscalYear, error)

	// EnsureFiscalYear returns the year, creating it open when missing. created reports which.
	EnsureFiscalYear(ctx context.Context, year int, actor domain.Actor) (fy *domain.FiscalYear, created bool, err error)

	CloseFiscalYear(ctx context.Context, fiscalYearID string, actor domain.Actor) (*domain.FiscalYear, error)
	TemporaryOpen(ctx context.Context, fiscalYearID string, reason string, actor domain.Actor) (*domain.FiscalYear, error)
	TemporaryClose(ctx context.Context, fiscalYearID string, actor domain.Actor) (*domain.FiscalYear, error)
	GetFiscalYear(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error)
	ListFiscalYears(ctx context.Context) ([]domain.FiscalYear, error)
	ListActivities(ctx context.Context, fiscalYearID string) ([]domain.FiscalYearActivity, error)

	// CurrentFiscalYear returns the year containing today. The answer is cached.
	CurrentFiscalYear(ctx context.Context) (*domain.FiscalYear, error)

	// InvalidateFiscalYearCache drops cached fiscal year lookups.
	InvalidateFiscalYearCache()
}

// PeriodSvcFacade combines all period service interfaces
type PeriodSvcFacade interface {
	PeriodGateSvc
	PeriodManagerSvc
	FiscalYearSvc
}
