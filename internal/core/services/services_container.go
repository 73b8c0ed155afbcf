package services

import (
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Audit and balances have no service dependencies, everything else builds on them
	container.Audit = NewAuditService(repos.AuditRepo, repos.TxManager, opts...)
	container.Balance = NewBalanceService(
		repos.BalanceRepo,
		repos.AccountRepo,
		repos.PeriodRepo,
		cfg.CacheSize,
		cfg.CacheTTL,
		opts...,
	)

	container.Period = NewPeriodService(
		repos.PeriodRepo,
		repos.BalanceRepo,
		repos.TxManager,
		container.Audit,
		PeriodServiceOptions{
			Strict:    cfg.PeriodStrictMode,
			CacheSize: cfg.CacheSize,
			CacheTTL:  cfg.CacheTTL,
		},
		opts...,
	)

	container.Account = NewAccountService(
		repos.AccountRepo,
		repos.JournalRepo,
		repos.TxManager,
		container.Period,
		container.Audit,
		container.Balance,
		opts...,
	)

	container.Ledger = NewLedgerService(
		repos.JournalRepo,
		container.Account,
		container.Period,
		container.Balance,
		container.Audit,
		repos.TxManager,
		opts...,
	)

	container.Rollover = NewRolloverService(
		repos.PeriodRepo,
		container.Period,
		container.Balance,
		container.Ledger,
		container.Audit,
		repos.TxManager,
		opts...,
	)

	container.AutoPost = NewAutoPostService(
		container.Account,
		container.Period,
		container.Ledger,
		repos.TxManager,
		opts...,
	)

	return container
}
