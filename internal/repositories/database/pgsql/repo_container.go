package pgsql

import (
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(dbPool),
		JournalRepo: newPgxJournalRepository(dbPool),
		BalanceRepo: newPgxBalanceRepository(dbPool),
		PeriodRepo:  newPgxPeriodRepository(dbPool),
		AuditRepo:   newPgxAuditRepository(dbPool),
		TxManager:   newPgxTxManager(dbPool),
	}
}
