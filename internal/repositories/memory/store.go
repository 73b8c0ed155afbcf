// Package memory keeps the whole ledger in process memory. It backs the
// service tests and the STORAGE_DRIVER=memory mode.
package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

type txKey struct{}

// memTx collects audit rows written inside a transaction until it commits.
type memTx struct {
	pendingAudit []domain.AuditRecord
	afterCommit  []func()
}

// Store is the shared state behind every memory repository.
//
// Transactions are serialized by txMu and simulated with a snapshot taken on
// entry and restored on error. mu guards the maps for each individual call.
// The audit log sits outside the snapshot so detached rows survive a rollback.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts     map[string]domain.Account
	accountCodes map[string]string
	entries      map[string]domain.JournalEntry
	postings     map[string][]domain.Posting
	entrySeq     int64
	periods      map[string]domain.AccountingPeriod
	fiscalYears  map[string]domain.FiscalYear
	yearIndex    map[int]string
	activities   []domain.FiscalYearActivity

	auditMu sync.Mutex
	audit   []domain.AuditRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		accountCodes: make(map[string]string),
		entries:      make(map[string]domain.JournalEntry),
		postings:     make(map[string][]domain.Posting),
		periods:      make(map[string]domain.AccountingPeriod),
		fiscalYears:  make(map[string]domain.FiscalYear),
		yearIndex:    make(map[int]string),
	}
}

// NewRepositoryProvider wires every memory repository around one store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: &AccountRepository{Store: store},
		JournalRepo: &JournalRepository{Store: store},
		BalanceRepo: &BalanceRepository{Store: store},
		PeriodRepo:  &PeriodRepository{Store: store},
		AuditRepo:   &AuditRepository{Store: store},
		TxManager:   store,
	}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txKey{}).(*memTx)
	return tx
}

// WithinTx runs fn with snapshot isolation against rollback. Nested calls join.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}

	s.auditMu.Lock()
	s.audit = append(s.audit, tx.pendingAudit...)
	s.auditMu.Unlock()

	for _, fn := range tx.afterCommit {
		fn()
	}
	return nil
}

func (s *Store) AfterCommit(ctx context.Context, fn func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.afterCommit = append(tx.afterCommit, fn)
		return
	}
	fn()
}

// Detach strips the transaction marker from ctx.
func (s *Store) Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, (*memTx)(nil))
}

type snapshot struct {
	accounts     map[string]domain.Account
	accountCodes map[string]string
	entries      map[string]domain.JournalEntry
	postings     map[string][]domain.Posting
	entrySeq     int64
	periods      map[string]domain.AccountingPeriod
	fiscalYears  map[string]domain.FiscalYear
	yearIndex    map[int]string
	activities   []domain.FiscalYearActivity
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		accounts:     make(map[string]domain.Account, len(s.accounts)),
		accountCodes: make(map[string]string, len(s.accountCodes)),
		entries:      make(map[string]domain.JournalEntry, len(s.entries)),
		postings:     make(map[string][]domain.Posting, len(s.postings)),
		entrySeq:     s.entrySeq,
		periods:      make(map[string]domain.AccountingPeriod, len(s.periods)),
		fiscalYears:  make(map[string]domain.FiscalYear, len(s.fiscalYears)),
		yearIndex:    make(map[int]string, len(s.yearIndex)),
		activities:   append([]domain.FiscalYearActivity(nil), s.activities...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.accountCodes {
		snap.accountCodes[k] = v
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	for k, v := range s.postings {
		snap.postings[k] = append([]domain.Posting(nil), v...)
	}
	for k, v := range s.periods {
		snap.periods[k] = v
	}
	for k, v := range s.fiscalYears {
		snap.fiscalYears[k] = v
	}
	for k, v := range s.yearIndex {
		snap.yearIndex[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.accountCodes = snap.accountCodes
	s.entries = snap.entries
	s.postings = snap.postings
	s.entrySeq = snap.entrySeq
	s.periods = snap.periods
	s.fiscalYears = snap.fiscalYears
	s.yearIndex = snap.yearIndex
	s.activities = snap.activities
}
