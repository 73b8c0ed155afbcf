package pgsql

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for the chart of accounts.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, code, name_ar, name_en, account_type, nature, parent_account_id,
	allow_manual_entry, opening_balance, description, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan accounts", err)
	}
	out := make([]domain.Account, len(found))
	for i, m := range found {
		out[i] = mapping.ToDomainAccount(m)
	}
	return out, nil
}

func (r *PgxAccountRepository) findOne(ctx context.Context, query, key string) (*domain.Account, error) {
	rows, err := r.db(ctx).Query(ctx, query, key)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query account", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, mapError(err, "account", key)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, accountID)
}

// FindAccountByCode retrieves an account by its code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = $1`, code)
}

func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	accounts, err := r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		out[acc.Code] = acc
	}
	return out, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
}

func (r *PgxAccountRepository) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := r.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count accounts", err)
	}
	return n, nil
}

func (r *PgxAccountRepository) HasPostings(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_postings WHERE account_id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check postings for account "+accountID, err)
	}
	return exists, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.AccountID, m.Code, m.NameAr, m.NameEn, m.AccountType, m.Nature, m.ParentAccountID,
		m.AllowManualEntry, m.OpeningBalance, m.Description,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "account", m.Code)
	}
	return nil
}

// UpdateAccount overwrites the mutable columns. Code and creation stamps never change.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE accounts
		SET name_ar = $2, name_en = $3, account_type = $4, nature = $5, parent_account_id = $6,
		    allow_manual_entry = $7, opening_balance = $8, description = $9,
		    last_updated_at = $10, last_updated_by = $11
		WHERE account_id = $1`,
		m.AccountID, m.NameAr, m.NameEn, m.AccountType, m.Nature, m.ParentAccountID,
		m.AllowManualEntry, m.OpeningBalance, m.Description, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "account", m.AccountID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account", m.AccountID)
	}
	return nil
}

func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	q := r.db(ctx)
	if _, err := q.Exec(ctx, `UPDATE accounts SET parent_account_id = NULL WHERE parent_account_id = $1`, accountID); err != nil {
		return apperrors.NewAppError(500, "failed to detach children of account "+accountID, err)
	}
	tag, err := q.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1`, accountID)
	if err != nil {
		return mapError(err, "account", accountID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account", accountID)
	}
	return nil
}

func (r *PgxAccountRepository) DeleteAllAccounts(ctx context.Context) error {
	if _, err := r.db(ctx).Exec(ctx, `DELETE FROM accounts`); err != nil {
		return apperrors.NewAppError(500, "failed to delete accounts", err)
	}
	return nil
}
