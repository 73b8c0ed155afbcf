package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceReader {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BalanceReader = (*PgxBalanceRepository)(nil)

// countedEntry restricts to posted entries that are not reversal mirrors.
const countedEntry = `e.status = 'posted' AND e.reversal_of_id IS NULL`

func (r *PgxBalanceRepository) SumPostings(ctx context.Context, filter domain.PostingSumFilter) (map[string]domain.AccountTotals, error) {
	conds := []string{countedEntry}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	args = append(args, domain.RolloverReferenceType)
	if filter.CarryForward == domain.CarryForwardOnly {
		conds = append(conds, "e.reference_type = $1")
	} else {
		conds = append(conds, "e.reference_type IS DISTINCT FROM $1")
	}
	if len(filter.AccountIDs) > 0 {
		add("p.account_id = ANY($%d)", filter.AccountIDs)
	}
	if filter.From != nil {
		add("e.entry_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("e.entry_date <= $%d", *filter.To)
	}
	if filter.Branch != "" {
		add("e.branch = $%d", filter.Branch)
	}

	query := `
		SELECT p.account_id,
		       COALESCE(SUM(p.debit), 0)  AS debit,
		       COALESCE(SUM(p.credit), 0) AS credit
		FROM journal_postings p
		JOIN journal_entries e ON e.entry_id = p.entry_id
		WHERE ` + strings.Join(conds, " AND ") + `
		GROUP BY p.account_id`

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum postings", err)
	}
	defer rows.Close()

	out := make(map[string]domain.AccountTotals)
	for rows.Next() {
		var t domain.AccountTotals
		if err := rows.Scan(&t.AccountID, &t.Debit, &t.Credit); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan posting sums", err)
		}
		out[t.AccountID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating posting sums", err)
	}
	return out, nil
}

func (r *PgxBalanceRepository) LatestCarryForwardDate(ctx context.Context, onOrBefore time.Time) (*time.Time, error) {
	var latest *time.Time
	err := r.db(ctx).QueryRow(ctx, `
		SELECT MAX(e.entry_date) FROM journal_entries e
		WHERE `+countedEntry+` AND e.reference_type = $1 AND e.entry_date <= $2`,
		domain.RolloverReferenceType, onOrBefore,
	).Scan(&latest)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to find latest carry-forward", err)
	}
	if latest != nil {
		d := domain.DateOnly(*latest)
		latest = &d
	}
	return latest, nil
}

func (r *PgxBalanceRepository) ListPostingLines(ctx context.Context, accountID string, from, to time.Time) ([]domain.PostingLine, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT e.entry_id, e.entry_number, e.entry_date, e.description, p.account_id, p.debit, p.credit
		FROM journal_postings p
		JOIN journal_entries e ON e.entry_id = p.entry_id
		WHERE `+countedEntry+`
		  AND e.reference_type IS DISTINCT FROM $1
		  AND p.account_id = $2
		  AND e.entry_date BETWEEN $3 AND $4
		ORDER BY e.entry_date, e.entry_number, p.line_no`,
		domain.RolloverReferenceType, accountID, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query posting lines", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PostingLine, error) {
		var (
			l             domain.PostingLine
			debit, credit decimal.Decimal
		)
		err := row.Scan(&l.EntryID, &l.EntryNumber, &l.EntryDate, &l.Description, &l.AccountID, &debit, &credit)
		l.EntryDate = domain.DateOnly(l.EntryDate)
		l.Debit, l.Credit = debit, credit
		return l, err
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan posting lines", err)
	}
	return lines, nil
}
