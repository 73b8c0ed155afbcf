package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/SscSPs/backoffice_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and postings.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, entry_number, entry_date, description, status, reference_type, reference_id,
	branch, fiscal_year_id, reversal_of_id, reversed_by_id, posted_at, posted_by,
	created_at, created_by, last_updated_at, last_updated_by`

const postingColumns = `posting_id, entry_id, account_id, line_no, debit, credit, memo`

func (r *PgxJournalRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.JournalEntry, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal entries", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan journal entries", err)
	}
	out := make([]domain.JournalEntry, len(found))
	for i, m := range found {
		out[i] = mapping.ToDomainJournalEntry(m)
	}
	return out, nil
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, query, entryID string) (*domain.JournalEntry, error) {
	rows, err := r.db(ctx).Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal entry", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, mapError(err, "journal entry", entryID)
	}
	entry := mapping.ToDomainJournalEntry(m)
	return &entry, nil
}

// FindEntryByID retrieves an entry header by its ID.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1`, entryID)
}

// FindEntryByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PgxJournalRepository) FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1 FOR UPDATE`, entryID)
}

func (r *PgxJournalRepository) FindEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM journal_entries
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY entry_number`, referenceType, referenceID)
}

// ListEntries pages newest first using a (entry_date, entry_number) keyset.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Branch != "" {
		add("branch = $%d", filter.Branch)
	}
	if filter.From != nil {
		add("entry_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("entry_date <= $%d", *filter.To)
	}
	if filter.ReferenceType != "" {
		add("reference_type = $%d", filter.ReferenceType)
	}
	if filter.ReferenceID != "" {
		add("reference_id = $%d", filter.ReferenceID)
	}
	if nextToken != nil && *nextToken != "" {
		cursorDate, cursorNumber, err := pagination.DecodeEntryToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, err.Error(), apperrors.ErrValidation)
		}
		args = append(args, cursorDate, cursorNumber)
		conds = append(conds, fmt.Sprintf("(entry_date, entry_number) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY entry_date DESC, entry_number DESC"
	if limit > 0 {
		// one extra row tells us whether another page exists
		args = append(args, limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	if limit <= 0 || len(entries) <= limit {
		return entries, nil, nil
	}
	entries = entries[:limit]
	last := entries[len(entries)-1]
	token := pagination.EncodeEntryToken(last.EntryDate, last.EntryNumber)
	return entries, &token, nil
}

func (r *PgxJournalRepository) FindEntryIDsByAccount(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT DISTINCT entry_id FROM journal_postings WHERE account_id = $1 ORDER BY entry_id`, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries of account "+accountID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan entry ids", err)
	}
	return ids, nil
}

func (r *PgxJournalRepository) FindPostingsByEntryID(ctx context.Context, entryID string) ([]domain.Posting, error) {
	grouped, err := r.FindPostingsByEntryIDs(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	return grouped[entryID], nil
}

func (r *PgxJournalRepository) FindPostingsByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.Posting, error) {
	out := make(map[string][]domain.Posting, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	rows, err := r.db(ctx).Query(ctx, `
		SELECT `+postingColumns+` FROM journal_postings
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no`, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalPosting])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan postings", err)
	}
	for _, m := range found {
		out[m.EntryID] = append(out[m.EntryID], mapping.ToDomainPosting(m))
	}
	return out, nil
}

func (r *PgxJournalRepository) NextEntryNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db(ctx).QueryRow(ctx, `SELECT nextval('journal_entry_number_seq')`).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to reserve entry number", err)
	}
	return n, nil
}

// SaveEntry inserts the header and queues every posting in one batch.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting) error {
	m := mapping.ToModelJournalEntry(entry)
	q := r.db(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		m.EntryID, m.EntryNumber, m.EntryDate, m.Description, m.Status, m.ReferenceType, m.ReferenceID,
		m.Branch, m.FiscalYearID, m.ReversalOfID, m.ReversedByID, m.PostedAt, m.PostedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "journal entry", m.EntryID)
	}
	return r.insertPostings(ctx, q, m.EntryID, postings)
}

func (r *PgxJournalRepository) insertPostings(ctx context.Context, q querier, entryID string, postings []domain.Posting) error {
	if len(postings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range postings {
		mp := mapping.ToModelPosting(p)
		batch.Queue(`INSERT INTO journal_postings (`+postingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			mp.PostingID, mp.EntryID, mp.AccountID, mp.LineNo, mp.Debit, mp.Credit, mp.Memo)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert postings for entry "+entryID, err)
	}
	return nil
}

func (r *PgxJournalRepository) UpdateDraft(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting) error {
	m := mapping.ToModelJournalEntry(entry)
	q := r.db(ctx)
	tag, err := q.Exec(ctx, `
		UPDATE journal_entries
		SET entry_date = $2, description = $3, fiscal_year_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE entry_id = $1 AND status = 'draft'`,
		m.EntryID, m.EntryDate, m.Description, m.FiscalYearID, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "journal entry", m.EntryID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "only draft entries can be edited", apperrors.ErrConflict)
	}
	if _, err := q.Exec(ctx, `DELETE FROM journal_postings WHERE entry_id = $1`, m.EntryID); err != nil {
		return apperrors.NewAppError(500, "failed to replace postings for entry "+m.EntryID, err)
	}
	return r.insertPostings(ctx, q, m.EntryID, postings)
}

// UpdateEntryStatus is a compare-and-set on status.
func (r *PgxJournalRepository) UpdateEntryStatus(ctx context.Context, entryID string, from, to domain.EntryStatus, reversedByID string, userID string, at time.Time) error {
	var postedAt *time.Time
	var postedBy *string
	if to == domain.EntryPosted {
		postedAt, postedBy = &at, &userID
	}
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE journal_entries
		SET status = $3,
		    reversed_by_id = COALESCE(NULLIF($4, ''), reversed_by_id),
		    posted_at = CASE WHEN $3 = 'reversed' THEN posted_at ELSE $5 END,
		    posted_by = CASE WHEN $3 = 'reversed' THEN posted_by ELSE $6 END,
		    last_updated_at = $7, last_updated_by = $8
		WHERE entry_id = $1 AND status = $2`,
		entryID, string(from), string(to), reversedByID, postedAt, postedBy, at, userID,
	)
	if err != nil {
		return mapError(err, "journal entry", entryID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "journal entry "+entryID+" is no longer "+string(from), apperrors.ErrConflict)
	}
	return nil
}

func (r *PgxJournalRepository) DeleteEntry(ctx context.Context, entryID string) error {
	q := r.db(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM journal_postings WHERE entry_id = $1`, entryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete postings for entry "+entryID, err)
	}
	tag, err := q.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1`, entryID)
	if err != nil {
		return mapError(err, "journal entry", entryID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry", entryID)
	}
	return nil
}

func (r *PgxJournalRepository) DeletePostingsByAccount(ctx context.Context, accountID string) error {
	if _, err := r.db(ctx).Exec(ctx, `DELETE FROM journal_postings WHERE account_id = $1`, accountID); err != nil {
		return apperrors.NewAppError(500, "failed to delete postings for account "+accountID, err)
	}
	return nil
}

func (r *PgxJournalRepository) DeleteAllEntries(ctx context.Context) error {
	q := r.db(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM journal_postings`); err != nil {
		return apperrors.NewAppError(500, "failed to delete postings", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM journal_entries`); err != nil {
		return apperrors.NewAppError(500, "failed to delete journal entries", err)
	}
	return nil
}
