package pgsql

import (
	"context"
	"strconv"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/backoffice_ledger/internal/models"
	"github.com/SscSPs/backoffice_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodColumns = `period_key, year, month, status, opened_at, opened_by, closed_at, closed_by`

const fiscalYearColumns = `fiscal_year_id, year, status, start_date, end_date, temporary_open, temporary_open_by,
	temporary_open_at, temporary_open_reason, closed_by, closed_at,
	created_at, created_by, last_updated_at, last_updated_by`

const activityColumns = `activity_id, fiscal_year_id, action, description, details, user_id, created_at`

func (r *PgxPeriodRepository) FindPeriod(ctx context.Context, periodKey string) (*domain.AccountingPeriod, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE period_key = $1`, periodKey)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounting period", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.AccountingPeriod])
	if err != nil {
		return nil, mapError(err, "accounting period", periodKey)
	}
	p := mapping.ToDomainPeriod(m)
	return &p, nil
}

func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m := mapping.ToModelPeriod(period)
	// ON CONFLICT keeps a racing get-or-create from aborting the caller's transaction
	tag, err := r.db(ctx).Exec(ctx, `
		INSERT INTO accounting_periods (`+periodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (period_key) DO NOTHING`,
		m.PeriodKey, m.Year, m.Month, m.Status, m.OpenedAt, m.OpenedBy, m.ClosedAt, m.ClosedBy,
	)
	if err != nil {
		return mapError(err, "accounting period", m.PeriodKey)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "accounting period already exists: "+m.PeriodKey, apperrors.ErrDuplicate)
	}
	return nil
}

func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodKey string, status domain.PeriodStatus, userID string, at time.Time) error {
	var closedAt *time.Time
	var closedBy *string
	if status == domain.PeriodClosed {
		closedAt, closedBy = &at, &userID
	}
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE accounting_periods SET status = $2, closed_at = $3, closed_by = $4
		WHERE period_key = $1`, periodKey, string(status), closedAt, closedBy)
	if err != nil {
		return mapError(err, "accounting period", periodKey)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("accounting period", periodKey)
	}
	return nil
}

// ListPeriods returns all periods of year, or every period when year is zero.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, year int) ([]domain.AccountingPeriod, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT `+periodColumns+` FROM accounting_periods
		WHERE $1 = 0 OR year = $1
		ORDER BY period_key`, year)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounting periods", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AccountingPeriod])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan accounting periods", err)
	}
	out := make([]domain.AccountingPeriod, len(found))
	for i, m := range found {
		out[i] = mapping.ToDomainPeriod(m)
	}
	return out, nil
}

func (r *PgxPeriodRepository) findFiscalYear(ctx context.Context, query, key string, arg any) (*domain.FiscalYear, error) {
	rows, err := r.db(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fiscal year", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.FiscalYear])
	if err != nil {
		return nil, mapError(err, "fiscal year", key)
	}
	fy := mapping.ToDomainFiscalYear(m)
	return &fy, nil
}

func (r *PgxPeriodRepository) FindFiscalYearByID(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error) {
	return r.findFiscalYear(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years WHERE fiscal_year_id = $1`, fiscalYearID, fiscalYearID)
}

func (r *PgxPeriodRepository) FindFiscalYearByYear(ctx context.Context, year int) (*domain.FiscalYear, error) {
	return r.findFiscalYear(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years WHERE year = $1`, strconv.Itoa(year), year)
}

func (r *PgxPeriodRepository) FindFiscalYearByIDForUpdate(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error) {
	return r.findFiscalYear(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years WHERE fiscal_year_id = $1 FOR UPDATE`, fiscalYearID, fiscalYearID)
}

func (r *PgxPeriodRepository) ListFiscalYears(ctx context.Context) ([]domain.FiscalYear, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years ORDER BY year`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fiscal years", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FiscalYear])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan fiscal years", err)
	}
	out := make([]domain.FiscalYear, len(found))
	for i, m := range found {
		out[i] = mapping.ToDomainFiscalYear(m)
	}
	return out, nil
}

func (r *PgxPeriodRepository) SaveFiscalYear(ctx context.Context, fy domain.FiscalYear) error {
	m := mapping.ToModelFiscalYear(fy)
	tag, err := r.db(ctx).Exec(ctx, `
		INSERT INTO fiscal_years (`+fiscalYearColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (year) DO NOTHING`,
		m.FiscalYearID, m.Year, m.Status, m.StartDate, m.EndDate, m.TemporaryOpen, m.TemporaryOpenBy,
		m.TemporaryOpenAt, m.TemporaryOpenReason, m.ClosedBy, m.ClosedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "fiscal year", strconv.Itoa(m.Year))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "fiscal year already exists: "+strconv.Itoa(m.Year), apperrors.ErrDuplicate)
	}
	return nil
}

func (r *PgxPeriodRepository) UpdateFiscalYear(ctx context.Context, fy domain.FiscalYear) error {
	m := mapping.ToModelFiscalYear(fy)
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE fiscal_years
		SET status = $2, temporary_open = $3, temporary_open_by = $4, temporary_open_at = $5,
		    temporary_open_reason = $6, closed_by = $7, closed_at = $8,
		    last_updated_at = $9, last_updated_by = $10
		WHERE fiscal_year_id = $1`,
		m.FiscalYearID, m.Status, m.TemporaryOpen, m.TemporaryOpenBy, m.TemporaryOpenAt,
		m.TemporaryOpenReason, m.ClosedBy, m.ClosedAt, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "fiscal year", m.FiscalYearID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("fiscal year", m.FiscalYearID)
	}
	return nil
}

func (r *PgxPeriodRepository) TransitionFiscalYearStatus(ctx context.Context, fiscalYearID string, from, to domain.FiscalYearStatus, userID string, at time.Time) error {
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE fiscal_years SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE fiscal_year_id = $1 AND status = $2`,
		fiscalYearID, string(from), string(to), at, userID)
	if err != nil {
		return mapError(err, "fiscal year", fiscalYearID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "fiscal year "+fiscalYearID+" is no longer "+string(from), apperrors.ErrConflict)
	}
	return nil
}

func (r *PgxPeriodRepository) SaveActivity(ctx context.Context, activity domain.FiscalYearActivity) error {
	m, err := mapping.ToModelActivity(activity)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode fiscal year activity", err)
	}
	_, err = r.db(ctx).Exec(ctx, `
		INSERT INTO fiscal_year_activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ActivityID, m.FiscalYearID, m.Action, m.Description, m.Details, m.UserID, m.CreatedAt)
	return mapError(err, "fiscal year activity", m.ActivityID)
}

func (r *PgxPeriodRepository) ListActivities(ctx context.Context, fiscalYearID string) ([]domain.FiscalYearActivity, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT `+activityColumns+` FROM fiscal_year_activities
		WHERE fiscal_year_id = $1 ORDER BY created_at`, fiscalYearID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fiscal year activities", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FiscalYearActivity])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan fiscal year activities", err)
	}
	out := make([]domain.FiscalYearActivity, 0, len(found))
	for _, m := range found {
		a, err := mapping.ToDomainActivity(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode fiscal year activity", err)
		}
		out = append(out, a)
	}
	return out, nil
}
