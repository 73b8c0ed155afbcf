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

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepository = (*PgxAuditRepository)(nil)

const auditColumns = `audit_id, entity_type, entity_id, action, outcome, detail, actor_id, branch, created_at`

func (r *PgxAuditRepository) AppendAudit(ctx context.Context, record domain.AuditRecord) error {
	m, err := mapping.ToModelAuditRecord(record)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode audit detail", err)
	}
	_, err = r.db(ctx).Exec(ctx, `
		INSERT INTO audit_log (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.AuditID, m.EntityType, m.EntityID, m.Action, m.Outcome, m.Detail, m.ActorID, m.Branch, m.CreatedAt)
	return mapError(err, "audit record", m.AuditID)
}

// ListAudit returns matching rows newest first.
func (r *PgxAuditRepository) ListAudit(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db(ctx).Query(ctx, `
		SELECT `+auditColumns+` FROM audit_log
		WHERE ($1 = '' OR entity_type = $1) AND ($2 = '' OR entity_id = $2)
		ORDER BY created_at DESC, audit_id DESC
		LIMIT $3`, filter.EntityType, filter.EntityID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit log", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AuditRecord])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan audit log", err)
	}
	out := make([]domain.AuditRecord, 0, len(found))
	for _, m := range found {
		rec, err := mapping.ToDomainAuditRecord(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode audit detail", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
