package memory

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

// AuditRepository is the append-only audit log of a Store.
type AuditRepository struct {
	*Store
}

var _ portsrepo.AuditRepository = (*AuditRepository)(nil)

// AppendAudit buffers the row until commit when ctx carries a transaction.
func (r *AuditRepository) AppendAudit(ctx context.Context, record domain.AuditRecord) error {
	if tx := txFrom(ctx); tx != nil {
		tx.pendingAudit = append(tx.pendingAudit, record)
		return nil
	}
	r.auditMu.Lock()
	defer r.auditMu.Unlock()
	r.audit = append(r.audit, record)
	return nil
}

// ListAudit returns matching rows, newest first.
func (r *AuditRepository) ListAudit(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	r.auditMu.Lock()
	defer r.auditMu.Unlock()
	out := make([]domain.AuditRecord, 0)
	for i := len(r.audit) - 1; i >= 0; i-- {
		rec := r.audit[i]
		if filter.EntityType != "" && rec.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && rec.EntityID != filter.EntityID {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
