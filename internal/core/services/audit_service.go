package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

type auditService struct {
	BaseService
	repo portsrepo.AuditRepository
	tx   portsrepo.TransactionManager
}

// NewAuditService creates the append-only audit trail.
func NewAuditService(repo portsrepo.AuditRepository, tx portsrepo.TransactionManager, opts ...ServiceOption) portssvc.AuditSvc {
	return &auditService{BaseService: newBaseService(opts), repo: repo, tx: tx}
}

var _ portssvc.AuditSvc = (*auditService)(nil)

func (s *auditService) fill(record *domain.AuditRecord) {
	if record.AuditID == "" {
		record.AuditID = s.NewID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.Now()
	}
}

func (s *auditService) Record(ctx context.Context, record domain.AuditRecord) error {
	s.fill(&record)
	if err := s.repo.AppendAudit(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to append audit record",
			slog.String("entity_type", record.EntityType),
			slog.String("entity_id", record.EntityID),
			slog.String("action", record.Action))
		return err
	}
	return nil
}

func (s *auditService) RecordDetached(ctx context.Context, record domain.AuditRecord) error {
	return s.Record(s.tx.Detach(ctx), record)
}

func (s *auditService) ListAudit(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}
	return s.repo.ListAudit(ctx, filter)
}
