package services

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
)

// RecordLinker stores a posted entry id on the domain record that caused it.
// It runs inside the posting transaction.
type RecordLinker interface {
	LinkEntry(ctx context.Context, referenceID, entryID string) error
}

// RecordLinkerFunc adapts a function to RecordLinker.
type RecordLinkerFunc func(ctx context.Context, referenceID, entryID string) error

// LinkEntry calls f.
func (f RecordLinkerFunc) LinkEntry(ctx context.Context, referenceID, entryID string) error {
	return f(ctx, referenceID, entryID)
}

// CompensateFunc deletes the caller's speculative domain row after a failed auto-post.
type CompensateFunc func(ctx context.Context, failure *apperrors.AutoPostError) error

// AutoPostSvc is the seam domain writers use to post business events
type AutoPostSvc interface {
	// AutoPost returns the posted entry or an *apperrors.AutoPostError.
	AutoPost(ctx context.Context, req dto.AutoPostRequest, actor domain.Actor) (*domain.JournalEntry, error)

	// PostWithCompensation runs AutoPost and, on failure, hands the failure to compensate.
	PostWithCompensation(ctx context.Context, req dto.AutoPostRequest, actor domain.Actor, compensate CompensateFunc) (*domain.JournalEntry, error)

	// RegisterLinker installs the linker used for a reference type.
	RegisterLinker(referenceType string, linker RecordLinker)
}

// AuditSvc is the append-only audit trail
type AuditSvc interface {
	// Record appends inside the caller's transaction, if any.
	Record(ctx context.Context, record domain.AuditRecord) error

	// RecordDetached appends outside any transaction so the row survives a rollback.
	RecordDetached(ctx context.Context, record domain.AuditRecord) error

	// ListAudit serves audit consumers. The ledger never calls it.
	ListAudit(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error)
}
