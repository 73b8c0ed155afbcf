package services

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
)

// LedgerReaderSvc defines read operations for journal entries
type LedgerReaderSvc interface {
	// GetEntry returns the entry with its postings.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// FindByReference returns the entries pointing at a domain record.
	FindByReference(ctx context.Context, referenceType, referenceID string) ([]domain.JournalEntry, error)
}

// LedgerWriterSvc defines the entry lifecycle. It is the only path that writes postings.
type LedgerWriterSvc interface {
	// CreateEntry stores a manual draft. Balance is not required yet.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actor domain.Actor) (*domain.JournalEntry, error)

	// UpdateDraft replaces the header and lines of a draft.
	UpdateDraft(ctx context.Context, entryID string, req dto.UpdateDraftRequest, actor domain.Actor) (*domain.JournalEntry, error)

	// PostEntry moves a balanced draft to posted.
	PostEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error)

	// CreateAndPost creates and posts in one transaction. Manual-entry flags are not checked.
	CreateAndPost(ctx context.Context, req dto.CreateEntryRequest, action domain.GateAction, actor domain.Actor) (*domain.JournalEntry, error)

	// ReverseEntry marks a posted entry reversed and returns the original and its mirror.
	ReverseEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, *domain.JournalEntry, error)

	// ReturnToDraft moves a posted entry back to draft.
	ReturnToDraft(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error)

	// RemoveEntry deletes a draft, or a posted entry when the actor may remove posted entries.
	RemoveEntry(ctx context.Context, entryID string, actor domain.Actor) error

	// ImportEntries creates and posts every entry in one transaction.
	ImportEntries(ctx context.Context, req dto.ImportEntriesRequest, actor domain.Actor) ([]domain.JournalEntry, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
