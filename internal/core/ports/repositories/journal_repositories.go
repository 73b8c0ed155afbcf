package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
)

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves an entry header by id.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntryByIDForUpdate retrieves an entry header and locks it for the rest of the transaction.
	FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntriesByReference returns entries carrying the given weak back-reference.
	FindEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]domain.JournalEntry, error)

	// ListEntries returns a page of entries ordered by date then number, newest first.
	ListEntries(ctx context.Context, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// FindEntryIDsByAccount returns ids of entries with at least one posting on the account.
	FindEntryIDsByAccount(ctx context.Context, accountID string) ([]string, error)
}

// PostingReader defines read operations for posting lines
type PostingReader interface {
	// FindPostingsByEntryID returns the lines of one entry ordered by line number.
	FindPostingsByEntryID(ctx context.Context, entryID string) ([]domain.Posting, error)

	// FindPostingsByEntryIDs returns lines grouped by entry id.
	FindPostingsByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.Posting, error)
}

// JournalWriter defines write operations for journal entries. Only the ledger uses it.
type JournalWriter interface {
	// NextEntryNumber reserves the next sequential entry number.
	NextEntryNumber(ctx context.Context) (int64, error)

	// SaveEntry inserts an entry header together with its postings.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting) error

	// UpdateDraft overwrites header fields and replaces the postings of a draft entry.
	UpdateDraft(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting) error

	// UpdateEntryStatus flips status only if the stored status equals from.
	// It returns ErrConflict when the row was not in the expected state.
	UpdateEntryStatus(ctx context.Context, entryID string, from, to domain.EntryStatus, reversedByID string, userID string, at time.Time) error

	// DeleteEntry physically removes the postings and then the entry.
	DeleteEntry(ctx context.Context, entryID string) error

	// DeletePostingsByAccount removes every posting on the account.
	DeletePostingsByAccount(ctx context.Context, accountID string) error

	// DeleteAllEntries wipes every posting and entry.
	DeleteAllEntries(ctx context.Context) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	PostingReader
	JournalWriter
}
