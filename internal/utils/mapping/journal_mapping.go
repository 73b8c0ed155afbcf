package mapping

import (
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:       d.EntryID,
		EntryNumber:   d.EntryNumber,
		EntryDate:     d.EntryDate,
		Description:   d.Description,
		Status:        string(d.Status),
		ReferenceType: nullable(d.ReferenceType),
		ReferenceID:   nullable(d.ReferenceID),
		Branch:        d.Branch,
		FiscalYearID:  nullable(d.FiscalYearID),
		ReversalOfID:  nullable(d.ReversalOfID),
		ReversedByID:  nullable(d.ReversedByID),
		PostedAt:      d.PostedAt,
		PostedBy:      nullable(d.PostedBy),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:       m.EntryID,
		EntryNumber:   m.EntryNumber,
		EntryDate:     domain.DateOnly(m.EntryDate),
		Description:   m.Description,
		Status:        domain.EntryStatus(m.Status),
		ReferenceType: deref(m.ReferenceType),
		ReferenceID:   deref(m.ReferenceID),
		Branch:        m.Branch,
		FiscalYearID:  deref(m.FiscalYearID),
		ReversalOfID:  deref(m.ReversalOfID),
		ReversedByID:  deref(m.ReversedByID),
		PostedAt:      m.PostedAt,
		PostedBy:      deref(m.PostedBy),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPosting converts a domain Posting to a model JournalPosting
func ToModelPosting(d domain.Posting) models.JournalPosting {
	return models.JournalPosting{
		PostingID: d.PostingID,
		EntryID:   d.EntryID,
		AccountID: d.AccountID,
		LineNo:    d.LineNo,
		Debit:     d.Debit,
		Credit:    d.Credit,
		Memo:      d.Memo,
	}
}

// ToDomainPosting converts a model JournalPosting to a domain Posting
func ToDomainPosting(m models.JournalPosting) domain.Posting {
	return domain.Posting{
		PostingID: m.PostingID,
		EntryID:   m.EntryID,
		AccountID: m.AccountID,
		LineNo:    m.LineNo,
		Debit:     m.Debit,
		Credit:    m.Credit,
		Memo:      m.Memo,
	}
}

