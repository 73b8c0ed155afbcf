package mapping

import (
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:        d.AccountID,
		Code:             d.Code,
		NameAr:           d.NameAr,
		NameEn:           d.NameEn,
		AccountType:      string(d.AccountType),
		Nature:           string(d.Nature),
		ParentAccountID:  nullable(d.ParentAccountID),
		AllowManualEntry: d.AllowManualEntry,
		OpeningBalance:   d.OpeningBalance,
		Description:      d.Description,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:        m.AccountID,
		Code:             m.Code,
		NameAr:           m.NameAr,
		NameEn:           m.NameEn,
		AccountType:      domain.AccountType(m.AccountType),
		Nature:           domain.AccountNature(m.Nature),
		ParentAccountID:  deref(m.ParentAccountID),
		AllowManualEntry: m.AllowManualEntry,
		OpeningBalance:   m.OpeningBalance,
		Description:      m.Description,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
