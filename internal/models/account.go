package models

import (
	"github.com/shopspring/decimal"
)

// Account represents a row of the accounts table.
type Account struct {
	AccountID        string          `db:"account_id"`
	Code             string          `db:"code"`
	NameAr           string          `db:"name_ar"`
	NameEn           string          `db:"name_en"`
	AccountType      string          `db:"account_type"`
	Nature           string          `db:"nature"`
	ParentAccountID  *string         `db:"parent_account_id"` // Nullable
	AllowManualEntry bool            `db:"allow_manual_entry"`
	OpeningBalance   decimal.Decimal `db:"opening_balance"`
	Description      string          `db:"description"`
	AuditFields
}
