package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CarryForwardMode selects whether rollover opening postings are summed.
type CarryForwardMode int

const (
	// CarryForwardExclude leaves out postings of rollover opening entries.
	CarryForwardExclude CarryForwardMode = iota
	// CarryForwardOnly sums nothing but rollover opening postings.
	CarryForwardOnly
)

// Rollover opening entries are tagged with this reference type.
const (
	RolloverReferenceType = "fiscal_year_rollover"
	RolloverDescription   = "opening balances rollover"
)

// PostingSumFilter selects posted postings to aggregate. From and To are inclusive dates.
type PostingSumFilter struct {
	AccountIDs   []string
	From         *time.Time
	To           *time.Time
	CarryForward CarryForwardMode
	Branch       string
}

// AccountTotals is the debit and credit sum of one account.
type AccountTotals struct {
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Net is debit minus credit.
func (t AccountTotals) Net() decimal.Decimal {
	return t.Debit.Sub(t.Credit)
}

// TrialBalanceRow is one account line of a trial balance.
type TrialBalanceRow struct {
	AccountID      string          `json:"accountID"`
	AccountCode    string          `json:"accountCode"`
	AccountName    string          `json:"accountName"`
	AccountType    AccountType     `json:"accountType"`
	Nature         AccountNature   `json:"nature"`
	Beginning      decimal.Decimal `json:"beginning"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Ending         decimal.Decimal `json:"ending"`
	NaturalEnding  decimal.Decimal `json:"naturalEnding"` // Ending read on the account's nature side
	NatureMismatch bool            `json:"natureMismatch"` // advisory only
}

// TrialBalance aggregates posted postings between From and To.
type TrialBalance struct {
	From        *time.Time        `json:"from,omitempty"`
	To          time.Time         `json:"to"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	Balanced    bool              `json:"balanced"`
}

// Row returns the row for accountID, if any.
func (tb TrialBalance) Row(accountID string) (TrialBalanceRow, bool) {
	for _, r := range tb.Rows {
		if r.AccountID == accountID {
			return r, true
		}
	}
	return TrialBalanceRow{}, false
}

// PostingLine is a posted posting joined with its entry header.
type PostingLine struct {
	EntryID     string          `json:"entryID"`
	EntryNumber int64           `json:"entryNumber"`
	EntryDate   time.Time       `json:"entryDate"`
	Description string          `json:"description"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// StatementLine is a posting line with the running balance after it.
type StatementLine struct {
	PostingLine
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// AccountStatement lists an account's movements over a date range.
type AccountStatement struct {
	AccountID string          `json:"accountID"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Opening   decimal.Decimal `json:"opening"`
	Lines     []StatementLine `json:"lines"`
	Closing   decimal.Decimal `json:"closing"`
}

// FiscalYearComparisonRow holds one account's ending balance in two years.
type FiscalYearComparisonRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	EndingA     decimal.Decimal `json:"endingA"`
	EndingB     decimal.Decimal `json:"endingB"`
	Difference  decimal.Decimal `json:"difference"`
}

// FiscalYearComparison puts two years' closing balances side by side.
type FiscalYearComparison struct {
	YearA int                       `json:"yearA"`
	YearB int                       `json:"yearB"`
	Rows  []FiscalYearComparisonRow `json:"rows"`
}

// RolloverResult summarizes a completed fiscal-year rollover.
type RolloverResult struct {
	SourceFiscalYearID string          `json:"sourceFiscalYearID"`
	TargetFiscalYearID string          `json:"targetFiscalYearID"`
	TargetYear         int             `json:"targetYear"`
	AccountsRolledOver int             `json:"accountsRolledOver"`
	TotalDebit         decimal.Decimal `json:"totalDebit"`
	TotalCredit        decimal.Decimal `json:"totalCredit"`
	EntryID            string          `json:"entryID,omitempty"`
}
