package dto

import (
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code             string               `json:"code" binding:"required,numeric,max=20"`
	NameAr           string               `json:"nameAr"`
	NameEn           string               `json:"nameEn" binding:"required_without=NameAr"`
	AccountType      domain.AccountType   `json:"accountType" binding:"required,oneof=asset liability equity revenue expense cash bank"`
	Nature           domain.AccountNature `json:"nature" binding:"required,oneof=debit credit"`
	ParentAccountID  *string              `json:"parentAccountID"` // Optional, use pointer for nullability
	AllowManualEntry *bool                `json:"allowManualEntry"`
	OpeningBalance   decimal.Decimal      `json:"openingBalance"`
	Description      string               `json:"description"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	NameAr           *string               `json:"nameAr"`
	NameEn           *string               `json:"nameEn"`
	AccountType      *domain.AccountType   `json:"accountType" binding:"omitempty,oneof=asset liability equity revenue expense cash bank"`
	Nature           *domain.AccountNature `json:"nature" binding:"omitempty,oneof=debit credit"`
	ParentAccountID  *string               `json:"parentAccountID"` // empty string moves the account to the root level
	AllowManualEntry *bool                 `json:"allowManualEntry"`
	OpeningBalance   *decimal.Decimal      `json:"openingBalance"`
	Description      *string               `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID        string               `json:"accountID"`
	Code             string               `json:"code"`
	NameAr           string               `json:"nameAr"`
	NameEn           string               `json:"nameEn"`
	AccountType      domain.AccountType   `json:"accountType"`
	Nature           domain.AccountNature `json:"nature"`
	ParentAccountID  string               `json:"parentAccountID"`
	AllowManualEntry bool                 `json:"allowManualEntry"`
	OpeningBalance   decimal.Decimal      `json:"openingBalance"`
	Description      string               `json:"description"`
	CreatedAt        time.Time            `json:"createdAt"`
	CreatedBy        string               `json:"createdBy"`
	LastUpdatedAt    time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy    string               `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:        acc.AccountID,
		Code:             acc.Code,
		NameAr:           acc.NameAr,
		NameEn:           acc.NameEn,
		AccountType:      acc.AccountType,
		Nature:           acc.Nature,
		ParentAccountID:  acc.ParentAccountID,
		AllowManualEntry: acc.AllowManualEntry,
		OpeningBalance:   acc.OpeningBalance,
		Description:      acc.Description,
		CreatedAt:        acc.CreatedAt,
		CreatedBy:        acc.CreatedBy,
		LastUpdatedAt:    acc.LastUpdatedAt,
		LastUpdatedBy:    acc.LastUpdatedBy,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

// AccountBalanceResponse is the balance of one account as of a date.
type AccountBalanceResponse struct {
	AccountID string          `json:"accountID"`
	AsOf      time.Time       `json:"asOf"`
	Balance   decimal.Decimal `json:"balance"`
}
