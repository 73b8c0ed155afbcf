package services

import (
	"context"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	// Resolve finds an account by id or by code.
	Resolve(ctx context.Context, codeOrID string) (*domain.Account, error)

	// ResolveCodes looks up many codes at once. Any unknown code fails the whole call with ErrNotFound.
	ResolveCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)


	// ListAccounts returns the flat chart ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// Tree assembles the chart into a forest.
	Tree(ctx context.Context) ([]*domain.AccountNode, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error)

	// UpdateAccount applies patch semantics: nil fields keep their value.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actor domain.Actor) (*domain.Account, error)

	// DeleteAccount fails with ErrAccountHasPostings unless force is set.
	DeleteAccount(ctx context.Context, accountID string, force bool, actor domain.Actor) error

	// SeedDefaultTree creates the default restaurant chart. ErrAccountsExist unless force.
	SeedDefaultTree(ctx context.Context, force bool, actor domain.Actor) ([]domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
