package memory

import (
	"context"
	"sort"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
)

// AccountRepository implements the chart of accounts over a Store.
type AccountRepository struct {
	*Store
}

var _ portsrepo.AccountRepositoryFacade = (*AccountRepository)(nil)

func (r *AccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account", accountID)
	}
	return &acc, nil
}

func (r *AccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.accountCodes[code]
	if !ok {
		return nil, apperrors.NewNotFoundError("account", code)
	}
	acc := r.accounts[id]
	return &acc, nil
}

func (r *AccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Account, len(codes))
	for _, code := range codes {
		if id, ok := r.accountCodes[code]; ok {
			out[code] = r.accounts[id]
		}
	}
	return out, nil
}

func (r *AccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *AccountRepository) CountAccounts(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}

func (r *AccountRepository) HasPostings(ctx context.Context, accountID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lines := range r.postings {
		for _, p := range lines {
			if p.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *AccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accountCodes[account.Code]; ok {
		return apperrors.NewAppError(409, "account code already exists: "+account.Code, apperrors.ErrDuplicate)
	}
	if _, ok := r.accounts[account.AccountID]; ok {
		return apperrors.NewAppError(409, "account id already exists: "+account.AccountID, apperrors.ErrDuplicate)
	}
	r.accounts[account.AccountID] = account
	r.accountCodes[account.Code] = account.AccountID
	return nil
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.accounts[account.AccountID]
	if !ok {
		return apperrors.NewNotFoundError("account", account.AccountID)
	}
	// code and creation stamps are immutable
	account.Code = existing.Code
	account.CreatedAt = existing.CreatedAt
	account.CreatedBy = existing.CreatedBy
	r.accounts[account.AccountID] = account
	return nil
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	if !ok {
		return apperrors.NewNotFoundError("account", accountID)
	}
	for id, child := range r.accounts {
		if child.ParentAccountID == accountID {
			child.ParentAccountID = ""
			r.accounts[id] = child
		}
	}
	delete(r.accounts, accountID)
	delete(r.accountCodes, acc.Code)
	return nil
}

func (r *AccountRepository) DeleteAllAccounts(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[string]domain.Account)
	r.accountCodes = make(map[string]string)
	return nil
}
