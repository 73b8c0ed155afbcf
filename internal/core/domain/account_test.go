package domain_test

import (
	"testing"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acc(id, code, parent string) domain.Account {
	return domain.Account{AccountID: id, Code: code, ParentAccountID: parent}
}

func collectIDs(roots []*domain.AccountNode) map[string]int {
	seen := make(map[string]int)
	domain.WalkAccountTree(roots, func(n *domain.AccountNode, _ int) {
		seen[n.AccountID]++
	})
	return seen
}

func TestBuildAccountTree_KeepsEveryNode(t *testing.T) {
	tests := []struct {
		name      string
		accounts  []domain.Account
		wantRoots []string
	}{
		{
			name:      "empty list",
			accounts:  nil,
			wantRoots: []string{},
		},
		{
			name: "well formed hierarchy",
			accounts: []domain.Account{
				acc("a", "1", ""),
				acc("b", "11", "a"),
				acc("c", "111", "b"),
				acc("d", "2", ""),
			},
			wantRoots: []string{"a", "d"},
		},
		{
			name: "children listed before parents",
			accounts: []domain.Account{
				acc("c", "111", "b"),
				acc("b", "11", "a"),
				acc("a", "1", ""),
			},
			wantRoots: []string{"a"},
		},
		{
			name: "dangling parent is promoted to root",
			accounts: []domain.Account{
				acc("a", "1", ""),
				acc("x", "9", "missing"),
				acc("y", "91", "x"),
			},
			wantRoots: []string{"a", "x"},
		},
		{
			name: "self parent",
			accounts: []domain.Account{
				acc("s", "5", "s"),
			},
			wantRoots: []string{"s"},
		},
		{
			name: "two node cycle with a hanging child",
			accounts: []domain.Account{
				acc("k", "71", "p"),
				acc("p", "7", "q"),
				acc("q", "8", "p"),
			},
			wantRoots: []string{"p"},
		},
		{
			name: "duplicate id keeps first",
			accounts: []domain.Account{
				acc("a", "1", ""),
				acc("a", "1-dup", ""),
			},
			wantRoots: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots := domain.BuildAccountTree(tt.accounts)

			gotRoots := make([]string, 0, len(roots))
			for _, r := range roots {
				gotRoots = append(gotRoots, r.AccountID)
			}
			assert.Equal(t, tt.wantRoots, gotRoots)

			seen := collectIDs(roots)
			for _, a := range tt.accounts {
				assert.Equal(t, 1, seen[a.AccountID], "account %s must appear exactly once", a.AccountID)
			}
		})
	}
}

func TestBuildAccountTree_OrdersSiblingsByCode(t *testing.T) {
	roots := domain.BuildAccountTree([]domain.Account{
		acc("root", "1", ""),
		acc("c2", "112", "root"),
		acc("c1", "111", "root"),
		acc("c3", "1111", "c1"),
	})

	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "111", roots[0].Children[0].Code)
	assert.Equal(t, "112", roots[0].Children[1].Code)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "1111", roots[0].Children[0].Children[0].Code)
}

func TestAccount_NatureMatches(t *testing.T) {
	cash := domain.Account{Nature: domain.DebitNature}
	sales := domain.Account{Nature: domain.CreditNature}

	assert.True(t, cash.NatureMatches(decimal.NewFromInt(50)))
	assert.False(t, cash.NatureMatches(decimal.NewFromInt(-50)))
	assert.True(t, sales.NatureMatches(decimal.NewFromInt(-50)))
	assert.False(t, sales.NatureMatches(decimal.NewFromInt(50)))
	assert.True(t, sales.NatureMatches(decimal.Zero))
}

func TestAccountTypeAndNatureValidation(t *testing.T) {
	for _, at := range []domain.AccountType{domain.Asset, domain.Liability, domain.Equity, domain.Revenue, domain.Expense, domain.Cash, domain.Bank} {
		assert.True(t, at.Valid(), string(at))
	}
	assert.False(t, domain.AccountType("income").Valid())
	assert.True(t, domain.DebitNature.Valid())
	assert.False(t, domain.AccountNature("both").Valid())
}
