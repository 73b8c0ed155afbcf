package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
	Cash      AccountType = "cash"
	Bank      AccountType = "bank"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense, Cash, Bank:
		return true
	}
	return false
}

// AccountNature is the side on which a positive balance is expected.
type AccountNature string

const (
	DebitNature  AccountNature = "debit"
	CreditNature AccountNature = "credit"
)

// Valid reports whether n is debit or credit.
func (n AccountNature) Valid() bool {
	return n == DebitNature || n == CreditNature
}

// Account is a node in the chart of accounts.
type Account struct {
	AccountID        string          `json:"accountID"`
	Code             string          `json:"code"` // numeric but string typed, leading zeros matter
	NameAr           string          `json:"nameAr"`
	NameEn           string          `json:"nameEn"`
	AccountType      AccountType     `json:"accountType"`
	Nature           AccountNature   `json:"nature"`
	ParentAccountID  string          `json:"parentAccountID"` // empty for roots
	AllowManualEntry bool            `json:"allowManualEntry"`
	OpeningBalance   decimal.Decimal `json:"openingBalance"`
	Description      string          `json:"description"`
	AuditFields
}

// DisplayName prefers the English name and falls back to Arabic.
func (a Account) DisplayName() string {
	if a.NameEn != "" {
		return a.NameEn
	}
	return a.NameAr
}

// NatureMatches reports whether a net debit-minus-credit balance sits on the expected side.
// Zero balances always match.
func (a Account) NatureMatches(net decimal.Decimal) bool {
	switch {
	case net.IsZero():
		return true
	case a.Nature == CreditNature:
		return net.IsNegative()
	default:
		return net.IsPositive()
	}
}

// AccountNode is an account together with its children in the assembled forest.
type AccountNode struct {
	Account
	Children []*AccountNode `json:"children"`
}

// BuildAccountTree assembles a forest from a flat account list.
//
// Every input id appears exactly once in the result. Accounts whose parent is
// missing, or that are caught in a parent cycle, are promoted to roots.
// Duplicate ids keep the first occurrence. Siblings are ordered by code.
func BuildAccountTree(accounts []Account) []*AccountNode {
	nodes := make(map[string]*AccountNode, len(accounts))
	order := make([]*AccountNode, 0, len(accounts))
	for _, acc := range accounts {
		if _, dup := nodes[acc.AccountID]; dup {
			continue
		}
		n := &AccountNode{Account: acc}
		nodes[acc.AccountID] = n
		order = append(order, n)
	}

	roots := make([]*AccountNode, 0)
	for _, n := range order {
		parent, ok := nodes[n.ParentAccountID]
		if n.ParentAccountID == "" || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	visited := make(map[*AccountNode]bool, len(order))
	var mark func(n *AccountNode)
	mark = func(n *AccountNode) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, c := range n.Children {
			mark(c)
		}
	}
	for _, r := range roots {
		mark(r)
	}

	// whatever is still unvisited hangs off a parent cycle; cut the cycle open
	for _, n := range order {
		if visited[n] {
			continue
		}
		cut := cycleMember(n, nodes)
		parent := nodes[cut.ParentAccountID]
		parent.Children = removeNode(parent.Children, cut)
		roots = append(roots, cut)
		mark(cut)
	}

	sortNodes(roots)
	return roots
}

// cycleMember follows parent links from n until a node repeats.
func cycleMember(n *AccountNode, nodes map[string]*AccountNode) *AccountNode {
	seen := make(map[*AccountNode]bool)
	for !seen[n] {
		seen[n] = true
		n = nodes[n.ParentAccountID]
	}
	return n
}

// WalkAccountTree visits every node depth-first, parents before children.
func WalkAccountTree(roots []*AccountNode, fn func(n *AccountNode, depth int)) {
	var walk func(nodes []*AccountNode, depth int)
	walk = func(nodes []*AccountNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
}

func removeNode(nodes []*AccountNode, target *AccountNode) []*AccountNode {
	out := nodes[:0]
	for _, n := range nodes {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

func sortNodes(nodes []*AccountNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Code < nodes[j].Code
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}
