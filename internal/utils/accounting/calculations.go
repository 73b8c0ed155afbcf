package accounting

import (
	"fmt"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NaturalBalance expresses a debit-minus-credit net on the account's expected side:
// debit-nature accounts keep the sign, credit-nature accounts flip it.
func NaturalBalance(net decimal.Decimal, nature domain.AccountNature) decimal.Decimal {
	if nature == domain.CreditNature {
		return net.Neg()
	}
	return net
}

// ValidatePostingLines checks the per-line rules shared by every writer:
// at least one line, no negative amounts, and no line with both sides zero.
func ValidatePostingLines(postings []domain.Posting) error {
	if len(postings) == 0 {
		return fmt.Errorf("%w: entry must have at least one posting line", apperrors.ErrValidation)
	}
	for _, p := range postings {
		if p.Debit.IsNegative() || p.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrValidation, p.LineNo)
		}
		if p.Debit.IsZero() && p.Credit.IsZero() {
			return fmt.Errorf("%w: line %d has neither debit nor credit", apperrors.ErrValidation, p.LineNo)
		}
	}
	return nil
}

// ValidateEntryBalance fails with ErrUnbalancedEntry when debits and credits differ beyond tolerance.
func ValidateEntryBalance(postings []domain.Posting) error {
	debit, credit := domain.SumPostings(postings)
	if !domain.IsBalanced(debit, credit) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrUnbalancedEntry, debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

// SplitBalance places a net balance on the debit side when positive and on the credit side otherwise.
func SplitBalance(net decimal.Decimal) (debit, credit decimal.Decimal) {
	if net.IsPositive() {
		return net, decimal.Zero
	}
	return decimal.Zero, net.Neg()
}
