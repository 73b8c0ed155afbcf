package services_test

import (
	"testing"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type BalanceServiceTestSuite struct {
	ledgerFixture
}

func TestBalanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}

func (suite *BalanceServiceTestSuite) TestTrialBalance_BeginningAndPeriodColumns() {
	suite.postSale(suite.date(2025, 5, 20), "200")
	suite.postSale(suite.date(2025, 6, 5), "50")
	_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 6, 6),
		Lines: []dto.PostingLineRequest{line("531", "30", "0"), line("1111", "0", "30")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)
	// drafts stay out
	_, err = suite.svc.Ledger.CreateEntry(suite.ctx, sale(suite.date(2025, 6, 7), "999"), suite.actor)
	suite.Require().NoError(err)

	from := suite.date(2025, 6, 1)
	tb, err := suite.svc.Balance.TrialBalance(suite.ctx, &from, suite.date(2025, 6, 30))
	suite.Require().NoError(err)

	cash, ok := tb.Row(suite.accounts["1111"].AccountID)
	suite.Require().True(ok)
	suite.decEqual("200", cash.Beginning)
	suite.decEqual("50", cash.Debit)
	suite.decEqual("30", cash.Credit)
	suite.decEqual("220", cash.Ending)
	suite.False(cash.NatureMismatch)

	sales, ok := tb.Row(suite.accounts["4111"].AccountID)
	suite.Require().True(ok)
	suite.decEqual("-200", sales.Beginning)
	suite.decEqual("-250", sales.Ending)
	suite.decEqual("250", sales.NaturalEnding)

	rent, ok := tb.Row(suite.accounts["531"].AccountID)
	suite.Require().True(ok)
	suite.decEqual("0", rent.Beginning)
	suite.decEqual("30", rent.Ending)

	suite.Len(tb.Rows, 3)
	suite.Equal("1111", tb.Rows[0].AccountCode)
	suite.True(tb.Balanced)
	suite.decEqual("280", tb.TotalDebit)
	suite.decEqual("280", tb.TotalCredit)
}

func (suite *BalanceServiceTestSuite) TestTrialBalance_OmitsUntouchedAccountsAndFlagsNature() {
	// paying rent from cash that was never received leaves cash on the wrong side
	_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 6, 6),
		Lines: []dto.PostingLineRequest{line("531", "30", "0"), line("1111", "0", "30")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)

	tb, err := suite.svc.Balance.TrialBalance(suite.ctx, nil, suite.date(2025, 12, 31))
	suite.Require().NoError(err)
	suite.Len(tb.Rows, 2)
	cash, ok := tb.Row(suite.accounts["1111"].AccountID)
	suite.Require().True(ok)
	suite.True(cash.NatureMismatch)
	suite.decEqual("-30", cash.NaturalEnding)
}

func (suite *BalanceServiceTestSuite) TestTrialBalance_Validation() {
	from := suite.date(2025, 7, 1)
	_, err := suite.svc.Balance.TrialBalance(suite.ctx, &from, suite.date(2025, 6, 1))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BalanceServiceTestSuite) TestAccountBalance_AsOfIsInclusive() {
	suite.postSale(suite.date(2025, 6, 5), "50")
	suite.postSale(suite.date(2025, 6, 6), "25")

	suite.decEqual("0", suite.balance("1111", suite.date(2025, 6, 4)))
	suite.decEqual("50", suite.balance("1111", suite.date(2025, 6, 5)))
	suite.decEqual("75", suite.balance("1111", suite.date(2025, 6, 6)))

	_, err := suite.svc.Balance.AccountBalance(suite.ctx, "missing", suite.date(2025, 6, 6))
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *BalanceServiceTestSuite) TestAccountStatement_RunningBalance() {
	suite.postSale(suite.date(2025, 5, 31), "100")
	suite.postSale(suite.date(2025, 6, 2), "40")
	_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 6, 3),
		Lines: []dto.PostingLineRequest{line("531", "15", "0"), line("1111", "0", "15")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)

	stmt, err := suite.svc.Balance.AccountStatement(suite.ctx, suite.accounts["1111"].AccountID, suite.date(2025, 6, 1), suite.date(2025, 6, 30))

	suite.Require().NoError(err)
	suite.decEqual("100", stmt.Opening)
	suite.Require().Len(stmt.Lines, 2)
	suite.decEqual("140", stmt.Lines[0].RunningBalance)
	suite.decEqual("125", stmt.Lines[1].RunningBalance)
	suite.decEqual("125", stmt.Closing)

	_, err = suite.svc.Balance.AccountStatement(suite.ctx, suite.accounts["1111"].AccountID, suite.date(2025, 7, 1), suite.date(2025, 6, 1))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BalanceServiceTestSuite) TestCompareFiscalYears() {
	suite.postSale(suite.date(2024, 3, 1), "100")
	suite.postSale(suite.date(2025, 3, 1), "60")

	cmp, err := suite.svc.Balance.CompareFiscalYears(suite.ctx, 2024, 2025)

	suite.Require().NoError(err)
	suite.Equal(2024, cmp.YearA)
	suite.Require().Len(cmp.Rows, 2)
	cash := cmp.Rows[0]
	suite.Equal("1111", cash.AccountCode)
	suite.decEqual("100", cash.EndingA)
	suite.decEqual("160", cash.EndingB)
	suite.decEqual("60", cash.Difference)
}

func (suite *BalanceServiceTestSuite) TestInvalidateAccounts_DropsOnlyNamedAccounts() {
	suite.postSale(suite.date(2025, 6, 5), "50")
	asOf := suite.date(2025, 6, 30)
	suite.decEqual("50", suite.balance("1111", asOf))
	suite.decEqual("-50", suite.balance("4111", asOf))

	suite.svc.Balance.InvalidateAccounts(suite.accounts["1111"].AccountID)
	suite.svc.Balance.InvalidateAccounts()

	suite.decEqual("50", suite.balance("1111", asOf))
}
