package services_test

import (
	"sync"
	"testing"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type RolloverServiceTestSuite struct {
	ledgerFixture
}

func TestRolloverServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RolloverServiceTestSuite))
}

func (suite *RolloverServiceTestSuite) seedYear() *domain.FiscalYear {
	suite.postSale(suite.date(2025, 2, 10), "500")
	_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 4, 1),
		Lines: []dto.PostingLineRequest{line("531", "120", "0"), line("1112", "0", "120")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)
	// a pair that nets to zero must not roll over
	_, err = suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 5, 1),
		Lines: []dto.PostingLineRequest{line("1121", "80", "0"), line("4112", "0", "80")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)
	_, err = suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 5, 2),
		Lines: []dto.PostingLineRequest{line("1111", "80", "0"), line("1121", "0", "80")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)

	fy, _, err := suite.svc.Period.EnsureFiscalYear(suite.ctx, 2025, suite.actor)
	suite.Require().NoError(err)
	return fy
}

func (suite *RolloverServiceTestSuite) TestRollover_CarriesEndingBalances() {
	src := suite.seedYear()
	from := src.StartDate
	before, err := suite.svc.Balance.TrialBalance(suite.ctx, &from, src.EndDate)
	suite.Require().NoError(err)

	result, err := suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(2026, result.TargetYear)
	// 1111, 1112, 4111, 4112, 531; 1121 nets to zero
	suite.Equal(5, result.AccountsRolledOver)
	suite.decEqual("700", result.TotalDebit)
	suite.decEqual("700", result.TotalCredit)
	suite.NotEmpty(result.EntryID)

	closed, err := suite.svc.Period.GetFiscalYear(suite.ctx, src.FiscalYearID)
	suite.Require().NoError(err)
	suite.Equal(domain.FiscalYearClosed, closed.Status)
	suite.Equal(suite.actor.UserID, closed.ClosedBy)
	suite.NotNil(closed.ClosedAt)

	opening, err := suite.svc.Ledger.GetEntry(suite.ctx, result.EntryID)
	suite.Require().NoError(err)
	suite.Equal(domain.EntryPosted, opening.Status)
	suite.Equal(suite.date(2026, 1, 1), opening.EntryDate)
	suite.Equal(domain.RolloverDescription, opening.Description)
	suite.Equal(domain.RolloverReferenceType, opening.ReferenceType)
	suite.Equal(result.TargetFiscalYearID, opening.FiscalYearID)

	// source endings equal the beginning balances of the target year
	for _, row := range before.Rows {
		b, err := suite.svc.Balance.AccountBalance(suite.ctx, row.AccountID, suite.date(2026, 1, 1))
		suite.Require().NoError(err)
		suite.Truef(row.Ending.Equal(b), "%s: ending %s, opening %s", row.AccountCode, row.Ending, b)
	}
	jan := suite.date(2026, 1, 1)
	next, err := suite.svc.Balance.TrialBalance(suite.ctx, &jan, suite.date(2026, 1, 31))
	suite.Require().NoError(err)
	for _, row := range before.Rows {
		r, ok := next.Row(row.AccountID)
		if row.Ending.IsZero() {
			continue
		}
		suite.Require().True(ok, row.AccountCode)
		suite.True(row.Ending.Equal(r.Beginning), row.AccountCode)
		suite.True(r.Debit.IsZero() && r.Credit.IsZero(), "carry-forward is not period activity")
	}

	// later postings build on the carried balance
	suite.postSale(suite.date(2026, 1, 5), "20")
	suite.decEqual("600", suite.balance("1111", suite.date(2026, 1, 31)))

	activities, err := suite.svc.Period.ListActivities(suite.ctx, src.FiscalYearID)
	suite.Require().NoError(err)
	var rolled *domain.FiscalYearActivity
	for i := range activities {
		if activities[i].Action == domain.ActivityRollover {
			rolled = &activities[i]
		}
	}
	suite.Require().NotNil(rolled)
	suite.EqualValues(5, rolled.Details["accounts_rolled_over"])

	targetActs, err := suite.svc.Period.ListActivities(suite.ctx, result.TargetFiscalYearID)
	suite.Require().NoError(err)
	hasTarget := false
	for _, a := range targetActs {
		hasTarget = hasTarget || a.Action == domain.ActivityRolloverTarget
	}
	suite.True(hasTarget)
}

func (suite *RolloverServiceTestSuite) TestRollover_SecondAttemptFailsFast() {
	src := suite.seedYear()
	_, err := suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.Require().NoError(err)

	_, err = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *RolloverServiceTestSuite) TestRollover_ConcurrentCallsAreExclusive() {
	src := suite.seedYear()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.ErrorIs(err, apperrors.ErrConflict)
	}
	suite.Equal(1, succeeded)

	page, err := suite.svc.Ledger.ListEntries(suite.ctx, dto.ListEntriesParams{ReferenceType: domain.RolloverReferenceType})
	suite.Require().NoError(err)
	suite.Len(page.Entries, 1)
}

func (suite *RolloverServiceTestSuite) TestRollover_UnbalancedSourceRollsBack() {
	// each entry passes the 0.01 tolerance, together they do not
	for day := 1; day <= 3; day++ {
		req := sale(suite.date(2025, 3, day), "100")
		req.Lines[0].Debit = amount("100.006")
		_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, req, domain.ActionCreate, suite.actor)
		suite.Require().NoError(err)
	}
	src, _, err := suite.svc.Period.EnsureFiscalYear(suite.ctx, 2025, suite.actor)
	suite.Require().NoError(err)

	_, err = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)

	suite.ErrorIs(err, apperrors.ErrSourceUnbalanced)
	still, err := suite.svc.Period.GetFiscalYear(suite.ctx, src.FiscalYearID)
	suite.Require().NoError(err)
	suite.Equal(domain.FiscalYearOpen, still.Status)
	years, err := suite.svc.Period.ListFiscalYears(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(years, 1)
}

func (suite *RolloverServiceTestSuite) TestRollover_TargetYearRules() {
	src := suite.seedYear()
	for _, year := range []int{2024, 2025, 2027} {
		target := year
		_, err := suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, &target, suite.actor)
		suite.ErrorIs(err, apperrors.ErrValidation, "target %d", year)
	}

	closedTarget, err := suite.svc.Period.OpenFiscalYear(suite.ctx, 2026, suite.actor)
	suite.Require().NoError(err)
	_, err = suite.svc.Period.CloseFiscalYear(suite.ctx, closedTarget.FiscalYearID, suite.actor)
	suite.Require().NoError(err)
	target := 2026
	_, err = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, &target, suite.actor)
	suite.ErrorIs(err, apperrors.ErrFiscalYearClosed)

	still, err := suite.svc.Period.GetFiscalYear(suite.ctx, src.FiscalYearID)
	suite.Require().NoError(err)
	suite.Equal(domain.FiscalYearOpen, still.Status)
}

func (suite *RolloverServiceTestSuite) TestRollover_SkippedYearKeepsItsPostings() {
	suite.postSale(suite.date(2025, 3, 1), "50")
	suite.postSale(suite.date(2026, 3, 1), "20")
	src, _, err := suite.svc.Period.EnsureFiscalYear(suite.ctx, 2025, suite.actor)
	suite.Require().NoError(err)

	skip := 2027
	_, err = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, &skip, suite.actor)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.Require().NoError(err)
	suite.decEqual("70", suite.balance("1111", suite.date(2026, 6, 30)))
}

func (suite *RolloverServiceTestSuite) TestRollover_RefusedWhileEarlierYearOpen() {
	suite.postSale(suite.date(2024, 11, 1), "100")
	src := suite.seedYear()

	_, err := suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.ErrorIs(err, apperrors.ErrConflict)
	still, err := suite.svc.Period.GetFiscalYear(suite.ctx, src.FiscalYearID)
	suite.Require().NoError(err)
	suite.Equal(domain.FiscalYearOpen, still.Status)

	earlier, _, err := suite.svc.Period.EnsureFiscalYear(suite.ctx, 2024, suite.actor)
	suite.Require().NoError(err)
	_, err = suite.svc.Rollover.Rollover(suite.ctx, earlier.FiscalYearID, nil, suite.actor)
	suite.Require().NoError(err)
	_, err = suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.Require().NoError(err)
	// 100 from 2024, 500 + 80 from 2025
	suite.decEqual("680", suite.balance("1111", suite.date(2026, 6, 30)))
}

func (suite *RolloverServiceTestSuite) TestRollover_DatesBeforeCarryForwardAreLocked() {
	src := suite.seedYear()
	_, err := suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.Require().NoError(err)

	// 2024 never existed; auto-creating it must not let postings hide behind the carry-forward
	_, err = suite.svc.Ledger.CreateEntry(suite.ctx, sale(suite.date(2024, 6, 1), "30"), suite.actor)
	suite.ErrorIs(err, apperrors.ErrFiscalYearClosed)
	_, err = suite.svc.Period.CheckMutable(suite.ctx, suite.date(2025, 12, 31), domain.GateRequest{Action: domain.ActionCreate}, suite.actor)
	suite.ErrorIs(err, apperrors.ErrFiscalYearClosed)
	_, err = suite.svc.Period.CheckMutable(suite.ctx, suite.date(2026, 1, 1), domain.GateRequest{Action: domain.ActionCreate}, suite.actor)
	suite.NoError(err)

	suite.decEqual("580", suite.balance("1111", suite.date(2026, 6, 30)))
}

func (suite *RolloverServiceTestSuite) TestRollover_TemporaryOpenSourceStillWritable() {
	src := suite.seedYear()
	_, err := suite.svc.Rollover.Rollover(suite.ctx, src.FiscalYearID, nil, suite.actor)
	suite.Require().NoError(err)

	opener := suite.actorWith("fiscal_years:*:temporary_open")
	_, err = suite.svc.Period.TemporaryOpen(suite.ctx, src.FiscalYearID, "late supplier invoice", opener)
	suite.Require().NoError(err)

	_, err = suite.svc.Period.CheckMutable(suite.ctx, suite.date(2025, 12, 20), domain.GateRequest{Action: domain.ActionCreate}, suite.actor)
	suite.NoError(err)
}

func (suite *RolloverServiceTestSuite) TestRollover_EmptyYearPostsNothing() {
	fy, err := suite.svc.Period.OpenFiscalYear(suite.ctx, 2025, suite.actor)
	suite.Require().NoError(err)

	result, err := suite.svc.Rollover.Rollover(suite.ctx, fy.FiscalYearID, nil, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(0, result.AccountsRolledOver)
	suite.Empty(result.EntryID)
	suite.Equal(0, suite.countEntries())
}
