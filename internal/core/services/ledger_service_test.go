package services_test

import (
	"testing"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	ledgerFixture
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_StoresDraft() {
	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, sale(suite.date(2025, 7, 1), "100"), suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryDraft, entry.Status)
	suite.Equal("downtown", entry.Branch)
	suite.NotEmpty(entry.FiscalYearID)
	suite.Len(entry.Postings, 2)
	suite.Equal(suite.accounts["1111"].AccountID, entry.Postings[0].AccountID)
	suite.Equal(1, entry.Postings[0].LineNo)

	// drafts never count
	suite.decEqual("0", suite.balance("1111", suite.date(2025, 7, 31)))
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_AllowsUnbalancedDraft() {
	req := sale(suite.date(2025, 7, 1), "100")
	req.Lines[1].Credit = amount("90")

	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, req, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryDraft, entry.Status)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_RejectsBadLines() {
	tests := []struct {
		name  string
		lines []dto.PostingLineRequest
	}{
		{"no lines", nil},
		{"unknown account", []dto.PostingLineRequest{line("9999", "10", "0")}},
		{"negative amount", []dto.PostingLineRequest{line("1111", "-10", "0")}},
		{"zero line", []dto.PostingLineRequest{line("1111", "0", "0")}},
		{"parent account without manual entry", []dto.PostingLineRequest{line("111", "10", "0"), line("4111", "0", "10")}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.svc.Ledger.CreateEntry(suite.ctx, dto.CreateEntryRequest{Date: suite.date(2025, 7, 1), Lines: tt.lines}, suite.actor)
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
	suite.Equal(0, suite.countEntries())
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_ResolvesByIDOrCode() {
	req := dto.CreateEntryRequest{
		Date: suite.date(2025, 7, 1),
		Lines: []dto.PostingLineRequest{
			line(suite.accounts["1111"].AccountID, "25", "0"),
			line("4111", "0", "25"),
		},
	}
	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, req, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(suite.accounts["1111"].AccountID, entry.Postings[0].AccountID)
	suite.Equal(suite.accounts["4111"].AccountID, entry.Postings[1].AccountID)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_Balanced() {
	posted := suite.postSale(suite.date(2025, 7, 2), "100")

	suite.Equal(domain.EntryPosted, posted.Status)
	suite.Require().NotNil(posted.PostedAt)
	suite.Equal(suite.actor.UserID, posted.PostedBy)
	suite.decEqual("100", suite.balance("1111", suite.date(2025, 7, 31)))
	suite.decEqual("-100", suite.balance("4111", suite.date(2025, 7, 31)))
}

func (suite *LedgerServiceTestSuite) TestPostEntry_Unbalanced() {
	req := sale(suite.date(2025, 7, 1), "100")
	req.Lines[1].Credit = amount("90")
	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, req, suite.actor)
	suite.Require().NoError(err)

	_, err = suite.svc.Ledger.PostEntry(suite.ctx, entry.EntryID, suite.actor)

	suite.ErrorIs(err, apperrors.ErrUnbalancedEntry)
	stored, err := suite.svc.Ledger.GetEntry(suite.ctx, entry.EntryID)
	suite.Require().NoError(err)
	suite.Equal(domain.EntryDraft, stored.Status)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_WithinToleranceIsBalanced() {
	req := sale(suite.date(2025, 7, 1), "100")
	req.Lines[0].Debit = amount("100.005")
	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, req, suite.actor)
	suite.Require().NoError(err)

	_, err = suite.svc.Ledger.PostEntry(suite.ctx, entry.EntryID, suite.actor)
	suite.NoError(err)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_ExactToleranceIsUnbalanced() {
	req := sale(suite.date(2025, 7, 1), "100")
	req.Lines[1].Credit = amount("100.01")
	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, req, suite.actor)
	suite.Require().NoError(err)

	_, err = suite.svc.Ledger.PostEntry(suite.ctx, entry.EntryID, suite.actor)
	suite.ErrorIs(err, apperrors.ErrUnbalancedEntry)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_TwiceYieldsAlreadyPosted() {
	posted := suite.postSale(suite.date(2025, 7, 2), "100")
	before, err := suite.svc.Ledger.GetEntry(suite.ctx, posted.EntryID)
	suite.Require().NoError(err)

	_, err = suite.svc.Ledger.PostEntry(suite.ctx, posted.EntryID, suite.actor)

	suite.ErrorIs(err, apperrors.ErrAlreadyPosted)
	after, err := suite.svc.Ledger.GetEntry(suite.ctx, posted.EntryID)
	suite.Require().NoError(err)
	suite.Equal(before.Postings, after.Postings)
	suite.decEqual("100", suite.balance("1111", suite.date(2025, 7, 31)))
}

func (suite *LedgerServiceTestSuite) TestPostEntry_NotFound() {
	_, err := suite.svc.Ledger.PostEntry(suite.ctx, "missing", suite.actor)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestUpdateDraft() {
	entry, err := suite.svc.Ledger.CreateEntry(suite.ctx, sale(suite.date(2025, 7, 1), "100"), suite.actor)
	suite.Require().NoError(err)

	updated, err := suite.svc.Ledger.UpdateDraft(suite.ctx, entry.EntryID, dto.UpdateDraftRequest{
		Date:        suite.date(2025, 7, 3),
		Description: "corrected",
		Lines:       []dto.PostingLineRequest{line("1112", "80", "0"), line("4112", "0", "80")},
	}, suite.actor)

	suite.Require().NoError(err)
	suite.Equal("corrected", updated.Description)
	suite.Equal(suite.date(2025, 7, 3), updated.EntryDate)
	suite.Equal(suite.accounts["1112"].AccountID, updated.Postings[0].AccountID)

	posted, err := suite.svc.Ledger.PostEntry(suite.ctx, entry.EntryID, suite.actor)
	suite.Require().NoError(err)
	_, err = suite.svc.Ledger.UpdateDraft(suite.ctx, posted.EntryID, dto.UpdateDraftRequest{
		Lines: []dto.PostingLineRequest{line("1112", "80", "0")},
	}, suite.actor)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_PairNetsToZero() {
	posted := suite.postSale(suite.date(2025, 7, 2), "100")

	original, mirror, err := suite.svc.Ledger.ReverseEntry(suite.ctx, posted.EntryID, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryReversed, original.Status)
	suite.Equal(mirror.EntryID, original.ReversedByID)
	suite.Equal(posted.EntryID, mirror.ReversalOfID)
	suite.Equal(domain.EntryPosted, mirror.Status)
	suite.Equal(suite.date(2025, 7, 15), mirror.EntryDate)
	suite.Contains(mirror.Description, "Reversal of entry #")
	suite.Require().Len(mirror.Postings, 2)
	for i, p := range mirror.Postings {
		suite.True(p.Debit.Equal(original.Postings[i].Credit))
		suite.True(p.Credit.Equal(original.Postings[i].Debit))
	}

	for _, code := range []string{"1111", "4111"} {
		suite.decEqual("0", suite.balance(code, suite.date(2025, 12, 31)))
	}
	tb, err := suite.svc.Balance.TrialBalance(suite.ctx, nil, suite.date(2025, 12, 31))
	suite.Require().NoError(err)
	suite.Empty(tb.Rows)
	suite.True(tb.Balanced)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_Rejections() {
	draft, err := suite.svc.Ledger.CreateEntry(suite.ctx, sale(suite.date(2025, 7, 1), "10"), suite.actor)
	suite.Require().NoError(err)
	_, _, err = suite.svc.Ledger.ReverseEntry(suite.ctx, draft.EntryID, suite.actor)
	suite.ErrorIs(err, apperrors.ErrNotPosted)

	posted := suite.postSale(suite.date(2025, 7, 2), "10")
	_, mirror, err := suite.svc.Ledger.ReverseEntry(suite.ctx, posted.EntryID, suite.actor)
	suite.Require().NoError(err)

	_, _, err = suite.svc.Ledger.ReverseEntry(suite.ctx, posted.EntryID, suite.actor)
	suite.ErrorIs(err, apperrors.ErrNotPosted)
	_, _, err = suite.svc.Ledger.ReverseEntry(suite.ctx, mirror.EntryID, suite.actor)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *LedgerServiceTestSuite) TestReturnToDraft() {
	posted := suite.postSale(suite.date(2025, 7, 2), "100")

	draft, err := suite.svc.Ledger.ReturnToDraft(suite.ctx, posted.EntryID, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryDraft, draft.Status)
	suite.Nil(draft.PostedAt)
	suite.decEqual("0", suite.balance("1111", suite.date(2025, 7, 31)))

	_, err = suite.svc.Ledger.ReturnToDraft(suite.ctx, posted.EntryID, suite.actor)
	suite.ErrorIs(err, apperrors.ErrNotPosted)
}

func (suite *LedgerServiceTestSuite) TestRemoveEntry_Draft() {
	draft, err := suite.svc.Ledger.CreateEntry(suite.ctx, sale(suite.date(2025, 7, 1), "10"), suite.actor)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.svc.Ledger.RemoveEntry(suite.ctx, draft.EntryID, suite.actor))

	_, err = suite.svc.Ledger.GetEntry(suite.ctx, draft.EntryID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestRemoveEntry_PostedNeedsCapability() {
	posted := suite.postSale(suite.date(2025, 7, 2), "40")

	err := suite.svc.Ledger.RemoveEntry(suite.ctx, posted.EntryID, suite.actor)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	denied, err := suite.svc.Audit.ListAudit(suite.ctx, domain.AuditFilter{EntityType: domain.AuditEntityEntry, EntityID: posted.EntryID})
	suite.Require().NoError(err)
	suite.Require().NotEmpty(denied)
	suite.Equal(domain.OutcomeDenied, denied[0].Outcome)

	admin := suite.actorWith("journal:downtown:remove_posted")
	suite.Require().NoError(suite.svc.Ledger.RemoveEntry(suite.ctx, posted.EntryID, admin))
	suite.decEqual("0", suite.balance("1111", suite.date(2025, 7, 31)))
}

func (suite *LedgerServiceTestSuite) TestRemoveEntry_ReversalPairIsKept() {
	posted := suite.postSale(suite.date(2025, 7, 2), "40")
	_, mirror, err := suite.svc.Ledger.ReverseEntry(suite.ctx, posted.EntryID, suite.actor)
	suite.Require().NoError(err)

	admin := suite.actorWith("journal:*:remove_posted")
	suite.ErrorIs(suite.svc.Ledger.RemoveEntry(suite.ctx, posted.EntryID, admin), apperrors.ErrConflict)
	suite.ErrorIs(suite.svc.Ledger.RemoveEntry(suite.ctx, mirror.EntryID, admin), apperrors.ErrConflict)
}

func (suite *LedgerServiceTestSuite) TestImportEntries_AllOrNothing() {
	bad := sale(suite.date(2025, 7, 3), "50")
	bad.Lines[1].Credit = amount("40")

	_, err := suite.svc.Ledger.ImportEntries(suite.ctx, dto.ImportEntriesRequest{Entries: []dto.CreateEntryRequest{
		sale(suite.date(2025, 7, 1), "10"),
		sale(suite.date(2025, 7, 2), "20"),
		bad,
	}}, suite.actor)

	suite.ErrorIs(err, apperrors.ErrUnbalancedEntry)
	suite.Contains(err.Error(), "entry 3")
	suite.Equal(0, suite.countEntries())

	imported, err := suite.svc.Ledger.ImportEntries(suite.ctx, dto.ImportEntriesRequest{Entries: []dto.CreateEntryRequest{
		sale(suite.date(2025, 7, 1), "10"),
		sale(suite.date(2025, 7, 2), "20"),
	}}, suite.actor)
	suite.Require().NoError(err)
	suite.Len(imported, 2)
	suite.decEqual("30", suite.balance("1111", suite.date(2025, 7, 31)))
}

func (suite *LedgerServiceTestSuite) TestImportEntries_Empty() {
	_, err := suite.svc.Ledger.ImportEntries(suite.ctx, dto.ImportEntriesRequest{}, suite.actor)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestListEntries_PaginatesNewestFirst() {
	for day := 1; day <= 5; day++ {
		suite.postSale(suite.date(2025, 7, day), "10")
	}

	first, err := suite.svc.Ledger.ListEntries(suite.ctx, dto.ListEntriesParams{Limit: 3, Status: domain.EntryPosted})
	suite.Require().NoError(err)
	suite.Require().Len(first.Entries, 3)
	suite.Require().NotNil(first.NextToken)
	suite.Equal(suite.date(2025, 7, 5), first.Entries[0].EntryDate)
	suite.True(first.Entries[0].Balanced)
	suite.Len(first.Entries[0].Postings, 2)

	second, err := suite.svc.Ledger.ListEntries(suite.ctx, dto.ListEntriesParams{Limit: 3, Status: domain.EntryPosted, NextToken: first.NextToken})
	suite.Require().NoError(err)
	suite.Len(second.Entries, 2)
	suite.Nil(second.NextToken)
	suite.Equal(suite.date(2025, 7, 1), second.Entries[1].EntryDate)
}

func (suite *LedgerServiceTestSuite) TestFindByReference() {
	req := sale(suite.date(2025, 7, 1), "15")
	req.ReferenceType = "expense"
	req.ReferenceID = "exp-7"
	_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, req, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)

	found, err := suite.svc.Ledger.FindByReference(suite.ctx, "expense", "exp-7")
	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	suite.Len(found[0].Postings, 2)

	_, err = suite.svc.Ledger.FindByReference(suite.ctx, "", "exp-7")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestCreateAndPost_SkipsManualEntryFlag() {
	req := dto.CreateEntryRequest{
		Date:  suite.date(2025, 7, 1),
		Lines: []dto.PostingLineRequest{line("111", "10", "0"), line("41", "0", "10")},
	}
	entry, err := suite.svc.Ledger.CreateAndPost(suite.ctx, req, domain.ActionAutoPost, suite.actor)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryPosted, entry.Status)
}

func (suite *LedgerServiceTestSuite) TestEveryPostedEntryIsBalanced() {
	suite.postSale(suite.date(2025, 7, 1), "10.50")
	suite.postSale(suite.date(2025, 7, 2), "99.99")
	_, err := suite.svc.Ledger.CreateAndPost(suite.ctx, dto.CreateEntryRequest{
		Date:  suite.date(2025, 7, 3),
		Lines: []dto.PostingLineRequest{line("521", "300", "0"), line("212", "0", "300")},
	}, domain.ActionCreate, suite.actor)
	suite.Require().NoError(err)

	page, err := suite.svc.Ledger.ListEntries(suite.ctx, dto.ListEntriesParams{Status: domain.EntryPosted})
	suite.Require().NoError(err)
	suite.Len(page.Entries, 3)
	for _, e := range page.Entries {
		suite.True(e.Balanced, "entry #%d", e.EntryNumber)
	}
}

func (suite *LedgerServiceTestSuite) TestBalanceCacheInvalidatedOnPost() {
	asOf := suite.date(2025, 7, 31)
	suite.decEqual("0", suite.balance("1111", asOf))

	suite.postSale(suite.date(2025, 7, 2), "100")

	suite.decEqual("100", suite.balance("1111", asOf))
}

func (suite *LedgerServiceTestSuite) TestEntryNumbersAreSequential() {
	a := suite.postSale(suite.date(2025, 7, 1), "1")
	b := suite.postSale(suite.date(2025, 7, 1), "1")
	suite.Equal(a.EntryNumber+1, b.EntryNumber)

	// a rolled back import does not burn numbers
	bad := sale(suite.date(2025, 7, 2), "1")
	bad.Lines[1].Credit = amount("2")
	_, err := suite.svc.Ledger.ImportEntries(suite.ctx, dto.ImportEntriesRequest{Entries: []dto.CreateEntryRequest{
		sale(suite.date(2025, 7, 2), "1"),
		bad,
	}}, suite.actor)
	suite.Require().Error(err)
	c := suite.postSale(suite.date(2025, 7, 1), "1")
	suite.Equal(b.EntryNumber+1, c.EntryNumber)
}
