package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/handlers"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type JournalHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockLedger   *MockLedgerService
	mockAutoPost *MockAutoPostService
}

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.router.Use(middleware.AuthMiddleware(testJWTSecret))

	suite.mockLedger = new(MockLedgerService)
	suite.mockAutoPost = new(MockAutoPostService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterJournalRoutes(v1, suite.mockLedger)
	handlers.RegisterAutoPostRoutes(v1, suite.mockAutoPost)
}

func (suite *JournalHandlerTestSuite) do(method, url string, body any, caps ...string) *httptest.ResponseRecorder {
	w, err := serveJSON(suite.router, method, url, body, "accountant-1", "downtown", caps...)
	suite.Require().NoError(err)
	return w
}

func (suite *JournalHandlerTestSuite) reasonOf(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func postedEntry(id string, amount int64) *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:     id,
		EntryNumber: 7,
		EntryDate:   time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		Status:      domain.EntryPosted,
		Postings: []domain.Posting{
			{AccountID: "cash", LineNo: 1, Debit: decimal.NewFromInt(amount), Credit: decimal.Zero},
			{AccountID: "sales", LineNo: 2, Debit: decimal.Zero, Credit: decimal.NewFromInt(amount)},
		},
	}
}

func (suite *JournalHandlerTestSuite) TestCreateEntry_Success() {
	suite.mockLedger.On("CreateEntry", mock.Anything,
		mock.MatchedBy(func(r dto.CreateEntryRequest) bool {
			return len(r.Lines) == 2 && r.Lines[0].Account == "1111" && r.Lines[0].Debit.Equal(decimal.NewFromInt(100))
		}),
		mock.MatchedBy(func(a domain.Actor) bool { return a.UserID == "accountant-1" }),
	).Return(&domain.JournalEntry{EntryID: "e1", Status: domain.EntryDraft}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journals", gin.H{
		"date":        "2025-07-15T00:00:00Z",
		"description": "Daily sales",
		"lines": []gin.H{
			{"account": "1111", "debit": "100", "credit": "0"},
			{"account": "4111", "debit": "0", "credit": "100"},
		},
	})

	suite.Equal(http.StatusCreated, w.Code)
	suite.Contains(w.Body.String(), `"status":"draft"`)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateEntry_NoLines() {
	w := suite.do(http.MethodPost, "/api/v1/journals", gin.H{"date": "2025-07-15T00:00:00Z", "lines": []gin.H{}})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateEntry")
}

func (suite *JournalHandlerTestSuite) TestCreateEntry_ClosedPeriodIsLocked() {
	suite.mockLedger.On("CreateEntry", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: 2025-01", apperrors.ErrPeriodClosed)).Once()

	w := suite.do(http.MethodPost, "/api/v1/journals", gin.H{
		"date":  "2025-01-15T00:00:00Z",
		"lines": []gin.H{{"account": "1111", "debit": "1"}},
	})

	suite.Equal(http.StatusLocked, w.Code)
	suite.Equal("PERIOD_CLOSED", suite.reasonOf(w)["reason"])
}

func (suite *JournalHandlerTestSuite) TestGetEntry_ReportsTotals() {
	suite.mockLedger.On("GetEntry", mock.Anything, "e1").Return(postedEntry("e1", 250), nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/journals/e1", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.EntryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Balanced)
	suite.True(decimal.NewFromInt(250).Equal(resp.TotalDebit))
}

func (suite *JournalHandlerTestSuite) TestPostEntry_Unbalanced() {
	suite.mockLedger.On("PostEntry", mock.Anything, "e1", mock.Anything).
		Return(nil, apperrors.ErrUnbalancedEntry).Once()

	w := suite.do(http.MethodPost, "/api/v1/journals/e1/post", nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("UNBALANCED_ENTRY", suite.reasonOf(w)["reason"])
}

func (suite *JournalHandlerTestSuite) TestPostEntry_AlreadyPosted() {
	suite.mockLedger.On("PostEntry", mock.Anything, "e1", mock.Anything).
		Return(nil, apperrors.ErrAlreadyPosted).Once()

	w := suite.do(http.MethodPost, "/api/v1/journals/e1/post", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *JournalHandlerTestSuite) TestReverseEntry_ReturnsBothSides() {
	original := postedEntry("e1", 80)
	original.Status = domain.EntryReversed
	original.ReversedByID = "e2"
	mirror := postedEntry("e2", 80)
	mirror.ReversalOfID = "e1"
	suite.mockLedger.On("ReverseEntry", mock.Anything, "e1", mock.Anything).Return(original, mirror, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journals/e1/reverse", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ReverseEntryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.EntryReversed, resp.Original.Status)
	suite.Equal("e1", resp.Mirror.ReversalOfID)
}

func (suite *JournalHandlerTestSuite) TestRemoveEntry_ForbiddenWithoutCapability() {
	suite.mockLedger.On("RemoveEntry", mock.Anything, "e1",
		mock.MatchedBy(func(a domain.Actor) bool {
			return !a.Can(domain.ScreenJournal, "downtown", domain.CapRemovePosted)
		}),
	).Return(apperrors.ErrForbidden).Once()

	w := suite.do(http.MethodDelete, "/api/v1/journals/e1", nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *JournalHandlerTestSuite) TestRemoveEntry_CapabilityReachesService() {
	suite.mockLedger.On("RemoveEntry", mock.Anything, "e1",
		mock.MatchedBy(func(a domain.Actor) bool {
			return a.Can(domain.ScreenJournal, "downtown", domain.CapRemovePosted)
		}),
	).Return(nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/journals/e1", nil, "journal:downtown:remove_posted")

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestListEntries_InvalidStatus() {
	w := suite.do(http.MethodGet, "/api/v1/journals?status=archived", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "ListEntries")
}

func (suite *JournalHandlerTestSuite) TestListEntries_PassesFilters() {
	suite.mockLedger.On("ListEntries", mock.Anything,
		mock.MatchedBy(func(p dto.ListEntriesParams) bool {
			return p.Status == domain.EntryPosted && p.Limit == 10 && p.ReferenceType == "invoice"
		}),
	).Return(&dto.ListEntriesResponse{Entries: []dto.EntryResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/journals?status=posted&limit=10&referenceType=invoice", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestImportEntries_WrapsEntryIndex() {
	suite.mockLedger.On("ImportEntries", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("entry 2: %w", apperrors.ErrUnbalancedEntry)).Once()

	w := suite.do(http.MethodPost, "/api/v1/journals/import", gin.H{
		"entries": []gin.H{
			{"date": "2025-07-15T00:00:00Z", "lines": []gin.H{{"account": "1111", "debit": "5"}}},
		},
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(suite.reasonOf(w)["error"], "entry 2")
}

func (suite *JournalHandlerTestSuite) TestAutoPost_Success() {
	suite.mockAutoPost.On("AutoPost", mock.Anything,
		mock.MatchedBy(func(r dto.AutoPostRequest) bool { return r.ReferenceType == "expense" && len(r.Lines) == 2 }),
		mock.Anything,
	).Return(&domain.JournalEntry{EntryID: "e9", EntryNumber: 42}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/autopost", gin.H{
		"referenceType": "expense",
		"referenceID":   "exp-1",
		"date":          "2025-07-15T00:00:00Z",
		"branch":        "downtown",
		"lines": []gin.H{
			{"accountCode": "5111", "debit": "40"},
			{"accountCode": "1111", "credit": "40"},
		},
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AutoPostResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(42), resp.EntryNumber)
}

func (suite *JournalHandlerTestSuite) TestAutoPost_FailureCarriesStage() {
	suite.mockAutoPost.On("AutoPost", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAutoPostError("resolve_accounts", apperrors.NewNotFoundError("account codes", "9999"))).Once()

	w := suite.do(http.MethodPost, "/api/v1/autopost", gin.H{
		"referenceType": "expense",
		"referenceID":   "exp-1",
		"date":          "2025-07-15T00:00:00Z",
		"branch":        "downtown",
		"lines":         []gin.H{{"accountCode": "9999", "debit": "40"}},
	})

	suite.Equal(http.StatusNotFound, w.Code)
	body := suite.reasonOf(w)
	suite.Equal("resolve_accounts", body["stage"])
	suite.Equal("NOT_FOUND", body["reason"])
}

func TestJournalHandler(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}
