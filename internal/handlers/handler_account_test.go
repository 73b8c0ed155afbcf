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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type AccountHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockAccountService *MockAccountService
	mockBalanceService *MockBalanceService
	userID             string
}

func (suite *AccountHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.router.Use(middleware.AuthMiddleware(testJWTSecret))

	suite.mockAccountService = new(MockAccountService)
	suite.mockBalanceService = new(MockBalanceService)
	suite.userID = uuid.NewString()

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterAccountRoutes(v1, suite.mockAccountService, suite.mockBalanceService)
}

func (suite *AccountHandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	w, err := serveJSON(suite.router, method, url, body, suite.userID, "downtown")
	suite.Require().NoError(err)
	return w
}

func (suite *AccountHandlerTestSuite) isCaller() any {
	return mock.MatchedBy(func(a domain.Actor) bool { return a.UserID == suite.userID && a.Branch == "downtown" })
}

// --- Test Cases ---

func (suite *AccountHandlerTestSuite) TestCreateAccount_Success() {
	created := &domain.Account{AccountID: uuid.NewString(), Code: "1111", NameEn: "Cash", AccountType: domain.Cash, Nature: domain.DebitNature}
	suite.mockAccountService.On("CreateAccount", mock.Anything,
		mock.MatchedBy(func(r dto.CreateAccountRequest) bool { return r.Code == "1111" }),
		suite.isCaller(),
	).Return(created, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", gin.H{
		"code": "1111", "nameEn": "Cash", "accountType": "cash", "nature": "debit",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(created.AccountID, resp.AccountID)
	suite.mockAccountService.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_BindingRejectsNonNumericCode() {
	w := suite.do(http.MethodPost, "/api/v1/accounts", gin.H{
		"code": "11A1", "nameEn": "Cash", "accountType": "cash", "nature": "debit",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "CreateAccount")
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_DuplicateMapsToConflict() {
	suite.mockAccountService.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: code 1111", apperrors.ErrDuplicate)).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", gin.H{
		"code": "1111", "nameEn": "Cash", "accountType": "cash", "nature": "debit",
	})

	suite.Equal(http.StatusConflict, w.Code)
	var body map[string]string
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("DUPLICATE", body["reason"])
}

func (suite *AccountHandlerTestSuite) TestGetAccount_ByCode() {
	suite.mockAccountService.On("Resolve", mock.Anything, "4111").
		Return(&domain.Account{AccountID: "acc-sales", Code: "4111"}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/4111", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "acc-sales")
}

func (suite *AccountHandlerTestSuite) TestGetAccount_NotFound() {
	suite.mockAccountService.On("Resolve", mock.Anything, "9999").
		Return(nil, apperrors.NewNotFoundError("account", "9999")).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/9999", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AccountHandlerTestSuite) TestDeleteAccount_WithPostingsIsConflict() {
	suite.mockAccountService.On("DeleteAccount", mock.Anything, "acc-1", false, suite.isCaller()).
		Return(apperrors.ErrAccountHasPostings).Once()

	w := suite.do(http.MethodDelete, "/api/v1/accounts/acc-1", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), "ACCOUNT_HAS_POSTINGS")
}

func (suite *AccountHandlerTestSuite) TestDeleteAccount_Force() {
	suite.mockAccountService.On("DeleteAccount", mock.Anything, "acc-1", true, suite.isCaller()).Return(nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/accounts/acc-1?force=true", nil)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockAccountService.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestSeed_AccountsExist() {
	suite.mockAccountService.On("SeedDefaultTree", mock.Anything, false, suite.isCaller()).
		Return(nil, apperrors.ErrAccountsExist).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/seed", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), "ACCOUNTS_EXIST")
}

func (suite *AccountHandlerTestSuite) TestGetAccountBalance_AsOf() {
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	suite.mockBalanceService.On("AccountBalance", mock.Anything, "acc-1", asOf).
		Return(decimal.RequireFromString("250.50"), nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/balance?asOf=2025-03-31", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountBalanceResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(decimal.RequireFromString("250.50").Equal(resp.Balance))
}

func (suite *AccountHandlerTestSuite) TestGetAccountBalance_BadDate() {
	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/balance?asOf=31-03-2025", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockBalanceService.AssertNotCalled(suite.T(), "AccountBalance")
}

func (suite *AccountHandlerTestSuite) TestStatement_RequiresBothDates() {
	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/statement?from=2025-01-01", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AccountHandlerTestSuite) TestMissingToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "ListAccounts")
}

// --- Run Test Suite ---
func TestAccountHandler(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}
