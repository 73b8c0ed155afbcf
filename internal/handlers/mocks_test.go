package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/backoffice_ledger/internal/middleware"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

// signToken creates a session token for tests.
func signToken(userID, branch string, caps ...string) (string, error) {
	claims := middleware.SessionClaims{
		Branch: branch,
		Caps:   caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "backoffice-ledger-test",
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
}

// serveJSON sends an authenticated JSON request through router.
func serveJSON(router *gin.Engine, method, url string, body any, userID, branch string, caps ...string) (*httptest.ResponseRecorder, error) {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	token, err := signToken(userID, branch, caps...)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, nil
}

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Resolve(ctx context.Context, codeOrID string) (*domain.Account, error) {
	args := m.Called(ctx, codeOrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) ResolveCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) Tree(ctx context.Context) ([]*domain.AccountNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccountNode), args.Error(1)
}
func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) DeleteAccount(ctx context.Context, accountID string, force bool, actor domain.Actor) error {
	args := m.Called(ctx, accountID, force, actor)
	return args.Error(0)
}
func (m *MockAccountService) SeedDefaultTree(ctx context.Context, force bool, actor domain.Actor) ([]domain.Account, error) {
	args := m.Called(ctx, force, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) TrialBalance(ctx context.Context, from *time.Time, to time.Time) (*domain.TrialBalance, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}
func (m *MockBalanceService) AccountBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockBalanceService) AccountStatement(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountStatement, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountStatement), args.Error(1)
}
func (m *MockBalanceService) CompareFiscalYears(ctx context.Context, yearA, yearB int) (*domain.FiscalYearComparison, error) {
	args := m.Called(ctx, yearA, yearB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalYearComparison), args.Error(1)
}
func (m *MockBalanceService) InvalidateAccounts(accountIDs ...string) {
	m.Called(accountIDs)
}

var _ portssvc.BalanceSvc = (*MockBalanceService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) entry(args mock.Arguments) (*domain.JournalEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID))
}
func (m *MockLedgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockLedgerService) FindByReference(ctx context.Context, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}
func (m *MockLedgerService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, req, actor))
}
func (m *MockLedgerService) UpdateDraft(ctx context.Context, entryID string, req dto.UpdateDraftRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, req, actor))
}
func (m *MockLedgerService) PostEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, actor))
}
func (m *MockLedgerService) CreateAndPost(ctx context.Context, req dto.CreateEntryRequest, action domain.GateAction, actor domain.Actor) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, req, action, actor))
}
func (m *MockLedgerService) ReverseEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, *domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, actor)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.JournalEntry), args.Get(1).(*domain.JournalEntry), args.Error(2)
}
func (m *MockLedgerService) ReturnToDraft(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, actor))
}
func (m *MockLedgerService) RemoveEntry(ctx context.Context, entryID string, actor domain.Actor) error {
	return m.Called(ctx, entryID, actor).Error(0)
}
func (m *MockLedgerService) ImportEntries(ctx context.Context, req dto.ImportEntriesRequest, actor domain.Actor) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock AutoPostService ---
type MockAutoPostService struct {
	mock.Mock
}

func (m *MockAutoPostService) AutoPost(ctx context.Context, req dto.AutoPostRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockAutoPostService) PostWithCompensation(ctx context.Context, req dto.AutoPostRequest, actor domain.Actor, compensate portssvc.CompensateFunc) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, actor, compensate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockAutoPostService) RegisterLinker(referenceType string, linker portssvc.RecordLinker) {
	m.Called(referenceType, linker)
}

var _ portssvc.AutoPostSvc = (*MockAutoPostService)(nil)

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) fiscalYear(args mock.Arguments) (*domain.FiscalYear, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalYear), args.Error(1)
}

func (m *MockPeriodService) period(args mock.Arguments) (*domain.AccountingPeriod, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodService) CheckMutable(ctx context.Context, date time.Time, req domain.GateRequest, actor domain.Actor) (*domain.GateDecision, error) {
	args := m.Called(ctx, date, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GateDecision), args.Error(1)
}
func (m *MockPeriodService) ClosePeriod(ctx context.Context, periodKey string, actor domain.Actor) (*domain.AccountingPeriod, error) {
	return m.period(m.Called(ctx, periodKey, actor))
}
func (m *MockPeriodService) ReopenPeriod(ctx context.Context, periodKey string, actor domain.Actor) (*domain.AccountingPeriod, error) {
	return m.period(m.Called(ctx, periodKey, actor))
}
func (m *MockPeriodService) ListPeriods(ctx context.Context, year int) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountingPeriod), args.Error(1)
}
func (m *MockPeriodService) OpenFiscalYear(ctx context.Context, year int, actor domain.Actor) (*domain.FiscalYear, error) {
	return m.fiscalYear(m.Called(ctx, year, actor))
}
func (m *MockPeriodService) EnsureFiscalYear(ctx context.Context, year int, actor domain.Actor) (*domain.FiscalYear, bool, error) {
	args := m.Called(ctx, year, actor)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.FiscalYear), args.Bool(1), args.Error(2)
}
func (m *MockPeriodService) CloseFiscalYear(ctx context.Context, fiscalYearID string, actor domain.Actor) (*domain.FiscalYear, error) {
	return m.fiscalYear(m.Called(ctx, fiscalYearID, actor))
}
func (m *MockPeriodService) TemporaryOpen(ctx context.Context, fiscalYearID string, reason string, actor domain.Actor) (*domain.FiscalYear, error) {
	return m.fiscalYear(m.Called(ctx, fiscalYearID, reason, actor))
}
func (m *MockPeriodService) TemporaryClose(ctx context.Context, fiscalYearID string, actor domain.Actor) (*domain.FiscalYear, error) {
	return m.fiscalYear(m.Called(ctx, fiscalYearID, actor))
}
func (m *MockPeriodService) GetFiscalYear(ctx context.Context, fiscalYearID string) (*domain.FiscalYear, error) {
	return m.fiscalYear(m.Called(ctx, fiscalYearID))
}
func (m *MockPeriodService) ListFiscalYears(ctx context.Context) ([]domain.FiscalYear, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FiscalYear), args.Error(1)
}
func (m *MockPeriodService) ListActivities(ctx context.Context, fiscalYearID string) ([]domain.FiscalYearActivity, error) {
	args := m.Called(ctx, fiscalYearID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FiscalYearActivity), args.Error(1)
}
func (m *MockPeriodService) CurrentFiscalYear(ctx context.Context) (*domain.FiscalYear, error) {
	return m.fiscalYear(m.Called(ctx))
}
func (m *MockPeriodService) InvalidateFiscalYearCache() {
	m.Called()
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)

// --- Mock RolloverService ---
type MockRolloverService struct {
	mock.Mock
}

func (m *MockRolloverService) Rollover(ctx context.Context, sourceFiscalYearID string, targetYear *int, actor domain.Actor) (*domain.RolloverResult, error) {
	args := m.Called(ctx, sourceFiscalYearID, targetYear, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RolloverResult), args.Error(1)
}

var _ portssvc.RolloverSvc = (*MockRolloverService)(nil)
