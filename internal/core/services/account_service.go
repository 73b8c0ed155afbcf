package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

type accountService struct {
	BaseService
	repo     portsrepo.AccountRepositoryFacade
	journal  portsrepo.JournalRepositoryFacade
	tx       portsrepo.TransactionManager
	gate     portssvc.PeriodGateSvc
	audit    portssvc.AuditSvc
	balances portssvc.BalanceSvc
}

// NewAccountService creates the account registry. The gate guards the entries a forced delete rewrites.
func NewAccountService(repo portsrepo.AccountRepositoryFacade, journal portsrepo.JournalRepositoryFacade, tx portsrepo.TransactionManager, gate portssvc.PeriodGateSvc, audit portssvc.AuditSvc, balances portssvc.BalanceSvc, opts ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(opts),
		repo:        repo,
		journal:     journal,
		tx:          tx,
		gate:        gate,
		audit:       audit,
		balances:    balances,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) Resolve(ctx context.Context, codeOrID string) (*domain.Account, error) {
	ref := strings.TrimSpace(codeOrID)
	if ref == "" {
		return nil, fmt.Errorf("%w: account reference is required", apperrors.ErrValidation)
	}
	acc, err := s.repo.FindAccountByID(ctx, ref)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.repo.FindAccountByCode(ctx, ref)
}

func (s *accountService) ResolveCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	found, err := s.repo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, code := range codes {
		if _, ok := found[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown account codes %s", apperrors.ErrNotFound, strings.Join(missing, ", "))
	}
	return found, nil
}

func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *accountService) Tree(ctx context.Context) ([]*domain.AccountNode, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildAccountTree(accounts), nil
}

func isNumericCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	if !isNumericCode(code) {
		return nil, fmt.Errorf("%w: account code must be numeric", apperrors.ErrValidation)
	}
	if !req.AccountType.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}
	if !req.Nature.Valid() {
		return nil, fmt.Errorf("%w: unknown account nature %q", apperrors.ErrValidation, req.Nature)
	}
	if strings.TrimSpace(req.NameAr) == "" && strings.TrimSpace(req.NameEn) == "" {
		return nil, fmt.Errorf("%w: an Arabic or English name is required", apperrors.ErrValidation)
	}

	now := s.Now()
	acc := domain.Account{
		AccountID:        s.NewID(),
		Code:             code,
		NameAr:           strings.TrimSpace(req.NameAr),
		NameEn:           strings.TrimSpace(req.NameEn),
		AccountType:      req.AccountType,
		Nature:           req.Nature,
		AllowManualEntry: true,
		OpeningBalance:   req.OpeningBalance,
		Description:      req.Description,
		AuditFields:      domain.NewAuditFields(actor.UserID, now),
	}
	if req.AllowManualEntry != nil {
		acc.AllowManualEntry = *req.AllowManualEntry
	}

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if req.ParentAccountID != nil && *req.ParentAccountID != "" {
			parent, err := s.repo.FindAccountByID(txCtx, *req.ParentAccountID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return fmt.Errorf("%w: parent account %s does not exist", apperrors.ErrValidation, *req.ParentAccountID)
				}
				return err
			}
			acc.ParentAccountID = parent.AccountID
		}
		if err := s.repo.SaveAccount(txCtx, acc); err != nil {
			return err
		}
		return s.audit.Record(txCtx, s.auditRecord(domain.AuditEntityAccount, acc.AccountID, "create", domain.OutcomeSuccess, actor,
			map[string]any{"code": acc.Code}))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create account", slog.String("code", code))
		return nil, err
	}
	s.LogInfo(ctx, "Account created", slog.String("account_id", acc.AccountID), slog.String("code", acc.Code))
	return &acc, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	var updated *domain.Account
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		acc, err := s.repo.FindAccountByID(txCtx, accountID)
		if err != nil {
			return err
		}

		if req.NameAr != nil {
			acc.NameAr = strings.TrimSpace(*req.NameAr)
		}
		if req.NameEn != nil {
			acc.NameEn = strings.TrimSpace(*req.NameEn)
		}
		if acc.NameAr == "" && acc.NameEn == "" {
			return fmt.Errorf("%w: an Arabic or English name is required", apperrors.ErrValidation)
		}
		if req.AccountType != nil {
			if !req.AccountType.Valid() {
				return fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, *req.AccountType)
			}
			acc.AccountType = *req.AccountType
		}
		if req.Nature != nil && *req.Nature != acc.Nature {
			if !req.Nature.Valid() {
				return fmt.Errorf("%w: unknown account nature %q", apperrors.ErrValidation, *req.Nature)
			}
			used, err := s.repo.HasPostings(txCtx, acc.AccountID)
			if err != nil {
				return err
			}
			if used {
				return fmt.Errorf("%w: nature of account %s cannot change once it has postings", apperrors.ErrAccountHasPostings, acc.Code)
			}
			acc.Nature = *req.Nature
		}
		if req.ParentAccountID != nil {
			if err := s.checkParent(txCtx, acc.AccountID, *req.ParentAccountID); err != nil {
				return err
			}
			acc.ParentAccountID = *req.ParentAccountID
		}
		if req.AllowManualEntry != nil {
			acc.AllowManualEntry = *req.AllowManualEntry
		}
		if req.OpeningBalance != nil {
			acc.OpeningBalance = *req.OpeningBalance
		}
		if req.Description != nil {
			acc.Description = *req.Description
		}
		acc.LastUpdatedAt = s.Now()
		acc.LastUpdatedBy = actor.UserID

		if err := s.repo.UpdateAccount(txCtx, *acc); err != nil {
			return err
		}
		updated = acc
		return s.audit.Record(txCtx, s.auditRecord(domain.AuditEntityAccount, acc.AccountID, "update", domain.OutcomeSuccess, actor, nil))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// checkParent refuses a parent that is the account itself or one of its descendants.
func (s *accountService) checkParent(ctx context.Context, accountID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == accountID {
		return fmt.Errorf("%w: an account cannot be its own parent", apperrors.ErrValidation)
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return err
	}
	parents := make(map[string]string, len(accounts))
	for _, a := range accounts {
		parents[a.AccountID] = a.ParentAccountID
	}
	if _, ok := parents[parentID]; !ok {
		return fmt.Errorf("%w: parent account %s does not exist", apperrors.ErrValidation, parentID)
	}
	seen := map[string]bool{}
	for cur := parentID; cur != "" && !seen[cur]; cur = parents[cur] {
		if cur == accountID {
			return fmt.Errorf("%w: parent %s is a descendant of the account", apperrors.ErrValidation, parentID)
		}
		seen[cur] = true
	}
	return nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string, force bool, actor domain.Actor) error {
	var touched []string
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		acc, err := s.repo.FindAccountByID(txCtx, accountID)
		if err != nil {
			return err
		}
		used, err := s.repo.HasPostings(txCtx, accountID)
		if err != nil {
			return err
		}
		if used && !force {
			return fmt.Errorf("%w: account %s", apperrors.ErrAccountHasPostings, acc.Code)
		}

		demoted := 0
		if used {
			entryIDs, err := s.journal.FindEntryIDsByAccount(txCtx, accountID)
			if err != nil {
				return err
			}
			if touched, err = s.demoteEntries(txCtx, entryIDs, acc, actor); err != nil {
				return err
			}
			demoted = len(touched)
			if err := s.journal.DeletePostingsByAccount(txCtx, accountID); err != nil {
				return err
			}
		}
		if err := s.repo.DeleteAccount(txCtx, accountID); err != nil {
			return err
		}
		touched = append(touched, accountID)
		s.tx.AfterCommit(txCtx, func() { s.balances.InvalidateAccounts(touched...) })
		return s.audit.Record(txCtx, s.auditRecord(domain.AuditEntityAccount, accountID, "delete", domain.OutcomeSuccess, actor,
			map[string]any{"code": acc.Code, "force": force, "entries_returned_to_draft": demoted}))
	})
	if err != nil {
		return err
	}
	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID), slog.Bool("force", force))
	return nil
}

// demoteEntries returns posted entries touching the account to draft, since
// losing one of their lines would leave them unbalanced. Every entry is checked
// before the first write, so a refusal leaves the ledger untouched. It returns
// the ids of every account whose balance changes as a result.
func (s *accountService) demoteEntries(ctx context.Context, entryIDs []string, acc *domain.Account, actor domain.Actor) ([]string, error) {
	posted := make([]*domain.JournalEntry, 0, len(entryIDs))
	for _, id := range entryIDs {
		entry, err := s.journal.FindEntryByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry.IsMirror() || entry.Status == domain.EntryReversed {
			return nil, fmt.Errorf("%w: account %s is used by reversal pair entry #%d", apperrors.ErrConflict, acc.Code, entry.EntryNumber)
		}
		if entry.Status != domain.EntryPosted {
			continue
		}
		if _, err := s.gate.CheckMutable(ctx, entry.EntryDate, domain.GateRequest{Action: domain.ActionReturnToDraft, Branch: entry.Branch}, actor); err != nil {
			return nil, fmt.Errorf("entry #%d: %w", entry.EntryNumber, err)
		}
		posted = append(posted, entry)
	}
	if len(posted) == 0 {
		return nil, nil
	}

	ids := make([]string, len(posted))
	for i, e := range posted {
		ids[i] = e.EntryID
	}
	postings, err := s.journal.FindPostingsByEntryIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	touched := map[string]struct{}{}
	now := s.Now()
	for _, entry := range posted {
		if err := s.journal.UpdateEntryStatus(ctx, entry.EntryID, domain.EntryPosted, domain.EntryDraft, "", actor.UserID, now); err != nil {
			return nil, err
		}
		for _, p := range postings[entry.EntryID] {
			touched[p.AccountID] = struct{}{}
		}
		if err := s.audit.Record(ctx, s.auditRecord(domain.AuditEntityEntry, entry.EntryID, "return_to_draft", domain.OutcomeSuccess, actor,
			map[string]any{"cause": "account_force_delete", "account_code": acc.Code})); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(touched))
	for id := range touched {
		out = append(out, id)
	}
	return out, nil
}

// seedAccount is one row of the default restaurant chart.
type seedAccount struct {
	code, parent   string
	nameAr, nameEn string
	accountType    domain.AccountType
	nature         domain.AccountNature
}

// defaultChart is listed parent before child.
var defaultChart = []seedAccount{
	{"1", "", "الأصول", "Assets", domain.Asset, domain.DebitNature},
	{"11", "1", "الأصول المتداولة", "Current assets", domain.Asset, domain.DebitNature},
	{"111", "11", "النقدية والبنوك", "Cash and banks", domain.Asset, domain.DebitNature},
	{"1111", "111", "الصندوق", "Cash on hand", domain.Cash, domain.DebitNature},
	{"1112", "111", "الحساب البنكي", "Bank account", domain.Bank, domain.DebitNature},
	{"112", "11", "الذمم المدينة", "Receivables", domain.Asset, domain.DebitNature},
	{"1121", "112", "العملاء", "Customers", domain.Asset, domain.DebitNature},
	{"113", "11", "المخزون", "Inventory", domain.Asset, domain.DebitNature},
	{"2", "", "الخصوم", "Liabilities", domain.Liability, domain.CreditNature},
	{"21", "2", "الخصوم المتداولة", "Current liabilities", domain.Liability, domain.CreditNature},
	{"211", "21", "الموردون", "Suppliers", domain.Liability, domain.CreditNature},
	{"212", "21", "الرواتب المستحقة", "Salaries payable", domain.Liability, domain.CreditNature},
	{"213", "21", "ضريبة القيمة المضافة المستحقة", "VAT payable", domain.Liability, domain.CreditNature},
	{"3", "", "حقوق الملكية", "Equity", domain.Equity, domain.CreditNature},
	{"31", "3", "رأس المال", "Capital", domain.Equity, domain.CreditNature},
	{"32", "3", "الأرباح المحتجزة", "Retained earnings", domain.Equity, domain.CreditNature},
	{"4", "", "الإيرادات", "Revenue", domain.Revenue, domain.CreditNature},
	{"41", "4", "إيرادات التشغيل", "Operating revenue", domain.Revenue, domain.CreditNature},
	{"411", "41", "المبيعات", "Sales", domain.Revenue, domain.CreditNature},
	{"4111", "411", "مبيعات الصالة", "Dine-in sales", domain.Revenue, domain.CreditNature},
	{"4112", "411", "مبيعات التوصيل", "Delivery sales", domain.Revenue, domain.CreditNature},
	{"5", "", "المصروفات", "Expenses", domain.Expense, domain.DebitNature},
	{"51", "5", "تكلفة البضاعة المباعة", "Cost of goods sold", domain.Expense, domain.DebitNature},
	{"52", "5", "مصروفات الرواتب", "Payroll expenses", domain.Expense, domain.DebitNature},
	{"521", "52", "الرواتب والأجور", "Salaries and wages", domain.Expense, domain.DebitNature},
	{"53", "5", "المصروفات التشغيلية", "Operating expenses", domain.Expense, domain.DebitNature},
	{"531", "53", "الإيجار", "Rent", domain.Expense, domain.DebitNature},
	{"532", "53", "المرافق", "Utilities", domain.Expense, domain.DebitNature},
}

func (s *accountService) SeedDefaultTree(ctx context.Context, force bool, actor domain.Actor) ([]domain.Account, error) {
	hasChildren := map[string]bool{}
	for _, row := range defaultChart {
		if row.parent != "" {
			hasChildren[row.parent] = true
		}
	}

	var seeded []domain.Account
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		count, err := s.repo.CountAccounts(txCtx)
		if err != nil {
			return err
		}
		if count > 0 {
			if !force {
				return fmt.Errorf("%w: %d accounts already exist", apperrors.ErrAccountsExist, count)
			}
			if err := s.journal.DeleteAllEntries(txCtx); err != nil {
				return err
			}
			if err := s.repo.DeleteAllAccounts(txCtx); err != nil {
				return err
			}
		}

		now := s.Now()
		idsByCode := make(map[string]string, len(defaultChart))
		seeded = make([]domain.Account, 0, len(defaultChart))
		for _, row := range defaultChart {
			acc := domain.Account{
				AccountID:        s.NewID(),
				Code:             row.code,
				NameAr:           row.nameAr,
				NameEn:           row.nameEn,
				AccountType:      row.accountType,
				Nature:           row.nature,
				ParentAccountID:  idsByCode[row.parent],
				AllowManualEntry: !hasChildren[row.code],
				OpeningBalance:   decimal.Zero,
				AuditFields:      domain.NewAuditFields(actor.UserID, now),
			}
			if err := s.repo.SaveAccount(txCtx, acc); err != nil {
				return err
			}
			idsByCode[row.code] = acc.AccountID
			seeded = append(seeded, acc)
		}
		s.tx.AfterCommit(txCtx, func() { s.balances.InvalidateAccounts() })
		return s.audit.Record(txCtx, s.auditRecord(domain.AuditEntityAccount, "*", "seed_default_tree", domain.OutcomeSuccess, actor,
			map[string]any{"force": force, "accounts": len(seeded), "replaced": count}))
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(seeded, func(i, j int) bool { return seeded[i].Code < seeded[j].Code })
	s.LogInfo(ctx, "Default chart of accounts seeded", slog.Int("accounts", len(seeded)), slog.Bool("force", force))
	return seeded, nil
}
