package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/core/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/platform/config"
	"github.com/SscSPs/backoffice_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// ledgerFixture wires the real services over the in-memory store with the default chart seeded.
type ledgerFixture struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	svc      *portssvc.ServiceContainer
	cfg      *config.Config
	now      time.Time
	actor    domain.Actor
	accounts map[string]domain.Account
}

func (f *ledgerFixture) SetupTest() {
	f.ctx = context.Background()
	f.now = time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC)
	f.cfg = &config.Config{CacheSize: 256, CacheTTL: time.Minute}
	f.actor = domain.Actor{UserID: "accountant-1", Branch: "downtown"}
	f.build()

	seeded, err := f.svc.Account.SeedDefaultTree(f.ctx, false, f.actor)
	f.Require().NoError(err)
	f.accounts = make(map[string]domain.Account, len(seeded))
	for _, a := range seeded {
		f.accounts[a.Code] = a
	}
}

func (f *ledgerFixture) build() {
	f.store = memory.NewStore()
	f.svc = services.NewServiceContainer(f.cfg, memory.NewRepositoryProvider(f.store),
		services.WithClock(func() time.Time { return f.now }))
}

func (f *ledgerFixture) actorWith(caps ...string) domain.Actor {
	a := f.actor
	a.Capabilities = domain.ParseCapabilities(caps)
	return a
}

func (f *ledgerFixture) date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(code string, debit, credit string) dto.PostingLineRequest {
	return dto.PostingLineRequest{Account: code, Debit: amount(debit), Credit: amount(credit)}
}

// sale is a balanced cash sale: cash debit, dine-in sales credit.
func sale(date time.Time, value string) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		Date:        date,
		Description: "cash sale",
		Lines: []dto.PostingLineRequest{
			line("1111", value, "0"),
			line("4111", "0", value),
		},
	}
}

func (f *ledgerFixture) postSale(date time.Time, value string) *domain.JournalEntry {
	entry, err := f.svc.Ledger.CreateEntry(f.ctx, sale(date, value), f.actor)
	f.Require().NoError(err)
	posted, err := f.svc.Ledger.PostEntry(f.ctx, entry.EntryID, f.actor)
	f.Require().NoError(err)
	return posted
}

func (f *ledgerFixture) balance(code string, asOf time.Time) decimal.Decimal {
	b, err := f.svc.Balance.AccountBalance(f.ctx, f.accounts[code].AccountID, asOf)
	f.Require().NoError(err)
	return b
}

func (f *ledgerFixture) countEntries() int {
	page, err := f.svc.Ledger.ListEntries(f.ctx, dto.ListEntriesParams{Limit: 100})
	f.Require().NoError(err)
	return len(page.Entries)
}

func (f *ledgerFixture) decEqual(want string, got decimal.Decimal) {
	f.Truef(amount(want).Equal(got), "want %s got %s", want, got.String())
}
