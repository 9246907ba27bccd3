package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/bus"
	"github.com/veconta/contable-go/internal/infra/cache"
	"github.com/veconta/contable-go/internal/infra/memstore"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/port"
	"github.com/veconta/contable-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeFetcher is a hand-rolled RateFetcher for tests.
type fakeFetcher struct {
	bcv      decimal.Decimal
	parallel decimal.Decimal
	err      error
	calls    int
}

func (f *fakeFetcher) FetchRates(_ context.Context) (decimal.Decimal, decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, decimal.Zero, f.err
	}
	return f.bcv, f.parallel, nil
}

// flakyStore wraps a real store and lets a test fail specific operations.
type flakyStore struct {
	port.LedgerStore
	insertTransfer func(ctx context.Context, tr *domain.Transfer) (*domain.Transfer, error)
	deleteTransfer func(ctx context.Context, transferID string) error
}

func (f *flakyStore) InsertTransfer(ctx context.Context, tr *domain.Transfer) (*domain.Transfer, error) {
	if f.insertTransfer != nil {
		return f.insertTransfer(ctx, tr)
	}
	return f.LedgerStore.InsertTransfer(ctx, tr)
}

func (f *flakyStore) DeleteTransfer(ctx context.Context, transferID string) error {
	if f.deleteTransfer != nil {
		return f.deleteTransfer(ctx, transferID)
	}
	return f.LedgerStore.DeleteTransfer(ctx, transferID)
}

// env wires the full service graph over a store.
type env struct {
	mem          *memstore.Store
	store        port.LedgerStore
	bus          *bus.Bus
	fetcher      *fakeFetcher
	balance      *service.BalanceService
	transactions *service.TransactionsService
	transfers    *service.TransfersService
	rates        *service.RatesService
	settlement   *service.SettlementService
	networth     *service.NetWorthService
	accounts     *service.AccountsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := memstore.New()
	e := newEnvWithStore(t, mem)
	e.mem = mem
	return e
}

func newEnvWithStore(t *testing.T, store port.LedgerStore) *env {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	events := bus.New(logger)
	fetcher := &fakeFetcher{bcv: decimal.NewFromInt(40), parallel: decimal.NewFromInt(42)}

	balance := service.NewBalanceService(store, events, metrics, logger)
	transactions := service.NewTransactionsService(store, balance, events, metrics, logger)
	transfers := service.NewTransfersService(store, balance, events, metrics, logger)
	rates := service.NewRatesService(store, fetcher, cache.New[domain.ExchangeRateSnapshot](time.Minute), events, metrics, logger)
	settlement := service.NewSettlementService(store, rates, metrics, logger)
	networth := service.NewNetWorthService(store, settlement, rates, metrics, logger)
	accounts := service.NewAccountsService(store, transactions, balance, metrics, logger)

	return &env{
		store:        store,
		bus:          events,
		fetcher:      fetcher,
		balance:      balance,
		transactions: transactions,
		transfers:    transfers,
		rates:        rates,
		settlement:   settlement,
		networth:     networth,
		accounts:     accounts,
	}
}

// seedAccount inserts an account with a known ID directly into the store.
func seedAccount(t *testing.T, store port.LedgerStore, id string, currency domain.Currency) {
	t.Helper()
	_, err := store.InsertAccount(context.Background(), &domain.BankAccount{
		ID:        id,
		BankName:  "Bank " + id,
		Currency:  currency,
		Amount:    decimal.Zero,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seeding account %s: %v", id, err)
	}
}

func accountBalance(t *testing.T, store port.LedgerStore, id string) decimal.Decimal {
	t.Helper()
	acct, err := store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("getting account %s: %v", id, err)
	}
	return acct.Amount
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}
