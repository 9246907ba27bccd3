// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/veconta/contable-go/internal/domain"
)

// LedgerStore defines all persistence operations for the ledger core.
// Implemented by the PostgREST adapter (production) and the in-memory
// store (dev mode and tests).
type LedgerStore interface {
	// Transactions
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, txID string) error
	GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error)
	ListTransactionsByClient(ctx context.Context, clientID string) ([]domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// Transfers
	InsertTransfer(ctx context.Context, tr *domain.Transfer) (*domain.Transfer, error)
	UpdateTransfer(ctx context.Context, tr *domain.Transfer) error
	DeleteTransfer(ctx context.Context, transferID string) error
	GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListTransfersByTransaction(ctx context.Context, txID string) ([]domain.Transfer, error)
	ListTransfersByAccount(ctx context.Context, accountID string) ([]domain.Transfer, error)
	DeleteTransfersByTransaction(ctx context.Context, txID string) error

	// Bank accounts. SetAccountBalance is reserved for the balance
	// maintainer; no other component may call it.
	InsertAccount(ctx context.Context, acct *domain.BankAccount) (*domain.BankAccount, error)
	GetAccount(ctx context.Context, accountID string) (*domain.BankAccount, error)
	ListAccounts(ctx context.Context) ([]domain.BankAccount, error)
	DeleteAccount(ctx context.Context, accountID string) error
	SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error

	// Obligations (debts & receivables)
	InsertObligation(ctx context.Context, ob *domain.Obligation) (*domain.Obligation, error)
	UpdateObligation(ctx context.Context, ob *domain.Obligation) error
	GetObligation(ctx context.Context, obligationID string) (*domain.Obligation, error)
	ListObligations(ctx context.Context, kind domain.ObligationKind) ([]domain.Obligation, error)
	DeleteObligation(ctx context.Context, obligationID string) error
	ListPaymentsForObligation(ctx context.Context, obligationID string) ([]domain.Transaction, error)

	// Exchange rate snapshots (append-only)
	InsertRateSnapshot(ctx context.Context, snap *domain.ExchangeRateSnapshot) (*domain.ExchangeRateSnapshot, error)
	GetRateSnapshot(ctx context.Context, snapshotID string) (*domain.ExchangeRateSnapshot, error)
	LatestRateSnapshot(ctx context.Context) (*domain.ExchangeRateSnapshot, error)
	ListRateSnapshots(ctx context.Context, limit int) ([]domain.ExchangeRateSnapshot, error)
}

// RateFetcher retrieves current USD/VES quotes from an external source.
type RateFetcher interface {
	FetchRates(ctx context.Context) (bcv, parallel decimal.Decimal, err error)
}

// EventBus is the observer contract between the core and its consumers.
// The core publishes; callers subscribe. No ambient globals.
type EventBus interface {
	PublishTransactionChanged(ev domain.TransactionChanged)
	PublishBalanceChanged(ev domain.BalanceChanged)
	PublishRateRefreshed(ev domain.RateRefreshed)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
