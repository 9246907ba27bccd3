// Package bus provides an in-process publish/subscribe event bus.
// Services publish domain events after successful mutations; consumers
// (UI refresh, notifications) react without the services knowing about
// them.
package bus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/domain"
)

// Bus dispatches domain events to registered subscribers.
// Dispatch is synchronous and in registration order so that a subscriber
// (e.g. balance maintenance) completes before the publisher returns.
type Bus struct {
	mu              sync.RWMutex
	onTransaction   []func(domain.TransactionChanged)
	onBalance       []func(domain.BalanceChanged)
	onRateRefreshed []func(domain.RateRefreshed)
	logger          *zap.Logger
}

// New creates an empty event bus.
func New(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// SubscribeTransactionChanged registers a handler for transaction mutations.
func (b *Bus) SubscribeTransactionChanged(fn func(domain.TransactionChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTransaction = append(b.onTransaction, fn)
}

// SubscribeBalanceChanged registers a handler for account balance changes.
func (b *Bus) SubscribeBalanceChanged(fn func(domain.BalanceChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBalance = append(b.onBalance, fn)
}

// SubscribeRateRefreshed registers a handler for new exchange rate snapshots.
func (b *Bus) SubscribeRateRefreshed(fn func(domain.RateRefreshed)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onRateRefreshed = append(b.onRateRefreshed, fn)
}

// PublishTransactionChanged notifies subscribers of a transaction mutation.
func (b *Bus) PublishTransactionChanged(ev domain.TransactionChanged) {
	b.mu.RLock()
	subs := b.onTransaction
	b.mu.RUnlock()

	b.logger.Debug("event: transaction changed",
		zap.String("action", string(ev.Action)),
		zap.String("transaction_id", ev.Transaction.ID),
	)
	for _, fn := range subs {
		fn(ev)
	}
}

// PublishBalanceChanged notifies subscribers that an account balance moved.
func (b *Bus) PublishBalanceChanged(ev domain.BalanceChanged) {
	b.mu.RLock()
	subs := b.onBalance
	b.mu.RUnlock()

	b.logger.Debug("event: balance changed", zap.String("account_id", ev.AccountID))
	for _, fn := range subs {
		fn(ev)
	}
}

// PublishRateRefreshed notifies subscribers of a fresh rate snapshot.
func (b *Bus) PublishRateRefreshed(ev domain.RateRefreshed) {
	b.mu.RLock()
	subs := b.onRateRefreshed
	b.mu.RUnlock()

	b.logger.Debug("event: rate refreshed", zap.String("snapshot_id", ev.Snapshot.ID))
	for _, fn := range subs {
		fn(ev)
	}
}
