package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/port"
)

var balanceTracer = otel.Tracer("service/balance")

// BalanceService is the sole writer of bank account balances.
// Transaction mutations apply signed deltas incrementally; full
// recalculation replays every transaction and transfer leg touching an
// account, so it is idempotent and repairs any drift.
type BalanceService struct {
	store   port.LedgerStore
	bus     port.EventBus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBalanceService creates the balance maintainer.
func NewBalanceService(store port.LedgerStore, bus port.EventBus, metrics *observability.Metrics, logger *zap.Logger) *BalanceService {
	return &BalanceService{store: store, bus: bus, metrics: metrics, logger: logger}
}

// signedAmount applies the sign rule: additive types credit, everything
// else debits. Cancelled transactions contribute nothing.
func signedAmount(txType domain.TransactionType, status domain.TransactionStatus, amount decimal.Decimal) decimal.Decimal {
	if status == domain.StatusCancelled {
		return decimal.Zero
	}
	if txType.Additive() {
		return amount
	}
	return amount.Neg()
}

// ApplyTransaction applies a newly created transaction to its account.
// Split transactions carry their deltas in transfer legs instead.
func (s *BalanceService) ApplyTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ApplyTransaction")
	defer span.End()

	if tx.HasMultipleTransfers || tx.BankAccountID == "" {
		return nil
	}
	return s.adjust(ctx, tx.BankAccountID, signedAmount(tx.Type, tx.Status, tx.Amount))
}

// ReverseTransaction undoes a transaction's contribution, used on delete.
func (s *BalanceService) ReverseTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ReverseTransaction")
	defer span.End()

	if tx.HasMultipleTransfers || tx.BankAccountID == "" {
		return nil
	}
	return s.adjust(ctx, tx.BankAccountID, signedAmount(tx.Type, tx.Status, tx.Amount).Neg())
}

// ReplaceTransaction moves the balance effect from the old version of a
// transaction to the new one. Handles account moves and type flips.
func (s *BalanceService) ReplaceTransaction(ctx context.Context, oldTx, newTx *domain.Transaction) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ReplaceTransaction")
	defer span.End()

	if err := s.ReverseTransaction(ctx, oldTx); err != nil {
		return err
	}
	return s.ApplyTransaction(ctx, newTx)
}

// ApplyTransferLeg applies one leg of a split transaction. The owning
// transaction's type decides the sign.
func (s *BalanceService) ApplyTransferLeg(ctx context.Context, tx *domain.Transaction, leg *domain.Transfer) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ApplyTransferLeg")
	defer span.End()

	return s.adjust(ctx, leg.BankAccountID, signedAmount(tx.Type, tx.Status, leg.Amount))
}

// ReverseTransferLeg undoes one leg of a split transaction.
func (s *BalanceService) ReverseTransferLeg(ctx context.Context, tx *domain.Transaction, leg *domain.Transfer) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.ReverseTransferLeg")
	defer span.End()

	return s.adjust(ctx, leg.BankAccountID, signedAmount(tx.Type, tx.Status, leg.Amount).Neg())
}

// adjust reads the account, applies the delta, and writes the new
// balance. A zero delta is a no-op.
func (s *BalanceService) adjust(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	newBalance := acct.Amount.Add(delta)
	if err := s.store.SetAccountBalance(ctx, accountID, newBalance); err != nil {
		return err
	}

	s.logger.Debug("balance adjusted",
		zap.String("account_id", accountID),
		zap.String("delta", delta.String()),
		zap.String("balance", newBalance.String()),
	)
	s.bus.PublishBalanceChanged(domain.BalanceChanged{AccountID: accountID})
	return nil
}

// RecalculateAccount rebuilds one account balance from scratch by
// replaying its simple transactions and its split transfer legs.
func (s *BalanceService) RecalculateAccount(ctx context.Context, accountID string) (*domain.AccountBalance, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.RecalculateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	balance := decimal.Zero

	txs, err := s.store.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].HasMultipleTransfers {
			continue
		}
		balance = balance.Add(signedAmount(txs[i].Type, txs[i].Status, txs[i].Amount))
	}

	legs, err := s.store.ListTransfersByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range legs {
		owner, err := s.store.GetTransaction(ctx, legs[i].TransactionID)
		if err != nil {
			s.logger.Warn("transfer leg without owning transaction, skipped",
				zap.String("transfer_id", legs[i].ID),
				zap.String("transaction_id", legs[i].TransactionID),
			)
			continue
		}
		balance = balance.Add(signedAmount(owner.Type, owner.Status, legs[i].Amount))
	}

	if err := s.store.SetAccountBalance(ctx, accountID, balance); err != nil {
		return nil, err
	}

	s.metrics.IncrBalanceRecalc()
	s.bus.PublishBalanceChanged(domain.BalanceChanged{AccountID: accountID})
	s.logger.Info("account balance recalculated",
		zap.String("account_id", accountID),
		zap.String("balance", balance.String()),
	)
	return &domain.AccountBalance{AccountID: accountID, Balance: balance}, nil
}

// RecalculateAll rebuilds every account balance.
func (s *BalanceService) RecalculateAll(ctx context.Context) ([]domain.AccountBalance, error) {
	ctx, span := balanceTracer.Start(ctx, "BalanceService.RecalculateAll")
	defer span.End()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AccountBalance, 0, len(accounts))
	for i := range accounts {
		bal, err := s.RecalculateAccount(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *bal)
	}
	return out, nil
}
