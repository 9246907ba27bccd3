package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/port"
)

var txTracer = otel.Tracer("service/transactions")

// TransactionsService owns the transaction lifecycle. Every mutation
// validates first, persists second, adjusts balances third, and
// publishes an event last.
type TransactionsService struct {
	store   port.LedgerStore
	balance *BalanceService
	bus     port.EventBus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTransactionsService creates the transactions service.
func NewTransactionsService(store port.LedgerStore, balance *BalanceService, bus port.EventBus, metrics *observability.Metrics, logger *zap.Logger) *TransactionsService {
	return &TransactionsService{store: store, balance: balance, bus: bus, metrics: metrics, logger: logger}
}

// validateTransaction enforces the invariants every stored transaction
// must satisfy.
func validateTransaction(tx *domain.Transaction) error {
	if !tx.Type.Valid() {
		return &domain.ErrValidation{Field: "type", Message: "unknown transaction type: " + string(tx.Type)}
	}
	if !tx.Currency.Valid() {
		return &domain.ErrValidation{Field: "currency", Message: "unsupported currency: " + string(tx.Currency)}
	}
	if tx.Amount.Sign() <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if tx.Commission.Sign() < 0 {
		return &domain.ErrValidation{Field: "commission", Message: "commission cannot be negative"}
	}
	if tx.DebtID != "" && tx.ReceivableID != "" {
		return &domain.ErrValidation{Field: "debt_id", Message: "a transaction links to a debt or a receivable, not both"}
	}
	if tx.Denominations != nil {
		if tx.Type != domain.TypeCash {
			return &domain.ErrValidation{Field: "denominations", Message: "only cash transactions carry denominations"}
		}
		if err := tx.Denominations.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Create validates, persists and applies a simple (non-split)
// transaction. Split creation goes through TransfersService.
func (s *TransactionsService) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Create")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_create", time.Since(start)) }()

	if err := validateTransaction(tx); err != nil {
		return nil, err
	}
	if tx.HasMultipleTransfers {
		return nil, &domain.ErrValidation{Field: "has_multiple_transfers", Message: "split transactions are created with their transfers"}
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = domain.StatusCompleted
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	tx.CreatedAt = time.Now().UTC()

	created, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := s.balance.ApplyTransaction(ctx, created); err != nil {
		return nil, err
	}

	s.metrics.IncrTransactionOp("created")
	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionCreated, Transaction: created})
	s.logger.Info("transaction created",
		zap.String("transaction_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("amount", created.Amount.String()),
	)
	return created, nil
}

// Update applies a partial update. Balance effects are moved from the
// old version to the new one.
func (s *TransactionsService) Update(ctx context.Context, txID string, patch *domain.TransactionPatch) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	old, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	updated := *old
	applyPatch(&updated, patch)

	if err := validateTransaction(&updated); err != nil {
		return nil, err
	}
	if old.HasMultipleTransfers {
		// The transfer legs carry the amounts and the balance effects.
		// Changing the owning transaction underneath them would break
		// the leg sum, so only descriptive fields may be patched.
		if patch.BankAccountID != nil {
			return nil, &domain.ErrConflict{Message: "split transaction cannot be assigned a bank account"}
		}
		if patch.Amount != nil || patch.Type != nil || patch.Status != nil || patch.Currency != nil {
			return nil, &domain.ErrConflict{Message: "split transaction amount, type, currency and status are managed through its transfers"}
		}
	}

	if err := s.store.UpdateTransaction(ctx, &updated); err != nil {
		return nil, err
	}

	if err := s.balance.ReplaceTransaction(ctx, old, &updated); err != nil {
		return nil, err
	}

	s.metrics.IncrTransactionOp("updated")
	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionUpdated, Transaction: &updated})
	return &updated, nil
}

func applyPatch(tx *domain.Transaction, patch *domain.TransactionPatch) {
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Currency != nil {
		tx.Currency = *patch.Currency
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.Status != nil {
		tx.Status = *patch.Status
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Notes != nil {
		tx.Notes = *patch.Notes
	}
	if patch.Category != nil {
		tx.Category = *patch.Category
	}
	if patch.BankAccountID != nil {
		tx.BankAccountID = *patch.BankAccountID
	}
	if patch.ClientID != nil {
		tx.ClientID = *patch.ClientID
	}
	if patch.Commission != nil {
		tx.Commission = *patch.Commission
	}
}

// Delete removes a transaction and reverses its balance effects. Split
// transactions have each leg reversed and deleted first.
func (s *TransactionsService) Delete(ctx context.Context, txID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}

	if tx.HasMultipleTransfers {
		legs, err := s.store.ListTransfersByTransaction(ctx, txID)
		if err != nil {
			return err
		}
		for i := range legs {
			if err := s.balance.ReverseTransferLeg(ctx, tx, &legs[i]); err != nil {
				return err
			}
		}
		if err := s.store.DeleteTransfersByTransaction(ctx, txID); err != nil {
			return err
		}
	} else {
		if err := s.balance.ReverseTransaction(ctx, tx); err != nil {
			return err
		}
	}

	if err := s.store.DeleteTransaction(ctx, txID); err != nil {
		return err
	}

	s.metrics.IncrTransactionOp("deleted")
	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionDeleted, Transaction: tx})
	s.logger.Info("transaction deleted", zap.String("transaction_id", txID))
	return nil
}

// Get returns a transaction by ID.
func (s *TransactionsService) Get(ctx context.Context, txID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Get")
	defer span.End()

	return s.store.GetTransaction(ctx, txID)
}

// List returns all transactions, newest first.
func (s *TransactionsService) List(ctx context.Context) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.List")
	defer span.End()

	return s.store.ListTransactions(ctx)
}

// ListByAccount returns simple transactions on an account plus the
// owning transactions of any split legs touching it.
func (s *TransactionsService) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.ListByAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	txs, err := s.store.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(txs))
	for i := range txs {
		seen[txs[i].ID] = true
	}

	legs, err := s.store.ListTransfersByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range legs {
		if seen[legs[i].TransactionID] {
			continue
		}
		owner, err := s.store.GetTransaction(ctx, legs[i].TransactionID)
		if err != nil {
			continue
		}
		seen[owner.ID] = true
		txs = append(txs, *owner)
	}
	return txs, nil
}

// ListByClient returns all transactions for a client.
func (s *TransactionsService) ListByClient(ctx context.Context, clientID string) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.ListByClient")
	defer span.End()

	return s.store.ListTransactionsByClient(ctx, clientID)
}

// Search does a case-insensitive substring match over description, notes
// and category.
func (s *TransactionsService) Search(ctx context.Context, query string) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Search")
	defer span.End()

	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return txs, nil
	}

	out := make([]domain.Transaction, 0)
	for i := range txs {
		if strings.Contains(strings.ToLower(txs[i].Description), q) ||
			strings.Contains(strings.ToLower(txs[i].Notes), q) ||
			strings.Contains(strings.ToLower(txs[i].Category), q) {
			out = append(out, txs[i])
		}
	}
	return out, nil
}

// Filter applies a conjunctive filter over all transactions.
func (s *TransactionsService) Filter(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Filter")
	defer span.End()

	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0)
	for i := range txs {
		if filter.Matches(&txs[i]) {
			out = append(out, txs[i])
		}
	}
	return out, nil
}
