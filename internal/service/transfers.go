package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/port"
)

var transferTracer = otel.Tracer("service/transfers")

// TransfersService splits one transaction across several bank accounts.
// The legs must reconcile with the transaction total, and creation is
// all-or-nothing: a mid-sequence failure rolls back everything already
// written.
type TransfersService struct {
	store   port.LedgerStore
	balance *BalanceService
	bus     port.EventBus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTransfersService creates the transfers service.
func NewTransfersService(store port.LedgerStore, balance *BalanceService, bus port.EventBus, metrics *observability.Metrics, logger *zap.Logger) *TransfersService {
	return &TransfersService{store: store, balance: balance, bus: bus, metrics: metrics, logger: logger}
}

// ValidateTransferSum checks that the legs reconcile with the total
// within the system tolerance, and that each leg is well-formed.
func ValidateTransferSum(total decimal.Decimal, legs []domain.Transfer) error {
	if len(legs) == 0 {
		return &domain.ErrValidation{Field: "transfers", Message: "at least one transfer is required"}
	}

	sum := decimal.Zero
	for i := range legs {
		if legs[i].Amount.Sign() <= 0 {
			return &domain.ErrValidation{
				Field:   "transfers",
				Message: fmt.Sprintf("transfer %d: amount must be positive", i+1),
			}
		}
		if legs[i].BankAccountID == "" {
			return &domain.ErrValidation{
				Field:   "transfers",
				Message: fmt.Sprintf("transfer %d: bank account is required", i+1),
			}
		}
		sum = sum.Add(legs[i].Amount)
	}

	if !domain.WithinTolerance(sum, total) {
		return &domain.ErrValidation{
			Field:   "transfers",
			Message: fmt.Sprintf("transfer sum %s does not match transaction total %s", sum.String(), total.String()),
		}
	}
	return nil
}

// CreateWithTransfers creates a split transaction and its legs as a
// unit. If any insert fails, everything already written is deleted; if
// that compensating delete also fails, the caller gets
// ErrRollbackFailed so the inconsistency can be alerted on.
func (s *TransfersService) CreateWithTransfers(ctx context.Context, tx *domain.Transaction, legs []domain.Transfer) (*domain.Transaction, []domain.Transfer, error) {
	ctx, span := transferTracer.Start(ctx, "TransfersService.CreateWithTransfers")
	defer span.End()
	span.SetAttributes(attribute.Int("transfers.count", len(legs)))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("split_create", time.Since(start)) }()

	if err := validateTransaction(tx); err != nil {
		return nil, nil, err
	}
	if err := ValidateTransferSum(tx.Amount, legs); err != nil {
		return nil, nil, err
	}
	for i := range legs {
		if _, err := s.store.GetAccount(ctx, legs[i].BankAccountID); err != nil {
			return nil, nil, err
		}
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
	tx.HasMultipleTransfers = true
	tx.BankAccountID = ""

	created, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, nil, err
	}

	inserted := make([]domain.Transfer, 0, len(legs))
	for i := range legs {
		leg := legs[i]
		leg.ID = uuid.NewString()
		leg.TransactionID = created.ID
		leg.OrderIndex = i

		row, err := s.store.InsertTransfer(ctx, &leg)
		if err != nil {
			return nil, nil, s.rollbackCreate(ctx, created, inserted, err)
		}
		inserted = append(inserted, *row)
	}

	for i := range inserted {
		if err := s.balance.ApplyTransferLeg(ctx, created, &inserted[i]); err != nil {
			return nil, nil, err
		}
	}

	s.metrics.IncrTransactionOp("created")
	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionCreated, Transaction: created})
	s.logger.Info("split transaction created",
		zap.String("transaction_id", created.ID),
		zap.Int("transfers", len(inserted)),
	)
	return created, inserted, nil
}

// rollbackCreate deletes everything a failed split creation already
// wrote, in reverse order.
func (s *TransfersService) rollbackCreate(ctx context.Context, tx *domain.Transaction, inserted []domain.Transfer, cause error) error {
	for i := len(inserted) - 1; i >= 0; i-- {
		if err := s.store.DeleteTransfer(ctx, inserted[i].ID); err != nil {
			s.metrics.IncrRollbackFailure()
			s.logger.Error("rollback failed: orphaned transfer",
				zap.String("transfer_id", inserted[i].ID),
				zap.Error(err),
			)
			return &domain.ErrRollbackFailed{
				Op:          "create split transaction",
				EntityID:    inserted[i].ID,
				Cause:       cause,
				RollbackErr: err,
			}
		}
	}
	if err := s.store.DeleteTransaction(ctx, tx.ID); err != nil {
		s.metrics.IncrRollbackFailure()
		s.logger.Error("rollback failed: orphaned transaction",
			zap.String("transaction_id", tx.ID),
			zap.Error(err),
		)
		return &domain.ErrRollbackFailed{
			Op:          "create split transaction",
			EntityID:    tx.ID,
			Cause:       cause,
			RollbackErr: err,
		}
	}
	return cause
}

// ConvertToSplit turns a simple transaction into a split one. A
// transaction that already has transfers cannot be converted again.
func (s *TransfersService) ConvertToSplit(ctx context.Context, txID string, legs []domain.Transfer) (*domain.Transaction, []domain.Transfer, error) {
	ctx, span := transferTracer.Start(ctx, "TransfersService.ConvertToSplit")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, nil, err
	}
	if tx.HasMultipleTransfers {
		return nil, nil, &domain.ErrConflict{Message: "transaction is already split across transfers"}
	}
	if err := ValidateTransferSum(tx.Amount, legs); err != nil {
		return nil, nil, err
	}
	for i := range legs {
		if _, err := s.store.GetAccount(ctx, legs[i].BankAccountID); err != nil {
			return nil, nil, err
		}
	}

	// Undo the simple-transaction balance effect before the legs take over.
	if err := s.balance.ReverseTransaction(ctx, tx); err != nil {
		return nil, nil, err
	}

	updated := *tx
	updated.HasMultipleTransfers = true
	updated.BankAccountID = ""
	if err := s.store.UpdateTransaction(ctx, &updated); err != nil {
		return nil, nil, err
	}

	inserted := make([]domain.Transfer, 0, len(legs))
	for i := range legs {
		leg := legs[i]
		leg.ID = uuid.NewString()
		leg.TransactionID = txID
		leg.OrderIndex = i

		row, err := s.store.InsertTransfer(ctx, &leg)
		if err != nil {
			return nil, nil, s.rollbackConvert(ctx, tx, inserted, err)
		}
		inserted = append(inserted, *row)
	}

	for i := range inserted {
		if err := s.balance.ApplyTransferLeg(ctx, &updated, &inserted[i]); err != nil {
			return nil, nil, err
		}
	}

	s.metrics.IncrTransactionOp("updated")
	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionUpdated, Transaction: &updated})
	return &updated, inserted, nil
}

// rollbackConvert restores the original simple transaction after a
// failed conversion.
func (s *TransfersService) rollbackConvert(ctx context.Context, original *domain.Transaction, inserted []domain.Transfer, cause error) error {
	for i := len(inserted) - 1; i >= 0; i-- {
		if err := s.store.DeleteTransfer(ctx, inserted[i].ID); err != nil {
			s.metrics.IncrRollbackFailure()
			return &domain.ErrRollbackFailed{
				Op:          "convert to split transaction",
				EntityID:    inserted[i].ID,
				Cause:       cause,
				RollbackErr: err,
			}
		}
	}
	if err := s.store.UpdateTransaction(ctx, original); err != nil {
		s.metrics.IncrRollbackFailure()
		return &domain.ErrRollbackFailed{
			Op:          "convert to split transaction",
			EntityID:    original.ID,
			Cause:       cause,
			RollbackErr: err,
		}
	}
	if err := s.balance.ApplyTransaction(ctx, original); err != nil {
		return err
	}
	return cause
}

// ListForTransaction returns the legs of a split transaction in order.
func (s *TransfersService) ListForTransaction(ctx context.Context, txID string) ([]domain.Transfer, error) {
	ctx, span := transferTracer.Start(ctx, "TransfersService.ListForTransaction")
	defer span.End()

	return s.store.ListTransfersByTransaction(ctx, txID)
}

// UpdateTransfer changes one leg. The new leg set must still reconcile
// with the transaction total.
func (s *TransfersService) UpdateTransfer(ctx context.Context, leg *domain.Transfer) (*domain.Transfer, error) {
	ctx, span := transferTracer.Start(ctx, "TransfersService.UpdateTransfer")
	defer span.End()

	old, err := s.store.GetTransfer(ctx, leg.ID)
	if err != nil {
		return nil, err
	}
	tx, err := s.store.GetTransaction(ctx, old.TransactionID)
	if err != nil {
		return nil, err
	}

	legs, err := s.store.ListTransfersByTransaction(ctx, old.TransactionID)
	if err != nil {
		return nil, err
	}
	next := make([]domain.Transfer, len(legs))
	copy(next, legs)
	for i := range next {
		if next[i].ID == leg.ID {
			next[i].Amount = leg.Amount
			next[i].BankAccountID = leg.BankAccountID
			next[i].ReceiptRef = leg.ReceiptRef
		}
	}
	if err := ValidateTransferSum(tx.Amount, next); err != nil {
		return nil, err
	}
	if leg.BankAccountID != old.BankAccountID {
		if _, err := s.store.GetAccount(ctx, leg.BankAccountID); err != nil {
			return nil, err
		}
	}

	updated := *old
	updated.Amount = leg.Amount
	updated.BankAccountID = leg.BankAccountID
	updated.ReceiptRef = leg.ReceiptRef
	if err := s.store.UpdateTransfer(ctx, &updated); err != nil {
		return nil, err
	}

	if err := s.balance.ReverseTransferLeg(ctx, tx, old); err != nil {
		return nil, err
	}
	if err := s.balance.ApplyTransferLeg(ctx, tx, &updated); err != nil {
		return nil, err
	}

	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionUpdated, Transaction: tx})
	return &updated, nil
}

// DeleteTransfer removes one leg and reverses its balance effect. The
// caller is responsible for keeping the remaining legs reconciled
// (typically by updating the transaction total or another leg).
func (s *TransfersService) DeleteTransfer(ctx context.Context, transferID string) error {
	ctx, span := transferTracer.Start(ctx, "TransfersService.DeleteTransfer")
	defer span.End()

	leg, err := s.store.GetTransfer(ctx, transferID)
	if err != nil {
		return err
	}
	tx, err := s.store.GetTransaction(ctx, leg.TransactionID)
	if err != nil {
		return err
	}

	if err := s.balance.ReverseTransferLeg(ctx, tx, leg); err != nil {
		return err
	}
	if err := s.store.DeleteTransfer(ctx, transferID); err != nil {
		return err
	}

	s.bus.PublishTransactionChanged(domain.TransactionChanged{Action: domain.ActionUpdated, Transaction: tx})
	return nil
}
