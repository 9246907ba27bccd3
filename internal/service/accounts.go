package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/port"
)

var accountsTracer = otel.Tracer("service/accounts")

// AccountsService manages bank accounts. It never writes balances
// itself; an initial balance becomes a balance_change transaction so
// that recalculation can always rebuild the account from its history.
type AccountsService struct {
	store        port.LedgerStore
	transactions *TransactionsService
	balance      *BalanceService
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewAccountsService creates the accounts service.
func NewAccountsService(store port.LedgerStore, transactions *TransactionsService, balance *BalanceService, metrics *observability.Metrics, logger *zap.Logger) *AccountsService {
	return &AccountsService{
		store:        store,
		transactions: transactions,
		balance:      balance,
		metrics:      metrics,
		logger:       logger,
	}
}

// Create registers a bank account. A non-zero initial balance is
// recorded as a balance_change transaction.
func (s *AccountsService) Create(ctx context.Context, req *domain.BankAccountRequest) (*domain.BankAccount, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.Create")
	defer span.End()

	if req.BankName == "" {
		return nil, &domain.ErrValidation{Field: "bank_name", Message: "bank name is required"}
	}
	if !req.Currency.Valid() {
		return nil, &domain.ErrValidation{Field: "currency", Message: "unsupported currency: " + string(req.Currency)}
	}
	if req.InitialBalance.Sign() < 0 {
		return nil, &domain.ErrValidation{Field: "initial_balance", Message: "initial balance cannot be negative"}
	}

	acct := &domain.BankAccount{
		ID:            uuid.NewString(),
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		Currency:      req.Currency,
		CreatedAt:     time.Now().UTC(),
	}

	created, err := s.store.InsertAccount(ctx, acct)
	if err != nil {
		return nil, err
	}

	if req.InitialBalance.Sign() > 0 {
		_, err := s.transactions.Create(ctx, &domain.Transaction{
			Type:          domain.TypeBalanceChange,
			Amount:        req.InitialBalance,
			Currency:      req.Currency,
			Description:   "initial balance",
			BankAccountID: created.ID,
		})
		if err != nil {
			return nil, err
		}
		// Re-read so the returned account carries the applied balance.
		created, err = s.store.GetAccount(ctx, created.ID)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("bank account created",
		zap.String("account_id", created.ID),
		zap.String("bank", created.BankName),
		zap.String("currency", string(created.Currency)),
	)
	return created, nil
}

// Get returns one account.
func (s *AccountsService) Get(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.Get")
	defer span.End()

	return s.store.GetAccount(ctx, accountID)
}

// List returns all accounts.
func (s *AccountsService) List(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.List")
	defer span.End()

	return s.store.ListAccounts(ctx)
}

// Delete removes an account that no transaction or transfer references.
func (s *AccountsService) Delete(ctx context.Context, accountID string) error {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	txs, err := s.store.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		return &domain.ErrConflict{Message: "account has transactions and cannot be deleted"}
	}

	legs, err := s.store.ListTransfersByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if len(legs) > 0 {
		return &domain.ErrConflict{Message: "account has transfers and cannot be deleted"}
	}

	return s.store.DeleteAccount(ctx, accountID)
}

// Recalculate rebuilds one account balance from its history.
func (s *AccountsService) Recalculate(ctx context.Context, accountID string) (*domain.AccountBalance, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.Recalculate")
	defer span.End()

	return s.balance.RecalculateAccount(ctx, accountID)
}

// RecalculateAll rebuilds every account balance.
func (s *AccountsService) RecalculateAll(ctx context.Context) ([]domain.AccountBalance, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.RecalculateAll")
	defer span.End()

	return s.balance.RecalculateAll(ctx)
}
