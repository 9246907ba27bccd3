package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/veconta/contable-go/internal/domain"
)

// ============================================================
// Transactions
// ============================================================

func (c *Client) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.InsertTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", tx.ID))

	body, err := c.doPost(ctx, "transactions", tx)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "insert transaction", Err: err}
	}

	var rows []domain.Transaction
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrPersistence{Op: "insert transaction", Err: fmt.Errorf("no row returned")}
	}
	return &rows[0], nil
}

func (c *Client) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Postgrest.UpdateTransaction")
	defer span.End()

	if err := c.doPatch(ctx, fmt.Sprintf("transactions?id=eq.%s", tx.ID), tx); err != nil {
		return &domain.ErrPersistence{Op: "update transaction", Err: err}
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, txID string) error {
	ctx, span := tracer.Start(ctx, "Postgrest.DeleteTransaction")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("transactions?id=eq.%s", txID)); err != nil {
		return &domain.ErrPersistence{Op: "delete transaction", Err: err}
	}
	return nil
}

func (c *Client) GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&limit=1", txID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get transaction", Err: err}
	}

	var rows []domain.Transaction
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return &rows[0], nil
}

func (c *Client) ListTransactionsByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListTransactionsByAccount")
	defer span.End()

	path := fmt.Sprintf("transactions?bank_account_id=eq.%s&order=date.desc", accountID)
	return c.listTransactions(ctx, path)
}

func (c *Client) ListTransactionsByClient(ctx context.Context, clientID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListTransactionsByClient")
	defer span.End()

	path := fmt.Sprintf("transactions?client_id=eq.%s&order=date.desc", clientID)
	return c.listTransactions(ctx, path)
}

func (c *Client) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListTransactions")
	defer span.End()

	return c.listTransactions(ctx, "transactions?order=date.desc")
}

func (c *Client) listTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "list transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Transaction{}, nil
	}

	var rows []domain.Transaction
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return rows, nil
}
