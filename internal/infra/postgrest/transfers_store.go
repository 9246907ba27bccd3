package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veconta/contable-go/internal/domain"
)

// ============================================================
// Transfers (split transaction legs)
// ============================================================

func (c *Client) InsertTransfer(ctx context.Context, tr *domain.Transfer) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.InsertTransfer")
	defer span.End()

	body, err := c.doPost(ctx, "transfers", tr)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "insert transfer", Err: err}
	}

	var rows []domain.Transfer
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrPersistence{Op: "insert transfer", Err: fmt.Errorf("no row returned")}
	}
	return &rows[0], nil
}

func (c *Client) UpdateTransfer(ctx context.Context, tr *domain.Transfer) error {
	ctx, span := tracer.Start(ctx, "Postgrest.UpdateTransfer")
	defer span.End()

	if err := c.doPatch(ctx, fmt.Sprintf("transfers?id=eq.%s", tr.ID), tr); err != nil {
		return &domain.ErrPersistence{Op: "update transfer", Err: err}
	}
	return nil
}

func (c *Client) DeleteTransfer(ctx context.Context, transferID string) error {
	ctx, span := tracer.Start(ctx, "Postgrest.DeleteTransfer")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("transfers?id=eq.%s", transferID)); err != nil {
		return &domain.ErrPersistence{Op: "delete transfer", Err: err}
	}
	return nil
}

func (c *Client) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetTransfer")
	defer span.End()

	path := fmt.Sprintf("transfers?id=eq.%s&limit=1", transferID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get transfer", Err: err}
	}

	var rows []domain.Transfer
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode transfer: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transfer", ID: transferID}
	}
	return &rows[0], nil
}

func (c *Client) ListTransfersByTransaction(ctx context.Context, txID string) ([]domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListTransfersByTransaction")
	defer span.End()

	path := fmt.Sprintf("transfers?transaction_id=eq.%s&order=order_index.asc", txID)
	return c.listTransfers(ctx, path)
}

func (c *Client) ListTransfersByAccount(ctx context.Context, accountID string) ([]domain.Transfer, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListTransfersByAccount")
	defer span.End()

	path := fmt.Sprintf("transfers?bank_account_id=eq.%s", accountID)
	return c.listTransfers(ctx, path)
}

func (c *Client) DeleteTransfersByTransaction(ctx context.Context, txID string) error {
	ctx, span := tracer.Start(ctx, "Postgrest.DeleteTransfersByTransaction")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("transfers?transaction_id=eq.%s", txID)); err != nil {
		return &domain.ErrPersistence{Op: "delete transfers by transaction", Err: err}
	}
	return nil
}

func (c *Client) listTransfers(ctx context.Context, path string) ([]domain.Transfer, error) {
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "list transfers", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Transfer{}, nil
	}

	var rows []domain.Transfer
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}
	return rows, nil
}
