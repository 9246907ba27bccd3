package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/veconta/contable-go/internal/domain"
)

// ============================================================
// Bank accounts
// ============================================================

func (c *Client) InsertAccount(ctx context.Context, acct *domain.BankAccount) (*domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.InsertAccount")
	defer span.End()

	body, err := c.doPost(ctx, "bank_accounts", acct)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "insert account", Err: err}
	}

	var rows []domain.BankAccount
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrPersistence{Op: "insert account", Err: fmt.Errorf("no row returned")}
	}
	return &rows[0], nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetAccount")
	defer span.End()

	path := fmt.Sprintf("bank_accounts?id=eq.%s&limit=1", accountID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get account", Err: err}
	}

	var rows []domain.BankAccount
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return &rows[0], nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListAccounts")
	defer span.End()

	body, err := c.doGet(ctx, "bank_accounts?order=bank_name.asc")
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "list accounts", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.BankAccount{}, nil
	}

	var rows []domain.BankAccount
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return rows, nil
}

func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	ctx, span := tracer.Start(ctx, "Postgrest.DeleteAccount")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("bank_accounts?id=eq.%s", accountID)); err != nil {
		return &domain.ErrPersistence{Op: "delete account", Err: err}
	}
	return nil
}

func (c *Client) SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	ctx, span := tracer.Start(ctx, "Postgrest.SetAccountBalance")
	defer span.End()

	patch := map[string]any{"amount": balance}
	if err := c.doPatch(ctx, fmt.Sprintf("bank_accounts?id=eq.%s", accountID), patch); err != nil {
		return &domain.ErrPersistence{Op: "set account balance", Err: err}
	}
	return nil
}
