package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veconta/contable-go/internal/domain"
)

// ============================================================
// Obligations (debts & receivables)
// ============================================================

func (c *Client) InsertObligation(ctx context.Context, ob *domain.Obligation) (*domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.InsertObligation")
	defer span.End()

	body, err := c.doPost(ctx, "obligations", ob)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "insert obligation", Err: err}
	}

	var rows []domain.Obligation
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode obligation: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrPersistence{Op: "insert obligation", Err: fmt.Errorf("no row returned")}
	}
	return &rows[0], nil
}

func (c *Client) UpdateObligation(ctx context.Context, ob *domain.Obligation) error {
	ctx, span := tracer.Start(ctx, "Postgrest.UpdateObligation")
	defer span.End()

	if err := c.doPatch(ctx, fmt.Sprintf("obligations?id=eq.%s", ob.ID), ob); err != nil {
		return &domain.ErrPersistence{Op: "update obligation", Err: err}
	}
	return nil
}

func (c *Client) GetObligation(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetObligation")
	defer span.End()

	path := fmt.Sprintf("obligations?id=eq.%s&limit=1", obligationID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get obligation", Err: err}
	}

	var rows []domain.Obligation
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode obligation: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "obligation", ID: obligationID}
	}
	return &rows[0], nil
}

func (c *Client) ListObligations(ctx context.Context, kind domain.ObligationKind) ([]domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListObligations")
	defer span.End()

	path := "obligations?order=due_date.asc"
	if kind != "" {
		path = fmt.Sprintf("obligations?kind=eq.%s&order=due_date.asc", kind)
	}
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "list obligations", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Obligation{}, nil
	}

	var rows []domain.Obligation
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode obligations: %w", err)
	}
	return rows, nil
}

func (c *Client) DeleteObligation(ctx context.Context, obligationID string) error {
	ctx, span := tracer.Start(ctx, "Postgrest.DeleteObligation")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("obligations?id=eq.%s", obligationID)); err != nil {
		return &domain.ErrPersistence{Op: "delete obligation", Err: err}
	}
	return nil
}

// ListPaymentsForObligation returns the payment transactions linked to a
// debt or receivable. Both link columns are checked since the caller does
// not know the obligation kind.
func (c *Client) ListPaymentsForObligation(ctx context.Context, obligationID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListPaymentsForObligation")
	defer span.End()

	path := fmt.Sprintf("transactions?type=eq.payment&or=(debt_id.eq.%s,receivable_id.eq.%s)&order=date.desc",
		obligationID, obligationID)
	return c.listTransactions(ctx, path)
}
