package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veconta/contable-go/internal/domain"
)

// ============================================================
// Exchange rate snapshots (append-only)
// ============================================================

func (c *Client) InsertRateSnapshot(ctx context.Context, snap *domain.ExchangeRateSnapshot) (*domain.ExchangeRateSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.InsertRateSnapshot")
	defer span.End()

	body, err := c.doPost(ctx, "exchange_rates", snap)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "insert rate snapshot", Err: err}
	}

	var rows []domain.ExchangeRateSnapshot
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode rate snapshot: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrPersistence{Op: "insert rate snapshot", Err: fmt.Errorf("no row returned")}
	}
	return &rows[0], nil
}

func (c *Client) GetRateSnapshot(ctx context.Context, snapshotID string) (*domain.ExchangeRateSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetRateSnapshot")
	defer span.End()

	path := fmt.Sprintf("exchange_rates?id=eq.%s&limit=1", snapshotID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "get rate snapshot", Err: err}
	}

	var rows []domain.ExchangeRateSnapshot
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode rate snapshot: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "exchange_rate", ID: snapshotID}
	}
	return &rows[0], nil
}

func (c *Client) LatestRateSnapshot(ctx context.Context) (*domain.ExchangeRateSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.LatestRateSnapshot")
	defer span.End()

	body, err := c.doGet(ctx, "exchange_rates?order=last_updated.desc&limit=1")
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "latest rate snapshot", Err: err}
	}

	var rows []domain.ExchangeRateSnapshot
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode rate snapshot: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "exchange_rate", ID: "latest"}
	}
	return &rows[0], nil
}

func (c *Client) ListRateSnapshots(ctx context.Context, limit int) ([]domain.ExchangeRateSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListRateSnapshots")
	defer span.End()

	path := "exchange_rates?order=last_updated.desc"
	if limit > 0 {
		path = fmt.Sprintf("%s&limit=%d", path, limit)
	}
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "list rate snapshots", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.ExchangeRateSnapshot{}, nil
	}

	var rows []domain.ExchangeRateSnapshot
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode rate snapshots: %w", err)
	}
	return rows, nil
}
