package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veconta/contable-go/internal/domain"
)

// Seed loads a small sample dataset for local development: two bank
// accounts (one per currency) and an initial rate snapshot.
func (s *Store) Seed(ctx context.Context) error {
	now := time.Now().UTC()

	accounts := []domain.BankAccount{
		{
			ID:            uuid.NewString(),
			BankName:      "Banco de Venezuela",
			AccountNumber: "0102-1234-5678",
			Currency:      domain.VES,
			Amount:        decimal.NewFromInt(5000),
			CreatedAt:     now,
		},
		{
			ID:            uuid.NewString(),
			BankName:      "Zelle",
			AccountNumber: "zelle-main",
			Currency:      domain.USD,
			Amount:        decimal.NewFromInt(250),
			CreatedAt:     now,
		},
	}
	for i := range accounts {
		if _, err := s.InsertAccount(ctx, &accounts[i]); err != nil {
			return err
		}
	}

	snap := &domain.ExchangeRateSnapshot{
		ID:            uuid.NewString(),
		USDToVESBCV:   decimal.NewFromInt(40),
		USDToVESParal: decimal.NewFromInt(42),
		LastUpdated:   now,
	}
	_, err := s.InsertRateSnapshot(ctx, snap)
	return err
}
