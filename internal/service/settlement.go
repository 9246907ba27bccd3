package service

import (
	"context"
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

var settlementTracer = otel.Tracer("service/settlement")

// SettlementService manages debts and receivables and computes how much
// of each has been paid. The USD value of an obligation is fixed at
// creation; payments in bolívares are converted at their historical rate
// whenever one exists.
type SettlementService struct {
	store   port.LedgerStore
	rates   *RatesService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSettlementService creates the settlement service.
func NewSettlementService(store port.LedgerStore, rates *RatesService, metrics *observability.Metrics, logger *zap.Logger) *SettlementService {
	return &SettlementService{store: store, rates: rates, metrics: metrics, logger: logger}
}

// CreateObligation registers a debt or receivable. VES obligations lock
// in their USD value using the given rate, or the current rate when the
// caller supplies none.
func (s *SettlementService) CreateObligation(ctx context.Context, req *domain.ObligationRequest) (*domain.Obligation, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.CreateObligation")
	defer span.End()

	if req.Kind != domain.KindDebt && req.Kind != domain.KindReceivable {
		return nil, &domain.ErrValidation{Field: "kind", Message: "kind must be debt or receivable"}
	}
	if !req.Currency.Valid() {
		return nil, &domain.ErrValidation{Field: "currency", Message: "unsupported currency: " + string(req.Currency)}
	}
	if req.Amount.Sign() <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	ob := &domain.Obligation{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Amount:      req.Amount,
		Currency:    req.Currency,
		DueDate:     req.DueDate,
		Status:      domain.ObligationPending,
		ClientID:    req.ClientID,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if req.Currency == domain.USD {
		ob.AmountUSD = req.Amount
	} else {
		rate := req.ExchangeRate
		if rate.Sign() <= 0 {
			rate = s.rates.CurrentRateValue(ctx, domain.RateOfficial)
		}
		ob.ExchangeRate = rate
		ob.AmountUSD = domain.VESToUSD(req.Amount, rate)
	}

	return s.store.InsertObligation(ctx, ob)
}

// GetObligation returns one obligation.
func (s *SettlementService) GetObligation(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.GetObligation")
	defer span.End()

	return s.store.GetObligation(ctx, obligationID)
}

// ListObligations returns obligations of a kind (or all when empty),
// each with its stored status replaced by the derived one.
func (s *SettlementService) ListObligations(ctx context.Context, kind domain.ObligationKind) ([]domain.Obligation, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.ListObligations")
	defer span.End()

	obs, err := s.store.ListObligations(ctx, kind)
	if err != nil {
		return nil, err
	}

	currentRate := s.rates.CurrentRateValue(ctx, domain.RateOfficial)
	for i := range obs {
		settlement, err := s.settle(ctx, &obs[i], currentRate)
		if err != nil {
			return nil, err
		}
		obs[i].Status = settlement.Status
	}
	return obs, nil
}

// DeleteObligation removes an obligation. Linked payments stay in the
// ledger; only the obligation record goes away.
func (s *SettlementService) DeleteObligation(ctx context.Context, obligationID string) error {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.DeleteObligation")
	defer span.End()

	return s.store.DeleteObligation(ctx, obligationID)
}

// Settle computes the payment state of one obligation.
func (s *SettlementService) Settle(ctx context.Context, obligationID string) (*domain.Settlement, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.Settle")
	defer span.End()
	span.SetAttributes(attribute.String("obligation.id", obligationID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("settle", time.Since(start)) }()

	ob, err := s.store.GetObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, ob, s.rates.CurrentRateValue(ctx, domain.RateOfficial))
}

// settle is the core calculation. Only completed payments count. USD
// payments count at face value; VES payments convert at their linked
// historical rate, falling back to the current rate and flagging the
// result as approximate.
func (s *SettlementService) settle(ctx context.Context, ob *domain.Obligation, currentRate decimal.Decimal) (*domain.Settlement, error) {
	payments, err := s.store.ListPaymentsForObligation(ctx, ob.ID)
	if err != nil {
		return nil, err
	}

	paidUSD := decimal.Zero
	paidVES := decimal.Zero
	approximate := false
	count := 0

	for i := range payments {
		p := &payments[i]
		if p.Status != domain.StatusCompleted {
			continue
		}
		count++

		if p.Currency == domain.USD {
			paidUSD = paidUSD.Add(p.Amount)
			continue
		}

		paidVES = paidVES.Add(p.Amount)
		resolved := s.rates.ResolveRate(ctx, p.ExchangeRateID, domain.RateOfficial, currentRate)
		if !resolved.Historical {
			approximate = true
		}
		paidUSD = paidUSD.Add(domain.VESToUSD(p.Amount, resolved.Rate))
	}

	remaining := ob.AmountUSD.Sub(paidUSD)
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}

	return &domain.Settlement{
		ObligationID: ob.ID,
		Kind:         ob.Kind,
		AmountUSD:    domain.RoundMoney(ob.AmountUSD),
		TotalPaidUSD: domain.RoundMoney(paidUSD),
		TotalPaidVES: domain.RoundMoney(paidVES),
		RemainingUSD: domain.RoundMoney(remaining),
		Status:       deriveStatus(ob, remaining),
		Approximate:  approximate,
		PaymentCount: count,
	}, nil
}

// deriveStatus computes the display status. It always overrides the
// stored one: paid when liquidated or fully covered, overdue when past
// due, pending otherwise. Coverage is exact; the sum tolerance applies
// to split reconciliation, not here.
func deriveStatus(ob *domain.Obligation, remainingUSD decimal.Decimal) domain.ObligationStatus {
	if ob.Liquidated || remainingUSD.IsZero() {
		return domain.ObligationPaid
	}
	if !ob.DueDate.IsZero() && ob.DueDate.Before(time.Now().UTC()) {
		return domain.ObligationOverdue
	}
	return domain.ObligationPending
}

// Liquidate marks an obligation as settled regardless of what has been
// paid. Liquidating an already liquidated obligation is a no-op.
func (s *SettlementService) Liquidate(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.Liquidate")
	defer span.End()
	span.SetAttributes(attribute.String("obligation.id", obligationID))

	ob, err := s.store.GetObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if ob.Liquidated {
		return ob, nil
	}

	ob.Liquidated = true
	ob.Status = domain.ObligationPaid
	if err := s.store.UpdateObligation(ctx, ob); err != nil {
		return nil, err
	}

	s.logger.Info("obligation liquidated",
		zap.String("obligation_id", ob.ID),
		zap.String("kind", string(ob.Kind)),
	)
	return ob, nil
}

// UpdateExchangeRate recomputes the locked USD value of a VES
// obligation. This is the only path that may change AmountUSD.
func (s *SettlementService) UpdateExchangeRate(ctx context.Context, obligationID string, rate decimal.Decimal) (*domain.Obligation, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.UpdateExchangeRate")
	defer span.End()

	if rate.Sign() <= 0 {
		return nil, &domain.ErrValidation{Field: "exchange_rate", Message: "rate must be positive"}
	}

	ob, err := s.store.GetObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if ob.Currency != domain.VES {
		return nil, &domain.ErrValidation{Field: "exchange_rate", Message: "only VES obligations carry an exchange rate"}
	}

	ob.ExchangeRate = rate
	ob.AmountUSD = domain.VESToUSD(ob.Amount, rate)
	if err := s.store.UpdateObligation(ctx, ob); err != nil {
		return nil, err
	}
	return ob, nil
}
