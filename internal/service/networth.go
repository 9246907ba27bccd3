package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/port"
)

var netWorthTracer = otel.Tracer("service/networth")

// NetWorthService rolls the whole ledger up into one USD figure:
// account balances plus outstanding receivables minus outstanding debts.
type NetWorthService struct {
	store      port.LedgerStore
	settlement *SettlementService
	rates      *RatesService
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNetWorthService creates the net worth aggregator.
func NewNetWorthService(store port.LedgerStore, settlement *SettlementService, rates *RatesService, metrics *observability.Metrics, logger *zap.Logger) *NetWorthService {
	return &NetWorthService{store: store, settlement: settlement, rates: rates, metrics: metrics, logger: logger}
}

// Compute aggregates the current position. Accounts and obligations are
// fetched concurrently; each obligation's settlement is computed once.
// VES balances converted at the current (non-historical) rate mark the
// result approximate.
func (s *NetWorthService) Compute(ctx context.Context) (*domain.NetWorth, error) {
	ctx, span := netWorthTracer.Start(ctx, "NetWorthService.Compute")
	defer span.End()

	currentRate := s.rates.CurrentRateValue(ctx, domain.RateOfficial)

	var (
		accounts    []domain.BankAccount
		obligations []domain.Obligation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		obligations, err = s.store.ListObligations(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	accountsUSD := decimal.Zero
	approximate := false
	for i := range accounts {
		if accounts[i].Currency == domain.USD {
			accountsUSD = accountsUSD.Add(accounts[i].Amount)
			continue
		}
		accountsUSD = accountsUSD.Add(domain.VESToUSD(accounts[i].Amount, currentRate))
		if !accounts[i].Amount.IsZero() {
			approximate = true
		}
	}

	receivablesUSD := decimal.Zero
	debtsUSD := decimal.Zero
	for i := range obligations {
		settlement, err := s.settlement.settle(ctx, &obligations[i], currentRate)
		if err != nil {
			return nil, err
		}
		if settlement.Status == domain.ObligationPaid {
			continue
		}
		if settlement.Approximate {
			approximate = true
		}
		switch obligations[i].Kind {
		case domain.KindReceivable:
			receivablesUSD = receivablesUSD.Add(settlement.RemainingUSD)
		case domain.KindDebt:
			debtsUSD = debtsUSD.Add(settlement.RemainingUSD)
		}
	}

	total := accountsUSD.Add(receivablesUSD).Sub(debtsUSD)

	s.logger.Debug("net worth computed",
		zap.String("accounts_usd", accountsUSD.String()),
		zap.String("receivables_usd", receivablesUSD.String()),
		zap.String("debts_usd", debtsUSD.String()),
		zap.String("total_usd", total.String()),
	)

	return &domain.NetWorth{
		AccountsUSD:    domain.RoundMoney(accountsUSD),
		ReceivablesUSD: domain.RoundMoney(receivablesUSD),
		DebtsUSD:       domain.RoundMoney(debtsUSD),
		TotalUSD:       domain.RoundMoney(total),
		Approximate:    approximate,
	}, nil
}
