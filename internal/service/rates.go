// Package service provides the business logic layer (use cases) of the
// dual-currency ledger: transactions, split transfers, balance
// maintenance, debt/receivable settlement and exchange rates.
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

var ratesTracer = otel.Tracer("service/rates")

const currentRateCacheKey = "rates/current"

// RatesService resolves exchange rates for conversions and maintains the
// append-only snapshot history.
type RatesService struct {
	store   port.LedgerStore
	fetcher port.RateFetcher
	cache   port.Cache[domain.ExchangeRateSnapshot]
	bus     port.EventBus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRatesService creates the rates service.
func NewRatesService(store port.LedgerStore, fetcher port.RateFetcher, cache port.Cache[domain.ExchangeRateSnapshot], bus port.EventBus, metrics *observability.Metrics, logger *zap.Logger) *RatesService {
	return &RatesService{
		store:   store,
		fetcher: fetcher,
		cache:   cache,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// ResolveRate returns the USD/VES rate to convert a payment with.
// Resolution never fails; it degrades through three tiers:
//
//  1. the snapshot linked to the payment (historical truth),
//  2. the caller-supplied fallback (current market rate),
//  3. the hard default.
//
// Historical is true only for tier 1. Tiers 2 and 3 are approximations
// and callers must surface that.
func (s *RatesService) ResolveRate(ctx context.Context, snapshotID string, kind domain.RateKind, fallback decimal.Decimal) domain.ResolvedRate {
	ctx, span := ratesTracer.Start(ctx, "RatesService.ResolveRate")
	defer span.End()

	if snapshotID != "" {
		snap, err := s.store.GetRateSnapshot(ctx, snapshotID)
		if err == nil {
			rate := snap.Rate(kind)
			if rate.Sign() > 0 {
				span.SetAttributes(attribute.String("rate.source", string(domain.RateSourceHistorical)))
				s.metrics.IncrRateResolution(string(domain.RateSourceHistorical))
				return domain.ResolvedRate{Rate: rate, Historical: true, Source: domain.RateSourceHistorical}
			}
		} else {
			s.logger.Warn("rate snapshot lookup failed, falling back",
				zap.String("snapshot_id", snapshotID),
				zap.Error(err),
			)
		}
	}

	if fallback.Sign() > 0 {
		span.SetAttributes(attribute.String("rate.source", string(domain.RateSourceCurrent)))
		s.metrics.IncrRateResolution(string(domain.RateSourceCurrent))
		return domain.ResolvedRate{Rate: fallback, Historical: false, Source: domain.RateSourceCurrent}
	}

	span.SetAttributes(attribute.String("rate.source", string(domain.RateSourceDefault)))
	s.metrics.IncrRateResolution(string(domain.RateSourceDefault))
	return domain.ResolvedRate{Rate: domain.DefaultUSDVESRate, Historical: false, Source: domain.RateSourceDefault}
}

// CurrentRate returns the most recent snapshot: cache first, then store,
// then a live refresh as last resort.
func (s *RatesService) CurrentRate(ctx context.Context) (*domain.ExchangeRateSnapshot, error) {
	ctx, span := ratesTracer.Start(ctx, "RatesService.CurrentRate")
	defer span.End()

	if snap, ok := s.cache.Get(currentRateCacheKey); ok {
		s.metrics.IncrCacheHit("rates")
		return &snap, nil
	}
	s.metrics.IncrCacheMiss("rates")

	snap, err := s.store.LatestRateSnapshot(ctx)
	if err == nil {
		s.cache.Set(currentRateCacheKey, *snap)
		return snap, nil
	}

	return s.RefreshRate(ctx)
}

// CurrentRateValue returns the current quote for a kind, or the default
// when nothing is available. It never fails.
func (s *RatesService) CurrentRateValue(ctx context.Context, kind domain.RateKind) decimal.Decimal {
	snap, err := s.CurrentRate(ctx)
	if err != nil || snap.Rate(kind).Sign() <= 0 {
		return domain.DefaultUSDVESRate
	}
	return snap.Rate(kind)
}

// RefreshRate fetches live quotes, appends a new snapshot, and publishes
// the refresh event.
func (s *RatesService) RefreshRate(ctx context.Context) (*domain.ExchangeRateSnapshot, error) {
	ctx, span := ratesTracer.Start(ctx, "RatesService.RefreshRate")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("rate_refresh", time.Since(start)) }()

	bcv, parallel, err := s.fetcher.FetchRates(ctx)
	if err != nil {
		s.metrics.IncrExternalError("rates")
		return nil, err
	}

	snap := &domain.ExchangeRateSnapshot{
		ID:            uuid.NewString(),
		USDToVESBCV:   bcv,
		USDToVESParal: parallel,
		LastUpdated:   time.Now().UTC(),
	}

	created, err := s.store.InsertRateSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}

	s.cache.Set(currentRateCacheKey, *created)
	s.bus.PublishRateRefreshed(domain.RateRefreshed{Snapshot: created})

	s.logger.Info("exchange rate refreshed",
		zap.String("snapshot_id", created.ID),
		zap.String("bcv", created.USDToVESBCV.String()),
		zap.String("parallel", created.USDToVESParal.String()),
	)
	return created, nil
}

// Status reports the current snapshot together with how often each
// resolution tier has been used, so fallback frequency is visible
// without scraping Prometheus.
func (s *RatesService) Status(ctx context.Context) (*domain.RateStatus, error) {
	ctx, span := ratesTracer.Start(ctx, "RatesService.Status")
	defer span.End()

	snap, err := s.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.RateStatus{
		Current: snap,
		Resolutions: domain.RateResolutionCounts{
			Historical: s.metrics.RateResolutionCount(string(domain.RateSourceHistorical)),
			Current:    s.metrics.RateResolutionCount(string(domain.RateSourceCurrent)),
			Default:    s.metrics.RateResolutionCount(string(domain.RateSourceDefault)),
		},
	}, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *RatesService) ListSnapshots(ctx context.Context, limit int) ([]domain.ExchangeRateSnapshot, error) {
	ctx, span := ratesTracer.Start(ctx, "RatesService.ListSnapshots")
	defer span.End()

	return s.store.ListRateSnapshots(ctx, limit)
}
