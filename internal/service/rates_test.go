package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veconta/contable-go/internal/domain"
)

func TestResolveRateHistorical(t *testing.T) {
	e := newEnv(t)
	seedSnapshot(t, e, "snap-1", "36.5", time.Hour)

	resolved := e.rates.ResolveRate(context.Background(), "snap-1", domain.RateOfficial, dec("80"))
	if !resolved.Rate.Equal(dec("36.5")) {
		t.Errorf("expected snapshot rate 36.5, got %s", resolved.Rate)
	}
	if !resolved.Historical || resolved.Source != domain.RateSourceHistorical {
		t.Errorf("expected historical resolution, got %+v", resolved)
	}
}

func TestResolveRateFallback(t *testing.T) {
	e := newEnv(t)

	resolved := e.rates.ResolveRate(context.Background(), "missing", domain.RateOfficial, dec("80"))
	if !resolved.Rate.Equal(dec("80")) {
		t.Errorf("expected fallback rate 80, got %s", resolved.Rate)
	}
	if resolved.Historical || resolved.Source != domain.RateSourceCurrent {
		t.Errorf("expected current-rate resolution, got %+v", resolved)
	}
}

func TestResolveRateDefault(t *testing.T) {
	e := newEnv(t)

	resolved := e.rates.ResolveRate(context.Background(), "", domain.RateOfficial, dec("0"))
	if !resolved.Rate.Equal(domain.DefaultUSDVESRate) {
		t.Errorf("expected hard default, got %s", resolved.Rate)
	}
	if resolved.Historical || resolved.Source != domain.RateSourceDefault {
		t.Errorf("expected default resolution, got %+v", resolved)
	}
}

func TestCurrentRateRefreshesWhenEmpty(t *testing.T) {
	e := newEnv(t)

	snap, err := e.rates.CurrentRate(context.Background())
	if err != nil {
		t.Fatalf("current rate: %v", err)
	}
	if !snap.USDToVESBCV.Equal(dec("40")) {
		t.Errorf("expected fetched BCV 40, got %s", snap.USDToVESBCV)
	}
	if e.fetcher.calls != 1 {
		t.Errorf("expected one fetch, got %d", e.fetcher.calls)
	}

	snaps, err := e.rates.ListSnapshots(context.Background(), 10)
	if err != nil {
		t.Fatalf("listing snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("refresh must append a snapshot, got %d", len(snaps))
	}
}

func TestCurrentRateUsesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.rates.CurrentRate(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := e.rates.CurrentRate(ctx); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if e.fetcher.calls != 1 {
		t.Errorf("second call must hit the cache, fetches: %d", e.fetcher.calls)
	}
}

func TestCurrentRateValueNeverFails(t *testing.T) {
	e := newEnv(t)
	e.fetcher.err = errors.New("quote provider down")

	got := e.rates.CurrentRateValue(context.Background(), domain.RateOfficial)
	if !got.Equal(domain.DefaultUSDVESRate) {
		t.Errorf("expected hard default when everything fails, got %s", got)
	}
}

func TestStatusReportsResolutionCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedSnapshot(t, e, "snap-1", "36.5", time.Hour)

	e.rates.ResolveRate(ctx, "snap-1", domain.RateOfficial, dec("80"))
	e.rates.ResolveRate(ctx, "", domain.RateOfficial, dec("80"))
	e.rates.ResolveRate(ctx, "", domain.RateOfficial, dec("0"))

	status, err := e.rates.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Current == nil {
		t.Fatal("status must carry the current snapshot")
	}
	if status.Resolutions.Historical != 1 {
		t.Errorf("expected 1 historical resolution, got %v", status.Resolutions.Historical)
	}
	if status.Resolutions.Current != 1 {
		t.Errorf("expected 1 current resolution, got %v", status.Resolutions.Current)
	}
	if status.Resolutions.Default != 1 {
		t.Errorf("expected 1 default resolution, got %v", status.Resolutions.Default)
	}
}

func TestRefreshRatePublishes(t *testing.T) {
	e := newEnv(t)

	var events []domain.RateRefreshed
	e.bus.SubscribeRateRefreshed(func(ev domain.RateRefreshed) {
		events = append(events, ev)
	})

	snap, err := e.rates.RefreshRate(context.Background())
	if err != nil {
		t.Fatalf("refreshing: %v", err)
	}
	if len(events) != 1 || events[0].Snapshot.ID != snap.ID {
		t.Errorf("expected one refresh event for %s, got %+v", snap.ID, events)
	}
}

func TestRefreshRateFetchError(t *testing.T) {
	e := newEnv(t)
	boom := errors.New("quote provider down")
	e.fetcher.err = boom

	if _, err := e.rates.RefreshRate(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected fetch error, got %v", err)
	}
}
