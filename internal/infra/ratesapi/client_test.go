package ratesapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/ratesapi"
	"github.com/veconta/contable-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
)

func newClient(serverURL string) *ratesapi.Client {
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("rates-test")
	return ratesapi.NewClient(&http.Client{Timeout: time.Second}, serverURL, cb, cfg)
}

func TestFetchRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"fuente":"oficial","promedio":36.58},
			{"fuente":"paralelo","promedio":41.2}
		]`))
	}))
	defer srv.Close()

	bcv, parallel, err := newClient(srv.URL).FetchRates(context.Background())
	if err != nil {
		t.Fatalf("fetching rates: %v", err)
	}
	if !bcv.Equal(decimal.NewFromFloat(36.58)) {
		t.Errorf("expected BCV 36.58, got %s", bcv)
	}
	if !parallel.Equal(decimal.NewFromFloat(41.2)) {
		t.Errorf("expected parallel 41.2, got %s", parallel)
	}
}

func TestFetchRatesMirrorsMissingMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"fuente":"oficial","promedio":40}]`))
	}))
	defer srv.Close()

	bcv, parallel, err := newClient(srv.URL).FetchRates(context.Background())
	if err != nil {
		t.Fatalf("fetching rates: %v", err)
	}
	if !parallel.Equal(bcv) {
		t.Errorf("expected parallel mirrored from BCV, got %s vs %s", parallel, bcv)
	}
}

func TestFetchRatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).FetchRates(context.Background())
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestFetchRatesEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).FetchRates(context.Background())
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error for empty quotes, got %v", err)
	}
}
