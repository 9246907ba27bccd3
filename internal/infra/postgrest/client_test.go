package postgrest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/postgrest"
	"github.com/veconta/contable-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newClient(serverURL string) *postgrest.Client {
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("postgrest-test")
	return postgrest.NewClient(&http.Client{Timeout: time.Second}, serverURL, "anon-key", "service-key", cb, cfg, zap.NewNop())
}

func TestInsertTransaction(t *testing.T) {
	var gotPath, gotPrefer, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPrefer = r.Header.Get("Prefer")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"tx-1","type":"sale","amount":"100","currency":"USD"}]`))
	}))
	defer srv.Close()

	tx, err := newClient(srv.URL).InsertTransaction(context.Background(), &domain.Transaction{
		ID:       "tx-1",
		Type:     domain.TypeSale,
		Amount:   decimal.NewFromInt(100),
		Currency: domain.USD,
	})
	if err != nil {
		t.Fatalf("inserting: %v", err)
	}
	if tx.ID != "tx-1" {
		t.Errorf("expected returned row, got %+v", tx)
	}
	if gotPath != "/rest/v1/transactions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotPrefer != "return=representation" {
		t.Errorf("expected representation preference, got %q", gotPrefer)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("expected service role bearer, got %q", gotAuth)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).GetTransaction(context.Background(), "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found for empty result, got %v", err)
	}
}

func TestGetTransactionFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"tx-1","type":"sale","amount":"10","currency":"USD"}]`))
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).GetTransaction(context.Background(), "tx-1"); err != nil {
		t.Fatalf("getting: %v", err)
	}
	if gotQuery != "id=eq.tx-1&limit=1" {
		t.Errorf("unexpected query %q", gotQuery)
	}
}

func TestListTransactionsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	txs, err := newClient(srv.URL).ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty slice, got %d rows", len(txs))
	}
}

func TestServerErrorWrapsPersistence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).ListTransactions(context.Background())
	var pe *domain.ErrPersistence
	if !errors.As(err, &pe) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestListPaymentsForObligationFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).ListPaymentsForObligation(context.Background(), "ob-1"); err != nil {
		t.Fatalf("listing payments: %v", err)
	}
	want := "type=eq.payment&or=(debt_id.eq.ob-1,receivable_id.eq.ob-1)&order=date.desc"
	if gotQuery != want {
		t.Errorf("unexpected query\n got: %q\nwant: %q", gotQuery, want)
	}
}
