// Package handler exposes the ledger over HTTP. Handlers are thin:
// decode, delegate to a service, encode.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router needs.
type Services struct {
	Accounts     *service.AccountsService
	Transactions *service.TransactionsService
	Transfers    *service.TransfersService
	Settlement   *service.SettlementService
	Rates        *service.RatesService
	NetWorth     *service.NetWorthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Accounts, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Bank accounts
		r.Post("/accounts", createAccountHandler(svcs.Accounts, logger))
		r.Get("/accounts", listAccountsHandler(svcs.Accounts, logger))
		r.Get("/accounts/{accountId}", getAccountHandler(svcs.Accounts, logger))
		r.Delete("/accounts/{accountId}", deleteAccountHandler(svcs.Accounts, logger))
		r.Post("/accounts/recalculate", recalculateAllHandler(svcs.Accounts, logger))
		r.Post("/accounts/{accountId}/recalculate", recalculateAccountHandler(svcs.Accounts, logger))
		r.Get("/accounts/{accountId}/transactions", listTransactionsByAccountHandler(svcs.Transactions, logger))

		// Transactions
		r.Post("/transactions", createTransactionHandler(svcs.Transactions, logger))
		r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
		r.Get("/transactions/{transactionId}", getTransactionHandler(svcs.Transactions, logger))
		r.Patch("/transactions/{transactionId}", updateTransactionHandler(svcs.Transactions, logger))
		r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Transactions, logger))
		r.Get("/clients/{clientId}/transactions", listTransactionsByClientHandler(svcs.Transactions, logger))

		// Split transfers
		r.Post("/transactions/split", createSplitTransactionHandler(svcs.Transfers, logger))
		r.Post("/transactions/{transactionId}/split", convertToSplitHandler(svcs.Transfers, logger))
		r.Get("/transactions/{transactionId}/transfers", listTransfersHandler(svcs.Transfers, logger))
		r.Put("/transfers/{transferId}", updateTransferHandler(svcs.Transfers, logger))
		r.Delete("/transfers/{transferId}", deleteTransferHandler(svcs.Transfers, logger))

		// Debts & receivables
		r.Post("/obligations", createObligationHandler(svcs.Settlement, logger))
		r.Get("/obligations", listObligationsHandler(svcs.Settlement, logger))
		r.Get("/obligations/{obligationId}", getObligationHandler(svcs.Settlement, logger))
		r.Delete("/obligations/{obligationId}", deleteObligationHandler(svcs.Settlement, logger))
		r.Get("/obligations/{obligationId}/settlement", settlementHandler(svcs.Settlement, logger))
		r.Post("/obligations/{obligationId}/liquidate", liquidateHandler(svcs.Settlement, logger))
		r.Put("/obligations/{obligationId}/exchange-rate", updateObligationRateHandler(svcs.Settlement, logger))

		// Exchange rates
		r.Get("/rates/current", currentRateHandler(svcs.Rates, logger))
		r.Post("/rates/refresh", refreshRateHandler(svcs.Rates, logger))
		r.Get("/rates/history", rateHistoryHandler(svcs.Rates, logger))
		r.Get("/rates/status", rateStatusHandler(svcs.Rates, logger))

		// Net worth
		r.Get("/networth", netWorthHandler(svcs.NetWorth, logger))
	})

	return r
}

// healthzHandler pings the store through a cheap read.
func healthzHandler(accounts *service.AccountsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "contable-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := accounts.List(ctx)
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
			logger.Warn("healthz: store check failed", zap.Error(err))
		}
		services = append(services, domain.ServiceHealth{
			Name: "store", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
