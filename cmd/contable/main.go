package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veconta/contable-go/internal/config"
	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/handler"
	"github.com/veconta/contable-go/internal/infra/bus"
	"github.com/veconta/contable-go/internal/infra/cache"
	"github.com/veconta/contable-go/internal/infra/memstore"
	"github.com/veconta/contable-go/internal/infra/observability"
	"github.com/veconta/contable-go/internal/infra/postgrest"
	"github.com/veconta/contable-go/internal/infra/ratesapi"
	"github.com/veconta/contable-go/internal/infra/resilience"
	"github.com/veconta/contable-go/internal/port"
	"github.com/veconta/contable-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_postgrest", cfg.UsePostgrest),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("rate_cache_ttl", cfg.RateCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "contable")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	rateCache := cache.New[domain.ExchangeRateSnapshot](cfg.RateCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var store port.LedgerStore
	if cfg.UsePostgrest && cfg.PostgrestURL != "" {
		logger.Info("using PostgREST as data backend",
			zap.String("postgrest_url", cfg.PostgrestURL),
		)
		store = postgrest.NewClient(
			httpClient,
			cfg.PostgrestURL,
			cfg.PostgrestAnonKey,
			cfg.PostgrestServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Info("using in-memory store as data backend")
		mem := memstore.New()
		if cfg.DevSeed {
			if err := mem.Seed(context.Background()); err != nil {
				logger.Fatal("failed to seed memory store", zap.Error(err))
			}
			logger.Info("memory store seeded with sample data")
		}
		store = mem
	}

	ratesClient := ratesapi.NewClient(httpClient, cfg.RatesAPIURL, cb, resilienceCfg)

	// --- Event bus ---
	events := bus.New(logger)

	// --- Services ---
	balanceSvc := service.NewBalanceService(store, events, metrics, logger)
	transactionsSvc := service.NewTransactionsService(store, balanceSvc, events, metrics, logger)
	transfersSvc := service.NewTransfersService(store, balanceSvc, events, metrics, logger)
	ratesSvc := service.NewRatesService(store, ratesClient, rateCache, events, metrics, logger)
	settlementSvc := service.NewSettlementService(store, ratesSvc, metrics, logger)
	netWorthSvc := service.NewNetWorthService(store, settlementSvc, ratesSvc, metrics, logger)
	accountsSvc := service.NewAccountsService(store, transactionsSvc, balanceSvc, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Accounts:     accountsSvc,
		Transactions: transactionsSvc,
		Transfers:    transfersSvc,
		Settlement:   settlementSvc,
		Rates:        ratesSvc,
		NetWorth:     netWorthSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
