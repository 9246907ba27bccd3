package handler

import (
	"encoding/json"
	"net/http"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Debt & Receivable Handlers
// ============================================================

func createObligationHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/obligations")
		defer span.End()

		var req domain.ObligationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ob, err := svc.CreateObligation(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ob)
	}
}

func listObligationsHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/obligations")
		defer span.End()

		kind := domain.ObligationKind(r.URL.Query().Get("kind"))
		obs, err := svc.ListObligations(ctx, kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, obs)
	}
}

func getObligationHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/obligations/{obligationId}")
		defer span.End()

		ob, err := svc.GetObligation(ctx, chi.URLParam(r, "obligationId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ob)
	}
}

func deleteObligationHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/obligations/{obligationId}")
		defer span.End()

		if err := svc.DeleteObligation(ctx, chi.URLParam(r, "obligationId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func settlementHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/obligations/{obligationId}/settlement")
		defer span.End()

		settlement, err := svc.Settle(ctx, chi.URLParam(r, "obligationId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, settlement)
	}
}

func liquidateHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/obligations/{obligationId}/liquidate")
		defer span.End()

		ob, err := svc.Liquidate(ctx, chi.URLParam(r, "obligationId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ob)
	}
}

func updateObligationRateHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/obligations/{obligationId}/exchange-rate")
		defer span.End()

		var req struct {
			ExchangeRate decimal.Decimal `json:"exchange_rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ob, err := svc.UpdateExchangeRate(ctx, chi.URLParam(r, "obligationId"), req.ExchangeRate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ob)
	}
}
