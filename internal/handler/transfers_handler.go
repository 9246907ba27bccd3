package handler

import (
	"encoding/json"
	"net/http"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Split Transfer Handlers
// ============================================================

// splitRequest is the payload for creating a split transaction or
// converting an existing one. Transfers carry the per-account legs.
type splitRequest struct {
	Transaction domain.Transaction `json:"transaction"`
	Transfers   []domain.Transfer  `json:"transfers"`
}

type splitResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	Transfers   []domain.Transfer   `json:"transfers"`
}

func createSplitTransactionHandler(svc *service.TransfersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/split")
		defer span.End()

		var req splitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, legs, err := svc.CreateWithTransfers(ctx, &req.Transaction, req.Transfers)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, splitResponse{Transaction: tx, Transfers: legs})
	}
}

func convertToSplitHandler(svc *service.TransfersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{transactionId}/split")
		defer span.End()

		var req struct {
			Transfers []domain.Transfer `json:"transfers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, legs, err := svc.ConvertToSplit(ctx, chi.URLParam(r, "transactionId"), req.Transfers)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, splitResponse{Transaction: tx, Transfers: legs})
	}
}

func listTransfersHandler(svc *service.TransfersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{transactionId}/transfers")
		defer span.End()

		legs, err := svc.ListForTransaction(ctx, chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, legs)
	}
}

func updateTransferHandler(svc *service.TransfersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transfers/{transferId}")
		defer span.End()

		var leg domain.Transfer
		if err := json.NewDecoder(r.Body).Decode(&leg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		leg.ID = chi.URLParam(r, "transferId")

		updated, err := svc.UpdateTransfer(ctx, &leg)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteTransferHandler(svc *service.TransfersService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transfers/{transferId}")
		defer span.End()

		if err := svc.DeleteTransfer(ctx, chi.URLParam(r, "transferId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
