package handler

import (
	"net/http"

	"github.com/veconta/contable-go/internal/service"

	"go.uber.org/zap"
)

func netWorthHandler(svc *service.NetWorthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/networth")
		defer span.End()

		nw, err := svc.Compute(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, nw)
	}
}
