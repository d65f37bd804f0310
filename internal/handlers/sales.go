// internal/handlers/sales.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// SalesHandler accepts checkouts
type SalesHandler struct {
	responder
	sales ports.SalesService
	cache ports.CacheRepository
}

// NewSalesHandler creates a new sales handler. cache may be nil.
func NewSalesHandler(sales ports.SalesService, cache ports.CacheRepository, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		responder: responder{logger: logger.With(slog.String("handler", "sales"))},
		sales:     sales,
		cache:     cache,
	}
}

// CheckoutResponse carries the receipt, and the failure reason when the sale did not complete
type CheckoutResponse struct {
	Receipt *domain.SaleReceipt `json:"receipt"`
	Error   string              `json:"error,omitempty"`
}

// Checkout handles POST /api/v1/sales
func (h *SalesHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sale domain.Sale
	if err := decodeJSON(r, &sale); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := h.sales.Checkout(ctx, sale)
	if err != nil {
		if receipt == nil || errors.Is(err, domain.ErrValidation) {
			h.respondLedgerError(ctx, w, err)
			return
		}

		// partially committed sales still changed stock
		if receiptCommitted(receipt) {
			invalidateDashboard(ctx, h.cache, h.logger)
		}
		status, message := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "checkout failed",
				slog.String("sale_id", receipt.SaleID.String()),
				slog.String("error", err.Error()))
		}
		h.respondJSON(w, status, CheckoutResponse{Receipt: receipt, Error: message})
		return
	}
	invalidateDashboard(ctx, h.cache, h.logger)

	h.respondJSON(w, http.StatusCreated, CheckoutResponse{Receipt: receipt})
}

func receiptCommitted(receipt *domain.SaleReceipt) bool {
	for _, line := range receipt.Lines {
		if line.State == domain.ReservationCommitted {
			return true
		}
	}
	return false
}
