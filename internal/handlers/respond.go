// internal/handlers/respond.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}

// respondLedgerError maps ledger error kinds to status codes. Server-side
// failures are logged; client errors are not.
func (h responder) respondLedgerError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}
	h.respondError(w, status, message)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownProduct):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, domain.ErrUnknownReservation):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must be positive"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			return http.StatusConflict, ise.Error()
		}
		return http.StatusConflict, "Insufficient stock"
	case errors.Is(err, domain.ErrInvalidReservationState):
		return http.StatusConflict, "Reservation is already resolved"
	case errors.Is(err, domain.ErrDuplicateProduct):
		return http.StatusConflict, "Product already registered"
	case errors.Is(err, services.ErrPaymentInsufficient):
		return http.StatusPaymentRequired, "Payment does not cover sale total"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, "Stock storage unavailable, retry later"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// invalidateDashboard drops the cached dashboard after a stock change. cache may be nil.
func invalidateDashboard(ctx context.Context, cache ports.CacheRepository, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, redis_a.DashboardKey()); err != nil {
		logger.WarnContext(ctx, "failed to invalidate dashboard cache",
			slog.String("error", err.Error()))
	}
}
