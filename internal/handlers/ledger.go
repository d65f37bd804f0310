// internal/handlers/ledger.go
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// LedgerHandler exposes stock records and reservations over HTTP
type LedgerHandler struct {
	responder
	ledger ports.LedgerService
	cache  ports.CacheRepository
}

// NewLedgerHandler creates a new ledger handler. cache may be nil.
func NewLedgerHandler(ledger ports.LedgerService, cache ports.CacheRepository, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		responder: responder{logger: logger.With(slog.String("handler", "ledger"))},
		ledger:    ledger,
		cache:     cache,
	}
}

// RegisterStock handles POST /api/v1/stock
func (h *LedgerHandler) RegisterStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterStockRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.ledger.Register(ctx, req.ToDomain())
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	invalidateDashboard(ctx, h.cache, h.logger)

	h.respondJSON(w, http.StatusCreated, rec)
}

// GetStock handles GET /api/v1/stock/{productID}
func (h *LedgerHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.ledger.Get(ctx, r.PathValue("productID"))
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newStockResponse(rec))
}

// DeactivateStock handles DELETE /api/v1/stock/{productID}
func (h *LedgerHandler) DeactivateStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("productID")

	if err := h.ledger.Deactivate(ctx, productID); err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	invalidateDashboard(ctx, h.cache, h.logger)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"active":     false,
	})
}

// ListStock handles GET /api/v1/stock?location=
func (h *LedgerHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	location := r.URL.Query().Get("location")
	if location == "" {
		h.respondError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}

	records, err := h.ledger.QueryByLocation(ctx, location)
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, StockListResponse{Records: records, Count: len(records)})
}

// ListLowStock handles GET /api/v1/stock/low
func (h *LedgerHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.ledger.QueryLowStock(ctx)
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, StockListResponse{Records: records, Count: len(records)})
}

// Reserve handles POST /api/v1/stock/{productID}/reservations
func (h *LedgerHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.ledger.Reserve(ctx, r.PathValue("productID"), req.Quantity)
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	invalidateDashboard(ctx, h.cache, h.logger)

	h.respondJSON(w, http.StatusCreated, res)
}

// Restock handles POST /api/v1/stock/{productID}/restock
func (h *LedgerHandler) Restock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.ledger.Restock(ctx, r.PathValue("productID"), req.Quantity)
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	invalidateDashboard(ctx, h.cache, h.logger)

	h.respondJSON(w, http.StatusOK, newStockResponse(rec))
}

// GetReservation handles GET /api/v1/reservations/{id}
func (h *LedgerHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}

	res, err := h.ledger.GetReservation(ctx, id)
	if err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// CommitReservation handles POST /api/v1/reservations/{id}/commit
func (h *LedgerHandler) CommitReservation(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.ledger.Commit, domain.ReservationCommitted)
}

// ReleaseReservation handles POST /api/v1/reservations/{id}/release
func (h *LedgerHandler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.ledger.Release, domain.ReservationReleased)
}

func (h *LedgerHandler) resolve(w http.ResponseWriter, r *http.Request,
	op func(context.Context, uuid.UUID) error, state domain.ReservationState) {
	ctx := r.Context()

	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}

	if err := op(ctx, id); err != nil {
		h.respondLedgerError(ctx, w, err)
		return
	}
	invalidateDashboard(ctx, h.cache, h.logger)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"reservation_id": id,
		"state":          state,
	})
}

func (h *LedgerHandler) reservationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid reservation ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Request/Response DTOs

// RegisterStockRequest is the body of POST /api/v1/stock
type RegisterStockRequest struct {
	ProductID string `json:"product_id"`
	OnHand    int64  `json:"on_hand"`
	Minimum   int64  `json:"minimum"`
	Maximum   *int64 `json:"maximum,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Validate checks the request shape. Ledger rules are checked by the ledger.
func (r *RegisterStockRequest) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if len(r.ProductID) > 64 {
		return fmt.Errorf("product_id must be at most 64 characters")
	}
	return nil
}

// ToDomain converts the request into a new stock record
func (r *RegisterStockRequest) ToDomain() domain.StockRecord {
	return domain.StockRecord{
		ProductID: r.ProductID,
		OnHand:    r.OnHand,
		Minimum:   r.Minimum,
		Maximum:   r.Maximum,
		Location:  r.Location,
		Active:    true,
	}
}

// QuantityRequest is the body of reserve and restock calls
type QuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// StockResponse adds derived values to a stock record
type StockResponse struct {
	*domain.StockRecord
	Available   int64 `json:"available"`
	LowStock    bool  `json:"low_stock"`
	Overstocked bool  `json:"overstocked"`
}

func newStockResponse(rec *domain.StockRecord) StockResponse {
	return StockResponse{
		StockRecord: rec,
		Available:   rec.Available(),
		LowStock:    rec.IsLowStock(),
		Overstocked: rec.IsOverstocked(),
	}
}

// StockListResponse wraps query results
type StockListResponse struct {
	Records []domain.StockRecord `json:"records"`
	Count   int                  `json:"count"`
}
