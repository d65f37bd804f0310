// internal/handlers/dashboard.go
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const defaultRecentAlerts = 20

// AlertReader reads alerts recorded by the alert worker
type AlertReader interface {
	Latest(ctx context.Context, productID string) (*domain.StockAlert, error)
	Recent(ctx context.Context, limit int64) ([]domain.StockAlert, error)
}

// DashboardHandler serves persisted stock totals and recent alerts
type DashboardHandler struct {
	responder
	reports ports.StockReportRepository
	alerts  AlertReader
	cache   ports.CacheRepository
	ttl     time.Duration
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	reports ports.StockReportRepository,
	alerts AlertReader,
	cache ports.CacheRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		responder: responder{logger: logger.With(slog.String("handler", "dashboard"))},
		reports:   reports,
		alerts:    alerts,
		cache:     cache,
		ttl:       ttl,
	}
}

// DashboardResponse is the body of GET /api/v1/dashboard
type DashboardResponse struct {
	domain.DashboardSummary
	RecentAlerts []domain.StockAlert `json:"recent_alerts"`
	Timestamp    time.Time           `json:"timestamp"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var summary domain.DashboardSummary
	err := h.cache.GetOrSet(ctx, redis_a.DashboardKey(), &summary, func() (interface{}, error) {
		return h.loadSummary(ctx)
	}, h.ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	alerts, err := h.alerts.Recent(ctx, defaultRecentAlerts)
	if err != nil {
		// alerts are advisory, the totals are still worth returning
		h.logger.WarnContext(ctx, "failed to load recent alerts", slog.String("error", err.Error()))
		alerts = []domain.StockAlert{}
	}

	h.respondJSON(w, http.StatusOK, DashboardResponse{
		DashboardSummary: summary,
		RecentAlerts:     alerts,
		Timestamp:        time.Now().UTC(),
	})
}

// ListAlerts handles GET /api/v1/alerts?limit=
func (h *DashboardHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := int64(defaultRecentAlerts)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > 100 {
			h.respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	alerts, err := h.alerts.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load alerts", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetProductAlert handles GET /api/v1/alerts/{productID}
func (h *DashboardHandler) GetProductAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alert, err := h.alerts.Latest(ctx, r.PathValue("productID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load alert", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to load alert")
		return
	}
	if alert == nil {
		h.respondError(w, http.StatusNotFound, "No alert recorded for product")
		return
	}
	h.respondJSON(w, http.StatusOK, alert)
}

func (h *DashboardHandler) loadSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	locations, err := h.reports.LocationSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load location summaries: %w", err)
	}
	lowStock, err := h.reports.CountLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock: %w", err)
	}
	return &domain.DashboardSummary{
		Locations:     locations,
		LowStockTotal: lowStock,
	}, nil
}
