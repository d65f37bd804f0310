// internal/workers/alert_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// AlertRecorder keeps alerts around for the dashboard
type AlertRecorder interface {
	Record(ctx context.Context, alert domain.StockAlert) error
}

// AlertProcessor handles stock alert tasks. It never touches stock.
type AlertProcessor struct {
	recorder AlertRecorder
	logger   *slog.Logger
}

// NewAlertProcessor creates a new alert processor
func NewAlertProcessor(recorder AlertRecorder, logger *slog.Logger) *AlertProcessor {
	return &AlertProcessor{
		recorder: recorder,
		logger:   logger.With(slog.String("processor", "alert")),
	}
}

// ProcessStockAlert logs and records a low stock or overstock alert
func (p *AlertProcessor) ProcessStockAlert(ctx context.Context, t *asynq.Task) error {
	var alert domain.StockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return fmt.Errorf("failed to unmarshal alert: %v: %w", err, asynq.SkipRetry)
	}
	if alert.ProductID == "" {
		return fmt.Errorf("alert without product_id: %w", asynq.SkipRetry)
	}

	attrs := []any{
		slog.String("kind", alert.Kind),
		slog.String("product_id", alert.ProductID),
		slog.Int64("on_hand", alert.OnHand),
		slog.Int64("minimum", alert.Minimum),
		slog.String("location", alert.Location),
	}
	if alert.Maximum != nil {
		attrs = append(attrs, slog.Int64("maximum", *alert.Maximum))
	}
	p.logger.WarnContext(ctx, "stock alert", attrs...)

	if err := p.recorder.Record(ctx, alert); err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}
