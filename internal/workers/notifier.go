// internal/workers/notifier.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// AsynqNotifier turns ledger reporting hooks into alert tasks
type AsynqNotifier struct {
	client ports.TaskEnqueuer
	logger *slog.Logger
	now    func() time.Time
}

// Statically assert that *AsynqNotifier implements the StockNotifier port.
var _ ports.StockNotifier = (*AsynqNotifier)(nil)

// NewAsynqNotifier creates a notifier that enqueues through client
func NewAsynqNotifier(client ports.TaskEnqueuer, logger *slog.Logger) *AsynqNotifier {
	return &AsynqNotifier{
		client: client,
		logger: logger.With(slog.String("component", "notifier")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NotifyLowStock enqueues a low stock alert
func (n *AsynqNotifier) NotifyLowStock(ctx context.Context, record domain.StockRecord) error {
	return n.enqueue(ctx, domain.NewStockAlert(domain.AlertLowStock, record, n.now()))
}

// NotifyOverstock enqueues an overstock alert
func (n *AsynqNotifier) NotifyOverstock(ctx context.Context, record domain.StockRecord) error {
	return n.enqueue(ctx, domain.NewStockAlert(domain.AlertOverstock, record, n.now()))
}

func (n *AsynqNotifier) enqueue(ctx context.Context, alert domain.StockAlert) error {
	task, err := NewStockAlertTask(alert)
	if err != nil {
		return err
	}

	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s alert for %s: %w", alert.Kind, alert.ProductID, err)
	}

	n.logger.DebugContext(ctx, "alert enqueued",
		slog.String("kind", alert.Kind),
		slog.String("product_id", alert.ProductID),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}
