// internal/adapters/redis_adapter/alerts.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/core/domain"
)

const defaultAlertHistory = 100

// AlertLog keeps the latest alert per product and a bounded feed of recent alerts
type AlertLog struct {
	client  *redis.Client
	history int64
	logger  *slog.Logger
}

// NewAlertLog creates an alert log that keeps at most history entries in its feed
func NewAlertLog(client *redis.Client, history int64, logger *slog.Logger) *AlertLog {
	if history <= 0 {
		history = defaultAlertHistory
	}
	return &AlertLog{
		client:  client,
		history: history,
		logger:  logger.With(slog.String("component", "alert_log")),
	}
}

func latestAlertKey(productID string) string {
	return BuildKey(PrefixAlert, "latest", productID)
}

func recentAlertsKey() string {
	return BuildKey(PrefixAlert, "recent")
}

// Record stores alert as the product's latest and pushes it onto the feed
func (a *AlertLog) Record(ctx context.Context, alert domain.StockAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	pipe := a.client.TxPipeline()
	pipe.Set(ctx, latestAlertKey(alert.ProductID), data, 0)
	pipe.LPush(ctx, recentAlertsKey(), data)
	pipe.LTrim(ctx, recentAlertsKey(), 0, a.history-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record alert for %s: %w", alert.ProductID, err)
	}

	a.logger.DebugContext(ctx, "alert recorded",
		slog.String("product_id", alert.ProductID),
		slog.String("kind", alert.Kind))
	return nil
}

// Latest returns the most recent alert for productID, or nil if none was recorded
func (a *AlertLog) Latest(ctx context.Context, productID string) (*domain.StockAlert, error) {
	data, err := a.client.Get(ctx, latestAlertKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read alert for %s: %w", productID, err)
	}

	var alert domain.StockAlert
	if err := json.Unmarshal(data, &alert); err != nil {
		return nil, fmt.Errorf("failed to decode alert for %s: %w", productID, err)
	}
	return &alert, nil
}

// Recent returns up to limit alerts, newest first
func (a *AlertLog) Recent(ctx context.Context, limit int64) ([]domain.StockAlert, error) {
	if limit <= 0 || limit > a.history {
		limit = a.history
	}

	raw, err := a.client.LRange(ctx, recentAlertsKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent alerts: %w", err)
	}

	alerts := make([]domain.StockAlert, 0, len(raw))
	for _, item := range raw {
		var alert domain.StockAlert
		if err := json.Unmarshal([]byte(item), &alert); err != nil {
			a.logger.WarnContext(ctx, "skipping undecodable alert", slog.String("error", err.Error()))
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
