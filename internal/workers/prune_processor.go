// internal/workers/prune_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultReservationRetention is used when a prune task carries no retention
const DefaultReservationRetention = 24 * time.Hour

// ReservationPruner is implemented by the ledger
type ReservationPruner interface {
	PruneResolved(ctx context.Context, cutoff time.Time) int
}

// PruneProcessor forgets resolved reservations on a schedule
type PruneProcessor struct {
	pruner ReservationPruner
	logger *slog.Logger
	now    func() time.Time
}

// NewPruneProcessor creates a new prune processor
func NewPruneProcessor(pruner ReservationPruner, logger *slog.Logger) *PruneProcessor {
	return &PruneProcessor{
		pruner: pruner,
		logger: logger.With(slog.String("processor", "prune")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PruneReservations drops committed and released reservations older than the retention
func (p *PruneProcessor) PruneReservations(ctx context.Context, t *asynq.Task) error {
	var payload PrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal prune payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultReservationRetention
	}

	cutoff := p.now().Add(-payload.Retention)
	pruned := p.pruner.PruneResolved(ctx, cutoff)

	p.logger.InfoContext(ctx, "resolved reservations pruned",
		slog.Int("pruned", pruned),
		slog.Time("cutoff", cutoff))
	return nil
}
