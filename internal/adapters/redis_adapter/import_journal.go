// internal/adapters/redis_adapter/import_journal.go
package redis_a

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultJournalTTL = 7 * 24 * time.Hour

// ImportJournal remembers which rows of a restock import job were applied, so a
// redelivered job does not restock them again
type ImportJournal struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewImportJournal creates a journal whose per-job entries expire after ttl
func NewImportJournal(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ImportJournal {
	if ttl <= 0 {
		ttl = defaultJournalTTL
	}
	return &ImportJournal{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "import_journal")),
	}
}

func appliedRowsKey(jobID string) string {
	return BuildKey(PrefixImport, "applied", jobID)
}

// AppliedRows returns the rows already applied for jobID
func (j *ImportJournal) AppliedRows(ctx context.Context, jobID string) (map[int]bool, error) {
	members, err := j.client.SMembers(ctx, appliedRowsKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal for job %s: %w", jobID, err)
	}

	rows := make(map[int]bool, len(members))
	for _, m := range members {
		row, err := strconv.Atoi(m)
		if err != nil {
			j.logger.WarnContext(ctx, "ignoring malformed journal entry",
				slog.String("job_id", jobID), slog.String("entry", m))
			continue
		}
		rows[row] = true
	}
	return rows, nil
}

// MarkApplied records row as applied for jobID
func (j *ImportJournal) MarkApplied(ctx context.Context, jobID string, row int) error {
	key := appliedRowsKey(jobID)
	pipe := j.client.TxPipeline()
	pipe.SAdd(ctx, key, strconv.Itoa(row))
	pipe.Expire(ctx, key, j.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to journal row %d of job %s: %w", row, jobID, err)
	}
	return nil
}
