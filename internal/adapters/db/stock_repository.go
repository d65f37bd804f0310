// internal/adapters/db/stock_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const stockTable = "stock_records"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var stockColumns = []string{
	"product_id", "on_hand", "reserved", "minimum", "maximum", "location",
	"active", "last_restocked_at", "created_at", "updated_at",
}

const upsertStockSuffix = `ON CONFLICT (product_id) DO UPDATE SET
	on_hand = EXCLUDED.on_hand,
	reserved = EXCLUDED.reserved,
	minimum = EXCLUDED.minimum,
	maximum = EXCLUDED.maximum,
	location = EXCLUDED.location,
	active = EXCLUDED.active,
	last_restocked_at = EXCLUDED.last_restocked_at,
	updated_at = EXCLUDED.updated_at`

// StockRepository persists ledger snapshots in PostgreSQL
type StockRepository struct {
	db     *Database
	logger *slog.Logger
}

// Statically assert that *StockRepository implements the StockRepository port.
var _ ports.StockRepository = (*StockRepository)(nil)

// NewStockRepository creates a new stock repository
func NewStockRepository(db *Database, logger *slog.Logger) *StockRepository {
	return &StockRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "stock")),
	}
}

// Load returns nil, nil when the product has no row
func (r *StockRepository) Load(ctx context.Context, productID string) (*domain.StockRecord, error) {
	query, args, err := psql.Select(stockColumns...).
		From(stockTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rec, err := scanStockRecord(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load stock record %s: %w", productID, err)
	}
	return rec, nil
}

// Save upserts the snapshot
func (r *StockRepository) Save(ctx context.Context, record *domain.StockRecord) error {
	query, args, err := upsertStock(record).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save stock record %s: %w", record.ProductID, err)
	}

	r.logger.DebugContext(ctx, "stock record saved",
		slog.String("product_id", record.ProductID),
		slog.Int64("on_hand", record.OnHand),
		slog.Int64("reserved", record.Reserved))
	return nil
}

// SaveBatch upserts many records in one transaction
func (r *StockRepository) SaveBatch(ctx context.Context, records []domain.StockRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range records {
			query, args, err := upsertStock(&records[i]).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build query: %w", err)
			}
			batch.Queue(query, args...)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for i := range records {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to save stock record %s: %w", records[i].ProductID, err)
			}
		}
		return nil
	})
}

// FindAll returns every record, inactive ones included, ordered by product id
func (r *StockRepository) FindAll(ctx context.Context) ([]domain.StockRecord, error) {
	query, args, err := psql.Select(stockColumns...).
		From(stockTable).
		OrderBy("product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.StockRecord, 0)
	for rows.Next() {
		rec, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock records: %w", err)
	}

	return records, nil
}

func upsertStock(rec *domain.StockRecord) squirrel.InsertBuilder {
	return psql.Insert(stockTable).
		Columns(stockColumns...).
		Values(
			rec.ProductID, rec.OnHand, rec.Reserved, rec.Minimum, rec.Maximum, rec.Location,
			rec.Active, rec.LastRestockedAt, rec.CreatedAt, rec.UpdatedAt,
		).
		Suffix(upsertStockSuffix)
}

func scanStockRecord(row pgx.Row) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := row.Scan(
		&rec.ProductID,
		&rec.OnHand,
		&rec.Reserved,
		&rec.Minimum,
		&rec.Maximum,
		&rec.Location,
		&rec.Active,
		&rec.LastRestockedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
