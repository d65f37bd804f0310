// internal/adapters/db/stock_report_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// StockReportRepository aggregates persisted snapshots for reporting.
// It runs on database/sql so it can point at a read replica through the pgx stdlib driver.
type StockReportRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Statically assert that *StockReportRepository implements the report port.
var _ ports.StockReportRepository = (*StockReportRepository)(nil)

// NewStockReportRepository creates a report repository over db
func NewStockReportRepository(db *sql.DB, logger *slog.Logger) *StockReportRepository {
	return &StockReportRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "stock_report")),
	}
}

// OpenReportDB opens a database/sql handle with the pgx driver
func OpenReportDB(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	db.SetMaxOpenConns(4)
	return db, nil
}

// LocationSummaries returns per-location totals of active records
func (r *StockReportRepository) LocationSummaries(ctx context.Context) ([]domain.LocationSummary, error) {
	rows, err := psql.Select(
		"location",
		"COUNT(*)",
		"COALESCE(SUM(on_hand), 0)",
		"COALESCE(SUM(reserved), 0)",
		"COUNT(*) FILTER (WHERE on_hand <= minimum)",
	).
		From(stockTable).
		Where(squirrel.Eq{"active": true}).
		GroupBy("location").
		OrderBy("location").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query location summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.LocationSummary, 0)
	for rows.Next() {
		var s domain.LocationSummary
		if err := rows.Scan(&s.Location, &s.Products, &s.TotalOnHand, &s.TotalReserved, &s.LowStock); err != nil {
			return nil, fmt.Errorf("failed to scan location summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location summaries: %w", err)
	}

	r.logger.DebugContext(ctx, "loaded location summaries", slog.Int("count", len(summaries)))
	return summaries, nil
}

// CountLowStock counts active records at or below their minimum
func (r *StockReportRepository) CountLowStock(ctx context.Context) (int64, error) {
	var count int64
	err := psql.Select("COUNT(*)").
		From(stockTable).
		Where(squirrel.And{
			squirrel.Eq{"active": true},
			squirrel.Expr("on_hand <= minimum"),
		}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count low stock: %w", err)
	}
	return count, nil
}
