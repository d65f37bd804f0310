// internal/core/ports/stock_repository.go
package ports

import (
	"context"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// StockRepository is the storage collaborator of the ledger.
// Load returns nil, nil when the product has never been stored.
type StockRepository interface {
	Load(ctx context.Context, productID string) (*domain.StockRecord, error)
	Save(ctx context.Context, record *domain.StockRecord) error
	FindAll(ctx context.Context) ([]domain.StockRecord, error)
}

// StockReportRepository reads aggregates from persisted snapshots
type StockReportRepository interface {
	LocationSummaries(ctx context.Context) ([]domain.LocationSummary, error)
	CountLowStock(ctx context.Context) (int64, error)
}
