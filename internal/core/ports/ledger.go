// internal/core/ports/ledger.go
package ports

import (
	"context"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/google/uuid"
)

// LedgerService owns all stock-affecting operations
type LedgerService interface {
	Register(ctx context.Context, record domain.StockRecord) (*domain.StockRecord, error)
	Deactivate(ctx context.Context, productID string) error
	Get(ctx context.Context, productID string) (*domain.StockRecord, error)
	GetReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error)

	Reserve(ctx context.Context, productID string, quantity int64) (*domain.Reservation, error)
	Commit(ctx context.Context, reservationID uuid.UUID) error
	Release(ctx context.Context, reservationID uuid.UUID) error
	Restock(ctx context.Context, productID string, quantity int64) (*domain.StockRecord, error)

	QueryLowStock(ctx context.Context) ([]domain.StockRecord, error)
	QueryByLocation(ctx context.Context, location string) ([]domain.StockRecord, error)
}

// SalesService turns a checkout into ledger reservations
type SalesService interface {
	Checkout(ctx context.Context, sale domain.Sale) (*domain.SaleReceipt, error)
}

// StockNotifier receives reporting hooks after a transition is persisted
type StockNotifier interface {
	NotifyLowStock(ctx context.Context, record domain.StockRecord) error
	NotifyOverstock(ctx context.Context, record domain.StockRecord) error
}
