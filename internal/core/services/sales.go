// internal/core/services/sales.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// ErrPaymentInsufficient is returned when the tendered amount does not cover the sale
var ErrPaymentInsufficient = errors.New("payment does not cover sale total")

// SalesService builds checkout atomicity out of single-product ledger calls
type SalesService struct {
	ledger ports.LedgerService
	logger *slog.Logger
}

// Statically assert that *SalesService implements the SalesService interface.
var _ ports.SalesService = (*SalesService)(nil)

// NewSalesService creates a new sales service
func NewSalesService(ledger ports.LedgerService, logger *slog.Logger) *SalesService {
	return &SalesService{
		ledger: ledger,
		logger: logger.With(slog.String("service", "sales")),
	}
}

// Checkout reserves every line or none. Once all lines are held and the payment
// covers the total, each reservation is committed.
func (s *SalesService) Checkout(ctx context.Context, sale domain.Sale) (*domain.SaleReceipt, error) {
	if err := sale.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}

	receipt := &domain.SaleReceipt{
		SaleID: sale.ID,
		Lines:  make([]domain.ReservationOutcome, 0, len(sale.Lines)),
		Total:  sale.Total(),
	}

	for _, line := range sale.Lines {
		res, err := s.ledger.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.abort(ctx, receipt)
			return receipt, fmt.Errorf("failed to reserve %s: %w", line.ProductID, err)
		}
		receipt.Lines = append(receipt.Lines, domain.ReservationOutcome{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			ReservationID: res.ID,
			State:         res.State,
		})
	}

	if sale.Payment.Amount.LessThan(receipt.Total) {
		s.abort(ctx, receipt)
		return receipt, fmt.Errorf("%w: total %s, paid %s",
			ErrPaymentInsufficient, receipt.Total.StringFixed(2), sale.Payment.Amount.StringFixed(2))
	}

	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		if err := s.ledger.Commit(ctx, line.ReservationID); err != nil {
			// committed lines stay committed, the rest are given back
			s.abort(ctx, receipt)
			return receipt, fmt.Errorf("failed to commit %s: %w", line.ProductID, err)
		}
		line.State = domain.ReservationCommitted
	}

	receipt.Change = sale.Payment.Amount.Sub(receipt.Total)
	receipt.Complete = true

	s.logger.InfoContext(ctx, "sale completed",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("lines", len(receipt.Lines)),
		slog.String("total", receipt.Total.StringFixed(2)),
		slog.String("payment_method", string(sale.Payment.Method)))

	return receipt, nil
}

// abort releases every line still held. Release failures are logged and the
// line keeps its held state on the receipt.
func (s *SalesService) abort(ctx context.Context, receipt *domain.SaleReceipt) {
	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		if line.State != domain.ReservationHeld {
			continue
		}
		if err := s.ledger.Release(ctx, line.ReservationID); err != nil {
			s.logger.ErrorContext(ctx, "failed to release reservation during abort",
				slog.String("sale_id", receipt.SaleID.String()),
				slog.String("reservation_id", line.ReservationID.String()),
				slog.String("error", err.Error()))
			continue
		}
		line.State = domain.ReservationReleased
	}
}
