// internal/core/domain/sale.go
package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a sale was paid
type PaymentMethod string

// Payment method constants
const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// SaleLine is one product and quantity on a checkout
type SaleLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity * unit price
func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// PaymentInfo is the payment metadata that travels with a sale
type PaymentInfo struct {
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// Sale is held by the caller. The ledger only sees the reservations derived from it.
type Sale struct {
	ID        uuid.UUID   `json:"sale_id"`
	CashierID string      `json:"cashier_id,omitempty"`
	ClientID  string      `json:"client_id,omitempty"`
	Lines     []SaleLine  `json:"lines"`
	Payment   PaymentInfo `json:"payment"`
}

// Validate checks the sale is well formed before any stock is touched
func (s *Sale) Validate() error {
	if len(s.Lines) == 0 {
		return fmt.Errorf("sale must have at least one line")
	}
	for i, l := range s.Lines {
		if l.ProductID == "" {
			return fmt.Errorf("line %d: product_id is required", i)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: %w", i, ErrInvalidQuantity)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("line %d: unit_price cannot be negative", i)
		}
	}
	if s.Payment.Amount.IsNegative() {
		return fmt.Errorf("payment amount cannot be negative")
	}
	return nil
}

// Total sums every line subtotal
func (s *Sale) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ReservationOutcome records what happened to one sale line
type ReservationOutcome struct {
	ProductID     string           `json:"product_id"`
	Quantity      int64            `json:"quantity"`
	ReservationID uuid.UUID        `json:"reservation_id"`
	State         ReservationState `json:"state"`
}

// SaleReceipt aggregates the outcome of a checkout
type SaleReceipt struct {
	SaleID   uuid.UUID            `json:"sale_id"`
	Lines    []ReservationOutcome `json:"lines"`
	Total    decimal.Decimal      `json:"total"`
	Change   decimal.Decimal      `json:"change"`
	Complete bool                 `json:"complete"`
}
