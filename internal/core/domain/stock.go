// internal/core/domain/stock.go
package domain

import (
	"fmt"
	"math"
	"time"
)

// StockRecord is one product's current on-hand, reserved and threshold state
type StockRecord struct {
	ProductID       string     `json:"product_id"`
	OnHand          int64      `json:"on_hand"`
	Reserved        int64      `json:"reserved"`
	Minimum         int64      `json:"minimum"`
	Maximum         *int64     `json:"maximum,omitempty"`
	Location        string     `json:"location,omitempty"`
	Active          bool       `json:"active"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks the hard invariants of a stock record
func (r *StockRecord) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if r.OnHand < 0 {
		return fmt.Errorf("on_hand cannot be negative")
	}
	if r.Reserved < 0 {
		return fmt.Errorf("reserved cannot be negative")
	}
	if r.Reserved > r.OnHand {
		return fmt.Errorf("reserved (%d) cannot exceed on_hand (%d)", r.Reserved, r.OnHand)
	}
	if r.Minimum < 0 {
		return fmt.Errorf("minimum cannot be negative")
	}
	if r.Maximum != nil && *r.Maximum < r.Minimum {
		return fmt.Errorf("maximum (%d) must be >= minimum (%d)", *r.Maximum, r.Minimum)
	}
	return nil
}

// Available returns the balance that can still be reserved
func (r *StockRecord) Available() int64 {
	return r.OnHand - r.Reserved
}

// IsLowStock reports whether on-hand stock is at or below the minimum threshold
func (r *StockRecord) IsLowStock() bool {
	return r.OnHand <= r.Minimum
}

// IsOverstocked reports a soft maximum violation. It is never enforced.
func (r *StockRecord) IsOverstocked() bool {
	return r.Maximum != nil && r.OnHand > *r.Maximum
}

// Clone returns a deep copy safe to hand to other goroutines
func (r *StockRecord) Clone() *StockRecord {
	c := *r
	if r.Maximum != nil {
		m := *r.Maximum
		c.Maximum = &m
	}
	if r.LastRestockedAt != nil {
		t := *r.LastRestockedAt
		c.LastRestockedAt = &t
	}
	return &c
}

// PrepareForStorage fills timestamps before the first save
func (r *StockRecord) PrepareForStorage() {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// ApplyReserve moves qty from available into reserved
func (r *StockRecord) ApplyReserve(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if r.Available() < qty {
		return &InsufficientStockError{Requested: qty, Available: r.Available()}
	}
	r.Reserved += qty
	return nil
}

// ApplyCommit deducts a reserved quantity from stock permanently
func (r *StockRecord) ApplyCommit(qty int64) {
	r.OnHand -= qty
	r.Reserved -= qty
}

// ApplyRelease returns a reserved quantity to the available balance
func (r *StockRecord) ApplyRelease(qty int64) {
	r.Reserved -= qty
}

// ApplyRestock adds qty to on-hand stock and stamps the restock time
func (r *StockRecord) ApplyRestock(qty int64, at time.Time) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > math.MaxInt64-r.OnHand {
		return fmt.Errorf("%w: restock of %d would overflow on_hand %d", ErrInvalidQuantity, qty, r.OnHand)
	}
	r.OnHand += qty
	r.LastRestockedAt = &at
	return nil
}
