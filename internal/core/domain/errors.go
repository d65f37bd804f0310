// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Ledger error kinds. Match with errors.Is.
var (
	ErrUnknownProduct          = errors.New("unknown product")
	ErrUnknownReservation      = errors.New("unknown reservation")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidReservationState = errors.New("invalid reservation state")
	ErrPersistence             = errors.New("persistence failure")

	ErrDuplicateProduct = errors.New("product already registered")
	ErrValidation       = errors.New("validation failed")
)

// LedgerError carries the operation and identifiers involved in a failed ledger call
type LedgerError struct {
	Op            string
	ProductID     string
	ReservationID uuid.UUID
	Err           error
}

func (e *LedgerError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ProductID != "" {
		fmt.Fprintf(&b, " product=%s", e.ProductID)
	}
	if e.ReservationID != uuid.Nil {
		fmt.Fprintf(&b, " reservation=%s", e.ReservationID)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a storage failure so it matches ErrPersistence
// while keeping the storage cause reachable.
func NewPersistenceError(op, productID string, reservationID uuid.UUID, cause error) *LedgerError {
	return &LedgerError{
		Op:            op,
		ProductID:     productID,
		ReservationID: reservationID,
		Err:           errors.Join(ErrPersistence, cause),
	}
}

// InsufficientStockError details a rejected reservation
type InsufficientStockError struct {
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
