// internal/core/domain/reservation.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationState represents where a reservation is in its lifecycle
type ReservationState string

// Reservation states. Committed and Released are terminal.
const (
	ReservationHeld      ReservationState = "held"
	ReservationCommitted ReservationState = "committed"
	ReservationReleased  ReservationState = "released"
)

// Reservation is a pending sale's claim on a product's available stock
type Reservation struct {
	ID         uuid.UUID        `json:"reservation_id"`
	ProductID  string           `json:"product_id"`
	Quantity   int64            `json:"quantity"`
	State      ReservationState `json:"state"`
	CreatedAt  time.Time        `json:"created_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// NewReservation creates a Held reservation with a fresh id, created at the given time
func NewReservation(productID string, quantity int64, at time.Time) *Reservation {
	return &Reservation{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		State:     ReservationHeld,
		CreatedAt: at,
	}
}

// IsTerminal reports whether no further transition is possible
func (r *Reservation) IsTerminal() bool {
	return r.State == ReservationCommitted || r.State == ReservationReleased
}

// MarkCommitted moves a held reservation to committed
func (r *Reservation) MarkCommitted(at time.Time) error {
	return r.transition(ReservationCommitted, at)
}

// MarkReleased moves a held reservation to released
func (r *Reservation) MarkReleased(at time.Time) error {
	return r.transition(ReservationReleased, at)
}

func (r *Reservation) transition(to ReservationState, at time.Time) error {
	if r.State != ReservationHeld {
		return ErrInvalidReservationState
	}
	r.State = to
	r.ResolvedAt = &at
	return nil
}

// Clone returns a copy detached from the ledger's internal state
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
