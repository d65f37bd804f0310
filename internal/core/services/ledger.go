// internal/core/services/ledger.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// DefaultSaveTimeout bounds how long a product lock can be held by a save
const DefaultSaveTimeout = 5 * time.Second

// productEntry holds one product's state. working is only touched with mu held.
// snapshot is replaced, never mutated, after every successful save.
type productEntry struct {
	mu       sync.Mutex
	working  *domain.StockRecord
	gone     bool
	snapshot atomic.Pointer[domain.StockRecord]
}

func (e *productEntry) publish() {
	e.snapshot.Store(e.working.Clone())
}

// Ledger is the single owner of per-product stock state
type Ledger struct {
	repo        ports.StockRepository
	notifier    ports.StockNotifier
	logger      *slog.Logger
	saveTimeout time.Duration
	now         func() time.Time

	// mu guards the products map only, never an operation
	mu       sync.RWMutex
	products map[string]*productEntry
	loads    singleflight.Group

	warmed    atomic.Bool
	warmGroup singleflight.Group

	// reservation state changes happen under the owning product's lock
	resMu        sync.RWMutex
	reservations map[uuid.UUID]*domain.Reservation
}

// Statically assert that *Ledger implements the LedgerService interface.
var _ ports.LedgerService = (*Ledger)(nil)

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithNotifier sets the hook called on low stock and overstock transitions
func WithNotifier(n ports.StockNotifier) LedgerOption {
	return func(l *Ledger) { l.notifier = n }
}

// WithSaveTimeout overrides DefaultSaveTimeout
func WithSaveTimeout(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		if d > 0 {
			l.saveTimeout = d
		}
	}
}

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger persisting through repo
func NewLedger(repo ports.StockRepository, logger *slog.Logger, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:         repo,
		logger:       logger.With(slog.String("service", "ledger")),
		saveTimeout:  DefaultSaveTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		products:     make(map[string]*productEntry),
		reservations: make(map[uuid.UUID]*domain.Reservation),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Warm hydrates every persisted record. Reserved counts found in storage belong
// to reservations of a previous process and are released before the record is used.
func (l *Ledger) Warm(ctx context.Context) error {
	_, err, _ := l.warmGroup.Do("warm", func() (interface{}, error) {
		records, err := l.repo.FindAll(ctx)
		if err != nil {
			return nil, domain.NewPersistenceError("warm", "", uuid.Nil, err)
		}
		for i := range records {
			rec := records[i]
			if _, err := l.hydrate(ctx, rec.ProductID, func() (*domain.StockRecord, error) {
				return &rec, nil
			}); err != nil {
				return nil, domain.NewPersistenceError("warm", rec.ProductID, uuid.Nil, err)
			}
		}
		l.warmed.Store(true)
		l.logger.InfoContext(ctx, "ledger warmed", slog.Int("products", len(records)))
		return nil, nil
	})
	return err
}

// Register adds a product entering inventory for the first time
func (l *Ledger) Register(ctx context.Context, record domain.StockRecord) (*domain.StockRecord, error) {
	rec := record.Clone()
	rec.Reserved = 0
	rec.Active = true
	rec.PrepareForStorage()
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	existing, err := l.entry(ctx, rec.ProductID)
	if err != nil {
		return nil, domain.NewPersistenceError("register", rec.ProductID, uuid.Nil, err)
	}
	if existing != nil {
		return nil, &domain.LedgerError{Op: "register", ProductID: rec.ProductID, Err: domain.ErrDuplicateProduct}
	}

	e := &productEntry{working: rec}
	e.mu.Lock()
	defer e.mu.Unlock()

	l.mu.Lock()
	if _, ok := l.products[rec.ProductID]; ok {
		l.mu.Unlock()
		return nil, &domain.LedgerError{Op: "register", ProductID: rec.ProductID, Err: domain.ErrDuplicateProduct}
	}
	l.products[rec.ProductID] = e
	l.mu.Unlock()

	if err := l.persist(ctx, rec); err != nil {
		e.gone = true
		l.mu.Lock()
		delete(l.products, rec.ProductID)
		l.mu.Unlock()
		return nil, domain.NewPersistenceError("register", rec.ProductID, uuid.Nil, err)
	}
	e.publish()

	l.logger.InfoContext(ctx, "registered product stock",
		slog.String("product_id", rec.ProductID),
		slog.Int64("on_hand", rec.OnHand),
		slog.Int64("minimum", rec.Minimum))

	return rec.Clone(), nil
}

// Deactivate hides a product from queries and new reservations without deleting it
func (l *Ledger) Deactivate(ctx context.Context, productID string) error {
	_, _, err := l.mutate(ctx, "deactivate", productID, uuid.Nil, func(rec *domain.StockRecord) (func(), error) {
		rec.Active = false
		return nil, nil
	})
	if err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "deactivated product stock", slog.String("product_id", productID))
	return nil
}

// Get returns the last persisted snapshot of a product
func (l *Ledger) Get(ctx context.Context, productID string) (*domain.StockRecord, error) {
	e, err := l.entry(ctx, productID)
	if err != nil {
		return nil, domain.NewPersistenceError("get", productID, uuid.Nil, err)
	}
	if e == nil {
		return nil, &domain.LedgerError{Op: "get", ProductID: productID, Err: domain.ErrUnknownProduct}
	}
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, &domain.LedgerError{Op: "get", ProductID: productID, Err: domain.ErrUnknownProduct}
	}
	return snap.Clone(), nil
}

// GetReservation returns a copy of a reservation
func (l *Ledger) GetReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	res := l.reservation(reservationID)
	if res == nil {
		return nil, &domain.LedgerError{Op: "get_reservation", ReservationID: reservationID, Err: domain.ErrUnknownReservation}
	}

	l.mu.RLock()
	e := l.products[res.ProductID]
	l.mu.RUnlock()
	if e == nil {
		return res.Clone(), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return res.Clone(), nil
}

// Reserve claims quantity from the product's available balance
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int64) (*domain.Reservation, error) {
	if quantity <= 0 {
		return nil, &domain.LedgerError{Op: "reserve", ProductID: productID, Err: domain.ErrInvalidQuantity}
	}

	var res *domain.Reservation
	_, after, err := l.mutate(ctx, "reserve", productID, uuid.Nil, func(rec *domain.StockRecord) (func(), error) {
		if !rec.Active {
			return nil, domain.ErrUnknownProduct
		}
		if err := rec.ApplyReserve(quantity); err != nil {
			return nil, err
		}
		res = domain.NewReservation(productID, quantity, l.now())
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	// the id has not left this call yet, so nobody can race on it
	l.resMu.Lock()
	l.reservations[res.ID] = res
	l.resMu.Unlock()

	l.logger.InfoContext(ctx, "reserved stock",
		slog.String("product_id", productID),
		slog.String("reservation_id", res.ID.String()),
		slog.Int64("quantity", quantity),
		slog.Int64("available", after.Available()))

	return res.Clone(), nil
}

// Commit permanently deducts a held reservation from stock
func (l *Ledger) Commit(ctx context.Context, reservationID uuid.UUID) error {
	return l.resolve(ctx, "commit", reservationID, func(rec *domain.StockRecord, res *domain.Reservation) error {
		if err := res.MarkCommitted(l.now()); err != nil {
			return err
		}
		rec.ApplyCommit(res.Quantity)
		return nil
	})
}

// Release returns a held reservation to the available balance
func (l *Ledger) Release(ctx context.Context, reservationID uuid.UUID) error {
	return l.resolve(ctx, "release", reservationID, func(rec *domain.StockRecord, res *domain.Reservation) error {
		if err := res.MarkReleased(l.now()); err != nil {
			return err
		}
		rec.ApplyRelease(res.Quantity)
		return nil
	})
}

// Restock adds quantity to on-hand stock. Exceeding the maximum is reported, not rejected.
func (l *Ledger) Restock(ctx context.Context, productID string, quantity int64) (*domain.StockRecord, error) {
	if quantity <= 0 {
		return nil, &domain.LedgerError{Op: "restock", ProductID: productID, Err: domain.ErrInvalidQuantity}
	}

	before, after, err := l.mutate(ctx, "restock", productID, uuid.Nil, func(rec *domain.StockRecord) (func(), error) {
		if !rec.Active {
			return nil, domain.ErrUnknownProduct
		}
		return nil, rec.ApplyRestock(quantity, l.now())
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "restocked product",
		slog.String("product_id", productID),
		slog.Int64("quantity", quantity),
		slog.Int64("on_hand", after.OnHand))

	l.report(ctx, before, after)
	return after, nil
}

// QueryLowStock returns active records with on-hand at or below minimum, ordered by product id
func (l *Ledger) QueryLowStock(ctx context.Context) ([]domain.StockRecord, error) {
	return l.query(ctx, func(r *domain.StockRecord) bool {
		return r.IsLowStock()
	})
}

// QueryByLocation returns active records stored at location, ordered by product id
func (l *Ledger) QueryByLocation(ctx context.Context, location string) ([]domain.StockRecord, error) {
	return l.query(ctx, func(r *domain.StockRecord) bool {
		return r.Location == location
	})
}

// PruneResolved forgets committed and released reservations resolved before cutoff.
// Held reservations are never pruned.
func (l *Ledger) PruneResolved(ctx context.Context, cutoff time.Time) int {
	l.resMu.RLock()
	candidates := make([]*domain.Reservation, 0)
	for _, res := range l.reservations {
		candidates = append(candidates, res)
	}
	l.resMu.RUnlock()

	pruned := 0
	for _, res := range candidates {
		l.mu.RLock()
		e := l.products[res.ProductID]
		l.mu.RUnlock()
		if e == nil {
			continue
		}

		e.mu.Lock()
		expired := res.IsTerminal() && res.ResolvedAt != nil && res.ResolvedAt.Before(cutoff)
		if expired {
			l.resMu.Lock()
			delete(l.reservations, res.ID)
			l.resMu.Unlock()
			pruned++
		}
		e.mu.Unlock()
	}

	if pruned > 0 {
		l.logger.DebugContext(ctx, "pruned resolved reservations", slog.Int("count", pruned))
	}
	return pruned
}

func (l *Ledger) resolve(ctx context.Context, op string, reservationID uuid.UUID,
	apply func(*domain.StockRecord, *domain.Reservation) error) error {
	res := l.reservation(reservationID)
	if res == nil {
		return &domain.LedgerError{Op: op, ReservationID: reservationID, Err: domain.ErrUnknownReservation}
	}

	before, after, err := l.mutate(ctx, op, res.ProductID, reservationID, func(rec *domain.StockRecord) (func(), error) {
		prevState, prevResolved := res.State, res.ResolvedAt
		if err := apply(rec, res); err != nil {
			return nil, err
		}
		return func() {
			res.State = prevState
			res.ResolvedAt = prevResolved
		}, nil
	})
	if err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "resolved reservation",
		slog.String("op", op),
		slog.String("product_id", res.ProductID),
		slog.String("reservation_id", reservationID.String()),
		slog.Int64("quantity", res.Quantity),
		slog.Int64("on_hand", after.OnHand),
		slog.Int64("reserved", after.Reserved))

	l.report(ctx, before, after)
	return nil
}

// mutate runs fn on the product's working record with the product lock held,
// persists the result and publishes it. If fn or the save fails, the record is
// restored and fn's undo runs before the lock is released.
func (l *Ledger) mutate(ctx context.Context, op, productID string, reservationID uuid.UUID,
	fn func(*domain.StockRecord) (func(), error)) (*domain.StockRecord, *domain.StockRecord, error) {
	e, err := l.entry(ctx, productID)
	if err != nil {
		return nil, nil, domain.NewPersistenceError(op, productID, reservationID, err)
	}
	if e == nil {
		return nil, nil, &domain.LedgerError{Op: op, ProductID: productID, ReservationID: reservationID, Err: domain.ErrUnknownProduct}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gone {
		return nil, nil, &domain.LedgerError{Op: op, ProductID: productID, ReservationID: reservationID, Err: domain.ErrUnknownProduct}
	}

	before := e.working.Clone()
	undo, err := fn(e.working)
	if err != nil {
		e.working = before
		return nil, nil, &domain.LedgerError{Op: op, ProductID: productID, ReservationID: reservationID, Err: err}
	}

	if err := l.persist(ctx, e.working); err != nil {
		e.working = before
		if undo != nil {
			undo()
		}
		l.logger.ErrorContext(ctx, "save failed, rolled back",
			slog.String("op", op),
			slog.String("product_id", productID),
			slog.String("error", err.Error()))
		return nil, nil, domain.NewPersistenceError(op, productID, reservationID, err)
	}

	e.publish()
	return before, e.working.Clone(), nil
}

func (l *Ledger) persist(ctx context.Context, rec *domain.StockRecord) error {
	ctx, cancel := context.WithTimeout(ctx, l.saveTimeout)
	defer cancel()

	rec.UpdatedAt = l.now()
	return l.repo.Save(ctx, rec.Clone())
}

// entry finds or hydrates a product. It returns nil, nil for unknown products.
func (l *Ledger) entry(ctx context.Context, productID string) (*productEntry, error) {
	l.mu.RLock()
	e, ok := l.products[productID]
	l.mu.RUnlock()
	if ok {
		return e, nil
	}

	return l.hydrate(ctx, productID, func() (*domain.StockRecord, error) {
		return l.repo.Load(ctx, productID)
	})
}

// hydrate installs a record from storage once per product, however many callers race on it
func (l *Ledger) hydrate(ctx context.Context, productID string, fetch func() (*domain.StockRecord, error)) (*productEntry, error) {
	v, err, _ := l.loads.Do(productID, func() (interface{}, error) {
		l.mu.RLock()
		e, ok := l.products[productID]
		l.mu.RUnlock()
		if ok {
			return e, nil
		}

		rec, err := fetch()
		if err != nil {
			return nil, fmt.Errorf("failed to load stock record: %w", err)
		}
		if rec == nil {
			return nil, nil
		}
		rec = rec.Clone()

		if rec.Reserved > 0 {
			orphaned := rec.Reserved
			rec.Reserved = 0
			if err := l.persist(ctx, rec); err != nil {
				return nil, fmt.Errorf("failed to release orphaned reservations: %w", err)
			}
			l.logger.WarnContext(ctx, "released orphaned reservations",
				slog.String("product_id", productID),
				slog.Int64("quantity", orphaned))
		}

		e = &productEntry{working: rec}
		e.publish()

		l.mu.Lock()
		if existing, ok := l.products[productID]; ok {
			l.mu.Unlock()
			return existing, nil
		}
		l.products[productID] = e
		l.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*productEntry), nil
}

func (l *Ledger) reservation(id uuid.UUID) *domain.Reservation {
	l.resMu.RLock()
	defer l.resMu.RUnlock()
	return l.reservations[id]
}

func (l *Ledger) query(ctx context.Context, match func(*domain.StockRecord) bool) ([]domain.StockRecord, error) {
	if !l.warmed.Load() {
		if err := l.Warm(ctx); err != nil {
			return nil, fmt.Errorf("failed to load stock records: %w", err)
		}
	}

	l.mu.RLock()
	entries := make([]*productEntry, 0, len(l.products))
	for _, e := range l.products {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	out := make([]domain.StockRecord, 0)
	for _, e := range entries {
		snap := e.snapshot.Load()
		if snap == nil || !snap.Active || !match(snap) {
			continue
		}
		out = append(out, *snap.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// report fires the notifier outside any lock. Failures are logged, never returned.
func (l *Ledger) report(ctx context.Context, before, after *domain.StockRecord) {
	if before == nil || after == nil {
		return
	}

	if after.IsLowStock() && !before.IsLowStock() {
		l.logger.WarnContext(ctx, "product reached low stock",
			slog.String("product_id", after.ProductID),
			slog.Int64("on_hand", after.OnHand),
			slog.Int64("minimum", after.Minimum))
		if l.notifier != nil {
			if err := l.notifier.NotifyLowStock(ctx, *after); err != nil {
				l.logger.WarnContext(ctx, "low stock notification failed",
					slog.String("product_id", after.ProductID),
					slog.String("error", err.Error()))
			}
		}
	}

	if after.IsOverstocked() && after.OnHand > before.OnHand {
		l.logger.WarnContext(ctx, "stock exceeds maximum",
			slog.String("product_id", after.ProductID),
			slog.Int64("on_hand", after.OnHand),
			slog.Int64("maximum", *after.Maximum))
		if l.notifier != nil {
			if err := l.notifier.NotifyOverstock(ctx, *after); err != nil {
				l.logger.WarnContext(ctx, "overstock notification failed",
					slog.String("product_id", after.ProductID),
					slog.String("error", err.Error()))
			}
		}
	}
}
