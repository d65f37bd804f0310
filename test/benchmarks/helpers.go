// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// memoryRepository keeps snapshots in a map so benchmarks measure the ledger, not Postgres
type memoryRepository struct {
	mu      sync.Mutex
	records map[string]domain.StockRecord
}

func newMemoryRepository(records ...domain.StockRecord) *memoryRepository {
	repo := &memoryRepository{records: make(map[string]domain.StockRecord, len(records))}
	for _, rec := range records {
		repo.records[rec.ProductID] = rec
	}
	return repo
}

func (r *memoryRepository) Load(_ context.Context, productID string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[productID]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (r *memoryRepository) Save(_ context.Context, record *domain.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ProductID] = *record.Clone()
	return nil
}

func (r *memoryRepository) FindAll(_ context.Context) ([]domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StockRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec.Clone())
	}
	return out, nil
}

// createDeliveryNote renders the text lines of a delivery note with numItems products
func createDeliveryNote(numItems int) []string {
	lines := []string{
		"ACME WHOLESALE",
		"DELIVERY NOTE #12345",
		"PRODUCT   DESCRIPTION                  QTY",
	}
	descriptions := []string{
		"Whole milk 1L",
		"Sourdough loaf",
		"Free range eggs dozen",
		"Cheddar 200g",
		"Orange juice 1L",
	}
	for i := 0; i < numItems; i++ {
		lines = append(lines, fmt.Sprintf("SKU-%05d %s %s %d",
			i, descriptions[i%len(descriptions)], strings.Repeat(" ", i%4), 1+i%48))
	}
	return append(lines, "TOTAL", "RECEIVED BY ________")
}
