// internal/core/domain/report.go
package domain

import "time"

// LocationSummary aggregates persisted stock for one storage location
type LocationSummary struct {
	Location      string `json:"location"`
	Products      int64  `json:"products"`
	TotalOnHand   int64  `json:"total_on_hand"`
	TotalReserved int64  `json:"total_reserved"`
	LowStock      int64  `json:"low_stock"`
}

// DashboardSummary is the cached overview served to reporting callers
type DashboardSummary struct {
	Locations     []LocationSummary `json:"locations"`
	LowStockTotal int64             `json:"low_stock_total"`
}

// Alert kinds
const (
	AlertLowStock  = "low_stock"
	AlertOverstock = "overstock"
)

// StockAlert is the payload recorded for a low stock or overstock event
type StockAlert struct {
	Kind      string    `json:"kind"`
	ProductID string    `json:"product_id"`
	OnHand    int64     `json:"on_hand"`
	Minimum   int64     `json:"minimum"`
	Maximum   *int64    `json:"maximum,omitempty"`
	Location  string    `json:"location,omitempty"`
	RaisedAt  time.Time `json:"raised_at"`
}

// NewStockAlert captures rec's levels for kind
func NewStockAlert(kind string, rec StockRecord, at time.Time) StockAlert {
	alert := StockAlert{
		Kind:      kind,
		ProductID: rec.ProductID,
		OnHand:    rec.OnHand,
		Minimum:   rec.Minimum,
		Location:  rec.Location,
		RaisedAt:  at,
	}
	if rec.Maximum != nil {
		max := *rec.Maximum
		alert.Maximum = &max
	}
	return alert
}
