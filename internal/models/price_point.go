package models

import "time"

// PricePoint is one (price, timestamp) sample in a product's history.
// Points are immutable once written. Synthetic points generated for display
// are never persisted and carry a zero ID.
type PricePoint struct {
	ID        int       `db:"id" json:"id,omitempty"`
	ProductID int       `db:"product_id" json:"product_id"`
	Price     float64   `db:"price" json:"price"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}
