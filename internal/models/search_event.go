package models

import "time"

// SearchEvent records one lookup of a product. Append-only.
type SearchEvent struct {
	ID        int       `db:"id" json:"id"`
	ProductID int       `db:"product_id" json:"product_id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	UserID    *string   `db:"user_id" json:"user_id"`
}

// SearchEventWithProduct is a search event joined with its product,
// used by the global search history listing.
type SearchEventWithProduct struct {
	SearchEvent
	ProductName  string  `db:"product_name" json:"product_name"`
	CurrentPrice float64 `db:"current_price" json:"current_price"`
}
