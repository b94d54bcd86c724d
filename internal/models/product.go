package models

import "time"

// Product is a tracked product and its latest known price.
// Fields are tagged for both DB scanning and JSON serialization.
type Product struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	CurrentPrice float64   `db:"current_price" json:"current_price"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}
