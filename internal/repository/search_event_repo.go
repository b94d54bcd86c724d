package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/pricetrack/api/internal/models"
)

// SearchEventRepository handles the append-only lookup log.
type SearchEventRepository struct {
	db *sqlx.DB
}

// NewSearchEventRepository creates a new SearchEventRepository.
func NewSearchEventRepository(db *sqlx.DB) *SearchEventRepository {
	return &SearchEventRepository{db: db}
}

// Insert appends one search event for a product.
func (r *SearchEventRepository) Insert(productID int, userID *string) error {
	const q = `INSERT INTO search_events (product_id, user_id) VALUES ($1, $2)`
	_, err := r.db.Exec(q, productID, userID)
	return err
}

// GetByProduct returns a product's search events, most recent first.
func (r *SearchEventRepository) GetByProduct(productID int) ([]models.SearchEvent, error) {
	const q = `SELECT * FROM search_events WHERE product_id = $1 ORDER BY timestamp DESC`
	events := []models.SearchEvent{}
	if err := r.db.Select(&events, q, productID); err != nil {
		return nil, err
	}
	return events, nil
}

// GetAllWithProduct returns every search event joined with its product's name
// and current price, most recent first.
func (r *SearchEventRepository) GetAllWithProduct() ([]models.SearchEventWithProduct, error) {
	const q = `
        SELECT se.id, se.product_id, se.timestamp, se.user_id,
               p.name AS product_name, p.current_price
        FROM search_events se
        JOIN products p ON p.id = se.product_id
        ORDER BY se.timestamp DESC`
	events := []models.SearchEventWithProduct{}
	if err := r.db.Select(&events, q); err != nil {
		return nil, err
	}
	return events, nil
}

// Delete removes a single search event by id.
func (r *SearchEventRepository) Delete(id int) error {
	res, err := r.db.Exec(`DELETE FROM search_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
