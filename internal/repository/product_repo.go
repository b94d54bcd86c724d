package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/pricetrack/api/internal/models"
)

// ProductRepository handles data access for products, including the
// transactional composites that span a product and its child rows.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetAll returns all products ordered by id.
func (r *ProductRepository) GetAll() ([]models.Product, error) {
	const q = `SELECT * FROM products ORDER BY id`
	products := []models.Product{}
	if err := r.db.Select(&products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(id int) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByName returns the first product whose name matches exactly.
func (r *ProductRepository) GetByName(name string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE name = $1 ORDER BY id LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, name); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByNameSubstring returns the first product whose name contains the query,
// case-insensitive.
func (r *ProductRepository) FindByNameSubstring(query string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE name ILIKE '%' || $1 || '%' ORDER BY id LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, query); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateWithHistory inserts a product together with its initial price history
// and a search event in one transaction. If any write fails, nothing is kept.
// On success the product's ID and timestamps are populated and every point
// carries the new product id.
func (r *ProductRepository) CreateWithHistory(product *models.Product, points []models.PricePoint, userID *string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertProduct = `
        INSERT INTO products (name, current_price)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRowx(insertProduct, product.Name, product.CurrentPrice).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt); err != nil {
		return err
	}

	const insertPoint = `INSERT INTO price_points (product_id, price, timestamp) VALUES ($1, $2, $3)`
	stmt, err := tx.Preparex(insertPoint)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range points {
		points[i].ProductID = product.ID
		if _, err := stmt.Exec(product.ID, points[i].Price, points[i].Timestamp); err != nil {
			return err
		}
	}

	const insertEvent = `INSERT INTO search_events (product_id, user_id) VALUES ($1, $2)`
	if _, err := tx.Exec(insertEvent, product.ID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePrice sets a product's current price.
func (r *ProductRepository) UpdatePrice(id int, price float64) error {
	const q = `UPDATE products SET current_price = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.Exec(q, id, price)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCascade removes a product together with its price points and search
// events in one transaction. A product owns its children; none outlive it.
func (r *ProductRepository) DeleteCascade(id int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM price_points WHERE product_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM search_events WHERE product_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}
