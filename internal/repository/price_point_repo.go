package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pricetrack/api/internal/models"
)

// PricePointRepository handles data access for price history points.
type PricePointRepository struct {
	db *sqlx.DB
}

// NewPricePointRepository creates a new PricePointRepository.
func NewPricePointRepository(db *sqlx.DB) *PricePointRepository {
	return &PricePointRepository{db: db}
}

// Insert appends a single price point. When the point's timestamp is zero the
// database clock is used.
func (r *PricePointRepository) Insert(point *models.PricePoint) error {
	if point.Timestamp.IsZero() {
		point.Timestamp = time.Now().UTC()
	}
	const q = `
        INSERT INTO price_points (product_id, price, timestamp)
        VALUES ($1, $2, $3)
        RETURNING id`
	return r.db.QueryRowx(q, point.ProductID, point.Price, point.Timestamp).Scan(&point.ID)
}

// GetByProduct returns a product's full history, ascending by timestamp.
func (r *PricePointRepository) GetByProduct(productID int) ([]models.PricePoint, error) {
	const q = `SELECT * FROM price_points WHERE product_id = $1 ORDER BY timestamp ASC`
	points := []models.PricePoint{}
	if err := r.db.Select(&points, q, productID); err != nil {
		return nil, err
	}
	return points, nil
}

// GetSince returns points with timestamp >= since, ascending.
func (r *PricePointRepository) GetSince(productID int, since time.Time) ([]models.PricePoint, error) {
	const q = `
        SELECT * FROM price_points
        WHERE product_id = $1 AND timestamp >= $2
        ORDER BY timestamp ASC`
	points := []models.PricePoint{}
	if err := r.db.Select(&points, q, productID, since); err != nil {
		return nil, err
	}
	return points, nil
}
