package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricetrack/api/internal/models"
	"github.com/pricetrack/api/internal/pricing"
	"github.com/pricetrack/api/internal/utils"
)

// ProductStore is the persistence surface the service needs for products.
type ProductStore interface {
	GetAll() ([]models.Product, error)
	GetByID(id int) (*models.Product, error)
	GetByName(name string) (*models.Product, error)
	FindByNameSubstring(query string) (*models.Product, error)
	CreateWithHistory(product *models.Product, points []models.PricePoint, userID *string) error
	UpdatePrice(id int, price float64) error
	DeleteCascade(id int) error
}

// PricePointStore is the persistence surface for price history.
type PricePointStore interface {
	Insert(point *models.PricePoint) error
	GetByProduct(productID int) ([]models.PricePoint, error)
	GetSince(productID int, since time.Time) ([]models.PricePoint, error)
}

// SearchEventStore is the persistence surface for the lookup log.
type SearchEventStore interface {
	Insert(productID int, userID *string) error
	GetByProduct(productID int) ([]models.SearchEvent, error)
	GetAllWithProduct() ([]models.SearchEventWithProduct, error)
	Delete(id int) error
}

// PriceOracle resolves a product name to a price. It is total: it always
// returns a usable number.
type PriceOracle interface {
	Fetch(ctx context.Context, productName, store string) float64
}

// ProductService implements the product tracking business logic: pricing,
// history backfill, windowed averages and the search log.
type ProductService struct {
	products  ProductStore
	points    PricePointStore
	searches  SearchEventStore
	oracle    PriceOracle
	generator *pricing.Generator
}

// NewProductService constructs a ProductService.
func NewProductService(products ProductStore, points PricePointStore, searches SearchEventStore, oracle PriceOracle, generator *pricing.Generator) *ProductService {
	return &ProductService{
		products:  products,
		points:    points,
		searches:  searches,
		oracle:    oracle,
		generator: generator,
	}
}

// AverageResult is the aggregate response for a price average query.
type AverageResult struct {
	ProductID    int                 `json:"product_id"`
	ProductName  string              `json:"product_name"`
	Period       string              `json:"period"`
	AveragePrice float64             `json:"average_price"`
	DataPoints   int                 `json:"data_points"`
	Prices       []models.PricePoint `json:"prices"`
}

// CreateProduct looks up or creates a product. An exact name match returns
// the existing product (created=false) and appends a search event. Otherwise
// the oracle prices the product and the product, its synthetic history and a
// search event are written as one atomic batch.
func (s *ProductService) CreateProduct(ctx context.Context, name, store string, userID *string) (*models.Product, bool, error) {
	if name == "" {
		return nil, false, utils.ErrNameRequired
	}

	existing, err := s.products.GetByName(name)
	if err == nil {
		if err := s.searches.Insert(existing.ID, userID); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	price := s.oracle.Fetch(ctx, name, store)

	now := time.Now().UTC()
	product := &models.Product{Name: name, CurrentPrice: price}
	points := s.generator.Backfill(0, price, now)

	if err := s.products.CreateWithHistory(product, points, userID); err != nil {
		return nil, false, err
	}

	log.Info().Int("product_id", product.ID).Str("name", name).
		Float64("price", price).Msg("product created")
	return product, true, nil
}

// ListProducts returns all tracked products.
func (s *ProductService) ListProducts() ([]models.Product, error) {
	return s.products.GetAll()
}

// GetProduct returns one product by id.
func (s *ProductService) GetProduct(id int) (*models.Product, error) {
	product, err := s.products.GetByID(id)
	if err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	return product, nil
}

// FindProductByName returns the first product whose name contains the query.
func (s *ProductService) FindProductByName(query string) (*models.Product, error) {
	if query == "" {
		return nil, utils.ErrNameRequired
	}
	product, err := s.products.FindByNameSubstring(query)
	if err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	return product, nil
}

// PriceHistory returns a product's stored history, ascending by timestamp.
func (s *ProductService) PriceHistory(id int) ([]models.PricePoint, error) {
	if _, err := s.products.GetByID(id); err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	return s.points.GetByProduct(id)
}

// PriceAverage computes the windowed average for a product. Empty windows are
// backfilled synthetically and sparse windows (under 5 points, except today)
// are topped up around the current price. Synthetic points are never persisted.
func (s *ProductService) PriceAverage(id int, periodValue string) (*AverageResult, error) {
	period, err := pricing.ParsePeriod(periodValue)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(id)
	if err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}

	now := time.Now().UTC()
	points, err := s.points.GetSince(id, pricing.WindowStart(period, now))
	if err != nil {
		return nil, err
	}

	switch {
	case len(points) == 0:
		points = s.generator.BackfillWindow(period, id, product.CurrentPrice, now)
	case len(points) < 5 && period != pricing.PeriodToday:
		points = s.generator.TopUp(period, id, product.CurrentPrice, points, now)
	}

	return &AverageResult{
		ProductID:    product.ID,
		ProductName:  product.Name,
		Period:       string(period),
		AveragePrice: pricing.Mean(points),
		DataPoints:   len(points),
		Prices:       points,
	}, nil
}

// RefreshPrice re-fetches a product's price, updates the product and appends
// one history point.
func (s *ProductService) RefreshPrice(ctx context.Context, id int, store string) (*models.Product, error) {
	product, err := s.products.GetByID(id)
	if err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}

	price := s.oracle.Fetch(ctx, product.Name, store)
	if err := s.products.UpdatePrice(id, price); err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	point := models.PricePoint{ProductID: id, Price: price, Timestamp: time.Now().UTC()}
	if err := s.points.Insert(&point); err != nil {
		return nil, err
	}

	product.CurrentPrice = price
	log.Info().Int("product_id", id).Float64("price", price).Msg("product price refreshed")
	return product, nil
}

// DeleteProduct removes a product and everything it owns. Returns the deleted
// product so callers can reference its name.
func (s *ProductService) DeleteProduct(id int) (*models.Product, error) {
	product, err := s.products.GetByID(id)
	if err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	if err := s.products.DeleteCascade(id); err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	log.Info().Int("product_id", id).Str("name", product.Name).Msg("product deleted")
	return product, nil
}

// SearchHistory returns a product's search events, most recent first.
func (s *ProductService) SearchHistory(id int) ([]models.SearchEvent, error) {
	if _, err := s.products.GetByID(id); err != nil {
		return nil, translateNoRows(err, utils.ErrProductNotFound)
	}
	return s.searches.GetByProduct(id)
}

// AllSearchHistory returns every search event joined with product details.
func (s *ProductService) AllSearchHistory() ([]models.SearchEventWithProduct, error) {
	return s.searches.GetAllWithProduct()
}

// DeleteSearchEvent removes one search event.
func (s *ProductService) DeleteSearchEvent(id int) error {
	if err := s.searches.Delete(id); err != nil {
		return translateNoRows(err, utils.ErrSearchEventNotFound)
	}
	return nil
}

// RefreshAll re-prices every tracked product. Used by the refresh worker;
// failures are logged per product and do not stop the sweep.
func (s *ProductService) RefreshAll(ctx context.Context) error {
	products, err := s.products.GetAll()
	if err != nil {
		return err
	}
	for _, p := range products {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.RefreshPrice(ctx, p.ID, ""); err != nil {
			log.Error().Err(err).Int("product_id", p.ID).Msg("refresh failed")
		}
	}
	return nil
}

func translateNoRows(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}
