package handler

import (
	"context"
	"database/sql"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricetrack/api/internal/models"
	"github.com/pricetrack/api/internal/pricing"
	"github.com/pricetrack/api/internal/service"
)

// stubStore satisfies the service store interfaces with a single stored
// product (id 1) and no history, enough to exercise the HTTP status mapping.
type stubStore struct{}

var stubProduct = models.Product{ID: 1, Name: "iPhone 15", CurrentPrice: 799.99}

func (stubStore) GetAll() ([]models.Product, error) { return []models.Product{stubProduct}, nil }

func (stubStore) GetByID(id int) (*models.Product, error) {
	if id != stubProduct.ID {
		return nil, sql.ErrNoRows
	}
	cp := stubProduct
	return &cp, nil
}

func (stubStore) GetByName(name string) (*models.Product, error) {
	if name != stubProduct.Name {
		return nil, sql.ErrNoRows
	}
	cp := stubProduct
	return &cp, nil
}

func (stubStore) FindByNameSubstring(query string) (*models.Product, error) {
	if !strings.Contains(strings.ToLower(stubProduct.Name), strings.ToLower(query)) {
		return nil, sql.ErrNoRows
	}
	cp := stubProduct
	return &cp, nil
}

func (stubStore) CreateWithHistory(product *models.Product, points []models.PricePoint, userID *string) error {
	product.ID = 2
	return nil
}

func (stubStore) UpdatePrice(id int, price float64) error { return nil }
func (stubStore) DeleteCascade(id int) error              { return nil }

func (stubStore) Insert(point *models.PricePoint) error { return nil }
func (stubStore) GetByProduct(productID int) ([]models.PricePoint, error) {
	return []models.PricePoint{}, nil
}
func (stubStore) GetSince(productID int, since time.Time) ([]models.PricePoint, error) {
	return []models.PricePoint{}, nil
}

type stubSearches struct{}

func (stubSearches) Insert(productID int, userID *string) error { return nil }

func (stubSearches) GetByProduct(productID int) ([]models.SearchEvent, error) { return nil, nil }

func (stubSearches) GetAllWithProduct() ([]models.SearchEventWithProduct, error) { return nil, nil }

func (stubSearches) Delete(id int) error { return sql.ErrNoRows }

type stubOracle struct{}

func (stubOracle) Fetch(ctx context.Context, productName, store string) float64 { return 42.42 }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	gen := pricing.NewGenerator(rand.New(rand.NewSource(1)))
	svc := service.NewProductService(stubStore{}, stubStore{}, stubSearches{}, stubOracle{}, gen)
	h := NewProductHandler(svc)
	sh := NewSearchHistoryHandler(svc)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/products", h.GetProducts)
	api.POST("/products", h.CreateProduct)
	api.GET("/products/by-name", h.GetProductByName)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/products/:id/price_average", h.GetPriceAverage)
	api.DELETE("/search_history/:id", sh.Delete)
	return router
}

func TestProductEndpointStatusCodes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list products", "GET", "/api/products", "", 200},
		{"get product", "GET", "/api/products/1", "", 200},
		{"get missing product", "GET", "/api/products/99", "", 404},
		{"get bad id", "GET", "/api/products/abc", "", 400},
		{"average default period", "GET", "/api/products/1/price_average", "", 200},
		{"average explicit period", "GET", "/api/products/1/price_average?period=week", "", 200},
		{"average invalid period", "GET", "/api/products/1/price_average?period=bogus", "", 400},
		{"average missing product", "GET", "/api/products/99/price_average?period=week", "", 404},
		{"create without name", "POST", "/api/products", `{}`, 400},
		{"create new product", "POST", "/api/products", `{"name":"Pixel 9"}`, 201},
		{"create existing product", "POST", "/api/products", `{"name":"iPhone 15"}`, 200},
		{"by-name match", "GET", "/api/products/by-name?name=iphone", "", 200},
		{"by-name miss", "GET", "/api/products/by-name?name=nope", "", 404},
		{"by-name without query", "GET", "/api/products/by-name", "", 400},
		{"delete missing search event", "DELETE", "/api/search_history/5", "", 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body: %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestPriceAverageResponseShape(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/products/1/price_average?period=month", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, field := range []string{`"product_id"`, `"product_name"`, `"period"`, `"average_price"`, `"data_points"`, `"prices"`} {
		if !strings.Contains(body, field) {
			t.Errorf("response missing %s: %s", field, body)
		}
	}
	// Empty stored history for the month window backfills 10 + 1 points.
	if !strings.Contains(body, `"data_points":11`) {
		t.Errorf("expected data_points 11 in %s", body)
	}
}
