package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pricetrack/api/internal/service"
	"github.com/pricetrack/api/internal/utils"
)

// ProductHandler handles product-related HTTP endpoints.
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// createProductRequest is the POST /api/products payload.
type createProductRequest struct {
	Name  string `json:"name"`
	Store string `json:"store"`
}

// refreshRequest is the POST /api/products/:id/refresh payload.
type refreshRequest struct {
	Store string `json:"store"`
}

// GetProducts returns all tracked products.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.ListProducts()
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get products")
		return
	}
	utils.Success(c, 200, "Products retrieved successfully", products)
}

// CreateProduct looks up or creates a product. A new product is priced by the
// oracle and answered with 201; an existing exact-name match is answered with
// 200 and logged as a search event.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		utils.Error(c, 400, "NAME_REQUIRED", "Product name is required")
		return
	}

	product, created, err := h.productService.CreateProduct(c.Request.Context(), req.Name, req.Store, userIDFromHeader(c))
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("failed to create product")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create product")
		return
	}

	if created {
		utils.Success(c, 201, "Product created successfully", product)
		return
	}
	utils.Success(c, 200, "Product already tracked", product)
}

// GetProduct returns one product by id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(id)
	if err != nil {
		h.respondError(c, err, "failed to get product")
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", product)
}

// GetProductByName returns the first product whose name contains the query.
func (h *ProductHandler) GetProductByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		utils.Error(c, 400, "NAME_REQUIRED", "Product name is required")
		return
	}
	product, err := h.productService.FindProductByName(name)
	if err != nil {
		h.respondError(c, err, "failed to find product by name")
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", product)
}

// GetPriceHistory returns a product's stored history, oldest first.
func (h *ProductHandler) GetPriceHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	points, err := h.productService.PriceHistory(id)
	if err != nil {
		h.respondError(c, err, "failed to get price history")
		return
	}
	utils.Success(c, 200, "Price history retrieved successfully", points)
}

// GetPriceAverage returns the windowed average for ?period= (today, week,
// month, year; default today).
func (h *ProductHandler) GetPriceAverage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.productService.PriceAverage(id, c.Query("period"))
	if err != nil {
		h.respondError(c, err, "failed to compute price average")
		return
	}
	utils.Success(c, 200, "Price average computed successfully", result)
}

// RefreshPrice re-fetches the product's price and appends a history point.
func (h *ProductHandler) RefreshPrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req refreshRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	product, err := h.productService.RefreshPrice(c.Request.Context(), id, req.Store)
	if err != nil {
		h.respondError(c, err, "failed to refresh price")
		return
	}
	utils.Success(c, 200, "Product price refreshed successfully", product)
}

// DeleteProduct removes a product and all of its history and search events.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.productService.DeleteProduct(id)
	if err != nil {
		h.respondError(c, err, "failed to delete product")
		return
	}
	utils.Success(c, 200, fmt.Sprintf("Product '%s' deleted successfully", product.Name), nil)
}

// GetSearchHistory returns a product's search events, most recent first.
func (h *ProductHandler) GetSearchHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	events, err := h.productService.SearchHistory(id)
	if err != nil {
		h.respondError(c, err, "failed to get search history")
		return
	}
	utils.Success(c, 200, "Search history retrieved successfully", events)
}

// respondError maps service errors onto the response envelope.
func (h *ProductHandler) respondError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, utils.ErrNameRequired):
		utils.Error(c, 400, "NAME_REQUIRED", "Product name is required")
	case errors.Is(err, utils.ErrInvalidPeriod):
		utils.Error(c, 400, "INVALID_PERIOD", "Invalid period specified")
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "NOT_FOUND", "Product not found")
	default:
		log.Error().Err(err).Msg(logMsg)
		utils.Error(c, 500, "INTERNAL_ERROR", "Server error")
	}
}

// pathID parses the :id path segment; writes a 400 itself on failure.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid product id")
		return 0, false
	}
	return id, true
}

// userIDFromHeader reads the optional actor id attached to search events.
func userIDFromHeader(c *gin.Context) *string {
	if v := c.GetHeader("X-User-Id"); v != "" {
		return &v
	}
	return nil
}
