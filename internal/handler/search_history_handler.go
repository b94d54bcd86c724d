package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pricetrack/api/internal/service"
	"github.com/pricetrack/api/internal/utils"
)

// SearchHistoryHandler handles the global search history endpoints.
type SearchHistoryHandler struct {
	productService *service.ProductService
}

// NewSearchHistoryHandler constructs a SearchHistoryHandler.
func NewSearchHistoryHandler(productService *service.ProductService) *SearchHistoryHandler {
	return &SearchHistoryHandler{productService: productService}
}

// GetAll returns every search event joined with product name and current
// price, most recent first.
func (h *SearchHistoryHandler) GetAll(c *gin.Context) {
	events, err := h.productService.AllSearchHistory()
	if err != nil {
		log.Error().Err(err).Msg("failed to list search history")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get search history")
		return
	}
	utils.Success(c, 200, "Search history retrieved successfully", events)
}

// Delete removes a single search event.
func (h *SearchHistoryHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid search history id")
		return
	}
	if err := h.productService.DeleteSearchEvent(id); err != nil {
		if errors.Is(err, utils.ErrSearchEventNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "Search history not found")
			return
		}
		log.Error().Err(err).Msg("failed to delete search event")
		utils.Error(c, 500, "INTERNAL_ERROR", "Server error")
		return
	}
	utils.Success(c, 200, "Search history deleted successfully", nil)
}
