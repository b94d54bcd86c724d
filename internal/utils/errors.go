package utils

import "errors"

// Common application errors used across services.
var (
	ErrNameRequired        = errors.New("NAME_REQUIRED")
	ErrInvalidPeriod       = errors.New("INVALID_PERIOD")
	ErrProductNotFound     = errors.New("PRODUCT_NOT_FOUND")
	ErrSearchEventNotFound = errors.New("SEARCH_EVENT_NOT_FOUND")
)
