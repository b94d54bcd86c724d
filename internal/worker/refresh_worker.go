package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricetrack/api/internal/service"
)

// RefreshWorker periodically re-prices every tracked product so history keeps
// accumulating between manual refreshes.
type RefreshWorker struct {
	productService *service.ProductService
	interval       time.Duration
}

// NewRefreshWorker constructs a RefreshWorker.
func NewRefreshWorker(productService *service.ProductService, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		productService: productService,
		interval:       interval,
	}
}

// Start begins the periodic refresh loop and listens for context cancellation.
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting refresh worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Refresh worker stopped")
			return
		}
	}
}

func (w *RefreshWorker) run(ctx context.Context) {
	start := time.Now()
	if err := w.productService.RefreshAll(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh product prices")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Product price refresh completed")
}
