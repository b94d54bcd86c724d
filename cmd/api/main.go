package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pricetrack/api/internal/cache"
	"github.com/pricetrack/api/internal/config"
	"github.com/pricetrack/api/internal/database"
	"github.com/pricetrack/api/internal/handler"
	"github.com/pricetrack/api/internal/middleware"
	"github.com/pricetrack/api/internal/pricing"
	"github.com/pricetrack/api/internal/repository"
	"github.com/pricetrack/api/internal/service"
	"github.com/pricetrack/api/internal/worker"
)

// main is the application entrypoint for the price tracker API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting price tracker api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	pointRepo := repository.NewPricePointRepository(db)
	searchRepo := repository.NewSearchEventRepository(db)

	// 5. Initialize pricing components
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	priceCache := cache.NewPriceCache(redisClient, cfg.Oracle.PriceCacheTTL)
	oracle := pricing.NewOracle(cfg.Oracle.FetchTimeout, priceCache, rng)
	generator := pricing.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano() + 1)))

	// 6. Initialize services
	productSvc := service.NewProductService(productRepo, pointRepo, searchRepo, oracle, generator)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:        handler.NewHealthHandler(db, redisClient),
		Product:       handler.NewProductHandler(productSvc),
		SearchHistory: handler.NewSearchHistoryHandler(productSvc),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewRefreshWorker(productSvc, cfg.Worker.RefreshInterval).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health        *handler.HealthHandler
	Product       *handler.ProductHandler
	SearchHistory *handler.SearchHistoryHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	api := router.Group("/api")
	{
		api.GET("/products", handlers.Product.GetProducts)
		api.POST("/products", handlers.Product.CreateProduct)
		api.GET("/products/by-name", handlers.Product.GetProductByName)
		api.GET("/products/:id", handlers.Product.GetProduct)
		api.GET("/products/:id/price_history", handlers.Product.GetPriceHistory)
		api.GET("/products/:id/price_average", handlers.Product.GetPriceAverage)
		api.GET("/products/:id/search_history", handlers.Product.GetSearchHistory)
		api.POST("/products/:id/refresh", handlers.Product.RefreshPrice)
		api.DELETE("/products/:id", handlers.Product.DeleteProduct)

		api.GET("/search_history", handlers.SearchHistory.GetAll)
		api.DELETE("/search_history/:id", handlers.SearchHistory.Delete)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
