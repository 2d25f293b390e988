package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// @title Catalog API
// @version 1.0.0
// @description Multi-tenant category, attribute, product variant and inventory ledger service
// @termsOfService http://swagger.io/terms/

// @contact.name Catalog API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// redisPinger adapts the redis client to the readiness check
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	if !services.ValidCostMethod(cfg.InventoryCostMethod) {
		logger.WithField("cost_method", cfg.InventoryCostMethod).Warn("Unknown INVENTORY_COST_METHOD, using weighted")
		cfg.InventoryCostMethod = models.CostMethodWeighted
	}

	checks := map[string]handlers.Pinger{}

	// Storage
	var store repository.Store
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		db, err := config.InitDB(cfg)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}

		// Redis read cache
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to parse Redis URL (continuing without Redis)")
			redisOpts = &redis.Options{Addr: "localhost:6379"}
		}
		redisClient := redis.NewClient(redisOpts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis (caching will be disabled)")
			redisClient.Close()
			redisClient = nil
		} else {
			log.Println("✓ Redis connected successfully")
			checks["redis"] = redisPinger{client: redisClient}
		}
		cancel()

		store = repository.NewGormStore(db, redisClient, logger)
	}
	checks["store"] = store

	// Events
	var publisher services.EventPublisher
	eventsPublisher, err := events.NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
	} else {
		publisher = eventsPublisher
		log.Println("✓ NATS events publisher initialized")
	}

	// Variant images
	var images services.ImageStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3ImageStore(context.Background(), storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize S3 image store")
		}
		images = s3Store
		log.Println("✓ S3 image store initialized")
	} else {
		logger.Warn("S3_BUCKET not set; variant images are kept in memory")
		images = storage.NewMemoryImageStore("http://localhost:" + cfg.Port + "/images")
	}

	// Services
	categoryService := services.NewCategoryService(store, publisher, logger)
	attributeService := services.NewAttributeService(store, publisher, logger)
	catalogService := services.NewCatalogService(store, images, publisher, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	inventoryService := services.NewInventoryService(store, publisher, cfg.InventoryCostMethod, logger)
	variantService := services.NewVariantService(store, images, inventoryService, publisher, cfg.MaxVariantImages, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; bearer token auth is disabled")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Categories:  handlers.NewCategoryHandler(categoryService, logger),
		Attributes:  handlers.NewAttributeHandler(attributeService, logger),
		Products:    handlers.NewProductHandler(catalogService, logger),
		Variants:    handlers.NewVariantHandler(variantService, inventoryService, logger),
		Inventory:   handlers.NewInventoryHandler(inventoryService, logger),
		Import:      handlers.NewImportHandler(inventoryService, logger),
		Health:      handlers.NewHealthHandler(checks),
		JWTSecret:   cfg.JWTSecret,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if eventsPublisher != nil {
		eventsPublisher.Close()
		log.Println("✓ Events publisher closed")
	}

	log.Println("Catalog service stopped")
}
