package handlers

import (
	"catalog-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig wires the handlers into an engine
type RouterConfig struct {
	Categories *CategoryHandler
	Attributes *AttributeHandler
	Products   *ProductHandler
	Variants   *VariantHandler
	Inventory  *InventoryHandler
	Import     *ImportHandler
	Health     *HealthHandler

	// JWTSecret enables bearer-token auth when set
	JWTSecret   string
	RateLimiter *middleware.RateLimiter
	Logger      *logrus.Logger
}

// NewRouter builds the HTTP surface of the service
func NewRouter(cfg RouterConfig) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(middleware.CORS())

	router.GET("/health", cfg.Health.HealthCheck)
	router.GET("/ready", cfg.Health.ReadinessCheck)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	}
	api.Use(middleware.TenantMiddleware())
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(cfg.RateLimiter))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", cfg.Categories.ListCategories)
		categories.GET("/tree", cfg.Categories.GetCategoryTree)
		categories.GET("/:id", cfg.Categories.GetCategory)
		categories.GET("/:id/path", cfg.Categories.GetCategoryPath)
		categories.POST("", cfg.Categories.CreateCategory)
		categories.PUT("/:id", cfg.Categories.UpdateCategory)
		categories.DELETE("/:id", cfg.Categories.DeleteCategory)

		categories.GET("/attributes/:categoryId", cfg.Attributes.ListParentAttributes)
		categories.POST("/attributes/:categoryId", cfg.Attributes.CreateParentAttribute)
	}

	attributes := api.Group("/attributes")
	{
		attributes.GET("/:id", cfg.Attributes.GetAttribute)
		attributes.GET("/:id/children", cfg.Attributes.ListChildAttributes)
		attributes.POST("/:id/children", cfg.Attributes.CreateChildAttribute)
		attributes.PUT("/:id", cfg.Attributes.UpdateAttribute)
		attributes.DELETE("/:id", cfg.Attributes.DeleteAttribute)
	}

	products := api.Group("/products")
	{
		products.GET("", cfg.Products.ListProducts)
		products.GET("/:id", cfg.Products.GetProduct)
		products.POST("", cfg.Products.CreateProduct)
		products.PUT("/:id", cfg.Products.UpdateProduct)
		products.DELETE("/:id", cfg.Products.DeleteProduct)

		products.GET("/:id/variants", cfg.Variants.ListVariants)
		products.POST("/:id/variants", cfg.Variants.CreateVariant)
	}

	variants := api.Group("/variants")
	{
		variants.GET("/:id", cfg.Variants.GetVariant)
		variants.PUT("/:id", cfg.Variants.UpdateVariant)
		variants.PATCH("/:id/sell-price", cfg.Variants.SetSellPrice)
		variants.DELETE("/:id", cfg.Variants.DeleteVariant)

		variants.GET("/:id/batches", cfg.Inventory.ListBatches)
		variants.POST("/:id/batches", cfg.Inventory.RecordBatch)
		variants.GET("/:id/summary", cfg.Inventory.GetSummary)
		variants.GET("/:id/batches/export", cfg.Import.ExportBatches)
		variants.POST("/:id/batches/import", cfg.Import.ImportBatches)
	}

	batches := api.Group("/batches")
	{
		batches.GET("/import/template", cfg.Import.GetBatchImportTemplate)
		batches.PUT("/:id", cfg.Inventory.UpdateBatch)
		batches.DELETE("/:id", cfg.Inventory.DeleteBatch)
	}

	return router
}
