package handlers

import (
	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	catalog *services.CatalogService
	logger  *logrus.Entry
}

func NewProductHandler(catalog *services.CatalogService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger.WithField("component", "handlers.products"),
	}
}

// ListProducts godoc
// @Summary List products
// @Description Search, sort and paginate the products of the tenant
// @Tags products
// @Produce json
// @Param search query string false "Case-insensitive match on name, description or brand"
// @Param sortBy query string false "name, brand, description, primaryCategory or createdAt"
// @Param sortOrder query string false "asc or desc"
// @Param toggle query string false "Sort key to toggle against sortBy/sortOrder: the same key flips the direction, another key sorts ascending"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.SuccessResponse{data=models.ProductListResponse}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var filter models.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handleBindError(c, err)
		return
	}

	list, err := h.catalog.ListProducts(c.Request.Context(), tenant, filter)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, list)
}

// GetProduct godoc
// @Summary Get product
// @Description Get a product with its resolved category path and variants
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.Product}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, product)
}

// CreateProduct godoc
// @Summary Create product
// @Description Create a product classified under a root-to-leaf category path
// @Tags products
// @Accept json
// @Produce json
// @Param product body models.CreateProductRequest true "Product"
// @Success 201 {object} models.SuccessResponse{data=models.Product}
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(requestContext(c), tenant, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondCreated(c, product, "Product created")
}

// UpdateProduct godoc
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body models.UpdateProductRequest true "Fields to change"
// @Success 200 {object} models.SuccessResponse{data=models.Product}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	product, err := h.catalog.UpdateProduct(requestContext(c), tenant, id, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, product, "Product updated")
}

// DeleteProduct godoc
// @Summary Delete product
// @Description Delete a product with its variants, their batches and images
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ProductDeleteResult}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.catalog.DeleteProduct(requestContext(c), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, result, "Product deleted")
}
