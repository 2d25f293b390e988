package handlers

import (
	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type VariantHandler struct {
	variants  *services.VariantService
	inventory *services.InventoryService
	logger    *logrus.Entry
}

func NewVariantHandler(variants *services.VariantService, inventory *services.InventoryService, logger *logrus.Logger) *VariantHandler {
	return &VariantHandler{
		variants:  variants,
		inventory: inventory,
		logger:    logger.WithField("component", "handlers.variants"),
	}
}

// ListVariants godoc
// @Summary List product variants
// @Tags variants
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=[]models.ProductVariant}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id}/variants [get]
func (h *VariantHandler) ListVariants(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	variants, err := h.variants.ListVariants(c.Request.Context(), tenant, productID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, variants)
}

// CreateVariant godoc
// @Summary Create variant
// @Description Create a variant from uploaded images and one parent/child attribute pair
// @Tags variants
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Product ID"
// @Param images formData file true "Variant images (repeat the field)"
// @Param attributes formData []string true "Parent attribute ID then child attribute ID" collectionFormat(multi)
// @Param sellPrice formData string false "Sell price"
// @Success 201 {object} models.SuccessResponse{data=models.ProductVariant}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id}/variants [post]
func (h *VariantHandler) CreateVariant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	form, files, ferr := parseVariantForm(c)
	if ferr != nil {
		respondFormError(c, ferr)
		return
	}
	defer files.Close()

	variant, err := h.variants.CreateVariant(requestContext(c), tenant, form.draft(productID))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondCreated(c, variant, "Variant created")
}

// GetVariant godoc
// @Summary Get variant
// @Description Get a variant with its live inventory summary
// @Tags variants
// @Produce json
// @Param id path string true "Variant ID"
// @Success 200 {object} models.SuccessResponse{data=models.ProductVariant}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /variants/{id} [get]
func (h *VariantHandler) GetVariant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	variant, err := h.variants.GetVariant(c.Request.Context(), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, variant)
}

// UpdateVariant godoc
// @Summary Update variant
// @Description Replace images, change the attribute pair or the sell price.
// @Description Sending any image field replaces the image list with the submitted one.
// @Tags variants
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Variant ID"
// @Param keepImages formData []string false "Refs of existing images to keep" collectionFormat(multi)
// @Param images formData file false "New images"
// @Param imageOrder formData []string false "Resulting order as keep:<ref> or new:<index>" collectionFormat(multi)
// @Param attributes formData []string false "Parent attribute ID then child attribute ID" collectionFormat(multi)
// @Param sellPrice formData string false "Sell price"
// @Success 200 {object} models.SuccessResponse{data=models.ProductVariant}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /variants/{id} [put]
func (h *VariantHandler) UpdateVariant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	form, files, ferr := parseVariantForm(c)
	if ferr != nil {
		respondFormError(c, ferr)
		return
	}
	defer files.Close()

	payload, ferr := form.payload()
	if ferr != nil {
		respondFormError(c, ferr)
		return
	}

	variant, err := h.variants.UpdateVariant(requestContext(c), tenant, id, payload)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, variant, "Variant updated")
}

// SetSellPrice godoc
// @Summary Set variant sell price
// @Description Change the sell price; batches are untouched and the margin is recomputed
// @Tags variants
// @Accept json
// @Produce json
// @Param id path string true "Variant ID"
// @Param body body models.SetSellPriceRequest true "Sell price"
// @Success 200 {object} models.SuccessResponse{data=models.ProductVariant}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /variants/{id}/sell-price [patch]
func (h *VariantHandler) SetSellPrice(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.SetSellPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	variant, err := h.inventory.SetSellPrice(requestContext(c), tenant, id, req.SellPrice)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, variant, "Sell price updated")
}

// DeleteVariant godoc
// @Summary Delete variant
// @Description Delete a variant, its batches and its images
// @Tags variants
// @Produce json
// @Param id path string true "Variant ID"
// @Success 200 {object} models.SuccessResponse{data=models.VariantDeleteResult}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /variants/{id} [delete]
func (h *VariantHandler) DeleteVariant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.variants.DeleteVariant(requestContext(c), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, result, "Variant deleted")
}
