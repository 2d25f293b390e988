package handlers

import (
	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type InventoryHandler struct {
	inventory *services.InventoryService
	logger    *logrus.Entry
}

func NewInventoryHandler(inventory *services.InventoryService, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger.WithField("component", "handlers.inventory"),
	}
}

// ListBatches returns the batches of a variant ordered by import date
// GET /api/v1/variants/:id/batches
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	variantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	batches, err := h.inventory.ListBatches(c.Request.Context(), tenant, variantID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, batches)
}

// RecordBatch records a new import batch
// POST /api/v1/variants/:id/batches
func (h *InventoryHandler) RecordBatch(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	variantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.RecordBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	batch, err := h.inventory.RecordBatch(requestContext(c), tenant, variantID, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondCreated(c, batch, "Batch recorded")
}

// UpdateBatch edits a batch
// PUT /api/v1/batches/:id
func (h *InventoryHandler) UpdateBatch(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	batch, err := h.inventory.UpdateBatch(requestContext(c), tenant, id, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, batch, "Batch updated")
}

// DeleteBatch removes a batch
// DELETE /api/v1/batches/:id
func (h *InventoryHandler) DeleteBatch(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.inventory.DeleteBatch(requestContext(c), tenant, id); err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, nil, "Batch deleted")
}

// GetSummary returns the derived inventory summary of a variant
// GET /api/v1/variants/:id/summary
func (h *InventoryHandler) GetSummary(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	variantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.inventory.GetInventorySummary(c.Request.Context(), tenant, variantID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, summary)
}
