package handlers

import (
	"strconv"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	categories *services.CategoryService
	logger     *logrus.Entry
}

func NewCategoryHandler(categories *services.CategoryService, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		logger:     logger.WithField("component", "handlers.categories"),
	}
}

// ListCategories returns the direct children of ?parentId, or the roots
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var parentID *uuid.UUID
	if raw := c.Query("parentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondInvalidID(c, "parentId")
			return
		}
		parentID = &id
	}

	categories, err := h.categories.ListChildren(c.Request.Context(), tenant, parentID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, categories)
}

// GetCategoryTree returns the nested category tree
func (h *CategoryHandler) GetCategoryTree(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	tree, err := h.categories.GetTree(c.Request.Context(), tenant)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, tree)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, category)
}

// GetCategoryPath returns the root-to-node path
func (h *CategoryHandler) GetCategoryPath(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	path, err := h.categories.GetAncestorPath(c.Request.Context(), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, path)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	category, err := h.categories.CreateNode(requestContext(c), tenant, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondCreated(c, category, "Category created")
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	category, err := h.categories.UpdateNode(requestContext(c), tenant, id, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, category, "Category updated")
}

// DeleteCategory removes a category; ?cascade=true removes its subtree too
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cascade, _ := strconv.ParseBool(c.DefaultQuery("cascade", "false"))

	result, err := h.categories.DeleteNode(requestContext(c), tenant, id, cascade)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, result, "Category deleted")
}
