package handlers

import (
	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AttributeHandler struct {
	attributes *services.AttributeService
	logger     *logrus.Entry
}

func NewAttributeHandler(attributes *services.AttributeService, logger *logrus.Logger) *AttributeHandler {
	return &AttributeHandler{
		attributes: attributes,
		logger:     logger.WithField("component", "handlers.attributes"),
	}
}

// ListParentAttributes returns the parent attributes visible from a category
func (h *AttributeHandler) ListParentAttributes(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}

	attributes, err := h.attributes.ListParentAttributes(c.Request.Context(), tenant, categoryID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, attributes)
}

func (h *AttributeHandler) CreateParentAttribute(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}

	var req models.CreateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	attribute, err := h.attributes.CreateParentAttribute(requestContext(c), tenant, categoryID, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondCreated(c, attribute, "Attribute created")
}

func (h *AttributeHandler) GetAttribute(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	attribute, err := h.attributes.GetAttribute(c.Request.Context(), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, attribute)
}

func (h *AttributeHandler) ListChildAttributes(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	children, err := h.attributes.ListChildAttributes(c.Request.Context(), tenant, id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondOK(c, children)
}

func (h *AttributeHandler) CreateChildAttribute(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CreateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	child, err := h.attributes.CreateChildAttribute(requestContext(c), tenant, id, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondCreated(c, child, "Attribute value created")
}

func (h *AttributeHandler) UpdateAttribute(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	attribute, err := h.attributes.UpdateAttribute(requestContext(c), tenant, id, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, attribute, "Attribute updated")
}

func (h *AttributeHandler) DeleteAttribute(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.attributes.DeleteAttribute(requestContext(c), tenant, id); err != nil {
		handleError(c, h.logger, err)
		return
	}
	respondMessage(c, nil, "Attribute deleted")
}
