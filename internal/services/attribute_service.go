package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// AttributeService maintains the two-level attribute tree
type AttributeService struct {
	store  repository.Store
	events eventSink
	logger *logrus.Entry
}

// NewAttributeService creates a new AttributeService
func NewAttributeService(store repository.Store, publisher EventPublisher, logger *logrus.Logger) *AttributeService {
	log := logger.WithField("component", "services.attributes")
	return &AttributeService{
		store:  store,
		events: eventSink{publisher: publisher, logger: log},
		logger: log,
	}
}

// CreateParentAttribute defines a new attribute dimension for a category
func (s *AttributeService) CreateParentAttribute(ctx context.Context, tenantID string, categoryID uuid.UUID, req models.CreateAttributeRequest) (*models.Attribute, error) {
	value := strings.TrimSpace(req.Value)
	if value == "" {
		return nil, validationError("value", "Value is required")
	}

	attribute := &models.Attribute{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Value:         value,
		Description:   trimmedPtr(req.Description),
		CategoryScope: pq.StringArray{categoryID.String()},
	}

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Categories().GetByID(ctx, tenantID, categoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("categoryId", "Category")
			}
			return err
		}
		return tx.Attributes().Create(ctx, attribute)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, attributeEvent(events.AttributeCreated, attribute))
	return attribute, nil
}

// CreateChildAttribute adds a value under a parent attribute
func (s *AttributeService) CreateChildAttribute(ctx context.Context, tenantID string, parentAttributeID uuid.UUID, req models.CreateAttributeRequest) (*models.Attribute, error) {
	value := strings.TrimSpace(req.Value)
	if value == "" {
		return nil, validationError("value", "Value is required")
	}

	attribute := &models.Attribute{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Value:       value,
		Description: trimmedPtr(req.Description),
		ParentID:    &parentAttributeID,
	}

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		parent, err := tx.Attributes().GetByID(ctx, tenantID, parentAttributeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("parentAttributeId", "Parent attribute")
			}
			return err
		}
		if !parent.IsParent() {
			return validationError("parentAttributeId", "Child attributes can only be added to a parent attribute")
		}
		return tx.Attributes().Create(ctx, attribute)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, attributeEvent(events.AttributeCreated, attribute))
	return attribute, nil
}

// ListParentAttributes returns the parent attributes visible from a category:
// those scoped to it or to any of its ancestors.
func (s *AttributeService) ListParentAttributes(ctx context.Context, tenantID string, categoryID uuid.UUID) ([]models.Attribute, error) {
	path, err := ancestorPath(ctx, s.store, tenantID, categoryID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(path))
	for i, c := range path {
		ids[i] = c.ID.String()
	}
	return s.store.Attributes().ListParentsInScope(ctx, tenantID, ids)
}

func (s *AttributeService) ListChildAttributes(ctx context.Context, tenantID string, parentAttributeID uuid.UUID) ([]models.Attribute, error) {
	parent, err := s.store.Attributes().GetByID(ctx, tenantID, parentAttributeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("parentAttributeId", "Parent attribute")
		}
		return nil, err
	}
	if !parent.IsParent() {
		return nil, validationError("parentAttributeId", "Attribute is not a parent attribute")
	}
	return s.store.Attributes().ListChildren(ctx, tenantID, parentAttributeID)
}

// GetAttribute returns an attribute; parent attributes include their children
func (s *AttributeService) GetAttribute(ctx context.Context, tenantID string, id uuid.UUID) (*models.Attribute, error) {
	attribute, err := s.store.Attributes().GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("id", "Attribute")
		}
		return nil, err
	}
	if attribute.IsParent() {
		children, err := s.store.Attributes().ListChildren(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		attribute.Children = children
	}
	return attribute, nil
}

func (s *AttributeService) UpdateAttribute(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateAttributeRequest) (*models.Attribute, error) {
	var attribute *models.Attribute
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		attribute, err = tx.Attributes().GetByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Attribute")
			}
			return err
		}

		if req.Value != nil {
			value := strings.TrimSpace(*req.Value)
			if value == "" {
				return validationError("value", "Value is required")
			}
			attribute.Value = value
		}
		if req.Description != nil {
			attribute.Description = trimmedPtr(req.Description)
		}
		if req.CategoryIDs != nil {
			if !attribute.IsParent() {
				return validationError("categoryIds", "Categories are set on the parent attribute")
			}
			scope, err := s.resolveScope(ctx, tx, tenantID, req.CategoryIDs)
			if err != nil {
				return err
			}
			if narrowed(attribute.CategoryScope, scope) {
				variants, err := tx.Variants().CountByAttribute(ctx, tenantID, id)
				if err != nil {
					return err
				}
				if variants > 0 {
					return hasDependentsError(
						fmt.Sprintf("Attribute is used by %d variant(s); categories can only be added", variants),
						map[string]string{"variants": fmt.Sprint(variants)},
					)
				}
			}
			attribute.CategoryScope = scope
		}
		return tx.Attributes().Update(ctx, attribute)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, attributeEvent(events.AttributeUpdated, attribute))
	return attribute, nil
}

func (s *AttributeService) resolveScope(ctx context.Context, tx repository.Store, tenantID string, raw []string) (pq.StringArray, error) {
	if len(raw) == 0 {
		return nil, validationError("categoryIds", "At least one category is required")
	}
	scope := make(pq.StringArray, 0, len(raw))
	seen := map[uuid.UUID]bool{}
	for _, r := range raw {
		cid, err := parseID("categoryIds", r)
		if err != nil {
			return nil, err
		}
		if seen[cid] {
			continue
		}
		seen[cid] = true
		if _, err := tx.Categories().GetByID(ctx, tenantID, cid); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundError("categoryIds", "Category")
			}
			return nil, err
		}
		scope = append(scope, cid.String())
	}
	return scope, nil
}

// narrowed reports whether next drops any category from current
func narrowed(current, next pq.StringArray) bool {
	kept := make(map[string]bool, len(next))
	for _, id := range next {
		kept[id] = true
	}
	for _, id := range current {
		if !kept[id] {
			return true
		}
	}
	return false
}

// DeleteAttribute removes an attribute that has no children and is not used by any variant
func (s *AttributeService) DeleteAttribute(ctx context.Context, tenantID string, id uuid.UUID) error {
	var attribute *models.Attribute
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		attribute, err = tx.Attributes().GetByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Attribute")
			}
			return err
		}

		if attribute.IsParent() {
			children, err := tx.Attributes().CountChildren(ctx, tenantID, id)
			if err != nil {
				return err
			}
			if children > 0 {
				return hasDependentsError(
					fmt.Sprintf("Attribute has %d child attribute(s)", children),
					map[string]string{"children": fmt.Sprint(children)},
				)
			}
		}

		variants, err := tx.Variants().CountByAttribute(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if variants > 0 {
			return hasDependentsError(
				fmt.Sprintf("Attribute is used by %d variant(s)", variants),
				map[string]string{"variants": fmt.Sprint(variants)},
			)
		}
		return tx.Attributes().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, attributeEvent(events.AttributeDeleted, attribute))
	return nil
}

// ValidatePair checks that childID is a child of parentID
func (s *AttributeService) ValidatePair(ctx context.Context, tenantID string, parentID, childID uuid.UUID) (*models.AttributePair, error) {
	return validateAttributePair(ctx, s.store, tenantID, parentID, childID)
}

func validateAttributePair(ctx context.Context, store repository.Store, tenantID string, parentID, childID uuid.UUID) (*models.AttributePair, error) {
	if parentID == uuid.Nil {
		return nil, validationError("parentAttributeId", "Please select a parent attribute")
	}
	if childID == uuid.Nil {
		return nil, validationError("childAttributeId", "Please select a child attribute")
	}

	parent, err := store.Attributes().GetByID(ctx, tenantID, parentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("parentAttributeId", "Parent attribute")
		}
		return nil, err
	}
	if !parent.IsParent() {
		return nil, validationError("parentAttributeId", "Selected attribute is not a parent attribute")
	}

	child, err := store.Attributes().GetByID(ctx, tenantID, childID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("childAttributeId", "Child attribute")
		}
		return nil, err
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		return nil, validationError("childAttributeId", fmt.Sprintf("%q is not a value of %q", child.Value, parent.Value))
	}

	return &models.AttributePair{Parent: *parent, Child: *child}, nil
}

func attributeEvent(eventType string, a *models.Attribute) *events.CatalogEvent {
	event := events.NewEvent(eventType, a.TenantID, "attribute", a.ID.String())
	event.Name = a.Value
	if a.ParentID != nil {
		event.ParentID = a.ParentID.String()
	}
	if len(a.CategoryScope) > 0 {
		event.WithMetadata("categoryIds", []string(a.CategoryScope))
	}
	return event
}
