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
	"github.com/sirupsen/logrus"
)

// ErrCorruptHierarchy indicates a stored parent chain that is broken or too deep
var ErrCorruptHierarchy = errors.New("category hierarchy is corrupt")

// CategoryService maintains the category tree
type CategoryService struct {
	store  repository.Store
	events eventSink
	logger *logrus.Entry
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store repository.Store, publisher EventPublisher, logger *logrus.Logger) *CategoryService {
	log := logger.WithField("component", "services.categories")
	return &CategoryService{
		store:  store,
		events: eventSink{publisher: publisher, logger: log},
		logger: log,
	}
}

// CreateNode adds a category under parentId, or a root when parentId is empty
func (s *CategoryService) CreateNode(ctx context.Context, tenantID string, req models.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name", "Name is required")
	}

	category := &models.Category{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Slug:        generateSlug(name),
		Description: trimmedPtr(req.Description),
		ImageURL:    trimmedPtr(req.ImageURL),
		CreatedBy:   actorFrom(ctx),
		UpdatedBy:   actorFrom(ctx),
	}

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
			parentID, err := parseID("parentId", *req.ParentID)
			if err != nil {
				return err
			}
			parent, err := tx.Categories().GetByID(ctx, tenantID, parentID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return notFoundError("parentId", "Parent category")
				}
				return err
			}
			if parent.Level >= models.MaxCategoryLevel {
				return depthExceededError("parentId", models.MaxCategoryLevel+1)
			}
			category.ParentID = &parent.ID
			category.Level = parent.Level + 1
		}

		if req.Position != nil {
			category.Position = *req.Position
		} else {
			siblings, err := tx.Categories().ListChildren(ctx, tenantID, category.ParentID)
			if err != nil {
				return err
			}
			category.Position = len(siblings)
		}
		return tx.Categories().Create(ctx, category)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, categoryEvent(events.CategoryCreated, category))
	return category, nil
}

// UpdateNode applies a partial update. Re-parenting re-validates depth and
// acyclicity and rewrites the levels of the moved subtree.
func (s *CategoryService) UpdateNode(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateCategoryRequest) (*models.Category, error) {
	var category *models.Category
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		category, err = tx.Categories().GetByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Category")
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationError("name", "Name is required")
			}
			category.Name = name
			category.Slug = generateSlug(name)
		}
		if req.Description != nil {
			category.Description = trimmedPtr(req.Description)
		}
		if req.ImageURL != nil {
			category.ImageURL = trimmedPtr(req.ImageURL)
		}
		if req.Position != nil {
			category.Position = *req.Position
		}
		if req.ParentID != nil {
			if err := s.reparent(ctx, tx, category, strings.TrimSpace(*req.ParentID)); err != nil {
				return err
			}
		}

		category.UpdatedBy = actorFrom(ctx)
		return tx.Categories().Update(ctx, category)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, categoryEvent(events.CategoryUpdated, category))
	return category, nil
}

func (s *CategoryService) reparent(ctx context.Context, tx repository.Store, category *models.Category, rawParentID string) error {
	var newParentID *uuid.UUID
	if rawParentID != "" {
		pid, err := parseID("parentId", rawParentID)
		if err != nil {
			return err
		}
		newParentID = &pid
	}
	if sameParent(category.ParentID, newParentID) {
		return nil
	}

	all, err := tx.Categories().ListAll(ctx, category.TenantID)
	if err != nil {
		return err
	}
	idx := newCategoryIndex(all)

	newLevel := 0
	if newParentID != nil {
		parent, ok := idx.get(*newParentID)
		if !ok {
			return notFoundError("parentId", "Parent category")
		}
		chain, ok := idx.ancestors(parent.ID)
		if !ok {
			return fmt.Errorf("%w: ancestors of %s", ErrCorruptHierarchy, parent.ID)
		}
		for _, ancestor := range chain {
			if ancestor == category.ID {
				return validationError("parentId", "A category cannot be moved under itself or one of its subcategories")
			}
		}
		newLevel = parent.Level + 1
	}

	if newLevel+idx.height(category.ID) > models.MaxCategoryLevel {
		return depthExceededError("parentId", models.MaxCategoryLevel+1)
	}

	subtree := idx.subtree(category.ID)
	products, err := tx.Products().CountByCategories(ctx, category.TenantID, idStrings(subtree))
	if err != nil {
		return err
	}
	if products > 0 {
		return hasDependentsError(
			fmt.Sprintf("Category is assigned to %d product(s); reassign them before moving it", products),
			map[string]string{"products": fmt.Sprint(products)},
		)
	}

	delta := newLevel - category.Level
	if delta != 0 {
		for _, descendantID := range subtree[1:] {
			descendant, _ := idx.get(descendantID)
			moved := *descendant
			moved.Level += delta
			if err := tx.Categories().Update(ctx, &moved); err != nil {
				return err
			}
		}
	}

	category.ParentID = newParentID
	category.Level = newLevel
	return nil
}

// DeleteNode removes a category. Without cascade it refuses nodes that have
// subcategories or scoped attributes; with cascade the whole subtree goes
// and attribute scopes are cleaned. Parent attributes scoped only to the
// subtree are deleted with their children. Product references always block.
func (s *CategoryService) DeleteNode(ctx context.Context, tenantID string, id uuid.UUID, cascade bool) (*models.CategoryDeleteResult, error) {
	result := &models.CategoryDeleteResult{}
	var removed []models.Category
	var dropped []models.Attribute

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Categories().GetByID(ctx, tenantID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Category")
			}
			return err
		}

		all, err := tx.Categories().ListAll(ctx, tenantID)
		if err != nil {
			return err
		}
		idx := newCategoryIndex(all)
		subtree := idx.subtree(id)
		subtreeIDs := idStrings(subtree)

		if children := len(subtree) - 1; children > 0 && !cascade {
			return hasDependentsError(
				fmt.Sprintf("Category has %d subcategories", children),
				map[string]string{"children": fmt.Sprint(children)},
			)
		}

		products, err := tx.Products().CountByCategories(ctx, tenantID, subtreeIDs)
		if err != nil {
			return err
		}
		if products > 0 {
			return hasDependentsError(
				fmt.Sprintf("Category is used by %d product(s)", products),
				map[string]string{"products": fmt.Sprint(products)},
			)
		}

		scoped, err := tx.Attributes().CountInScope(ctx, tenantID, subtreeIDs)
		if err != nil {
			return err
		}
		if scoped > 0 {
			if !cascade {
				return hasDependentsError(
					fmt.Sprintf("Category has %d attribute(s) defined for it", scoped),
					map[string]string{"attributes": fmt.Sprint(scoped)},
				)
			}
			if dropped, err = dropEmptiedAttributes(ctx, tx, tenantID, subtreeIDs); err != nil {
				return err
			}
			result.AttributesDeleted = int64(len(dropped))
			if result.AttributesUpdated, err = tx.Attributes().RemoveFromScope(ctx, tenantID, subtreeIDs); err != nil {
				return err
			}
		}

		deleted, err := tx.Categories().Delete(ctx, tenantID, subtree)
		if err != nil {
			return err
		}
		result.CategoriesDeleted = int(deleted)
		for _, cid := range subtree {
			node, _ := idx.get(cid)
			removed = append(removed, *node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range removed {
		s.events.emit(ctx, categoryEvent(events.CategoryDeleted, &removed[i]))
	}
	for i := range dropped {
		s.events.emit(ctx, attributeEvent(events.AttributeDeleted, &dropped[i]))
	}
	s.logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"category_id": id,
		"cascade":     cascade,
		"deleted":     result.CategoriesDeleted,
		"attributes":  result.AttributesDeleted,
	}).Info("Category deleted")
	return result, nil
}

// dropEmptiedAttributes deletes the parent attributes whose whole scope lies
// in categoryIDs, together with their children. Variants on any of them block.
func dropEmptiedAttributes(ctx context.Context, tx repository.Store, tenantID string, categoryIDs []string) ([]models.Attribute, error) {
	gone := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		gone[id] = true
	}
	parents, err := tx.Attributes().ListParentsInScope(ctx, tenantID, categoryIDs)
	if err != nil {
		return nil, err
	}

	var dropped []models.Attribute
	for _, parent := range parents {
		emptied := true
		for _, scoped := range parent.CategoryScope {
			if !gone[scoped] {
				emptied = false
				break
			}
		}
		if !emptied {
			continue
		}

		variants, err := tx.Variants().CountByAttribute(ctx, tenantID, parent.ID)
		if err != nil {
			return nil, err
		}
		if variants > 0 {
			return nil, hasDependentsError(
				fmt.Sprintf("Attribute %q is used by %d variant(s)", parent.Value, variants),
				map[string]string{"attributeId": parent.ID.String(), "variants": fmt.Sprint(variants)},
			)
		}

		children, err := tx.Attributes().ListChildren(ctx, tenantID, parent.ID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if err := tx.Attributes().Delete(ctx, tenantID, child.ID); err != nil {
				return nil, err
			}
			dropped = append(dropped, child)
		}
		if err := tx.Attributes().Delete(ctx, tenantID, parent.ID); err != nil {
			return nil, err
		}
		dropped = append(dropped, parent)
	}
	return dropped, nil
}

// ListChildren returns the children of parentID, or the roots when nil
func (s *CategoryService) ListChildren(ctx context.Context, tenantID string, parentID *uuid.UUID) ([]models.Category, error) {
	if parentID != nil {
		if _, err := s.store.Categories().GetByID(ctx, tenantID, *parentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundError("parentId", "Parent category")
			}
			return nil, err
		}
	}
	return s.store.Categories().ListChildren(ctx, tenantID, parentID)
}

func (s *CategoryService) GetCategory(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	category, err := s.store.Categories().GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("id", "Category")
		}
		return nil, err
	}
	return category, nil
}

// GetTree materializes the full tree of a tenant
func (s *CategoryService) GetTree(ctx context.Context, tenantID string) ([]*models.Category, error) {
	all, err := s.store.Categories().ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return newCategoryIndex(all).tree(), nil
}

// GetAncestorPath returns the chain root→id
func (s *CategoryService) GetAncestorPath(ctx context.Context, tenantID string, id uuid.UUID) ([]models.Category, error) {
	return ancestorPath(ctx, s.store, tenantID, id)
}

// ancestorPath walks parent links iteratively, bounded by the maximum depth
func ancestorPath(ctx context.Context, store repository.Store, tenantID string, id uuid.UUID) ([]models.Category, error) {
	node, err := store.Categories().GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("categoryId", "Category")
		}
		return nil, err
	}

	path := []models.Category{*node}
	for node.ParentID != nil {
		if len(path) > models.MaxCategoryLevel {
			return nil, fmt.Errorf("%w: %s is nested deeper than %d levels", ErrCorruptHierarchy, id, models.MaxCategoryLevel+1)
		}
		node, err = store.Categories().GetByID(ctx, tenantID, *node.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: missing ancestor of %s", ErrCorruptHierarchy, id)
			}
			return nil, err
		}
		path = append(path, *node)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func categoryEvent(eventType string, c *models.Category) *events.CatalogEvent {
	event := events.NewEvent(eventType, c.TenantID, "category", c.ID.String())
	event.Name = c.Name
	if c.ParentID != nil {
		event.ParentID = c.ParentID.String()
	}
	return event.WithMetadata("level", c.Level).WithMetadata("slug", c.Slug)
}
