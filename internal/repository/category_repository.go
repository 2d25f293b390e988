package repository

import (
	"context"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
)

// CategoryRepositoryImpl is the gorm implementation of CategoryRepository
type CategoryRepositoryImpl struct {
	s *GormStore
}

func categoryListPattern(tenantID string) string {
	return cacheKey("categories", "list", tenantID, "*")
}

func (r *CategoryRepositoryImpl) Create(ctx context.Context, category *models.Category) error {
	if err := r.s.conn(ctx).Create(category).Error; err != nil {
		return translate(err)
	}
	r.s.invalidate(ctx, categoryListPattern(category.TenantID))
	return nil
}

// GetByID retrieves a category with tenant isolation
func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&category).Error
	if err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *CategoryRepositoryImpl) GetByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	if len(ids) == 0 {
		return categories, nil
	}
	err := r.s.conn(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("position ASC, name ASC").
		Find(&categories).Error
	return categories, translate(err)
}

// ListChildren returns the direct children of parentID, or the roots when parentID is nil
func (r *CategoryRepositoryImpl) ListChildren(ctx context.Context, tenantID string, parentID *uuid.UUID) ([]models.Category, error) {
	parentKey := "root"
	if parentID != nil {
		parentKey = parentID.String()
	}
	key := cacheKey("categories", "list", tenantID, "children", parentKey)

	var categories []models.Category
	if r.s.cacheGet(ctx, key, &categories) {
		return categories, nil
	}

	query := r.s.conn(ctx).Where("tenant_id = ?", tenantID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if err := query.Order("position ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, translate(err)
	}

	r.s.cacheSet(ctx, key, categories, CategoryListCacheTTL)
	return categories, nil
}

func (r *CategoryRepositoryImpl) ListAll(ctx context.Context, tenantID string) ([]models.Category, error) {
	key := cacheKey("categories", "list", tenantID, "all")

	var categories []models.Category
	if r.s.cacheGet(ctx, key, &categories) {
		return categories, nil
	}
	err := r.s.conn(ctx).
		Where("tenant_id = ?", tenantID).
		Order("level ASC, position ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, translate(err)
	}

	r.s.cacheSet(ctx, key, categories, CategoryListCacheTTL)
	return categories, nil
}

func (r *CategoryRepositoryImpl) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	result := r.s.conn(ctx).
		Model(&models.Category{}).
		Where("id = ? AND tenant_id = ?", category.ID, category.TenantID).
		Select("name", "slug", "description", "image_url", "parent_id", "level", "position", "updated_by", "updated_at").
		Updates(category)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.s.invalidate(ctx, categoryListPattern(category.TenantID))
	return nil
}

func (r *CategoryRepositoryImpl) Delete(ctx context.Context, tenantID string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.s.conn(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Delete(&models.Category{})
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	r.s.invalidate(ctx, categoryListPattern(tenantID))
	return result.RowsAffected, nil
}
