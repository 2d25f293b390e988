package repository

import (
	"context"
	"strings"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AttributeRepositoryImpl is the gorm implementation of AttributeRepository
type AttributeRepositoryImpl struct {
	s *GormStore
}

func attributeListPattern(tenantID string) string {
	return cacheKey("attributes", "list", tenantID, "*")
}

func (r *AttributeRepositoryImpl) Create(ctx context.Context, attribute *models.Attribute) error {
	if err := r.s.conn(ctx).Create(attribute).Error; err != nil {
		return translate(err)
	}
	r.s.invalidate(ctx, attributeListPattern(attribute.TenantID))
	return nil
}

func (r *AttributeRepositoryImpl) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Attribute, error) {
	var attribute models.Attribute
	err := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&attribute).Error
	if err != nil {
		return nil, translate(err)
	}
	return &attribute, nil
}

func (r *AttributeRepositoryImpl) ListParentsInScope(ctx context.Context, tenantID string, categoryIDs []string) ([]models.Attribute, error) {
	var attributes []models.Attribute
	if len(categoryIDs) == 0 {
		return attributes, nil
	}
	key := cacheKey("attributes", "list", tenantID, "scope", strings.Join(categoryIDs, ","))
	if r.s.cacheGet(ctx, key, &attributes) {
		return attributes, nil
	}

	err := r.s.conn(ctx).
		Where("tenant_id = ? AND parent_id IS NULL AND category_ids && ?::text[]", tenantID, pq.StringArray(categoryIDs)).
		Order("value ASC").
		Find(&attributes).Error
	if err != nil {
		return nil, translate(err)
	}

	r.s.cacheSet(ctx, key, attributes, AttributeListCacheTTL)
	return attributes, nil
}

func (r *AttributeRepositoryImpl) ListChildren(ctx context.Context, tenantID string, parentID uuid.UUID) ([]models.Attribute, error) {
	key := cacheKey("attributes", "list", tenantID, "children", parentID.String())

	var attributes []models.Attribute
	if r.s.cacheGet(ctx, key, &attributes) {
		return attributes, nil
	}
	err := r.s.conn(ctx).
		Where("tenant_id = ? AND parent_id = ?", tenantID, parentID).
		Order("value ASC").
		Find(&attributes).Error
	if err != nil {
		return nil, translate(err)
	}

	r.s.cacheSet(ctx, key, attributes, AttributeListCacheTTL)
	return attributes, nil
}

func (r *AttributeRepositoryImpl) CountChildren(ctx context.Context, tenantID string, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.s.conn(ctx).Model(&models.Attribute{}).
		Where("tenant_id = ? AND parent_id = ?", tenantID, parentID).
		Count(&count).Error
	return count, translate(err)
}

func (r *AttributeRepositoryImpl) CountInScope(ctx context.Context, tenantID string, categoryIDs []string) (int64, error) {
	var count int64
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	err := r.s.conn(ctx).Model(&models.Attribute{}).
		Where("tenant_id = ? AND category_ids && ?::text[]", tenantID, pq.StringArray(categoryIDs)).
		Count(&count).Error
	return count, translate(err)
}

func (r *AttributeRepositoryImpl) RemoveFromScope(ctx context.Context, tenantID string, categoryIDs []string) (int64, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	ids := pq.StringArray(categoryIDs)
	result := r.s.conn(ctx).Model(&models.Attribute{}).
		Where("tenant_id = ? AND category_ids && ?::text[]", tenantID, ids).
		Updates(map[string]interface{}{
			"category_ids": gorm.Expr("ARRAY(SELECT s FROM unnest(category_ids) AS s WHERE s <> ALL(?::text[]))", ids),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	r.s.invalidate(ctx, attributeListPattern(tenantID))
	return result.RowsAffected, nil
}

func (r *AttributeRepositoryImpl) Update(ctx context.Context, attribute *models.Attribute) error {
	attribute.UpdatedAt = time.Now().UTC()
	result := r.s.conn(ctx).
		Model(&models.Attribute{}).
		Where("id = ? AND tenant_id = ?", attribute.ID, attribute.TenantID).
		Select("value", "description", "category_ids", "updated_at").
		Updates(attribute)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.s.invalidate(ctx, attributeListPattern(attribute.TenantID))
	return nil
}

func (r *AttributeRepositoryImpl) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Attribute{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.s.invalidate(ctx, attributeListPattern(tenantID))
	return nil
}
