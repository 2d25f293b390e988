package repository

import (
	"context"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// VariantRepositoryImpl is the gorm implementation of VariantRepository.
// The (product_id, parent_attribute_id, child_attribute_id) unique index
// backs the attribute pair invariant; violations surface as ErrDuplicate.
type VariantRepositoryImpl struct {
	s *GormStore
}

func (r *VariantRepositoryImpl) Create(ctx context.Context, variant *models.ProductVariant) error {
	return translate(r.s.conn(ctx).Create(variant).Error)
}

func (r *VariantRepositoryImpl) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&variant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &variant, nil
}

func (r *VariantRepositoryImpl) LockByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&variant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &variant, nil
}

func (r *VariantRepositoryImpl) ListByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.s.conn(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("created_at ASC").
		Find(&variants).Error
	return variants, translate(err)
}

func (r *VariantRepositoryImpl) FindByPair(ctx context.Context, tenantID string, productID, parentAttributeID, childAttributeID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.s.conn(ctx).
		Where("tenant_id = ? AND product_id = ? AND parent_attribute_id = ? AND child_attribute_id = ?",
			tenantID, productID, parentAttributeID, childAttributeID).
		First(&variant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &variant, nil
}

func (r *VariantRepositoryImpl) CountByAttribute(ctx context.Context, tenantID string, attributeID uuid.UUID) (int64, error) {
	var count int64
	err := r.s.conn(ctx).Model(&models.ProductVariant{}).
		Where("tenant_id = ? AND (parent_attribute_id = ? OR child_attribute_id = ?)", tenantID, attributeID, attributeID).
		Count(&count).Error
	return count, translate(err)
}

func (r *VariantRepositoryImpl) Update(ctx context.Context, variant *models.ProductVariant) error {
	variant.UpdatedAt = time.Now().UTC()
	result := r.s.conn(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND tenant_id = ?", variant.ID, variant.TenantID).
		Select("parent_attribute_id", "child_attribute_id", "images", "sell_price", "updated_at").
		Updates(variant)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSellPrice writes only the sell_price column
func (r *VariantRepositoryImpl) UpdateSellPrice(ctx context.Context, tenantID string, id uuid.UUID, price decimal.Decimal) error {
	result := r.s.conn(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{"sell_price": price, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VariantRepositoryImpl) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.ProductVariant{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VariantRepositoryImpl) DeleteByProduct(ctx context.Context, tenantID string, productID uuid.UUID) (int64, error) {
	result := r.s.conn(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Delete(&models.ProductVariant{})
	return result.RowsAffected, translate(result.Error)
}
