package repository

import (
	"context"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
)

// BatchRepositoryImpl is the gorm implementation of BatchRepository
type BatchRepositoryImpl struct {
	s *GormStore
}

func (r *BatchRepositoryImpl) Create(ctx context.Context, batch *models.ImportBatch) error {
	return translate(r.s.conn(ctx).Create(batch).Error)
}

func (r *BatchRepositoryImpl) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&batch).Error
	if err != nil {
		return nil, translate(err)
	}
	return &batch, nil
}

func (r *BatchRepositoryImpl) ListByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.ImportBatch, error) {
	var batches []models.ImportBatch
	err := r.s.conn(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		Order("import_date ASC, created_at ASC").
		Find(&batches).Error
	return batches, translate(err)
}

func (r *BatchRepositoryImpl) Update(ctx context.Context, batch *models.ImportBatch) error {
	batch.UpdatedAt = time.Now().UTC()
	result := r.s.conn(ctx).
		Model(&models.ImportBatch{}).
		Where("id = ? AND tenant_id = ?", batch.ID, batch.TenantID).
		Select("import_date", "quantity", "cost_price", "updated_at").
		Updates(batch)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BatchRepositoryImpl) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.ImportBatch{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BatchRepositoryImpl) DeleteByVariants(ctx context.Context, tenantID string, variantIDs []uuid.UUID) (int64, error) {
	if len(variantIDs) == 0 {
		return 0, nil
	}
	result := r.s.conn(ctx).
		Where("tenant_id = ? AND variant_id IN ?", tenantID, variantIDs).
		Delete(&models.ImportBatch{})
	return result.RowsAffected, translate(result.Error)
}
