package repository

import (
	"context"
	"strings"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepositoryImpl is the gorm implementation of ProductRepository
type ProductRepositoryImpl struct {
	s *GormStore
}

func (r *ProductRepositoryImpl) Create(ctx context.Context, product *models.Product) error {
	return translate(r.s.conn(ctx).Create(product).Error)
}

func (r *ProductRepositoryImpl) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&product).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepositoryImpl) LockByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&product).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepositoryImpl) List(ctx context.Context, tenantID string, q ProductQuery) ([]models.Product, int64, error) {
	query := r.s.conn(ctx).Model(&models.Product{}).Where("products.tenant_id = ?", tenantID)
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where("(products.name ILIKE ? OR products.description ILIKE ? OR products.brand ILIKE ?)", pattern, pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	direction := "ASC"
	if q.SortOrder == models.SortDesc {
		direction = "DESC"
	}
	switch q.SortBy {
	case models.SortByName:
		query = query.Order("LOWER(products.name) " + direction)
	case models.SortByBrand:
		query = query.Order("LOWER(COALESCE(products.brand, '')) " + direction)
	case models.SortByDescription:
		query = query.Order("LOWER(products.description) " + direction)
	case models.SortByPrimaryCategory:
		query = query.
			Joins("LEFT JOIN categories AS primary_category ON primary_category.tenant_id = products.tenant_id AND primary_category.id::text = products.category_ids[1]").
			Order("LOWER(COALESCE(primary_category.name, '')) " + direction)
	default:
		query = query.Order("products.created_at " + direction)
	}
	query = query.Order("products.created_at ASC").Order("products.id ASC")

	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var products []models.Product
	if err := query.Select("products.*").Find(&products).Error; err != nil {
		return nil, 0, translate(err)
	}
	return products, total, nil
}

func (r *ProductRepositoryImpl) CountByCategories(ctx context.Context, tenantID string, categoryIDs []string) (int64, error) {
	var count int64
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	err := r.s.conn(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND category_ids && ?::text[]", tenantID, pq.StringArray(categoryIDs)).
		Count(&count).Error
	return count, translate(err)
}

func (r *ProductRepositoryImpl) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	result := r.s.conn(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", product.ID, product.TenantID).
		Select("name", "description", "brand", "category_ids", "updated_by", "updated_at").
		Updates(product)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepositoryImpl) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.s.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Product{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
