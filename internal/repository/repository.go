package repository

import (
	"context"
	"errors"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// CategoryRepository persists category tree nodes
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error)
	GetByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Category, error)
	ListChildren(ctx context.Context, tenantID string, parentID *uuid.UUID) ([]models.Category, error)
	ListAll(ctx context.Context, tenantID string) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, tenantID string, ids []uuid.UUID) (int64, error)
}

// AttributeRepository persists attribute tree nodes
type AttributeRepository interface {
	Create(ctx context.Context, attribute *models.Attribute) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Attribute, error)
	// ListParentsInScope returns parent attributes scoped to any of the category ids
	ListParentsInScope(ctx context.Context, tenantID string, categoryIDs []string) ([]models.Attribute, error)
	ListChildren(ctx context.Context, tenantID string, parentID uuid.UUID) ([]models.Attribute, error)
	CountChildren(ctx context.Context, tenantID string, parentID uuid.UUID) (int64, error)
	CountInScope(ctx context.Context, tenantID string, categoryIDs []string) (int64, error)
	// RemoveFromScope strips the category ids from every attribute scope
	RemoveFromScope(ctx context.Context, tenantID string, categoryIDs []string) (int64, error)
	Update(ctx context.Context, attribute *models.Attribute) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

// ProductQuery selects a page of products. Search matches name, description
// or brand case-insensitively. SortBy takes the models.SortBy* keys; text keys
// compare case-insensitively and ties keep creation order. A Limit of zero
// returns every match.
type ProductQuery struct {
	Search    string
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// ProductRepository persists products
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error)
	// LockByID loads the product and holds a row lock until the transaction ends
	LockByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error)
	// List returns one page of products matching q and the total match count
	List(ctx context.Context, tenantID string, q ProductQuery) ([]models.Product, int64, error)
	CountByCategories(ctx context.Context, tenantID string, categoryIDs []string) (int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

// VariantRepository persists product variants
type VariantRepository interface {
	Create(ctx context.Context, variant *models.ProductVariant) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error)
	LockByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error)
	ListByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error)
	FindByPair(ctx context.Context, tenantID string, productID, parentAttributeID, childAttributeID uuid.UUID) (*models.ProductVariant, error)
	CountByAttribute(ctx context.Context, tenantID string, attributeID uuid.UUID) (int64, error)
	Update(ctx context.Context, variant *models.ProductVariant) error
	UpdateSellPrice(ctx context.Context, tenantID string, id uuid.UUID, price decimal.Decimal) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	DeleteByProduct(ctx context.Context, tenantID string, productID uuid.UUID) (int64, error)
}

// BatchRepository persists import batches
type BatchRepository interface {
	Create(ctx context.Context, batch *models.ImportBatch) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportBatch, error)
	ListByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.ImportBatch, error)
	Update(ctx context.Context, batch *models.ImportBatch) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	DeleteByVariants(ctx context.Context, tenantID string, variantIDs []uuid.UUID) (int64, error)
}

// Store groups the repositories behind one transactional boundary
type Store interface {
	Categories() CategoryRepository
	Attributes() AttributeRepository
	Products() ProductRepository
	Variants() VariantRepository
	Batches() BatchRepository

	// WithTransaction runs fn against a store bound to a single transaction.
	// Returning an error rolls the transaction back.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
