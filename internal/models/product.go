package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product sort keys accepted by the listing endpoint
const (
	SortByName            = "name"
	SortByBrand           = "brand"
	SortByDescription     = "description"
	SortByPrimaryCategory = "primaryCategory"
	SortByCreatedAt       = "createdAt"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Product represents a catalog product classified under one category path
type Product struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     string         `json:"tenantId" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"not null"`
	Description  string         `json:"description" gorm:"type:text;not null"`
	Brand        *string        `json:"brand,omitempty"`
	CategoryPath pq.StringArray `json:"categoryIds" gorm:"column:category_ids;type:text[];not null"`
	CreatedBy    string         `json:"createdBy,omitempty"`
	UpdatedBy    string         `json:"updatedBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	Categories []CategoryPathEntry `json:"categories" gorm:"-"`
	Variants   []ProductVariant    `json:"variants,omitempty" gorm:"-"`
}

func (Product) TableName() string {
	return "products"
}

// PrimaryCategoryName returns the name of the root category, if resolved
func (p *Product) PrimaryCategoryName() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0].Name
}

// BrandName returns the brand or an empty string
func (p *Product) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return *p.Brand
}

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Name        string        `json:"name" binding:"max=255"`
	Description string        `json:"description"`
	Brand       *string       `json:"brand" binding:"omitempty,max=255"`
	Categories  []CategoryRef `json:"categories"`
}

// UpdateProductRequest represents a partial product update.
// Categories replaces the category path when non-nil.
type UpdateProductRequest struct {
	Name        *string       `json:"name" binding:"omitempty,max=255"`
	Description *string       `json:"description"`
	Brand       *string       `json:"brand" binding:"omitempty,max=255"`
	Categories  []CategoryRef `json:"categories"`
}

// ProductFilter holds listing options
type ProductFilter struct {
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Toggle    string `form:"toggle"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

// SortState is the current sort selection of a product listing
type SortState struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// ProductListResponse is the paginated listing payload
type ProductListResponse struct {
	Products   []Product      `json:"products"`
	Pagination PaginationInfo `json:"pagination"`
	Sort       SortState      `json:"sort"`
}

// ProductDeleteResult reports the records removed with a product
type ProductDeleteResult struct {
	ProductsDeleted int   `json:"productsDeleted"`
	VariantsDeleted int64 `json:"variantsDeleted"`
	BatchesDeleted  int64 `json:"batchesDeleted"`
}
