package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCategoryLevel is the deepest level a category may sit at (0 = root, 2 = grandchild).
const MaxCategoryLevel = 2

// Category represents a node of the category tree
type Category struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string     `json:"tenantId" gorm:"not null;index:idx_categories_tenant_parent"`
	Name        string     `json:"name" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"not null"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;index:idx_categories_tenant_parent"`
	Level       int        `json:"level" gorm:"not null;default:0"`
	Position    int        `json:"position" gorm:"not null;default:0"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	UpdatedBy   string     `json:"updatedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Children []*Category `json:"children,omitempty" gorm:"-"`
}

func (Category) TableName() string {
	return "categories"
}

// IsRoot returns true if the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CreateCategoryRequest represents the request to create a category
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"max=255"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	ParentID    *string `json:"parentId"`
	Position    *int    `json:"position"`
}

// UpdateCategoryRequest represents the request to update a category.
// A ParentID of "" moves the category to the root.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	ParentID    *string `json:"parentId"`
	Position    *int    `json:"position"`
}

// CategoryRef is one element of a product's ordered category list
type CategoryRef struct {
	CategoryID string `json:"categoryId"`
}

// CategoryPathEntry is a resolved category path element for display
type CategoryPathEntry struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Level int       `json:"level"`
}

// CategoryDeleteResult reports what a category delete removed
type CategoryDeleteResult struct {
	CategoriesDeleted int   `json:"categoriesDeleted"`
	AttributesUpdated int64 `json:"attributesUpdated"`
	AttributesDeleted int64 `json:"attributesDeleted"`
}
