package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Attribute is a node of the two-level attribute tree. Parent attributes
// (ParentID == nil) name a dimension such as "Size"; child attributes hold
// its values such as "Large".
type Attribute struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TenantID      string         `json:"tenantId" gorm:"not null;index"`
	Value         string         `json:"value" gorm:"not null"`
	Description   *string        `json:"description,omitempty"`
	ParentID      *uuid.UUID     `json:"parentId,omitempty" gorm:"type:uuid;index"`
	CategoryScope pq.StringArray `json:"categoryIds" gorm:"column:category_ids;type:text[]"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	Children []Attribute `json:"children,omitempty" gorm:"-"`
}

func (Attribute) TableName() string {
	return "attributes"
}

// IsParent returns true for top-level attributes
func (a *Attribute) IsParent() bool {
	return a.ParentID == nil
}

// InScope reports whether the attribute is scoped to any of the given category ids
func (a *Attribute) InScope(categoryIDs []string) bool {
	for _, scoped := range a.CategoryScope {
		for _, id := range categoryIDs {
			if scoped == id {
				return true
			}
		}
	}
	return false
}

// CreateAttributeRequest is used for both parent and child attributes
type CreateAttributeRequest struct {
	Value       string  `json:"value" binding:"max=255"`
	Description *string `json:"description"`
}

// UpdateAttributeRequest represents a partial attribute update.
// CategoryIDs replaces the scope of a parent attribute when non-nil.
type UpdateAttributeRequest struct {
	Value       *string  `json:"value" binding:"omitempty,max=255"`
	Description *string  `json:"description"`
	CategoryIDs []string `json:"categoryIds"`
}

// AttributePair is a validated (parent, child) attribute selection
type AttributePair struct {
	Parent Attribute `json:"parent"`
	Child  Attribute `json:"child"`
}
