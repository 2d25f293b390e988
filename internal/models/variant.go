package models

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// VariantImage is one stored image of a variant
type VariantImage struct {
	Ref         string `json:"ref"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// ImageUpload is a new image blob submitted with a variant
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProductVariant is a product qualified by exactly one (parent, child) attribute pair.
// The pair is unique per product within a tenant.
type ProductVariant struct {
	ID                uuid.UUID                         `json:"id" gorm:"type:uuid;primary_key"`
	TenantID          string                            `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_variant_tenant_attribute_pair,priority:1"`
	ProductID         uuid.UUID                         `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_variant_tenant_attribute_pair,priority:2"`
	ParentAttributeID uuid.UUID                         `json:"parentAttributeId" gorm:"type:uuid;not null;uniqueIndex:idx_variant_tenant_attribute_pair,priority:3"`
	ChildAttributeID  uuid.UUID                         `json:"childAttributeId" gorm:"type:uuid;not null;uniqueIndex:idx_variant_tenant_attribute_pair,priority:4;index"`
	Images            datatypes.JSONSlice[VariantImage] `json:"images" gorm:"type:jsonb;not null"`
	SellPrice         decimal.Decimal                   `json:"sellPrice" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt         time.Time                         `json:"createdAt"`
	UpdatedAt         time.Time                         `json:"updatedAt"`

	ParentAttributeValue string            `json:"parentAttributeValue,omitempty" gorm:"-"`
	ChildAttributeValue  string            `json:"childAttributeValue,omitempty" gorm:"-"`
	Summary              *InventorySummary `json:"summary,omitempty" gorm:"-"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// ImageRefs returns the stored refs in order
func (v *ProductVariant) ImageRefs() []string {
	refs := make([]string, 0, len(v.Images))
	for _, img := range v.Images {
		refs = append(refs, img.Ref)
	}
	return refs
}

// SetSellPriceRequest is the body of the sell price endpoint
type SetSellPriceRequest struct {
	SellPrice decimal.Decimal `json:"sellPrice" binding:"gte=0"`
}

// VariantDeleteResult reports the records removed with a variant
type VariantDeleteResult struct {
	VariantsDeleted int   `json:"variantsDeleted"`
	BatchesDeleted  int64 `json:"batchesDeleted"`
	ImagesRemoved   int   `json:"imagesRemoved"`
}
