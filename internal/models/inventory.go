package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportDateLayout is the accepted importDate format
const ImportDateLayout = "2006-01-02"

// Average cost methods
const (
	CostMethodWeighted  = "weighted"
	CostMethodBatchMean = "batch_mean"
)

// ImportBatch is one inventory receipt against a variant
type ImportBatch struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	TenantID   string          `json:"tenantId" gorm:"not null;index"`
	VariantID  uuid.UUID       `json:"variantId" gorm:"type:uuid;not null;index"`
	ImportDate time.Time       `json:"importDate" gorm:"type:date;not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	CostPrice  decimal.Decimal `json:"costPrice" gorm:"type:numeric(14,2);not null"`
	CreatedBy  string          `json:"createdBy,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}

// RecordBatchRequest represents a new import batch
type RecordBatchRequest struct {
	ImportDate string          `json:"importDate"`
	Quantity   int             `json:"quantity"`
	CostPrice  decimal.Decimal `json:"costPrice"`
}

// UpdateBatchRequest represents a partial batch edit
type UpdateBatchRequest struct {
	ImportDate *string          `json:"importDate"`
	Quantity   *int             `json:"quantity"`
	CostPrice  *decimal.Decimal `json:"costPrice"`
}

// InventorySummary is derived from the batch set of a variant on every read
type InventorySummary struct {
	VariantID           uuid.UUID        `json:"variantId"`
	BatchCount          int              `json:"batchCount"`
	TotalQuantity       int64            `json:"totalQuantity"`
	AverageCostPrice    decimal.Decimal  `json:"averageCostPrice"`
	TotalInventoryValue decimal.Decimal  `json:"totalInventoryValue"`
	SellPrice           decimal.Decimal  `json:"sellPrice"`
	ProfitMargin        *decimal.Decimal `json:"profitMargin"`
	ProfitMarginDisplay string           `json:"profitMarginDisplay"`
	CostMethod          string           `json:"costMethod"`
}

// ImportRowError describes a rejected row of a batch import
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// BatchImportResult summarizes a batch import
type BatchImportResult struct {
	TotalRows    int               `json:"totalRows"`
	SuccessCount int               `json:"successCount"`
	FailedCount  int               `json:"failedCount"`
	ValidateOnly bool              `json:"validateOnly"`
	Errors       []ImportRowError  `json:"errors,omitempty"`
	Batches      []ImportBatch     `json:"batches,omitempty"`
	Summary      *InventorySummary `json:"summary,omitempty"`
}
