package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// InventoryService records import batches and derives inventory summaries
type InventoryService struct {
	store      repository.Store
	events     eventSink
	logger     *logrus.Entry
	costMethod string
}

// NewInventoryService creates a new InventoryService. An unknown cost method
// falls back to the quantity-weighted average.
func NewInventoryService(store repository.Store, publisher EventPublisher, costMethod string, logger *logrus.Logger) *InventoryService {
	log := logger.WithField("component", "services.inventory")
	if !ValidCostMethod(costMethod) {
		if costMethod != "" {
			log.WithField("cost_method", costMethod).Warn("Unknown cost method, using weighted average")
		}
		costMethod = models.CostMethodWeighted
	}
	return &InventoryService{
		store:      store,
		events:     eventSink{publisher: publisher, logger: log},
		logger:     log,
		costMethod: costMethod,
	}
}

// CostMethod returns the configured average cost method
func (s *InventoryService) CostMethod() string {
	return s.costMethod
}

// RecordBatch appends an import batch to a variant
func (s *InventoryService) RecordBatch(ctx context.Context, tenantID string, variantID uuid.UUID, req models.RecordBatchRequest) (*models.ImportBatch, error) {
	importDate, err := parseImportDate(req.ImportDate)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := checkCostPrice(req.CostPrice); err != nil {
		return nil, err
	}

	batch := &models.ImportBatch{
		ID:         uuid.New(),
		TenantID:   tenantID,
		VariantID:  variantID,
		ImportDate: importDate,
		Quantity:   req.Quantity,
		CostPrice:  req.CostPrice,
		CreatedBy:  actorFrom(ctx),
	}

	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Variants().GetByID(ctx, tenantID, variantID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("variantId", "Variant")
			}
			return err
		}
		return tx.Batches().Create(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, batchEvent(events.BatchRecorded, batch))
	return batch, nil
}

func (s *InventoryService) UpdateBatch(ctx context.Context, tenantID string, batchID uuid.UUID, req models.UpdateBatchRequest) (*models.ImportBatch, error) {
	var batch *models.ImportBatch
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		batch, err = tx.Batches().GetByID(ctx, tenantID, batchID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Import batch")
			}
			return err
		}

		if req.ImportDate != nil {
			if batch.ImportDate, err = parseImportDate(*req.ImportDate); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			if err := checkQuantity(*req.Quantity); err != nil {
				return err
			}
			batch.Quantity = *req.Quantity
		}
		if req.CostPrice != nil {
			if err := checkCostPrice(*req.CostPrice); err != nil {
				return err
			}
			batch.CostPrice = *req.CostPrice
		}
		return tx.Batches().Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, batchEvent(events.BatchUpdated, batch))
	return batch, nil
}

func (s *InventoryService) DeleteBatch(ctx context.Context, tenantID string, batchID uuid.UUID) error {
	var batch *models.ImportBatch
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		batch, err = tx.Batches().GetByID(ctx, tenantID, batchID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Import batch")
			}
			return err
		}
		return tx.Batches().Delete(ctx, tenantID, batchID)
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, batchEvent(events.BatchDeleted, batch))
	return nil
}

func (s *InventoryService) ListBatches(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.ImportBatch, error) {
	if _, err := s.store.Variants().GetByID(ctx, tenantID, variantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("variantId", "Variant")
		}
		return nil, err
	}
	return s.store.Batches().ListByVariant(ctx, tenantID, variantID)
}

// GetInventorySummary recomputes the aggregates from the current batch set
func (s *InventoryService) GetInventorySummary(ctx context.Context, tenantID string, variantID uuid.UUID) (*models.InventorySummary, error) {
	variant, err := s.store.Variants().GetByID(ctx, tenantID, variantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("variantId", "Variant")
		}
		return nil, err
	}
	return s.summarize(ctx, s.store, variant)
}

func (s *InventoryService) summarize(ctx context.Context, store repository.Store, variant *models.ProductVariant) (*models.InventorySummary, error) {
	batches, err := store.Batches().ListByVariant(ctx, variant.TenantID, variant.ID)
	if err != nil {
		return nil, err
	}
	return Summarize(variant.ID, variant.SellPrice, batches, s.costMethod), nil
}

// SetSellPrice changes only the sell price of a variant. Re-read the variant
// or its summary afterwards for the new profit margin.
func (s *InventoryService) SetSellPrice(ctx context.Context, tenantID string, variantID uuid.UUID, price decimal.Decimal) (*models.ProductVariant, error) {
	if err := checkSellPrice(price); err != nil {
		return nil, err
	}

	var variant *models.ProductVariant
	var oldPrice decimal.Decimal
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		current, err := tx.Variants().LockByID(ctx, tenantID, variantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("variantId", "Variant")
			}
			return err
		}
		oldPrice = current.SellPrice
		if err := tx.Variants().UpdateSellPrice(ctx, tenantID, variantID, price); err != nil {
			return err
		}
		variant, err = tx.Variants().GetByID(ctx, tenantID, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !oldPrice.Equal(price) {
		s.events.emit(ctx, priceChangedEvent(variant, oldPrice))
	}
	return variant, nil
}

// BatchImportRow is one raw row of a batch import file
type BatchImportRow struct {
	Row        int
	ImportDate string
	Quantity   string
	CostPrice  string
}

// ImportBatches validates every row first and records them all in one
// transaction only when no row has errors. validateOnly skips the write.
func (s *InventoryService) ImportBatches(ctx context.Context, tenantID string, variantID uuid.UUID, rows []BatchImportRow, validateOnly bool) (*models.BatchImportResult, error) {
	variant, err := s.store.Variants().GetByID(ctx, tenantID, variantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("variantId", "Variant")
		}
		return nil, err
	}

	result := &models.BatchImportResult{TotalRows: len(rows), ValidateOnly: validateOnly}
	batches := make([]models.ImportBatch, 0, len(rows))
	for _, r := range rows {
		batch, rowErr := parseImportRow(r)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		batch.ID = uuid.New()
		batch.TenantID = tenantID
		batch.VariantID = variantID
		batch.CreatedBy = actorFrom(ctx)
		batches = append(batches, batch)
	}
	result.FailedCount = len(result.Errors)
	if result.FailedCount > 0 {
		return result, nil
	}
	if validateOnly {
		result.SuccessCount = len(batches)
		return result, nil
	}

	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Variants().LockByID(ctx, tenantID, variantID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("variantId", "Variant")
			}
			return err
		}
		for i := range batches {
			if err := tx.Batches().Create(ctx, &batches[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.SuccessCount = len(batches)
	result.Batches = batches
	for i := range batches {
		s.events.emit(ctx, batchEvent(events.BatchRecorded, &batches[i]))
	}

	summary, err := s.summarize(ctx, s.store, variant)
	if err != nil {
		s.logger.WithError(err).WithField("variant_id", variantID).Warn("Failed to summarize after import")
	} else {
		result.Summary = summary
	}
	return result, nil
}

func parseImportRow(r BatchImportRow) (models.ImportBatch, *models.ImportRowError) {
	fail := func(err error) (models.ImportBatch, *models.ImportRowError) {
		rowErr := &models.ImportRowError{Row: r.Row, Message: err.Error()}
		if ce, ok := AsCatalogError(err); ok {
			rowErr.Field = ce.Field
			rowErr.Message = ce.Message
		}
		return models.ImportBatch{}, rowErr
	}

	importDate, err := parseImportDate(r.ImportDate)
	if err != nil {
		return fail(err)
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(r.Quantity))
	if err != nil {
		return fail(validationError("quantity", "Quantity must be a whole number"))
	}
	if err := checkQuantity(quantity); err != nil {
		return fail(err)
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(r.CostPrice))
	if err != nil {
		return fail(validationError("costPrice", "Cost price must be a number"))
	}
	if err := checkCostPrice(cost); err != nil {
		return fail(err)
	}
	return models.ImportBatch{ImportDate: importDate, Quantity: quantity, CostPrice: cost}, nil
}

// parseImportDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps the date part
func parseImportDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validationError("importDate", "Import date is required")
	}
	if t, err := time.Parse(models.ImportDateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, validationError("importDate", fmt.Sprintf("Import date %q must be in YYYY-MM-DD format", raw))
}

func checkQuantity(q int) error {
	if q <= 0 {
		return validationError("quantity", "Quantity must be greater than 0")
	}
	return nil
}

func batchEvent(eventType string, b *models.ImportBatch) *events.CatalogEvent {
	event := events.NewEvent(eventType, b.TenantID, "import_batch", b.ID.String())
	event.ParentID = b.VariantID.String()
	return event.
		WithMetadata("importDate", b.ImportDate.Format(models.ImportDateLayout)).
		WithMetadata("quantity", b.Quantity).
		WithMetadata("costPrice", b.CostPrice.String())
}
