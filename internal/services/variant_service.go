package services

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// DefaultMaxVariantImages caps the images of one variant
const DefaultMaxVariantImages = 8

// ImageInput is one entry of a submitted image list: either a reference to
// an image the variant already has, or a new blob to upload.
type ImageInput struct {
	KeepRef string
	Upload  *models.ImageUpload
}

// KeepImage marks an existing image to keep
func KeepImage(ref string) ImageInput {
	return ImageInput{KeepRef: ref}
}

// NewImage marks a blob to upload
func NewImage(upload models.ImageUpload) ImageInput {
	return ImageInput{Upload: &upload}
}

// VariantDraft carries everything needed to create a variant
type VariantDraft struct {
	ProductID         uuid.UUID
	Images            []ImageInput
	ParentAttributeID uuid.UUID
	ChildAttributeID  uuid.UUID
	SellPrice         decimal.Decimal
}

// VariantPayload is a partial variant update. When ReplaceImages is set,
// Images is the complete resulting list in order; omitted images are removed.
type VariantPayload struct {
	ReplaceImages     bool
	Images            []ImageInput
	ParentAttributeID *uuid.UUID
	ChildAttributeID  *uuid.UUID
	SellPrice         *decimal.Decimal
}

// NewVariantPayload starts an empty update
func NewVariantPayload() *VariantPayload {
	return &VariantPayload{}
}

// Keep appends an existing image to the resulting list
func (p *VariantPayload) Keep(ref string) *VariantPayload {
	p.ReplaceImages = true
	p.Images = append(p.Images, KeepImage(ref))
	return p
}

// Add appends a new upload to the resulting list
func (p *VariantPayload) Add(upload models.ImageUpload) *VariantPayload {
	p.ReplaceImages = true
	p.Images = append(p.Images, NewImage(upload))
	return p
}

func (p *VariantPayload) WithAttributes(parentID, childID uuid.UUID) *VariantPayload {
	p.ParentAttributeID = &parentID
	p.ChildAttributeID = &childID
	return p
}

func (p *VariantPayload) WithSellPrice(price decimal.Decimal) *VariantPayload {
	p.SellPrice = &price
	return p
}

// VariantService builds and edits product variants
type VariantService struct {
	store     repository.Store
	images    ImageStore
	ledger    *InventoryService
	events    eventSink
	logger    *logrus.Entry
	maxImages int
}

// NewVariantService creates a new VariantService
func NewVariantService(store repository.Store, images ImageStore, ledger *InventoryService, publisher EventPublisher, maxImages int, logger *logrus.Logger) *VariantService {
	log := logger.WithField("component", "services.variants")
	if maxImages <= 0 {
		maxImages = DefaultMaxVariantImages
	}
	return &VariantService{
		store:     store,
		images:    images,
		ledger:    ledger,
		events:    eventSink{publisher: publisher, logger: log},
		logger:    log,
		maxImages: maxImages,
	}
}

// CreateVariant validates the draft, uploads its images and inserts the
// variant. The unique attribute-pair index decides races between creators.
func (s *VariantService) CreateVariant(ctx context.Context, tenantID string, draft VariantDraft) (*models.ProductVariant, error) {
	if err := s.checkImageCount(len(draft.Images)); err != nil {
		return nil, err
	}
	for _, img := range draft.Images {
		if img.Upload == nil {
			return nil, validationError("images", "New variants can only contain uploaded images")
		}
	}
	if err := checkSellPrice(draft.SellPrice); err != nil {
		return nil, err
	}
	if _, _, err := checkVariantIdentity(ctx, s.store, tenantID, draft.ProductID, draft.ParentAttributeID, draft.ChildAttributeID, uuid.Nil); err != nil {
		return nil, err
	}

	stored, err := s.upload(ctx, tenantID, draft.Images)
	if err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ID:                uuid.New(),
		TenantID:          tenantID,
		ProductID:         draft.ProductID,
		ParentAttributeID: draft.ParentAttributeID,
		ChildAttributeID:  draft.ChildAttributeID,
		Images:            datatypes.JSONSlice[models.VariantImage](stored),
		SellPrice:         draft.SellPrice,
	}

	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Products().LockByID(ctx, tenantID, draft.ProductID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("productId", "Product")
			}
			return err
		}
		_, pair, err := checkVariantIdentity(ctx, tx, tenantID, draft.ProductID, draft.ParentAttributeID, draft.ChildAttributeID, uuid.Nil)
		if err != nil {
			return err
		}
		variant.ParentAttributeValue = pair.Parent.Value
		variant.ChildAttributeValue = pair.Child.Value

		if err := tx.Variants().Create(ctx, variant); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateVariantError(pair.Parent.Value, pair.Child.Value)
			}
			return err
		}
		return nil
	})
	if err != nil {
		discardImages(ctx, s.images, refsOf(stored), s.logger)
		return nil, err
	}

	s.events.emit(ctx, variantEvent(events.VariantCreated, variant))
	return variant, nil
}

// UpdateVariant applies a payload. Attribute changes re-check the pair
// against sibling variants; a sell price change touches no batches.
func (s *VariantService) UpdateVariant(ctx context.Context, tenantID string, variantID uuid.UUID, payload VariantPayload) (*models.ProductVariant, error) {
	current, err := s.store.Variants().GetByID(ctx, tenantID, variantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("id", "Variant")
		}
		return nil, err
	}

	if payload.SellPrice != nil {
		if err := checkSellPrice(*payload.SellPrice); err != nil {
			return nil, err
		}
	}
	parentID, childID := current.ParentAttributeID, current.ChildAttributeID
	if payload.ParentAttributeID != nil {
		parentID = *payload.ParentAttributeID
	}
	if payload.ChildAttributeID != nil {
		childID = *payload.ChildAttributeID
	}
	pairChanged := parentID != current.ParentAttributeID || childID != current.ChildAttributeID
	if pairChanged {
		if _, _, err := checkVariantIdentity(ctx, s.store, tenantID, current.ProductID, parentID, childID, current.ID); err != nil {
			return nil, err
		}
	}

	var uploads []ImageInput
	if payload.ReplaceImages {
		if err := s.checkImageCount(len(payload.Images)); err != nil {
			return nil, err
		}
		if err := checkKeptImages(current, payload.Images); err != nil {
			return nil, err
		}
		for _, img := range payload.Images {
			if img.Upload != nil {
				uploads = append(uploads, img)
			}
		}
	}
	uploaded, err := s.upload(ctx, tenantID, uploads)
	if err != nil {
		return nil, err
	}

	var variant *models.ProductVariant
	var removed []string
	var oldPrice decimal.Decimal
	var parentValue, childValue string
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		variant, err = tx.Variants().LockByID(ctx, tenantID, variantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Variant")
			}
			return err
		}
		oldPrice = variant.SellPrice

		if pairChanged {
			_, pair, err := checkVariantIdentity(ctx, tx, tenantID, variant.ProductID, parentID, childID, variant.ID)
			if err != nil {
				return err
			}
			parentValue, childValue = pair.Parent.Value, pair.Child.Value
			variant.ParentAttributeID = parentID
			variant.ChildAttributeID = childID
		}

		if payload.ReplaceImages {
			if err := checkKeptImages(variant, payload.Images); err != nil {
				return err
			}
			merged, dropped := mergeImages(variant.Images, payload.Images, uploaded)
			variant.Images = merged
			removed = dropped
		}
		if payload.SellPrice != nil {
			variant.SellPrice = *payload.SellPrice
		}

		if err := tx.Variants().Update(ctx, variant); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateVariantError(parentValue, childValue)
			}
			return err
		}
		return nil
	})
	if err != nil {
		discardImages(ctx, s.images, refsOf(uploaded), s.logger)
		return nil, err
	}

	discardImages(ctx, s.images, removed, s.logger)
	annotated := []models.ProductVariant{*variant}
	if err := annotateVariants(ctx, s.store, tenantID, annotated); err == nil {
		variant = &annotated[0]
	}
	s.events.emit(ctx, variantEvent(events.VariantUpdated, variant))
	if !oldPrice.Equal(variant.SellPrice) {
		s.events.emit(ctx, priceChangedEvent(variant, oldPrice))
	}
	return variant, nil
}

// DeleteVariant removes a variant and its batches
func (s *VariantService) DeleteVariant(ctx context.Context, tenantID string, variantID uuid.UUID) (*models.VariantDeleteResult, error) {
	result := &models.VariantDeleteResult{}
	var variant *models.ProductVariant

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		variant, err = tx.Variants().LockByID(ctx, tenantID, variantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Variant")
			}
			return err
		}
		if result.BatchesDeleted, err = tx.Batches().DeleteByVariants(ctx, tenantID, []uuid.UUID{variantID}); err != nil {
			return err
		}
		if err := tx.Variants().Delete(ctx, tenantID, variantID); err != nil {
			return err
		}
		result.VariantsDeleted = 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.ImagesRemoved = discardImages(ctx, s.images, variant.ImageRefs(), s.logger)
	s.events.emit(ctx, variantEvent(events.VariantDeleted, variant).WithMetadata("batchesDeleted", result.BatchesDeleted))
	return result, nil
}

// GetVariant returns a variant with attribute values and its live inventory summary
func (s *VariantService) GetVariant(ctx context.Context, tenantID string, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.store.Variants().GetByID(ctx, tenantID, variantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("id", "Variant")
		}
		return nil, err
	}
	variants := []models.ProductVariant{*variant}
	if err := annotateVariants(ctx, s.store, tenantID, variants); err != nil {
		return nil, err
	}
	variant = &variants[0]

	if s.ledger != nil {
		summary, err := s.ledger.summarize(ctx, s.store, variant)
		if err != nil {
			return nil, err
		}
		variant.Summary = summary
	}
	return variant, nil
}

func (s *VariantService) ListVariants(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	if _, err := s.store.Products().GetByID(ctx, tenantID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("productId", "Product")
		}
		return nil, err
	}
	variants, err := s.store.Variants().ListByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if err := annotateVariants(ctx, s.store, tenantID, variants); err != nil {
		return nil, err
	}
	return variants, nil
}

func (s *VariantService) checkImageCount(n int) error {
	if n == 0 {
		return validationError("images", "At least one image is required")
	}
	if n > s.maxImages {
		return validationError("images", fmt.Sprintf("A variant can have at most %d images", s.maxImages))
	}
	return nil
}

// upload stores every new blob; on failure the ones already stored are removed
func (s *VariantService) upload(ctx context.Context, tenantID string, inputs []ImageInput) ([]models.VariantImage, error) {
	stored := make([]models.VariantImage, 0, len(inputs))
	for _, in := range inputs {
		if in.Upload == nil {
			continue
		}
		if in.Upload.Body == nil {
			discardImages(ctx, s.images, refsOf(stored), s.logger)
			return nil, validationError("images", "Image file is empty")
		}
		if s.images == nil {
			return nil, errors.New("image storage is not configured")
		}
		img, err := s.images.Put(ctx, tenantID, *in.Upload)
		if err != nil {
			discardImages(ctx, s.images, refsOf(stored), s.logger)
			return nil, fmt.Errorf("failed to store image %s: %w", in.Upload.Filename, err)
		}
		stored = append(stored, img)
	}
	return stored, nil
}

// checkVariantIdentity validates the product, the attribute pair, the
// attribute's category scope and pair uniqueness (ignoring excludeID).
func checkVariantIdentity(ctx context.Context, store repository.Store, tenantID string, productID, parentID, childID, excludeID uuid.UUID) (*models.Product, *models.AttributePair, error) {
	product, err := store.Products().GetByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundError("productId", "Product")
		}
		return nil, nil, err
	}

	pair, err := validateAttributePair(ctx, store, tenantID, parentID, childID)
	if err != nil {
		return nil, nil, err
	}
	if !pair.Parent.InScope(product.CategoryPath) {
		return nil, nil, validationError("parentAttributeId",
			fmt.Sprintf("%q is not available for this product's categories", pair.Parent.Value))
	}

	existing, err := store.Variants().FindByPair(ctx, tenantID, productID, parentID, childID)
	switch {
	case err == nil && existing.ID != excludeID:
		return nil, nil, duplicateVariantError(pair.Parent.Value, pair.Child.Value)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, nil, err
	}
	return product, pair, nil
}

func checkKeptImages(variant *models.ProductVariant, inputs []ImageInput) error {
	existing := map[string]bool{}
	for _, img := range variant.Images {
		existing[img.Ref] = true
	}
	seen := map[string]bool{}
	for _, in := range inputs {
		if in.Upload != nil {
			continue
		}
		if in.KeepRef == "" {
			return validationError("images", "Image reference is empty")
		}
		if !existing[in.KeepRef] {
			return validationError("images", fmt.Sprintf("Image %s does not belong to this variant", in.KeepRef))
		}
		if seen[in.KeepRef] {
			return validationError("images", fmt.Sprintf("Image %s is listed more than once", in.KeepRef))
		}
		seen[in.KeepRef] = true
	}
	return nil
}

// mergeImages builds the resulting list in submitted order, consuming uploaded
// images in order for each new entry, and returns the refs no longer used.
func mergeImages(current datatypes.JSONSlice[models.VariantImage], inputs []ImageInput, uploaded []models.VariantImage) (datatypes.JSONSlice[models.VariantImage], []string) {
	byRef := make(map[string]models.VariantImage, len(current))
	for _, img := range current {
		byRef[img.Ref] = img
	}

	merged := make(datatypes.JSONSlice[models.VariantImage], 0, len(inputs))
	kept := map[string]bool{}
	next := 0
	for _, in := range inputs {
		if in.Upload != nil {
			merged = append(merged, uploaded[next])
			next++
			continue
		}
		merged = append(merged, byRef[in.KeepRef])
		kept[in.KeepRef] = true
	}

	var dropped []string
	for _, img := range current {
		if !kept[img.Ref] {
			dropped = append(dropped, img.Ref)
		}
	}
	return merged, dropped
}

// annotateVariants fills attribute display values
func annotateVariants(ctx context.Context, store repository.Store, tenantID string, variants []models.ProductVariant) error {
	values := map[uuid.UUID]string{}
	lookup := func(id uuid.UUID) (string, error) {
		if v, ok := values[id]; ok {
			return v, nil
		}
		attribute, err := store.Attributes().GetByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				values[id] = ""
				return "", nil
			}
			return "", err
		}
		values[id] = attribute.Value
		return attribute.Value, nil
	}

	for i := range variants {
		var err error
		if variants[i].ParentAttributeValue, err = lookup(variants[i].ParentAttributeID); err != nil {
			return err
		}
		if variants[i].ChildAttributeValue, err = lookup(variants[i].ChildAttributeID); err != nil {
			return err
		}
	}
	return nil
}

func refsOf(images []models.VariantImage) []string {
	refs := make([]string, len(images))
	for i, img := range images {
		refs[i] = img.Ref
	}
	return refs
}

func variantEvent(eventType string, v *models.ProductVariant) *events.CatalogEvent {
	event := events.NewEvent(eventType, v.TenantID, "variant", v.ID.String())
	event.ParentID = v.ProductID.String()
	if v.ParentAttributeValue != "" {
		event.Name = v.ParentAttributeValue + ": " + v.ChildAttributeValue
	}
	return event.
		WithMetadata("parentAttributeId", v.ParentAttributeID.String()).
		WithMetadata("childAttributeId", v.ChildAttributeID.String()).
		WithMetadata("sellPrice", v.SellPrice.String()).
		WithMetadata("imageCount", len(v.Images))
}

func priceChangedEvent(v *models.ProductVariant, oldPrice decimal.Decimal) *events.CatalogEvent {
	event := events.NewEvent(events.VariantPriceChanged, v.TenantID, "variant", v.ID.String())
	event.ParentID = v.ProductID.String()
	return event.
		WithMetadata("oldSellPrice", oldPrice.String()).
		WithMetadata("newSellPrice", v.SellPrice.String())
}
