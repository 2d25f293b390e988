package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// CatalogService owns products and their category paths
type CatalogService struct {
	store           repository.Store
	images          ImageStore
	events          eventSink
	logger          *logrus.Entry
	defaultPageSize int
	maxPageSize     int
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(store repository.Store, images ImageStore, publisher EventPublisher, defaultPageSize, maxPageSize int, logger *logrus.Logger) *CatalogService {
	log := logger.WithField("component", "services.catalog")
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &CatalogService{
		store:           store,
		images:          images,
		events:          eventSink{publisher: publisher, logger: log},
		logger:          log,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, tenantID string, req models.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name", "Name is required")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, validationError("description", "Description is required")
	}

	product := &models.Product{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		Brand:       trimmedPtr(req.Brand),
		CreatedBy:   actorFrom(ctx),
		UpdatedBy:   actorFrom(ctx),
	}

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		path, err := resolveCategoryPath(ctx, tx, tenantID, req.Categories)
		if err != nil {
			return err
		}
		product.CategoryPath = pathIDs(path)
		product.Categories = pathEntries(path)
		return tx.Products().Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, productEvent(events.ProductCreated, product))
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateProductRequest) (*models.Product, error) {
	var product *models.Product
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = tx.Products().LockByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Product")
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationError("name", "Name is required")
			}
			product.Name = name
		}
		if req.Description != nil {
			description := strings.TrimSpace(*req.Description)
			if description == "" {
				return validationError("description", "Description is required")
			}
			product.Description = description
		}
		if req.Brand != nil {
			product.Brand = trimmedPtr(req.Brand)
		}

		var path []models.Category
		if req.Categories != nil {
			path, err = resolveCategoryPath(ctx, tx, tenantID, req.Categories)
			if err != nil {
				return err
			}
			product.CategoryPath = pathIDs(path)
		} else {
			path, err = lookupPath(ctx, tx, tenantID, product.CategoryPath)
			if err != nil {
				return err
			}
		}
		product.Categories = pathEntries(path)
		product.UpdatedBy = actorFrom(ctx)
		return tx.Products().Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, productEvent(events.ProductUpdated, product))
	return product, nil
}

// DeleteProduct removes a product with its variants and their batches and
// reports how many records went with it.
func (s *CatalogService) DeleteProduct(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductDeleteResult, error) {
	result := &models.ProductDeleteResult{}
	var product *models.Product
	var imageRefs []string

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = tx.Products().LockByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("id", "Product")
			}
			return err
		}

		variants, err := tx.Variants().ListByProduct(ctx, tenantID, id)
		if err != nil {
			return err
		}
		variantIDs := make([]uuid.UUID, 0, len(variants))
		for _, v := range variants {
			variantIDs = append(variantIDs, v.ID)
			imageRefs = append(imageRefs, v.ImageRefs()...)
		}

		if result.BatchesDeleted, err = tx.Batches().DeleteByVariants(ctx, tenantID, variantIDs); err != nil {
			return err
		}
		if result.VariantsDeleted, err = tx.Variants().DeleteByProduct(ctx, tenantID, id); err != nil {
			return err
		}
		if err := tx.Products().Delete(ctx, tenantID, id); err != nil {
			return err
		}
		result.ProductsDeleted = 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	discardImages(ctx, s.images, imageRefs, s.logger)
	s.events.emit(ctx, productEvent(events.ProductDeleted, product).
		WithMetadata("variantsDeleted", result.VariantsDeleted).
		WithMetadata("batchesDeleted", result.BatchesDeleted))
	return result, nil
}

// GetProduct returns a product with its resolved category path and variants
func (s *CatalogService) GetProduct(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("id", "Product")
		}
		return nil, err
	}
	path, err := lookupPath(ctx, s.store, tenantID, product.CategoryPath)
	if err != nil {
		return nil, err
	}
	product.Categories = pathEntries(path)

	variants, err := s.store.Variants().ListByProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := annotateVariants(ctx, s.store, tenantID, variants); err != nil {
		return nil, err
	}
	product.Variants = variants
	return product, nil
}

// ListProducts searches, sorts and paginates products. A toggle key applied
// to the current sort flips its direction or switches to the new key.
func (s *CatalogService) ListProducts(ctx context.Context, tenantID string, filter models.ProductFilter) (*models.ProductListResponse, error) {
	sortState, err := normalizeSort(filter.SortBy, filter.SortOrder)
	if err != nil {
		return nil, err
	}
	if toggle := strings.TrimSpace(filter.Toggle); toggle != "" {
		next := ToggleSort(sortState, toggle)
		if sortState, err = normalizeSort(next.SortBy, next.SortOrder); err != nil {
			if ce, ok := AsCatalogError(err); ok && ce.Field == "sortBy" {
				ce.Field = "toggle"
			}
			return nil, err
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	products, total, err := s.store.Products().List(ctx, tenantID, repository.ProductQuery{
		Search:    filter.Search,
		SortBy:    sortState.SortBy,
		SortOrder: sortState.SortOrder,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	if err := s.resolveListPaths(ctx, tenantID, products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}

	return &models.ProductListResponse{
		Products:   products,
		Pagination: models.NewPaginationInfo(page, limit, total),
		Sort:       sortState,
	}, nil
}

// resolveListPaths loads the categories of one page in a single query
func (s *CatalogService) resolveListPaths(ctx context.Context, tenantID string, products []models.Product) error {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, p := range products {
		for _, raw := range p.CategoryPath {
			id, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	var categories []models.Category
	if len(ids) > 0 {
		var err error
		if categories, err = s.store.Categories().GetByIDs(ctx, tenantID, ids); err != nil {
			return err
		}
	}
	idx := newCategoryIndex(categories)
	for i := range products {
		products[i].Categories = indexEntries(idx, products[i].CategoryPath)
	}
	return nil
}

func normalizeSort(sortBy, sortOrder string) (models.SortState, error) {
	state := models.SortState{SortBy: sortBy, SortOrder: strings.ToLower(sortOrder)}
	switch state.SortBy {
	case "":
		state.SortBy = models.SortByCreatedAt
		if state.SortOrder == "" {
			state.SortOrder = models.SortDesc
		}
	case models.SortByName, models.SortByBrand, models.SortByDescription, models.SortByPrimaryCategory, models.SortByCreatedAt:
	default:
		return state, validationError("sortBy", fmt.Sprintf("Cannot sort by %q", sortBy))
	}
	switch state.SortOrder {
	case "":
		state.SortOrder = models.SortAsc
	case models.SortAsc, models.SortDesc:
	default:
		return state, validationError("sortOrder", "Sort order must be asc or desc")
	}
	return state, nil
}

// ToggleSort returns the next sort state after a sort key is chosen:
// choosing the current key flips the direction, a new key sorts ascending.
func ToggleSort(current models.SortState, key string) models.SortState {
	if current.SortBy == key {
		if current.SortOrder == models.SortAsc {
			return models.SortState{SortBy: key, SortOrder: models.SortDesc}
		}
		return models.SortState{SortBy: key, SortOrder: models.SortAsc}
	}
	return models.SortState{SortBy: key, SortOrder: models.SortAsc}
}

// resolveCategoryPath validates an ordered root→leaf category selection
func resolveCategoryPath(ctx context.Context, store repository.Store, tenantID string, refs []models.CategoryRef) ([]models.Category, error) {
	if len(refs) == 0 {
		return nil, invalidCategoryPathError("At least one category is required")
	}
	if len(refs) > models.MaxCategoryLevel+1 {
		return nil, invalidCategoryPathError(fmt.Sprintf("A category path has at most %d levels", models.MaxCategoryLevel+1))
	}

	path := make([]models.Category, 0, len(refs))
	for i, ref := range refs {
		id, err := uuid.Parse(strings.TrimSpace(ref.CategoryID))
		if err != nil {
			return nil, invalidCategoryPathError(fmt.Sprintf("Category #%d has an invalid ID", i+1))
		}
		category, err := store.Categories().GetByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalidCategoryPathError(fmt.Sprintf("Category %s does not exist", id))
			}
			return nil, err
		}
		if i == 0 {
			if category.ParentID != nil {
				return nil, invalidCategoryPathError(fmt.Sprintf("%q is not a top-level category", category.Name))
			}
		} else if category.ParentID == nil || *category.ParentID != path[i-1].ID {
			return nil, invalidCategoryPathError(fmt.Sprintf("%q is not a subcategory of %q", category.Name, path[i-1].Name))
		}
		path = append(path, *category)
	}
	return path, nil
}

// lookupPath loads stored path ids for display, skipping rows that no longer exist
func lookupPath(ctx context.Context, store repository.Store, tenantID string, ids pq.StringArray) ([]models.Category, error) {
	uuids := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		if id, err := uuid.Parse(raw); err == nil {
			uuids = append(uuids, id)
		}
	}
	found, err := store.Categories().GetByIDs(ctx, tenantID, uuids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Category, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	path := make([]models.Category, 0, len(uuids))
	for _, id := range uuids {
		if c, ok := byID[id]; ok {
			path = append(path, c)
		}
	}
	return path, nil
}

func indexEntries(idx *categoryIndex, ids pq.StringArray) []models.CategoryPathEntry {
	entries := make([]models.CategoryPathEntry, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if c, ok := idx.get(id); ok {
			entries = append(entries, models.CategoryPathEntry{ID: c.ID, Name: c.Name, Level: c.Level})
		}
	}
	return entries
}

func pathIDs(path []models.Category) pq.StringArray {
	ids := make(pq.StringArray, len(path))
	for i, c := range path {
		ids[i] = c.ID.String()
	}
	return ids
}

func pathEntries(path []models.Category) []models.CategoryPathEntry {
	entries := make([]models.CategoryPathEntry, len(path))
	for i, c := range path {
		entries[i] = models.CategoryPathEntry{ID: c.ID, Name: c.Name, Level: c.Level}
	}
	return entries
}

func productEvent(eventType string, p *models.Product) *events.CatalogEvent {
	event := events.NewEvent(eventType, p.TenantID, "product", p.ID.String())
	event.Name = p.Name
	return event.WithMetadata("categoryIds", []string(p.CategoryPath))
}
