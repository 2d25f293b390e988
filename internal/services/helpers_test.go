package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTenant = "tenant-123"

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

var _ EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, event *events.CatalogEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// published returns the event types seen so far
func (m *MockEventPublisher) published() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method == "Publish" {
			types = append(types, call.Arguments.Get(1).(*events.CatalogEvent).EventType)
		}
	}
	return types
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

var _ ImageStore = (*MockImageStore)(nil)

func (m *MockImageStore) Put(ctx context.Context, tenantID string, upload models.ImageUpload) (models.VariantImage, error) {
	args := m.Called(ctx, tenantID, upload)
	if fn, ok := args.Get(0).(func(models.ImageUpload) models.VariantImage); ok {
		return fn(upload), args.Error(1)
	}
	return args.Get(0).(models.VariantImage), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// storeByFilename stores each upload under "img/<filename>"
func storeByFilename(upload models.ImageUpload) models.VariantImage {
	ref := "img/" + upload.Filename
	return models.VariantImage{Ref: ref, URL: "https://cdn.test/" + ref, ContentType: upload.ContentType}
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newPermissivePublisher() *MockEventPublisher {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return publisher
}

func newPermissiveImages() *MockImageStore {
	images := new(MockImageStore)
	images.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(storeByFilename, nil).Maybe()
	images.On("Delete", mock.Anything, mock.Anything).Return(nil).Maybe()
	return images
}

func upload(name string) models.ImageUpload {
	return models.ImageUpload{Filename: name, ContentType: "image/png", Size: 4, Body: strings.NewReader("data")}
}

func strPtr(s string) *string {
	return &s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertKind checks the error kind and, when field is non-empty, the field
func assertKind(t *testing.T, err error, kind error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	if field != "" {
		ce, ok := AsCatalogError(err)
		require.True(t, ok, "expected a CatalogError, got %T", err)
		assert.Equal(t, field, ce.Field)
	}
}

// testEnv wires every service against one memory store
type testEnv struct {
	store      *repository.MemoryStore
	publisher  *MockEventPublisher
	images     *MockImageStore
	categories *CategoryService
	attributes *AttributeService
	catalog    *CatalogService
	inventory  *InventoryService
	variants   *VariantService
}

func newTestEnv(costMethod string) *testEnv {
	return newTestEnvWith(newPermissivePublisher(), newPermissiveImages(), costMethod)
}

func newTestEnvWith(publisher *MockEventPublisher, images *MockImageStore, costMethod string) *testEnv {
	logger := newTestLogger()
	store := repository.NewMemoryStore()
	inventory := NewInventoryService(store, publisher, costMethod, logger)
	return &testEnv{
		store:      store,
		publisher:  publisher,
		images:     images,
		categories: NewCategoryService(store, publisher, logger),
		attributes: NewAttributeService(store, publisher, logger),
		catalog:    NewCatalogService(store, images, publisher, 20, 100, logger),
		inventory:  inventory,
		variants:   NewVariantService(store, images, inventory, publisher, 4, logger),
	}
}

func (e *testEnv) category(t *testing.T, name string, parent *models.Category) *models.Category {
	t.Helper()
	req := models.CreateCategoryRequest{Name: name}
	if parent != nil {
		req.ParentID = strPtr(parent.ID.String())
	}
	c, err := e.categories.CreateNode(context.Background(), testTenant, req)
	require.NoError(t, err)
	return c
}

// chain creates Root → Child → Leaf
func (e *testEnv) chain(t *testing.T) (root, child, leaf *models.Category) {
	t.Helper()
	root = e.category(t, "Root", nil)
	child = e.category(t, "Child", root)
	leaf = e.category(t, "Leaf", child)
	return root, child, leaf
}

func (e *testEnv) parentAttribute(t *testing.T, value string, category *models.Category) *models.Attribute {
	t.Helper()
	a, err := e.attributes.CreateParentAttribute(context.Background(), testTenant, category.ID, models.CreateAttributeRequest{Value: value})
	require.NoError(t, err)
	return a
}

func (e *testEnv) childAttribute(t *testing.T, value string, parent *models.Attribute) *models.Attribute {
	t.Helper()
	a, err := e.attributes.CreateChildAttribute(context.Background(), testTenant, parent.ID, models.CreateAttributeRequest{Value: value})
	require.NoError(t, err)
	return a
}

func (e *testEnv) product(t *testing.T, name string, path ...*models.Category) *models.Product {
	t.Helper()
	refs := make([]models.CategoryRef, len(path))
	for i, c := range path {
		refs[i] = models.CategoryRef{CategoryID: c.ID.String()}
	}
	p, err := e.catalog.CreateProduct(context.Background(), testTenant, models.CreateProductRequest{
		Name:        name,
		Description: name + " description",
		Categories:  refs,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) variant(t *testing.T, product *models.Product, parent, child *models.Attribute, sellPrice string, images ...string) *models.ProductVariant {
	t.Helper()
	if len(images) == 0 {
		images = []string{child.Value + ".png"}
	}
	inputs := make([]ImageInput, len(images))
	for i, name := range images {
		inputs[i] = NewImage(upload(name))
	}
	v, err := e.variants.CreateVariant(context.Background(), testTenant, VariantDraft{
		ProductID:         product.ID,
		Images:            inputs,
		ParentAttributeID: parent.ID,
		ChildAttributeID:  child.ID,
		SellPrice:         dec(sellPrice),
	})
	require.NoError(t, err)
	return v
}

func (e *testEnv) batch(t *testing.T, variantID uuid.UUID, date string, qty int, cost string) *models.ImportBatch {
	t.Helper()
	b, err := e.inventory.RecordBatch(context.Background(), testTenant, variantID, models.RecordBatchRequest{
		ImportDate: date,
		Quantity:   qty,
		CostPrice:  dec(cost),
	})
	require.NoError(t, err)
	return b
}
