package repository

import (
	"context"
	"errors"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
)

// StoreSuite is the behavior every Store implementation must share
type StoreSuite struct {
	suite.Suite
	open     func() Store
	cleanup  func(tenantID string)
	store    Store
	tenantID string
	ctx      context.Context
}

// SetupTest runs before each test
func (s *StoreSuite) SetupTest() {
	s.store = s.open()
	s.tenantID = "test-tenant-" + uuid.New().String()[:8]
	s.ctx = context.Background()
}

// TearDownTest runs after each test
func (s *StoreSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup(s.tenantID)
	}
}

func (s *StoreSuite) category(name string, parent *models.Category, position int) *models.Category {
	c := &models.Category{ID: uuid.New(), TenantID: s.tenantID, Name: name, Slug: name, Position: position}
	if parent != nil {
		c.ParentID = &parent.ID
		c.Level = parent.Level + 1
	}
	s.Require().NoError(s.store.Categories().Create(s.ctx, c))
	return c
}

func (s *StoreSuite) parentAttribute(value string, categoryIDs ...string) *models.Attribute {
	a := &models.Attribute{ID: uuid.New(), TenantID: s.tenantID, Value: value, CategoryScope: pq.StringArray(categoryIDs)}
	s.Require().NoError(s.store.Attributes().Create(s.ctx, a))
	return a
}

func (s *StoreSuite) childAttribute(value string, parent *models.Attribute) *models.Attribute {
	a := &models.Attribute{ID: uuid.New(), TenantID: s.tenantID, Value: value, ParentID: &parent.ID}
	s.Require().NoError(s.store.Attributes().Create(s.ctx, a))
	return a
}

func (s *StoreSuite) product(name, description string, brand *string, categoryIDs ...string) *models.Product {
	p := &models.Product{ID: uuid.New(), TenantID: s.tenantID, Name: name, Description: description, Brand: brand, CategoryPath: pq.StringArray(categoryIDs)}
	s.Require().NoError(s.store.Products().Create(s.ctx, p))
	return p
}

func (s *StoreSuite) newVariant(productID, parentID, childID uuid.UUID) *models.ProductVariant {
	return &models.ProductVariant{
		ID:                uuid.New(),
		TenantID:          s.tenantID,
		ProductID:         productID,
		ParentAttributeID: parentID,
		ChildAttributeID:  childID,
		Images:            datatypes.JSONSlice[models.VariantImage]{{Ref: "img/" + uuid.NewString(), URL: "https://cdn.test/x"}},
		SellPrice:         decimal.RequireFromString("19.99"),
	}
}

func (s *StoreSuite) batch(variantID uuid.UUID, date string, qty int, cost string) *models.ImportBatch {
	d, err := time.Parse(models.ImportDateLayout, date)
	s.Require().NoError(err)
	b := &models.ImportBatch{
		ID:         uuid.New(),
		TenantID:   s.tenantID,
		VariantID:  variantID,
		ImportDate: d,
		Quantity:   qty,
		CostPrice:  decimal.RequireFromString(cost),
	}
	s.Require().NoError(s.store.Batches().Create(s.ctx, b))
	return b
}

// ===========================================
// Category Tests
// ===========================================

func (s *StoreSuite) TestCategories_CreateAndQuery() {
	second := s.category("Beta", nil, 1)
	first := s.category("Alpha", nil, 0)
	child := s.category("Child", first, 0)

	got, err := s.store.Categories().GetByID(s.ctx, s.tenantID, child.ID)
	s.Require().NoError(err)
	s.Equal("Child", got.Name)
	s.Equal(1, got.Level)
	s.Require().NotNil(got.ParentID)
	s.Equal(first.ID, *got.ParentID)

	roots, err := s.store.Categories().ListChildren(s.ctx, s.tenantID, nil)
	s.Require().NoError(err)
	s.Require().Len(roots, 2)
	s.Equal(first.ID, roots[0].ID)
	s.Equal(second.ID, roots[1].ID)

	children, err := s.store.Categories().ListChildren(s.ctx, s.tenantID, &first.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 1)
	s.Equal(child.ID, children[0].ID)

	all, err := s.store.Categories().ListAll(s.ctx, s.tenantID)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(child.ID, all[2].ID)

	byIDs, err := s.store.Categories().GetByIDs(s.ctx, s.tenantID, []uuid.UUID{child.ID, uuid.New(), second.ID})
	s.Require().NoError(err)
	s.Len(byIDs, 2)
}

func (s *StoreSuite) TestCategories_TenantIsolation() {
	c := s.category("Alpha", nil, 0)

	_, err := s.store.Categories().GetByID(s.ctx, "some-other-tenant", c.ID)
	s.True(errors.Is(err, ErrNotFound))

	roots, err := s.store.Categories().ListChildren(s.ctx, "some-other-tenant", nil)
	s.Require().NoError(err)
	s.Empty(roots)
}

func (s *StoreSuite) TestCategories_UpdateAndDelete() {
	c := s.category("Alpha", nil, 0)
	orphan := s.category("Orphan", nil, 1)

	c.Name = "Renamed"
	c.Position = 5
	s.Require().NoError(s.store.Categories().Update(s.ctx, c))
	got, err := s.store.Categories().GetByID(s.ctx, s.tenantID, c.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
	s.Equal(5, got.Position)

	missing := &models.Category{ID: uuid.New(), TenantID: s.tenantID, Name: "x"}
	s.True(errors.Is(s.store.Categories().Update(s.ctx, missing), ErrNotFound))

	deleted, err := s.store.Categories().Delete(s.ctx, s.tenantID, []uuid.UUID{c.ID, orphan.ID, uuid.New()})
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)
	_, err = s.store.Categories().GetByID(s.ctx, s.tenantID, c.ID)
	s.True(errors.Is(err, ErrNotFound))
}

// ===========================================
// Attribute Tests
// ===========================================

func (s *StoreSuite) TestAttributes_ScopeQueries() {
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()
	color := s.parentAttribute("Color", a, b)
	size := s.parentAttribute("Size", c)
	s.childAttribute("Red", color)
	s.childAttribute("Blue", color)

	visible, err := s.store.Attributes().ListParentsInScope(s.ctx, s.tenantID, []string{b, uuid.NewString()})
	s.Require().NoError(err)
	s.Require().Len(visible, 1)
	s.Equal(color.ID, visible[0].ID)

	children, err := s.store.Attributes().ListChildren(s.ctx, s.tenantID, color.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.Equal("Blue", children[0].Value)
	s.Equal("Red", children[1].Value)

	count, err := s.store.Attributes().CountChildren(s.ctx, s.tenantID, size.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), count)

	inScope, err := s.store.Attributes().CountInScope(s.ctx, s.tenantID, []string{a, c})
	s.Require().NoError(err)
	s.Equal(int64(2), inScope)
}

func (s *StoreSuite) TestAttributes_RemoveFromScope() {
	a, b := uuid.NewString(), uuid.NewString()
	color := s.parentAttribute("Color", a, b)
	size := s.parentAttribute("Size", b)
	untouched := s.parentAttribute("Material", uuid.NewString())

	updated, err := s.store.Attributes().RemoveFromScope(s.ctx, s.tenantID, []string{b})
	s.Require().NoError(err)
	s.Equal(int64(2), updated)

	got, err := s.store.Attributes().GetByID(s.ctx, s.tenantID, color.ID)
	s.Require().NoError(err)
	s.Equal([]string{a}, []string(got.CategoryScope))

	got, err = s.store.Attributes().GetByID(s.ctx, s.tenantID, size.ID)
	s.Require().NoError(err)
	s.Empty(got.CategoryScope)

	got, err = s.store.Attributes().GetByID(s.ctx, s.tenantID, untouched.ID)
	s.Require().NoError(err)
	s.Len(got.CategoryScope, 1)
}

func (s *StoreSuite) TestAttributes_UpdateAndDelete() {
	color := s.parentAttribute("Color", uuid.NewString())

	color.Value = "Colour"
	s.Require().NoError(s.store.Attributes().Update(s.ctx, color))
	got, err := s.store.Attributes().GetByID(s.ctx, s.tenantID, color.ID)
	s.Require().NoError(err)
	s.Equal("Colour", got.Value)

	s.Require().NoError(s.store.Attributes().Delete(s.ctx, s.tenantID, color.ID))
	s.True(errors.Is(s.store.Attributes().Delete(s.ctx, s.tenantID, color.ID), ErrNotFound))
}

// ===========================================
// Product Tests
// ===========================================

func (s *StoreSuite) search(q string) []models.Product {
	found, total, err := s.store.Products().List(s.ctx, s.tenantID, ProductQuery{Search: q})
	s.Require().NoError(err)
	s.Equal(int64(len(found)), total)
	return found
}

func (s *StoreSuite) TestProducts_Search() {
	brand := "ACME Outfitters"
	shirt := s.product("Oxford Shirt", "Cotton", nil, uuid.NewString())
	mug := s.product("Mug", "Ceramic 100% cup", &brand, uuid.NewString())

	found := s.search("oxFORD")
	s.Require().Len(found, 1)
	s.Equal(shirt.ID, found[0].ID)

	found = s.search("acme")
	s.Require().Len(found, 1)
	s.Equal(mug.ID, found[0].ID)

	s.Len(s.search("100%"), 1)
	s.Len(s.search("%"), 1)
	s.Len(s.search(""), 2)
}

func (s *StoreSuite) TestProducts_SortCaseInsensitiveWithStableTies() {
	alpha, alphaUpper, zeta := "alpha", "Alpha", "Zeta"
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, p := range []struct {
		name, description string
		brand             *string
	}{
		{"banana", "d", &zeta},
		{"Apple", "c", &alpha},
		{"cherry", "b", &alphaUpper},
		{"apple", "a", nil},
	} {
		product := &models.Product{
			ID:           uuid.New(),
			TenantID:     s.tenantID,
			Name:         p.name,
			Description:  p.description,
			Brand:        p.brand,
			CategoryPath: pq.StringArray{uuid.NewString()},
			CreatedAt:    created.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.Products().Create(s.ctx, product))
	}

	list := func(sortBy, order string) []string {
		found, _, err := s.store.Products().List(s.ctx, s.tenantID, ProductQuery{SortBy: sortBy, SortOrder: order})
		s.Require().NoError(err)
		names := make([]string, len(found))
		for i, p := range found {
			names[i] = p.Name
		}
		return names
	}

	s.Equal([]string{"Apple", "apple", "banana", "cherry"}, list(models.SortByName, models.SortAsc))
	s.Equal([]string{"cherry", "banana", "Apple", "apple"}, list(models.SortByName, models.SortDesc))
	s.Equal([]string{"apple", "Apple", "cherry", "banana"}, list(models.SortByBrand, models.SortAsc))
	s.Equal([]string{"apple", "cherry", "Apple", "banana"}, list(models.SortByDescription, models.SortAsc))
	s.Equal([]string{"banana", "Apple", "cherry", "apple"}, list(models.SortByCreatedAt, models.SortAsc))
	s.Equal([]string{"apple", "cherry", "Apple", "banana"}, list(models.SortByCreatedAt, models.SortDesc))
}

func (s *StoreSuite) TestProducts_SortByPrimaryCategory() {
	shoes := s.category("shoes", nil, 0)
	apparel := s.category("Apparel", nil, 1)
	tops := s.category("Tops", apparel, 0)
	boot := s.product("Boot", "Leather", nil, shoes.ID.String())
	tee := s.product("Tee", "Cotton", nil, apparel.ID.String(), tops.ID.String())
	orphan := s.product("Orphan", "Gone", nil, uuid.NewString())

	found, _, err := s.store.Products().List(s.ctx, s.tenantID, ProductQuery{SortBy: models.SortByPrimaryCategory, SortOrder: models.SortAsc})
	s.Require().NoError(err)
	s.Require().Len(found, 3)
	s.Equal(orphan.ID, found[0].ID)
	s.Equal(tee.ID, found[1].ID)
	s.Equal(boot.ID, found[2].ID)

	found, _, err = s.store.Products().List(s.ctx, s.tenantID, ProductQuery{SortBy: models.SortByPrimaryCategory, SortOrder: models.SortDesc})
	s.Require().NoError(err)
	s.Require().Len(found, 3)
	s.Equal(boot.ID, found[0].ID)
}

func (s *StoreSuite) TestProducts_Pagination() {
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.product(name, "Item "+name, nil, uuid.NewString())
	}
	s.product("other", "Misc", nil, uuid.NewString())

	page, total, err := s.store.Products().List(s.ctx, s.tenantID, ProductQuery{Search: "item", SortBy: models.SortByName, SortOrder: models.SortAsc, Offset: 2, Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Require().Len(page, 2)
	s.Equal("c", page[0].Name)
	s.Equal("d", page[1].Name)

	page, total, err = s.store.Products().List(s.ctx, s.tenantID, ProductQuery{SortBy: models.SortByName, Offset: 10, Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(6), total)
	s.Empty(page)

	page, _, err = s.store.Products().List(s.ctx, "another-tenant", ProductQuery{})
	s.Require().NoError(err)
	s.Empty(page)
}

func (s *StoreSuite) TestProducts_CountByCategoriesAndUpdate() {
	root, leaf := uuid.NewString(), uuid.NewString()
	p := s.product("Shirt", "Cotton", nil, root, leaf)
	s.product("Hat", "Wool", nil, uuid.NewString())

	count, err := s.store.Products().CountByCategories(s.ctx, s.tenantID, []string{leaf})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	p.CategoryPath = pq.StringArray{root}
	p.Name = "Polo"
	s.Require().NoError(s.store.Products().Update(s.ctx, p))

	locked, err := s.store.Products().LockByID(s.ctx, s.tenantID, p.ID)
	s.Require().NoError(err)
	s.Equal("Polo", locked.Name)
	s.Equal([]string{root}, []string(locked.CategoryPath))

	count, err = s.store.Products().CountByCategories(s.ctx, s.tenantID, []string{leaf})
	s.Require().NoError(err)
	s.Equal(int64(0), count)

	s.Require().NoError(s.store.Products().Delete(s.ctx, s.tenantID, p.ID))
	_, err = s.store.Products().GetByID(s.ctx, s.tenantID, p.ID)
	s.True(errors.Is(err, ErrNotFound))
}

// ===========================================
// Variant Tests
// ===========================================

func (s *StoreSuite) TestVariants_PairIsScopedToTenant() {
	other := s.tenantID + "-other"
	if s.cleanup != nil {
		defer s.cleanup(other)
	}
	productID, parentID, childID := uuid.New(), uuid.New(), uuid.New()

	s.Require().NoError(s.store.Variants().Create(s.ctx, s.newVariant(productID, parentID, childID)))

	foreign := s.newVariant(productID, parentID, childID)
	foreign.TenantID = other
	s.Require().NoError(s.store.Variants().Create(s.ctx, foreign))

	err := s.store.Variants().Create(s.ctx, s.newVariant(productID, parentID, childID))
	s.True(errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got %v", err)
}

func (s *StoreSuite) TestVariants_PairIsUnique() {
	p := s.product("Shirt", "Cotton", nil, uuid.NewString())
	color := s.parentAttribute("Color", uuid.NewString())
	red := s.childAttribute("Red", color)
	blue := s.childAttribute("Blue", color)

	first := s.newVariant(p.ID, color.ID, red.ID)
	s.Require().NoError(s.store.Variants().Create(s.ctx, first))

	err := s.store.Variants().Create(s.ctx, s.newVariant(p.ID, color.ID, red.ID))
	s.True(errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got %v", err)

	second := s.newVariant(p.ID, color.ID, blue.ID)
	s.Require().NoError(s.store.Variants().Create(s.ctx, second))
	second.ChildAttributeID = red.ID
	err = s.store.Variants().Update(s.ctx, second)
	s.True(errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got %v", err)

	found, err := s.store.Variants().FindByPair(s.ctx, s.tenantID, p.ID, color.ID, red.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
	s.Require().Len(found.Images, 1)

	_, err = s.store.Variants().FindByPair(s.ctx, s.tenantID, p.ID, color.ID, uuid.New())
	s.True(errors.Is(err, ErrNotFound))

	used, err := s.store.Variants().CountByAttribute(s.ctx, s.tenantID, color.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), used)
}

func (s *StoreSuite) TestVariants_SellPriceAndDelete() {
	p := s.product("Shirt", "Cotton", nil, uuid.NewString())
	color := s.parentAttribute("Color", uuid.NewString())
	red := s.childAttribute("Red", color)
	blue := s.childAttribute("Blue", color)
	v := s.newVariant(p.ID, color.ID, red.ID)
	s.Require().NoError(s.store.Variants().Create(s.ctx, v))
	s.Require().NoError(s.store.Variants().Create(s.ctx, s.newVariant(p.ID, color.ID, blue.ID)))

	s.Require().NoError(s.store.Variants().UpdateSellPrice(s.ctx, s.tenantID, v.ID, decimal.RequireFromString("42.10")))
	got, err := s.store.Variants().LockByID(s.ctx, s.tenantID, v.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("42.10").Equal(got.SellPrice))
	s.Equal(v.Images[0].Ref, got.Images[0].Ref)

	listed, err := s.store.Variants().ListByProduct(s.ctx, s.tenantID, p.ID)
	s.Require().NoError(err)
	s.Len(listed, 2)

	s.Require().NoError(s.store.Variants().Delete(s.ctx, s.tenantID, v.ID))
	deleted, err := s.store.Variants().DeleteByProduct(s.ctx, s.tenantID, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
}

// ===========================================
// Batch Tests
// ===========================================

func (s *StoreSuite) TestBatches_OrderAndDelete() {
	variantA, variantB := uuid.New(), uuid.New()
	late := s.batch(variantA, "2026-06-01", 3, "2.50")
	early := s.batch(variantA, "2026-01-15", 7, "1.75")
	s.batch(variantB, "2026-03-01", 1, "9")

	listed, err := s.store.Batches().ListByVariant(s.ctx, s.tenantID, variantA)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(early.ID, listed[0].ID)
	s.Equal(late.ID, listed[1].ID)
	s.Equal("2026-01-15", listed[0].ImportDate.Format(models.ImportDateLayout))

	late.Quantity = 30
	s.Require().NoError(s.store.Batches().Update(s.ctx, late))
	got, err := s.store.Batches().GetByID(s.ctx, s.tenantID, late.ID)
	s.Require().NoError(err)
	s.Equal(30, got.Quantity)

	deleted, err := s.store.Batches().DeleteByVariants(s.ctx, s.tenantID, []uuid.UUID{variantA, variantB})
	s.Require().NoError(err)
	s.Equal(int64(3), deleted)

	none, err := s.store.Batches().DeleteByVariants(s.ctx, s.tenantID, nil)
	s.Require().NoError(err)
	s.Equal(int64(0), none)
}

// ===========================================
// Transaction Tests
// ===========================================

func (s *StoreSuite) TestWithTransaction_Commit() {
	var id uuid.UUID
	err := s.store.WithTransaction(s.ctx, func(tx Store) error {
		c := &models.Category{ID: uuid.New(), TenantID: s.tenantID, Name: "Committed", Slug: "committed"}
		id = c.ID
		return tx.Categories().Create(s.ctx, c)
	})
	s.Require().NoError(err)

	_, err = s.store.Categories().GetByID(s.ctx, s.tenantID, id)
	s.NoError(err)
}

func (s *StoreSuite) TestWithTransaction_Rollback() {
	boom := errors.New("boom")
	var id uuid.UUID
	err := s.store.WithTransaction(s.ctx, func(tx Store) error {
		c := &models.Category{ID: uuid.New(), TenantID: s.tenantID, Name: "Rolled back", Slug: "rolled-back"}
		id = c.ID
		if err := tx.Categories().Create(s.ctx, c); err != nil {
			return err
		}
		if _, err := tx.Categories().GetByID(s.ctx, s.tenantID, id); err != nil {
			return err
		}
		return boom
	})
	s.True(errors.Is(err, boom))

	_, err = s.store.Categories().GetByID(s.ctx, s.tenantID, id)
	s.True(errors.Is(err, ErrNotFound))
}

func (s *StoreSuite) TestWithTransaction_Nested() {
	boom := errors.New("boom")
	var id uuid.UUID
	err := s.store.WithTransaction(s.ctx, func(tx Store) error {
		inner := tx.WithTransaction(s.ctx, func(nested Store) error {
			c := &models.Category{ID: uuid.New(), TenantID: s.tenantID, Name: "Nested", Slug: "nested"}
			id = c.ID
			return nested.Categories().Create(s.ctx, c)
		})
		if inner != nil {
			return inner
		}
		return boom
	})
	s.True(errors.Is(err, boom))

	_, err = s.store.Categories().GetByID(s.ctx, s.tenantID, id)
	s.True(errors.Is(err, ErrNotFound))
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
