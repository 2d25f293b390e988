package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type row[T any] struct {
	v   T
	seq int64
}

type memData struct {
	seq        int64
	categories map[uuid.UUID]row[models.Category]
	attributes map[uuid.UUID]row[models.Attribute]
	products   map[uuid.UUID]row[models.Product]
	variants   map[uuid.UUID]row[models.ProductVariant]
	batches    map[uuid.UUID]row[models.ImportBatch]
}

func newMemData() *memData {
	return &memData{
		categories: map[uuid.UUID]row[models.Category]{},
		attributes: map[uuid.UUID]row[models.Attribute]{},
		products:   map[uuid.UUID]row[models.Product]{},
		variants:   map[uuid.UUID]row[models.ProductVariant]{},
		batches:    map[uuid.UUID]row[models.ImportBatch]{},
	}
}

func (d *memData) next() int64 {
	d.seq++
	return d.seq
}

func (d *memData) clone() *memData {
	c := &memData{
		seq:        d.seq,
		categories: make(map[uuid.UUID]row[models.Category], len(d.categories)),
		attributes: make(map[uuid.UUID]row[models.Attribute], len(d.attributes)),
		products:   make(map[uuid.UUID]row[models.Product], len(d.products)),
		variants:   make(map[uuid.UUID]row[models.ProductVariant], len(d.variants)),
		batches:    make(map[uuid.UUID]row[models.ImportBatch], len(d.batches)),
	}
	for k, r := range d.categories {
		c.categories[k] = row[models.Category]{v: copyCategory(r.v), seq: r.seq}
	}
	for k, r := range d.attributes {
		c.attributes[k] = row[models.Attribute]{v: copyAttribute(r.v), seq: r.seq}
	}
	for k, r := range d.products {
		c.products[k] = row[models.Product]{v: copyProduct(r.v), seq: r.seq}
	}
	for k, r := range d.variants {
		c.variants[k] = row[models.ProductVariant]{v: copyVariant(r.v), seq: r.seq}
	}
	for k, r := range d.batches {
		c.batches[k] = r
	}
	return c
}

// MemoryStore is an in-process Store used for local development
// (STORAGE_DRIVER=memory) and service tests. Transactions run on a private
// copy of the data that replaces the shared copy on commit; writers are
// serialized so a transaction never loses a concurrent write.
type MemoryStore struct {
	txMu *sync.Mutex
	mu   sync.RWMutex
	data *memData
	inTx bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txMu: &sync.Mutex{}, data: newMemData()}
}

func (s *MemoryStore) Categories() CategoryRepository  { return &memCategories{s} }
func (s *MemoryStore) Attributes() AttributeRepository { return &memAttributes{s} }
func (s *MemoryStore) Products() ProductRepository     { return &memProducts{s} }
func (s *MemoryStore) Variants() VariantRepository     { return &memVariants{s} }
func (s *MemoryStore) Batches() BatchRepository        { return &memBatches{s} }

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	tx := &MemoryStore{txMu: s.txMu, data: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) read(fn func(d *memData) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *MemoryStore) write(fn func(d *memData) error) error {
	if !s.inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func copyStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	out := make(pq.StringArray, len(in))
	copy(out, in)
	return out
}

func copyCategory(c models.Category) models.Category {
	c.Children = nil
	return c
}

func copyAttribute(a models.Attribute) models.Attribute {
	a.CategoryScope = copyStrings(a.CategoryScope)
	a.Children = nil
	return a
}

func copyProduct(p models.Product) models.Product {
	p.CategoryPath = copyStrings(p.CategoryPath)
	p.Categories = nil
	p.Variants = nil
	return p
}

func copyVariant(v models.ProductVariant) models.ProductVariant {
	images := make(datatypes.JSONSlice[models.VariantImage], len(v.Images))
	copy(images, v.Images)
	v.Images = images
	v.ParentAttributeValue = ""
	v.ChildAttributeValue = ""
	v.Summary = nil
	return v
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if containsString(b, v) {
			return true
		}
	}
	return false
}

// sortRows orders rows by less, falling back to insertion order
func sortRows[T any](rows []row[T], less func(a, b T) (bool, bool)) []T {
	sort.SliceStable(rows, func(i, j int) bool {
		if less != nil {
			if lt, decided := less(rows[i].v, rows[j].v); decided {
				return lt
			}
		}
		return rows[i].seq < rows[j].seq
	})
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.v)
	}
	return out
}

func categoryOrder(a, b models.Category) (bool, bool) {
	if a.Position != b.Position {
		return a.Position < b.Position, true
	}
	if a.Name != b.Name {
		return a.Name < b.Name, true
	}
	return false, false
}

// categories

type memCategories struct{ s *MemoryStore }

func (r *memCategories) Create(ctx context.Context, category *models.Category) error {
	return r.s.write(func(d *memData) error {
		if _, exists := d.categories[category.ID]; exists {
			return ErrDuplicate
		}
		stamp(&category.CreatedAt, &category.UpdatedAt)
		d.categories[category.ID] = row[models.Category]{v: copyCategory(*category), seq: d.next()}
		return nil
	})
}

func (r *memCategories) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	var out *models.Category
	err := r.s.read(func(d *memData) error {
		rec, ok := d.categories[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		c := copyCategory(rec.v)
		out = &c
		return nil
	})
	return out, err
}

func (r *memCategories) GetByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.Category], 0, len(ids))
		for _, id := range ids {
			if rec, ok := d.categories[id]; ok && rec.v.TenantID == tenantID {
				rows = append(rows, rec)
			}
		}
		out = sortRows(rows, categoryOrder)
		return nil
	})
	return out, err
}

func (r *memCategories) ListChildren(ctx context.Context, tenantID string, parentID *uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.Category], 0)
		for _, rec := range d.categories {
			if rec.v.TenantID != tenantID {
				continue
			}
			switch {
			case parentID == nil && rec.v.ParentID == nil:
				rows = append(rows, rec)
			case parentID != nil && rec.v.ParentID != nil && *rec.v.ParentID == *parentID:
				rows = append(rows, rec)
			}
		}
		out = sortRows(rows, categoryOrder)
		return nil
	})
	return out, err
}

func (r *memCategories) ListAll(ctx context.Context, tenantID string) ([]models.Category, error) {
	var out []models.Category
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.Category], 0)
		for _, rec := range d.categories {
			if rec.v.TenantID == tenantID {
				rows = append(rows, rec)
			}
		}
		out = sortRows(rows, func(a, b models.Category) (bool, bool) {
			if a.Level != b.Level {
				return a.Level < b.Level, true
			}
			return categoryOrder(a, b)
		})
		return nil
	})
	return out, err
}

func (r *memCategories) Update(ctx context.Context, category *models.Category) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.categories[category.ID]
		if !ok || rec.v.TenantID != category.TenantID {
			return ErrNotFound
		}
		category.CreatedAt = rec.v.CreatedAt
		stamp(&category.CreatedAt, &category.UpdatedAt)
		d.categories[category.ID] = row[models.Category]{v: copyCategory(*category), seq: rec.seq}
		return nil
	})
}

func (r *memCategories) Delete(ctx context.Context, tenantID string, ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.s.write(func(d *memData) error {
		for _, id := range ids {
			if rec, ok := d.categories[id]; ok && rec.v.TenantID == tenantID {
				delete(d.categories, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

// attributes

type memAttributes struct{ s *MemoryStore }

func attributeOrder(a, b models.Attribute) (bool, bool) {
	if a.Value != b.Value {
		return a.Value < b.Value, true
	}
	return false, false
}

func (r *memAttributes) Create(ctx context.Context, attribute *models.Attribute) error {
	return r.s.write(func(d *memData) error {
		if _, exists := d.attributes[attribute.ID]; exists {
			return ErrDuplicate
		}
		stamp(&attribute.CreatedAt, &attribute.UpdatedAt)
		d.attributes[attribute.ID] = row[models.Attribute]{v: copyAttribute(*attribute), seq: d.next()}
		return nil
	})
}

func (r *memAttributes) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Attribute, error) {
	var out *models.Attribute
	err := r.s.read(func(d *memData) error {
		rec, ok := d.attributes[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		a := copyAttribute(rec.v)
		out = &a
		return nil
	})
	return out, err
}

func (r *memAttributes) ListParentsInScope(ctx context.Context, tenantID string, categoryIDs []string) ([]models.Attribute, error) {
	var out []models.Attribute
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.Attribute], 0)
		for _, rec := range d.attributes {
			if rec.v.TenantID == tenantID && rec.v.ParentID == nil && intersects(rec.v.CategoryScope, categoryIDs) {
				rows = append(rows, row[models.Attribute]{v: copyAttribute(rec.v), seq: rec.seq})
			}
		}
		out = sortRows(rows, attributeOrder)
		return nil
	})
	return out, err
}

func (r *memAttributes) ListChildren(ctx context.Context, tenantID string, parentID uuid.UUID) ([]models.Attribute, error) {
	var out []models.Attribute
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.Attribute], 0)
		for _, rec := range d.attributes {
			if rec.v.TenantID == tenantID && rec.v.ParentID != nil && *rec.v.ParentID == parentID {
				rows = append(rows, row[models.Attribute]{v: copyAttribute(rec.v), seq: rec.seq})
			}
		}
		out = sortRows(rows, attributeOrder)
		return nil
	})
	return out, err
}

func (r *memAttributes) CountChildren(ctx context.Context, tenantID string, parentID uuid.UUID) (int64, error) {
	children, err := r.ListChildren(ctx, tenantID, parentID)
	return int64(len(children)), err
}

func (r *memAttributes) CountInScope(ctx context.Context, tenantID string, categoryIDs []string) (int64, error) {
	var count int64
	err := r.s.read(func(d *memData) error {
		for _, rec := range d.attributes {
			if rec.v.TenantID == tenantID && intersects(rec.v.CategoryScope, categoryIDs) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memAttributes) RemoveFromScope(ctx context.Context, tenantID string, categoryIDs []string) (int64, error) {
	var updated int64
	err := r.s.write(func(d *memData) error {
		for id, rec := range d.attributes {
			if rec.v.TenantID != tenantID || !intersects(rec.v.CategoryScope, categoryIDs) {
				continue
			}
			kept := make(pq.StringArray, 0, len(rec.v.CategoryScope))
			for _, scoped := range rec.v.CategoryScope {
				if !containsString(categoryIDs, scoped) {
					kept = append(kept, scoped)
				}
			}
			rec.v.CategoryScope = kept
			rec.v.UpdatedAt = time.Now().UTC()
			d.attributes[id] = rec
			updated++
		}
		return nil
	})
	return updated, err
}

func (r *memAttributes) Update(ctx context.Context, attribute *models.Attribute) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.attributes[attribute.ID]
		if !ok || rec.v.TenantID != attribute.TenantID {
			return ErrNotFound
		}
		attribute.CreatedAt = rec.v.CreatedAt
		stamp(&attribute.CreatedAt, &attribute.UpdatedAt)
		d.attributes[attribute.ID] = row[models.Attribute]{v: copyAttribute(*attribute), seq: rec.seq}
		return nil
	})
}

func (r *memAttributes) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.attributes[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		delete(d.attributes, id)
		return nil
	})
}

// products

type memProducts struct{ s *MemoryStore }

func (r *memProducts) Create(ctx context.Context, product *models.Product) error {
	return r.s.write(func(d *memData) error {
		if _, exists := d.products[product.ID]; exists {
			return ErrDuplicate
		}
		stamp(&product.CreatedAt, &product.UpdatedAt)
		d.products[product.ID] = row[models.Product]{v: copyProduct(*product), seq: d.next()}
		return nil
	})
}

func (r *memProducts) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	var out *models.Product
	err := r.s.read(func(d *memData) error {
		rec, ok := d.products[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		p := copyProduct(rec.v)
		out = &p
		return nil
	})
	return out, err
}

// LockByID needs no extra locking: transactions on the memory store are serialized.
func (r *memProducts) LockByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Product, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *memProducts) List(ctx context.Context, tenantID string, q ProductQuery) ([]models.Product, int64, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	var out []models.Product
	var total int64
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.Product], 0)
		for _, rec := range d.products {
			if rec.v.TenantID != tenantID {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(rec.v.Name), needle) &&
				!strings.Contains(strings.ToLower(rec.v.Description), needle) &&
				!strings.Contains(strings.ToLower(rec.v.BrandName()), needle) {
				continue
			}
			rows = append(rows, row[models.Product]{v: copyProduct(rec.v), seq: rec.seq})
		}

		sorted := sortRows(rows, productOrder(d, q.SortBy, q.SortOrder == models.SortDesc))
		total = int64(len(sorted))
		start := min(max(q.Offset, 0), len(sorted))
		end := len(sorted)
		if q.Limit > 0 {
			end = min(start+q.Limit, len(sorted))
		}
		out = sorted[start:end]
		return nil
	})
	return out, total, err
}

// productOrder compares on the sort key and leaves ties to creation order
func productOrder(d *memData, sortBy string, desc bool) func(a, b models.Product) (bool, bool) {
	primaryCategory := func(p models.Product) string {
		if len(p.CategoryPath) == 0 {
			return ""
		}
		id, err := uuid.Parse(p.CategoryPath[0])
		if err != nil {
			return ""
		}
		if rec, ok := d.categories[id]; ok && rec.v.TenantID == p.TenantID {
			return rec.v.Name
		}
		return ""
	}
	key := func(p models.Product) string {
		switch sortBy {
		case models.SortByName:
			return p.Name
		case models.SortByBrand:
			return p.BrandName()
		case models.SortByDescription:
			return p.Description
		case models.SortByPrimaryCategory:
			return primaryCategory(p)
		}
		return ""
	}
	return func(a, b models.Product) (bool, bool) {
		switch sortBy {
		case models.SortByName, models.SortByBrand, models.SortByDescription, models.SortByPrimaryCategory:
			ka, kb := strings.ToLower(key(a)), strings.ToLower(key(b))
			if ka == kb {
				return false, false
			}
			return (ka < kb) != desc, true
		}
		if a.CreatedAt.Equal(b.CreatedAt) {
			return false, false
		}
		return a.CreatedAt.Before(b.CreatedAt) != desc, true
	}
}

func (r *memProducts) CountByCategories(ctx context.Context, tenantID string, categoryIDs []string) (int64, error) {
	var count int64
	err := r.s.read(func(d *memData) error {
		for _, rec := range d.products {
			if rec.v.TenantID == tenantID && intersects(rec.v.CategoryPath, categoryIDs) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memProducts) Update(ctx context.Context, product *models.Product) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.products[product.ID]
		if !ok || rec.v.TenantID != product.TenantID {
			return ErrNotFound
		}
		product.CreatedAt = rec.v.CreatedAt
		stamp(&product.CreatedAt, &product.UpdatedAt)
		d.products[product.ID] = row[models.Product]{v: copyProduct(*product), seq: rec.seq}
		return nil
	})
}

func (r *memProducts) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.products[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		delete(d.products, id)
		return nil
	})
}

// variants

type memVariants struct{ s *MemoryStore }

func pairTaken(d *memData, v *models.ProductVariant) bool {
	for id, rec := range d.variants {
		if id == v.ID {
			continue
		}
		if rec.v.TenantID == v.TenantID &&
			rec.v.ProductID == v.ProductID &&
			rec.v.ParentAttributeID == v.ParentAttributeID &&
			rec.v.ChildAttributeID == v.ChildAttributeID {
			return true
		}
	}
	return false
}

func (r *memVariants) Create(ctx context.Context, variant *models.ProductVariant) error {
	return r.s.write(func(d *memData) error {
		if _, exists := d.variants[variant.ID]; exists {
			return ErrDuplicate
		}
		if pairTaken(d, variant) {
			return ErrDuplicate
		}
		stamp(&variant.CreatedAt, &variant.UpdatedAt)
		d.variants[variant.ID] = row[models.ProductVariant]{v: copyVariant(*variant), seq: d.next()}
		return nil
	})
}

func (r *memVariants) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	var out *models.ProductVariant
	err := r.s.read(func(d *memData) error {
		rec, ok := d.variants[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		v := copyVariant(rec.v)
		out = &v
		return nil
	})
	return out, err
}

func (r *memVariants) LockByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ProductVariant, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *memVariants) ListByProduct(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.ProductVariant, error) {
	var out []models.ProductVariant
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.ProductVariant], 0)
		for _, rec := range d.variants {
			if rec.v.TenantID == tenantID && rec.v.ProductID == productID {
				rows = append(rows, row[models.ProductVariant]{v: copyVariant(rec.v), seq: rec.seq})
			}
		}
		out = sortRows[models.ProductVariant](rows, nil)
		return nil
	})
	return out, err
}

func (r *memVariants) FindByPair(ctx context.Context, tenantID string, productID, parentAttributeID, childAttributeID uuid.UUID) (*models.ProductVariant, error) {
	var out *models.ProductVariant
	err := r.s.read(func(d *memData) error {
		for _, rec := range d.variants {
			if rec.v.TenantID == tenantID && rec.v.ProductID == productID &&
				rec.v.ParentAttributeID == parentAttributeID && rec.v.ChildAttributeID == childAttributeID {
				v := copyVariant(rec.v)
				out = &v
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r *memVariants) CountByAttribute(ctx context.Context, tenantID string, attributeID uuid.UUID) (int64, error) {
	var count int64
	err := r.s.read(func(d *memData) error {
		for _, rec := range d.variants {
			if rec.v.TenantID == tenantID && (rec.v.ParentAttributeID == attributeID || rec.v.ChildAttributeID == attributeID) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memVariants) Update(ctx context.Context, variant *models.ProductVariant) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.variants[variant.ID]
		if !ok || rec.v.TenantID != variant.TenantID {
			return ErrNotFound
		}
		if pairTaken(d, variant) {
			return ErrDuplicate
		}
		variant.CreatedAt = rec.v.CreatedAt
		stamp(&variant.CreatedAt, &variant.UpdatedAt)
		d.variants[variant.ID] = row[models.ProductVariant]{v: copyVariant(*variant), seq: rec.seq}
		return nil
	})
}

func (r *memVariants) UpdateSellPrice(ctx context.Context, tenantID string, id uuid.UUID, price decimal.Decimal) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.variants[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		rec.v.SellPrice = price
		rec.v.UpdatedAt = time.Now().UTC()
		d.variants[id] = rec
		return nil
	})
}

func (r *memVariants) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.variants[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		delete(d.variants, id)
		return nil
	})
}

func (r *memVariants) DeleteByProduct(ctx context.Context, tenantID string, productID uuid.UUID) (int64, error) {
	var deleted int64
	err := r.s.write(func(d *memData) error {
		for id, rec := range d.variants {
			if rec.v.TenantID == tenantID && rec.v.ProductID == productID {
				delete(d.variants, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

// batches

type memBatches struct{ s *MemoryStore }

func (r *memBatches) Create(ctx context.Context, batch *models.ImportBatch) error {
	return r.s.write(func(d *memData) error {
		if _, exists := d.batches[batch.ID]; exists {
			return ErrDuplicate
		}
		stamp(&batch.CreatedAt, &batch.UpdatedAt)
		d.batches[batch.ID] = row[models.ImportBatch]{v: *batch, seq: d.next()}
		return nil
	})
}

func (r *memBatches) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportBatch, error) {
	var out *models.ImportBatch
	err := r.s.read(func(d *memData) error {
		rec, ok := d.batches[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		b := rec.v
		out = &b
		return nil
	})
	return out, err
}

func (r *memBatches) ListByVariant(ctx context.Context, tenantID string, variantID uuid.UUID) ([]models.ImportBatch, error) {
	var out []models.ImportBatch
	err := r.s.read(func(d *memData) error {
		rows := make([]row[models.ImportBatch], 0)
		for _, rec := range d.batches {
			if rec.v.TenantID == tenantID && rec.v.VariantID == variantID {
				rows = append(rows, rec)
			}
		}
		out = sortRows(rows, func(a, b models.ImportBatch) (bool, bool) {
			if !a.ImportDate.Equal(b.ImportDate) {
				return a.ImportDate.Before(b.ImportDate), true
			}
			return false, false
		})
		return nil
	})
	return out, err
}

func (r *memBatches) Update(ctx context.Context, batch *models.ImportBatch) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.batches[batch.ID]
		if !ok || rec.v.TenantID != batch.TenantID {
			return ErrNotFound
		}
		batch.CreatedAt = rec.v.CreatedAt
		stamp(&batch.CreatedAt, &batch.UpdatedAt)
		d.batches[batch.ID] = row[models.ImportBatch]{v: *batch, seq: rec.seq}
		return nil
	})
}

func (r *memBatches) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.s.write(func(d *memData) error {
		rec, ok := d.batches[id]
		if !ok || rec.v.TenantID != tenantID {
			return ErrNotFound
		}
		delete(d.batches, id)
		return nil
	})
}

func (r *memBatches) DeleteByVariants(ctx context.Context, tenantID string, variantIDs []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.s.write(func(d *memData) error {
		for id, rec := range d.batches {
			if rec.v.TenantID != tenantID {
				continue
			}
			for _, variantID := range variantIDs {
				if rec.v.VariantID == variantID {
					delete(d.batches, id)
					deleted++
					break
				}
			}
		}
		return nil
	})
	return deleted, err
}

var _ Store = (*MemoryStore)(nil)
