package services

import (
	"context"
	"testing"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================================
// Create Tests
// ===========================================

func TestCreateParentAttribute_ScopedToCategory(t *testing.T) {
	env := newTestEnv("")
	root := env.category(t, "Root", nil)

	color := env.parentAttribute(t, "Color", root)

	assert.True(t, color.IsParent())
	assert.Equal(t, []string{root.ID.String()}, []string(color.CategoryScope))
}

func TestCreateParentAttribute_EmptyValue(t *testing.T) {
	env := newTestEnv("")
	root := env.category(t, "Root", nil)

	_, err := env.attributes.CreateParentAttribute(context.Background(), testTenant, root.ID, models.CreateAttributeRequest{Value: " "})

	assertKind(t, err, ErrValidation, "value")
}

func TestCreateParentAttribute_CategoryNotFound(t *testing.T) {
	env := newTestEnv("")

	_, err := env.attributes.CreateParentAttribute(context.Background(), testTenant, uuid.New(), models.CreateAttributeRequest{Value: "Color"})

	assertKind(t, err, ErrNotFound, "categoryId")
}

func TestCreateChildAttribute_UnderParent(t *testing.T) {
	env := newTestEnv("")
	color := env.parentAttribute(t, "Color", env.category(t, "Root", nil))

	red := env.childAttribute(t, "Red", color)

	assert.False(t, red.IsParent())
	require.NotNil(t, red.ParentID)
	assert.Equal(t, color.ID, *red.ParentID)
	assert.Empty(t, red.CategoryScope)
}

func TestCreateChildAttribute_UnderChildRejected(t *testing.T) {
	env := newTestEnv("")
	color := env.parentAttribute(t, "Color", env.category(t, "Root", nil))
	red := env.childAttribute(t, "Red", color)

	_, err := env.attributes.CreateChildAttribute(context.Background(), testTenant, red.ID, models.CreateAttributeRequest{Value: "Dark Red"})

	assertKind(t, err, ErrValidation, "parentAttributeId")
}

func TestCreateChildAttribute_ParentNotFound(t *testing.T) {
	env := newTestEnv("")

	_, err := env.attributes.CreateChildAttribute(context.Background(), testTenant, uuid.New(), models.CreateAttributeRequest{Value: "Red"})

	assertKind(t, err, ErrNotFound, "parentAttributeId")
}

// ===========================================
// Query Tests
// ===========================================

func TestListParentAttributes_InheritedFromAncestors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	root, child, leaf := env.chain(t)
	other := env.category(t, "Other", nil)
	color := env.parentAttribute(t, "Color", root)
	size := env.parentAttribute(t, "Size", leaf)
	env.parentAttribute(t, "Material", other)
	env.childAttribute(t, "Red", color)

	fromLeaf, err := env.attributes.ListParentAttributes(ctx, testTenant, leaf.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{color.ID, size.ID}, attributeIDs(fromLeaf))

	fromChild, err := env.attributes.ListParentAttributes(ctx, testTenant, child.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{color.ID}, attributeIDs(fromChild))
}

func TestListChildAttributes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	color := env.parentAttribute(t, "Color", env.category(t, "Root", nil))
	red := env.childAttribute(t, "Red", color)
	blue := env.childAttribute(t, "Blue", color)

	children, err := env.attributes.ListChildAttributes(ctx, testTenant, color.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{blue.ID, red.ID}, attributeIDs(children))

	_, err = env.attributes.ListChildAttributes(ctx, testTenant, red.ID)
	assertKind(t, err, ErrValidation, "parentAttributeId")
}

func TestGetAttribute_ParentIncludesChildren(t *testing.T) {
	env := newTestEnv("")
	color := env.parentAttribute(t, "Color", env.category(t, "Root", nil))
	env.childAttribute(t, "Red", color)

	got, err := env.attributes.GetAttribute(context.Background(), testTenant, color.ID)

	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "Red", got.Children[0].Value)
}

// ===========================================
// ValidatePair Tests
// ===========================================

func TestValidatePair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	root := env.category(t, "Root", nil)
	color := env.parentAttribute(t, "Color", root)
	size := env.parentAttribute(t, "Size", root)
	red := env.childAttribute(t, "Red", color)
	large := env.childAttribute(t, "Large", size)

	tests := []struct {
		name    string
		parent  uuid.UUID
		child   uuid.UUID
		field   string
		message string
	}{
		{"missing parent", uuid.Nil, red.ID, "parentAttributeId", "Please select a parent attribute"},
		{"missing child", color.ID, uuid.Nil, "childAttributeId", "Please select a child attribute"},
		{"child as parent", red.ID, red.ID, "parentAttributeId", ""},
		{"child of another parent", color.ID, large.ID, "childAttributeId", ""},
		{"parent as child", color.ID, size.ID, "childAttributeId", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.attributes.ValidatePair(ctx, testTenant, tt.parent, tt.child)
			assertKind(t, err, ErrValidation, tt.field)
			if tt.message != "" {
				ce, _ := AsCatalogError(err)
				assert.Equal(t, tt.message, ce.Message)
			}
		})
	}

	pair, err := env.attributes.ValidatePair(ctx, testTenant, color.ID, red.ID)
	require.NoError(t, err)
	assert.Equal(t, "Color", pair.Parent.Value)
	assert.Equal(t, "Red", pair.Child.Value)
}

// ===========================================
// Update Tests
// ===========================================

func TestUpdateAttribute_ValueAndScope(t *testing.T) {
	env := newTestEnv("")
	root, child, _ := env.chain(t)
	other := env.category(t, "Other", nil)
	color := env.parentAttribute(t, "Color", root)

	updated, err := env.attributes.UpdateAttribute(context.Background(), testTenant, color.ID, models.UpdateAttributeRequest{
		Value:       strPtr("Colour"),
		CategoryIDs: []string{child.ID.String(), other.ID.String(), child.ID.String()},
	})

	require.NoError(t, err)
	assert.Equal(t, "Colour", updated.Value)
	assert.Equal(t, []string{child.ID.String(), other.ID.String()}, []string(updated.CategoryScope))
}

func TestUpdateAttribute_ScopeRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	root := env.category(t, "Root", nil)
	color := env.parentAttribute(t, "Color", root)
	red := env.childAttribute(t, "Red", color)

	_, err := env.attributes.UpdateAttribute(ctx, testTenant, red.ID, models.UpdateAttributeRequest{CategoryIDs: []string{root.ID.String()}})
	assertKind(t, err, ErrValidation, "categoryIds")

	_, err = env.attributes.UpdateAttribute(ctx, testTenant, color.ID, models.UpdateAttributeRequest{CategoryIDs: []string{}})
	assertKind(t, err, ErrValidation, "categoryIds")

	_, err = env.attributes.UpdateAttribute(ctx, testTenant, color.ID, models.UpdateAttributeRequest{CategoryIDs: []string{uuid.New().String()}})
	assertKind(t, err, ErrNotFound, "categoryIds")

	_, err = env.attributes.UpdateAttribute(ctx, testTenant, color.ID, models.UpdateAttributeRequest{Value: strPtr("")})
	assertKind(t, err, ErrValidation, "value")
}

func TestUpdateAttribute_NarrowingBlockedByVariants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	root := env.category(t, "Root", nil)
	other := env.category(t, "Other", nil)
	color := env.parentAttribute(t, "Color", root)
	red := env.childAttribute(t, "Red", color)
	env.variant(t, env.product(t, "Shirt", root), color, red, "10")

	_, err := env.attributes.UpdateAttribute(ctx, testTenant, color.ID, models.UpdateAttributeRequest{CategoryIDs: []string{other.ID.String()}})
	assertKind(t, err, ErrHasDependents, "")
	ce, _ := AsCatalogError(err)
	assert.Equal(t, "1", ce.Details["variants"])

	got, err := env.attributes.GetAttribute(ctx, testTenant, color.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{root.ID.String()}, []string(got.CategoryScope))

	widened, err := env.attributes.UpdateAttribute(ctx, testTenant, color.ID, models.UpdateAttributeRequest{
		CategoryIDs: []string{other.ID.String(), root.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID.String(), root.ID.String()}, []string(widened.CategoryScope))
}

func TestUpdateAttribute_NarrowingWithoutVariants(t *testing.T) {
	env := newTestEnv("")
	root := env.category(t, "Root", nil)
	other := env.category(t, "Other", nil)
	color := env.parentAttribute(t, "Color", root)
	env.childAttribute(t, "Red", color)

	updated, err := env.attributes.UpdateAttribute(context.Background(), testTenant, color.ID, models.UpdateAttributeRequest{
		CategoryIDs: []string{other.ID.String()},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{other.ID.String()}, []string(updated.CategoryScope))
}

// ===========================================
// Delete Tests
// ===========================================

func TestDeleteAttribute_BlockedByChildren(t *testing.T) {
	env := newTestEnv("")
	color := env.parentAttribute(t, "Color", env.category(t, "Root", nil))
	env.childAttribute(t, "Red", color)

	err := env.attributes.DeleteAttribute(context.Background(), testTenant, color.ID)

	assertKind(t, err, ErrHasDependents, "")
}

func TestDeleteAttribute_BlockedByVariants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	root := env.category(t, "Root", nil)
	color := env.parentAttribute(t, "Color", root)
	red := env.childAttribute(t, "Red", color)
	env.variant(t, env.product(t, "Shirt", root), color, red, "10")

	err := env.attributes.DeleteAttribute(ctx, testTenant, red.ID)

	assertKind(t, err, ErrHasDependents, "")
	ce, _ := AsCatalogError(err)
	assert.Equal(t, "1", ce.Details["variants"])
}

func TestDeleteAttribute_Unused(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv("")
	color := env.parentAttribute(t, "Color", env.category(t, "Root", nil))
	red := env.childAttribute(t, "Red", color)

	require.NoError(t, env.attributes.DeleteAttribute(ctx, testTenant, red.ID))
	require.NoError(t, env.attributes.DeleteAttribute(ctx, testTenant, color.ID))

	_, err := env.attributes.GetAttribute(ctx, testTenant, color.ID)
	assertKind(t, err, ErrNotFound, "id")
}

func attributeIDs(attributes []models.Attribute) []uuid.UUID {
	ids := make([]uuid.UUID, len(attributes))
	for i, a := range attributes {
		ids[i] = a.ID
	}
	return ids
}
