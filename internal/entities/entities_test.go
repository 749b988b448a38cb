package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prikaz/internal/reference"
	"prikaz/internal/registry"
	"prikaz/internal/storage"
)

func testCatalogs() *reference.Set {
	set := reference.NewSet()
	set.Add(&reference.Catalog{Name: "roles", Options: []reference.Option{
		{Code: "admin", Label: "Admin"}, {Code: "viewer", Label: "Viewer"},
	}})
	set.Add(&reference.Catalog{Name: "attribute-types", Options: []reference.Option{
		{Code: "text", Label: "Text"}, {Code: "number", Label: "Number"},
	}})
	return set
}

func setup(t *testing.T) (*registry.Registry, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	reg := registry.New()
	reg.UseCatalogs(testCatalogs())
	require.NoError(t, RegisterAll(reg, mem))
	for _, name := range reg.Names() {
		def := reg.Get(name)
		mem.DeclareUnique(def.StorageKey(), def.TenantRules.UniqueConstraints...)
		assert.Empty(t, reg.ValidateEntity(name), "entity %s has schema issues", name)
	}
	return reg, mem
}

func TestRegisterAllEntities(t *testing.T) {
	reg, _ := setup(t)
	assert.ElementsMatch(t,
		[]string{"organization", "store", "category", "itemattribute", "item", "user"},
		reg.Names())

	// справочники материализованы в Enum
	role := reg.Get("user").FieldByName("role")
	require.NotNil(t, role)
	assert.Equal(t, []string{"admin", "viewer"}, role.Enum)
}

func TestCategorySlugDerivation(t *testing.T) {
	reg, mem := setup(t)
	svc := reg.Service("category", mem)
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]any{"name": "Hand Tools & Bits"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hand-tools-bits", rec["slug"])

	// явный slug не перетирается
	rec, err = svc.Create(ctx, map[string]any{"name": "Other", "slug": "custom"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", rec["slug"])
}

func TestCategoryDeleteVetoWhileReferenced(t *testing.T) {
	reg, mem := setup(t)
	ctx := context.Background()
	tid := "t1"

	cat, err := reg.Service("category", mem).Create(ctx, map[string]any{"name": "Bolts"}, &tid)
	require.NoError(t, err)

	item, err := reg.Service("item", mem).Create(ctx, map[string]any{
		"name": "Steel bolt", "sku": "sb-100", "price": float64(3),
		"categoryId": cat["id"],
	}, &tid)
	require.NoError(t, err)

	catSvc := reg.Service("category", mem)
	deleted, err := catSvc.Delete(ctx, cat["id"].(string), &tid)
	require.NoError(t, err, "veto is not an error")
	assert.False(t, deleted)

	got, err := catSvc.GetByID(ctx, cat["id"].(string), &tid)
	require.NoError(t, err)
	assert.Equal(t, true, got["isActive"])

	// после удаления товара вето снимается
	_, err = reg.Service("item", mem).Delete(ctx, item["id"].(string), &tid)
	require.NoError(t, err)
	deleted, err = catSvc.Delete(ctx, cat["id"].(string), &tid)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestItemSKUNormalization(t *testing.T) {
	reg, mem := setup(t)
	svc := reg.Service("item", mem)
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]any{
		"name": "Bolt", "sku": "  ab-100 ", "price": float64(2),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "AB-100", rec["sku"])
	assert.Equal(t, "pcs", rec["unit"], "default unit")

	rec, err = svc.Update(ctx, rec["id"].(string), map[string]any{"sku": "ab-200"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "AB-200", rec["sku"])
}

func TestItemPriceBounds(t *testing.T) {
	reg, mem := setup(t)
	svc := reg.Service("item", mem)

	_, err := svc.Create(context.Background(), map[string]any{
		"name": "Bolt", "sku": "AB-100", "price": float64(-1),
	}, nil)
	require.Error(t, err)
}

func TestUserEmailNormalizationAndPattern(t *testing.T) {
	reg, mem := setup(t)
	svc := reg.Service("user", mem)
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]any{
		"email": "  Admin@Example.COM ", "displayName": "Admin", "role": "admin",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", rec["email"])

	_, err = svc.Create(ctx, map[string]any{
		"email": "not-an-email", "displayName": "Broken", "role": "viewer",
	}, nil)
	require.Error(t, err)

	_, err = svc.Create(ctx, map[string]any{
		"email": "x@y.z", "displayName": "Ghost", "role": "superhero",
	}, nil)
	require.Error(t, err, "role outside catalog enum")
}
