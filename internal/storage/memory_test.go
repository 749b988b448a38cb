package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateFindRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, "item", map[string]any{"name": "bolt", "tenantId": "t1"})
	require.NoError(t, err)
	require.NotEmpty(t, created["id"])
	assert.Equal(t, true, created["isActive"])
	assert.NotEmpty(t, created["createdAt"])

	found, err := m.FindFirst(ctx, "item", Where{"id": created["id"]})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "bolt", found["name"])

	missing, err := m.FindFirst(ctx, "item", Where{"id": "nope"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryUniqueScopedToTenantAndActive(t *testing.T) {
	m := NewMemory()
	m.DeclareUnique("item", "sku")
	ctx := context.Background()

	first, err := m.Create(ctx, "item", map[string]any{"sku": "A-1", "tenantId": "t1"})
	require.NoError(t, err)

	_, err = m.Create(ctx, "item", map[string]any{"sku": "A-1", "tenantId": "t1"})
	var ue *UniqueError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "sku", ue.Field)

	// другой тенант — не конфликт
	_, err = m.Create(ctx, "item", map[string]any{"sku": "A-1", "tenantId": "t2"})
	require.NoError(t, err)

	// деактивированная запись освобождает значение
	_, err = m.Update(ctx, "item", first["id"].(string), map[string]any{"isActive": false})
	require.NoError(t, err)
	_, err = m.Create(ctx, "item", map[string]any{"sku": "A-1", "tenantId": "t1"})
	require.NoError(t, err)
}

func TestMemoryUpdateMergesAndProtectsCreatedAt(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec, err := m.Create(ctx, "item", map[string]any{"name": "bolt", "size": "M4"})
	require.NoError(t, err)

	updated, err := m.Update(ctx, "item", rec["id"].(string), map[string]any{
		"name":      "nut",
		"createdAt": "1999-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "nut", updated["name"])
	assert.Equal(t, "M4", updated["size"], "untouched field survives partial update")
	assert.Equal(t, rec["createdAt"], updated["createdAt"])

	_, err = m.Update(ctx, "item", "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindManySortSkipTake(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := m.Create(ctx, "item", map[string]any{"name": fmt.Sprintf("n%d", i), "rank": float64(i)})
		require.NoError(t, err)
	}

	recs, err := m.FindMany(ctx, "item", Query{OrderBy: "rank", Desc: true, Skip: 1, Take: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "n4", recs[0]["name"])
	assert.Equal(t, "n3", recs[1]["name"])
}

func TestMemoryWhereOperators(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _ = m.Create(ctx, "item", map[string]any{"name": "Blue Bolt", "price": float64(10), "status": "new"})
	_, _ = m.Create(ctx, "item", map[string]any{"name": "red nut", "price": float64(25), "status": "used"})

	n, err := m.Count(ctx, "item", Where{"name": map[string]any{"contains": "BOLT"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "contains is case-insensitive")

	n, err = m.Count(ctx, "item", Where{"price": map[string]any{"gt": float64(10)}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = m.Count(ctx, "item", Where{"status": map[string]any{"in": []any{"new", "refurb"}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = m.Count(ctx, "item", Where{"OR": []Where{
		{"status": "new"},
		{"price": map[string]any{"gte": float64(25)}},
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestMemoryTenantNilMatchesUnscoped(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, _ = m.Create(ctx, "item", map[string]any{"name": "global"})
	_, _ = m.Create(ctx, "item", map[string]any{"name": "scoped", "tenantId": "t1"})

	rec, err := m.FindFirst(ctx, "item", Where{"tenantId": nil})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "global", rec["name"])
}
