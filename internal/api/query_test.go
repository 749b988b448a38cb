package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) (q url.Values) {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestParseListQueryOperators(t *testing.T) {
	q, errs := parseListQuery(parse(t, "price.gte=2&price.lte=9&name.contains=bolt&status.in=new,used"))
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"gte": float64(2), "lte": float64(9)}, q.Filters["price"])
	assert.Equal(t, map[string]any{"contains": "bolt"}, q.Filters["name"])
	assert.Equal(t, map[string]any{"in": []any{"new", "used"}}, q.Filters["status"])
}

func TestParseListQueryEqualityForms(t *testing.T) {
	q, errs := parseListQuery(parse(t, "status=new&isActive=true&kind=a&kind=b"))
	require.Empty(t, errs)
	assert.Equal(t, "new", q.Filters["status"])
	assert.Equal(t, true, q.Filters["isActive"])
	assert.Equal(t, map[string]any{"in": []any{"a", "b"}}, q.Filters["kind"])
}

// равенство и оператор на одном поле — отказ, а не молчаливая потеря
// одного из фильтров
func TestParseListQueryRejectsMixedFilterForms(t *testing.T) {
	for _, raw := range []string{
		"price=5&price.gte=2",
		"price.gte=2&price=5",
	} {
		_, errs := parseListQuery(parse(t, raw))
		require.NotEmpty(t, errs, "query %q must be rejected", raw)
		assert.Equal(t, "price", errs[0].Field)
	}
}

func TestParseListQueryPagination(t *testing.T) {
	q, errs := parseListQuery(parse(t, "page=2&limit=50&sortBy=name&sortOrder=asc&search=bolt"))
	require.Empty(t, errs)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, "name", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
	assert.Equal(t, "bolt", q.Search)

	for _, raw := range []string{"page=0", "page=-1", "limit=0", "limit=101", "page=abc"} {
		_, errs := parseListQuery(parse(t, raw))
		assert.NotEmpty(t, errs, "query %q must fail", raw)
	}
}
