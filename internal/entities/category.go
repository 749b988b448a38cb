package entities

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"prikaz/internal/schema"
	"prikaz/internal/storage"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify: нижний регистр, всё небуквенно-цифровое схлопывается в дефис.
func slugify(s string) string {
	s = slugStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

type categoryHooks struct {
	schema.NoopHooks
	client storage.Client
}

// BeforeCreate выводит slug из name, если не задан явно.
func (h categoryHooks) BeforeCreate(_ context.Context, data map[string]any, _ *string) error {
	if _, ok := data["slug"]; ok {
		return nil
	}
	if name, ok := data["name"].(string); ok && name != "" {
		data["slug"] = slugify(name)
	}
	return nil
}

// BeforeDelete накладывает вето, пока на категорию ссылаются активные товары.
func (h categoryHooks) BeforeDelete(ctx context.Context, id string, tenantID *string) (bool, error) {
	if h.client == nil {
		return true, nil
	}
	where := storage.Where{"categoryId": id, "isActive": true}
	if tenantID != nil {
		where["tenantId"] = *tenantID
	}
	n, err := h.client.Count(ctx, "item", where)
	if err != nil {
		return false, fmt.Errorf("count referencing items: %w", err)
	}
	return n == 0, nil
}

func Category(client storage.Client) *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        "category",
		DisplayName: "Categories",
		Description: "Product category tree",
		Icon:        "folder",
		Color:       "#8b5cf6",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "name", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "slug", Type: schema.TypeText, Filterable: true},
			schema.Field{Name: "description", Type: schema.TypeText},
			schema.Field{Name: "parentId", Type: schema.TypeText, Filterable: true, Description: "parent category id"},
			schema.Field{Name: "sortOrder", Type: schema.TypeNumber, Default: float64(0)},
		),
		TenantRules: schema.TenantRules{
			RequiredFields:    []string{"name"},
			OptionalFields:    []string{"slug", "description", "parentId", "sortOrder"},
			UniqueConstraints: []string{"slug"},
			ValidationRules: map[string]schema.Rule{
				"name": {MinLength: intp(2), MaxLength: intp(120)},
				"slug": {Pattern: `^[a-z0-9]+(-[a-z0-9]+)*$`},
			},
		},
		Hooks: categoryHooks{client: client},
		UI: schema.UIConfig{
			FormSections: []schema.FormSection{
				{Title: "General", Fields: []string{"name", "slug", "description"}},
				{Title: "Placement", Fields: []string{"parentId", "sortOrder"}},
			},
			TableColumns: []schema.TableColumn{
				{Field: "name", Label: "Name", Sortable: true},
				{Field: "slug", Label: "Slug"},
				{Field: "sortOrder", Label: "Order", Sortable: true},
				{Field: "isActive", Label: "Active"},
			},
		},
	}
}
