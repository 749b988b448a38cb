package entities

import (
	"context"
	"strings"

	"prikaz/internal/schema"
)

type itemHooks struct {
	schema.NoopHooks
}

// SKU хранится в каноничной форме: верхний регистр, без краевых пробелов.
func normalizeSKU(data map[string]any) {
	if sku, ok := data["sku"].(string); ok {
		data["sku"] = strings.ToUpper(strings.TrimSpace(sku))
	}
}

func (itemHooks) BeforeCreate(_ context.Context, data map[string]any, _ *string) error {
	normalizeSKU(data)
	return nil
}

func (itemHooks) BeforeUpdate(_ context.Context, _ string, data map[string]any, _ *string) error {
	normalizeSKU(data)
	return nil
}

func Item() *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        "item",
		DisplayName: "Items",
		Description: "Sellable products",
		Icon:        "package",
		Color:       "#0ea5e9",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "name", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "sku", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "description", Type: schema.TypeText},
			schema.Field{Name: "categoryId", Type: schema.TypeText, Filterable: true},
			schema.Field{Name: "price", Type: schema.TypeNumber, Required: true, Filterable: true},
			schema.Field{Name: "unit", Type: schema.TypeEnum, Enum: []string{"pcs", "kg", "l", "m"}, Default: "pcs"},
			schema.Field{Name: "tags", Type: schema.TypeArray},
			schema.Field{Name: "attributes", Type: schema.TypeObject, Description: "free-form attribute values"},
		),
		TenantRules: schema.TenantRules{
			RequiredFields:    []string{"name", "sku", "price"},
			OptionalFields:    []string{"description", "categoryId", "unit", "tags", "attributes"},
			UniqueConstraints: []string{"sku"},
			ValidationRules: map[string]schema.Rule{
				"name":  {MinLength: intp(2), MaxLength: intp(200)},
				// паттерн терпим к регистру и краевым пробелам: канонизация
				// выполняется хуком после проверки правил
				"sku":   {MinLength: intp(3), MaxLength: intp(64), Pattern: `^\s*[A-Za-z0-9][A-Za-z0-9-]*\s*$`},
				"price": {Min: floatp(0), Max: floatp(10_000_000)},
			},
		},
		Hooks: itemHooks{},
		UI: schema.UIConfig{
			FormSections: []schema.FormSection{
				{Title: "General", Fields: []string{"name", "sku", "description", "categoryId"}},
				{Title: "Pricing", Fields: []string{"price", "unit"}},
				{Title: "Extra", Fields: []string{"tags", "attributes"}},
			},
			TableColumns: []schema.TableColumn{
				{Field: "name", Label: "Name", Sortable: true},
				{Field: "sku", Label: "SKU", Sortable: true},
				{Field: "price", Label: "Price", Sortable: true},
				{Field: "isActive", Label: "Active"},
			},
		},
	}
}
