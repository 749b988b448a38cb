package entities

import "prikaz/internal/schema"

// ItemAttribute — словарь атрибутов товара: тип значения берётся из
// справочника attribute-types (Enum материализуется при регистрации).
func ItemAttribute() *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        "itemattribute",
		DisplayName: "Item attributes",
		Description: "Attribute dictionary for item cards",
		Icon:        "sliders",
		Color:       "#ec4899",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "name", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "code", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "valueType", Type: schema.TypeEnum, Required: true, Catalog: "attribute-types", Filterable: true},
			schema.Field{Name: "unit", Type: schema.TypeText, Description: "display unit, e.g. cm"},
			schema.Field{Name: "options", Type: schema.TypeArray, Description: "allowed values for list attributes"},
			schema.Field{Name: "isRequired", Type: schema.TypeBoolean, Default: false},
		),
		TenantRules: schema.TenantRules{
			RequiredFields:    []string{"name", "code", "valueType"},
			OptionalFields:    []string{"unit", "options", "isRequired"},
			UniqueConstraints: []string{"code"},
			ValidationRules: map[string]schema.Rule{
				"name": {MinLength: intp(2), MaxLength: intp(120)},
				"code": {Pattern: `^[a-z][a-z0-9_]*$`},
			},
		},
		UI: schema.UIConfig{
			FormSections: []schema.FormSection{
				{Title: "General", Fields: []string{"name", "code", "valueType"}},
				{Title: "Value", Fields: []string{"unit", "options", "isRequired"}},
			},
			TableColumns: []schema.TableColumn{
				{Field: "name", Label: "Name", Sortable: true},
				{Field: "code", Label: "Code"},
				{Field: "valueType", Label: "Type"},
				{Field: "isActive", Label: "Active"},
			},
		},
	}
}
