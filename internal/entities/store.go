package entities

import "prikaz/internal/schema"

func Store() *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        "store",
		DisplayName: "Stores",
		Description: "Physical and online points of sale",
		Icon:        "shopping-bag",
		Color:       "#f59e0b",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "name", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "code", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "kind", Type: schema.TypeEnum, Enum: []string{"physical", "online", "hybrid"}, Default: "physical", Filterable: true},
			schema.Field{Name: "address", Type: schema.TypeText},
			schema.Field{Name: "phone", Type: schema.TypeText},
			schema.Field{Name: "organizationId", Type: schema.TypeText, Filterable: true},
			schema.Field{Name: "openedAt", Type: schema.TypeTimestamp},
		),
		TenantRules: schema.TenantRules{
			RequiredFields:    []string{"name", "code"},
			OptionalFields:    []string{"kind", "address", "phone", "organizationId", "openedAt"},
			UniqueConstraints: []string{"code"},
			ValidationRules: map[string]schema.Rule{
				"name": {MinLength: intp(2), MaxLength: intp(150)},
				"code": {Pattern: `^[A-Za-z0-9_-]{2,32}$`},
			},
		},
		UI: schema.UIConfig{
			FormSections: []schema.FormSection{
				{Title: "General", Fields: []string{"name", "code", "kind", "organizationId"}},
				{Title: "Contacts", Fields: []string{"address", "phone"}},
			},
			TableColumns: []schema.TableColumn{
				{Field: "name", Label: "Name", Sortable: true},
				{Field: "code", Label: "Code"},
				{Field: "kind", Label: "Kind"},
				{Field: "isActive", Label: "Active"},
			},
		},
	}
}
