package entities

import "prikaz/internal/schema"

func Organization() *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        "organization",
		DisplayName: "Organizations",
		Description: "Legal entities the tenant operates",
		Icon:        "briefcase",
		Color:       "#10b981",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "name", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "legalName", Type: schema.TypeText},
			schema.Field{Name: "taxNumber", Type: schema.TypeText, Filterable: true},
			schema.Field{Name: "country", Type: schema.TypeText, Filterable: true},
			schema.Field{Name: "contacts", Type: schema.TypeObject, Description: "emails, phones, messengers"},
		),
		TenantRules: schema.TenantRules{
			RequiredFields:    []string{"name"},
			OptionalFields:    []string{"legalName", "taxNumber", "country", "contacts"},
			UniqueConstraints: []string{"name", "taxNumber"},
			ValidationRules: map[string]schema.Rule{
				"name":      {MinLength: intp(2), MaxLength: intp(200)},
				"taxNumber": {Pattern: `^[0-9A-Za-z-]{4,32}$`},
			},
		},
		UI: schema.UIConfig{
			FormSections: []schema.FormSection{
				{Title: "General", Fields: []string{"name", "legalName"}},
				{Title: "Registration", Fields: []string{"taxNumber", "country"}},
				{Title: "Contacts", Fields: []string{"contacts"}},
			},
			TableColumns: []schema.TableColumn{
				{Field: "name", Label: "Name", Sortable: true},
				{Field: "taxNumber", Label: "Tax number"},
				{Field: "country", Label: "Country"},
				{Field: "isActive", Label: "Active"},
			},
		},
	}
}
