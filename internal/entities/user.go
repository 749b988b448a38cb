package entities

import (
	"context"
	"strings"

	"prikaz/internal/schema"
)

type userHooks struct {
	schema.NoopHooks
}

func normalizeEmail(data map[string]any) {
	if email, ok := data["email"].(string); ok {
		data["email"] = strings.ToLower(strings.TrimSpace(email))
	}
}

func (userHooks) BeforeCreate(_ context.Context, data map[string]any, _ *string) error {
	normalizeEmail(data)
	return nil
}

func (userHooks) BeforeUpdate(_ context.Context, _ string, data map[string]any, _ *string) error {
	normalizeEmail(data)
	return nil
}

func User() *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        "user",
		DisplayName: "Users",
		Description: "Admin panel accounts",
		Icon:        "user",
		Color:       "#6366f1",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "email", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "displayName", Type: schema.TypeText, Required: true, Filterable: true},
			schema.Field{Name: "role", Type: schema.TypeEnum, Required: true, Catalog: "roles", Filterable: true},
			schema.Field{Name: "phone", Type: schema.TypeText},
			schema.Field{Name: "lastSeenAt", Type: schema.TypeTimestamp},
		),
		TenantRules: schema.TenantRules{
			RequiredFields:    []string{"email", "displayName", "role"},
			OptionalFields:    []string{"phone", "lastSeenAt"},
			UniqueConstraints: []string{"email"},
			ValidationRules: map[string]schema.Rule{
				// краевые пробелы допускаем: хук приводит email к канону
				"email":       {Pattern: `^\s*[^@\s]+@[^@\s]+\.[^@\s]+\s*$`, MaxLength: intp(254)},
				"displayName": {MinLength: intp(2), MaxLength: intp(120)},
			},
		},
		Hooks: userHooks{},
		UI: schema.UIConfig{
			FormSections: []schema.FormSection{
				{Title: "Account", Fields: []string{"email", "displayName", "role"}},
				{Title: "Contacts", Fields: []string{"phone"}},
			},
			TableColumns: []schema.TableColumn{
				{Field: "displayName", Label: "Name", Sortable: true},
				{Field: "email", Label: "Email", Sortable: true},
				{Field: "role", Label: "Role"},
				{Field: "isActive", Label: "Active"},
			},
		},
	}
}
