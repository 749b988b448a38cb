package schema

import "strings"

// Типы полей сущности
const (
	TypeText      = "text"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
	TypeEnum      = "enum"
	TypeObject    = "object"
	TypeArray     = "array"
)

// Системные поля — присутствуют в каждой зарегистрированной схеме,
// управляются хранилищем и никогда не принимаются от клиента.
var SystemFields = []string{"id", "createdAt", "updatedAt", "createdBy", "updatedBy", "tenantId", "isActive"}

// MandatoryFields — минимальный набор, без которого регистрация отклоняется.
var MandatoryFields = []string{"id", "createdAt", "updatedAt", "tenantId", "isActive"}

// Field описывает одно поле сущности. Явный декларативный дескриптор:
// и построение схем, и сериализация для UI читают отсюда — никакой
// интроспекции валидаторов.
type Field struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Catalog     string   `json:"catalog,omitempty"` // имя справочника для enum-значений
	Filterable  bool     `json:"filterable,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Rule — ограничение на уровне правил тенанта для одного поля.
// Custom — серверная проверка, НЕ сериализуется (см. descriptors).
type Rule struct {
	MinLength *int            `json:"minLength,omitempty"`
	MaxLength *int            `json:"maxLength,omitempty"`
	Pattern   string          `json:"pattern,omitempty"`
	Min       *float64        `json:"min,omitempty"`
	Max       *float64        `json:"max,omitempty"`
	Custom    func(any) error `json:"-"`
}

// TenantRules — набор ограничений сущности.
type TenantRules struct {
	RequiredFields    []string        `json:"requiredFields"`
	OptionalFields    []string        `json:"optionalFields"`
	UniqueConstraints []string        `json:"uniqueConstraints"`
	ValidationRules   map[string]Rule `json:"validationRules,omitempty"`
}

// FormSection / TableColumn — проекция для форм и таблиц админки.
type FormSection struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

type TableColumn struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable,omitempty"`
}

type UIConfig struct {
	FormSections []FormSection `json:"formSections,omitempty"`
	TableColumns []TableColumn `json:"tableColumns,omitempty"`
}

// EntityDefinition — единица регистрации: схема + правила + хуки + витрина.
type EntityDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName,omitempty"`
	Description string      `json:"description,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Color       string      `json:"color,omitempty"`
	Fields      []Field     `json:"fields"`
	TenantRules TenantRules `json:"tenantRules"`
	Hooks       Hooks       `json:"-"`
	UI          UIConfig    `json:"ui,omitempty"`
}

// FieldByName возвращает указатель на поле или nil.
func (d *EntityDefinition) FieldByName(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

func (d *EntityDefinition) HasField(name string) bool {
	return d.FieldByName(name) != nil
}

// StorageKey — ключ сущности в хранилище (имя в нижнем регистре).
func (d *EntityDefinition) StorageKey() string {
	return strings.ToLower(d.Name)
}

// MissingSystemFields — какие из обязательных системных полей отсутствуют.
func (d *EntityDefinition) MissingSystemFields() []string {
	var missing []string
	for _, sys := range MandatoryFields {
		if !d.HasField(sys) {
			missing = append(missing, sys)
		}
	}
	return missing
}

func IsSystemField(name string) bool {
	for _, s := range SystemFields {
		if s == name {
			return true
		}
	}
	return false
}

// SystemField — готовый дескриптор системного поля (для объявлений сущностей).
func SystemField(name string) Field {
	switch name {
	case "id", "tenantId", "createdBy", "updatedBy":
		return Field{Name: name, Type: TypeText}
	case "isActive":
		return Field{Name: name, Type: TypeBoolean}
	case "createdAt", "updatedAt":
		return Field{Name: name, Type: TypeTimestamp}
	}
	return Field{Name: name, Type: TypeText}
}

// WithSystemFields добавляет стандартный системный набор к бизнес-полям.
func WithSystemFields(fields ...Field) []Field {
	out := make([]Field, 0, len(fields)+len(SystemFields))
	for _, sys := range SystemFields {
		out = append(out, SystemField(sys))
	}
	return append(out, fields...)
}
