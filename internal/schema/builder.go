package schema

// Builder выводит create/update/query-варианты схемы из базового
// определения. Чистая производная: состояние — только входы, захваченные
// при конструировании.
type Builder struct {
	def *EntityDefinition
}

func NewBuilder(def *EntityDefinition) *Builder {
	return &Builder{def: def}
}

func (b *Builder) Definition() *EntityDefinition { return b.def }

// CreateFields — базовая схема без системных полей.
// Гарантия: множество required на выходе — подмножество required базовой
// схемы, ограниченное выжившими полями.
func (b *Builder) CreateFields() []Field {
	out := make([]Field, 0, len(b.def.Fields))
	for _, f := range b.def.Fields {
		if IsSystemField(f.Name) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// UpdateFields — те же поля, но все опциональные, плюс обязательный id:
// частичное обновление может опустить любое бизнес-поле, но обязано
// идентифицировать запись.
func (b *Builder) UpdateFields() []Field {
	create := b.CreateFields()
	out := make([]Field, 0, len(create)+1)
	out = append(out, Field{Name: "id", Type: TypeText, Required: true})
	for _, f := range create {
		f.Required = false
		out = append(out, f)
	}
	return out
}

// QueryShape — фиксированная форма параметров листинга, от базовой схемы
// не зависит.
type QueryShape struct {
	Page      Field `json:"page"`
	Limit     Field `json:"limit"`
	Search    Field `json:"search"`
	SortBy    Field `json:"sortBy"`
	SortOrder Field `json:"sortOrder"`
}

func (b *Builder) QueryShape() QueryShape {
	return QueryShape{
		Page:      Field{Name: "page", Type: TypeNumber, Description: "positive int, default 1"},
		Limit:     Field{Name: "limit", Type: TypeNumber, Description: "1..100, default 20"},
		Search:    Field{Name: "search", Type: TypeText},
		SortBy:    Field{Name: "sortBy", Type: TypeText, Description: "default createdAt"},
		SortOrder: Field{Name: "sortOrder", Type: TypeEnum, Enum: []string{"asc", "desc"}},
	}
}

// RequiredFieldNames — имена обязательных полей среди переданных.
func RequiredFieldNames(fields []Field) []string {
	var out []string
	for _, f := range fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
