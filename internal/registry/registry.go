package registry

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"prikaz/internal/reference"
	"prikaz/internal/schema"
	"prikaz/internal/service"
	"prikaz/internal/storage"
)

// Registry — явный объект-реестр сущностей. Конструируется один раз на
// старте, дальше только читается; глобального состояния нет, реестр
// передаётся по ссылке туда, где нужен.
type Registry struct {
	defs     map[string]*entry
	order    []string // порядок регистрации, для детерминированных выдач
	catalogs *reference.Set
	log      *logrus.Entry
}

type entry struct {
	def     *schema.EntityDefinition
	builder *schema.Builder
}

func New() *Registry {
	return &Registry{
		defs: make(map[string]*entry),
		log:  logrus.WithField("component", "registry"),
	}
}

// UseCatalogs подключает справочники для разрешения Field.Catalog → Enum
// при регистрации. Вызывается до Register.
func (r *Registry) UseCatalogs(set *reference.Set) {
	r.catalogs = set
}

// Register валидирует определение и кладёт его в реестр. Повторная
// регистрация того же имени молча замещает предыдущую. Builder строится
// сразу: ошибка схемы должна всплыть на старте, а не на первом запросе.
func (r *Registry) Register(def *schema.EntityDefinition) error {
	if def == nil {
		return fmt.Errorf("register: nil definition")
	}
	if def.Name == "" {
		return fmt.Errorf("register: entity name is empty")
	}
	if missing := def.MissingSystemFields(); len(missing) > 0 {
		return fmt.Errorf("register %s: missing system fields %v", def.Name, missing)
	}
	if err := r.resolveCatalogs(def); err != nil {
		return err
	}

	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = &entry{def: def, builder: schema.NewBuilder(def)}
	r.log.WithFields(logrus.Fields{
		"entity": def.Name,
		"fields": len(def.Fields),
		"hooks":  schema.HasBusinessLogic(def),
	}).Info("entity registered")
	return nil
}

// resolveCatalogs материализует Enum из объявленных справочников.
// Явно заданный Enum не перетирается.
func (r *Registry) resolveCatalogs(def *schema.EntityDefinition) error {
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Catalog == "" || len(f.Enum) > 0 {
			continue
		}
		cat := r.catalogs.Get(f.Catalog)
		if cat == nil {
			return fmt.Errorf("register %s: field %s references unknown catalog %q",
				def.Name, f.Name, f.Catalog)
		}
		f.Enum = cat.Codes()
	}
	return nil
}

// Get возвращает nil для неизвестного имени — без ошибки.
func (r *Registry) Get(name string) *schema.EntityDefinition {
	if e := r.defs[name]; e != nil {
		return e.def
	}
	return nil
}

func (r *Registry) Builder(name string) *schema.Builder {
	if e := r.defs[name]; e != nil {
		return e.builder
	}
	return nil
}

// Names — имена в порядке регистрации.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Service создаёт свежий сервис под сущность. nil для неизвестного имени.
// nil-клиент допустим: операции с данными откажут до привязки BindClient.
func (r *Registry) Service(name string, client storage.Client) *service.Service {
	e := r.defs[name]
	if e == nil {
		return nil
	}
	return service.New(e.def, client)
}

// ==== сериализуемые дескрипторы ====
// Через эту границу ходят только plain-data: никаких функций, хуков или
// Custom-правил — всё, что здесь возвращается, обязано переживать
// json.Marshal без потерь.

// RouteDescriptor — маршрут админки: навигация плюс транспортно-безопасная
// проекция схемы, достаточная для построения формы без дополнительных
// запросов к meta-эндпоинтам.
type RouteDescriptor struct {
	Path        string           `json:"path"`
	Entity      string           `json:"entity"`
	DisplayName string           `json:"displayName"`
	Description string           `json:"description,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Color       string           `json:"color,omitempty"`
	Schema      SchemaDescriptor `json:"schema"`
}

// SchemaDescriptor — плоский список полей create-схемы + разбиение
// required/optional из правил тенанта.
type SchemaDescriptor struct {
	Fields   []SchemaField `json:"fields"`
	Required []string      `json:"required"`
	Optional []string      `json:"optional"`
}

type SchemaField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// EndpointDescriptor — один REST-эндпоинт сущности.
type EndpointDescriptor struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Entity      string `json:"entity"`
	Operation   string `json:"operation"`
	Description string `json:"description,omitempty"`
}

func (r *Registry) AdminRoutes() []RouteDescriptor {
	out := make([]RouteDescriptor, 0, len(r.order))
	for _, name := range r.order {
		e := r.defs[name]
		def := e.def
		display := def.DisplayName
		if display == "" {
			display = def.Name
		}
		out = append(out, RouteDescriptor{
			Path:        "/admin/" + def.StorageKey(),
			Entity:      def.Name,
			DisplayName: display,
			Description: def.Description,
			Icon:        def.Icon,
			Color:       def.Color,
			Schema:      schemaDescriptor(e),
		})
	}
	return out
}

func schemaDescriptor(e *entry) SchemaDescriptor {
	create := e.builder.CreateFields()
	fields := make([]SchemaField, 0, len(create))
	for _, f := range create {
		fields = append(fields, SchemaField{
			Name:        f.Name,
			Type:        f.Type,
			Required:    f.Required,
			Description: f.Description,
		})
	}
	return SchemaDescriptor{
		Fields:   fields,
		Required: append([]string{}, e.def.TenantRules.RequiredFields...),
		Optional: append([]string{}, e.def.TenantRules.OptionalFields...),
	}
}

func (r *Registry) APIEndpoints() []EndpointDescriptor {
	out := make([]EndpointDescriptor, 0, len(r.order)*6)
	for _, name := range r.order {
		def := r.defs[name].def
		base := "/api/" + def.StorageKey()
		display := def.DisplayName
		if display == "" {
			display = def.Name
		}
		ops := []struct {
			method, path, op, desc string
		}{
			{"POST", base, "create", "Create a record"},
			{"GET", base, "list", "List records with pagination, search and filters"},
			{"GET", base + "/stats", "stats", "Record counts"},
			{"GET", base + "/:id", "get", "Fetch a record by id"},
			{"PUT", base + "/:id", "update", "Partially update a record"},
			{"DELETE", base + "/:id", "delete", "Soft-delete a record"},
		}
		for _, o := range ops {
			out = append(out, EndpointDescriptor{
				Method:      o.method,
				Path:        o.path,
				Entity:      def.Name,
				Operation:   o.op,
				Description: fmt.Sprintf("%s: %s", display, o.desc),
			})
		}
	}
	return out
}

// ValidateEntity — человекочитаемые замечания по определению; не паникует,
// для неизвестного имени возвращает одно замечание.
func (r *Registry) ValidateEntity(name string) []string {
	e := r.defs[name]
	if e == nil {
		return []string{fmt.Sprintf("entity %q is not registered", name)}
	}
	def := e.def
	var issues []string

	if missing := def.MissingSystemFields(); len(missing) > 0 {
		issues = append(issues, fmt.Sprintf("missing system fields: %v", missing))
	}
	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			issues = append(issues, "field with empty name")
			continue
		}
		if seen[f.Name] {
			issues = append(issues, fmt.Sprintf("duplicate field %q", f.Name))
		}
		seen[f.Name] = true
		if f.Type == schema.TypeEnum && len(f.Enum) == 0 {
			issues = append(issues, fmt.Sprintf("enum field %q has no values", f.Name))
		}
	}
	for _, req := range def.TenantRules.RequiredFields {
		if !def.HasField(req) {
			issues = append(issues, fmt.Sprintf("required field %q is not declared", req))
		}
	}
	for _, uq := range def.TenantRules.UniqueConstraints {
		if !def.HasField(uq) {
			issues = append(issues, fmt.Sprintf("unique constraint on undeclared field %q", uq))
		}
	}
	for ruled := range def.TenantRules.ValidationRules {
		if !def.HasField(ruled) {
			issues = append(issues, fmt.Sprintf("validation rule for undeclared field %q", ruled))
		}
	}
	for _, col := range def.UI.TableColumns {
		if !def.HasField(col.Field) {
			issues = append(issues, fmt.Sprintf("table column refers to undeclared field %q", col.Field))
		}
	}
	for _, sec := range def.UI.FormSections {
		for _, fn := range sec.Fields {
			if !def.HasField(fn) {
				issues = append(issues, fmt.Sprintf("form section %q refers to undeclared field %q", sec.Title, fn))
			}
		}
	}
	sort.Strings(issues)
	return issues
}

// ==== сводка реестра ====

type EntityStats struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"displayName"`
	HasBusinessLogic bool     `json:"hasBusinessLogic"`
	RequiredFields   []string `json:"requiredFields"`
	OptionalFields   []string `json:"optionalFields"`
}

type Stats struct {
	Total    int           `json:"total"`
	Entities []EntityStats `json:"entities"`
}

func (r *Registry) Stats() Stats {
	out := Stats{Total: len(r.order), Entities: make([]EntityStats, 0, len(r.order))}
	for _, name := range r.order {
		def := r.defs[name].def
		display := def.DisplayName
		if display == "" {
			display = def.Name
		}
		out.Entities = append(out.Entities, EntityStats{
			Name:             def.Name,
			DisplayName:      display,
			HasBusinessLogic: schema.HasBusinessLogic(def),
			RequiredFields:   def.TenantRules.RequiredFields,
			OptionalFields:   def.TenantRules.OptionalFields,
		})
	}
	return out
}
