package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prikaz/internal/reference"
	"prikaz/internal/schema"
	"prikaz/internal/storage"
)

func validDef(name string) *schema.EntityDefinition {
	return &schema.EntityDefinition{
		Name:        name,
		DisplayName: "Widgets",
		Fields: schema.WithSystemFields(
			schema.Field{Name: "name", Type: schema.TypeText, Required: true},
		),
		TenantRules: schema.TenantRules{RequiredFields: []string{"name"}},
	}
}

func TestRegisterRejectsMissingSystemFields(t *testing.T) {
	reg := New()
	err := reg.Register(&schema.EntityDefinition{
		Name:   "bare",
		Fields: []schema.Field{{Name: "name", Type: schema.TypeText}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing system fields")
	assert.Nil(t, reg.Get("bare"))
}

func TestRegisterReplacesSilently(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(validDef("widget")))

	replacement := validDef("widget")
	replacement.DisplayName = "Widgets v2"
	require.NoError(t, reg.Register(replacement))

	assert.Equal(t, []string{"widget"}, reg.Names())
	assert.Equal(t, "Widgets v2", reg.Get("widget").DisplayName)
}

func TestRegisterResolvesCatalogs(t *testing.T) {
	set := reference.NewSet()
	set.Add(&reference.Catalog{Name: "roles", Options: []reference.Option{
		{Code: "admin", Label: "Admin"},
		{Code: "viewer", Label: "Viewer"},
	}})

	reg := New()
	reg.UseCatalogs(set)

	def := validDef("user")
	def.Fields = append(def.Fields, schema.Field{Name: "role", Type: schema.TypeEnum, Catalog: "roles"})
	require.NoError(t, reg.Register(def))
	assert.Equal(t, []string{"admin", "viewer"}, reg.Get("user").FieldByName("role").Enum)

	// неизвестный справочник — отказ регистрации
	bad := validDef("account")
	bad.Fields = append(bad.Fields, schema.Field{Name: "role", Type: schema.TypeEnum, Catalog: "ghosts"})
	require.Error(t, reg.Register(bad))
}

func TestLookupsReturnZeroValues(t *testing.T) {
	reg := New()
	assert.Nil(t, reg.Get("nope"))
	assert.Nil(t, reg.Builder("nope"))
	assert.Nil(t, reg.Service("nope", storage.NewMemory()))
	assert.Empty(t, reg.Names())
}

func TestServiceFreshInstances(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(validDef("widget")))

	mem := storage.NewMemory()
	a := reg.Service("widget", mem)
	b := reg.Service("widget", mem)
	require.NotNil(t, a)
	assert.NotSame(t, a, b)

	// nil-клиент допустим
	assert.NotNil(t, reg.Service("widget", nil))
}

func TestDescriptorsAreSerializable(t *testing.T) {
	reg := New()
	def := validDef("widget")
	def.Icon = "box"
	def.TenantRules.ValidationRules = map[string]schema.Rule{
		"name": {Custom: func(any) error { return nil }},
	}
	require.NoError(t, reg.Register(def))

	routes := reg.AdminRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/admin/widget", routes[0].Path)
	assert.Equal(t, "Widgets", routes[0].DisplayName)

	// схема едет внутри дескриптора: UI строит форму без лишних запросов
	sch := routes[0].Schema
	require.NotEmpty(t, sch.Fields)
	for _, f := range sch.Fields {
		assert.False(t, schema.IsSystemField(f.Name), "system field %s leaked into route schema", f.Name)
	}
	names := make([]string, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name"}, names)
	assert.Equal(t, []string{"name"}, sch.Required)
	assert.NotNil(t, sch.Optional)

	raw, err := json.Marshal(routes[0])
	require.NoError(t, err)
	var asMap map[string]any
	require.NoError(t, json.Unmarshal(raw, &asMap))
	require.Contains(t, asMap, "schema")
	schMap := asMap["schema"].(map[string]any)
	require.Contains(t, schMap, "fields")
	require.Contains(t, schMap, "required")
	require.Contains(t, schMap, "optional")

	eps := reg.APIEndpoints()
	require.Len(t, eps, 6)
	methods := map[string]bool{}
	for _, ep := range eps {
		methods[ep.Method+" "+ep.Path] = true
	}
	assert.True(t, methods["POST /api/widget"])
	assert.True(t, methods["GET /api/widget/stats"])
	assert.True(t, methods["DELETE /api/widget/:id"])

	// дескрипторы и определение переживают json.Marshal: функции не утекают
	for _, v := range []any{routes, eps, reg.Get("widget"), reg.Stats()} {
		_, err := json.Marshal(v)
		require.NoError(t, err)
	}
}

func TestValidateEntityReportsIssues(t *testing.T) {
	reg := New()
	def := validDef("widget")
	def.Fields = append(def.Fields, schema.Field{Name: "kind", Type: schema.TypeEnum})
	def.TenantRules.UniqueConstraints = []string{"ghost"}
	def.UI.TableColumns = []schema.TableColumn{{Field: "missing", Label: "?"}}
	require.NoError(t, reg.Register(def))

	issues := reg.ValidateEntity("widget")
	assert.NotEmpty(t, issues)
	joined := ""
	for _, i := range issues {
		joined += i + "\n"
	}
	assert.Contains(t, joined, `enum field "kind" has no values`)
	assert.Contains(t, joined, `unique constraint on undeclared field "ghost"`)
	assert.Contains(t, joined, `table column refers to undeclared field "missing"`)

	assert.Equal(t, []string{`entity "nope" is not registered`}, reg.ValidateEntity("nope"))
}

func TestStatsSummary(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(validDef("widget")))
	require.NoError(t, reg.Register(validDef("gadget")))

	st := reg.Stats()
	assert.Equal(t, 2, st.Total)
	require.Len(t, st.Entities, 2)
	assert.Equal(t, "widget", st.Entities[0].Name)
	assert.False(t, st.Entities[0].HasBusinessLogic)
	assert.Equal(t, []string{"name"}, st.Entities[0].RequiredFields)
}
