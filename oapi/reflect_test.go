package oapi

import (
	"strings"
	"testing"
	"time"
)

// widget mimics a generated type: ToSchema inserts under the symbol and
// returns a reference.
type widget struct {
	Name string `json:"name"`
}

func (widget) ToSchema(reg *Registry) RefOr {
	symbol := "Widget"
	if !reg.Begin(symbol) {
		return SchemaRef(symbol)
	}
	reg.Insert(symbol, Inline(&Schema{
		Type:       "object",
		Properties: map[string]RefOr{"name": Inline(&Schema{Type: "string"})},
		Required:   []string{"name"},
	}))
	return SchemaRef(symbol)
}

type pair[A, B any] struct {
	First  A `json:"first"`
	Second B `json:"second"`
}

func TestSchemaOfPrimitives(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name   string
		got    RefOr
		typ    string
		format string
	}{
		{"bool", SchemaOf[bool](reg), "boolean", ""},
		{"int", SchemaOf[int](reg), "integer", ""},
		{"int32", SchemaOf[int32](reg), "integer", "int32"},
		{"int64", SchemaOf[int64](reg), "integer", "int64"},
		{"float32", SchemaOf[float32](reg), "number", "float"},
		{"float64", SchemaOf[float64](reg), "number", "double"},
		{"string", SchemaOf[string](reg), "string", ""},
		{"bytes", SchemaOf[[]byte](reg), "string", "byte"},
		{"time", SchemaOf[time.Time](reg), "string", "date-time"},
	}

	for _, tc := range tests {
		if tc.got.Schema == nil {
			t.Errorf("%s: expected inline schema", tc.name)
			continue
		}
		if tc.got.Schema.Type != tc.typ || tc.got.Schema.Format != tc.format {
			t.Errorf("%s: got type=%q format=%q, want type=%q format=%q",
				tc.name, tc.got.Schema.Type, tc.got.Schema.Format, tc.typ, tc.format)
		}
	}
}

func TestSchemaOfCompound(t *testing.T) {
	reg := NewRegistry()

	slice := SchemaOf[[]string](reg)
	if slice.Schema.Type != "array" || slice.Schema.Items.Schema.Type != "string" {
		t.Errorf("slice = %+v", slice.Schema)
	}

	m := SchemaOf[map[string]int64](reg)
	if m.Schema.Type != "object" || m.Schema.AdditionalProperties.Schema.Format != "int64" {
		t.Errorf("map = %+v", m.Schema)
	}

	ptr := SchemaOf[*string](reg)
	if len(ptr.Schema.AnyOf) != 2 || ptr.Schema.AnyOf[1].Schema.Type != "null" {
		t.Errorf("pointer = %+v", ptr.Schema)
	}
}

func TestSchemaOfStructTags(t *testing.T) {
	type tagged struct {
		ID       int64  `json:"id"`
		Label    string `json:"label,omitempty"`
		Hidden   string `json:"-"`
		Untitled string
		Count    int `json:",string"`
	}

	reg := NewRegistry()
	got := SchemaOf[tagged](reg)
	props := got.Schema.Properties

	if _, ok := props["id"]; !ok {
		t.Error("expected renamed property 'id'")
	}
	if _, ok := props["Hidden"]; ok {
		t.Error("json:\"-\" field must be skipped")
	}
	if _, ok := props["Untitled"]; !ok {
		t.Error("untagged field keeps its Go name")
	}
	if props["Count"].Schema.Type != "string" {
		t.Errorf("',string' field must render as string, got %+v", props["Count"].Schema)
	}

	required := got.Schema.Required
	for _, name := range required {
		if name == "label" {
			t.Error("omitempty field must not be required")
		}
	}
	if len(required) != 3 { // id, Untitled, Count
		t.Errorf("required = %v", required)
	}
}

func TestSchemaOfEmbedded(t *testing.T) {
	type base struct {
		ID int64 `json:"id"`
	}
	type derived struct {
		base
		Name string `json:"name"`
	}

	reg := NewRegistry()
	got := SchemaOf[derived](reg)
	if _, ok := got.Schema.Properties["id"]; !ok {
		t.Errorf("embedded struct fields must flatten, got %+v", got.Schema.Properties)
	}
	if _, ok := got.Schema.Properties["name"]; !ok {
		t.Error("expected own property 'name'")
	}
}

func TestSchemaOfSchemerDelegation(t *testing.T) {
	reg := NewRegistry()
	got := SchemaOf[widget](reg)

	if !got.IsRef() || got.Ref != ComponentsPrefix+"Widget" {
		t.Fatalf("expected delegation to ToSchema, got %+v", got)
	}
	if !reg.Has("Widget") {
		t.Error("delegated ToSchema must have registered the schema")
	}
}

func TestSchemaOfNestedSchemer(t *testing.T) {
	reg := NewRegistry()
	got := SchemaOf[pair[int32, widget]](reg)

	props := got.Schema.Properties
	if props["first"].Schema.Format != "int32" {
		t.Errorf("first = %+v", props["first"])
	}
	if !props["second"].IsRef() {
		t.Errorf("field of a self-describing type must resolve to a ref, got %+v", props["second"])
	}
	if !reg.Has("Widget") {
		t.Error("nested delegation must register the schema")
	}
}

func TestTypeNameOf(t *testing.T) {
	got := TypeNameOf[widget]()
	want := "github.com.oapigen.oapigen.oapi.widget"
	if got != want {
		t.Errorf("TypeNameOf = %q, want %q", got, want)
	}

	generic := TypeNameOf[pair[int32, string]]()
	if !strings.HasSuffix(generic, ".pair[int32,string]") {
		t.Errorf("generic TypeNameOf = %q", generic)
	}
	if strings.Contains(generic[:strings.IndexByte(generic, '[')], "/") {
		t.Errorf("path separators must normalize to dots: %q", generic)
	}
}

func TestSpliceSymbol(t *testing.T) {
	got := SpliceSymbol[pair[int32, string]]("Couple")
	if got != "Couple[int32,string]" {
		t.Errorf("SpliceSymbol = %q", got)
	}

	// Without an argument suffix the runtime name wins over the override.
	plain := SpliceSymbol[widget]("Override")
	if plain != "github.com/oapigen/oapigen/oapi.widget" {
		t.Errorf("opaque fallback = %q", plain)
	}
}
