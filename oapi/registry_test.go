package oapi

import (
	"testing"
)

func TestRegistryInsertThenRef(t *testing.T) {
	reg := NewRegistry()

	// The generated code path: insert under the symbol, then hand back a
	// reference built from the same symbol.
	reg.Insert("petstore.Pet", Inline(&Schema{Type: "object"}))
	ref := SchemaRef("petstore.Pet")

	if !reg.Has("petstore.Pet") {
		t.Fatal("expected symbol to be registered")
	}
	if ref.Ref != "#/components/schemas/petstore.Pet" {
		t.Errorf("ref = %q", ref.Ref)
	}
	s, ok := reg.Get("petstore.Pet")
	if !ok || s.Schema == nil || s.Schema.Type != "object" {
		t.Errorf("Get = %+v, %v", s, ok)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	reg := NewRegistry()
	reg.Insert("Pet", Inline(&Schema{Type: "object"}))
	reg.Insert("Pet", Inline(&Schema{Type: "string"}))

	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	s, _ := reg.Get("Pet")
	if s.Schema.Type != "string" {
		t.Errorf("last write must win, got %q", s.Schema.Type)
	}
}

func TestRegistryRefEntry(t *testing.T) {
	// A components entry may itself be a reference; newtype schemas
	// register this way.
	reg := NewRegistry()
	reg.Insert("PetRef", SchemaRef("Pet"))

	s, ok := reg.Get("PetRef")
	if !ok || !s.IsRef() {
		t.Fatalf("Get = %+v, %v", s, ok)
	}
	if s.Ref != "#/components/schemas/Pet" {
		t.Errorf("ref = %q", s.Ref)
	}
}

func TestRegistryBegin(t *testing.T) {
	reg := NewRegistry()

	if !reg.Begin("Pet") {
		t.Fatal("first Begin must succeed")
	}
	// A nested build of the same symbol bails out with a reference.
	if reg.Begin("Pet") {
		t.Error("Begin during a build must report false")
	}

	reg.Insert("Pet", Inline(&Schema{Type: "object"}))
	// Insert completes the build; a fresh one may start and overwrite.
	if !reg.Begin("Pet") {
		t.Error("Begin after Insert must succeed")
	}
}

func TestRegistrySymbolsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Insert("b.Two", Inline(Empty()))
	reg.Insert("a.One", Inline(Empty()))
	reg.Insert("c.Three", Inline(Empty()))

	symbols := reg.Symbols()
	want := []string{"a.One", "b.Two", "c.Three"}
	if len(symbols) != len(want) {
		t.Fatalf("Symbols = %v", symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("Symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestRegistrySchemasCopy(t *testing.T) {
	reg := NewRegistry()
	reg.Insert("Pet", Inline(Empty()))

	m := reg.Schemas()
	delete(m, "Pet")
	if !reg.Has("Pet") {
		t.Error("Schemas() must return a copy")
	}
}

func TestNewDocument(t *testing.T) {
	reg := NewRegistry()
	reg.Insert("Pet", Inline(&Schema{Type: "object"}))

	doc := NewDocument("petstore", "1.0.0", reg)
	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI = %q", doc.OpenAPI)
	}
	if doc.Components == nil {
		t.Fatal("components missing")
	}
	if got := doc.Components.Schemas["Pet"]; got.Schema == nil {
		t.Fatalf("components.schemas = %+v", doc.Components.Schemas)
	}

	empty := NewDocument("empty", "1.0.0", NewRegistry())
	if empty.Components != nil {
		t.Error("empty registry must produce no components")
	}
}
