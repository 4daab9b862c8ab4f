package codegen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/oapigen/oapigen/internal/derive"
	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

func mustRef(t *testing.T, s string) *typedef.TypeRef {
	t.Helper()
	ref, err := typedef.ParseRef(s)
	if err != nil {
		t.Fatalf("ParseRef(%q): %v", s, err)
	}
	return ref
}

func planDefs(t *testing.T, defs ...*typedef.Definition) (*derive.DocumentPlan, *diagnostic.Collector) {
	t.Helper()
	doc := &typedef.Document{Package: "petstore", File: "petstore.yaml", Types: defs}
	col := diagnostic.NewCollector(false, false)
	plan := derive.PlanDocument(doc, col, derive.Options{PackagePath: "example.com/petstore"})
	return plan, col
}

// generate plans and renders defs, failing the test on any error.
func generate(t *testing.T, defs ...*typedef.Definition) string {
	t.Helper()
	plan, col := planDefs(t, defs...)
	if col.HasErrors() {
		t.Fatalf("plan errors:\n%s", col.FormatAll())
	}
	file, ok := Generate(plan, col)
	if !ok {
		t.Fatalf("generate failed:\n%s", col.FormatAll())
	}
	return string(file.Source)
}

// flat collapses all whitespace runs so assertions survive gofmt's
// column alignment.
func flat(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func wantFlat(t *testing.T, src, fragment string) {
	t.Helper()
	if !strings.Contains(flat(src), fragment) {
		t.Errorf("output missing %q\n%s", fragment, src)
	}
}

func TestGenerateRecordFile(t *testing.T) {
	pet := &typedef.Definition{
		Name:        "Pet",
		Description: "A pet in the store.",
		Fields: []typedef.Field{
			{Name: "ID", Rename: "id", Type: mustRef(t, "int64")},
			{Name: "Name", Rename: "name", Type: mustRef(t, "string")},
			{Name: "Tag", Rename: "tag", Optional: true, Type: mustRef(t, "*string")},
		},
		HasFields: true,
	}
	plan, col := planDefs(t, pet)
	file, ok := Generate(plan, col)
	if !ok {
		t.Fatalf("generate failed:\n%s", col.FormatAll())
	}
	if file.Name != "petstore.gen.go" {
		t.Errorf("Name = %q", file.Name)
	}
	src := string(file.Source)

	if !strings.HasPrefix(src, "// Code generated by oapigen. DO NOT EDIT.\n") {
		t.Errorf("missing generated-code header:\n%s", src)
	}
	if !strings.Contains(src, "\npackage petstore\n") {
		t.Errorf("missing package clause:\n%s", src)
	}
	if !strings.Contains(src, `"github.com/oapigen/oapigen/oapi"`) {
		t.Errorf("missing oapi import:\n%s", src)
	}
	wantFlat(t, src, "// A pet in the store. type Pet struct {")
	wantFlat(t, src, "ID int64 `json:\"id\"`")
	wantFlat(t, src, "Tag *string `json:\"tag,omitempty\"`")
	wantFlat(t, src, "func (v Pet) ToSchema(reg *oapi.Registry) oapi.RefOr {")
	wantFlat(t, src, "symbol := oapi.TypeNameOf[Pet]()")
	wantFlat(t, src, "if !reg.Begin(symbol) { return oapi.SchemaRef(symbol) }")
	wantFlat(t, src, `Required: []string{"id", "name"}`)
}

func TestGenerateRenamePolicyTags(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Owner",
		RenameAll: "camelCase",
		Fields: []typedef.Field{
			{Name: "FirstName", Type: mustRef(t, "string")},
			{Name: "PetCount", Rename: "pet_total", Type: mustRef(t, "int32")},
		},
		HasFields: true,
	})
	wantFlat(t, src, "FirstName string `json:\"firstName\"`")
	wantFlat(t, src, "PetCount int32 `json:\"pet_total\"`")
}

func TestGenerateSkipField(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name: "Session",
		Fields: []typedef.Field{
			{Name: "Token", Type: mustRef(t, "string")},
			{Name: "Cache", Type: mustRef(t, "map[string]string"), Skip: true},
			{Name: "Scratch", Skip: true},
		},
		HasFields: true,
	})
	wantFlat(t, src, "Cache map[string]string `json:\"-\"`")
	if strings.Contains(src, "Scratch") {
		t.Errorf("typeless skipped field must not appear:\n%s", src)
	}
	if strings.Contains(src, `"Cache"`) {
		t.Errorf("skipped field must not reach the schema:\n%s", src)
	}
}

func TestGenerateFlattenField(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name: "Env",
		Fields: []typedef.Field{
			{Name: "Name", Type: mustRef(t, "string")},
			{Name: "Extras", Type: mustRef(t, "map[string]string"), Flatten: true},
		},
		HasFields: true,
	})
	wantFlat(t, src, "Extras map[string]string `json:\",inline\"`")
	wantFlat(t, src, "AdditionalProperties: oapi.Ptr(")
}

func TestGenerateSchemaWithField(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name: "Doc",
		Fields: []typedef.Field{
			{Name: "Blob", Type: mustRef(t, "bytes"), SchemaWith: "schemas.Blob"},
			{Name: "Free", SchemaWith: "schemas.Free"},
		},
		HasFields: true,
	})
	wantFlat(t, src, "Blob []byte `json:\"Blob\"`")
	wantFlat(t, src, "Free any `json:\"Free\"`")
	wantFlat(t, src, "schemas.Blob()")
}

func TestGenerateNewtype(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:        "UserID",
		Elements:    []typedef.Element{{Type: mustRef(t, "int64")}},
		HasElements: true,
	})
	wantFlat(t, src, "type UserID int64")
	if strings.Contains(src, "MarshalJSON") {
		t.Errorf("a defined type needs no custom encoding:\n%s", src)
	}
}

func TestGenerateNewtypePointerFallsBack(t *testing.T) {
	pet := &typedef.Definition{
		Name:      "Pet",
		Fields:    []typedef.Field{{Name: "Name", Type: mustRef(t, "string")}},
		HasFields: true,
	}
	src := generate(t, pet, &typedef.Definition{
		Name:        "MaybePet",
		Elements:    []typedef.Element{{Type: mustRef(t, "*Pet")}},
		HasElements: true,
	})
	// Pointer types cannot carry methods, so the tuple renders as a
	// transparent wrapper struct.
	wantFlat(t, src, "type MaybePet struct { F0 *Pet }")
	wantFlat(t, src, "func (v MaybePet) MarshalJSON() ([]byte, error) { return json.Marshal(v.F0) }")
	wantFlat(t, src, "func (v *MaybePet) UnmarshalJSON(data []byte) error { return json.Unmarshal(data, &v.F0) }")
}

func TestGenerateNewtypeOfUnionFallsBack(t *testing.T) {
	shape := &typedef.Definition{
		Name: "Shape",
		Tag:  "kind",
		Alternatives: []typedef.Alternative{
			{Name: "Circle", Fields: []typedef.Field{{Name: "Radius", Type: mustRef(t, "float64")}}, HasFields: true},
		},
		HasAlternatives: true,
	}
	src := generate(t, shape, &typedef.Definition{
		Name:        "Outline",
		Elements:    []typedef.Element{{Type: mustRef(t, "Shape")}},
		HasElements: true,
	})
	// A defined type would not inherit Shape's custom encoding.
	wantFlat(t, src, "type Outline struct { F0 Shape }")
}

func TestGenerateTupleStruct(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name: "Point",
		Elements: []typedef.Element{
			{Type: mustRef(t, "float64")},
			{Type: mustRef(t, "float64")},
		},
		HasElements: true,
	})
	wantFlat(t, src, "type Point struct { F0 float64 F1 float64 }")
	wantFlat(t, src, "return json.Marshal([]any{v.F0, v.F1})")
	wantFlat(t, src, "var parts [2]json.RawMessage")
	wantFlat(t, src, "if err := json.Unmarshal(parts[1], &v.F1); err != nil")
	if !strings.Contains(src, `json "github.com/goccy/go-json"`) {
		t.Errorf("tuple encoding needs the aliased json import:\n%s", src)
	}
}

func TestGenerateUnit(t *testing.T) {
	src := generate(t, &typedef.Definition{Name: "Ping"})
	wantFlat(t, src, "type Ping struct{}")
	wantFlat(t, src, "reg.Insert(symbol, oapi.Inline(oapi.Empty()))")
}

func TestGenerateEnum(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Color",
		RenameAll: "lowercase",
		Alternatives: []typedef.Alternative{
			{Name: "Red"},
			{Name: "Green"},
			{Name: "Blue", Rename: "navy"},
		},
		HasAlternatives: true,
	})
	wantFlat(t, src, "type Color string")
	wantFlat(t, src, `ColorRed Color = "red"`)
	wantFlat(t, src, `ColorBlue Color = "navy"`)
	if strings.Contains(src, "MarshalJSON") {
		t.Errorf("an enum encodes as its string value:\n%s", src)
	}
	wantFlat(t, src, `Enum: []any{"red", "green", "navy"}`)
}

func TestGenerateTaggedUnion(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Shape",
		Tag:       "kind",
		RenameAll: "snake_case",
		Alternatives: []typedef.Alternative{
			{Name: "Circle", Fields: []typedef.Field{{Name: "Radius", Type: mustRef(t, "float64")}}, HasFields: true},
			{Name: "Point"},
		},
		HasAlternatives: true,
	})
	wantFlat(t, src, "type Shape struct { Value isShape }")
	wantFlat(t, src, "type isShape interface { isShape() }")
	wantFlat(t, src, "type ShapeCircle struct { Radius float64 `json:\"Radius\"` }")
	wantFlat(t, src, "func (ShapeCircle) isShape() {}")
	wantFlat(t, src, "type ShapePoint struct{}")
	wantFlat(t, src, `case ShapeCircle: return oapi.MarshalTagged("kind", "circle", alt)`)
	wantFlat(t, src, `tag, err := oapi.TagValue(data, "kind")`)
	wantFlat(t, src, `case "point": v.Value = ShapePoint{}`)
	wantFlat(t, src, `default: return fmt.Errorf("unknown kind %q", tag)`)
	if !strings.Contains(src, "\"fmt\"") {
		t.Errorf("union encoding needs fmt:\n%s", src)
	}
	wantFlat(t, src, `PropertyName: "kind"`)
}

func TestGenerateUntaggedUnion(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name: "Value",
		Alternatives: []typedef.Alternative{
			{Name: "Text", Fields: []typedef.Field{{Name: "S", Type: mustRef(t, "string")}}, HasFields: true},
			{Name: "Number", Fields: []typedef.Field{{Name: "N", Type: mustRef(t, "float64")}}, HasFields: true},
		},
		HasAlternatives: true,
	})
	wantFlat(t, src, "if v.Value == nil")
	wantFlat(t, src, "return json.Marshal(v.Value)")
	wantFlat(t, src, "var alt0 ValueText")
	wantFlat(t, src, "var alt1 ValueNumber")
	wantFlat(t, src, `return fmt.Errorf("no alternative of Value matches")`)
}

func TestGenerateEmptyUnion(t *testing.T) {
	plan, col := planDefs(t, &typedef.Definition{Name: "Nothing", HasAlternatives: true})
	file, ok := Generate(plan, col)
	if !ok {
		t.Fatalf("generate failed:\n%s", col.FormatAll())
	}
	src := string(file.Source)
	wantFlat(t, src, `return nil, fmt.Errorf("Nothing holds no alternative")`)
	wantFlat(t, src, `return fmt.Errorf("no alternative of Nothing matches")`)
}

func TestGenerateGenericDecl(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Box",
		Params:    []typedef.Param{{Name: "T"}},
		Fields:    []typedef.Field{{Name: "Item", Type: mustRef(t, "T")}},
		HasFields: true,
	})
	wantFlat(t, src, "type Box[T oapi.Schemer] struct { Item T `json:\"Item\"` }")
	wantFlat(t, src, "func (v Box[T]) ToSchema(reg *oapi.Registry) oapi.RefOr {")
	wantFlat(t, src, "symbol := oapi.TypeNameOf[Box[T]]()")
	wantFlat(t, src, `"Item": (*new(T)).ToSchema(reg)`)
}

func TestGeneratePhantomParam(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Meta",
		Params:    []typedef.Param{{Name: "T"}, {Name: "U"}},
		Fields:    []typedef.Field{{Name: "Item", Type: mustRef(t, "T")}},
		HasFields: true,
	})
	wantFlat(t, src, "type Meta[T oapi.Schemer, U any] struct")
	wantFlat(t, src, "func (v Meta[T, U]) ToSchema")
}

func TestGenerateSplicedSymbol(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Pair",
		Symbol:    "Couple",
		Params:    []typedef.Param{{Name: "A"}, {Name: "B"}},
		Fields:    []typedef.Field{{Name: "Left", Type: mustRef(t, "A")}, {Name: "Right", Type: mustRef(t, "B")}},
		HasFields: true,
	})
	wantFlat(t, src, `symbol := oapi.SpliceSymbol[Pair[A, B]]("Couple")`)
}

func TestGenerateLiteralSymbol(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:   "Pet",
		Symbol: "shop::Pet",
	})
	wantFlat(t, src, `symbol := "shop.Pet"`)
}

func TestGenerateInlineDef(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:   "Secret",
		Inline: true,
		Fields: []typedef.Field{{Name: "Key", Type: mustRef(t, "string")}},

		HasFields: true,
	})
	wantFlat(t, src, "func (v Secret) ToSchema(reg *oapi.Registry) oapi.RefOr { return oapi.Inline(")
	if strings.Contains(src, "reg.Begin") {
		t.Errorf("inline definitions never register:\n%s", src)
	}
}

func TestGenerateFailedDefOmitted(t *testing.T) {
	plan, col := planDefs(t,
		&typedef.Definition{
			Name:      "Broken",
			Fields:    []typedef.Field{{Name: "X", Type: mustRef(t, "Missing")}},
			HasFields: true,
		},
		&typedef.Definition{Name: "Fine"},
	)
	if !col.HasErrors() {
		t.Fatal("the unknown reference must error")
	}
	file, ok := Generate(plan, col)
	if !ok {
		t.Fatalf("generate must still render survivors:\n%s", col.FormatAll())
	}
	src := string(file.Source)
	if strings.Contains(src, "Broken") {
		t.Errorf("failed definition must not reach the output:\n%s", src)
	}
	wantFlat(t, src, "type Fine struct{}")
}

func TestGenerateDeclCollision(t *testing.T) {
	plan, col := planDefs(t,
		&typedef.Definition{Name: "ShapeCircle"},
		&typedef.Definition{
			Name:            "Shape",
			Tag:             "kind",
			Alternatives:    []typedef.Alternative{{Name: "Circle", Fields: []typedef.Field{{Name: "R", Type: mustRef(t, "float64")}}, HasFields: true}},
			HasAlternatives: true,
		},
	)
	file, ok := Generate(plan, col)
	if !ok {
		t.Fatalf("generate failed:\n%s", col.FormatAll())
	}
	if !col.HasErrors() {
		t.Fatal("the synthesized variant name collides and must error")
	}
	src := string(file.Source)
	wantFlat(t, src, "type ShapeCircle struct{}")
	if strings.Contains(src, "isShape") {
		t.Errorf("colliding union must be skipped:\n%s", src)
	}
}

func TestGenerateTimeImport(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:      "Event",
		Fields:    []typedef.Field{{Name: "At", Type: mustRef(t, "time")}},
		HasFields: true,
	})
	if !strings.Contains(src, "\"time\"") {
		t.Errorf("missing time import:\n%s", src)
	}
	wantFlat(t, src, "At time.Time `json:\"At\"`")
}

func TestGenerateDeprecated(t *testing.T) {
	src := generate(t, &typedef.Definition{
		Name:        "Legacy",
		Description: "Kept for old clients.",
		Deprecated:  true,
	})
	wantFlat(t, src, "// Kept for old clients. // // Deprecated: marked deprecated in petstore.yaml.")
}

func TestGeneratedSourceParses(t *testing.T) {
	defs := []*typedef.Definition{
		{
			Name:      "Pet",
			Fields:    []typedef.Field{{Name: "Name", Type: mustRef(t, "string")}, {Name: "Friends", Type: mustRef(t, "[]Pet"), Optional: true}},
			HasFields: true,
		},
		{
			Name:        "Span",
			Elements:    []typedef.Element{{Type: mustRef(t, "int64")}, {Type: mustRef(t, "int64")}},
			HasElements: true,
		},
		{
			Name:   "Box",
			Params: []typedef.Param{{Name: "T"}},
			Fields: []typedef.Field{
				{Name: "Item", Type: mustRef(t, "T")},
				{Name: "All", Type: mustRef(t, "[]Box[T]"), Optional: true},
			},
			HasFields: true,
		},
		{
			Name: "Shape",
			Tag:  "kind",
			Alternatives: []typedef.Alternative{
				{Name: "Circle", Fields: []typedef.Field{{Name: "Radius", Type: mustRef(t, "float64")}}, HasFields: true},
				{Name: "Point"},
			},
			HasAlternatives: true,
		},
		{
			Name:            "Color",
			RenameAll:       "lowercase",
			Alternatives:    []typedef.Alternative{{Name: "Red"}, {Name: "Green"}},
			HasAlternatives: true,
		},
		{
			Name:        "Boxed",
			Elements:    []typedef.Element{{Type: mustRef(t, "Box[Pet]")}},
			HasElements: true,
		},
	}
	src := generate(t, defs...)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "petstore.gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	if f.Name.Name != "petstore" {
		t.Errorf("package = %q", f.Name.Name)
	}
}

func TestGeneratedFileName(t *testing.T) {
	tests := []struct {
		file, pkg, want string
	}{
		{"petstore.yaml", "petstore", "petstore.gen.go"},
		{"api/v1/shop.json", "shop", "shop.gen.go"},
		{"", "fallback", "fallback.gen.go"},
	}
	for _, tc := range tests {
		doc := &typedef.Document{Package: tc.pkg, File: tc.file}
		if got := GeneratedFileName(doc); got != tc.want {
			t.Errorf("GeneratedFileName(%q) = %q, want %q", tc.file, got, tc.want)
		}
	}
}

func TestManifest(t *testing.T) {
	plan, col := planDefs(t,
		&typedef.Definition{Name: "Pet"},
		&typedef.Definition{Name: "Hidden", Inline: true},
		&typedef.Definition{
			Name:      "Box",
			Params:    []typedef.Param{{Name: "T"}},
			Fields:    []typedef.Field{{Name: "Item", Type: mustRef(t, "T")}},
			HasFields: true,
		},
	)
	if col.HasErrors() {
		t.Fatalf("plan errors:\n%s", col.FormatAll())
	}

	m := NewManifest("0.3.0", "abc123")
	m.AddDocument(plan, "gen/petstore.gen.go", "gen", "example.com/petstore")

	pet := m.Schemas["Pet"]
	if pet.File != "./petstore.gen.go" {
		t.Errorf("File = %q", pet.File)
	}
	if pet.Method != "Pet.ToSchema" {
		t.Errorf("Method = %q", pet.Method)
	}
	if pet.Symbol != "example.com.petstore.Pet" {
		t.Errorf("Symbol = %q", pet.Symbol)
	}
	if m.Schemas["Box"].Symbol != "" {
		t.Errorf("a generic definition's symbol is runtime-computed, got %q", m.Schemas["Box"].Symbol)
	}
	if m.Schemas["Hidden"].Symbol != "" {
		t.Errorf("an inline definition has no symbol, got %q", m.Schemas["Hidden"].Symbol)
	}

	data, err := ManifestJSON(m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version": "0.3.0"`) {
		t.Errorf("manifest JSON missing version:\n%s", data)
	}
}
