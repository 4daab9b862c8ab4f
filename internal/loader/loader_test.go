package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

func parseDoc(t *testing.T, src string) (*typedef.Document, *diagnostic.Collector) {
	t.Helper()
	col := diagnostic.NewCollector(false, false)
	doc, err := Parse([]byte(src), "test.yaml", col)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, col.FormatAll())
	}
	return doc, col
}

func TestParseDocument(t *testing.T) {
	doc, col := parseDoc(t, `
package: petstore
types:
  - name: Pet
    shape: record
    description: A pet.
    rename_all: camelCase
    fields:
      - name: ID
        type: int64
        rename: id
      - name: Tags
        type: '[]string'
        optional: true
  - name: UserID
    elements: [int64]
  - name: Status
    shape: union
    alternatives:
      - name: Active
      - name: Retired
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	if doc.Package != "petstore" {
		t.Errorf("package = %q", doc.Package)
	}
	if len(doc.Types) != 3 {
		t.Fatalf("types = %d", len(doc.Types))
	}

	pet := doc.Types[0]
	if pet.Name != "Pet" || pet.Shape != typedef.ShapeRecord || !pet.HasFields {
		t.Errorf("pet = %+v", pet)
	}
	if pet.Pos.Line == 0 {
		t.Error("definition position missing")
	}
	if pet.RenameAll != "camelCase" || pet.Description != "A pet." {
		t.Errorf("pet metadata = %+v", pet)
	}
	if len(pet.Fields) != 2 {
		t.Fatalf("pet fields = %+v", pet.Fields)
	}
	id := pet.Fields[0]
	if id.Name != "ID" || id.Rename != "id" || id.Type.Name != "int64" {
		t.Errorf("id field = %+v", id)
	}
	if id.Pos.Line == 0 {
		t.Error("field position missing")
	}
	tags := pet.Fields[1]
	if !tags.Optional || tags.Type.Kind != typedef.RefSlice {
		t.Errorf("tags field = %+v", tags)
	}

	newtype := doc.Types[1]
	if !newtype.HasElements || len(newtype.Elements) != 1 {
		t.Fatalf("newtype = %+v", newtype)
	}
	if newtype.Elements[0].Type.Name != "int64" {
		t.Errorf("element = %+v", newtype.Elements[0])
	}

	status := doc.Types[2]
	if !status.HasAlternatives || len(status.Alternatives) != 2 {
		t.Fatalf("union = %+v", status)
	}
}

func TestParsePreservesFieldOrder(t *testing.T) {
	doc, _ := parseDoc(t, `
package: p
types:
  - name: T
    fields:
      - {name: B, type: string}
      - {name: A, type: string}
      - {name: C, type: string}
`)
	var got []string
	for _, f := range doc.Types[0].Fields {
		got = append(got, f.Name)
	}
	if strings.Join(got, "") != "BAC" {
		t.Errorf("field order = %v", got)
	}
}

func TestParseEmptyFieldList(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Empty
    fields: []
  - name: Bare
    fields:
  - name: Nothing
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	for _, i := range []int{0, 1} {
		def := doc.Types[i]
		if !def.HasFields || len(def.Fields) != 0 {
			t.Errorf("%s: HasFields=%v fields=%v", def.Name, def.HasFields, def.Fields)
		}
	}
	if doc.Types[2].HasFields {
		t.Error("a definition without fields: must stay a unit")
	}
}

func TestParseGenericDefinition(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Pair
    skip_bound: true
    params:
      - {name: A}
      - {name: B, default: int32}
    fields:
      - {name: First, type: A}
      - {name: Second, type: B}
  - name: Boxes
    params: [T]
    fields:
      - {name: Items, type: '[]Box[T]'}
  - name: Box
    params: [T]
    fields:
      - {name: Item, type: T}
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	pair := doc.Types[0]
	if !pair.SkipBound || len(pair.Params) != 2 || pair.Params[1].Default != "int32" {
		t.Errorf("pair = %+v", pair)
	}
	boxes := doc.Types[1]
	if len(boxes.Params) != 1 || boxes.Params[0].Name != "T" {
		t.Errorf("shorthand params = %+v", boxes.Params)
	}
	ref := boxes.Fields[0].Type
	if ref.Kind != typedef.RefSlice || ref.Elem.Kind != typedef.RefInstance {
		t.Errorf("instance ref = %+v", ref)
	}
}

func TestParseConstraints(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: User
    fields:
      - name: Login
        type: string
        constraints:
          pattern: '^[a-z]+$'
          min_length: 1
          max_length: 30
      - name: Score
        type: float64
        constraints:
          minimum: 0
          exclusive_maximum: 100.5
          multiple_of: 0.5
          example: 42.5
      - name: Kind
        type: string
        constraints:
          enum: [basic, pro]
          default: basic
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	fields := doc.Types[0].Fields
	c := fields[0].Constraints
	if c == nil || *c.Pattern != "^[a-z]+$" || *c.MinLength != 1 || *c.MaxLength != 30 {
		t.Errorf("login constraints = %+v", c)
	}
	c = fields[1].Constraints
	if c == nil || *c.Minimum != 0 || *c.ExclusiveMaximum != 100.5 || *c.MultipleOf != 0.5 {
		t.Errorf("score constraints = %+v", c)
	}
	if c.Example != 42.5 {
		t.Errorf("example = %v", c.Example)
	}
	c = fields[2].Constraints
	if len(c.Enum) != 2 || c.Enum[0] != "basic" || c.Default != "basic" {
		t.Errorf("kind constraints = %+v", c)
	}
}

func TestParseXML(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Item
    xml: {name: item, wrapped: true}
    fields:
      - name: Value
        type: string
        xml: {attribute: true}
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	def := doc.Types[0]
	if def.XML == nil || def.XML.Name != "item" || !def.XML.Wrapped {
		t.Errorf("definition xml = %+v", def.XML)
	}
	if def.Fields[0].XML == nil || !def.Fields[0].XML.Attribute {
		t.Errorf("field xml = %+v", def.Fields[0].XML)
	}
}

func TestParseDuplicateDefinition(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Pet
    fields: [{name: A, type: string}]
  - name: Pet
    fields: [{name: B, type: string}]
`)
	if !col.HasErrors() {
		t.Fatal("duplicate definitions must error")
	}
	if len(doc.Types) != 2 {
		t.Errorf("both occurrences stay in the document, got %d", len(doc.Types))
	}
	found := false
	for _, d := range col.Diagnostics() {
		if strings.Contains(d.Message, "duplicate definition") && d.Line > 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostic must carry the second occurrence's position:\n%s", col.FormatAll())
	}
}

func TestParseBadTypeReference(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Broken
    fields:
      - {name: M, type: 'map[int]string'}
  - name: Fine
    fields:
      - {name: A, type: string}
`)
	if !col.HasErrors() {
		t.Fatal("a bad type reference must error")
	}
	if !doc.Types[0].LoadFailed {
		t.Error("the broken definition must be marked")
	}
	if doc.Types[1].LoadFailed {
		t.Error("other definitions are unaffected")
	}
}

func TestParseFieldValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing name", `{type: string}`},
		{"missing type", `{name: A}`},
		{"unexported name", `{name: a, type: string}`},
		{"duplicate names", `{name: A, type: string}, {name: A, type: int32}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, col := parseDoc(t, `
package: p
types:
  - name: T
    fields: [`+tc.src+`]
`)
			if !col.HasErrors() {
				t.Fatal("must error")
			}
			if !doc.Types[0].LoadFailed {
				t.Error("definition must be marked")
			}
		})
	}
}

func TestParseSkipFieldNeedsNoType(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: T
    fields:
      - {name: Internal, skip: true}
      - {name: A, type: string}
`)
	if col.HasErrors() {
		t.Fatalf("a skipped field needs no type:\n%s", col.FormatAll())
	}
	if doc.Types[0].LoadFailed {
		t.Error("definition must load")
	}
}

func TestParseSchemaWithKeepsDeclaredType(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: T
    fields:
      - {name: Blob, type: bytes, schema_with: schemas.Blob}
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	f := doc.Types[0].Fields[0]
	if f.SchemaWith != "schemas.Blob" {
		t.Errorf("SchemaWith = %q", f.SchemaWith)
	}
	if f.Type == nil || f.Type.Name != "bytes" {
		t.Errorf("declared type must survive alongside schema_with, got %+v", f.Type)
	}
}

func TestParseAlternativeShapes(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Shape
    tag: kind
    alternatives:
      - name: Circle
        shape: record
        fields: [{name: Radius, type: float64}]
      - name: Point
        shape: unit
`)
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	alts := doc.Types[0].Alternatives
	if !alts[0].HasFields || alts[1].HasFields || alts[1].HasElements {
		t.Errorf("alternatives = %+v", alts)
	}
}

func TestParseAlternativeShapeMismatch(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Shape
    alternatives:
      - name: Circle
        shape: record
        elements: [float64]
`)
	if !col.HasErrors() {
		t.Fatal("shape/body mismatch must error")
	}
	if !doc.Types[0].LoadFailed {
		t.Error("definition must be marked")
	}
}

func TestParseNestedUnionRejected(t *testing.T) {
	doc, col := parseDoc(t, `
package: p
types:
  - name: Outer
    alternatives:
      - name: Inner
        alternatives:
          - name: Deep
`)
	if !col.HasErrors() {
		t.Fatal("nested alternatives must error")
	}
	if !doc.Types[0].LoadFailed {
		t.Error("definition must be marked")
	}
}

func TestParseUnknownKeysWarn(t *testing.T) {
	_, col := parseDoc(t, `
package: p
flavor: spicy
types:
  - name: T
    color: blue
    fields:
      - {name: A, type: string, sparkle: true}
`)
	if col.HasErrors() {
		t.Fatalf("unknown keys warn, not error:\n%s", col.FormatAll())
	}
	if col.WarningCount() != 3 {
		t.Errorf("want 3 warnings, got:\n%s", col.FormatAll())
	}
}

func TestParseFatalErrors(t *testing.T) {
	col := diagnostic.NewCollector(false, false)
	for _, src := range []string{
		`- just\n- a list`,
		`types: [{name: T}]`,
		"package: 0bad\ntypes: []",
		`package: [p]`,
	} {
		if _, err := Parse([]byte(src), "test.yaml", col); err == nil {
			t.Errorf("Parse(%q) must fail", src)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	src := `{
  "package": "petstore",
  "types": [
    {
      "name": "Pet",
      "fields": [
        {"name": "ID", "type": "int64", "constraints": {"min_length": 3}},
        {"name": "Name", "type": "string"}
      ]
    }
  ]
}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	col := diagnostic.NewCollector(false, false)
	doc, err := Load(path, col)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if col.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", col.FormatAll())
	}
	if doc.Package != "petstore" || len(doc.Types) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	fields := doc.Types[0].Fields
	if len(fields) != 2 || fields[0].Name != "ID" {
		t.Fatalf("fields = %+v", fields)
	}
	if c := fields[0].Constraints; c == nil || c.MinLength == nil || *c.MinLength != 3 {
		t.Errorf("JSON integers must survive: %+v", fields[0].Constraints)
	}
}

func TestLoadMissingFile(t *testing.T) {
	col := diagnostic.NewCollector(false, false)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), col); err == nil {
		t.Fatal("Load must fail on a missing file")
	}
}
