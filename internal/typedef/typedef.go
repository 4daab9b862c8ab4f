// Package typedef defines the normalized type definition model used throughout
// oapigen. Loaders produce it from IDL documents; the derive pipeline consumes
// it to plan shapes, symbols, bounds, and schema construction.
package typedef

// Position locates a node in the source document. Zero values mean unknown.
type Position struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// Document is one parsed IDL file.
type Document struct {
	// Package is the Go package name for the generated file.
	Package string `json:"package"`

	// File is the source path, carried into diagnostics.
	File string `json:"file,omitempty"`

	// Types holds the definitions in source order.
	Types []*Definition `json:"types"`
}

// Shape classifies a definition's structure.
type Shape string

const (
	ShapeRecord Shape = "record" // named fields
	ShapeTuple  Shape = "tuple"  // positional elements
	ShapeUnit   Shape = "unit"   // no fields at all
	ShapeUnion  Shape = "union"  // closed set of alternatives
)

// Definition is one named type in a document.
type Definition struct {
	// Name is the exported Go type name.
	Name string `json:"name"`

	// Shape is the declared shape, if the author wrote one. Classification
	// infers the shape from the body and cross-checks this when present.
	Shape Shape `json:"shape,omitempty"`

	Description string `json:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// Inline suppresses registration: the schema is constructed in place
	// wherever the type is referenced.
	Inline bool `json:"inline,omitempty"`

	// Symbol overrides the registration name.
	Symbol string `json:"symbol,omitempty"`

	// SkipBound disables constraint planning for generic parameters.
	SkipBound bool `json:"skip_bound,omitempty"`

	// Bound is a verbatim type-parameter constraint list replacing the
	// planned one (e.g. "T oapi.Schemer, U comparable").
	Bound string `json:"bound,omitempty"`

	// RenameAll is the naming policy applied to fields or alternatives.
	RenameAll string `json:"rename_all,omitempty"`

	// Tag names the discriminator property for internally tagged unions.
	Tag string `json:"tag,omitempty"`

	// XML carries OpenAPI XML object metadata for the schema.
	XML *XML `json:"xml,omitempty"`

	// Params holds generic parameters in declaration order.
	Params []Param `json:"params,omitempty"`

	// Fields holds named members. Only meaningful for record shapes.
	Fields []Field `json:"fields,omitempty"`

	// Elements holds positional members. Only meaningful for tuple shapes.
	Elements []Element `json:"elements,omitempty"`

	// Alternatives holds union members. Only meaningful for union shapes.
	Alternatives []Alternative `json:"alternatives,omitempty"`

	// HasFields, HasElements, and HasAlternatives record which body keys
	// appeared in the source, including empty ones. An empty field list is
	// an empty record, which is not the same as no field list (a unit), so
	// presence is tracked independently of slice length.
	HasFields       bool `json:"-"`
	HasElements     bool `json:"-"`
	HasAlternatives bool `json:"-"`

	// LoadFailed marks a definition whose body did not survive loading.
	// It keeps its name so references to it fail with an accurate
	// diagnostic instead of "unknown type".
	LoadFailed bool `json:"-"`

	Pos Position `json:"-"`
}

// Param is a generic parameter declared on a definition.
type Param struct {
	Name string `json:"name"`

	// Default is the declared default type argument. The generated
	// declaration grammar has no defaults, so planning strips it.
	Default string `json:"default,omitempty"`

	Pos Position `json:"-"`
}

// Field is a named member of a record definition.
type Field struct {
	Name string `json:"name"`

	// Type is the parsed type reference. May be nil when SchemaWith
	// supplies the schema; the generated declaration then falls back to
	// any.
	Type *TypeRef `json:"type,omitempty"`

	// Rename overrides the encoded property name, taking precedence over
	// the definition's RenameAll policy.
	Rename string `json:"rename,omitempty"`

	// Optional excludes the property from the required list.
	Optional bool `json:"optional,omitempty"`

	// Skip drops the field from the schema entirely.
	Skip bool `json:"skip,omitempty"`

	// Flatten folds a map-typed field into additionalProperties instead of
	// a named property.
	Flatten bool `json:"flatten,omitempty"`

	// SchemaWith is a Go expression of type func() oapi.RefOr called
	// instead of deriving the field's schema.
	SchemaWith string `json:"schema_with,omitempty"`

	Description string       `json:"description,omitempty"`
	Deprecated  bool         `json:"deprecated,omitempty"`
	Nullable    bool         `json:"nullable,omitempty"`
	XML         *XML         `json:"xml,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`

	Pos Position `json:"-"`
}

// Element is a positional member of a tuple definition.
type Element struct {
	Type        *TypeRef     `json:"type"`
	Description string       `json:"description,omitempty"`
	Nullable    bool         `json:"nullable,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`

	Pos Position `json:"-"`
}

// Alternative is one member of a union definition. Its body follows the
// same record/tuple/unit structure as a definition, minus nesting of
// further unions.
type Alternative struct {
	Name string `json:"name"`

	// Rename overrides the encoded alternative name.
	Rename string `json:"rename,omitempty"`

	Description string `json:"description,omitempty"`

	Fields   []Field   `json:"fields,omitempty"`
	Elements []Element `json:"elements,omitempty"`

	HasFields   bool `json:"-"`
	HasElements bool `json:"-"`

	Pos Position `json:"-"`
}

// Constraints holds schema-facing validation keywords attached to a field
// or element. Pointer fields distinguish "absent" from zero values.
type Constraints struct {
	Format  *string `json:"format,omitempty"`
	Pattern *string `json:"pattern,omitempty"`
	Enum    []any   `json:"enum,omitempty"`

	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusive_minimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusive_maximum,omitempty"`
	MultipleOf       *float64 `json:"multiple_of,omitempty"`

	MinLength *int `json:"min_length,omitempty"`
	MaxLength *int `json:"max_length,omitempty"`

	MinItems    *int  `json:"min_items,omitempty"`
	MaxItems    *int  `json:"max_items,omitempty"`
	UniqueItems *bool `json:"unique_items,omitempty"`

	Example any `json:"example,omitempty"`
	Default any `json:"default,omitempty"`
}

// XML mirrors the OpenAPI XML object for schema annotation.
type XML struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Attribute bool   `json:"attribute,omitempty"`
	Wrapped   bool   `json:"wrapped,omitempty"`
}

// Index tracks definitions by name for reference resolution.
type Index struct {
	Defs map[string]*Definition
}

// NewIndex creates an empty definition index.
func NewIndex() *Index {
	return &Index{Defs: make(map[string]*Definition)}
}

// Register adds a definition to the index.
func (i *Index) Register(name string, def *Definition) {
	i.Defs[name] = def
}

// Has checks if a definition name is already registered.
func (i *Index) Has(name string) bool {
	_, ok := i.Defs[name]
	return ok
}

// Get returns the definition registered under name, or nil.
func (i *Index) Get(name string) *Definition {
	return i.Defs[name]
}

// ParamNames returns the definition's generic parameter names in order.
func (d *Definition) ParamNames() []string {
	if len(d.Params) == 0 {
		return nil
	}
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}

// IsGeneric reports whether the definition declares type parameters.
func (d *Definition) IsGeneric() bool {
	return len(d.Params) > 0
}
