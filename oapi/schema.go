// Package oapi is the runtime library for oapigen-generated code: the
// schema model, the component registry, and the reflection helpers that
// generated ToSchema methods call into.
package oapi

// Schema is a JSON Schema object in the OpenAPI 3.1 dialect.
type Schema struct {
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	Properties           map[string]RefOr `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *RefOr           `json:"additionalProperties,omitempty"`

	Items       *RefOr  `json:"items,omitempty"`
	PrefixItems []RefOr `json:"prefixItems,omitempty"`

	Enum  []any `json:"enum,omitempty"`
	Const any   `json:"const,omitempty"`

	OneOf []RefOr `json:"oneOf,omitempty"`
	AnyOf []RefOr `json:"anyOf,omitempty"`
	AllOf []RefOr `json:"allOf,omitempty"`
	Not   *RefOr  `json:"not,omitempty"`

	Discriminator *Discriminator `json:"discriminator,omitempty"`
	XML           *XML           `json:"xml,omitempty"`

	// Validation constraints
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`
	MinLength        *int     `json:"minLength,omitempty"`
	MaxLength        *int     `json:"maxLength,omitempty"`
	Pattern          string   `json:"pattern,omitempty"`
	MinItems         *int     `json:"minItems,omitempty"`
	MaxItems         *int     `json:"maxItems,omitempty"`
	UniqueItems      *bool    `json:"uniqueItems,omitempty"`

	Example any `json:"example,omitempty"`
	Default any `json:"default,omitempty"`
}

// Discriminator is an OpenAPI discriminator object for tagged unions.
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}

// XML is the OpenAPI XML object, controlling how a schema renders as XML.
type XML struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Attribute bool   `json:"attribute,omitempty"`
	Wrapped   bool   `json:"wrapped,omitempty"`
}

// Empty returns the schema that accepts any value.
func Empty() *Schema {
	return &Schema{}
}

// Nullable widens v to also accept null.
func Nullable(v RefOr) RefOr {
	return RefOr{Schema: &Schema{AnyOf: []RefOr{v, {Schema: &Schema{Type: "null"}}}}}
}

// Never returns the schema that no value satisfies.
func Never() *Schema {
	return &Schema{Not: Ptr(Inline(Empty()))}
}

// Ptr returns a pointer to v. Generated code uses it for optional
// constraint fields.
func Ptr[T any](v T) *T {
	return &v
}
