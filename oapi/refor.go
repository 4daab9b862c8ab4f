package oapi

import (
	json "github.com/goccy/go-json"
)

// ComponentsPrefix is the reference prefix every registered schema is
// addressed under.
const ComponentsPrefix = "#/components/schemas/"

// RefOr holds either a reference to a registered schema or an inline
// schema value, never both.
type RefOr struct {
	Ref    string
	Schema *Schema
}

// SchemaRef returns a reference to the schema registered under symbol.
func SchemaRef(symbol string) RefOr {
	return RefOr{Ref: ComponentsPrefix + symbol}
}

// Inline wraps a schema as an inline value.
func Inline(s *Schema) RefOr {
	return RefOr{Schema: s}
}

// IsRef reports whether r is a reference.
func (r RefOr) IsRef() bool {
	return r.Ref != ""
}

// MarshalJSON implements json.Marshaler. References render as
// {"$ref": "..."}; inline values render as the schema object. An empty
// RefOr renders as the empty schema.
func (r RefOr) MarshalJSON() ([]byte, error) {
	if r.Ref != "" {
		return json.Marshal(struct {
			Ref string `json:"$ref"`
		}{r.Ref})
	}
	if r.Schema != nil {
		return json.Marshal(r.Schema)
	}
	return []byte("{}"), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting either form.
func (r *RefOr) UnmarshalJSON(data []byte) error {
	var probe struct {
		Ref string `json:"$ref"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Ref != "" {
		r.Ref = probe.Ref
		r.Schema = nil
		return nil
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.Ref = ""
	r.Schema = &s
	return nil
}
