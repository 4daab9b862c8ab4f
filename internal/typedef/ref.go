package typedef

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// RefKind classifies a parsed type reference.
type RefKind string

const (
	RefPrimitive RefKind = "primitive" // int32, string, bool, ...
	RefNamed     RefKind = "named"     // definition name or generic parameter
	RefSlice     RefKind = "slice"     // []T
	RefMap       RefKind = "map"       // map[string]T
	RefPointer   RefKind = "pointer"   // *T, nullable
	RefInstance  RefKind = "instance"  // Name[A, B]
)

// TypeRef is a parsed type reference from the IDL.
type TypeRef struct {
	Kind RefKind `json:"kind"`

	// Name is set for primitive, named, and instance references.
	Name string `json:"name,omitempty"`

	// Elem is the pointee, slice element, or map value.
	Elem *TypeRef `json:"elem,omitempty"`

	// Args holds generic arguments for instance references.
	Args []*TypeRef `json:"args,omitempty"`
}

// PrimitiveInfo describes how an IDL primitive renders in schemas and in
// generated Go source.
type PrimitiveInfo struct {
	SchemaType string // JSON Schema type keyword
	Format     string // OpenAPI format, if any
	GoType     string // Go source rendering
	GoImport   string // import path required by GoType, if any
}

var primitives = map[string]PrimitiveInfo{
	"string":  {SchemaType: "string", GoType: "string"},
	"bool":    {SchemaType: "boolean", GoType: "bool"},
	"int":     {SchemaType: "integer", GoType: "int"},
	"int32":   {SchemaType: "integer", Format: "int32", GoType: "int32"},
	"int64":   {SchemaType: "integer", Format: "int64", GoType: "int64"},
	"float32": {SchemaType: "number", Format: "float", GoType: "float32"},
	"float64": {SchemaType: "number", Format: "double", GoType: "float64"},
	"bytes":   {SchemaType: "string", Format: "byte", GoType: "[]byte"},
	"time":    {SchemaType: "string", Format: "date-time", GoType: "time.Time", GoImport: "time"},
}

// Primitive returns the rendering info for an IDL primitive name.
func Primitive(name string) (PrimitiveInfo, bool) {
	info, ok := primitives[name]
	return info, ok
}

// ParseRef parses an IDL type reference like "int64", "[]string",
// "map[string]Pet", "*Pet", or "Pair[int32, string]".
func ParseRef(s string) (*TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty type reference")
	}

	switch {
	case strings.HasPrefix(s, "*"):
		elem, err := ParseRef(s[1:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: RefPointer, Elem: elem}, nil

	case strings.HasPrefix(s, "[]"):
		elem, err := ParseRef(s[2:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: RefSlice, Elem: elem}, nil

	case strings.HasPrefix(s, "map["):
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated map key in %q", s)
		}
		key := strings.TrimSpace(s[4:end])
		if key != "string" {
			return nil, fmt.Errorf("map key type must be string, got %q", key)
		}
		elem, err := ParseRef(s[end+1:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: RefMap, Elem: elem}, nil
	}

	if open := strings.IndexByte(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unbalanced brackets in %q", s)
		}
		name := strings.TrimSpace(s[:open])
		if err := checkIdent(name); err != nil {
			return nil, err
		}
		parts, err := splitTopLevel(s[open+1 : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("in %q: %w", s, err)
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("empty argument list in %q", s)
		}
		args := make([]*TypeRef, len(parts))
		for i, part := range parts {
			arg, err := ParseRef(part)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &TypeRef{Kind: RefInstance, Name: name, Args: args}, nil
	}

	if err := checkIdent(s); err != nil {
		return nil, err
	}
	if _, ok := primitives[s]; ok {
		return &TypeRef{Kind: RefPrimitive, Name: s}, nil
	}
	return &TypeRef{Kind: RefNamed, Name: s}, nil
}

// splitTopLevel splits a comma-separated list, ignoring commas nested
// inside brackets.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in %q", s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", s)
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, s[start:])
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, fmt.Errorf("empty element in argument list %q", s)
		}
	}
	return parts, nil
}

func checkIdent(s string) error {
	if s == "" {
		return errors.New("empty identifier")
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return fmt.Errorf("invalid identifier %q", s)
	}
	return nil
}

// String renders the reference in canonical IDL form.
func (r *TypeRef) String() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case RefPointer:
		return "*" + r.Elem.String()
	case RefSlice:
		return "[]" + r.Elem.String()
	case RefMap:
		return "map[string]" + r.Elem.String()
	case RefInstance:
		args := make([]string, len(r.Args))
		for i, a := range r.Args {
			args[i] = a.String()
		}
		return r.Name + "[" + strings.Join(args, ", ") + "]"
	default:
		return r.Name
	}
}

// Mentions reports whether name appears anywhere in the reference tree as
// a named reference or instance head.
func (r *TypeRef) Mentions(name string) bool {
	if r == nil {
		return false
	}
	if (r.Kind == RefNamed || r.Kind == RefInstance) && r.Name == name {
		return true
	}
	if r.Elem.Mentions(name) {
		return true
	}
	for _, a := range r.Args {
		if a.Mentions(name) {
			return true
		}
	}
	return false
}

// NamedRefs appends every named reference and instance head in the tree
// to dst and returns it.
func (r *TypeRef) NamedRefs(dst []string) []string {
	if r == nil {
		return dst
	}
	if r.Kind == RefNamed || r.Kind == RefInstance {
		dst = append(dst, r.Name)
	}
	dst = r.Elem.NamedRefs(dst)
	for _, a := range r.Args {
		dst = a.NamedRefs(dst)
	}
	return dst
}
