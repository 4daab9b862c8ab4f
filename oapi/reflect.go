package oapi

import (
	"reflect"
	"strings"
	"time"
)

// Schemer is implemented by types that can build and register their own
// schema. oapigen-generated types implement it.
type Schemer interface {
	ToSchema(reg *Registry) RefOr
}

var (
	schemerType = reflect.TypeOf((*Schemer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// SchemaOf derives a schema for T. Types implementing Schemer delegate to
// their own ToSchema; everything else derives structurally by reflection.
func SchemaOf[T any](reg *Registry) RefOr {
	return reflectSchema(reflect.TypeOf((*T)(nil)).Elem(), reg)
}

func reflectSchema(t reflect.Type, reg *Registry) RefOr {
	if t == nil {
		return Inline(Empty())
	}

	// Self-describing types build themselves. Pointers are unwrapped
	// first so a nil receiver never reaches a value method.
	if t.Kind() != reflect.Pointer {
		if t.Implements(schemerType) {
			return reflect.New(t).Elem().Interface().(Schemer).ToSchema(reg)
		}
		if reflect.PointerTo(t).Implements(schemerType) {
			return reflect.New(t).Interface().(Schemer).ToSchema(reg)
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		return Inline(&Schema{Type: "boolean"})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uintptr:
		return Inline(&Schema{Type: "integer"})
	case reflect.Int32, reflect.Uint32:
		return Inline(&Schema{Type: "integer", Format: "int32"})
	case reflect.Int64, reflect.Uint64:
		return Inline(&Schema{Type: "integer", Format: "int64"})
	case reflect.Float32:
		return Inline(&Schema{Type: "number", Format: "float"})
	case reflect.Float64:
		return Inline(&Schema{Type: "number", Format: "double"})
	case reflect.String:
		return Inline(&Schema{Type: "string"})
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Inline(&Schema{Type: "string", Format: "byte"})
		}
		item := reflectSchema(t.Elem(), reg)
		return Inline(&Schema{Type: "array", Items: &item})
	case reflect.Map:
		value := reflectSchema(t.Elem(), reg)
		return Inline(&Schema{Type: "object", AdditionalProperties: &value})
	case reflect.Pointer:
		return Nullable(reflectSchema(t.Elem(), reg))
	case reflect.Struct:
		if t == timeType {
			return Inline(&Schema{Type: "string", Format: "date-time"})
		}
		return Inline(structSchema(t, reg))
	default:
		return Inline(Empty())
	}
}

// structSchema derives an object schema from exported struct fields,
// honoring encoding/json tag conventions: tag names rename, "-" skips,
// omitempty and omitzero mark the property optional, and untagged
// embedded structs flatten.
func structSchema(t reflect.Type, reg *Registry) *Schema {
	s := &Schema{Type: "object", Properties: make(map[string]RefOr)}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts := parseJSONTag(f.Tag.Get("json"))
		if name == "-" {
			continue
		}

		if f.Anonymous && name == "" {
			et := f.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && et != timeType {
				embedded := structSchema(et, reg)
				for k, v := range embedded.Properties {
					s.Properties[k] = v
				}
				required = append(required, embedded.Required...)
				continue
			}
		}

		if name == "" {
			name = f.Name
		}
		if opts.asString {
			s.Properties[name] = Inline(&Schema{Type: "string"})
		} else {
			s.Properties[name] = reflectSchema(f.Type, reg)
		}
		if !opts.omitempty && !opts.omitzero {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		s.Required = required
	}
	return s
}

type tagOptions struct {
	omitempty bool
	omitzero  bool
	asString  bool
}

func parseJSONTag(tag string) (string, tagOptions) {
	if tag == "" {
		return "", tagOptions{}
	}
	parts := strings.Split(tag, ",")
	var opts tagOptions
	for _, p := range parts[1:] {
		switch p {
		case "omitempty":
			opts.omitempty = true
		case "omitzero":
			opts.omitzero = true
		case "string":
			opts.asString = true
		}
	}
	return parts[0], opts
}

// rawTypeName returns the import path and type name of t joined with a
// dot. Generic arguments stay exactly as the runtime renders them.
func rawTypeName(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	if pkg := t.PkgPath(); pkg != "" {
		return pkg + "." + t.Name()
	}
	return t.Name()
}

// TypeNameOf returns the default registration symbol for T: the full
// runtime type name with path separators normalized to dots.
func TypeNameOf[T any]() string {
	return strings.ReplaceAll(rawTypeName(reflect.TypeOf((*T)(nil)).Elem()), "/", ".")
}

// SpliceSymbol combines a symbol override with the runtime generic
// arguments of T: the argument suffix of the runtime name is appended to
// the override. A runtime name without an argument suffix wins over the
// override unchanged.
func SpliceSymbol[T any](override string) string {
	full := rawTypeName(reflect.TypeOf((*T)(nil)).Elem())
	if i := strings.IndexByte(full, '['); i >= 0 {
		return override + full[i:]
	}
	return full
}
