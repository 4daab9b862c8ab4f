package derive

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

// maxLiteralWidth is the width beyond which a schema literal breaks
// across lines.
const maxLiteralWidth = 100

func tabs(n int) string {
	return strings.Repeat("\t", n)
}

// renderLiteral joins "Key: value" parts into an &oapi.Schema{...}
// literal, breaking across lines when any part is multi-line or the
// whole literal grows long. depth is the indent the literal starts at.
func renderLiteral(depth int, parts []string) string {
	if len(parts) == 0 {
		return "&oapi.Schema{}"
	}
	oneLine := "&oapi.Schema{" + strings.Join(parts, ", ") + "}"
	if len(oneLine) <= maxLiteralWidth && !strings.Contains(oneLine, "\n") {
		return oneLine
	}
	var sb strings.Builder
	sb.WriteString("&oapi.Schema{\n")
	for _, p := range parts {
		sb.WriteString(tabs(depth + 1))
		sb.WriteString(p)
		sb.WriteString(",\n")
	}
	sb.WriteString(tabs(depth))
	sb.WriteString("}")
	return sb.String()
}

// renderLeaf renders a schema carrying only scalar keywords.
func renderLeaf(s *oapi.Schema, depth int) string {
	parts := headParts(s)
	if s.Enum != nil {
		parts = append(parts, "Enum: "+renderGoValue(s.Enum))
	}
	if s.Const != nil {
		parts = append(parts, "Const: "+renderGoValue(s.Const))
	}
	parts = append(parts, tailParts(s)...)
	return renderLiteral(depth, parts)
}

// headParts renders the leading scalar fields of a schema literal.
func headParts(s *oapi.Schema) []string {
	var parts []string
	if s.Type != "" {
		parts = append(parts, "Type: "+strconv.Quote(s.Type))
	}
	if s.Format != "" {
		parts = append(parts, "Format: "+strconv.Quote(s.Format))
	}
	if s.Description != "" {
		parts = append(parts, "Description: "+strconv.Quote(s.Description))
	}
	if s.Deprecated {
		parts = append(parts, "Deprecated: true")
	}
	return parts
}

// tailParts renders the trailing constraint and annotation fields.
func tailParts(s *oapi.Schema) []string {
	var parts []string
	addFloat := func(k string, v *float64) {
		if v != nil {
			parts = append(parts, k+": oapi.Ptr("+formatFloatLiteral(*v)+")")
		}
	}
	addInt := func(k string, v *int) {
		if v != nil {
			parts = append(parts, k+": oapi.Ptr("+strconv.Itoa(*v)+")")
		}
	}
	addFloat("Minimum", s.Minimum)
	addFloat("Maximum", s.Maximum)
	addFloat("ExclusiveMinimum", s.ExclusiveMinimum)
	addFloat("ExclusiveMaximum", s.ExclusiveMaximum)
	addFloat("MultipleOf", s.MultipleOf)
	addInt("MinLength", s.MinLength)
	addInt("MaxLength", s.MaxLength)
	if s.Pattern != "" {
		parts = append(parts, "Pattern: "+strconv.Quote(s.Pattern))
	}
	addInt("MinItems", s.MinItems)
	addInt("MaxItems", s.MaxItems)
	if s.UniqueItems != nil {
		parts = append(parts, "UniqueItems: oapi.Ptr("+strconv.FormatBool(*s.UniqueItems)+")")
	}
	if s.XML != nil {
		parts = append(parts, "XML: "+renderXML(s.XML))
	}
	if s.Example != nil {
		parts = append(parts, "Example: "+renderGoValue(s.Example))
	}
	if s.Default != nil {
		parts = append(parts, "Default: "+renderGoValue(s.Default))
	}
	return parts
}

func renderXML(x *oapi.XML) string {
	var parts []string
	if x.Name != "" {
		parts = append(parts, "Name: "+strconv.Quote(x.Name))
	}
	if x.Namespace != "" {
		parts = append(parts, "Namespace: "+strconv.Quote(x.Namespace))
	}
	if x.Prefix != "" {
		parts = append(parts, "Prefix: "+strconv.Quote(x.Prefix))
	}
	if x.Attribute {
		parts = append(parts, "Attribute: true")
	}
	if x.Wrapped {
		parts = append(parts, "Wrapped: true")
	}
	return "&oapi.XML{" + strings.Join(parts, ", ") + "}"
}

// renderGoValue renders a YAML-decoded value as Go source. Map keys come
// out sorted so the rendering is stable.
func renderGoValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloatLiteral(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = renderGoValue(e)
		}
		return "[]any{" + strings.Join(parts, ", ") + "}"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + renderGoValue(x[k])
		}
		return "map[string]any{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%#v", v)
	}
}

// formatFloatLiteral renders a float64 so the literal stays float-typed
// in Go source.
func formatFloatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// renderStrings renders a []string literal.
func renderStrings(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Quote(v)
	}
	return "[]string{" + strings.Join(parts, ", ") + "}"
}

// GoType renders a type reference as Go source, e.g. "[]Pet",
// "map[string]int64", or "Pair[int32, string]".
func GoType(ref *typedef.TypeRef) string {
	switch ref.Kind {
	case typedef.RefPrimitive:
		info, _ := typedef.Primitive(ref.Name)
		return info.GoType
	case typedef.RefNamed:
		return ref.Name
	case typedef.RefInstance:
		args := make([]string, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = GoType(a)
		}
		return ref.Name + "[" + strings.Join(args, ", ") + "]"
	case typedef.RefSlice:
		return "[]" + GoType(ref.Elem)
	case typedef.RefMap:
		return "map[string]" + GoType(ref.Elem)
	case typedef.RefPointer:
		return "*" + GoType(ref.Elem)
	default:
		return ref.Name
	}
}

// GoImports records the imports GoType's rendering of ref needs.
func GoImports(ref *typedef.TypeRef, dst map[string]bool) {
	if ref == nil {
		return
	}
	if ref.Kind == typedef.RefPrimitive {
		if info, ok := typedef.Primitive(ref.Name); ok && info.GoImport != "" {
			dst[info.GoImport] = true
		}
	}
	GoImports(ref.Elem, dst)
	for _, a := range ref.Args {
		GoImports(a, dst)
	}
}
