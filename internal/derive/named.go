package derive

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

// tagConst is a discriminator property injected into a record schema by
// an internally tagged union.
type tagConst struct {
	name  string
	value string
}

// buildRecord constructs the object schema for a field list. Record
// definitions and record-bodied union alternatives both come through
// here; tagged alternatives inject their discriminator constant.
func (b *buildContext) buildRecord(fields []typedef.Field, renameAll string, ann annotations, tag *tagConst, pos typedef.Position, depth int) Fragment {
	s := &oapi.Schema{Type: "object"}
	var propParts []string
	var required []string
	seen := make(map[string]bool)
	props := make(map[string]oapi.RefOr)

	addProp := func(name string, frag Fragment, fieldPos typedef.Position) bool {
		if seen[name] {
			b.fail(diagnostic.CategoryShapeInvalid, fieldPos,
				"duplicate property name %q after renaming", name)
			return false
		}
		seen[name] = true
		props[name] = frag.Value
		propParts = append(propParts, strconv.Quote(name)+": "+frag.Expr)
		return true
	}

	if tag != nil {
		tagSchema := &oapi.Schema{Type: "string", Const: tag.value}
		addProp(tag.name, Fragment{
			Value: oapi.Inline(tagSchema),
			Expr:  "oapi.Inline(" + renderLeaf(tagSchema, depth+2) + ")",
		}, pos)
		required = append(required, tag.name)
	}

	var additional *Fragment
	for _, f := range fields {
		if f.Skip {
			continue
		}
		if f.Flatten {
			if f.Type == nil || f.Type.Kind != typedef.RefMap {
				b.fail(diagnostic.CategoryShapeInvalid, f.Pos,
					"field %q is flattened but its type is not a map", f.Name)
				continue
			}
			if additional != nil {
				b.fail(diagnostic.CategoryShapeInvalid, f.Pos,
					"field %q flattens into a schema that already has a flattened field", f.Name)
				continue
			}
			frag := b.schemaExpr(f.Type.Elem, annotations{}, f.Pos, depth+1)
			additional = &frag
			continue
		}

		name := EncodedFieldName(renameAll, f)

		var frag Fragment
		if f.SchemaWith != "" {
			if !validSchemaWith(f.SchemaWith) {
				b.fail(diagnostic.CategoryDocumentInvalid, f.Pos,
					"field %q has a malformed schema_with expression %q", f.Name, f.SchemaWith)
				continue
			}
			fieldAnn := annotations{description: f.Description, deprecated: f.Deprecated}
			frag = b.annotate(oapi.Inline(oapi.Empty()), f.SchemaWith+"()", fieldAnn, depth+2)
		} else {
			frag = b.fieldExpr(f, depth+2)
		}

		if !addProp(name, frag, f.Pos) {
			continue
		}
		if !f.Optional {
			required = append(required, name)
		}
	}

	applyAnnotations(s, ann)
	parts := headParts(s)
	if len(propParts) > 0 {
		var sb strings.Builder
		sb.WriteString("Properties: map[string]oapi.RefOr{\n")
		for _, p := range propParts {
			sb.WriteString(tabs(depth + 2))
			sb.WriteString(p)
			sb.WriteString(",\n")
		}
		sb.WriteString(tabs(depth + 1))
		sb.WriteString("}")
		parts = append(parts, sb.String())
		s.Properties = props
	}
	if len(required) > 0 {
		parts = append(parts, "Required: "+renderStrings(required))
		s.Required = required
	}
	if additional != nil {
		parts = append(parts, "AdditionalProperties: oapi.Ptr("+additional.Expr+")")
		s.AdditionalProperties = &additional.Value
	}
	parts = append(parts, tailParts(s)...)

	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}

// validSchemaWith accepts a dotted chain of Go identifiers, the only
// form a schema_with expression may take.
func validSchemaWith(expr string) bool {
	parts := strings.Split(expr, ".")
	for _, part := range parts {
		if !identLike(part) {
			return false
		}
	}
	return true
}

func identLike(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
