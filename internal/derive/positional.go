package derive

import (
	"strings"

	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

// buildTuple constructs the schema for a positional element list. A
// single element collapses to that element's schema (the newtype case);
// longer tuples become fixed-length arrays with per-position schemas.
func (b *buildContext) buildTuple(elements []typedef.Element, ann annotations, pos typedef.Position, depth int) Fragment {
	if len(elements) == 1 {
		e := elements[0]
		elemAnn := annotations{description: e.Description, constraints: e.Constraints}
		return b.elementExpr(e, ann.merge(elemAnn), depth)
	}

	n := len(elements)
	items := make([]oapi.RefOr, 0, n)
	var itemParts []string
	for _, e := range elements {
		elemAnn := annotations{description: e.Description, constraints: e.Constraints}
		frag := b.elementExpr(e, elemAnn, depth+2)
		items = append(items, frag.Value)
		itemParts = append(itemParts, frag.Expr)
	}

	s := &oapi.Schema{Type: "array", PrefixItems: items}
	applyAnnotations(s, ann)
	// The length pin is structural; constraints cannot loosen it.
	s.MinItems = oapi.Ptr(n)
	s.MaxItems = oapi.Ptr(n)

	parts := headParts(s)
	var sb strings.Builder
	sb.WriteString("PrefixItems: []oapi.RefOr{\n")
	for _, p := range itemParts {
		sb.WriteString(tabs(depth + 2))
		sb.WriteString(p)
		sb.WriteString(",\n")
	}
	sb.WriteString(tabs(depth + 1))
	sb.WriteString("}")
	parts = append(parts, sb.String())
	parts = append(parts, tailParts(s)...)

	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}
