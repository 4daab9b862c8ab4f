package derive

import (
	"fmt"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

// Fragment pairs the preview value of a schema expression with the Go
// source text that reconstructs the same value in generated code. Both
// sides come out of one walk so they cannot drift apart.
type Fragment struct {
	Value oapi.RefOr
	Expr  string
}

// annotations carries the schema keywords a site layers onto the type it
// references: descriptions, deprecation, validation constraints, and XML
// metadata.
type annotations struct {
	description string
	deprecated  bool
	constraints *typedef.Constraints
	xml         *typedef.XML
}

func (a annotations) empty() bool {
	return a.description == "" && !a.deprecated && a.constraints == nil && a.xml == nil
}

// merge layers inner over outer; inner wins where both set a keyword.
func (a annotations) merge(inner annotations) annotations {
	out := a
	if inner.description != "" {
		out.description = inner.description
	}
	if inner.deprecated {
		out.deprecated = true
	}
	if inner.constraints != nil {
		out.constraints = inner.constraints
	}
	if inner.xml != nil {
		out.xml = inner.xml
	}
	return out
}

// applyAnnotations merges ann into a schema under construction.
func applyAnnotations(s *oapi.Schema, ann annotations) {
	if ann.description != "" {
		s.Description = ann.description
	}
	if ann.deprecated {
		s.Deprecated = true
	}
	if ann.xml != nil {
		s.XML = &oapi.XML{
			Name:      ann.xml.Name,
			Namespace: ann.xml.Namespace,
			Prefix:    ann.xml.Prefix,
			Attribute: ann.xml.Attribute,
			Wrapped:   ann.xml.Wrapped,
		}
	}
	c := ann.constraints
	if c == nil {
		return
	}
	if c.Format != nil {
		s.Format = *c.Format
	}
	if c.Pattern != nil {
		s.Pattern = *c.Pattern
	}
	if c.Enum != nil {
		s.Enum = c.Enum
	}
	if c.Minimum != nil {
		s.Minimum = c.Minimum
	}
	if c.Maximum != nil {
		s.Maximum = c.Maximum
	}
	if c.ExclusiveMinimum != nil {
		s.ExclusiveMinimum = c.ExclusiveMinimum
	}
	if c.ExclusiveMaximum != nil {
		s.ExclusiveMaximum = c.ExclusiveMaximum
	}
	if c.MultipleOf != nil {
		s.MultipleOf = c.MultipleOf
	}
	if c.MinLength != nil {
		s.MinLength = c.MinLength
	}
	if c.MaxLength != nil {
		s.MaxLength = c.MaxLength
	}
	if c.MinItems != nil {
		s.MinItems = c.MinItems
	}
	if c.MaxItems != nil {
		s.MaxItems = c.MaxItems
	}
	if c.UniqueItems != nil {
		s.UniqueItems = c.UniqueItems
	}
	if c.Example != nil {
		s.Example = c.Example
	}
	if c.Default != nil {
		s.Default = c.Default
	}
}

// buildContext threads one definition's schema construction. A non-nil
// binding substitutes type parameters during monomorphization; with a
// nil binding, parameter sites render as capability calls for generated
// code and their preview values are never consumed.
type buildContext struct {
	p        *planner
	def      *typedef.Definition
	plan     *TypePlan
	file     string
	binding  map[string]*typedef.TypeRef
	paramSet map[string]bool
}

func (p *planner) newBuildContext(plan *TypePlan, binding map[string]*typedef.TypeRef) *buildContext {
	params := make(map[string]bool, len(plan.Def.Params))
	for _, name := range plan.Def.ParamNames() {
		params[name] = true
	}
	return &buildContext{
		p:        p,
		def:      plan.Def,
		plan:     plan,
		file:     p.doc.File,
		binding:  binding,
		paramSet: params,
	}
}

// fail records an error against the definition being built and marks its
// plan failed.
func (b *buildContext) fail(category diagnostic.Category, pos typedef.Position, format string, args ...any) {
	b.p.col.Error(category, b.file, pos.Line, pos.Column, fmt.Sprintf(format, args...))
	b.plan.Failed = true
}

// substituteRef replaces bound type parameters throughout a reference.
func substituteRef(ref *typedef.TypeRef, binding map[string]*typedef.TypeRef) *typedef.TypeRef {
	if ref == nil || len(binding) == 0 {
		return ref
	}
	switch ref.Kind {
	case typedef.RefNamed:
		if r, ok := binding[ref.Name]; ok {
			return r
		}
		return ref
	case typedef.RefSlice, typedef.RefMap, typedef.RefPointer:
		elem := substituteRef(ref.Elem, binding)
		if elem == ref.Elem {
			return ref
		}
		out := *ref
		out.Elem = elem
		return &out
	case typedef.RefInstance:
		changed := false
		args := make([]*typedef.TypeRef, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = substituteRef(a, binding)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return ref
		}
		out := *ref
		out.Args = args
		return &out
	default:
		return ref
	}
}

// concrete reports whether ref is free of the current definition's type
// parameters. Under a binding every parameter is already substituted.
func (b *buildContext) concrete(ref *typedef.TypeRef) bool {
	if b.binding != nil || len(b.paramSet) == 0 {
		return true
	}
	for _, name := range ref.NamedRefs(nil) {
		if b.paramSet[name] {
			return false
		}
	}
	return true
}

// schemaExpr derives the schema fragment for one type reference, with
// ann layered on top. depth is the indent the expression starts at.
func (b *buildContext) schemaExpr(ref *typedef.TypeRef, ann annotations, pos typedef.Position, depth int) Fragment {
	ref = substituteRef(ref, b.binding)

	switch ref.Kind {
	case typedef.RefPrimitive:
		info, _ := typedef.Primitive(ref.Name)
		s := &oapi.Schema{Type: info.SchemaType, Format: info.Format}
		applyAnnotations(s, ann)
		return Fragment{
			Value: oapi.Inline(s),
			Expr:  "oapi.Inline(" + renderLeaf(s, depth) + ")",
		}

	case typedef.RefNamed:
		if b.paramSet[ref.Name] {
			return b.paramExpr(ref.Name, ann, depth)
		}
		target := b.p.index.Get(ref.Name)
		call := "(*new(" + ref.Name + ")).ToSchema(reg)"
		var value oapi.RefOr
		if target != nil && target.Inline {
			value = b.p.inlineValue(target, nil)
		} else if target != nil {
			symbol, _ := PreviewSymbol(b.p.planFor(target.Name).Symbol, target, nil, b.p.pkgPath)
			value = oapi.SchemaRef(symbol)
		}
		return b.annotate(value, call, ann, depth)

	case typedef.RefInstance:
		target := b.p.index.Get(ref.Name)
		call := "(*new(" + GoType(ref) + ")).ToSchema(reg)"
		var value oapi.RefOr
		switch {
		case target == nil || !b.concrete(ref):
			// Parameter-dependent instantiations materialize when the
			// enclosing definition is itself instantiated.
			value = oapi.Inline(oapi.Empty())
		case target.Inline:
			value = b.p.inlineValue(target, ref.Args)
		default:
			symbol := b.p.enqueueInstance(target, ref.Args)
			value = oapi.SchemaRef(symbol)
		}
		return b.annotate(value, call, ann, depth)

	case typedef.RefSlice:
		inner := b.schemaExpr(ref.Elem, annotations{}, pos, depth)
		s := &oapi.Schema{Type: "array", Items: &inner.Value}
		applyAnnotations(s, ann)
		parts := headParts(s)
		parts = append(parts, "Items: oapi.Ptr("+inner.Expr+")")
		parts = append(parts, tailParts(s)...)
		return Fragment{
			Value: oapi.Inline(s),
			Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
		}

	case typedef.RefMap:
		inner := b.schemaExpr(ref.Elem, annotations{}, pos, depth)
		s := &oapi.Schema{Type: "object", AdditionalProperties: &inner.Value}
		applyAnnotations(s, ann)
		parts := headParts(s)
		parts = append(parts, "AdditionalProperties: oapi.Ptr("+inner.Expr+")")
		parts = append(parts, tailParts(s)...)
		return Fragment{
			Value: oapi.Inline(s),
			Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
		}

	case typedef.RefPointer:
		inner := b.schemaExpr(ref.Elem, annotations{}, pos, depth)
		return b.nullableWrap(inner, ann, depth)

	default:
		return Fragment{Value: oapi.Inline(oapi.Empty()), Expr: "oapi.Inline(oapi.Empty())"}
	}
}

// paramExpr renders a type-parameter site. The bound plan decides the
// call form; the preview value is a placeholder because generic bodies
// are only previewed through instantiations.
func (b *buildContext) paramExpr(name string, ann annotations, depth int) Fragment {
	var call string
	if b.plan.Bound.Reflective {
		call = "oapi.SchemaOf[" + name + "](reg)"
	} else {
		call = "(*new(" + name + ")).ToSchema(reg)"
	}
	return b.annotate(oapi.Inline(oapi.Empty()), call, ann, depth)
}

// annotate attaches ann to a schema obtained by reference or call.
// Because the inner expression is opaque, annotations wrap it in allOf
// instead of merging into its literal.
func (b *buildContext) annotate(value oapi.RefOr, expr string, ann annotations, depth int) Fragment {
	if ann.empty() {
		return Fragment{Value: value, Expr: expr}
	}
	s := &oapi.Schema{AllOf: []oapi.RefOr{value}}
	applyAnnotations(s, ann)
	parts := headParts(s)
	parts = append(parts, "AllOf: []oapi.RefOr{"+expr+"}")
	parts = append(parts, tailParts(s)...)
	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}

// nullableWrap widens inner to accept null. Without annotations the
// runtime helper keeps the expression short; with them the anyOf
// wrapper is spelled out so the keywords live on the wrapper.
func (b *buildContext) nullableWrap(inner Fragment, ann annotations, depth int) Fragment {
	if ann.empty() {
		return Fragment{
			Value: oapi.Nullable(inner.Value),
			Expr:  "oapi.Nullable(" + inner.Expr + ")",
		}
	}
	s := &oapi.Schema{AnyOf: []oapi.RefOr{inner.Value, oapi.Inline(&oapi.Schema{Type: "null"})}}
	applyAnnotations(s, ann)
	parts := headParts(s)
	parts = append(parts, `AnyOf: []oapi.RefOr{`+inner.Expr+`, oapi.Inline(&oapi.Schema{Type: "null"})}`)
	parts = append(parts, tailParts(s)...)
	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}

// fieldExpr derives one field's schema with its annotations. An explicit
// nullable flag wraps non-pointer types the same way pointers wrap.
func (b *buildContext) fieldExpr(f typedef.Field, depth int) Fragment {
	ann := annotations{
		description: f.Description,
		deprecated:  f.Deprecated,
		constraints: f.Constraints,
		xml:         f.XML,
	}
	if f.Nullable && f.Type != nil && f.Type.Kind != typedef.RefPointer {
		inner := b.schemaExpr(f.Type, annotations{}, f.Pos, depth)
		return b.nullableWrap(inner, ann, depth)
	}
	return b.schemaExpr(f.Type, ann, f.Pos, depth)
}

// elementExpr derives one tuple element's schema. ann already includes
// any definition-level keywords the caller wants layered in.
func (b *buildContext) elementExpr(e typedef.Element, ann annotations, depth int) Fragment {
	if e.Nullable && e.Type != nil && e.Type.Kind != typedef.RefPointer {
		inner := b.schemaExpr(e.Type, annotations{}, e.Pos, depth)
		return b.nullableWrap(inner, ann, depth)
	}
	return b.schemaExpr(e.Type, ann, e.Pos, depth)
}
