package codegen

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oapigen/oapigen/internal/derive"
	"github.com/oapigen/oapigen/internal/typedef"
)

// renderDecl writes the Go declaration for one surviving definition,
// including the encoding methods of shapes whose wire form is not the
// struct form.
func (r *renderer) renderDecl(e *Emitter, p *derive.TypePlan) {
	def := p.Def
	r.docComment(e, def.Description, def.Deprecated)
	switch p.Shape {
	case typedef.ShapeRecord:
		r.recordDecl(e, p)
	case typedef.ShapeTuple:
		r.tupleDecl(e, p)
	case typedef.ShapeUnion:
		r.unionDecl(e, p)
	default:
		e.Line("type %s struct{}", def.Name+r.declSuffix(p))
	}
	e.Blank()
}

func (r *renderer) recordDecl(e *Emitter, p *derive.TypePlan) {
	fields := visibleFields(p.Def.Fields)
	name := p.Def.Name + r.declSuffix(p)
	if len(fields) == 0 {
		e.Line("type %s struct{}", name)
		return
	}
	e.Block("type %s struct", name)
	r.fieldLines(e, fields, p.Def.RenameAll)
	e.EndBlock()
}

func (r *renderer) tupleDecl(e *Emitter, p *derive.TypePlan) {
	def := p.Def
	if len(def.Elements) == 1 && r.definedTypeLegal(p, def.Elements[0].Type) {
		r.noteImports(def.Elements[0].Type)
		e.Line("type %s %s", def.Name+r.declSuffix(p), derive.GoType(def.Elements[0].Type))
		return
	}
	name := def.Name + r.declSuffix(p)
	if len(def.Elements) == 0 {
		e.Line("type %s struct{}", name)
	} else {
		e.Block("type %s struct", name)
		for i, el := range def.Elements {
			if el.Description != "" {
				if i > 0 {
					e.Blank()
				}
				r.commentLines(e, el.Description)
			}
			e.Line("F%d %s", i, r.elementType(el))
		}
		e.EndBlock()
	}
	e.Blank()
	r.tupleMarshalers(e, def.Name+r.instSuffix(p), len(def.Elements))
}

func (r *renderer) unionDecl(e *Emitter, p *derive.TypePlan) {
	def := p.Def
	if unionIsEnum(def) {
		r.enumDecl(e, p)
		return
	}

	marker := "is" + def.Name
	e.Block("type %s struct", def.Name+r.declSuffix(p))
	e.Line("Value %s", marker)
	e.EndBlock()
	e.Blank()
	e.Block("type %s interface", marker)
	e.Line("%s()", marker)
	e.EndBlock()

	for _, alt := range def.Alternatives {
		e.Blank()
		r.variantDecl(e, p, alt, marker)
	}

	e.Blank()
	r.unionMarshalers(e, p)
}

func (r *renderer) enumDecl(e *Emitter, p *derive.TypePlan) {
	def := p.Def
	e.Line("type %s string", def.Name+r.declSuffix(p))
	if def.IsGeneric() {
		// Constants cannot instantiate a generic type.
		return
	}
	e.Blank()
	e.Line("const (")
	e.Indent()
	for _, alt := range def.Alternatives {
		value := derive.EncodedAltName(def.RenameAll, alt)
		e.Line("%s%s %s = %s", def.Name, alt.Name, def.Name, strconv.Quote(value))
	}
	e.Dedent()
	e.Line(")")
}

func (r *renderer) variantDecl(e *Emitter, p *derive.TypePlan, alt typedef.Alternative, marker string) {
	name := p.Def.Name + alt.Name
	if alt.Description != "" {
		r.commentLines(e, alt.Description)
	}
	switch {
	case alt.HasFields:
		fields := visibleFields(alt.Fields)
		if len(fields) == 0 {
			e.Line("type %s struct{}", name+r.declSuffix(p))
		} else {
			e.Block("type %s struct", name+r.declSuffix(p))
			r.fieldLines(e, fields, "")
			e.EndBlock()
		}
	case alt.HasElements:
		e.Block("type %s struct", name+r.declSuffix(p))
		for i, el := range alt.Elements {
			e.Line("F%d %s", i, r.elementType(el))
		}
		e.EndBlock()
		e.Blank()
		r.tupleMarshalers(e, name+r.instSuffix(p), len(alt.Elements))
	default:
		e.Line("type %s struct{}", name+r.declSuffix(p))
	}
	e.Blank()
	e.Line("func (%s) %s() {}", name+r.instSuffix(p), marker)
}

// fieldLines writes struct fields with their JSON tags. Alternatives
// pass an empty rename policy: a union's rename_all renames the
// alternatives themselves, never their fields.
func (r *renderer) fieldLines(e *Emitter, fields []typedef.Field, renameAll string) {
	for i, f := range fields {
		if f.Description != "" || f.Deprecated {
			if i > 0 {
				e.Blank()
			}
			if f.Description != "" {
				r.commentLines(e, f.Description)
			}
			if f.Deprecated {
				if f.Description != "" {
					e.Line("//")
				}
				e.Line("// Deprecated: marked deprecated in %s.", r.sourceName())
			}
		}
		e.Line("%s %s %s", f.Name, r.fieldType(f), tagLiteral(fieldTag(renameAll, f)))
	}
}

// fieldTag assembles the encoding/json tag value for a field.
func fieldTag(renameAll string, f typedef.Field) string {
	switch {
	case f.Skip:
		return "-"
	case f.Flatten:
		return ",inline"
	}
	tag := derive.EncodedFieldName(renameAll, f)
	if f.Optional {
		tag += ",omitempty"
	}
	if tag == "-" {
		// "-," is the tag spelling for a property literally named "-".
		tag = "-,"
	}
	return tag
}

// tagLiteral renders a struct tag, falling back to an interpreted string
// literal when the raw form cannot hold the value.
func tagLiteral(tag string) string {
	lit := "json:" + strconv.Quote(tag)
	if strings.ContainsRune(lit, '`') {
		return strconv.Quote(lit)
	}
	return "`" + lit + "`"
}

func (r *renderer) fieldType(f typedef.Field) string {
	if f.Type == nil {
		return "any"
	}
	r.noteImports(f.Type)
	return derive.GoType(f.Type)
}

func (r *renderer) elementType(el typedef.Element) string {
	if el.Type == nil {
		return "any"
	}
	r.noteImports(el.Type)
	return derive.GoType(el.Type)
}

// visibleFields drops the fields that have no place in the declaration:
// a skipped field without a type carries nothing. A skipped field with a
// type stays as a runtime-only member tagged json:"-".
func visibleFields(fields []typedef.Field) []typedef.Field {
	var out []typedef.Field
	for _, f := range fields {
		if f.Skip && f.Type == nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// unionIsEnum reports whether a union renders as a string enum: no
// discriminator and nothing but unit alternatives.
func unionIsEnum(def *typedef.Definition) bool {
	if def.Tag != "" || len(def.Alternatives) == 0 {
		return false
	}
	for _, alt := range def.Alternatives {
		if alt.HasFields || alt.HasElements {
			return false
		}
	}
	return true
}

// definedTypeLegal reports whether a single-element tuple may render as
// a plain defined type over its element. Pointer types cannot carry
// methods, a bare type parameter cannot be an underlying type, and a
// defined type does not inherit the custom JSON encoding of a tuple or
// boxed union target, so those fall back to the wrapper-struct form.
func (r *renderer) definedTypeLegal(p *derive.TypePlan, ref *typedef.TypeRef) bool {
	if ref == nil {
		return false
	}
	switch ref.Kind {
	case typedef.RefPrimitive, typedef.RefSlice, typedef.RefMap:
		return true
	case typedef.RefNamed, typedef.RefInstance:
		for _, param := range p.Def.ParamNames() {
			if ref.Name == param {
				return false
			}
		}
		target := r.plans[ref.Name]
		if target == nil {
			return false
		}
		switch target.Shape {
		case typedef.ShapeTuple:
			return false
		case typedef.ShapeUnion:
			return unionIsEnum(target.Def)
		}
		return true
	default:
		return false
	}
}

func (r *renderer) docComment(e *Emitter, description string, deprecated bool) {
	if description != "" {
		r.commentLines(e, description)
	}
	if deprecated {
		if description != "" {
			e.Line("//")
		}
		e.Line("// Deprecated: marked deprecated in %s.", r.sourceName())
	}
}

func (r *renderer) commentLines(e *Emitter, text string) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			e.Line("//")
		} else {
			e.Line("// %s", line)
		}
	}
}

func (r *renderer) sourceName() string {
	if r.doc.File == "" {
		return "its source document"
	}
	return filepath.Base(r.doc.File)
}

// declSuffix renders the bracketed type-parameter list with constraints,
// for declarations.
func (r *renderer) declSuffix(p *derive.TypePlan) string {
	if p.Bound.TypeParams == "" {
		return ""
	}
	return "[" + p.Bound.TypeParams + "]"
}

// instSuffix renders the bracketed type-parameter names, for receivers
// and instantiations inside method bodies.
func (r *renderer) instSuffix(p *derive.TypePlan) string {
	names := p.Def.ParamNames()
	if len(names) == 0 {
		return ""
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func (r *renderer) noteImports(ref *typedef.TypeRef) {
	set := make(map[string]bool)
	derive.GoImports(ref, set)
	for path := range set {
		r.deps[path] = ""
	}
}
