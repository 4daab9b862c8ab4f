// Package derive plans schema derivation for a loaded document: shape
// classification, symbol and bound planning, reference resolution, and
// assembly of the schema fragments the code generator and the preview
// both consume.
package derive

import (
	"fmt"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

// maxInstantiations caps monomorphization so recursive instantiation
// chains fail with a diagnostic instead of spinning.
const maxInstantiations = 4096

// maxInlineDepth caps nesting of inline generic expansions.
const maxInlineDepth = 64

// TypePlan is the complete derivation plan for one definition.
type TypePlan struct {
	Def   *typedef.Definition
	Shape typedef.Shape

	Symbol SymbolPlan
	Bound  BoundPlan

	// Participating maps generic parameter names to whether the schema
	// derivation consumes them. Nil for non-generic definitions.
	Participating map[string]bool

	// Fragment is the schema construction for the definition body. Its
	// Expr feeds the generated method; its Value feeds previews of
	// non-generic definitions.
	Fragment Fragment

	// Failed marks the definition as contributing nothing to output.
	Failed bool
}

// Instantiation is one concrete use of a generic definition,
// materialized for previews.
type Instantiation struct {
	Def    *typedef.Definition
	Args   []*typedef.TypeRef
	Symbol string
	Value  oapi.RefOr
}

// DocumentPlan is the derivation plan for one document.
type DocumentPlan struct {
	Doc   *typedef.Document
	Index *typedef.Index

	// Types holds one plan per definition in document order, failed
	// ones included.
	Types []*TypePlan

	// Instantiations holds the concrete generic uses discovered while
	// building fragments, in discovery order.
	Instantiations []*Instantiation
}

// Options adjusts planning.
type Options struct {
	// PackagePath is the import path of the generated package; preview
	// symbols reproduce the runtime type names built from it. Empty
	// falls back to the document's package name.
	PackagePath string
}

// PlanDocument runs the derivation pipeline over a loaded document.
// Diagnostics land in col; definitions that fail any stage are marked
// and contribute nothing, without stopping the others.
func PlanDocument(doc *typedef.Document, col *diagnostic.Collector, opts Options) *DocumentPlan {
	pkgPath := opts.PackagePath
	if pkgPath == "" {
		pkgPath = doc.Package
	}
	p := &planner{
		doc:       doc,
		col:       col,
		index:     typedef.NewIndex(),
		pkgPath:   pkgPath,
		plans:     make(map[string]*TypePlan),
		fragments: make(map[string]*Fragment),
		inlines:   make(map[string]oapi.RefOr),
		instSeen:  make(map[string]bool),
	}
	p.run()
	return &DocumentPlan{
		Doc:            doc,
		Index:          p.index,
		Types:          p.ordered,
		Instantiations: p.insts,
	}
}

type planner struct {
	doc     *typedef.Document
	col     *diagnostic.Collector
	index   *typedef.Index
	pkgPath string

	plans   map[string]*TypePlan
	ordered []*TypePlan

	fragments map[string]*Fragment  // codegen-mode fragments by definition name
	inlines   map[string]oapi.RefOr // inline expansion values by instance key

	inlineDepth int

	pending  []*Instantiation
	instSeen map[string]bool
	insts    []*Instantiation
}

func (p *planner) planFor(name string) *TypePlan {
	return p.plans[name]
}

func (p *planner) run() {
	for _, def := range p.doc.Types {
		if p.index.Has(def.Name) {
			continue // the loader reports duplicates
		}
		p.index.Register(def.Name, def)
	}

	for _, def := range p.doc.Types {
		if p.index.Get(def.Name) != def {
			continue
		}
		plan := &TypePlan{Def: def}
		p.plans[def.Name] = plan
		p.ordered = append(p.ordered, plan)

		if def.LoadFailed {
			plan.Failed = true // already reported by the loader
			continue
		}

		p.preflight(def, plan)

		shape, ok := Classify(def, p.doc.File, p.col)
		if !ok {
			plan.Failed = true
			continue
		}
		plan.Shape = shape
		plan.Symbol = PlanSymbol(def)
		plan.Bound = PlanBound(def, p.doc.File, p.col)
		if def.IsGeneric() {
			plan.Participating = participatingParams(def)
		}
	}

	r := &resolver{p: p}
	for _, plan := range p.ordered {
		if plan.Failed {
			continue
		}
		r.checkDefinition(plan)
	}
	r.checkInlineCycles()
	r.cascadeFailures()

	for _, plan := range p.ordered {
		if plan.Failed {
			continue
		}
		plan.Fragment = *p.fragmentOf(plan.Def)
	}

	p.drainInstantiations()

	// Builders can fail definitions too; re-run the cascade so nothing
	// references a definition that produced no output.
	r.cascadeFailures()
}

// preflight validates per-definition settings no later stage owns.
func (p *planner) preflight(def *typedef.Definition, plan *TypePlan) {
	file := p.doc.File
	if !validRenamePolicy(def.RenameAll) {
		p.col.Error(diagnostic.CategoryDocumentInvalid, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q uses unknown rename_all policy %q", def.Name, def.RenameAll))
		plan.Failed = true
	}
	if def.Inline && def.Symbol != "" {
		p.col.Warn(diagnostic.CategoryDocumentInvalid, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q is inline; its symbol override is ignored", def.Name))
	}
	if def.Tag != "" && !def.HasAlternatives {
		p.col.Warn(diagnostic.CategoryUnionEncoding, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q sets tag: but is not a union; ignored", def.Name))
	}
	if !def.IsGeneric() && (def.SkipBound || def.Bound != "") {
		p.col.Warn(diagnostic.CategoryBoundConflict, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q has no type parameters; bound settings are ignored", def.Name))
	}

	seen := make(map[string]bool, len(def.Params))
	for _, param := range def.Params {
		switch {
		case seen[param.Name]:
			p.col.Error(diagnostic.CategoryGenericParameter, file, param.Pos.Line, param.Pos.Column,
				fmt.Sprintf("duplicate type parameter %q on %q", param.Name, def.Name))
			plan.Failed = true
		case param.Name == def.Name:
			p.col.Error(diagnostic.CategoryGenericParameter, file, param.Pos.Line, param.Pos.Column,
				fmt.Sprintf("type parameter %q collides with its definition's name", param.Name))
			plan.Failed = true
		default:
			if _, primitive := typedef.Primitive(param.Name); primitive {
				p.col.Error(diagnostic.CategoryGenericParameter, file, param.Pos.Line, param.Pos.Column,
					fmt.Sprintf("type parameter %q collides with a built-in type", param.Name))
				plan.Failed = true
			} else if other := p.index.Get(param.Name); other != nil {
				p.col.Warn(diagnostic.CategoryGenericParameter, file, param.Pos.Line, param.Pos.Column,
					fmt.Sprintf("type parameter %q shadows the definition of the same name", param.Name))
			}
		}
		seen[param.Name] = true
	}
}

// fragmentOf builds, once, the codegen-mode fragment for a definition.
func (p *planner) fragmentOf(def *typedef.Definition) *Fragment {
	if f, ok := p.fragments[def.Name]; ok {
		return f
	}
	frag := p.buildBody(p.planFor(def.Name), nil)
	p.fragments[def.Name] = &frag
	return &frag
}

// buildBody dispatches one definition body to its shape builder. The
// fragment expression renders at method-body depth.
func (p *planner) buildBody(plan *TypePlan, binding map[string]*typedef.TypeRef) Fragment {
	b := p.newBuildContext(plan, binding)
	def := plan.Def
	ann := annotations{description: def.Description, deprecated: def.Deprecated, xml: def.XML}
	const depth = 1
	switch plan.Shape {
	case typedef.ShapeRecord:
		return b.buildRecord(def.Fields, def.RenameAll, ann, nil, def.Pos, depth)
	case typedef.ShapeTuple:
		return b.buildTuple(def.Elements, ann, def.Pos, depth)
	case typedef.ShapeUnion:
		return b.buildUnion(ann, depth)
	default:
		s := oapi.Empty()
		applyAnnotations(s, ann)
		if ann.empty() {
			return Fragment{Value: oapi.Inline(s), Expr: "oapi.Inline(oapi.Empty())"}
		}
		return Fragment{Value: oapi.Inline(s), Expr: "oapi.Inline(" + renderLeaf(s, depth) + ")"}
	}
}

// inlineValue returns the preview value of an inline definition,
// monomorphized when args are given.
func (p *planner) inlineValue(target *typedef.Definition, args []*typedef.TypeRef) oapi.RefOr {
	plan := p.planFor(target.Name)
	if plan == nil || plan.Failed {
		return oapi.Inline(oapi.Empty())
	}
	if len(args) == 0 {
		return p.fragmentOf(target).Value
	}
	key := target.Name + argSuffix(args, "")
	if v, ok := p.inlines[key]; ok {
		return v
	}
	if p.inlineDepth >= maxInlineDepth {
		p.col.Error(diagnostic.CategoryGenericParameter, p.doc.File, target.Pos.Line, target.Pos.Column,
			fmt.Sprintf("instantiations of inline definition %q nest too deeply", target.Name))
		return oapi.Inline(oapi.Empty())
	}
	p.inlineDepth++
	frag := p.buildBody(plan, bindingFor(target, args))
	p.inlineDepth--
	p.inlines[key] = frag.Value
	return frag.Value
}

// enqueueInstance schedules a concrete instantiation for preview
// registration and returns its preview symbol.
func (p *planner) enqueueInstance(target *typedef.Definition, args []*typedef.TypeRef) string {
	plan := p.planFor(target.Name)
	if plan == nil {
		return ""
	}
	symbol, ok := PreviewSymbol(plan.Symbol, target, args, p.pkgPath)
	if !ok {
		return ""
	}
	if p.instSeen[symbol] {
		return symbol
	}
	p.instSeen[symbol] = true
	p.pending = append(p.pending, &Instantiation{Def: target, Args: args, Symbol: symbol})
	return symbol
}

func (p *planner) drainInstantiations() {
	remaining := maxInstantiations
	for len(p.pending) > 0 {
		if remaining == 0 {
			p.col.Error(diagnostic.CategoryGenericParameter, p.doc.File, 0, 0,
				fmt.Sprintf("generic instantiations did not converge after %d expansions", maxInstantiations))
			p.pending = nil
			return
		}
		remaining--
		inst := p.pending[0]
		p.pending = p.pending[1:]
		plan := p.planFor(inst.Def.Name)
		if plan == nil || plan.Failed {
			continue
		}
		frag := p.buildBody(plan, bindingFor(inst.Def, inst.Args))
		inst.Value = frag.Value
		p.insts = append(p.insts, inst)
	}
}

// bindingFor zips a definition's parameters with concrete arguments.
func bindingFor(def *typedef.Definition, args []*typedef.TypeRef) map[string]*typedef.TypeRef {
	binding := make(map[string]*typedef.TypeRef, len(args))
	for i, name := range def.ParamNames() {
		if i < len(args) {
			binding[name] = args[i]
		}
	}
	return binding
}
