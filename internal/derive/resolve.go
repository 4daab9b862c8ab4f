package derive

import (
	"fmt"
	"strings"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

// resolver validates every type reference of a document once shapes and
// bounds are planned: names must land on a definition or an in-scope
// type parameter, instantiations must match the target's arity, and
// every argument must be able to satisfy the target's planned bounds.
type resolver struct {
	p *planner
}

type refSite struct {
	ref *typedef.TypeRef
	pos typedef.Position
}

// collectSites gathers the type references a definition consumes.
// Skipped fields contribute none. A schema_with field that also
// declares a type contributes it: the expression replaces the schema,
// but the generated declaration still names the type.
func collectSites(def *typedef.Definition) []refSite {
	var sites []refSite
	addFields := func(fields []typedef.Field) {
		for _, f := range fields {
			if f.Skip || f.Type == nil {
				continue
			}
			sites = append(sites, refSite{f.Type, f.Pos})
		}
	}
	addElements := func(elements []typedef.Element) {
		for _, e := range elements {
			if e.Type == nil {
				continue
			}
			sites = append(sites, refSite{e.Type, e.Pos})
		}
	}
	addFields(def.Fields)
	addElements(def.Elements)
	for _, alt := range def.Alternatives {
		addFields(alt.Fields)
		addElements(alt.Elements)
	}
	return sites
}

func (r *resolver) checkDefinition(plan *TypePlan) {
	def := plan.Def
	params := make(map[string]bool, len(def.Params))
	for _, name := range def.ParamNames() {
		params[name] = true
	}
	ok := true
	for _, site := range collectSites(def) {
		if !r.checkRef(def, site.ref, site.pos, params) {
			ok = false
		}
	}
	if !ok {
		plan.Failed = true
	}
}

func (r *resolver) checkRef(def *typedef.Definition, ref *typedef.TypeRef, pos typedef.Position, params map[string]bool) bool {
	file := r.p.doc.File
	col := r.p.col

	switch ref.Kind {
	case typedef.RefPrimitive:
		return true

	case typedef.RefSlice, typedef.RefMap, typedef.RefPointer:
		return r.checkRef(def, ref.Elem, pos, params)

	case typedef.RefNamed:
		if params[ref.Name] {
			return true
		}
		target := r.p.index.Get(ref.Name)
		if target == nil {
			col.Error(diagnostic.CategoryReferenceUnknown, file, pos.Line, pos.Column,
				fmt.Sprintf("unknown type %q", ref.Name))
			return false
		}
		if target.IsGeneric() {
			col.ErrorWithHint(diagnostic.CategoryGenericParameter, file, pos.Line, pos.Column,
				fmt.Sprintf("%q is generic and needs type arguments", ref.Name),
				fmt.Sprintf("write %s[...] with %d argument(s)", ref.Name, len(target.Params)))
			return false
		}
		return true

	case typedef.RefInstance:
		target := r.p.index.Get(ref.Name)
		if target == nil {
			col.Error(diagnostic.CategoryReferenceUnknown, file, pos.Line, pos.Column,
				fmt.Sprintf("unknown type %q", ref.Name))
			return false
		}
		if !target.IsGeneric() {
			col.Error(diagnostic.CategoryGenericParameter, file, pos.Line, pos.Column,
				fmt.Sprintf("%q is not generic but is given type arguments", ref.Name))
			return false
		}
		if len(ref.Args) != len(target.Params) {
			col.Error(diagnostic.CategoryGenericParameter, file, pos.Line, pos.Column,
				fmt.Sprintf("wrong number of type arguments for %q: got %d, want %d",
					ref.Name, len(ref.Args), len(target.Params)))
			return false
		}
		targetPlan := r.p.planFor(ref.Name)
		ok := true
		for i, arg := range ref.Args {
			if !r.checkRef(def, arg, pos, params) {
				ok = false
				continue
			}
			pname := target.Params[i].Name
			if r.requiresSchemer(targetPlan, pname) && !r.argProvidesSchema(def, arg, params) {
				col.ErrorWithHint(diagnostic.CategoryBoundConflict, file, pos.Line, pos.Column,
					fmt.Sprintf("argument %s cannot satisfy the %s bound on parameter %s of %q",
						arg, SchemerConstraint, pname, ref.Name),
					fmt.Sprintf("set skip_bound or an explicit bound on %q to accept schema-less arguments", ref.Name))
				ok = false
			}
		}
		return ok
	}
	return true
}

// requiresSchemer reports whether the target constrains param to the
// schema capability. Only the default bound does; skip_bound and
// explicit bounds shift to reflective lookup.
func (r *resolver) requiresSchemer(targetPlan *TypePlan, param string) bool {
	if targetPlan == nil || targetPlan.Bound.Kind != BoundDefault {
		return false
	}
	return targetPlan.Participating[param]
}

// argProvidesSchema reports whether an argument can stand where the
// schema capability is required. Generated named types always can;
// primitives and composites have no method set to offer. A type
// parameter of the enclosing definition can when its own plan
// constrains it, and an explicit bound is taken as the author's claim
// of capability.
func (r *resolver) argProvidesSchema(def *typedef.Definition, arg *typedef.TypeRef, params map[string]bool) bool {
	switch arg.Kind {
	case typedef.RefNamed:
		if params[arg.Name] {
			plan := r.p.planFor(def.Name)
			if plan == nil {
				return false
			}
			switch plan.Bound.Kind {
			case BoundDefault:
				return plan.Participating[arg.Name]
			case BoundExplicit:
				return true
			default:
				return false
			}
		}
		return true
	case typedef.RefInstance:
		return true
	default:
		return false
	}
}

// checkInlineCycles rejects reference cycles that never cross a
// registered definition. An inline schema embeds its target in place,
// so a loop of inline definitions could not be constructed; a
// registered link breaks the loop with a reference.
func (r *resolver) checkInlineCycles() {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	var stack []string

	var visit func(def *typedef.Definition)
	visit = func(def *typedef.Definition) {
		color[def.Name] = gray
		stack = append(stack, def.Name)
		params := make(map[string]bool, len(def.Params))
		for _, name := range def.ParamNames() {
			params[name] = true
		}
		for _, site := range collectSites(def) {
			for _, name := range site.ref.NamedRefs(nil) {
				if params[name] {
					continue
				}
				target := r.p.index.Get(name)
				if target == nil || !target.Inline {
					continue
				}
				switch color[name] {
				case white:
					visit(target)
				case gray:
					cycle := cycleFrom(stack, name)
					r.p.col.Error(diagnostic.CategoryReferenceUnknown, r.p.doc.File, def.Pos.Line, def.Pos.Column,
						fmt.Sprintf("inline definitions form a reference cycle: %s", strings.Join(cycle, " -> ")))
					for _, n := range cycle {
						if plan := r.p.planFor(n); plan != nil {
							plan.Failed = true
						}
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[def.Name] = black
	}

	for _, plan := range r.p.ordered {
		if plan.Def.Inline && color[plan.Def.Name] == white {
			visit(plan.Def)
		}
	}
}

func cycleFrom(stack []string, name string) []string {
	for i, n := range stack {
		if n == name {
			cycle := append([]string(nil), stack[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}

// cascadeFailures fails definitions that reference failed ones, so the
// generated file never names a type that was not generated.
func (r *resolver) cascadeFailures() {
	for {
		changed := false
		for _, plan := range r.p.ordered {
			if plan.Failed {
				continue
			}
			params := make(map[string]bool, len(plan.Def.Params))
			for _, name := range plan.Def.ParamNames() {
				params[name] = true
			}
			dep := ""
			for _, site := range collectSites(plan.Def) {
				for _, name := range site.ref.NamedRefs(nil) {
					if params[name] {
						continue
					}
					if p := r.p.planFor(name); p != nil && p.Failed {
						dep = name
						break
					}
				}
				if dep != "" {
					break
				}
			}
			if dep != "" {
				r.p.col.Error(diagnostic.CategoryReferenceUnknown, r.p.doc.File,
					plan.Def.Pos.Line, plan.Def.Pos.Column,
					fmt.Sprintf("cannot generate %q: it references %q, which has errors", plan.Def.Name, dep))
				plan.Failed = true
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}
