package derive

import (
	"fmt"
	"strings"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

// SchemerConstraint is the capability constraint planned onto generic
// parameters that participate in schema derivation.
const SchemerConstraint = "oapi.Schemer"

// BoundKind says how a definition's generic parameters are constrained.
type BoundKind int

const (
	// BoundDefault constrains participating parameters to the schema
	// capability; bodies call it directly.
	BoundDefault BoundKind = iota
	// BoundSkip leaves all parameters unconstrained; bodies derive
	// parameter schemas reflectively.
	BoundSkip
	// BoundExplicit splices the author's constraint list verbatim;
	// bodies derive parameter schemas reflectively.
	BoundExplicit
)

// BoundPlan is the planned constraint surface for one definition.
type BoundPlan struct {
	Kind BoundKind

	// TypeParams is the rendered type-parameter list for the generated
	// declaration, without the enclosing brackets. Empty for non-generic
	// definitions.
	TypeParams string

	// Reflective reports that schema bodies look parameters up through
	// reflection instead of calling the capability on a zero value.
	Reflective bool
}

// PlanBound decides the constraints on a definition's generic parameters
// and how its schema body obtains parameter schemas. skip_bound is
// checked strictly before bound: when both are set, skip wins and the
// ignored bound is reported. With neither, every parameter that
// participates in the derivation is constrained to the capability and
// phantom parameters stay unconstrained. Declared parameter defaults
// never reach the generated declaration.
func PlanBound(def *typedef.Definition, file string, col *diagnostic.Collector) BoundPlan {
	if !def.IsGeneric() {
		return BoundPlan{Kind: BoundDefault}
	}

	for _, p := range def.Params {
		if p.Default != "" {
			col.Info(diagnostic.CategoryGenericParameter, file, p.Pos.Line, p.Pos.Column,
				fmt.Sprintf("parameter %s of %q declares default %q; generated declarations carry no defaults", p.Name, def.Name, p.Default))
		}
	}

	if def.SkipBound {
		if def.Bound != "" {
			col.Warn(diagnostic.CategoryBoundConflict, file, def.Pos.Line, def.Pos.Column,
				fmt.Sprintf("definition %q sets both skip_bound and bound; skip_bound wins and the bound is ignored", def.Name))
		}
		return BoundPlan{Kind: BoundSkip, TypeParams: renderParams(def, nil), Reflective: true}
	}

	if def.Bound != "" {
		return BoundPlan{Kind: BoundExplicit, TypeParams: strings.TrimSpace(def.Bound), Reflective: true}
	}

	return BoundPlan{Kind: BoundDefault, TypeParams: renderParams(def, participatingParams(def)), Reflective: false}
}

// participatingParams reports which parameters the schema derivation
// actually consumes. Skipped fields and schema_with fields contribute
// nothing.
func participatingParams(def *typedef.Definition) map[string]bool {
	out := make(map[string]bool, len(def.Params))
	for _, p := range def.Params {
		out[p.Name] = false
	}
	mark := func(ref *typedef.TypeRef) {
		for name := range out {
			if !out[name] && ref.Mentions(name) {
				out[name] = true
			}
		}
	}
	for _, f := range def.Fields {
		if f.Skip || f.SchemaWith != "" {
			continue
		}
		mark(f.Type)
	}
	for _, e := range def.Elements {
		mark(e.Type)
	}
	for _, alt := range def.Alternatives {
		for _, f := range alt.Fields {
			if f.Skip || f.SchemaWith != "" {
				continue
			}
			mark(f.Type)
		}
		for _, e := range alt.Elements {
			mark(e.Type)
		}
	}
	return out
}

// renderParams renders the type-parameter list, grouping neighbors that
// share a constraint. A nil participation map constrains nothing.
func renderParams(def *typedef.Definition, participating map[string]bool) string {
	names := def.ParamNames()
	constraint := func(name string) string {
		if participating != nil && participating[name] {
			return SchemerConstraint
		}
		return "any"
	}

	var sb strings.Builder
	for i := 0; i < len(names); {
		c := constraint(names[i])
		j := i
		for j+1 < len(names) && constraint(names[j+1]) == c {
			j++
		}
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strings.Join(names[i:j+1], ", "))
		sb.WriteString(" ")
		sb.WriteString(c)
		i = j + 1
	}
	return sb.String()
}
