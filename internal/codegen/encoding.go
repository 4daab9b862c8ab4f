package codegen

import (
	"strconv"
	"strings"

	"github.com/oapigen/oapigen/internal/derive"
)

// tupleMarshalers writes the JSON methods that encode a positional
// struct as an array. A single element encodes transparently, matching
// the collapsed schema.
func (r *renderer) tupleMarshalers(e *Emitter, inst string, n int) {
	r.deps[goccyImport] = "json"

	e.Block("func (v %s) MarshalJSON() ([]byte, error)", inst)
	if n == 1 {
		e.Line("return json.Marshal(v.F0)")
	} else {
		elems := make([]string, n)
		for i := range elems {
			elems[i] = "v.F" + strconv.Itoa(i)
		}
		e.Line("return json.Marshal([]any{%s})", strings.Join(elems, ", "))
	}
	e.EndBlock()
	e.Blank()

	e.Block("func (v *%s) UnmarshalJSON(data []byte) error", inst)
	if n == 1 {
		e.Line("return json.Unmarshal(data, &v.F0)")
	} else {
		e.Line("var parts [%d]json.RawMessage", n)
		e.Block("if err := json.Unmarshal(data, &parts); err != nil")
		e.Line("return err")
		e.EndBlock()
		for i := 0; i < n; i++ {
			e.Block("if err := json.Unmarshal(parts[%d], &v.F%d); err != nil", i, i)
			e.Line("return err")
			e.EndBlock()
		}
		e.Line("return nil")
	}
	e.EndBlock()
}

// unionMarshalers writes the JSON methods for a boxed union wrapper.
// Tagged unions inject and dispatch on the discriminator property;
// untagged unions encode the held alternative directly and decode by
// trying each alternative in declaration order.
func (r *renderer) unionMarshalers(e *Emitter, p *derive.TypePlan) {
	def := p.Def
	inst := def.Name + r.instSuffix(p)
	r.deps["fmt"] = ""
	r.deps[goccyImport] = "json"

	e.Block("func (v %s) MarshalJSON() ([]byte, error)", inst)
	switch {
	case len(def.Alternatives) == 0:
		e.Line(`return nil, fmt.Errorf("%s holds no alternative")`, def.Name)
	case def.Tag != "":
		e.Block("switch alt := v.Value.(type)")
		for _, alt := range def.Alternatives {
			e.Case("case %s:", def.Name+alt.Name+r.instSuffix(p))
			e.Line("return oapi.MarshalTagged(%s, %s, alt)",
				strconv.Quote(def.Tag), strconv.Quote(derive.EncodedAltName(def.RenameAll, alt)))
		}
		e.EndBlock()
		e.Line(`return nil, fmt.Errorf("%s holds no alternative")`, def.Name)
	default:
		e.Block("if v.Value == nil")
		e.Line(`return nil, fmt.Errorf("%s holds no alternative")`, def.Name)
		e.EndBlock()
		e.Line("return json.Marshal(v.Value)")
	}
	e.EndBlock()
	e.Blank()

	e.Block("func (v *%s) UnmarshalJSON(data []byte) error", inst)
	switch {
	case len(def.Alternatives) == 0:
		e.Line(`return fmt.Errorf("no alternative of %s matches")`, def.Name)
	case def.Tag != "":
		e.Line("tag, err := oapi.TagValue(data, %s)", strconv.Quote(def.Tag))
		e.Block("if err != nil")
		e.Line("return err")
		e.EndBlock()
		e.Block("switch tag")
		for _, alt := range def.Alternatives {
			e.Case("case %s:", strconv.Quote(derive.EncodedAltName(def.RenameAll, alt)))
			if alt.HasFields {
				e.Line("var alt %s", def.Name+alt.Name+r.instSuffix(p))
				e.Block("if err := json.Unmarshal(data, &alt); err != nil")
				e.Line("return err")
				e.EndBlock()
				e.Line("v.Value = alt")
			} else {
				e.Line("v.Value = %s{}", def.Name+alt.Name+r.instSuffix(p))
			}
		}
		e.Case("default:")
		e.Line(`return fmt.Errorf("unknown %s %%q", tag)`, def.Tag)
		e.EndBlock()
		e.Line("return nil")
	default:
		// Alternatives are tried in declaration order; the first that
		// decodes wins.
		for i, alt := range def.Alternatives {
			e.Line("var alt%d %s", i, def.Name+alt.Name+r.instSuffix(p))
			e.Block("if err := json.Unmarshal(data, &alt%d); err == nil", i)
			e.Line("v.Value = alt%d", i)
			e.Line("return nil")
			e.EndBlock()
		}
		e.Line(`return fmt.Errorf("no alternative of %s matches")`, def.Name)
	}
	e.EndBlock()
}
