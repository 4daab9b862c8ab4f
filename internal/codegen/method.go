package codegen

import (
	"strconv"

	"github.com/oapigen/oapigen/internal/derive"
)

// renderToSchema writes the ToSchema method for one surviving
// definition. Registered symbols go through the begin/insert guard so a
// recursive schema terminates with a reference to itself; inline
// definitions hand their schema back in place.
func (r *renderer) renderToSchema(e *Emitter, p *derive.TypePlan) {
	inst := p.Def.Name + r.instSuffix(p)
	e.Block("func (v %s) ToSchema(reg *oapi.Registry) oapi.RefOr", inst)
	if p.Symbol.Kind == derive.SymbolInline {
		e.Line("return %s", p.Fragment.Expr)
		e.EndBlock()
		e.Blank()
		return
	}

	switch p.Symbol.Kind {
	case derive.SymbolLiteral:
		e.Line("symbol := %s", strconv.Quote(p.Symbol.Literal))
	case derive.SymbolSpliced:
		e.Line("symbol := oapi.SpliceSymbol[%s](%s)", inst, strconv.Quote(p.Symbol.Literal))
	default:
		e.Line("symbol := oapi.TypeNameOf[%s]()", inst)
	}
	e.Block("if !reg.Begin(symbol)")
	e.Line("return oapi.SchemaRef(symbol)")
	e.EndBlock()
	e.Line("reg.Insert(symbol, %s)", p.Fragment.Expr)
	e.Line("return oapi.SchemaRef(symbol)")
	e.EndBlock()
	e.Blank()
}
