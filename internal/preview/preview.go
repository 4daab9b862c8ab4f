// Package preview assembles the components document a generated package
// would register at runtime, without compiling or running it. The dump
// subcommand serializes the result; check validates it.
package preview

import (
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/oapigen/oapigen/internal/derive"
	"github.com/oapigen/oapigen/oapi"
)

// Populate inserts the registrations plan's generated code performs at
// runtime: every registered non-generic definition under its predicted
// symbol, and every discovered generic instantiation under its
// materialized symbol. Inline and failed definitions contribute
// nothing. pkgPath must be the package path the plan was built with,
// or the predicted symbols drift from the generated ones.
func Populate(reg *oapi.Registry, plan *derive.DocumentPlan, pkgPath string) {
	for _, p := range plan.Types {
		if p.Failed || p.Def.IsGeneric() {
			continue
		}
		symbol, ok := derive.PreviewSymbol(p.Symbol, p.Def, nil, pkgPath)
		if !ok {
			continue
		}
		reg.Insert(symbol, p.Fragment.Value)
	}
	for _, inst := range plan.Instantiations {
		reg.Insert(inst.Symbol, inst.Value)
	}
}

// Build assembles the preview document for a set of plans generated
// into one package.
func Build(title, version, pkgPath string, plans ...*derive.DocumentPlan) *oapi.Document {
	reg := oapi.NewRegistry()
	for _, plan := range plans {
		Populate(reg, plan, pkgPath)
	}
	return oapi.NewDocument(title, version, reg)
}

// MarshalDocument renders doc as indented JSON with deterministic key
// order, so preview files diff cleanly between runs. The result ends
// in a newline.
func MarshalDocument(doc *oapi.Document) ([]byte, error) {
	data, err := jsonv2.Marshal(doc,
		jsonv2.Deterministic(true),
		jsontext.WithIndent("  "),
	)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
