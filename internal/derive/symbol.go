package derive

import (
	"strings"

	"github.com/oapigen/oapigen/internal/typedef"
)

// SymbolKind says how a definition's registration name is obtained.
type SymbolKind int

const (
	// SymbolInline suppresses registration; the schema embeds in place.
	SymbolInline SymbolKind = iota
	// SymbolLiteral registers under a generation-time literal.
	SymbolLiteral
	// SymbolSpliced registers under the override spliced with the
	// runtime generic-argument suffix.
	SymbolSpliced
	// SymbolTypeName registers under the runtime type name.
	SymbolTypeName
)

// SymbolPlan is the planned registration name for one definition.
type SymbolPlan struct {
	Kind SymbolKind
	// Literal holds the normalized symbol for SymbolLiteral and the raw
	// override for SymbolSpliced.
	Literal string
}

// PlanSymbol decides the name a definition registers under. Precedence:
// inline suppresses the symbol entirely; an override on a non-generic
// definition becomes a generation-time literal with path separators
// normalized; an override on a generic definition splices the runtime
// argument suffix at runtime; otherwise the runtime type name is the
// symbol.
func PlanSymbol(def *typedef.Definition) SymbolPlan {
	if def.Inline {
		return SymbolPlan{Kind: SymbolInline}
	}
	if def.Symbol != "" {
		if !def.IsGeneric() {
			return SymbolPlan{Kind: SymbolLiteral, Literal: normalizeSymbol(def.Symbol)}
		}
		return SymbolPlan{Kind: SymbolSpliced, Literal: def.Symbol}
	}
	return SymbolPlan{Kind: SymbolTypeName}
}

// normalizeSymbol rewrites path separators to dots.
func normalizeSymbol(s string) string {
	s = strings.ReplaceAll(s, "::", ".")
	return strings.ReplaceAll(s, "/", ".")
}

// PreviewSymbol reproduces the symbol the generated code computes at
// runtime. pkgPath is the import path of the generated package; args are
// the concrete type arguments of an instantiation, already free of type
// parameters. ok is false for inline plans.
func PreviewSymbol(plan SymbolPlan, def *typedef.Definition, args []*typedef.TypeRef, pkgPath string) (string, bool) {
	switch plan.Kind {
	case SymbolInline:
		return "", false
	case SymbolLiteral:
		return plan.Literal, true
	case SymbolSpliced:
		if len(args) == 0 {
			// No argument suffix at runtime: the full name wins.
			return runtimeTypeName(def.Name, args, pkgPath), true
		}
		return plan.Literal + argSuffix(args, pkgPath), true
	default:
		return strings.ReplaceAll(runtimeTypeName(def.Name, args, pkgPath), "/", "."), true
	}
}

// runtimeTypeName renders the name the Go runtime reports for the
// generated type: import path, dot, type name, and the argument suffix
// for instantiations. Path separators stay intact; TypeNameOf-style
// normalization is the caller's concern.
func runtimeTypeName(name string, args []*typedef.TypeRef, pkgPath string) string {
	full := name
	if pkgPath != "" {
		full = pkgPath + "." + name
	}
	return full + argSuffix(args, pkgPath)
}

func argSuffix(args []*typedef.TypeRef, pkgPath string) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = argText(a, pkgPath)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// argText renders one type argument the way reflect prints it inside an
// instantiated type name.
func argText(ref *typedef.TypeRef, pkgPath string) string {
	switch ref.Kind {
	case typedef.RefPrimitive:
		info, _ := typedef.Primitive(ref.Name)
		if ref.Name == "bytes" {
			// reflect renders []byte as []uint8
			return "[]uint8"
		}
		return info.GoType
	case typedef.RefNamed:
		if pkgPath != "" {
			return pkgPath + "." + ref.Name
		}
		return ref.Name
	case typedef.RefInstance:
		return runtimeTypeName(ref.Name, ref.Args, pkgPath)
	case typedef.RefSlice:
		return "[]" + argText(ref.Elem, pkgPath)
	case typedef.RefMap:
		return "map[string]" + argText(ref.Elem, pkgPath)
	case typedef.RefPointer:
		return "*" + argText(ref.Elem, pkgPath)
	default:
		return ref.Name
	}
}
