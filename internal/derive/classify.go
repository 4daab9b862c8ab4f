package derive

import (
	"fmt"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

// Classify determines a definition's shape from its own structure. The
// body keys decide: fields make a record (an empty field list is still a
// record), elements make a tuple, alternatives make a union, and none of
// the three makes a unit. A declared shape: key is cross-checked against
// the inference. Classification never looks through referenced types.
//
// On failure an error diagnostic is recorded and ok is false; the
// definition must then produce no output.
func Classify(def *typedef.Definition, file string, col *diagnostic.Collector) (typedef.Shape, bool) {
	bodies := 0
	if def.HasFields {
		bodies++
	}
	if def.HasElements {
		bodies++
	}
	if def.HasAlternatives {
		bodies++
	}
	if bodies > 1 {
		col.Error(diagnostic.CategoryShapeInvalid, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q mixes %s in one body", def.Name, bodyKeys(def)))
		return "", false
	}

	var inferred typedef.Shape
	switch {
	case def.HasAlternatives:
		inferred = typedef.ShapeUnion
	case def.HasFields:
		inferred = typedef.ShapeRecord
	case def.HasElements:
		inferred = typedef.ShapeTuple
	default:
		inferred = typedef.ShapeUnit
	}

	if def.Shape != "" && !knownShape(def.Shape) {
		col.Error(diagnostic.CategoryShapeInvalid, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q declares unknown shape %q", def.Name, def.Shape))
		return "", false
	}
	if def.Shape != "" && def.Shape != inferred {
		col.Error(diagnostic.CategoryShapeInvalid, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q declares shape %q but its body is %s", def.Name, def.Shape, describeBody(inferred)))
		return "", false
	}

	// A tuple with an explicitly empty element list has no sound
	// encoding; an empty record is a valid empty object.
	if inferred == typedef.ShapeTuple && len(def.Elements) == 0 {
		col.Error(diagnostic.CategoryShapeInvalid, file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("definition %q declares an empty element list", def.Name))
		return "", false
	}

	return inferred, true
}

func knownShape(s typedef.Shape) bool {
	switch s {
	case typedef.ShapeRecord, typedef.ShapeTuple, typedef.ShapeUnit, typedef.ShapeUnion:
		return true
	}
	return false
}

func bodyKeys(def *typedef.Definition) string {
	keys := ""
	add := func(k string) {
		if keys != "" {
			keys += " and "
		}
		keys += k
	}
	if def.HasFields {
		add("fields")
	}
	if def.HasElements {
		add("elements")
	}
	if def.HasAlternatives {
		add("alternatives")
	}
	return keys
}

func describeBody(s typedef.Shape) string {
	switch s {
	case typedef.ShapeRecord:
		return "a field list"
	case typedef.ShapeTuple:
		return "an element list"
	case typedef.ShapeUnion:
		return "an alternative list"
	default:
		return "empty"
	}
}
