package derive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

type altKind int

const (
	altUnit altKind = iota
	altRecord
	altPositional
)

func (k altKind) String() string {
	switch k {
	case altRecord:
		return "record"
	case altPositional:
		return "positional"
	default:
		return "unit"
	}
}

// buildUnion constructs the schema for a union definition. All-unit
// unions without a tag collapse to a string enum; tagged unions become
// oneOf with an injected discriminator constant per alternative;
// untagged unions require uniform alternative bodies.
func (b *buildContext) buildUnion(ann annotations, depth int) Fragment {
	def := b.def
	alts := def.Alternatives

	if len(alts) == 0 {
		b.p.col.Warn(diagnostic.CategoryUnionEncoding, b.file, def.Pos.Line, def.Pos.Column,
			fmt.Sprintf("union %q has no alternatives; its schema accepts no value", def.Name))
		return b.neverFragment(ann, depth)
	}

	kinds := make([]altKind, len(alts))
	for i, alt := range alts {
		if alt.HasFields && alt.HasElements {
			b.fail(diagnostic.CategoryShapeInvalid, alt.Pos,
				"alternative %q mixes fields and elements in one body", alt.Name)
			return emptyFragment()
		}
		switch {
		case alt.HasFields:
			kinds[i] = altRecord
		case alt.HasElements:
			if len(alt.Elements) == 0 {
				b.fail(diagnostic.CategoryShapeInvalid, alt.Pos,
					"alternative %q declares an empty element list", alt.Name)
				return emptyFragment()
			}
			kinds[i] = altPositional
		default:
			kinds[i] = altUnit
		}
	}

	tagged := def.Tag != ""

	allUnit := true
	for _, k := range kinds {
		if k != altUnit {
			allUnit = false
			break
		}
	}
	if allUnit && !tagged {
		return b.enumFragment(alts, ann, depth)
	}

	if tagged {
		for i, alt := range alts {
			if kinds[i] == altPositional {
				b.p.col.ErrorWithHint(diagnostic.CategoryUnionEncoding, b.file, alt.Pos.Line, alt.Pos.Column,
					fmt.Sprintf("alternative %q of %q is positional; an internally tagged union has no property to carry the tag", alt.Name, def.Name),
					"use a record alternative, or drop tag: for a plain oneOf")
				b.plan.Failed = true
				return emptyFragment()
			}
		}
	} else {
		first := kinds[0]
		for _, k := range kinds[1:] {
			if k != first {
				b.p.col.ErrorWithHint(diagnostic.CategoryUnionEncoding, b.file, def.Pos.Line, def.Pos.Column,
					fmt.Sprintf("union %q mixes %s and %s alternatives without a tag", def.Name, first, k),
					fmt.Sprintf("set tag: on %q for internal tagging, or make the alternative bodies uniform", def.Name))
				b.plan.Failed = true
				return emptyFragment()
			}
		}
	}

	var oneOf []oapi.RefOr
	var oneParts []string
	seen := make(map[string]bool)
	for i, alt := range alts {
		name := b.encodedAltName(alt)
		if seen[name] {
			b.fail(diagnostic.CategoryUnionEncoding, alt.Pos,
				"duplicate alternative name %q after renaming", name)
			continue
		}
		seen[name] = true

		altAnn := annotations{description: alt.Description}
		var frag Fragment
		switch kinds[i] {
		case altRecord:
			var tc *tagConst
			if tagged {
				tc = &tagConst{name: def.Tag, value: name}
			}
			frag = b.buildRecord(alt.Fields, "", altAnn, tc, alt.Pos, depth+2)
		case altPositional:
			frag = b.buildTuple(alt.Elements, altAnn, alt.Pos, depth+2)
		default:
			frag = b.tagOnlyFragment(def.Tag, name, altAnn, depth+2)
		}
		oneOf = append(oneOf, frag.Value)
		oneParts = append(oneParts, frag.Expr)
	}

	s := &oapi.Schema{OneOf: oneOf}
	if tagged {
		s.Discriminator = &oapi.Discriminator{PropertyName: def.Tag}
	}
	applyAnnotations(s, ann)

	parts := headParts(s)
	var sb strings.Builder
	sb.WriteString("OneOf: []oapi.RefOr{\n")
	for _, p := range oneParts {
		sb.WriteString(tabs(depth + 2))
		sb.WriteString(p)
		sb.WriteString(",\n")
	}
	sb.WriteString(tabs(depth + 1))
	sb.WriteString("}")
	parts = append(parts, sb.String())
	if tagged {
		parts = append(parts, "Discriminator: &oapi.Discriminator{PropertyName: "+strconv.Quote(def.Tag)+"}")
	}
	parts = append(parts, tailParts(s)...)

	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}

func (b *buildContext) encodedAltName(alt typedef.Alternative) string {
	return EncodedAltName(b.def.RenameAll, alt)
}

// enumFragment renders an all-unit union as a string enum of the
// encoded alternative names.
func (b *buildContext) enumFragment(alts []typedef.Alternative, ann annotations, depth int) Fragment {
	enum := make([]any, 0, len(alts))
	seen := make(map[string]bool)
	for _, alt := range alts {
		name := b.encodedAltName(alt)
		if seen[name] {
			b.fail(diagnostic.CategoryUnionEncoding, alt.Pos,
				"duplicate alternative name %q after renaming", name)
			continue
		}
		seen[name] = true
		enum = append(enum, name)
	}
	s := &oapi.Schema{Type: "string", Enum: enum}
	applyAnnotations(s, ann)
	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLeaf(s, depth) + ")",
	}
}

// tagOnlyFragment renders a unit alternative of a tagged union: an
// object whose only property is the discriminator constant.
func (b *buildContext) tagOnlyFragment(tag, value string, ann annotations, depth int) Fragment {
	tagSchema := &oapi.Schema{Type: "string", Const: value}
	s := &oapi.Schema{
		Type:       "object",
		Properties: map[string]oapi.RefOr{tag: oapi.Inline(tagSchema)},
		Required:   []string{tag},
	}
	applyAnnotations(s, ann)

	parts := headParts(s)
	var sb strings.Builder
	sb.WriteString("Properties: map[string]oapi.RefOr{\n")
	sb.WriteString(tabs(depth + 2))
	sb.WriteString(strconv.Quote(tag) + ": oapi.Inline(" + renderLeaf(tagSchema, depth+2) + ")")
	sb.WriteString(",\n")
	sb.WriteString(tabs(depth + 1))
	sb.WriteString("}")
	parts = append(parts, sb.String())
	parts = append(parts, "Required: "+renderStrings(s.Required))
	parts = append(parts, tailParts(s)...)

	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}

// neverFragment renders the schema no value satisfies.
func (b *buildContext) neverFragment(ann annotations, depth int) Fragment {
	s := oapi.Never()
	applyAnnotations(s, ann)
	if ann.empty() {
		return Fragment{Value: oapi.Inline(s), Expr: "oapi.Inline(oapi.Never())"}
	}
	parts := headParts(s)
	parts = append(parts, "Not: oapi.Ptr(oapi.Inline(oapi.Empty()))")
	parts = append(parts, tailParts(s)...)
	return Fragment{
		Value: oapi.Inline(s),
		Expr:  "oapi.Inline(" + renderLiteral(depth, parts) + ")",
	}
}

func emptyFragment() Fragment {
	return Fragment{Value: oapi.Inline(oapi.Empty()), Expr: "oapi.Inline(oapi.Empty())"}
}
