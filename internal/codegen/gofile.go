package codegen

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/oapigen/oapigen/internal/derive"
	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

const (
	oapiImport  = "github.com/oapigen/oapigen/oapi"
	goccyImport = "github.com/goccy/go-json"
)

// File is one generated artifact, formatted and ready to write.
type File struct {
	Name   string
	Source []byte
}

// renderer threads one document's generation state: the plans by name
// for cross-definition lookups and the imports the rendered code needs.
type renderer struct {
	doc   *typedef.Document
	plans map[string]*derive.TypePlan
	deps  map[string]string // import path → alias, "" for none
}

// Generate renders the surviving definitions of a planned document into
// formatted Go source: type declarations in document order, then their
// ToSchema methods in the same order. Failures land in col; a false
// return means no file was produced.
func Generate(plan *derive.DocumentPlan, col *diagnostic.Collector) (*File, bool) {
	r := &renderer{
		doc:   plan.Doc,
		plans: make(map[string]*derive.TypePlan, len(plan.Types)),
		deps:  make(map[string]string),
	}
	for _, p := range plan.Types {
		r.plans[p.Def.Name] = p
	}
	skip := r.checkDeclNames(plan, col)

	emit := func(p *derive.TypePlan) bool {
		return !p.Failed && !skip[p.Def.Name]
	}

	body := NewEmitter()
	for _, p := range plan.Types {
		if emit(p) {
			r.renderDecl(body, p)
		}
	}
	for _, p := range plan.Types {
		if emit(p) {
			r.deps[oapiImport] = ""
			r.renderToSchema(body, p)
		}
	}

	head := NewEmitter()
	head.Line("// Code generated by oapigen. DO NOT EDIT.")
	head.Blank()
	head.Line("package %s", plan.Doc.Package)
	head.Blank()
	r.importBlock(head)

	name := GeneratedFileName(plan.Doc)
	src := head.String() + body.String()
	formatted, err := imports.Process(name, []byte(src), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		col.Error(diagnostic.CategoryEmitFailed, plan.Doc.File, 0, 0,
			fmt.Sprintf("generated code for %s does not format: %v", name, err))
		return nil, false
	}
	return &File{Name: name, Source: formatted}, true
}

// checkDeclNames catches collisions between the top-level identifiers
// the definitions expand to. Variant and constant names are synthesized
// by concatenation, so two definitions can collide without sharing a
// name; the later definition loses, matching duplicate-definition
// precedence in the loader.
func (r *renderer) checkDeclNames(plan *derive.DocumentPlan, col *diagnostic.Collector) map[string]bool {
	taken := make(map[string]string)
	skip := make(map[string]bool)
	for _, p := range plan.Types {
		if p.Failed {
			continue
		}
		names := declaredNames(p)
		clash := ""
		for _, n := range names {
			if owner, ok := taken[n]; ok {
				col.Error(diagnostic.CategoryEmitFailed, plan.Doc.File, p.Def.Pos.Line, p.Def.Pos.Column,
					fmt.Sprintf("definition %q expands to declaration %q, which %q already declares", p.Def.Name, n, owner))
				clash = n
				break
			}
		}
		if clash != "" {
			skip[p.Def.Name] = true
			continue
		}
		for _, n := range names {
			taken[n] = p.Def.Name
		}
	}
	return skip
}

// declaredNames lists every top-level identifier a definition's
// declaration introduces.
func declaredNames(p *derive.TypePlan) []string {
	def := p.Def
	names := []string{def.Name}
	if p.Shape != typedef.ShapeUnion {
		return names
	}
	if unionIsEnum(def) {
		if !def.IsGeneric() {
			for _, alt := range def.Alternatives {
				names = append(names, def.Name+alt.Name)
			}
		}
		return names
	}
	names = append(names, "is"+def.Name)
	for _, alt := range def.Alternatives {
		names = append(names, def.Name+alt.Name)
	}
	return names
}

// importBlock writes the import declaration for the dependencies the
// rendered body noted. Imports are resolved here rather than by the
// formatter, which runs in FormatOnly mode so output never depends on
// what is installed in the environment.
func (r *renderer) importBlock(e *Emitter) {
	if len(r.deps) == 0 {
		return
	}
	var std, ext []string
	for path := range r.deps {
		if strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			ext = append(ext, path)
		} else {
			std = append(std, path)
		}
	}
	sort.Strings(std)
	sort.Strings(ext)

	spec := func(path string) string {
		if alias := r.deps[path]; alias != "" {
			return alias + " " + strconv.Quote(path)
		}
		return strconv.Quote(path)
	}

	e.Line("import (")
	e.Indent()
	for _, path := range std {
		e.Line("%s", spec(path))
	}
	if len(std) > 0 && len(ext) > 0 {
		e.Blank()
	}
	for _, path := range ext {
		e.Line("%s", spec(path))
	}
	e.Dedent()
	e.Line(")")
	e.Blank()
}

// GeneratedFileName derives the output file name for a document: the
// source stem with a .gen.go suffix.
func GeneratedFileName(doc *typedef.Document) string {
	base := filepath.Base(doc.File)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = doc.Package
	}
	return base + ".gen.go"
}
