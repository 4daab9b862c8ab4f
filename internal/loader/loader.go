// Package loader parses IDL documents into the typedef model. YAML
// inputs go through the yaml.v3 node API so every definition and field
// carries its source position into diagnostics; JSON inputs go through
// the JSON driver with best-effort positions.
package loader

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/typedef"
)

// Load reads and parses one IDL document. I/O and syntax failures
// return an error; recoverable per-definition problems become
// diagnostics on col, and the offending definitions are marked so
// planning skips them.
func Load(path string, col *diagnostic.Collector) (*typedef.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(data, path, col)
	}
	return Parse(data, path, col)
}

// Parse parses YAML IDL source. file is used in diagnostics only.
func Parse(data []byte, file string, col *diagnostic.Collector) (*typedef.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("parse %s: empty document", file)
		}
		node = node.Content[0]
	}
	d := &decoder{file: file, col: col}
	return d.document(node)
}

// parseJSON accepts .json inputs. The decoded value is re-encoded as a
// node tree so one extraction path serves both syntaxes; positions are
// zero.
func parseJSON(data []byte, file string, col *diagnostic.Collector) (*typedef.Document, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	d := &decoder{file: file, col: col}
	return d.document(&node)
}

type decoder struct {
	file string
	col  *diagnostic.Collector

	// failed accumulates while one definition's body parses; the
	// definition is kept by name but planning skips it.
	failed bool
}

func (d *decoder) pos(n *yaml.Node) typedef.Position {
	return typedef.Position{Line: n.Line, Column: n.Column}
}

func (d *decoder) errf(n *yaml.Node, format string, args ...any) {
	d.col.Error(diagnostic.CategoryDocumentInvalid, d.file, n.Line, n.Column, fmt.Sprintf(format, args...))
}

func (d *decoder) warnf(n *yaml.Node, format string, args ...any) {
	d.col.Warn(diagnostic.CategoryDocumentInvalid, d.file, n.Line, n.Column, fmt.Sprintf(format, args...))
}

// bad reports an error that makes the current definition unusable.
func (d *decoder) bad(n *yaml.Node, format string, args ...any) {
	d.errf(n, format, args...)
	d.failed = true
}

func (d *decoder) document(n *yaml.Node) (*typedef.Document, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: document root must be a mapping", d.file)
	}
	doc := &typedef.Document{File: d.file}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "package":
			doc.Package, _ = d.scalar(value, "package")
		case "types":
			if !isNull(value) {
				if value.Kind != yaml.SequenceNode {
					return nil, fmt.Errorf("parse %s: types must be a list", d.file)
				}
				for _, item := range value.Content {
					if def := d.definition(item); def != nil {
						doc.Types = append(doc.Types, def)
					}
				}
			}
		default:
			d.warnf(key, "unknown key %q at document level", key.Value)
		}
	}

	if doc.Package == "" {
		return nil, fmt.Errorf("parse %s: missing package name", d.file)
	}
	if !token.IsIdentifier(doc.Package) {
		return nil, fmt.Errorf("parse %s: package %q is not a valid Go identifier", d.file, doc.Package)
	}

	// Duplicates keep the first definition; the rest are reported and
	// stay in the document so the index can skip them by identity.
	first := make(map[string]int, len(doc.Types))
	for _, def := range doc.Types {
		if line, dup := first[def.Name]; dup {
			d.col.Error(diagnostic.CategoryDocumentInvalid, d.file, def.Pos.Line, def.Pos.Column,
				fmt.Sprintf("duplicate definition %q (first declared on line %d)", def.Name, line))
			continue
		}
		first[def.Name] = def.Pos.Line
	}
	return doc, nil
}

// definition parses one type entry. A nil return means the entry had no
// usable name; otherwise the definition is returned even when its body
// failed, with LoadFailed set.
func (d *decoder) definition(n *yaml.Node) *typedef.Definition {
	if n.Kind != yaml.MappingNode {
		d.errf(n, "type entry must be a mapping")
		return nil
	}
	d.failed = false
	def := &typedef.Definition{Pos: d.pos(n)}
	var nameNode *yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			def.Name, _ = d.scalar(value, "name")
			nameNode = value
		case "shape":
			s, _ := d.scalar(value, "shape")
			def.Shape = typedef.Shape(s)
		case "description":
			def.Description, _ = d.scalar(value, "description")
		case "deprecated":
			def.Deprecated = d.boolean(value, "deprecated")
		case "inline":
			def.Inline = d.boolean(value, "inline")
		case "symbol":
			def.Symbol, _ = d.scalar(value, "symbol")
		case "skip_bound":
			def.SkipBound = d.boolean(value, "skip_bound")
		case "bound":
			def.Bound, _ = d.scalar(value, "bound")
		case "rename_all":
			def.RenameAll, _ = d.scalar(value, "rename_all")
		case "tag":
			def.Tag, _ = d.scalar(value, "tag")
		case "xml":
			def.XML = d.xml(value)
		case "params":
			def.Params = d.params(value)
		case "fields":
			def.HasFields = true
			def.Fields = d.fieldList(value)
		case "elements":
			def.HasElements = true
			def.Elements = d.elementList(value)
		case "alternatives":
			def.HasAlternatives = true
			def.Alternatives = d.alternativeList(value)
		default:
			d.warnf(key, "unknown key %q in type definition", key.Value)
		}
	}

	if def.Name == "" {
		d.errf(n, "type entry needs a name")
		return nil
	}
	if !token.IsIdentifier(def.Name) || !ast.IsExported(def.Name) {
		d.errf(nameNode, "type name %q must be an exported Go identifier", def.Name)
		return nil
	}
	def.LoadFailed = d.failed
	return def
}

func (d *decoder) params(n *yaml.Node) []typedef.Param {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.bad(n, "params must be a list")
		return nil
	}
	var out []typedef.Param
	for _, item := range n.Content {
		p := typedef.Param{Pos: d.pos(item)}
		switch item.Kind {
		case yaml.ScalarNode:
			p.Name = item.Value
		case yaml.MappingNode:
			for i := 0; i+1 < len(item.Content); i += 2 {
				key, value := item.Content[i], item.Content[i+1]
				switch key.Value {
				case "name":
					p.Name, _ = d.scalar(value, "param name")
				case "default":
					p.Default, _ = d.scalar(value, "param default")
				default:
					d.warnf(key, "unknown key %q in param", key.Value)
				}
			}
		default:
			d.bad(item, "param entry must be a name or a mapping")
			continue
		}
		if !token.IsIdentifier(p.Name) {
			d.bad(item, "param name %q is not a valid Go identifier", p.Name)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (d *decoder) fieldList(n *yaml.Node) []typedef.Field {
	if isNull(n) {
		return nil // an explicitly empty field list is an empty record
	}
	if n.Kind != yaml.SequenceNode {
		d.bad(n, "fields must be a list")
		return nil
	}
	var out []typedef.Field
	seen := make(map[string]bool, len(n.Content))
	for _, item := range n.Content {
		f, ok := d.field(item)
		if !ok {
			continue
		}
		if seen[f.Name] {
			d.bad(item, "duplicate field %q", f.Name)
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}

func (d *decoder) field(n *yaml.Node) (typedef.Field, bool) {
	var f typedef.Field
	if n.Kind != yaml.MappingNode {
		d.bad(n, "field entry must be a mapping")
		return f, false
	}
	f.Pos = d.pos(n)
	var nameNode *yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			f.Name, _ = d.scalar(value, "field name")
			nameNode = value
		case "type":
			f.Type = d.typeRef(value)
		case "rename":
			f.Rename, _ = d.scalar(value, "rename")
		case "optional":
			f.Optional = d.boolean(value, "optional")
		case "skip":
			f.Skip = d.boolean(value, "skip")
		case "flatten":
			f.Flatten = d.boolean(value, "flatten")
		case "schema_with":
			f.SchemaWith, _ = d.scalar(value, "schema_with")
		case "description":
			f.Description, _ = d.scalar(value, "description")
		case "deprecated":
			f.Deprecated = d.boolean(value, "deprecated")
		case "nullable":
			f.Nullable = d.boolean(value, "nullable")
		case "xml":
			f.XML = d.xml(value)
		case "constraints":
			f.Constraints = d.constraints(value)
		default:
			d.warnf(key, "unknown key %q in field", key.Value)
		}
	}

	if f.Name == "" {
		d.bad(n, "field entry needs a name")
		return f, false
	}
	if !token.IsIdentifier(f.Name) || !ast.IsExported(f.Name) {
		d.bad(nameNode, "field name %q must be an exported Go identifier", f.Name)
		return f, false
	}
	if f.Type == nil && f.SchemaWith == "" && !f.Skip {
		d.bad(n, "field %q needs type: or schema_with:", f.Name)
		return f, false
	}
	return f, true
}

func (d *decoder) elementList(n *yaml.Node) []typedef.Element {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.bad(n, "elements must be a list")
		return nil
	}
	var out []typedef.Element
	for _, item := range n.Content {
		if e, ok := d.element(item); ok {
			out = append(out, e)
		}
	}
	return out
}

func (d *decoder) element(n *yaml.Node) (typedef.Element, bool) {
	e := typedef.Element{Pos: d.pos(n)}

	// Scalar shorthand: the element is just its type reference.
	if n.Kind == yaml.ScalarNode {
		e.Type = d.typeRef(n)
		return e, e.Type != nil
	}
	if n.Kind != yaml.MappingNode {
		d.bad(n, "element entry must be a type or a mapping")
		return e, false
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "type":
			e.Type = d.typeRef(value)
		case "description":
			e.Description, _ = d.scalar(value, "description")
		case "nullable":
			e.Nullable = d.boolean(value, "nullable")
		case "constraints":
			e.Constraints = d.constraints(value)
		default:
			d.warnf(key, "unknown key %q in element", key.Value)
		}
	}
	if e.Type == nil {
		d.bad(n, "element entry needs a type")
		return e, false
	}
	return e, true
}

func (d *decoder) alternativeList(n *yaml.Node) []typedef.Alternative {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.bad(n, "alternatives must be a list")
		return nil
	}
	var out []typedef.Alternative
	seen := make(map[string]bool, len(n.Content))
	for _, item := range n.Content {
		alt, ok := d.alternative(item)
		if !ok {
			continue
		}
		if seen[alt.Name] {
			d.bad(item, "duplicate alternative %q", alt.Name)
			continue
		}
		seen[alt.Name] = true
		out = append(out, alt)
	}
	return out
}

func (d *decoder) alternative(n *yaml.Node) (typedef.Alternative, bool) {
	var alt typedef.Alternative
	if n.Kind != yaml.MappingNode {
		d.bad(n, "alternative entry must be a mapping")
		return alt, false
	}
	alt.Pos = d.pos(n)
	var nameNode *yaml.Node
	declared := ""

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			alt.Name, _ = d.scalar(value, "alternative name")
			nameNode = value
		case "rename":
			alt.Rename, _ = d.scalar(value, "rename")
		case "description":
			alt.Description, _ = d.scalar(value, "description")
		case "shape":
			declared, _ = d.scalar(value, "shape")
		case "fields":
			alt.HasFields = true
			alt.Fields = d.fieldList(value)
		case "elements":
			alt.HasElements = true
			alt.Elements = d.elementList(value)
		case "alternatives":
			d.bad(key, "alternative %q cannot itself hold alternatives", alt.Name)
		default:
			d.warnf(key, "unknown key %q in alternative", key.Value)
		}
	}

	if alt.Name == "" {
		d.bad(n, "alternative entry needs a name")
		return alt, false
	}
	if !token.IsIdentifier(alt.Name) || !ast.IsExported(alt.Name) {
		d.bad(nameNode, "alternative name %q must be an exported Go identifier", alt.Name)
		return alt, false
	}

	if declared != "" {
		inferred := "unit"
		switch {
		case alt.HasFields:
			inferred = "record"
		case alt.HasElements:
			inferred = "tuple"
		}
		switch declared {
		case "record", "tuple", "unit":
			if declared != inferred {
				d.bad(n, "alternative %q declares shape %q but its body is %s", alt.Name, declared, inferred)
				return alt, false
			}
		default:
			d.bad(n, "alternative %q declares shape %q; alternatives may be record, tuple, or unit", alt.Name, declared)
			return alt, false
		}
	}
	return alt, true
}

func (d *decoder) constraints(n *yaml.Node) *typedef.Constraints {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		d.bad(n, "constraints must be a mapping")
		return nil
	}
	c := &typedef.Constraints{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "format":
			if s, ok := d.scalar(value, "format"); ok {
				c.Format = &s
			}
		case "pattern":
			if s, ok := d.scalar(value, "pattern"); ok {
				c.Pattern = &s
			}
		case "enum":
			if value.Kind != yaml.SequenceNode {
				d.bad(value, "enum must be a list")
				continue
			}
			for _, item := range value.Content {
				c.Enum = append(c.Enum, d.anyValue(item))
			}
		case "minimum":
			c.Minimum = d.float(value, "minimum")
		case "maximum":
			c.Maximum = d.float(value, "maximum")
		case "exclusive_minimum":
			c.ExclusiveMinimum = d.float(value, "exclusive_minimum")
		case "exclusive_maximum":
			c.ExclusiveMaximum = d.float(value, "exclusive_maximum")
		case "multiple_of":
			c.MultipleOf = d.float(value, "multiple_of")
		case "min_length":
			c.MinLength = d.integer(value, "min_length")
		case "max_length":
			c.MaxLength = d.integer(value, "max_length")
		case "min_items":
			c.MinItems = d.integer(value, "min_items")
		case "max_items":
			c.MaxItems = d.integer(value, "max_items")
		case "unique_items":
			v := d.boolean(value, "unique_items")
			c.UniqueItems = &v
		case "example":
			c.Example = d.anyValue(value)
		case "default":
			c.Default = d.anyValue(value)
		default:
			d.warnf(key, "unknown constraint %q", key.Value)
		}
	}
	return c
}

func (d *decoder) xml(n *yaml.Node) *typedef.XML {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		d.bad(n, "xml must be a mapping")
		return nil
	}
	x := &typedef.XML{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			x.Name, _ = d.scalar(value, "xml name")
		case "namespace":
			x.Namespace, _ = d.scalar(value, "xml namespace")
		case "prefix":
			x.Prefix, _ = d.scalar(value, "xml prefix")
		case "attribute":
			x.Attribute = d.boolean(value, "xml attribute")
		case "wrapped":
			x.Wrapped = d.boolean(value, "xml wrapped")
		default:
			d.warnf(key, "unknown key %q in xml", key.Value)
		}
	}
	return x
}

func (d *decoder) typeRef(n *yaml.Node) *typedef.TypeRef {
	s, ok := d.scalar(n, "type")
	if !ok {
		return nil
	}
	ref, err := typedef.ParseRef(s)
	if err != nil {
		d.bad(n, "invalid type reference %q: %v", s, err)
		return nil
	}
	return ref
}

// scalar returns a node's text. Non-string scalars keep their source
// text, so version-like symbols survive the YAML resolver.
func (d *decoder) scalar(n *yaml.Node, what string) (string, bool) {
	if n.Kind != yaml.ScalarNode || isNull(n) {
		d.bad(n, "%s must be a string", what)
		return "", false
	}
	return n.Value, true
}

func (d *decoder) boolean(n *yaml.Node, what string) bool {
	var b bool
	if err := n.Decode(&b); err != nil {
		d.bad(n, "%s must be true or false", what)
		return false
	}
	return b
}

func (d *decoder) float(n *yaml.Node, what string) *float64 {
	var f float64
	if err := n.Decode(&f); err != nil {
		d.bad(n, "%s must be a number", what)
		return nil
	}
	return &f
}

// integer accepts float-tagged whole numbers, which is what JSON inputs
// produce.
func (d *decoder) integer(n *yaml.Node, what string) *int {
	var f float64
	if err := n.Decode(&f); err != nil {
		d.bad(n, "%s must be an integer", what)
		return nil
	}
	i := int(f)
	if float64(i) != f {
		d.bad(n, "%s must be an integer, got %s", what, n.Value)
		return nil
	}
	return &i
}

func (d *decoder) anyValue(n *yaml.Node) any {
	var v any
	if err := n.Decode(&v); err != nil {
		d.bad(n, "invalid value: %v", err)
		return nil
	}
	return v
}

func isNull(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}
