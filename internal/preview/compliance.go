package preview

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/oapigen/oapigen/oapi"
)

// Issue is one structural problem found in a preview document.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// CheckDocument walks a preview document and reports structural
// problems: dangling or external references, discriminators whose
// property is missing or optional in an alternative, empty enums, and
// item bounds that contradict prefixItems. A nil return means the
// document passed. Issues come back in a stable order.
func CheckDocument(doc *oapi.Document) []Issue {
	c := &checker{}
	switch {
	case doc.OpenAPI == "":
		c.addf("openapi", "version is required")
	case !strings.HasPrefix(doc.OpenAPI, "3.1"):
		c.addf("openapi", "expected a 3.1 document, got %q", doc.OpenAPI)
	}
	if doc.Info.Title == "" {
		c.addf("info.title", "title is required")
	}
	if doc.Info.Version == "" {
		c.addf("info.version", "version is required")
	}
	if doc.Components == nil {
		return c.issues
	}
	c.schemas = doc.Components.Schemas
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.refOr("components.schemas."+name, c.schemas[name])
	}
	return c.issues
}

// CheckJSON parses data as a preview document and checks it. A parse
// failure comes back as a single issue at the document root.
func CheckJSON(data []byte) []Issue {
	var doc oapi.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Issue{{Path: "document", Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	return CheckDocument(&doc)
}

type checker struct {
	schemas map[string]oapi.RefOr
	issues  []Issue
}

func (c *checker) addf(path, format string, args ...any) {
	c.issues = append(c.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) refOr(path string, entry oapi.RefOr) {
	if entry.Ref != "" {
		if entry.Schema != nil {
			c.addf(path, "reference carries an inline schema")
		}
		c.ref(path, entry.Ref)
		return
	}
	if entry.Schema == nil {
		return // the empty schema, accepts any value
	}
	c.schema(path, entry.Schema)
}

func (c *checker) ref(path, ref string) {
	symbol, ok := strings.CutPrefix(ref, oapi.ComponentsPrefix)
	if !ok {
		c.addf(path, "reference %q points outside components.schemas", ref)
		return
	}
	if _, ok := c.schemas[symbol]; !ok {
		c.addf(path, "reference %q has no registered target", ref)
	}
}

func (c *checker) schema(path string, s *oapi.Schema) {
	if s.Enum != nil && len(s.Enum) == 0 {
		c.addf(path+".enum", "enum lists no values")
	}
	if s.Properties != nil {
		for _, name := range s.Required {
			if _, ok := s.Properties[name]; !ok {
				c.addf(path+".required", "property %q is required but not declared", name)
			}
		}
	}
	if n := len(s.PrefixItems); n > 0 {
		if s.MaxItems != nil && *s.MaxItems < n {
			c.addf(path+".maxItems", "maxItems %d contradicts %d prefix items", *s.MaxItems, n)
		}
	}
	if s.MinItems != nil && s.MaxItems != nil && *s.MinItems > *s.MaxItems {
		c.addf(path+".minItems", "minItems %d exceeds maxItems %d", *s.MinItems, *s.MaxItems)
	}
	if s.Discriminator != nil {
		c.discriminator(path, s)
	}

	// Children in a fixed order so reports are stable.
	props := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	for _, name := range props {
		c.refOr(path+".properties."+name, s.Properties[name])
	}
	if s.AdditionalProperties != nil {
		c.refOr(path+".additionalProperties", *s.AdditionalProperties)
	}
	if s.Items != nil {
		c.refOr(path+".items", *s.Items)
	}
	for i, entry := range s.PrefixItems {
		c.refOr(fmt.Sprintf("%s.prefixItems[%d]", path, i), entry)
	}
	for i, entry := range s.OneOf {
		c.refOr(fmt.Sprintf("%s.oneOf[%d]", path, i), entry)
	}
	for i, entry := range s.AnyOf {
		c.refOr(fmt.Sprintf("%s.anyOf[%d]", path, i), entry)
	}
	for i, entry := range s.AllOf {
		c.refOr(fmt.Sprintf("%s.allOf[%d]", path, i), entry)
	}
	if s.Not != nil {
		c.refOr(path+".not", *s.Not)
	}
}

// discriminator checks that every object alternative of a tagged union
// actually carries the discriminator property and requires it. Dangling
// references are skipped here; the reference walk reports those.
func (c *checker) discriminator(path string, s *oapi.Schema) {
	d := s.Discriminator
	if d.PropertyName == "" {
		c.addf(path+".discriminator", "propertyName is required")
		return
	}
	for i, alt := range s.OneOf {
		target := alt.Schema
		if alt.Ref != "" {
			symbol, ok := strings.CutPrefix(alt.Ref, oapi.ComponentsPrefix)
			if !ok {
				continue
			}
			entry, found := c.schemas[symbol]
			if !found {
				continue
			}
			target = entry.Schema
		}
		if target == nil || target.Properties == nil {
			continue
		}
		altPath := fmt.Sprintf("%s.oneOf[%d]", path, i)
		if _, ok := target.Properties[d.PropertyName]; !ok {
			c.addf(altPath, "alternative lacks discriminator property %q", d.PropertyName)
			continue
		}
		required := false
		for _, name := range target.Required {
			if name == d.PropertyName {
				required = true
				break
			}
		}
		if !required {
			c.addf(altPath, "discriminator property %q is not required", d.PropertyName)
		}
	}
}
