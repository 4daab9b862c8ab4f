package oapi

// Document is a minimal OpenAPI 3.1 document carrying registered schemas.
// oapigen uses it for component previews; path and operation modeling is
// out of scope.
type Document struct {
	OpenAPI    string      `json:"openapi"`
	Info       Info        `json:"info"`
	Components *Components `json:"components,omitempty"`
}

// Info is the OpenAPI info object.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Components holds the reusable objects of a document. Schema entries
// may themselves be references, so the map carries RefOr values.
type Components struct {
	Schemas map[string]RefOr `json:"schemas,omitempty"`
}

// NewDocument assembles a preview document from the registry contents.
func NewDocument(title, version string, reg *Registry) *Document {
	doc := &Document{
		OpenAPI: "3.1.0",
		Info:    Info{Title: title, Version: version},
	}
	if reg != nil && reg.Len() > 0 {
		doc.Components = &Components{Schemas: reg.Schemas()}
	}
	return doc
}
