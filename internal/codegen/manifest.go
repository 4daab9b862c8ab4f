package codegen

import (
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/oapigen/oapigen/internal/derive"
)

// ManifestFileName is the manifest's file name inside the output
// directory.
const ManifestFileName = "oapigen.manifest.json"

// Manifest is the oapigen.manifest.json structure. It maps definition
// names to the generated file and method that build their schemas, so
// tooling can locate schema constructors without parsing Go source.
type Manifest struct {
	Version    string                   `json:"version"`
	ConfigHash string                   `json:"configHash,omitempty"`
	Schemas    map[string]ManifestEntry `json:"schemas"`
}

// ManifestEntry points to a generated file and a method within it.
type ManifestEntry struct {
	File   string `json:"file"`
	Method string `json:"method"`

	// Symbol is the registration symbol when it is known at generation
	// time. Generic definitions compute theirs at runtime and inline
	// definitions never register, so both leave it empty.
	Symbol string `json:"symbol,omitempty"`
}

// NewManifest creates an empty manifest for one generation run.
func NewManifest(version, configHash string) *Manifest {
	return &Manifest{
		Version:    version,
		ConfigHash: configHash,
		Schemas:    make(map[string]ManifestEntry),
	}
}

// AddDocument records the surviving definitions of one planned document.
// genPath is the generated file's path; manifestDir is the directory the
// manifest will live in, used to compute the relative reference.
func (m *Manifest) AddDocument(plan *derive.DocumentPlan, genPath, manifestDir, pkgPath string) {
	file := relPath(manifestDir, genPath)
	for _, p := range plan.Types {
		if p.Failed {
			continue
		}
		entry := ManifestEntry{
			File:   file,
			Method: p.Def.Name + ".ToSchema",
		}
		if !p.Def.IsGeneric() {
			if symbol, ok := derive.PreviewSymbol(p.Symbol, p.Def, nil, pkgPath); ok {
				entry.Symbol = symbol
			}
		}
		m.Schemas[p.Def.Name] = entry
	}
}

// ManifestJSON serializes the manifest to pretty-printed JSON.
func ManifestJSON(m *Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// relPath renders path relative to dir in slash form with an explicit
// leading segment, the way module-relative references are written.
func relPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "./") && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
