// Package runner orchestrates the generation pipeline: input
// discovery, loading, planning, rendering, and output writing, with an
// incremental cache in front.
package runner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oapigen/oapigen/internal/buildcache"
	"github.com/oapigen/oapigen/internal/codegen"
	"github.com/oapigen/oapigen/internal/config"
	"github.com/oapigen/oapigen/internal/derive"
	"github.com/oapigen/oapigen/internal/diagnostic"
	"github.com/oapigen/oapigen/internal/loader"
	"github.com/oapigen/oapigen/internal/preview"
	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

// Options carries one run's settings.
type Options struct {
	// Config is the loaded configuration. ConfigPath is where it came
	// from, empty when defaults are in use; it feeds the config hash in
	// the manifest and the cache.
	Config     config.Config
	ConfigPath string

	// BaseDir is the directory input patterns and relative outputs
	// resolve against, normally the config file's directory.
	BaseDir string

	// Version is the tool version recorded in the manifest.
	Version string

	// Force bypasses the build cache.
	Force bool

	// Quiet suppresses warning output.
	Quiet bool
}

// Result reports what a run did. Diagnostics, including every error,
// are on the Collector.
type Result struct {
	Collector *diagnostic.Collector
	Inputs    []string
	Written   []string
	UpToDate  bool
}

// Failed reports whether the run produced errors.
func (r *Result) Failed() bool {
	return r.Collector.HasErrors()
}

// Generate runs the full pipeline and writes generated files, the
// manifest, and the cache into the output directory. In strict mode any
// error suppresses every output; otherwise failed definitions drop out
// of their files and the rest still generate.
func Generate(opts Options) *Result {
	p := newPipeline(opts)
	res := &Result{Collector: p.col}

	p.discover()
	res.Inputs = p.inputs
	if p.col.HasErrors() {
		return res
	}

	var configHash string
	if opts.ConfigPath != "" {
		configHash = buildcache.HashFile(opts.ConfigPath)
	}
	cachePath := buildcache.CachePath(p.outDir())
	inputHashes := buildcache.HashFiles(p.inputs)
	if !opts.Force && buildcache.Load(cachePath).IsValid(configHash, inputHashes) {
		res.UpToDate = true
		return res
	}

	p.load()
	p.plan()
	files, manifest := p.renderAll(configHash)

	if p.col.HasErrors() {
		// Errors always invalidate the cache; in strict mode they also
		// suppress every output.
		buildcache.Delete(cachePath)
		if opts.Config.Strict {
			return res
		}
	}

	outDir := p.outDir()
	if len(files) > 0 || manifest != nil {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			p.col.Error(diagnostic.CategoryEmitFailed, outDir, 0, 0,
				fmt.Sprintf("create output directory: %v", err))
			return res
		}
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.source, 0o644); err != nil {
			p.col.Error(diagnostic.CategoryEmitFailed, f.path, 0, 0,
				fmt.Sprintf("write generated file: %v", err))
			continue
		}
		res.Written = append(res.Written, f.path)
	}
	if manifest != nil {
		path := filepath.Join(outDir, codegen.ManifestFileName)
		if err := os.WriteFile(path, manifest, 0o644); err != nil {
			p.col.Error(diagnostic.CategoryEmitFailed, path, 0, 0,
				fmt.Sprintf("write manifest: %v", err))
		} else {
			res.Written = append(res.Written, path)
		}
	}

	if !p.col.HasErrors() {
		if err := buildcache.Save(cachePath, buildcache.New(configHash, inputHashes, res.Written)); err != nil {
			p.col.Warn(diagnostic.CategoryEmitFailed, cachePath, 0, 0,
				fmt.Sprintf("cache not saved: %v", err))
		}
	}

	return res
}

// Check runs the pipeline without writing anything: load, plan, and
// render problems all surface as diagnostics, and the would-be preview
// document is checked for structural compliance.
func Check(opts Options) *Result {
	p := newPipeline(opts)
	res := &Result{Collector: p.col}

	p.discover()
	res.Inputs = p.inputs
	if p.col.HasErrors() {
		return res
	}

	p.load()
	p.plan()
	p.renderAll("")

	for _, issue := range preview.CheckDocument(p.previewDoc()) {
		p.col.Warn(diagnostic.CategoryOpenAPICompliance, "", 0, 0, issue.Error())
	}

	return res
}

// Dump runs the pipeline up to planning and writes the deterministic
// components preview to w. In strict mode any error suppresses the
// output.
func Dump(opts Options, w io.Writer) *Result {
	p := newPipeline(opts)
	res := &Result{Collector: p.col}

	p.discover()
	res.Inputs = p.inputs
	if p.col.HasErrors() {
		return res
	}

	p.load()
	p.plan()

	if opts.Config.Strict && p.col.HasErrors() {
		return res
	}

	data, err := preview.MarshalDocument(p.previewDoc())
	if err != nil {
		p.col.Error(diagnostic.CategoryEmitFailed, "", 0, 0,
			fmt.Sprintf("marshal preview: %v", err))
		return res
	}
	if _, err := w.Write(data); err != nil {
		p.col.Error(diagnostic.CategoryEmitFailed, "", 0, 0,
			fmt.Sprintf("write preview: %v", err))
	}

	return res
}

type pipeline struct {
	opts Options
	col  *diagnostic.Collector

	inputs  []string
	docs    []*typedef.Document
	plans   []*derive.DocumentPlan
	pkg     string
	pkgPath string
}

type genFile struct {
	path   string
	source []byte
}

func newPipeline(opts Options) *pipeline {
	return &pipeline{
		opts: opts,
		col:  diagnostic.NewCollector(opts.Config.Strict, opts.Quiet),
	}
}

func (p *pipeline) outDir() string {
	out := p.opts.Config.OutDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(p.opts.BaseDir, out)
	}
	return out
}

func (p *pipeline) discover() {
	p.inputs = ExpandInputs(p.opts.BaseDir, p.opts.Config.Inputs)
	if len(p.inputs) == 0 {
		p.col.Error(diagnostic.CategoryConfigInvalid, "", 0, 0,
			fmt.Sprintf("no input documents match %v under %s", p.opts.Config.Inputs, p.opts.BaseDir))
	}
}

func (p *pipeline) load() {
	for _, path := range p.inputs {
		doc, err := loader.Load(path, p.col)
		if err != nil {
			p.col.Error(diagnostic.CategoryDocumentInvalid, path, 0, 0, err.Error())
			continue
		}
		p.docs = append(p.docs, doc)
	}
}

// plan resolves the target package, plans every document, and rejects
// definition names that collide across documents. Generated files share
// one directory and one package, so document namespaces merge.
func (p *pipeline) plan() {
	p.pkg = p.opts.Config.Package
	if p.pkg != "" {
		for _, doc := range p.docs {
			doc.Package = p.pkg
		}
	} else {
		for _, doc := range p.docs {
			if p.pkg == "" {
				p.pkg = doc.Package
				continue
			}
			if doc.Package != p.pkg {
				p.col.Error(diagnostic.CategoryConfigInvalid, doc.File, 0, 0,
					fmt.Sprintf("document package %q differs from %q: generated files share one directory; set package: in the config to override", doc.Package, p.pkg))
				// Unify anyway so a non-strict run still writes files
				// that compile together.
				doc.Package = p.pkg
			}
		}
	}
	p.pkgPath = p.opts.Config.PackagePath
	if p.pkgPath == "" {
		p.pkgPath = p.pkg
	}

	for _, doc := range p.docs {
		p.plans = append(p.plans, derive.PlanDocument(doc, p.col, derive.Options{PackagePath: p.pkgPath}))
	}

	byName := make(map[string]string)
	for _, plan := range p.plans {
		for _, tp := range plan.Types {
			if tp.Failed {
				continue
			}
			if prev, ok := byName[tp.Def.Name]; ok {
				p.col.Error(diagnostic.CategoryDocumentInvalid, plan.Doc.File, tp.Def.Pos.Line, tp.Def.Pos.Column,
					fmt.Sprintf("definition %q is already declared in %s", tp.Def.Name, prev))
				tp.Failed = true
				continue
			}
			byName[tp.Def.Name] = plan.Doc.File
		}
	}
}

// renderAll generates every document's file and assembles the manifest.
// Inputs whose generated file name collides with an earlier one are
// dropped with an error.
func (p *pipeline) renderAll(configHash string) ([]genFile, []byte) {
	m := codegen.NewManifest(p.opts.Version, configHash)
	outDir := p.outDir()
	seen := make(map[string]string)
	var files []genFile
	for _, plan := range p.plans {
		name := codegen.GeneratedFileName(plan.Doc)
		if prev, ok := seen[name]; ok {
			p.col.Error(diagnostic.CategoryConfigInvalid, plan.Doc.File, 0, 0,
				fmt.Sprintf("generated file %q collides with the one from %s; rename one input", name, prev))
			continue
		}
		seen[name] = plan.Doc.File

		file, ok := codegen.Generate(plan, p.col)
		if !ok {
			continue
		}
		genPath := filepath.Join(outDir, file.Name)
		files = append(files, genFile{path: genPath, source: file.Source})
		m.AddDocument(plan, genPath, outDir, p.pkgPath)
	}

	if len(files) == 0 {
		return nil, nil
	}
	data, err := codegen.ManifestJSON(m)
	if err != nil {
		p.col.Error(diagnostic.CategoryEmitFailed, "", 0, 0, fmt.Sprintf("marshal manifest: %v", err))
		return files, nil
	}
	return files, append(data, '\n')
}

func (p *pipeline) previewDoc() *oapi.Document {
	title := p.opts.Config.Preview.Title
	if title == "" {
		title = p.pkg
	}
	if title == "" {
		title = "oapigen"
	}
	version := p.opts.Config.Preview.Version
	if version == "" {
		version = "0.0.0"
	}
	return preview.Build(title, version, p.pkgPath, p.plans...)
}
