package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config is the oapigen configuration.
type Config struct {
	// Inputs holds glob patterns selecting type documents, resolved
	// relative to the config file's directory. Patterns support ** for
	// any number of path segments.
	Inputs []string `yaml:"inputs" json:"inputs"`

	// OutDir receives one generated Go file per input document, plus
	// the manifest.
	OutDir string `yaml:"out_dir" json:"out_dir"`

	// Package overrides the generated package name. Empty keeps each
	// document's own package.
	Package string `yaml:"package,omitempty" json:"package,omitempty"`

	// PackagePath is the import path of the generated package. Preview
	// and manifest symbols reproduce runtime type names built from it;
	// empty falls back to the package name.
	PackagePath string `yaml:"package_path,omitempty" json:"package_path,omitempty"`

	// Strict makes any error suppress every output file and promotes
	// warnings to errors.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	Preview PreviewConfig `yaml:"preview,omitempty" json:"preview,omitempty"`
}

// PreviewConfig adjusts the components preview the dump subcommand
// emits.
type PreviewConfig struct {
	// Output is the path dump writes to. Empty prints to stdout.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	// Title and Version fill the preview document's info object. They
	// default to the package name and 0.0.0.
	Title   string `yaml:"title,omitempty" json:"title,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Inputs: []string{"*.types.yaml"},
		OutDir: ".",
	}
}

// configNames lists the file names Discover looks for, in priority
// order.
var configNames = []string{
	"oapigen.config.yml",
	"oapigen.config.yaml",
	"oapigen.config.json",
}

// Discover walks upward from start looking for a config file. It
// returns the first hit, or an empty string when no directory up to the
// filesystem root has one.
func Discover(start string) string {
	dir := start
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads and parses a config file, dispatching on the extension:
// .yml and .yaml parse as YAML, .json as JSON. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	config := DefaultConfig()
	switch ext := filepath.Ext(path); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q in %q (want .yml, .yaml, or .json)", ext, path)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %q: %w", path, err)
	}

	return &config, nil
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("inputs must have at least one pattern")
	}

	if c.OutDir == "" {
		return fmt.Errorf("out_dir must not be empty")
	}

	if c.Package != "" && !token.IsIdentifier(c.Package) {
		return fmt.Errorf("package %q is not a valid Go identifier", c.Package)
	}

	if c.PackagePath != "" {
		if strings.ContainsAny(c.PackagePath, " \t") {
			return fmt.Errorf("package_path %q must not contain whitespace", c.PackagePath)
		}
		if strings.HasPrefix(c.PackagePath, "/") || strings.HasSuffix(c.PackagePath, "/") {
			return fmt.Errorf("package_path %q must not start or end with a slash", c.PackagePath)
		}
	}

	if c.Preview.Output != "" {
		if ext := filepath.Ext(c.Preview.Output); ext != ".json" {
			return fmt.Errorf("preview.output must have a .json extension, got %q", ext)
		}
	}

	return nil
}
