package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	// Inputs
	if len(c.Inputs) == 0 {
		result.Errors = append(result.Errors, "inputs: at least one pattern required")
	}
	for _, pattern := range c.Inputs {
		if strings.Contains(pattern, "*") {
			continue
		}
		ext := filepath.Ext(pattern)
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("inputs: pattern %q doesn't contain a wildcard or a document extension — did you mean %q?", pattern, pattern+"/**/*.types.yaml"))
		}
	}

	// Output
	if c.OutDir == "" {
		result.Errors = append(result.Errors, "out_dir: must not be empty")
	}

	// Package naming
	if c.Package != "" {
		first := []rune(c.Package)[0]
		if unicode.IsUpper(first) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("package: %q starts with an upper-case letter — Go package names are conventionally lower-case", c.Package))
		}
		if strings.Contains(c.Package, "_") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("package: %q contains an underscore — Go package names are conventionally a single word", c.Package))
		}
	}

	// Preview output is optional; empty means print to stdout.
	if c.Preview.Output != "" {
		if ext := filepath.Ext(c.Preview.Output); ext != ".json" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("preview.output: extension %q is unusual — the preview is always JSON", ext))
		}
	}
	if c.Preview.Title != "" && c.Preview.Version == "" {
		result.Warnings = append(result.Warnings,
			"preview: title is set but version is not — the document will carry version 0.0.0")
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}
