package runner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandInputs walks baseDir and returns the files matching any include
// pattern, sorted. Patterns resolve relative to baseDir and support **
// for any number of path segments.
func ExpandInputs(baseDir string, include []string) []string {
	match := Matcher(baseDir, include)
	var files []string
	filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if match(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

// Matcher returns a predicate deciding whether a walked path matches
// any of the include patterns. The watcher uses the same predicate, so
// watch mode and one-shot runs select identical inputs.
func Matcher(baseDir string, include []string) func(path string) bool {
	return func(path string) bool {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range include {
			if globMatch(rel, filepath.ToSlash(pattern)) {
				return true
			}
		}
		return false
	}
}

// globMatch matches a baseDir-relative path against a glob pattern with
// ** support. A bare pattern without a separator matches by basename,
// so "*.types.yaml" finds documents at any depth; patterns with
// directories stay anchored to them.
func globMatch(relPath, pattern string) bool {
	if matched, _ := filepath.Match(pattern, relPath); matched {
		return true
	}

	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")

		if prefix == "" {
			if suffix == "" {
				return true
			}
			if matched, _ := filepath.Match(suffix, filepath.Base(relPath)); matched {
				return true
			}
			matched, _ := filepath.Match(suffix, relPath)
			return matched
		}

		if !strings.HasPrefix(relPath, prefix+"/") {
			return false
		}
		remaining := relPath[len(prefix)+1:]
		if suffix == "" {
			return true
		}
		if matched, _ := filepath.Match(suffix, filepath.Base(remaining)); matched {
			return true
		}
		matched, _ := filepath.Match(suffix, remaining)
		return matched
	}

	if !strings.Contains(pattern, "/") {
		matched, _ := filepath.Match(pattern, filepath.Base(relPath))
		return matched
	}
	return false
}
