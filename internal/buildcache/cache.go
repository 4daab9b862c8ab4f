// Package buildcache provides an incremental generation cache for
// oapigen.
//
// When neither the config nor any input document changed since the last
// successful run, generation can be skipped entirely. The cache is
// intentionally conservative: if ANY check fails, the whole pipeline
// runs from scratch. There are no partial invalidation shortcuts,
// because documents generate into one package and a definition rename
// in one file can collide with declarations from another.
package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// SchemaVersion is bumped when the cache format or the generated code
// format changes. A mismatch forces a full rebuild, ensuring binary
// upgrades don't leave stale outputs behind.
const SchemaVersion = 1

// Cache records what was true when generation last ran successfully.
type Cache struct {
	// V is the schema version. Must match SchemaVersion or the cache is
	// invalid.
	V int `json:"v"`

	// ConfigHash is the SHA-256 hex digest of the config file content.
	// Empty string means no config file was used.
	ConfigHash string `json:"configHash"`

	// Inputs maps each input document path to the SHA-256 hex digest of
	// its content at generation time.
	Inputs map[string]string `json:"inputs"`

	// Outputs lists the paths of generated files that must still exist
	// on disk for the cache to be valid.
	Outputs []string `json:"outputs"`
}

// CacheFileName is the cache's file name inside the output directory.
const CacheFileName = ".oapigen-cache.json"

// CachePath returns the cache file path inside the output directory.
// The cache lives with the generated files so that deleting the output
// directory also removes it, guaranteeing a fresh build.
func CachePath(outDir string) string {
	return filepath.Join(outDir, CacheFileName)
}

// Load reads and parses a cache file from disk. It returns nil if the
// file doesn't exist, is unreadable, or is invalid JSON. Callers treat
// nil as "cache miss" and run the full pipeline.
func Load(path string) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}

	return &c
}

// Save writes the cache to disk atomically (write to temp, rename).
// Callers may log and continue on error; a failed save just means the
// next run won't benefit from caching.
func Save(path string, cache *Cache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}

	return nil
}

// Delete removes the cache file from disk. Errors are ignored (the file
// may not exist).
func Delete(path string) {
	os.Remove(path)
}

// IsValid checks whether the cache can be trusted to skip generation.
// ALL of the following must hold simultaneously:
//
//  1. Schema version matches (catches binary upgrades)
//  2. Config hash matches the current config file content
//  3. The input set is identical, file for file and hash for hash
//  4. Every recorded output still exists on disk
func (c *Cache) IsValid(configHash string, inputs map[string]string) bool {
	if c == nil {
		return false
	}

	if c.V != SchemaVersion {
		return false
	}

	if c.ConfigHash != configHash {
		return false
	}

	if len(c.Inputs) != len(inputs) {
		return false
	}
	for path, hash := range inputs {
		if c.Inputs[path] != hash {
			return false
		}
	}

	for _, path := range c.Outputs {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}

	return true
}

// HashFile computes the SHA-256 hex digest of a file's contents. It
// returns the empty string if the file doesn't exist or can't be read;
// a later pipeline stage reports the real error.
func HashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashFiles hashes every path and returns the digest map IsValid
// compares against.
func HashFiles(paths []string) map[string]string {
	hashes := make(map[string]string, len(paths))
	for _, path := range paths {
		hashes[path] = HashFile(path)
	}
	return hashes
}

// New creates a Cache with the current schema version.
func New(configHash string, inputs map[string]string, outputs []string) *Cache {
	return &Cache{
		V:          SchemaVersion,
		ConfigHash: configHash,
		Inputs:     inputs,
		Outputs:    outputs,
	}
}
