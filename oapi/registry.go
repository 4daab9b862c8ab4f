package oapi

import (
	"sort"
	"sync"
)

// Registry collects named schemas for a components document. It is safe
// for concurrent use; generated ToSchema methods insert into it and hand
// back references.
type Registry struct {
	mu       sync.Mutex
	schemas  map[string]RefOr
	building map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:  make(map[string]RefOr),
		building: make(map[string]bool),
	}
}

// Begin marks symbol as mid-build. It reports false when the symbol is
// already being built, in which case the caller returns a reference
// instead of recursing into its own construction.
func (r *Registry) Begin(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.building[symbol] {
		return false
	}
	r.building[symbol] = true
	return true
}

// Insert registers s under symbol and completes any build begun for it.
// An existing entry is overwritten; the last write wins.
func (r *Registry) Insert(symbol string, s RefOr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[symbol] = s
	delete(r.building, symbol)
}

// Get returns the entry registered under symbol.
func (r *Registry) Get(symbol string) (RefOr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[symbol]
	return s, ok
}

// Has reports whether symbol is registered.
func (r *Registry) Has(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.schemas[symbol]
	return ok
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.schemas)
}

// Symbols returns the registered symbols in sorted order.
func (r *Registry) Symbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	symbols := make([]string, 0, len(r.schemas))
	for symbol := range r.schemas {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Schemas returns a copy of the registered entries keyed by symbol.
func (r *Registry) Schemas() map[string]RefOr {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]RefOr, len(r.schemas))
	for symbol, s := range r.schemas {
		out[symbol] = s
	}
	return out
}
