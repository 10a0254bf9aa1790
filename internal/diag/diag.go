// Package diag carries the analyzer's error taxonomy and the per-URI
// diagnostics store, including the merge point for out-of-process
// validator results.
package diag

import (
	"sync"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// Severity of a diagnostic, in LSP order.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Code is a machine-readable classification for JSON output and tests.
type Code string

const (
	CodeParseError    Code = "ERR_PARSE"
	CodePositionError Code = "ERR_POSITION"
	CodeRegionOverlap Code = "ERR_REGION_OVERLAP"
	CodeTimeout       Code = "ERR_TIMEOUT"
	CodeExternal      Code = "ERR_EXTERNAL"
)

// SourceCore marks diagnostics produced by the analyzer itself;
// SourceExternal marks merged validator results.
const (
	SourceCore     = "rholang-analyzer"
	SourceExternal = "external-validator"
)

// Diagnostic is one reportable condition attached to a document range.
type Diagnostic struct {
	URI      string        `json:"uri"`
	Range    position.Span `json:"range"`
	Severity Severity      `json:"severity"`
	Code     Code          `json:"code,omitempty"`
	Source   string        `json:"source"`
	Message  string        `json:"message"`
}

// Store keeps the latest diagnostics per URI, core and external merged.
// Writers replace whole per-URI sets (last-write-wins); readers see a
// consistent snapshot.
type Store struct {
	mu       sync.RWMutex
	core     map[string][]Diagnostic
	external map[string][]Diagnostic
}

// NewStore creates an empty diagnostics store.
func NewStore() *Store {
	return &Store{
		core:     make(map[string][]Diagnostic),
		external: make(map[string][]Diagnostic),
	}
}

// Publish replaces the core diagnostics for uri.
func (s *Store) Publish(uri string, ds []Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.core[uri] = ds
}

// MergeExternal replaces the external-validator diagnostics for uri. The
// source field is forced so mixed origins stay distinguishable.
func (s *Store) MergeExternal(uri string, ds []Diagnostic) {
	for i := range ds {
		ds[i].Source = SourceExternal
		if ds[i].Code == "" {
			ds[i].Code = CodeExternal
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external[uri] = ds
}

// For returns the merged set for uri, core first.
func (s *Store) For(uri string) []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Diagnostic, 0, len(s.core[uri])+len(s.external[uri]))
	out = append(out, s.core[uri]...)
	out = append(out, s.external[uri]...)
	return out
}

// Drop removes everything recorded for uri, core and external.
func (s *Store) Drop(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.core, uri)
	delete(s.external, uri)
}

// URIs returns every URI with at least one diagnostic.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(s.core))
	var out []string
	for uri := range s.core {
		if !seen[uri] {
			seen[uri] = true
			out = append(out, uri)
		}
	}
	for uri := range s.external {
		if !seen[uri] {
			seen[uri] = true
			out = append(out, uri)
		}
	}
	return out
}
