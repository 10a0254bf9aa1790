// Package index holds workspace-lifetime state: the cross-file contract
// index behind goto-definition and the concurrent document map.
package index

import (
	"sync"

	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
	"github.com/f1r3fly-io/rholang-analyzer/internal/text"
)

// Global maps contract names to declaration symbols across every file in
// the workspace. Writers update per-name entries; readers never block
// each other.
type Global struct {
	mu     sync.RWMutex
	byName map[string][]*symbols.Symbol
	byURI  map[string][]string
}

// NewGlobal creates an empty global symbol index.
func NewGlobal() *Global {
	return &Global{
		byName: make(map[string][]*symbols.Symbol),
		byURI:  make(map[string][]string),
	}
}

// AddTable registers every contract a document's table declared.
func (g *Global) AddTable(t *symbols.Table) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sym := range t.Contracts() {
		g.byName[sym.Name] = append(g.byName[sym.Name], sym)
		g.byURI[t.URI] = append(g.byURI[t.URI], sym.Name)
	}
}

// RemoveURI drops every entry contributed by uri.
func (g *Global) RemoveURI(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, name := range g.byURI[uri] {
		var kept []*symbols.Symbol
		for _, s := range g.byName[name] {
			if s.DeclarationURI != uri {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			g.byName[name] = kept
		} else {
			delete(g.byName, name)
		}
	}
	delete(g.byURI, uri)
}

// Lookup returns the declarations recorded under name, in registration
// order.
func (g *Global) Lookup(name string) []*symbols.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*symbols.Symbol(nil), g.byName[name]...)
}

// First returns the first declaration for name.
func (g *Global) First(name string) (*symbols.Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if syms := g.byName[name]; len(syms) > 0 {
		return syms[0], true
	}
	return nil, false
}

// Names returns every indexed contract name.
func (g *Global) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.byName))
	for name := range g.byName {
		out = append(out, name)
	}
	return out
}

// Entry is the per-document bundle the document map stores. A rebuild
// replaces the whole entry atomically.
type Entry struct {
	URI     string
	Version int
	Source  []byte
	Lines   *text.LineIndex
	Doc     *ir.Document
	Table   *symbols.Table
}

// Documents is the workspace document map: written rarely, read often.
type Documents struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewDocuments creates an empty document map.
func NewDocuments() *Documents {
	return &Documents{entries: make(map[string]*Entry)}
}

// Put replaces the entry for e.URI.
func (d *Documents) Put(e *Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[e.URI] = e
}

// Get returns the entry for uri.
func (d *Documents) Get(uri string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[uri]
	return e, ok
}

// Delete removes the entry for uri.
func (d *Documents) Delete(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, uri)
}

// Len returns the number of tracked documents.
func (d *Documents) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// URIs returns every tracked document URI.
func (d *Documents) URIs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.entries))
	for uri := range d.entries {
		out = append(out, uri)
	}
	return out
}
