// Package workspace orchestrates the per-document pipeline (parse,
// convert, symbol-table build) and the workspace-lifetime indices that
// hang off it: global symbols, contract patterns, completion, virtual
// documents, and diagnostics.
package workspace

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/f1r3fly-io/rholang-analyzer/internal/completion"
	"github.com/f1r3fly-io/rholang-analyzer/internal/config"
	"github.com/f1r3fly-io/rholang-analyzer/internal/cst"
	"github.com/f1r3fly-io/rholang-analyzer/internal/cst/rhoparse"
	"github.com/f1r3fly-io/rholang-analyzer/internal/diag"
	"github.com/f1r3fly-io/rholang-analyzer/internal/feature"
	"github.com/f1r3fly-io/rholang-analyzer/internal/index"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/parser"
	"github.com/f1r3fly-io/rholang-analyzer/internal/pattern"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/reactive"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
	"github.com/f1r3fly-io/rholang-analyzer/internal/text"
	"github.com/f1r3fly-io/rholang-analyzer/internal/virtualdoc"
)

// ParseFunc produces a CST for source text: the external-parser seam.
// The default is the built-in subset parser; deployments with a real
// grammar convert through cst.FromSitter instead.
type ParseFunc func(source []byte) *cst.Node

// Workspace is the analyzer session state: every index is rebuilt from
// source at startup; nothing persists.
type Workspace struct {
	Docs        *index.Documents
	Global      *index.Global
	Patterns    *pattern.Index
	Completions *completion.Dictionary
	Virtual     *virtualdoc.Registry
	Diags       *diag.Store
	Features    *feature.Provider
	Events      *reactive.Broadcaster

	cfg    config.Config
	parse  ParseFunc
	logger *slog.Logger
}

// Option adjusts workspace construction.
type Option func(*Workspace)

// WithParser swaps the CST producer.
func WithParser(p ParseFunc) Option {
	return func(w *Workspace) { w.parse = p }
}

// WithLogger sets the workspace logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// New creates an empty workspace wired per cfg.
func New(cfg config.Config, opts ...Option) *Workspace {
	w := &Workspace{
		Docs:        index.NewDocuments(),
		Global:      index.NewGlobal(),
		Patterns:    pattern.NewIndex(pattern.Config{EnableTypeConstraints: cfg.EnableTypeConstraints}),
		Completions: completion.NewDictionary(cfg.FuzzyMaxDistance),
		Virtual:     virtualdoc.NewRegistry(),
		Diags:       diag.NewStore(),
		Events:      reactive.NewBroadcaster(),
		cfg:         cfg,
		parse:       func(source []byte) *cst.Node { return rhoparse.Parse(string(source)) },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	for lang, channels := range cfg.Languages {
		w.Virtual.RegisterLanguage(lang, nil, channels...)
	}
	feature.SeedKeywords(w.Completions)

	w.Features = &feature.Provider{
		Docs:           w.Docs,
		Global:         w.Global,
		Patterns:       w.Patterns,
		Completions:    w.Completions,
		Virtual:        w.Virtual,
		MaxCompletions: cfg.MaxCompletions,
	}
	return w
}

// RegisterEmbeddedParser wires an embedded-language parser callback.
func (w *Workspace) RegisterEmbeddedParser(lang string, p virtualdoc.EmbeddedParser) {
	channels := w.cfg.Languages[lang]
	w.Virtual.RegisterLanguage(lang, p, channels...)
}

// ParseAndIndex runs the whole per-document pipeline and atomically
// replaces the document's entry. Callers batch Link after a group of
// documents; single-document updates link immediately via Update.
func (w *Workspace) ParseAndIndex(uri string, source []byte) *index.Entry {
	old, hadOld := w.Docs.Get(uri)

	doc, diags := parser.Convert(uri, w.parse(source), source)
	pos, _ := ir.Reconstruct(doc.Root, position.Zero)
	table := symbols.Build(uri, doc, pos)

	entry := &index.Entry{
		URI:     uri,
		Version: 1,
		Source:  source,
		Lines:   text.NewLineIndex(source),
		Doc:     doc,
		Table:   table,
	}
	if hadOld {
		entry.Version = old.Version + 1
	}

	// Swap per-name index entries: out with the old document's, in with
	// the new.
	w.Global.RemoveURI(uri)
	w.Patterns.RemoveURI(uri)
	w.Global.AddTable(table)
	for _, c := range table.Contracts() {
		w.Patterns.Add(c)
	}
	w.Docs.Put(entry)

	w.refreshCompletions(oldNames(old, hadOld), table)

	_, overlapDiags := w.Virtual.Update(uri, doc, pos, source)
	w.Diags.Publish(uri, append(diags, overlapDiags...))

	changeType := reactive.ChangeFileAdded
	if hadOld {
		changeType = reactive.ChangeFileModified
	}
	w.Events.Publish(reactive.Event{
		FileCount:   w.Docs.Len(),
		SymbolCount: w.SymbolCount(),
		ChangeType:  changeType,
	})
	return entry
}

// Update re-indexes one document and immediately re-links the workspace:
// the single-file edit path.
func (w *Workspace) Update(uri string, source []byte) *index.Entry {
	entry := w.ParseAndIndex(uri, source)
	w.Link()
	return entry
}

// Remove drops a closed document and everything it contributed.
func (w *Workspace) Remove(uri string) {
	entry, ok := w.Docs.Get(uri)
	if !ok {
		return
	}
	w.Docs.Delete(uri)
	w.Global.RemoveURI(uri)
	w.Patterns.RemoveURI(uri)
	w.Virtual.DropParent(uri)
	w.Diags.Drop(uri)
	for _, name := range tableNames(entry.Table) {
		w.Completions.Remove(name)
	}
	w.Events.Publish(reactive.Event{
		FileCount:   w.Docs.Len(),
		SymbolCount: w.SymbolCount(),
		ChangeType:  reactive.ChangeFileRemoved,
	})
}

// Link resolves every document's pending contract calls against the
// pattern index. It runs at batch boundaries so readers never observe
// half-linked references, and it is idempotent.
func (w *Workspace) Link() {
	for _, uri := range w.Docs.URIs() {
		entry, ok := w.Docs.Get(uri)
		if !ok {
			continue
		}
		entry.Table.ClearCallReferences()
	}
	for _, uri := range w.Docs.URIs() {
		entry, ok := w.Docs.Get(uri)
		if !ok {
			continue
		}
		for _, call := range entry.Table.PendingCalls() {
			sym, ok := w.Patterns.ResolveCall(call)
			if !ok {
				continue
			}
			entry.Table.AddCallReference(sym, call.Location)
		}
	}

	// Reference counts moved; refresh contract completion metadata.
	for _, uri := range w.Docs.URIs() {
		entry, ok := w.Docs.Get(uri)
		if !ok {
			continue
		}
		for _, c := range entry.Table.Contracts() {
			w.Completions.Insert(c.Name, completionMeta(c))
		}
	}
}

// SymbolCount totals declared symbols across every document.
func (w *Workspace) SymbolCount() int {
	total := 0
	for _, uri := range w.Docs.URIs() {
		if entry, ok := w.Docs.Get(uri); ok {
			total += len(entry.Table.AllSymbols())
		}
	}
	return total
}

// refreshCompletions diffs the old document's names against the new
// table: gone names are removed, live ones inserted or updated.
func (w *Workspace) refreshCompletions(old []string, table *symbols.Table) {
	fresh := make(map[string]bool)
	for _, sym := range table.AllSymbols() {
		if strings.HasPrefix(sym.Name, "@complex_") {
			continue
		}
		fresh[sym.Name] = true
		w.Completions.Insert(sym.Name, completionMeta(sym))
	}
	for _, name := range old {
		if !fresh[name] {
			w.Completions.Remove(name)
		}
	}
}

func completionMeta(sym *symbols.Symbol) completion.Meta {
	m := completion.Meta{
		Kind:           string(sym.Kind),
		Documentation:  sym.Documentation,
		ReferenceCount: sym.ReferenceCount,
	}
	if sym.Kind == symbols.KindContract && sym.Pattern != nil {
		m.Signature = fmt.Sprintf("%s/%d", sym.Name, sym.Pattern.Arity())
	}
	return m
}

func oldNames(entry *index.Entry, had bool) []string {
	if !had {
		return nil
	}
	return tableNames(entry.Table)
}

func tableNames(table *symbols.Table) []string {
	var out []string
	for _, sym := range table.AllSymbols() {
		if !strings.HasPrefix(sym.Name, "@complex_") {
			out = append(out, sym.Name)
		}
	}
	return out
}
