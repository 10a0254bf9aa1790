// Package feature implements the language-agnostic resolvers the LSP
// request layer consumes: goto-definition, hover, references, rename,
// completion, and document symbols, all built on the symbol tables and
// the workspace indices.
package feature

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/completion"
	"github.com/f1r3fly-io/rholang-analyzer/internal/index"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/pattern"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
	"github.com/f1r3fly-io/rholang-analyzer/internal/virtualdoc"
)

// Provider bundles the state every resolver needs.
type Provider struct {
	Docs        *index.Documents
	Global      *index.Global
	Patterns    *pattern.Index
	Completions *completion.Dictionary
	Virtual     *virtualdoc.Registry

	// MaxCompletions caps completion results; zero means the default 20.
	MaxCompletions int
}

// FindNodeAt returns the deepest node containing p plus its ancestor
// path, outermost first. Containment is byte-inclusive at the right
// boundary: a cursor one past a name's end still hits the name.
func FindNodeAt(root ir.Node, pos *ir.PositionMap, p position.Position) (ir.Node, []ir.Node) {
	var path []ir.Node
	var deepest ir.Node

	var descend func(ir.Node)
	descend = func(n ir.Node) {
		span, ok := pos.Span(n)
		if !ok || !span.Contains(p) {
			return
		}
		if deepest != nil {
			path = append(path, deepest)
		}
		deepest = n
		for _, c := range n.Children() {
			if c == nil {
				continue
			}
			if s, ok := pos.Span(c); ok && s.Contains(p) {
				descend(c)
				return
			}
		}
	}
	descend(root)
	return deepest, path
}

// SymbolAt resolves the symbol under a node, given its ancestor path.
func (p *Provider) SymbolAt(node ir.Node, path []ir.Node, table *symbols.Table) (*symbols.Symbol, bool) {
	switch v := node.(type) {
	case *ir.Var:
		if len(path) > 0 {
			switch parent := path[len(path)-1].(type) {
			case *ir.Contract:
				// A variable naming the contract it declares resolves
				// through the global index, not the lexical scope.
				if parent.Identifier == node {
					if sym, found := p.Global.First(v.Name); found {
						return sym, true
					}
				}
			case *ir.Send:
				// The channel of an invocation resolves by overload,
				// not by whichever declaration shadows the name.
				if parent.Channel == node {
					if sym, found := p.resolveSend(parent); found {
						return sym, true
					}
				}
			}
		}
		if sym, ok := table.ScopeAt(node).Lookup(v.Name); ok {
			return sym, true
		}
		if sym, ok := p.Global.First(v.Name); ok {
			return sym, true
		}
		return nil, false

	case *ir.Send:
		return p.resolveSend(v)

	case *ir.Block:
		return p.SymbolAt(v.Body, append(path, node), table)
	case *ir.Parenthesized:
		return p.SymbolAt(v.Inner, append(path, node), table)
	case *ir.Quote:
		if s, ok := ir.Unwrap(v.Inner).(*ir.StringLit); ok {
			return p.Global.First(s.Value)
		}
		return p.SymbolAt(v.Inner, append(path, node), table)
	default:
		return nil, false
	}
}

// resolveSend resolves an invocation: pattern overload first, then a
// name-only fallback when conservative matching declined every overload.
func (p *Provider) resolveSend(send *ir.Send) (*symbols.Symbol, bool) {
	name, ok := symbols.ChannelName(send.Channel)
	if !ok {
		return nil, false
	}
	if sym, resolved := p.Patterns.Resolve(name, send.Inputs); resolved {
		return sym, true
	}
	return p.Global.First(name)
}

// symbolAtPosition is the shared front half of the position-based
// features.
func (p *Provider) symbolAtPosition(uri string, pos position.Position) (*symbols.Symbol, *index.Entry, bool) {
	entry, ok := p.Docs.Get(uri)
	if !ok {
		return nil, nil, false
	}
	posMap, _ := ir.Reconstruct(entry.Doc.Root, position.Zero)
	node, path := FindNodeAt(entry.Doc.Root, posMap, pos)
	if node == nil {
		return nil, entry, false
	}
	sym, ok := p.SymbolAt(node, path, entry.Table)
	return sym, entry, ok
}

// Definition resolves goto-definition at a position.
func (p *Provider) Definition(uri string, pos position.Position) (symbols.Location, bool) {
	sym, _, ok := p.symbolAtPosition(uri, pos)
	if !ok {
		return symbols.Location{}, false
	}
	return symbols.Location{URI: sym.DeclarationURI, Range: sym.Declaration}, true
}

// References collects every recorded occurrence of the symbol under a
// position across the workspace, declaration included when asked.
func (p *Provider) References(uri string, pos position.Position, includeDecl bool) []symbols.Location {
	sym, _, ok := p.symbolAtPosition(uri, pos)
	if !ok {
		return nil
	}
	return p.referencesFor(sym, includeDecl)
}

func (p *Provider) referencesFor(sym *symbols.Symbol, includeDecl bool) []symbols.Location {
	var out []symbols.Location
	if includeDecl {
		out = append(out, symbols.Location{URI: sym.DeclarationURI, Range: sym.Declaration})
	}
	for _, uri := range p.Docs.URIs() {
		if entry, ok := p.Docs.Get(uri); ok {
			out = append(out, entry.Table.References(sym)...)
		}
	}
	return out
}
