package feature

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
)

// DocumentSymbol is one outline entry, nested per scope.
type DocumentSymbol struct {
	Name     string           `json:"name"`
	Kind     string           `json:"kind"`
	Range    position.Span    `json:"range"`
	Children []DocumentSymbol `json:"children,omitempty"`
}

// DocumentSymbols returns the hierarchical outline of a document: every
// declaration, nested under the scope that declared it.
func (p *Provider) DocumentSymbols(uri string) []DocumentSymbol {
	entry, ok := p.Docs.Get(uri)
	if !ok {
		return nil
	}
	return scopeSymbols(entry.Table.Global)
}

func scopeSymbols(s *symbols.Scope) []DocumentSymbol {
	var out []DocumentSymbol
	for _, sym := range s.Symbols() {
		out = append(out, DocumentSymbol{
			Name:  sym.Name,
			Kind:  string(sym.Kind),
			Range: sym.Declaration,
		})
	}
	for _, child := range s.Children {
		nested := scopeSymbols(child)
		if len(out) > 0 && len(nested) > 0 {
			// Attach child-scope declarations under the nearest
			// preceding declaration of this scope.
			last := &out[len(out)-1]
			last.Children = append(last.Children, nested...)
		} else {
			out = append(out, nested...)
		}
	}
	return out
}
