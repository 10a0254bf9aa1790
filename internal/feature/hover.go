package feature

import (
	"fmt"
	"strings"

	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
)

// Hover renders Markdown for the symbol under a position. Structured
// documentation is the canonical source; symbols without it fall back to
// a signature line.
func (p *Provider) Hover(uri string, pos position.Position) (string, bool) {
	sym, entry, ok := p.symbolAtPosition(uri, pos)
	if !ok {
		return "", false
	}

	if sym.Kind == symbols.KindContract {
		if md, found := p.contractMarkdown(sym, entry.URI); found {
			return md, true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", sym.Name)
	fmt.Fprintf(&b, "_%s_", string(sym.Kind))
	if sym.Documentation != "" {
		b.WriteString("\n\n")
		b.WriteString(sym.Documentation)
	}
	return b.String(), true
}

// contractMarkdown renders the structured documentation attached to the
// contract's declaration node, looked up in the declaring document.
func (p *Provider) contractMarkdown(sym *symbols.Symbol, fallbackURI string) (string, bool) {
	uri := sym.DeclarationURI
	if uri == "" {
		uri = fallbackURI
	}
	entry, ok := p.Docs.Get(uri)
	if !ok {
		return "", false
	}

	var found string
	ir.Walk(entry.Doc.Root, func(n ir.Node) bool {
		contract, isContract := n.(*ir.Contract)
		if !isContract || found != "" {
			return true
		}
		name, _ := symbols.ContractName(contract.Identifier)
		if name != sym.Name {
			return true
		}
		if doc := contract.Metadata().Documentation; doc != nil {
			found = doc.Markdown(sym.Name)
		}
		return false
	})
	return found, found != ""
}
