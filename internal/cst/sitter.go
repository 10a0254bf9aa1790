package cst

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// FromSitter converts a tree-sitter tree into the boundary Node form,
// copying positions and leaf text once so the sitter tree can be closed
// immediately after conversion.
func FromSitter(tree *sitter.Tree, source []byte) *Node {
	if tree == nil {
		return nil
	}
	return fromSitterNode(tree.RootNode(), source)
}

func fromSitterNode(n *sitter.Node, source []byte) *Node {
	out := &Node{
		Kind:  n.Type(),
		Start: sitterPosition(n.StartPoint(), n.StartByte()),
		End:   sitterPosition(n.EndPoint(), n.EndByte()),
	}
	count := int(n.NamedChildCount())
	if count == 0 {
		out.Text = n.Content(source)
		return out
	}
	out.Children = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		out.Children = append(out.Children, fromSitterNode(n.NamedChild(i), source))
	}
	return out
}

func sitterPosition(pt sitter.Point, byteOffset uint32) position.Position {
	return position.Position{Row: pt.Row, Column: pt.Column, Byte: byteOffset}
}

// ParsePool keeps reusable tree-sitter parser instances per language so
// concurrent embedded-language parses do not contend on a single parser.
type ParsePool struct {
	lang *sitter.Language
	pool chan *sitter.Parser
}

// NewParsePool creates a pool with the given capacity for one language.
func NewParsePool(lang *sitter.Language, capacity int) *ParsePool {
	if capacity < 1 {
		capacity = 1
	}
	return &ParsePool{lang: lang, pool: make(chan *sitter.Parser, capacity)}
}

// Borrow returns a parser configured for the pool's language.
func (p *ParsePool) Borrow() *sitter.Parser {
	select {
	case parser := <-p.pool:
		return parser
	default:
		parser := sitter.NewParser()
		parser.SetLanguage(p.lang)
		return parser
	}
}

// Return gives a parser back to the pool. Parsers beyond capacity are
// discarded.
func (p *ParsePool) Return(parser *sitter.Parser) {
	select {
	case p.pool <- parser:
	default:
	}
}
