package cst

import (
	"strings"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/text"
)

// Builder constructs Node trees over a source string with positions derived
// from byte offsets. It stands in for the external parser in tests and
// tooling: callers name a substring (or give explicit offsets) and the
// builder resolves rows and columns from the line index.
type Builder struct {
	src string
	ix  *text.LineIndex
}

// NewBuilder creates a builder over source text.
func NewBuilder(source string) *Builder {
	return &Builder{src: source, ix: text.NewLineIndex([]byte(source))}
}

// Source returns the text the builder was created with.
func (b *Builder) Source() string { return b.src }

// Index returns the line index over the source.
func (b *Builder) Index() *text.LineIndex { return b.ix }

// At builds a node spanning [start, end) byte offsets.
func (b *Builder) At(kind string, start, end int, children ...*Node) *Node {
	n := &Node{
		Kind:     kind,
		Start:    b.ix.PositionFor(uint32(start)),
		End:      b.ix.PositionFor(uint32(end)),
		Children: children,
	}
	if len(children) == 0 {
		n.Text = b.src[start:end]
	}
	return n
}

// Token builds a leaf node over the nth occurrence (zero-based) of literal
// in the source. It panics on a miss: a test referencing text that is not
// in its own source is broken.
func (b *Builder) Token(kind, literal string, occurrence int) *Node {
	off := b.Offset(literal, occurrence)
	return b.At(kind, off, off+len(literal))
}

// Offset returns the byte offset of the nth occurrence of literal.
func (b *Builder) Offset(literal string, occurrence int) int {
	from := 0
	for {
		i := strings.Index(b.src[from:], literal)
		if i < 0 {
			panic("cst: literal not found in source: " + literal)
		}
		if occurrence == 0 {
			return from + i
		}
		occurrence--
		from += i + len(literal)
	}
}

// Span builds a node that covers its children plus optional leading and
// trailing delimiter bytes.
func (b *Builder) Span(kind string, leading, trailing int, children ...*Node) *Node {
	if len(children) == 0 {
		panic("cst: Span requires children")
	}
	start := int(children[0].Start.Byte) - leading
	end := int(children[len(children)-1].End.Byte) + trailing
	return b.At(kind, start, end, children...)
}

// Pos resolves a byte offset to an absolute position.
func (b *Builder) Pos(offset int) position.Position {
	return b.ix.PositionFor(uint32(offset))
}
