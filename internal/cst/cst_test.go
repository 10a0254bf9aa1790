package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPositions(t *testing.T) {
	src := "new x in {\n  x!(1)\n}"
	b := NewBuilder(src)

	name := b.Token(KindNameDecl, "x", 0)
	assert.Equal(t, uint32(4), name.Start.Byte)
	assert.Equal(t, "x", name.Text)

	send := b.At(KindSend, b.Offset("x!", 0), b.Offset(")", 0)+1,
		b.Token(KindVar, "x", 1), b.Token(KindLong, "1", 0))
	assert.Equal(t, uint32(1), send.Start.Row)
	assert.Equal(t, uint32(2), send.Start.Column)
}

func TestBuilderSpanIncludesDelimiters(t *testing.T) {
	src := "{ Nil }"
	b := NewBuilder(src)
	inner := b.Token(KindNil, "Nil", 0)
	block := b.Span(KindBlock, 2, 2, inner)

	assert.Equal(t, uint32(0), block.Start.Byte)
	assert.Equal(t, uint32(7), block.End.Byte)
}

func TestBuilderPanicsOnMissingLiteral(t *testing.T) {
	b := NewBuilder("Nil")
	assert.Panics(t, func() { b.Token(KindVar, "missing", 0) })
}

func TestNamedChildrenFiltersComments(t *testing.T) {
	b := NewBuilder("// c\nNil")
	root := b.At(KindSourceFile, 0, 8,
		b.Token(KindLineComment, "// c", 0),
		b.Token(KindNil, "Nil", 0),
	)

	require.Len(t, root.Children, 2)
	named := root.NamedChildren()
	require.Len(t, named, 1)
	assert.Equal(t, KindNil, named[0].Kind)
}

func TestWalkPrunes(t *testing.T) {
	b := NewBuilder("x!(1)")
	root := b.At(KindSend, 0, 5,
		b.Token(KindVar, "x", 0),
		b.Token(KindLong, "1", 0),
	)

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Kind)
		return n.Kind != KindSend // prune below the send
	})
	assert.Equal(t, []string{KindSend}, visited)
}

func TestFirstChild(t *testing.T) {
	b := NewBuilder("x!(1)")
	root := b.At(KindSend, 0, 5,
		b.Token(KindVar, "x", 0),
		b.Token(KindLong, "1", 0),
	)
	require.NotNil(t, root.FirstChild(KindLong))
	assert.Nil(t, root.FirstChild(KindMap))
}
