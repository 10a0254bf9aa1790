package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/rholang-analyzer/internal/cst/rhoparse"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/parser"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
	"github.com/f1r3fly-io/rholang-analyzer/internal/text"
)

func tableFor(t *testing.T, uri, src string) *symbols.Table {
	t.Helper()
	doc, _ := parser.Convert(uri, rhoparse.Parse(src), []byte(src))
	pos, _ := ir.Reconstruct(doc.Root, position.Zero)
	return symbols.Build(uri, doc, pos)
}

func TestGlobalAddLookupRemove(t *testing.T) {
	g := NewGlobal()
	g.AddTable(tableFor(t, "file:///a.rho", `contract f(@x, r) = { Nil }`))
	g.AddTable(tableFor(t, "file:///b.rho", `contract f(@y, @z, r) = { Nil } | contract g(r) = { Nil }`))

	assert.Len(t, g.Lookup("f"), 2)
	first, ok := g.First("f")
	require.True(t, ok)
	assert.Equal(t, "file:///a.rho", first.DeclarationURI)
	assert.ElementsMatch(t, []string{"f", "g"}, g.Names())

	g.RemoveURI("file:///a.rho")
	assert.Len(t, g.Lookup("f"), 1)
	remaining, _ := g.First("f")
	assert.Equal(t, "file:///b.rho", remaining.DeclarationURI)

	g.RemoveURI("file:///b.rho")
	assert.Empty(t, g.Names())
	_, ok = g.First("f")
	assert.False(t, ok)
}

func TestDocumentsMap(t *testing.T) {
	d := NewDocuments()
	src := []byte(`Nil`)
	entry := &Entry{
		URI:    "file:///a.rho",
		Source: src,
		Lines:  text.NewLineIndex(src),
	}
	d.Put(entry)

	got, ok := d.Get("file:///a.rho")
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, []string{"file:///a.rho"}, d.URIs())

	// A rebuild replaces the whole entry atomically.
	newer := &Entry{URI: "file:///a.rho", Version: 2}
	d.Put(newer)
	got, _ = d.Get("file:///a.rho")
	assert.Same(t, newer, got)
	assert.Equal(t, 1, d.Len())

	d.Delete("file:///a.rho")
	_, ok = d.Get("file:///a.rho")
	assert.False(t, ok)
}
