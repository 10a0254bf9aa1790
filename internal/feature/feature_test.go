package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/rholang-analyzer/internal/completion"
	"github.com/f1r3fly-io/rholang-analyzer/internal/cst/rhoparse"
	"github.com/f1r3fly-io/rholang-analyzer/internal/index"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/parser"
	"github.com/f1r3fly-io/rholang-analyzer/internal/pattern"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
	"github.com/f1r3fly-io/rholang-analyzer/internal/text"
	"github.com/f1r3fly-io/rholang-analyzer/internal/virtualdoc"
)

// providerWith indexes one document into a fresh provider.
func providerWith(t *testing.T, uri, src string) (*Provider, *index.Entry, *ir.PositionMap) {
	t.Helper()
	doc, _ := parser.Convert(uri, rhoparse.Parse(src), []byte(src))
	posMap, _ := ir.Reconstruct(doc.Root, position.Zero)
	table := symbols.Build(uri, doc, posMap)

	docs := index.NewDocuments()
	entry := &index.Entry{
		URI:    uri,
		Source: []byte(src),
		Lines:  text.NewLineIndex([]byte(src)),
		Doc:    doc,
		Table:  table,
	}
	docs.Put(entry)

	global := index.NewGlobal()
	global.AddTable(table)
	patterns := pattern.NewIndex(pattern.Config{})
	for _, c := range table.Contracts() {
		patterns.Add(c)
	}

	p := &Provider{
		Docs:        docs,
		Global:      global,
		Patterns:    patterns,
		Completions: completion.NewDictionary(1),
		Virtual:     virtualdoc.NewRegistry(),
	}
	return p, entry, posMap
}

func at(src, needle string) position.Position {
	off := strings.Index(src, needle)
	if off < 0 {
		panic("needle not found: " + needle)
	}
	row := strings.Count(src[:off], "\n")
	col := off - (strings.LastIndex(src[:off], "\n") + 1)
	return position.Position{Row: uint32(row), Column: uint32(col), Byte: uint32(off)}
}

func TestFindNodeAtDeepest(t *testing.T) {
	src := `new out in { out!("hi") }`
	_, entry, posMap := providerWith(t, "file:///f.rho", src)

	node, path := FindNodeAt(entry.Doc.Root, posMap, at(src, `"hi"`))
	require.NotNil(t, node)
	assert.Equal(t, ir.KindString, node.Kind())
	require.NotEmpty(t, path)
	assert.Equal(t, ir.KindNew, path[0].Kind(), "path runs outermost first")
	_, isSend := path[len(path)-1].(*ir.Send)
	assert.True(t, isSend, "immediate parent is the send")
}

func TestFindNodeAtRightBoundary(t *testing.T) {
	src := `new out in { out!(1) }`
	_, entry, posMap := providerWith(t, "file:///f.rho", src)

	// Cursor one past the end of "out" in the send still hits the name.
	p := at(src, "out!")
	p.Column += 3
	p.Byte += 3
	node, _ := FindNodeAt(entry.Doc.Root, posMap, p)
	require.NotNil(t, node)
	v, ok := node.(*ir.Var)
	require.True(t, ok)
	assert.Equal(t, "out", v.Name)
}

func TestSymbolAtScopeLookup(t *testing.T) {
	src := `new out in { out!(1) }`
	p, entry, posMap := providerWith(t, "file:///f.rho", src)

	node, path := FindNodeAt(entry.Doc.Root, posMap, at(src, "out!"))
	sym, ok := p.SymbolAt(node, path, entry.Table)
	require.True(t, ok)
	assert.Equal(t, symbols.KindNewBinding, sym.Kind)
}

func TestSymbolAtContractIdentifier(t *testing.T) {
	src := `contract auth(@u, ret) = { Nil }`
	p, entry, posMap := providerWith(t, "file:///f.rho", src)

	node, path := FindNodeAt(entry.Doc.Root, posMap, at(src, "auth"))
	sym, ok := p.SymbolAt(node, path, entry.Table)
	require.True(t, ok)
	assert.Equal(t, symbols.KindContract, sym.Kind)
	assert.Equal(t, "auth", sym.Name)
}

func TestSymbolAtSendResolvesOverload(t *testing.T) {
	src := `contract api(@"a", r) = { Nil } |
contract api(@"b", r) = { Nil } |
api!("b", *x)`
	p, entry, posMap := providerWith(t, "file:///f.rho", src)

	node, path := FindNodeAt(entry.Doc.Root, posMap, at(src, `api!`))
	sym, ok := p.SymbolAt(node, path, entry.Table)
	require.True(t, ok)
	assert.Equal(t, entry.Table.Contracts()[1], sym, "structural match picks the b overload")
}

func TestDefinitionMiss(t *testing.T) {
	src := `unknown!(1)`
	p, _, _ := providerWith(t, "file:///f.rho", src)
	_, ok := p.Definition("file:///f.rho", at(src, "unknown"))
	assert.False(t, ok, "a resolution miss is empty, not an error")
}

func TestApplyEdits(t *testing.T) {
	src := []byte("greet!(1) | greet!(2)")
	edits := []TextEdit{
		{Range: position.Span{Start: position.Position{Byte: 0}, End: position.Position{Byte: 5}}, NewText: "welcome"},
		{Range: position.Span{Start: position.Position{Byte: 12}, End: position.Position{Byte: 17}}, NewText: "welcome"},
	}
	assert.Equal(t, "welcome!(1) | welcome!(2)", ApplyEdits(src, edits))
}

func TestCompletionContextClassification(t *testing.T) {
	src := `new stdoutLog in { stdoutLog!("inside string") }`
	p, _, _ := providerWith(t, "file:///f.rho", src)
	SeedKeywords(p.Completions)
	p.Completions.Insert("stdoutLog", completion.Meta{Kind: "new_binding"})

	// Inside the string literal: suppressed.
	_, ctx := p.CompletionAt("file:///f.rho", at(src, "inside"))
	assert.Equal(t, ContextString, ctx)

	// After a partial identifier: lexical completions.
	cursor := at(src, "stdoutLog!")
	cursor.Column += 6
	cursor.Byte += 6
	items, ctx := p.CompletionAt("file:///f.rho", cursor)
	assert.Equal(t, ContextLexical, ctx)
	require.NotEmpty(t, items)
	assert.Equal(t, "stdoutLog", items[0].Label)
}

func TestCompletionCap(t *testing.T) {
	src := `Nil`
	p, _, _ := providerWith(t, "file:///f.rho", src)
	for i := 0; i < 50; i++ {
		p.Completions.Insert("sym"+strings.Repeat("a", i%7)+string(rune('a'+i%26)), completion.Meta{})
	}
	p.MaxCompletions = 5

	items, _ := p.CompletionAt("file:///f.rho", position.Position{Byte: 0})
	assert.LessOrEqual(t, len(items), 5)
}

func TestDocumentSymbols(t *testing.T) {
	src := `new out in { contract api(@x, r) = { Nil } }`
	p, _, _ := providerWith(t, "file:///f.rho", src)

	syms := p.DocumentSymbols("file:///f.rho")
	require.NotEmpty(t, syms)
	assert.Equal(t, "out", syms[0].Name)

	var names []string
	var collect func([]DocumentSymbol)
	collect = func(list []DocumentSymbol) {
		for _, s := range list {
			names = append(names, s.Name)
			collect(s.Children)
		}
	}
	collect(syms)
	assert.Contains(t, names, "api")
	assert.Contains(t, names, "x")
}
