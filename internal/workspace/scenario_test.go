package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/rholang-analyzer/internal/config"
	"github.com/f1r3fly-io/rholang-analyzer/internal/diag"
	"github.com/f1r3fly-io/rholang-analyzer/internal/feature"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/reactive"
	"github.com/f1r3fly-io/rholang-analyzer/internal/virtualdoc"
)

func newWorkspace() *Workspace {
	return New(config.Default())
}

func advance(p position.Position, bytes uint32) position.Position {
	p.Column += bytes
	p.Byte += bytes
	return p
}

func posAt(src, needle string, occurrence int) position.Position {
	from := 0
	for {
		i := strings.Index(src[from:], needle)
		if i < 0 {
			panic("needle not found: " + needle)
		}
		if occurrence == 0 {
			off := from + i
			row := strings.Count(src[:off], "\n")
			col := off - (strings.LastIndex(src[:off], "\n") + 1)
			return position.Position{Row: uint32(row), Column: uint32(col), Byte: uint32(off)}
		}
		occurrence--
		from += i + len(needle)
	}
}

func TestScenarioS1ParFlattening(t *testing.T) {
	src := `a!(1) | b!(2) | c!(3) | d!(4)`
	w := newWorkspace()
	entry := w.Update("file:///s1.rho", []byte(src))

	par, ok := entry.Doc.Root.(*ir.Par)
	require.True(t, ok)
	require.True(t, par.IsNary())
	require.Len(t, par.Processes, 4)

	pos, _ := ir.Reconstruct(entry.Doc.Root, position.Zero)
	for i, needle := range []string{"a!(1)", "b!(2)", "c!(3)", "d!(4)"} {
		span, ok := pos.Span(par.Processes[i])
		require.True(t, ok)
		assert.Equal(t, uint32(strings.Index(src, needle)), span.Start.Byte)
	}
}

func TestScenarioS2CommentDirectiveVirtualRegion(t *testing.T) {
	src := "new codeFile in {\n  // @metta\n  codeFile!(\"(= (fib 0) 0)\")\n}"
	w := newWorkspace()
	w.Update("file:///s2.rho", []byte(src))

	vdocs := w.Virtual.Documents("file:///s2.rho")
	require.Len(t, vdocs, 1)
	v := vdocs[0]
	assert.Equal(t, "metta", v.LanguageID)
	assert.Equal(t, virtualdoc.SourceCommentDirective, v.Source)
	assert.Equal(t, "(= (fib 0) 0)", v.Text)
	assert.Equal(t, "file:///s2.rho#metta:0", v.URI)

	wantInterior := uint32(strings.Index(src, `"(=`) + 1)
	assert.Equal(t, wantInterior, v.ParentRange.Start.Byte)
}

func TestScenarioS3PatternIndexOverload(t *testing.T) {
	// Definitions on known lines; the invocation resolves to the
	// transport_object overload, not validate_plan.
	src := `new r4 in {
  contract robotAPI(@"transport_object", @o, @d, r) = { Nil } |
  contract robotAPI(@"validate_plan", @o, @d, r) = { Nil } |
  robotAPI!("transport_object", "ball1", "room_a", *r4)
}`
	w := newWorkspace()
	uri := "file:///s3.rho"
	w.Update(uri, []byte(src))

	loc, ok := w.Features.Definition(uri, posAt(src, "robotAPI!", 0))
	require.True(t, ok)
	assert.Equal(t, uint32(1), loc.Range.Start.Row, "resolves to the first definition's line")

	// The resolved contract carries the call as a reference.
	entry, _ := w.Docs.Get(uri)
	first := entry.Table.Contracts()[0]
	second := entry.Table.Contracts()[1]
	assert.Equal(t, 1, first.ReferenceCount)
	assert.Equal(t, 0, second.ReferenceCount)
}

func TestScenarioS4NestedPatternBindings(t *testing.T) {
	src := `contract processAddress(@{"street": s, "city": {"name": c, "zip": z}}, ret) = {
  stdout!([s, c, z])
}`
	w := newWorkspace()
	uri := "file:///s4.rho"
	w.Update(uri, []byte(src))

	uses := map[string]position.Position{
		"s": advance(posAt(src, "[s", 0), 1),
		"c": advance(posAt(src, " c, z]", 0), 1),
		"z": posAt(src, "z]", 0),
	}
	decls := map[string]int{
		"s": strings.Index(src, ": s,") + 2,
		"c": strings.Index(src, ": c,") + 2,
		"z": strings.Index(src, ": z}") + 2,
	}
	for name, use := range uses {
		loc, ok := w.Features.Definition(uri, use)
		require.True(t, ok, "use of %q resolves", name)
		assert.Equal(t, uint32(0), loc.Range.Start.Row, "%q declares in the formals", name)
		assert.Equal(t, uint32(decls[name]), loc.Range.Start.Byte, "%q points at its pattern occurrence", name)
	}
}

func TestScenarioS5DocumentationRendering(t *testing.T) {
	src := `/// Authenticates a user.
/// @param username The login name
/// @return Auth token
contract authenticate(@username, @password) = { Nil }`
	w := newWorkspace()
	uri := "file:///s5.rho"
	w.Update(uri, []byte(src))

	md, ok := w.Features.Hover(uri, posAt(src, "authenticate(", 0))
	require.True(t, ok)
	assert.Contains(t, md, "**authenticate**")
	assert.Contains(t, md, "Authenticates a user.")
	assert.Contains(t, md, "## Parameters")
	assert.Contains(t, md, "- **username**: The login name")
	assert.Contains(t, md, "## Returns")
	assert.Contains(t, md, "Auth token")
}

func TestScenarioS6CompletionRanking(t *testing.T) {
	w := newWorkspace()
	src := `new processOrder, proces, processUser in {
  proces!(1) | proces!(2) | proces!(3)
}`
	uri := "file:///s6.rho"
	w.Update(uri, []byte(src))

	// Cursor just past "proces" in the first send: the partial
	// identifier is "proces".
	cursor := advance(posAt(src, "proces!(1)", 0), uint32(len("proces")))
	items, ctx := w.Features.CompletionAt(uri, cursor)
	assert.Equal(t, feature.ContextLexical, ctx)
	require.NotEmpty(t, items)

	// All three declarations are distance-0 prefix matches; the one
	// with the most references ranks first, ties by length.
	assert.Equal(t, "proces", items[0].Label)
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Subset(t, labels, []string{"processUser", "processOrder"})
}

func TestCrossFileResolutionAndRename(t *testing.T) {
	w := newWorkspace()
	defs := `contract greet(@name, ret) = { ret!(name) }`
	uses := `greet!("world", *r) | greet!("again", *r)`

	w.ParseAndIndex("file:///defs.rho", []byte(defs))
	w.ParseAndIndex("file:///uses.rho", []byte(uses))
	w.Link()

	// Definition from the calling file lands in the defining file.
	loc, ok := w.Features.Definition("file:///uses.rho", posAt(uses, "greet!", 1))
	require.True(t, ok)
	assert.Equal(t, "file:///defs.rho", loc.URI)

	refs := w.Features.References("file:///uses.rho", posAt(uses, "greet!", 0), true)
	assert.Len(t, refs, 3, "declaration plus two call sites")

	edit, ok := w.Features.Rename("file:///defs.rho", posAt(defs, "greet", 0), "welcome")
	require.True(t, ok)
	assert.Len(t, edit.Changes["file:///uses.rho"], 2)
	assert.Len(t, edit.Changes["file:///defs.rho"], 1)

	preview, ok := w.Features.RenamePreview("file:///defs.rho", posAt(defs, "greet", 0), "welcome")
	require.True(t, ok)
	assert.Contains(t, preview, "-greet!(\"world\", *r)")
	assert.Contains(t, preview, "+welcome!(\"world\", *r)")
}

func TestLinkIsIdempotent(t *testing.T) {
	w := newWorkspace()
	src := `contract f(@x, ret) = { Nil } | f!(1, *r)`
	w.Update("file:///link.rho", []byte(src))

	entry, _ := w.Docs.Get("file:///link.rho")
	sym := entry.Table.Contracts()[0]
	require.Equal(t, 1, sym.ReferenceCount)

	w.Link()
	w.Link()
	assert.Equal(t, 1, sym.ReferenceCount, "relinking never double-counts")
}

func TestRemoveDropsEverything(t *testing.T) {
	w := newWorkspace()
	uri := "file:///gone.rho"
	w.Update(uri, []byte(`contract solo(@x, ret) = { Nil }`))

	require.NotEmpty(t, w.Global.Lookup("solo"))
	w.Remove(uri)

	assert.Empty(t, w.Global.Lookup("solo"))
	_, ok := w.Docs.Get(uri)
	assert.False(t, ok)
	_, ok = w.Completions.Lookup("solo")
	assert.False(t, ok)
	assert.Empty(t, w.Diags.For(uri))
}

func TestReindexReplacesAtomically(t *testing.T) {
	w := newWorkspace()
	uri := "file:///swap.rho"

	w.Update(uri, []byte(`contract old(@x, ret) = { Nil }`))
	require.NotEmpty(t, w.Global.Lookup("old"))

	w.Update(uri, []byte(`contract fresh(@x, ret) = { Nil }`))
	assert.Empty(t, w.Global.Lookup("old"), "old contracts are gone after rebuild")
	assert.NotEmpty(t, w.Global.Lookup("fresh"))

	entry, _ := w.Docs.Get(uri)
	assert.Equal(t, 2, entry.Version)

	_, ok := w.Completions.Lookup("old")
	assert.False(t, ok, "completion diff removed the stale name")
	_, ok = w.Completions.Lookup("fresh")
	assert.True(t, ok)
}

func TestIndexRootScansAndLinks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defs.rho"),
		[]byte(`contract ping(@msg, ret) = { ret!(msg) }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "uses.rho"),
		[]byte(`ping!("hello", *r)`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not rholang"), 0o644))

	w := newWorkspace()
	events, cancel := w.Events.Subscribe()
	defer cancel()

	n, err := w.IndexRoot(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, w.Docs.Len())

	// The cross-file call linked at the batch boundary.
	defsEntry, ok := w.Docs.Get(FileURI(filepath.Join(dir, "defs.rho")))
	require.True(t, ok)
	assert.Equal(t, 1, defsEntry.Table.Contracts()[0].ReferenceCount)

	var sawComplete bool
	for drained := false; !drained; {
		select {
		case ev := <-events:
			if ev.ChangeType == reactive.ChangeIndexingComplete {
				sawComplete = true
			}
		default:
			drained = true
		}
	}
	assert.True(t, sawComplete)
}

func TestExternalDiagnosticsMergePerURI(t *testing.T) {
	w := newWorkspace()
	uri := "file:///merge.rho"
	w.Update(uri, []byte(`new x in { x!(1) }`))
	require.Empty(t, w.Diags.For(uri), "clean parse publishes no core diagnostics")

	w.Diags.MergeExternal(uri, []diag.Diagnostic{{
		URI:      uri,
		Severity: diag.SeverityWarning,
		Message:  "unused channel",
	}})

	merged := w.Diags.For(uri)
	require.Len(t, merged, 1)
	assert.Equal(t, diag.SourceExternal, merged[0].Source)

	// A re-parse replaces core diagnostics but keeps external ones until
	// the validator reports again.
	w.Update(uri, []byte(`???`))
	merged = w.Diags.For(uri)
	assert.Greater(t, len(merged), 1)

	w.Diags.MergeExternal(uri, nil)
	for _, d := range w.Diags.For(uri) {
		assert.Equal(t, diag.SourceCore, d.Source)
	}
}

func TestKeywordsSeeded(t *testing.T) {
	w := newWorkspace()
	m, ok := w.Completions.Lookup("contract")
	require.True(t, ok)
	assert.Equal(t, "keyword", m.Kind)
}
