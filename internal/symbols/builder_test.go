package symbols

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/rholang-analyzer/internal/cst/rhoparse"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/parser"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

const testURI = "file:///test.rho"

func buildTable(t *testing.T, src string) (*ir.Document, *ir.PositionMap, *Table) {
	t.Helper()
	doc, _ := parser.Convert(testURI, rhoparse.Parse(src), []byte(src))
	pos, _ := ir.Reconstruct(doc.Root, position.Zero)
	return doc, pos, Build(testURI, doc, pos)
}

func contractScopeOf(t *testing.T, table *Table) *Scope {
	t.Helper()
	var found *Scope
	var walk func(*Scope)
	walk = func(s *Scope) {
		if s.Kind == ScopeContract && found == nil {
			found = s
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(table.Global)
	require.NotNil(t, found, "no contract scope in table")
	return found
}

func TestContractDeclaration(t *testing.T) {
	_, _, table := buildTable(t, `contract auth(@user, ret) = { ret!(true) }`)

	sym, ok := table.Global.Lookup("auth")
	require.True(t, ok)
	assert.Equal(t, KindContract, sym.Kind)
	assert.Equal(t, testURI, sym.DeclarationURI)
	require.NotNil(t, sym.Pattern)
	assert.Equal(t, 2, sym.Pattern.Arity())
	require.Len(t, table.Contracts(), 1)
}

func TestPatternBindingCompleteness(t *testing.T) {
	// Every name bound by the formals, however nested, is in scope for
	// the body: exactly {x, y, z}.
	src := `contract f(@{"a": x, "b": [y, z]}) = { stdout!([x, y, z]) }`
	_, _, table := buildTable(t, src)

	scope := contractScopeOf(t, table)
	syms := scope.Symbols()
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"x", "y", "z"}, names)

	x, ok := scope.Local("x")
	require.True(t, ok)
	assert.Equal(t, KindParameter, x.Kind)
	assert.Equal(t, uint32(strings.Index(src, "x,")), x.Declaration.Start.Byte)

	// The body's uses resolve to the pattern occurrences.
	refs := table.References(x)
	require.Len(t, refs, 1)
	assert.Greater(t, refs[0].Range.Start.Byte, x.Declaration.Start.Byte)
}

func TestNestedMapPatternBindings(t *testing.T) {
	src := `contract processAddress(@{street: s, city: {name: c, zip: z}}, ret) = { stdout!([s, c, z]) }`
	_, _, table := buildTable(t, src)

	scope := contractScopeOf(t, table)
	for _, name := range []string{"s", "c", "z", "ret"} {
		sym, ok := scope.Local(name)
		require.True(t, ok, "missing binding %q", name)
		refs := table.References(sym)
		if name != "ret" {
			require.Len(t, refs, 1, "expected one body use of %q", name)
		}
	}
}

func TestNewBindingsAndReferences(t *testing.T) {
	src := "new out, ack in {\n  out!(1) | ack!(2) | out!(3)\n}"
	_, _, table := buildTable(t, src)

	var newScope *Scope
	var walk func(*Scope)
	walk = func(s *Scope) {
		if s.Kind == ScopeNew {
			newScope = s
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(table.Global)
	require.NotNil(t, newScope)

	out, ok := newScope.Local("out")
	require.True(t, ok)
	assert.Equal(t, KindNewBinding, out.Kind)
	assert.Equal(t, 2, out.ReferenceCount)

	ack, _ := newScope.Local("ack")
	assert.Equal(t, 1, ack.ReferenceCount)
}

func TestLetBindingScoping(t *testing.T) {
	src := `let x = 42 in { stdout!(*x) }`
	_, _, table := buildTable(t, src)

	var letScope *Scope
	var walk func(*Scope)
	walk = func(s *Scope) {
		if s.Kind == ScopeLet {
			letScope = s
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(table.Global)
	require.NotNil(t, letScope)

	x, ok := letScope.Local("x")
	require.True(t, ok)
	assert.Equal(t, KindLetBinding, x.Kind)
	assert.Equal(t, 1, x.ReferenceCount)
}

func TestReceiveBindings(t *testing.T) {
	src := "new inbox in {\n  for (@msg, @from <- inbox) {\n    stdout!([msg, from])\n  }\n}"
	_, _, table := buildTable(t, src)

	var forScope *Scope
	var walk func(*Scope)
	walk = func(s *Scope) {
		if s.Kind == ScopeFor {
			forScope = s
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(table.Global)
	require.NotNil(t, forScope)

	for _, name := range []string{"msg", "from"} {
		sym, ok := forScope.Local(name)
		require.True(t, ok)
		assert.Equal(t, KindParameter, sym.Kind)
		assert.Equal(t, 1, sym.ReferenceCount)
	}

	// The source channel is a use of the new-binding.
	inboxScope := table.Global.Children[0]
	inbox, ok := inboxScope.Local("inbox")
	require.True(t, ok)
	assert.Equal(t, 1, inbox.ReferenceCount)
}

func TestMatchCaseScopePerCase(t *testing.T) {
	src := `match 42 { x => { stdout!(x) } [a, b] => { stdout!(a) } }`
	_, _, table := buildTable(t, src)

	var caseScopes []*Scope
	var walk func(*Scope)
	walk = func(s *Scope) {
		if s.Kind == ScopeMatchCase {
			caseScopes = append(caseScopes, s)
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(table.Global)
	require.Len(t, caseScopes, 2)

	_, firstHasX := caseScopes[0].Local("x")
	_, secondHasX := caseScopes[1].Local("x")
	assert.True(t, firstHasX)
	assert.False(t, secondHasX, "case bindings do not leak across cases")
}

func TestShadowing(t *testing.T) {
	src := "new x in {\n  new x in {\n    x!(1)\n  }\n}"
	_, _, table := buildTable(t, src)

	outer := table.Global.Children[0]
	inner := outer.Children[0].Children[0] // new -> block -> new

	outerX, _ := outer.Local("x")
	innerX, _ := inner.Local("x")
	require.NotNil(t, outerX)
	require.NotNil(t, innerX)
	assert.NotEqual(t, outerX.Declaration.Start.Byte, innerX.Declaration.Start.Byte)
	assert.Equal(t, 0, outerX.ReferenceCount, "inner send resolves to the shadowing binding")
	assert.Equal(t, 1, innerX.ReferenceCount)
}

func TestContractNameExtraction(t *testing.T) {
	_, _, table := buildTable(t, `contract @"api"(@cmd, ret) = { Nil }`)
	sym, ok := table.Global.Lookup("api")
	require.True(t, ok)
	assert.Nil(t, sym.IdentifierNode)
}

func TestComplexContractIdentifier(t *testing.T) {
	_, _, table := buildTable(t, `contract @{"svc": "users"}(@cmd, ret) = { Nil }`)

	require.Len(t, table.Contracts(), 1)
	sym := table.Contracts()[0]
	assert.True(t, strings.HasPrefix(sym.Name, "@complex_map_"), "got %q", sym.Name)
	assert.NotNil(t, sym.IdentifierNode, "original identifier retained for re-matching")

	// The hash key is deterministic across separate parses.
	_, _, again := buildTable(t, `contract @{"svc": "users"}(@cmd, ret) = { Nil }`)
	assert.Equal(t, sym.Name, again.Contracts()[0].Name)
}

func TestPendingCallsRecorded(t *testing.T) {
	src := "new api in {\n  api!(\"get\", 1) | @\"named\"!(2)\n}"
	_, _, table := buildTable(t, src)

	calls := table.PendingCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "api", calls[0].Name)
	require.Len(t, calls[0].Args, 2)
	assert.Equal(t, "named", calls[1].Name)
}

func TestDocAttachment(t *testing.T) {
	src := "/// Authenticates a user.\n/// @param username The login name\n/// @return Auth token\ncontract authenticate(@username, @password) = { Nil }"
	doc, _, table := buildTable(t, src)

	sym, ok := table.Global.Lookup("authenticate")
	require.True(t, ok)
	assert.Contains(t, sym.Documentation, "Authenticates a user.")
	assert.Contains(t, sym.Documentation, "username: The login name")

	// The structured form is attached to the contract node's metadata.
	var contract *ir.Contract
	ir.Walk(doc.Root, func(n ir.Node) bool {
		if c, ok := n.(*ir.Contract); ok {
			contract = c
		}
		return true
	})
	require.NotNil(t, contract)
	structured := contract.Metadata().Documentation
	require.NotNil(t, structured)
	assert.Equal(t, "Authenticates a user.", structured.Summary)
	md := structured.Markdown("authenticate")
	assert.Contains(t, md, "**authenticate**")
	assert.Contains(t, md, "- **username**: The login name")
	assert.Contains(t, md, "## Returns")
}

func TestCollectBindingsIgnoresLiteralsAndWildcards(t *testing.T) {
	src := `contract f(@"literal", _, @x) = { Nil }`
	_, _, table := buildTable(t, src)

	scope := contractScopeOf(t, table)
	syms := scope.Symbols()
	require.Len(t, syms, 1)
	assert.Equal(t, "x", syms[0].Name)
}
