package symbols

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/docs"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
)

// Build traverses a document's IR and produces its symbol table. Contract
// invocations are recorded as pending calls; the caller links them against
// the pattern index once every table in the batch is built, so definition
// order and file boundaries never matter.
func Build(uri string, doc *ir.Document, pos *ir.PositionMap) *Table {
	b := &builder{uri: uri, doc: doc, pos: pos, table: NewTable(uri)}
	b.visit(doc.Root, b.table.Global)
	return b.table
}

// ContractName extracts the symbol-table key for a contract identifier: a
// simple variable or quoted string literal yields its text; any other
// quoted expression yields the deterministic hash key, with the original
// node retained for structural re-matching.
func ContractName(identifier ir.Node) (name string, complexNode ir.Node) {
	switch v := ir.Unwrap(identifier).(type) {
	case *ir.Var:
		return v.Name, nil
	case *ir.Quote:
		if s, ok := ir.Unwrap(v.Inner).(*ir.StringLit); ok {
			return s.Value, nil
		}
		return ir.ComplexKey(v.Inner), identifier
	default:
		return ir.ComplexKey(identifier), identifier
	}
}

// ChannelName extracts the callable name from a send channel, unwrapping
// Block and Parenthesized and accepting a Quote of a string literal or a
// complex identifier. The second result is false when the channel has no
// stable name.
func ChannelName(channel ir.Node) (string, bool) {
	switch v := ir.Unwrap(channel).(type) {
	case *ir.Var:
		return v.Name, true
	case *ir.Quote:
		switch inner := ir.Unwrap(v.Inner).(type) {
		case *ir.StringLit:
			return inner.Value, true
		case *ir.Var:
			return inner.Name, true
		default:
			return ir.ComplexKey(v.Inner), true
		}
	default:
		return "", false
	}
}

type builder struct {
	uri   string
	doc   *ir.Document
	pos   *ir.PositionMap
	table *Table
}

func (b *builder) visit(n ir.Node, scope *Scope) {
	if n == nil {
		return
	}
	b.table.scopeAt[n] = scope

	switch v := n.(type) {
	case *ir.Contract:
		b.visitContract(v, scope)
	case *ir.New:
		b.visitNew(v, scope)
	case *ir.Let:
		b.visitLet(v, scope)
	case *ir.Receive:
		b.visitReceive(v, scope)
	case *ir.Match:
		b.visitMatch(v, scope)
	case *ir.Block:
		inner := NewScope(ScopeBlock, scope)
		b.visit(v.Body, inner)
	case *ir.Parenthesized:
		inner := NewScope(ScopeParenthesized, scope)
		b.visit(v.Inner, inner)
	case *ir.Send:
		b.visitSend(v, scope)
	case *ir.Var:
		b.reference(v, scope)
	default:
		for _, c := range n.Children() {
			b.visit(c, scope)
		}
	}
}

func (b *builder) visitContract(c *ir.Contract, scope *Scope) {
	name, complexNode := ContractName(c.Identifier)
	sym := &Symbol{
		Name:           name,
		Kind:           KindContract,
		DeclarationURI: b.uri,
		Declaration:    b.pos.MustSpan(c.Identifier),
		IdentifierNode: complexNode,
		Pattern: &ContractPattern{
			Formals:          c.Formals,
			FormalsRemainder: c.FormalsRemainder,
			Body:             c.Body,
		},
		Documentation: b.attachDocs(c),
	}
	scope.Declare(sym)
	b.table.contracts = append(b.table.contracts, sym)
	b.table.scopeAt[c.Identifier] = scope

	contractScope := NewScope(ScopeContract, scope)
	for _, formal := range c.Formals {
		b.declareBindings(formal, KindParameter, contractScope)
	}
	if c.FormalsRemainder != nil {
		b.declareBindings(c.FormalsRemainder, KindParameter, contractScope)
	}
	b.visit(c.Body, contractScope)
}

func (b *builder) visitNew(n *ir.New, scope *Scope) {
	newScope := NewScope(ScopeNew, scope)
	doc := b.attachDocs(n)
	for _, decl := range n.Decls {
		if v, ok := decl.(*ir.Var); ok {
			sym := b.declare(v, KindNewBinding, newScope)
			if doc != "" {
				sym.Documentation = doc
			}
		}
	}
	b.visit(n.Body, newScope)
}

func (b *builder) visitLet(l *ir.Let, scope *Scope) {
	letScope := NewScope(ScopeLet, scope)
	doc := b.attachDocs(l)
	for _, decl := range l.Decls {
		// The value cannot see the names it is bound to.
		b.visit(decl.Value, scope)
		for _, nameNode := range decl.Names {
			bindings := CollectBindings(nameNode)
			for _, v := range bindings {
				sym := b.declare(v, KindLetBinding, letScope)
				if sym != nil && doc != "" {
					sym.Documentation = doc
				}
			}
		}
	}
	b.visit(l.Body, letScope)
}

func (b *builder) visitReceive(r *ir.Receive, scope *Scope) {
	forScope := NewScope(ScopeFor, scope)
	for _, bind := range r.Binds {
		// The source channel is a use in the enclosing scope.
		b.visit(bind.Source, scope)
		for _, pat := range bind.Patterns {
			b.declareBindings(pat, KindParameter, forScope)
		}
		if bind.Remainder != nil {
			b.declareBindings(bind.Remainder, KindParameter, forScope)
		}
	}
	b.visit(r.Body, forScope)
}

func (b *builder) visitMatch(m *ir.Match, scope *Scope) {
	b.visit(m.Target, scope)
	for _, c := range m.Cases {
		caseScope := NewScope(ScopeMatchCase, scope)
		b.declareBindings(c.Pattern, KindParameter, caseScope)
		b.visit(c.Body, caseScope)
	}
}

func (b *builder) visitSend(s *ir.Send, scope *Scope) {
	loc := Location{URI: b.uri, Range: b.pos.MustSpan(s.Channel)}

	// A variable channel is a lexical use of that variable, unless the
	// name resolves to a contract: contract calls are linked by the
	// pattern matcher, and counting them here too would double-count
	// the occurrence.
	if v, ok := ir.Unwrap(s.Channel).(*ir.Var); ok {
		b.table.scopeAt[v] = scope
		if sym, found := scope.Lookup(v.Name); found && sym.Kind != KindContract {
			b.table.AddReference(sym, Location{URI: b.uri, Range: b.pos.MustSpan(v)})
		}
	}

	if name, ok := ChannelName(s.Channel); ok {
		b.table.pending = append(b.table.pending, PendingCall{
			Name:     name,
			Channel:  s.Channel,
			Args:     s.Inputs,
			Location: loc,
		})
	}

	for _, in := range s.Inputs {
		b.visit(in, scope)
	}
}

// declareBindings extracts every binding under a pattern and declares it.
func (b *builder) declareBindings(pat ir.Node, kind Kind, scope *Scope) {
	for _, v := range CollectBindings(pat) {
		b.declare(v, kind, scope)
	}
}

func (b *builder) declare(v *ir.Var, kind Kind, scope *Scope) *Symbol {
	sym := &Symbol{
		Name:           v.Name,
		Kind:           kind,
		DeclarationURI: b.uri,
		Declaration:    b.pos.MustSpan(v),
	}
	scope.Declare(sym)
	b.table.scopeAt[v] = scope
	return sym
}

func (b *builder) reference(v *ir.Var, scope *Scope) {
	b.table.scopeAt[v] = scope
	if sym, ok := scope.Lookup(v.Name); ok {
		b.table.AddReference(sym, Location{URI: b.uri, Range: b.pos.MustSpan(v)})
	}
}

// attachDocs parses the doc-comment run above a declaration, attaches the
// structured form to the node's metadata, and returns the plain-text form
// for the symbol table.
func (b *builder) attachDocs(n ir.Node) string {
	span, ok := b.pos.Span(n)
	if !ok {
		return ""
	}
	run := b.doc.DocCommentsBefore(span.Start)
	if len(run) == 0 {
		return ""
	}
	d := docs.Parse(ir.DocLines(run))
	if d.Empty() {
		return ""
	}
	ir.AttachDocumentation(n, d)
	return d.PlainText()
}
