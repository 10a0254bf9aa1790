// Package rhoparse is a self-contained concrete-syntax producer for the
// Rholang subset the analyzer understands. It fills the external-parser
// seam when no tree-sitter grammar is wired in: the CLI and the test
// suites parse through it, while production deployments convert real
// grammars through cst.FromSitter. The trees it emits carry absolute
// positions in exactly the shape the adapter expects.
package rhoparse

import (
	"sort"

	"github.com/f1r3fly-io/rholang-analyzer/internal/cst"
	"github.com/f1r3fly-io/rholang-analyzer/internal/text"
)

// Parse produces a source_file CST over src. It never fails: unparseable
// regions become ERROR nodes the adapter converts to placeholders.
func Parse(src string) *cst.Node {
	toks := lex(src)
	ix := text.NewLineIndex([]byte(src))

	var comments []*cst.Node
	var procToks []token
	for _, t := range toks {
		switch t.kind {
		case tokLineComment:
			comments = append(comments, leaf(ix, cst.KindLineComment, t))
		case tokBlockComment:
			comments = append(comments, leaf(ix, cst.KindBlockComment, t))
		default:
			procToks = append(procToks, t)
		}
	}

	p := &parser{src: src, ix: ix, toks: procToks}
	// Successive top-level processes convert as an implicit Par.
	var children []*cst.Node
	for p.peek().kind != tokEOF {
		children = append(children, p.parseProc())
	}

	children = append(children, comments...)
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Start.Byte < children[j].Start.Byte
	})

	root := p.node(cst.KindSourceFile, 0, len(src), children...)
	return root
}

type parser struct {
	src  string
	ix   *text.LineIndex
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peek2() token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) token {
	if p.peek().kind == kind {
		return p.next()
	}
	t := p.peek()
	return token{kind: kind, start: t.start, end: t.start}
}

func (p *parser) node(kind string, start, end int, children ...*cst.Node) *cst.Node {
	n := &cst.Node{
		Kind:     kind,
		Start:    p.ix.PositionFor(uint32(start)),
		End:      p.ix.PositionFor(uint32(end)),
		Children: children,
	}
	if len(children) == 0 && start < end && end <= len(p.src) {
		n.Text = p.src[start:end]
	}
	return n
}

func leaf(ix *text.LineIndex, kind string, t token) *cst.Node {
	return &cst.Node{
		Kind:  kind,
		Start: ix.PositionFor(uint32(t.start)),
		End:   ix.PositionFor(uint32(t.end)),
		Text:  t.text,
	}
}

// parseProc parses parallel composition, the lowest-precedence form.
// `A | B | C` nests left: par(par(A, B), C).
func (p *parser) parseProc() *cst.Node {
	left := p.parsePrimary()
	for p.peek().kind == tokPipe {
		p.next()
		right := p.parsePrimary()
		left = p.node(cst.KindPar, int(left.Start.Byte), int(right.End.Byte), left, right)
	}
	return left
}

// parsePrimary parses one atom and applies a send suffix when a `!` or
// `!!` argument list follows it.
func (p *parser) parsePrimary() *cst.Node {
	return p.parseSendSuffix(p.parseAtom())
}

func (p *parser) parseAtom() *cst.Node {
	t := p.peek()
	switch t.kind {
	case tokKeyword:
		switch t.text {
		case "new":
			return p.parseNew()
		case "contract":
			return p.parseContract()
		case "for":
			return p.parseFor()
		case "let":
			return p.parseLet()
		case "match":
			return p.parseMatch()
		case "if":
			return p.parseIf()
		case "Nil":
			p.next()
			return p.node(cst.KindNil, t.start, t.end)
		case "true", "false":
			p.next()
			return p.node(cst.KindBool, t.start, t.end)
		case "Set":
			return p.parseCollection(cst.KindSet)
		case "PathMap":
			return p.parseCollection(cst.KindPathMap)
		case "bundle":
			return p.parseBundle()
		case "in", "else":
			// Stray keyword: emit an error leaf and move on.
			p.next()
			return p.node(cst.KindError, t.start, t.end)
		}
	case tokLong:
		p.next()
		return p.node(cst.KindLong, t.start, t.end)
	case tokString:
		p.next()
		return p.node(cst.KindString, t.start, t.end)
	case tokURI:
		p.next()
		return p.node(cst.KindURI, t.start, t.end)
	case tokWildcard:
		p.next()
		return p.node(cst.KindWildcard, t.start, t.end)
	case tokIdent:
		p.next()
		return p.node(cst.KindVar, t.start, t.end)
	case tokStar:
		// Deref `*x` reads the name; the reference position is the
		// identifier itself.
		p.next()
		id := p.expect(tokIdent)
		return p.node(cst.KindVar, id.start, id.end)
	case tokAt:
		return p.parseQuote()
	case tokLBrace:
		return p.parseBraced()
	case tokLParen:
		return p.parseParenOrTuple()
	case tokLBracket:
		return p.parseList()
	}

	p.next()
	return p.node(cst.KindError, t.start, t.end)
}

// parseSendSuffix turns a name into a send when a `!` or `!!` with an
// argument list follows.
func (p *parser) parseSendSuffix(channel *cst.Node) *cst.Node {
	kind := ""
	switch {
	case p.peek().kind == tokBang && p.peek2().kind == tokLParen:
		kind = cst.KindSend
	case p.peek().kind == tokBangBang && p.peek2().kind == tokLParen:
		kind = cst.KindSendPersist
	default:
		return channel
	}

	p.next() // operator
	p.next() // (
	children := []*cst.Node{channel}
	for p.peek().kind != tokRParen && p.peek().kind != tokEOF {
		children = append(children, p.parseProc())
		if p.peek().kind == tokComma {
			p.next()
		}
	}
	rp := p.expect(tokRParen)
	return p.node(kind, int(channel.Start.Byte), rp.end, children...)
}

func (p *parser) parseQuote() *cst.Node {
	at := p.next()
	inner := p.parseAtom()
	return p.node(cst.KindQuote, at.start, int(inner.End.Byte), inner)
}

func (p *parser) parseNew() *cst.Node {
	kw := p.next()
	var children []*cst.Node
	for p.peek().kind == tokIdent {
		id := p.next()
		children = append(children, p.node(cst.KindNameDecl, id.start, id.end))
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		break
	}
	p.expectKeyword("in")
	body := p.parsePrimary()
	children = append(children, body)
	return p.node(cst.KindNew, kw.start, int(body.End.Byte), children...)
}

func (p *parser) parseContract() *cst.Node {
	kw := p.next()
	name := p.parseName()
	children := []*cst.Node{name}

	p.expect(tokLParen)
	for p.peek().kind != tokRParen && p.peek().kind != tokEOF {
		if p.peek().kind == tokEllipsis {
			ell := p.next()
			pat := p.parsePattern()
			children = append(children, p.node(cst.KindRemainder, ell.start, int(pat.End.Byte), pat))
		} else {
			children = append(children, p.parsePattern())
		}
		if p.peek().kind == tokComma {
			p.next()
		}
	}
	p.expect(tokRParen)
	p.expect(tokEq)
	body := p.parsePrimary()
	children = append(children, body)
	return p.node(cst.KindContract, kw.start, int(body.End.Byte), children...)
}

// parseName parses a channel position: a variable or a quoted expression.
func (p *parser) parseName() *cst.Node {
	switch p.peek().kind {
	case tokAt:
		at := p.next()
		inner := p.parseAtom()
		return p.node(cst.KindQuote, at.start, int(inner.End.Byte), inner)
	case tokIdent:
		t := p.next()
		return p.node(cst.KindVar, t.start, t.end)
	case tokStar:
		p.next()
		t := p.expect(tokIdent)
		return p.node(cst.KindVar, t.start, t.end)
	default:
		t := p.next()
		return p.node(cst.KindError, t.start, t.end)
	}
}

// parsePattern parses a formal or case pattern. Patterns reuse the process
// grammar; conjunction patterns are not produced by this subset.
func (p *parser) parsePattern() *cst.Node {
	return p.parsePrimary()
}

func (p *parser) parseFor() *cst.Node {
	kw := p.next()
	p.expect(tokLParen)

	var children []*cst.Node
	for p.peek().kind != tokRParen && p.peek().kind != tokEOF {
		children = append(children, p.parseBind())
		if p.peek().kind == tokSemi {
			p.next()
		}
	}
	p.expect(tokRParen)
	body := p.parsePrimary()
	children = append(children, body)
	return p.node(cst.KindReceive, kw.start, int(body.End.Byte), children...)
}

func (p *parser) parseBind() *cst.Node {
	var children []*cst.Node
	start := p.peek().start
	for {
		if p.peek().kind == tokEllipsis {
			ell := p.next()
			pat := p.parsePattern()
			children = append(children, p.node(cst.KindRemainder, ell.start, int(pat.End.Byte), pat))
		} else {
			children = append(children, p.parsePattern())
		}
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		break
	}
	p.expect(tokLArrow)
	source := p.parseName()
	children = append(children, source)
	return p.node(cst.KindBind, start, int(source.End.Byte), children...)
}

func (p *parser) parseLet() *cst.Node {
	kw := p.next()
	var children []*cst.Node
	for {
		declStart := p.peek().start
		name := p.parseName()
		p.expect(tokEq)
		value := p.parseProcNoTrailingPipe()
		children = append(children, p.node(cst.KindLetDecl, declStart, int(value.End.Byte), name, value))
		if p.peek().kind == tokSemi {
			p.next()
			continue
		}
		break
	}
	p.expectKeyword("in")
	body := p.parsePrimary()
	children = append(children, body)
	return p.node(cst.KindLet, kw.start, int(body.End.Byte), children...)
}

// parseProcNoTrailingPipe parses a single process without consuming `|`,
// for contexts where a pipe belongs to the enclosing form.
func (p *parser) parseProcNoTrailingPipe() *cst.Node {
	return p.parsePrimary()
}

func (p *parser) parseMatch() *cst.Node {
	kw := p.next()
	target := p.parsePrimary()
	children := []*cst.Node{target}

	p.expect(tokLBrace)
	for p.peek().kind != tokRBrace && p.peek().kind != tokEOF {
		caseStart := p.peek().start
		pat := p.parsePattern()
		p.expect(tokArrow)
		body := p.parsePrimary()
		children = append(children, p.node(cst.KindMatchCase, caseStart, int(body.End.Byte), pat, body))
	}
	rb := p.expect(tokRBrace)
	return p.node(cst.KindMatch, kw.start, rb.end, children...)
}

func (p *parser) parseIf() *cst.Node {
	kw := p.next()
	p.expect(tokLParen)
	cond := p.parseProc()
	p.expect(tokRParen)
	then := p.parsePrimary()
	children := []*cst.Node{cond, then}
	end := int(then.End.Byte)
	if p.peek().kind == tokKeyword && p.peek().text == "else" {
		p.next()
		els := p.parsePrimary()
		children = append(children, els)
		end = int(els.End.Byte)
	}
	return p.node(cst.KindIfElse, kw.start, end, children...)
}

// parseBraced disambiguates `{ proc }` blocks from `{ k: v }` map
// literals by whether a colon follows the first entry.
func (p *parser) parseBraced() *cst.Node {
	lb := p.next()
	if p.peek().kind == tokRBrace {
		rb := p.next()
		return p.node(cst.KindMap, lb.start, rb.end)
	}

	first := p.parseProcNoTrailingPipe()
	if p.peek().kind == tokColon {
		return p.parseMapTail(lb, first)
	}

	// Block: the first process may continue with pipes.
	for p.peek().kind == tokPipe {
		p.next()
		right := p.parsePrimary()
		first = p.node(cst.KindPar, int(first.Start.Byte), int(right.End.Byte), first, right)
	}
	rb := p.expect(tokRBrace)
	return p.node(cst.KindBlock, lb.start, rb.end, first)
}

func (p *parser) parseMapTail(lb token, firstKey *cst.Node) *cst.Node {
	var children []*cst.Node
	p.expect(tokColon)
	firstVal := p.parseProcNoTrailingPipe()
	children = append(children, p.node(cst.KindKeyValuePair,
		int(firstKey.Start.Byte), int(firstVal.End.Byte), firstKey, firstVal))

	for p.peek().kind == tokComma {
		p.next()
		if p.peek().kind == tokEllipsis {
			ell := p.next()
			rest := p.parsePattern()
			children = append(children, p.node(cst.KindRemainder, ell.start, int(rest.End.Byte), rest))
			continue
		}
		key := p.parseProcNoTrailingPipe()
		p.expect(tokColon)
		val := p.parseProcNoTrailingPipe()
		children = append(children, p.node(cst.KindKeyValuePair,
			int(key.Start.Byte), int(val.End.Byte), key, val))
	}
	rb := p.expect(tokRBrace)
	return p.node(cst.KindMap, lb.start, rb.end, children...)
}

func (p *parser) parseParenOrTuple() *cst.Node {
	lp := p.next()
	if p.peek().kind == tokRParen {
		rp := p.next()
		return p.node(cst.KindTuple, lp.start, rp.end)
	}
	first := p.parseProc()
	if p.peek().kind == tokComma {
		children := []*cst.Node{first}
		for p.peek().kind == tokComma {
			p.next()
			children = append(children, p.parseProc())
		}
		rp := p.expect(tokRParen)
		return p.node(cst.KindTuple, lp.start, rp.end, children...)
	}
	rp := p.expect(tokRParen)
	return p.node(cst.KindParenthesized, lp.start, rp.end, first)
}

func (p *parser) parseList() *cst.Node {
	lb := p.next()
	var children []*cst.Node
	for p.peek().kind != tokRBracket && p.peek().kind != tokEOF {
		if p.peek().kind == tokEllipsis {
			ell := p.next()
			rest := p.parsePattern()
			children = append(children, p.node(cst.KindRemainder, ell.start, int(rest.End.Byte), rest))
		} else {
			children = append(children, p.parseProc())
		}
		if p.peek().kind == tokComma {
			p.next()
		}
	}
	rb := p.expect(tokRBracket)
	return p.node(cst.KindList, lb.start, rb.end, children...)
}

func (p *parser) parseCollection(kind string) *cst.Node {
	kw := p.next()
	p.expect(tokLParen)
	var children []*cst.Node
	for p.peek().kind != tokRParen && p.peek().kind != tokEOF {
		children = append(children, p.parseProc())
		if p.peek().kind == tokComma {
			p.next()
		}
	}
	rp := p.expect(tokRParen)
	return p.node(kind, kw.start, rp.end, children...)
}

func (p *parser) parseBundle() *cst.Node {
	kw := p.next()
	body := p.parsePrimary()
	return p.node(cst.KindBlock, kw.start, int(body.End.Byte), body)
}

func (p *parser) expectKeyword(word string) {
	if p.peek().kind == tokKeyword && p.peek().text == word {
		p.next()
	}
}
