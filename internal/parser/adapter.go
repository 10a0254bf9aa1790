// Package parser converts concrete syntax trees from the external parser
// into the analyzer's delta-positioned IR, separating comments into the
// document's sorted side channel.
package parser

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/f1r3fly-io/rholang-analyzer/internal/cst"
	"github.com/f1r3fly-io/rholang-analyzer/internal/diag"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// adapter threads one conversion. Conversion is best-effort: malformed CST
// regions produce placeholder nodes plus diagnostics, never a failed parse.
type adapter struct {
	uri    string
	source []byte
	diags  []diag.Diagnostic
}

// Convert builds a Document from a CST root and its source text. The
// traversal starts from prev_end (0,0,0).
func Convert(uri string, root *cst.Node, source []byte) (*ir.Document, []diag.Diagnostic) {
	a := &adapter{uri: uri, source: source}

	doc := &ir.Document{URI: uri}
	doc.Comments = a.collectComments(root)

	body := root
	if root.Kind == cst.KindSourceFile {
		named := root.NamedChildren()
		switch len(named) {
		case 0:
			doc.Root = a.placeholder(root, position.Zero, "empty source file")
			return doc, a.diags
		case 1:
			body = named[0]
		default:
			// Multiple top-level processes behave as an implicit Par.
			doc.Root = a.convertParChildren(root, named, position.Zero)
			return doc, a.diags
		}
	}

	node, _ := a.convert(body, position.Zero)
	doc.Root = node
	return doc, a.diags
}

// collectComments gathers every comment node in document order and
// delta-encodes each against the end of the previous comment.
func (a *adapter) collectComments(root *cst.Node) []ir.Comment {
	var out []ir.Comment
	prevEnd := position.Zero
	root.Walk(func(n *cst.Node) bool {
		if !cst.IsComment(n.Kind) {
			return true
		}
		text, doc := ir.CleanCommentText(n.Text)
		out = append(out, ir.Comment{
			RelStart:    position.Delta(prevEnd, n.Start),
			SpanLines:   n.End.Row - n.Start.Row,
			SpanColumns: spanColumns(n.Start, n.End),
			Length:      n.End.Byte - n.Start.Byte,
			Text:        text,
			Doc:         doc,
			Directive:   ir.ParseDirective(text),
		})
		prevEnd = n.End
		return false
	})
	return out
}

// convert translates one CST node, returning the IR node and the
// CST-reported absolute end. Returning the reported end, not the last
// child's end, keeps sibling deltas correct past closing delimiters.
func (a *adapter) convert(n *cst.Node, prevEnd position.Position) (ir.Node, position.Position) {
	if !position.ValidDelta(prevEnd, n.Start) {
		a.report(n, diag.CodePositionError, diag.SeverityWarning,
			fmt.Sprintf("node %q starts before the previous sibling's end", n.Kind))
	}

	var node ir.Node
	switch n.Kind {
	case cst.KindNil:
		node = &ir.NilLit{}
	case cst.KindBool:
		node = &ir.BoolLit{Value: n.Text == "true"}
	case cst.KindLong:
		v, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			a.report(n, diag.CodeParseError, diag.SeverityError, "invalid integer literal: "+n.Text)
		}
		node = &ir.LongLit{Value: v}
	case cst.KindString:
		node = &ir.StringLit{Value: unquote(n.Text)}
	case cst.KindURI:
		node = &ir.URILit{Value: strings.Trim(n.Text, "`")}
	case cst.KindBytes:
		raw, err := hex.DecodeString(strings.TrimPrefix(n.Text, "0x"))
		if err != nil {
			a.report(n, diag.CodeParseError, diag.SeverityError, "invalid byte literal: "+n.Text)
		}
		node = &ir.BytesLit{Value: raw}
	case cst.KindVar, cst.KindNameDecl:
		node = &ir.Var{Name: n.Text}
	case cst.KindWildcard:
		node = &ir.Wildcard{}
	case cst.KindQuote:
		node = a.convertQuote(n)
	case cst.KindList:
		node = a.convertList(n)
	case cst.KindSet:
		node = a.convertSet(n)
	case cst.KindTuple:
		node = a.convertTuple(n)
	case cst.KindMap:
		node = a.convertMap(n)
	case cst.KindPathMap:
		node = a.convertPathMap(n)
	case cst.KindSend, cst.KindSendPersist:
		node = a.convertSend(n)
	case cst.KindReceive:
		node = a.convertReceive(n)
	case cst.KindContract:
		node = a.convertContract(n)
	case cst.KindLet:
		node = a.convertLet(n)
	case cst.KindNew:
		node = a.convertNew(n)
	case cst.KindMatch:
		node = a.convertMatch(n)
	case cst.KindIfElse:
		node = a.convertIfElse(n)
	case cst.KindBlock:
		node = a.convertBlock(n)
	case cst.KindParenthesized:
		node = a.convertParenthesized(n)
	case cst.KindPar:
		node = a.convertPar(n)
	case cst.KindConnPat:
		node = a.convertConnPat(n)
	case cst.KindError:
		a.report(n, diag.CodeParseError, diag.SeverityError, "syntax error")
		node = a.placeholderNode("syntax error")
	default:
		a.report(n, diag.CodeParseError, diag.SeverityWarning, "unrecognized node kind: "+n.Kind)
		node = a.placeholderNode("unrecognized: " + n.Kind)
	}

	a.fillBase(node, n, prevEnd)
	return node, n.End
}

// fillBase computes the node's relative start, spans, and dual lengths.
// Content length runs to the last child's end for delimited nodes; the
// syntactic length always runs to the CST-reported end.
func (a *adapter) fillBase(node ir.Node, n *cst.Node, prevEnd position.Position) {
	b := node.Base()
	b.RelativeStart = position.Delta(prevEnd, n.Start)
	b.SpanLines = n.End.Row - n.Start.Row
	b.SpanColumns = spanColumns(n.Start, n.End)
	b.SyntacticLength = n.End.Byte - n.Start.Byte
	b.ContentLength = b.SyntacticLength

	if isDelimited(n.Kind) {
		if named := n.NamedChildren(); len(named) > 0 {
			b.ContentLength = named[len(named)-1].End.Byte - n.Start.Byte
		}
	}
}

func isDelimited(kind string) bool {
	switch kind {
	case cst.KindBlock, cst.KindParenthesized, cst.KindList, cst.KindSet,
		cst.KindTuple, cst.KindMap, cst.KindPathMap, cst.KindSend,
		cst.KindSendPersist, cst.KindContract, cst.KindReceive,
		cst.KindMatch, cst.KindNew, cst.KindLet, cst.KindIfElse:
		return true
	}
	return false
}

func spanColumns(start, end position.Position) uint32 {
	if start.Row == end.Row {
		return end.Column - start.Column
	}
	return end.Column
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// convertChildren threads a child sequence: the first child encodes against
// the parent's start, each later child against the previous child's
// CST-reported end.
func (a *adapter) convertChildren(parent *cst.Node, children []*cst.Node) []ir.Node {
	out := make([]ir.Node, 0, len(children))
	prevEnd := parent.Start
	for _, c := range children {
		node, end := a.convert(c, prevEnd)
		out = append(out, node)
		prevEnd = end
	}
	return out
}

func (a *adapter) convertQuote(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "quote without a quoted process")
		return &ir.Quote{Inner: a.placeholderNode("missing quoted process")}
	}
	// The @ sigil occupies one byte before the inner process.
	inner, _ := a.convert(named[0], position.Advance(n.Start, 0, 1, 1))
	return &ir.Quote{Inner: inner}
}

func (a *adapter) convertList(n *cst.Node) ir.Node {
	elems, rem := a.splitRemainder(n, n.NamedChildren())
	return &ir.List{Elements: elems, Remainder: rem}
}

func (a *adapter) convertSet(n *cst.Node) ir.Node {
	elems, rem := a.splitRemainder(n, n.NamedChildren())
	return &ir.SetExpr{Elements: elems, Remainder: rem}
}

func (a *adapter) convertTuple(n *cst.Node) ir.Node {
	return &ir.Tuple{Elements: a.convertChildren(n, n.NamedChildren())}
}

func (a *adapter) convertPathMap(n *cst.Node) ir.Node {
	return &ir.PathMap{Elements: a.convertChildren(n, n.NamedChildren())}
}

// splitRemainder converts an element sequence whose final entry may be a
// remainder pattern.
func (a *adapter) splitRemainder(parent *cst.Node, children []*cst.Node) ([]ir.Node, ir.Node) {
	converted := a.convertChildrenFlat(parent, children)
	for i, c := range children {
		if c.Kind == cst.KindRemainder {
			elems := append([]ir.Node{}, converted[:i]...)
			elems = append(elems, converted[i+1:]...)
			return elems, converted[i]
		}
	}
	return converted, nil
}

// convertChildrenFlat is convertChildren, but remainder wrappers convert to
// their inner pattern while keeping the wrapper's threading position.
func (a *adapter) convertChildrenFlat(parent *cst.Node, children []*cst.Node) []ir.Node {
	out := make([]ir.Node, 0, len(children))
	prevEnd := parent.Start
	for _, c := range children {
		target := c
		if c.Kind == cst.KindRemainder {
			if inner := firstNamed(c); inner != nil {
				target = inner
			}
		}
		node, _ := a.convert(target, prevEnd)
		out = append(out, node)
		prevEnd = c.End
	}
	return out
}

func (a *adapter) convertMap(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	m := &ir.MapExpr{}
	prevEnd := n.Start
	for _, c := range named {
		switch c.Kind {
		case cst.KindKeyValuePair:
			kids := c.NamedChildren()
			if len(kids) != 2 {
				a.report(c, diag.CodeParseError, diag.SeverityError, "map entry missing key or value")
				prevEnd = c.End
				continue
			}
			key, keyEnd := a.convert(kids[0], prevEnd)
			value, _ := a.convert(kids[1], keyEnd)
			m.Pairs = append(m.Pairs, ir.MapPair{Key: key, Value: value})
		case cst.KindRemainder:
			if inner := firstNamed(c); inner != nil {
				m.Remainder, _ = a.convert(inner, prevEnd)
			}
		default:
			a.report(c, diag.CodeParseError, diag.SeverityWarning, "unexpected map child: "+c.Kind)
		}
		prevEnd = c.End
	}
	return m
}

func (a *adapter) convertSend(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "send without a channel")
		return &ir.Send{Channel: a.placeholderNode("missing channel")}
	}

	channel, chanEnd := a.convert(named[0], n.Start)
	send := &ir.Send{
		Channel:       channel,
		Persistent:    n.Kind == cst.KindSendPersist,
		SendTypeDelta: a.sendOperatorDelta(chanEnd),
	}

	prevEnd := position.Advance(chanEnd, 0, send.SendTypeDelta, send.SendTypeDelta)
	for _, c := range named[1:] {
		input, end := a.convert(c, prevEnd)
		send.Inputs = append(send.Inputs, input)
		prevEnd = end
	}
	return send
}

// sendOperatorDelta measures the bytes from the channel's end to the send
// operator by scanning the source. Zero when the source is unavailable or
// malformed.
func (a *adapter) sendOperatorDelta(chanEnd position.Position) uint32 {
	for i := int(chanEnd.Byte); i < len(a.source); i++ {
		switch a.source[i] {
		case '!':
			return uint32(i) - chanEnd.Byte
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return 0
		}
	}
	return 0
}

func (a *adapter) convertReceive(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "for-comprehension without binds")
		return &ir.Receive{Body: a.placeholderNode("missing body")}
	}

	recv := &ir.Receive{}
	prevEnd := n.Start
	for _, c := range named[:len(named)-1] {
		if c.Kind != cst.KindBind {
			a.report(c, diag.CodeParseError, diag.SeverityWarning, "unexpected receive child: "+c.Kind)
			prevEnd = c.End
			continue
		}
		bind, end := a.convertBind(c, prevEnd)
		recv.Binds = append(recv.Binds, bind)
		prevEnd = end
	}
	recv.Body, _ = a.convert(named[len(named)-1], prevEnd)
	return recv
}

func (a *adapter) convertBind(n *cst.Node, prevEnd position.Position) (ir.ReceiveBind, position.Position) {
	named := n.NamedChildren()
	bind := ir.ReceiveBind{}
	if len(named) == 0 {
		bind.Source = a.placeholderNode("missing bind source")
		return bind, n.End
	}

	childPrev := prevEnd
	for _, c := range named[:len(named)-1] {
		if c.Kind == cst.KindRemainder {
			if inner := firstNamed(c); inner != nil {
				bind.Remainder, _ = a.convert(inner, childPrev)
			}
		} else {
			pat, _ := a.convert(c, childPrev)
			bind.Patterns = append(bind.Patterns, pat)
		}
		childPrev = c.End
	}
	bind.Source, _ = a.convert(named[len(named)-1], childPrev)
	return bind, n.End
}

func (a *adapter) convertContract(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) < 2 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "contract missing identifier or body")
		return &ir.Contract{
			Identifier: a.placeholderNode("missing identifier"),
			Body:       a.placeholderNode("missing body"),
		}
	}

	c := &ir.Contract{}
	var end position.Position
	c.Identifier, end = a.convert(named[0], n.Start)

	for _, child := range named[1 : len(named)-1] {
		if child.Kind == cst.KindRemainder {
			if inner := firstNamed(child); inner != nil {
				c.FormalsRemainder, _ = a.convert(inner, end)
			}
		} else {
			formal, _ := a.convert(child, end)
			c.Formals = append(c.Formals, formal)
		}
		end = child.End
	}

	c.Body, _ = a.convert(named[len(named)-1], end)
	return c
}

func (a *adapter) convertLet(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "let without declarations")
		return &ir.Let{Body: a.placeholderNode("missing body")}
	}

	let := &ir.Let{}
	prevEnd := n.Start
	for _, c := range named[:len(named)-1] {
		if c.Kind != cst.KindLetDecl {
			a.report(c, diag.CodeParseError, diag.SeverityWarning, "unexpected let child: "+c.Kind)
			prevEnd = c.End
			continue
		}
		kids := c.NamedChildren()
		if len(kids) < 2 {
			a.report(c, diag.CodeParseError, diag.SeverityError, "let declaration missing value")
			prevEnd = c.End
			continue
		}
		decl := ir.LetDecl{}
		childPrev := prevEnd
		for _, k := range kids[:len(kids)-1] {
			name, end := a.convert(k, childPrev)
			decl.Names = append(decl.Names, name)
			childPrev = end
		}
		decl.Value, _ = a.convert(kids[len(kids)-1], childPrev)
		let.Decls = append(let.Decls, decl)
		prevEnd = c.End
	}
	let.Body, _ = a.convert(named[len(named)-1], prevEnd)
	return let
}

func (a *adapter) convertNew(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "new without declarations")
		return &ir.New{Body: a.placeholderNode("missing body")}
	}

	nn := &ir.New{}
	prevEnd := n.Start
	for _, c := range named[:len(named)-1] {
		decl, end := a.convert(c, prevEnd)
		nn.Decls = append(nn.Decls, decl)
		prevEnd = end
	}
	nn.Body, _ = a.convert(named[len(named)-1], prevEnd)
	return nn
}

func (a *adapter) convertMatch(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "match without a target")
		return &ir.Match{Target: a.placeholderNode("missing target")}
	}

	m := &ir.Match{}
	var prevEnd position.Position
	m.Target, prevEnd = a.convert(named[0], n.Start)

	for _, c := range named[1:] {
		if c.Kind != cst.KindMatchCase {
			a.report(c, diag.CodeParseError, diag.SeverityWarning, "unexpected match child: "+c.Kind)
			prevEnd = c.End
			continue
		}
		kids := c.NamedChildren()
		if len(kids) != 2 {
			a.report(c, diag.CodeParseError, diag.SeverityError, "match case missing pattern or body")
			prevEnd = c.End
			continue
		}
		pat, patEnd := a.convert(kids[0], prevEnd)
		body, _ := a.convert(kids[1], patEnd)
		m.Cases = append(m.Cases, ir.MatchCase{Pattern: pat, Body: body})
		prevEnd = c.End
	}
	return m
}

func (a *adapter) convertIfElse(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) < 2 {
		a.report(n, diag.CodeParseError, diag.SeverityError, "if missing condition or branch")
		return &ir.IfElse{
			Condition: a.placeholderNode("missing condition"),
			Then:      a.placeholderNode("missing branch"),
		}
	}
	i := &ir.IfElse{}
	var end position.Position
	i.Condition, end = a.convert(named[0], n.Start)
	i.Then, end = a.convert(named[1], end)
	if len(named) > 2 {
		i.Else, _ = a.convert(named[2], end)
	}
	return i
}

func (a *adapter) convertBlock(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		return &ir.Block{Body: a.placeholderNode("empty block")}
	}
	body, _ := a.convert(named[0], n.Start)
	return &ir.Block{Body: body}
}

func (a *adapter) convertParenthesized(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		return &ir.Parenthesized{Inner: a.placeholderNode("empty parentheses")}
	}
	inner, _ := a.convert(named[0], n.Start)
	return &ir.Parenthesized{Inner: inner}
}

func (a *adapter) convertConnPat(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	c := &ir.ConnPat{}
	prevEnd := n.Start
	if len(named) > 0 {
		c.Var, prevEnd = a.convert(named[0], prevEnd)
	}
	if len(named) > 1 {
		c.Type, _ = a.convert(named[1], prevEnd)
	}
	return c
}

// convertPar handles a binary CST Par with adaptive flattening: the binary
// form is kept when neither child is itself a Par; otherwise the whole Par
// sub-forest collapses into one n-ary node.
func (a *adapter) convertPar(n *cst.Node) ir.Node {
	named := n.NamedChildren()
	if len(named) != 2 {
		return a.convertParChildren(n, named, n.Start)
	}

	left, leftEnd := a.convert(named[0], n.Start)
	right, _ := a.convert(named[1], leftEnd)

	_, leftIsPar := left.(*ir.Par)
	_, rightIsPar := right.(*ir.Par)
	if !leftIsPar && !rightIsPar {
		return &ir.Par{Left: left, Right: right}
	}

	var processes []ir.Node
	appendProcesses(&processes, left)
	appendProcesses(&processes, right)
	return &ir.Par{Processes: processes}
}

// convertParChildren builds an n-ary Par directly from a child list (the
// implicit top-level Par, or a malformed binary node).
func (a *adapter) convertParChildren(parent *cst.Node, children []*cst.Node, start position.Position) ir.Node {
	par := &ir.Par{Processes: []ir.Node{}}
	prevEnd := start
	for _, c := range children {
		node, end := a.convert(c, prevEnd)
		appendProcesses(&par.Processes, node)
		prevEnd = end
	}
	a.fillBase(par, parent, position.Zero)
	return par
}

// appendProcesses expands nested Par nodes into their leaf processes,
// preserving document order.
func appendProcesses(out *[]ir.Node, n ir.Node) {
	par, ok := n.(*ir.Par)
	if !ok {
		*out = append(*out, n)
		return
	}
	if par.Processes != nil {
		*out = append(*out, par.Processes...)
		return
	}
	appendProcesses(out, par.Left)
	appendProcesses(out, par.Right)
}

func firstNamed(n *cst.Node) *cst.Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		return nil
	}
	return named[0]
}

func (a *adapter) placeholder(n *cst.Node, prevEnd position.Position, note string) ir.Node {
	p := a.placeholderNode(note)
	a.fillBase(p, n, prevEnd)
	return p
}

func (a *adapter) placeholderNode(note string) ir.Node {
	return &ir.Placeholder{Note: note}
}

func (a *adapter) report(n *cst.Node, code diag.Code, sev diag.Severity, msg string) {
	a.diags = append(a.diags, diag.Diagnostic{
		URI:      a.uri,
		Range:    position.Span{Start: n.Start, End: n.End},
		Severity: sev,
		Code:     code,
		Source:   diag.SourceCore,
		Message:  msg,
	})
}
