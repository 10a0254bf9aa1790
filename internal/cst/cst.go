// Package cst is the boundary to the external incremental parser. The
// analyzer consumes concrete syntax trees through the Node type defined
// here; production trees arrive from a tree-sitter grammar via FromSitter,
// and tests hand-build trees with the Builder.
package cst

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// Node kinds the adapter recognizes. The upstream grammar may emit more;
// unknown kinds convert to placeholder IR with a diagnostic.
const (
	KindSourceFile    = "source_file"
	KindNil           = "nil"
	KindBool          = "bool_literal"
	KindLong          = "long_literal"
	KindString        = "string_literal"
	KindURI           = "uri_literal"
	KindBytes         = "bytes_literal"
	KindVar           = "var"
	KindWildcard      = "wildcard"
	KindQuote         = "quote"
	KindList          = "list"
	KindSet           = "set"
	KindTuple         = "tuple"
	KindMap           = "map"
	KindPathMap       = "pathmap"
	KindKeyValuePair  = "key_value_pair"
	KindSend          = "send"
	KindSendPersist   = "send_persistent"
	KindReceive       = "receive"
	KindBind          = "bind"
	KindContract      = "contract"
	KindFormals       = "formals"
	KindLet           = "let"
	KindLetDecl       = "let_decl"
	KindNew           = "new"
	KindNameDecl      = "name_decl"
	KindMatch         = "match"
	KindMatchCase     = "match_case"
	KindIfElse        = "if_else"
	KindBlock         = "block"
	KindParenthesized = "parenthesized"
	KindPar           = "par"
	KindConnPat       = "conn_pat"
	KindRemainder     = "remainder"
	KindLineComment   = "line_comment"
	KindBlockComment  = "block_comment"
	KindError         = "ERROR"
)

// Node is one concrete syntax node with absolute positions. Trees are
// produced externally and treated as read-only by the adapter.
type Node struct {
	Kind     string
	Start    position.Position
	End      position.Position
	Text     string
	Children []*Node
}

// IsComment reports whether kind names a comment node. Comment nodes are
// excluded from the IR and routed to the document's comment channel.
func IsComment(kind string) bool {
	return kind == KindLineComment || kind == KindBlockComment
}

// NamedChildren returns children excluding comments, in document order.
func (n *Node) NamedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !IsComment(c.Kind) {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first non-comment child with the given kind, or nil.
func (n *Node) FirstChild(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Walk visits n and every descendant in document order. The visitor returns
// false to prune the subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}
