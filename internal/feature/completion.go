package feature

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/completion"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// CompletionContext classifies where the cursor sits; some contexts
// suppress identifier completion entirely.
type CompletionContext string

const (
	ContextLexical    CompletionContext = "lexical"
	ContextString     CompletionContext = "string"
	ContextVirtualDoc CompletionContext = "virtual_document"
	ContextComment    CompletionContext = "comment"
)

// CompletionItem is one ranked completion result.
type CompletionItem struct {
	Label         string `json:"label"`
	Kind          string `json:"kind"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// CompletionAt extracts the partial identifier at the cursor, classifies
// the context, queries the dictionary, and returns the ranked head of the
// results.
func (p *Provider) CompletionAt(uri string, pos position.Position) ([]CompletionItem, CompletionContext) {
	entry, ok := p.Docs.Get(uri)
	if !ok {
		return nil, ContextLexical
	}

	ctx := p.classify(uri, entry.Source, pos)
	if ctx != ContextLexical {
		return nil, ctx
	}

	prefix := partialIdentifier(entry.Source, pos.Byte)
	candidates := p.Completions.Query(prefix)

	limit := p.MaxCompletions
	if limit <= 0 {
		limit = 20
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CompletionItem{
			Label:         c.Name,
			Kind:          c.Meta.Kind,
			Detail:        c.Meta.Signature,
			Documentation: c.Meta.Documentation,
		})
	}
	return out, ctx
}

func (p *Provider) classify(uri string, source []byte, pos position.Position) CompletionContext {
	if p.Virtual != nil {
		for _, v := range p.Virtual.Documents(uri) {
			if _, inside := v.FromParent(pos); inside && pos.Byte >= v.ParentRange.Start.Byte && pos.Byte <= v.ParentRange.End.Byte {
				return ContextVirtualDoc
			}
		}
	}
	if insideString(source, pos.Byte) {
		return ContextString
	}
	if entry, ok := p.Docs.Get(uri); ok {
		if _, inComment := entry.Doc.CommentAt(pos); inComment {
			return ContextComment
		}
	}
	return ContextLexical
}

// partialIdentifier scans backwards from the cursor for the identifier
// run being typed.
func partialIdentifier(source []byte, offset uint32) string {
	end := int(offset)
	if end > len(source) {
		end = len(source)
	}
	start := end
	for start > 0 && isIdentByte(source[start-1]) {
		start--
	}
	return string(source[start:end])
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '\'' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// insideString reports whether the offset falls inside a string literal,
// by counting unescaped quotes before it.
func insideString(source []byte, offset uint32) bool {
	inString := false
	for i := 0; i < int(offset) && i < len(source); i++ {
		switch source[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		}
	}
	return inString
}

// SeedKeywords populates the dictionary with the language keyword set at
// workspace start.
func SeedKeywords(dict *completion.Dictionary) {
	for _, kw := range []string{
		"contract", "for", "new", "in", "match", "select", "if", "else",
		"let", "true", "false", "Nil", "bundle",
	} {
		dict.Insert(kw, completion.Meta{Kind: "keyword"})
	}
}
