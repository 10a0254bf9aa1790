package ir

import (
	"regexp"
	"sort"
	"strings"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// Comment is one comment in the document's side channel. Comments are
// excluded from the IR tree; their starts are delta-encoded from the end of
// the previous comment, so absolute positions only exist after walking the
// chain from the first entry.
type Comment struct {
	RelStart    position.RelativePosition `json:"relative_start"`
	SpanLines   uint32                    `json:"span_lines"`
	SpanColumns uint32                    `json:"span_columns"`
	Length      uint32                    `json:"length"`
	Text        string                    `json:"text"`
	Doc         bool                      `json:"doc"`
	Directive   string                    `json:"directive,omitempty"`
}

// PlacedComment is a comment with its absolute span resolved.
type PlacedComment struct {
	Comment
	Span position.Span
}

var (
	directiveLong  = regexp.MustCompile(`^@language\s+([A-Za-z][\w-]*)$`)
	directiveShort = regexp.MustCompile(`^@([A-Za-z][\w-]*)$`)
)

// ParseDirective extracts a language tag from cleaned comment text. Both
// the long form `@language metta` and the bare form `@metta` are accepted;
// the registry decides whether the tag names a known language.
func ParseDirective(text string) string {
	text = strings.TrimSpace(text)
	if m := directiveLong.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if m := directiveShort.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// CleanCommentText strips comment delimiters and leading doc markers,
// reporting whether the comment was a doc comment.
func CleanCommentText(raw string) (text string, doc bool) {
	switch {
	case strings.HasPrefix(raw, "///"):
		return strings.TrimSpace(strings.TrimPrefix(raw, "///")), true
	case strings.HasPrefix(raw, "//"):
		return strings.TrimSpace(strings.TrimPrefix(raw, "//")), false
	case strings.HasPrefix(raw, "/*"):
		body := strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")
		var lines []string
		for _, l := range strings.Split(body, "\n") {
			lines = append(lines, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "*")))
		}
		return strings.TrimSpace(strings.Join(lines, "\n")), false
	default:
		return strings.TrimSpace(raw), false
	}
}

// Document is the per-file bundle the adapter produces: the IR root plus
// the sorted comment channel.
type Document struct {
	URI      string
	Root     Node
	Comments []Comment
}

// PlacedComments walks the full delta chain and resolves every comment's
// absolute span. Callers that filter comments must start from this: the
// chain only resolves when every entry advances prev_end.
func (d *Document) PlacedComments() []PlacedComment {
	out := make([]PlacedComment, 0, len(d.Comments))
	prevEnd := position.Zero
	for _, c := range d.Comments {
		start := c.RelStart.Apply(prevEnd)
		end := position.Advance(start, c.SpanLines, c.SpanColumns, c.Length)
		out = append(out, PlacedComment{Comment: c, Span: position.Span{Start: start, End: end}})
		prevEnd = end
	}
	return out
}

// CommentAt finds the comment containing p, by binary search over the
// resolved chain.
func (d *Document) CommentAt(p position.Position) (PlacedComment, bool) {
	placed := d.PlacedComments()
	i := sort.Search(len(placed), func(i int) bool {
		return placed[i].Span.End.Byte >= p.Byte
	})
	if i < len(placed) && placed[i].Span.Contains(p) {
		return placed[i], true
	}
	return PlacedComment{}, false
}

// CommentsInRange returns the comments overlapping [r.Start, r.End], with
// an early exit once starts pass the range.
func (d *Document) CommentsInRange(r position.Span) []PlacedComment {
	var out []PlacedComment
	for _, c := range d.PlacedComments() {
		if c.Span.Start.Byte > r.End.Byte {
			break
		}
		if c.Span.End.Byte >= r.Start.Byte {
			out = append(out, c)
		}
	}
	return out
}

// Directives returns the comments carrying a parsed language directive.
// Positions are resolved over the full chain before filtering.
func (d *Document) Directives() []PlacedComment {
	var out []PlacedComment
	for _, c := range d.PlacedComments() {
		if c.Directive != "" {
			out = append(out, c)
		}
	}
	return out
}

// DocCommentsBefore collects the run of consecutive doc comments ending
// within one line above p, allowing at most one blank line inside the run.
func (d *Document) DocCommentsBefore(p position.Position) []PlacedComment {
	placed := d.PlacedComments()

	var run []PlacedComment
	for _, c := range placed {
		if c.Span.End.Row >= p.Row || c.Span.End.Byte >= p.Byte {
			break
		}
		if !c.Doc {
			run = nil
			continue
		}
		if len(run) > 0 {
			gap := int(c.Span.Start.Row) - int(run[len(run)-1].Span.End.Row)
			if gap > 2 {
				run = []PlacedComment{c}
				continue
			}
		}
		run = append(run, c)
	}

	if len(run) == 0 {
		return nil
	}
	last := run[len(run)-1]
	if int(p.Row)-int(last.Span.End.Row) > 1 {
		return nil
	}
	return run
}

// DocLines returns the cleaned text lines of a doc-comment run, ready for
// docs.Parse.
func DocLines(run []PlacedComment) []string {
	var lines []string
	for _, c := range run {
		lines = append(lines, strings.Split(c.Text, "\n")...)
	}
	return lines
}
