// Package position defines the position model shared by the whole analyzer:
// absolute positions, delta-encoded relative positions, and the dual-length
// NodeBase every IR node carries.
//
// Positions are zero-based. Comparisons use byte order; row/column exist for
// editor-facing conversion only.
package position

// Position is an absolute location in a document.
type Position struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
	Byte   uint32 `json:"byte"`
}

// Zero is the document origin, the initial prev_end for a full traversal.
var Zero = Position{}

// Before reports whether p precedes o in byte order.
func (p Position) Before(o Position) bool {
	return p.Byte < o.Byte
}

// RelativePosition encodes a start position as a delta from the end of the
// previous node in traversal order.
//
// Invariant: when DeltaLines != 0, DeltaColumns is the absolute column on the
// new line, not a delta. When DeltaLines == 0 it is a signed column delta.
// DeltaBytes is always an unsigned byte delta.
type RelativePosition struct {
	DeltaLines   int32  `json:"delta_lines"`
	DeltaColumns int32  `json:"delta_columns"`
	DeltaBytes   uint32 `json:"delta_bytes"`
}

// Delta computes the relative position of start with respect to prevEnd.
// A start that precedes prevEnd in byte order is a programming bug upstream;
// the delta is clamped to zero so traversal can continue best-effort.
func Delta(prevEnd, start Position) RelativePosition {
	rel := RelativePosition{
		DeltaLines: int32(start.Row) - int32(prevEnd.Row),
	}
	if rel.DeltaLines != 0 {
		rel.DeltaColumns = int32(start.Column)
	} else {
		rel.DeltaColumns = int32(start.Column) - int32(prevEnd.Column)
	}
	if start.Byte >= prevEnd.Byte {
		rel.DeltaBytes = start.Byte - prevEnd.Byte
	}
	return rel
}

// ValidDelta reports whether start can be delta-encoded against prevEnd
// without clamping.
func ValidDelta(prevEnd, start Position) bool {
	return start.Byte >= prevEnd.Byte
}

// Apply resolves the relative position against prevEnd, yielding the
// absolute start it encodes.
func (r RelativePosition) Apply(prevEnd Position) Position {
	p := Position{Byte: prevEnd.Byte + r.DeltaBytes}
	if r.DeltaLines != 0 {
		p.Row = uint32(int32(prevEnd.Row) + r.DeltaLines)
		p.Column = uint32(r.DeltaColumns)
	} else {
		p.Row = prevEnd.Row
		p.Column = uint32(int32(prevEnd.Column) + r.DeltaColumns)
	}
	return p
}

// Advance lifts start by a span. spanColumns is the column count on the final
// spanned line: an absolute end column when spanLines > 0, a width otherwise.
// Byte addition is exact.
func Advance(start Position, spanLines, spanColumns, lengthBytes uint32) Position {
	end := Position{
		Row:  start.Row + spanLines,
		Byte: start.Byte + lengthBytes,
	}
	if spanLines == 0 {
		end.Column = start.Column + spanColumns
	} else {
		end.Column = spanColumns
	}
	return end
}

// NodeBase is the span record embedded in every IR node.
//
// ContentLength runs to the end of the last semantically meaningful child;
// SyntacticLength runs to the true end including closing delimiters.
// Reconstruction must use SyntacticLength: ContentLength <= SyntacticLength.
type NodeBase struct {
	RelativeStart   RelativePosition `json:"relative_start"`
	ContentLength   uint32           `json:"content_length"`
	SyntacticLength uint32           `json:"syntactic_length"`
	SpanLines       uint32           `json:"span_lines"`
	SpanColumns     uint32           `json:"span_columns"`
}

// Start resolves the node's absolute start against the caller's prev_end.
func (b NodeBase) Start(prevEnd Position) Position {
	return b.RelativeStart.Apply(prevEnd)
}

// End resolves the node's absolute end given its resolved start. The
// syntactic length is authoritative; content length exists for semantic
// queries only.
func (b NodeBase) End(start Position) Position {
	return Advance(start, b.SpanLines, b.SpanColumns, b.SyntacticLength)
}

// Span is a resolved (start, end) pair.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports byte-inclusive containment of p within s. The end bound
// is inclusive so that a cursor one past the final byte of a name still
// counts as inside it (the right boundary rule).
func (s Span) Contains(p Position) bool {
	return p.Byte >= s.Start.Byte && p.Byte <= s.End.Byte
}
