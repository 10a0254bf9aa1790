// Package text provides random access over source text: byte offset to
// row/column resolution and UTF-8 byte column to UTF-16 code unit column
// conversion for the editor wire format.
package text

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// LineIndex is an immutable index of line start offsets over a source
// buffer. It is rebuilt per parse and shared read-only afterwards.
type LineIndex struct {
	src        []byte
	lineStarts []uint32
}

// NewLineIndex scans src once and records every line start.
func NewLineIndex(src []byte) *LineIndex {
	starts := []uint32{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &LineIndex{src: src, lineStarts: starts}
}

// Len returns the source length in bytes.
func (ix *LineIndex) Len() int { return len(ix.src) }

// Source returns the underlying buffer. Callers must not mutate it.
func (ix *LineIndex) Source() []byte { return ix.src }

// LineCount returns the number of lines, counting a trailing newline as
// opening a final empty line.
func (ix *LineIndex) LineCount() int { return len(ix.lineStarts) }

// PositionFor resolves a byte offset into an absolute position. Offsets past
// the end of the buffer clamp to the final position.
func (ix *LineIndex) PositionFor(offset uint32) position.Position {
	if offset > uint32(len(ix.src)) {
		offset = uint32(len(ix.src))
	}
	row := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return position.Position{
		Row:    uint32(row),
		Column: offset - ix.lineStarts[row],
		Byte:   offset,
	}
}

// ByteFor resolves a row and byte-column back to an absolute offset.
func (ix *LineIndex) ByteFor(row, column uint32) uint32 {
	if int(row) >= len(ix.lineStarts) {
		return uint32(len(ix.src))
	}
	b := ix.lineStarts[row] + column
	if b > uint32(len(ix.src)) {
		b = uint32(len(ix.src))
	}
	return b
}

// Line returns the text of a row without its trailing newline.
func (ix *LineIndex) Line(row uint32) []byte {
	if int(row) >= len(ix.lineStarts) {
		return nil
	}
	start := ix.lineStarts[row]
	end := uint32(len(ix.src))
	if int(row+1) < len(ix.lineStarts) {
		end = ix.lineStarts[row+1] - 1
	}
	return ix.src[start:end]
}

// UTF16Column converts a byte column on a row to UTF-16 code units, the
// column unit the LSP wire format uses.
func (ix *LineIndex) UTF16Column(row, byteColumn uint32) uint32 {
	line := ix.Line(row)
	if byteColumn > uint32(len(line)) {
		byteColumn = uint32(len(line))
	}
	var units uint32
	for i := 0; i < int(byteColumn); {
		r, size := utf8.DecodeRune(line[i:])
		units += uint32(len(utf16.Encode([]rune{r})))
		i += size
	}
	return units
}

// ByteColumn converts a UTF-16 code unit column on a row back to a byte
// column. Columns past the end of the line clamp to the line length.
func (ix *LineIndex) ByteColumn(row, utf16Column uint32) uint32 {
	line := ix.Line(row)
	var units uint32
	for i := 0; i < len(line); {
		if units >= utf16Column {
			return uint32(i)
		}
		r, size := utf8.DecodeRune(line[i:])
		units += uint32(len(utf16.Encode([]rune{r})))
		i += size
	}
	return uint32(len(line))
}
