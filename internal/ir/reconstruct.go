package ir

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// PositionMap holds reconstructed absolute spans keyed by node identity.
// It is valid for the single request that built it; no node stores its own
// absolute position.
type PositionMap struct {
	spans map[Node]position.Span
}

// Span returns the reconstructed span for n.
func (m *PositionMap) Span(n Node) (position.Span, bool) {
	s, ok := m.spans[n]
	return s, ok
}

// MustSpan returns the span for n, or the zero span when n was not part of
// the reconstructed tree.
func (m *PositionMap) MustSpan(n Node) position.Span {
	return m.spans[n]
}

// Len returns the number of reconstructed nodes.
func (m *PositionMap) Len() int { return len(m.spans) }

// Reconstruct rebuilds absolute positions for every node under root,
// starting from prevEnd (position.Zero for a whole document). It returns
// the map plus the root's absolute end.
func Reconstruct(root Node, prevEnd position.Position) (*PositionMap, position.Position) {
	m := &PositionMap{spans: make(map[Node]position.Span)}
	end := m.visit(root, prevEnd)
	return m, end
}

// ReconstructNode resolves a single node in isolation from its stored
// NodeBase and the caller-supplied prev_end. It matches what the full
// traversal produces for the same node.
func ReconstructNode(n Node, prevEnd position.Position) position.Span {
	start := n.Base().Start(prevEnd)
	return position.Span{Start: start, End: n.Base().End(start)}
}

func (m *PositionMap) visit(n Node, prevEnd position.Position) position.Position {
	if n == nil {
		return prevEnd
	}
	start := n.Base().Start(prevEnd)
	end := n.Base().End(start)
	m.spans[n] = position.Span{Start: start, End: end}

	switch v := n.(type) {
	case *Send:
		// The channel starts at the node's own start, not a prior
		// sibling's end. Inputs thread past the send operator.
		chanEnd := m.visit(v.Channel, start)
		childPrev := position.Advance(chanEnd, 0, v.SendTypeDelta, v.SendTypeDelta)
		for _, in := range v.Inputs {
			childPrev = m.visit(in, childPrev)
		}
	case *Quote:
		// The @ sigil occupies one byte before the inner process.
		m.visit(v.Inner, position.Advance(start, 0, 1, 1))
	case *Par:
		if v.Processes != nil {
			childPrev := start
			for _, p := range v.Processes {
				childPrev = m.visit(p, childPrev)
			}
		} else {
			leftEnd := m.visit(v.Left, start)
			m.visit(v.Right, leftEnd)
		}
	default:
		childPrev := start
		for _, c := range n.Children() {
			childPrev = m.visit(c, childPrev)
		}
	}

	// Return the node's own end, not the last child's: siblings encode
	// their deltas against the delimiter-inclusive end.
	return end
}
