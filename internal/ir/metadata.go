package ir

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/docs"
)

// Metadata is the optional per-node attachment container. The zero-value
// default is a process-wide singleton so plain nodes never pay a per-node
// allocation; attaching documentation allocates a fresh container for just
// that node.
type Metadata struct {
	Documentation *docs.Documentation
	// LegacyDoc carries pre-structured plain-text documentation for
	// consumers that predate the structured form.
	LegacyDoc string
}

var defaultMetadata = &Metadata{}

// DefaultMetadata returns the shared empty container.
func DefaultMetadata() *Metadata { return defaultMetadata }

// IsDefault reports whether m is the shared singleton.
func (m *Metadata) IsDefault() bool { return m == defaultMetadata }

// WithDocumentation returns a fresh container carrying d. The receiver is
// never mutated.
func (m *Metadata) WithDocumentation(d *docs.Documentation) *Metadata {
	out := *m
	out.Documentation = d
	return &out
}

// DocText returns documentation as plain text, preferring the structured
// form over the legacy string.
func (m *Metadata) DocText() string {
	if m.Documentation != nil {
		return m.Documentation.PlainText()
	}
	return m.LegacyDoc
}

// AttachDocumentation sets a node's metadata to a fresh container holding
// d. It is the one sanctioned mutation point and is only called by the
// document builder before the node is published.
func AttachDocumentation(n Node, d *docs.Documentation) {
	switch v := n.(type) {
	case *Contract:
		v.Meta = v.Metadata().WithDocumentation(d)
	case *New:
		v.Meta = v.Metadata().WithDocumentation(d)
	case *Let:
		v.Meta = v.Metadata().WithDocumentation(d)
	}
}
