// Package virtualdoc detects embedded-language regions in Rholang
// documents and maintains the registry of virtual sub-documents with
// bidirectional position mappings to their parents.
package virtualdoc

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
)

// DetectionSource records how a region was found. Lower values dominate
// on overlap.
type DetectionSource int

const (
	SourceCommentDirective DetectionSource = iota
	SourceSemanticAnalysis
	SourceChannelFlowAnalysis
)

func (s DetectionSource) String() string {
	switch s {
	case SourceCommentDirective:
		return "comment_directive"
	case SourceSemanticAnalysis:
		return "semantic_analysis"
	case SourceChannelFlowAnalysis:
		return "channel_flow_analysis"
	default:
		return "unknown"
	}
}

// EmbeddedParser turns extracted region text into a language-specific
// parse tree. The registry caches the result per document version.
type EmbeddedParser func(text string) (any, error)

// VirtualDocument is one embedded-language sub-document. Positions inside
// it are virtual coordinates; ToParent and FromParent convert.
type VirtualDocument struct {
	URI          string          `json:"uri"`
	ParentURI    string          `json:"parent_uri"`
	LanguageID   string          `json:"language_id"`
	Text         string          `json:"text"`
	ParentRange  position.Span   `json:"parent_range"`
	ParentOffset position.Position `json:"parent_offset"`
	Source       DetectionSource `json:"detection_source"`
	Version      int             `json:"version"`

	mu     sync.Mutex
	parser EmbeddedParser
	tree   any
	parsed bool
}

// ParseTree returns the embedded parse tree, produced on first access and
// cached until the parent region changes.
func (v *VirtualDocument) ParseTree() (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.parsed {
		return v.tree, nil
	}
	if v.parser == nil {
		return nil, fmt.Errorf("no embedded parser registered for %q", v.LanguageID)
	}
	tree, err := v.parser(v.Text)
	if err != nil {
		return nil, err
	}
	v.tree = tree
	v.parsed = true
	return tree, nil
}

// ToParent converts a virtual position to parent coordinates: the row
// shifts by the region offset; the column shifts only on the first
// virtual row.
func (v *VirtualDocument) ToParent(p position.Position) position.Position {
	out := position.Position{Row: p.Row + v.ParentOffset.Row}
	if p.Row == 0 {
		out.Column = p.Column + v.ParentOffset.Column
	} else {
		out.Column = p.Column
	}
	out.Byte = v.ParentOffset.Byte + p.Byte
	return out
}

// FromParent converts a parent position to virtual coordinates. It is
// defined only inside the region's row range.
func (v *VirtualDocument) FromParent(p position.Position) (position.Position, bool) {
	if p.Row < v.ParentOffset.Row || p.Row > v.ParentRange.End.Row {
		return position.Position{}, false
	}
	out := position.Position{Row: p.Row - v.ParentOffset.Row}
	if out.Row == 0 {
		if p.Column < v.ParentOffset.Column {
			return position.Position{}, false
		}
		out.Column = p.Column - v.ParentOffset.Column
	} else {
		out.Column = p.Column
	}
	if p.Byte >= v.ParentOffset.Byte {
		out.Byte = p.Byte - v.ParentOffset.Byte
	}
	return out, true
}

// FragmentURI builds the virtual document URI: parent URI plus a
// "<lang>:<index>" fragment.
func FragmentURI(parentURI, lang string, index int) string {
	return fmt.Sprintf("%s#%s:%d", parentURI, lang, index)
}

// language holds per-language registration: the embedded parser and the
// compiler channel names that mark semantic regions.
type language struct {
	parser   EmbeddedParser
	channels map[string]bool
}

// Registry tracks virtual documents per parent and re-diffs them on every
// parent change.
type Registry struct {
	// InstanceID distinguishes registry lifetimes in logs and snapshots.
	InstanceID string

	mu       sync.RWMutex
	langs    map[string]*language
	byParent map[string][]*VirtualDocument
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		InstanceID: uuid.NewString(),
		langs:      make(map[string]*language),
		byParent:   make(map[string][]*VirtualDocument),
	}
}

// RegisterLanguage wires a language id to its embedded parser and the
// compiler channel names whose sends carry that language's code.
func (r *Registry) RegisterLanguage(lang string, parser EmbeddedParser, compilerChannels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := &language{parser: parser, channels: make(map[string]bool, len(compilerChannels))}
	for _, c := range compilerChannels {
		l.channels[c] = true
	}
	r.langs[lang] = l
}

// Known reports whether lang is registered.
func (r *Registry) Known(lang string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.langs[lang]
	return ok
}

// Documents returns the live virtual documents for a parent.
func (r *Registry) Documents(parentURI string) []*VirtualDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*VirtualDocument(nil), r.byParent[parentURI]...)
}

// ByURI finds a virtual document by its fragment URI.
func (r *Registry) ByURI(uri string) (*VirtualDocument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, docs := range r.byParent {
		for _, d := range docs {
			if d.URI == uri {
				return d, true
			}
		}
	}
	return nil, false
}

// DropParent discards every virtual document of a closed parent.
func (r *Registry) DropParent(parentURI string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byParent, parentURI)
}

// apply diffs freshly detected regions against the previous registration:
// unchanged entries are reused, changed ones bump their version, stale
// ones drop.
func (r *Registry) apply(parentURI string, regions []Region) []*VirtualDocument {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.byParent[parentURI]
	next := make([]*VirtualDocument, 0, len(regions))
	counters := make(map[string]int)

	for _, reg := range regions {
		idx := counters[reg.LanguageID]
		counters[reg.LanguageID]++
		uri := FragmentURI(parentURI, reg.LanguageID, idx)

		var reuse *VirtualDocument
		for _, old := range prev {
			if old.URI == uri {
				reuse = old
				break
			}
		}

		lang := r.langs[reg.LanguageID]
		var parser EmbeddedParser
		if lang != nil {
			parser = lang.parser
		}

		if reuse != nil && reuse.Text == reg.Text && reuse.ParentRange == reg.Span {
			next = append(next, reuse)
			continue
		}

		version := 1
		if reuse != nil {
			version = reuse.Version + 1
		}
		next = append(next, &VirtualDocument{
			URI:          uri,
			ParentURI:    parentURI,
			LanguageID:   reg.LanguageID,
			Text:         reg.Text,
			ParentRange:  reg.Span,
			ParentOffset: reg.Span.Start,
			Source:       reg.Source,
			Version:      version,
			parser:       parser,
		})
	}

	r.byParent[parentURI] = next
	return append([]*VirtualDocument(nil), next...)
}
