package feature

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
)

// TextEdit replaces a range in one document.
type TextEdit struct {
	Range   position.Span `json:"range"`
	NewText string        `json:"new_text"`
}

// WorkspaceEdit is the rename result: one edit list per affected URI.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes"`
}

// Rename produces a workspace edit replacing every occurrence of the
// symbol under a position, declaration included.
func (p *Provider) Rename(uri string, pos position.Position, newName string) (WorkspaceEdit, bool) {
	sym, _, ok := p.symbolAtPosition(uri, pos)
	if !ok {
		return WorkspaceEdit{}, false
	}

	edit := WorkspaceEdit{Changes: make(map[string][]TextEdit)}
	for _, loc := range p.referencesFor(sym, true) {
		edit.Changes[loc.URI] = append(edit.Changes[loc.URI], TextEdit{
			Range:   loc.Range,
			NewText: newName,
		})
	}
	for u := range edit.Changes {
		dedupeAndSort(edit.Changes, u)
	}
	return edit, true
}

func dedupeAndSort(changes map[string][]TextEdit, uri string) {
	edits := changes[uri]
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Range.Start.Byte < edits[j].Range.Start.Byte
	})
	var out []TextEdit
	for _, e := range edits {
		if len(out) > 0 && out[len(out)-1].Range == e.Range {
			continue
		}
		out = append(out, e)
	}
	changes[uri] = out
}

// ApplyEdits returns the document text with a URI's edits applied,
// right-to-left so earlier offsets stay valid.
func ApplyEdits(source []byte, edits []TextEdit) string {
	sorted := append([]TextEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.Byte > sorted[j].Range.Start.Byte
	})
	out := string(source)
	for _, e := range sorted {
		start, end := int(e.Range.Start.Byte), int(e.Range.End.Byte)
		if start > len(out) || end > len(out) || start > end {
			continue
		}
		out = out[:start] + e.NewText + out[end:]
	}
	return out
}

// RenamePreview renders a unified diff per affected file for a rename,
// without touching any document.
func (p *Provider) RenamePreview(uri string, pos position.Position, newName string) (string, bool) {
	edit, ok := p.Rename(uri, pos, newName)
	if !ok {
		return "", false
	}

	uris := make([]string, 0, len(edit.Changes))
	for u := range edit.Changes {
		uris = append(uris, u)
	}
	sort.Strings(uris)

	var b strings.Builder
	for _, u := range uris {
		entry, found := p.Docs.Get(u)
		if !found {
			continue
		}
		after := ApplyEdits(entry.Source, edit.Changes[u])
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(entry.Source)),
			B:        difflib.SplitLines(after),
			FromFile: u,
			ToFile:   u + " (renamed)",
			Context:  2,
		})
		if err != nil {
			continue
		}
		b.WriteString(diff)
	}
	return b.String(), true
}
