package virtualdoc

import (
	"sort"

	"github.com/f1r3fly-io/rholang-analyzer/internal/diag"
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
)

// Region is one detected embedded-language range before it becomes a
// virtual document. Span covers the string literal's interior.
type Region struct {
	LanguageID string
	Source     DetectionSource
	Span       position.Span
	Text       string
}

// Update re-detects embedded regions for a parent document and diffs them
// into the registry. It returns the live virtual documents plus overlap
// diagnostics.
func (r *Registry) Update(
	parentURI string,
	doc *ir.Document,
	pos *ir.PositionMap,
	source []byte,
) ([]*VirtualDocument, []diag.Diagnostic) {
	regions, diags := r.detect(parentURI, doc, pos, source)
	return r.apply(parentURI, regions), diags
}

func (r *Registry) detect(
	parentURI string,
	doc *ir.Document,
	pos *ir.PositionMap,
	source []byte,
) ([]Region, []diag.Diagnostic) {
	var candidates []Region
	candidates = append(candidates, r.detectDirectives(doc, pos, source)...)
	candidates = append(candidates, r.detectSemantic(doc, pos, source)...)
	candidates = append(candidates, r.detectChannelFlow(doc, pos, source)...)

	return resolveOverlaps(parentURI, candidates)
}

// detectDirectives finds `// @<lang>` comments immediately preceding a
// string literal and marks the string's interior.
func (r *Registry) detectDirectives(doc *ir.Document, pos *ir.PositionMap, source []byte) []Region {
	var out []Region
	for _, c := range doc.Directives() {
		if !r.Known(c.Directive) {
			continue
		}
		lit := nearestStringAfter(doc.Root, pos, c.Span.End)
		if lit == nil {
			continue
		}
		span := pos.MustSpan(lit)
		// Only a string on the directive's line or the next one counts
		// as "immediately preceding".
		if span.Start.Row > c.Span.End.Row+1 {
			continue
		}
		out = append(out, stringRegion(c.Directive, SourceCommentDirective, span, source))
	}
	return out
}

// detectSemantic marks string arguments of sends to registered compiler
// channels.
func (r *Registry) detectSemantic(doc *ir.Document, pos *ir.PositionMap, source []byte) []Region {
	var out []Region
	ir.Walk(doc.Root, func(n ir.Node) bool {
		send, ok := n.(*ir.Send)
		if !ok {
			return true
		}
		name, ok := symbols.ChannelName(send.Channel)
		if !ok {
			return true
		}
		lang, ok := r.languageForChannel(name)
		if !ok {
			return true
		}
		for _, in := range send.Inputs {
			if lit, isStr := ir.Unwrap(in).(*ir.StringLit); isStr {
				out = append(out, stringRegion(lang, SourceSemanticAnalysis, pos.MustSpan(lit), source))
				break
			}
		}
		return true
	})
	return out
}

// detectChannelFlow propagates compiler-channel marking through contracts
// that forward a formal to a compiler channel: the matching argument of
// every caller is marked.
func (r *Registry) detectChannelFlow(doc *ir.Document, pos *ir.PositionMap, source []byte) []Region {
	type forwarder struct {
		lang     string
		argIndex int
	}
	forwarders := make(map[string]forwarder)

	ir.Walk(doc.Root, func(n ir.Node) bool {
		contract, ok := n.(*ir.Contract)
		if !ok {
			return true
		}
		name, _ := symbols.ContractName(contract.Identifier)

		// Names bound by each formal, by formal index.
		bound := make([]map[string]bool, len(contract.Formals))
		for i, formal := range contract.Formals {
			bound[i] = make(map[string]bool)
			for _, v := range symbols.CollectBindings(formal) {
				bound[i][v.Name] = true
			}
		}

		ir.Walk(contract.Body, func(inner ir.Node) bool {
			send, isSend := inner.(*ir.Send)
			if !isSend {
				return true
			}
			chName, okName := symbols.ChannelName(send.Channel)
			if !okName {
				return true
			}
			lang, isCompiler := r.languageForChannel(chName)
			if !isCompiler {
				return true
			}
			for _, in := range send.Inputs {
				v, isVar := ir.Unwrap(in).(*ir.Var)
				if !isVar {
					continue
				}
				for i := range bound {
					if bound[i][v.Name] {
						forwarders[name] = forwarder{lang: lang, argIndex: i}
						return false
					}
				}
			}
			return true
		})
		return true
	})

	if len(forwarders) == 0 {
		return nil
	}

	var out []Region
	ir.Walk(doc.Root, func(n ir.Node) bool {
		send, ok := n.(*ir.Send)
		if !ok {
			return true
		}
		name, ok := symbols.ChannelName(send.Channel)
		if !ok {
			return true
		}
		fwd, ok := forwarders[name]
		if !ok || fwd.argIndex >= len(send.Inputs) {
			return true
		}
		if lit, isStr := ir.Unwrap(send.Inputs[fwd.argIndex]).(*ir.StringLit); isStr {
			out = append(out, stringRegion(fwd.lang, SourceChannelFlowAnalysis, pos.MustSpan(lit), source))
		}
		return true
	})
	return out
}

func (r *Registry) languageForChannel(channel string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for lang, l := range r.langs {
		if l.channels[channel] {
			return lang, true
		}
	}
	return "", false
}

// stringRegion shrinks a string literal's span to its interior: one byte
// in from each quote.
func stringRegion(lang string, source DetectionSource, span position.Span, src []byte) Region {
	interior := position.Span{
		Start: position.Position{Row: span.Start.Row, Column: span.Start.Column + 1, Byte: span.Start.Byte + 1},
		End:   span.End,
	}
	if span.End.Byte > interior.Start.Byte {
		interior.End = position.Position{
			Row:    span.End.Row,
			Column: prevColumn(span.End),
			Byte:   span.End.Byte - 1,
		}
	}
	text := ""
	if int(interior.End.Byte) <= len(src) && interior.Start.Byte <= interior.End.Byte {
		text = string(src[interior.Start.Byte:interior.End.Byte])
	}
	return Region{LanguageID: lang, Source: source, Span: interior, Text: text}
}

func prevColumn(p position.Position) uint32 {
	if p.Column == 0 {
		return 0
	}
	return p.Column - 1
}

// nearestStringAfter finds the string literal with the smallest start
// position at or after p.
func nearestStringAfter(root ir.Node, pos *ir.PositionMap, p position.Position) *ir.StringLit {
	var best *ir.StringLit
	var bestStart uint32
	ir.Walk(root, func(n ir.Node) bool {
		lit, ok := n.(*ir.StringLit)
		if !ok {
			return true
		}
		span, ok := pos.Span(lit)
		if !ok || span.Start.Byte < p.Byte {
			return true
		}
		if best == nil || span.Start.Byte < bestStart {
			best = lit
			bestStart = span.Start.Byte
		}
		return true
	})
	return best
}

// resolveOverlaps applies the priority rules: a higher-priority source
// dominates an overlapping lower-priority region; equal-priority overlaps
// keep the first and yield a diagnostic.
func resolveOverlaps(parentURI string, candidates []Region) ([]Region, []diag.Diagnostic) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Source != candidates[j].Source {
			return candidates[i].Source < candidates[j].Source
		}
		return candidates[i].Span.Start.Byte < candidates[j].Span.Start.Byte
	})

	var kept []Region
	var diags []diag.Diagnostic
	for _, c := range candidates {
		conflict := false
		for _, k := range kept {
			if overlaps(c.Span, k.Span) {
				conflict = true
				if c.Source == k.Source {
					diags = append(diags, diag.Diagnostic{
						URI:      parentURI,
						Range:    c.Span,
						Severity: diag.SeverityWarning,
						Code:     diag.CodeRegionOverlap,
						Source:   diag.SourceCore,
						Message:  "overlapping embedded-language regions from equal-priority detection; keeping the first",
					})
				}
				break
			}
		}
		if !conflict {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Span.Start.Byte < kept[j].Span.Start.Byte
	})
	return kept, diags
}

func overlaps(a, b position.Span) bool {
	return a.Start.Byte < b.End.Byte && b.Start.Byte < a.End.Byte
}
