package pattern

import (
	"sync"

	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
	"github.com/f1r3fly-io/rholang-analyzer/internal/symbols"
)

// Signature identifies one overload shape: the contract name plus its
// fixed-formal arity.
type Signature struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
}

// Config tunes matching behavior. Type constraints stay off until the
// upstream grammar emits pattern conjunctions.
type Config struct {
	EnableTypeConstraints bool
}

type overload struct {
	sig  Signature
	syms []*symbols.Symbol
}

// Index maps contract names to their overloads. Lookup is O(1) on the
// name plus O(k) over that name's overloads. Writers take the lock per
// name-entry update; read paths share it.
type Index struct {
	cfg    Config
	mu     sync.RWMutex
	byName map[string][]*overload
	// byURI tracks which names each document contributed, for removal.
	byURI map[string]map[string]bool
}

// NewIndex creates an empty pattern index.
func NewIndex(cfg Config) *Index {
	return &Index{
		cfg:    cfg,
		byName: make(map[string][]*overload),
		byURI:  make(map[string]map[string]bool),
	}
}

// Add registers a contract symbol under its name and arity signature.
func (ix *Index) Add(sym *symbols.Symbol) {
	if sym.Pattern == nil {
		return
	}
	sig := Signature{Name: sym.Name, Arity: sym.Pattern.Arity()}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	uris := ix.byURI[sym.DeclarationURI]
	if uris == nil {
		uris = make(map[string]bool)
		ix.byURI[sym.DeclarationURI] = uris
	}
	uris[sym.Name] = true

	for _, o := range ix.byName[sym.Name] {
		if o.sig == sig {
			o.syms = append(o.syms, sym)
			return
		}
	}
	ix.byName[sym.Name] = append(ix.byName[sym.Name], &overload{sig: sig, syms: []*symbols.Symbol{sym}})
}

// RemoveURI drops every overload entry contributed by uri.
func (ix *Index) RemoveURI(uri string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for name := range ix.byURI[uri] {
		var kept []*overload
		for _, o := range ix.byName[name] {
			var syms []*symbols.Symbol
			for _, s := range o.syms {
				if s.DeclarationURI != uri {
					syms = append(syms, s)
				}
			}
			if len(syms) > 0 {
				o.syms = syms
				kept = append(kept, o)
			}
		}
		if len(kept) > 0 {
			ix.byName[name] = kept
		} else {
			delete(ix.byName, name)
		}
	}
	delete(ix.byURI, uri)
}

// Overloads returns the symbols registered under name, across signatures.
func (ix *Index) Overloads(name string) []*symbols.Symbol {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []*symbols.Symbol
	for _, o := range ix.byName[name] {
		out = append(out, o.syms...)
	}
	return out
}

// Resolve matches a call against name's overloads: arity first, then a
// structural match of every argument against the overload's formals. The
// first fully compatible overload wins; no match returns false (a
// resolution miss, not an error).
func (ix *Index) Resolve(name string, args []ir.Node) (*symbols.Symbol, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, o := range ix.byName[name] {
		for _, sym := range o.syms {
			if ix.compatible(sym.Pattern, args) {
				return sym, true
			}
		}
	}
	return nil, false
}

// ResolveCall resolves a pending call recorded by the symbol builder.
// Calls on complex-identifier channels re-match structurally against the
// retained identifier node before the formal check.
func (ix *Index) ResolveCall(call symbols.PendingCall) (*symbols.Symbol, bool) {
	sym, ok := ix.Resolve(call.Name, call.Args)
	if !ok {
		return nil, false
	}
	if sym.IdentifierNode != nil {
		if q, isQuote := ir.Unwrap(call.Channel).(*ir.Quote); isQuote {
			want, haveQuote := ir.Unwrap(sym.IdentifierNode).(*ir.Quote)
			if !haveQuote || ir.StructuralHash(want.Inner) != ir.StructuralHash(q.Inner) {
				return nil, false
			}
		}
	}
	return sym, true
}

func (ix *Index) compatible(pat *symbols.ContractPattern, args []ir.Node) bool {
	if pat == nil {
		return false
	}
	m := len(pat.Formals)
	if pat.FormalsRemainder == nil {
		if len(args) != m {
			return false
		}
	} else if len(args) < m {
		return false
	}
	for i, formal := range pat.Formals {
		if !matchesWith(formal, args[i], ix.cfg) {
			return false
		}
	}
	return true
}

// Names returns every indexed contract name.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.byName))
	for name := range ix.byName {
		out = append(out, name)
	}
	return out
}
