package symbols

import (
	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
)

// CollectBindings walks a pattern and returns every binding occurrence
// under it: bare variables, variables inside quoted patterns, and
// variables nested in map, list, tuple, set, and pathmap patterns.
// Literals, wildcards, and unknown nodes contribute nothing.
func CollectBindings(pat ir.Node) []*ir.Var {
	var out []*ir.Var
	collectBindings(pat, &out)
	return out
}

func collectBindings(pat ir.Node, out *[]*ir.Var) {
	switch v := pat.(type) {
	case *ir.Var:
		*out = append(*out, v)
	case *ir.Quote:
		collectBindings(v.Inner, out)
	case *ir.MapExpr:
		for _, p := range v.Pairs {
			collectBindings(p.Key, out)
			collectBindings(p.Value, out)
		}
		if v.Remainder != nil {
			collectBindings(v.Remainder, out)
		}
	case *ir.List:
		for _, e := range v.Elements {
			collectBindings(e, out)
		}
		if v.Remainder != nil {
			collectBindings(v.Remainder, out)
		}
	case *ir.Tuple:
		for _, e := range v.Elements {
			collectBindings(e, out)
		}
	case *ir.SetExpr:
		for _, e := range v.Elements {
			collectBindings(e, out)
		}
		if v.Remainder != nil {
			collectBindings(v.Remainder, out)
		}
	case *ir.PathMap:
		for _, e := range v.Elements {
			collectBindings(e, out)
		}
	case *ir.ConnPat:
		if v.Var != nil {
			collectBindings(v.Var, out)
		}
	case *ir.Block:
		collectBindings(v.Body, out)
	case *ir.Parenthesized:
		collectBindings(v.Inner, out)
	}
}
