// Package pattern resolves contract invocations to definitions by
// structural compatibility of the call's arguments with each overload's
// formal patterns. Matching is conservative: an unrecognized pattern
// fails rather than producing a false positive.
package pattern

import (
	"strconv"

	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
)

// Matches reports whether a single argument satisfies a single formal
// pattern.
func Matches(pat, arg ir.Node) bool {
	return matchesWith(pat, arg, Config{})
}

func matchesWith(pat, arg ir.Node, cfg Config) bool {
	switch p := ir.Unwrap(pat).(type) {
	case *ir.Wildcard:
		return true
	case *ir.Var:
		// A bare variable binds anything; the binding itself was
		// declared when the contract scope was built.
		return true
	case *ir.Quote:
		return matchesQuoted(p.Inner, arg, cfg)
	case *ir.ConnPat:
		if !cfg.EnableTypeConstraints {
			return false
		}
		tc, ok := ExtractConstraint(p.Type)
		if !ok {
			return false
		}
		return tc.Satisfies(arg)
	default:
		return false
	}
}

// matchesQuoted handles `@pattern` formals.
func matchesQuoted(inner, arg ir.Node, cfg Config) bool {
	switch q := ir.Unwrap(inner).(type) {
	case *ir.Var:
		return true
	case *ir.Wildcard:
		return true
	case *ir.StringLit:
		s, ok := ir.Unwrap(arg).(*ir.StringLit)
		return ok && s.Value == q.Value
	case *ir.ConnPat:
		if !cfg.EnableTypeConstraints {
			return false
		}
		tc, ok := ExtractConstraint(q.Type)
		if !ok {
			return false
		}
		return tc.Satisfies(arg)
	default:
		value, ok := ExtractStructured(arg)
		if !ok {
			return false
		}
		return matchesStructured(q, value)
	}
}

// StructuredValue is the shape extracted from an argument for container
// matching. Pathmaps collapse to sets.
type StructuredValue struct {
	Kind     ValueKind
	Str      string
	Map      map[string]StructuredValue
	MapKeys  []string
	Elements []StructuredValue
}

// ValueKind discriminates StructuredValue variants.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueVariable
	ValueWildcard
	ValueMap
	ValueList
	ValueTuple
	ValueSet
	ValueLong
	ValueBool
)

// ExtractStructured maps an argument node to a StructuredValue. Nodes with
// no structural reading yield false, and the match fails conservatively.
func ExtractStructured(n ir.Node) (StructuredValue, bool) {
	switch v := ir.Unwrap(n).(type) {
	case *ir.StringLit:
		return StructuredValue{Kind: ValueString, Str: v.Value}, true
	case *ir.LongLit:
		return StructuredValue{Kind: ValueLong, Str: formatLong(v.Value)}, true
	case *ir.BoolLit:
		return StructuredValue{Kind: ValueBool, Str: formatBool(v.Value)}, true
	case *ir.Var:
		return StructuredValue{Kind: ValueVariable, Str: v.Name}, true
	case *ir.Wildcard:
		return StructuredValue{Kind: ValueWildcard}, true
	case *ir.Quote:
		return ExtractStructured(v.Inner)
	case *ir.MapExpr:
		out := StructuredValue{Kind: ValueMap, Map: make(map[string]StructuredValue, len(v.Pairs))}
		for _, pair := range v.Pairs {
			key, ok := literalKey(pair.Key)
			if !ok {
				return StructuredValue{}, false
			}
			val, ok := ExtractStructured(pair.Value)
			if !ok {
				return StructuredValue{}, false
			}
			out.Map[key] = val
			out.MapKeys = append(out.MapKeys, key)
		}
		return out, true
	case *ir.List:
		return extractElements(ValueList, v.Elements)
	case *ir.Tuple:
		return extractElements(ValueTuple, v.Elements)
	case *ir.SetExpr:
		return extractElements(ValueSet, v.Elements)
	case *ir.PathMap:
		return extractElements(ValueSet, v.Elements)
	default:
		return StructuredValue{}, false
	}
}

func extractElements(kind ValueKind, elems []ir.Node) (StructuredValue, bool) {
	out := StructuredValue{Kind: kind, Elements: make([]StructuredValue, 0, len(elems))}
	for _, e := range elems {
		v, ok := ExtractStructured(e)
		if !ok {
			return StructuredValue{}, false
		}
		out.Elements = append(out.Elements, v)
	}
	return out, true
}

// literalKey renders a map key for key-set comparison. Only literal-ish
// keys participate; an expression key defeats extraction.
func literalKey(n ir.Node) (string, bool) {
	switch v := ir.Unwrap(n).(type) {
	case *ir.StringLit:
		return "s:" + v.Value, true
	case *ir.LongLit:
		return "l:" + formatLong(v.Value), true
	case *ir.BoolLit:
		return "b:" + formatBool(v.Value), true
	case *ir.URILit:
		return "u:" + v.Value, true
	case *ir.Var:
		return "v:" + v.Name, true
	case *ir.Quote:
		return literalKey(v.Inner)
	default:
		return "", false
	}
}

// matchesStructured matches a container pattern node against an extracted
// argument value.
//
// Maps require equal key sets and recursive value matches under identical
// keys. Lists and tuples require equal lengths and element-wise matches.
// Sets and pathmaps match positionally (order-sensitive for now).
func matchesStructured(pat ir.Node, value StructuredValue) bool {
	switch p := ir.Unwrap(pat).(type) {
	case *ir.Var:
		return true
	case *ir.Wildcard:
		return true
	case *ir.Quote:
		return matchesStructured(p.Inner, value)
	case *ir.StringLit:
		return value.Kind == ValueString && value.Str == p.Value
	case *ir.LongLit:
		return value.Kind == ValueLong && value.Str == formatLong(p.Value)
	case *ir.BoolLit:
		return value.Kind == ValueBool && value.Str == formatBool(p.Value)
	case *ir.MapExpr:
		if value.Kind != ValueMap {
			return false
		}
		if len(p.Pairs) != len(value.Map) {
			return false
		}
		for _, pair := range p.Pairs {
			key, ok := literalKey(pair.Key)
			if !ok {
				return false
			}
			got, present := value.Map[key]
			if !present {
				return false
			}
			if !matchesValuePattern(pair.Value, got) {
				return false
			}
		}
		return true
	case *ir.List:
		return matchElementwise(ValueList, p.Elements, value)
	case *ir.Tuple:
		return matchElementwise(ValueTuple, p.Elements, value)
	case *ir.SetExpr:
		return matchElementwise(ValueSet, p.Elements, value)
	case *ir.PathMap:
		return matchElementwise(ValueSet, p.Elements, value)
	default:
		return false
	}
}

func matchElementwise(kind ValueKind, pats []ir.Node, value StructuredValue) bool {
	if value.Kind != kind || len(pats) != len(value.Elements) {
		return false
	}
	for i, pat := range pats {
		if !matchesValuePattern(pat, value.Elements[i]) {
			return false
		}
	}
	return true
}

// matchesValuePattern matches a nested pattern position: binding variables
// and wildcards always match, containers recurse, literals compare.
func matchesValuePattern(pat ir.Node, value StructuredValue) bool {
	switch ir.Unwrap(pat).(type) {
	case *ir.Var, *ir.Wildcard:
		return true
	}
	return matchesStructured(pat, value)
}

func formatLong(v int64) string { return strconv.FormatInt(v, 10) }

func formatBool(v bool) string { return strconv.FormatBool(v) }
