package pattern

import (
	"sync"

	"github.com/f1r3fly-io/rholang-analyzer/internal/ir"
)

// ConstraintKind discriminates type-constraint forms.
type ConstraintKind int

const (
	ConstraintSimple ConstraintKind = iota
	ConstraintAny
	ConstraintCompound
)

// TypeConstraint is the parsed right-hand side of a pattern conjunction
// `@{x /\ T}`. Compound constraints are reserved for parameterized types.
type TypeConstraint struct {
	Kind   ConstraintKind
	Name   string
	Params []TypeConstraint
}

// constraintCache memoizes extraction per type-expression identity; the
// same type node is consulted once per process lifetime.
var constraintCache sync.Map // ir.Node -> TypeConstraint

// ExtractConstraint reads a type expression from a conjunction's type
// position. Unknown shapes yield false and the conjunction fails
// conservatively.
func ExtractConstraint(typeExpr ir.Node) (TypeConstraint, bool) {
	if typeExpr == nil {
		return TypeConstraint{}, false
	}
	if cached, ok := constraintCache.Load(typeExpr); ok {
		return cached.(TypeConstraint), true
	}

	var tc TypeConstraint
	switch v := ir.Unwrap(typeExpr).(type) {
	case *ir.Var:
		if v.Name == "Any" {
			tc = TypeConstraint{Kind: ConstraintAny}
		} else {
			tc = TypeConstraint{Kind: ConstraintSimple, Name: v.Name}
		}
	default:
		return TypeConstraint{}, false
	}

	constraintCache.Store(typeExpr, tc)
	return tc, true
}

// Satisfies tests an argument against the constraint. Simple names cover
// the literal types; unknown names fail conservatively.
func (tc TypeConstraint) Satisfies(arg ir.Node) bool {
	switch tc.Kind {
	case ConstraintAny:
		return true
	case ConstraintCompound:
		// Parameterized types are reserved; nothing satisfies them yet.
		return false
	}

	a := ir.Unwrap(arg)
	switch tc.Name {
	case "Int", "Long":
		_, ok := a.(*ir.LongLit)
		return ok
	case "String":
		_, ok := a.(*ir.StringLit)
		return ok
	case "Bool", "Boolean":
		_, ok := a.(*ir.BoolLit)
		return ok
	default:
		return false
	}
}
