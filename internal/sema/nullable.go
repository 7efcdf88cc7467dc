package sema

import "github.com/0x2a-42/lelwel/internal/ast"

// computeNullable runs the standard least-fixpoint over the set of nullable
// rules: start pessimistic (nothing nullable) and grow until stable.
// Excluded (unproductive) rules are skipped and left non-nullable, per the
// cascade-avoidance policy.
func computeNullable(a *Artifact) {
	null := make([]bool, len(a.Rules))

	for changed := true; changed; {
		changed = false
		for i, r := range a.Rules {
			if r.Excluded {
				continue
			}
			nn := nullableOf(r.Body, null)
			if nn != null[i] {
				null[i] = nn
				changed = true
			}
		}
	}

	for i := range a.Rules {
		a.Rules[i].Nullable = null[i]
	}
}

func nullableOf(r ast.Regex, null []bool) bool {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			if !nullableOf(c, null) {
				return false
			}
		}
		return true
	case *ast.Alt:
		for _, b := range n.Branches {
			if nullableOf(b, null) {
				return true
			}
		}
		return false
	case *ast.Optional, *ast.Marker, *ast.Predicate, *ast.Action, *ast.Create:
		return true
	case *ast.Star:
		return true
	case *ast.Plus:
		return nullableOf(n.Elem, null)
	case *ast.Binding:
		return nullableOf(n.Elem, null)
	case *ast.Ref:
		if n.Kind == ast.RefToken {
			return false
		}
		if n.Index < 0 || n.Index >= len(null) {
			return false
		}
		return null[n.Index]
	default:
		return false
	}
}
