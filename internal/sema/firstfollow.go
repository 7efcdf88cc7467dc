package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// computeFirst runs a least-fixpoint over per-rule FIRST sets: start every
// rule's FIRST at empty and grow by repeatedly re-evaluating every rule
// body against the current approximation until nothing changes. This
// terminates because FIRST sets only ever grow and are bounded by the
// number of declared tokens.
func computeFirst(a *Artifact) {
	first := make([]setutil.Set[int], len(a.Rules))
	for i := range first {
		first[i] = setutil.New[int]()
	}

	for changed := true; changed; {
		changed = false
		for i, r := range a.Rules {
			if r.Excluded {
				continue
			}
			if first[i].AddAll(firstOf(r.Body, a, first)) {
				changed = true
			}
		}
	}

	for i := range a.Rules {
		a.Rules[i].First = first[i]
	}
}

func firstOf(r ast.Regex, a *Artifact, first []setutil.Set[int]) setutil.Set[int] {
	switch n := r.(type) {
	case *ast.Concat:
		out := setutil.New[int]()
		for _, c := range n.Children {
			out.AddAll(firstOf(c, a, first))
			if !nullableOf(c, rulesNullable(a)) {
				break
			}
		}
		return out
	case *ast.Alt:
		out := setutil.New[int]()
		for _, b := range n.Branches {
			out.AddAll(firstOf(b, a, first))
		}
		return out
	case *ast.Optional:
		return firstOf(n.Elem, a, first)
	case *ast.Star:
		return firstOf(n.Elem, a, first)
	case *ast.Plus:
		return firstOf(n.Elem, a, first)
	case *ast.Binding:
		return firstOf(n.Elem, a, first)
	case *ast.Ref:
		if n.Kind == ast.RefToken {
			if n.Index < 0 {
				return setutil.New[int]()
			}
			return setutil.New(n.Index)
		}
		if n.Index < 0 || n.Index >= len(first) {
			return setutil.New[int]()
		}
		return first[n.Index].Copy()
	default: // Marker, Predicate, Action, Create
		return setutil.New[int]()
	}
}

// rulesNullable is a small adapter so firstOf's Concat case can reuse
// nullableOf's per-node logic without threading a second slice through every
// call site; the nullable fixpoint has already converged by the time FIRST
// runs; this just exposes the per-rule results.
func rulesNullable(a *Artifact) []bool {
	out := make([]bool, len(a.Rules))
	for i, r := range a.Rules {
		out[i] = r.Nullable
	}
	return out
}

// computeFollow runs the classical FOLLOW propagation to fixpoint:
// FOLLOW(start) = {EOF}, and every Ref(rule) occurrence contributes FIRST of
// whatever can follow it in its enclosing context, falling back to
// FOLLOW(enclosing rule) when that context is itself nullable (or absent).
func computeFollow(a *Artifact) {
	follow := make([]setutil.Set[int], len(a.Rules))
	for i := range follow {
		follow[i] = setutil.New[int]()
	}
	if a.StartRule >= 0 && a.StartRule < len(follow) {
		follow[a.StartRule].Add(EOF)
	}

	for changed := true; changed; {
		changed = false
		for i, r := range a.Rules {
			if r.Excluded {
				continue
			}
			if walkFollow(r.Body, setutil.New[int](), true, i, a, follow) {
				changed = true
			}
		}
	}

	for i := range a.Rules {
		a.Rules[i].Follow = follow[i]
	}
}

// walkFollow threads the "continuation" (contFirst, contNullable) through a
// regex tree, contributing to FOLLOW(B) at every Ref(ruleB). ruleIdx is the
// enclosing rule, used as the fallback continuation when contNullable holds
// all the way out to the end of the rule. Returns whether any FOLLOW set
// grew.
func walkFollow(r ast.Regex, contFirst setutil.Set[int], contNullable bool, ruleIdx int, a *Artifact, follow []setutil.Set[int]) bool {
	switch n := r.(type) {
	case *ast.Concat:
		changed := false
		count := len(n.Children)
		afterFirst := make([]setutil.Set[int], count+1)
		afterNullable := make([]bool, count+1)
		afterFirst[count] = contFirst
		afterNullable[count] = contNullable
		accFirst := contFirst
		accNullable := contNullable
		for i := count - 1; i >= 0; i-- {
			afterFirst[i] = accFirst
			afterNullable[i] = accNullable
			if nullableOf(n.Children[i], rulesNullable(a)) {
				accFirst = firstOf(n.Children[i], a, rulesFirst(a)).Union(accFirst)
			} else {
				accFirst = firstOf(n.Children[i], a, rulesFirst(a))
				accNullable = false
			}
		}
		for i, c := range n.Children {
			if walkFollow(c, afterFirst[i], afterNullable[i], ruleIdx, a, follow) {
				changed = true
			}
		}
		return changed
	case *ast.Alt:
		changed := false
		for _, b := range n.Branches {
			if walkFollow(b, contFirst, contNullable, ruleIdx, a, follow) {
				changed = true
			}
		}
		return changed
	case *ast.Optional:
		inner := firstOf(n.Elem, a, rulesFirst(a)).Union(contFirst)
		return walkFollow(n.Elem, inner, contNullable, ruleIdx, a, follow)
	case *ast.Star:
		inner := firstOf(n.Elem, a, rulesFirst(a)).Union(contFirst)
		return walkFollow(n.Elem, inner, contNullable, ruleIdx, a, follow)
	case *ast.Plus:
		inner := firstOf(n.Elem, a, rulesFirst(a)).Union(contFirst)
		return walkFollow(n.Elem, inner, contNullable, ruleIdx, a, follow)
	case *ast.Binding:
		return walkFollow(n.Elem, contFirst, contNullable, ruleIdx, a, follow)
	case *ast.Ref:
		if n.Kind != ast.RefRule || n.Index < 0 || n.Index >= len(follow) {
			return false
		}
		contribution := contFirst.Copy()
		if contNullable {
			contribution.AddAll(follow[ruleIdx])
		}
		return follow[n.Index].AddAll(contribution)
	default: // Marker, Predicate, Action, Create
		return false
	}
}

func rulesFirst(a *Artifact) []setutil.Set[int] {
	out := make([]setutil.Set[int], len(a.Rules))
	for i, r := range a.Rules {
		out[i] = r.First
	}
	return out
}
