package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
)

// computeProductivity computes the set of productive rules as a
// least-fixpoint, growing from "nothing productive" until stable -- the
// dual framing of the spec's "greatest-fixpoint on the set of non-productive
// rules" (NonProductive starts as every rule and shrinks exactly as
// Productive starts empty and grows; the two converge to the same
// partition). Growing from empty is the direction that must be used here:
// a rule whose only production refers to itself (`bad: bad;`) has no base
// case, and starting from "every rule is optimistically productive" would
// let that self-reference rubber-stamp itself forever without ever being
// falsified.
func computeProductivity(sink *diag.Sink, a *Artifact) {
	prod := make([]bool, len(a.Rules))

	for changed := true; changed; {
		changed = false
		for i, r := range a.Rules {
			np := productiveOf(r.Body, prod)
			if np != prod[i] {
				prod[i] = np
				changed = true
			}
		}
	}

	for i := range a.Rules {
		a.Rules[i].Productive = prod[i]
		if !prod[i] {
			a.Rules[i].Excluded = true
			sink.Report(diag.CodeUnproductive, a.Rules[i].Body.Range(), "rule %q cannot derive any string of terminals", a.Rules[i].Name)
		}
	}
}

func productiveOf(r ast.Regex, prod []bool) bool {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			if !productiveOf(c, prod) {
				return false
			}
		}
		return true
	case *ast.Alt:
		for _, b := range n.Branches {
			if productiveOf(b, prod) {
				return true
			}
		}
		return false
	case *ast.Optional, *ast.Marker, *ast.Predicate, *ast.Action, *ast.Create:
		return true
	case *ast.Star:
		return true
	case *ast.Plus:
		return productiveOf(n.Elem, prod)
	case *ast.Binding:
		return productiveOf(n.Elem, prod)
	case *ast.Ref:
		if n.Kind == ast.RefToken {
			return true
		}
		if n.Index < 0 || n.Index >= len(prod) {
			return true // unresolved; already reported, don't cascade
		}
		return prod[n.Index]
	default:
		return true
	}
}
