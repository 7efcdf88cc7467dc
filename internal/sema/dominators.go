package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// buildDerivationGraph returns, for every rule id, the set of rule ids
// directly referenced anywhere in its body: the rule-derivation graph's
// adjacency list. This is the graph Phase G's dominator computation and
// Phase E's reachability check both walk.
func buildDerivationGraph(a *Artifact) [][]int {
	edges := make([][]int, len(a.Rules))
	for i, r := range a.Rules {
		if r.Excluded {
			continue
		}
		seen := setutil.New[int]()
		collectRuleRefs(r.Body, seen)
		edges[i] = seen.Elements()
	}
	return edges
}

func collectRuleRefs(r ast.Regex, out setutil.Set[int]) {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			collectRuleRefs(c, out)
		}
	case *ast.Alt:
		for _, b := range n.Branches {
			collectRuleRefs(b, out)
		}
	case *ast.Optional:
		collectRuleRefs(n.Elem, out)
	case *ast.Star:
		collectRuleRefs(n.Elem, out)
	case *ast.Plus:
		collectRuleRefs(n.Elem, out)
	case *ast.Binding:
		collectRuleRefs(n.Elem, out)
	case *ast.Ref:
		if n.Kind == ast.RefRule && n.Index >= 0 {
			out.Add(n.Index)
		}
	}
}

// reversePostOrder does a DFS from start over the (possibly cyclic) graph
// given by edges, returning rule ids in reverse postorder -- visiting rules
// in this order lets the dominator fixpoint below converge in very few
// sweeps, per the design note that the classical iterative dataflow
// formulation suffices at this scale without resorting to Lengauer-Tarjan.
func reversePostOrder(start int, edges [][]int) []int {
	visited := make([]bool, len(edges))
	var post []int
	var visit func(int)
	visit = func(u int) {
		if u < 0 || u >= len(edges) || visited[u] {
			return
		}
		visited[u] = true
		for _, v := range edges[u] {
			visit(v)
		}
		post = append(post, u)
	}
	visit(start)
	rpo := make([]int, len(post))
	for i, u := range post {
		rpo[len(post)-1-i] = u
	}
	return rpo
}

// computeDominators fills in every reachable rule's Dominators set (always
// including the rule itself) using the classical iterative dataflow
// dominance algorithm: dom[start] = {start}; dom[r] = {r} ∪ ⋂ dom[p] over
// every predecessor p of r reachable from start, repeated to a fixpoint.
// Rules unreachable from start are left with no dominator set; Phase E
// reports them separately as unreachable.
func computeDominators(a *Artifact) {
	if a.StartRule < 0 || a.StartRule >= len(a.Rules) {
		return
	}
	edges := buildDerivationGraph(a)
	n := len(edges)

	preds := make([][]int, n)
	for u, vs := range edges {
		for _, v := range vs {
			preds[v] = append(preds[v], u)
		}
	}

	rpo := reversePostOrder(a.StartRule, edges)
	reachable := make([]bool, n)
	for _, u := range rpo {
		reachable[u] = true
	}

	all := setutil.New[int]()
	for i := 0; i < n; i++ {
		if reachable[i] {
			all.Add(i)
		}
	}

	dom := make([]setutil.Set[int], n)
	for i := range dom {
		if reachable[i] {
			dom[i] = all.Copy()
		}
	}
	dom[a.StartRule] = setutil.New(a.StartRule)

	for changed := true; changed; {
		changed = false
		for _, r := range rpo {
			if r == a.StartRule {
				continue
			}
			var newDom setutil.Set[int]
			first := true
			for _, p := range preds[r] {
				if !reachable[p] {
					continue
				}
				if first {
					newDom = dom[p].Copy()
					first = false
				} else {
					newDom = newDom.Intersection(dom[p])
				}
			}
			if first {
				// no reachable predecessor recorded yet this sweep; leave as is
				continue
			}
			newDom.Add(r)
			if !newDom.Equal(dom[r]) {
				dom[r] = newDom
				changed = true
			}
		}
	}

	for i := range a.Rules {
		if reachable[i] {
			a.Rules[i].Dominators = dom[i]
			a.Rules[i].Reachable = true
		}
	}
}

// computeRecoverySets derives each reachable rule's recovery set: the union
// of FOLLOW(D) over every dominator D of the rule, always including EOF.
// The start rule's only dominator is itself, so its recovery set is
// FOLLOW(start) ∪ {EOF}; that is exactly {EOF} unless the start rule's own
// body references it (e.g. an operator-precedence start rule).
func computeRecoverySets(a *Artifact) {
	for i := range a.Rules {
		r := &a.Rules[i]
		if !r.Reachable {
			r.Recovery = setutil.New[int](EOF)
			continue
		}
		rec := setutil.New[int](EOF)
		for _, d := range r.Dominators.Elements() {
			rec.AddAll(a.Rules[d].Follow)
		}
		r.Recovery = rec
	}
}
