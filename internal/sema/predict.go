package sema

import (
	"sort"
	"strconv"
	"strings"

	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// AltPredicts maps every Alt node in the grammar (by node identity, the only
// stable handle astbuild gives an in-tree node) to its computed per-branch
// predict sets, for the output surface and for conflict reporting.
type AltPredicts map[*ast.Alt]AltPredict

// computePredictAndConflicts walks every non-excluded rule's body, computing
// PREDICT = FIRST(branch) ∪ (FOLLOW(rule) if branch nullable) for every
// branch of every Alt, and reports one PredictConflict per Alt whose
// branches' predict sets overlap without a leading predicate disambiguating
// them.
func computePredictAndConflicts(sink *diag.Sink, a *Artifact) AltPredicts {
	out := AltPredicts{}
	nullable := rulesNullable(a)
	first := rulesFirst(a)
	for i, r := range a.Rules {
		if r.Excluded {
			continue
		}
		walkPredict(sink, a, r.Follow, i, r.Body, nullable, first, out)
	}
	return out
}

func walkPredict(sink *diag.Sink, a *Artifact, ruleFollow setutil.Set[int], ruleIdx int, r ast.Regex, nullable []bool, first []setutil.Set[int], out AltPredicts) {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			walkPredict(sink, a, ruleFollow, ruleIdx, c, nullable, first, out)
		}
	case *ast.Alt:
		branches := make([]setutil.Set[int], len(n.Branches))
		for i, b := range n.Branches {
			walkPredict(sink, a, ruleFollow, ruleIdx, b, nullable, first, out)
			p := firstOf(b, a, first)
			if nullableOf(b, nullable) {
				p = p.Union(ruleFollow)
			}
			branches[i] = p
		}
		out[n] = AltPredict{Branches: branches}
		reportConflicts(sink, a, ruleIdx, n, branches)
	case *ast.Optional:
		walkPredict(sink, a, ruleFollow, ruleIdx, n.Elem, nullable, first, out)
	case *ast.Star:
		walkPredict(sink, a, ruleFollow, ruleIdx, n.Elem, nullable, first, out)
	case *ast.Plus:
		walkPredict(sink, a, ruleFollow, ruleIdx, n.Elem, nullable, first, out)
	case *ast.Binding:
		walkPredict(sink, a, ruleFollow, ruleIdx, n.Elem, nullable, first, out)
	}
}

// startsWithPredicate reports whether branch begins with a semantic
// predicate, which spec treats as disambiguating an otherwise-overlapping
// predict set (the predicate supplies the lookahead logic the grammar
// itself cannot express).
func startsWithPredicate(r ast.Regex) bool {
	switch n := r.(type) {
	case *ast.Predicate:
		return true
	case *ast.Concat:
		if len(n.Children) > 0 {
			return startsWithPredicate(n.Children[0])
		}
	case *ast.Binding:
		return startsWithPredicate(n.Elem)
	}
	return false
}

// reportConflicts emits a single PredictConflict diagnostic for alt if any
// pair of its branches has an overlapping, non-predicate-disambiguated
// predict set, naming every branch involved in some overlap and the union
// of the overlapping tokens. Left-recursive branches (first element is a
// reference to the enclosing rule ruleIdx) are not compared: they share the
// FIRST set of the rule's non-recursive branches by construction.
func reportConflicts(sink *diag.Sink, a *Artifact, ruleIdx int, alt *ast.Alt, predict []setutil.Set[int]) {
	involved := setutil.New[int]()
	overlapTokens := setutil.New[int]()

	for i := 0; i < len(alt.Branches); i++ {
		for j := i + 1; j < len(alt.Branches); j++ {
			if startsWithPredicate(alt.Branches[i]) || startsWithPredicate(alt.Branches[j]) {
				continue
			}
			if isSelfRef(firstElement(alt.Branches[i]), ruleIdx) || isSelfRef(firstElement(alt.Branches[j]), ruleIdx) {
				continue
			}
			overlap := predict[i].Intersection(predict[j])
			if overlap.Empty() {
				continue
			}
			involved.Add(i)
			involved.Add(j)
			overlapTokens.AddAll(overlap)
		}
	}
	if involved.Empty() {
		return
	}

	indices := involved.Elements()
	sort.Ints(indices)
	branchStrs := make([]string, len(indices))
	for i, idx := range indices {
		branchStrs[i] = strconv.Itoa(idx)
	}

	names := make([]string, 0, overlapTokens.Len())
	for _, tid := range overlapTokens.Elements() {
		names = append(names, tokenDisplayName(a, tid))
	}
	sort.Strings(names)

	sink.Report(diag.CodePredictConflict, alt.Range(), "overlapping predict sets among branches %s: {%s}",
		strings.Join(branchStrs, ", "), strings.Join(names, ", "))
}

func tokenDisplayName(a *Artifact, id int) string {
	if id == EOF {
		return "EOF"
	}
	if id >= 0 && id < len(a.Tokens) {
		return a.Tokens[id].Name
	}
	return "?"
}
