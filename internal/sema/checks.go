package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// finalChecks runs every Phase E cross-check: unreachable-rule warnings,
// skip/right token misuse, the start-rule-not-referenced invariant, unique
// predicate/action indices per rule, and balanced marker/creation indices.
func finalChecks(sink *diag.Sink, a *Artifact) {
	checkUnreachable(sink, a)
	checkSkipRightMisuse(sink, a)
	checkStartNotReferenced(sink, a)
	for i := range a.Rules {
		if a.Rules[i].Excluded {
			continue
		}
		checkIndexCollisions(sink, &a.Rules[i])
		checkMarkerBalance(sink, a.Rules[i].Body)
	}
}

func checkUnreachable(sink *diag.Sink, a *Artifact) {
	for i := range a.Rules {
		r := &a.Rules[i]
		if r.Excluded || i == a.StartRule {
			continue
		}
		if !r.Reachable {
			sink.Warning(diag.CodeUnreachable, tokenOrRuleRange(r), "rule %q is unreachable from the start rule", r.Name)
		}
	}
}

func tokenOrRuleRange(r *RuleInfo) diag.Range {
	if r.Body != nil {
		return r.Body.Range()
	}
	return diag.Range{}
}

// checkSkipRightMisuse cross-validates the skip and right token sets: a
// skip token must never be matched directly within a rule body (it is
// consumed ambiently, like whitespace), and every right-associative token
// must actually appear as an operator in some OperatorPrecedence rule.
func checkSkipRightMisuse(sink *diag.Sink, a *Artifact) {
	usedAsOperator := setutil.New[int]()
	for _, r := range a.Rules {
		if r.Excluded || r.Class != ClassOperatorPrecedence {
			continue
		}
		for _, lvl := range r.Precedence {
			for _, op := range lvl.Operators {
				usedAsOperator.Add(op)
			}
		}
	}

	for _, r := range a.Rules {
		if r.Excluded {
			continue
		}
		walkForSkipMisuse(sink, a, r.Body)
	}

	for _, id := range a.Right.Elements() {
		if !usedAsOperator.Has(id) {
			sink.Report(diag.CodeSkipOrRightMisuse, a.rightRanges[id], "token %q declared 'right' is never used as an operator", a.Tokens[id].Name)
		}
	}
}

func walkForSkipMisuse(sink *diag.Sink, a *Artifact, r ast.Regex) {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			walkForSkipMisuse(sink, a, c)
		}
	case *ast.Alt:
		for _, b := range n.Branches {
			walkForSkipMisuse(sink, a, b)
		}
	case *ast.Optional:
		walkForSkipMisuse(sink, a, n.Elem)
	case *ast.Star:
		walkForSkipMisuse(sink, a, n.Elem)
	case *ast.Plus:
		walkForSkipMisuse(sink, a, n.Elem)
	case *ast.Binding:
		walkForSkipMisuse(sink, a, n.Elem)
	case *ast.Ref:
		if n.Kind == ast.RefToken && n.Index >= 0 && a.Skip.Has(n.Index) {
			sink.Report(diag.CodeSkipOrRightMisuse, n.Range(), "token %q is declared 'skip' and cannot be matched directly in a rule", a.Tokens[n.Index].Name)
		}
	}
}

// checkStartNotReferenced ensures no other rule's body references the start
// rule. The start rule's own body is not checked, so a self-recursive start
// rule (such as an operator-precedence start rule) is accepted.
func checkStartNotReferenced(sink *diag.Sink, a *Artifact) {
	if a.StartRule < 0 {
		return
	}
	for i, r := range a.Rules {
		if r.Excluded || i == a.StartRule {
			continue
		}
		if refsRule(r.Body, a.StartRule) {
			sink.Report(diag.CodeStartRuleIssue, r.Body.Range(), "start rule %q must not be referenced by other rules", a.Rules[a.StartRule].Name)
		}
	}
}

func refsRule(r ast.Regex, target int) bool {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			if refsRule(c, target) {
				return true
			}
		}
	case *ast.Alt:
		for _, b := range n.Branches {
			if refsRule(b, target) {
				return true
			}
		}
	case *ast.Optional:
		return refsRule(n.Elem, target)
	case *ast.Star:
		return refsRule(n.Elem, target)
	case *ast.Plus:
		return refsRule(n.Elem, target)
	case *ast.Binding:
		return refsRule(n.Elem, target)
	case *ast.Ref:
		return n.Kind == ast.RefRule && n.Index == target
	}
	return false
}

func checkIndexCollisions(sink *diag.Sink, r *RuleInfo) {
	preds := setutil.New[int]()
	actions := setutil.New[int]()
	var walk func(ast.Regex)
	walk = func(n ast.Regex) {
		switch x := n.(type) {
		case *ast.Concat:
			for _, c := range x.Children {
				walk(c)
			}
		case *ast.Alt:
			for _, b := range x.Branches {
				walk(b)
			}
		case *ast.Optional:
			walk(x.Elem)
		case *ast.Star:
			walk(x.Elem)
		case *ast.Plus:
			walk(x.Elem)
		case *ast.Binding:
			walk(x.Elem)
		case *ast.Predicate:
			if preds.Has(x.Index) {
				reportCollision(sink, r.Name, "predicate", x.Index, x.Range())
			}
			preds.Add(x.Index)
		case *ast.Action:
			if actions.Has(x.Index) {
				reportCollision(sink, r.Name, "action", x.Index, x.Range())
			}
			actions.Add(x.Index)
		}
	}
	walk(r.Body)
}

func reportCollision(sink *diag.Sink, ruleName, kind string, index int, rng diag.Range) {
	sink.Report(diag.CodeIndexCollision, rng, "duplicate %s index %d in rule %q", kind, index, ruleName)
}

// checkMarkerBalance verifies that every Create(n, _) in the rule body is
// reachable only via paths that already opened a Marker(n): it threads a
// "currently open marker indices" set through the tree, taking the
// intersection across Alt branches (a marker must be open on *every* path
// reaching a Create, not merely some), and intersecting the sets before and
// after the element for Optional/Star/Plus (the element may run a varying
// number of times). A Marker with no later Create is not reported.
func checkMarkerBalance(sink *diag.Sink, body ast.Regex) {
	markerFlow(sink, body, setutil.New[int]())
}

// markerFlow returns the set of marker indices guaranteed still open after
// r, given that incoming was guaranteed open before r.
func markerFlow(sink *diag.Sink, r ast.Regex, incoming setutil.Set[int]) setutil.Set[int] {
	switch n := r.(type) {
	case *ast.Concat:
		cur := incoming
		for _, c := range n.Children {
			cur = markerFlow(sink, c, cur)
		}
		return cur
	case *ast.Alt:
		if len(n.Branches) == 0 {
			return incoming
		}
		out := markerFlow(sink, n.Branches[0], incoming)
		for _, b := range n.Branches[1:] {
			out = out.Intersection(markerFlow(sink, b, incoming))
		}
		return out
	case *ast.Optional:
		inner := markerFlow(sink, n.Elem, incoming)
		return incoming.Intersection(inner)
	case *ast.Star:
		inner := markerFlow(sink, n.Elem, incoming)
		return incoming.Intersection(inner)
	case *ast.Plus:
		return incoming.Intersection(markerFlow(sink, n.Elem, incoming))
	case *ast.Binding:
		return markerFlow(sink, n.Elem, incoming)
	case *ast.Marker:
		out := incoming.Copy()
		out.Add(n.Index)
		return out
	case *ast.Create:
		if !incoming.Has(n.Index) {
			sink.Report(diag.CodeMarkerMismatch, n.Range(), "%d>%s has no matching marker <%d on every path reaching it", n.Index, n.Name, n.Index)
			return incoming
		}
		out := incoming.Copy()
		out.Remove(n.Index)
		return out
	default: // Ref, Predicate, Action
		return incoming
	}
}
