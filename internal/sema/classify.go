package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
)

// classifyRules pattern-matches each non-excluded rule's top-level shape
// against the seven tags, in the priority order spec lays them out: a rule
// that looks like an attempted operator-precedence ladder is diagnosed as
// one (successfully or with a ClassificationError) before any of the
// forwarding or MaybeEmpty fallbacks are considered.
func classifyRules(sink *diag.Sink, a *Artifact) {
	for i := range a.Rules {
		r := &a.Rules[i]
		if r.Excluded {
			continue
		}
		classifyRule(sink, a, r)
	}
}

func classifyRule(sink *diag.Sink, a *Artifact, r *RuleInfo) {
	body := r.Body

	if alt, ok := unwrapBinding(body).(*ast.Alt); ok {
		if classifyLeftRecursiveOrPrecedence(sink, a, r, alt) {
			return
		}
	}

	if isUnconditionalForward(body) {
		r.Class = ClassUnconditionalForward
		return
	}

	if isConditionalForward(a, body) {
		r.Class = ClassConditionalForward
		return
	}

	if alt, ok := unwrapBinding(body).(*ast.Alt); ok {
		if isRightRecursiveForward(r.ID, alt) {
			r.Class = ClassRightRecursiveForward
			return
		}
	}

	if r.Nullable {
		r.Class = ClassMaybeEmpty
		return
	}

	r.Class = ClassPlain
}

func unwrapBinding(r ast.Regex) ast.Regex {
	for {
		b, ok := r.(*ast.Binding)
		if !ok {
			return r
		}
		r = b.Elem
	}
}

func isSelfRef(r ast.Regex, ruleID int) bool {
	ref, ok := unwrapBinding(r).(*ast.Ref)
	return ok && ref.Kind == ast.RefRule && ref.Index == ruleID
}

// firstElement returns the first element of a sequence-shaped regex: its
// own node for a non-Concat, or children[0] for a Concat.
func firstElement(r ast.Regex) ast.Regex {
	if c, ok := r.(*ast.Concat); ok && len(c.Children) > 0 {
		return c.Children[0]
	}
	return r
}

func lastElement(r ast.Regex) ast.Regex {
	if c, ok := r.(*ast.Concat); ok && len(c.Children) > 0 {
		return c.Children[len(c.Children)-1]
	}
	return r
}

// classifyLeftRecursiveOrPrecedence handles a top-level Alt that has at
// least one left-recursive branch (first element is a self-reference). It
// returns true if it assigned a class (LeftRecursive, OperatorPrecedence, or
// reported a ClassificationError for a near-miss), false if the Alt has no
// left-recursive branch at all (so the caller should keep trying other
// patterns).
func classifyLeftRecursiveOrPrecedence(sink *diag.Sink, a *Artifact, r *RuleInfo, alt *ast.Alt) bool {
	var recursive, nonRecursive []ast.Regex
	for _, b := range alt.Branches {
		if isSelfRef(firstElement(b), r.ID) {
			recursive = append(recursive, b)
		} else {
			nonRecursive = append(nonRecursive, b)
		}
	}
	if len(recursive) == 0 {
		return false
	}

	// Try operator-precedence: exactly one non-recursive branch, and every
	// recursive branch is self MID self.
	looksLikeLadder := true
	for _, rb := range recursive {
		c, ok := rb.(*ast.Concat)
		if !ok || len(c.Children) != 3 {
			looksLikeLadder = false
			break
		}
	}

	if len(nonRecursive) == 1 && looksLikeLadder {
		levels, ok := buildOperatorLevels(sink, a, r, recursive)
		if ok {
			r.Class = ClassOperatorPrecedence
			r.Precedence = levels
			return true
		}
		return true // buildOperatorLevels already reported the specific error
	}

	if looksLikeLadder && len(nonRecursive) != 1 {
		sink.Report(diag.CodeClassificationError, alt.Range(),
			"operator-precedence rule %q must have exactly one non-recursive branch, found %d", r.Name, len(nonRecursive))
		r.Class = ClassLeftRecursive
		return true
	}

	// Some recursive branch has the wrong arity to be a ladder rung; if that
	// was clearly the intent (more than one recursive branch, or a
	// three-element branch among ill-shaped ones) call it a classification
	// error, otherwise fall back to plain left recursion.
	hasThreeElement := false
	for _, rb := range recursive {
		if c, ok := rb.(*ast.Concat); ok && len(c.Children) == 3 {
			hasThreeElement = true
		}
	}
	if len(recursive) > 1 || hasThreeElement {
		for _, rb := range recursive {
			if c, ok := rb.(*ast.Concat); ok && len(c.Children) != 3 && len(c.Children) > 1 {
				sink.Report(diag.CodeClassificationError, rb.Range(),
					"operator-precedence branch must have exactly 3 elements (self, operator, self), found %d", len(c.Children))
				r.Class = ClassLeftRecursive
				return true
			}
		}
	}

	r.Class = ClassLeftRecursive
	return true
}

// buildOperatorLevels validates and builds the per-level operator info for
// an operator-precedence rule's recursive branches, in source order (a
// branch's index among the recursive branches is its precedence level,
// lower binds tighter).
func buildOperatorLevels(sink *diag.Sink, a *Artifact, r *RuleInfo, recursive []ast.Regex) ([]OperatorLevel, bool) {
	levels := make([]OperatorLevel, 0, len(recursive))
	ok := true
	for level, rb := range recursive {
		c := rb.(*ast.Concat)
		first, mid, last := c.Children[0], c.Children[1], c.Children[2]
		if !isSelfRef(first, r.ID) || !isSelfRef(last, r.ID) {
			sink.Report(diag.CodeClassificationError, rb.Range(),
				"operator-precedence branch must be self, operator, self")
			ok = false
			continue
		}
		ops, midOk := operatorTokens(mid)
		if !midOk {
			sink.Report(diag.CodeClassificationError, mid.Range(),
				"operator-precedence branch's middle element must be a token or an alternation of tokens")
			ok = false
			continue
		}
		assoc := AssocLeft
		for _, t := range ops {
			if a.Right.Has(t) {
				assoc = AssocRight
				break
			}
		}
		levels = append(levels, OperatorLevel{Level: level, Operators: ops, Assoc: assoc})
	}
	if !ok {
		return nil, false
	}
	return levels, true
}

func operatorTokens(r ast.Regex) ([]int, bool) {
	switch n := unwrapBinding(r).(type) {
	case *ast.Ref:
		if n.Kind == ast.RefToken {
			return []int{n.Index}, true
		}
		return nil, false
	case *ast.Alt:
		var out []int
		for _, b := range n.Branches {
			ref, ok := unwrapBinding(b).(*ast.Ref)
			if !ok || ref.Kind != ast.RefToken {
				return nil, false
			}
			out = append(out, ref.Index)
		}
		return out, true
	default:
		return nil, false
	}
}

func isUnconditionalForward(r ast.Regex) bool {
	body := unwrapBinding(r)
	if ref, ok := body.(*ast.Ref); ok {
		return ref.Kind == ast.RefRule
	}
	if alt, ok := body.(*ast.Alt); ok {
		for _, b := range alt.Branches {
			ref, ok := unwrapBinding(b).(*ast.Ref)
			if !ok || ref.Kind != ast.RefRule {
				return false
			}
		}
		return true
	}
	return false
}

func isConditionalForward(a *Artifact, r ast.Regex) bool {
	c, ok := r.(*ast.Concat)
	if !ok || len(c.Children) < 2 {
		return false
	}
	ref, ok := unwrapBinding(c.Children[0]).(*ast.Ref)
	if !ok || ref.Kind != ast.RefRule {
		return false
	}
	rest := &ast.Concat{Children: c.Children[1:]}
	return nullableOf(rest, rulesNullable(a))
}

// isRightRecursiveForward: a top-level Alt with at least one branch ending
// in a self-reference and at least one branch that is a plain forward
// Ref(rule) (not self).
func isRightRecursiveForward(ruleID int, alt *ast.Alt) bool {
	var hasRightRecursive, hasForward bool
	for _, b := range alt.Branches {
		if isSelfRef(lastElement(b), ruleID) {
			hasRightRecursive = true
			continue
		}
		if ref, ok := unwrapBinding(b).(*ast.Ref); ok && ref.Kind == ast.RefRule && ref.Index != ruleID {
			hasForward = true
		}
	}
	return hasRightRecursive && hasForward
}
