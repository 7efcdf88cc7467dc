// Package sema implements the eight-phase semantic pass over a parsed grammar
// AST: resolution, productivity, nullability, FIRST/FOLLOW, predict-set
// conflict detection, rule classification, dominator-based recovery-set
// synthesis, and a final round of cross-checks. Each phase reads the AST
// plus the results of earlier phases and reports into a shared
// *diag.Sink without ever halting the pipeline early.
package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// Class is the closed taxonomy a rule's top-level shape is pattern-matched
// against.
type Class int

const (
	ClassUnknown Class = iota
	ClassPlain
	ClassLeftRecursive
	ClassOperatorPrecedence
	ClassUnconditionalForward
	ClassConditionalForward
	ClassRightRecursiveForward
	ClassMaybeEmpty
)

func (c Class) String() string {
	switch c {
	case ClassPlain:
		return "Plain"
	case ClassLeftRecursive:
		return "LeftRecursive"
	case ClassOperatorPrecedence:
		return "OperatorPrecedence"
	case ClassUnconditionalForward:
		return "UnconditionalForward"
	case ClassConditionalForward:
		return "ConditionalForward"
	case ClassRightRecursiveForward:
		return "RightRecursiveForward"
	case ClassMaybeEmpty:
		return "MaybeEmpty"
	default:
		return "Unknown"
	}
}

// Assoc is an operator's associativity within an OperatorPrecedence rule.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
)

// OperatorLevel describes one precedence level of an OperatorPrecedence
// rule: the branch's position among the rule's recursive branches, in
// source order, is the level (lower binds tighter; the non-recursive branch
// is not counted), the operator token id(s) that appear as the branch's
// MID, and their associativity.
type OperatorLevel struct {
	Level     int
	Operators []int // token ids
	Assoc     Assoc
}

// TokenInfo is one declared token, at a dense id assigned in declaration
// order.
type TokenInfo struct {
	ID           int
	Name         string
	HasSymbol    bool
	Symbol       string
	IsClassStyle bool
}

// RuleInfo is one declared rule's full analysis record, indexed by a dense
// rule id assigned in declaration order. Per the side-table design note,
// this is the only place analysis results live -- the AST itself is never
// annotated.
type RuleInfo struct {
	ID   int
	Name string
	Body ast.Regex

	Productive bool
	Nullable   bool
	First      setutil.Set[int]
	Follow     setutil.Set[int]
	Recovery   setutil.Set[int]

	Dominators setutil.Set[int] // rule ids, including ID itself

	Class      Class
	Precedence []OperatorLevel // only meaningful when Class == ClassOperatorPrecedence

	Reachable bool
	Excluded  bool // unproductive; skipped by every later phase
}

// AltPredict records the predict sets computed for one Alt node, for the
// output surface and for conflict reporting.
type AltPredict struct {
	Branches []setutil.Set[int]
}

// EOF is the sentinel token id meaning end of input; it is negative, so it
// never collides with a declared token's id (those start at 0). FOLLOW and
// recovery sets may contain it; FIRST sets
// never do (no regex can start with end-of-input).
const EOF = -1

// Artifact is the analyzed-grammar output surface (§4.5): the AST plus every
// annotation the semantic pass computed, ready for a printer, an httpapi
// projection, or a code-emission back-end that this repository does not
// itself implement.
type Artifact struct {
	File *ast.File

	Tokens []TokenInfo
	Rules  []RuleInfo

	StartRule int // rule id, or -1 if none resolved

	Skip  setutil.Set[int] // token ids
	Right setutil.Set[int] // token ids

	// rightRanges records the source range of the 'right' declaration that
	// first brought each token id into Right, so checks.go can point the
	// unused-right-operator diagnostic at the actual declaration instead of
	// a synthetic zero range.
	rightRanges map[int]diag.Range

	tokenByName   map[string]int
	tokenBySymbol map[string]int
	ruleByName    map[string]int

	// Bookkeeping between the collect and resolve passes; not part of the
	// output surface.
	pendingStart *ast.Start
	pendingSkip  []*ast.Skip
	pendingRight []*ast.Right
}

// TokenByName looks up a declared token's id by name.
func (a *Artifact) TokenByName(name string) (int, bool) {
	id, ok := a.tokenByName[name]
	return id, ok
}

// RuleByName looks up a declared rule's id by name.
func (a *Artifact) RuleByName(name string) (int, bool) {
	id, ok := a.ruleByName[name]
	return id, ok
}
