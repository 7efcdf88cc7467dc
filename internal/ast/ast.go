// Package ast defines the grammar AST: a closed variant hierarchy built once
// by the parser and thereafter immutable. Polymorphism over Regex variants is
// exhaustive pattern matching (a type switch), not dynamic dispatch, so that
// the semantic pass in package sema can analyze every shape explicitly.
package ast

import "github.com/0x2a-42/lelwel/internal/diag"

// Item is any top-level declaration in a grammar file.
type Item interface {
	itemNode()
	Range() diag.Range
}

// File is the ordered list of top-level items parsed from one .llw source.
type File struct {
	Items []Item
}

// TokenDecl is one entry of a `token` declaration list: a name and an
// optional symbol. A symbol that begins with '<' and ends with '>' flags the
// token as class-style (e.g. '<int>' for a family of integer lexemes rather
// than one fixed spelling).
type TokenDecl struct {
	NodeRange diag.Range
	Name      string
	NameRange diag.Range
	HasSymbol bool
	Symbol    string
	SymbolRng diag.Range
}

// IsClassStyle reports whether the declared symbol is of the form "<...>".
func (td TokenDecl) IsClassStyle() bool {
	return td.HasSymbol && len(td.Symbol) >= 2 && td.Symbol[0] == '<' && td.Symbol[len(td.Symbol)-1] == '>'
}

// TokenList is a `token Name[='symbol'] ... ;` declaration.
type TokenList struct {
	NodeRange diag.Range
	Decls     []TokenDecl
}

func (*TokenList) itemNode()            {}
func (t *TokenList) Range() diag.Range  { return t.NodeRange }

// Rule is a `name : regex ;` production rule.
type Rule struct {
	NodeRange diag.Range
	Name      string
	NameRange diag.Range
	Body      Regex
}

func (*Rule) itemNode()           {}
func (r *Rule) Range() diag.Range { return r.NodeRange }

// Start is the `start rule_name ;` declaration. Exactly one must appear in a
// well-formed file.
type Start struct {
	NodeRange diag.Range
	RuleName  string
	NameRange diag.Range
}

func (*Start) itemNode()           {}
func (s *Start) Range() diag.Range { return s.NodeRange }

// Skip is a `skip Token ... ;` declaration. Multiple Skip items union.
type Skip struct {
	NodeRange diag.Range
	Tokens    []string
	TokenRngs []diag.Range
}

func (*Skip) itemNode()           {}
func (s *Skip) Range() diag.Range { return s.NodeRange }

// Right is a `right Token ... ;` declaration naming right-associative
// operator tokens for operator-precedence rules.
type Right struct {
	NodeRange diag.Range
	Tokens    []string
	TokenRngs []diag.Range
}

func (*Right) itemNode()           {}
func (r *Right) Range() diag.Range { return r.NodeRange }

// Regex is the sum type of regex-tree node variants that make up a rule's
// body. Every variant below implements it; callers must exhaustively
// type-switch rather than rely on virtual dispatch (see package doc).
type Regex interface {
	regexNode()
	Range() diag.Range
}

// RegexBase holds the source range every Regex variant carries, embedded so
// that each variant gets Range() for free. It is exported (rather than the
// more common unexported-embedding idiom) specifically so that package
// astbuild can construct variant literals directly while building the tree.
type RegexBase struct {
	NodeRange diag.Range
}

func (r RegexBase) Range() diag.Range { return r.NodeRange }

// Concat is a sequence of regex nodes matched one after another.
type Concat struct {
	RegexBase
	Children []Regex
}

func (*Concat) regexNode() {}

// Alt is a set of alternative branches; exactly one is chosen per the
// predict set computed for it during semantic analysis.
type Alt struct {
	RegexBase
	Branches []Regex
}

func (*Alt) regexNode() {}

// Optional is `[ r ]`.
type Optional struct {
	RegexBase
	Elem Regex
}

func (*Optional) regexNode() {}

// Star is `r*`.
type Star struct {
	RegexBase
	Elem Regex
}

func (*Star) regexNode() {}

// Plus is `r+`.
type Plus struct {
	RegexBase
	Elem Regex
}

func (*Plus) regexNode() {}

// RefKind distinguishes what a Ref refers to. RefUnresolved is the zero
// value; astbuild always sets RefRule or RefToken when it builds a Ref.
type RefKind int

const (
	RefUnresolved RefKind = iota
	RefRule
	RefToken
)

// Ref is a bare identifier or string-symbol reference, resolved by the
// semantic pass's Resolution phase (Phase R) to either a rule or a token.
type Ref struct {
	RegexBase
	// Name is the identifier text, or the unescaped content of a string
	// symbol reference.
	Name string
	// IsSymbol distinguishes a 'literal' symbol reference from a bare
	// identifier reference; symbols are matched by exact string equality
	// against declared token symbols rather than by name.
	IsSymbol bool

	// Kind is set by the parser from the identifier's case (RefToken for a
	// symbol). Index is -1 as parsed and is filled in by Phase R; it stays -1
	// when the name is undefined.
	Kind  RefKind
	Index int
}

func (*Ref) regexNode() {}

// Predicate is `?N`: a semantic predicate providing arbitrary lookahead.
// Predicates contribute the empty set to FIRST (§ design notes, open
// question: whether Action nodes may alter predict sets is resolved the
// same way -- see DESIGN.md).
type Predicate struct {
	RegexBase
	Index int
}

func (*Predicate) regexNode() {}

// Action is `#N`: a semantic action (host-language side effect). Contributes
// ∅ to FIRST, matching spec's conservative assumption.
type Action struct {
	RegexBase
	Index int
}

func (*Action) regexNode() {}

// Binding is `r@name`: renames the CST node that would result from r.
type Binding struct {
	RegexBase
	Elem Regex
	Name string
}

func (*Binding) regexNode() {}

// Marker is `<N`: a placeholder for later node insertion by a Create(N, _).
// The semantic pass checks that every Create(N, _) has a Marker(N) before it
// on every path; a Marker with no later Create is not reported.
type Marker struct {
	RegexBase
	Index int
}

func (*Marker) regexNode() {}

// Create is `N>name`: wraps the subtree since the matching Marker(N) into a
// CST node called name.
type Create struct {
	RegexBase
	Index int
	Name  string
}

func (*Create) regexNode() {}
