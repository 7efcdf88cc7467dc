// Package lex implements the single-pass scanner for .llw grammar source
// described in the grammar front-end: it turns UTF-8 source text into a
// stream of typed tokens carrying byte ranges, without ever halting on
// malformed input.
package lex

import (
	"fmt"

	"github.com/0x2a-42/lelwel/internal/diag"
)

// Kind is the closed set of lexical token kinds the grammar language uses.
type Kind int

const (
	KindEOF Kind = iota
	KindError

	// KindLowerIdent matches [a-z][...]: rule names and references.
	KindLowerIdent
	// KindUpperIdent matches [A-Z][...]: token names and references.
	KindUpperIdent
	// KindString is a single-quoted token symbol.
	KindString

	KindSemi     // ;
	KindColon    // :
	KindPipe     // |
	KindStar     // *
	KindPlus     // +
	KindLParen   // (
	KindRParen   // )
	KindLBracket // [
	KindRBracket // ]
	KindAt       // @
	KindEquals   // =
	KindLAngle   // < (bare, not followed by a digit)
	KindRAngle   // > (bare, not part of a N>name construct)

	KindTokenKw // token
	KindStartKw // start
	KindSkipKw  // skip
	KindRightKw // right

	KindPredicate // ?N
	KindAction    // #N
	KindMarker    // <N
	KindCreate    // N>name
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindError:
		return "error"
	case KindLowerIdent:
		return "lowercase identifier"
	case KindUpperIdent:
		return "uppercase identifier"
	case KindString:
		return "string symbol"
	case KindSemi:
		return "';'"
	case KindColon:
		return "':'"
	case KindPipe:
		return "'|'"
	case KindStar:
		return "'*'"
	case KindPlus:
		return "'+'"
	case KindLParen:
		return "'('"
	case KindRParen:
		return "')'"
	case KindLBracket:
		return "'['"
	case KindRBracket:
		return "']'"
	case KindAt:
		return "'@'"
	case KindEquals:
		return "'='"
	case KindLAngle:
		return "'<'"
	case KindRAngle:
		return "'>'"
	case KindTokenKw:
		return "'token'"
	case KindStartKw:
		return "'start'"
	case KindSkipKw:
		return "'skip'"
	case KindRightKw:
		return "'right'"
	case KindPredicate:
		return "predicate"
	case KindAction:
		return "action"
	case KindMarker:
		return "marker"
	case KindCreate:
		return "node creation"
	default:
		return "unknown"
	}
}

// keywords maps reserved lowercase identifiers to their keyword Kind.
var keywords = map[string]Kind{
	"token": KindTokenKw,
	"start": KindStartKw,
	"skip":  KindSkipKw,
	"right": KindRightKw,
}

// Token is one lexed unit: a kind, its byte range, and, for identifiers,
// symbols, and indexed constructs, the associated payload.
type Token struct {
	Kind  Kind
	Range diag.Range

	// Text holds the identifier or (unescaped) string-symbol text.
	Text string

	// Int holds N for KindPredicate, KindAction, KindMarker, and KindCreate.
	Int int

	// Name holds the bound identifier for KindCreate (the "name" in "N>name").
	Name string
}

func (t Token) String() string {
	switch t.Kind {
	case KindLowerIdent, KindUpperIdent, KindString:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	case KindPredicate, KindAction, KindMarker:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Int)
	case KindCreate:
		return fmt.Sprintf("%s(%d>%s)", t.Kind, t.Int, t.Name)
	default:
		return t.Kind.String()
	}
}
