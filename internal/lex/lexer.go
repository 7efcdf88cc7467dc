package lex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/0x2a-42/lelwel/internal/diag"
)

// Lexer is a single-pass scanner over UTF-8 grammar source. It never
// fabricates tokens: on unrecognized input it emits a KindError token
// spanning the offending byte and continues. It records lexical errors into
// the Sink it was constructed with; Next itself never returns an error
// value, only tokens.
//
// The source is NFC-normalized before scanning (golang.org/x/text/unicode/norm)
// so that composed and decomposed forms of the same identifier are never
// silently treated as distinct names.
type Lexer struct {
	sink *diag.Sink

	src    []rune
	offset []int // byte offset of each rune in src; offset[len(src)] is the total byte length

	pos  int // index into src
	line int // 1-based
	col  int // 1-based, in runes

	done bool
}

// New creates a Lexer for the given source text, reporting lexical errors
// into sink.
func New(sink *diag.Sink, src string) *Lexer {
	normalized := norm.NFC.String(src)
	runes := []rune(normalized)
	offsets := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		offsets[i] = b
		b += utf8.RuneLen(r)
	}
	offsets[len(runes)] = b

	return &Lexer{
		sink:   sink,
		src:    runes,
		offset: offsets,
		pos:    0,
		line:   1,
		col:    1,
	}
}

func (lx *Lexer) atEnd() bool {
	return lx.pos >= len(lx.src)
}

func (lx *Lexer) peek() rune {
	return lx.peekAt(0)
}

func (lx *Lexer) peekAt(n int) rune {
	i := lx.pos + n
	if i < 0 || i >= len(lx.src) {
		return 0
	}
	return lx.src[i]
}

func (lx *Lexer) pos_() diag.Pos {
	return diag.Pos{Offset: lx.offset[lx.pos], Line: lx.line, Col: lx.col}
}

// advance consumes and returns the current rune.
func (lx *Lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *Lexer) mkRange(start diag.Pos) diag.Range {
	return diag.Range{Start: start, End: lx.pos_()}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// skipTrivia skips ASCII whitespace and "// ..." line comments.
func (lx *Lexer) skipTrivia() {
	for !lx.atEnd() {
		r := lx.peek()
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			lx.advance()
			continue
		}
		if r == '/' && lx.peekAt(1) == '/' {
			for !lx.atEnd() && lx.peek() != '\n' {
				lx.advance()
			}
			continue
		}
		break
	}
}

// Next returns the next token and advances the stream. After returning a
// KindEOF token, further calls are idempotent and keep returning KindEOF at
// the same position.
func (lx *Lexer) Next() Token {
	if lx.done {
		p := lx.pos_()
		return Token{Kind: KindEOF, Range: diag.Range{Start: p, End: p}}
	}

	lx.skipTrivia()

	start := lx.pos_()

	if lx.atEnd() {
		lx.done = true
		return Token{Kind: KindEOF, Range: lx.mkRange(start)}
	}

	r := lx.peek()

	switch {
	case isIdentStart(r):
		return lx.lexIdent(start)
	case r == '\'':
		return lx.lexString(start)
	case r == '?':
		lx.advance()
		return lx.lexIndexed(start, KindPredicate)
	case r == '#':
		lx.advance()
		return lx.lexIndexed(start, KindAction)
	case r == '<':
		lx.advance()
		if isDigit(lx.peek()) {
			return lx.lexIndexed(start, KindMarker)
		}
		return Token{Kind: KindLAngle, Range: lx.mkRange(start)}
	case isDigit(r):
		return lx.lexNumberOrError(start)
	}

	// single-character punctuation
	if kind, ok := punctKind(r); ok {
		lx.advance()
		return Token{Kind: kind, Range: lx.mkRange(start)}
	}

	// unrecognized input: emit an Error token spanning exactly the offending
	// byte sequence (one rune) and continue; never halt the scan.
	lx.advance()
	rng := lx.mkRange(start)
	lx.sink.Error(diag.CodeLexicalError, rng, "unrecognized character %q", r)
	return Token{Kind: KindError, Range: rng, Text: string(r)}
}

func punctKind(r rune) (Kind, bool) {
	switch r {
	case ';':
		return KindSemi, true
	case ':':
		return KindColon, true
	case '|':
		return KindPipe, true
	case '*':
		return KindStar, true
	case '+':
		return KindPlus, true
	case '(':
		return KindLParen, true
	case ')':
		return KindRParen, true
	case '[':
		return KindLBracket, true
	case ']':
		return KindRBracket, true
	case '@':
		return KindAt, true
	case '=':
		return KindEquals, true
	case '>':
		return KindRAngle, true
	}
	return 0, false
}

func (lx *Lexer) lexIdent(start diag.Pos) Token {
	first := lx.peek()
	var sb strings.Builder
	for !lx.atEnd() && isIdentCont(lx.peek()) {
		sb.WriteRune(lx.advance())
	}
	text := sb.String()
	rng := lx.mkRange(start)

	if unicode.IsLower(first) {
		if kw, ok := keywords[text]; ok {
			return Token{Kind: kw, Range: rng, Text: text}
		}
		return Token{Kind: KindLowerIdent, Range: rng, Text: text}
	}
	return Token{Kind: KindUpperIdent, Range: rng, Text: text}
}

// lexString scans a single-quoted token symbol. A backslash escapes the next
// byte. An unterminated string is an error whose range spans from the
// opening quote to the end of the line.
func (lx *Lexer) lexString(start diag.Pos) Token {
	lx.advance() // opening '\''
	var sb strings.Builder
	for {
		if lx.atEnd() || lx.peek() == '\n' {
			rng := lx.mkRange(start)
			lx.sink.Error(diag.CodeLexicalError, rng, "unterminated string symbol")
			return Token{Kind: KindError, Range: rng, Text: sb.String()}
		}
		r := lx.advance()
		if r == '\\' {
			if lx.atEnd() {
				rng := lx.mkRange(start)
				lx.sink.Error(diag.CodeLexicalError, rng, "unterminated string symbol")
				return Token{Kind: KindError, Range: rng, Text: sb.String()}
			}
			sb.WriteRune(lx.advance())
			continue
		}
		if r == '\'' {
			break
		}
		sb.WriteRune(r)
	}
	rng := lx.mkRange(start)
	return Token{Kind: KindString, Range: rng, Text: sb.String()}
}

// lexIndexed scans the digits of a ?N / #N / <N construct, having already
// consumed the leading sigil.
func (lx *Lexer) lexIndexed(start diag.Pos, kind Kind) Token {
	if !isDigit(lx.peek()) {
		rng := lx.mkRange(start)
		lx.sink.Error(diag.CodeLexicalError, rng, "expected digits after %q", sigilFor(kind))
		return Token{Kind: KindError, Range: rng}
	}
	n := lx.scanDigits()
	rng := lx.mkRange(start)
	return Token{Kind: kind, Range: rng, Int: n}
}

func sigilFor(kind Kind) string {
	switch kind {
	case KindPredicate:
		return "?"
	case KindAction:
		return "#"
	case KindMarker:
		return "<"
	default:
		return ""
	}
}

func (lx *Lexer) scanDigits() int {
	n := 0
	for !lx.atEnd() && isDigit(lx.peek()) {
		n = n*10 + int(lx.advance()-'0')
	}
	return n
}

// lexNumberOrError scans a bare integer literal. The grammar language only
// ever uses integers as the left side of the N>name node-creation construct,
// so a digit not immediately followed by '>' and an identifier is an error.
func (lx *Lexer) lexNumberOrError(start diag.Pos) Token {
	n := lx.scanDigits()
	if lx.peek() == '>' && isIdentStart(lx.peekAt(1)) {
		lx.advance() // '>'
		var sb strings.Builder
		for !lx.atEnd() && isIdentCont(lx.peek()) {
			sb.WriteRune(lx.advance())
		}
		rng := lx.mkRange(start)
		return Token{Kind: KindCreate, Range: rng, Int: n, Name: sb.String()}
	}

	rng := lx.mkRange(start)
	lx.sink.Error(diag.CodeLexicalError, rng, "bare integer literal %d is not valid outside of a 'N>name' node creation", n)
	return Token{Kind: KindError, Range: rng}
}
