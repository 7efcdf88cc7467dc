package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0x2a-42/lelwel/internal/diag"
)

func lexAll(t *testing.T, src string) ([]Token, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink("test.llw", 0)
	lx := New(sink, src)
	var toks []Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == KindEOF {
			break
		}
	}
	return toks, sink
}

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func Test_Lexer_Keywords_And_Idents(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, "token A='a'; start s; skip W; right P; rule_name: A;")
	assert.Equal(0, sink.Len())
	assert.Equal([]Kind{
		KindTokenKw, KindUpperIdent, KindEquals, KindString, KindSemi,
		KindStartKw, KindLowerIdent, KindSemi,
		KindSkipKw, KindUpperIdent, KindSemi,
		KindRightKw, KindUpperIdent, KindSemi,
		KindLowerIdent, KindColon, KindUpperIdent, KindSemi,
		KindEOF,
	}, kinds(toks))
}

func Test_Lexer_Comments_And_Whitespace(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, "  // a comment\n\tstart  s ; // trailing\n")
	assert.Equal(0, sink.Len())
	assert.Equal([]Kind{KindStartKw, KindLowerIdent, KindSemi, KindEOF}, kinds(toks))
}

func Test_Lexer_IndexedConstructs(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, "?0 #12 <3 4>wrap")
	assert.Equal(0, sink.Len())
	if assert.Len(toks, 5) {
		assert.Equal(KindPredicate, toks[0].Kind)
		assert.Equal(0, toks[0].Int)
		assert.Equal(KindAction, toks[1].Kind)
		assert.Equal(12, toks[1].Int)
		assert.Equal(KindMarker, toks[2].Kind)
		assert.Equal(3, toks[2].Int)
		assert.Equal(KindCreate, toks[3].Kind)
		assert.Equal(4, toks[3].Int)
		assert.Equal("wrap", toks[3].Name)
	}
}

func Test_Lexer_UnterminatedString(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, "token A='ab\nstart s;")
	assert.Equal(1, sink.Len())
	assert.Equal(KindError, toks[3].Kind)
}

func Test_Lexer_EscapedQuoteInString(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, `token Q='\''`)
	assert.Equal(0, sink.Len())
	if assert.Len(toks, 5) {
		assert.Equal(KindString, toks[3].Kind)
		assert.Equal("'", toks[3].Text)
	}
}

func Test_Lexer_BareIntegerIsError(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, "42")
	assert.Equal(1, sink.Len())
	assert.Equal(KindError, toks[0].Kind)
}

func Test_Lexer_UnrecognizedCharacterEmitsErrorAndContinues(t *testing.T) {
	assert := assert.New(t)

	toks, sink := lexAll(t, "start$ s;")
	assert.Equal(1, sink.Len())
	assert.Equal([]Kind{KindStartKw, KindError, KindLowerIdent, KindSemi, KindEOF}, kinds(toks))
}

func Test_Lexer_IdempotentAfterEOF(t *testing.T) {
	assert := assert.New(t)

	sink := diag.NewSink("test.llw", 0)
	lx := New(sink, "start s;")
	for i := 0; i < 4; i++ {
		lx.Next()
	}
	first := lx.Next()
	second := lx.Next()
	assert.Equal(KindEOF, first.Kind)
	assert.Equal(KindEOF, second.Kind)
	assert.Equal(first.Range, second.Range)
}

// Test_Lexer_NFCNormalizesIdentifiers builds two byte-distinct spellings of
// the same name -- one using a single precomposed code point (U+00E9), the
// other using a base letter followed by a combining accent (U+0065 U+0301)
// -- via rune values rather than literal source text, so the two forms
// cannot be silently re-merged by the editor or toolchain before the test
// runs. They must lex to the same identifier text.
func Test_Lexer_NFCNormalizesIdentifiers(t *testing.T) {
	assert := assert.New(t)

	precomposed := "caf" + string(rune(0x00E9))
	combining := "caf" + string(rune(0x0065)) + string(rune(0x0301))
	assert.NotEqual(precomposed, combining, "test fixture must exercise distinct byte forms")

	toks1, _ := lexAll(t, "start "+precomposed+";")
	toks2, _ := lexAll(t, "start "+combining+";")
	assert.Equal(toks1[1].Text, toks2[1].Text)
}
