// Package astbuild implements the recursive-descent parser that turns a
// token stream from package lex into an ast.File: the AST Builder stage of
// the grammar front-end. It parses top-level items in any order, recovers
// from a missing terminator by resynchronizing on the next top-level
// keyword or rule header, and never halts the pass -- a malformed item is
// reported and skipped, not fatal.
package astbuild

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/lex"
)

// Parse lexes src fully, then parses the resulting token stream, and returns
// the resulting File. Lexical errors are reported by the Lexer directly into
// sink as it is driven; syntactic errors are reported here.
func Parse(sink *diag.Sink, src string) *ast.File {
	lx := lex.New(sink, src)
	p := &parser{sink: sink}
	p.fill(lx)
	return p.parseFile()
}

// parser holds the fully-materialized token stream (a grammar file is small
// enough that pre-lexing the whole thing costs nothing, and it lets the
// recovery logic look ahead freely without re-driving the lexer).
type parser struct {
	sink *diag.Sink
	toks []lex.Token
	pos  int
}

func (p *parser) fill(lx *lex.Lexer) {
	for {
		tok := lx.Next()
		p.toks = append(p.toks, tok)
		if tok.Kind == lex.KindEOF {
			return
		}
	}
}

func (p *parser) peek() lex.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) lex.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}

func (p *parser) advance() lex.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it has the given kind, reporting a
// ParserError and leaving the stream in place otherwise.
func (p *parser) expect(k lex.Kind) (lex.Token, bool) {
	if p.peek().Kind == k {
		return p.advance(), true
	}
	p.errorf("expected %s, found %s", k, p.peek().Kind)
	return lex.Token{}, false
}

func (p *parser) errorf(format string, args ...any) {
	p.sink.Report(diag.CodeParserError, p.peek().Range, format, args...)
}

// atItemStart reports whether the token at the given lookahead starts a new
// top-level item: a keyword, or a rule header (lower identifier followed by
// ':').
func (p *parser) atItemStart(n int) bool {
	switch p.peekAt(n).Kind {
	case lex.KindTokenKw, lex.KindStartKw, lex.KindSkipKw, lex.KindRightKw, lex.KindEOF:
		return true
	case lex.KindLowerIdent:
		return p.peekAt(n+1).Kind == lex.KindColon
	default:
		return false
	}
}

// recover advances past the malformed item, stopping just before the next
// item start, and reports the skipped range as a single diagnostic.
func (p *parser) recover() {
	start := p.peek().Range
	n := 0
	for !p.atItemStart(n) {
		n++
	}
	if n == 0 {
		return
	}
	end := p.peekAt(n - 1).Range
	for i := 0; i < n; i++ {
		p.advance()
	}
	p.sink.Report(diag.CodeParserError, diag.Range{Start: start.Start, End: end.End}, "skipping unrecognized input")
}

func (p *parser) parseFile() *ast.File {
	f := &ast.File{}
	for p.peek().Kind != lex.KindEOF {
		before := p.pos
		item := p.parseItem()
		if item != nil {
			f.Items = append(f.Items, item)
		}
		if p.pos == before {
			// parseItem made no progress (e.g. junk at top level); force
			// recovery so the loop always terminates.
			p.errorf("expected a declaration, found %s", p.peek().Kind)
			p.advance()
			p.recover()
		}
	}
	return f
}

func (p *parser) parseItem() ast.Item {
	switch p.peek().Kind {
	case lex.KindTokenKw:
		return p.parseTokenList()
	case lex.KindStartKw:
		return p.parseStart()
	case lex.KindSkipKw:
		return p.parseSkip()
	case lex.KindRightKw:
		return p.parseRight()
	case lex.KindLowerIdent:
		if p.peekAt(1).Kind == lex.KindColon {
			return p.parseRule()
		}
	}
	return nil
}

func (p *parser) parseTokenList() ast.Item {
	kw := p.advance() // 'token'
	tl := &ast.TokenList{}
	for p.peek().Kind == lex.KindUpperIdent {
		tl.Decls = append(tl.Decls, p.parseTokenDecl())
	}
	end := p.peek().Range
	if _, ok := p.expect(lex.KindSemi); !ok {
		p.recover()
	} else {
		end = p.toks[p.pos-1].Range
	}
	tl.NodeRange = diag.Range{Start: kw.Range.Start, End: end.End}
	return tl
}

func (p *parser) parseTokenDecl() ast.TokenDecl {
	name := p.advance() // UpperIdent
	d := ast.TokenDecl{NodeRange: name.Range, Name: name.Text, NameRange: name.Range}
	if p.peek().Kind == lex.KindEquals {
		p.advance()
		if sym, ok := p.expect(lex.KindString); ok {
			d.HasSymbol = true
			d.Symbol = sym.Text
			d.SymbolRng = sym.Range
			d.NodeRange = diag.Range{Start: name.Range.Start, End: sym.Range.End}
		}
	}
	return d
}

func (p *parser) parseStart() ast.Item {
	kw := p.advance() // 'start'
	s := &ast.Start{NodeRange: kw.Range}
	if name, ok := p.expect(lex.KindLowerIdent); ok {
		s.RuleName = name.Text
		s.NameRange = name.Range
		s.NodeRange.End = name.Range.End
	}
	if semi, ok := p.expect(lex.KindSemi); ok {
		s.NodeRange.End = semi.Range.End
	} else {
		p.recover()
	}
	return s
}

func (p *parser) parseSkip() ast.Item {
	kw := p.advance() // 'skip'
	s := &ast.Skip{NodeRange: kw.Range}
	for p.peek().Kind == lex.KindUpperIdent {
		t := p.advance()
		s.Tokens = append(s.Tokens, t.Text)
		s.TokenRngs = append(s.TokenRngs, t.Range)
		s.NodeRange.End = t.Range.End
	}
	if semi, ok := p.expect(lex.KindSemi); ok {
		s.NodeRange.End = semi.Range.End
	} else {
		p.recover()
	}
	return s
}

func (p *parser) parseRight() ast.Item {
	kw := p.advance() // 'right'
	r := &ast.Right{NodeRange: kw.Range}
	for p.peek().Kind == lex.KindUpperIdent {
		t := p.advance()
		r.Tokens = append(r.Tokens, t.Text)
		r.TokenRngs = append(r.TokenRngs, t.Range)
		r.NodeRange.End = t.Range.End
	}
	if semi, ok := p.expect(lex.KindSemi); ok {
		r.NodeRange.End = semi.Range.End
	} else {
		p.recover()
	}
	return r
}

func (p *parser) parseRule() ast.Item {
	name := p.advance() // LowerIdent
	r := &ast.Rule{NodeRange: name.Range, Name: name.Text, NameRange: name.Range}
	p.expect(lex.KindColon)
	r.Body = p.parseRegex()
	if semi, ok := p.expect(lex.KindSemi); ok {
		r.NodeRange.End = semi.Range.End
	} else {
		p.recover()
	}
	return r
}
