package astbuild

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/lex"
)

// parseRegex parses a full regex with the conventional precedence, loosest
// to tightest: alternation, concatenation, postfix (*, +, @name), then atoms
// (identifiers, string symbols, predicates, actions, markers, creates, and
// parenthesized or bracketed sub-regexes).
//
// Marker (<N) and Create (N>name) are parsed as plain atoms in the Concat
// sequence, exactly like Predicate and Action: astbuild does not attempt to
// structurally rewrap the span between a Marker and its matching Create,
// because that pairing is a reachability property ("every path to this
// Create passes through a Marker of the same index first") that can cross
// Alt branches -- a marker opened in one alternative and closed after the
// alternation as a whole is legal, and the parser has no way to evaluate
// "every path" while it only has the single path it is currently parsing.
// That check belongs to, and is implemented by, the semantic pass's final
// checks over the completed tree.
func (p *parser) parseRegex() ast.Regex {
	return p.parseAlt()
}

func (p *parser) parseAlt() ast.Regex {
	start := p.peek().Range
	first := p.parseConcat()
	if p.peek().Kind != lex.KindPipe {
		return first
	}
	branches := []ast.Regex{first}
	for p.peek().Kind == lex.KindPipe {
		p.advance()
		branches = append(branches, p.parseConcat())
	}
	end := branches[len(branches)-1].Range()
	return &ast.Alt{RegexBase: ast.RegexBase{NodeRange: diag.Range{Start: start.Start, End: end.End}}, Branches: branches}
}

func (p *parser) parseConcat() ast.Regex {
	var nodes []ast.Regex
	for p.atAtomStart() {
		node := p.parseAtom()
		node = p.parsePostfixChain(node)
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		// At least one atom is required here (e.g. an empty rule body or an
		// empty alternative); report it and return an empty Concat rather
		// than nil so callers never have to nil-check a Regex.
		p.errorf("expected a regex atom, found %s", p.peek().Kind)
		here := p.peek().Range
		return &ast.Concat{RegexBase: ast.RegexBase{NodeRange: here}}
	}
	if len(nodes) == 1 {
		return nodes[0]
	}
	rng := diag.Range{Start: nodes[0].Range().Start, End: nodes[len(nodes)-1].Range().End}
	return &ast.Concat{RegexBase: ast.RegexBase{NodeRange: rng}, Children: nodes}
}

// parsePostfixChain consumes any run of '*', '+', and '@name' suffixes
// following atom, applying each in turn (so "a*@x" binds the starred node).
func (p *parser) parsePostfixChain(atom ast.Regex) ast.Regex {
	for {
		switch p.peek().Kind {
		case lex.KindStar:
			tok := p.advance()
			rng := diag.Range{Start: atom.Range().Start, End: tok.Range.End}
			atom = &ast.Star{RegexBase: ast.RegexBase{NodeRange: rng}, Elem: atom}
		case lex.KindPlus:
			tok := p.advance()
			rng := diag.Range{Start: atom.Range().Start, End: tok.Range.End}
			atom = &ast.Plus{RegexBase: ast.RegexBase{NodeRange: rng}, Elem: atom}
		case lex.KindAt:
			p.advance()
			var name lex.Token
			var ok bool
			if p.peek().Kind == lex.KindUpperIdent {
				name, ok = p.expect(lex.KindUpperIdent)
			} else {
				name, ok = p.expect(lex.KindLowerIdent)
			}
			if ok {
				rng := diag.Range{Start: atom.Range().Start, End: name.Range.End}
				atom = &ast.Binding{RegexBase: ast.RegexBase{NodeRange: rng}, Elem: atom, Name: name.Text}
			}
		default:
			return atom
		}
	}
}

func (p *parser) atAtomStart() bool {
	switch p.peek().Kind {
	case lex.KindLParen, lex.KindLBracket, lex.KindLowerIdent, lex.KindUpperIdent,
		lex.KindString, lex.KindPredicate, lex.KindAction, lex.KindMarker, lex.KindCreate:
		return true
	}
	return false
}

func (p *parser) parseAtom() ast.Regex {
	tok := p.peek()
	switch tok.Kind {
	case lex.KindLParen:
		p.advance()
		inner := p.parseRegex()
		end := tok.Range
		if close, ok := p.expect(lex.KindRParen); ok {
			end = close.Range
		}
		return widenRange(inner, tok.Range.Start, end.End)
	case lex.KindLBracket:
		p.advance()
		inner := p.parseRegex()
		end := tok.Range
		if close, ok := p.expect(lex.KindRBracket); ok {
			end = close.Range
		}
		rng := diag.Range{Start: tok.Range.Start, End: end.End}
		return &ast.Optional{RegexBase: ast.RegexBase{NodeRange: rng}, Elem: inner}
	case lex.KindLowerIdent:
		p.advance()
		return &ast.Ref{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Name: tok.Text, Kind: ast.RefRule, Index: -1}
	case lex.KindUpperIdent:
		p.advance()
		return &ast.Ref{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Name: tok.Text, Kind: ast.RefToken, Index: -1}
	case lex.KindString:
		p.advance()
		return &ast.Ref{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Name: tok.Text, IsSymbol: true, Kind: ast.RefToken, Index: -1}
	case lex.KindPredicate:
		p.advance()
		return &ast.Predicate{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Index: tok.Int}
	case lex.KindAction:
		p.advance()
		return &ast.Action{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Index: tok.Int}
	case lex.KindMarker:
		p.advance()
		return &ast.Marker{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Index: tok.Int}
	case lex.KindCreate:
		p.advance()
		return &ast.Create{RegexBase: ast.RegexBase{NodeRange: tok.Range}, Index: tok.Int, Name: tok.Name}
	default:
		p.errorf("expected a regex atom, found %s", tok.Kind)
		p.advance()
		return &ast.Concat{RegexBase: ast.RegexBase{NodeRange: tok.Range}}
	}
}

// widenRange reports the inner node's range widened to include enclosing
// parens, so diagnostics anchored on a parenthesized group point at what the
// user actually wrote. Only Concat and Alt nodes are widened; any other node
// keeps its own range.
func widenRange(r ast.Regex, start, end diag.Pos) ast.Regex {
	rng := diag.Range{Start: start, End: end}
	switch n := r.(type) {
	case *ast.Concat:
		n.NodeRange = rng
	case *ast.Alt:
		n.NodeRange = rng
	}
	return r
}
