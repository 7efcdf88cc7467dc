// Package printer re-emits an analyzed ast.File back into .llw grammar
// syntax, the way a formatter round-trips a source file. It is the
// supplement that makes the round-trip property exercisable: re-parsing
// the printed text must reproduce the same items and regex shapes the
// original source declared.
//
// Rule lines longer than a fixed column width are wrapped using
// github.com/dekarrin/rosed's Edit(...).Wrap(...), the same wrapping call
// the teacher project uses to keep console output readable.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/0x2a-42/lelwel/internal/ast"
)

// wrapWidth is the column at which a rule body wraps, mirroring the
// teacher's own console-output wrap width.
const wrapWidth = 80

// Print renders a parsed grammar file back into .llw source text, one item
// per line (or wrapped block for long rule bodies), in declaration order.
func Print(f *ast.File) string {
	var lines []string
	for _, item := range f.Items {
		lines = append(lines, printItem(item))
	}
	return strings.Join(lines, "\n") + "\n"
}

func printItem(item ast.Item) string {
	switch it := item.(type) {
	case *ast.TokenList:
		return printTokenList(it)
	case *ast.Start:
		return fmt.Sprintf("start %s;", it.RuleName)
	case *ast.Skip:
		return printTokenNames("skip", it.Tokens)
	case *ast.Right:
		return printTokenNames("right", it.Tokens)
	case *ast.Rule:
		return printRule(it)
	default:
		return ""
	}
}

func printTokenList(tl *ast.TokenList) string {
	var sb strings.Builder
	sb.WriteString("token")
	for _, d := range tl.Decls {
		sb.WriteByte(' ')
		sb.WriteString(d.Name)
		if d.HasSymbol {
			sb.WriteString("='")
			sb.WriteString(d.Symbol)
			sb.WriteByte('\'')
		}
	}
	sb.WriteByte(';')
	return sb.String()
}

func printTokenNames(keyword string, names []string) string {
	return keyword + " " + strings.Join(names, " ") + ";"
}

func printRule(r *ast.Rule) string {
	body := printRegex(r.Body, precLowest)
	head := r.Name + ": "
	full := head + body + ";"

	if len(full) <= wrapWidth {
		return full
	}

	wrapped := rosed.Edit(full).Wrap(wrapWidth).String()
	return wrapped
}

// Precedence levels for deciding when a child regex needs parens around it
// when re-emitted, matching astbuild's parse precedence exactly:
// alternation binds loosest, then concatenation, then postfix.
const (
	precLowest = iota
	precAlt
	precConcat
	precPostfix
)

func printRegex(r ast.Regex, parentPrec int) string {
	switch n := r.(type) {
	case *ast.Concat:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = printRegex(c, precConcat)
		}
		s := strings.Join(parts, " ")
		if parentPrec > precConcat {
			return "(" + s + ")"
		}
		return s
	case *ast.Alt:
		parts := make([]string, len(n.Branches))
		for i, b := range n.Branches {
			parts[i] = printRegex(b, precAlt)
		}
		s := strings.Join(parts, " | ")
		if parentPrec > precAlt {
			return "(" + s + ")"
		}
		return s
	case *ast.Optional:
		return "[" + printRegex(n.Elem, precLowest) + "]"
	case *ast.Star:
		return printRegex(n.Elem, precPostfix) + "*"
	case *ast.Plus:
		return printRegex(n.Elem, precPostfix) + "+"
	case *ast.Binding:
		return printRegex(n.Elem, precPostfix) + "@" + n.Name
	case *ast.Ref:
		if n.IsSymbol {
			return "'" + n.Name + "'"
		}
		return n.Name
	case *ast.Predicate:
		return "?" + strconv.Itoa(n.Index)
	case *ast.Action:
		return "#" + strconv.Itoa(n.Index)
	case *ast.Marker:
		return "<" + strconv.Itoa(n.Index)
	case *ast.Create:
		return strconv.Itoa(n.Index) + ">" + n.Name
	default:
		return ""
	}
}
