package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
)

// resolveRefs walks every rule body, resolving each Ref against the token
// and rule tables built by collect. Symbol references (string-literal token
// references) are matched by exact string equality against declared token
// symbols; bare identifiers resolve by name, case already having picked
// rule-vs-token at parse time.
func resolveRefs(sink *diag.Sink, a *Artifact) {
	for i := range a.Rules {
		walkRefs(sink, a, a.Rules[i].Body)
	}
}

func walkRefs(sink *diag.Sink, a *Artifact, r ast.Regex) {
	switch n := r.(type) {
	case *ast.Concat:
		for _, c := range n.Children {
			walkRefs(sink, a, c)
		}
	case *ast.Alt:
		for _, b := range n.Branches {
			walkRefs(sink, a, b)
		}
	case *ast.Optional:
		walkRefs(sink, a, n.Elem)
	case *ast.Star:
		walkRefs(sink, a, n.Elem)
	case *ast.Plus:
		walkRefs(sink, a, n.Elem)
	case *ast.Binding:
		walkRefs(sink, a, n.Elem)
	case *ast.Ref:
		resolveRef(sink, a, n)
	case *ast.Predicate, *ast.Action, *ast.Marker, *ast.Create:
		// no references to resolve
	}
}

func resolveRef(sink *diag.Sink, a *Artifact, ref *ast.Ref) {
	if ref.IsSymbol {
		if id, ok := a.tokenBySymbol[ref.Name]; ok {
			ref.Kind = ast.RefToken
			ref.Index = id
			return
		}
		sink.Report(diag.CodeUndefinedName, ref.Range(), "undefined token symbol '%s'", ref.Name)
		return
	}
	switch ref.Kind {
	case ast.RefRule:
		if id, ok := a.ruleByName[ref.Name]; ok {
			ref.Index = id
			return
		}
		sink.Report(diag.CodeUndefinedName, ref.Range(), "undefined rule %q", ref.Name)
	case ast.RefToken:
		if id, ok := a.tokenByName[ref.Name]; ok {
			ref.Index = id
			return
		}
		sink.Report(diag.CodeUndefinedName, ref.Range(), "undefined token %q", ref.Name)
	}
}
