package sema

import (
	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
	"github.com/0x2a-42/lelwel/internal/setutil"
)

// collect walks the file's top-level items once, assigning dense ids to
// every declared token and rule and recording Start/Skip/Right, before any
// Ref is resolved. Duplicate names are reported on the second occurrence,
// exactly as spec'd for Phase R, but this bookkeeping pass happens first
// because resolution needs the complete symbol tables up front -- a Ref can
// name a rule or token declared later in the file.
func collect(sink *diag.Sink, file *ast.File) *Artifact {
	a := &Artifact{
		File:          file,
		tokenByName:   map[string]int{},
		tokenBySymbol: map[string]int{},
		ruleByName:    map[string]int{},
		StartRule:     -1,
	}

	var startSeen bool

	for _, item := range file.Items {
		switch it := item.(type) {
		case *ast.TokenList:
			for _, d := range it.Decls {
				if _, dup := a.tokenByName[d.Name]; dup {
					sink.Report(diag.CodeRedefinition, d.NameRange, "token %q is already declared", d.Name)
					continue
				}
				id := len(a.Tokens)
				a.tokenByName[d.Name] = id
				info := TokenInfo{ID: id, Name: d.Name, HasSymbol: d.HasSymbol, Symbol: d.Symbol, IsClassStyle: d.IsClassStyle()}
				if d.HasSymbol && !info.IsClassStyle {
					if _, dup := a.tokenBySymbol[d.Symbol]; dup {
						sink.Report(diag.CodeRedefinition, d.SymbolRng, "symbol %q is already declared", d.Symbol)
					} else {
						a.tokenBySymbol[d.Symbol] = id
					}
				}
				a.Tokens = append(a.Tokens, info)
			}
		case *ast.Rule:
			if _, dup := a.ruleByName[it.Name]; dup {
				sink.Report(diag.CodeRedefinition, it.NameRange, "rule %q is already declared", it.Name)
				continue
			}
			id := len(a.Rules)
			a.ruleByName[it.Name] = id
			a.Rules = append(a.Rules, RuleInfo{ID: id, Name: it.Name, Body: it.Body, Productive: true})
		case *ast.Start:
			if startSeen {
				sink.Report(diag.CodeStartRuleIssue, it.NodeRange, "duplicate 'start' declaration")
				continue
			}
			startSeen = true
			// Resolved to a rule id below, once every rule is known.
			a.pendingStart = it
		case *ast.Skip:
			a.pendingSkip = append(a.pendingSkip, it)
		case *ast.Right:
			a.pendingRight = append(a.pendingRight, it)
		}
	}

	if !startSeen {
		sink.Report(diag.CodeStartRuleIssue, diag.Range{}, "missing 'start' declaration")
	}

	a.Skip = setutil.New[int]()
	a.Right = setutil.New[int]()
	a.rightRanges = map[int]diag.Range{}
	return a
}

// resolveSkipRightStart fills in a.StartRule, a.Skip, and a.Right now that
// every token and rule id is known, reporting undefined names.
func resolveSkipRightStart(sink *diag.Sink, a *Artifact) {
	if a.pendingStart != nil {
		if id, ok := a.ruleByName[a.pendingStart.RuleName]; ok {
			a.StartRule = id
		} else {
			sink.Report(diag.CodeStartRuleIssue, a.pendingStart.NameRange, "start rule %q is not declared", a.pendingStart.RuleName)
		}
	}
	for _, sk := range a.pendingSkip {
		for i, name := range sk.Tokens {
			if id, ok := a.tokenByName[name]; ok {
				a.Skip.Add(id)
			} else {
				sink.Report(diag.CodeUndefinedName, sk.TokenRngs[i], "undefined token %q", name)
			}
		}
	}
	for _, rt := range a.pendingRight {
		for i, name := range rt.Tokens {
			if id, ok := a.tokenByName[name]; ok {
				a.Right.Add(id)
				if _, seen := a.rightRanges[id]; !seen {
					a.rightRanges[id] = rt.TokenRngs[i]
				}
			} else {
				sink.Report(diag.CodeUndefinedName, rt.TokenRngs[i], "undefined token %q", name)
			}
		}
	}
}
