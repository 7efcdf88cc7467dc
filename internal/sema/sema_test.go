package sema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/0x2a-42/lelwel/internal/astbuild"
	"github.com/0x2a-42/lelwel/internal/diag"
)

func analyze(t *testing.T, src string) (*Result, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink("test.llw", 0)
	file := astbuild.Parse(sink, src)
	res := Analyze(sink, file, zap.NewNop())
	return res, sink
}

func Test_EmptyFile_MissingStart(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "")
	if assert.Equal(1, sink.Len()) {
		assert.Equal(diag.CodeStartRuleIssue, sink.Errors()[0].Code)
	}
}

func Test_DuplicateStart(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start a; start b; token X='x' Y='y'; a:'x'; b:'y';")
	errs := sink.Errors()
	if assert.Len(errs, 1) {
		assert.Equal(diag.CodeStartRuleIssue, errs[0].Code)
	}
}

func Test_LL1Conflict(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a'; s: A | A;")
	errs := sink.Errors()
	if assert.Len(errs, 1) {
		assert.Equal(diag.CodePredictConflict, errs[0].Code)
	}
}

func Test_UnreachableRule(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a'; s: A; unused: A;")
	warnings := sink.Warnings()
	if assert.Len(warnings, 1) {
		assert.Equal(diag.CodeUnreachable, warnings[0].Code)
	}
}

func Test_OperatorPrecedenceValid(t *testing.T) {
	assert := assert.New(t)
	res, sink := analyze(t, `token P='+' M='*' N='<int>'; start e;
e: e M e | e P e | N;`)
	assert.Equal(0, sink.Len())

	eid, ok := res.Artifact.RuleByName("e")
	if !assert.True(ok) {
		return
	}
	r := res.Artifact.Rules[eid]
	assert.Equal(ClassOperatorPrecedence, r.Class)
	if assert.Len(r.Precedence, 2) {
		assert.Equal(0, r.Precedence[0].Level)
		assert.Equal(1, r.Precedence[1].Level)
		mID, _ := res.Artifact.TokenByName("M")
		pID, _ := res.Artifact.TokenByName("P")
		assert.Equal([]int{mID}, r.Precedence[0].Operators)
		assert.Equal([]int{pID}, r.Precedence[1].Operators)
	}
}

func Test_RecoveryViaDominator(t *testing.T) {
	assert := assert.New(t)
	src := `token FN='fn' NAME='<ident>' LBRACE='{' RBRACE='}' SEMI=';';
start file;
file: fn*;
fn: FN NAME block;
block: LBRACE stmt* RBRACE;
stmt: expr SEMI;
expr: NAME;`
	res, sink := analyze(t, src)
	assert.Equal(0, sink.Len())

	stmtID, ok := res.Artifact.RuleByName("stmt")
	if !assert.True(ok) {
		return
	}
	rbraceID, _ := res.Artifact.TokenByName("RBRACE")
	fnID, _ := res.Artifact.TokenByName("FN")

	rec := res.Artifact.Rules[stmtID].Recovery
	assert.True(rec.Has(rbraceID), "recovery(stmt) must contain '}', the token following stmt* inside block")
	assert.True(rec.Has(fnID), "recovery(stmt) must contain 'fn' via fn's dominance over stmt")
	assert.True(rec.Has(EOF), "recovery(stmt) must always contain EOF")
}

func Test_StartRuleRecoveryIsJustEOF(t *testing.T) {
	assert := assert.New(t)
	res, sink := analyze(t, "start s; token A='a'; s: A;")
	assert.Equal(0, sink.Len())
	sid, _ := res.Artifact.RuleByName("s")
	rec := res.Artifact.Rules[sid].Recovery
	assert.Equal(1, rec.Len())
	assert.True(rec.Has(EOF))
}

func Test_MarkerMismatch_UnmatchedCreate(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a'; s: A 1>wrap;")
	found := false
	for _, d := range sink.Errors() {
		if d.Code == diag.CodeMarkerMismatch {
			found = true
		}
	}
	assert.True(found)
}

func Test_MarkerBalance_ValidPair(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a'; s: <1 A 1>wrap;")
	for _, d := range sink.Errors() {
		assert.NotEqual(diag.CodeMarkerMismatch, d.Code)
	}
}

func Test_IndexCollision_DuplicatePredicate(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a'; s: ?0 A | ?0 A;")
	found := false
	for _, d := range sink.Errors() {
		if d.Code == diag.CodeIndexCollision {
			found = true
		}
	}
	assert.True(found)
}

func Test_Unproductive_SelfOnlyRule(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a'; s: A | bad; bad: bad;")
	found := false
	for _, d := range sink.Errors() {
		if d.Code == diag.CodeUnproductive {
			found = true
		}
	}
	assert.True(found)
}

func Test_SkipTokenUsedInRule_IsMisuse(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; token A='a' W='<ws>'; skip W; s: A W;")
	found := false
	for _, d := range sink.Errors() {
		if d.Code == diag.CodeSkipOrRightMisuse {
			found = true
		}
	}
	assert.True(found)
}

func Test_UndefinedTokenReference(t *testing.T) {
	assert := assert.New(t)
	_, sink := analyze(t, "start s; s: Missing;")
	found := false
	for _, d := range sink.Errors() {
		if d.Code == diag.CodeUndefinedName {
			found = true
		}
	}
	assert.True(found)
}

// ruleSnapshot is a comparable projection of RuleInfo: enough to assert
// whole-artifact equality with cmp.Diff without tripping over the
// unexported map fields on Artifact or the ast.Regex bodies, which are
// not meant to be compared node-by-node here.
type ruleSnapshot struct {
	Name       string
	Class      Class
	Reachable  bool
	Productive bool
	Nullable   bool
	First      []int
	Follow     []int
	Recovery   []int
}

func snapshot(a *Artifact) []ruleSnapshot {
	snaps := make([]ruleSnapshot, len(a.Rules))
	for i, r := range a.Rules {
		snaps[i] = ruleSnapshot{
			Name:       r.Name,
			Class:      r.Class,
			Reachable:  r.Reachable,
			Productive: r.Productive,
			Nullable:   r.Nullable,
			First:      r.First.Elements(),
			Follow:     r.Follow.Elements(),
			Recovery:   r.Recovery.Elements(),
		}
	}
	return snaps
}

func Test_Idempotence(t *testing.T) {
	assert := assert.New(t)
	src := `token P='+' M='*' N='<int>'; start e;
e: e M e | e P e | N;`
	res1, sink1 := analyze(t, src)
	res2, sink2 := analyze(t, src)

	assert.Equal(sink1.FormatAll(), sink2.FormatAll())
	if diff := cmp.Diff(snapshot(res1.Artifact), snapshot(res2.Artifact), cmpopts.SortSlices(func(a, b int) bool { return a < b })); diff != "" {
		t.Errorf("analysis not idempotent (-first +second):\n%s", diff)
	}
}

func Test_UnconditionalForwardClassification(t *testing.T) {
	assert := assert.New(t)
	res, sink := analyze(t, "start s; token A='a'; s: inner; inner: A;")
	assert.Equal(0, sink.Len())
	id, _ := res.Artifact.RuleByName("s")
	assert.Equal(ClassUnconditionalForward, res.Artifact.Rules[id].Class)
}

func Test_ConditionalForwardClassification(t *testing.T) {
	assert := assert.New(t)
	res, sink := analyze(t, "start s; token A='a' B='b'; s: inner [B]; inner: A;")
	assert.Equal(0, sink.Len())
	id, _ := res.Artifact.RuleByName("s")
	assert.Equal(ClassConditionalForward, res.Artifact.Rules[id].Class)
}

func Test_MaybeEmptyClassification(t *testing.T) {
	assert := assert.New(t)
	res, sink := analyze(t, "start s; token A='a'; s: [A];")
	assert.Equal(0, sink.Len())
	id, _ := res.Artifact.RuleByName("s")
	assert.Equal(ClassMaybeEmpty, res.Artifact.Rules[id].Class)
}
