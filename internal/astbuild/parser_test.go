package astbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0x2a-42/lelwel/internal/ast"
	"github.com/0x2a-42/lelwel/internal/diag"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink("test.llw", 0)
	f := Parse(sink, src)
	return f, sink
}

func Test_Parse_AllTopLevelItemKinds(t *testing.T) {
	assert := assert.New(t)
	f, sink := parse(t, "token A='a' B; start s; skip B; right A; s: A;")
	assert.Equal(0, sink.Len())
	if assert.Len(f.Items, 5) {
		tl, ok := f.Items[0].(*ast.TokenList)
		if assert.True(ok) && assert.Len(tl.Decls, 2) {
			assert.Equal("A", tl.Decls[0].Name)
			assert.True(tl.Decls[0].HasSymbol)
			assert.Equal("a", tl.Decls[0].Symbol)
			assert.Equal("B", tl.Decls[1].Name)
			assert.False(tl.Decls[1].HasSymbol)
		}
		st, ok := f.Items[1].(*ast.Start)
		if assert.True(ok) {
			assert.Equal("s", st.RuleName)
		}
		sk, ok := f.Items[2].(*ast.Skip)
		if assert.True(ok) {
			assert.Equal([]string{"B"}, sk.Tokens)
		}
		rt, ok := f.Items[3].(*ast.Right)
		if assert.True(ok) {
			assert.Equal([]string{"A"}, rt.Tokens)
		}
		rule, ok := f.Items[4].(*ast.Rule)
		if assert.True(ok) {
			assert.Equal("s", rule.Name)
		}
	}
}

func Test_Parse_ItemsInAnyOrder(t *testing.T) {
	assert := assert.New(t)
	_, sink := parse(t, "s: A; start s; token A='a';")
	assert.Equal(0, sink.Len())
}

func Test_Parse_RegexPrecedence(t *testing.T) {
	assert := assert.New(t)
	f, sink := parse(t, "start s; token A B C; s: A B* | C;")
	assert.Equal(0, sink.Len())

	rule := f.Items[len(f.Items)-1].(*ast.Rule)
	alt, ok := rule.Body.(*ast.Alt)
	if !assert.True(ok) || !assert.Len(alt.Branches, 2) {
		return
	}
	concat, ok := alt.Branches[0].(*ast.Concat)
	if assert.True(ok) && assert.Len(concat.Children, 2) {
		_, isRefA := concat.Children[0].(*ast.Ref)
		assert.True(isRefA)
		star, isStar := concat.Children[1].(*ast.Star)
		assert.True(isStar)
		if isStar {
			_, isRefB := star.Elem.(*ast.Ref)
			assert.True(isRefB)
		}
	}
	_, isRefC := alt.Branches[1].(*ast.Ref)
	assert.True(isRefC)
}

func Test_Parse_GroupAndOptionalAndBinding(t *testing.T) {
	assert := assert.New(t)
	f, sink := parse(t, "start s; token A B; s: (A B)@group [A];")
	assert.Equal(0, sink.Len())

	rule := f.Items[len(f.Items)-1].(*ast.Rule)
	concat, ok := rule.Body.(*ast.Concat)
	if !assert.True(ok) || !assert.Len(concat.Children, 2) {
		return
	}
	binding, ok := concat.Children[0].(*ast.Binding)
	if assert.True(ok) {
		assert.Equal("group", binding.Name)
		_, isConcat := binding.Elem.(*ast.Concat)
		assert.True(isConcat)
	}
	_, isOptional := concat.Children[1].(*ast.Optional)
	assert.True(isOptional)
}

func Test_Parse_MissingSemicolon_RecoversAtNextItem(t *testing.T) {
	assert := assert.New(t)
	f, sink := parse(t, "start s token A='a'; s: A;")
	assert.Greater(sink.Len(), 0)
	// Recovery must still find the rule declaration after the malformed
	// 'start' item, not desynchronize the whole file.
	var sawRule bool
	for _, it := range f.Items {
		if r, ok := it.(*ast.Rule); ok && r.Name == "s" {
			sawRule = true
		}
	}
	assert.True(sawRule)
}

func Test_Parse_PredicateActionMarkerCreate(t *testing.T) {
	assert := assert.New(t)
	f, sink := parse(t, "start s; token A; s: ?0 A #1 <2 A 2>wrapped;")
	assert.Equal(0, sink.Len())

	rule := f.Items[len(f.Items)-1].(*ast.Rule)
	concat, ok := rule.Body.(*ast.Concat)
	if !assert.True(ok) || !assert.Len(concat.Children, 6) {
		return
	}
	_, isPred := concat.Children[0].(*ast.Predicate)
	assert.True(isPred)
	_, isAction := concat.Children[2].(*ast.Action)
	assert.True(isAction)
	marker, isMarker := concat.Children[3].(*ast.Marker)
	if assert.True(isMarker) {
		assert.Equal(2, marker.Index)
	}
	create, isCreate := concat.Children[5].(*ast.Create)
	if assert.True(isCreate) {
		assert.Equal(2, create.Index)
		assert.Equal("wrapped", create.Name)
	}
}
