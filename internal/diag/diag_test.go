package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Sink_Format(t *testing.T) {
	testCases := []struct {
		name   string
		code   Code
		rng    Range
		msg    string
		expect string
	}{
		{
			name:   "undefined name",
			code:   CodeUndefinedName,
			rng:    Range{Start: Pos{Line: 3, Col: 5}},
			msg:    `undefined name "foo"`,
			expect: `grammar.llw:3:5: error: undefined name "foo"`,
		},
		{
			name:   "unreachable is a warning",
			code:   CodeUnreachable,
			rng:    Range{Start: Pos{Line: 10, Col: 1}},
			msg:    `rule "unused" is unreachable from the start rule`,
			expect: `grammar.llw:10:1: warning: rule "unused" is unreachable from the start rule`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			sink := NewSink("grammar.llw", 0)
			sink.Report(tc.code, tc.rng, "%s", tc.msg)

			got := sink.FormatAll()
			assert.Len(got, 1)
			assert.Equal(tc.expect, got[0])
		})
	}
}

func Test_Sink_Truncation(t *testing.T) {
	assert := assert.New(t)

	sink := NewSink("grammar.llw", 2)
	sink.Error(CodeParserError, Range{}, "first")
	sink.Error(CodeParserError, Range{}, "second")
	assert.False(sink.Truncated())

	sink.Error(CodeParserError, Range{}, "third")
	assert.True(sink.Truncated())
	assert.Equal(2, sink.Len())
}

func Test_Sink_SortedByPositionThenSeverity(t *testing.T) {
	assert := assert.New(t)

	sink := NewSink("grammar.llw", 0)
	sink.Warning(CodeUnreachable, Range{Start: Pos{Offset: 20, Line: 2, Col: 1}}, "later warning")
	sink.Error(CodeUndefinedName, Range{Start: Pos{Offset: 5, Line: 1, Col: 6}}, "earlier error")
	sink.Error(CodeUndefinedName, Range{Start: Pos{Offset: 20, Line: 2, Col: 1}}, "later error, same pos as warning")

	sorted := sink.Sorted()
	if assert.Len(sorted, 3) {
		assert.Equal("earlier error", sorted[0].Message)
		// same start offset: error sorts before warning
		assert.Equal("later error, same pos as warning", sorted[1].Message)
		assert.Equal("later warning", sorted[2].Message)
	}
}

func Test_Sink_HasErrors(t *testing.T) {
	assert := assert.New(t)

	sink := NewSink("grammar.llw", 0)
	assert.False(sink.HasErrors())

	sink.Warning(CodeUnreachable, Range{}, "just a warning")
	assert.False(sink.HasErrors())

	sink.Error(CodeStartRuleIssue, Range{}, "missing start")
	assert.True(sink.HasErrors())
}
