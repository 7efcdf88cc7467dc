package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0x2a-42/lelwel/internal/astbuild"
	"github.com/0x2a-42/lelwel/internal/diag"
)

func Test_Print_RoundTripsSimpleGrammar(t *testing.T) {
	assert := assert.New(t)
	src := "token A='a' B='b';\nstart s;\ns: A B*;"

	sink1 := diag.NewSink("test.llw", 0)
	f1 := astbuild.Parse(sink1, src)
	assert.Equal(0, sink1.Len())

	printed := Print(f1)

	sink2 := diag.NewSink("test.llw", 0)
	f2 := astbuild.Parse(sink2, printed)
	assert.Equal(0, sink2.Len())

	reprinted := Print(f2)
	assert.Equal(printed, reprinted)
}

func Test_Print_PreservesAlternationAndGrouping(t *testing.T) {
	assert := assert.New(t)
	src := "token A B C;\nstart s;\ns: (A B) | C;"

	sink := diag.NewSink("test.llw", 0)
	f := astbuild.Parse(sink, src)
	assert.Equal(0, sink.Len())

	printed := Print(f)

	sink2 := diag.NewSink("test.llw", 0)
	f2 := astbuild.Parse(sink2, printed)
	assert.Equal(0, sink2.Len())

	reprinted := Print(f2)
	assert.Equal(printed, reprinted)
}

func Test_Print_PredicateActionMarkerCreate(t *testing.T) {
	assert := assert.New(t)
	src := "token A;\nstart s;\ns: ?0 A #1 <2 A 2>wrapped;"

	sink := diag.NewSink("test.llw", 0)
	f := astbuild.Parse(sink, src)
	assert.Equal(0, sink.Len())

	printed := Print(f)
	assert.Contains(printed, "?0")
	assert.Contains(printed, "#1")
	assert.Contains(printed, "<2")
	assert.Contains(printed, "2>wrapped")
}
