package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Key_StableForSameSource(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Key("start s; s: A;"), Key("start s; s: A;"))
}

func Test_Key_DiffersForDifferentSource(t *testing.T) {
	assert := assert.New(t)
	assert.NotEqual(Key("start s; s: A;"), Key("start s; s: B;"))
}

func Test_Store_GetMiss_ReturnsErrNotFound(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	st, err := Open(path)
	if !assert.NoError(err) {
		return
	}
	defer st.Close()

	_, err = st.Get(context.Background(), Key("nope"))
	assert.ErrorIs(err, ErrNotFound)
}

func Test_Store_PutThenGet_RoundTrips(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	st, err := Open(path)
	if !assert.NoError(err) {
		return
	}
	defer st.Close()

	key := Key("start s; s: A;")
	entry := Entry{
		StartRule: 0,
		Diagnostics: []DiagnosticRecord{
			{Code: 3, Severity: 0, Message: "undefined name A", Line: 1, Col: 9},
		},
		Rules: []RuleRecord{
			{Name: "s", Class: 1, First: []int{0}, Follow: []int{-1}, Recovery: []int{-1}, Reachable: true, Productive: true},
		},
	}

	ctx := context.Background()
	if !assert.NoError(st.Put(ctx, key, entry)) {
		return
	}

	got, err := st.Get(ctx, key)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(entry, got)
}

func Test_Store_Put_OverwritesExistingEntry(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	st, err := Open(path)
	if !assert.NoError(err) {
		return
	}
	defer st.Close()

	key := Key("start s; s: A;")
	ctx := context.Background()

	assert.NoError(st.Put(ctx, key, Entry{StartRule: 0}))
	assert.NoError(st.Put(ctx, key, Entry{StartRule: 1}))

	got, err := st.Get(ctx, key)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(1, got.StartRule)
}
