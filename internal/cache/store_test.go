package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testKey(src string) Key {
	return Key{
		Path:         "/src/store.ts",
		SourceHash:   HashSource([]byte(src)),
		Transformer:  "asyncflow/test",
		Version:      2,
		MarkerModule: "mobx",
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/cache.db")
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestLookup_Miss(t *testing.T) {
	s := newTestStore(t)
	e, err := s.Lookup(testKey("a"))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestPutLookup_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	k := testKey("source")
	require.NoError(t, s.Put(&Entry{
		Key:     k,
		Output:  []byte("output"),
		Changed: true,
		Sites:   []Site{{Kind: "call", Name: "fn", Line: 2, Column: 12}},
	}))

	e, err := s.Lookup(k)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, []byte("output"), e.Output)
	assert.True(t, e.Changed)
	assert.Equal(t, []Site{{Kind: "call", Name: "fn", Line: 2, Column: 12}}, e.Sites)
	assert.False(t, e.StoredAt.IsZero())
}

func TestPut_UnchangedDropsOutput(t *testing.T) {
	s := newTestStore(t)
	k := testKey("source")
	require.NoError(t, s.Put(&Entry{Key: k, Output: []byte("ignored")}))

	e, err := s.Lookup(k)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.False(t, e.Changed)
	assert.Nil(t, e.Output)
	assert.Empty(t, e.Sites)
}

func TestLookup_HashOrVersionMismatchMisses(t *testing.T) {
	s := newTestStore(t)
	k := testKey("v1")
	require.NoError(t, s.Put(&Entry{Key: k, Output: []byte("out"), Changed: true}))

	changedSource := testKey("v2")
	e, err := s.Lookup(changedSource)
	require.NoError(t, err)
	assert.Nil(t, e)

	bumped := k
	bumped.Version = 3
	e, err = s.Lookup(bumped)
	require.NoError(t, err)
	assert.Nil(t, e)

	otherModule := k
	otherModule.MarkerModule = "@app/mobx"
	e, err = s.Lookup(otherModule)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestPut_ReplacesPreviousEntryForPath(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(&Entry{Key: testKey("v1"), Output: []byte("one"), Changed: true}))
	require.NoError(t, s.Put(&Entry{Key: testKey("v2"), Output: []byte("two"), Changed: true}))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 1, Changed: 1}, st)

	e, err := s.Lookup(testKey("v2"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, []byte("two"), e.Output)
}

func TestPrune_RemovesOtherVersions(t *testing.T) {
	s := newTestStore(t)
	old := testKey("a")
	old.Version = 1
	old.Path = "/src/old.ts"
	current := testKey("b")
	require.NoError(t, s.PutAll([]*Entry{
		{Key: old, Changed: false},
		{Key: current, Output: []byte("x"), Changed: true},
	}))

	n, err := s.Prune(current.Transformer, current.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 1, Changed: 1}, st)
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetMetadata("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("k", "v1"))
	require.NoError(t, s.SetMetadata("k", "v2"))
	v, err = s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestHashSource(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashSource(nil))
	assert.NotEqual(t, HashSource([]byte("a")), HashSource([]byte("b")))
}
