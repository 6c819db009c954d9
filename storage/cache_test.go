package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheDBReadsThroughAndShadows(t *testing.T) {
	parent := NewMemDB()
	require.NoError(t, parent.Put([]byte("s/a"), []byte("parent-a")))
	require.NoError(t, parent.Put([]byte("s/b"), []byte("parent-b")))

	cache := NewCacheDB(parent)
	require.NoError(t, cache.Put([]byte("s/c"), []byte("cache-c")))
	require.NoError(t, cache.Put([]byte("s/a"), []byte("cache-a")))
	require.NoError(t, cache.Delete([]byte("s/b")))

	value, err := cache.Get([]byte("s/a"))
	require.NoError(t, err)
	require.Equal(t, "cache-a", string(value))
	_, err = cache.Get([]byte("s/b"))
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, []string{"s/a=cache-a", "s/c=cache-c"}, collect(t, cache, "s/"))

	// parent untouched until commit
	value, err = parent.Get([]byte("s/b"))
	require.NoError(t, err)
	require.Equal(t, "parent-b", string(value))
}

func TestCacheDBCommitAndDiscard(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	cache := NewCacheDB(db)
	require.NoError(t, cache.Put([]byte("x"), []byte("1")))
	cache.Discard()
	require.Zero(t, cache.Pending())
	_, err = db.Get([]byte("x"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cache.Put([]byte("y"), []byte("2")))
	require.Equal(t, 1, cache.Pending())
	require.NoError(t, cache.Commit())
	value, err := db.Get([]byte("y"))
	require.NoError(t, err)
	require.Equal(t, "2", string(value))
}

func TestNestedCacheDB(t *testing.T) {
	parent := NewMemDB()
	outer := NewCacheDB(parent)
	inner := NewCacheDB(outer)
	require.NoError(t, inner.Put([]byte("k"), []byte("v")))
	require.NoError(t, inner.Commit())

	_, err := parent.Get([]byte("k"))
	require.ErrorIs(t, err, ErrNotFound)
	value, err := outer.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(value))
}
