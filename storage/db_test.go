package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, db Database, prefix string) []string {
	t.Helper()
	var keys []string
	require.NoError(t, db.Iterate([]byte(prefix), func(key, value []byte) bool {
		keys = append(keys, string(key)+"="+string(value))
		return true
	}))
	return keys
}

func testBackend(t *testing.T, db Database) {
	t.Helper()
	require.NoError(t, db.Put([]byte("a/2"), []byte("two")))
	require.NoError(t, db.Put([]byte("a/1"), []byte("one")))
	require.NoError(t, db.Put([]byte("b/1"), []byte("other")))

	value, err := db.Get([]byte("a/1"))
	require.NoError(t, err)
	require.Equal(t, "one", string(value))

	_, err = db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, []string{"a/1=one", "a/2=two"}, collect(t, db, "a/"))

	require.NoError(t, db.Delete([]byte("a/1")))
	_, err = db.Get([]byte("a/1"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, []string{"a/2=two"}, collect(t, db, "a/"))
}

func TestMemDB(t *testing.T) {
	testBackend(t, NewMemDB())
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	testBackend(t, db)
}

func TestIterateStopsEarly(t *testing.T) {
	db := NewMemDB()
	for _, k := range []string{"p/1", "p/2", "p/3"} {
		require.NoError(t, db.Put([]byte(k), []byte("x")))
	}
	seen := 0
	require.NoError(t, db.Iterate([]byte("p/"), func(key, value []byte) bool {
		seen++
		return seen < 2
	}))
	require.Equal(t, 2, seen)
}

func TestLevelDBWriteBatch(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("gone"), []byte("1")))
	batch := NewBatch()
	batch.Put([]byte("k1"), []byte("v1"))
	batch.Put([]byte("k2"), []byte("v2"))
	batch.Delete([]byte("gone"))
	require.Equal(t, 3, batch.Len())
	require.NoError(t, db.WriteBatch(batch))

	value, err := db.Get([]byte("k2"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(value))
	_, err = db.Get([]byte("gone"))
	require.ErrorIs(t, err, ErrNotFound)
}
