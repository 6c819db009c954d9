package storage

import (
	"bytes"
	"sort"
)

// CacheDB buffers writes on top of a parent database. Reads see the buffered
// writes first. Commit flushes the buffer to the parent; dropping the CacheDB
// discards it.
type CacheDB struct {
	parent Database
	batch  *Batch
}

// NewCacheDB wraps parent with an empty write buffer.
func NewCacheDB(parent Database) *CacheDB {
	return &CacheDB{parent: parent, batch: NewBatch()}
}

func (c *CacheDB) Put(key []byte, value []byte) error {
	c.batch.Put(key, value)
	return nil
}

func (c *CacheDB) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, deleted := c.batch.deletes[k]; deleted {
		return nil, ErrNotFound
	}
	if value, ok := c.batch.puts[k]; ok {
		return append([]byte(nil), value...), nil
	}
	return c.parent.Get(key)
}

func (c *CacheDB) Delete(key []byte) error {
	c.batch.Delete(key)
	return nil
}

// Iterate merges the parent's keys with the buffered writes.
func (c *CacheDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	merged := make(map[string][]byte)
	err := c.parent.Iterate(prefix, func(key, value []byte) bool {
		merged[string(key)] = value
		return true
	})
	if err != nil {
		return err
	}
	for k := range c.batch.deletes {
		delete(merged, k)
	}
	for k, v := range c.batch.puts {
		if bytes.HasPrefix([]byte(k), prefix) {
			merged[k] = append([]byte(nil), v...)
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			return nil
		}
	}
	return nil
}

// Pending reports the number of buffered operations.
func (c *CacheDB) Pending() int {
	return c.batch.Len()
}

// Commit writes the buffer to the parent, atomically when the parent supports
// batches, and resets the buffer.
func (c *CacheDB) Commit() error {
	if c.batch.Len() == 0 {
		return nil
	}
	if batcher, ok := c.parent.(Batcher); ok {
		if err := batcher.WriteBatch(c.batch); err != nil {
			return err
		}
		c.batch = NewBatch()
		return nil
	}
	for k := range c.batch.deletes {
		if err := c.parent.Delete([]byte(k)); err != nil {
			return err
		}
	}
	for k, v := range c.batch.puts {
		if err := c.parent.Put([]byte(k), v); err != nil {
			return err
		}
	}
	c.batch = NewBatch()
	return nil
}

// Discard drops every buffered write.
func (c *CacheDB) Discard() {
	c.batch = NewBatch()
}

// Close is a no-op; the parent owns the underlying handle.
func (c *CacheDB) Close() {}
