package storage

import (
	"sort"
	"sync"
)

// CacheDB buffers writes on top of a parent database. Reads fall through to
// the parent for keys the cache has not touched. Nothing reaches the parent
// until Commit; Discard drops every buffered write.
type CacheDB struct {
	parent Database

	mu      sync.RWMutex
	writes  map[string][]byte
	deletes map[string]struct{}
}

// NewCacheDB wraps parent with an uncommitted write buffer.
func NewCacheDB(parent Database) *CacheDB {
	return &CacheDB{
		parent:  parent,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (c *CacheDB) Put(key []byte, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := string(key)
	delete(c.deletes, k)
	c.writes[k] = append([]byte(nil), value...)
	return nil
}

func (c *CacheDB) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	k := string(key)
	if value, ok := c.writes[k]; ok {
		c.mu.RUnlock()
		return append([]byte(nil), value...), nil
	}
	if _, ok := c.deletes[k]; ok {
		c.mu.RUnlock()
		return nil, ErrNotFound
	}
	c.mu.RUnlock()
	return c.parent.Get(key)
}

func (c *CacheDB) Has(key []byte) (bool, error) {
	c.mu.RLock()
	k := string(key)
	if _, ok := c.writes[k]; ok {
		c.mu.RUnlock()
		return true, nil
	}
	if _, ok := c.deletes[k]; ok {
		c.mu.RUnlock()
		return false, nil
	}
	c.mu.RUnlock()
	return c.parent.Has(key)
}

func (c *CacheDB) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := string(key)
	delete(c.writes, k)
	c.deletes[k] = struct{}{}
	return nil
}

// NewBatch returns a batch that applies into the cache, not the parent.
func (c *CacheDB) NewBatch() Batch {
	return &cacheBatch{cache: c}
}

// Close is a no-op; the parent owns the underlying handle.
func (c *CacheDB) Close() {}

// Dirty reports the number of buffered writes and deletes.
func (c *CacheDB) Dirty() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.writes) + len(c.deletes)
}

// Commit flushes the buffered writes to the parent in a single batch, in
// sorted key order so replicas apply identical sequences.
func (c *CacheDB) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.parent.NewBatch()
	for _, k := range sortedKeys(c.deletes) {
		batch.Delete([]byte(k))
	}
	for _, k := range sortedKeys(c.writes) {
		batch.Put([]byte(k), c.writes[k])
	}
	if batch.Len() > 0 {
		if err := batch.Write(); err != nil {
			return err
		}
	}
	c.writes = make(map[string][]byte)
	c.deletes = make(map[string]struct{})
	return nil
}

// Discard drops all buffered writes.
func (c *CacheDB) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = make(map[string][]byte)
	c.deletes = make(map[string]struct{})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type cacheBatch struct {
	cache *CacheDB
	ops   []memOp
}

func (b *cacheBatch) Put(key, value []byte) {
	b.ops = append(b.ops, memOp{key: string(key), value: append([]byte(nil), value...)})
}

func (b *cacheBatch) Delete(key []byte) {
	b.ops = append(b.ops, memOp{key: string(key), delete: true})
}

func (b *cacheBatch) Len() int { return len(b.ops) }

func (b *cacheBatch) Write() error {
	for _, op := range b.ops {
		if op.delete {
			_ = b.cache.Delete([]byte(op.key))
			continue
		}
		_ = b.cache.Put([]byte(op.key), op.value)
	}
	b.ops = nil
	return nil
}
