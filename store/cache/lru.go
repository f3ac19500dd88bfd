// Package cache provides an in-memory LRU cache of decoded chunk bytes,
// sitting in front of a blobstore.BlobStore so repeated reads of hot
// ancestor chunks (tree roots, frequently-revisited interior nodes)
// don't round-trip to storage.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/store/resource"
)

// BlockCache caches chunk bytes keyed by content hash. Implementations
// must be safe for concurrent use.
type BlockCache interface {
	Get(h hash.Hash) ([]byte, bool)
	Set(h hash.Hash, data []byte)
	Invalidate(predicate func(h hash.Hash) bool)
	Stats() (hits, misses int64)
}

// LRU is a BlockCache bounded by total bytes held, evicting the least
// recently used chunk first. Because a chunk's name IS its hash, two
// Sets for the same key always carry identical bytes, so LRU never
// needs to resolve a write-write conflict.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[hash.Hash]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   hash.Hash
	value []byte
}

// NewLRU creates an LRU cache bounded at capacity bytes. If rc is
// non-nil, cached bytes also count against its memory budget, and a
// Set that rc refuses is dropped rather than cached.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[hash.Hash]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

func (c *LRU) Get(h hash.Hash) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[h]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)
		return el.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

func (c *LRU) Set(h hash.Hash, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[h]; ok {
		c.evictList.MoveToFront(el)
		return
	}

	size := int64(len(data))
	if size > c.capacity {
		return
	}

	for c.size+size > c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}

	if c.rc != nil && !c.rc.TryAcquireMemory(size) {
		return
	}

	el := c.evictList.PushFront(&entry{key: h, value: data})
	c.items[h] = el
	c.size += size
}

// Invalidate drops every cached entry whose hash matches predicate. A
// chunk store calls this after a compaction or GC pass that may have
// rewritten chunks under hashes the cache still believes are live.
func (c *LRU) Invalidate(predicate func(h hash.Hash) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for h, el := range c.items {
		if predicate(h) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.removeElement(el)
	}
}

func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size reports bytes currently held.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *LRU) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	ent := el.Value.(*entry)
	delete(c.items, ent.key)
	size := int64(len(ent.value))
	c.size -= size
	if c.rc != nil {
		c.rc.ReleaseMemory(size)
	}
}
