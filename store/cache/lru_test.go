package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/store/resource"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(1024, nil)
	h := hash.Of([]byte("chunk-a"))

	_, ok := c.Get(h)
	assert.False(t, ok)

	c.Set(h, []byte("payload"))
	got, ok := c.Get(h)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU(20, nil)
	a, b, d := hash.Of([]byte("a")), hash.Of([]byte("b")), hash.Of([]byte("d"))

	c.Set(a, make([]byte, 10))
	c.Set(b, make([]byte, 10))
	// Touch a so it's more recently used than b.
	c.Get(a)
	// This push exceeds capacity (30 > 20); b is the least recently used.
	c.Set(d, make([]byte, 10))

	_, ok := c.Get(b)
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get(a)
	assert.True(t, ok, "a should still be cached")
}

func TestLRU_TooLargeNeverCached(t *testing.T) {
	c := NewLRU(10, nil)
	h := hash.Of([]byte("big"))
	c.Set(h, make([]byte, 100))
	_, ok := c.Get(h)
	assert.False(t, ok)
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRU(1024, nil)
	a, b := hash.Of([]byte("a")), hash.Of([]byte("b"))
	c.Set(a, []byte("x"))
	c.Set(b, []byte("y"))

	c.Invalidate(func(h hash.Hash) bool { return h == a })

	_, ok := c.Get(a)
	assert.False(t, ok)
	_, ok = c.Get(b)
	assert.True(t, ok)
}

func TestLRU_RespectsResourceController(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 5})
	c := NewLRU(1024, rc)
	h := hash.Of([]byte("x"))

	// Exceeds the controller's global memory budget even though it fits
	// the cache's own capacity.
	c.Set(h, make([]byte, 10))
	_, ok := c.Get(h)
	assert.False(t, ok)
}
