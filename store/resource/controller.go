// Package resource bounds the memory, concurrency, and I/O a chunk store
// is allowed to consume. A prolly-tree chunk store is strictly
// single-threaded from the cursor/chunker's point of view, but a store
// can still fan out background work - ChunkStore.Prefetch fetches chunks
// on worker goroutines - and hold cached chunks in memory, and both must
// be capped so a large tree rebuild doesn't starve the rest of the
// process.
package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a memory reservation would
// exceed the configured limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds the limits a Controller enforces. The zero Config means
// unlimited everything except background concurrency, which defaults to
// one worker.
type Config struct {
	// MemoryLimitBytes caps memory reserved via AcquireMemory, mainly
	// the chunk cache. 0 means no hard limit, tracking only.
	MemoryLimitBytes int64

	// MaxBackgroundWorkers caps concurrent background jobs (prefetch).
	// 0 defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec caps blobstore read/write throughput. 0 means
	// unlimited.
	IOLimitBytesPerSec int64
}

// Controller is the shared resource budget a chunk store's components
// acquire from. A nil *Controller is valid and imposes no limits, so a
// store built without one behaves as if resource accounting were
// disabled rather than panicking.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted
	memUsed atomic.Int64

	bgSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a Controller enforcing cfg's limits.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireMemory reserves n bytes, returning ErrMemoryLimitExceeded if
// the limit would be exceeded. Non-blocking: callers own their own
// retry or eviction policy.
func (c *Controller) AcquireMemory(n int64) error {
	if c == nil || n <= 0 {
		return nil
	}
	if c.memSem != nil && !c.memSem.TryAcquire(n) {
		return ErrMemoryLimitExceeded
	}
	c.memUsed.Add(n)
	return nil
}

// TryAcquireMemory is AcquireMemory with a bool result, for call sites
// (the block cache's Set) that want to fall back silently
// rather than thread an error through.
func (c *Controller) TryAcquireMemory(n int64) bool {
	return c.AcquireMemory(n) == nil
}

// ReleaseMemory gives back n bytes previously reserved.
func (c *Controller) ReleaseMemory(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(n)
	}
	c.memUsed.Add(-n)
}

// MemoryUsage reports bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit reports the configured limit, 0 if unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireBackground blocks until a background worker slot is free or
// ctx is done.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseBackground frees a background worker slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// TryAcquireBackground reserves a background worker slot without
// blocking.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.bgSem.TryAcquire(1)
}

// AcquireIO blocks until the I/O limiter admits n bytes or ctx is done.
// store.ChunkStore calls this for every chunk it fetches from its
// blobstore and for every write that misses its cache, foreground and
// prefetch traffic alike.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, n)
}

// TryAcquireIO admits n bytes without blocking.
func (c *Controller) TryAcquireIO(n int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), n)
}
