// Package store assembles a prolly.ValueReadWriter out of a
// blobstore.BlobStore plus the optional compression, caching, and
// resource-shaping layers in its subpackages.
package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
	"github.com/prollytree/prollytree/store/blobstore"
	"github.com/prollytree/prollytree/store/cache"
	"github.com/prollytree/prollytree/store/compress"
	"github.com/prollytree/prollytree/store/resource"
	"github.com/prollytree/prollytree/val"
)

// ChunkStore implements prolly.ValueReadWriter on top of a BlobStore. A
// chunk's content hash is computed over its canonical envelope - Kind,
// Level, and Data - before any compression is applied, so the choice of
// Algo never changes a tree's identity; changing it only changes what
// ends up on disk for chunks written from that point on. ReadValue
// decompresses with the store's own Algo, so a chunk persisted under a
// different Algo fails to read (on the algo check or the integrity
// check) rather than being decoded. Compressed bytes are wrapped in a val.WriteFrame header
// before they reach the BlobStore, so a truncated or bit-flipped blob
// fails fast on its checksum rather than being handed to the
// compressor.
type ChunkStore struct {
	blobs blobstore.BlobStore
	cache cache.BlockCache
	rc    *resource.Controller
	algo  compress.Algo
}

// Option configures a ChunkStore.
type Option func(*ChunkStore)

// WithCache attaches a BlockCache (typically cache.NewLRU) in front of
// the BlobStore.
func WithCache(c cache.BlockCache) Option {
	return func(cs *ChunkStore) { cs.cache = c }
}

// WithResourceController attaches a Controller that AcquireIO is called
// through after every blobstore Get, and before the blobstore Has check
// of every write that misses the cache.
func WithResourceController(rc *resource.Controller) Option {
	return func(cs *ChunkStore) { cs.rc = rc }
}

// WithCompression sets the algorithm applied to chunk bytes before they
// reach the BlobStore. Defaults to compress.LZ4.
func WithCompression(algo compress.Algo) Option {
	return func(cs *ChunkStore) { cs.algo = algo }
}

// NewChunkStore creates a ChunkStore backed by blobs.
func NewChunkStore(blobs blobstore.BlobStore, opts ...Option) *ChunkStore {
	cs := &ChunkStore{blobs: blobs, algo: compress.LZ4}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// ReadValue implements prolly.ValueReader.
func (cs *ChunkStore) ReadValue(ctx context.Context, h hash.Hash) (prolly.Chunk, error) {
	if cs.cache != nil {
		if envelope, ok := cs.cache.Get(h); ok {
			return decodeEnvelope(envelope)
		}
	}

	key := h.String()
	framed, err := cs.blobs.Get(ctx, key)
	if err != nil {
		if err == blobstore.ErrNotFound {
			return prolly.Chunk{}, &prolly.ErrChunkMissing{Hash: h}
		}
		return prolly.Chunk{}, err
	}
	if cs.rc != nil {
		// Accounted after the fact: a chunk's size isn't known until
		// it's been fetched, so this throttles sustained throughput
		// rather than gating any individual read.
		if err := cs.rc.AcquireIO(ctx, len(framed)); err != nil {
			return prolly.Chunk{}, err
		}
	}

	compressed, err := val.ReadFrame(framed)
	if err != nil {
		return prolly.Chunk{}, fmt.Errorf("store: unframe chunk %s: %w", h, err)
	}
	envelope, err := compress.Decompress(compressed, cs.algo)
	if err != nil {
		return prolly.Chunk{}, fmt.Errorf("store: decompress chunk %s: %w", h, err)
	}
	if got := hash.Of(envelope); got != h {
		return prolly.Chunk{}, fmt.Errorf("store: chunk %s failed integrity check (got %s)", h, got)
	}

	if cs.cache != nil {
		cs.cache.Set(h, envelope)
	}
	return decodeEnvelope(envelope)
}

// WriteValue implements prolly.ValueReadWriter. It is idempotent: writing
// a chunk whose envelope hash already exists in the BlobStore performs
// no physical write, only a Has check.
func (cs *ChunkStore) WriteValue(ctx context.Context, c prolly.Chunk) (hash.Ref, error) {
	envelope := encodeEnvelope(c)
	h := hash.Of(envelope)
	key := h.String()

	exists := false
	if cs.cache != nil {
		if _, ok := cs.cache.Get(h); ok {
			exists = true
		}
	}
	if !exists {
		if cs.rc != nil {
			if err := cs.rc.AcquireIO(ctx, len(envelope)); err != nil {
				return hash.Ref{}, err
			}
		}
		var err error
		exists, err = cs.blobs.Has(ctx, key)
		if err != nil {
			return hash.Ref{}, err
		}
	}

	if !exists {
		compressed, err := compress.Compress(envelope, cs.algo)
		if err != nil {
			return hash.Ref{}, fmt.Errorf("store: compress chunk %s: %w", h, err)
		}
		framed := val.WriteFrame(compressed)
		if err := cs.blobs.Put(ctx, key, framed); err != nil {
			return hash.Ref{}, err
		}
	}

	if cs.cache != nil {
		cs.cache.Set(h, envelope)
	}
	return hash.NewRef(h, c.Level, c.Kind), nil
}

// Prefetch warms the cache for hashes ahead of a walk expected to need
// them soon - a diff or a cursor seek about to visit many sibling
// chunks at once. Each fetch that gets a background worker slot from
// the resource.Controller runs concurrently; a fetch that can't
// (background concurrency exhausted, or no Controller configured) runs
// inline instead, so Prefetch is never worse than fetching serially.
// Fetch errors are discarded: Prefetch only primes the cache, it
// doesn't speak for whether hashes resolve, and the caller's own
// ReadValue will surface any real error when it gets there.
func (cs *ChunkStore) Prefetch(ctx context.Context, hashes []hash.Hash) {
	var wg sync.WaitGroup
	for _, h := range hashes {
		if cs.rc != nil && cs.rc.TryAcquireBackground() {
			wg.Add(1)
			go func(h hash.Hash) {
				defer wg.Done()
				defer cs.rc.ReleaseBackground()
				cs.ReadValue(ctx, h)
			}(h)
			continue
		}
		cs.ReadValue(ctx, h)
	}
	wg.Wait()
}

// envelope layout: [Kind byte][Level uint64 LE][Data...]. This, not just
// Data, is what gets hashed, so a chunk's identity also pins down how
// its bytes must be interpreted.
const envelopeHeaderSize = 9

func encodeEnvelope(c prolly.Chunk) []byte {
	out := make([]byte, envelopeHeaderSize+len(c.Data))
	out[0] = byte(c.Kind)
	binary.LittleEndian.PutUint64(out[1:], c.Level)
	copy(out[envelopeHeaderSize:], c.Data)
	return out
}

func decodeEnvelope(envelope []byte) (prolly.Chunk, error) {
	if len(envelope) < envelopeHeaderSize {
		return prolly.Chunk{}, fmt.Errorf("store: envelope too short (%d bytes)", len(envelope))
	}
	kind := hash.Kind(envelope[0])
	level := binary.LittleEndian.Uint64(envelope[1:envelopeHeaderSize])
	data := make([]byte, len(envelope)-envelopeHeaderSize)
	copy(data, envelope[envelopeHeaderSize:])
	return prolly.Chunk{Kind: kind, Level: level, Data: data}, nil
}
