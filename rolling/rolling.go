// Package rolling implements the content-defined chunking hash that
// decides where a prolly-tree sequence splits into persisted chunks.
//
// The decision for byte i depends only on the window bytes immediately
// preceding it, never on the absolute offset or any other hidden state.
// That locality is what lets the chunker reuse chunks that lie outside an
// edit region: inserting or deleting items far from position i cannot
// shift the boundary decision at i.
package rolling

// WindowSize is the number of trailing bytes the rolling hash considers.
const WindowSize = 64

// DefaultPatternBits is the default boundary pattern width, tuned for an
// expected chunk size on the order of a few KiB of serialized item bytes.
const DefaultPatternBits = 13

// table holds one pseudo-random uint32 per possible byte value, used by
// the cyclic-polynomial ("buzhash") construction below. It is deterministic
// so that two processes seeded the same way chunk identically.
var table [256]uint32

func init() {
	// A small deterministic xorshift-style generator, not crypto/rand:
	// the table only needs to be a fixed, well-mixed constant, not secret.
	var x uint32 = 0x9e3779b9
	for i := range table {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		table[i] = x
	}
}

// Hasher is a byte-streaming rolling hash that reports, after each byte,
// whether the current window's hash matches the chunk-boundary pattern.
//
// A Hasher is seeded once at construction (by tree level, so meta levels
// chunk independently of leaf levels) and is reset after every boundary it
// reports, but otherwise accumulates state across the whole chunker pass.
type Hasher struct {
	seed            uint32
	pattern         uint32
	mask            uint32
	window          [WindowSize]byte
	windowLen       int
	windowPos       int
	h               uint32
	CrossedBoundary bool
}

// New returns a Hasher seeded for tree level, using the default pattern
// width. level is taken mod 256 as its seed, per the determinism contract:
// identical level produces identical chunking behavior on any host.
func New(level uint64) *Hasher {
	return NewWithPatternBits(level, DefaultPatternBits)
}

// NewWithPatternBits is New with an explicit boundary-pattern bit width,
// controlling the expected chunk size (larger patternBits => larger
// expected chunks).
func NewWithPatternBits(level uint64, patternBits uint) *Hasher {
	seed := uint32(level % 256)
	mask := uint32(1)<<patternBits - 1
	return &Hasher{
		seed:    seed,
		pattern: mask, // boundary fires when (h & mask) == mask
		mask:    mask,
		h:       seed,
	}
}

// HashByte feeds one byte into the rolling window and updates
// CrossedBoundary. Removing the oldest byte's contribution exactly (rather
// than recomputing from scratch) is what makes the decision depend only on
// the trailing window, not on absolute position.
func (h *Hasher) HashByte(b byte) {
	var outTerm uint32
	evicting := h.windowLen >= WindowSize
	if evicting {
		outTerm = rotateLeft(table[h.window[h.windowPos]], WindowSize)
	} else {
		h.windowLen++
	}
	h.window[h.windowPos] = b
	h.windowPos = (h.windowPos + 1) % WindowSize

	// The level seed is held outside the rotating state, so it never
	// rotates with the byte count.
	core := rotateLeft(h.h^h.seed, 1) ^ table[b]
	if evicting {
		core ^= outTerm
	}
	h.h = core ^ h.seed

	h.CrossedBoundary = h.h&h.mask == h.pattern
}

// HashBytes feeds a byte slice through HashByte in order.
func (h *Hasher) HashBytes(b []byte) {
	for _, c := range b {
		h.HashByte(c)
	}
}

// Reset clears the boundary flag and the rolling window, without changing
// the level seed. Called immediately after a boundary is handled so the
// next chunk starts from a clean window.
func (h *Hasher) Reset() {
	h.window = [WindowSize]byte{}
	h.windowLen = 0
	h.windowPos = 0
	h.h = h.seed
	h.CrossedBoundary = false
}

func rotateLeft(x uint32, n uint) uint32 {
	n %= 32
	return x<<n | x>>(32-n)
}
