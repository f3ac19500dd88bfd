package prolly

import (
	"context"

	"github.com/prollytree/prollytree/val"
)

// cursorFrame is one (node, index) pair in a Cursor's stack. frames[i]'s
// node is always the child of frames[i-1] at frames[i-1].idx — the
// invariant is maintained by every mutator below, never by a back-pointer
// a frame owns itself.
type cursorFrame struct {
	seq Sequence
	idx int
}

// Cursor is a stack of frames locating a single leaf item in a prolly-tree,
// from the root (frames[0]) down to the leaf (frames[len-1]). It supports
// advancing and retreating across chunk and level boundaries, loading
// not-yet-read children lazily through a ValueReader.
//
// Once a Cursor's Advance or Retreat is abandoned mid-call (e.g. its
// context is cancelled after a parent frame advanced but before the child
// was re-read), the cursor is poisoned: every further call returns the
// same error rather than operating on now-inconsistent frames.
type Cursor struct {
	vr     ValueReader
	frames []cursorFrame
	err    error
}

// NewCursorAtIndex descends from root to the leaf item at position idx,
// using binary search over cumulative leaf counts at each meta level.
func NewCursorAtIndex(ctx context.Context, vr ValueReader, root Sequence, idx int) (*Cursor, error) {
	c := &Cursor{vr: vr}
	seq := root
	for {
		if seq.IsMeta() {
			i := searchCumulative(seq, idx)
			var base uint64
			if i > 0 {
				base = seq.CumulativeNumberOfLeaves(i - 1)
			}
			c.frames = append(c.frames, cursorFrame{seq: seq, idx: i})
			idx -= int(base)
			child, err := seq.GetChildSequence(ctx, vr, i)
			if err != nil {
				return nil, err
			}
			seq = child
			continue
		}
		if idx < 0 {
			idx = 0
		}
		if idx > seq.Len() {
			idx = seq.Len()
		}
		c.frames = append(c.frames, cursorFrame{seq: seq, idx: idx})
		return c, nil
	}
}

// searchCumulative finds the smallest i with idx < seq.CumulativeNumberOfLeaves(i),
// clamping to the last child when idx lands exactly at the end of the
// sequence's leaves (so the cursor lands on the last item, not past-end).
func searchCumulative(seq Sequence, idx int) int {
	n := seq.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if uint64(idx) < seq.CumulativeNumberOfLeaves(mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo >= n {
		return n - 1
	}
	return lo
}

// NewCursorAtKey descends from root toward key, using seekTo at each
// level. If last is true and key is the zero OrderedKey, descent goes
// rightmost at every level instead of seeking. forInsertion relaxes
// meta-level seeking: a key greater than every key in the tree still
// descends into the last child, so the leaf cursor lands past the end of
// the last leaf, which is the key's insertion point. Without forInsertion
// such a search stops at the meta level and returns an invalid cursor.
func NewCursorAtKey(ctx context.Context, vr ValueReader, root Sequence, key val.OrderedKey, forInsertion, last bool) (*Cursor, error) {
	c := &Cursor{vr: vr}
	seq := root
	zeroKey := !key.IsOrderedByValue() && key.Hash().IsEmpty()
	for {
		var i int
		if last && zeroKey {
			i = seq.Len() - 1
			if i < 0 {
				i = 0
			}
		} else {
			i = seekIndex(seq, key, forInsertion && seq.IsMeta())
		}
		c.frames = append(c.frames, cursorFrame{seq: seq, idx: i})
		if !seq.IsMeta() || i >= seq.Len() {
			return c, nil
		}
		child, err := seq.GetChildSequence(ctx, vr, i)
		if err != nil {
			return nil, err
		}
		seq = child
	}
}

// seekIndex binary-searches for the smallest i with
// seq.GetKey(i).Compare(key) >= 0. If none is found and lastIfMissing is
// set, it returns length-1 (or 0 if empty); otherwise it returns length.
func seekIndex(seq Sequence, key val.OrderedKey, lastIfMissing bool) int {
	n := seq.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if seq.GetKey(mid).Compare(key) >= 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == n && lastIfMissing {
		if n == 0 {
			return 0
		}
		return n - 1
	}
	return lo
}

// SeekTo repositions the cursor's current (deepest) frame only — callers
// that need to seek a whole path from the root use NewCursorAtKey.
// Returns true iff the resulting position is valid (idx < length), unless
// lastIfMissing caused a clamp to the last element of a non-empty node.
func (c *Cursor) SeekTo(key val.OrderedKey, lastIfMissing bool) bool {
	f := c.top()
	i := seekIndex(f.seq, key, lastIfMissing)
	c.frames[len(c.frames)-1].idx = i
	if lastIfMissing && i == f.seq.Len()-1 && f.seq.Len() > 0 {
		return true
	}
	return i < f.seq.Len()
}

func (c *Cursor) top() cursorFrame {
	return c.frames[len(c.frames)-1]
}

// Depth returns 1 + the number of ancestor frames (root has depth 1).
func (c *Cursor) Depth() int { return len(c.frames) }

// Err returns the poison error set by an abandoned Advance/Retreat, if any.
func (c *Cursor) Err() error { return c.err }

// Valid reports whether the cursor's current position is in range:
// 0 <= idx < length. The two sentinel states (idx == -1, idx == length)
// are legal but invalid.
func (c *Cursor) Valid() bool {
	f := c.top()
	return f.idx >= 0 && f.idx < f.seq.Len()
}

// AtLastItem reports whether the cursor is on the final item of its
// current chunk.
func (c *Cursor) AtLastItem() bool {
	f := c.top()
	return f.idx == f.seq.Len()-1
}

// IndexInChunk returns the cursor's local index within its current chunk.
func (c *Cursor) IndexInChunk() int { return c.top().idx }

// CurrentSequence returns the leaf or meta sequence the cursor currently
// points into.
func (c *Cursor) CurrentSequence() Sequence { return c.top().seq }

// CurrentItem returns the leaf item (or MetaTuple) at the cursor's
// current position. The caller must ensure Valid() first.
func (c *Cursor) CurrentItem() any {
	f := c.top()
	return f.seq.Item(f.idx)
}

// CurrentKey returns the OrderedKey of the cursor's current item.
func (c *Cursor) CurrentKey() val.OrderedKey {
	f := c.top()
	return f.seq.GetKey(f.idx)
}

// Parent returns a Cursor over this cursor's ancestor frames (depth-1),
// or nil if this cursor is already at the root. The returned Cursor shares
// no mutable state with c: mutating one never affects the other.
func (c *Cursor) Parent() *Cursor {
	if len(c.frames) <= 1 {
		return nil
	}
	frames := make([]cursorFrame, len(c.frames)-1)
	copy(frames, c.frames[:len(c.frames)-1])
	return &Cursor{vr: c.vr, frames: frames}
}

// clone makes an independent copy of c, used before speculative mutation
// (e.g. the chunker aligning a borrowed cursor without disturbing the
// caller's).
func (c *Cursor) clone() *Cursor {
	frames := make([]cursorFrame, len(c.frames))
	copy(frames, c.frames)
	return &Cursor{vr: c.vr, frames: frames, err: c.err}
}

// AbsoluteLeafIndex returns the global position, among all leaves of the
// tree, that this cursor denotes. Two cursors into the same tree compare
// equal iff their AbsoluteLeafIndex is equal; this is the basis for
// Compare, used throughout the chunker's advanceTo reuse logic in place of
// a frame-by-frame recursive comparison.
func (c *Cursor) AbsoluteLeafIndex() uint64 {
	var idx uint64
	for i, f := range c.frames {
		if i == len(c.frames)-1 && !f.seq.IsMeta() {
			idx += uint64(f.idx)
			continue
		}
		if f.idx > 0 {
			idx += f.seq.CumulativeNumberOfLeaves(f.idx - 1)
		}
	}
	return idx
}

// Compare orders two cursors into the same tree by the absolute leaf
// position they denote.
func (c *Cursor) Compare(other *Cursor) int {
	a, b := c.AbsoluteLeafIndex(), other.AbsoluteLeafIndex()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AdvanceLocal advances within the current chunk only, never touching the
// store. Returns true iff the resulting position is valid. If already on
// the last valid index and allowPastEnd is set, moves to the past-end
// sentinel (length) and returns false.
func (c *Cursor) AdvanceLocal(allowPastEnd bool) bool {
	f := &c.frames[len(c.frames)-1]
	if f.idx < f.seq.Len()-1 {
		f.idx++
		return true
	}
	if f.idx == f.seq.Len()-1 && allowPastEnd {
		f.idx++
	}
	return false
}

// RetreatLocal is AdvanceLocal's mirror image, using -1 as the
// before-start sentinel.
func (c *Cursor) RetreatLocal(allowBeforeStart bool) bool {
	f := &c.frames[len(c.frames)-1]
	if f.idx > 0 {
		f.idx--
		return true
	}
	if f.idx == 0 && allowBeforeStart {
		f.idx--
	}
	return false
}

// canAdvanceLocal reports whether AdvanceLocal(false) would succeed,
// without mutating the cursor — the fast path Iter uses to decide whether
// it can stay fully synchronous.
func (c *Cursor) canAdvanceLocal() bool {
	f := c.top()
	return f.idx < f.seq.Len()-1
}

// sync re-reads the child of the current deepest frame's parent frame at
// the parent's (already updated) index, replacing the deepest frame and
// resetting its local index to 0. Used after a parent Advance/Retreat
// succeeds, to keep the invariant "frame[i] is the child of frame[i-1] at
// frame[i-1].idx" intact.
func (c *Cursor) sync(ctx context.Context, fromStart bool) error {
	n := len(c.frames)
	parent := c.frames[n-2]
	child, err := parent.seq.GetChildSequence(ctx, c.vr, parent.idx)
	if err != nil {
		c.err = err
		return err
	}
	idx := 0
	if !fromStart {
		idx = child.Len() - 1
	}
	c.frames[n-1] = cursorFrame{seq: child, idx: idx}
	return nil
}

// Advance moves the cursor to the next item, hopping up to the parent and
// back down through a freshly loaded child when the current chunk is
// exhausted. It may block on a ValueReader fetch; it honors ctx
// cancellation, poisoning the cursor if abandoned partway through a
// multi-frame hop.
func (c *Cursor) Advance(ctx context.Context) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.AdvanceLocal(false) {
		return true, nil
	}
	if len(c.frames) == 1 {
		c.AdvanceLocal(true) // park at the past-end sentinel
		return false, nil
	}
	parent := c.Parent()
	ok, err := parent.Advance(ctx)
	if err != nil {
		c.err = err
		return false, err
	}
	copy(c.frames[:len(c.frames)-1], parent.frames)
	if !ok {
		c.AdvanceLocal(true)
		return false, nil
	}
	if err := c.sync(ctx, true); err != nil {
		return false, err
	}
	return true, nil
}

// Retreat is Advance's mirror image, using the before-start sentinel.
func (c *Cursor) Retreat(ctx context.Context) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.RetreatLocal(false) {
		return true, nil
	}
	if len(c.frames) == 1 {
		c.RetreatLocal(true)
		return false, nil
	}
	parent := c.Parent()
	ok, err := parent.Retreat(ctx)
	if err != nil {
		c.err = err
		return false, err
	}
	copy(c.frames[:len(c.frames)-1], parent.frames)
	if !ok {
		c.RetreatLocal(true)
		return false, nil
	}
	if err := c.sync(ctx, false); err != nil {
		return false, err
	}
	return true, nil
}

// AdvanceChunk jumps to the last item of the current chunk, then performs
// one Advance with past-end allowed, forcing a hop to the parent's next
// chunk regardless of how far into the current chunk the cursor started.
func (c *Cursor) AdvanceChunk(ctx context.Context) (bool, error) {
	f := &c.frames[len(c.frames)-1]
	f.idx = f.seq.Len() - 1
	return c.Advance(ctx)
}

// AdvanceMaybeAllowPastEnd advances within the current chunk only, never
// loading the next chunk. At the chunk's last item it steps the local
// index to the past-end sentinel if allowPastEnd is set, and otherwise
// leaves the cursor where it is; either way it then returns false.
func (c *Cursor) AdvanceMaybeAllowPastEnd(allowPastEnd bool) bool {
	return c.AdvanceLocal(allowPastEnd)
}

// Iter calls cb with each item and index from the current position
// onward, stopping when cb returns true or the sequence is exhausted. It
// uses the synchronous AdvanceLocal fast path whenever possible, so an
// iteration that never crosses a chunk boundary never suspends.
func (c *Cursor) Iter(ctx context.Context, cb func(item any, idx int) bool) error {
	for c.Valid() {
		f := c.top()
		if cb(f.seq.Item(f.idx), f.idx) {
			return nil
		}
		if c.canAdvanceLocal() {
			c.AdvanceLocal(false)
			continue
		}
		if ok, err := c.Advance(ctx); err != nil {
			return err
		} else if !ok {
			return nil
		}
	}
	return nil
}
