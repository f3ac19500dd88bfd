package prolly

import (
	"context"
	"fmt"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/rolling"
	"github.com/prollytree/prollytree/val"
)

// pendingChunk is a built-but-not-yet-written sequence, kept around so a
// chunker that later turns out to need a parent can flush it instead of
// silently losing it. It is only ever produced by createSequence with
// write=false, which Done calls for the root it returns; since Done is
// the chunker's last step, that root is left for the caller to write.
type pendingChunk struct {
	seq   Sequence
	chunk Chunk
}

// sequenceChunker rebuilds one level of a prolly-tree by replaying a
// cursor's unchanged prefix, applying edits, and re-deriving chunk
// boundaries with a fresh rolling hash. Chunks outside the edited region
// reproduce byte-for-byte, so WriteValue's content addressing de-dupes them
// against the store automatically — nothing here tracks "reuse" directly.
//
// A chunker at level N, on crossing a boundary, pushes a MetaTuple to a
// lazily created chunker at level N+1 (its parent). Not thread-safe: one
// chunker belongs to exactly one splice or bulk-construction call.
type sequenceChunker struct {
	shape  Shape
	vrw    ValueReadWriter
	level  uint64
	isLeaf bool

	cur    *Cursor
	parent *sequenceChunker

	current   []any
	hasher    *rolling.Hasher
	done      bool
	unwritten *pendingChunk
}

func newSequenceChunker(ctx context.Context, shape Shape, cur *Cursor, level uint64, vrw ValueReadWriter, isLeaf bool) (*sequenceChunker, error) {
	sc := &sequenceChunker{
		shape:  shape,
		vrw:    vrw,
		level:  level,
		isLeaf: isLeaf,
		cur:    cur,
		hasher: rolling.New(level),
	}
	if cur != nil {
		if err := sc.resume(ctx); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// newEmptySequenceChunker starts a chunker with no existing tree to
// resume from, used for bulk construction of a brand-new sequence.
func newEmptySequenceChunker(shape Shape, vrw ValueReadWriter) *sequenceChunker {
	return &sequenceChunker{shape: shape, vrw: vrw, isLeaf: true, hasher: rolling.New(0)}
}

// resume replays the prefix of sc.cur's current chunk (from its start up
// to sc.cur's own position) into sc.current, leaving sc.cur's position
// unchanged. After resume, appending picks up exactly where the existing
// chunk left off.
func (sc *sequenceChunker) resume(ctx context.Context) error {
	if parentCur := sc.cur.Parent(); parentCur != nil && sc.parent == nil {
		if err := sc.createParent(ctx, parentCur); err != nil {
			return err
		}
	}

	target := sc.cur.IndexInChunk()
	for sc.cur.IndexInChunk() > 0 {
		if !sc.cur.RetreatLocal(false) {
			break
		}
	}
	for sc.cur.IndexInChunk() < target {
		if _, err := sc.appendEntry(ctx, sc.cur.CurrentItem()); err != nil {
			return err
		}
		sc.cur.AdvanceLocal(true)
	}
	return nil
}

// advanceTo moves the chunker to the chunking position represented by
// next, which may be anywhere in the same tree — behind, ahead, or exactly
// aligned with sc.cur. It is the reuse optimization that lets a multi-edit
// splice skip over an unchanged span without rehashing every item in it.
//
// There are four cases. (1) sc.cur and next are already aligned: nothing
// to do. (2) sc.cur is ahead of next (next lags behind a lower level's own
// advance): walk next forward until aligned, then as (1). (3)/(4) sc.cur
// is behind next: consume items until either (3) the cursors align, or
// (4) a chunk boundary is crossed whose parent position is still short of
// next's parent — in which case resume() at next picks up the unchanged
// remainder without the caller ever visiting it item by item.
func (sc *sequenceChunker) advanceTo(ctx context.Context, next *Cursor) error {
	for sc.cur.Compare(next) > 0 {
		if _, err := next.Advance(ctx); err != nil {
			return err
		}
	}

	reachedNext := true
	for sc.cur.Compare(next) < 0 {
		crossed, err := sc.appendEntry(ctx, sc.cur.CurrentItem())
		if err != nil {
			return err
		}
		if crossed && sc.cur.AtLastItem() {
			parentCur, nextParent := sc.cur.Parent(), next.Parent()
			if parentCur != nil && nextParent != nil && parentCur.Compare(nextParent) < 0 {
				reachedNext = false
			}
			break
		}
		if _, err := sc.cur.Advance(ctx); err != nil {
			return err
		}
	}

	if sc.parent != nil && next.Parent() != nil {
		if err := sc.parent.advanceTo(ctx, next.Parent()); err != nil {
			return err
		}
	}

	sc.cur = next
	if !reachedNext {
		return sc.resume(ctx)
	}
	return nil
}

// Append adds one item — a leaf item for a level-0 chunker, a MetaTuple
// for any chunker created by createParent — to the chunk under
// construction, re-deriving the rolling hash over it.
//
// A run-length pass that coalesced repeated consecutive items before
// hashing would plug in here; it is deliberately not implemented (see the
// design notes on indexed-collection run-length encoding).
func (sc *sequenceChunker) Append(ctx context.Context, item any) error {
	_, err := sc.appendEntry(ctx, item)
	return err
}

func (sc *sequenceChunker) appendEntry(ctx context.Context, item any) (crossedBoundary bool, err error) {
	sc.current = append(sc.current, item)
	hashItemBytes(sc.hasher, sc.shape, sc.isLeaf, item)
	if !sc.hasher.CrossedBoundary {
		return false, nil
	}
	if err := sc.handleChunkBoundary(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// hashItemBytes feeds item's canonical encoding into hasher — the exact
// same bytes EncodeSequence later writes for it, so a chunk's content and
// the hash decision that created it always agree.
func hashItemBytes(hasher *rolling.Hasher, shape Shape, isLeaf bool, item any) {
	e := val.NewEncoder()
	if isLeaf {
		shape.EncodeItem(item, e)
	} else {
		mt := item.(MetaTuple)
		val.WriteRef(e, mt.Ref)
		mt.Key.WriteTo(e)
		e.WriteUint64(mt.NumLeaves)
	}
	hasher.HashBytes(e.Bytes())
}

// Skip discards the item at sc.cur's current position — a deletion — by
// advancing past it without appending.
func (sc *sequenceChunker) Skip(ctx context.Context) error {
	_, err := sc.cur.Advance(ctx)
	return err
}

func (sc *sequenceChunker) createParent(ctx context.Context, parentCur *Cursor) error {
	if sc.parent != nil {
		return fmt.Errorf("prolly: chunker already has a parent")
	}
	parent, err := newSequenceChunker(ctx, sc.shape, parentCur, sc.level+1, sc.vrw, false)
	if err != nil {
		return err
	}
	sc.parent = parent

	if sc.unwritten != nil {
		if _, err := sc.vrw.WriteValue(ctx, sc.unwritten.chunk); err != nil {
			return err
		}
		sc.unwritten = nil
	}
	return nil
}

// createSequence builds a Sequence from sc.current and clears it. When
// write is true the chunk is persisted immediately and a real Ref
// returned; otherwise the chunk is only held in sc.unwritten (and the
// in-memory child cached directly on the returned MetaTuple), deferring
// the write of the root Done returns to whoever commits it.
func (sc *sequenceChunker) createSequence(ctx context.Context, write bool) (Sequence, MetaTuple, error) {
	var seq Sequence
	var numLeaves uint64
	var key val.OrderedKey

	if sc.isLeaf {
		items := make([]any, len(sc.current))
		copy(items, sc.current)
		seq = newLeafSequence(sc.shape, items)
		numLeaves = uint64(len(items))
		if sc.shape.Indexed() {
			if numLeaves > 0 {
				key = val.NewOrderedKey(val.Number(numLeaves))
			}
		} else if numLeaves > 0 {
			key = sc.shape.KeyOf(items[numLeaves-1])
		}
	} else {
		items := make([]MetaTuple, len(sc.current))
		for i, it := range sc.current {
			items[i] = it.(MetaTuple)
		}
		seq = newMetaSequence(sc.shape, sc.level, items)
		for _, mt := range items {
			numLeaves += mt.NumLeaves
		}
		if len(items) > 0 {
			if sc.shape.Indexed() {
				key = val.NewOrderedKey(val.Number(numLeaves))
			} else {
				key = items[len(items)-1].Key
			}
		}
	}
	sc.current = sc.current[:0]

	chunk := EncodeSequence(seq)
	var ref hash.Ref
	if write {
		r, err := sc.vrw.WriteValue(ctx, chunk)
		if err != nil {
			return nil, MetaTuple{}, err
		}
		ref = r
		return seq, MetaTuple{Ref: ref, Key: key, NumLeaves: numLeaves}, nil
	}

	ref = hash.NewRef(hash.Of(chunk.Data), seq.Level(), chunk.Kind)
	sc.unwritten = &pendingChunk{seq: seq, chunk: chunk}
	mt := MetaTuple{Ref: ref, Key: key, NumLeaves: numLeaves, child: seq}
	return seq, mt, nil
}

func (sc *sequenceChunker) handleChunkBoundary(ctx context.Context) error {
	if len(sc.current) == 0 {
		return fmt.Errorf("prolly: handleChunkBoundary called with no pending items")
	}
	sc.hasher.Reset()
	if sc.parent == nil {
		var parentCur *Cursor
		if sc.cur != nil {
			parentCur = sc.cur.Parent()
		}
		if err := sc.createParent(ctx, parentCur); err != nil {
			return err
		}
	}
	_, mt, err := sc.createSequence(ctx, true)
	if err != nil {
		return err
	}
	return sc.parent.Append(ctx, mt)
}

// anyPending reports whether this chunker or any ancestor has unflushed
// items, the signal Done uses to decide whether the tree grew a level.
func (sc *sequenceChunker) anyPending() bool {
	if len(sc.current) > 0 {
		return true
	}
	if sc.parent != nil {
		return sc.parent.anyPending()
	}
	return false
}

// finalizeCursor replays the remainder of an existing tree (from sc.cur's
// position onward) until either the sequence ends or a chunk boundary
// lands exactly where it did in the original tree — in the common case of
// an edit near the start of a large collection, this is the one step that
// keeps the untouched tail's chunks byte-identical to before the edit.
func (sc *sequenceChunker) finalizeCursor(ctx context.Context) error {
	for sc.cur.Valid() {
		crossed, err := sc.appendEntry(ctx, sc.cur.CurrentItem())
		if err != nil {
			return err
		}
		if crossed && sc.cur.AtLastItem() {
			break
		}
		if _, err := sc.cur.Advance(ctx); err != nil {
			return err
		}
	}
	// The parent chunker holds its own copy of the parent cursor, taken when
	// it was created. Move it past the tuple of the chunk this level just
	// replayed, so the parent's finalize does not append that tuple again.
	if sc.parent != nil && sc.parent.cur != nil {
		if parentCur := sc.cur.Parent(); parentCur != nil {
			if _, err := parentCur.Advance(ctx); err != nil {
				return err
			}
			sc.parent.cur = parentCur
		}
	}
	return nil
}

// Done finalizes the chunker, returning the root of the resulting tree.
func (sc *sequenceChunker) Done(ctx context.Context) (Sequence, error) {
	if sc.done {
		return nil, fmt.Errorf("prolly: chunker already finalized")
	}
	sc.done = true

	if sc.cur != nil {
		if err := sc.finalizeCursor(ctx); err != nil {
			return nil, err
		}
	}

	if sc.parent != nil && sc.parent.anyPending() {
		if len(sc.current) > 0 {
			if err := sc.handleChunkBoundary(ctx); err != nil {
				return nil, err
			}
		}
		return sc.parent.Done(ctx)
	}

	if sc.isLeaf || len(sc.current) > 1 {
		seq, _, err := sc.createSequence(ctx, false)
		return seq, err
	}

	// A single pending MetaTuple at a non-leaf level: this is a root, but
	// possibly not the canonical one — walk down until we find a node
	// that genuinely needs to exist (a leaf, or a meta node with more
	// than one child).
	mt := sc.current[0].(MetaTuple)
	for {
		child, err := mt.GetChildSequence(ctx, sc.vrw, sc.shape)
		if err != nil {
			return nil, err
		}
		if !child.IsMeta() || child.Len() > 1 {
			return child, nil
		}
		mt = child.Item(0).(MetaTuple)
	}
}

// SpliceEdit describes one contiguous insert/delete region, addressed by
// its position in the tree as it existed before any edit in the batch was
// applied (edits never shift each other's indices).
type SpliceEdit struct {
	Index  int
	Delete int
	Insert []any
}

// NewSequence bulk-constructs a Sequence from items, in order, from
// scratch — the path collection constructors use for List.New, Map.New,
// Set.New and Blob.New.
func NewSequence(ctx context.Context, vrw ValueReadWriter, shape Shape, items []any) (Sequence, error) {
	if len(items) == 0 {
		return newLeafSequence(shape, nil), nil
	}
	sc := newEmptySequenceChunker(shape, vrw)
	for _, item := range items {
		if err := sc.Append(ctx, item); err != nil {
			return nil, err
		}
	}
	return sc.Done(ctx)
}

// spliceAtCursor is the single-edit-region mutation primitive every
// collection façade builds on: insert, then skip forward over deleted
// items (the two are independent cursor/buffer operations, so this order
// and delete-then-insert produce the same result either way), then
// finalize. cur must already be positioned at a leaf — both
// NewCursorAtIndex and NewCursorAtKey guarantee that.
func spliceAtCursor(ctx context.Context, vrw ValueReadWriter, shape Shape, cur *Cursor, insert []any, deleteCount int) (Sequence, error) {
	sc, err := newSequenceChunker(ctx, shape, cur, 0, vrw, true)
	if err != nil {
		return nil, err
	}
	for _, item := range insert {
		if err := sc.Append(ctx, item); err != nil {
			return nil, err
		}
	}
	for j := 0; j < deleteCount; j++ {
		if err := sc.Skip(ctx); err != nil {
			return nil, err
		}
	}
	return sc.Done(ctx)
}

// Splice rebuilds root (an indexed collection: List or Blob) with a single
// insert/delete region applied at index, reusing every chunk outside the
// edited region.
func Splice(ctx context.Context, vrw ValueReadWriter, shape Shape, root Sequence, index, deleteCount int, insert []any) (Sequence, error) {
	cur, err := NewCursorAtIndex(ctx, vrw, root, index)
	if err != nil {
		return nil, err
	}
	return spliceAtCursor(ctx, vrw, shape, cur, insert, deleteCount)
}

// SpliceAtKey rebuilds root (an ordered collection: Map or Set) with a
// single insert/delete region applied at the leaf position key would
// occupy, reusing every chunk outside the edited region. Used for both
// Set(k,v)/Add(v) (insert=[entry], deleteCount=1 if an equal key is
// already present, else 0) and Delete(k)/Remove(v) (insert=nil,
// deleteCount=1 if present, else 0).
func SpliceAtKey(ctx context.Context, vrw ValueReadWriter, shape Shape, root Sequence, key val.OrderedKey, insert []any, deleteCount int) (Sequence, error) {
	cur, err := NewCursorAtKey(ctx, vrw, root, key, true, false)
	if err != nil {
		return nil, err
	}
	return spliceAtCursor(ctx, vrw, shape, cur, insert, deleteCount)
}

// SpliceMany applies a batch of non-overlapping index-based edits, sorted
// ascending by Index, in a single chunker pass over an indexed collection.
// Between consecutive edits it calls advanceTo to skip the unchanged span
// between them without visiting it item by item when a chunk boundary
// there already lines up with the one in the original tree.
//
// There is no separate "sync" variant of this function: unlike the
// original's async cursor model, a Go context.Context blocks in place at
// a store fetch, so the synchronous and asynchronous traversal paths are
// already the same code.
func SpliceMany(ctx context.Context, vrw ValueReadWriter, shape Shape, root Sequence, edits []SpliceEdit) (Sequence, error) {
	if len(edits) == 0 {
		return root, nil
	}

	cur, err := NewCursorAtIndex(ctx, vrw, root, edits[0].Index)
	if err != nil {
		return nil, err
	}
	sc, err := newSequenceChunker(ctx, shape, cur, 0, vrw, true)
	if err != nil {
		return nil, err
	}

	for i, edit := range edits {
		for _, item := range edit.Insert {
			if err := sc.Append(ctx, item); err != nil {
				return nil, err
			}
		}
		for j := 0; j < edit.Delete; j++ {
			if err := sc.Skip(ctx); err != nil {
				return nil, err
			}
		}
		if i+1 < len(edits) {
			nextCur, err := NewCursorAtIndex(ctx, vrw, root, edits[i+1].Index)
			if err != nil {
				return nil, err
			}
			if err := sc.advanceTo(ctx, nextCur); err != nil {
				return nil, err
			}
		}
	}

	return sc.Done(ctx)
}
