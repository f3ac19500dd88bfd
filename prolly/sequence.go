package prolly

import (
	"context"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/val"
)

// Sequence is the dispatch surface common to leaf and meta nodes of a
// prolly-tree. Leaves store items directly; meta nodes store MetaTuples
// pointing at child sequences one level down.
type Sequence interface {
	// Len returns the number of items (leaf items, or meta tuples) stored
	// directly in this node.
	Len() int
	// NumLeaves returns the total number of leaf items reachable through
	// this node, including through any descendants.
	NumLeaves() uint64
	// IsMeta reports whether this node is an internal (meta) node.
	IsMeta() bool
	// Item returns the raw item (a leaf item, or a MetaTuple) at index i.
	Item(i int) any
	// GetChildSequence lazily loads the child sequence at index i.
	// Leaves always return (nil, nil). May block on vr.ReadValue.
	GetChildSequence(ctx context.Context, vr ValueReader, i int) (Sequence, error)
	// GetChildSequenceSync returns the child at index i without touching
	// vr; it is only legal when that child is a cached, unwritten node
	// (a "fresh" chunk produced earlier in the same chunker pass).
	GetChildSequenceSync(i int) Sequence
	// CumulativeNumberOfLeaves returns the number of leaves reachable
	// through items [0, i], inclusive.
	CumulativeNumberOfLeaves(i int) uint64
	// GetKey returns the OrderedKey of item i: the leaf computes it from
	// the item itself; the meta node reads it from the tuple.
	GetKey(i int) val.OrderedKey
	// Shape returns the collection Shape this sequence was built with.
	Shape() Shape
	// Level returns this node's tree level (0 = leaf).
	Level() uint64
}

// leafSequence is the immutable vector of items at tree level 0.
type leafSequence struct {
	shape Shape
	items []any
}

func newLeafSequence(shape Shape, items []any) *leafSequence {
	return &leafSequence{shape: shape, items: items}
}

func (l *leafSequence) Len() int           { return len(l.items) }
func (l *leafSequence) NumLeaves() uint64  { return uint64(len(l.items)) }
func (l *leafSequence) IsMeta() bool       { return false }
func (l *leafSequence) Item(i int) any     { return l.items[i] }
func (l *leafSequence) Shape() Shape       { return l.shape }
func (l *leafSequence) Level() uint64      { return 0 }

func (l *leafSequence) GetChildSequence(context.Context, ValueReader, int) (Sequence, error) {
	return nil, nil
}

func (l *leafSequence) GetChildSequenceSync(int) Sequence {
	return nil
}

func (l *leafSequence) CumulativeNumberOfLeaves(i int) uint64 {
	return uint64(i + 1)
}

func (l *leafSequence) GetKey(i int) val.OrderedKey {
	if l.shape.Indexed() {
		return val.NewOrderedKey(val.Number(i))
	}
	return l.shape.KeyOf(l.items[i])
}

// MetaTuple is a MetaSequence entry: a reference to a child subtree, the
// largest key reachable through it (or, for indexed trees, its leaf
// count expressed as a key), and how many leaves it covers.
type MetaTuple struct {
	Ref       hash.Ref
	Key       val.OrderedKey
	NumLeaves uint64

	// child caches an in-memory, not-yet-written subtree produced earlier
	// in the same chunker pass. nil once the tuple has been persisted and
	// reloaded, or if it was decoded from a stored chunk.
	child Sequence
}

// GetChildSequence resolves the tuple's child, either from the in-memory
// cache or by reading and decoding Ref.TargetHash through vr.
func (mt MetaTuple) GetChildSequence(ctx context.Context, vr ValueReader, shape Shape) (Sequence, error) {
	if mt.child != nil {
		return mt.child, nil
	}
	chunk, err := vr.ReadValue(ctx, mt.Ref.TargetHash)
	if err != nil {
		return nil, err
	}
	return DecodeSequence(shape, chunk)
}

// metaSequence is the immutable vector of MetaTuples at tree level >= 1.
type metaSequence struct {
	shape   Shape
	level   uint64
	items   []MetaTuple
	offsets []uint64 // offsets[i] = cumulative leaves through items[0..i]
}

func newMetaSequence(shape Shape, level uint64, items []MetaTuple) *metaSequence {
	offsets := make([]uint64, len(items))
	var sum uint64
	for i, mt := range items {
		sum += mt.NumLeaves
		offsets[i] = sum
	}
	return &metaSequence{shape: shape, level: level, items: items, offsets: offsets}
}

func (m *metaSequence) Len() int      { return len(m.items) }
func (m *metaSequence) IsMeta() bool  { return true }
func (m *metaSequence) Shape() Shape  { return m.shape }
func (m *metaSequence) Level() uint64 { return m.level }

func (m *metaSequence) NumLeaves() uint64 {
	if len(m.offsets) == 0 {
		return 0
	}
	return m.offsets[len(m.offsets)-1]
}

func (m *metaSequence) Item(i int) any { return m.items[i] }

func (m *metaSequence) GetChildSequence(ctx context.Context, vr ValueReader, i int) (Sequence, error) {
	return m.items[i].GetChildSequence(ctx, vr, m.shape)
}

func (m *metaSequence) GetChildSequenceSync(i int) Sequence {
	return m.items[i].child
}

func (m *metaSequence) CumulativeNumberOfLeaves(i int) uint64 {
	return m.offsets[i]
}

func (m *metaSequence) GetKey(i int) val.OrderedKey {
	return m.items[i].Key
}

// emptySequence is a zero-length Sequence sentinel for a given shape and
// level. Nothing in this package constructs one; diff does not use it.
type emptySequence struct {
	shape Shape
	level uint64
}

func (e *emptySequence) Len() int          { return 0 }
func (e *emptySequence) NumLeaves() uint64 { return 0 }
func (e *emptySequence) IsMeta() bool      { return e.level > 0 }
func (e *emptySequence) Item(int) any      { panic("prolly: Item on emptySequence") }
func (e *emptySequence) Shape() Shape      { return e.shape }
func (e *emptySequence) Level() uint64     { return e.level }

func (e *emptySequence) GetChildSequence(context.Context, ValueReader, int) (Sequence, error) {
	panic("prolly: GetChildSequence on emptySequence")
}

func (e *emptySequence) GetChildSequenceSync(int) Sequence {
	panic("prolly: GetChildSequenceSync on emptySequence")
}

func (e *emptySequence) CumulativeNumberOfLeaves(int) uint64 {
	return 0
}

func (e *emptySequence) GetKey(int) val.OrderedKey {
	panic("prolly: GetKey on emptySequence")
}

// rangeItems collects the leaf items covering [a, b) by descending and
// concatenating, the synchronous counterpart of §4.3's "range".
func rangeItems(ctx context.Context, vr ValueReader, seq Sequence, a, b int) ([]any, error) {
	if a >= b {
		return nil, nil
	}
	if !seq.IsMeta() {
		leaf := seq.(*leafSequence)
		out := make([]any, b-a)
		copy(out, leaf.items[a:b])
		return out, nil
	}
	var out []any
	for i := 0; i < seq.Len(); i++ {
		var start uint64
		if i > 0 {
			start = seq.CumulativeNumberOfLeaves(i - 1)
		}
		end := seq.CumulativeNumberOfLeaves(i)
		lo, hi := int(start), int(end)
		if hi <= a || lo >= b {
			continue
		}
		child, err := seq.GetChildSequence(ctx, vr, i)
		if err != nil {
			return nil, err
		}
		childLo := max(a, lo) - lo
		childHi := min(b, hi) - lo
		items, err := rangeItems(ctx, vr, child, childLo, childHi)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// getEqualsFn returns an item-equality predicate over a and b: leaves
// compare items by value, metas compare child ref identity. OrderedDiff
// and IndexedDiff do not call it; they compare items and refs directly.
func getEqualsFn(a, b Sequence) func(i, j int) bool {
	if a.IsMeta() && b.IsMeta() {
		return func(i, j int) bool {
			ai := a.Item(i).(MetaTuple)
			bj := b.Item(j).(MetaTuple)
			return ai.Ref.TargetHash == bj.Ref.TargetHash
		}
	}
	shape := a.Shape()
	return func(i, j int) bool {
		return shape.EqualItems(a.Item(i), b.Item(j))
	}
}
