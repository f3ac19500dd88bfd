package prollytree

import (
	"context"
	"fmt"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
	"github.com/prollytree/prollytree/val"
)

// listShape supplies prolly.Shape for List: leaf items are val.Values in
// position order, the tree is indexed rather than key-ordered.
type listShape struct{}

func (listShape) LeafKind() hash.Kind           { return hash.KindListLeaf }
func (listShape) MetaKind() hash.Kind           { return hash.KindListMeta }
func (listShape) Indexed() bool                 { return true }
func (listShape) KeyOf(item any) val.OrderedKey { panic("prollytree: List is indexed, KeyOf unused") }

func (listShape) EncodeItem(item any, e *val.Encoder) {
	item.(val.Value).WriteTo(e)
}

func (listShape) DecodeItem(d *val.Decoder) any {
	return d.ReadValue()
}

func (listShape) EqualItems(a, b any) bool {
	return val.Equals(a.(val.Value), b.(val.Value))
}

// List is an immutable, content-addressed sequence of values, ordered by
// position. Every mutating method returns a new List sharing unchanged
// chunks with its receiver; none of them touch the receiver itself.
type List struct {
	vrw  prolly.ValueReadWriter
	root prolly.Sequence
}

// NewList builds a List from items in order. With a nil or empty items,
// it produces the canonical empty List.
func NewList(ctx context.Context, vrw prolly.ValueReadWriter, items []val.Value) (*List, error) {
	anyItems := make([]any, len(items))
	for i, v := range items {
		anyItems[i] = v
	}
	root, err := prolly.NewSequence(ctx, vrw, listShape{}, anyItems)
	if err != nil {
		return nil, fmt.Errorf("prollytree: new list: %w", err)
	}
	return &List{vrw: vrw, root: root}, nil
}

// OpenList resolves a previously-committed List root by its Ref.
func OpenList(ctx context.Context, vr prolly.ValueReader, ref hash.Ref) (*List, error) {
	root, err := openRoot(ctx, vr, listShape{}, ref)
	if err != nil {
		return nil, fmt.Errorf("prollytree: open list: %w", err)
	}
	return &List{vrw: asReadWriter(vr), root: root}, nil
}

// Len returns the number of elements.
func (l *List) Len() int {
	return int(l.root.NumLeaves())
}

// Commit persists every unwritten chunk reachable from the List's root
// and returns a Ref a later OpenList can resolve. Calling Commit twice on
// the same List is cheap: WriteValue is idempotent by content hash.
func (l *List) Commit(ctx context.Context) (hash.Ref, error) {
	return prolly.WriteSequence(ctx, l.vrw, l.root)
}

// Get returns the value at idx.
func (l *List) Get(ctx context.Context, idx int) (val.Value, error) {
	if idx < 0 || idx >= l.Len() {
		return nil, errOutOfRange("list", idx, l.Len())
	}
	cur, err := prolly.NewCursorAtIndex(ctx, l.vrw, l.root, idx)
	if err != nil {
		return nil, translateError(err)
	}
	return cur.CurrentItem().(val.Value), nil
}

// Splice removes deleteCount elements starting at index and inserts
// insert in their place, returning the resulting List.
func (l *List) Splice(ctx context.Context, index, deleteCount int, insert []val.Value) (*List, error) {
	anyInsert := make([]any, len(insert))
	for i, v := range insert {
		anyInsert[i] = v
	}
	root, err := prolly.Splice(ctx, l.vrw, listShape{}, l.root, index, deleteCount, anyInsert)
	if err != nil {
		return nil, fmt.Errorf("prollytree: list splice: %w", err)
	}
	return &List{vrw: l.vrw, root: root}, nil
}

// Append adds values to the end of the List.
func (l *List) Append(ctx context.Context, values ...val.Value) (*List, error) {
	return l.Splice(ctx, l.Len(), 0, values)
}

// Iter calls fn for every element in order, stopping early if fn returns
// false.
func (l *List) Iter(ctx context.Context, fn func(idx int, v val.Value) bool) error {
	if l.Len() == 0 {
		return nil
	}
	cur, err := prolly.NewCursorAtIndex(ctx, l.vrw, l.root, 0)
	if err != nil {
		return translateError(err)
	}
	return translateError(cur.Iter(ctx, func(item any, idx int) bool {
		return !fn(idx, item.(val.Value))
	}))
}

// Diff reports the edit-distance-bounded difference between l and other.
// If the number of candidate alignments exceeds maxMatrix, Diff falls
// back to reporting a single wholesale replacement rather than spending
// O(n*m) time and memory on the comparison.
func (l *List) Diff(ctx context.Context, other *List, maxMatrix int) ([]prolly.Change, error) {
	return prolly.IndexedDiff(ctx, l.vrw, listShape{}, l.root, other.root, maxMatrix)
}
