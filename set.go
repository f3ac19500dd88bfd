package prollytree

import (
	"context"
	"fmt"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
	"github.com/prollytree/prollytree/val"
)

// setShape supplies prolly.Shape for Set: leaf items are val.Values,
// ordered by value, each occurring at most once.
type setShape struct{}

func (setShape) LeafKind() hash.Kind { return hash.KindSetLeaf }
func (setShape) MetaKind() hash.Kind { return hash.KindSetMeta }
func (setShape) Indexed() bool       { return false }

func (setShape) KeyOf(item any) val.OrderedKey {
	return val.NewOrderedKey(item.(val.Value))
}

func (setShape) EncodeItem(item any, e *val.Encoder) {
	item.(val.Value).WriteTo(e)
}

func (setShape) DecodeItem(d *val.Decoder) any {
	return d.ReadValue()
}

func (setShape) EqualItems(a, b any) bool {
	return val.Equals(a.(val.Value), b.(val.Value))
}

// Set is an immutable, content-addressed collection of distinct values,
// ordered by value. Every mutating method returns a new Set; none of
// them touch the receiver.
type Set struct {
	vrw  prolly.ValueReadWriter
	root prolly.Sequence
}

// NewSet builds a Set from values, which must already be sorted with no
// duplicates. Callers building a Set from unsorted or duplicate-bearing
// input should insert values one at a time via Add instead.
func NewSet(ctx context.Context, vrw prolly.ValueReadWriter, values []val.Value) (*Set, error) {
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = v
	}
	root, err := prolly.NewSequence(ctx, vrw, setShape{}, items)
	if err != nil {
		return nil, fmt.Errorf("prollytree: new set: %w", err)
	}
	return &Set{vrw: vrw, root: root}, nil
}

// OpenSet resolves a previously-committed Set root by its Ref.
func OpenSet(ctx context.Context, vr prolly.ValueReader, ref hash.Ref) (*Set, error) {
	root, err := openRoot(ctx, vr, setShape{}, ref)
	if err != nil {
		return nil, fmt.Errorf("prollytree: open set: %w", err)
	}
	return &Set{vrw: asReadWriter(vr), root: root}, nil
}

// Len returns the number of elements.
func (s *Set) Len() int {
	return int(s.root.NumLeaves())
}

// Commit persists every unwritten chunk reachable from the Set's root.
func (s *Set) Commit(ctx context.Context) (hash.Ref, error) {
	return prolly.WriteSequence(ctx, s.vrw, s.root)
}

// Has reports whether v is a member.
func (s *Set) Has(ctx context.Context, v val.Value) (bool, error) {
	if s.Len() == 0 {
		return false, nil
	}
	cur, err := prolly.NewCursorAtKey(ctx, s.vrw, s.root, val.NewOrderedKey(v), false, false)
	if err != nil {
		return false, translateError(err)
	}
	if !cur.Valid() {
		return false, nil
	}
	return val.Equals(cur.CurrentItem().(val.Value), v), nil
}

// Add returns a new Set with v as a member. Adding a value already
// present returns a Set identical (by Ref) to the receiver.
func (s *Set) Add(ctx context.Context, v val.Value) (*Set, error) {
	present, err := s.Has(ctx, v)
	if err != nil {
		return nil, err
	}
	if present {
		return s, nil
	}
	root, err := prolly.SpliceAtKey(ctx, s.vrw, setShape{}, s.root, val.NewOrderedKey(v), []any{v}, 0)
	if err != nil {
		return nil, fmt.Errorf("prollytree: set add: %w", err)
	}
	return &Set{vrw: s.vrw, root: root}, nil
}

// Remove returns a new Set with v removed. Removing an absent value
// returns a Set identical (by Ref) to the receiver.
func (s *Set) Remove(ctx context.Context, v val.Value) (*Set, error) {
	present, err := s.Has(ctx, v)
	if err != nil {
		return nil, err
	}
	if !present {
		return s, nil
	}
	root, err := prolly.SpliceAtKey(ctx, s.vrw, setShape{}, s.root, val.NewOrderedKey(v), nil, 1)
	if err != nil {
		return nil, fmt.Errorf("prollytree: set remove: %w", err)
	}
	return &Set{vrw: s.vrw, root: root}, nil
}

// Iter calls fn for every element in value order, stopping early if fn
// returns false.
func (s *Set) Iter(ctx context.Context, fn func(v val.Value) bool) error {
	if s.Len() == 0 {
		return nil
	}
	cur, err := prolly.NewCursorAtIndex(ctx, s.vrw, s.root, 0)
	if err != nil {
		return translateError(err)
	}
	return translateError(cur.Iter(ctx, func(item any, _ int) bool {
		return !fn(item.(val.Value))
	}))
}

// Diff reports the value-ordered difference between s and other via a
// parallel cursor walk.
func (s *Set) Diff(ctx context.Context, other *Set) ([]prolly.Change, error) {
	return prolly.OrderedDiff(ctx, s.vrw, s.root, other.root)
}
