package prollytree

import (
	"context"
	"fmt"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
	"github.com/prollytree/prollytree/val"
)

// mapEntry is a Map's leaf item: a (key, value) pair sorted by key.
type mapEntry struct {
	Key   val.Value
	Value val.Value
}

// mapShape supplies prolly.Shape for Map: leaf items are mapEntry, ordered
// by Key.
type mapShape struct{}

func (mapShape) LeafKind() hash.Kind { return hash.KindMapLeaf }
func (mapShape) MetaKind() hash.Kind { return hash.KindMapMeta }
func (mapShape) Indexed() bool       { return false }

func (mapShape) KeyOf(item any) val.OrderedKey {
	return val.NewOrderedKey(item.(mapEntry).Key)
}

func (mapShape) EncodeItem(item any, e *val.Encoder) {
	ent := item.(mapEntry)
	ent.Key.WriteTo(e)
	ent.Value.WriteTo(e)
}

func (mapShape) DecodeItem(d *val.Decoder) any {
	k := d.ReadValue()
	v := d.ReadValue()
	return mapEntry{Key: k, Value: v}
}

func (mapShape) EqualItems(a, b any) bool {
	ea, eb := a.(mapEntry), b.(mapEntry)
	return val.Equals(ea.Key, eb.Key) && val.Equals(ea.Value, eb.Value)
}

// Map is an immutable, content-addressed association from key to value,
// ordered by key. Every mutating method returns a new Map; none of them
// touch the receiver.
type Map struct {
	vrw  prolly.ValueReadWriter
	root prolly.Sequence
}

// NewMap builds a Map from entries, which must already be sorted by key
// with no duplicates — the same precondition NewSequence places on every
// collection constructor. Callers building a Map from unsorted input
// should insert entries one at a time via Set instead.
func NewMap(ctx context.Context, vrw prolly.ValueReadWriter, keys []val.Value, values []val.Value) (*Map, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("prollytree: new map: %d keys but %d values", len(keys), len(values))
	}
	items := make([]any, len(keys))
	for i := range keys {
		items[i] = mapEntry{Key: keys[i], Value: values[i]}
	}
	root, err := prolly.NewSequence(ctx, vrw, mapShape{}, items)
	if err != nil {
		return nil, fmt.Errorf("prollytree: new map: %w", err)
	}
	return &Map{vrw: vrw, root: root}, nil
}

// OpenMap resolves a previously-committed Map root by its Ref.
func OpenMap(ctx context.Context, vr prolly.ValueReader, ref hash.Ref) (*Map, error) {
	root, err := openRoot(ctx, vr, mapShape{}, ref)
	if err != nil {
		return nil, fmt.Errorf("prollytree: open map: %w", err)
	}
	return &Map{vrw: asReadWriter(vr), root: root}, nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return int(m.root.NumLeaves())
}

// Commit persists every unwritten chunk reachable from the Map's root.
func (m *Map) Commit(ctx context.Context) (hash.Ref, error) {
	return prolly.WriteSequence(ctx, m.vrw, m.root)
}

// Get returns the value for key, and whether key was present.
func (m *Map) Get(ctx context.Context, key val.Value) (val.Value, bool, error) {
	if m.Len() == 0 {
		return nil, false, nil
	}
	cur, err := prolly.NewCursorAtKey(ctx, m.vrw, m.root, val.NewOrderedKey(key), false, false)
	if err != nil {
		return nil, false, translateError(err)
	}
	if !cur.Valid() {
		return nil, false, nil
	}
	ent := cur.CurrentItem().(mapEntry)
	if !val.Equals(ent.Key, key) {
		return nil, false, nil
	}
	return ent.Value, true, nil
}

// Has reports whether key is present.
func (m *Map) Has(ctx context.Context, key val.Value) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Set returns a new Map with key bound to value, replacing any existing
// binding for key. Setting a key to the value it's already bound to
// returns a Map identical (by Ref) to the receiver.
func (m *Map) Set(ctx context.Context, key, value val.Value) (*Map, error) {
	existing, present, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if present && val.Equals(existing, value) {
		return m, nil
	}
	deleteCount := 0
	if present {
		deleteCount = 1
	}
	root, err := prolly.SpliceAtKey(ctx, m.vrw, mapShape{}, m.root, val.NewOrderedKey(key),
		[]any{mapEntry{Key: key, Value: value}}, deleteCount)
	if err != nil {
		return nil, fmt.Errorf("prollytree: map set: %w", err)
	}
	return &Map{vrw: m.vrw, root: root}, nil
}

// Delete returns a new Map with key removed. Deleting an absent key
// returns a Map identical (by Ref) to the receiver.
func (m *Map) Delete(ctx context.Context, key val.Value) (*Map, error) {
	deleteCount, err := m.presentCount(ctx, key)
	if err != nil {
		return nil, err
	}
	if deleteCount == 0 {
		return m, nil
	}
	root, err := prolly.SpliceAtKey(ctx, m.vrw, mapShape{}, m.root, val.NewOrderedKey(key), nil, deleteCount)
	if err != nil {
		return nil, fmt.Errorf("prollytree: map delete: %w", err)
	}
	return &Map{vrw: m.vrw, root: root}, nil
}

func (m *Map) presentCount(ctx context.Context, key val.Value) (int, error) {
	ok, err := m.Has(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}

// Iter calls fn for every entry in key order, stopping early if fn
// returns false.
func (m *Map) Iter(ctx context.Context, fn func(key, value val.Value) bool) error {
	if m.Len() == 0 {
		return nil
	}
	cur, err := prolly.NewCursorAtIndex(ctx, m.vrw, m.root, 0)
	if err != nil {
		return translateError(err)
	}
	return translateError(cur.Iter(ctx, func(item any, _ int) bool {
		ent := item.(mapEntry)
		return !fn(ent.Key, ent.Value)
	}))
}

// Diff reports the key-ordered difference between m and other via a
// parallel cursor walk, without materializing either Map fully.
func (m *Map) Diff(ctx context.Context, other *Map) ([]prolly.Change, error) {
	return prolly.OrderedDiff(ctx, m.vrw, m.root, other.root)
}
