package prolly

import (
	"context"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/val"
)

// ChangeType distinguishes the three ways a key/position can differ
// between two versions of a collection.
type ChangeType int

const (
	Added ChangeType = iota
	Removed
	Modified
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one entry of a diff between two collection versions. For an
// ordered collection (Map, Set) Key is the entry's key; for an indexed
// collection (List, Blob) Key wraps the position as a Number.
type Change struct {
	Type     ChangeType
	Key      val.OrderedKey
	OldValue any
	NewValue any
}

// OrderedDiff walks two ordered (Map or Set) trees in key order, emitting
// Added/Removed/Modified changes. Whenever both cursors are freshly
// positioned at the start of a subtree whose parent MetaTuple has an
// identical Ref on both sides, the entire subtree is skipped in O(1) —
// the payoff of content addressing: an edit far away from a given key
// range never forces a revisit of that range's chunks.
func OrderedDiff(ctx context.Context, vr ValueReader, from, to Sequence) ([]Change, error) {
	var changes []Change

	ca, err := NewCursorAtIndex(ctx, vr, from, 0)
	if err != nil {
		return nil, err
	}
	cb, err := NewCursorAtIndex(ctx, vr, to, 0)
	if err != nil {
		return nil, err
	}

	for ca.Valid() && cb.Valid() {
		skipped, err := trySkipAlignedSubtree(ctx, ca, cb)
		if err != nil {
			return nil, err
		}
		if skipped {
			continue
		}

		ka, kb := ca.CurrentKey(), cb.CurrentKey()
		switch cmp := ka.Compare(kb); {
		case cmp == 0:
			va, vb := ca.CurrentItem(), cb.CurrentItem()
			shape := ca.CurrentSequence().Shape()
			if !shape.EqualItems(va, vb) {
				changes = append(changes, Change{Type: Modified, Key: ka, OldValue: va, NewValue: vb})
			}
			if _, err := ca.Advance(ctx); err != nil {
				return nil, err
			}
			if _, err := cb.Advance(ctx); err != nil {
				return nil, err
			}
		case cmp < 0:
			changes = append(changes, Change{Type: Removed, Key: ka, OldValue: ca.CurrentItem()})
			if _, err := ca.Advance(ctx); err != nil {
				return nil, err
			}
		default:
			changes = append(changes, Change{Type: Added, Key: kb, NewValue: cb.CurrentItem()})
			if _, err := cb.Advance(ctx); err != nil {
				return nil, err
			}
		}
	}
	for ca.Valid() {
		changes = append(changes, Change{Type: Removed, Key: ca.CurrentKey(), OldValue: ca.CurrentItem()})
		if _, err := ca.Advance(ctx); err != nil {
			return nil, err
		}
	}
	for cb.Valid() {
		changes = append(changes, Change{Type: Added, Key: cb.CurrentKey(), NewValue: cb.CurrentItem()})
		if _, err := cb.Advance(ctx); err != nil {
			return nil, err
		}
	}
	return changes, nil
}

// trySkipAlignedSubtree checks whether ca and cb both sit at the first
// leaf of a subtree addressed by an identical Ref on each side, and if
// so jumps both past it in one step. It only attempts the check at
// IndexInChunk() == 0, the only point at which "both cursors just
// descended into this subtree" is guaranteed, so the jump is safe.
func trySkipAlignedSubtree(ctx context.Context, ca, cb *Cursor) (bool, error) {
	if ca.IndexInChunk() != 0 || cb.IndexInChunk() != 0 {
		return false, nil
	}
	pa, pb := ca.Parent(), cb.Parent()
	if pa == nil || pb == nil || !pa.Valid() || !pb.Valid() {
		return false, nil
	}
	mta, ok := pa.CurrentItem().(MetaTuple)
	if !ok {
		return false, nil
	}
	mtb, ok := pb.CurrentItem().(MetaTuple)
	if !ok {
		return false, nil
	}
	if mta.Ref.TargetHash != mtb.Ref.TargetHash {
		return false, nil
	}
	if _, err := ca.AdvanceChunk(ctx); err != nil {
		return false, err
	}
	if _, err := cb.AdvanceChunk(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// IndexedDiff diffs two indexed (List or Blob) trees by position. It
// short-circuits the empty and byte-identical-root cases, then either
// runs an O(n*m) edit-distance comparison (classic Wagner-Fischer LCS) or,
// if n*m exceeds maxMatrix, falls back to reporting the entire old
// sequence as removed and the entire new one as added — bounding the
// worst-case cost of diffing two large, unrelated lists.
func IndexedDiff(ctx context.Context, vr ValueReader, shape Shape, from, to Sequence, maxMatrix int) ([]Change, error) {
	n, m := int(from.NumLeaves()), int(to.NumLeaves())
	if n == 0 && m == 0 {
		return nil, nil
	}
	if hash.Of(EncodeSequence(from).Data) == hash.Of(EncodeSequence(to).Data) {
		return nil, nil
	}

	fromItems, err := rangeItems(ctx, vr, from, 0, n)
	if err != nil {
		return nil, err
	}
	toItems, err := rangeItems(ctx, vr, to, 0, m)
	if err != nil {
		return nil, err
	}

	if n*m > maxMatrix {
		return totalReplace(fromItems, toItems), nil
	}
	return diffByEditDistance(shape, fromItems, toItems), nil
}

func totalReplace(fromItems, toItems []any) []Change {
	changes := make([]Change, 0, len(fromItems)+len(toItems))
	for i, item := range fromItems {
		changes = append(changes, Change{Type: Removed, Key: val.NewOrderedKey(val.Number(i)), OldValue: item})
	}
	for i, item := range toItems {
		changes = append(changes, Change{Type: Added, Key: val.NewOrderedKey(val.Number(i)), NewValue: item})
	}
	return changes
}

// diffByEditDistance computes a longest-common-subsequence alignment of
// a and b and emits the Removed/Added entries needed to turn a into b.
func diffByEditDistance(shape Shape, a, b []any) []Change {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case shape.EqualItems(a[i], b[j]):
				dp[i][j] = dp[i+1][j+1] + 1
			case dp[i+1][j] >= dp[i][j+1]:
				dp[i][j] = dp[i+1][j]
			default:
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var changes []Change
	i, j := 0, 0
	for i < n && j < m {
		if shape.EqualItems(a[i], b[j]) {
			i++
			j++
			continue
		}
		if dp[i+1][j] >= dp[i][j+1] {
			changes = append(changes, Change{Type: Removed, Key: val.NewOrderedKey(val.Number(i)), OldValue: a[i]})
			i++
		} else {
			changes = append(changes, Change{Type: Added, Key: val.NewOrderedKey(val.Number(j)), NewValue: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		changes = append(changes, Change{Type: Removed, Key: val.NewOrderedKey(val.Number(i)), OldValue: a[i]})
	}
	for ; j < m; j++ {
		changes = append(changes, Change{Type: Added, Key: val.NewOrderedKey(val.Number(j)), NewValue: b[j]})
	}
	return changes
}
