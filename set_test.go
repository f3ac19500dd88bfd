package prollytree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prollytree/prollytree/val"
)

func TestSet_EmptySet(t *testing.T) {
	ctx := context.Background()
	s, err := NewSet(ctx, newTestStore(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	has, err := s.Has(ctx, val.Number(1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSet_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewSet(ctx, newTestStore(), nil)
	require.NoError(t, err)

	s2, err := s.Add(ctx, val.Number(1))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len(), "Add must not mutate the receiver")
	assert.Equal(t, 1, s2.Len())

	s3, err := s2.Add(ctx, val.Number(1))
	require.NoError(t, err)
	assert.Equal(t, 1, s3.Len())
	assert.Same(t, s2, s3, "adding a value already present must be a no-op")

	has, err := s3.Has(ctx, val.Number(1))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSet_Remove(t *testing.T) {
	ctx := context.Background()
	s, err := NewSet(ctx, newTestStore(), []val.Value{val.Number(1), val.Number(2)})
	require.NoError(t, err)

	s2, err := s.Remove(ctx, val.Number(3))
	require.NoError(t, err)
	assert.Equal(t, s.Len(), s2.Len(), "removing an absent value is a no-op")

	s3, err := s.Remove(ctx, val.Number(1))
	require.NoError(t, err)
	assert.Equal(t, 1, s3.Len())
	has, err := s3.Has(ctx, val.Number(1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSet_IterIsValueOrdered(t *testing.T) {
	ctx := context.Background()
	s, err := NewSet(ctx, newTestStore(), nil)
	require.NoError(t, err)
	for _, v := range []val.Value{val.Number(3), val.Number(1), val.Number(2)} {
		s, err = s.Add(ctx, v)
		require.NoError(t, err)
	}

	var seen []float64
	require.NoError(t, s.Iter(ctx, func(v val.Value) bool {
		seen = append(seen, float64(v.(val.Number)))
		return true
	}))
	assert.Equal(t, []float64{1, 2, 3}, seen)
}

func TestSet_CommitAndOpen(t *testing.T) {
	ctx := context.Background()
	vrw := newTestStore()
	s, err := NewSet(ctx, vrw, []val.Value{val.Number(1), val.Number(2)})
	require.NoError(t, err)

	ref, err := s.Commit(ctx)
	require.NoError(t, err)

	s2, err := OpenSet(ctx, vrw, ref)
	require.NoError(t, err)
	assert.Equal(t, s.Len(), s2.Len())
}

func TestSet_Diff(t *testing.T) {
	ctx := context.Background()
	a, err := NewSet(ctx, newTestStore(), []val.Value{val.Number(1), val.Number(2)})
	require.NoError(t, err)
	b, err := a.Remove(ctx, val.Number(2))
	require.NoError(t, err)

	changes, err := a.Diff(ctx, b)
	require.NoError(t, err)
	require.Len(t, changes, 1)
}
