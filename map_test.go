package prollytree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prollytree/prollytree/val"
)

func TestMap_EmptyMap(t *testing.T) {
	ctx := context.Background()
	m, err := NewMap(ctx, newTestStore(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	_, ok, err := m.Get(ctx, val.String("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMap_SetGetHas(t *testing.T) {
	ctx := context.Background()
	m, err := NewMap(ctx, newTestStore(), nil, nil)
	require.NoError(t, err)

	m2, err := m.Set(ctx, val.String("a"), val.Number(1))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len(), "Set must not mutate the receiver")
	assert.Equal(t, 1, m2.Len())

	v, ok, err := m2.Get(ctx, val.String("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, val.Number(1), v)

	has, err := m2.Has(ctx, val.String("b"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMap_SetOverwritesExistingKey(t *testing.T) {
	ctx := context.Background()
	m, err := NewMap(ctx, newTestStore(), nil, nil)
	require.NoError(t, err)

	m, err = m.Set(ctx, val.String("a"), val.Number(1))
	require.NoError(t, err)
	m, err = m.Set(ctx, val.String("a"), val.Number(2))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
	v, ok, err := m.Get(ctx, val.String("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, val.Number(2), v)
}

func TestMap_SetIsNoopWhenValueUnchanged(t *testing.T) {
	ctx := context.Background()
	m, err := NewMap(ctx, newTestStore(), nil, nil)
	require.NoError(t, err)
	m, err = m.Set(ctx, val.String("a"), val.Number(1))
	require.NoError(t, err)

	m2, err := m.Set(ctx, val.String("a"), val.Number(1))
	require.NoError(t, err)
	assert.Same(t, m, m2, "setting a key to its current value must be a no-op")

	m3, err := m.Set(ctx, val.String("a"), val.Number(2))
	require.NoError(t, err)
	assert.NotSame(t, m, m3)
}

func TestMap_Delete(t *testing.T) {
	ctx := context.Background()
	m, err := NewMap(ctx, newTestStore(), nil, nil)
	require.NoError(t, err)
	m, err = m.Set(ctx, val.String("a"), val.Number(1))
	require.NoError(t, err)

	m2, err := m.Delete(ctx, val.String("missing"))
	require.NoError(t, err)
	assert.Equal(t, m.Len(), m2.Len())

	m3, err := m.Delete(ctx, val.String("a"))
	require.NoError(t, err)
	assert.Equal(t, 0, m3.Len())
	assert.Equal(t, 1, m.Len(), "Delete must not mutate the receiver")
}

func TestMap_IterIsKeyOrdered(t *testing.T) {
	ctx := context.Background()
	keys := []val.Value{val.String("b"), val.String("a"), val.String("c")}
	m, err := NewMap(ctx, newTestStore(), nil, nil)
	require.NoError(t, err)
	for _, k := range keys {
		m, err = m.Set(ctx, k, val.Number(1))
		require.NoError(t, err)
	}

	var seen []string
	require.NoError(t, m.Iter(ctx, func(k, v val.Value) bool {
		seen = append(seen, string(k.(val.String)))
		return true
	}))
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestMap_CommitAndOpen(t *testing.T) {
	ctx := context.Background()
	vrw := newTestStore()
	m, err := NewMap(ctx, vrw, []val.Value{val.String("a")}, []val.Value{val.Number(1)})
	require.NoError(t, err)

	ref, err := m.Commit(ctx)
	require.NoError(t, err)

	m2, err := OpenMap(ctx, vrw, ref)
	require.NoError(t, err)
	v, ok, err := m2.Get(ctx, val.String("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, val.Number(1), v)

	_, err = m2.Set(ctx, val.String("b"), val.Number(2))
	require.NoError(t, err, "OpenMap's store must remain writable when opened with a ValueReadWriter")
}

func TestMap_Diff(t *testing.T) {
	ctx := context.Background()
	a, err := NewMap(ctx, newTestStore(), []val.Value{val.String("a")}, []val.Value{val.Number(1)})
	require.NoError(t, err)
	b, err := a.Set(ctx, val.String("b"), val.Number(2))
	require.NoError(t, err)

	changes, err := a.Diff(ctx, b)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 0, int(changes[0].Type)) // Added
}
