package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ConformsToBlobStore(t *testing.T) {
	testBlobStore(t, NewMemoryStore())
}

func TestMemoryStore_PutCopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	data := []byte("original")
	require.NoError(t, s.Put(ctx, "k", data))

	data[0] = 'X' // mutate caller's slice after Put
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "Put must not alias the caller's slice")
}

// testBlobStore runs the behavioral contract every BlobStore implementation
// must satisfy, regardless of backing storage.
func testBlobStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	has, err := s.Has(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Put(ctx, "a/b", []byte("hello")))
	got, err := s.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	has, err = s.Has(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Put(ctx, "a/b", []byte("overwritten")))
	got, err = s.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("overwritten"), got)

	require.NoError(t, s.Put(ctx, "a/c", []byte("sibling")))
	names, err := s.List(ctx, "a/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/b", "a/c"}, names)

	require.NoError(t, s.Delete(ctx, "a/b"))
	_, err = s.Get(ctx, "a/b")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting an already-absent key is not an error.
	require.NoError(t, s.Delete(ctx, "a/b"))
}
