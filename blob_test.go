package prollytree

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlob_LenAndSplice(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlob(ctx, newTestStore(), []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.Len())

	b2, err := b.Splice(ctx, 6, 5, []byte("there"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), b2.Len())
	assert.Equal(t, int64(11), b.Len(), "Splice must not mutate the receiver")

	data, err := io.ReadAll(b2.Reader())
	require.NoError(t, err)
	assert.Equal(t, "hello there", string(data))
}

func TestBlob_SpliceOutOfRange(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlob(ctx, newTestStore(), []byte("abc"))
	require.NoError(t, err)

	_, err = b.Splice(ctx, 10, 0, []byte("x"))
	assert.Error(t, err)

	_, err = b.Splice(ctx, -1, 0, []byte("x"))
	assert.Error(t, err)
}

func TestBlob_ReaderFullRead(t *testing.T) {
	ctx := context.Background()
	content := []byte("the quick brown fox jumps over the lazy dog")
	b, err := NewBlob(ctx, newTestStore(), content)
	require.NoError(t, err)

	data, err := io.ReadAll(b.Reader())
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestBlob_ReaderPartialReads(t *testing.T) {
	ctx := context.Background()
	content := []byte("0123456789")
	b, err := NewBlob(ctx, newTestStore(), content)
	require.NoError(t, err)

	r := b.Reader()
	buf := make([]byte, 3)

	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "012", string(buf[:n]))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "3456789", string(rest))
}

func TestBlob_ReaderEmptyBlob(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlob(ctx, newTestStore(), nil)
	require.NoError(t, err)

	n, err := b.Reader().Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestBlob_ReaderRejectsConcurrentRead(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlob(ctx, newTestStore(), []byte("some bytes"))
	require.NoError(t, err)
	r := b.Reader()

	r.busy.Store(true)
	n, err := r.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrReaderBusy)
}

func TestBlob_ReaderRejectsConcurrentSeek(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlob(ctx, newTestStore(), []byte("some bytes"))
	require.NoError(t, err)
	r := b.Reader()

	r.busy.Store(true)
	_, err = r.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrReaderBusy)
}

func TestBlob_SeekThenRead(t *testing.T) {
	ctx := context.Background()
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	b, err := NewBlob(ctx, newTestStore(), content)
	require.NoError(t, err)

	r := b.Reader()
	pos, err := r.Seek(500, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(500), pos)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content[500:], data)

	pos, err = r.Seek(-100, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(900), pos)

	pos, err = r.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), pos)
	n, err := r.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestBlob_SeekOutOfRange(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlob(ctx, newTestStore(), []byte("abc"))
	require.NoError(t, err)
	r := b.Reader()

	_, err = r.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = r.Seek(100, io.SeekStart)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestBlob_CommitAndOpen(t *testing.T) {
	ctx := context.Background()
	vrw := newTestStore()
	content := []byte("persisted blob contents")
	b, err := NewBlob(ctx, vrw, content)
	require.NoError(t, err)

	ref, err := b.Commit(ctx)
	require.NoError(t, err)

	b2, err := OpenBlob(ctx, vrw, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(b2.Reader())
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestBlob_Diff(t *testing.T) {
	ctx := context.Background()
	a, err := NewBlob(ctx, newTestStore(), []byte("aaaabbbbcccc"))
	require.NoError(t, err)
	b, err := a.Splice(ctx, 4, 4, []byte("zzzz"))
	require.NoError(t, err)

	changes, err := a.Diff(ctx, b, 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, changes)
}
