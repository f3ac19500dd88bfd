package prollytree

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
	"github.com/prollytree/prollytree/val"
)

// blobShape supplies prolly.Shape for Blob: leaf items are individual
// bytes, indexed by position. A per-byte leaf item is finer-grained
// than List or Map's Value items, which is why EncodeItem/DecodeItem use
// the raw, unframed byte encoding rather than val.Bytes: self-delimiting
// framing on every byte would multiply a Blob's persisted size many
// times over.
type blobShape struct{}

func (blobShape) LeafKind() hash.Kind           { return hash.KindBlobLeaf }
func (blobShape) MetaKind() hash.Kind           { return hash.KindBlobMeta }
func (blobShape) Indexed() bool                 { return true }
func (blobShape) KeyOf(item any) val.OrderedKey { panic("prollytree: Blob is indexed, KeyOf unused") }

func (blobShape) EncodeItem(item any, e *val.Encoder) {
	e.WriteRawByte(item.(byte))
}

func (blobShape) DecodeItem(d *val.Decoder) any {
	return d.ReadRawByte()
}

func (blobShape) EqualItems(a, b any) bool {
	return a.(byte) == b.(byte)
}

// Blob is an immutable, content-addressed byte sequence, chunked by the
// same rolling hash as every other collection rather than at a fixed
// block size — an edit near the start of a multi-gigabyte Blob reuses
// every chunk after the edit's local rolling-hash realignment, the same
// property that makes rsync-style sync efficient.
type Blob struct {
	vrw  prolly.ValueReadWriter
	root prolly.Sequence
}

// NewBlob builds a Blob from data.
func NewBlob(ctx context.Context, vrw prolly.ValueReadWriter, data []byte) (*Blob, error) {
	items := make([]any, len(data))
	for i, b := range data {
		items[i] = b
	}
	root, err := prolly.NewSequence(ctx, vrw, blobShape{}, items)
	if err != nil {
		return nil, fmt.Errorf("prollytree: new blob: %w", err)
	}
	return &Blob{vrw: vrw, root: root}, nil
}

// OpenBlob resolves a previously-committed Blob root by its Ref.
func OpenBlob(ctx context.Context, vr prolly.ValueReader, ref hash.Ref) (*Blob, error) {
	root, err := openRoot(ctx, vr, blobShape{}, ref)
	if err != nil {
		return nil, fmt.Errorf("prollytree: open blob: %w", err)
	}
	return &Blob{vrw: asReadWriter(vr), root: root}, nil
}

// Len returns the number of bytes.
func (b *Blob) Len() int64 {
	return int64(b.root.NumLeaves())
}

// Commit persists every unwritten chunk reachable from the Blob's root.
func (b *Blob) Commit(ctx context.Context) (hash.Ref, error) {
	return prolly.WriteSequence(ctx, b.vrw, b.root)
}

// Splice removes deleteCount bytes starting at offset and inserts insert
// in their place, returning the resulting Blob.
func (b *Blob) Splice(ctx context.Context, offset int, deleteCount int, insert []byte) (*Blob, error) {
	if offset < 0 || int64(offset) > b.Len() {
		return nil, errOutOfRange("blob", offset, int(b.Len())+1)
	}
	anyInsert := make([]any, len(insert))
	for i, v := range insert {
		anyInsert[i] = v
	}
	root, err := prolly.Splice(ctx, b.vrw, blobShape{}, b.root, offset, deleteCount, anyInsert)
	if err != nil {
		return nil, fmt.Errorf("prollytree: blob splice: %w", err)
	}
	return &Blob{vrw: b.vrw, root: root}, nil
}

// Diff reports the edit-distance-bounded difference between b and other.
func (b *Blob) Diff(ctx context.Context, other *Blob, maxMatrix int) ([]prolly.Change, error) {
	return prolly.IndexedDiff(ctx, b.vrw, blobShape{}, b.root, other.root, maxMatrix)
}

// Reader returns a new BlobReader positioned at the start of b. A Blob
// may have any number of live readers over it at once, since readers
// never mutate the tree they walk; each reader just carries its own
// cursor and position.
func (b *Blob) Reader() *BlobReader {
	return &BlobReader{vr: b.vrw, root: b.root, length: b.Len()}
}

// BlobReader reads a Blob's bytes in order through a lazily-advanced
// cursor. It is not safe for concurrent use: Read and Seek guard against
// reentrancy with a busy flag instead of a mutex, since a second
// concurrent call indicates a caller bug (driving a single io.Reader
// from two goroutines) rather than contention worth blocking through.
type BlobReader struct {
	vr     prolly.ValueReader
	root   prolly.Sequence
	length int64

	busy atomic.Bool
	cur  *prolly.Cursor
	pos  int64
}

// Read implements io.Reader.
func (r *BlobReader) Read(p []byte) (int, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return 0, ErrReaderBusy
	}
	defer r.busy.Store(false)

	if r.pos >= r.length {
		return 0, io.EOF
	}
	if r.cur == nil {
		cur, err := prolly.NewCursorAtIndex(context.Background(), r.vr, r.root, int(r.pos))
		if err != nil {
			return 0, translateError(err)
		}
		r.cur = cur
	}

	n := 0
	for n < len(p) {
		if !r.cur.Valid() {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		p[n] = r.cur.CurrentItem().(byte)
		n++
		r.pos++
		if r.pos >= r.length {
			break
		}
		if _, err := r.cur.Advance(context.Background()); err != nil {
			return n, translateError(err)
		}
	}
	return n, nil
}

// Seek implements io.Seeker. It only repositions the reader's logical
// offset; the cursor backing the next Read is rebuilt lazily, the same
// way a freshly-constructed BlobReader defers its first cursor lookup.
func (r *BlobReader) Seek(offset int64, whence int) (int64, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return 0, ErrReaderBusy
	}
	defer r.busy.Store(false)

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = r.length + offset
	default:
		return 0, fmt.Errorf("prollytree: blob reader: invalid whence %d", whence)
	}
	if target < 0 || target > r.length {
		return 0, fmt.Errorf("%w: seek target %d out of range [0,%d]", ErrInvalidIndex, target, r.length)
	}

	r.pos = target
	r.cur = nil
	return r.pos, nil
}
