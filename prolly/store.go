package prolly

import (
	"context"
	"fmt"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/val"
)

// Chunk is a persisted node's serialized bytes together with the metadata
// needed to decode it without re-deriving anything from context: its Kind
// (collection + leaf/meta) and tree Level.
type Chunk struct {
	Kind  hash.Kind
	Level uint64
	Data  []byte
}

// ValueReader resolves a persisted chunk by its content hash. A ref that
// cannot be resolved is a fatal storage-integrity error: it indicates
// corruption, never a retryable condition the core itself should handle.
type ValueReader interface {
	ReadValue(ctx context.Context, h hash.Hash) (Chunk, error)
}

// ValueReadWriter extends ValueReader with persistence. WriteValue must be
// idempotent by content hash: writing byte-identical chunks twice returns
// the same Ref and performs at most one physical write.
type ValueReadWriter interface {
	ValueReader
	WriteValue(ctx context.Context, c Chunk) (hash.Ref, error)
}

// EncodeSequence serializes seq into a Chunk per the persisted layout:
// leaf chunks encode (kind, count, items...); meta chunks encode
// (kind, tuple count, (ref, key, numLeaves)...). Two trees produce the
// same bytes iff they represent the same logical sequence, since every
// field written here is exactly the field the rolling hasher also saw.
func EncodeSequence(seq Sequence) Chunk {
	shape := seq.Shape()
	e := val.NewEncoder()
	if !seq.IsMeta() {
		e.WriteUint32(uint32(seq.Len()))
		for i := 0; i < seq.Len(); i++ {
			shape.EncodeItem(seq.Item(i), e)
		}
		return Chunk{Kind: shape.LeafKind(), Level: seq.Level(), Data: e.Bytes()}
	}
	e.WriteUint32(uint32(seq.Len()))
	for i := 0; i < seq.Len(); i++ {
		mt := seq.Item(i).(MetaTuple)
		val.WriteRef(e, mt.Ref)
		mt.Key.WriteTo(e)
		e.WriteUint64(mt.NumLeaves)
	}
	return Chunk{Kind: shape.MetaKind(), Level: seq.Level(), Data: e.Bytes()}
}

// DecodeSequence is the inverse of EncodeSequence, given the Shape the
// caller already knows the chunk must have (derived from the MetaTuple or
// collection root that pointed at it).
func DecodeSequence(shape Shape, c Chunk) (Sequence, error) {
	d := val.NewDecoder(c.Data)
	count := d.ReadUint32()
	if c.Kind.IsMeta() {
		items := make([]MetaTuple, count)
		for i := range items {
			ref := d.ReadRef()
			key := d.ReadOrderedKey()
			numLeaves := d.ReadUint64()
			items[i] = MetaTuple{Ref: ref, Key: key, NumLeaves: numLeaves}
		}
		if d.Err() != nil {
			return nil, fmt.Errorf("prolly: decode meta chunk: %w", d.Err())
		}
		return newMetaSequence(shape, c.Level, items), nil
	}
	items := make([]any, count)
	for i := range items {
		items[i] = shape.DecodeItem(d)
	}
	if d.Err() != nil {
		return nil, fmt.Errorf("prolly: decode leaf chunk: %w", d.Err())
	}
	return newLeafSequence(shape, items), nil
}

// ErrChunkMissing is returned (wrapped, with the offending hash) when a
// ValueReader cannot resolve a ref the tree structure says must exist.
type ErrChunkMissing struct {
	Hash hash.Hash
}

func (e *ErrChunkMissing) Error() string {
	return fmt.Sprintf("prolly: chunk missing for ref %s", e.Hash)
}

// WriteSequence persists seq's own chunk through vrw.WriteValue (which is
// idempotent by content hash) and returns a Ref addressing it.
func WriteSequence(ctx context.Context, vrw ValueReadWriter, seq Sequence) (hash.Ref, error) {
	c := EncodeSequence(seq)
	return vrw.WriteValue(ctx, c)
}
