package prollytree

import (
	"context"
	"fmt"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
)

// openRoot resolves ref through vr and decodes it with shape, the
// common first step of OpenList/OpenMap/OpenSet/OpenBlob.
func openRoot(ctx context.Context, vr prolly.ValueReader, shape prolly.Shape, ref hash.Ref) (prolly.Sequence, error) {
	c, err := vr.ReadValue(ctx, ref.TargetHash)
	if err != nil {
		return nil, translateError(err)
	}
	return prolly.DecodeSequence(shape, c)
}

// readOnlyWriter adapts a bare prolly.ValueReader to prolly.ValueReadWriter
// so Open* constructors can accept either. Any attempt to mutate the
// resulting collection fails at WriteValue time rather than at Open time,
// since read-only collections are perfectly usable for reads and diffs.
type readOnlyWriter struct {
	prolly.ValueReader
}

func (readOnlyWriter) WriteValue(context.Context, prolly.Chunk) (hash.Ref, error) {
	return hash.Ref{}, ErrReadOnly
}

// asReadWriter returns vr unchanged if it already implements
// ValueReadWriter, or wraps it in a read-only adapter otherwise.
func asReadWriter(vr prolly.ValueReader) prolly.ValueReadWriter {
	if vrw, ok := vr.(prolly.ValueReadWriter); ok {
		return vrw
	}
	return readOnlyWriter{vr}
}

// errOutOfRange is a helper for index-bounds errors shared by the
// indexed collections.
func errOutOfRange(kind string, idx, length int) error {
	return fmt.Errorf("%w: %s index %d out of range [0,%d)", ErrInvalidIndex, kind, idx, length)
}
