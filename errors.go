package prollytree

import (
	"errors"
	"fmt"

	"github.com/prollytree/prollytree/prolly"
)

// ErrNotFound unifies every "referenced chunk does not exist" condition
// surfaced from the prolly core, wrapping the underlying
// *prolly.ErrChunkMissing so callers can still recover the offending
// hash via errors.As when they need to.
var ErrNotFound = errors.New("prollytree: chunk not found")

// ErrReadOnly is returned by a mutating collection method when its
// underlying store was opened through a bare prolly.ValueReader with no
// write capability.
var ErrReadOnly = errors.New("prollytree: store opened read-only, cannot write chunks")

// ErrInvalidIndex is returned by index- or offset-based accessors (List,
// Blob) when the requested position falls outside the collection's
// current bounds.
var ErrInvalidIndex = errors.New("prollytree: index out of range")

// ErrReaderBusy is returned by a BlobReader's Read or Seek when a
// concurrent call is already in flight on the same reader.
var ErrReaderBusy = errors.New("prollytree: concurrent call on the same BlobReader")

// ErrCorrupt indicates a persisted chunk failed its integrity check on
// read — the bytes a BlobStore returned don't hash to the name they were
// stored under. This is always a storage-layer problem, never a
// condition the tree structure itself can recover from.
type ErrCorrupt struct {
	cause error
}

func (e *ErrCorrupt) Error() string { return fmt.Sprintf("prollytree: corrupt chunk: %v", e.cause) }
func (e *ErrCorrupt) Unwrap() error { return e.cause }

// translateError maps errors surfacing from the prolly core into the
// sentinels and typed errors this package exposes, so callers never need
// to import prolly just to check errors.Is/As against its types.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var missing *prolly.ErrChunkMissing
	if errors.As(err, &missing) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
