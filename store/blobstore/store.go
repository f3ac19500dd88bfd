// Package blobstore provides the storage abstraction a prolly-tree chunk
// store persists through.
//
// BlobStore is deliberately whole-object, not range-based: a chunk store
// always reads or writes one complete, immutable chunk by its content
// hash, never a byte range within one — so unlike a segment store for
// large columnar data, there is no mmap or block-range caching layer
// here. Implementations must be safe for concurrent use.
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem, sharded by hash prefix
//   - s3.Store: Amazon S3, multipart upload for large chunks
//   - minio.Store: any S3-compatible endpoint via minio-go
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist. Implementations
// should return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blobstore: blob not found")

// BlobStore persists and retrieves opaque blobs by name. A chunk store
// uses a chunk's base32-encoded content hash (hash.Hash.String) as the
// name.
type BlobStore interface {
	// Get returns the full contents of the named blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes data under name, overwriting any existing blob of the
	// same name (safe to call twice with identical data: name is
	// content-derived, so a second write is a no-op in all meaningful
	// senses even though implementations may perform it physically).
	Put(ctx context.Context, name string, data []byte) error
	// Has reports whether name exists, without transferring its bytes.
	Has(ctx context.Context, name string) (bool, error)
	// Delete removes the named blob. Deleting a name that does not
	// exist is not an error.
	Delete(ctx context.Context, name string) error
	// List returns every blob name with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
