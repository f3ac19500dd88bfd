// Package prollytree implements content-addressed, immutable ordered
// collections backed by a probabilistic B-tree ("prolly-tree"): List,
// Map, Set and Blob, each a persistent value whose structural sharing
// and diffing come from chunking its contents with a rolling content
// hash rather than at fixed positions or block boundaries.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := store.NewChunkStore(blobstore.NewMemoryStore())
//
//	m, _ := prollytree.NewMap(ctx, store, nil, nil)
//	m, _ = m.Set(ctx, val.String("a"), val.Number(1))
//	v, ok, _ := m.Get(ctx, val.String("a"))
//
//	ref, _ := m.Commit(ctx)           // persist every chunk
//	m2, _ := prollytree.OpenMap(ctx, store, ref)
//
// # Structural Sharing
//
// Every mutation returns a new collection value; the receiver is left
// untouched and any chunk the edit didn't touch is shared between old
// and new. Two trees built from the same content hash to the same
// chunks, regardless of the edit history that produced them.
//
// # Persistence
//
// Collections are built against a prolly.ValueReadWriter — typically a
// store.ChunkStore wrapping a store/blobstore.BlobStore (memory, local
// disk, S3, or any S3-compatible endpoint via MinIO), optionally layered
// with store/cache for hot chunks, store/compress for at-rest
// compression, and store/resource for bounding memory/concurrency/I-O.
//
// # Diffing
//
// List and Blob (position-ordered) diff by bounded edit distance via
// Diff(ctx, other, maxMatrix); Map and Set (key/value-ordered) diff by a
// parallel cursor walk via Diff(ctx, other), which can skip whole
// unchanged subtrees in O(1) when their content hashes match.
package prollytree
