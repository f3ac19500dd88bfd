// Package prolly implements the probabilistic B-tree ("prolly-tree") that
// backs immutable, content-addressed ordered collections. It provides the
// rolling-hash chunker, the lazily-loading cursor, and the sequence/meta
// tuple data model; it knows nothing about List/Map/Set/Blob specifically —
// that knowledge is supplied by a Shape implementation from the root
// prollytree package (list.go, map.go, set.go, blob.go).
package prolly

import (
	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/val"
)

// Shape supplies everything the core needs to treat an opaque leaf item as
// a member of a particular collection kind, without the core depending on
// List/Map/Set/Blob directly. One Shape implementation exists per
// collection kind; leaf and meta sequences carry a reference to theirs.
type Shape interface {
	// LeafKind is the hash.Kind stamped on a leaf chunk of this shape.
	LeafKind() hash.Kind
	// MetaKind is the hash.Kind stamped on a meta chunk one level above a
	// leaf of this shape (and above another meta level of this shape).
	MetaKind() hash.Kind
	// Indexed reports whether this collection is indexed by position
	// (List, Blob) rather than ordered by key (Map, Set).
	Indexed() bool
	// KeyOf returns the OrderedKey of a leaf item, used by ordered shapes
	// for seeking and diffing. Indexed shapes are never asked for this.
	KeyOf(item any) val.OrderedKey
	// EncodeItem appends item's canonical bytes (for hashing and
	// persistence) to e.
	EncodeItem(item any, e *val.Encoder)
	// DecodeItem reads one item back from d.
	DecodeItem(d *val.Decoder) any
	// EqualItems reports whether a and b are the same leaf item, used by
	// the diff functions when comparing leaves.
	EqualItems(a, b any) bool
}
