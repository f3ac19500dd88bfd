package val

import "github.com/prollytree/prollytree/hash"

// OrderedKey is the total-order wrapper used as a MetaTuple's boundary key
// and as the sort key of ordered trees. It holds either a materialized
// Value (value-ordered) or a content hash standing in for a not-yet-read
// subtree (hash-ordered).
//
// By fixed convention, every value-ordered key compares less than every
// hash-ordered key; this rule is arbitrary but must be identical between
// any two implementations that exchange persisted trees.
type OrderedKey struct {
	isOrderedByValue bool
	value            Value
	h                hash.Hash
}

// NewOrderedKey wraps a materialized Value as a value-ordered key.
func NewOrderedKey(v Value) OrderedKey {
	return OrderedKey{isOrderedByValue: true, value: v}
}

// OrderedKeyFromHash wraps a content hash as a hash-ordered key, used when
// the natural sort key of a compound value is its own content hash.
func OrderedKeyFromHash(h hash.Hash) OrderedKey {
	return OrderedKey{isOrderedByValue: false, h: h}
}

// IsOrderedByValue reports whether this key carries a materialized Value
// rather than a hash.
func (k OrderedKey) IsOrderedByValue() bool {
	return k.isOrderedByValue
}

// Value returns the wrapped Value. It panics if the key is hash-ordered;
// callers must check IsOrderedByValue first.
func (k OrderedKey) Value() Value {
	if !k.isOrderedByValue {
		panic("val: OrderedKey has no materialized value")
	}
	return k.value
}

// Hash returns the wrapped hash. It panics if the key is value-ordered.
func (k OrderedKey) Hash() hash.Hash {
	if k.isOrderedByValue {
		panic("val: OrderedKey has no hash")
	}
	return k.h
}

// Compare gives OrderedKey's total order: value-ordered keys precede
// hash-ordered keys; two keys of the same kind compare by their payload.
func (k OrderedKey) Compare(other OrderedKey) int {
	if k.isOrderedByValue != other.isOrderedByValue {
		if k.isOrderedByValue {
			return -1
		}
		return 1
	}
	if k.isOrderedByValue {
		return Compare(k.value, other.value)
	}
	return k.h.Compare(other.h)
}

// WriteTo appends the key's encoding: a discriminator byte followed by
// either the materialized value's encoding or the raw hash bytes. This is
// the key encoding prolly's hashItemBytes feeds into the rolling hasher
// for every meta tuple.
func (k OrderedKey) WriteTo(e *Encoder) {
	if k.isOrderedByValue {
		e.writeByte(1)
		k.value.WriteTo(e)
		return
	}
	e.writeByte(0)
	e.WriteRawBytes(k.h[:])
}

// ReadOrderedKey decodes an OrderedKey written by OrderedKey.WriteTo.
func (d *Decoder) ReadOrderedKey() OrderedKey {
	disc := d.readByte()
	if d.err != nil {
		return OrderedKey{}
	}
	if disc == 1 {
		return NewOrderedKey(d.ReadValue())
	}
	if !d.need(hash.ByteLen) {
		return OrderedKey{}
	}
	var h hash.Hash
	copy(h[:], d.buf[d.pos:d.pos+hash.ByteLen])
	d.pos += hash.ByteLen
	return OrderedKeyFromHash(h)
}
