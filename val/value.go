// Package val defines the minimal value surface the prolly-tree core
// depends on: a totally ordered, content-hashable Value, the OrderedKey
// wrapper used as a tree boundary key, and a closed set of primitive Value
// kinds (Bool, Number, String, Bytes) sufficient to exercise List, Map,
// Set and Blob end to end.
//
// This is deliberately not a type system: there is no schema, no compound
// or user-defined kinds, no validation beyond what each primitive needs to
// encode itself. A caller who needs richer values implements Value
// themselves; the core only ever calls Compare, Equals and WriteTo.
package val

import "fmt"

// Kind identifies a primitive Value's runtime type, used both as the
// leading byte of its persisted encoding and as the first term of Compare
// when comparing values of different kinds.
type Kind byte

const (
	KindBool Kind = iota
	KindNumber
	KindString
	KindBytes
)

// Value is the opaque, totally ordered, content-hashable item type the
// prolly-tree core operates on. Implementations must be immutable.
type Value interface {
	// Kind identifies the concrete value shape for ordering across kinds
	// and for the leading byte of the persisted/hashed encoding.
	Kind() Kind
	// Compare gives a total order: -1, 0 or 1. Values of different Kinds
	// order by Kind first, so Compare is total across the whole Value
	// universe, not just within one concrete type.
	Compare(other Value) int
	// Equals reports value equality. For primitive kinds this agrees with
	// Compare(other) == 0, but the two are kept distinct because compound
	// values (outside this package's scope) may order by content hash
	// while still supporting exact equality some other way.
	Equals(other Value) bool
	// WriteTo appends this value's canonical byte encoding to e. The same
	// bytes are fed to the rolling hasher (for chunk boundary detection)
	// and to the persisted chunk format, so this encoding must be stable
	// and self-delimiting.
	WriteTo(e *Encoder)
}

// Compare orders two arbitrary Values, ordering by Kind first so it is
// total even across mixed-kind collections (a List may hold any Value).
func Compare(a, b Value) int {
	if a.Kind() != b.Kind() {
		if a.Kind() < b.Kind() {
			return -1
		}
		return 1
	}
	return a.Compare(b)
}

// Equals reports whether a and b are the same value.
func Equals(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	return a.Equals(b)
}

// Bool is a boolean Value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

func (b Bool) Compare(other Value) int {
	o := other.(Bool)
	if b == o {
		return 0
	}
	if !bool(b) {
		return -1
	}
	return 1
}

func (b Bool) Equals(other Value) bool {
	o, ok := other.(Bool)
	return ok && b == o
}

func (b Bool) WriteTo(e *Encoder) {
	e.writeKind(KindBool)
	if b {
		e.writeByte(1)
	} else {
		e.writeByte(0)
	}
}

func (b Bool) String() string { return fmt.Sprintf("%t", bool(b)) }

// Number is a float64-valued Value, used for both integral and fractional
// numeric content.
type Number float64

func (Number) Kind() Kind { return KindNumber }

func (n Number) Compare(other Value) int {
	o := other.(Number)
	switch {
	case n < o:
		return -1
	case n > o:
		return 1
	default:
		return 0
	}
}

func (n Number) Equals(other Value) bool {
	o, ok := other.(Number)
	return ok && n == o
}

func (n Number) WriteTo(e *Encoder) {
	e.writeKind(KindNumber)
	e.writeFloat64(float64(n))
}

func (n Number) String() string { return fmt.Sprintf("%g", float64(n)) }

// String is a UTF-8 string Value.
type String string

func (String) Kind() Kind { return KindString }

func (s String) Compare(other Value) int {
	o := other.(String)
	switch {
	case s < o:
		return -1
	case s > o:
		return 1
	default:
		return 0
	}
}

func (s String) Equals(other Value) bool {
	o, ok := other.(String)
	return ok && s == o
}

func (s String) WriteTo(e *Encoder) {
	e.writeKind(KindString)
	e.writeString(string(s))
}

func (s String) String() string { return string(s) }

// Bytes is a raw byte-slice Value, lexicographically ordered.
type Bytes []byte

func (Bytes) Kind() Kind { return KindBytes }

func (b Bytes) Compare(other Value) int {
	o := other.(Bytes)
	n := len(b)
	if len(o) < n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		if b[i] != o[i] {
			if b[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(b) < len(o):
		return -1
	case len(b) > len(o):
		return 1
	default:
		return 0
	}
}

func (b Bytes) Equals(other Value) bool {
	o, ok := other.(Bytes)
	if !ok || len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

func (b Bytes) WriteTo(e *Encoder) {
	e.writeKind(KindBytes)
	e.writeBytes(b)
}
