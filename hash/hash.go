// Package hash provides the fixed-size content digest used to address
// persisted prolly-tree chunks.
package hash

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
)

// ByteLen is the length of a Hash in bytes.
const ByteLen = sha256.Size

// StringLen is the length of a Hash's canonical string encoding.
const StringLen = 52 // base32, no padding, for a 32-byte digest

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Hash is the content address of a persisted chunk: the SHA-256 digest of
// its serialized bytes. Two chunks with identical bytes have identical
// Hashes regardless of when or by whom they were written.
type Hash [ByteLen]byte

// Of computes the content hash of data.
func Of(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(sum)
}

// IsEmpty reports whether h is the zero Hash, used as the not-present sentinel.
func (h Hash) IsEmpty() bool {
	return h == Hash{}
}

// String renders h as a base32 string suitable for use as a blob-store key.
func (h Hash) String() string {
	return encoding.EncodeToString(h[:])
}

// Parse decodes the canonical string encoding produced by String.
func Parse(s string) (Hash, error) {
	if len(s) != StringLen {
		return Hash{}, fmt.Errorf("hash: invalid length %d", len(s))
	}
	b, err := encoding.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("hash: %w", err)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// Compare gives a total order over Hashes, used when a Hash stands in for
// an unmaterialized value inside an OrderedKey.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
