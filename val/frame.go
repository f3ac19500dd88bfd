package val

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Frame header layout, modeled on the magic/version/checksum/length
// framing a manifest writer uses to make its on-disk bytes
// self-describing: Magic(4) Version(4) Checksum(4) PayloadLength(4),
// all little-endian, followed by the payload itself.
const (
	frameMagic      = 0x504c5954 // "PLYT"
	frameVersion    = 1
	frameHeaderSize = 16
)

// WriteFrame wraps payload in the magic/version/checksum/length header,
// returning a self-describing byte stream ReadFrame can parse back out.
// Framing is a wire-format concern layered outside of whatever content
// hash identifies payload; it never changes payload's meaning, only how
// it's carried.
func WriteFrame(payload []byte) []byte {
	out := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], frameMagic)
	binary.LittleEndian.PutUint32(out[4:8], frameVersion)
	binary.LittleEndian.PutUint32(out[8:12], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(payload)))
	copy(out[frameHeaderSize:], payload)
	return out
}

// ReadFrame validates and strips the header WriteFrame added, returning
// a copy of the original payload. The frame does not record whether a
// zero-length payload was nil; it always comes back as a non-nil empty
// slice.
func ReadFrame(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize {
		return nil, fmt.Errorf("val: frame header truncated (%d bytes)", len(data))
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != frameMagic {
		return nil, fmt.Errorf("val: invalid frame magic %#x", magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != frameVersion {
		return nil, fmt.Errorf("val: unsupported frame version %d", version)
	}
	checksum := binary.LittleEndian.Uint32(data[8:12])
	length := binary.LittleEndian.Uint32(data[12:16])

	if uint64(frameHeaderSize)+uint64(length) > uint64(len(data)) {
		return nil, fmt.Errorf("val: frame payload truncated (want %d, have %d)", length, len(data)-frameHeaderSize)
	}
	payload := data[frameHeaderSize : frameHeaderSize+int(length)]
	if got := crc32.ChecksumIEEE(payload); got != checksum {
		return nil, fmt.Errorf("val: frame checksum mismatch (got %#x, want %#x)", got, checksum)
	}

	out := make([]byte, length)
	copy(out, payload)
	return out, nil
}
