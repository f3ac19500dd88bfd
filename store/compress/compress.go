// Package compress provides optional compression of chunk bytes before
// they reach a blobstore.BlobStore. Compression is transparent to chunk
// identity: a chunk's hash is always computed over its uncompressed
// canonical encoding, so choosing lz4 over zstd (or no compression at
// all) never changes a tree's hash.
package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algo selects the compression algorithm applied to a chunk's bytes at
// rest. LZ4 is the default: it is fast enough not to show up in chunk
// read/write latency. ZSTD trades some of that speed for a better ratio
// and is opt-in for callers storing cold, rarely-read trees.
type Algo uint8

const (
	None Algo = 0
	LZ4  Algo = 1
	ZSTD Algo = 2
)

func (a Algo) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// header is prepended to every compressed payload so Decompress doesn't
// need to be told the algorithm or original size out of band.
// Format: [Algo byte][UncompressedSize uint32][Data...]
const headerSize = 5

// Compress returns data compressed with algo, prefixed with a small
// header Decompress uses to reverse it. Compress(data, None) returns
// data unchanged, with no header, so callers that never opt into
// compression pay zero overhead.
func Compress(data []byte, algo Algo) ([]byte, error) {
	if algo == None || len(data) == 0 {
		return data, nil
	}

	var compressed []byte
	var err error
	switch algo {
	case LZ4:
		compressed, err = compressLZ4(data)
	case ZSTD:
		compressed, err = compressZSTD(data)
	default:
		return nil, fmt.Errorf("compress: unknown algo %d", algo)
	}
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+len(compressed))
	out[0] = byte(algo)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[headerSize:], compressed)
	return out, nil
}

// Decompress reverses Compress. algo must match the value passed to
// Compress; it is not re-derived from the header's algo byte, since a
// store may want to fail loudly on an algo mismatch rather than silently
// decode with whatever byte happens to be on disk.
func Decompress(data []byte, algo Algo) ([]byte, error) {
	if algo == None || len(data) == 0 {
		return data, nil
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("compress: payload too short for header (%d bytes)", len(data))
	}
	gotAlgo := Algo(data[0])
	if gotAlgo != algo {
		return nil, fmt.Errorf("compress: payload algo %s does not match requested %s", gotAlgo, algo)
	}
	uncompressedSize := binary.LittleEndian.Uint32(data[1:headerSize])
	payload := data[headerSize:]

	switch algo {
	case LZ4:
		return decompressLZ4(payload, int(uncompressedSize))
	case ZSTD:
		return decompressZSTD(payload, int(uncompressedSize))
	default:
		return nil, fmt.Errorf("compress: unknown algo %d", algo)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(data) {
		// incompressible: store the block raw. Compressed output is then
		// always shorter than the input, so decompressLZ4 can tell the two
		// apart by length alone.
		return data, nil
	}
	return buf[:n], nil
}

func decompressLZ4(data []byte, uncompressedSize int) ([]byte, error) {
	if len(data) == uncompressedSize {
		// compressLZ4 fell back to storing the block raw.
		return data, nil
	}
	buf := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)
	return enc.EncodeAll(data, nil), nil
}

func decompressZSTD(data []byte, uncompressedSize int) ([]byte, error) {
	dec := getZstdDecoder()
	defer putZstdDecoder(dec)
	out := make([]byte, 0, uncompressedSize)
	return dec.DecodeAll(data, out)
}
