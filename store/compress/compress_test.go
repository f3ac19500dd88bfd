package compress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(s string, n int) []byte {
	return []byte(strings.Repeat(s, n))
}

func TestCompress_NoneIsNoop(t *testing.T) {
	data := repeat("hello world ", 50)
	out, err := Compress(data, None)
	require.NoError(t, err)
	assert.Equal(t, data, out, "None must return the input unchanged")

	back, err := Decompress(out, None)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestCompress_EmptyInput(t *testing.T) {
	out, err := Compress(nil, LZ4)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCompress_RoundTripLZ4(t *testing.T) {
	data := repeat("the quick brown fox jumps over the lazy dog. ", 200)
	compressed, err := Compress(data, LZ4)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(compressed, []byte{byte(LZ4)}))

	back, err := Decompress(compressed, LZ4)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestCompress_RoundTripZSTD(t *testing.T) {
	data := repeat("the quick brown fox jumps over the lazy dog. ", 200)
	compressed, err := Compress(data, ZSTD)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(compressed, []byte{byte(ZSTD)}))

	back, err := Decompress(compressed, ZSTD)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestCompress_IncompressibleData(t *testing.T) {
	// Random-looking, short, and unlikely to compress smaller than the
	// header + block overhead; exercises the raw-storage fallback path.
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	compressed, err := Compress(data, LZ4)
	require.NoError(t, err)

	back, err := Decompress(compressed, LZ4)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestDecompress_AlgoMismatch(t *testing.T) {
	data := repeat("payload", 10)
	compressed, err := Compress(data, LZ4)
	require.NoError(t, err)

	_, err = Decompress(compressed, ZSTD)
	assert.Error(t, err)
}

func TestDecompress_PayloadTooShort(t *testing.T) {
	_, err := Decompress([]byte{1, 2}, LZ4)
	assert.Error(t, err)
}

func TestAlgo_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "lz4", LZ4.String())
	assert.Equal(t, "zstd", ZSTD.String())
	assert.Equal(t, "unknown", Algo(99).String())
}
