package val

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTripAllKinds(t *testing.T) {
	values := []Value{
		Bool(true),
		Bool(false),
		Number(3.14159),
		Number(-42),
		String("hello, prolly"),
		String(""),
		Bytes([]byte{1, 2, 3, 255, 0}),
		Bytes(nil),
	}

	e := NewEncoder()
	for _, v := range values {
		v.WriteTo(e)
	}
	require.NoError(t, e.Err())

	d := NewDecoder(e.Bytes())
	for _, want := range values {
		got := d.ReadValue()
		require.NoError(t, d.Err())
		assert.True(t, Equals(want, got), "want %v, got %v", want, got)
	}
}

func TestCodec_RawByteRoundTrip(t *testing.T) {
	e := NewEncoder()
	for _, b := range []byte{0x00, 0x7f, 0xff, 0x42} {
		e.WriteRawByte(b)
	}
	d := NewDecoder(e.Bytes())
	for _, want := range []byte{0x00, 0x7f, 0xff, 0x42} {
		assert.Equal(t, want, d.ReadRawByte())
	}
}

func TestCodec_TruncatedBufferErrors(t *testing.T) {
	d := NewDecoder([]byte{byte(KindString), 10, 0, 0, 0}) // claims 10 bytes, has none
	d.ReadValue()
	assert.Error(t, d.Err())
}

func TestValue_CompareOrdersByKindThenContent(t *testing.T) {
	assert.Equal(t, -1, Compare(Bool(true), Number(0)))
	assert.Equal(t, -1, Compare(Number(1), Number(2)))
	assert.Equal(t, 0, Compare(String("a"), String("a")))
	assert.Equal(t, 1, Compare(Bytes{2}, Bytes{1}))
}

func TestValue_EqualsRejectsMixedKinds(t *testing.T) {
	assert.False(t, Equals(Number(1), String("1")))
	assert.True(t, Equals(Number(1), Number(1)))
}
