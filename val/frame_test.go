package val

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	for _, payload := range [][]byte{
		[]byte("hello, frame"),
		{},
		nil,
		make([]byte, 4096),
	} {
		framed := WriteFrame(payload)
		got, err := ReadFrame(framed)
		require.NoError(t, err)
		want := payload
		if want == nil {
			want = []byte{}
		}
		assert.Equal(t, want, got)
	}
}

func TestFrame_RejectsBadMagic(t *testing.T) {
	framed := WriteFrame([]byte("payload"))
	framed[0] ^= 0xff
	_, err := ReadFrame(framed)
	assert.Error(t, err)
}

func TestFrame_RejectsBadVersion(t *testing.T) {
	framed := WriteFrame([]byte("payload"))
	framed[4] = 0x7f
	_, err := ReadFrame(framed)
	assert.Error(t, err)
}

func TestFrame_RejectsChecksumMismatch(t *testing.T) {
	framed := WriteFrame([]byte("payload"))
	framed[len(framed)-1] ^= 0xff
	_, err := ReadFrame(framed)
	assert.Error(t, err)
}

func TestFrame_RejectsTruncatedHeader(t *testing.T) {
	_, err := ReadFrame([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestFrame_RejectsTruncatedPayload(t *testing.T) {
	framed := WriteFrame([]byte("payload"))
	_, err := ReadFrame(framed[:len(framed)-2])
	assert.Error(t, err)
}
