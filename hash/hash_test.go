package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_IsDeterministic(t *testing.T) {
	a := Of([]byte("chunk contents"))
	b := Of([]byte("chunk contents"))
	assert.Equal(t, a, b)

	c := Of([]byte("different contents"))
	assert.NotEqual(t, a, c)
}

func TestHash_StringRoundTrip(t *testing.T) {
	h := Of([]byte("round trip me"))
	s := h.String()
	assert.Len(t, s, StringLen)

	got, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHash_IsEmpty(t *testing.T) {
	var zero Hash
	assert.True(t, zero.IsEmpty())
	assert.False(t, Of([]byte("x")).IsEmpty())
}

func TestHash_CompareTotalOrder(t *testing.T) {
	a := Hash{0, 0, 0}
	b := Hash{0, 0, 1}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestHash_UsableAsMapKey(t *testing.T) {
	m := map[Hash]string{}
	h := Of([]byte("key"))
	m[h] = "value"
	assert.Equal(t, "value", m[Of([]byte("key"))])
}

func TestParse_RejectsWrongLength(t *testing.T) {
	_, err := Parse("tooshort")
	assert.Error(t, err)
}

func TestRef_IsZero(t *testing.T) {
	assert.True(t, Ref{}.IsZero())
	assert.False(t, NewRef(Of([]byte("x")), 1, KindListLeaf).IsZero())
}

func TestKind_IsMeta(t *testing.T) {
	assert.False(t, KindListLeaf.IsMeta())
	assert.True(t, KindListMeta.IsMeta())
	assert.True(t, KindMapMeta.IsMeta())
	assert.False(t, KindSetLeaf.IsMeta())
}
