package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderU32LEB128(t *testing.T) {
	// 624485 encodes to 0xE5 0x8E 0x26 per the canonical LEB128 example.
	r := NewReader([]byte{0xE5, 0x8E, 0x26})
	v, err := r.U32()
	require.NoError(t, err)
	require.Equal(t, uint32(624485), v)
	require.True(t, r.EOF())
}

func TestReaderS32LEB128Negative(t *testing.T) {
	// -624485 encodes to 0x9B 0xF1 0x59 per the canonical signed example.
	r := NewReader([]byte{0x9B, 0xF1, 0x59})
	v, err := r.S32()
	require.NoError(t, err)
	require.Equal(t, int32(-624485), v)
}

func TestReaderU64OverflowErrors(t *testing.T) {
	r := NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, err := r.U64()
	require.Error(t, err)
}

func TestReaderNameReadsUTF8ByteVector(t *testing.T) {
	// length-prefixed "hi"
	r := NewReader([]byte{0x02, 'h', 'i'})
	s, err := r.Name()
	require.NoError(t, err)
	require.Equal(t, "hi", s)
}

func TestReaderBytesErrorsOnTruncatedInput(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.Bytes(3)
	require.Error(t, err)
}
