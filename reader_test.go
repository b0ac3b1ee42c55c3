package avro

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ReadBool(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x00}), 10)
	assert.True(t, r.ReadBool())
	assert.False(t, r.ReadBool())
	require.NoError(t, r.Error)
}

func TestReader_ReadBoolInvalidByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x02}), 10)
	r.ReadBool()
	assert.Error(t, r.Error)
	assert.IsType(t, &MalformedDataError{}, r.Error)
}

// TestReader_ReadInt pins known-good golden vectors for decode, the
// mirror image of TestWriter_WriteInt.
func TestReader_ReadInt(t *testing.T) {
	tests := []struct {
		data []byte
		want int32
	}{
		{data: []byte{0x36}, want: 27},
		{data: []byte{0x0F}, want: -8},
		{data: []byte{0x01}, want: -1},
		{data: []byte{0x00}, want: 0},
		{data: []byte{0x80, 0x01}, want: 64},
		{data: []byte{0xFE, 0xFF, 0xFF, 0xFF, 0x0F}, want: math.MaxInt32},
		{data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, want: math.MinInt32},
	}
	for _, test := range tests {
		r := NewReader(bytes.NewReader(test.data), 10)
		got := r.ReadInt()
		require.NoError(t, r.Error)
		assert.Equal(t, test.want, got)
	}
}

func TestReader_ReadLong(t *testing.T) {
	tests := []struct {
		data []byte
		want int64
	}{
		{data: []byte{0x80, 0x01}, want: 64},
		{data: []byte{0x01}, want: -1},
		{data: []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, want: math.MaxInt64},
		{data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, want: math.MinInt64},
	}
	for _, test := range tests {
		r := NewReader(bytes.NewReader(test.data), 10)
		got := r.ReadLong()
		require.NoError(t, r.Error)
		assert.Equal(t, test.want, got)
	}
}

func TestReader_ReadVarintOverflow(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}), 10)
	r.ReadInt()
	assert.Error(t, r.Error)
	assert.IsType(t, &IntegerOverflowError{}, r.Error)
}

func TestReader_ReadString(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x06, 0x66, 0x6F, 0x6F}), 10)
	assert.Equal(t, "foo", r.ReadString())
	require.NoError(t, r.Error)
}

func TestReader_ReadStringInvalidUTF8(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x02, 0xFF}), 10)
	r.ReadString()
	assert.Error(t, r.Error)
	assert.IsType(t, &MalformedDataError{}, r.Error)
}

func TestReader_ReadBytesNegativeLength(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01}), 10)
	r.ReadBytes()
	assert.Error(t, r.Error)
	assert.IsType(t, &MalformedDataError{}, r.Error)
}

func TestReader_ReadPastEOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xE2}), 10)
	r.ReadInt()
	assert.ErrorIs(t, r.Error, io.ErrUnexpectedEOF)
}

func TestReader_ReadBlockHeader(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x04}), 10)
	count, size := r.ReadBlockHeader()
	require.NoError(t, r.Error)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, int64(0), size)

	r = NewReader(bytes.NewReader([]byte{0x03, 0x0A}), 10)
	count, size = r.ReadBlockHeader()
	require.NoError(t, r.Error)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, int64(5), size)
}

func TestReader_Remaining(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03}), 10)
	r.ReadBool()
	assert.Equal(t, 2, r.Remaining())
}

func TestReader_Reset(t *testing.T) {
	r := &Reader{}
	r.Reset([]byte{0x01})
	assert.True(t, r.ReadBool())
	require.NoError(t, r.Error)
}
