package avro

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buffer exposes the Writer's pending bytes for golden-vector assertions.
func (w *Writer) buffer() []byte { return w.buf }

func TestWriter_WriteBool(t *testing.T) {
	w := NewWriter(nil, 10)
	w.WriteBool(true)
	assert.Equal(t, []byte{0x01}, w.buffer())

	w = NewWriter(nil, 10)
	w.WriteBool(false)
	assert.Equal(t, []byte{0x00}, w.buffer())
}

// TestWriter_WriteInt pins the zig-zag varint encoding against known-good
// golden vectors, including negative values that exercise the bijection the
// sign-extension bug this test suite caught would otherwise blow up.
func TestWriter_WriteInt(t *testing.T) {
	tests := []struct {
		data int32
		want []byte
	}{
		{data: 27, want: []byte{0x36}},
		{data: -8, want: []byte{0x0F}},
		{data: -1, want: []byte{0x01}},
		{data: 0, want: []byte{0x00}},
		{data: 1, want: []byte{0x02}},
		{data: -64, want: []byte{0x7F}},
		{data: 64, want: []byte{0x80, 0x01}},
		{data: 123456789, want: []byte{0xAA, 0xB4, 0xDE, 0x75}},
		{data: math.MaxInt32, want: []byte{0xFE, 0xFF, 0xFF, 0xFF, 0x0F}},
		{data: math.MinInt32, want: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	}

	for _, test := range tests {
		w := NewWriter(nil, 50)
		w.WriteInt(test.data)
		assert.Equal(t, test.want, w.buffer(), "int %d", test.data)
	}
}

func TestWriter_WriteLong(t *testing.T) {
	tests := []struct {
		data int64
		want []byte
	}{
		{data: 27, want: []byte{0x36}},
		{data: -8, want: []byte{0x0F}},
		{data: -1, want: []byte{0x01}},
		{data: 0, want: []byte{0x00}},
		{data: 1, want: []byte{0x02}},
		{data: -64, want: []byte{0x7F}},
		{data: 64, want: []byte{0x80, 0x01}},
		{data: math.MaxInt64, want: []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
		{data: math.MinInt64, want: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}

	for _, test := range tests {
		w := NewWriter(nil, 50)
		w.WriteLong(test.data)
		assert.Equal(t, test.want, w.buffer(), "long %d", test.data)
	}
}

func TestWriter_WriteFloat(t *testing.T) {
	w := NewWriter(nil, 10)
	w.WriteFloat(0)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, w.buffer())

	w = NewWriter(nil, 10)
	w.WriteFloat(1)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, w.buffer())

	w = NewWriter(nil, 10)
	w.WriteFloat(-1)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0xBF}, w.buffer())
}

func TestWriter_WriteDouble(t *testing.T) {
	w := NewWriter(nil, 10)
	w.WriteDouble(0)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, w.buffer())

	w = NewWriter(nil, 10)
	w.WriteDouble(1)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F}, w.buffer())

	w = NewWriter(nil, 10)
	w.WriteDouble(-1)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0xBF}, w.buffer())
}

// TestWriter_WriteBytesAndString pins the canonical example: the string
// "foo" encodes to 0x06 0x66 0x6F 0x6F.
func TestWriter_WriteBytesAndString(t *testing.T) {
	w := NewWriter(nil, 10)
	w.WriteString("foo")
	assert.Equal(t, []byte{0x06, 0x66, 0x6F, 0x6F}, w.buffer())
}

func TestWriter_WriteBlockHeader(t *testing.T) {
	w := NewWriter(nil, 10)
	w.WriteBlockHeader(2, 0, false)
	assert.Equal(t, []byte{0x04}, w.buffer())

	w = NewWriter(nil, 10)
	w.WriteBlockHeader(2, 5, true)
	assert.Equal(t, []byte{0x03, 0x0A}, w.buffer())
}

func TestWriter_Flush(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 10)
	_, _ = w.Write([]byte("test"))

	require.NoError(t, w.Flush())
	assert.Equal(t, []byte("test"), buf.Bytes())
}

func TestWriter_FlushNoWriter(t *testing.T) {
	w := NewWriter(nil, 10)
	_, _ = w.Write([]byte("test"))

	assert.NoError(t, w.Flush())
}

func TestWriter_FlushReturnsWriterError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 10)
	w.Error = errors.New("test")

	assert.Error(t, w.Flush())
}

func TestWriter_Reset(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(nil, 10)
	w.Reset(&buf)
	_, _ = w.Write([]byte("test"))

	require.NoError(t, w.Flush())
	assert.Equal(t, []byte("test"), buf.Bytes())
}

// TestWriteInt_ZigZagBijection checks the ZigZag bijection property: for
// all 64-bit signed n, from_zigzag(to_zigzag(n)) == n. Run across int32 and
// int64 by round-tripping through Write/Read.
func TestWriteInt_ZigZagBijection(t *testing.T) {
	values := []int32{0, 1, -1, 27, -8, -64, 64, math.MaxInt32, math.MinInt32, math.MinInt32 + 1}
	for _, v := range values {
		w := NewWriter(nil, 10)
		w.WriteInt(v)
		r := NewReader(bytes.NewReader(w.buffer()), 10)
		got := r.ReadInt()
		require.NoError(t, r.Error)
		assert.Equal(t, v, got)
	}
}

func TestWriteLong_ZigZagBijection(t *testing.T) {
	values := []int64{0, 1, -1, 27, -8, -64, 64, math.MaxInt64, math.MinInt64, math.MinInt64 + 1, -9223372036854775808}
	for _, v := range values {
		w := NewWriter(nil, 10)
		w.WriteLong(v)
		r := NewReader(bytes.NewReader(w.buffer()), 10)
		got := r.ReadLong()
		require.NoError(t, r.Error)
		assert.Equal(t, v, got)
	}
}

// TestVarintBound checks the varint-bound property: a 32-bit value never
// encodes to more than 5 bytes, a 64-bit value never more than 10.
func TestVarintBound(t *testing.T) {
	w := NewWriter(nil, 10)
	w.WriteInt(math.MinInt32)
	assert.LessOrEqual(t, len(w.buffer()), 5)

	w = NewWriter(nil, 20)
	w.WriteLong(math.MinInt64)
	assert.LessOrEqual(t, len(w.buffer()), 10)
}
