package soe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brisktype/avro"
	"github.com/brisktype/avro/soe"
)

const widgetSchema = `{
	"type": "record",
	"name": "Widget",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "label", "type": "string"}
	]
}`

func TestCodec_EncodeDecode(t *testing.T) {
	schema, err := avro.Parse(widgetSchema)
	require.NoError(t, err)

	c, err := soe.NewCodec(schema)
	require.NoError(t, err)

	v := map[string]any{"id": int64(7), "label": "gadget"}
	data, err := c.Encode(v)
	require.NoError(t, err)

	assert.Equal(t, soe.Magic, data[0:2])
	assert.Greater(t, len(data), soe.HeaderSize)

	got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestCodec_Decode_WrongFingerprint(t *testing.T) {
	schema, err := avro.Parse(widgetSchema)
	require.NoError(t, err)
	otherSchema, err := avro.Parse(`"string"`)
	require.NoError(t, err)

	c, err := soe.NewCodec(schema)
	require.NoError(t, err)
	other, err := soe.NewCodec(otherSchema)
	require.NoError(t, err)

	data, err := other.Encode("not a widget")
	require.NoError(t, err)

	_, err = c.Decode(data)
	require.Error(t, err)
}

func TestCodec_DecodeUnverified_IgnoresFingerprint(t *testing.T) {
	schema, err := avro.Parse(widgetSchema)
	require.NoError(t, err)

	c, err := soe.NewCodec(schema)
	require.NoError(t, err)

	v := map[string]any{"id": int64(1), "label": "thing"}
	data, err := c.Encode(v)
	require.NoError(t, err)

	// Corrupt the header's fingerprint bytes while leaving the payload
	// (the part Decode actually parses against the schema) untouched.
	data[2] ^= 0xff

	_, err = c.Decode(data)
	require.Error(t, err)

	got, err := c.DecodeUnverified(data)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestParseHeader_TooShort(t *testing.T) {
	_, _, err := soe.ParseHeader([]byte{0xc3, 0x01, 1, 2})
	require.Error(t, err)
}

func TestParseHeader_BadMagic(t *testing.T) {
	data := make([]byte, soe.HeaderSize)
	data[0], data[1] = 0x00, 0x00
	_, _, err := soe.ParseHeader(data)
	require.Error(t, err)
}

func TestComputeFingerprint_Deterministic(t *testing.T) {
	schema, err := avro.Parse(widgetSchema)
	require.NoError(t, err)

	fp1, err := soe.ComputeFingerprint(schema)
	require.NoError(t, err)
	fp2, err := soe.ComputeFingerprint(schema)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 8)
}
