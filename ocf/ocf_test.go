package ocf_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brisktype/avro/ocf"
)

const personSchema = `{
	"type": "record",
	"name": "Person",
	"fields": [
		{"name": "name", "type": "string"},
		{"name": "age", "type": "int"}
	]
}`

func TestEncoderDecoder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer

	enc, err := ocf.NewEncoder(personSchema, &buf, ocf.WithBlockLength(2))
	require.NoError(t, err)

	people := []map[string]any{
		{"name": "Ada", "age": int32(30)},
		{"name": "Alan", "age": int32(35)},
		{"name": "Grace", "age": int32(40)},
	}
	for _, p := range people {
		require.NoError(t, enc.Encode(p))
	}
	require.NoError(t, enc.Close())

	dec, err := ocf.NewDecoder(&buf)
	require.NoError(t, err)

	var got []map[string]any
	for dec.HasNext() {
		v, err := dec.Decode()
		require.NoError(t, err)
		got = append(got, v.(map[string]any))
	}
	require.NoError(t, dec.Error())
	assert.Equal(t, people, got)
}

func TestEncoderDecoder_EmptyFile(t *testing.T) {
	var buf bytes.Buffer

	enc, err := ocf.NewEncoder(personSchema, &buf)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NotZero(t, buf.Len(), "closing with no records still must emit the header")

	dec, err := ocf.NewDecoder(&buf)
	require.NoError(t, err)
	assert.False(t, dec.HasNext())
	require.NoError(t, dec.Error())
}

func TestEncoderDecoder_Deflate(t *testing.T) {
	var buf bytes.Buffer

	enc, err := ocf.NewEncoder(personSchema, &buf, ocf.WithCodec(ocf.Deflate))
	require.NoError(t, err)
	require.NoError(t, enc.Encode(map[string]any{"name": "Ada", "age": int32(30)}))
	require.NoError(t, enc.Close())

	dec, err := ocf.NewDecoder(&buf)
	require.NoError(t, err)
	require.True(t, dec.HasNext())
	v, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ada", "age": int32(30)}, v)
}

func TestEncoderDecoder_Bzip2(t *testing.T) {
	var buf bytes.Buffer

	enc, err := ocf.NewEncoder(personSchema, &buf, ocf.WithCodec(ocf.Bzip2))
	require.NoError(t, err)
	require.NoError(t, enc.Encode(map[string]any{"name": "Grace", "age": int32(40)}))
	require.NoError(t, enc.Close())

	dec, err := ocf.NewDecoder(&buf)
	require.NoError(t, err)
	require.True(t, dec.HasNext())
	v, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Grace", "age": int32(40)}, v)
}

func TestEncoderDecoder_Snappy(t *testing.T) {
	var buf bytes.Buffer

	enc, err := ocf.NewEncoder(personSchema, &buf, ocf.WithCodec(ocf.Snappy))
	require.NoError(t, err)
	require.NoError(t, enc.Encode(map[string]any{"name": "Alan", "age": int32(35)}))
	require.NoError(t, enc.Close())

	dec, err := ocf.NewDecoder(&buf)
	require.NoError(t, err)
	require.True(t, dec.HasNext())
	v, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Alan", "age": int32(35)}, v)
}

func TestDecoder_RejectsNonContainerFile(t *testing.T) {
	_, err := ocf.NewDecoder(bytes.NewReader([]byte("not a container file")))
	require.Error(t, err)
}

func TestEncoder_Metadata(t *testing.T) {
	var buf bytes.Buffer

	enc, err := ocf.NewEncoder(personSchema, &buf, ocf.WithMetadata(map[string][]byte{
		"app.owner": []byte("directory-team"),
	}))
	require.NoError(t, err)
	require.NoError(t, enc.Encode(map[string]any{"name": "Ada", "age": int32(30)}))
	require.NoError(t, enc.Close())

	dec, err := ocf.NewDecoder(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("directory-team"), dec.Metadata()["app.owner"])
}
