package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Primitive(t *testing.T) {
	s, err := Parse(`"string"`)
	require.NoError(t, err)
	assert.Equal(t, String, s.Type())
}

func TestParse_Record(t *testing.T) {
	s, err := Parse(`{
		"type": "record",
		"name": "foo",
		"fields": [{"name": "f1", "type": "boolean"}]
	}`)
	require.NoError(t, err)

	rec, ok := s.(*RecordSchema)
	require.True(t, ok)
	assert.Equal(t, "foo", rec.FullName())
	require.Len(t, rec.Fields(), 1)
	assert.Equal(t, "f1", rec.Fields()[0].Name())
}

func TestParse_Union_Nullable(t *testing.T) {
	s, err := Parse(`["null", "string"]`)
	require.NoError(t, err)
	u, ok := s.(*UnionSchema)
	require.True(t, ok)
	assert.True(t, u.Nullable())
}

func TestParse_NamespaceQualifiedName(t *testing.T) {
	s, err := Parse(`{
		"type": "record",
		"name": "Foo",
		"namespace": "com.example",
		"fields": []
	}`)
	require.NoError(t, err)
	rec := s.(*RecordSchema)
	assert.Equal(t, "com.example.Foo", rec.FullName())
}

func TestParse_SelfReference(t *testing.T) {
	s, err := Parse(`{
		"type": "record",
		"name": "Node",
		"fields": [
			{"name": "value", "type": "int"},
			{"name": "next", "type": ["null", "Node"]}
		]
	}`)
	require.NoError(t, err)
	rec := s.(*RecordSchema)
	union := rec.Fields()[1].Type().(*UnionSchema)
	ref, ok := union.Types()[1].(*RefSchema)
	require.True(t, ok)
	assert.Equal(t, "Node", ref.Schema().FullName())
}

func TestFingerprint_GoldenVectors(t *testing.T) {
	tests := []struct {
		schema string
		want   uint64
	}{
		{`"null"`, 7195948357588979594},
		{`{"name":"foo","type":"fixed","size":15}`, 1756455273707447556},
		{`{"name":"foo","type":"record","fields":[{"name":"f1","type":"boolean"}]}`, 7843277075252814651},
	}

	for _, test := range tests {
		s, err := Parse(test.schema)
		require.NoError(t, err)

		fp, err := FingerprintUsing(CRC64Avro, s)
		require.NoError(t, err)
		require.Len(t, fp, 8)

		var got uint64
		for i := 7; i >= 0; i-- {
			got = got<<8 | uint64(fp[i])
		}
		assert.Equal(t, test.want, got)
	}
}

func TestFingerprint_StableAcrossFieldOrderIdentity(t *testing.T) {
	s1, err := Parse(`{"type":"record","name":"R","fields":[{"name":"a","type":"int"}]}`)
	require.NoError(t, err)
	s2, err := Parse(`{"fields":[{"type":"int","name":"a"}],"name":"R","type":"record"}`)
	require.NoError(t, err)

	assert.Equal(t, s1.Fingerprint(), s2.Fingerprint())
}

func TestFingerprint_MD5AndSHA256Differ(t *testing.T) {
	s, err := Parse(`"long"`)
	require.NoError(t, err)

	md5fp, err := FingerprintUsing(MD5Fp, s)
	require.NoError(t, err)
	sha, err := FingerprintUsing(SHA256Fp, s)
	require.NoError(t, err)

	assert.Len(t, md5fp, 16)
	assert.Len(t, sha, 32)
	assert.NotEqual(t, md5fp, sha[:16])
}

func TestSchemas_Get(t *testing.T) {
	s, err := Parse(`["null", "string", {"type":"record","name":"ns.Rec","fields":[]}]`)
	require.NoError(t, err)
	u := s.(*UnionSchema)

	member, idx := u.Types().Get("ns.Rec")
	require.NotNil(t, member)
	assert.Equal(t, 2, idx)

	member, idx = u.Types().Get("missing")
	assert.Nil(t, member)
	assert.Equal(t, -1, idx)
}
