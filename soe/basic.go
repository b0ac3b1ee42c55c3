package soe

import (
	"bytes"
	"fmt"

	"github.com/brisktype/avro"
)

// Codec encodes and decodes plain Avro values to and from bytes, wrapping
// the binary payload in an SOE frame carrying the writer schema's
// fingerprint.
type Codec struct {
	schema avro.Schema
	header []byte
}

// NewCodec creates a Codec for schema, precomputing its SOE header.
func NewCodec(schema avro.Schema) (*Codec, error) {
	header, err := BuildHeader(schema)
	if err != nil {
		return nil, err
	}
	return &Codec{schema: schema, header: header}, nil
}

// Encode marshals v to SOE-framed Avro binary.
func (c *Codec) Encode(v any) ([]byte, error) {
	data, err := avro.Marshal(c.schema, v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(c.header)+len(data))
	out = append(out, c.header...)
	out = append(out, data...)
	return out, nil
}

// Decode unmarshals a value from SOE-encoded Avro binary, failing if the
// payload's fingerprint doesn't match the schema held by c.
func (c *Codec) Decode(data []byte) (any, error) {
	fingerprint, payload, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	expected := c.fingerprint()
	if !bytes.Equal(fingerprint, expected) {
		return nil, fmt.Errorf("avro: bad fingerprint %x, expected %x", fingerprint, expected)
	}
	return avro.Unmarshal(c.schema, payload)
}

// DecodeUnverified unmarshals a value from SOE-encoded Avro binary without
// validating the payload's fingerprint against the held schema.
func (c *Codec) DecodeUnverified(data []byte) (any, error) {
	_, payload, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	return avro.Unmarshal(c.schema, payload)
}

func (c *Codec) fingerprint() []byte {
	return c.header[2:]
}
