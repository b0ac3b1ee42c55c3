// Package soe implements Avro's single-object encoding: a short, fixed
// header (a two-byte magic marker and the writer schema's CRC-64-AVRO
// fingerprint) prepended to a plain Avro binary payload, letting a reader
// identify the schema a standalone message was written with.
package soe

import (
	"bytes"
	"fmt"

	"github.com/brisktype/avro"
)

// Magic is the two-byte marker that opens every single-object-encoded
// payload, per:
// https://avro.apache.org/docs/1.11.1/specification/#single-object-encoding
var Magic = []byte{0xc3, 0x01}

// HeaderSize is the length, in bytes, of Magic plus an 8-byte fingerprint.
const HeaderSize = 10

// ComputeFingerprint returns the CRC-64-AVRO fingerprint single-object
// encoding uses to identify a schema.
func ComputeFingerprint(schema avro.Schema) ([]byte, error) {
	return avro.FingerprintUsing(avro.CRC64Avro, schema)
}

// ParseHeader validates the SOE magic marker and splits data into
// (fingerprint, remaining payload).
func ParseHeader(data []byte) ([]byte, []byte, error) {
	if len(data) < HeaderSize {
		return nil, nil, fmt.Errorf("avro: single-object payload too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[0:2], Magic) {
		return nil, nil, fmt.Errorf("avro: invalid single-object magic: %x", data[0:2])
	}
	return data[2:HeaderSize], data[HeaderSize:], nil
}

// BuildHeader builds an SOE header (magic + fingerprint) for schema.
func BuildHeader(schema avro.Schema) ([]byte, error) {
	fp, err := ComputeFingerprint(schema)
	if err != nil {
		return nil, err
	}
	return BuildHeaderForFingerprint(fp)
}

// BuildHeaderForFingerprint builds an SOE header from an already-computed
// 8-byte fingerprint.
func BuildHeaderForFingerprint(fingerprint []byte) ([]byte, error) {
	if len(fingerprint) != 8 {
		return nil, fmt.Errorf("avro: bad fingerprint length: %d", len(fingerprint))
	}
	header := make([]byte, 0, HeaderSize)
	header = append(header, Magic...)
	header = append(header, fingerprint...)
	return header, nil
}
