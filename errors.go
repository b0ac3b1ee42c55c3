package avro

import (
	"fmt"
)

// MalformedDataError reports that a byte pattern does not match the schema
// that is supposed to describe it (bad varint, invalid UTF-8, out-of-range
// union index, a boolean byte other than 0x00/0x01, a negative length, ...).
type MalformedDataError struct {
	Op     string
	Reason string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("avro: %s: %s", e.Op, e.Reason)
}

// IntegerOverflowError reports that a decoded varint does not fit in the
// target integer width, or used more continuation bytes than the width
// permits.
type IntegerOverflowError struct {
	Op string
}

func (e *IntegerOverflowError) Error() string {
	return fmt.Sprintf("avro: %s: integer overflow", e.Op)
}

// ValidationError reports that a value does not satisfy its schema on write.
// Schema is either a Schema or a LogicalSchema, whichever rejected the value.
type ValidationError struct {
	Schema any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("avro: value invalid for schema %v: %s", e.Schema, e.Reason)
}

// SchemaMismatchError reports that a writer schema and reader schema cannot
// be resolved under Avro's schema resolution rules.
type SchemaMismatchError struct {
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("avro: schema mismatch: %s", e.Reason)
}

// SyncMismatchError reports that a container-file block's trailing sync
// marker did not match the header's sync marker.
type SyncMismatchError struct{}

func (e *SyncMismatchError) Error() string {
	return "avro: block sync marker does not match header"
}

// UnknownCodecError reports that a container file names an unrecognized
// compression codec.
type UnknownCodecError struct {
	Name string
}

func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("avro: unknown codec %q", e.Name)
}

// UnknownFingerprintError reports that a single-object-encoded payload's
// fingerprint has no registered schema.
type UnknownFingerprintError struct {
	Fingerprint []byte
}

func (e *UnknownFingerprintError) Error() string {
	return fmt.Sprintf("avro: unknown schema fingerprint %x", e.Fingerprint)
}
