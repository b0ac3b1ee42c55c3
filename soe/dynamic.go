package soe

import (
	"context"
	"errors"
	"fmt"

	"github.com/brisktype/avro"
)

// ErrUnknownSchema must be returned by a SchemaResolver when no schema is
// registered for the requested fingerprint.
var ErrUnknownSchema = errors.New("avro: unknown schema")

// SchemaResolver looks up a writer schema by its CRC-64-AVRO fingerprint.
// Implementations are called for every record decoded, so should cache
// expensive lookups.
type SchemaResolver interface {
	// GetSchema must return ErrUnknownSchema if no schema is found for
	// fingerprint. All other errors are unexpected.
	GetSchema(ctx context.Context, fingerprint []byte) (avro.Schema, error)
}

// DynamicDecoder decodes single-object-encoded records whose writer schema
// is discovered per-record via a SchemaResolver, rather than fixed up
// front — the scenario of reading a topic that carries more than one
// schema.
type DynamicDecoder struct {
	resolver SchemaResolver
}

// NewDynamicDecoder returns a DynamicDecoder backed by resolver.
func NewDynamicDecoder(resolver SchemaResolver) *DynamicDecoder {
	return &DynamicDecoder{resolver: resolver}
}

// Decode unmarshals a value from SOE-encoded Avro binary using the schema
// named by the payload's fingerprint. Returns ErrUnknownSchema, wrapped, if
// the resolver has no matching schema registered.
func (d *DynamicDecoder) Decode(ctx context.Context, data []byte) (any, error) {
	fingerprint, payload, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	schema, err := d.resolver.GetSchema(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("avro: resolve schema: %w", err)
	}
	return avro.Unmarshal(schema, payload)
}
