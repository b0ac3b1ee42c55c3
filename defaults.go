package avro

import "fmt"

// DefaultValue converts a JSON-decoded default value (as produced by
// encoding/json.Unmarshal when parsing a schema) into the plain-value
// representation a schema's encoder/decoder expects. Exported so avro/resolve can
// apply a reader field's default when a writer omits that field.
func DefaultValue(schema Schema, def any) (any, error) {
	return defaultToValue(schema, def)
}

// defaultToValue converts a field or enum default value, as produced by
// encoding/json.Unmarshal (float64/string/bool/nil/[]any/map[string]any),
// into the plain-value representation a schema's encoder/decoder expects.
// Per the Avro spec a union's default is always typed as its first member.
func defaultToValue(schema Schema, def any) (any, error) {
	schema = resolveSchema(schema)

	if u, ok := schema.(*UnionSchema); ok {
		if len(u.Types()) == 0 {
			return nil, &SchemaMismatchError{Reason: "union default has no branches"}
		}
		first := u.Types()[0]
		v, err := defaultToValue(first, def)
		if err != nil {
			return nil, err
		}
		if resolveSchema(first).Type() == Null {
			return nil, nil
		}
		return map[string]any{schemaTypeName(first): v}, nil
	}

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return primitiveDefault(s, def)

	case *EnumSchema:
		str, ok := def.(string)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "enum default must be a string"}
		}
		return str, nil

	case *FixedSchema:
		str, ok := def.(string)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "fixed default must be a string"}
		}
		return []byte(str), nil

	case *ArraySchema:
		raw, ok := def.([]any)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "array default must be a JSON array"}
		}
		out := make([]any, len(raw))
		for i, item := range raw {
			v, err := defaultToValue(s.Items(), item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *MapSchema:
		raw, ok := def.(map[string]any)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "map default must be a JSON object"}
		}
		out := make(map[string]any, len(raw))
		for k, item := range raw {
			v, err := defaultToValue(s.Values(), item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case *RecordSchema:
		raw, ok := def.(map[string]any)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "record default must be a JSON object"}
		}
		out := make(map[string]any, len(s.Fields()))
		for _, f := range s.Fields() {
			fv, present := raw[f.Name()]
			if !present {
				if !f.HasDefault() {
					return nil, &SchemaMismatchError{Reason: "record default missing field " + f.Name()}
				}
				fv = f.Default()
			}
			v, err := defaultToValue(f.Type(), fv)
			if err != nil {
				return nil, err
			}
			out[f.Name()] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("avro: unsupported schema type %T for default", schema)
	}
}

func primitiveDefault(s *PrimitiveSchema, def any) (any, error) {
	if s.Type() == Null {
		return nil, nil
	}

	switch s.Type() {
	case Boolean:
		b, ok := def.(bool)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "boolean default must be a bool"}
		}
		return b, nil

	case Int:
		f, ok := def.(float64)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "int default must be a number"}
		}
		return int32(f), nil

	case Long:
		f, ok := def.(float64)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "long default must be a number"}
		}
		return int64(f), nil

	case Float:
		f, ok := def.(float64)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "float default must be a number"}
		}
		return float32(f), nil

	case Double:
		f, ok := def.(float64)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "double default must be a number"}
		}
		return f, nil

	case Bytes:
		str, ok := def.(string)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "bytes default must be a string"}
		}
		return []byte(str), nil

	case String:
		str, ok := def.(string)
		if !ok {
			return nil, &SchemaMismatchError{Reason: "string default must be a string"}
		}
		return str, nil

	default:
		return nil, fmt.Errorf("avro: unsupported primitive type %s for default", s.Type())
	}
}
