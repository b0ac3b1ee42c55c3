package avro

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
)

// resolveSchema follows a RefSchema to the schema it points at, since a
// record field's type may be a back-reference to an enclosing record
// (a recursive schema) rather than the schema itself.
func resolveSchema(s Schema) Schema {
	if r, ok := s.(*RefSchema); ok {
		return r.Schema()
	}
	return s
}

// Marshal encodes v, given in the plain-value representation a
// schema's encoder/decoder expects, as Avro binary data under schema.
func Marshal(schema Schema, v any) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 512)
	if err := encode(w, schema, v); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeValue reads one value of schema from r, using the plain-value
// representation a schema's encoder/decoder expects. It exists alongside
// Marshal/Unmarshal so the avro/resolve package can decode a single schema
// node without re-deriving the whole codec dispatch.
func DecodeValue(r *Reader, schema Schema) (any, error) {
	return decode(r, schema)
}

// EncodeValue writes v under schema to w, the write-side counterpart of
// DecodeValue.
func EncodeValue(w *Writer, schema Schema, v any) error {
	return encode(w, schema, v)
}

// BranchName reports the key a union tags schema's value with when decoded
// or encoded as a union branch.
func BranchName(schema Schema) string {
	return schemaTypeName(schema)
}

// Unmarshal decodes Avro binary data under schema into the plain-value
// representation a schema's encoder/decoder expects.
func Unmarshal(schema Schema, data []byte) (any, error) {
	r := NewReader(bytes.NewReader(data), len(data))
	v, err := decode(r, schema)
	if err != nil {
		return nil, err
	}
	if r.Error != nil && r.Error != io.EOF {
		return nil, r.Error
	}
	return v, nil
}

// Encoder writes successive Avro-encoded values for a fixed schema to a
// stream, reusing one buffered Writer (the "datum" encoding,
// used as the value codec a container file's blocks are built from).
type Encoder struct {
	schema Schema
	w      *Writer
}

// NewEncoder creates an Encoder writing to w under schema.
func NewEncoder(schema Schema, w io.Writer) *Encoder {
	return &Encoder{schema: schema, w: NewWriter(w, 512)}
}

// Encode writes v and flushes the underlying Writer.
func (e *Encoder) Encode(v any) error {
	if err := encode(e.w, e.schema, v); err != nil {
		return err
	}
	return e.w.Flush()
}

// Decoder reads successive Avro-encoded values for a fixed schema from a
// stream.
type Decoder struct {
	schema Schema
	r      *Reader
}

// NewDecoder creates a Decoder reading from r under schema.
func NewDecoder(schema Schema, r io.Reader) *Decoder {
	return &Decoder{schema: schema, r: NewReader(r, 512)}
}

// Decode reads and returns the next value.
func (d *Decoder) Decode() (any, error) {
	v, err := decode(d.r, d.schema)
	if err != nil {
		return nil, err
	}
	if d.r.Error != nil {
		return nil, d.r.Error
	}
	return v, nil
}

// logicalOf returns the LogicalSchema attached to s, if any.
func logicalOf(s Schema) LogicalSchema {
	if lts, ok := s.(LogicalTypeSchema); ok {
		return lts.Logical()
	}
	return nil
}

func encode(w *Writer, schema Schema, v any) error {
	schema = resolveSchema(schema)

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return encodePrimitive(w, s, v)
	case *RecordSchema:
		return encodeRecord(w, s, v)
	case *EnumSchema:
		return encodeEnum(w, s, v)
	case *ArraySchema:
		return encodeArray(w, s, v)
	case *MapSchema:
		return encodeMap(w, s, v)
	case *UnionSchema:
		return encodeUnion(w, s, v)
	case *FixedSchema:
		return encodeFixed(w, s, v)
	default:
		return fmt.Errorf("avro: unsupported schema type %T", schema)
	}
}

func decode(r *Reader, schema Schema) (any, error) {
	schema = resolveSchema(schema)

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return decodePrimitive(r, s)
	case *RecordSchema:
		return decodeRecord(r, s)
	case *EnumSchema:
		return decodeEnum(r, s)
	case *ArraySchema:
		return decodeArray(r, s)
	case *MapSchema:
		return decodeMap(r, s)
	case *UnionSchema:
		return decodeUnion(r, s)
	case *FixedSchema:
		return decodeFixed(r, s)
	default:
		return nil, fmt.Errorf("avro: unsupported schema type %T", schema)
	}
}

func encodePrimitive(w *Writer, s *PrimitiveSchema, v any) error {
	if s.Type() == Null {
		if v != nil {
			return &ValidationError{Schema: s, Reason: "expected nil for null"}
		}
		return nil
	}

	if s.Type() == Bytes && s.Logical() != nil && s.Logical().Type() == Decimal {
		r, ok := v.(*big.Rat)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected *big.Rat for decimal"}
		}
		ls := s.Logical().(*logicalSchema)
		w.WriteBytes(decimalBytes(r, ls.Scale()))
		return w.Error
	}

	base, err := baseFromLogical(s.Logical(), v)
	if err != nil {
		return err
	}

	switch s.Type() {
	case Boolean:
		b, ok := base.(bool)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected bool"}
		}
		w.WriteBool(b)

	case Int:
		i, ok := base.(int32)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected int32"}
		}
		w.WriteInt(i)

	case Long:
		i, ok := base.(int64)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected int64"}
		}
		w.WriteLong(i)

	case Float:
		f, ok := base.(float32)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected float32"}
		}
		w.WriteFloat(f)

	case Double:
		f, ok := base.(float64)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected float64"}
		}
		w.WriteDouble(f)

	case Bytes:
		b, ok := base.([]byte)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected []byte"}
		}
		w.WriteBytes(b)

	case String:
		str, ok := base.(string)
		if !ok {
			return &ValidationError{Schema: s, Reason: "expected string"}
		}
		w.WriteString(str)

	default:
		return fmt.Errorf("avro: unsupported primitive type %s", s.Type())
	}
	return w.Error
}

func decodePrimitive(r *Reader, s *PrimitiveSchema) (any, error) {
	if s.Type() == Null {
		return nil, nil
	}

	if s.Type() == Bytes && s.Logical() != nil && s.Logical().Type() == Decimal {
		b := r.ReadBytes()
		if r.Error != nil {
			return nil, r.Error
		}
		ls := s.Logical().(*logicalSchema)
		return ratFromDecimalBytes(b, ls.Scale()), nil
	}

	var base any
	switch s.Type() {
	case Boolean:
		base = r.ReadBool()
	case Int:
		base = r.ReadInt()
	case Long:
		base = r.ReadLong()
	case Float:
		base = r.ReadFloat()
	case Double:
		base = r.ReadDouble()
	case Bytes:
		base = r.ReadBytes()
	case String:
		base = r.ReadString()
	default:
		return nil, fmt.Errorf("avro: unsupported primitive type %s", s.Type())
	}
	if r.Error != nil {
		return nil, r.Error
	}
	return applyLogical(s.Logical(), base)
}

func encodeRecord(w *Writer, s *RecordSchema, v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return &ValidationError{Schema: s, Reason: "expected map[string]any for record"}
	}
	for _, f := range s.Fields() {
		val, present := m[f.Name()]
		if !present && f.HasDefault() {
			dv, err := defaultToValue(f.Type(), f.Default())
			if err != nil {
				return err
			}
			val = dv
		}
		if err := encode(w, f.Type(), val); err != nil {
			return fmt.Errorf("avro: field %s.%s: %w", s.FullName(), f.Name(), err)
		}
	}
	return w.Error
}

func decodeRecord(r *Reader, s *RecordSchema) (any, error) {
	m := make(map[string]any, len(s.Fields()))
	for _, f := range s.Fields() {
		v, err := decode(r, f.Type())
		if err != nil {
			return nil, fmt.Errorf("avro: field %s.%s: %w", s.FullName(), f.Name(), err)
		}
		m[f.Name()] = v
	}
	return m, nil
}

func encodeEnum(w *Writer, s *EnumSchema, v any) error {
	sym, ok := v.(string)
	if !ok {
		return &ValidationError{Schema: s, Reason: "expected string enum symbol"}
	}
	idx := s.Index(sym)
	if idx < 0 {
		return &ValidationError{Schema: s, Reason: "unknown enum symbol " + sym}
	}
	w.WriteInt(int32(idx))
	return w.Error
}

func decodeEnum(r *Reader, s *EnumSchema) (any, error) {
	idx := r.ReadInt()
	if r.Error != nil {
		return nil, r.Error
	}
	sym, ok := s.Symbol(int(idx))
	if !ok {
		return nil, &MalformedDataError{Op: "decodeEnum", Reason: "enum index out of range"}
	}
	return sym, nil
}

func encodeArray(w *Writer, s *ArraySchema, v any) error {
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			w.WriteBlockHeader(0, 0, false)
			return w.Error
		}
		return &ValidationError{Schema: s, Reason: "expected []any for array"}
	}
	if len(items) > 0 {
		w.WriteBlockHeader(int64(len(items)), 0, false)
		for _, item := range items {
			if err := encode(w, s.Items(), item); err != nil {
				return err
			}
		}
	}
	w.WriteBlockHeader(0, 0, false)
	return w.Error
}

func decodeArray(r *Reader, s *ArraySchema) (any, error) {
	items := []any{}
	for {
		count, _ := r.ReadBlockHeader()
		if r.Error != nil {
			return nil, r.Error
		}
		if count == 0 {
			break
		}
		for i := int64(0); i < count; i++ {
			item, err := decode(r, s.Items())
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func encodeMap(w *Writer, s *MapSchema, v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			w.WriteBlockHeader(0, 0, false)
			return w.Error
		}
		return &ValidationError{Schema: s, Reason: "expected map[string]any for map"}
	}
	if len(m) > 0 {
		w.WriteBlockHeader(int64(len(m)), 0, false)
		for k, val := range m {
			w.WriteString(k)
			if err := encode(w, s.Values(), val); err != nil {
				return err
			}
		}
	}
	w.WriteBlockHeader(0, 0, false)
	return w.Error
}

func decodeMap(r *Reader, s *MapSchema) (any, error) {
	m := map[string]any{}
	for {
		count, _ := r.ReadBlockHeader()
		if r.Error != nil {
			return nil, r.Error
		}
		if count == 0 {
			break
		}
		for i := int64(0); i < count; i++ {
			k := r.ReadString()
			if r.Error != nil {
				return nil, r.Error
			}
			val, err := decode(r, s.Values())
			if err != nil {
				return nil, err
			}
			m[k] = val
		}
	}
	return m, nil
}

// encodeUnion encodes a union value given as either nil (the "null" branch,
// if present) or a single-entry map[string]any keyed by the chosen branch's
// schema type name (its full name for named types), mirroring the wire
// tagged-union convention of mapUnionEncoder in the example pack.
func encodeUnion(w *Writer, s *UnionSchema, v any) error {
	if v == nil {
		member, idx := s.Types().Get(string(Null))
		if member == nil {
			return &ValidationError{Schema: s, Reason: "union has no null branch for nil value"}
		}
		w.WriteLong(int64(idx))
		return w.Error
	}

	m, ok := v.(map[string]any)
	if !ok {
		return &ValidationError{Schema: s, Reason: "expected nil or single-entry map[string]any for union"}
	}
	if len(m) != 1 {
		return &ValidationError{Schema: s, Reason: "union map must have exactly one entry"}
	}
	var name string
	var val any
	for k, mv := range m {
		name, val = k, mv
	}

	member, idx := s.Types().Get(name)
	if member == nil {
		return &ValidationError{Schema: s, Reason: "unknown union branch " + name}
	}
	w.WriteLong(int64(idx))
	return encode(w, member, val)
}

func decodeUnion(r *Reader, s *UnionSchema) (any, error) {
	types := s.Types()
	idx := r.ReadLong()
	if r.Error != nil {
		return nil, r.Error
	}
	if idx < 0 || int(idx) >= len(types) {
		return nil, &MalformedDataError{Op: "decodeUnion", Reason: "union index out of range"}
	}
	member := types[idx]
	resolved := resolveSchema(member)
	if resolved.Type() == Null {
		return nil, nil
	}
	val, err := decode(r, member)
	if err != nil {
		return nil, err
	}
	return map[string]any{schemaTypeName(resolved): val}, nil
}

// schemaTypeName reports the name a union tags a branch's value with: a
// named schema's full name, or its bare type name (suffixed with the
// logical type, if any) otherwise.
func schemaTypeName(s Schema) string {
	s = resolveSchema(s)
	if ns, ok := s.(NamedSchema); ok {
		return ns.FullName()
	}
	name := string(s.Type())
	if ls := logicalOf(s); ls != nil {
		name += "." + string(ls.Type())
	}
	return name
}

func encodeFixed(w *Writer, s *FixedSchema, v any) error {
	if s.Logical() != nil {
		switch s.Logical().Type() {
		case Decimal:
			r, ok := v.(*big.Rat)
			if !ok {
				return &ValidationError{Schema: s, Reason: "expected *big.Rat for fixed decimal"}
			}
			ls := s.Logical().(*logicalSchema)
			w.WriteFixed(decimalBytesSized(r, ls.Scale(), s.Size()))
			return w.Error
		case Duration:
			d, ok := v.(Duration)
			if !ok {
				return &ValidationError{Schema: s, Reason: "expected avro.Duration for fixed duration"}
			}
			b := make([]byte, 12)
			putUint32LE(b[0:4], d.Months)
			putUint32LE(b[4:8], d.Days)
			putUint32LE(b[8:12], d.Milliseconds)
			w.WriteFixed(b)
			return w.Error
		}
	}
	b, ok := v.([]byte)
	if !ok {
		return &ValidationError{Schema: s, Reason: "expected []byte for fixed"}
	}
	if len(b) != s.Size() {
		return &ValidationError{Schema: s, Reason: "fixed value has wrong length"}
	}
	w.WriteFixed(b)
	return w.Error
}

func decodeFixed(r *Reader, s *FixedSchema) (any, error) {
	b := r.ReadFixed(s.Size())
	if r.Error != nil {
		return nil, r.Error
	}
	if s.Logical() != nil {
		switch s.Logical().Type() {
		case Decimal:
			ls := s.Logical().(*logicalSchema)
			return ratFromDecimalBytes(b, ls.Scale()), nil
		case Duration:
			return Duration{
				Months:       uint32LE(b[0:4]),
				Days:         uint32LE(b[4:8]),
				Milliseconds: uint32LE(b[8:12]),
			}, nil
		}
	}
	return b, nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func uint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
