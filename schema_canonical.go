package avro

import (
	"strconv"
	"strings"
)

// canonicalString renders a schema's Parsing Canonical Form, per the Avro
// specification: primitives collapse to their bare name, only
// name/type/fields/symbols/items/values/size survive, names are fully
// qualified, and all whitespace outside string literals is stripped.
func canonicalString(s Schema) string {
	var b strings.Builder
	writeCanonical(&b, s)
	return b.String()
}

func writeCanonical(b *strings.Builder, s Schema) {
	switch v := s.(type) {
	case *PrimitiveSchema:
		b.WriteString(`"`)
		b.WriteString(string(v.Type()))
		b.WriteString(`"`)

	case *RefSchema:
		b.WriteString(`"`)
		b.WriteString(v.Schema().FullName())
		b.WriteString(`"`)

	case *RecordSchema:
		b.WriteString(`{"name":`)
		writeJSONString(b, v.FullName())
		b.WriteString(`,"type":"record","fields":[`)
		for i, f := range v.Fields() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`{"name":`)
			writeJSONString(b, f.Name())
			b.WriteString(`,"type":`)
			writeCanonical(b, f.Type())
			b.WriteByte('}')
		}
		b.WriteString("]}")

	case *EnumSchema:
		b.WriteString(`{"name":`)
		writeJSONString(b, v.FullName())
		b.WriteString(`,"type":"enum","symbols":[`)
		for i, sym := range v.Symbols() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONString(b, sym)
		}
		b.WriteString("]}")

	case *ArraySchema:
		b.WriteString(`{"type":"array","items":`)
		writeCanonical(b, v.Items())
		b.WriteByte('}')

	case *MapSchema:
		b.WriteString(`{"type":"map","values":`)
		writeCanonical(b, v.Values())
		b.WriteByte('}')

	case *UnionSchema:
		b.WriteByte('[')
		for i, t := range v.Types() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, t)
		}
		b.WriteByte(']')

	case *FixedSchema:
		b.WriteString(`{"name":`)
		writeJSONString(b, v.FullName())
		b.WriteString(`,"type":"fixed","size":`)
		b.WriteString(strconv.Itoa(v.Size()))
		b.WriteByte('}')

	default:
		b.WriteString(`"`)
		b.WriteString(string(s.Type()))
		b.WriteString(`"`)
	}
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

// fingerprintOf computes the CRC-64-AVRO fingerprint of a schema's
// canonical form.
func fingerprintOf(s Schema) [8]byte {
	sum := crc64AvroLE([]byte(canonicalString(s)))
	return sum
}
