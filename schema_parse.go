package avro

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse parses a schema from its JSON text representation. This is a lean,
// non-exhaustive parser sufficient to drive the codec, resolver, and
// OCF/SOE framing.
func Parse(s string) (Schema, error) {
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("avro: parse schema: %w", err)
	}
	p := &parser{named: map[string]NamedSchema{}}
	return p.parse(raw, "")
}

// MustParse is like Parse but panics on error. Useful for package-level
// schema literals.
func MustParse(s string) Schema {
	schema, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return schema
}

type parser struct {
	named map[string]NamedSchema
}

func (p *parser) parse(raw any, namespace string) (Schema, error) {
	switch v := raw.(type) {
	case string:
		return p.parseNamed(v, namespace)
	case []any:
		return p.parseUnion(v, namespace)
	case map[string]any:
		return p.parseObject(v, namespace)
	default:
		return nil, fmt.Errorf("avro: invalid schema: %v", raw)
	}
}

func (p *parser) parseNamed(name, namespace string) (Schema, error) {
	switch Type(name) {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		return NewPrimitiveSchema(Type(name), nil), nil
	}

	_, _, full := qualifiedName(name, namespace)
	if s, ok := p.named[full]; ok {
		return NewRefSchema(s), nil
	}
	if s, ok := p.named[name]; ok {
		return NewRefSchema(s), nil
	}
	return nil, fmt.Errorf("avro: unknown type name %q", name)
}

func (p *parser) parseUnion(raw []any, namespace string) (Schema, error) {
	types := make([]Schema, len(raw))
	for i, r := range raw {
		s, err := p.parse(r, namespace)
		if err != nil {
			return nil, err
		}
		types[i] = s
	}
	return NewUnionSchema(types)
}

func (p *parser) parseObject(m map[string]any, namespace string) (Schema, error) {
	t, ok := m["type"].(string)
	if !ok {
		// A schema may wrap another schema definition directly under "type".
		if nested, ok := m["type"]; ok {
			return p.parse(nested, namespace)
		}
		return nil, fmt.Errorf("avro: object schema missing \"type\"")
	}

	switch Type(t) {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		logical, err := p.parseLogical(m)
		if err != nil {
			return nil, err
		}
		return NewPrimitiveSchema(Type(t), logical, propOpts(m)...), nil

	case Record:
		return p.parseRecord(m, namespace, false)

	case "error":
		return p.parseRecord(m, namespace, true)

	case Enum:
		return p.parseEnum(m, namespace)

	case Array:
		items, err := p.parse(m["items"], namespace)
		if err != nil {
			return nil, err
		}
		return NewArraySchema(items, propOpts(m)...), nil

	case Map:
		values, err := p.parse(m["values"], namespace)
		if err != nil {
			return nil, err
		}
		return NewMapSchema(values, propOpts(m)...), nil

	case Fixed:
		return p.parseFixed(m, namespace)

	default:
		return p.parseNamed(t, namespace)
	}
}

func (p *parser) parseLogical(m map[string]any) (LogicalSchema, error) {
	lt, ok := m["logicalType"].(string)
	if !ok {
		return nil, nil
	}
	switch LogicalType(lt) {
	case Decimal:
		prec, _ := m["precision"].(float64)
		scale, _ := m["scale"].(float64)
		return NewDecimalLogicalSchema(int(prec), int(scale)), nil
	default:
		// Unknown logical types fall back to the base schema — implementers
		// must not fail on them.
		return NewLogicalSchema(LogicalType(lt)), nil
	}
}

func propOpts(m map[string]any) []SchemaOption {
	var opts []SchemaOption
	if doc, ok := m["doc"].(string); ok {
		opts = append(opts, WithDoc(doc))
	}
	return opts
}

func aliasesOf(m map[string]any) []string {
	raw, ok := m["aliases"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if s, ok := a.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func namespaceOf(m map[string]any, name, fallback string) string {
	if ns, ok := m["namespace"].(string); ok {
		return ns
	}
	if strings.Contains(name, ".") {
		return ""
	}
	return fallback
}

func (p *parser) parseRecord(m map[string]any, namespace string, isError bool) (Schema, error) {
	name, _ := m["name"].(string)
	ns := namespaceOf(m, name, namespace)
	opts := propOpts(m)
	if aliases := aliasesOf(m); len(aliases) > 0 {
		opts = append(opts, WithAliases(aliases))
	}

	// Register a placeholder so self-referential fields (recursive schemas)
	// can resolve against it before fields are parsed.
	rec, err := NewRecordSchema(name, ns, nil, opts...)
	if err != nil {
		return nil, err
	}
	_, _, full := qualifiedName(name, ns)
	p.named[full] = rec
	p.named[name] = rec

	rawFields, _ := m["fields"].([]any)
	fields := make([]*Field, 0, len(rawFields))
	for _, rf := range rawFields {
		fm, ok := rf.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("avro: invalid field in record %q", full)
		}
		f, err := p.parseField(fm, ns)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	rec.setFields(fields)
	rec.isError = isError
	return rec, nil
}

func (p *parser) parseField(m map[string]any, namespace string) (*Field, error) {
	name, _ := m["name"].(string)
	typ, err := p.parse(m["type"], namespace)
	if err != nil {
		return nil, err
	}
	var opts []SchemaOption
	if doc, ok := m["doc"].(string); ok {
		opts = append(opts, WithDoc(doc))
	}
	if aliases := aliasesOf(m); len(aliases) > 0 {
		opts = append(opts, WithAliases(aliases))
	}
	if order, ok := m["order"].(string); ok {
		opts = append(opts, WithOrder(Order(order)))
	}
	if def, ok := m["default"]; ok {
		opts = append(opts, WithDefault(def))
	}
	return NewField(name, typ, opts...)
}

func (p *parser) parseEnum(m map[string]any, namespace string) (Schema, error) {
	name, _ := m["name"].(string)
	ns := namespaceOf(m, name, namespace)
	rawSymbols, _ := m["symbols"].([]any)
	symbols := make([]string, 0, len(rawSymbols))
	for _, s := range rawSymbols {
		if str, ok := s.(string); ok {
			symbols = append(symbols, str)
		}
	}
	opts := propOpts(m)
	if aliases := aliasesOf(m); len(aliases) > 0 {
		opts = append(opts, WithAliases(aliases))
	}
	if def, ok := m["default"].(string); ok {
		opts = append(opts, WithDefault(def))
	}
	enum, err := NewEnumSchema(name, ns, symbols, opts...)
	if err != nil {
		return nil, err
	}
	_, _, full := qualifiedName(name, ns)
	p.named[full] = enum
	p.named[name] = enum
	return enum, nil
}

func (p *parser) parseFixed(m map[string]any, namespace string) (Schema, error) {
	name, _ := m["name"].(string)
	ns := namespaceOf(m, name, namespace)
	size, _ := m["size"].(float64)
	logical, err := p.parseLogical(m)
	if err != nil {
		return nil, err
	}
	if lt, ok := m["logicalType"].(string); ok && LogicalType(lt) == Duration {
		logical = NewLogicalSchema(Duration)
	}
	opts := propOpts(m)
	if aliases := aliasesOf(m); len(aliases) > 0 {
		opts = append(opts, WithAliases(aliases))
	}
	fixed, err := NewFixedSchema(name, ns, int(size), logical, opts...)
	if err != nil {
		return nil, err
	}
	_, _, full := qualifiedName(name, ns)
	p.named[full] = fixed
	p.named[name] = fixed
	return fixed, nil
}
