// Package avro implements encoding and decoding of Avro as defined by the
// Avro specification: https://avro.apache.org/docs/current/specification/
package avro

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is an Avro schema type.
type Type string

// Schema type constants.
const (
	Null    Type = "null"
	Boolean Type = "boolean"
	Int     Type = "int"
	Long    Type = "long"
	Float   Type = "float"
	Double  Type = "double"
	Bytes   Type = "bytes"
	String  Type = "string"
	Record  Type = "record"
	Enum    Type = "enum"
	Array   Type = "array"
	Map     Type = "map"
	Union   Type = "union"
	Fixed   Type = "fixed"
	Ref     Type = "ref"
)

// Order specifies the sort order of a record field.
type Order string

// Field sort orders.
const (
	Asc    Order = "ascending"
	Desc   Order = "descending"
	Ignore Order = "ignore"
)

// LogicalType is a semantic layer on top of a base Avro type.
type LogicalType string

// Logical type constants.
const (
	UUID                  LogicalType = "uuid"
	Decimal               LogicalType = "decimal"
	Date                  LogicalType = "date"
	TimeMillis            LogicalType = "time-millis"
	TimeMicros            LogicalType = "time-micros"
	TimestampMillis       LogicalType = "timestamp-millis"
	TimestampMicros       LogicalType = "timestamp-micros"
	LocalTimestampMillis  LogicalType = "local-timestamp-millis"
	LocalTimestampMicros  LogicalType = "local-timestamp-micros"
	Duration              LogicalType = "duration"
)

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema represents an Avro schema.
type Schema interface {
	// Type returns the type of the schema.
	Type() Type

	// String returns the canonical form of the schema.
	String() string

	// Fingerprint returns the CRC-64-AVRO fingerprint of the schema's
	// canonical form, as used by the single-object encoding.
	Fingerprint() [8]byte
}

// LogicalSchema is implemented by a base schema that carries a logical type.
type LogicalSchema interface {
	// Type returns the logical type of the schema.
	Type() LogicalType
}

// LogicalTypeSchema is implemented by schemas that may carry a LogicalSchema.
type LogicalTypeSchema interface {
	Schema
	// Logical returns the logical schema, or nil.
	Logical() LogicalSchema
}

// NamedSchema is implemented by schemas that have a name (record, enum, fixed).
type NamedSchema interface {
	Schema
	// Name returns the name of the schema.
	Name() string
	// Namespace returns the namespace of the schema.
	Namespace() string
	// FullName returns the namespace-qualified name of the schema.
	FullName() string
	// Aliases returns the schema's aliases.
	Aliases() []string
}

// Schemas is a slice of Schema.
type Schemas []Schema

// Get returns the first schema whose union branch name (see BranchName)
// equals name, and its index, or (nil, -1) if none match. A named schema, or
// a reference to one, matches by full name; any other schema matches by its
// type name, suffixed with its logical type if it has one. Aliases are not
// consulted.
func (s Schemas) Get(name string) (Schema, int) {
	for i, schema := range s {
		if schemaTypeName(schema) == name {
			return schema, i
		}
	}
	return nil, -1
}

// qualifiedName computes the fullname of a named schema per the Avro spec:
// a name containing a dot is already fully qualified; otherwise it is
// namespace + "." + name when a namespace is given.
func qualifiedName(n, ns string) (name, namespace, full string) {
	if idx := strings.LastIndexByte(n, '.'); idx >= 0 {
		return n[idx+1:], n[:idx], n
	}
	if ns == "" {
		return n, "", n
	}
	return n, ns, ns + "." + n
}

func validName(n string) error {
	if !nameRe.MatchString(n) {
		return fmt.Errorf("avro: invalid name %q", n)
	}
	return nil
}

// properties holds arbitrary, non-reserved JSON attributes attached to a
// schema (e.g. "doc", custom metadata). They are never part of the
// canonical form.
type properties struct {
	props map[string]any
}

func newProperties(props map[string]any, reserved []string) properties {
	if len(props) == 0 {
		return properties{}
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		skip := false
		for _, r := range reserved {
			if r == k {
				skip = true
				break
			}
		}
		if !skip {
			out[k] = v
		}
	}
	return properties{props: out}
}

// Prop returns a custom property by name.
func (p properties) Prop(name string) any {
	return p.props[name]
}

// Props returns all custom properties.
func (p properties) Props() map[string]any {
	return p.props
}

// SchemaOption configures an optional schema attribute.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	aliases []string
	doc     string
	def     any
	hasDef  bool
	order   Order
	props   map[string]any
}

// WithAliases sets the aliases of a named schema or field.
func WithAliases(aliases []string) SchemaOption {
	return func(c *schemaConfig) { c.aliases = aliases }
}

// WithDoc sets the documentation string of a schema or field.
func WithDoc(doc string) SchemaOption {
	return func(c *schemaConfig) { c.doc = doc }
}

// WithDefault sets the default value of a field.
func WithDefault(def any) SchemaOption {
	return func(c *schemaConfig) { c.def = def; c.hasDef = true }
}

// WithOrder sets the sort order of a field.
func WithOrder(order Order) SchemaOption {
	return func(c *schemaConfig) { c.order = order }
}

// WithProps attaches custom properties to a schema or field.
func WithProps(props map[string]any) SchemaOption {
	return func(c *schemaConfig) { c.props = props }
}

func applyOptions(opts []SchemaOption) schemaConfig {
	var cfg schemaConfig
	cfg.order = Asc
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// logicalSchema is the concrete LogicalSchema implementation.
type logicalSchema struct {
	typ        LogicalType
	precision  int
	scale      int
	hasPrecScl bool
}

// NewLogicalSchema creates a logical schema of the given type.
func NewLogicalSchema(typ LogicalType) LogicalSchema {
	return &logicalSchema{typ: typ}
}

// NewDecimalLogicalSchema creates a "decimal" logical schema with the given
// precision and scale.
func NewDecimalLogicalSchema(precision, scale int) LogicalSchema {
	return &logicalSchema{typ: Decimal, precision: precision, scale: scale, hasPrecScl: true}
}

func (s *logicalSchema) Type() LogicalType { return s.typ }

func (s *logicalSchema) precisionScale() (int, int, bool) {
	return s.precision, s.scale, s.hasPrecScl
}

// Precision returns the decimal precision. Only meaningful when Type() is
// Decimal.
func (s *logicalSchema) Precision() int { return s.precision }

// Scale returns the decimal scale. Only meaningful when Type() is Decimal.
func (s *logicalSchema) Scale() int { return s.scale }

// PrimitiveSchema represents one of the eight Avro primitive types.
type PrimitiveSchema struct {
	properties
	typ     Type
	logical LogicalSchema
}

// NewPrimitiveSchema creates a new PrimitiveSchema.
func NewPrimitiveSchema(t Type, l LogicalSchema, opts ...SchemaOption) *PrimitiveSchema {
	cfg := applyOptions(opts)
	return &PrimitiveSchema{
		properties: newProperties(cfg.props, nil),
		typ:        t,
		logical:    l,
	}
}

// Type returns the schema type.
func (s *PrimitiveSchema) Type() Type { return s.typ }

// Logical returns the logical schema, or nil.
func (s *PrimitiveSchema) Logical() LogicalSchema { return s.logical }

func (s *PrimitiveSchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *PrimitiveSchema) Fingerprint() [8]byte { return fingerprintOf(s) }

// RefSchema is a reference to a previously-defined named schema, used to
// break cycles in recursive record definitions.
type RefSchema struct {
	actual NamedSchema
}

// NewRefSchema creates a schema referencing an already-defined named schema.
func NewRefSchema(schema NamedSchema) *RefSchema {
	return &RefSchema{actual: schema}
}

// Type returns Ref.
func (s *RefSchema) Type() Type { return Ref }

// Schema returns the referenced named schema.
func (s *RefSchema) Schema() NamedSchema { return s.actual }

func (s *RefSchema) String() string { return fmt.Sprintf("%q", s.actual.FullName()) }

// Fingerprint returns the referenced schema's fingerprint.
func (s *RefSchema) Fingerprint() [8]byte { return s.actual.Fingerprint() }

// Field represents a field of a RecordSchema.
type Field struct {
	properties
	name    string
	aliases []string
	typ     Schema
	hasDef  bool
	def     any
	doc     string
	order   Order
}

// NewField creates a new record field.
func NewField(name string, typ Schema, opts ...SchemaOption) (*Field, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	return &Field{
		properties: newProperties(cfg.props, nil),
		name:       name,
		aliases:    cfg.aliases,
		typ:        typ,
		hasDef:     cfg.hasDef,
		def:        cfg.def,
		doc:        cfg.doc,
		order:      cfg.order,
	}, nil
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Aliases returns the field's aliases.
func (f *Field) Aliases() []string { return f.aliases }

// Type returns the field's schema.
func (f *Field) Type() Schema { return f.typ }

// HasDefault reports whether the field declares a default value.
func (f *Field) HasDefault() bool { return f.hasDef }

// Default returns the field's default value, in JSON-decoded form.
func (f *Field) Default() any { return f.def }

// Doc returns the field documentation.
func (f *Field) Doc() string { return f.doc }

// Order returns the field's sort order.
func (f *Field) Order() Order { return f.order }

// RecordSchema represents an Avro record.
type RecordSchema struct {
	properties
	name    string
	ns      string
	full    string
	aliases []string
	doc     string
	fields  []*Field
	isError bool
}

// NewRecordSchema creates a new record schema.
func NewRecordSchema(name, namespace string, fields []*Field, opts ...SchemaOption) (*RecordSchema, error) {
	n, ns, full := qualifiedName(name, namespace)
	if err := validName(n); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.name]; ok {
			return nil, fmt.Errorf("avro: duplicate field name %q in %q", f.name, full)
		}
		seen[f.name] = struct{}{}
	}
	cfg := applyOptions(opts)
	return &RecordSchema{
		properties: newProperties(cfg.props, nil),
		name:       n,
		ns:         ns,
		full:       full,
		aliases:    cfg.aliases,
		doc:        cfg.doc,
		fields:     fields,
	}, nil
}

// Type returns Record.
func (s *RecordSchema) Type() Type { return Record }

// Name returns the unqualified record name.
func (s *RecordSchema) Name() string { return s.name }

// Namespace returns the record's namespace.
func (s *RecordSchema) Namespace() string { return s.ns }

// FullName returns the namespace-qualified record name.
func (s *RecordSchema) FullName() string { return s.full }

// Aliases returns the record's aliases.
func (s *RecordSchema) Aliases() []string { return s.aliases }

// Doc returns the record documentation.
func (s *RecordSchema) Doc() string { return s.doc }

// Fields returns the record's fields, in declaration order.
func (s *RecordSchema) Fields() []*Field { return s.fields }

// IsError reports whether this record was declared with Avro's "error"
// schema type, used for RPC exception records.
func (s *RecordSchema) IsError() bool { return s.isError }

// setFields fills in a record's fields after construction, so a field's
// type may reference the record itself (a recursive schema).
func (s *RecordSchema) setFields(fields []*Field) { s.fields = fields }

func (s *RecordSchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *RecordSchema) Fingerprint() [8]byte { return fingerprintOf(s) }

// EnumSchema represents an Avro enum.
type EnumSchema struct {
	properties
	name    string
	ns      string
	full    string
	aliases []string
	doc     string
	symbols []string
	def     string
	hasDef  bool
}

// NewEnumSchema creates a new enum schema.
func NewEnumSchema(name, namespace string, symbols []string, opts ...SchemaOption) (*EnumSchema, error) {
	n, ns, full := qualifiedName(name, namespace)
	if err := validName(n); err != nil {
		return nil, err
	}
	for _, sym := range symbols {
		if err := validName(sym); err != nil {
			return nil, fmt.Errorf("avro: invalid enum symbol %q: %w", sym, err)
		}
	}
	cfg := applyOptions(opts)
	def, _ := cfg.def.(string)
	return &EnumSchema{
		properties: newProperties(cfg.props, nil),
		name:       n,
		ns:         ns,
		full:       full,
		aliases:    cfg.aliases,
		doc:        cfg.doc,
		symbols:    symbols,
		def:        def,
		hasDef:     cfg.hasDef,
	}, nil
}

// Type returns Enum.
func (s *EnumSchema) Type() Type { return Enum }

// Name returns the unqualified enum name.
func (s *EnumSchema) Name() string { return s.name }

// Namespace returns the enum's namespace.
func (s *EnumSchema) Namespace() string { return s.ns }

// FullName returns the namespace-qualified enum name.
func (s *EnumSchema) FullName() string { return s.full }

// Aliases returns the enum's aliases.
func (s *EnumSchema) Aliases() []string { return s.aliases }

// Doc returns the enum documentation.
func (s *EnumSchema) Doc() string { return s.doc }

// Symbols returns the enum's symbols, in declaration order.
func (s *EnumSchema) Symbols() []string { return s.symbols }

// Symbol returns the symbol at index i.
func (s *EnumSchema) Symbol(i int) (string, bool) {
	if i < 0 || i >= len(s.symbols) {
		return "", false
	}
	return s.symbols[i], true
}

// Index returns the index of the given symbol, or -1.
func (s *EnumSchema) Index(symbol string) int {
	for i, sym := range s.symbols {
		if sym == symbol {
			return i
		}
	}
	return -1
}

// HasDefault reports whether the enum declares a default symbol.
func (s *EnumSchema) HasDefault() bool { return s.hasDef }

// Default returns the enum's default symbol.
func (s *EnumSchema) Default() string { return s.def }

func (s *EnumSchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *EnumSchema) Fingerprint() [8]byte { return fingerprintOf(s) }

// ArraySchema represents an Avro array.
type ArraySchema struct {
	properties
	items Schema
}

// NewArraySchema creates a new array schema.
func NewArraySchema(items Schema, opts ...SchemaOption) *ArraySchema {
	cfg := applyOptions(opts)
	return &ArraySchema{properties: newProperties(cfg.props, nil), items: items}
}

// Type returns Array.
func (s *ArraySchema) Type() Type { return Array }

// Items returns the array's item schema.
func (s *ArraySchema) Items() Schema { return s.items }

func (s *ArraySchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *ArraySchema) Fingerprint() [8]byte { return fingerprintOf(s) }

// MapSchema represents an Avro map, whose keys are always strings.
type MapSchema struct {
	properties
	values Schema
}

// NewMapSchema creates a new map schema.
func NewMapSchema(values Schema, opts ...SchemaOption) *MapSchema {
	cfg := applyOptions(opts)
	return &MapSchema{properties: newProperties(cfg.props, nil), values: values}
}

// Type returns Map.
func (s *MapSchema) Type() Type { return Map }

// Values returns the map's value schema.
func (s *MapSchema) Values() Schema { return s.values }

func (s *MapSchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *MapSchema) Fingerprint() [8]byte { return fingerprintOf(s) }

// UnionSchema represents an Avro union.
type UnionSchema struct {
	types Schemas
}

// NewUnionSchema creates a new union schema, validating Avro's union
// invariants: no two members of the same kind (except named types,
// distinguished by full name), and no directly-nested unions.
func NewUnionSchema(types []Schema) (*UnionSchema, error) {
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		if t.Type() == Union {
			return nil, fmt.Errorf("avro: union cannot directly contain another union")
		}
		key := string(t.Type())
		if ns, ok := t.(NamedSchema); ok {
			key = ns.FullName()
		}
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("avro: union contains duplicate type %q", key)
		}
		seen[key] = struct{}{}
	}
	return &UnionSchema{types: types}, nil
}

// Type returns Union.
func (s *UnionSchema) Type() Type { return Union }

// Types returns the union's member schemas, in declaration order.
func (s *UnionSchema) Types() Schemas { return s.types }

// Nullable reports whether this is a two-member union with "null" as one
// member — the common optional-field idiom.
func (s *UnionSchema) Nullable() bool {
	return len(s.types) == 2 && (s.types[0].Type() == Null || s.types[1].Type() == Null)
}

func (s *UnionSchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *UnionSchema) Fingerprint() [8]byte { return fingerprintOf(s) }

// FixedSchema represents an Avro fixed-length byte sequence.
type FixedSchema struct {
	properties
	name    string
	ns      string
	full    string
	aliases []string
	size    int
	logical LogicalSchema
}

// NewFixedSchema creates a new fixed schema.
func NewFixedSchema(name, namespace string, size int, logical LogicalSchema, opts ...SchemaOption) (*FixedSchema, error) {
	n, ns, full := qualifiedName(name, namespace)
	if err := validName(n); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("avro: fixed size must not be negative, got %d", size)
	}
	cfg := applyOptions(opts)
	return &FixedSchema{
		properties: newProperties(cfg.props, nil),
		name:       n,
		ns:         ns,
		full:       full,
		aliases:    cfg.aliases,
		size:       size,
		logical:    logical,
	}, nil
}

// Type returns Fixed.
func (s *FixedSchema) Type() Type { return Fixed }

// Name returns the unqualified fixed name.
func (s *FixedSchema) Name() string { return s.name }

// Namespace returns the fixed's namespace.
func (s *FixedSchema) Namespace() string { return s.ns }

// FullName returns the namespace-qualified fixed name.
func (s *FixedSchema) FullName() string { return s.full }

// Aliases returns the fixed's aliases.
func (s *FixedSchema) Aliases() []string { return s.aliases }

// Size returns the declared byte length.
func (s *FixedSchema) Size() int { return s.size }

// Logical returns the logical schema, or nil.
func (s *FixedSchema) Logical() LogicalSchema { return s.logical }

func (s *FixedSchema) String() string { return canonicalString(s) }

// Fingerprint returns the CRC-64-AVRO fingerprint of the canonical form.
func (s *FixedSchema) Fingerprint() [8]byte { return fingerprintOf(s) }
