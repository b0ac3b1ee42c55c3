package resolve

import (
	"fmt"

	"github.com/brisktype/avro"
)

type compatKey struct {
	writer [8]byte
	reader [8]byte
}

// compiler compiles writer/reader schema pairs into plan nodes, caching
// record nodes by fingerprint pair so recursive (self-referential) record
// schemas terminate: a record's node is registered before its fields are
// compiled, so a field that refers back to the same record pair reuses the
// in-progress node instead of recursing forever.
type compiler struct {
	records map[compatKey]*recordNode
}

// Resolve compiles the rules for decoding data written with writer into
// values shaped like reader:
// this walks the schema pair once, building a Plan, instead of re-deriving
// compatibility for every value decoded.
func Resolve(writer, reader avro.Schema) (*Plan, error) {
	c := &compiler{records: map[compatKey]*recordNode{}}
	root, err := c.compile(writer, reader)
	if err != nil {
		return nil, err
	}
	return &Plan{root: root}, nil
}

func underlying(s avro.Schema) avro.Schema {
	if ref, ok := s.(*avro.RefSchema); ok {
		return ref.Schema()
	}
	return s
}

func (c *compiler) compile(writer, reader avro.Schema) (node, error) {
	writer = underlying(writer)
	reader = underlying(reader)

	if wu, ok := writer.(*avro.UnionSchema); ok {
		return c.compileWriterUnion(wu, reader)
	}
	if ru, ok := reader.(*avro.UnionSchema); ok {
		return c.compileReaderUnion(writer, ru)
	}

	if writer.Type() != reader.Type() {
		return c.compilePromotion(writer, reader)
	}

	switch w := writer.(type) {
	case *avro.PrimitiveSchema:
		rp := reader.(*avro.PrimitiveSchema)
		if w.Logical() != rp.Logical() {
			return nil, &avro.SchemaMismatchError{Reason: "logical type mismatch for " + string(w.Type())}
		}
		return &sameNode{schema: writer}, nil

	case *avro.FixedSchema:
		rf := reader.(*avro.FixedSchema)
		if err := checkNamed(w, rf); err != nil {
			return nil, err
		}
		if w.Size() != rf.Size() {
			return nil, &avro.SchemaMismatchError{Reason: "fixed size mismatch for " + w.FullName()}
		}
		return &sameNode{schema: writer}, nil

	case *avro.EnumSchema:
		return c.compileEnum(w, reader.(*avro.EnumSchema))

	case *avro.ArraySchema:
		itemPlan, err := c.compile(w.Items(), reader.(*avro.ArraySchema).Items())
		if err != nil {
			return nil, err
		}
		return &arrayNode{item: itemPlan}, nil

	case *avro.MapSchema:
		valPlan, err := c.compile(w.Values(), reader.(*avro.MapSchema).Values())
		if err != nil {
			return nil, err
		}
		return &mapNode{value: valPlan}, nil

	case *avro.RecordSchema:
		return c.compileRecord(w, reader.(*avro.RecordSchema))

	default:
		return nil, fmt.Errorf("avro: resolve: unsupported schema type %T", writer)
	}
}

func checkNamed(w, r avro.NamedSchema) error {
	if w.Name() == r.Name() {
		return nil
	}
	for _, alias := range r.Aliases() {
		if alias == w.FullName() {
			return nil
		}
	}
	return &avro.SchemaMismatchError{Reason: fmt.Sprintf("reader %s and writer %s names do not match", r.FullName(), w.FullName())}
}

// compilePromotion handles a writer/reader pair of differing base types,
// valid only along Avro's promotion lattice: int->long/
// float/double, long->float/double, float->double, string<->bytes.
func (c *compiler) compilePromotion(writer, reader avro.Schema) (node, error) {
	wp, wok := writer.(*avro.PrimitiveSchema)
	rp, rok := reader.(*avro.PrimitiveSchema)
	if !wok || !rok {
		return nil, &avro.SchemaMismatchError{
			Reason: fmt.Sprintf("reader schema %s not compatible with writer schema %s", reader.Type(), writer.Type()),
		}
	}
	if !promotionAllowed(wp.Type(), rp.Type()) {
		return nil, &avro.SchemaMismatchError{
			Reason: fmt.Sprintf("reader schema %s not compatible with writer schema %s", rp.Type(), wp.Type()),
		}
	}
	return &promoteNode{writer: wp.Type(), reader: rp.Type()}, nil
}

func promotionAllowed(writer, reader avro.Type) bool {
	switch writer {
	case avro.Int:
		return reader == avro.Long || reader == avro.Float || reader == avro.Double
	case avro.Long:
		return reader == avro.Float || reader == avro.Double
	case avro.Float:
		return reader == avro.Double
	case avro.String:
		return reader == avro.Bytes
	case avro.Bytes:
		return reader == avro.String
	default:
		return false
	}
}

func (c *compiler) compileEnum(writer, reader *avro.EnumSchema) (node, error) {
	if err := checkNamed(writer, reader); err != nil {
		return nil, err
	}
	idx := make(map[string]struct{}, len(reader.Symbols()))
	for _, s := range reader.Symbols() {
		idx[s] = struct{}{}
	}
	return &enumNode{
		writer:      writer,
		readerIndex: idx,
		defaultSym:  reader.Default(),
		hasDefault:  reader.HasDefault(),
	}, nil
}

func (c *compiler) compileRecord(writer, reader *avro.RecordSchema) (node, error) {
	key := compatKey{writer: writer.Fingerprint(), reader: reader.Fingerprint()}
	if n, ok := c.records[key]; ok {
		return n, nil
	}

	n := &recordNode{}
	c.records[key] = n

	matched := make(map[string]bool, len(reader.Fields()))
	fields := make([]recordField, 0, len(writer.Fields()))
	for _, wf := range writer.Fields() {
		rf := findReaderField(reader, wf)
		if rf == nil {
			fields = append(fields, recordField{writerName: wf.Name(), plan: &skipNode{schema: wf.Type()}})
			continue
		}
		matched[rf.Name()] = true
		plan, err := c.compile(wf.Type(), rf.Type())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", wf.Name(), err)
		}
		fields = append(fields, recordField{writerName: wf.Name(), readerName: rf.Name(), plan: plan})
	}

	extra := make([]defaultedField, 0)
	for _, rf := range reader.Fields() {
		if matched[rf.Name()] {
			continue
		}
		if !rf.HasDefault() {
			return nil, &avro.SchemaMismatchError{
				Reason: "reader field " + rf.Name() + " is missing in writer schema and has no default",
			}
		}
		v, err := avro.DefaultValue(rf.Type(), rf.Default())
		if err != nil {
			return nil, fmt.Errorf("field %s default: %w", rf.Name(), err)
		}
		extra = append(extra, defaultedField{name: rf.Name(), value: v})
	}

	n.fields = fields
	n.extra = extra
	return n, nil
}

// findReaderField locates the reader field a writer field should feed,
// matching by name first, then by one of the reader field's aliases
// naming the writer field (Avro's field aliasing rule).
func findReaderField(reader *avro.RecordSchema, wf *avro.Field) *avro.Field {
	for _, rf := range reader.Fields() {
		if rf.Name() == wf.Name() {
			return rf
		}
	}
	for _, rf := range reader.Fields() {
		for _, alias := range rf.Aliases() {
			if alias == wf.Name() {
				return rf
			}
		}
	}
	return nil
}

// compileWriterUnion resolves each writer branch against the reader schema
// up front. A branch the reader cannot accept isn't a compile-time failure
// of the whole union — it only matters if the writer actually selects that
// branch on the wire — so an unresolvable branch is recorded as a deferred
// error on unionBranch rather than aborting compilation.
func (c *compiler) compileWriterUnion(writer *avro.UnionSchema, reader avro.Schema) (node, error) {
	readerUnion, readerIsUnion := reader.(*avro.UnionSchema)

	branches := make([]unionBranch, len(writer.Types()))
	for i, wt := range writer.Types() {
		wt = underlying(wt)
		if wt.Type() == avro.Null {
			branches[i] = unionBranch{schema: wt}
			continue
		}

		if readerIsUnion {
			rt, tag := pickUnionBranch(readerUnion, wt)
			if rt == nil {
				branches[i] = unionBranch{schema: wt, err: &avro.SchemaMismatchError{Reason: "reader union lacking writer schema " + string(wt.Type())}}
				continue
			}
			plan, err := c.compile(wt, rt)
			if err != nil {
				branches[i] = unionBranch{schema: wt, err: err}
				continue
			}
			branches[i] = unionBranch{schema: wt, plan: plan, tagAs: tag}
			continue
		}

		plan, err := c.compile(wt, reader)
		if err != nil {
			branches[i] = unionBranch{schema: wt, err: err}
			continue
		}
		branches[i] = unionBranch{schema: wt, plan: plan}
	}
	return &unionWriterNode{branches: branches}, nil
}

// compileReaderUnion handles a non-union writer paired with a union
// reader: the decoded value is tagged with whichever reader branch turns
// out to be compatible.
func (c *compiler) compileReaderUnion(writer avro.Schema, reader *avro.UnionSchema) (node, error) {
	rt, tag := pickUnionBranch(reader, writer)
	if rt == nil {
		return nil, &avro.SchemaMismatchError{Reason: "reader union lacking writer schema " + string(writer.Type())}
	}
	plan, err := c.compile(writer, rt)
	if err != nil {
		return nil, err
	}
	if writer.Type() == avro.Null {
		return plan, nil
	}
	return &taggedNode{inner: plan, tag: tag}, nil
}

type taggedNode struct {
	inner node
	tag   string
}

func (n *taggedNode) decode(r *avro.Reader) (any, error) {
	v, err := n.inner.decode(r)
	if err != nil {
		return nil, err
	}
	return map[string]any{n.tag: v}, nil
}

// pickUnionBranch finds the first schema in union compatible with writer,
// returning it and the union-tag name the reader side expects.
func pickUnionBranch(union *avro.UnionSchema, writer avro.Schema) (avro.Schema, string) {
	for _, rt := range union.Types() {
		resolved := underlying(rt)
		if resolved.Type() != writer.Type() {
			continue
		}
		if named, ok := resolved.(avro.NamedSchema); ok {
			if wn, ok := writer.(avro.NamedSchema); ok && named.FullName() != wn.FullName() {
				continue
			}
		}
		return rt, avro.BranchName(rt)
	}
	return nil, ""
}
