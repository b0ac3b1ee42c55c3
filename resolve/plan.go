// Package resolve compiles a writer schema and a reader schema into a Plan:
// a tree of typed nodes describing exactly how to walk a byte stream
// written under the writer schema and produce values shaped like the
// reader schema, applying the Avro schema resolution rules (promotion,
// field aliasing and defaults, enum fallback, union flattening) once at
// compile time rather than re-deriving them on every decoded value.
package resolve

import (
	"fmt"

	"github.com/brisktype/avro"
)

// Plan decodes a stream written under a fixed writer schema into values
// shaped like a fixed reader schema.
type Plan struct {
	root node
}

// Decode reads one resolved value from r.
func (p *Plan) Decode(r *avro.Reader) (any, error) {
	return p.root.decode(r)
}

type node interface {
	decode(r *avro.Reader) (any, error)
}

// sameNode decodes directly via the writer schema's own codec: the writer
// and reader agree on everything this node needs to produce a value.
type sameNode struct {
	schema avro.Schema
}

func (n *sameNode) decode(r *avro.Reader) (any, error) {
	return avro.DecodeValue(r, n.schema)
}

// promoteNode decodes a writer primitive and promotes it to the wider
// reader primitive type (numeric/string/bytes promotions).
type promoteNode struct {
	writer avro.Type
	reader avro.Type
}

func (n *promoteNode) decode(r *avro.Reader) (any, error) {
	switch n.writer {
	case avro.Int:
		v := r.ReadInt()
		if r.Error != nil {
			return nil, r.Error
		}
		return promoteNumeric(int64(v), n.reader)

	case avro.Long:
		v := r.ReadLong()
		if r.Error != nil {
			return nil, r.Error
		}
		return promoteNumeric(v, n.reader)

	case avro.Float:
		v := r.ReadFloat()
		if r.Error != nil {
			return nil, r.Error
		}
		if n.reader == avro.Double {
			return float64(v), nil
		}
		return v, nil

	case avro.String:
		v := r.ReadString()
		if r.Error != nil {
			return nil, r.Error
		}
		return []byte(v), nil

	case avro.Bytes:
		v := r.ReadBytes()
		if r.Error != nil {
			return nil, r.Error
		}
		return string(v), nil

	default:
		return nil, fmt.Errorf("avro: resolve: no promotion from %s to %s", n.writer, n.reader)
	}
}

func promoteNumeric(v int64, to avro.Type) (any, error) {
	switch to {
	case avro.Long:
		return v, nil
	case avro.Float:
		return float32(v), nil
	case avro.Double:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("avro: resolve: no numeric promotion to %s", to)
	}
}

// skipNode discards a value written under a writer-only field or union
// branch that the reader has no use for.
type skipNode struct {
	schema avro.Schema
}

func (n *skipNode) decode(r *avro.Reader) (any, error) {
	_, err := avro.DecodeValue(r, n.schema)
	return nil, err
}

// recordField describes how one writer field feeds the result record.
type recordField struct {
	writerName string
	readerName string // "" if the writer field has no reader counterpart
	plan       node
}

type recordNode struct {
	fields []recordField
	// extra holds reader fields with no writer counterpart, decoded from
	// their declared default instead of the stream.
	extra []defaultedField
}

type defaultedField struct {
	name  string
	value any
}

func (n *recordNode) decode(r *avro.Reader) (any, error) {
	out := make(map[string]any, len(n.fields)+len(n.extra))
	for _, f := range n.fields {
		v, err := f.plan.decode(r)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.writerName, err)
		}
		if f.readerName != "" {
			out[f.readerName] = v
		}
	}
	for _, f := range n.extra {
		out[f.name] = f.value
	}
	return out, nil
}

type enumNode struct {
	writer      *avro.EnumSchema
	readerIndex map[string]struct{}
	defaultSym  string
	hasDefault  bool
}

func (n *enumNode) decode(r *avro.Reader) (any, error) {
	idx := r.ReadInt()
	if r.Error != nil {
		return nil, r.Error
	}
	sym, ok := n.writer.Symbol(int(idx))
	if !ok {
		return nil, &avro.MalformedDataError{Op: "resolve.enum", Reason: "enum index out of range"}
	}
	if _, ok := n.readerIndex[sym]; ok {
		return sym, nil
	}
	if n.hasDefault {
		return n.defaultSym, nil
	}
	return nil, &avro.SchemaMismatchError{Reason: "writer symbol " + sym + " unknown to reader and reader has no default"}
}

type arrayNode struct {
	item node
}

func (n *arrayNode) decode(r *avro.Reader) (any, error) {
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
			v, err := n.item.decode(r)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
	return items, nil
}

type mapNode struct {
	value node
}

func (n *mapNode) decode(r *avro.Reader) (any, error) {
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
			v, err := n.value.decode(r)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
	}
	return m, nil
}

// unionWriterNode handles a writer union: the branch index on the wire
// selects which precompiled sub-plan to run.
type unionWriterNode struct {
	branches []unionBranch
}

type unionBranch struct {
	schema avro.Schema
	plan   node
	// tagAs is the reader-side union tag to wrap the value under, or "" if
	// the reader schema at this point is not itself a union (or the
	// branch is null).
	tagAs string
	// err, when set, means this branch could not be resolved against the
	// reader schema at compile time. The branch is only invalid if the
	// writer actually selects it, so the failure is deferred until decode.
	err error
}

func (n *unionWriterNode) decode(r *avro.Reader) (any, error) {
	idx := r.ReadLong()
	if r.Error != nil {
		return nil, r.Error
	}
	if idx < 0 || int(idx) >= len(n.branches) {
		return nil, &avro.MalformedDataError{Op: "resolve.union", Reason: "union index out of range"}
	}
	b := n.branches[idx]
	if b.err != nil {
		return nil, b.err
	}
	if b.schema.Type() == avro.Null {
		return nil, nil
	}
	v, err := b.plan.decode(r)
	if err != nil {
		return nil, err
	}
	if b.tagAs == "" {
		return v, nil
	}
	return map[string]any{b.tagAs: v}, nil
}
