// Package codec encodes and decodes fixed-layout binary records. Every
// field occupies exactly four little-endian bytes regardless of kind;
// string fields store an offset into a shared string pool in place of the
// text, so the record block stays fixed-width no matter what the strings
// contain.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/worldforge/internal/schema"
	"github.com/cory-johannsen/worldforge/internal/strpool"
)

var (
	// ErrFieldTypeMismatch reports a cell whose kind disagrees with the
	// field declaration it is bound to.
	ErrFieldTypeMismatch = errors.New("field type mismatch")
	// ErrSizeMismatch reports a record whose byte length disagrees with the
	// declared row width. Field widths are static, so this is reachable
	// only through an inconsistent type descriptor or a mis-sliced buffer.
	ErrSizeMismatch = errors.New("record size mismatch")
	// ErrDanglingStringOffset reports a string offset that does not land on
	// an entry start in the accompanying string pool.
	ErrDanglingStringOffset = errors.New("dangling string offset")
)

// Encode serializes rec into one fixed-width binary row. String cells are
// interned into pool and written as offsets, so the pool grows as a side
// effect; already-interned text keeps its existing offset.
//
// Precondition:  pool is non-nil.
// Postcondition: len(result) == rec.Type.RowSize().
func Encode(rec *Record, pool *strpool.Pool) ([]byte, error) {
	rt := rec.Type
	if len(rec.Values) != len(rt.Fields) {
		return nil, fmt.Errorf("codec: record type %q: %d value(s) for %d field(s): %w",
			rt.Name, len(rec.Values), len(rt.Fields), ErrFieldTypeMismatch)
	}
	buf := make([]byte, 0, rt.RowSize())
	for i, f := range rt.Fields {
		v := rec.Values[i]
		switch f.Kind {
		case schema.U32, schema.Ref:
			if v.Kind != schema.U32 {
				return nil, kindMismatch(rt, f, v)
			}
			buf = binary.LittleEndian.AppendUint32(buf, v.U32)
		case schema.F32:
			if v.Kind != schema.F32 {
				return nil, kindMismatch(rt, f, v)
			}
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.F32))
		case schema.Str:
			if v.Kind != schema.Str {
				return nil, kindMismatch(rt, f, v)
			}
			buf = binary.LittleEndian.AppendUint32(buf, pool.Intern(v.Str))
		default:
			return nil, fmt.Errorf("codec: record type %q: field %q: unknown kind %s",
				rt.Name, f.Name, f.Kind)
		}
	}
	// Unreachable unless the descriptor's declared width disagrees with its
	// field list; surfaced rather than padded or truncated.
	if len(buf) != rt.RowSize() {
		return nil, fmt.Errorf("codec: record type %q: encoded %d byte(s), declared width %d: %w",
			rt.Name, len(buf), rt.RowSize(), ErrSizeMismatch)
	}
	return buf, nil
}

func kindMismatch(rt *schema.RecordType, f schema.Field, v Value) error {
	return fmt.Errorf("codec: record type %q: field %q: %s value for %s field: %w",
		rt.Name, f.Name, v.Kind, f.Kind, ErrFieldTypeMismatch)
}

// Decode parses one fixed-width row back into a Record. String offsets
// must land on entry starts in pool; anything else means buf and pool do
// not belong together.
//
// Precondition:  pool holds the string block buf was encoded against.
// Postcondition: result.Values is aligned index-for-index with rt.Fields.
func Decode(buf []byte, rt *schema.RecordType, pool *strpool.Pool) (*Record, error) {
	if sum := schema.FieldWidth * len(rt.Fields); sum != rt.RowSize() {
		return nil, fmt.Errorf("codec: record type %q: field list sums to %d byte(s), declared width %d: %w",
			rt.Name, sum, rt.RowSize(), ErrSizeMismatch)
	}
	if len(buf) != rt.RowSize() {
		return nil, fmt.Errorf("codec: record type %q: buffer is %d byte(s), declared width %d: %w",
			rt.Name, len(buf), rt.RowSize(), ErrSizeMismatch)
	}
	rec := &Record{Type: rt, Values: make([]Value, 0, len(rt.Fields))}
	for i, f := range rt.Fields {
		raw := binary.LittleEndian.Uint32(buf[i*schema.FieldWidth:])
		switch f.Kind {
		case schema.U32, schema.Ref:
			rec.Values = append(rec.Values, U32Value(raw))
		case schema.F32:
			rec.Values = append(rec.Values, F32Value(math.Float32frombits(raw)))
		case schema.Str:
			text, ok := pool.Lookup(raw)
			if !ok {
				return nil, fmt.Errorf("codec: record type %q: field %q: offset %d: %w",
					rt.Name, f.Name, raw, ErrDanglingStringOffset)
			}
			rec.Values = append(rec.Values, StrValue(text))
		default:
			return nil, fmt.Errorf("codec: record type %q: field %q: unknown kind %s",
				rt.Name, f.Name, f.Kind)
		}
	}
	return rec, nil
}
