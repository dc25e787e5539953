package codec

import (
	"github.com/cory-johannsen/worldforge/internal/schema"
)

// Value is one typed cell of a record. Kind selects the meaningful payload
// field; reference cells carry their target id as a plain U32.
type Value struct {
	Kind schema.FieldKind
	U32  uint32
	F32  float32
	Str  string
}

// U32Value returns a cell holding an unsigned integer or a reference id.
func U32Value(v uint32) Value {
	return Value{Kind: schema.U32, U32: v}
}

// F32Value returns a cell holding a 32-bit float.
func F32Value(v float32) Value {
	return Value{Kind: schema.F32, F32: v}
}

// StrValue returns a cell holding string text. The text rides along as-is
// until encode time; only then is it interned into a pool.
func StrValue(v string) Value {
	return Value{Kind: schema.Str, Str: v}
}

// Record is one instance of a RecordType: the shared descriptor plus an
// ordered cell list aligned index-for-index with the descriptor's fields.
type Record struct {
	Type   *schema.RecordType
	Values []Value
}

// Value returns the cell bound to the named field.
//
// Postcondition: ok is true iff the field exists and the record carries a
// cell at its position.
func (r *Record) Value(name string) (Value, bool) {
	_, i, ok := r.Type.Field(name)
	if !ok || i >= len(r.Values) {
		return Value{}, false
	}
	return r.Values[i], true
}

// Identity returns the record's identity id, the integer payload of the
// first cell. Meaningful only for types with an identity namespace.
func (r *Record) Identity() uint32 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[0].U32
}
