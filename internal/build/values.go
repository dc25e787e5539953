package build

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/worldforge/internal/codec"
	"github.com/cory-johannsen/worldforge/internal/schema"
)

// cellValue normalizes one caller-supplied field value into its typed cell.
// A nil raw falls back to the field's declared default, then to the kind's
// zero value. Kind disagreement is a caller error, never coerced.
func cellValue(f schema.Field, raw any) (codec.Value, error) {
	if raw == nil {
		raw = f.Default
	}
	switch f.Kind {
	case schema.U32, schema.Ref:
		if raw == nil {
			return codec.U32Value(0), nil
		}
		u, ok := toUint32(raw)
		if !ok {
			return codec.Value{}, fmt.Errorf("%T value for %s field: %w", raw, f.Kind, codec.ErrFieldTypeMismatch)
		}
		return codec.U32Value(u), nil
	case schema.F32:
		if raw == nil {
			return codec.F32Value(0), nil
		}
		switch v := raw.(type) {
		case float32:
			return codec.F32Value(v), nil
		case float64:
			return codec.F32Value(float32(v)), nil
		}
		return codec.Value{}, fmt.Errorf("%T value for %s field: %w", raw, f.Kind, codec.ErrFieldTypeMismatch)
	case schema.Str:
		if raw == nil {
			return codec.StrValue(""), nil
		}
		str, ok := raw.(string)
		if !ok {
			return codec.Value{}, fmt.Errorf("%T value for %s field: %w", raw, f.Kind, codec.ErrFieldTypeMismatch)
		}
		return codec.StrValue(str), nil
	default:
		return codec.Value{}, fmt.Errorf("unknown field kind %s", f.Kind)
	}
}

// toUint32 accepts the integer shapes YAML decoding and Go callers hand
// over. Floats are deliberately not accepted for integer fields.
func toUint32(raw any) (uint32, bool) {
	switch v := raw.(type) {
	case uint32:
		return v, true
	case int:
		if v < 0 || uint64(v) > math.MaxUint32 {
			return 0, false
		}
		return uint32(v), true
	case int64:
		if v < 0 || uint64(v) > math.MaxUint32 {
			return 0, false
		}
		return uint32(v), true
	case uint64:
		if v > math.MaxUint32 {
			return 0, false
		}
		return uint32(v), true
	case uint:
		if uint64(v) > math.MaxUint32 {
			return 0, false
		}
		return uint32(v), true
	}
	return 0, false
}
