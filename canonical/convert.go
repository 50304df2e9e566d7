package canonical

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// FromGo converts a Go value into the Canonical Value Model.
//
// Values and Valuers convert directly, as do the scalar, slice and map
// shapes produced by encoding/json decoding. Anything else is marshaled
// with encoding/json and parsed back, so struct tags and json.Marshaler
// implementations are honored.
func FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case Valuer:
		if isNilPointer(x) {
			return Null(), nil
		}
		val, err := x.CanonicalValue()
		if err != nil {
			return Value{}, wrapError(KindUnrepresentable, "ALE-ENC-105", fmt.Sprintf("%T cannot be expressed as a canonical value", v), err)
		}
		return val, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(uint64(x)), nil
	case uint8:
		return Uint(uint64(x)), nil
	case uint16:
		return Uint(uint64(x)), nil
	case uint32:
		return Uint(uint64(x)), nil
	case uint64:
		return Uint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		return parseNumber(string(x))
	case []Value:
		return Sequence(x...), nil
	case map[string]Value:
		return Object(x), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = ev
		}
		return Value{typ: TypeSequence, elems: elems}, nil
	case map[string]any:
		members := make([]Member, 0, len(x))
		for k, e := range x {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k, Value: ev})
		}
		return Value{typ: TypeMapping, members: members}, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return Value{}, wrapError(KindUnrepresentable, "ALE-ENC-102", fmt.Sprintf("%T cannot be expressed as a canonical value", v), err)
	}
	return Parse(raw)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
