package canonical

import (
	"math"
	"strconv"
)

// Type tags the variant held by a Value.
type Type uint8

const (
	TypeNull Type = iota
	TypeBool
	TypeNumber
	TypeString
	TypeSequence
	TypeMapping
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSequence:
		return "sequence"
	case TypeMapping:
		return "mapping"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is a node of the Canonical Value Model.
//
// The zero Value is null. Values are immutable once constructed; the
// slices passed to Sequence and Mapping are copied.
type Value struct {
	typ     Type
	b       bool
	num     Number
	str     string
	elems   []Value
	members []Member
}

// Member is one key/value entry of a mapping.
type Member struct {
	Key   string
	Value Value
}

// Valuer is implemented by typed records that know how to express
// themselves in the Canonical Value Model.
type Valuer interface {
	CanonicalValue() (Value, error)
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

func String(s string) Value { return Value{typ: TypeString, str: s} }

func Int(i int64) Value { return Value{typ: TypeNumber, num: Number{form: formInt, i: i}} }

func Uint(u uint64) Value { return Value{typ: TypeNumber, num: Number{form: formUint, u: u}} }

// Float returns a number value. NaN and infinities are accepted here and
// rejected with KindUnrepresentable when the value is encoded.
func Float(f float64) Value { return Value{typ: TypeNumber, num: Number{form: formFloat, f: f}} }

// Sequence returns an ordered list value. Element order is significant and
// preserved by the encoder.
func Sequence(elems ...Value) Value {
	return Value{typ: TypeSequence, elems: append([]Value(nil), elems...)}
}

// Mapping returns a key/value value. Member order is irrelevant; keys must
// be unique, which the encoder enforces.
func Mapping(members ...Member) Value {
	return Value{typ: TypeMapping, members: append([]Member(nil), members...)}
}

// Object returns a mapping built from a Go map.
func Object(m map[string]Value) Value {
	members := make([]Member, 0, len(m))
	for k, v := range m {
		members = append(members, Member{Key: k, Value: v})
	}
	return Value{typ: TypeMapping, members: members}
}

// Field is shorthand for constructing a Member.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

func (v Value) Type() Type { return v.typ }

func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsBool returns the boolean and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsString returns the string and whether v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.typ == TypeString }

// AsNumber returns the number and whether v is a number.
func (v Value) AsNumber() (Number, bool) { return v.num, v.typ == TypeNumber }

// Elements returns a copy of the elements of a sequence, or nil.
func (v Value) Elements() []Value {
	if v.typ != TypeSequence {
		return nil
	}
	return append([]Value(nil), v.elems...)
}

// Len returns the number of elements or members, or 0 for scalars.
func (v Value) Len() int {
	switch v.typ {
	case TypeSequence:
		return len(v.elems)
	case TypeMapping:
		return len(v.members)
	default:
		return 0
	}
}

// Members returns a copy of the members of a mapping in construction order.
func (v Value) Members() []Member {
	if v.typ != TypeMapping {
		return nil
	}
	return append([]Member(nil), v.members...)
}

// Lookup returns the value stored under key in a mapping.
func (v Value) Lookup(key string) (Value, bool) {
	if v.typ != TypeMapping {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

type numberForm uint8

const (
	formInt numberForm = iota
	formUint
	formFloat
)

// Number is a JSON number that remembers whether it was built from a
// signed integer, an unsigned integer or a float, so 64-bit integers are
// never routed through float64.
type Number struct {
	form numberForm
	i    int64
	u    uint64
	f    float64
}

// IsInteger reports whether n was constructed from an integer.
func (n Number) IsInteger() bool { return n.form != formFloat }

// Int64 returns n as an int64 if it is an integer that fits.
func (n Number) Int64() (int64, bool) {
	switch n.form {
	case formInt:
		return n.i, true
	case formUint:
		if n.u > math.MaxInt64 {
			return 0, false
		}
		return int64(n.u), true
	default:
		return 0, false
	}
}

// Uint64 returns n as a uint64 if it is a non-negative integer.
func (n Number) Uint64() (uint64, bool) {
	switch n.form {
	case formUint:
		return n.u, true
	case formInt:
		if n.i < 0 {
			return 0, false
		}
		return uint64(n.i), true
	default:
		return 0, false
	}
}

// Float64 returns n converted to float64. Large integers lose precision.
func (n Number) Float64() float64 {
	switch n.form {
	case formInt:
		return float64(n.i)
	case formUint:
		return float64(n.u)
	default:
		return n.f
	}
}

// Equal reports whether a and b are structurally equal: mapping member
// order is ignored, sequence order is not. Values that cannot be encoded
// are never equal.
func Equal(a, b Value) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	return string(ea) == string(eb)
}
