package canonical

import (
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Canonicalize converts v into the Canonical Value Model and returns its
// canonical JSON text.
//
// v may be a Value, a Valuer, or any Go value accepted by FromGo.
func Canonicalize(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Marshal is Canonicalize returning bytes.
func Marshal(v any) ([]byte, error) {
	val, err := FromGo(v)
	if err != nil {
		return nil, err
	}
	return Encode(val)
}

// Encode emits v as canonical JSON.
func Encode(v Value) ([]byte, error) {
	out, err := appendValue(nil, v)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(out) {
		return nil, newError(KindUTF8, "ALE-ENC-202", "canonical output is not valid UTF-8")
	}
	return out, nil
}

func appendValue(dst []byte, v Value) ([]byte, error) {
	switch v.typ {
	case TypeNull:
		return append(dst, "null"...), nil
	case TypeBool:
		if v.b {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case TypeNumber:
		return appendNumber(dst, v.num)
	case TypeString:
		return appendString(dst, v.str)
	case TypeSequence:
		dst = append(dst, '[')
		for i, e := range v.elems {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendValue(dst, e); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case TypeMapping:
		return appendMapping(dst, v.members)
	default:
		return nil, newError(KindUnrepresentable, "ALE-ENC-104", "unknown value type "+v.typ.String())
	}
}

func appendMapping(dst []byte, members []Member) ([]byte, error) {
	sorted := append([]Member(nil), members...)
	// Go string comparison is byte-wise, which for valid UTF-8 is the same
	// as code point order.
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	dst = append(dst, '{')
	for i, m := range sorted {
		if i > 0 {
			if sorted[i-1].Key == m.Key {
				return nil, newError(KindUnrepresentable, "ALE-ENC-103", "duplicate mapping key "+strconv.Quote(m.Key))
			}
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendString(dst, m.Key); err != nil {
			return nil, err
		}
		dst = append(dst, ':')
		if dst, err = appendValue(dst, m.Value); err != nil {
			return nil, err
		}
	}
	return append(dst, '}'), nil
}

func appendNumber(dst []byte, n Number) ([]byte, error) {
	switch n.form {
	case formInt:
		return strconv.AppendInt(dst, n.i, 10), nil
	case formUint:
		return strconv.AppendUint(dst, n.u, 10), nil
	}

	f := n.f
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, newError(KindUnrepresentable, "ALE-ENC-101", "NaN and infinite numbers have no JSON form")
	}
	if f == 0 {
		// Covers negative zero.
		return append(dst, '0'), nil
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.AppendFloat(dst, f, 'f', -1, 64), nil
	}
	// Exponent form: shortest mantissa, exponent without leading zeros
	// (1e-07 becomes 1e-7, matching ECMAScript number serialization).
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, 'e', -1, 64)
	if len(dst)-start >= 4 && dst[len(dst)-4] == 'e' && dst[len(dst)-2] == '0' {
		dst[len(dst)-2] = dst[len(dst)-1]
		dst = dst[:len(dst)-1]
	}
	return dst, nil
}

const hexDigits = "0123456789abcdef"

func appendString(dst []byte, s string) ([]byte, error) {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				return nil, newError(KindUTF8, "ALE-ENC-201", "string contains invalid UTF-8")
			}
			i += size
			continue
		}
		if c >= 0x20 && c != '"' && c != '\\' {
			i++
			continue
		}
		dst = append(dst, s[start:i]...)
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		}
		i++
		start = i
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"'), nil
}
