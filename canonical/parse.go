package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parse decodes a single JSON document into the Canonical Value Model.
//
// Parsing is strict: the input must be valid UTF-8, contain exactly one
// JSON value (surrounding whitespace allowed) and must not repeat a key
// within an object. Integer literals keep their exact 64-bit value; other
// numbers become floats.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, newError(KindParse, "ALE-PARSE-005", "empty JSON input")
	}
	if !utf8.Valid(data) {
		return Value{}, newError(KindParse, "ALE-PARSE-002", "JSON input is not valid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Value{}, wrapError(KindParse, "ALE-PARSE-001", "invalid JSON", err)
	}
	v, err := parseValue(dec, tok)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, wrapError(KindParse, "ALE-PARSE-004", "unexpected data after JSON value", err)
	}
	return v, nil
}

func parseValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(string(t))
	case json.Delim:
		switch t {
		case '[':
			return parseArray(dec)
		case '{':
			return parseObject(dec)
		}
	}
	return Value{}, newError(KindParse, "ALE-PARSE-001", "unexpected JSON token")
}

func parseArray(dec *json.Decoder) (Value, error) {
	elems := []Value{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, wrapError(KindParse, "ALE-PARSE-001", "invalid JSON", err)
		}
		v, err := parseValue(dec, tok)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, wrapError(KindParse, "ALE-PARSE-001", "invalid JSON", err)
	}
	return Value{typ: TypeSequence, elems: elems}, nil
}

func parseObject(dec *json.Decoder) (Value, error) {
	members := []Member{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, wrapError(KindParse, "ALE-PARSE-001", "invalid JSON", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, newError(KindParse, "ALE-PARSE-001", "object key must be a string")
		}
		if _, dup := seen[key]; dup {
			return Value{}, newError(KindParse, "ALE-PARSE-003", "duplicate object key "+strconv.Quote(key))
		}
		seen[key] = struct{}{}

		tok, err = dec.Token()
		if err != nil {
			return Value{}, wrapError(KindParse, "ALE-PARSE-001", "invalid JSON", err)
		}
		v, err := parseValue(dec, tok)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, wrapError(KindParse, "ALE-PARSE-001", "invalid JSON", err)
	}
	return Value{typ: TypeMapping, members: members}, nil
}

// parseNumber keeps integer literals exact. Integers beyond the 64-bit
// range fall back to float64.
func parseNumber(lit string) (Value, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if strings.HasPrefix(lit, "-") {
			if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
				return Int(i), nil
			}
		} else if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
			return Uint(u), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, wrapError(KindParse, "ALE-PARSE-006", "invalid or out-of-range number "+strconv.Quote(lit), err)
	}
	return Float(f), nil
}

// CanonicalizeJSON parses raw JSON and returns its canonical encoding.
func CanonicalizeJSON(data []byte) ([]byte, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Encode(v)
}

// IsCanonical returns nil if data is already byte-for-byte canonical JSON.
func IsCanonical(data []byte) error {
	canon, err := CanonicalizeJSON(data)
	if err != nil {
		return err
	}
	if !bytes.Equal(canon, data) {
		return newError(KindNonCanonical, "ALE-CANON-001", "JSON is not in canonical form")
	}
	return nil
}
