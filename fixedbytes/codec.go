// Package fixedbytes converts fixed-length binary values (public keys,
// signatures, hashes) to and from their string form: URL-safe base64
// without padding.
//
// Decoding is strict. The text must use only A-Z a-z 0-9 - _ , must have
// exactly the length implied by the expected byte count, and must be the
// unique canonical encoding of its bytes, so every blob has one textual form.
package fixedbytes

import (
	"encoding/base64"
	"fmt"
)

var encoding = base64.RawURLEncoding.Strict()

// Encode returns the URL-safe, unpadded base64 text of blob. The result has
// ceil(len(blob)*8/6) characters.
func Encode(blob []byte) string {
	return encoding.EncodeToString(blob)
}

// EncodedLen returns the length of Encode's output for an n-byte blob.
func EncodedLen(n int) int {
	return encoding.EncodedLen(n)
}

// Decode decodes text, which must hold exactly n bytes.
func Decode(text string, n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(KindLength, "ALE-B64-010", fmt.Sprintf("negative expected length %d", n))
	}
	out := make([]byte, n)
	if err := DecodeInto(out, text); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInto decodes text into dst, which must be filled exactly. dst is
// left untouched on failure.
func DecodeInto(dst []byte, text string) error {
	for i := 0; i < len(text); i++ {
		if !inAlphabet(text[i]) {
			return newError(KindAlphabet, "ALE-B64-001", fmt.Sprintf("invalid character %q at offset %d", text[i], i))
		}
	}
	if want := EncodedLen(len(dst)); len(text) != want {
		return newError(KindLength, "ALE-B64-010",
			fmt.Sprintf("encoded length %d does not decode to %d bytes (want %d characters)", len(text), len(dst), want))
	}
	buf := make([]byte, len(dst))
	n, err := encoding.Decode(buf, []byte(text))
	if err != nil {
		return wrapError(KindAlphabet, "ALE-B64-002", "non-canonical base64 text", err)
	}
	if n != len(dst) {
		return newError(KindLength, "ALE-B64-010", fmt.Sprintf("decoded %d bytes, want %d", n, len(dst)))
	}
	copy(dst, buf)
	return nil
}

func inAlphabet(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}
