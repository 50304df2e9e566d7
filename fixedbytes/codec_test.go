package fixedbytes

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestEncode_LengthsAndAlphabet(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{32, 43},
		{48, 64},
		{96, 128},
	}
	for _, tc := range cases {
		blob := bytes.Repeat([]byte{0xfb}, tc.n)
		s := Encode(blob)
		if len(s) != tc.want || EncodedLen(tc.n) != tc.want {
			t.Fatalf("Encode(%d bytes): got %d chars want %d", tc.n, len(s), tc.want)
		}
		if strings.ContainsAny(s, "+/=") {
			t.Fatalf("Encode produced non URL-safe text: %s", s)
		}
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{32, 48, 96} {
		for i := 0; i < 50; i++ {
			blob := make([]byte, n)
			rng.Read(blob)
			got, err := Decode(Encode(blob), n)
			if err != nil {
				t.Fatalf("Decode(%d): %v", n, err)
			}
			if !bytes.Equal(got, blob) {
				t.Fatalf("round trip mismatch for %d bytes", n)
			}
		}
	}
}

func requireKind(t *testing.T, err error, kind Kind, ruleID string) {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *fixedbytes.Error, got %T (%v)", err, err)
	}
	if e.Kind != kind || e.RuleID != ruleID {
		t.Fatalf("expected %s/%s, got %s/%s (%v)", kind, ruleID, e.Kind, e.RuleID, err)
	}
}

func TestDecode_LengthMismatch(t *testing.T) {
	publicKeyText := Encode(bytes.Repeat([]byte{1}, 48))
	if len(publicKeyText) != 64 {
		t.Fatalf("unexpected public key text length %d", len(publicKeyText))
	}
	// A 64-character string decodes to 48 bytes, never to a 96-byte signature.
	_, err := Decode(publicKeyText, 96)
	requireKind(t, err, KindLength, "ALE-B64-010")

	_, err = Decode(publicKeyText[:63], 48)
	requireKind(t, err, KindLength, "ALE-B64-010")

	_, err = Decode("", 32)
	requireKind(t, err, KindLength, "ALE-B64-010")
}

func TestDecode_NegativeLength(t *testing.T) {
	for _, n := range []int{-1, -96} {
		out, err := Decode("AAAA", n)
		requireKind(t, err, KindLength, "ALE-B64-010")
		if out != nil {
			t.Fatalf("Decode(_, %d) returned %v, want nil", n, out)
		}
	}
}

func TestDecode_AlphabetRejected(t *testing.T) {
	good := Encode(bytes.Repeat([]byte{2}, 48))
	for _, bad := range []string{
		"+" + good[1:],
		good[:63] + "/",
		good[:62] + "==",
		good[:10] + " " + good[11:],
		good[:20] + "é" + good[22:],
	} {
		_, err := Decode(bad, 48)
		requireKind(t, err, KindAlphabet, "ALE-B64-001")
	}
}

func TestDecode_NonCanonicalTrailingBits(t *testing.T) {
	zeros := Encode(make([]byte, 32))
	if zeros != strings.Repeat("A", 43) {
		t.Fatalf("unexpected encoding of zero hash: %s", zeros)
	}
	_, err := Decode(zeros[:42]+"B", 32)
	requireKind(t, err, KindAlphabet, "ALE-B64-002")
}

func TestDecodeInto_NoPartialResult(t *testing.T) {
	dst := bytes.Repeat([]byte{9}, 32)
	bad := Encode(make([]byte, 32))[:42] + "B"
	if err := DecodeInto(dst, bad); err == nil {
		t.Fatalf("expected error")
	}
	if !bytes.Equal(dst, bytes.Repeat([]byte{9}, 32)) {
		t.Fatalf("DecodeInto modified dst on failure")
	}
	if !IsKind(DecodeInto(dst, "+"), KindAlphabet) {
		t.Fatalf("IsKind mismatch")
	}
}
