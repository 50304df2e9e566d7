package aletheia

import (
	"fmt"

	"nocturne.dev/aletheia/canonical"
	"nocturne.dev/aletheia/fixedbytes"
)

const (
	PublicKeySize = 48
	SignatureSize = 96
	HashSize      = 32
)

// PublicKey is a compressed BLS12-381 G1 public key. Its bytes are opaque to
// this package.
type PublicKey [PublicKeySize]byte

// Signature is a compressed BLS12-381 G2 signature. Its bytes are opaque to
// this package.
type Signature [SignatureSize]byte

// Hash is a 32-byte digest.
type Hash [HashSize]byte

// PublicKeyFromBytes copies b into a PublicKey, checking its length.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if err := copyExact(pk[:], b, "public_key"); err != nil {
		return PublicKey{}, err
	}
	return pk, nil
}

// SignatureFromBytes copies b into a Signature, checking its length.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if err := copyExact(sig[:], b, "signature"); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// HashFromBytes copies b into a Hash, checking its length.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if err := copyExact(h[:], b, "hash"); err != nil {
		return Hash{}, err
	}
	return h, nil
}

func copyExact(dst, src []byte, path string) error {
	if len(src) != len(dst) {
		return schemaError("ALE-SCHEMA-004", path, fmt.Sprintf("got %d bytes, want %d", len(src), len(dst)))
	}
	copy(dst, src)
	return nil
}

// String returns the unpadded URL-safe base64 form.
func (pk PublicKey) String() string { return fixedbytes.Encode(pk[:]) }
func (s Signature) String() string  { return fixedbytes.Encode(s[:]) }
func (h Hash) String() string       { return fixedbytes.Encode(h[:]) }

func (pk PublicKey) CanonicalValue() (canonical.Value, error) { return blobValue(pk[:]), nil }
func (s Signature) CanonicalValue() (canonical.Value, error)  { return blobValue(s[:]), nil }
func (h Hash) CanonicalValue() (canonical.Value, error)       { return blobValue(h[:]), nil }

func (pk PublicKey) MarshalJSON() ([]byte, error) { return canonical.Encode(blobValue(pk[:])) }
func (s Signature) MarshalJSON() ([]byte, error)  { return canonical.Encode(blobValue(s[:])) }
func (h Hash) MarshalJSON() ([]byte, error)       { return canonical.Encode(blobValue(h[:])) }

func (pk *PublicKey) UnmarshalJSON(data []byte) error { return unmarshalBlob(data, pk[:]) }
func (s *Signature) UnmarshalJSON(data []byte) error  { return unmarshalBlob(data, s[:]) }
func (h *Hash) UnmarshalJSON(data []byte) error       { return unmarshalBlob(data, h[:]) }

// EncodePublicKey returns the string-leaf form of pk.
func EncodePublicKey(pk PublicKey) string { return pk.String() }

// DecodePublicKey parses the string-leaf form of a public key. Errors are
// *fixedbytes.Error values (KindAlphabet or KindLength).
func DecodePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	if err := fixedbytes.DecodeInto(pk[:], s); err != nil {
		return PublicKey{}, err
	}
	return pk, nil
}

// EncodeSignature returns the string-leaf form of sig.
func EncodeSignature(sig Signature) string { return sig.String() }

// DecodeSignature parses the string-leaf form of a signature.
func DecodeSignature(s string) (Signature, error) {
	var sig Signature
	if err := fixedbytes.DecodeInto(sig[:], s); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// EncodeHash returns the string-leaf form of h.
func EncodeHash(h Hash) string { return h.String() }

// DecodeHash parses the string-leaf form of a hash.
func DecodeHash(s string) (Hash, error) {
	var h Hash
	if err := fixedbytes.DecodeInto(h[:], s); err != nil {
		return Hash{}, err
	}
	return h, nil
}

func blobValue(b []byte) canonical.Value {
	elems := make([]canonical.Value, len(b))
	for i, c := range b {
		elems[i] = canonical.Uint(uint64(c))
	}
	return canonical.Sequence(elems...)
}

func unmarshalBlob(data []byte, dst []byte) error {
	v, err := canonical.Parse(data)
	if err != nil {
		return err
	}
	return decodeBlob(v, dst, "")
}

// decodeBlob accepts either wire shape of a fixed-length blob: an array of
// exactly len(dst) integers in [0,255], or its base64 string leaf.
func decodeBlob(v canonical.Value, dst []byte, path string) error {
	switch v.Type() {
	case canonical.TypeSequence:
		elems := v.Elements()
		if len(elems) != len(dst) {
			return schemaError("ALE-SCHEMA-004", path, fmt.Sprintf("array has %d elements, want %d", len(elems), len(dst)))
		}
		buf := make([]byte, len(dst))
		for i, e := range elems {
			n, ok := e.AsNumber()
			if !ok {
				return schemaError("ALE-SCHEMA-001", fmt.Sprintf("%s[%d]", path, i), "expected integer, got "+e.Type().String())
			}
			u, ok := n.Uint64()
			if !ok || u > 255 {
				return schemaError("ALE-SCHEMA-005", fmt.Sprintf("%s[%d]", path, i), "byte value must be an integer in [0,255]")
			}
			buf[i] = byte(u)
		}
		copy(dst, buf)
		return nil
	case canonical.TypeString:
		s, _ := v.AsString()
		if err := fixedbytes.DecodeInto(dst, s); err != nil {
			return wrapSchemaError("ALE-SCHEMA-008", path, "invalid base64 blob", err)
		}
		return nil
	default:
		return schemaError("ALE-SCHEMA-001", path,
			fmt.Sprintf("expected array of %d integers or base64 string, got %s", len(dst), v.Type()))
	}
}
