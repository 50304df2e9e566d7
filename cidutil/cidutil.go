// Package cidutil derives content identifiers for canonical documents.
//
// A document's identity is the CIDv1 ("raw" multicodec) of its canonical
// JSON bytes, so two implementations that agree on the canonical encoding
// also agree on the identifier.
package cidutil

import (
	"crypto/sha256"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"

	"nocturne.dev/aletheia/canonical"
)

const (
	HashSHA256  = "sha2-256"
	HashSHA3256 = "sha3-256"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return ""
	}
	return id.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDv1Raw returns a CIDv1 (raw) of data using the named hash algorithm.
func CIDv1Raw(data []byte, hashAlg string) (cid.Cid, error) {
	digest, err := Digest(hashAlg, data)
	if err != nil {
		return cid.Undef, err
	}
	code := uint64(multihash.SHA2_256)
	if hashAlg == HashSHA3256 {
		code = multihash.SHA3_256
	}
	mh, err := multihash.Encode(digest, code)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, multihash.Multihash(mh)), nil
}

// Digest hashes data with the named algorithm.
func Digest(hashAlg string, data []byte) ([]byte, error) {
	switch hashAlg {
	case HashSHA256, "":
		s := sha256.Sum256(data)
		return s[:], nil
	case HashSHA3256:
		s := sha3.Sum256(data)
		return s[:], nil
	default:
		return nil, fmt.Errorf("cidutil: unsupported hash algorithm %q", hashAlg)
	}
}

// Of canonicalizes v and returns the CIDv1 (raw + sha2-256) of the result.
func Of(v any) (cid.Cid, error) {
	b, err := canonical.Marshal(v)
	if err != nil {
		return cid.Undef, err
	}
	return CIDv1RawSHA256CID(b)
}

// Parse decodes a CID string.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("cidutil: invalid cid %q: %w", s, err)
	}
	return id, nil
}
