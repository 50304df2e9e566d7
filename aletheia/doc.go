// Package aletheia defines the Aletheia proof records and their canonical
// JSON form.
//
// Records implement canonical.Valuer, so canonical.Marshal (or the records'
// own MarshalJSON) produces the byte-exact encoding used for golden vectors,
// hashing and signing:
//
//	b, err := aletheia.Marshal(proof)
//
// Fixed-length binary fields (PublicKey, Signature, Hash) are emitted as JSON
// arrays of byte values. Decoding accepts either that array or the unpadded
// URL-safe base64 string of the same bytes; every other shape is rejected
// with a KindSchema error naming the offending field. Numeric fields are
// carried as-is: no probability ordering or energy sign checks happen here.
package aletheia
