// Package keys manages the BLS12-381 keys that sign Aletheia witnesses.
//
// API stability:
//
// Stable:
//   - Pure, deterministic primitives: role IKM derivation, witness key
//     generation from IKM, signing and verification.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions).
//     These are local-first utilities and are not part of the record format.
package keys
