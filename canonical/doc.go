// Package canonical implements the Aletheia canonical JSON encoding.
//
// A record is first converted into the generic Canonical Value Model
// ([Value]: null, bool, number, string, sequence, mapping) and then emitted
// as compact JSON text with every mapping's keys in ascending byte-wise
// order of their UTF-8 encoding. Sequence order is preserved. Integers are
// emitted exactly (no exponent, full 64-bit range); floats use a single
// shortest round-trip form.
//
// Two structurally equal values always encode to identical bytes, whatever
// order their mapping entries were inserted in. The output is therefore
// suitable for hashing, signing and byte comparison across implementations.
//
// Typed records should implement [Valuer]. Values that do not are converted
// by [FromGo], which falls back to encoding/json reflection.
//
// All functions are pure and safe for concurrent use. Nothing in this
// package logs, retries or keeps state between calls.
package canonical
