package aletheia

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"nocturne.dev/aletheia/canonical"
)

// DecodeWitness strictly decodes a Witness from JSON.
func DecodeWitness(data []byte) (Witness, error) {
	var w Witness
	err := w.UnmarshalJSON(data)
	return w, err
}

// DecodeHeader strictly decodes a Header from JSON.
func DecodeHeader(data []byte) (Header, error) {
	var h Header
	err := h.UnmarshalJSON(data)
	return h, err
}

// DecodeEntropyProof strictly decodes an EntropyProof from JSON.
func DecodeEntropyProof(data []byte) (EntropyProof, error) {
	var e EntropyProof
	err := e.UnmarshalJSON(data)
	return e, err
}

// DecodeProof strictly decodes a Proof from JSON.
func DecodeProof(data []byte) (Proof, error) {
	var p Proof
	err := p.UnmarshalJSON(data)
	return p, err
}

// unmarshalRecord parses data and hands the value to fill. Syntax errors
// are returned as *canonical.Error; shape errors as *Error of KindSchema.
func unmarshalRecord(data []byte, fill func(canonical.Value, string) error) error {
	v, err := canonical.Parse(data)
	if err != nil {
		return err
	}
	return fill(v, "")
}

func (w *Witness) fromValue(v canonical.Value, path string) error {
	fields, err := expectFields(v, path, "public_key", "signature")
	if err != nil {
		return err
	}
	var out Witness
	if err := decodeBlob(fields["public_key"], out.PublicKey[:], join(path, "public_key")); err != nil {
		return err
	}
	if err := decodeBlob(fields["signature"], out.Signature[:], join(path, "signature")); err != nil {
		return err
	}
	*w = out
	return nil
}

func (h *Header) fromValue(v canonical.Value, path string) error {
	fields, err := expectFields(v, path, "witness", "root_hash")
	if err != nil {
		return err
	}
	var out Header
	if err := out.Witness.fromValue(fields["witness"], join(path, "witness")); err != nil {
		return err
	}
	if err := decodeBlob(fields["root_hash"], out.RootHash[:], join(path, "root_hash")); err != nil {
		return err
	}
	*h = out
	return nil
}

func (e *EntropyProof) fromValue(v canonical.Value, path string) error {
	fields, err := expectFields(v, path, "p_before", "q_after", "energy_investment", "timestamp")
	if err != nil {
		return err
	}
	var out EntropyProof
	if out.PBefore, err = decodeUint(fields["p_before"], join(path, "p_before")); err != nil {
		return err
	}
	if out.QAfter, err = decodeUint(fields["q_after"], join(path, "q_after")); err != nil {
		return err
	}
	if out.EnergyInvestment, err = decodeInt(fields["energy_investment"], join(path, "energy_investment")); err != nil {
		return err
	}
	if out.Timestamp, err = decodeTimestamp(fields["timestamp"], join(path, "timestamp")); err != nil {
		return err
	}
	*e = out
	return nil
}

func (p *Proof) fromValue(v canonical.Value, path string) error {
	fields, err := expectFields(v, path, "header", "entropy_proofs")
	if err != nil {
		return err
	}
	var out Proof
	if err := out.Header.fromValue(fields["header"], join(path, "header")); err != nil {
		return err
	}
	seqPath := join(path, "entropy_proofs")
	seq := fields["entropy_proofs"]
	if seq.Type() != canonical.TypeSequence {
		return schemaError("ALE-SCHEMA-001", seqPath, "expected array, got "+seq.Type().String())
	}
	elems := seq.Elements()
	out.EntropyProofs = make([]EntropyProof, len(elems))
	for i, elem := range elems {
		if err := out.EntropyProofs[i].fromValue(elem, fmt.Sprintf("%s[%d]", seqPath, i)); err != nil {
			return err
		}
	}
	*p = out
	return nil
}

// expectFields requires v to be a mapping with exactly the named keys.
func expectFields(v canonical.Value, path string, names ...string) (map[string]canonical.Value, error) {
	if v.Type() != canonical.TypeMapping {
		return nil, schemaError("ALE-SCHEMA-001", path, "expected object, got "+v.Type().String())
	}
	fields := make(map[string]canonical.Value, v.Len())
	for _, m := range v.Members() {
		fields[m.Key] = m.Value
	}
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return nil, schemaError("ALE-SCHEMA-002", join(path, name), "missing field")
		}
	}
	if len(fields) != len(names) {
		known := make(map[string]bool, len(names))
		for _, name := range names {
			known[name] = true
		}
		var unknown []string
		for k := range fields {
			if !known[k] {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		return nil, schemaError("ALE-SCHEMA-003", join(path, unknown[0]), "unknown field")
	}
	return fields, nil
}

func decodeUint(v canonical.Value, path string) (uint64, error) {
	n, ok := v.AsNumber()
	if !ok || !n.IsInteger() {
		return 0, schemaError("ALE-SCHEMA-001", path, "expected unsigned integer, got "+describe(v))
	}
	u, ok := n.Uint64()
	if !ok {
		return 0, schemaError("ALE-SCHEMA-006", path, "integer out of unsigned 64-bit range")
	}
	return u, nil
}

func decodeInt(v canonical.Value, path string) (int64, error) {
	n, ok := v.AsNumber()
	if !ok || !n.IsInteger() {
		return 0, schemaError("ALE-SCHEMA-001", path, "expected integer, got "+describe(v))
	}
	i, ok := n.Int64()
	if !ok {
		return 0, schemaError("ALE-SCHEMA-006", path, "integer out of signed 64-bit range")
	}
	return i, nil
}

func decodeTimestamp(v canonical.Value, path string) (time.Time, error) {
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, schemaError("ALE-SCHEMA-001", path, "expected RFC 3339 string, got "+v.Type().String())
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, wrapSchemaError("ALE-SCHEMA-007", path, "invalid RFC 3339 timestamp", err)
	}
	return t.UTC(), nil
}

func describe(v canonical.Value) string {
	if n, ok := v.AsNumber(); ok && !n.IsInteger() {
		return "non-integer number"
	}
	return v.Type().String()
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func sha256Sum(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}
