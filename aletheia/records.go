package aletheia

import (
	"fmt"
	"time"

	"nocturne.dev/aletheia/canonical"
)

// Witness binds a BLS public key to its signature over a header's root hash.
type Witness struct {
	PublicKey PublicKey
	Signature Signature
}

// Header carries the witness and the root hash it attests to.
type Header struct {
	Witness  Witness
	RootHash Hash
}

// EntropyProof records one probability update. PBefore and QAfter are
// scaled probabilities; EnergyInvestment is a scaled, signed energy amount.
// None of them are range checked.
type EntropyProof struct {
	PBefore          uint64
	QAfter           uint64
	EnergyInvestment int64
	Timestamp        time.Time
}

// Proof is a header plus its ordered entropy proofs. Order is significant
// and duplicates are kept.
type Proof struct {
	Header        Header
	EntropyProofs []EntropyProof
}

func (w Witness) CanonicalValue() (canonical.Value, error) {
	return canonical.Mapping(
		canonical.Field("public_key", blobValue(w.PublicKey[:])),
		canonical.Field("signature", blobValue(w.Signature[:])),
	), nil
}

func (h Header) CanonicalValue() (canonical.Value, error) {
	w, err := h.Witness.CanonicalValue()
	if err != nil {
		return canonical.Value{}, err
	}
	return canonical.Mapping(
		canonical.Field("witness", w),
		canonical.Field("root_hash", blobValue(h.RootHash[:])),
	), nil
}

func (e EntropyProof) CanonicalValue() (canonical.Value, error) {
	ts, err := formatTimestamp(e.Timestamp)
	if err != nil {
		return canonical.Value{}, err
	}
	return canonical.Mapping(
		canonical.Field("p_before", canonical.Uint(e.PBefore)),
		canonical.Field("q_after", canonical.Uint(e.QAfter)),
		canonical.Field("energy_investment", canonical.Int(e.EnergyInvestment)),
		canonical.Field("timestamp", canonical.String(ts)),
	), nil
}

func (p Proof) CanonicalValue() (canonical.Value, error) {
	h, err := p.Header.CanonicalValue()
	if err != nil {
		return canonical.Value{}, err
	}
	proofs := make([]canonical.Value, len(p.EntropyProofs))
	for i, e := range p.EntropyProofs {
		v, err := e.CanonicalValue()
		if err != nil {
			return canonical.Value{}, fmt.Errorf("entropy_proofs[%d]: %w", i, err)
		}
		proofs[i] = v
	}
	return canonical.Mapping(
		canonical.Field("header", h),
		canonical.Field("entropy_proofs", canonical.Sequence(proofs...)),
	), nil
}

const (
	layoutSeconds = "2006-01-02T15:04:05Z"
	layoutMillis  = "2006-01-02T15:04:05.000Z"
	layoutMicros  = "2006-01-02T15:04:05.000000Z"
	layoutNanos   = "2006-01-02T15:04:05.000000000Z"
)

// formatTimestamp renders t in UTC as RFC 3339. A non-zero fraction is
// written with 3, 6 or 9 digits, whichever is the shortest exact form
// (.500Z, .000120Z).
func formatTimestamp(t time.Time) (string, error) {
	t = t.UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return "", schemaError("ALE-SCHEMA-007", "timestamp", fmt.Sprintf("year %d outside RFC 3339 range", y))
	}
	ns := t.Nanosecond()
	switch {
	case ns == 0:
		return t.Format(layoutSeconds), nil
	case ns%1_000_000 == 0:
		return t.Format(layoutMillis), nil
	case ns%1_000 == 0:
		return t.Format(layoutMicros), nil
	default:
		return t.Format(layoutNanos), nil
	}
}

func (w Witness) MarshalJSON() ([]byte, error)      { return canonical.Marshal(w) }
func (h Header) MarshalJSON() ([]byte, error)       { return canonical.Marshal(h) }
func (e EntropyProof) MarshalJSON() ([]byte, error) { return canonical.Marshal(e) }
func (p Proof) MarshalJSON() ([]byte, error)        { return canonical.Marshal(p) }

func (w *Witness) UnmarshalJSON(data []byte) error      { return unmarshalRecord(data, w.fromValue) }
func (h *Header) UnmarshalJSON(data []byte) error       { return unmarshalRecord(data, h.fromValue) }
func (e *EntropyProof) UnmarshalJSON(data []byte) error { return unmarshalRecord(data, e.fromValue) }
func (p *Proof) UnmarshalJSON(data []byte) error        { return unmarshalRecord(data, p.fromValue) }

// Marshal returns the canonical JSON encoding of a record.
func Marshal(rec canonical.Valuer) ([]byte, error) {
	return canonical.Marshal(rec)
}

// EntropyRoot returns the SHA-256 digest of the canonical encoding of
// proofs as a JSON array, a convenient root hash for a Header.
func EntropyRoot(proofs []EntropyProof) (Hash, error) {
	elems := make([]canonical.Value, len(proofs))
	for i, e := range proofs {
		v, err := e.CanonicalValue()
		if err != nil {
			return Hash{}, err
		}
		elems[i] = v
	}
	b, err := canonical.Encode(canonical.Sequence(elems...))
	if err != nil {
		return Hash{}, err
	}
	return sha256Sum(b), nil
}
