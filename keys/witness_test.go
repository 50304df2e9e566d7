package keys

import (
	"bytes"
	"errors"
	"testing"

	"nocturne.dev/aletheia/aletheia"
)

func testKey(t *testing.T) *WitnessKey {
	t.Helper()
	ikm, err := DeriveIKM(testRoot(), "witness")
	if err != nil {
		t.Fatalf("DeriveIKM: %v", err)
	}
	k, err := GenerateWitnessKey(ikm)
	if err != nil {
		t.Fatalf("GenerateWitnessKey: %v", err)
	}
	return k
}

func TestGenerateWitnessKeyDeterministic(t *testing.T) {
	a := testKey(t)
	b := testKey(t)
	if a.PublicKey() != b.PublicKey() {
		t.Fatalf("expected same public key for same ikm")
	}
	if a.PublicKey() == (aletheia.PublicKey{}) {
		t.Fatalf("public key is zero")
	}
	if _, err := GenerateWitnessKey(make([]byte, 31)); err == nil {
		t.Fatalf("expected error for short ikm")
	}
}

func TestWitness_SignsRootAndVerifies(t *testing.T) {
	k := testKey(t)

	var root aletheia.Hash
	for i := range root {
		root[i] = 3
	}
	h, err := k.Header(root)
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if h.Witness.PublicKey != k.PublicKey() {
		t.Fatalf("witness carries wrong public key")
	}
	if err := VerifyHeader(h); err != nil {
		t.Fatalf("VerifyHeader: %v", err)
	}

	again, err := k.Witness(root)
	if err != nil {
		t.Fatalf("Witness: %v", err)
	}
	if again != h.Witness {
		t.Fatalf("expected deterministic signatures")
	}

	// The witness must survive a canonical encode/decode.
	b, err := aletheia.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := aletheia.DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if err := VerifyHeader(decoded); err != nil {
		t.Fatalf("VerifyHeader after round trip: %v", err)
	}
}

func TestVerifyWitness_Rejects(t *testing.T) {
	k := testKey(t)
	msg := []byte("root")
	sig, err := k.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	w := aletheia.Witness{PublicKey: k.PublicKey(), Signature: sig}
	if err := VerifyWitness(w, msg); err != nil {
		t.Fatalf("VerifyWitness: %v", err)
	}

	if err := VerifyWitness(w, []byte("other")); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for wrong message, got %v", err)
	}

	other, err := GenerateWitnessKey(bytes.Repeat([]byte{9}, SeedSize))
	if err != nil {
		t.Fatalf("GenerateWitnessKey: %v", err)
	}
	swapped := aletheia.Witness{PublicKey: other.PublicKey(), Signature: sig}
	if err := VerifyWitness(swapped, msg); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for wrong key, got %v", err)
	}

	var junk aletheia.Witness
	for i := range junk.PublicKey {
		junk.PublicKey[i] = 1
	}
	if err := VerifyWitness(junk, msg); err == nil {
		t.Fatalf("expected error for invalid public key bytes")
	}
}
