package keys

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/bls"

	"nocturne.dev/aletheia/aletheia"
)

// ErrBadSignature is returned when a witness signature does not verify.
var ErrBadSignature = errors.New("witness signature does not verify")

// WitnessKey is a BLS12-381 private key with its public key in G1 and
// signatures in G2 (48-byte public keys, 96-byte signatures).
type WitnessKey struct {
	sk  *bls.PrivateKey[bls.KeyG1SigG2]
	pub aletheia.PublicKey
}

// GenerateWitnessKey deterministically derives a witness key from ikm,
// which must be at least 32 bytes.
func GenerateWitnessKey(ikm []byte) (*WitnessKey, error) {
	sk, err := bls.KeyGen[bls.KeyG1SigG2](ikm, nil, []byte(deriveInfo))
	if err != nil {
		return nil, fmt.Errorf("generate witness key: %w", err)
	}
	raw, err := sk.PublicKey().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	pub, err := aletheia.PublicKeyFromBytes(raw)
	if err != nil {
		return nil, err
	}
	return &WitnessKey{sk: sk, pub: pub}, nil
}

// PublicKey returns the compressed G1 public key.
func (k *WitnessKey) PublicKey() aletheia.PublicKey { return k.pub }

// Sign returns the compressed G2 signature of msg.
func (k *WitnessKey) Sign(msg []byte) (aletheia.Signature, error) {
	return aletheia.SignatureFromBytes(bls.Sign(k.sk, msg))
}

// Witness signs the bytes of root and returns the resulting Witness.
func (k *WitnessKey) Witness(root aletheia.Hash) (aletheia.Witness, error) {
	sig, err := k.Sign(root[:])
	if err != nil {
		return aletheia.Witness{}, err
	}
	return aletheia.Witness{PublicKey: k.pub, Signature: sig}, nil
}

// Header signs root and returns a Header carrying the witness.
func (k *WitnessKey) Header(root aletheia.Hash) (aletheia.Header, error) {
	w, err := k.Witness(root)
	if err != nil {
		return aletheia.Header{}, err
	}
	return aletheia.Header{Witness: w, RootHash: root}, nil
}

// VerifyWitness checks w's signature over msg against w's public key.
func VerifyWitness(w aletheia.Witness, msg []byte) error {
	var pub bls.PublicKey[bls.KeyG1SigG2]
	if err := pub.UnmarshalBinary(w.PublicKey[:]); err != nil {
		return fmt.Errorf("invalid witness public key: %w", err)
	}
	if !bls.Verify(&pub, msg, w.Signature[:]) {
		return ErrBadSignature
	}
	return nil
}

// VerifyHeader checks that h's witness signed h's root hash.
func VerifyHeader(h aletheia.Header) error {
	return VerifyWitness(h.Witness, h.RootHash[:])
}
