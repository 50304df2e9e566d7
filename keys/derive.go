package keys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SeedSize is the size of root seeds and of derived role IKM.
const SeedSize = 32

const deriveInfo = "aletheia-witness-kms-v1"

// DeriveIKM deterministically derives role-specific input keying material
// from a root seed using HKDF-SHA256. The result is a valid seed for
// GenerateWitnessKey and for further derivation.
func DeriveIKM(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	info := make([]byte, 0, len(deriveInfo)+len(role)+6)
	info = append(info, deriveInfo...)
	info = append(info, 0)
	info = append(info, "role:"...)
	info = append(info, role...)

	out := make([]byte, SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, rootSeed, nil, info), out); err != nil {
		return nil, fmt.Errorf("derive ikm: %w", err)
	}
	return out, nil
}
