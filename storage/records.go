package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"nocturne.dev/aletheia/aletheia"
	"nocturne.dev/aletheia/canonical"
)

// PutRecord stores the canonical encoding of rec and returns its CID.
func PutRecord(cas CAS, rec canonical.Valuer) (cid.Cid, error) {
	b, err := aletheia.Marshal(rec)
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(b)
}

// GetProof loads and strictly decodes the Proof stored under id.
func GetProof(cas CAS, id cid.Cid) (aletheia.Proof, error) {
	b, err := cas.Get(id)
	if err != nil {
		return aletheia.Proof{}, err
	}
	p, err := aletheia.DecodeProof(b)
	if err != nil {
		return aletheia.Proof{}, fmt.Errorf("storage: decode proof %s: %w", id, err)
	}
	return p, nil
}
