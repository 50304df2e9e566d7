package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface for canonical
// records.
//
// Contract:
// - Put MUST be idempotent.
// - Put MUST reject bytes that are not canonical JSON with ErrNonCanonical.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (CIDv1, raw, sha2-256).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
