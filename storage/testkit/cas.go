package testkit

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"nocturne.dev/aletheia/aletheia"
	"nocturne.dev/aletheia/cidutil"
	"nocturne.dev/aletheia/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// RunCASConformance runs the shared CAS contract tests. Stores must accept
// canonical JSON and refuse anything else.
func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte(`{"hello":"aletheia storage"}`)

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}

		gotID, err := cidutil.CIDv1RawSHA256CID(got)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID(got) failed: %v", err)
		}
		if gotID != id {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte(`["same","bytes"]`)

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte(`{"missing":true}`)
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		_, err = cas.Put(b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
	t.Run("RejectNonCanonical", func(t *testing.T) {
		cas := newCAS(t)
		// Each input parses as JSON but is not the canonical form of its value.
		for _, in := range []string{
			`{"b":1,"a":2}`,
			`{"a": 2}`,
			`{"a":1.0}`,
			`{"a":"\u0041"}`,
			`[1,2]` + "\n",
		} {
			_, err := cas.Put([]byte(in))
			if !errors.Is(err, storage.ErrNonCanonical) {
				t.Fatalf("Put(%q): got err=%v want ErrNonCanonical", in, err)
			}
			id, err := cidutil.CIDv1RawSHA256CID([]byte(in))
			if err != nil {
				t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
			}
			if cas.Has(id) {
				t.Fatalf("rejected bytes %q were stored", in)
			}
		}

		// The canonical form of the same object is accepted.
		if _, err := cas.Put([]byte(`{"a":2,"b":1}`)); err != nil {
			t.Fatalf("Put canonical form failed: %v", err)
		}
	})

	t.Run("ProofRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		var want aletheia.Proof
		for i := range want.Header.Witness.PublicKey {
			want.Header.Witness.PublicKey[i] = byte(i)
		}
		for i := range want.Header.Witness.Signature {
			want.Header.Witness.Signature[i] = byte(255 - i)
		}
		want.EntropyProofs = []aletheia.EntropyProof{{
			PBefore:          500_000,
			QAfter:           250_000,
			EnergyInvestment: -1_000,
			Timestamp:        time.Date(2023, 10, 27, 10, 0, 0, 120_000, time.UTC),
		}}
		root, err := aletheia.EntropyRoot(want.EntropyProofs)
		if err != nil {
			t.Fatalf("EntropyRoot failed: %v", err)
		}
		want.Header.RootHash = root

		id, err := storage.PutRecord(cas, want)
		if err != nil {
			t.Fatalf("PutRecord failed: %v", err)
		}
		raw, err := aletheia.Marshal(want)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if wantID, _ := cidutil.CIDv1RawSHA256CID(raw); id != wantID {
			t.Fatalf("PutRecord CID mismatch: got %s want %s", id, wantID)
		}

		got, err := storage.GetProof(cas, id)
		if err != nil {
			t.Fatalf("GetProof failed: %v", err)
		}
		if got.Header != want.Header || len(got.EntropyProofs) != 1 {
			t.Fatalf("GetProof returned a different proof")
		}
		if !got.EntropyProofs[0].Timestamp.Equal(want.EntropyProofs[0].Timestamp) {
			t.Fatalf("timestamp mismatch: got %s", got.EntropyProofs[0].Timestamp)
		}
	})
}
