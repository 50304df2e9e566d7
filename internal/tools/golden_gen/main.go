// Command golden_gen writes the canonical golden vectors under
// testdata/golden. With --check it only compares the files on disk.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nocturne.dev/aletheia/aletheia"
	"nocturne.dev/aletheia/canonical"
	"nocturne.dev/aletheia/cidutil"
	"nocturne.dev/aletheia/internal/logx"
)

type vector struct {
	name string
	rec  canonical.Valuer
}

func filled(dst []byte, v byte) {
	for i := range dst {
		dst[i] = v
	}
}

func entropy(p, q uint64, e int64) aletheia.EntropyProof {
	return aletheia.EntropyProof{
		PBefore:          p,
		QAfter:           q,
		EnergyInvestment: e,
		Timestamp:        time.Date(2023, 10, 27, 10, 0, 0, 0, time.UTC),
	}
}

func vectors() []vector {
	var w aletheia.Witness
	filled(w.PublicKey[:], 1)
	filled(w.Signature[:], 2)
	h := aletheia.Header{Witness: w}
	filled(h.RootHash[:], 3)
	valid := entropy(500_000, 250_000, 1_000)

	return []vector{
		{"aletheia_witness", w},
		{"aletheia_header", h},
		{"entropy_proof_valid", valid},
		{"aletheia_proof_valid", aletheia.Proof{Header: h, EntropyProofs: []aletheia.EntropyProof{valid, valid}}},
		{"entropy_proof_invalid_q_gt_p", entropy(250_000, 500_000, 1_000)},
		{"entropy_proof_invalid_negative_energy", entropy(500_000, 250_000, -1_000)},
		{"entropy_proof_invalid_zero_p", entropy(0, 250_000, 1_000)},
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("golden_gen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	var check bool
	var logLevel string
	fs.StringVar(&dir, "out", filepath.Join("testdata", "golden"), "Output directory")
	fs.BoolVar(&check, "check", false, "Compare existing files instead of writing")
	fs.StringVar(&logLevel, "log-level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	log := logx.New(errOut, logLevel, "text")

	if !check {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("create output dir", "dir", dir, "err", err)
			return 1
		}
	}

	vs := vectors()
	sort.Slice(vs, func(i, j int) bool { return vs[i].name < vs[j].name })

	failed := 0
	for _, v := range vs {
		b, err := aletheia.Marshal(v.rec)
		if err != nil {
			log.Error("encode vector", "name", v.name, "err", err)
			return 1
		}
		id := cidutil.CIDv1RawSHA256(b)
		jsonPath := filepath.Join(dir, v.name+".json")
		cidPath := filepath.Join(dir, v.name+".cid")

		if check {
			if err := compare(jsonPath, b, cidPath, id); err != nil {
				log.Error("vector mismatch", "name", v.name, "err", err)
				failed++
				continue
			}
			log.Debug("vector ok", "name", v.name, "cid", id)
			continue
		}

		if err := os.WriteFile(jsonPath, b, 0o644); err != nil {
			log.Error("write vector", "path", jsonPath, "err", err)
			return 1
		}
		if err := os.WriteFile(cidPath, []byte(id+"\n"), 0o644); err != nil {
			log.Error("write cid", "path", cidPath, "err", err)
			return 1
		}
		log.Info("wrote vector", slog.String("name", v.name), slog.String("cid", id))
		fmt.Fprintf(out, "%s %s\n", id, v.name)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func compare(jsonPath string, want []byte, cidPath, wantCID string) error {
	got, err := os.ReadFile(jsonPath)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%s: bytes differ", jsonPath)
	}
	c, err := os.ReadFile(cidPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(c)) != wantCID {
		return fmt.Errorf("%s: got %s want %s", cidPath, strings.TrimSpace(string(c)), wantCID)
	}
	return nil
}
