package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nocturne.dev/aletheia/aletheia"
	"nocturne.dev/aletheia/keys"
)

const testSeedHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func goldenPath(name string) string {
	return filepath.Join("..", "..", "testdata", "golden", name)
}

func TestRun_UsageAndUnknown(t *testing.T) {
	if code, _, _ := runCLI(t, ""); code != 2 {
		t.Fatalf("no args: code %d", code)
	}
	if code, out, _ := runCLI(t, "", "help"); code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("help: code %d out %q", code, out)
	}
	if code, _, errOut := runCLI(t, "", "bogus"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("unknown: code %d err %q", code, errOut)
	}
}

func TestCanon_Stdin(t *testing.T) {
	code, out, errOut := runCLI(t, `{ "b": [1, 2.5e0], "a": "é" }`, "canon", "-")
	if code != 0 {
		t.Fatalf("canon: code %d err %s", code, errOut)
	}
	if out != `{"a":"é","b":[1,2.5]}` {
		t.Fatalf("canon output %q", out)
	}

	code, _, errOut = runCLI(t, `{"a":1,"a":2}`, "canon", "-")
	if code != 1 || !strings.Contains(errOut, "ALE-PARSE-003") {
		t.Fatalf("duplicate key: code %d err %q", code, errOut)
	}
}

func TestCheck_GoldenVectors(t *testing.T) {
	cases := map[string]string{
		"aletheia_witness":             "witness",
		"aletheia_header":              "header",
		"entropy_proof_valid":          "entropy",
		"aletheia_proof_valid":         "proof",
		"entropy_proof_invalid_zero_p": "entropy",
	}
	for name, typ := range cases {
		wantCID, err := os.ReadFile(goldenPath(name + ".cid"))
		if err != nil {
			t.Fatalf("read cid: %v", err)
		}
		code, out, errOut := runCLI(t, "", "check", "--type", typ, goldenPath(name+".json"))
		if code != 0 {
			t.Fatalf("%s: code %d err %s", name, code, errOut)
		}
		if strings.TrimSpace(out) != strings.TrimSpace(string(wantCID)) {
			t.Fatalf("%s: cid %q want %q", name, out, wantCID)
		}
	}
}

func TestCheck_RejectsAndReports(t *testing.T) {
	code, _, errOut := runCLI(t, `{"energy_investment":1,"p_before":1,"q_after":1}`, "check", "--type", "entropy", "-")
	if code != 1 || !strings.Contains(errOut, "ALE-SCHEMA-002") {
		t.Fatalf("missing field: code %d err %q", code, errOut)
	}

	code, _, errOut = runCLI(t, `{"timestamp":"2023-10-27T10:00:00Z","q_after":1,"p_before":1,"energy_investment":1}`, "check", "--type", "entropy", "-")
	if code != 1 || !strings.Contains(errOut, "not canonical") {
		t.Fatalf("non-canonical: code %d err %q", code, errOut)
	}

	if code, _, _ := runCLI(t, "{}", "check", "-"); code != 2 {
		t.Fatalf("missing --type: code %d", code)
	}
	if code, _, _ := runCLI(t, "{}", "check", "--type", "nope", "-"); code != 2 {
		t.Fatalf("bad --type: code %d", code)
	}
}

func TestCID_Hashes(t *testing.T) {
	code, out, _ := runCLI(t, `{"a": 1}`, "cid", "-")
	if code != 0 || strings.TrimSpace(out) != "bafkreiablk6x6xgfpiw5ss3vsdyevwaiijzzaxxdh3c45pvomitwvf7ymi" {
		t.Fatalf("sha2 cid: code %d out %q", code, out)
	}
	code, out, _ = runCLI(t, `{"a":1}`, "cid", "--hash", "sha3-256", "-")
	if code != 0 || strings.TrimSpace(out) != "bafkrmifjio5kbb7lv662esihghf6tkurochqwzv5ibkrkdubj7tuzzq4ji" {
		t.Fatalf("sha3 cid: code %d out %q", code, out)
	}
	if code, _, _ := runCLI(t, `{}`, "cid", "--hash", "md5", "-"); code != 2 {
		t.Fatalf("unsupported hash: code %d", code)
	}
}

func TestB64_EncodeDecode(t *testing.T) {
	code, out, _ := runCLI(t, "", "b64", "encode", "--hex", "fbff")
	if code != 0 || strings.TrimSpace(out) != "-_8" {
		t.Fatalf("encode: code %d out %q", code, out)
	}

	// Text that starts with '-' is still a value, not a flag.
	code, out, errOut := runCLI(t, "", "b64", "decode", "--len", "2", "--text", "-_8")
	if code != 0 || strings.TrimSpace(out) != "fbff" {
		t.Fatalf("decode --text: code %d out %q err %q", code, out, errOut)
	}
	code, out, errOut = runCLI(t, "-_8\n", "b64", "decode", "--len", "2", "-")
	if code != 0 || strings.TrimSpace(out) != "fbff" {
		t.Fatalf("decode stdin: code %d out %q err %q", code, out, errOut)
	}

	code, _, errOut = runCLI(t, "", "b64", "decode", "--len", "96", "--text", strings.Repeat("A", 64))
	if code != 1 || !strings.Contains(errOut, "Length") {
		t.Fatalf("length: code %d err %q", code, errOut)
	}
	code, _, errOut = runCLI(t, "", "b64", "decode", "--len", "2", "--text", "+/8")
	if code != 1 || !strings.Contains(errOut, "Alphabet") {
		t.Fatalf("alphabet: code %d err %q", code, errOut)
	}

	if code, _, _ := runCLI(t, "", "b64", "decode", "--len", "2", "AAA"); code != 2 {
		t.Fatalf("positional text: code %d", code)
	}
	if code, _, _ := runCLI(t, "", "b64", "decode", "--text", "AAA"); code != 2 {
		t.Fatalf("missing --len: code %d", code)
	}
}

func TestStore_PutGetHas(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := runCLI(t, `{"b":2, "a":1}`, "store", "put", "--dir", dir, "-")
	if code != 0 {
		t.Fatalf("put: code %d err %s", code, errOut)
	}
	id := strings.TrimSpace(out)

	code, out, _ = runCLI(t, "", "store", "has", "--dir", dir, id)
	if code != 0 || strings.TrimSpace(out) != "true" {
		t.Fatalf("has: code %d out %q", code, out)
	}
	code, out, _ = runCLI(t, "", "store", "get", "--dir", dir, id)
	if code != 0 || out != `{"a":1,"b":2}` {
		t.Fatalf("get: code %d out %q", code, out)
	}

	missing := "bafkreiablk6x6xgfpiw5ss3vsdyevwaiijzzaxxdh3c45pvomitwvf7ymi"
	if code, out, _ := runCLI(t, "", "store", "has", "--dir", dir, missing); code != 1 || strings.TrimSpace(out) != "false" {
		t.Fatalf("has missing: code %d out %q", code, out)
	}
	if code, _, errOut := runCLI(t, "", "store", "get", "--dir", dir, missing); code != 1 || !strings.Contains(errOut, "not found") {
		t.Fatalf("get missing: code %d err %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "", "store", "get", "--dir", dir, "not-a-cid"); code != 2 {
		t.Fatalf("bad cid: code %d", code)
	}
}

func TestStore_DefaultDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ALETHEIA_CAS_DIR", dir)
	code, out, errOut := runCLI(t, `[1,2]`, "--log-level", "info", "store", "put", "-")
	if code != 0 {
		t.Fatalf("put: code %d err %s", code, errOut)
	}
	id := strings.TrimSpace(out)
	if _, err := os.Stat(filepath.Join(dir, id[:2], id)); err != nil {
		t.Fatalf("object not stored under env dir: %v", err)
	}
	if !strings.Contains(errOut, "stored object") {
		t.Fatalf("expected info log, got %q", errOut)
	}
}

func TestWitness_SignAndVerify(t *testing.T) {
	t.Setenv("ALETHEIA_KEYS_DIR", t.TempDir())
	root := strings.Repeat("03", 32)

	code, out, errOut := runCLI(t, "", "witness", "--seed-hex", testSeedHex, "--role", "witness", "--root-hex", root, "--header")
	if code != 0 {
		t.Fatalf("witness: code %d err %s", code, errOut)
	}
	h, err := aletheia.DecodeHeader([]byte(out))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if err := keys.VerifyHeader(h); err != nil {
		t.Fatalf("VerifyHeader: %v", err)
	}

	path := writeFile(t, "header.json", out)
	if code, _, errOut := runCLI(t, "", "check", "--type", "header", "--verify", path); code != 0 {
		t.Fatalf("check --verify: code %d err %s", code, errOut)
	}

	// The golden header carries placeholder bytes, not a real signature.
	if code, _, _ := runCLI(t, "", "check", "--type", "header", "--verify", goldenPath("aletheia_header.json")); code != 1 {
		t.Fatalf("check --verify on placeholder header: code %d", code)
	}
	if code, _, _ := runCLI(t, "", "check", "--type", "entropy", "--verify", goldenPath("entropy_proof_valid.json")); code != 2 {
		t.Fatalf("--verify on entropy: code %d", code)
	}

	if code, _, _ := runCLI(t, "", "witness", "--root-hex", root); code != 2 {
		t.Fatalf("missing signer: code %d", code)
	}
	if code, _, _ := runCLI(t, "", "witness", "--seed-hex", testSeedHex, "--root-hex", "abcd"); code != 2 {
		t.Fatalf("short root: code %d", code)
	}
}

func TestKey_InitDeriveExportAndSign(t *testing.T) {
	t.Setenv("ALETHEIA_KEYS_DIR", t.TempDir())

	if code, _, errOut := runCLI(t, "", "key", "init", "--name", "alice", "--seed-hex", testSeedHex); code != 0 {
		t.Fatalf("key init: code %d err %s", code, errOut)
	}
	if code, _, errOut := runCLI(t, "", "key", "derive", "--from", "alice", "--role", "witness"); code != 0 {
		t.Fatalf("key derive: code %d err %s", code, errOut)
	}
	code, out, _ := runCLI(t, "", "key", "list")
	if code != 0 || out != "alice\n  - witness\n" {
		t.Fatalf("key list: code %d out %q", code, out)
	}
	code, exported, _ := runCLI(t, "", "key", "export", "--name", "alice", "--role", "witness")
	if code != 0 {
		t.Fatalf("key export: code %d", code)
	}

	root := strings.Repeat("ab", 32)
	code, out, errOut := runCLI(t, "", "witness", "--signer", "alice", "--signer-role", "witness", "--root-hex", root)
	if code != 0 {
		t.Fatalf("witness: code %d err %s", code, errOut)
	}
	w, err := aletheia.DecodeWitness([]byte(out))
	if err != nil {
		t.Fatalf("DecodeWitness: %v", err)
	}
	if w.PublicKey.String() != strings.TrimSpace(exported) {
		t.Fatalf("witness key %s does not match exported %s", w.PublicKey, exported)
	}

	// Signing with --seed-hex and --role must give the same key as the stored role.
	_, out2, _ := runCLI(t, "", "witness", "--seed-hex", testSeedHex, "--role", "witness", "--root-hex", root)
	if out2 != out {
		t.Fatalf("derived witness differs from stored role witness")
	}
}
