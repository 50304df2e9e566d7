package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nocturne.dev/aletheia/aletheia"
	"nocturne.dev/aletheia/canonical"
	"nocturne.dev/aletheia/cidutil"
	"nocturne.dev/aletheia/fixedbytes"
	"nocturne.dev/aletheia/internal/logx"
	"nocturne.dev/aletheia/keys"
	"nocturne.dev/aletheia/storage"
	"nocturne.dev/aletheia/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	global := flag.NewFlagSet("aletheia", flag.ContinueOnError)
	global.SetOutput(errOut)
	var logLevel string
	var logFormat string
	global.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	global.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	if err := global.Parse(args); err != nil {
		return 2
	}
	args = global.Args()
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	c := &cli{in: in, out: out, errOut: errOut, log: logx.New(errOut, logLevel, logFormat)}

	switch args[0] {
	case "canon":
		return c.cmdCanon(args[1:])
	case "check":
		return c.cmdCheck(args[1:])
	case "cid":
		return c.cmdCID(args[1:])
	case "b64":
		return c.cmdB64(args[1:])
	case "store":
		return c.cmdStore(args[1:])
	case "key":
		return c.cmdKey(args[1:])
	case "witness":
		return c.cmdWitness(args[1:])
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "aletheia: canonical JSON and Aletheia record tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  aletheia [--log-level L] [--log-format text|json] <command> ...")
	fmt.Fprintln(w, "  aletheia canon <file|->")
	fmt.Fprintln(w, "  aletheia check --type witness|header|entropy|proof [--verify] <file|->")
	fmt.Fprintln(w, "  aletheia cid [--hash sha2-256|sha3-256] <file|->")
	fmt.Fprintln(w, "  aletheia b64 encode --hex <hex>")
	fmt.Fprintln(w, "  aletheia b64 decode --len <n> (--text <text> | -)")
	fmt.Fprintln(w, "  aletheia store put|get|has [--dir <dir>] <file|cid>")
	fmt.Fprintln(w, "  aletheia key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  aletheia key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  aletheia key list")
	fmt.Fprintln(w, "  aletheia key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  aletheia witness (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [--role <role>] --root-hex <64hex> [--header]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - canon, witness and store get write canonical bytes to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - the CAS directory defaults to $ALETHEIA_CAS_DIR, then ~/.aletheia/cas")
	fmt.Fprintln(w, "  - keys are stored under $ALETHEIA_KEYS_DIR, then ~/.aletheia/keys")
}

func (c *cli) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(path)
}

func (c *cli) cmdCanon(args []string) int {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: aletheia canon <file|->")
		return 2
	}
	b, err := c.readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "read: %v\n", err)
		return 1
	}
	canon, err := canonical.CanonicalizeJSON(b)
	if err != nil {
		fmt.Fprintf(c.errOut, "canonicalize [%s]: %v\n", canonical.RuleID(err), err)
		return 1
	}
	_, _ = c.out.Write(canon)
	return 0
}

func (c *cli) cmdCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var recordType string
	var verify bool
	fs.StringVar(&recordType, "type", "", "Record type: witness, header, entropy, proof")
	fs.BoolVar(&verify, "verify", false, "Verify the witness signature (header and proof only)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: aletheia check --type witness|header|entropy|proof [--verify] <file|->")
		return 2
	}
	b, err := c.readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "read: %v\n", err)
		return 1
	}

	var rec canonical.Valuer
	var header *aletheia.Header
	switch recordType {
	case "witness":
		rec, err = aletheia.DecodeWitness(b)
	case "header":
		var h aletheia.Header
		h, err = aletheia.DecodeHeader(b)
		rec, header = h, &h
	case "entropy":
		rec, err = aletheia.DecodeEntropyProof(b)
	case "proof":
		var p aletheia.Proof
		p, err = aletheia.DecodeProof(b)
		rec, header = p, &p.Header
	case "":
		fmt.Fprintln(c.errOut, "missing --type")
		return 2
	default:
		fmt.Fprintf(c.errOut, "unknown --type: %s\n", recordType)
		return 2
	}
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid %s [%s]: %v\n", recordType, ruleOf(err), err)
		return 1
	}

	canon, err := aletheia.Marshal(rec)
	if err != nil {
		fmt.Fprintf(c.errOut, "encode: %v\n", err)
		return 1
	}
	if verify {
		if header == nil {
			fmt.Fprintf(c.errOut, "--verify is not supported for --type %s\n", recordType)
			return 2
		}
		if err := keys.VerifyHeader(*header); err != nil {
			fmt.Fprintf(c.errOut, "verify: %v\n", err)
			return 1
		}
		c.log.Info("witness signature verified", "public_key", header.Witness.PublicKey.String())
	}

	id := cidutil.CIDv1RawSHA256(canon)
	if !bytes.Equal(b, canon) {
		c.log.Warn("input is valid but not canonical", "type", recordType, "cid", id)
		fmt.Fprintln(c.errOut, "not canonical")
		return 1
	}
	_, _ = fmt.Fprintln(c.out, id)
	return 0
}

func ruleOf(err error) string {
	if id := aletheia.RuleID(err); id != "" {
		return id
	}
	return canonical.RuleID(err)
}

func (c *cli) cmdCID(args []string) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var hashAlg string
	fs.StringVar(&hashAlg, "hash", cidutil.HashSHA256, "Multihash: sha2-256 or sha3-256")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: aletheia cid [--hash sha2-256|sha3-256] <file|->")
		return 2
	}
	b, err := c.readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "read: %v\n", err)
		return 1
	}
	canon, err := canonical.CanonicalizeJSON(b)
	if err != nil {
		fmt.Fprintf(c.errOut, "canonicalize [%s]: %v\n", canonical.RuleID(err), err)
		return 1
	}
	id, err := cidutil.CIDv1Raw(canon, hashAlg)
	if err != nil {
		fmt.Fprintf(c.errOut, "cid: %v\n", err)
		return 2
	}
	_, _ = fmt.Fprintln(c.out, id)
	return 0
}

func (c *cli) cmdB64(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: aletheia b64 <encode|decode> ...")
		return 2
	}
	switch args[0] {
	case "encode":
		fs := flag.NewFlagSet("b64 encode", flag.ContinueOnError)
		fs.SetOutput(c.errOut)
		var hexIn string
		fs.StringVar(&hexIn, "hex", "", "Bytes to encode, as hex")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexIn), "0x"))
		if err != nil {
			fmt.Fprintf(c.errOut, "invalid --hex: %v\n", err)
			return 2
		}
		_, _ = fmt.Fprintln(c.out, fixedbytes.Encode(raw))
		return 0
	case "decode":
		fs := flag.NewFlagSet("b64 decode", flag.ContinueOnError)
		fs.SetOutput(c.errOut)
		var n int
		var text string
		fs.IntVar(&n, "len", 0, "Expected decoded length in bytes")
		fs.StringVar(&text, "text", "", "Text to decode (may start with '-')")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if n <= 0 {
			fmt.Fprintln(c.errOut, "usage: aletheia b64 decode --len <n> (--text <text> | -)")
			return 2
		}
		switch {
		case text != "" && fs.NArg() == 0:
		case text == "" && fs.NArg() == 1 && fs.Arg(0) == "-":
			b, err := io.ReadAll(c.in)
			if err != nil {
				fmt.Fprintf(c.errOut, "read: %v\n", err)
				return 1
			}
			text = strings.TrimSpace(string(b))
		default:
			fmt.Fprintln(c.errOut, "usage: aletheia b64 decode --len <n> (--text <text> | -)")
			return 2
		}
		raw, err := fixedbytes.Decode(text, n)
		if err != nil {
			var fe *fixedbytes.Error
			if errors.As(err, &fe) {
				fmt.Fprintf(c.errOut, "decode [%s %s]: %v\n", fe.Kind, fe.RuleID, err)
			} else {
				fmt.Fprintf(c.errOut, "decode: %v\n", err)
			}
			return 1
		}
		_, _ = fmt.Fprintln(c.out, hex.EncodeToString(raw))
		return 0
	default:
		fmt.Fprintf(c.errOut, "unknown b64 subcommand: %s\n", args[0])
		return 2
	}
}

func defaultCASDir() (string, error) {
	if dir := os.Getenv("ALETHEIA_CAS_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aletheia", "cas"), nil
}

func (c *cli) cmdStore(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: aletheia store <put|get|has> [--dir <dir>] <file|cid>")
		return 2
	}
	sub := args[0]
	if sub != "put" && sub != "get" && sub != "has" {
		fmt.Fprintf(c.errOut, "unknown store subcommand: %s\n", sub)
		return 2
	}

	fs := flag.NewFlagSet("store "+sub, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var dir string
	fs.StringVar(&dir, "dir", "", "CAS directory")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(c.errOut, "usage: aletheia store %s [--dir <dir>] <file|cid>\n", sub)
		return 2
	}
	if dir == "" {
		var err error
		if dir, err = defaultCASDir(); err != nil {
			fmt.Fprintf(c.errOut, "cas dir: %v\n", err)
			return 1
		}
	}
	cas, err := localfs.New(dir)
	if err != nil {
		fmt.Fprintf(c.errOut, "open cas: %v\n", err)
		return 1
	}

	if sub == "put" {
		b, err := c.readInput(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(c.errOut, "read: %v\n", err)
			return 1
		}
		canon, err := canonical.CanonicalizeJSON(b)
		if err != nil {
			fmt.Fprintf(c.errOut, "canonicalize [%s]: %v\n", canonical.RuleID(err), err)
			return 1
		}
		id, err := cas.Put(canon)
		if err != nil {
			fmt.Fprintf(c.errOut, "put: %v\n", err)
			return 1
		}
		c.log.Info("stored object", "cid", id.String(), "bytes", len(canon), "dir", dir)
		_, _ = fmt.Fprintln(c.out, id)
		return 0
	}

	id, err := cidutil.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
		return 2
	}
	if sub == "has" {
		ok := cas.Has(id)
		_, _ = fmt.Fprintln(c.out, strconv.FormatBool(ok))
		if !ok {
			return 1
		}
		return 0
	}
	b, err := cas.Get(id)
	if err != nil {
		if storage.IsNotFound(err) {
			fmt.Fprintf(c.errOut, "not found: %s\n", id)
			return 1
		}
		fmt.Fprintf(c.errOut, "get: %v\n", err)
		return 1
	}
	_, _ = c.out.Write(b)
	return 0
}

func (c *cli) keyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(os.Getenv("ALETHEIA_KEYS_DIR"))
}

func (c *cli) cmdKey(args []string) int {
	if len(args) == 0 {
		printKeyUsage(c.errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return c.cmdKeyInit(args[1:])
	case "derive":
		return c.cmdKeyDerive(args[1:])
	case "list":
		return c.cmdKeyList(args[1:])
	case "export":
		return c.cmdKeyExport(args[1:])
	case "help", "-h", "--help":
		printKeyUsage(c.out)
		return 0
	default:
		fmt.Fprintf(c.errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(c.errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "aletheia key: local witness key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  aletheia key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  aletheia key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  aletheia key list")
	fmt.Fprintln(w, "  aletheia key export --name <name> [--role <role>]")
}

func (c *cli) cmdKeyInit(args []string) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under the key store)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional root seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(c.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(c.errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(c.errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, keys.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(c.errOut, "rand: %v\n", err)
			return 1
		}
	}

	pub, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(c.errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "Created root key: %s\n", pub)
	fmt.Fprintf(c.out, "Stored at: %s\n", rootPath)
	return 0
}

func (c *cli) cmdKeyDerive(args []string) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. witness, auditor)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(c.errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(c.errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(c.errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	pub, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(c.errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "Created role key: %s\n", pub)
	fmt.Fprintf(c.out, "Stored at: %s\n", rolePath)
	return 0
}

func (c *cli) cmdKeyExport(args []string) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(c.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(c.errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	pub, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(c.errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(c.out, pub)
	return 0
}

func (c *cli) cmdKeyList(args []string) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(c.errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(c.out, "  - %s\n", r)
		}
	}
	return 0
}

func (c *cli) cmdWitness(args []string) int {
	fs := flag.NewFlagSet("witness", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var seedHex string
	var signerName string
	var signerRole string
	var keyFile string
	var role string
	var rootHex string
	var asHeader bool

	fs.StringVar(&seedHex, "seed-hex", "", "Root seed as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Use a stored key by name (from 'aletheia key init')")
	fs.StringVar(&signerRole, "signer-role", "", "When using --signer, use a derived role key")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file (hex) created by 'aletheia key init/derive'")
	fs.StringVar(&role, "role", "", "Derive a role key from the loaded seed before signing")
	fs.StringVar(&rootHex, "root-hex", "", "Root hash to sign, as 64 hex chars")
	fs.BoolVar(&asHeader, "header", false, "Print a Header (witness plus root hash) instead of a Witness")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if seedHex == "" && signerName == "" && keyFile == "" {
		fmt.Fprintln(c.errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return 2
	}
	if seedHex != "" && (signerName != "" || keyFile != "") {
		fmt.Fprintln(c.errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return 2
	}
	if signerName != "" && keyFile != "" {
		fmt.Fprintln(c.errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return 2
	}
	rootBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(rootHex), "0x"))
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid --root-hex: %v\n", err)
		return 2
	}
	root, err := aletheia.HashFromBytes(rootBytes)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid --root-hex: %v\n", err)
		return 2
	}

	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signerName, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid signer: %v\n", err)
		return 2
	}
	if role != "" {
		if seed, err = keys.DeriveIKM(seed, role); err != nil {
			fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	k, err := keys.GenerateWitnessKey(seed)
	if err != nil {
		fmt.Fprintf(c.errOut, "witness key: %v\n", err)
		return 1
	}

	var rec canonical.Valuer
	if asHeader {
		rec, err = k.Header(root)
	} else {
		rec, err = k.Witness(root)
	}
	if err != nil {
		fmt.Fprintf(c.errOut, "sign: %v\n", err)
		return 1
	}
	b, err := aletheia.Marshal(rec)
	if err != nil {
		fmt.Fprintf(c.errOut, "encode: %v\n", err)
		return 1
	}
	c.log.Info("signed root hash", "public_key", k.PublicKey().String(), "root_hash", root.String())
	_, _ = c.out.Write(b)
	return 0
}
