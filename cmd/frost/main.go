// Command frost is a small demonstration tool for threshold Schnorr
// signatures.
//
// It generates a t-of-n key sharing, signs messages by simulating all t
// signers and the coordinator in one process, and verifies the resulting
// signatures. Key material and signatures are stored as JSON files, so the
// intermediate artifacts can be inspected.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/quorumsig/frost"
	"github.com/quorumsig/frost/keygen"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/pkg/taproot"
	"github.com/quorumsig/frost/sign"
)

const (
	defaultKeyFile       = "./results/frost_keys.json"
	defaultSignatureFile = "./results/signature.json"

	// signingContext is mixed into the message hash, so that signatures made
	// by this tool cannot be confused with signatures over the same bytes in
	// another protocol.
	signingContext = "FROST-CLI-v1 SIGNING CONTEXT"
)

// keyFile is the JSON layout of the generated key material.
//
// Shares hold the full per-participant results, which include the private
// shares: this is a demonstration tool, a real deployment would hand each
// share to its participant and delete the file.
type keyFile struct {
	Threshold int               `json:"threshold"`
	Taproot   bool              `json:"taproot"`
	GroupKey  string            `json:"group_key"`
	Shares    map[string]string `json:"shares"`
}

type signatureFile struct {
	Signers   []party.ID `json:"signers"`
	Signature string     `json:"signature"`
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app := &cli.Command{
		Name:  "frost",
		Usage: "demonstration tool for threshold Schnorr signatures",
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "generate a t-of-n key sharing",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "t", Usage: "signing threshold", Value: 3},
					&cli.IntFlag{Name: "n", Usage: "number of participants", Value: 5},
					&cli.BoolFlag{Name: "taproot", Usage: "generate a BIP-340 compatible key"},
					&cli.StringFlag{Name: "key-file", Usage: "where to store the key material", Value: defaultKeyFile},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runKeygen(log, int(c.Int("t")), int(c.Int("n")), c.Bool("taproot"), c.String("key-file"))
				},
			},
			{
				Name:  "sign",
				Usage: "sign a message with a quorum of shares",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "message to sign", Required: true},
					&cli.StringFlag{Name: "signers", Usage: "comma separated signer identifiers (default: the first t)"},
					&cli.StringFlag{Name: "key-file", Usage: "key material to sign with", Value: defaultKeyFile},
					&cli.StringFlag{Name: "signature-file", Usage: "where to store the signature", Value: defaultSignatureFile},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runSign(log, c.String("message"), c.String("signers"), c.String("key-file"), c.String("signature-file"))
				},
			},
			{
				Name:  "verify",
				Usage: "verify a signature against the group key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "message the signature claims to sign", Required: true},
					&cli.StringFlag{Name: "key-file", Usage: "key material holding the group key", Value: defaultKeyFile},
					&cli.StringFlag{Name: "signature-file", Usage: "signature to verify", Value: defaultSignatureFile},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runVerify(log, c.String("message"), c.String("key-file"), c.String("signature-file"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// messageHash derives the 32 byte digest that actually gets signed.
func messageHash(message string) []byte {
	h := sha3.New256()
	h.Write([]byte(signingContext))
	h.Write([]byte(message))
	return h.Sum(nil)
}

func runKeygen(log zerolog.Logger, t, n int, taprootMode bool, path string) error {
	group := curve.Secp256k1{}

	var output *keygen.Output
	var err error
	if taprootMode {
		output, err = frost.KeygenTaproot(t, n, rand.Reader)
	} else {
		output, err = frost.Keygen(group, t, n, rand.Reader)
	}
	if err != nil {
		return err
	}

	groupKey, err := output.PublicKey.MarshalBinary()
	if err != nil {
		return err
	}
	file := keyFile{
		Threshold: t,
		Taproot:   taprootMode,
		GroupKey:  hex.EncodeToString(groupKey),
		Shares:    make(map[string]string, n),
	}
	for id, result := range output.Results {
		data, err := result.MarshalBinary()
		if err != nil {
			return err
		}
		file.Shares[id.String()] = hex.EncodeToString(data)
	}
	if err := writeJSON(path, file); err != nil {
		return err
	}

	log.Info().
		Int("threshold", t).
		Int("participants", n).
		Bool("taproot", taprootMode).
		Str("group_key", file.GroupKey).
		Str("file", path).
		Msg("generated key shares")
	return nil
}

func runSign(log zerolog.Logger, message, signerList, keyPath, sigPath string) error {
	file, err := readKeyFile(keyPath)
	if err != nil {
		return err
	}
	results, public, err := loadShares(file)
	if err != nil {
		return err
	}

	signerIDs, err := parseSigners(signerList, public)
	if err != nil {
		return err
	}

	m := messageHash(message)
	var session *sign.Session
	signers := make([]*sign.Signer, 0, len(signerIDs))
	for _, id := range signerIDs {
		result, ok := results[id]
		if !ok {
			return fmt.Errorf("no share for signer %s in %s", id, keyPath)
		}
		if file.Taproot {
			signer, err := frost.NewTaprootSigner(result)
			if err != nil {
				return err
			}
			signers = append(signers, signer)
		} else {
			signers = append(signers, frost.NewSigner(result))
		}
	}
	if file.Taproot {
		session, err = frost.NewTaprootSession(public, signerIDs, m)
	} else {
		session, err = frost.NewSession(public, signerIDs, m)
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("session", session.SID().String()).
		Ints("signers", idInts(signerIDs)).
		Msg("starting signing session")

	// Round 1.
	for _, signer := range signers {
		if err := session.AddCommitment(signer.ID(), signer.Commit(rand.Reader)); err != nil {
			return err
		}
	}
	pkg, err := session.SigningPackage()
	if err != nil {
		return err
	}

	// Round 2, with every signer working concurrently.
	var g errgroup.Group
	for _, signer := range signers {
		signer := signer
		g.Go(func() error {
			response, err := signer.Sign(pkg)
			if err != nil {
				return err
			}
			return session.AddPartialSignature(response)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var sigBytes []byte
	if file.Taproot {
		sig, err := session.AggregateTaproot()
		if err != nil {
			return err
		}
		sigBytes = sig
	} else {
		sig, err := session.Aggregate()
		if err != nil {
			return err
		}
		sigBytes, err = sig.MarshalBinary()
		if err != nil {
			return err
		}
	}

	out := signatureFile{
		Signers:   signerIDs,
		Signature: hex.EncodeToString(sigBytes),
	}
	if err := writeJSON(sigPath, out); err != nil {
		return err
	}
	log.Info().Str("signature", out.Signature).Str("file", sigPath).Msg("message signed")
	return nil
}

func runVerify(log zerolog.Logger, message, keyPath, sigPath string) error {
	file, err := readKeyFile(keyPath)
	if err != nil {
		return err
	}
	var sigFile signatureFile
	if err := readJSON(sigPath, &sigFile); err != nil {
		return err
	}
	sigBytes, err := hex.DecodeString(sigFile.Signature)
	if err != nil {
		return fmt.Errorf("signature file: %w", err)
	}
	groupKey, err := hex.DecodeString(file.GroupKey)
	if err != nil {
		return fmt.Errorf("key file: %w", err)
	}

	m := messageHash(message)
	group := curve.Secp256k1{}

	var valid bool
	if file.Taproot {
		publicKey := group.NewPoint()
		if err := publicKey.UnmarshalBinary(groupKey); err != nil {
			return fmt.Errorf("key file: %w", err)
		}
		pk := taproot.PublicKey(publicKey.(*curve.Secp256k1Point).XBytes())
		valid = pk.Verify(taproot.Signature(sigBytes), m)
	} else {
		publicKey := group.NewPoint()
		if err := publicKey.UnmarshalBinary(groupKey); err != nil {
			return fmt.Errorf("key file: %w", err)
		}
		sig := sign.EmptySignature(group)
		if err := sig.UnmarshalBinary(sigBytes); err != nil {
			return fmt.Errorf("signature file: %w", err)
		}
		valid = frost.Verify(publicKey, sig, m)
	}

	if !valid {
		return errors.New("signature is invalid")
	}
	log.Info().Msg("signature is valid")
	return nil
}

func readKeyFile(path string) (*keyFile, error) {
	var file keyFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// loadShares decodes every stored share, and derives the coordinator's
// public view from the first one.
func loadShares(file *keyFile) (map[party.ID]*keygen.Result, *keygen.Public, error) {
	group := curve.Secp256k1{}
	results := make(map[party.ID]*keygen.Result, len(file.Shares))
	for idStr, shareHex := range file.Shares {
		id, err := party.FromString(idStr)
		if err != nil {
			return nil, nil, fmt.Errorf("key file: %w", err)
		}
		data, err := hex.DecodeString(shareHex)
		if err != nil {
			return nil, nil, fmt.Errorf("key file: share %s: %w", idStr, err)
		}
		result := keygen.EmptyResult(group)
		if err := result.UnmarshalBinary(data); err != nil {
			return nil, nil, fmt.Errorf("key file: share %s: %w", idStr, err)
		}
		results[id] = result
	}
	for _, result := range results {
		return results, result.Public(), nil
	}
	return nil, nil, errors.New("key file contains no shares")
}

// parseSigners turns "1,3,5" into identifiers; an empty list selects the
// lowest threshold many participants.
func parseSigners(list string, public *keygen.Public) ([]party.ID, error) {
	if list == "" {
		all := public.Participants()
		return all[:public.Threshold], nil
	}
	parts := strings.Split(list, ",")
	ids := make([]party.ID, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("invalid signer identifier %q", part)
		}
		ids = append(ids, party.ID(v))
	}
	return ids, nil
}

func idInts(ids []party.ID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
