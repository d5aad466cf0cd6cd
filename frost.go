// Package frost provides a threshold Schnorr signature scheme.
//
// The scheme splits a signing key between n participants, so that any t of
// them can cooperate to sign a message, but fewer than t learn nothing about
// the key. Key generation is performed by a trusted dealer; signing is the
// two-round protocol of Figure 3 in the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// In addition to plain Schnorr signatures, the scheme can produce BIP-340
// compatible signatures for Bitcoin's Taproot:
//
//	https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki
//
// A signing session involves a coordinator and exactly t signers. The
// coordinator only ever handles public data, and can be one of the signers or
// a separate party:
//
//	session, _ := frost.NewSession(result.Public(), signerIDs, message)
//	for _, signer := range signers {
//	    session.AddCommitment(signer.ID(), signer.Commit(rand.Reader))
//	}
//	pkg, _ := session.SigningPackage()
//	for _, signer := range signers {
//	    response, _ := signer.Sign(pkg)
//	    session.AddPartialSignature(response)
//	}
//	sig, _ := session.Aggregate()
package frost

import (
	"io"

	"github.com/quorumsig/frost/keygen"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/sign"
)

// Config contains one participant's key material, as produced by key
// generation.
type Config = keygen.Result

// Signature is a plain Schnorr signature.
type Signature = sign.Signature

// Keygen has a dealer generate a t-of-n sharing of a fresh key.
//
// It returns one Result per participant, each of which should be handed to
// its participant over a private channel and never touch the dealer again.
func Keygen(group curve.Curve, threshold, n int, rand io.Reader) (*keygen.Output, error) {
	return keygen.Dealer(group, threshold, n, rand)
}

// KeygenTaproot is like Keygen on secp256k1, but the shared key is
// normalized for use with BIP-340 signatures.
func KeygenTaproot(threshold, n int, rand io.Reader) (*keygen.Output, error) {
	return keygen.DealerTaproot(threshold, n, rand)
}

// NewSigner creates a participant's side of signing sessions, around its key
// material.
func NewSigner(config *Config) *sign.Signer {
	return sign.NewSigner(config)
}

// NewTaprootSigner is like NewSigner, for BIP-340 signatures.
func NewTaprootSigner(config *Config) (*sign.Signer, error) {
	return sign.NewTaprootSigner(config)
}

// NewSession creates the coordinator's side of one signing session, for a
// message and a set of exactly threshold many signers.
func NewSession(public *keygen.Public, signers []party.ID, message []byte) (*sign.Session, error) {
	return sign.NewSession(public, signers, message)
}

// NewTaprootSession is like NewSession, for BIP-340 signatures. The message
// should be a 32 byte hash.
func NewTaprootSession(public *keygen.Public, signers []party.ID, message []byte) (*sign.Session, error) {
	return sign.NewTaprootSession(public, signers, message)
}

// Verify checks a plain Schnorr signature against a public key.
func Verify(publicKey curve.Point, sig Signature, m []byte) bool {
	return sig.Verify(publicKey, m)
}
