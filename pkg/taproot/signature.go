// Package taproot implements verification of BIP-340 Schnorr signatures,
// which the signing protocol can produce alongside plain signatures.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki
package taproot

import (
	"bytes"
	"crypto/sha256"

	"github.com/cronokirby/saferith"
	"github.com/quorumsig/frost/pkg/math/curve"
)

// TaggedHash adds some domain separation to SHA-256.
//
// This is the hash_tag function mentioned in BIP-340.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#specification
func TaggedHash(tag string, datas ...[]byte) []byte {
	tagSum := sha256.Sum256([]byte(tag))

	h := sha256.New()
	h.Write(tagSum[:])
	h.Write(tagSum[:])
	for _, data := range datas {
		h.Write(data)
	}
	return h.Sum(nil)
}

// PublicKeyLen is the number of bytes in a PublicKey.
const PublicKeyLen = 32

// PublicKey represents a public key for BIP-340 signatures.
//
// This is simply the x coordinate of a point with an even y coordinate,
// as an array of 32 bytes.
type PublicKey []byte

// SignatureLen is the number of bytes in a Signature.
const SignatureLen = 64

// Signature represents a signature according to BIP-340.
//
// This should be exactly SignatureLen = 64 bytes long.
type Signature []byte

// Verify checks the integrity of a signature, using a public key.
//
// Note that m is the hash of a message, and not the message itself.
func (pk PublicKey) Verify(sig Signature, m []byte) bool {
	// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#verification
	if len(sig) != SignatureLen || len(pk) != PublicKeyLen {
		return false
	}

	P, err := curve.Secp256k1{}.LiftX(pk)
	if err != nil {
		return false
	}
	z := new(curve.Secp256k1Scalar)
	if err := z.UnmarshalBinary(sig[32:]); err != nil {
		return false
	}
	eHash := TaggedHash("BIP0340/challenge", sig[:32], pk, m)
	// The challenge is interpreted modulo the group order, per BIP-340.
	e := new(curve.Secp256k1Scalar)
	e.SetNat(new(saferith.Nat).SetBytes(eHash))

	R := z.ActOnBase().Sub(e.Act(P))
	check, ok := R.(*curve.Secp256k1Point)
	if !ok || check.IsIdentity() {
		return false
	}
	if !check.HasEvenY() {
		return false
	}
	return bytes.Equal(check.XBytes(), sig[:32])
}
