package sign

import (
	"github.com/cronokirby/saferith"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/taproot"
)

// taprootChallenge computes the BIP-340 challenge for a group commitment R
// and an x-only public key.
//
// Only the x coordinate of R enters the hash, so this gives the same result
// for R and its negation; the sign adjustment happens in the responses.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#default-signing
func taprootChallenge(R curve.Point, publicKey taproot.PublicKey, message []byte) curve.Scalar {
	RBytes := R.(*curve.Secp256k1Point).XBytes()
	cHash := taproot.TaggedHash("BIP0340/challenge", RBytes, publicKey, message)
	c := new(curve.Secp256k1Scalar)
	c.SetNat(new(saferith.Nat).SetBytes(cHash))
	return c
}
