// Package keygen implements trusted-dealer key generation for threshold
// Schnorr signatures.
//
// The dealer samples a secret, splits it with a random polynomial, and
// publishes a Feldman commitment to that polynomial. Each participant then
// checks its own share against the commitment before accepting the key.
//
// This models the simplest generation procedure satisfying the invariant
// that any t shares interpolate to one secret unknown to any single party
// afterwards. A distributed variant, where each participant contributes a
// sub-polynomial and shares are summed, satisfies the same invariant and
// could replace this package without changing the signing protocol.
// This corresponds to Figure 1 of the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
package keygen

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/math/polynomial"
	"github.com/quorumsig/frost/pkg/math/sample"
	"github.com/quorumsig/frost/pkg/party"
)

var (
	// ErrThresholdZero is returned when the threshold is smaller than 1.
	ErrThresholdZero = errors.New("keygen: threshold must be at least 1")
	// ErrThresholdTooLarge is returned when fewer participants exist than the
	// threshold requires.
	ErrThresholdTooLarge = errors.New("keygen: threshold exceeds the number of participants")
	// ErrShareVerification is returned when a share does not match the
	// dealer's commitment. The entire generation must be discarded, treating
	// the dealer as malicious.
	ErrShareVerification = errors.New("keygen: share does not match the dealer's commitment")
)

// Output is the complete outcome of a key generation ceremony.
//
// Only the per-participant Results contain secret material; everything else
// is public.
type Output struct {
	// Threshold is the number of participants needed to produce a signature.
	Threshold int
	// PublicKey is the group's public key, s•G for the shared secret s.
	PublicKey curve.Point
	// Commitment is the dealer's commitment to the sharing polynomial.
	Commitment *polynomial.Exponent
	// VerificationShares maps each participant to its public share sᵢ•G.
	VerificationShares map[party.ID]curve.Point
	// Results holds each participant's private view of the ceremony.
	Results map[party.ID]*Result
}

// Dealer generates a new threshold key for n participants, of which any
// threshold many can sign.
//
// The secret never leaves this function, except split into the shares
// inside each Result.
func Dealer(group curve.Curve, threshold, n int, rand io.Reader) (*Output, error) {
	if threshold < 1 {
		return nil, ErrThresholdZero
	}
	if threshold > n {
		return nil, fmt.Errorf("%w: t = %d, n = %d", ErrThresholdTooLarge, threshold, n)
	}

	secret := sample.ScalarUnit(rand, group)
	return dealShares(group, secret, threshold, n, rand)
}

// DealerTaproot is like Dealer, but makes Taproot / BIP-340 compatible keys.
//
// The group public key is normalized to have an even y coordinate, so that
// its x coordinate alone identifies it.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#specification
func DealerTaproot(threshold, n int, rand io.Reader) (*Output, error) {
	if threshold < 1 {
		return nil, ErrThresholdZero
	}
	if threshold > n {
		return nil, fmt.Errorf("%w: t = %d, n = %d", ErrThresholdTooLarge, threshold, n)
	}

	group := curve.Secp256k1{}
	secret := sample.ScalarUnit(rand, group)
	if !secret.ActOnBase().(*curve.Secp256k1Point).HasEvenY() {
		secret.Negate()
	}
	return dealShares(group, secret, threshold, n, rand)
}

func dealShares(group curve.Curve, secret curve.Scalar, threshold, n int, rand io.Reader) (*Output, error) {
	participants := party.RangeIDs(n)

	// f is a polynomial of degree t - 1, so that any t points determine it.
	f := polynomial.NewPolynomial(group, threshold-1, secret, rand)
	commitment := polynomial.NewPolynomialExponent(f)
	publicKey := commitment.Constant()

	shares := make(map[party.ID]curve.Scalar, n)
	verificationShares := make(map[party.ID]curve.Point, n)
	for _, id := range participants {
		share := f.Evaluate(id.Scalar(group))
		shares[id] = share
		verificationShares[id] = share.ActOnBase()
	}

	// Each participant independently checks its own share against the
	// commitment. A single failure discards the whole ceremony.
	for _, id := range participants {
		if !VerifyShare(id, shares[id], commitment) {
			return nil, fmt.Errorf("%w: participant %s", ErrShareVerification, id)
		}
	}

	results := make(map[party.ID]*Result, n)
	for _, id := range participants {
		results[id] = &Result{
			ID:                 id,
			Threshold:          threshold,
			PrivateShare:       shares[id],
			PublicKey:          publicKey,
			VerificationShares: verificationShares,
		}
	}

	return &Output{
		Threshold:          threshold,
		PublicKey:          publicKey,
		Commitment:         commitment,
		VerificationShares: verificationShares,
		Results:            results,
	}, nil
}

// VerifyShare checks a secret share against the dealer's polynomial commitment.
//
// The check succeeds iff share•G equals the commitment evaluated at the
// participant's index.
func VerifyShare(id party.ID, share curve.Scalar, commitment *polynomial.Exponent) bool {
	group := share.Curve()
	return share.ActOnBase().Equal(commitment.Evaluate(id.Scalar(group)))
}
