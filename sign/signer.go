package sign

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/frost/keygen"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/pkg/taproot"
)

var (
	// ErrNoNonce is returned when Sign is called before Commit.
	ErrNoNonce = errors.New("sign: no nonce pair for this session, call Commit first")
	// ErrCommitmentMismatch is returned when the signing package carries a
	// different commitment for this signer than the one it published.
	ErrCommitmentMismatch = errors.New("sign: signing package does not contain our commitment")
)

// Signer is one participant's view of signing sessions.
//
// A Signer holds the participant's long-lived key material, plus at most one
// outstanding nonce pair. Commit starts round 1 of a session; Sign finishes
// round 2 and destroys the nonce pair, successfully or not.
type Signer struct {
	result     *keygen.Result
	taproot    bool
	taprootKey taproot.PublicKey
	nonce      *Nonce
}

// NewSigner creates a Signer around the key material of one participant.
func NewSigner(result *keygen.Result) *Signer {
	return &Signer{result: result}
}

// NewTaprootSigner is like NewSigner, but produces BIP-340 compatible
// partial signatures.
//
// The key must have been generated with keygen.DealerTaproot.
func NewTaprootSigner(result *keygen.Result) (*Signer, error) {
	taprootKey, err := result.TaprootPublicKey()
	if err != nil {
		return nil, err
	}
	return &Signer{result: result, taproot: true, taprootKey: taprootKey}, nil
}

// ID returns the identifier of this participant.
func (s *Signer) ID() party.ID {
	return s.result.ID
}

// Commit runs round 1: it samples a fresh nonce pair for a new session, and
// returns the public commitment to send to the coordinator.
//
// Any previous, unconsumed nonce pair is discarded; a nonce pair never
// outlives the session it was created for.
func (s *Signer) Commit(rand io.Reader) Commitment {
	s.nonce = NewNonce(rand, s.result.Curve())
	return s.nonce.Commitment()
}

// Sign runs round 2: it computes this participant's partial signature for
// the session described by the signing package.
//
// The nonce pair is consumed no matter the outcome. Calling Sign twice for
// the same pair fails with ErrNonceReused.
func (s *Signer) Sign(pkg *SigningPackage) (PartialSignature, error) {
	if s.nonce == nil {
		return PartialSignature{}, ErrNoNonce
	}
	id := s.result.ID
	if !pkg.Signers().Contains(id) {
		return PartialSignature{}, fmt.Errorf("sign: signer %s is not part of the session", id)
	}
	own, ok := pkg.Commitment(id)
	if !ok || !own.D.Equal(s.nonce.commitment.D) || !own.E.Equal(s.nonce.commitment.E) {
		return PartialSignature{}, ErrCommitmentMismatch
	}

	d, e, err := s.nonce.consume()
	if err != nil {
		return PartialSignature{}, err
	}

	group := s.result.Curve()
	rho := bindingFactors(pkg)
	R, _ := groupCommitment(pkg, rho)

	var c curve.Scalar
	if s.taproot {
		// BIP-340 adjustment: R must have an even y coordinate. The group
		// negates k = ∑ᵢ (dᵢ + ρᵢ⋅eᵢ) if it doesn't, which each participant
		// accomplishes by negating its own dᵢ, eᵢ.
		if !R.(*curve.Secp256k1Point).HasEvenY() {
			d.Negate()
			e.Negate()
		}
		c = taprootChallenge(R, s.taprootKey, pkg.Message())
	} else {
		c = challenge(group, R, s.result.PublicKey, pkg.Message())
	}

	// This is step 5 of Figure 3 in the Frost paper:
	//
	//	https://eprint.iacr.org/2020/852.pdf
	//
	// "Each Pᵢ computes their response using their long-lived secret share sᵢ
	// by computing zᵢ = dᵢ + (eᵢ⋅ρᵢ) + λᵢ⋅sᵢ⋅c, using S to determine the ith
	// Lagrange coefficient λᵢ."
	lambda := lagrangeFor(group, pkg.Signers(), id)
	z := group.NewScalar().Set(lambda).Mul(s.result.PrivateShare).Mul(c)
	z.Add(d)
	ed := group.NewScalar().Set(rho[id]).Mul(e)
	z.Add(ed)

	return PartialSignature{ID: id, Z: z}, nil
}
